package visitor

// Package visitor contains the visitor aggregate tracked server-side for
// anonymous or semi-identified end users. A visitor owns a history of
// sessions; only sessions that have not ended count as active.

import "time"

// Session is one browsing session of a visitor.
type Session struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
}

// Active reports whether the session has not ended.
func (s Session) Active() bool { return s.EndedAt == nil }

// Visitor is the aggregate owning sessions for one end user of one site.
type Visitor struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenant_id"`
	SiteID   string    `json:"site_id"`
	Sessions []Session `json:"sessions"`
}

// ActiveSessions returns the sessions that have not ended, preserving order.
func (v Visitor) ActiveSessions() []Session {
	var out []Session
	for _, s := range v.Sessions {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// HasActiveSession reports whether id is in the active-sessions list.
// A session id that exists in storage but has ended does not count.
func (v Visitor) HasActiveSession(id string) bool {
	for _, s := range v.ActiveSessions() {
		if s.ID == id {
			return true
		}
	}
	return false
}
