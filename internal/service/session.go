package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatgrid/realtime-api/internal/ports"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

// ResolveSessionCandidate picks the visitor session id to validate, with
// priority explicit value > custom header > cookie. The first defined source
// wins; values are never merged.
func ResolveSessionCandidate(explicit, header, cookie string) string {
	for _, v := range []string{explicit, header, cookie} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// VisitorSessionServiceOptions groups dependencies for VisitorSessionService.
type VisitorSessionServiceOptions struct {
	Visitors ports.VisitorRepository
	Logger   *slog.Logger
	// Now is optional and defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// VisitorSessionService validates visitor session ids against the stored
// visitor aggregate's active-sessions list.
type VisitorSessionService struct {
	visitors ports.VisitorRepository
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.SessionValidator = (*VisitorSessionService)(nil)

// NewVisitorSessionService constructs a new VisitorSessionService.
func NewVisitorSessionService(opts VisitorSessionServiceOptions) *VisitorSessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &VisitorSessionService{visitors: opts.Visitors, logger: logger, now: now}
}

// Validate looks up the visitor aggregate owning sessionID and checks the id
// against its currently active sessions. A session id that exists in storage
// but has ended yields (nil, nil): only live sessions authenticate.
func (s *VisitorSessionService) Validate(ctx context.Context, sessionID string) (*ports.SessionInfo, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil
	}

	v, err := s.visitors.FindBySessionID(ctx, sessionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if !v.HasActiveSession(sessionID) {
		return nil, nil
	}

	// Successful validation counts as activity. Best effort: a failed bump
	// never blocks authentication.
	if touchErr := s.visitors.TouchSession(ctx, sessionID, s.now()); touchErr != nil {
		s.logger.DebugContext(ctx, "failed to bump session activity", "error", touchErr)
	}

	return &ports.SessionInfo{
		VisitorID: v.ID,
		TenantID:  v.TenantID,
		SiteID:    v.SiteID,
		SessionID: sessionID,
	}, nil
}
