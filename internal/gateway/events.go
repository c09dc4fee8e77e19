package gateway

import "encoding/json"

// Inbound event names accepted from clients.
const (
	EventChatJoin      = "chat:join"
	EventChatLeave     = "chat:leave"
	EventVisitorJoin   = "visitor:join"
	EventVisitorLeave  = "visitor:leave"
	EventTenantJoin    = "tenant:join"
	EventTenantLeave   = "tenant:leave"
	EventPresenceJoin  = "presence:join"
	EventPresenceLeave = "presence:leave"
	EventTypingStart   = "typing:start"
	EventTypingStop    = "typing:stop"
)

// Outbound event names emitted to clients.
const (
	EventWelcome       = "welcome"
	EventError         = "error"
	EventChatJoined    = "chat:joined"
	EventChatLeft      = "chat:left"
	EventVisitorJoined = "visitor:joined"
	EventVisitorLeft   = "visitor:left"
	EventTenantJoined  = "tenant:joined"
	EventTenantLeft    = "tenant:left"
	EventPresenceJoined = "presence:joined"
	EventPresenceLeft   = "presence:left"
)

// Envelope is the wire frame for both directions: a name plus a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutEnvelope is the outbound counterpart; Data is marshaled at send time.
type OutEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// WelcomePayload acknowledges a new connection.
type WelcomePayload struct {
	ConnectionID string `json:"connectionId"`
}

// ErrorPayload is sent for any rejected inbound event. The connection stays
// open; only the offending event is refused.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// Validation error codes carried in ErrorPayload.
const (
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeInvalidEnum    = "invalid_enum"
	ErrCodeUnknownEvent   = "unknown_event"
)

// ChatPayload carries chat join/leave and is echoed back in acknowledgements.
type ChatPayload struct {
	ChatID   string `json:"chatId"`
	RoomName string `json:"roomName,omitempty"`
}

// VisitorPayload carries visitor room join/leave.
type VisitorPayload struct {
	VisitorID string `json:"visitorId"`
	RoomName  string `json:"roomName,omitempty"`
}

// TenantPayload carries tenant room join/leave. Automatic is set on the
// unsolicited join performed at connection open.
type TenantPayload struct {
	TenantID  string `json:"tenantId"`
	RoomName  string `json:"roomName,omitempty"`
	Automatic bool   `json:"automatic,omitempty"`
}

// PresencePayload carries presence room join/leave. UserType must be one of
// the two role classes.
type PresencePayload struct {
	UserID    string `json:"userId"`
	UserType  string `json:"userType"`
	RoomName  string `json:"roomName,omitempty"`
	Automatic bool   `json:"automatic,omitempty"`
}

// TypingPayload carries typing start/stop, rebroadcast verbatim to the other
// members of the chat room.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
}
