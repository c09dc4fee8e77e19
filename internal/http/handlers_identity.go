package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/chatgrid/realtime-api/internal/ports"
	"github.com/chatgrid/realtime-api/internal/service"
)

// Broadcaster pushes events into live rooms. Implemented by the gateway.
type Broadcaster interface {
	EmitToRooms(rooms []string, event string, payload any)
}

// IdentityHandlers serves the identity and session endpoints.
type IdentityHandlers struct {
	Sessions ports.SessionValidator
}

// Me returns the identity resolved for the current request.
func (h *IdentityHandlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentityFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, id)
}

// Session validates a visitor session id taken from the usual sources and
// returns its descriptor, or 404 when the id does not map to a live session.
func (h *IdentityHandlers) Session(w http.ResponseWriter, r *http.Request) {
	creds := CredentialsFromRequest(r)
	candidate := service.ResolveSessionCandidate(creds.SessionID, creds.SessionHeader, creds.SessionCookie)
	if candidate == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_session_id",
			Err:     errors.New("no session id provided"),
		})
		return
	}

	info, err := h.Sessions.Validate(r.Context(), candidate)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("session lookup failed"),
		})
		return
	}
	if info == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "session_not_found",
			Err:     errors.New("no active session for id"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, info)
}

// BroadcastHandlers pushes server-side notifications into rooms.
type BroadcastHandlers struct {
	Gateway Broadcaster
}

type broadcastRequest struct {
	Rooms []string `json:"rooms"`
	Event string   `json:"event"`
	Data  any      `json:"data,omitempty"`
}

// Broadcast fans one event out to every member of the named rooms.
func (h *BroadcastHandlers) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Event = strings.TrimSpace(req.Event)
	if req.Event == "" || len(req.Rooms) == 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_payload",
			Err:     errors.New("rooms and event are required"),
		})
		return
	}

	h.Gateway.EmitToRooms(req.Rooms, req.Event, req.Data)
	WriteJSON(w, http.StatusAccepted, map[string]any{
		"rooms": len(req.Rooms),
		"event": req.Event,
	})
}
