package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgrid/realtime-api/internal/domain/identity"
	mockauth "github.com/chatgrid/realtime-api/internal/mocks/auth"
	"github.com/chatgrid/realtime-api/internal/ports"
)

func TestIdentityHandlers_Me(t *testing.T) {
	h := &IdentityHandlers{}

	r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	r = r.WithContext(SetIdentityInContext(r.Context(), &identity.Identity{
		ID:    "u1",
		Roles: []string{identity.RoleCommercial},
		Email: "agent@example.com",
	}))
	w := httptest.NewRecorder()
	h.Me(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var got identity.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "u1", got.ID)

	w = httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityHandlers_Session(t *testing.T) {
	h := &IdentityHandlers{Sessions: &mockauth.SessionValidator{
		ValidateFunc: func(_ context.Context, id string) (*ports.SessionInfo, error) {
			if id != "live-session" {
				return nil, nil
			}
			return &ports.SessionInfo{VisitorID: "v1", TenantID: "t1", SessionID: id}, nil
		},
	}}

	w := httptest.NewRecorder()
	h.Session(w, httptest.NewRequest(http.MethodGet, "/api/session?sessionId=live-session", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info ports.SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "v1", info.VisitorID)

	w = httptest.NewRecorder()
	h.Session(w, httptest.NewRequest(http.MethodGet, "/api/session?sessionId=dead-session", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.Session(w, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type recordingBroadcaster struct {
	rooms []string
	event string
}

func (b *recordingBroadcaster) EmitToRooms(rooms []string, event string, _ any) {
	b.rooms = rooms
	b.event = event
}

func TestBroadcastHandlers_Broadcast(t *testing.T) {
	sink := &recordingBroadcaster{}
	h := &BroadcastHandlers{Gateway: sink}

	body := `{"rooms":["tenant:t1","chat:42"],"event":"chat:new","data":{"chatId":"42"}}`
	w := httptest.NewRecorder()
	h.Broadcast(w, httptest.NewRequest(http.MethodPost, "/api/broadcast", strings.NewReader(body)))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"tenant:t1", "chat:42"}, sink.rooms)
	assert.Equal(t, "chat:new", sink.event)
}

func TestBroadcastHandlers_Validation(t *testing.T) {
	h := &BroadcastHandlers{Gateway: &recordingBroadcaster{}}

	tests := []struct {
		name string
		body string
	}{
		{name: "missing event", body: `{"rooms":["chat:42"]}`},
		{name: "missing rooms", body: `{"event":"chat:new"}`},
		{name: "not json", body: `event=chat:new`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Broadcast(w, httptest.NewRequest(http.MethodPost, "/api/broadcast", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
