package httpx

import (
	"log/slog"
	"net/http"

	"github.com/chatgrid/realtime-api/internal/domain/identity"
	"github.com/chatgrid/realtime-api/internal/ports"
	"github.com/chatgrid/realtime-api/internal/service"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Resolver *service.Resolver
	Sessions ports.SessionValidator
	// Gateway serves the websocket endpoint and backs /api/broadcast.
	// It must implement http.Handler as well as Broadcaster.
	Gateway interface {
		http.Handler
		Broadcaster
	}
	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router. Identity resolution is
// applied to every route; individual routes declare their own terminal
// requirements.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	identityHandlers := &IdentityHandlers{Sessions: services.Sessions}
	broadcastHandlers := &BroadcastHandlers{Gateway: services.Gateway}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	mux.Handle("GET /api/me",
		RequireIdentity()(http.HandlerFunc(identityHandlers.Me)))
	mux.Handle("GET /api/session",
		http.HandlerFunc(identityHandlers.Session))
	mux.Handle("POST /api/broadcast",
		RequireRoles(identity.RoleAdmin)(http.HandlerFunc(broadcastHandlers.Broadcast)))

	mux.Handle("GET /ws", services.Gateway)

	return ResolveIdentity(services.Resolver)(mux)
}
