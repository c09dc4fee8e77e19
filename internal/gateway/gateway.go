// Package gateway implements the real-time websocket surface: connection
// lifecycle, room membership, and event fan-out. Authentication here is
// bearer-token only; cookie and visitor-session credentials are an HTTP
// concern and never reach this layer.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chatgrid/realtime-api/internal/domain/identity"
	"github.com/chatgrid/realtime-api/internal/observability/statsd"
	"github.com/chatgrid/realtime-api/internal/ports"
	"github.com/chatgrid/realtime-api/internal/service"
)

// Options groups dependencies for Gateway.
type Options struct {
	// Tokens verifies bearer tokens presented at connection open.
	Tokens ports.TokenVerifier
	// Registry is optional; a fresh one is created when nil.
	Registry *Registry
	Logger   *slog.Logger
	// Metrics is optional; nil disables emission.
	Metrics statsd.Sink
	// CheckOrigin is optional; nil accepts all origins.
	CheckOrigin func(r *http.Request) bool
}

// Gateway owns every live connection and the membership registry. One
// instance serves the whole process.
type Gateway struct {
	registry *Registry
	resolver *service.Resolver
	logger   *slog.Logger
	metrics  statsd.Sink
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*conn
}

// New constructs a Gateway.
func New(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	metrics := opts.Metrics
	if metrics == nil {
		// A nil *statsd.Client is a valid no-op sink.
		metrics = (*statsd.Client)(nil)
	}
	return &Gateway{
		registry: registry,
		resolver: service.NewResolver(service.ResolverOptions{Tokens: opts.Tokens, Logger: logger}),
		logger:   logger,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		conns: make(map[string]*conn),
	}
}

// Registry exposes the membership registry for collaborators that need
// read access (presence listings, health detail).
func (g *Gateway) Registry() *Registry { return g.registry }

// ServeHTTP upgrades the request and runs the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	ident := g.resolver.Resolve(r.Context(), connectionCredentials(r))
	c := newConn(uuid.NewString(), ident, ws)

	g.mu.Lock()
	g.conns[c.id] = c
	total := len(g.conns)
	g.mu.Unlock()

	g.metrics.Count("gateway.connect", 1, nil)
	g.metrics.Gauge("gateway.connections", float64(total), nil)
	g.logger.InfoContext(r.Context(), "connection open",
		"connection_id", c.id,
		"authenticated", ident != nil,
	)

	g.welcome(c)

	go c.writePump()
	g.readPump(c)
}

// connectionCredentials builds the bearer-only credential set from the
// upgrade request. A `token` query parameter is accepted as an alternative
// to the Authorization header since browser websocket clients cannot set
// headers.
func connectionCredentials(r *http.Request) service.Credentials {
	header := r.Header.Get("Authorization")
	if token := r.URL.Query().Get("token"); token != "" && header == "" {
		header = "Bearer " + token
	}
	return service.Credentials{AuthorizationHeader: header}
}

// welcome acknowledges the new connection and performs the automatic joins
// for an authenticated identity: always its presence room, and its tenant
// room when it is staff with a company attached.
func (g *Gateway) welcome(c *conn) {
	c.enqueue(OutEnvelope{Event: EventWelcome, Data: WelcomePayload{ConnectionID: c.id}})

	if c.identity == nil {
		return
	}

	if c.identity.IsStaff() && c.identity.CompanyID != "" {
		room := identity.TenantRoom(c.identity.CompanyID)
		g.registry.Join(c.id, room)
		c.enqueue(OutEnvelope{Event: EventTenantJoined, Data: TenantPayload{
			TenantID:  c.identity.CompanyID,
			RoomName:  room,
			Automatic: true,
		}})
	}

	class := c.identity.Class()
	room := identity.PresenceRoom(class, c.identity.ID)
	g.registry.Join(c.id, room)
	c.enqueue(OutEnvelope{Event: EventPresenceJoined, Data: PresencePayload{
		UserID:    c.identity.ID,
		UserType:  string(class),
		RoomName:  room,
		Automatic: true,
	}})
}

// readPump consumes frames until the socket errors, then tears the
// connection down.
func (g *Gateway) readPump(c *conn) {
	defer g.disconnect(c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				g.logger.Warn("read error", "connection_id", c.id, "error", err)
			}
			return
		}
		g.handleEvent(c, env)
	}
}

// disconnect releases every room the connection joined and purges it. Safe
// to call more than once.
func (g *Gateway) disconnect(c *conn) {
	g.mu.Lock()
	_, live := g.conns[c.id]
	delete(g.conns, c.id)
	total := len(g.conns)
	g.mu.Unlock()

	g.registry.Disconnect(c.id)
	c.close()

	if live {
		g.metrics.Count("gateway.disconnect", 1, nil)
		g.metrics.Gauge("gateway.connections", float64(total), nil)
		g.logger.Info("connection closed", "connection_id", c.id)
	}
}

// handleEvent dispatches one inbound event. Validation failures emit an
// error event back to the sender and never close the connection.
func (g *Gateway) handleEvent(c *conn, env Envelope) {
	g.metrics.Count("gateway.event", 1, map[string]string{"event": env.Event})

	switch env.Event {
	case EventChatJoin:
		g.handleChat(c, env, true)
	case EventChatLeave:
		g.handleChat(c, env, false)
	case EventVisitorJoin:
		g.handleVisitor(c, env, true)
	case EventVisitorLeave:
		g.handleVisitor(c, env, false)
	case EventTenantJoin:
		g.handleTenant(c, env, true)
	case EventTenantLeave:
		g.handleTenant(c, env, false)
	case EventPresenceJoin:
		g.handlePresence(c, env, true)
	case EventPresenceLeave:
		g.handlePresence(c, env, false)
	case EventTypingStart, EventTypingStop:
		g.handleTyping(c, env)
	default:
		g.sendError(c, env.Event, ErrCodeUnknownEvent, "unknown event")
	}
}

func (g *Gateway) handleChat(c *conn, env Envelope, join bool) {
	var p ChatPayload
	if !g.decode(c, env, &p) {
		return
	}
	if p.ChatID == "" {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "chatId is required")
		return
	}

	room := identity.ChatRoom(p.ChatID)
	ack := ChatPayload{ChatID: p.ChatID, RoomName: room}
	if join {
		g.registry.Join(c.id, room)
		c.enqueue(OutEnvelope{Event: EventChatJoined, Data: ack})
	} else {
		g.registry.Leave(c.id, room)
		c.enqueue(OutEnvelope{Event: EventChatLeft, Data: ack})
	}
}

func (g *Gateway) handleVisitor(c *conn, env Envelope, join bool) {
	var p VisitorPayload
	if !g.decode(c, env, &p) {
		return
	}
	if p.VisitorID == "" {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "visitorId is required")
		return
	}

	room := identity.VisitorRoom(p.VisitorID)
	ack := VisitorPayload{VisitorID: p.VisitorID, RoomName: room}
	if join {
		g.registry.Join(c.id, room)
		c.enqueue(OutEnvelope{Event: EventVisitorJoined, Data: ack})
	} else {
		g.registry.Leave(c.id, room)
		c.enqueue(OutEnvelope{Event: EventVisitorLeft, Data: ack})
	}
}

func (g *Gateway) handleTenant(c *conn, env Envelope, join bool) {
	var p TenantPayload
	if !g.decode(c, env, &p) {
		return
	}
	if p.TenantID == "" {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "tenantId is required")
		return
	}

	room := identity.TenantRoom(p.TenantID)
	ack := TenantPayload{TenantID: p.TenantID, RoomName: room}
	if join {
		g.registry.Join(c.id, room)
		c.enqueue(OutEnvelope{Event: EventTenantJoined, Data: ack})
	} else {
		g.registry.Leave(c.id, room)
		c.enqueue(OutEnvelope{Event: EventTenantLeft, Data: ack})
	}
}

func (g *Gateway) handlePresence(c *conn, env Envelope, join bool) {
	var p PresencePayload
	if !g.decode(c, env, &p) {
		return
	}
	if p.UserID == "" {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "userId is required")
		return
	}
	if !identity.ValidRoleClass(p.UserType) {
		g.sendError(c, env.Event, ErrCodeInvalidEnum, "userType must be commercial or visitor")
		return
	}

	room := identity.PresenceRoom(identity.RoleClass(p.UserType), p.UserID)
	ack := PresencePayload{UserID: p.UserID, UserType: p.UserType, RoomName: room}
	if join {
		g.registry.Join(c.id, room)
		c.enqueue(OutEnvelope{Event: EventPresenceJoined, Data: ack})
	} else {
		g.registry.Leave(c.id, room)
		c.enqueue(OutEnvelope{Event: EventPresenceLeft, Data: ack})
	}
}

// handleTyping rebroadcasts the indicator to the chat room, excluding the
// sender. Nothing is stored; a stale indicator simply expires client-side.
func (g *Gateway) handleTyping(c *conn, env Envelope) {
	var p TypingPayload
	if !g.decode(c, env, &p) {
		return
	}
	if p.ChatID == "" || p.UserID == "" {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "chatId and userId are required")
		return
	}

	g.emit(identity.ChatRoom(p.ChatID), OutEnvelope{Event: env.Event, Data: p}, c.id)
}

func (g *Gateway) decode(c *conn, env Envelope, dst any) bool {
	if len(env.Data) == 0 {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "payload is required")
		return false
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		g.sendError(c, env.Event, ErrCodeInvalidPayload, "malformed payload")
		return false
	}
	return true
}

func (g *Gateway) sendError(c *conn, event, code, message string) {
	g.metrics.Count("gateway.event_rejected", 1, map[string]string{"event": event})
	c.enqueue(OutEnvelope{Event: EventError, Data: ErrorPayload{
		Code:    code,
		Message: message,
		Event:   event,
	}})
}

// EmitToRoom pushes an event to every member of the room. It carries no
// domain knowledge; collaborators use it to fan out notifications.
func (g *Gateway) EmitToRoom(room, event string, payload any) {
	g.emit(room, OutEnvelope{Event: event, Data: payload}, "")
}

// EmitToRooms pushes the same event to every member of each room.
func (g *Gateway) EmitToRooms(rooms []string, event string, payload any) {
	for _, room := range rooms {
		g.EmitToRoom(room, event, payload)
	}
}

func (g *Gateway) emit(room string, ev OutEnvelope, excludeConnID string) {
	for _, connID := range g.registry.Members(room) {
		if connID == excludeConnID {
			continue
		}
		g.mu.RLock()
		c := g.conns[connID]
		g.mu.RUnlock()
		if c == nil {
			continue
		}
		if !c.enqueue(ev) {
			g.logger.Debug("dropped event for slow connection",
				"connection_id", connID, "event", ev.Event)
		}
	}
}
