package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chatgrid/realtime-api/internal/domain/identity"
)

const (
	// writeWait bounds a single frame write to a slow client.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before it is
	// considered dead; pings go out at pingPeriod to keep it alive.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 32 * 1024
	sendBuffer     = 64
)

// conn is one live client connection. Outbound events go through the
// buffered send channel so fan-out never blocks on a slow socket; writePump
// is the only goroutine that touches the websocket writer.
type conn struct {
	id       string
	identity *identity.Identity

	ws   *websocket.Conn
	send chan OutEnvelope

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(id string, ident *identity.Identity, ws *websocket.Conn) *conn {
	return &conn{
		id:       id,
		identity: ident,
		ws:       ws,
		send:     make(chan OutEnvelope, sendBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue queues an outbound event. When the send buffer is full the event
// is dropped rather than stalling the caller; a closed connection drops
// silently.
func (c *conn) enqueue(ev OutEnvelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings. It exits when the connection closes.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
