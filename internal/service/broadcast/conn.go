package broadcast

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"MarketPulse/internal/domain/models"
)

// ErrSendBufferFull reports a consumer that cannot keep up; the hub responds
// by dropping the connection.
var ErrSendBufferFull = errors.New("send buffer full")

// ConnConfig holds per-connection transport settings.
type ConnConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	SendBuffer   int
}

// WSConn adapts one gorilla websocket to the hub's Connection interface.
// Writes go through a buffered channel drained by a single writer goroutine,
// so Broadcast never blocks on a slow peer beyond the buffer.
type WSConn struct {
	ws  *websocket.Conn
	cfg ConnConfig

	send      chan *models.PriceDeltaEvent
	done      chan struct{}
	closeOnce sync.Once
}

func NewWSConn(ws *websocket.Conn, cfg ConnConfig) *WSConn {
	c := &WSConn{
		ws:   ws,
		cfg:  cfg,
		send: make(chan *models.PriceDeltaEvent, cfg.SendBuffer),
		done: make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	return c
}

// Send enqueues an event without blocking. A full buffer means the consumer
// is not keeping up and the connection is reported dead.
func (c *WSConn) Send(ev *models.PriceDeltaEvent) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	select {
	case c.send <- ev:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down. Idempotent.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

// Done is closed once the connection is torn down. The upgrade handler waits
// on it to keep the HTTP handler alive for the connection's lifetime.
func (c *WSConn) Done() <-chan struct{} { return c.done }

// writePump drains the send queue and runs the periodic liveness probe.
func (c *WSConn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

// readPump consumes inbound frames to service pong handling and detect peer
// closure. Client payloads are ignored; the live channel is push-only.
func (c *WSConn) readPump() {
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			_ = c.Close()
			return
		}
	}
}
