package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"MarketPulse/internal/service/broadcast"
	xlogger "MarketPulse/pkg/logger"
)

// LiveHandler upgrades HTTP requests to the push-only live channel and hands
// the connection to the hub. Clients reconnect with their own backoff policy.
type LiveHandler struct {
	logger   *xlogger.Logger
	hub      *broadcast.Hub
	cfg      broadcast.ConnConfig
	upgrader websocket.Upgrader
}

func NewLiveHandler(logger *xlogger.Logger, hub *broadcast.Hub, cfg broadcast.ConnConfig) *LiveHandler {
	return &LiveHandler{
		logger: logger,
		hub:    hub,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/live", h.Live)
}

// Live handles GET /ws/live.
func (h *LiveHandler) Live(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return err
	}

	conn := broadcast.NewWSConn(ws, h.cfg)
	h.hub.Register(conn)

	// Keep the handler alive until the connection dies, then drop it from
	// the hub.
	<-conn.Done()
	h.hub.Unregister(conn)
	return nil
}
