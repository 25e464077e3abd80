package broadcast

import (
	"sync"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	xlogger "MarketPulse/pkg/logger"
)

// Connection is one live subscriber. It has no identity beyond liveness:
// Send reports a closed or backed-up connection by returning an error, after
// which the hub drops it.
type Connection interface {
	Send(ev *models.PriceDeltaEvent) error
	Close() error
}

// Hub maintains the set of live connections and fans price-delta events out
// to all of them. It is purely a fan-out sink fed by the aggregation path; it
// has no polling loop of its own. Cleanup of dead connections is lazy, on the
// first failed send.
type Hub struct {
	mu    sync.RWMutex
	conns map[Connection]struct{}

	logger  *xlogger.Logger
	metrics drepo.Metrics
}

func NewHub(logger *xlogger.Logger, metrics drepo.Metrics) *Hub {
	return &Hub{
		conns:   make(map[Connection]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Register adds a connection to the live set.
func (h *Hub) Register(c Connection) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("live connection registered", xlogger.Int("connections", n))
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(c Connection) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()

	if ok {
		_ = c.Close()
		h.logger.Info("live connection unregistered", xlogger.Int("connections", n))
	}
}

// Broadcast fans the event to every member. Connections that error are
// removed; a slow consumer fails its Send rather than stalling the hub.
func (h *Hub) Broadcast(ev *models.PriceDeltaEvent) {
	h.mu.RLock()
	targets := make([]Connection, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered, dropped := 0, 0
	for _, c := range targets {
		if err := c.Send(ev); err != nil {
			dropped++
			h.Unregister(c)
			continue
		}
		delivered++
	}

	if h.metrics != nil {
		h.metrics.RecordBroadcast(delivered, dropped)
	}
}

// ConnectionCount reports the current live-set size.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

var _ drepo.Broadcaster = (*Hub)(nil)
