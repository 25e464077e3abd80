package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/cache"
	xlogger "MarketPulse/pkg/logger"
)

// DeltaProcessor routes price-delta events produced by the aggregation path:
// every event is fanned out to live connections, then archived to the
// configured history backend and written behind to the optional record store.
// Broadcast happens first and never fails; a history failure is returned so
// the pipeline can buffer and retry (duplicate broadcasts on retry are
// acceptable, delivery is at-most-once per connection, not exactly-once).
type DeltaProcessor struct {
	hub     drepo.Broadcaster
	sink    drepo.DeltaSink   // nil when history backend is "none"
	store   drepo.RecordStore // nil when persistence is disabled
	records *cache.RecordCache
	logger  *xlogger.Logger
	metrics drepo.Metrics
}

func NewDeltaProcessor(
	hub drepo.Broadcaster,
	sink drepo.DeltaSink,
	store drepo.RecordStore,
	records *cache.RecordCache,
	logger *xlogger.Logger,
	metrics drepo.Metrics,
) *DeltaProcessor {
	return &DeltaProcessor{
		hub:     hub,
		sink:    sink,
		store:   store,
		records: records,
		logger:  logger,
		metrics: metrics,
	}
}

// Process handles a single price-delta event.
func (p *DeltaProcessor) Process(ctx context.Context, ev *models.PriceDeltaEvent) error {
	start := time.Now()

	p.hub.Broadcast(ev)
	p.metrics.RecordLastPrice(ev.Ticker, ev.Price)

	if p.store != nil {
		if rec, ok := p.records.Peek(ev.Ticker); ok {
			if err := p.store.UpsertRecord(ctx, rec); err != nil {
				// Write-behind is best-effort; never stalls the delta path.
				p.metrics.RecordError("record_store")
				p.logger.Warn("record upsert failed",
					xlogger.String("symbol", ev.Ticker),
					xlogger.Error(err),
				)
			}
		}
	}

	if p.sink != nil {
		if err := p.sink.Store(ctx, ev); err != nil {
			p.metrics.RecordError("delta_history")
			return fmt.Errorf("delta history: %w", err)
		}
	}

	p.metrics.RecordLatency("delta_process", time.Since(start).Seconds())
	return nil
}
