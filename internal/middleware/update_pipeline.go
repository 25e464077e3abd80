package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
)

// Proc is the downstream the pipeline feeds.
type Proc interface {
	Process(ctx context.Context, ev *models.PriceDeltaEvent) error
}

// UpdatePipeline sits between the aggregation path and the delta processor.
// It validates events, throttles per symbol, and buffers when the downstream
// errors, flushing with capped exponential backoff.
type UpdatePipeline struct {
	proc    Proc
	metrics drepo.Metrics

	maxEPS  int
	bufSize int
	bufCh   chan *models.PriceDeltaEvent
	stopCh  chan struct{}
	started bool

	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

type PipelineOption func(*UpdatePipeline)

// WithMaxEventsPerSec caps accepted events per second per symbol.
func WithMaxEventsPerSec(n int) PipelineOption {
	return func(p *UpdatePipeline) {
		if n > 0 {
			p.maxEPS = n
		}
	}
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *UpdatePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewUpdatePipeline creates a new pipeline.
func NewUpdatePipeline(proc Proc, metrics drepo.Metrics, opts ...PipelineOption) *UpdatePipeline {
	p := &UpdatePipeline{
		proc:     proc,
		metrics:  metrics,
		maxEPS:   20,
		bufSize:  1000,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.PriceDeltaEvent, p.bufSize)
	return p
}

// Start launches background flushing of buffered events. A stopped pipeline
// can be started again; each Start gets a fresh stop channel.
func (p *UpdatePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-stopCh:
				return
			case ev := <-p.bufCh:
				if ev == nil {
					continue
				}
				if err := p.proc.Process(ctx, ev); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- ev:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *UpdatePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stopCh := p.stopCh
	p.mu.Unlock()
	close(stopCh)
}

// Emit validates, throttles, and forwards an event, buffering on downstream
// errors. Fire-and-forget for callers on the aggregation path.
func (p *UpdatePipeline) Emit(ctx context.Context, ev *models.PriceDeltaEvent) {
	if err := p.Process(ctx, ev); err != nil {
		p.metrics.RecordError("pipeline_emit")
	}
}

// Process is the checked form of Emit.
func (p *UpdatePipeline) Process(ctx context.Context, ev *models.PriceDeltaEvent) error {
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(ev.Ticker, time.Now()) {
		// throttled; drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, ev); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- ev:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func validateEvent(ev *models.PriceDeltaEvent) error {
	if ev == nil {
		return fmt.Errorf("event nil")
	}
	if ev.Ticker == "" {
		return fmt.Errorf("symbol empty")
	}
	if ev.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if ev.Price < 0 {
		return fmt.Errorf("negative price")
	}
	return nil
}

func (p *UpdatePipeline) allow(symbol string, now time.Time) bool {
	if p.maxEPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	last := p.lastSeen[symbol]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxEPS) {
		p.lastSeen[symbol] = now
		return true
	}
	return false
}
