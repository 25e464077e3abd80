package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
)

type nopMetrics struct{}

func (nopMetrics) RecordUpstreamRequest(string, string) {}
func (nopMetrics) RecordCacheLookup(string, bool)       {}
func (nopMetrics) RecordBroadcast(int, int)             {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}
func (nopMetrics) RecordLastPrice(string, float64)      {}

type stubProc struct {
	mu    sync.Mutex
	got   []*models.PriceDeltaEvent
	err   error
	failN int // fail the first N calls
	calls int
}

func (s *stubProc) Process(_ context.Context, ev *models.PriceDeltaEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	if s.failN > 0 {
		s.failN--
		return errors.New("transient")
	}
	s.got = append(s.got, ev)
	return nil
}

func (s *stubProc) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func ev(ticker string, price float64) *models.PriceDeltaEvent {
	return models.NewPriceDelta(ticker, price, 0.5, time.Now())
}

func TestProcessForwardsValidEvent(t *testing.T) {
	proc := &stubProc{}
	p := NewUpdatePipeline(proc, nopMetrics{})

	require.NoError(t, p.Process(context.Background(), ev("AAPL", 190)))
	assert.Equal(t, 1, proc.delivered())
}

func TestProcessRejectsMalformedEvents(t *testing.T) {
	proc := &stubProc{}
	p := NewUpdatePipeline(proc, nopMetrics{})

	require.Error(t, p.Process(context.Background(), nil))
	require.Error(t, p.Process(context.Background(), ev("", 190)))
	require.Error(t, p.Process(context.Background(), ev("AAPL", -1)))

	stale := ev("AAPL", 190)
	stale.Timestamp = time.Time{}
	require.Error(t, p.Process(context.Background(), stale))

	assert.Zero(t, proc.delivered())
}

func TestProcessThrottlesPerSymbol(t *testing.T) {
	proc := &stubProc{}
	p := NewUpdatePipeline(proc, nopMetrics{}, WithMaxEventsPerSec(1))

	// Two immediate events for the same symbol: second is dropped.
	require.NoError(t, p.Process(context.Background(), ev("AAPL", 190)))
	require.NoError(t, p.Process(context.Background(), ev("AAPL", 191)))
	assert.Equal(t, 1, proc.delivered())

	// A different symbol throttles independently.
	require.NoError(t, p.Process(context.Background(), ev("MSFT", 300)))
	assert.Equal(t, 2, proc.delivered())
}

func TestProcessBuffersOnDownstreamError(t *testing.T) {
	proc := &stubProc{failN: 1}
	p := NewUpdatePipeline(proc, nopMetrics{}, WithBufferSize(8))
	p.Start(context.Background())
	defer p.Stop()

	err := p.Process(context.Background(), ev("AAPL", 190))
	require.Error(t, err)

	// The background flusher retries the buffered event until it lands.
	require.Eventually(t, func() bool { return proc.delivered() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestEmitIsFireAndForget(t *testing.T) {
	proc := &stubProc{err: errors.New("down")}
	p := NewUpdatePipeline(proc, nopMetrics{})

	// Emit swallows the downstream error.
	p.Emit(context.Background(), ev("AAPL", 190))
}

func TestStartStopIdempotent(t *testing.T) {
	p := NewUpdatePipeline(&stubProc{}, nopMetrics{})
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}

func TestRestartFlushesAgain(t *testing.T) {
	proc := &stubProc{failN: 1}
	p := NewUpdatePipeline(proc, nopMetrics{}, WithBufferSize(8))

	p.Start(context.Background())
	p.Stop()
	p.Start(context.Background())
	defer p.Stop()

	// The post-restart flusher must still drain buffered retries.
	require.Error(t, p.Process(context.Background(), ev("AAPL", 190)))
	require.Eventually(t, func() bool { return proc.delivered() == 1 },
		2*time.Second, 10*time.Millisecond)
}
