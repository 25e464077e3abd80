package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/cache"
)

type fakeBroadcaster struct {
	events []*models.PriceDeltaEvent
}

func (f *fakeBroadcaster) Broadcast(ev *models.PriceDeltaEvent) { f.events = append(f.events, ev) }
func (f *fakeBroadcaster) ConnectionCount() int                { return len(f.events) }

type fakeSink struct {
	stored []*models.PriceDeltaEvent
	err    error
}

func (f *fakeSink) Store(_ context.Context, ev *models.PriceDeltaEvent) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, ev)
	return nil
}
func (f *fakeSink) Close() error { return nil }

type fakeStore struct {
	upserts []*models.StockRecord
	err     error
}

func (f *fakeStore) UpsertRecord(_ context.Context, rec *models.StockRecord) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, rec)
	return nil
}
func (f *fakeStore) GetRecordBySymbol(context.Context, string) (*models.StockRecord, error) {
	return nil, nil
}
func (f *fakeStore) GetActiveRecords(context.Context) ([]*models.StockRecord, error) {
	return nil, nil
}
func (f *fakeStore) Close() error { return nil }

func delta(ticker string, price float64) *models.PriceDeltaEvent {
	return models.NewPriceDelta(ticker, price, 1.0, time.Now())
}

func TestProcessBroadcastsAndArchives(t *testing.T) {
	hub := &fakeBroadcaster{}
	sink := &fakeSink{}
	records := cache.NewRecordCache(time.Minute, nil)
	p := NewDeltaProcessor(hub, sink, nil, records, testLogger(t), nopMetrics{})

	ev := delta("AAPL", 190)
	require.NoError(t, p.Process(context.Background(), ev))
	require.Len(t, hub.events, 1)
	require.Len(t, sink.stored, 1)
	assert.Same(t, ev, sink.stored[0])
}

func TestProcessBroadcastsEvenWhenHistoryFails(t *testing.T) {
	hub := &fakeBroadcaster{}
	sink := &fakeSink{err: errors.New("kafka down")}
	records := cache.NewRecordCache(time.Minute, nil)
	p := NewDeltaProcessor(hub, sink, nil, records, testLogger(t), nopMetrics{})

	err := p.Process(context.Background(), delta("AAPL", 190))
	require.Error(t, err)
	// Fan-out happened before the history write failed.
	assert.Len(t, hub.events, 1)
}

func TestProcessWithoutBackendsSucceeds(t *testing.T) {
	hub := &fakeBroadcaster{}
	records := cache.NewRecordCache(time.Minute, nil)
	p := NewDeltaProcessor(hub, nil, nil, records, testLogger(t), nopMetrics{})

	require.NoError(t, p.Process(context.Background(), delta("AAPL", 190)))
	assert.Len(t, hub.events, 1)
}

func TestProcessWritesBehindToStore(t *testing.T) {
	hub := &fakeBroadcaster{}
	store := &fakeStore{}
	records := cache.NewRecordCache(time.Minute, nil)
	records.Set(&models.StockRecord{Symbol: models.Symbol{Ticker: "AAPL"}})
	p := NewDeltaProcessor(hub, nil, store, records, testLogger(t), nopMetrics{})

	require.NoError(t, p.Process(context.Background(), delta("AAPL", 190)))
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "AAPL", store.upserts[0].Ticker())

	// No cached record, nothing to persist.
	require.NoError(t, p.Process(context.Background(), delta("MSFT", 300)))
	assert.Len(t, store.upserts, 1)
}

func TestProcessStoreFailureIsBestEffort(t *testing.T) {
	hub := &fakeBroadcaster{}
	store := &fakeStore{err: errors.New("pg down")}
	records := cache.NewRecordCache(time.Minute, nil)
	records.Set(&models.StockRecord{Symbol: models.Symbol{Ticker: "AAPL"}})
	p := NewDeltaProcessor(hub, nil, store, records, testLogger(t), nopMetrics{})

	require.NoError(t, p.Process(context.Background(), delta("AAPL", 190)))
	assert.Len(t, hub.events, 1)
}
