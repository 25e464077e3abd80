package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
)

func newRecord(ticker string, price float64) *models.StockRecord {
	return &models.StockRecord{
		Symbol: models.Symbol{Ticker: ticker, SecurityType: "Common Stock"},
		Quote:  models.Quote{CurrentPrice: price},
	}
}

func TestRecordCacheStampsRefreshWindow(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewRecordCache(time.Minute, nil)
	c.inner.now = func() time.Time { return now }

	rec := newRecord("AAPL", 190)
	c.Set(rec)

	assert.Equal(t, now, rec.LastUpdate)
	assert.Equal(t, now.Add(time.Minute), rec.NextEligibleRefresh)
	assert.Equal(t, rec.LastUpdate.Add(c.TTL()), rec.NextEligibleRefresh)
}

func TestRecordCacheMissAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewRecordCache(time.Minute, nil)
	c.inner.now = func() time.Time { return now }

	c.Set(newRecord("AAPL", 190))

	_, ok := c.Get("AAPL")
	require.True(t, ok)

	now = now.Add(time.Minute + time.Second)
	_, ok = c.Get("AAPL")
	assert.False(t, ok)

	// Peek still surfaces the stale record for delta comparisons.
	prev, ok := c.Peek("AAPL")
	require.True(t, ok)
	assert.Equal(t, 190.0, prev.Quote.CurrentPrice)
}

func TestRecordCacheGetAllSkipsStale(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewRecordCache(time.Minute, nil)
	c.inner.now = func() time.Time { return now }

	c.Set(newRecord("OLD", 1))
	now = now.Add(2 * time.Minute)
	c.Set(newRecord("NEW", 2))

	all := c.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "NEW", all[0].Ticker())
}
