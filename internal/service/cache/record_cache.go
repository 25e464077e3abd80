package cache

import (
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
)

// RecordCache owns the map of StockRecords. Set stamps the refresh
// bookkeeping on the record: NextEligibleRefresh = LastUpdate + TTL. Readers
// treat a record past its NextEligibleRefresh as absent; eviction is lazy.
type RecordCache struct {
	inner   *TTLCache[*models.StockRecord]
	metrics drepo.Metrics
}

func NewRecordCache(ttl time.Duration, metrics drepo.Metrics) *RecordCache {
	return &RecordCache{
		inner:   NewTTLCache[*models.StockRecord](ttl),
		metrics: metrics,
	}
}

// Set stores the record under its ticker, stamping LastUpdate and
// NextEligibleRefresh.
func (c *RecordCache) Set(rec *models.StockRecord) {
	now := c.inner.now()
	rec.LastUpdate = now
	rec.NextEligibleRefresh = now.Add(c.inner.TTL())
	c.inner.Set(rec.Ticker(), rec)
}

// Get returns the record only while fresh.
func (c *RecordCache) Get(ticker string) (*models.StockRecord, bool) {
	rec, ok := c.inner.Get(ticker)
	if c.metrics != nil {
		c.metrics.RecordCacheLookup("records", ok)
	}
	return rec, ok
}

// Peek returns the record even when stale, for refresh-path comparisons.
func (c *RecordCache) Peek(ticker string) (*models.StockRecord, bool) {
	return c.inner.Peek(ticker)
}

// GetAll returns all fresh records, for serve-whatever-we-have fallbacks.
func (c *RecordCache) GetAll() []*models.StockRecord {
	return c.inner.GetAll()
}

// EvictStale removes expired records and reports how many were dropped.
func (c *RecordCache) EvictStale() int {
	return c.inner.EvictStale()
}

// TTL returns the fixed record time-to-live.
func (c *RecordCache) TTL() time.Duration { return c.inner.TTL() }
