package repository

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
)

// MarketData is the upstream market-data provider. Implementations own the
// process-wide admission gate and retry/backoff; callers layer caching above.
type MarketData interface {
	Symbols(ctx context.Context, market string) ([]models.Symbol, error)
	Quote(ctx context.Context, ticker string) (*models.Quote, error)
	Profile(ctx context.Context, ticker string) (*models.Profile, error)
	AnalystRating(ctx context.Context, ticker string) (float64, error)
	NewsCount24h(ctx context.Context, ticker string) (int, error)
	AvgVolume7d(ctx context.Context, ticker string) (float64, error)
	IPOCalendar(ctx context.Context, from, to time.Time) ([]models.IPOListing, error)
}

// RecordStore is the optional durable write-behind sink for stock records.
// The core never embeds storage logic; failures here never fail a search.
type RecordStore interface {
	UpsertRecord(ctx context.Context, rec *models.StockRecord) error
	GetRecordBySymbol(ctx context.Context, ticker string) (*models.StockRecord, error)
	GetActiveRecords(ctx context.Context) ([]*models.StockRecord, error)
	Close() error
}

// DeltaSink archives price-delta events for downstream consumers.
type DeltaSink interface {
	Store(ctx context.Context, ev *models.PriceDeltaEvent) error
	Close() error
}

// Broadcaster fans price-delta events out to live connections.
type Broadcaster interface {
	Broadcast(ev *models.PriceDeltaEvent)
	ConnectionCount() int
}

// Metrics records operational measurements.
type Metrics interface {
	RecordUpstreamRequest(endpoint, outcome string)
	RecordCacheLookup(cache string, hit bool)
	RecordBroadcast(delivered, dropped int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordLastPrice(ticker string, price float64)
}
