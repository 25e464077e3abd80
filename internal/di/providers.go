package di

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/api"
	mid "MarketPulse/internal/middleware"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/service/broadcast"
	"MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/finnhub"
	"MarketPulse/internal/service/universe"
	"MarketPulse/internal/usecase"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	"MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideUpstream creates the rate-limited market-data client. One instance
// per process: the admission gate inside it is the global request floor.
func ProvideUpstream(cfg *config.Config, l *logger.Logger, m repository.Metrics) repository.MarketData {
	return finnhub.New(
		cfg.Finnhub.APIKey,
		cfg.Finnhub.BaseURL,
		l,
		m,
		finnhub.WithMinInterval(cfg.Finnhub.MinInterval),
		finnhub.WithMaxRetries(cfg.Finnhub.MaxRetries),
		finnhub.WithBackoff(cfg.Finnhub.BackoffBase, cfg.Finnhub.BackoffMax),
		finnhub.WithTimeout(cfg.Finnhub.Timeout),
	)
}

// ProvideRecordCache creates the TTL cache in front of the upstream client.
func ProvideRecordCache(cfg *config.Config, m repository.Metrics) *cache.RecordCache {
	return cache.NewRecordCache(cfg.Cache.QuoteTTL, m)
}

// ProvideSnapshotCache creates the bytes cache holding the universe snapshot.
// With Redis enabled the local cache becomes a short-lived read-through layer
// over the shared one, so scaled-out instances refresh the listing once.
func ProvideSnapshotCache(cfg *config.Config) cache.BytesCache {
	local := cache.NewMemoryBytesCache()
	if !cfg.Cache.Redis.Enabled {
		return local
	}
	shared := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	return cache.NewLayeredBytesCache(local, shared, time.Minute)
}

// ProvideUniverse creates the symbol universe service.
func ProvideUniverse(
	upstream repository.MarketData,
	snap cache.BytesCache,
	cfg *config.Config,
	l *logger.Logger,
	m repository.Metrics,
) *universe.Service {
	return universe.New(upstream, snap, cfg.Universe.Market, cfg.Universe.TTL, l, m)
}

// ProvideHub creates the live-connection hub.
func ProvideHub(l *logger.Logger, m repository.Metrics) *broadcast.Hub {
	return broadcast.NewHub(l, m)
}

// ProvideDeltaSink creates the delta history backend selected by config:
// Kafka publisher, ClickHouse store, or nothing.
func ProvideDeltaSink(cfg *config.Config) (repository.DeltaSink, error) {
	switch cfg.History.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithBatch(cfg.Kafka.BatchSize, cfg.Kafka.BatchTimeout),
			pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Async),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaDeltaPublisher(producer, cfg.Kafka.Topic), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		table := cfg.ClickHouse.Database + ".price_deltas"
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database, table)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return internalrepo.NewClickHouseDeltaStore(client.DB(), table), nil

	default:
		return nil, nil
	}
}

// ProvideRecordStore creates the optional durable record store.
func ProvideRecordStore(cfg *config.Config) (repository.RecordStore, error) {
	if !cfg.Postgres.Enabled || cfg.Postgres.DSN == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewPostgresRecordStore(ctx, cfg.Postgres.DSN)
}

// ProvideDeltaProcessor creates the delta processor use case.
func ProvideDeltaProcessor(
	hub *broadcast.Hub,
	sink repository.DeltaSink,
	store repository.RecordStore,
	records *cache.RecordCache,
	l *logger.Logger,
	m repository.Metrics,
) *usecase.DeltaProcessor {
	return usecase.NewDeltaProcessor(hub, sink, store, records, l, m)
}

// ProvideUpdatePipeline creates the validating, throttling pipeline between
// the aggregation path and the delta processor.
func ProvideUpdatePipeline(proc *usecase.DeltaProcessor, m repository.Metrics, cfg *config.Config) *mid.UpdatePipeline {
	return mid.NewUpdatePipeline(proc, m,
		mid.WithMaxEventsPerSec(cfg.Pipeline.MaxEventsPerSec),
		mid.WithBufferSize(cfg.Pipeline.BufferSize),
	)
}

// ProvideAggregator creates the search aggregation use case.
func ProvideAggregator(
	upstream repository.MarketData,
	uni *universe.Service,
	records *cache.RecordCache,
	pipeline *mid.UpdatePipeline,
	l *logger.Logger,
	m repository.Metrics,
) *usecase.Aggregator {
	return usecase.NewAggregator(upstream, uni, records, pipeline, l, m)
}

// ProvideHotScorer creates the hot-stock scorer.
func ProvideHotScorer(upstream repository.MarketData, cfg *config.Config, l *logger.Logger, m repository.Metrics) *usecase.HotScorer {
	policy := models.HotPolicy{
		RatingThreshold:         cfg.Hot.RatingThreshold,
		MoveThreshold:           cfg.Hot.MoveThreshold,
		OverrideRatingThreshold: cfg.Hot.OverrideRatingThreshold,
	}
	return usecase.NewHotScorer(upstream, cfg.Cache.ScoreTTL, policy, cfg.Hot.ScoreCutoff, l, m)
}

// ProvideStocksHandler creates the REST handler.
func ProvideStocksHandler(l *logger.Logger, agg *usecase.Aggregator, scorer *usecase.HotScorer, upstream repository.MarketData) *api.StocksHandler {
	return api.NewStocksHandler(l, agg, scorer, upstream)
}

// ProvideLiveHandler creates the live-channel handler.
func ProvideLiveHandler(l *logger.Logger, hub *broadcast.Hub, cfg *config.Config) *api.LiveHandler {
	return api.NewLiveHandler(l, hub, broadcast.ConnConfig{
		PingInterval: cfg.Broadcast.PingInterval,
		PongWait:     cfg.Broadcast.PongWait,
		WriteWait:    cfg.Broadcast.WriteWait,
		SendBuffer:   cfg.Broadcast.SendBuffer,
	})
}

// ProvideRouter bundles all handlers behind the HTTP server interface.
func ProvideRouter(stocks *api.StocksHandler, live *api.LiveHandler) xhttp.Handler {
	return api.NewRouter(stocks, live)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	pipeline *mid.UpdatePipeline,
	uni *universe.Service,
	records *cache.RecordCache,
	scorer *usecase.HotScorer,
	sink repository.DeltaSink,
	store repository.RecordStore,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, pipeline, uni, records, scorer, sink, store, handler)
}
