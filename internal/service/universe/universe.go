package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/cache"
	xlogger "MarketPulse/pkg/logger"
)

// Tradable common stock only; other security types never enter the pipeline.
const commonStockType = "Common Stock"

// Service owns the full list of tradable symbols for a market, fetched and
// cached as one unit at its own TTL (longer than the quote TTL). The snapshot
// lives in a bytes cache so horizontally scaled instances can share it.
type Service struct {
	upstream drepo.MarketData
	snap     cache.BytesCache
	ttl      time.Duration
	market   string
	logger   *xlogger.Logger
	metrics  drepo.Metrics
}

func New(upstream drepo.MarketData, snap cache.BytesCache, market string, ttl time.Duration, logger *xlogger.Logger, metrics drepo.Metrics) *Service {
	return &Service{
		upstream: upstream,
		snap:     snap,
		ttl:      ttl,
		market:   market,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *Service) snapKey() string { return "universe:" + s.market }

// List returns the symbol universe for the configured market, refreshing the
// snapshot through the upstream client when the cached one has expired.
func (s *Service) List(ctx context.Context) ([]models.Symbol, error) {
	if b, ok, err := s.snap.GetBytes(s.snapKey()); err == nil && ok {
		var syms []models.Symbol
		if err := json.Unmarshal(b, &syms); err == nil {
			s.metrics.RecordCacheLookup("universe", true)
			return syms, nil
		}
		s.logger.Warn("universe snapshot corrupt, refetching", xlogger.Error(err))
	}
	s.metrics.RecordCacheLookup("universe", false)

	syms, err := s.upstream.Symbols(ctx, s.market)
	if err != nil {
		return nil, fmt.Errorf("universe fetch: %w", err)
	}

	if b, err := json.Marshal(syms); err == nil {
		if err := s.snap.SetBytes(s.snapKey(), b, s.ttl); err != nil {
			s.logger.Warn("universe snapshot store failed", xlogger.Error(err))
		}
	}

	s.logger.Info("universe refreshed",
		xlogger.String("market", s.market),
		xlogger.Int("symbols", len(syms)),
	)
	return syms, nil
}

// Warm refreshes the snapshot regardless of its age. Used by the scheduler so
// query paths rarely pay the listing fetch.
func (s *Service) Warm(ctx context.Context) error {
	syms, err := s.upstream.Symbols(ctx, s.market)
	if err != nil {
		return fmt.Errorf("universe warm: %w", err)
	}
	b, err := json.Marshal(syms)
	if err != nil {
		return fmt.Errorf("universe warm: %w", err)
	}
	return s.snap.SetBytes(s.snapKey(), b, s.ttl)
}

// Filter holds the symbol-level predicates of a search. A zero value on any
// field means "match all" for that predicate, never "match none".
type Filter struct {
	Text     string
	Exchange string
	Industry string
}

// Apply filters symbols in the fixed predicate order: security type, then
// free-text substring on ticker or description (case-insensitive), then
// market/exchange equality. Industry equality requires profile data and is
// applied post-fetch by the aggregator.
func Apply(symbols []models.Symbol, f Filter) []models.Symbol {
	out := make([]models.Symbol, 0, len(symbols))
	text := strings.ToLower(f.Text)
	for _, sym := range symbols {
		if sym.SecurityType != commonStockType {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(sym.Ticker), text) &&
			!strings.Contains(strings.ToLower(sym.DisplayName), text) {
			continue
		}
		if f.Exchange != "" && !strings.EqualFold(sym.Market, f.Exchange) {
			continue
		}
		out = append(out, sym)
	}
	return out
}

// MatchIndustry is the industry equality predicate applied once profile data
// is available. Empty filter matches all.
func MatchIndustry(industry, filter string) bool {
	return filter == "" || strings.EqualFold(industry, filter)
}
