package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/universe"
	xlogger "MarketPulse/pkg/logger"
)

// DeltaEmitter receives price-delta events produced by successful refreshes.
type DeltaEmitter interface {
	Emit(ctx context.Context, ev *models.PriceDeltaEvent)
}

// Aggregator orchestrates the search pipeline: filter the universe, paginate,
// batch-fetch per-symbol data through the upstream client with the record
// cache in front, assemble normalized records, and sort. Refreshes that
// change a price flow into the delta emitter as a side effect.
type Aggregator struct {
	upstream drepo.MarketData
	universe *universe.Service
	records  *cache.RecordCache
	emitter  DeltaEmitter
	logger   *xlogger.Logger
	metrics  drepo.Metrics
}

func NewAggregator(
	upstream drepo.MarketData,
	uni *universe.Service,
	records *cache.RecordCache,
	emitter DeltaEmitter,
	logger *xlogger.Logger,
	metrics drepo.Metrics,
) *Aggregator {
	return &Aggregator{
		upstream: upstream,
		universe: uni,
		records:  records,
		emitter:  emitter,
		logger:   logger,
		metrics:  metrics,
	}
}

// Search runs one page of the aggregation pipeline.
//
// Total is the filtered-universe count before any per-symbol fetch, so it is
// identical for every page of the same filter. Per-symbol fetch failures
// shrink the page; only a universe-stage failure fails the call.
func (a *Aggregator) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResult, error) {
	start := time.Now()

	if err := validateQuery(q); err != nil {
		return nil, err
	}

	symbols, err := a.universe.List(ctx)
	if err != nil {
		return nil, err
	}

	// Filtering precedes pagination so total reflects the true filtered count.
	filtered := universe.Apply(symbols, universe.Filter{
		Text:     q.TextFilter,
		Exchange: q.ExchangeFilter,
	})
	total := len(filtered)

	lo := q.Page * q.PageSize
	hi := lo + q.PageSize
	if lo > total {
		lo = total
	}
	if hi > total {
		hi = total
	}
	window := filtered[lo:hi]

	// Sequential fetch in slice order, bounded by the client's admission
	// gate. An abandoned caller stops the loop between symbols; the fetch in
	// flight completes and still populates the cache.
	records := make([]*models.StockRecord, 0, len(window))
	for _, sym := range window {
		if ctx.Err() != nil {
			break
		}

		rec, ok := a.records.Get(sym.Ticker)
		if !ok {
			rec, err = a.refresh(context.WithoutCancel(ctx), sym)
			if err != nil {
				a.metrics.RecordError("symbol_fetch_skipped")
				a.logger.Warn("symbol skipped",
					xlogger.String("symbol", sym.Ticker),
					xlogger.Error(err),
				)
				continue
			}
		}
		records = append(records, rec)
	}

	records = dedupe(records)
	records = a.postFilter(records, q)
	sortRecords(records, q.SortField, q.SortDirection)

	a.metrics.RecordLatency("search", time.Since(start).Seconds())

	return &models.SearchResult{
		Records: records,
		HasMore: (q.Page+1)*q.PageSize < total,
		Total:   total,
	}, nil
}

// refresh fetches quote and profile for one symbol, derives the analyst
// rating, writes the normalized record through the cache, and emits a price
// delta when the price moved.
func (a *Aggregator) refresh(ctx context.Context, sym models.Symbol) (*models.StockRecord, error) {
	quote, err := a.upstream.Quote(ctx, sym.Ticker)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", sym.Ticker, err)
	}

	profile, err := a.upstream.Profile(ctx, sym.Ticker)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", sym.Ticker, err)
	}

	// Rating failures degrade to 0 rather than dropping the record.
	rating, err := a.upstream.AnalystRating(ctx, sym.Ticker)
	if err != nil {
		a.logger.Warn("analyst rating unavailable",
			xlogger.String("symbol", sym.Ticker),
			xlogger.Error(err),
		)
		rating = 0
	}

	prev, hadPrev := a.records.Peek(sym.Ticker)

	rec := &models.StockRecord{
		Symbol:        sym,
		Quote:         *quote,
		Profile:       *profile,
		AnalystRating: rating,
	}
	a.records.Set(rec)

	if a.emitter != nil && (!hadPrev || prev.Quote.CurrentPrice != quote.CurrentPrice) {
		a.emitter.Emit(ctx, models.NewPriceDelta(
			sym.Ticker, quote.CurrentPrice, quote.ChangeAbsolute, quote.Timestamp,
		))
	}

	return rec, nil
}

// CachedRecords exposes all fresh records for serve-whatever-we-have paths.
func (a *Aggregator) CachedRecords() []*models.StockRecord {
	return a.records.GetAll()
}

func validateQuery(q *models.SearchQuery) error {
	if q.Page < 0 {
		return fmt.Errorf("page %d: %w", q.Page, drepo.ErrInvalidQuery)
	}
	if q.PageSize <= 0 {
		return fmt.Errorf("pageSize %d: %w", q.PageSize, drepo.ErrInvalidQuery)
	}
	switch q.SortDirection {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("sortDirection %q: %w", q.SortDirection, drepo.ErrInvalidQuery)
	}
	return nil
}

// dedupe drops repeated tickers, keeping first occurrence. Upstream listings
// can repeat a ticker.
func dedupe(records []*models.StockRecord) []*models.StockRecord {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		if _, ok := seen[r.Ticker()]; ok {
			continue
		}
		seen[r.Ticker()] = struct{}{}
		out = append(out, r)
	}
	return out
}

// postFilter applies the predicates that need live data: industry equality
// and the numeric ranges.
func (a *Aggregator) postFilter(records []*models.StockRecord, q *models.SearchQuery) []*models.StockRecord {
	price := q.PriceRange()
	change := q.ChangePercentRange()
	volume := q.VolumeRange()
	mcap := q.MarketCapRange()
	beta := q.BetaRange()

	out := records[:0]
	for _, r := range records {
		if !universe.MatchIndustry(r.Profile.Industry, q.IndustryFilter) {
			continue
		}
		if !price.Contains(r.Quote.CurrentPrice) ||
			!change.Contains(r.Quote.ChangePercent) ||
			!volume.Contains(r.Quote.Volume) ||
			!mcap.Contains(r.Profile.MarketCapitalization) ||
			!beta.Contains(r.Profile.Beta) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRecords sorts in place: numeric fields numerically, string fields
// case-insensitively. Unknown or empty sort field leaves order unchanged;
// ties preserve pre-sort relative order.
func sortRecords(records []*models.StockRecord, field, direction string) {
	if field == "" {
		return
	}

	var less func(x, y *models.StockRecord) bool
	switch field {
	case "ticker":
		less = stringLess(func(r *models.StockRecord) string { return r.Ticker() })
	case "companyName":
		less = stringLess(func(r *models.StockRecord) string { return r.Profile.CompanyName })
	case "exchange":
		less = stringLess(func(r *models.StockRecord) string { return r.Profile.Exchange })
	case "industry":
		less = stringLess(func(r *models.StockRecord) string { return r.Profile.Industry })
	case "price":
		less = numericLess(func(r *models.StockRecord) float64 { return r.Quote.CurrentPrice })
	case "changePercent":
		less = numericLess(func(r *models.StockRecord) float64 { return r.Quote.ChangePercent })
	case "volume":
		less = numericLess(func(r *models.StockRecord) float64 { return r.Quote.Volume })
	case "marketCap":
		less = numericLess(func(r *models.StockRecord) float64 { return r.Profile.MarketCapitalization })
	case "beta":
		less = numericLess(func(r *models.StockRecord) float64 { return r.Profile.Beta })
	default:
		return
	}

	desc := direction == "desc"
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func stringLess(key func(*models.StockRecord) string) func(x, y *models.StockRecord) bool {
	return func(x, y *models.StockRecord) bool {
		return strings.ToLower(key(x)) < strings.ToLower(key(y))
	}
}

func numericLess(key func(*models.StockRecord) float64) func(x, y *models.StockRecord) bool {
	return func(x, y *models.StockRecord) bool {
		return key(x) < key(y)
	}
}
