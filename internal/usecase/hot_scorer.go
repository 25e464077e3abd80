package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/cache"
	xlogger "MarketPulse/pkg/logger"
)

// Composite weights of the hotness heuristic.
const (
	weightPriceChange = 0.40
	weightVolume      = 0.25
	weightAnalyst     = 0.15
	weightNews        = 0.15
	weightSocial      = 0.05

	minHotPrice  = 1.0
	minHotVolume = 10000.0
)

// HotStock pairs a record with its computed score. Qualifies reports the
// threshold policy verdict, independent of the composite score.
type HotStock struct {
	Record    *models.StockRecord `json:"record"`
	Score     *models.HotScore    `json:"score"`
	Qualifies bool                `json:"qualifies"`
}

// HotScorer computes the composite 0-100 hotness score per record. Scores are
// cached per symbol for a short TTL distinct from the quote TTL, since the
// news-volume and average-volume inputs are expensive to recompute every
// request.
type HotScorer struct {
	upstream drepo.MarketData
	scores   *cache.TTLCache[*models.HotScore]
	policy   models.HotPolicy
	cutoff   float64
	logger   *xlogger.Logger
	metrics  drepo.Metrics
}

func NewHotScorer(
	upstream drepo.MarketData,
	scoreTTL time.Duration,
	policy models.HotPolicy,
	cutoff float64,
	logger *xlogger.Logger,
	metrics drepo.Metrics,
) *HotScorer {
	return &HotScorer{
		upstream: upstream,
		scores:   cache.NewTTLCache[*models.HotScore](scoreTTL),
		policy:   policy,
		cutoff:   cutoff,
		logger:   logger,
		metrics:  metrics,
	}
}

// Score computes (or returns the cached) hotness score for one record.
// Identical inputs within the score TTL yield bit-identical composites.
func (s *HotScorer) Score(ctx context.Context, rec *models.StockRecord) *models.HotScore {
	ticker := rec.Ticker()
	if cached, ok := s.scores.Get(ticker); ok {
		s.metrics.RecordCacheLookup("scores", true)
		return cached
	}
	s.metrics.RecordCacheLookup("scores", false)

	score := s.compute(ctx, rec)
	s.scores.Set(ticker, score)
	return score
}

func (s *HotScorer) compute(ctx context.Context, rec *models.StockRecord) *models.HotScore {
	score := &models.HotScore{
		Ticker:     rec.Ticker(),
		ComputedAt: time.Now(),
	}

	// Penny-stock / illiquid exclusion: no sub-score computation at all.
	if rec.Quote.CurrentPrice < minHotPrice || rec.Quote.Volume < minHotVolume {
		return score
	}

	sub := models.SubScores{
		PriceChange: math.Min(math.Abs(rec.Quote.ChangePercent)*5, 100),
		Analyst:     rec.AnalystRating,
		Social:      0, // reserved until a social-sentiment source exists
	}

	avgVol, err := s.upstream.AvgVolume7d(ctx, rec.Ticker())
	if err != nil {
		s.logger.Warn("avg volume unavailable",
			xlogger.String("symbol", rec.Ticker()),
			xlogger.Error(err),
		)
		avgVol = 0
	}
	if avgVol > 0 {
		sub.Volume = clamp((rec.Quote.Volume-avgVol)/avgVol*100, 0, 100)
	}

	newsCount, err := s.upstream.NewsCount24h(ctx, rec.Ticker())
	if err != nil {
		s.logger.Warn("news count unavailable",
			xlogger.String("symbol", rec.Ticker()),
			xlogger.Error(err),
		)
		newsCount = 0
	}
	sub.News = math.Min(float64(newsCount)*10, 100)

	score.SubScores = sub
	score.CompositeScore = weightPriceChange*sub.PriceChange +
		weightVolume*sub.Volume +
		weightAnalyst*sub.Analyst +
		weightNews*sub.News +
		weightSocial*sub.Social
	return score
}

// HotStocks scores every candidate, keeps only those above the composite
// cutoff, and returns them sorted descending by score. Each entry carries the
// classification policy verdict alongside the score.
func (s *HotScorer) HotStocks(ctx context.Context, records []*models.StockRecord) []HotStock {
	out := make([]HotStock, 0, len(records))
	for _, rec := range records {
		score := s.Score(ctx, rec)
		if score.CompositeScore > s.cutoff {
			out = append(out, HotStock{Record: rec, Score: score, Qualifies: s.Qualifies(rec)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.CompositeScore > out[j].Score.CompositeScore
	})
	return out
}

// Qualifies applies the configurable hot classification policy to a record,
// independent of the composite score.
func (s *HotScorer) Qualifies(rec *models.StockRecord) bool {
	return s.policy.Qualifies(rec.AnalystRating, rec.Quote.ChangePercent)
}

// EvictStale drops expired score entries.
func (s *HotScorer) EvictStale() int { return s.scores.EvictStale() }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
