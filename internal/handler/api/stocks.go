package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/cache"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"
)

const ipoWindow = 30 * 24 * time.Hour

// StocksHandler exposes the aggregation pipeline over HTTP.
type StocksHandler struct {
	logger   *xlogger.Logger
	agg      *usecase.Aggregator
	scorer   *usecase.HotScorer
	upstream drepo.MarketData
	ipoCache *cache.TTLCache[[]models.IPOListing]
}

func NewStocksHandler(logger *xlogger.Logger, agg *usecase.Aggregator, scorer *usecase.HotScorer, upstream drepo.MarketData) *StocksHandler {
	return &StocksHandler{
		logger:   logger,
		agg:      agg,
		scorer:   scorer,
		upstream: upstream,
		ipoCache: cache.NewTTLCache[[]models.IPOListing](15 * time.Minute),
	}
}

func (h *StocksHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/stocks", h.Search)
	g.GET("/stocks/hot", h.HotStocks)
	g.GET("/ipo", h.IPOCalendar)
	e.GET("/health", h.Health)
}

// Search handles GET /api/stocks.
func (h *StocksHandler) Search(c echo.Context) error {
	req := &models.SearchQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.agg.Search(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("search failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// HotStocks handles GET /api/stocks/hot: scores all fresh cached records and
// returns those above the cutoff, hottest first.
func (h *StocksHandler) HotStocks(c echo.Context) error {
	candidates := h.agg.CachedRecords()
	hot := h.scorer.HotStocks(c.Request().Context(), candidates)
	return xhttp.SuccessResponse(c, hot)
}

// IPOCalendar handles GET /api/ipo, serving the cached upcoming-listings
// window.
func (h *StocksHandler) IPOCalendar(c echo.Context) error {
	if listings, ok := h.ipoCache.Get("calendar"); ok {
		return xhttp.SuccessResponse(c, listings)
	}

	now := time.Now()
	listings, err := h.upstream.IPOCalendar(c.Request().Context(), now, now.Add(ipoWindow))
	if err != nil {
		h.logger.Error("ipo calendar failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	h.ipoCache.Set("calendar", listings)
	return xhttp.SuccessResponse(c, listings)
}

// Health handles GET /health.
func (h *StocksHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// mapDomainError translates domain sentinels into stable API error codes.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, drepo.ErrRateLimitExceeded):
		return xhttp.RateLimitedError("upstream rate limit exceeded").WithError(err)
	case errors.Is(err, drepo.ErrUpstreamUnavailable):
		return xhttp.UpstreamError("upstream provider unavailable").WithError(err)
	case errors.Is(err, drepo.ErrInvalidQuery):
		return xhttp.InvalidQueryError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
