package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/universe"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordUpstreamRequest(string, string) {}
func (nopMetrics) RecordCacheLookup(string, bool)       {}
func (nopMetrics) RecordBroadcast(int, int)             {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}
func (nopMetrics) RecordLastPrice(string, float64)      {}

// stubMarket serves a tiny fixed universe.
type stubMarket struct {
	symbolsErr error
	ipo        []models.IPOListing
	ipoCalls   int
}

func (s *stubMarket) Symbols(context.Context, string) ([]models.Symbol, error) {
	if s.symbolsErr != nil {
		return nil, s.symbolsErr
	}
	return []models.Symbol{
		{Ticker: "AAPL", DisplayName: "APPLE INC", Market: "US", SecurityType: "Common Stock"},
	}, nil
}
func (s *stubMarket) Quote(context.Context, string) (*models.Quote, error) {
	return &models.Quote{CurrentPrice: 190, Volume: 100000, Timestamp: time.Now()}, nil
}
func (s *stubMarket) Profile(context.Context, string) (*models.Profile, error) {
	return &models.Profile{CompanyName: "Apple Inc", Industry: "Technology"}, nil
}
func (s *stubMarket) AnalystRating(context.Context, string) (float64, error) { return 80, nil }
func (s *stubMarket) NewsCount24h(context.Context, string) (int, error)      { return 0, nil }
func (s *stubMarket) AvgVolume7d(context.Context, string) (float64, error)   { return 0, nil }
func (s *stubMarket) IPOCalendar(context.Context, time.Time, time.Time) ([]models.IPOListing, error) {
	s.ipoCalls++
	return s.ipo, nil
}

func newTestHandler(t *testing.T, up drepo.MarketData) *StocksHandler {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error"})
	require.NoError(t, err)

	uni := universe.New(up, cache.NewMemoryBytesCache(), "US", time.Minute, l, nopMetrics{})
	records := cache.NewRecordCache(time.Minute, nil)
	agg := usecase.NewAggregator(up, uni, records, nil, l, nopMetrics{})
	scorer := usecase.NewHotScorer(up, time.Minute, models.HotPolicy{}, 50, l, nopMetrics{})
	return NewStocksHandler(l, agg, scorer, up)
}

func doGet(h *StocksHandler, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubMarket{})

	rec := doGet(h, "/api/stocks?text=AA")
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Status int                  `json:"status"`
		Data   *models.SearchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusOK, env.Status)
	require.NotNil(t, env.Data)
	assert.Equal(t, 1, env.Data.Total)
	require.Len(t, env.Data.Records, 1)
	assert.Equal(t, "AAPL", env.Data.Records[0].Ticker())
}

func TestSearchEndpointRejectsBadQuery(t *testing.T) {
	h := newTestHandler(t, &stubMarket{})

	rec := doGet(h, "/api/stocks?pageSize=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var env xhttp.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestSearchEndpointMapsUpstreamErrors(t *testing.T) {
	h := newTestHandler(t, &stubMarket{symbolsErr: drepo.ErrRateLimitExceeded})

	rec := doGet(h, "/api/stocks")
	var env struct {
		Status int `json:"status"`
		Data   []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "ERR_RATE_LIMIT_EXCEEDED", env.Data[0].Code)
}

func TestIPOEndpointCachesCalendar(t *testing.T) {
	up := &stubMarket{ipo: []models.IPOListing{{Ticker: "NEWCO", Status: "expected"}}}
	h := newTestHandler(t, up)

	for i := 0; i < 3; i++ {
		rec := doGet(h, "/api/ipo")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, up.ipoCalls)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubMarket{})

	rec := doGet(h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
