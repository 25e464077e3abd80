package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/cache"
	xlogger "MarketPulse/pkg/logger"
)

type stubUpstream struct {
	symbols func(ctx context.Context, market string) ([]models.Symbol, error)
}

func (s *stubUpstream) Symbols(ctx context.Context, market string) ([]models.Symbol, error) {
	return s.symbols(ctx, market)
}
func (s *stubUpstream) Quote(context.Context, string) (*models.Quote, error)     { return nil, nil }
func (s *stubUpstream) Profile(context.Context, string) (*models.Profile, error) { return nil, nil }
func (s *stubUpstream) AnalystRating(context.Context, string) (float64, error)   { return 0, nil }
func (s *stubUpstream) NewsCount24h(context.Context, string) (int, error)        { return 0, nil }
func (s *stubUpstream) AvgVolume7d(context.Context, string) (float64, error)     { return 0, nil }
func (s *stubUpstream) IPOCalendar(context.Context, time.Time, time.Time) ([]models.IPOListing, error) {
	return nil, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordUpstreamRequest(string, string) {}
func (nopMetrics) RecordCacheLookup(string, bool)       {}
func (nopMetrics) RecordBroadcast(int, int)             {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}
func (nopMetrics) RecordLastPrice(string, float64)      {}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error"})
	require.NoError(t, err)
	return l
}

func sym(ticker, name, market, secType string) models.Symbol {
	return models.Symbol{Ticker: ticker, DisplayName: name, Market: market, SecurityType: secType}
}

func TestListFetchesOnceWithinTTL(t *testing.T) {
	calls := 0
	up := &stubUpstream{symbols: func(context.Context, string) ([]models.Symbol, error) {
		calls++
		return []models.Symbol{sym("AAPL", "APPLE INC", "US", "Common Stock")}, nil
	}}
	s := New(up, cache.NewMemoryBytesCache(), "US", time.Minute, testLogger(t), nopMetrics{})

	for i := 0; i < 3; i++ {
		syms, err := s.List(context.Background())
		require.NoError(t, err)
		require.Len(t, syms, 1)
	}
	assert.Equal(t, 1, calls)
}

func TestListPropagatesUpstreamFailure(t *testing.T) {
	up := &stubUpstream{symbols: func(context.Context, string) ([]models.Symbol, error) {
		return nil, errors.New("boom")
	}}
	s := New(up, cache.NewMemoryBytesCache(), "US", time.Minute, testLogger(t), nopMetrics{})

	_, err := s.List(context.Background())
	require.Error(t, err)
}

func TestApplyEmptyFilterKeepsCommonStockOnly(t *testing.T) {
	in := []models.Symbol{
		sym("AAPL", "APPLE INC", "US", "Common Stock"),
		sym("SPY", "SPDR S&P 500", "US", "ETP"),
		sym("MSFT", "MICROSOFT CORP", "US", "Common Stock"),
	}

	out := Apply(in, Filter{})
	require.Len(t, out, 2)
	assert.Equal(t, "AAPL", out[0].Ticker)
	assert.Equal(t, "MSFT", out[1].Ticker)
}

func TestApplyTextMatchesTickerOrName(t *testing.T) {
	in := []models.Symbol{
		sym("AAPL", "APPLE INC", "US", "Common Stock"),
		sym("AAL", "AMERICAN AIRLINES", "US", "Common Stock"),
		sym("MSFT", "MICROSOFT CORP", "US", "Common Stock"),
	}

	out := Apply(in, Filter{Text: "aa"})
	require.Len(t, out, 2)

	// matches DisplayName, not ticker
	out = Apply(in, Filter{Text: "micro"})
	require.Len(t, out, 1)
	assert.Equal(t, "MSFT", out[0].Ticker)
}

func TestApplyExchangeEquality(t *testing.T) {
	in := []models.Symbol{
		sym("AAPL", "APPLE INC", "US", "Common Stock"),
		sym("SAP", "SAP SE", "DE", "Common Stock"),
	}

	out := Apply(in, Filter{Exchange: "us"})
	require.Len(t, out, 1)
	assert.Equal(t, "AAPL", out[0].Ticker)
}

func TestApplyPreservesInputOrder(t *testing.T) {
	in := []models.Symbol{
		sym("C", "C CO", "US", "Common Stock"),
		sym("A", "A CO", "US", "Common Stock"),
		sym("B", "B CO", "US", "Common Stock"),
	}

	out := Apply(in, Filter{})
	require.Len(t, out, 3)
	assert.Equal(t, "C", out[0].Ticker)
	assert.Equal(t, "A", out[1].Ticker)
	assert.Equal(t, "B", out[2].Ticker)
}

func TestMatchIndustry(t *testing.T) {
	assert.True(t, MatchIndustry("Technology", ""))
	assert.True(t, MatchIndustry("Technology", "technology"))
	assert.False(t, MatchIndustry("Technology", "Energy"))
}
