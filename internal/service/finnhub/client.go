package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"
)

// Client is the rate-limited upstream market-data client. A single instance
// owns the process-wide admission gate: every request from every caller waits
// on the same limiter, so the aggregate request rate to the provider never
// exceeds the configured floor.
type Client struct {
	apiKey  string
	baseURL string

	gate        *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration

	http    *xhttp.Client
	logger  *xlogger.Logger
	metrics drepo.Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures Client.
type Option func(*Client)

// WithBackoff sets retry backoff parameters.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.backoffBase = base
		}
		if max > 0 {
			c.backoffMax = max
		}
	}
}

// WithMaxRetries sets the attempt limit per request.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithMinInterval sets the rate-limit floor between outbound requests.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.gate = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

// New creates a new upstream client.
func New(apiKey, baseURL string, logger *xlogger.Logger, metrics drepo.Metrics, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		gate:        rate.NewLimiter(rate.Every(1100*time.Millisecond), 1),
		maxRetries:  3,
		backoffBase: time.Second,
		backoffMax:  30 * time.Second,
		http:        xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		logger:      logger,
		metrics:     metrics,
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs one rate-limited, retried GET against an API endpoint and
// decodes the JSON body into dest. Each call is independent: a failure here
// never aborts sibling requests for other symbols.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, dest interface{}) error {
	q := make(map[string]string, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q["token"] = c.apiKey

	var lastErr error
	rateLimited := false

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase << (attempt - 1)
			if backoff > c.backoffMax {
				backoff = c.backoffMax
			}
			if err := c.sleep(ctx, backoff); err != nil {
				return err
			}
		}

		if err := c.gate.Wait(ctx); err != nil {
			return err
		}

		err := c.http.GetJSON(ctx, c.baseURL+endpoint, q, nil, dest)
		if err == nil {
			c.metrics.RecordUpstreamRequest(endpoint, "ok")
			return nil
		}

		lastErr = err
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusTooManyRequests {
			rateLimited = true
			c.metrics.RecordUpstreamRequest(endpoint, "rate_limited")
		} else {
			rateLimited = false
			c.metrics.RecordUpstreamRequest(endpoint, "error")
		}

		c.logger.Warn("upstream request failed",
			xlogger.String("endpoint", endpoint),
			xlogger.Int("attempt", attempt+1),
			xlogger.Error(err),
		)
	}

	if rateLimited {
		return fmt.Errorf("%s after %d attempts: %w", endpoint, c.maxRetries, drepo.ErrRateLimitExceeded)
	}
	return fmt.Errorf("%s after %d attempts (%v): %w", endpoint, c.maxRetries, lastErr, drepo.ErrUpstreamUnavailable)
}

// Symbols fetches the full listing for a market.
func (c *Client) Symbols(ctx context.Context, market string) ([]models.Symbol, error) {
	var raw []fhSymbol
	if err := c.get(ctx, "/stock/symbol", map[string]string{"exchange": market}, &raw); err != nil {
		return nil, err
	}

	out := make([]models.Symbol, 0, len(raw))
	for _, s := range raw {
		out = append(out, models.Symbol{
			Ticker:       s.Symbol,
			DisplayName:  s.Description,
			Market:       market,
			SecurityType: s.Type,
		})
	}
	return out, nil
}

// Quote fetches the current price snapshot for one symbol.
func (c *Client) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	var raw fhQuote
	if err := c.get(ctx, "/quote", map[string]string{"symbol": ticker}, &raw); err != nil {
		return nil, err
	}

	ts := time.Now()
	if raw.T > 0 {
		ts = time.Unix(raw.T, 0)
	}
	return &models.Quote{
		CurrentPrice:   raw.C,
		ChangeAbsolute: raw.D,
		ChangePercent:  raw.DP,
		DayHigh:        raw.H,
		DayLow:         raw.L,
		OpenPrice:      raw.O,
		PreviousClose:  raw.PC,
		Volume:         raw.V,
		Timestamp:      ts,
	}, nil
}

// Profile fetches the company profile for one symbol.
func (c *Client) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	var raw fhProfile
	if err := c.get(ctx, "/stock/profile2", map[string]string{"symbol": ticker}, &raw); err != nil {
		return nil, err
	}

	return &models.Profile{
		CompanyName:          raw.Name,
		MarketCapitalization: raw.MarketCapitalization,
		Beta:                 raw.Beta,
		Exchange:             raw.Exchange,
		Industry:             raw.FinnhubIndustry,
	}, nil
}

// AnalystRating derives a 0-100 rating from the latest recommendation trend.
func (c *Client) AnalystRating(ctx context.Context, ticker string) (float64, error) {
	var trends []fhRecommendation
	if err := c.get(ctx, "/stock/recommendation", map[string]string{"symbol": ticker}, &trends); err != nil {
		return 0, err
	}
	if len(trends) == 0 {
		return 0, nil
	}

	// First entry is the most recent period.
	t := trends[0]
	total := t.StrongBuy + t.Buy + t.Hold + t.Sell + t.StrongSell
	if total == 0 {
		return 0, nil
	}
	weighted := float64(t.StrongBuy)*100 + float64(t.Buy)*75 + float64(t.Hold)*50 + float64(t.Sell)*25
	return weighted / float64(total), nil
}

// NewsCount24h counts company news items published within the last 24 hours.
func (c *Client) NewsCount24h(ctx context.Context, ticker string) (int, error) {
	now := time.Now()
	from := now.Add(-24 * time.Hour)

	var items []fhNewsItem
	params := map[string]string{
		"symbol": ticker,
		"from":   from.Format("2006-01-02"),
		"to":     now.Format("2006-01-02"),
	}
	if err := c.get(ctx, "/company-news", params, &items); err != nil {
		return 0, err
	}

	count := 0
	cutoff := from.Unix()
	for _, it := range items {
		if it.Datetime >= cutoff {
			count++
		}
	}
	return count, nil
}

// AvgVolume7d fetches the 7-day average trading volume, 0 when the provider
// has no data for the symbol.
func (c *Client) AvgVolume7d(ctx context.Context, ticker string) (float64, error) {
	var raw fhMetricResponse
	params := map[string]string{"symbol": ticker, "metric": "all"}
	if err := c.get(ctx, "/stock/metric", params, &raw); err != nil {
		return 0, err
	}
	return raw.Metric.AvgVolume7d, nil
}

// IPOCalendar fetches upcoming and recent listings in the window.
func (c *Client) IPOCalendar(ctx context.Context, from, to time.Time) ([]models.IPOListing, error) {
	var raw fhIPOCalendar
	params := map[string]string{
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
	}
	if err := c.get(ctx, "/calendar/ipo", params, &raw); err != nil {
		return nil, err
	}

	out := make([]models.IPOListing, 0, len(raw.IPOCalendar))
	for _, e := range raw.IPOCalendar {
		out = append(out, models.IPOListing{
			Ticker:        e.Symbol,
			CompanyName:   e.Name,
			Date:          e.Date,
			Exchange:      e.Exchange,
			PriceRange:    e.Price,
			SharesOffered: e.NumberOfShares,
			Status:        e.Status,
		})
	}
	return out, nil
}

var _ drepo.MarketData = (*Client)(nil)
