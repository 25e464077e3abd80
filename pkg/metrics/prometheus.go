package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	broadcasts       *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		upstreamRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_upstream_requests_total",
				Help: "Upstream provider requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_cache_lookups_total",
				Help: "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),
		broadcasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_broadcast_events_total",
				Help: "Live events delivered or dropped per connection send",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_last_price",
				Help: "Last refreshed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstreamRequest records one upstream call and its outcome.
func (r *Recorder) RecordUpstreamRequest(endpoint, outcome string) {
	r.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordCacheLookup records a hit or miss for a named cache.
func (r *Recorder) RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordBroadcast records per-event delivery counts.
func (r *Recorder) RecordBroadcast(delivered, dropped int) {
	if delivered > 0 {
		r.broadcasts.WithLabelValues("delivered").Add(float64(delivered))
	}
	if dropped > 0 {
		r.broadcasts.WithLabelValues("dropped").Add(float64(dropped))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last refreshed price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
