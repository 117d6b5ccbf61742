// Package metrics holds the Prometheus registry for the screener.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all screener metrics. A nil *Registry is valid and turns
// every recording call into a no-op, so components can be wired without
// observability in tests.
type Registry struct {
	registry *prometheus.Registry

	ScreenerRequests *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	UpstreamErrors     *prometheus.CounterVec
	EnrichmentFailures *prometheus.CounterVec

	ResponseRows *prometheus.HistogramVec
}

// NewRegistry creates a registry with all screener metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ScreenerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_requests_total",
				Help: "Total screener requests by exchange and result",
			},
			[]string{"exchange", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundscreen_request_duration_seconds",
				Help:    "End-to-end screener request duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"exchange"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_cache_hits_total",
				Help: "Market-cap index cache hits by kind (fresh, stale)",
			},
			[]string{"kind"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_cache_misses_total",
				Help: "Market-cap index cache misses by outcome (rebuilt, empty)",
			},
			[]string{"outcome"},
		),

		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_upstream_errors_total",
				Help: "Upstream fetch failures by source",
			},
			[]string{"source"},
		),

		EnrichmentFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscreen_enrichment_failures_total",
				Help: "Open-interest enrichment failures by exchange",
			},
			[]string{"exchange"},
		),

		ResponseRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundscreen_response_rows",
				Help:    "Row count of returned screener responses",
				Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
			},
			[]string{"exchange"},
		),
	}

	r.registry.MustRegister(
		r.ScreenerRequests,
		r.RequestDuration,
		r.CacheHits,
		r.CacheMisses,
		r.UpstreamErrors,
		r.EnrichmentFailures,
		r.ResponseRows,
	)
	return r
}

// Handler exposes the registry for a /metrics route.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one screener request and its duration.
func (r *Registry) RecordRequest(exchange, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.ScreenerRequests.WithLabelValues(exchange, status).Inc()
	r.RequestDuration.WithLabelValues(exchange).Observe(elapsed.Seconds())
}

// RecordCacheHit counts a cache hit; kind is "fresh" or "stale".
func (r *Registry) RecordCacheHit(kind string) {
	if r == nil {
		return
	}
	r.CacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss counts a cache miss; outcome is "rebuilt" or "empty".
func (r *Registry) RecordCacheMiss(outcome string) {
	if r == nil {
		return
	}
	r.CacheMisses.WithLabelValues(outcome).Inc()
}

// RecordUpstreamError counts one failed upstream fetch.
func (r *Registry) RecordUpstreamError(source string) {
	if r == nil {
		return
	}
	r.UpstreamErrors.WithLabelValues(source).Inc()
}

// RecordEnrichmentFailure counts one row degraded to null open interest.
func (r *Registry) RecordEnrichmentFailure(exchange string) {
	if r == nil {
		return
	}
	r.EnrichmentFailures.WithLabelValues(exchange).Inc()
}

// RecordResponseRows observes the row count of one response.
func (r *Registry) RecordResponseRows(exchange string, rows int) {
	if r == nil {
		return
	}
	r.ResponseRows.WithLabelValues(exchange).Observe(float64(rows))
}
