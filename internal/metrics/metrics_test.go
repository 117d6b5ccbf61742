package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingIncrementsCounters(t *testing.T) {
	r := NewRegistry()

	r.RecordRequest("bybit", "ok", 250*time.Millisecond)
	r.RecordRequest("bybit", "ok", 100*time.Millisecond)
	r.RecordRequest("binance", "error", 0)
	r.RecordCacheHit("fresh")
	r.RecordCacheHit("stale")
	r.RecordCacheMiss("rebuilt")
	r.RecordUpstreamError("coingecko")
	r.RecordEnrichmentFailure("bybit")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ScreenerRequests.WithLabelValues("bybit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ScreenerRequests.WithLabelValues("binance", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheHits.WithLabelValues("fresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheHits.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheMisses.WithLabelValues("rebuilt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.UpstreamErrors.WithLabelValues("coingecko")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.EnrichmentFailures.WithLabelValues("bybit")))
}

func TestNilRegistryIsNoOp(t *testing.T) {
	var r *Registry

	// None of these may panic.
	r.RecordRequest("bybit", "ok", time.Second)
	r.RecordCacheHit("fresh")
	r.RecordCacheMiss("empty")
	r.RecordUpstreamError("coingecko")
	r.RecordEnrichmentFailure("bybit")
	r.RecordResponseRows("bybit", 10)
	assert.NotNil(t, r.Handler())
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordRequest("bybit", "ok", time.Second)
	r.RecordResponseRows("bybit", 12)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "fundscreen_requests_total"))
	assert.True(t, strings.Contains(body, "fundscreen_response_rows"))
}
