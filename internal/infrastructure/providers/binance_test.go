package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBinance(t *testing.T, handler http.Handler) (*BinanceAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := NewBinanceAdapter(BinanceConfig{
		BaseURL:       server.URL,
		Timeout:       5 * time.Second,
		RPS:           1000,
		Burst:         1000,
		OIBackoffBase: time.Millisecond,
	}, zerolog.Nop())
	return adapter, server
}

func TestBinanceAdapter_FetchUniverse(t *testing.T) {
	adapter, _ := newTestBinance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","baseAsset":"BTC","quoteAsset":"USDT","contractType":"PERPETUAL","status":"TRADING"},
			{"symbol":"ETHUSDT","baseAsset":"ETH","quoteAsset":"USDT","contractType":"PERPETUAL","status":"TRADING"},
			{"symbol":"BTCUSDT_240927","baseAsset":"BTC","quoteAsset":"USDT","contractType":"CURRENT_QUARTER","status":"TRADING"},
			{"symbol":"BTCBUSD","baseAsset":"BTC","quoteAsset":"BUSD","contractType":"PERPETUAL","status":"TRADING"},
			{"symbol":"XYZUSDT","baseAsset":"XYZ","quoteAsset":"USDT","contractType":"PERPETUAL","status":"SETTLING"},
			{"symbol":"","baseAsset":"","quoteAsset":"USDT","contractType":"PERPETUAL","status":"TRADING"}
		]}`))
	}))

	universe, err := adapter.FetchUniverse(context.Background())
	require.NoError(t, err)

	assert.Len(t, universe.Allowed, 2)
	assert.Contains(t, universe.Allowed, "BTCUSDT")
	assert.Contains(t, universe.Allowed, "ETHUSDT")
	assert.Equal(t, "BTC", universe.BaseAsset["BTCUSDT"])
}

func TestBinanceAdapter_FetchFundingSnapshots(t *testing.T) {
	adapter, _ := newTestBinance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/premiumIndex", r.URL.Path)
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastFundingRate":"-0.0002","nextFundingTime":1757030400000,"markPrice":"43500.5"},
			{"symbol":"ETHUSDT","lastFundingRate":"not-a-number","nextFundingTime":"bad","markPrice":null}
		]`))
	}))

	snaps, err := adapter.FetchFundingSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	btc := snaps["BTCUSDT"]
	require.NotNil(t, btc.FundingRate)
	assert.Equal(t, -0.0002, *btc.FundingRate)
	assert.Equal(t, "2025-09-05T00:00:00Z", btc.NextFundingUTC)
	require.NotNil(t, btc.MarkPrice)
	assert.Equal(t, 43500.5, *btc.MarkPrice)

	// Malformed fields degrade per-field, not per-row.
	eth := snaps["ETHUSDT"]
	assert.Nil(t, eth.FundingRate)
	assert.Equal(t, "-", eth.NextFundingUTC)
	assert.Nil(t, eth.MarkPrice)
}

func TestBinanceAdapter_FetchTurnoverSnapshots(t *testing.T) {
	adapter, _ := newTestBinance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/24hr", r.URL.Path)
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","quoteVolume":"1234567.89"},
			{"symbol":"ETHUSDT","quoteVolume":"NaN"}
		]`))
	}))

	snaps, err := adapter.FetchTurnoverSnapshots(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snaps["BTCUSDT"].QuoteVolume24h)
	assert.Equal(t, 1234567.89, *snaps["BTCUSDT"].QuoteVolume24h)
	assert.Nil(t, snaps["ETHUSDT"].QuoteVolume24h)
}

func TestBinanceAdapter_FetchOpenInterest_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	adapter, _ := newTestBinance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/openInterest", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"openInterest":"81234.5","symbol":"BTCUSDT"}`))
	}))

	oi := adapter.FetchOpenInterest(context.Background(), "BTCUSDT")
	require.NotNil(t, oi)
	assert.Equal(t, 81234.5, *oi)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBinanceAdapter_FetchOpenInterest_DegradesToNil(t *testing.T) {
	t.Run("persistent rate limiting", func(t *testing.T) {
		var calls atomic.Int32
		adapter, _ := newTestBinance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		assert.Nil(t, adapter.FetchOpenInterest(context.Background(), "BTCUSDT"))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("server error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		adapter, _ := newTestBinance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))

		assert.Nil(t, adapter.FetchOpenInterest(context.Background(), "BTCUSDT"))
		assert.Equal(t, int32(1), calls.Load())
	})
}
