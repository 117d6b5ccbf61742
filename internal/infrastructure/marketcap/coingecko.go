// Package marketcap builds and caches the base-asset market-capitalization
// index used to filter screener candidates.
package marketcap

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/httpx"
)

// IndexSource fetches one page of {symbol, name, market cap} triples ordered
// by market cap descending.
type IndexSource interface {
	FetchPage(ctx context.Context, page, perPage int) ([]domain.MarketCapEntry, error)
}

// CoinGeckoConfig configures the CoinGecko index source.
type CoinGeckoConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	RPS       float64
	Burst     int
}

// CoinGeckoClient implements IndexSource against /coins/markets. Page fetches
// run behind a circuit breaker; while the breaker is open, fetches fail fast
// with a non-retryable error and the cache falls back to stale data.
type CoinGeckoClient struct {
	baseURL string
	client  *httpx.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewCoinGeckoClient creates the CoinGecko client.
func NewCoinGeckoClient(cfg CoinGeckoConfig, log zerolog.Logger) *CoinGeckoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 0.8 // free-tier budget, roughly 50 calls/minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}

	settings := gobreaker.Settings{
		Name:    "coingecko",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &CoinGeckoClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpx.NewClient(cfg.Timeout, cfg.UserAgent, log),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log.With().Str("source", "coingecko").Logger(),
	}
}

type coinMarketItem struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	MarketCap httpx.FlexFloat `json:"market_cap"`
}

// FetchPage fetches one /coins/markets page. Entries with an empty symbol or
// name, or a malformed market cap, are skipped; market caps are truncated to
// whole dollars.
func (c *CoinGeckoClient) FetchPage(ctx context.Context, page, perPage int) ([]domain.MarketCapEntry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var items []coinMarketItem
		if err := c.client.GetJSON(ctx, c.baseURL+"/coins/markets", params, &items); err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, fmt.Errorf("coingecko page %d: %w", page, err)
	}

	items := result.([]coinMarketItem)
	entries := make([]domain.MarketCapEntry, 0, len(items))
	for _, it := range items {
		sym := strings.ToUpper(strings.TrimSpace(it.Symbol))
		name := strings.TrimSpace(it.Name)
		mc := it.MarketCap.Ptr()
		if sym == "" || name == "" || mc == nil {
			continue
		}
		entries = append(entries, domain.MarketCapEntry{
			Symbol:       sym,
			Name:         name,
			MarketCapUSD: int64(math.Trunc(*mc)),
		})
	}
	return entries, nil
}
