package providers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/httpx"
)

// BinanceConfig configures the Binance USDT-M futures adapter.
type BinanceConfig struct {
	BaseURL       string
	Timeout       time.Duration
	UserAgent     string
	RPS           float64
	Burst         int
	OIMaxAttempts int
	OIBackoffBase time.Duration
}

// BinanceAdapter implements Adapter against the Binance futures REST API.
type BinanceAdapter struct {
	baseURL string
	client  *httpx.Client
	limiter *rate.Limiter
	oiRetry httpx.RetryPolicy
	log     zerolog.Logger
}

// NewBinanceAdapter creates the Binance adapter.
func NewBinanceAdapter(cfg BinanceConfig, log zerolog.Logger) *BinanceAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://fapi.binance.com"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.OIMaxAttempts <= 0 {
		cfg.OIMaxAttempts = defaultOIMaxAttempts
	}
	if cfg.OIBackoffBase <= 0 {
		cfg.OIBackoffBase = 500 * time.Millisecond
	}

	return &BinanceAdapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpx.NewClient(cfg.Timeout, cfg.UserAgent, log),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		oiRetry: httpx.RetryPolicy{
			MaxAttempts: cfg.OIMaxAttempts,
			Backoff:     httpx.LinearBackoff(cfg.OIBackoffBase),
			Retryable:   func(err error) bool { return errors.Is(err, httpx.ErrRateLimited) },
		},
		log: log.With().Str("adapter", "binance").Logger(),
	}
}

func (b *BinanceAdapter) Name() string { return string(domain.ExchangeBinance) }

// Binance self-throttles the OI lookup with its retry backoff, so enrichment
// stays strictly sequential.
func (b *BinanceAdapter) EnrichmentConcurrency() int { return 1 }

// Primary-fetch failures on Binance propagate to the caller.
func (b *BinanceAdapter) DegradesOnFailure() bool { return false }

type binanceExchangeInfo struct {
	Symbols []struct {
		Symbol       string `json:"symbol"`
		BaseAsset    string `json:"baseAsset"`
		QuoteAsset   string `json:"quoteAsset"`
		ContractType string `json:"contractType"`
		Status       string `json:"status"`
	} `json:"symbols"`
}

// FetchUniverse lists /fapi/v1/exchangeInfo and keeps active USDT perpetuals.
// Binance encodes contract type and status as explicit upper-case enums.
func (b *BinanceAdapter) FetchUniverse(ctx context.Context) (*domain.Universe, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var info binanceExchangeInfo
	if err := b.client.GetJSON(ctx, b.baseURL+"/fapi/v1/exchangeInfo", nil, &info); err != nil {
		return nil, err
	}

	universe := &domain.Universe{
		Allowed:   make(map[string]struct{}),
		BaseAsset: make(map[string]string),
	}
	for _, s := range info.Symbols {
		sym := strings.TrimSpace(s.Symbol)
		base := strings.TrimSpace(s.BaseAsset)
		if sym == "" || base == "" {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(s.QuoteAsset)) != quoteUSDT {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(s.ContractType)) != "PERPETUAL" {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(s.Status)) != "TRADING" {
			continue
		}
		universe.Allowed[sym] = struct{}{}
		universe.BaseAsset[sym] = base
	}

	b.log.Debug().Int("symbols", len(universe.Allowed)).Msg("universe fetched")
	return universe, nil
}

type binancePremiumIndexItem struct {
	Symbol          string          `json:"symbol"`
	LastFundingRate httpx.FlexFloat `json:"lastFundingRate"`
	NextFundingTime httpx.FlexFloat `json:"nextFundingTime"`
	MarkPrice       httpx.FlexFloat `json:"markPrice"`
}

// FetchFundingSnapshots lists /fapi/v1/premiumIndex in one bulk call.
func (b *BinanceAdapter) FetchFundingSnapshots(ctx context.Context) (map[string]domain.FundingSnapshot, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var items []binancePremiumIndexItem
	if err := b.client.GetJSON(ctx, b.baseURL+"/fapi/v1/premiumIndex", nil, &items); err != nil {
		return nil, err
	}

	out := make(map[string]domain.FundingSnapshot, len(items))
	for _, it := range items {
		sym := strings.TrimSpace(it.Symbol)
		if sym == "" {
			continue
		}
		out[sym] = domain.FundingSnapshot{
			Symbol:         sym,
			FundingRate:    it.LastFundingRate.Ptr(),
			NextFundingUTC: httpx.ISOFromMillis(it.NextFundingTime.Ptr()),
			MarkPrice:      it.MarkPrice.Ptr(),
		}
	}
	return out, nil
}

type binanceTicker24hItem struct {
	Symbol      string          `json:"symbol"`
	QuoteVolume httpx.FlexFloat `json:"quoteVolume"`
}

// FetchTurnoverSnapshots lists /fapi/v1/ticker/24hr. For USDT pairs the quote
// volume is already the USD-equivalent 24h turnover.
func (b *BinanceAdapter) FetchTurnoverSnapshots(ctx context.Context) (map[string]domain.TurnoverSnapshot, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var items []binanceTicker24hItem
	if err := b.client.GetJSON(ctx, b.baseURL+"/fapi/v1/ticker/24hr", nil, &items); err != nil {
		return nil, err
	}

	out := make(map[string]domain.TurnoverSnapshot, len(items))
	for _, it := range items {
		sym := strings.TrimSpace(it.Symbol)
		if sym == "" {
			continue
		}
		out[sym] = domain.TurnoverSnapshot{
			Symbol:         sym,
			QuoteVolume24h: it.QuoteVolume.Ptr(),
		}
	}
	return out, nil
}

// FetchOpenInterest looks up /fapi/v1/openInterest for one symbol. Rate
// limiting is retried with linear backoff; any other failure, or an exhausted
// retry budget, degrades to nil.
func (b *BinanceAdapter) FetchOpenInterest(ctx context.Context, symbol string) *float64 {
	params := url.Values{}
	params.Set("symbol", symbol)

	var result struct {
		OpenInterest httpx.FlexFloat `json:"openInterest"`
	}
	err := b.oiRetry.Do(ctx, func() error {
		return b.client.GetJSON(ctx, b.baseURL+"/fapi/v1/openInterest", params, &result)
	})
	if err != nil {
		b.log.Warn().Err(err).Str("symbol", symbol).Msg("open interest lookup degraded to null")
		return nil
	}
	return result.OpenInterest.Ptr()
}
