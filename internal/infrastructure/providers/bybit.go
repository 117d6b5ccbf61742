package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/httpx"
)

// BybitConfig configures the Bybit linear-perpetuals adapter.
type BybitConfig struct {
	BaseURL               string
	Timeout               time.Duration
	UserAgent             string
	RPS                   float64
	Burst                 int
	PageLimit             int
	OIMaxAttempts         int
	OIBackoffBase         time.Duration
	EnrichmentConcurrency int
}

// BybitAdapter implements Adapter against the Bybit v5 REST API. Listing
// endpoints are cursor-paginated: the adapter repeats the call, passing back
// the cursor from the previous page, until no cursor is returned.
type BybitAdapter struct {
	baseURL     string
	client      *httpx.Client
	limiter     *rate.Limiter
	oiRetry     httpx.RetryPolicy
	pageLimit   int
	concurrency int
	log         zerolog.Logger

	// Funding and turnover both come from /v5/market/tickers. A funding
	// fetch leaves its ticker pass here for the turnover fetch that follows
	// it, so one screener request pages the listing once, not twice.
	mu             sync.Mutex
	pendingTickers []bybitTickerItem
}

// NewBybitAdapter creates the Bybit adapter.
func NewBybitAdapter(cfg BybitConfig, log zerolog.Logger) *BybitAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.bybit.com"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 1000
	}
	if cfg.OIMaxAttempts <= 0 {
		cfg.OIMaxAttempts = defaultOIMaxAttempts
	}
	if cfg.OIBackoffBase <= 0 {
		cfg.OIBackoffBase = 500 * time.Millisecond
	}
	if cfg.EnrichmentConcurrency <= 0 {
		cfg.EnrichmentConcurrency = 4
	}

	return &BybitAdapter{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		client:    httpx.NewClient(cfg.Timeout, cfg.UserAgent, log),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		pageLimit: cfg.PageLimit,
		oiRetry: httpx.RetryPolicy{
			MaxAttempts: cfg.OIMaxAttempts,
			Backoff:     httpx.LinearBackoff(cfg.OIBackoffBase),
			Retryable:   func(err error) bool { return errors.Is(err, httpx.ErrRateLimited) },
		},
		concurrency: cfg.EnrichmentConcurrency,
		log:         log.With().Str("adapter", "bybit").Logger(),
	}
}

func (b *BybitAdapter) Name() string { return string(domain.ExchangeBybit) }

func (b *BybitAdapter) EnrichmentConcurrency() int { return b.concurrency }

// Primary-fetch failures on Bybit degrade to an empty response.
func (b *BybitAdapter) DegradesOnFailure() bool { return true }

type bybitInstrumentItem struct {
	Symbol       string `json:"symbol"`
	BaseCoin     string `json:"baseCoin"`
	QuoteCoin    string `json:"quoteCoin"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
}

type bybitInstrumentsResp struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List           []bybitInstrumentItem `json:"list"`
		NextPageCursor string                `json:"nextPageCursor"`
	} `json:"result"`
}

// FetchUniverse pages through /v5/market/instruments-info. Bybit expresses
// contract type and status as mixed-case free text, so matching is by
// substring/lower-case rather than exact enums.
func (b *BybitAdapter) FetchUniverse(ctx context.Context) (*domain.Universe, error) {
	universe := &domain.Universe{
		Allowed:   make(map[string]struct{}),
		BaseAsset: make(map[string]string),
	}

	cursor := ""
	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		params := b.pageParams(cursor)
		var resp bybitInstrumentsResp
		if err := b.client.GetJSON(ctx, b.baseURL+"/v5/market/instruments-info", params, &resp); err != nil {
			return nil, err
		}
		if resp.RetCode != 0 {
			return nil, fmt.Errorf("bybit instruments-info: retCode %d", resp.RetCode)
		}

		for _, it := range resp.Result.List {
			sym := strings.TrimSpace(it.Symbol)
			base := strings.TrimSpace(it.BaseCoin)
			if sym == "" || base == "" {
				continue
			}

			quote := strings.ToUpper(strings.TrimSpace(it.QuoteCoin))
			isUSDT := quote == quoteUSDT || strings.HasSuffix(sym, quoteUSDT)

			ctype := strings.TrimSpace(it.ContractType)
			isPerp := ctype == "LinearPerpetual" || strings.Contains(strings.ToLower(ctype), "perpetual")

			status := strings.ToLower(strings.TrimSpace(it.Status))
			isTrading := status == "" || status == "trading"

			if isUSDT && isPerp && isTrading {
				universe.Allowed[sym] = struct{}{}
				universe.BaseAsset[sym] = base
			}
		}

		cursor = resp.Result.NextPageCursor
		if cursor == "" {
			break
		}
	}

	b.log.Debug().Int("symbols", len(universe.Allowed)).Msg("universe fetched")
	return universe, nil
}

type bybitTickerItem struct {
	Symbol          string          `json:"symbol"`
	FundingRate     httpx.FlexFloat `json:"fundingRate"`
	NextFundingTime httpx.FlexFloat `json:"nextFundingTime"`
	MarkPrice       httpx.FlexFloat `json:"markPrice"`
	Turnover24h     httpx.FlexFloat `json:"turnover24h"`
}

type bybitTickersResp struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List           []bybitTickerItem `json:"list"`
		NextPageCursor string            `json:"nextPageCursor"`
	} `json:"result"`
}

// FetchFundingSnapshots pages through /v5/market/tickers; the same listing
// carries funding, mark price and next funding time.
func (b *BybitAdapter) FetchFundingSnapshots(ctx context.Context) (map[string]domain.FundingSnapshot, error) {
	tickers, err := b.fetchAllTickers(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.pendingTickers = tickers
	b.mu.Unlock()

	out := make(map[string]domain.FundingSnapshot, len(tickers))
	for _, it := range tickers {
		sym := strings.TrimSpace(it.Symbol)
		if sym == "" {
			continue
		}
		out[sym] = domain.FundingSnapshot{
			Symbol:         sym,
			FundingRate:    it.FundingRate.Ptr(),
			NextFundingUTC: httpx.ISOFromMillis(it.NextFundingTime.Ptr()),
			MarkPrice:      it.MarkPrice.Ptr(),
		}
	}
	return out, nil
}

// FetchTurnoverSnapshots reuses the ticker pass of the preceding funding
// fetch when one is pending, falling back to its own pagination otherwise.
func (b *BybitAdapter) FetchTurnoverSnapshots(ctx context.Context) (map[string]domain.TurnoverSnapshot, error) {
	b.mu.Lock()
	tickers := b.pendingTickers
	b.pendingTickers = nil
	b.mu.Unlock()

	if tickers == nil {
		var err error
		tickers, err = b.fetchAllTickers(ctx)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string]domain.TurnoverSnapshot, len(tickers))
	for _, it := range tickers {
		sym := strings.TrimSpace(it.Symbol)
		if sym == "" {
			continue
		}
		out[sym] = domain.TurnoverSnapshot{
			Symbol:         sym,
			QuoteVolume24h: it.Turnover24h.Ptr(),
		}
	}
	return out, nil
}

func (b *BybitAdapter) fetchAllTickers(ctx context.Context) ([]bybitTickerItem, error) {
	var all []bybitTickerItem

	cursor := ""
	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		params := b.pageParams(cursor)
		var resp bybitTickersResp
		if err := b.client.GetJSON(ctx, b.baseURL+"/v5/market/tickers", params, &resp); err != nil {
			return nil, err
		}
		if resp.RetCode != 0 {
			return nil, fmt.Errorf("bybit tickers: retCode %d", resp.RetCode)
		}

		all = append(all, resp.Result.List...)

		cursor = resp.Result.NextPageCursor
		if cursor == "" {
			break
		}
	}
	return all, nil
}

func (b *BybitAdapter) pageParams(cursor string) url.Values {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("limit", fmt.Sprintf("%d", b.pageLimit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

type bybitOpenInterestResp struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List []struct {
			OpenInterest httpx.FlexFloat `json:"openInterest"`
		} `json:"list"`
	} `json:"result"`
}

// FetchOpenInterest looks up the latest /v5/market/open-interest point for
// one symbol, degrading to nil on any failure.
func (b *BybitAdapter) FetchOpenInterest(ctx context.Context, symbol string) *float64 {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)
	params.Set("intervalTime", "1h")
	params.Set("limit", "1")

	var resp bybitOpenInterestResp
	err := b.oiRetry.Do(ctx, func() error {
		return b.client.GetJSON(ctx, b.baseURL+"/v5/market/open-interest", params, &resp)
	})
	if err != nil {
		b.log.Warn().Err(err).Str("symbol", symbol).Msg("open interest lookup degraded to null")
		return nil
	}
	if resp.RetCode != 0 || len(resp.Result.List) == 0 {
		return nil
	}
	return resp.Result.List[0].OpenInterest.Ptr()
}
