// Package screener orchestrates one screener request: market-cap index,
// exchange universe and snapshots, directional filtering, ordering,
// truncation, and open-interest enrichment.
package screener

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundscreen/fundscreen/internal/domain"
	"github.com/fundscreen/fundscreen/internal/infrastructure/marketcap"
	"github.com/fundscreen/fundscreen/internal/infrastructure/providers"
	"github.com/fundscreen/fundscreen/internal/metrics"
)

// MarketCapIndex supplies the current market-cap index. It never fails; a
// broken upstream shows up as an empty or stale index.
type MarketCapIndex interface {
	GetIndex(ctx context.Context) marketcap.Index
}

// Config tunes engine policy.
type Config struct {
	// AllowUnknownMarketCap passes candidates whose base asset is missing
	// from the index instead of excluding them.
	AllowUnknownMarketCap bool
}

// Engine runs the screener pipeline. It holds no per-request state; a single
// Engine serves concurrent requests.
type Engine struct {
	adapters map[domain.Exchange]providers.Adapter
	index    MarketCapIndex
	cfg      Config
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Registry
}

// New creates an Engine. now defaults to time.Now; reg may be nil.
func New(adapters map[domain.Exchange]providers.Adapter, index MarketCapIndex, cfg Config, now func() time.Time, log zerolog.Logger, reg *metrics.Registry) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		adapters: adapters,
		index:    index,
		cfg:      cfg,
		now:      now,
		log:      log.With().Str("component", "screener").Logger(),
		metrics:  reg,
	}
}

// Screen executes one full request cycle and returns an immutable response.
// How a primary-fetch failure surfaces depends on the adapter's declared
// policy: degrading adapters answer with an empty response, the rest
// propagate the error.
func (e *Engine) Screen(ctx context.Context, filters domain.ScreenerFilters) (*domain.ScreenerResponse, error) {
	start := e.now()

	adapter, ok := e.adapters[filters.Exchange]
	if !ok {
		return nil, fmt.Errorf("no adapter for exchange %q", filters.Exchange)
	}

	idx := e.index.GetIndex(ctx)

	universe, err := adapter.FetchUniverse(ctx)
	if err != nil {
		return e.containFailure(adapter, filters, "universe", err)
	}
	funding, err := adapter.FetchFundingSnapshots(ctx)
	if err != nil {
		return e.containFailure(adapter, filters, "funding", err)
	}
	turnover, err := adapter.FetchTurnoverSnapshots(ctx)
	if err != nil {
		return e.containFailure(adapter, filters, "turnover", err)
	}

	candidates := e.buildCandidates(filters, universe, funding, turnover, idx)
	domain.SortRows(candidates, filters.Direction)

	limit := filters.Limit
	if limit < 1 {
		limit = 1
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Enrichment runs strictly after truncation so the per-symbol lookups
	// are bounded by the limit, not the universe size.
	enrichOpenInterest(ctx, adapter, candidates, e.metrics)

	elapsed := e.now().Sub(start)
	e.metrics.RecordRequest(string(filters.Exchange), "ok", elapsed)
	e.metrics.RecordResponseRows(string(filters.Exchange), len(candidates))
	e.log.Info().
		Str("exchange", string(filters.Exchange)).
		Str("direction", string(filters.Direction)).
		Int("rows", len(candidates)).
		Dur("elapsed", elapsed).
		Msg("screen complete")

	return e.response(filters, candidates), nil
}

// buildCandidates walks the universe in sorted symbol order (the discovery
// order that stable sorting later preserves on funding ties) and keeps every
// symbol that passes the directional, turnover and market-cap filters.
func (e *Engine) buildCandidates(
	filters domain.ScreenerFilters,
	universe *domain.Universe,
	funding map[string]domain.FundingSnapshot,
	turnover map[string]domain.TurnoverSnapshot,
	idx marketcap.Index,
) []*domain.ScreenerRow {
	symbols := make([]string, 0, len(universe.Allowed))
	for sym := range universe.Allowed {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var rows []*domain.ScreenerRow
	for _, sym := range symbols {
		snap, ok := funding[sym]
		if !ok || snap.FundingRate == nil {
			continue
		}
		rate := *snap.FundingRate
		if !domain.PassesDirection(rate, filters.Direction, filters.FundingCut) {
			continue
		}

		to, ok := turnover[sym]
		if !ok || to.QuoteVolume24h == nil || *to.QuoteVolume24h < filters.MinTurnover24hUSD {
			continue
		}

		base := strings.ToUpper(universe.BaseAsset[sym])
		name := "-"
		var marketCap *int64
		if entry, found := idx[base]; found {
			name = entry.Name
			mc := entry.MarketCapUSD
			if float64(mc) < filters.MinMarketCapUSD {
				continue
			}
			marketCap = &mc
		} else if !e.cfg.AllowUnknownMarketCap {
			continue
		}

		ticker := base
		if ticker == "" {
			ticker = sym
		}

		rows = append(rows, &domain.ScreenerRow{
			Symbol:         sym,
			Name:           name,
			Ticker:         ticker,
			Funding:        rate,
			MarketCapUSD:   marketCap,
			NextFundingUTC: snap.NextFundingUTC,
			MarkPrice:      snap.MarkPrice,
			Turnover24hUSD: to.QuoteVolume24h,
			Alert:          "",
		})
	}
	return rows
}

// containFailure applies the adapter's failure policy to a primary-fetch
// error.
func (e *Engine) containFailure(adapter providers.Adapter, filters domain.ScreenerFilters, step string, err error) (*domain.ScreenerResponse, error) {
	e.metrics.RecordUpstreamError(adapter.Name())

	if !adapter.DegradesOnFailure() {
		e.metrics.RecordRequest(adapter.Name(), "error", 0)
		return nil, fmt.Errorf("%s %s fetch: %w", adapter.Name(), step, err)
	}

	e.metrics.RecordRequest(adapter.Name(), "degraded", 0)
	e.log.Warn().Err(err).
		Str("exchange", adapter.Name()).
		Str("step", step).
		Msg("primary fetch failed, degrading to empty response")
	return e.response(filters, []*domain.ScreenerRow{}), nil
}

func (e *Engine) response(filters domain.ScreenerFilters, rows []*domain.ScreenerRow) *domain.ScreenerResponse {
	if rows == nil {
		rows = []*domain.ScreenerRow{} // "rows": [] on the wire, never null
	}
	return &domain.ScreenerResponse{
		UpdatedAtUTC: e.now().UTC().Format("2006-01-02T15:04:05Z"),
		Filters:      filters,
		Count:        len(rows),
		Rows:         rows,
	}
}
