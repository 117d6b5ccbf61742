// Package providers implements the per-exchange market-data adapters. Each
// adapter normalizes one venue's raw payloads into the shared domain shapes
// so the screener engine stays exchange-agnostic.
package providers

import (
	"context"

	"github.com/fundscreen/fundscreen/internal/domain"
)

// Adapter is the capability set every exchange implements.
type Adapter interface {
	Name() string

	// FetchUniverse returns the tradable USDT-perpetual universe: symbols
	// whose quote asset is the stable settlement currency, whose contract
	// type is perpetual, and whose trading status is active.
	FetchUniverse(ctx context.Context) (*domain.Universe, error)

	// FetchFundingSnapshots returns the current funding state for every
	// listed symbol in one bulk call (paginated where the venue requires it).
	FetchFundingSnapshots(ctx context.Context) (map[string]domain.FundingSnapshot, error)

	// FetchTurnoverSnapshots returns 24h quote turnover per symbol.
	FetchTurnoverSnapshots(ctx context.Context) (map[string]domain.TurnoverSnapshot, error)

	// FetchOpenInterest looks up open interest for a single symbol. It is
	// best-effort: rate limiting is retried with linear backoff, anything
	// else degrades to nil. It never fails the request.
	FetchOpenInterest(ctx context.Context, symbol string) *float64

	// EnrichmentConcurrency is the venue's worker budget for open-interest
	// enrichment. Venues whose lookup already self-throttles return 1.
	EnrichmentConcurrency() int

	// DegradesOnFailure reports how primary-fetch failures are contained:
	// true means the engine answers with an empty, structurally valid
	// response; false means the failure propagates to the caller.
	DegradesOnFailure() bool
}

const (
	// quoteUSDT is the stable settlement currency both venues are screened in.
	quoteUSDT = "USDT"

	defaultOIMaxAttempts = 3
)
