package http

import (
	"net/url"
	"strconv"

	"github.com/fundscreen/fundscreen/internal/domain"
)

// Limits for the ?limit= parameter.
const (
	minLimit = 1
	maxLimit = 50
)

// QueryDefaults supplies the per-direction fallback values applied when a
// query parameter is absent or unparseable.
type QueryDefaults struct {
	NegativeFundingCut      float64
	PositiveFundingCut      float64
	NegativeAlertFundingCut float64
	PositiveAlertFundingCut float64

	MinMarketCapUSD     float64
	MinTurnover24hUSD   float64
	AlertTurnover24hUSD float64
	Limit               int
}

// DefaultQueryDefaults mirrors the thresholds the dashboard ships with.
func DefaultQueryDefaults() QueryDefaults {
	return QueryDefaults{
		NegativeFundingCut:      -0.0001,
		PositiveFundingCut:      0.00005,
		NegativeAlertFundingCut: -0.01,
		PositiveAlertFundingCut: 0.002,
		MinMarketCapUSD:         100_000_000,
		MinTurnover24hUSD:       2_000_000,
		AlertTurnover24hUSD:     10_000_000,
		Limit:                   30,
	}
}

// ParseFilters builds the request filter set from query parameters. Invalid
// values never fail the request, they fall back to the defaults.
func ParseFilters(q url.Values, d QueryDefaults) domain.ScreenerFilters {
	exchange := domain.ParseExchange(q.Get("exchange"))
	direction := domain.ParseDirection(q.Get("direction"))

	fundingCut := d.NegativeFundingCut
	alertCut := d.NegativeAlertFundingCut
	if direction == domain.DirectionPositive {
		fundingCut = d.PositiveFundingCut
		alertCut = d.PositiveAlertFundingCut
	}

	return domain.ScreenerFilters{
		Exchange:            exchange,
		Direction:           direction,
		FundingCut:          floatParam(q, "fundingCut", fundingCut),
		MinMarketCapUSD:     nonNegFloatParam(q, "minMarketCapUsd", d.MinMarketCapUSD),
		MinTurnover24hUSD:   nonNegFloatParam(q, "minTurnover24hUsd", d.MinTurnover24hUSD),
		Limit:               limitParam(q, d.Limit),
		AlertFundingCut:     floatParam(q, "alertFundingCut", alertCut),
		AlertTurnover24hUSD: floatParam(q, "alertTurnover24hUsd", d.AlertTurnover24hUSD),
	}
}

func floatParam(q url.Values, key string, fallback float64) float64 {
	raw := q.Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// nonNegFloatParam floors minimum filters at zero.
func nonNegFloatParam(q url.Values, key string, fallback float64) float64 {
	v := floatParam(q, key, fallback)
	if v < 0 {
		return 0
	}
	return v
}

func limitParam(q url.Values, fallback int) int {
	raw := q.Get("limit")
	limit := fallback
	if raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	if limit < minLimit {
		limit = minLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
