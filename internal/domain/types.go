package domain

import "strings"

// Exchange identifies a supported perpetual venue.
type Exchange string

const (
	ExchangeBybit   Exchange = "bybit"
	ExchangeBinance Exchange = "binance"
)

// ParseExchange normalizes a raw exchange name. Unknown values fall back
// to Bybit, the default venue.
func ParseExchange(raw string) Exchange {
	if strings.ToLower(strings.TrimSpace(raw)) == string(ExchangeBinance) {
		return ExchangeBinance
	}
	return ExchangeBybit
}

// Direction selects which side of the funding market the screener scans.
type Direction string

const (
	DirectionNegative Direction = "negative"
	DirectionPositive Direction = "positive"
)

// ParseDirection normalizes a raw direction. Unknown values fall back to
// negative, the default scan.
func ParseDirection(raw string) Direction {
	if strings.ToLower(strings.TrimSpace(raw)) == string(DirectionPositive) {
		return DirectionPositive
	}
	return DirectionNegative
}

// Instrument is one perpetual contract listing as reported by an exchange.
// Instruments are rebuilt on every request and never persisted.
type Instrument struct {
	Symbol       string
	BaseAsset    string
	QuoteAsset   string
	ContractType string
	Status       string
}

// Universe is the set of tradable USDT perpetuals on one exchange plus the
// symbol-to-base-asset mapping needed for market-cap lookups.
type Universe struct {
	Allowed   map[string]struct{}
	BaseAsset map[string]string
}

// FundingSnapshot is the current funding state of one instrument. FundingRate
// and MarkPrice are nil when the upstream field was missing or malformed;
// NextFundingUTC is "-" when the upstream timestamp could not be parsed.
type FundingSnapshot struct {
	Symbol         string
	FundingRate    *float64
	NextFundingUTC string
	MarkPrice      *float64
}

// TurnoverSnapshot is the USD-denominated 24h traded value of one instrument.
type TurnoverSnapshot struct {
	Symbol         string
	QuoteVolume24h *float64
}

// MarketCapEntry maps an upper-cased base-asset symbol to its display name and
// truncated USD market capitalization.
type MarketCapEntry struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	MarketCapUSD int64  `json:"market_cap"`
}

// ScreenerFilters is the immutable per-request filter set. The alert
// thresholds are carried through to the response echo but no alert-triggering
// logic consumes them yet; Row.Alert is always empty.
type ScreenerFilters struct {
	Exchange  Exchange  `json:"exchange"`
	Direction Direction `json:"direction"`

	FundingCut        float64 `json:"fundingCut"`
	MinMarketCapUSD   float64 `json:"minMarketCapUsd"`
	MinTurnover24hUSD float64 `json:"minTurnover24hUsd"`
	Limit             int     `json:"limit"`

	AlertFundingCut     float64 `json:"alertFundingCut"`
	AlertTurnover24hUSD float64 `json:"alertTurnover24hUsd"`
}

// ScreenerRow is one surviving instrument in a screener response. Nil pointer
// fields serialize as JSON null. DeltaFunding8h, DeltaFunding16h and
// OIChange8h are placeholders the table client renders; nothing computes them
// yet and they are always null.
type ScreenerRow struct {
	Symbol  string  `json:"symbol"`
	Name    string  `json:"name"`
	Ticker  string  `json:"ticker"`
	Funding float64 `json:"funding"`

	DeltaFunding8h  *float64 `json:"df_8h"`
	DeltaFunding16h *float64 `json:"df_16h"`

	OpenInterest *float64 `json:"open_interest"`
	OIValueUSD   *float64 `json:"oi_value_usd"`
	OIChange8h   *float64 `json:"oi_chg_8h"`

	MarketCapUSD   *int64   `json:"market_cap"`
	NextFundingUTC string   `json:"next_funding"`
	MarkPrice      *float64 `json:"mark_price"`
	Turnover24hUSD *float64 `json:"turnover_24h"`

	Alert string `json:"alert"`
}

// ScreenerResponse is the final, ordered screener result for one request.
type ScreenerResponse struct {
	UpdatedAtUTC string          `json:"updatedAtUtc"`
	Filters      ScreenerFilters `json:"filters"`
	Count        int             `json:"count"`
	Rows         []*ScreenerRow  `json:"rows"`
}
