package domain

import "testing"

func TestPassesDirection_Negative(t *testing.T) {
	cut := -0.0001

	cases := []struct {
		name string
		rate float64
		want bool
	}{
		{"more negative than cut", -0.0002, true},
		{"exactly at cut", -0.0001, true},
		{"less negative than cut", -0.00005, false},
		{"zero", 0, false},
		{"positive", 0.0003, false},
	}

	for _, tc := range cases {
		got := PassesDirection(tc.rate, DirectionNegative, cut)
		if got != tc.want {
			t.Errorf("%s: PassesDirection(%v) = %v, want %v", tc.name, tc.rate, got, tc.want)
		}
	}
}

func TestPassesDirection_Positive(t *testing.T) {
	cut := 0.00005

	cases := []struct {
		name string
		rate float64
		want bool
	}{
		{"above cut", 0.0002, true},
		{"exactly at cut", 0.00005, true},
		{"below cut", 0.00001, false},
		{"zero", 0, false},
		{"negative", -0.0003, false},
	}

	for _, tc := range cases {
		got := PassesDirection(tc.rate, DirectionPositive, cut)
		if got != tc.want {
			t.Errorf("%s: PassesDirection(%v) = %v, want %v", tc.name, tc.rate, got, tc.want)
		}
	}
}

func TestSortRows_Negative(t *testing.T) {
	rows := []*ScreenerRow{
		{Symbol: "AAAUSDT", Funding: -0.0001},
		{Symbol: "BBBUSDT", Funding: -0.0005},
		{Symbol: "CCCUSDT", Funding: -0.0003},
	}

	SortRows(rows, DirectionNegative)

	want := []string{"BBBUSDT", "CCCUSDT", "AAAUSDT"}
	for i, sym := range want {
		if rows[i].Symbol != sym {
			t.Errorf("position %d: got %s, want %s", i, rows[i].Symbol, sym)
		}
	}
}

func TestSortRows_Positive(t *testing.T) {
	rows := []*ScreenerRow{
		{Symbol: "AAAUSDT", Funding: 0.0001},
		{Symbol: "BBBUSDT", Funding: 0.0005},
		{Symbol: "CCCUSDT", Funding: 0.0003},
	}

	SortRows(rows, DirectionPositive)

	want := []string{"BBBUSDT", "CCCUSDT", "AAAUSDT"}
	for i, sym := range want {
		if rows[i].Symbol != sym {
			t.Errorf("position %d: got %s, want %s", i, rows[i].Symbol, sym)
		}
	}
}

func TestSortRows_StableOnTies(t *testing.T) {
	// Equal funding rates must keep discovery order.
	rows := []*ScreenerRow{
		{Symbol: "AAAUSDT", Funding: -0.0002},
		{Symbol: "BBBUSDT", Funding: -0.0002},
		{Symbol: "CCCUSDT", Funding: -0.0002},
		{Symbol: "DDDUSDT", Funding: -0.0009},
	}

	SortRows(rows, DirectionNegative)

	want := []string{"DDDUSDT", "AAAUSDT", "BBBUSDT", "CCCUSDT"}
	for i, sym := range want {
		if rows[i].Symbol != sym {
			t.Errorf("position %d: got %s, want %s", i, rows[i].Symbol, sym)
		}
	}
}

func TestParseExchange(t *testing.T) {
	if ParseExchange("binance") != ExchangeBinance {
		t.Error("expected binance")
	}
	if ParseExchange(" BYBIT ") != ExchangeBybit {
		t.Error("expected bybit")
	}
	if ParseExchange("kraken") != ExchangeBybit {
		t.Error("unknown exchange should default to bybit")
	}
}

func TestParseDirection(t *testing.T) {
	if ParseDirection("Positive") != DirectionPositive {
		t.Error("expected positive")
	}
	if ParseDirection("") != DirectionNegative {
		t.Error("empty direction should default to negative")
	}
}
