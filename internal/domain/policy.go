package domain

import "sort"

// PassesDirection reports whether a funding rate survives the directional
// cut. Negative scans reject non-negative rates and require the rate to be at
// or below the cut (the cut is expected negative); positive scans mirror
// that: reject non-positive rates, require rate at or above the cut.
func PassesDirection(fundingRate float64, direction Direction, fundingCut float64) bool {
	if direction == DirectionNegative {
		if fundingRate >= 0 {
			return false
		}
		return fundingRate <= fundingCut
	}
	if fundingRate <= 0 {
		return false
	}
	return fundingRate >= fundingCut
}

// LessByDirection orders two funding rates for the requested direction:
// ascending for negative scans (most negative first), descending for
// positive scans (most positive first).
func LessByDirection(a, b float64, direction Direction) bool {
	if direction == DirectionNegative {
		return a < b
	}
	return a > b
}

// SortRows orders rows by funding rate for the requested direction. The sort
// is stable: rows with exactly equal funding rates keep their discovery
// order.
func SortRows(rows []*ScreenerRow, direction Direction) {
	sort.SliceStable(rows, func(i, j int) bool {
		return LessByDirection(rows[i].Funding, rows[j].Funding, direction)
	})
}
