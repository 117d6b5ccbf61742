package httpx

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// MissingTimestamp is the sentinel rendered for unparseable next-funding
// timestamps.
const MissingTimestamp = "-"

// FlexFloat decodes a numeric upstream field that may arrive as a JSON
// number, a numeric string, null, or garbage. Decoding never fails; anything
// that is not a finite number leaves the value unset so one malformed field
// degrades one row, not the whole payload.
type FlexFloat struct {
	val *float64
}

// UnmarshalJSON never returns an error; unparseable input leaves the value
// unset.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.val = nil

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && isFinite(n) {
			f.val = &n
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil && isFinite(n) {
		f.val = &n
	}
	return nil
}

// Ptr returns a copy of the parsed value, or nil when the field was missing
// or malformed.
func (f FlexFloat) Ptr() *float64 {
	if f.val == nil {
		return nil
	}
	v := *f.val
	return &v
}

func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// ISOFromMillis converts an epoch-milliseconds value to ISO-8601 UTC with
// second precision. A nil or non-positive input yields MissingTimestamp.
func ISOFromMillis(ms *float64) string {
	if ms == nil || *ms <= 0 {
		return MissingTimestamp
	}
	return time.UnixMilli(int64(*ms)).UTC().Format("2006-01-02T15:04:05Z")
}
