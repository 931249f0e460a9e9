// Package pricing parses localized price strings and maintains the
// reference price table for Original-compatibility listings.
package pricing

import (
	"strconv"
	"strings"
)

// ParsePrice parses a Brazilian-formatted price string into a float.
// The format uses '.' as thousands separator and ',' as decimal
// separator, optionally prefixed with a currency symbol and surrounded by
// whitespace: "R$ 1.234,56" → 1234.56.
//
// Missing, empty or unparseable input returns ok=false, never an error.
// Callers decide what "missing" means at their stage: ingestion drops the
// row, feature encoding imputes the batch median.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseRating parses a rating average that may use ',' as the decimal
// separator. Returns ok=false for missing or garbage input.
func ParseRating(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
