package models

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// ParseAmount converts a decimal-string monetary field into a float.
// Empty, non-numeric and non-finite input all report ok=false, so "absent"
// and "unparseable" are handled the same way by every caller.
func ParseAmount(raw string) (float64, bool) {
	s := amountReplacer.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatAmount renders v as a plain decimal string with two places, the
// inverse of ParseAmount for storage and CSV output.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
