package reporting

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// pct formats a fraction as a percentage with two decimals, e.g. "-12.34%".
func pct(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(f).Mul(hundred).StringFixed(2) + "%"
}

// amount formats a balance or price with two decimals.
func amount(f float64) string {
	return fixed(f, 2)
}

// fixed formats f with places decimals, rounding half away from zero.
func fixed(f float64, places int32) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(f).StringFixed(places)
}
