package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a currency or percentage amount to 2 decimal places (half away from zero).
func Round2(v float64) float64 {
	if !IsFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// IsFinite reports whether v is neither NaN nor an infinity
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
