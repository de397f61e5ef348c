package formulas

import "math"

// Timing says whether periodic payments land at the end (Ordinary) or the start (Due) of each period.
type Timing int

const (
	Ordinary Timing = iota
	Due
)

// MonthlyRate converts an annual percentage (12 = 12%) to a monthly decimal rate.
func MonthlyRate(annualPercent float64) float64 {
	return annualPercent / 100 / 12
}

// CompoundGrowth returns principal grown for n periods at rate r.
func CompoundGrowth(principal, r float64, n int) float64 {
	return principal * math.Pow(1+r, float64(n))
}

// AnnuityFactor is the future value of one unit paid every period for n periods.
// A zero rate degenerates to n (no compounding).
func AnnuityFactor(r float64, n int, timing Timing) float64 {
	if n <= 0 {
		return 0
	}
	if r == 0 {
		return float64(n)
	}

	factor := (math.Pow(1+r, float64(n)) - 1) / r
	if timing == Due {
		factor *= 1 + r
	}
	return factor
}

// FutureValue of a lumpsum plus a level periodic payment after n periods.
func FutureValue(lumpsum, payment, r float64, n int, timing Timing) float64 {
	return CompoundGrowth(lumpsum, r, n) + payment*AnnuityFactor(r, n, timing)
}

// RequiredPayment solves FutureValue(lumpsum, payment, r, n, timing) = target for payment.
// The result is negative when the lumpsum alone overshoots the target.
func RequiredPayment(target, lumpsum, r float64, n int, timing Timing) float64 {
	factor := AnnuityFactor(r, n, timing)
	if factor == 0 {
		return 0
	}
	return (target - CompoundGrowth(lumpsum, r, n)) / factor
}
