package formulas

import (
	"errors"
	"math"
	"sort"
	"time"
)

// CashFlow is a dated, signed amount. Outflows (investments) are negative.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

var (
	// ErrInvalidCashFlows is returned when the flows cannot have an internal rate of return.
	ErrInvalidCashFlows = errors.New("cash flows need at least one negative and one positive amount")
	// ErrNoConvergence is returned when no rate zeroes the net present value.
	ErrNoConvergence = errors.New("xirr did not converge")
)

const (
	xirrTolerance     = 1e-10
	xirrMaxIterations = 100
	xirrMaxBisections = 300
	xirrInitialGuess  = 0.1
	daysPerYear       = 365.0
)

// XIRR returns the annualized rate (as a decimal, 0.12 = 12%) that zeroes the
// net present value of irregularly dated cash flows, using an actual/365 day count.
// Amounts falling on the same calendar day are summed.
// Newton-Raphson is tried first; bisection over a bracketed interval is the fallback.
func XIRR(flows []CashFlow) (float64, error) {
	merged := mergeCashFlows(flows)

	hasNegative, hasPositive := false, false
	for _, cf := range merged {
		if cf.Amount < 0 {
			hasNegative = true
		}
		if cf.Amount > 0 {
			hasPositive = true
		}
	}
	if !hasNegative || !hasPositive {
		return 0, ErrInvalidCashFlows
	}

	years := make([]float64, len(merged))
	amounts := make([]float64, len(merged))
	t0 := merged[0].Date
	for i, cf := range merged {
		years[i] = cf.Date.Sub(t0).Hours() / 24 / daysPerYear
		amounts[i] = cf.Amount
	}

	if rate, ok := xirrNewton(years, amounts); ok {
		return rate, nil
	}
	return xirrBisect(years, amounts)
}

func mergeCashFlows(flows []CashFlow) []CashFlow {
	byDay := make(map[time.Time]float64, len(flows))
	for _, cf := range flows {
		y, m, d := cf.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		byDay[day] += cf.Amount
	}

	merged := make([]CashFlow, 0, len(byDay))
	for day, amount := range byDay {
		merged = append(merged, CashFlow{Date: day, Amount: amount})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}

// npv returns the net present value and its derivative with respect to rate
func npv(rate float64, years, amounts []float64) (float64, float64) {
	value, deriv := 0.0, 0.0
	base := 1 + rate
	for i, t := range years {
		discount := math.Pow(base, -t)
		value += amounts[i] * discount
		deriv -= t * amounts[i] * discount / base
	}
	return value, deriv
}

func xirrNewton(years, amounts []float64) (float64, bool) {
	scale := 0.0
	for _, a := range amounts {
		scale = math.Max(scale, math.Abs(a))
	}

	rate := xirrInitialGuess
	for i := 0; i < xirrMaxIterations; i++ {
		value, deriv := npv(rate, years, amounts)
		if deriv == 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, false
		}

		next := rate - value/deriv
		if next <= -1 {
			next = (rate - 1) / 2
		}
		if math.Abs(next-rate) < xirrTolerance {
			// a tiny step pinned against -100% is not a root
			residual, _ := npv(next, years, amounts)
			return next, math.Abs(residual) <= 1e-7*scale
		}
		rate = next
	}
	return 0, false
}

func xirrBisect(years, amounts []float64) (float64, error) {
	low, high := -0.999999, 1.0
	lowValue, _ := npv(low, years, amounts)
	highValue, _ := npv(high, years, amounts)

	for lowValue*highValue > 0 {
		high *= 2
		if high > 1e6 {
			return 0, ErrNoConvergence
		}
		highValue, _ = npv(high, years, amounts)
	}

	for i := 0; i < xirrMaxBisections; i++ {
		mid := (low + high) / 2
		midValue, _ := npv(mid, years, amounts)
		if math.Abs(high-low) < xirrTolerance || midValue == 0 {
			return mid, nil
		}
		if lowValue*midValue < 0 {
			high = mid
		} else {
			low, lowValue = mid, midValue
		}
	}
	return 0, ErrNoConvergence
}
