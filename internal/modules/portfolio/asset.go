package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/returns"
	"github.com/aristath/goalsip/pkg/formulas"
)

// Asset is one instrument of a plan: its weight, its price history (or a fixed
// annual rate) and the quantities derived from them.
type Asset struct {
	name      string
	weight    float64
	fixedRate float64 // annual percent; set only for assets without history

	series domain.Series
	loaded bool

	expectedReturn float64
	estimate       *returns.Estimate
	contribution   float64
	forecastReturn float64
	goalMet        bool
}

// NewAsset creates a history-backed asset. Weight must be in (0, 1].
func NewAsset(name string, weight float64) (*Asset, error) {
	if weight <= 0 || weight > 1 {
		return nil, fmt.Errorf("%w: asset %q weight %v outside (0, 1]", domain.ErrInvalidWeight, name, weight)
	}
	return &Asset{name: name, weight: weight}, nil
}

// NewFixedRateAsset creates an asset that compounds at a fixed annual percent and has no history.
func NewFixedRateAsset(name string, weight, annualRate float64) (*Asset, error) {
	a, err := NewAsset(name, weight)
	if err != nil {
		return nil, err
	}
	if annualRate <= 0 {
		return nil, fmt.Errorf("asset %q: %w", name, domain.ErrNonPositiveRate)
	}
	a.fixedRate = annualRate
	a.loaded = true
	return a, nil
}

// Name returns the asset identifier
func (a *Asset) Name() string { return a.name }

// Weight returns the portfolio weight
func (a *Asset) Weight() float64 { return a.weight }

// IsFixedRate reports whether the asset compounds at a configured rate instead of history
func (a *Asset) IsFixedRate() bool { return a.fixedRate > 0 }

// FixedRate returns the configured annual percent, zero for history-backed assets
func (a *Asset) FixedRate() float64 { return a.fixedRate }

// ExpectedReturn returns the last estimated annual percent
func (a *Asset) ExpectedReturn() float64 { return a.expectedReturn }

// Contribution returns the last computed monthly contribution
func (a *Asset) Contribution() float64 { return a.contribution }

// ForecastReturn returns the last forecasted annual percent
func (a *Asset) ForecastReturn() float64 { return a.forecastReturn }

// GoalMet reports whether the last forecast found the lumpsum sufficient on its own
func (a *Asset) GoalMet() bool { return a.goalMet }

// Estimate returns the rolling-window estimate behind ExpectedReturn, nil for fixed-rate assets
func (a *Asset) Estimate() *returns.Estimate { return a.estimate }

// EnsureLoaded fetches the price history once. Fixed-rate assets have nothing to load.
func (a *Asset) EnsureLoaded(ctx context.Context, loader domain.SeriesLoader) error {
	if a.loaded || a.IsFixedRate() {
		return nil
	}

	series, err := loader.LoadSeries(ctx, a.name)
	if err != nil {
		return err
	}
	if series.IsEmpty() {
		return &domain.DataUnavailableError{AssetID: a.name}
	}

	a.series = series
	a.loaded = true
	return nil
}

// Series returns the loaded history
func (a *Asset) Series() (domain.Series, error) {
	if !a.loaded || a.IsFixedRate() {
		return domain.Series{}, fmt.Errorf("asset %q: %w", a.name, domain.ErrSeriesNotLoaded)
	}
	return a.series, nil
}

// EstimateExpectedReturn sets the expected annual return (percent) from the rolling-window
// estimator, or from the fixed rate when the asset has no history.
func (a *Asset) EstimateExpectedReturn(est *returns.Estimator, horizonYears int, mode returns.Mode) (float64, error) {
	if a.IsFixedRate() {
		a.expectedReturn = a.fixedRate
		a.estimate = nil
		return a.expectedReturn, nil
	}

	series, err := a.Series()
	if err != nil {
		return 0, err
	}

	estimate, err := est.Estimate(a.name, series, horizonYears, mode)
	if err != nil {
		return 0, err
	}

	a.expectedReturn = estimate.Rate
	a.estimate = &estimate
	return a.expectedReturn, nil
}

// ComputeContribution solves the ordinary annuity for the monthly payment that takes the
// lumpsum to the goal at monthlyRate, scaled by the asset's weight. Negative results
// (the lumpsum alone overshoots) clamp to zero.
func (a *Asset) ComputeContribution(goal, lumpsum float64, totalMonths int, monthlyRate float64) (float64, error) {
	if a.expectedReturn <= 0 {
		return 0, fmt.Errorf("asset %q: %w", a.name, domain.ErrNonPositiveRate)
	}
	if totalMonths <= 0 {
		return 0, fmt.Errorf("asset %q: %w", a.name, domain.ErrNonPositiveHorizon)
	}

	payment := formulas.RequiredPayment(goal, lumpsum, monthlyRate, totalMonths, formulas.Ordinary) * a.weight
	a.contribution = max(0, formulas.Round2(payment))
	return a.contribution, nil
}

// ForecastedXIRR is the annualized return (percent) of investing the asset's contribution
// every month at its own expected rate, starting from start with the given lumpsum.
// Returns domain.ErrGoalAlreadyMet when the lumpsum's own growth reaches the goal.
func (a *Asset) ForecastedXIRR(goal, lumpsum float64, start time.Time, totalMonths int) (float64, error) {
	rate, err := forecastXIRR(goal, lumpsum, a.contribution, a.expectedReturn, start, totalMonths)
	a.goalMet = errors.Is(err, domain.ErrGoalAlreadyMet)
	if err != nil {
		a.forecastReturn = 0
		return 0, err
	}

	a.forecastReturn = rate
	return rate, nil
}

// forecastXIRR builds the forward schedule: lumpsum plus the first contribution at start,
// one contribution at each of months 1..n-1, and the annuity-due future value at month n.
func forecastXIRR(goal, lumpsum, contribution, annualRate float64, start time.Time, totalMonths int) (float64, error) {
	if annualRate <= 0 {
		return 0, domain.ErrNonPositiveRate
	}
	if start.IsZero() {
		return 0, domain.ErrMissingStartDate
	}
	if totalMonths <= 0 {
		return 0, domain.ErrNonPositiveHorizon
	}

	r := formulas.MonthlyRate(annualRate)
	if formulas.CompoundGrowth(lumpsum, r, totalMonths) >= goal {
		return 0, domain.ErrGoalAlreadyMet
	}

	final := formulas.FutureValue(lumpsum, contribution, r, totalMonths, formulas.Due)

	flows := make([]formulas.CashFlow, 0, totalMonths+1)
	flows = append(flows, formulas.CashFlow{Date: start, Amount: -formulas.Round2(lumpsum + contribution)})
	for m := 1; m < totalMonths; m++ {
		flows = append(flows, formulas.CashFlow{Date: addMonths(start, m), Amount: -formulas.Round2(contribution)})
	}
	flows = append(flows, formulas.CashFlow{Date: addMonths(start, totalMonths), Amount: formulas.Round2(final)})

	rate, err := formulas.XIRR(flows)
	if err != nil {
		return 0, &domain.RateComputationError{Err: err}
	}
	return formulas.Round2(rate * 100), nil
}

// addMonths moves t by n calendar months, clamping to the last day of the target month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, lastDay), 0, 0, 0, 0, t.Location())
}
