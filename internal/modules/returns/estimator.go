// Package returns estimates forward-looking annualized returns from rolling historical SIP windows.
package returns

import (
	"fmt"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/pkg/formulas"
	"github.com/rs/zerolog"
)

// DefaultUnitContribution is the nominal monthly amount invested in every simulated window
const DefaultUnitContribution = 1000.0

// Estimate is the outcome of one estimation call
type Estimate struct {
	Rate       float64     `json:"rate"` // annualized percent, 2 decimals
	Mode       Mode        `json:"mode"`
	Samples    []float64   `json:"samples"`     // per-window annualized percent
	WindowEnds []time.Time `json:"window_ends"` // redemption date of each window
}

// Estimator replays a monthly contribution plan over every rolling window of a price
// history and summarizes the resulting internal rates of return.
type Estimator struct {
	unitContribution float64
	log              zerolog.Logger
}

// NewEstimator creates an estimator investing DefaultUnitContribution per month
func NewEstimator(log zerolog.Logger) *Estimator {
	return &Estimator{
		unitContribution: DefaultUnitContribution,
		log:              log.With().Str("component", "return_estimator").Logger(),
	}
}

// Estimate returns the mode statistic of the rolling-window returns, in percent rounded to 2 decimals.
func (e *Estimator) Estimate(name string, series domain.Series, horizonYears int, mode Mode) (Estimate, error) {
	if !mode.Valid() {
		return Estimate{}, &domain.InvalidModeError{Mode: mode.String()}
	}

	samples, ends, err := e.RollingReturns(name, series, horizonYears)
	if err != nil {
		return Estimate{}, err
	}

	value, err := mode.Aggregate(samples)
	if err != nil {
		return Estimate{}, err
	}

	rate := formulas.Round2(value)
	e.log.Debug().
		Str("asset", name).
		Str("mode", mode.String()).
		Int("windows", len(samples)).
		Float64("rate", rate).
		Msg("Estimated rolling return")

	return Estimate{Rate: rate, Mode: mode, Samples: samples, WindowEnds: ends}, nil
}

// RollingReturns computes the annualized return (percent) of every window of horizonYears*12+1
// consecutive observations, stride one. A solver failure on any window aborts the whole run.
func (e *Estimator) RollingReturns(name string, series domain.Series, horizonYears int) ([]float64, []time.Time, error) {
	if horizonYears <= 0 {
		return nil, nil, domain.ErrInvalidTimeHorizon
	}

	months := horizonYears * 12
	if series.Len() <= months {
		return nil, nil, &domain.InsufficientHistoryError{
			Asset:     name,
			Available: series.Len(),
			Required:  months + 1,
		}
	}

	windows := series.Len() - months
	samples := make([]float64, 0, windows)
	ends := make([]time.Time, 0, windows)

	for start := 0; start < windows; start++ {
		window := series.Slice(start, start+months+1)
		rate, err := e.windowReturn(window, months)
		if err != nil {
			end := window.At(months).Date.Format(domain.DateLayout)
			e.log.Error().Err(err).Str("asset", name).Str("window_end", end).Msg("Window return failed")
			return nil, nil, fmt.Errorf("%s window ending %s: %w", name, end, &domain.RateComputationError{Err: err})
		}
		samples = append(samples, rate*100)
		ends = append(ends, window.At(months).Date)
	}

	return samples, ends, nil
}

// windowReturn invests the unit amount at each of the first months observations and
// redeems all accumulated units at the last one.
func (e *Estimator) windowReturn(window domain.Series, months int) (float64, error) {
	flows := make([]formulas.CashFlow, 0, months+1)
	units := 0.0

	for i := 0; i < months; i++ {
		p := window.At(i)
		units += e.unitContribution / p.Price
		flows = append(flows, formulas.CashFlow{Date: p.Date, Amount: -e.unitContribution})
	}

	last := window.At(months)
	flows = append(flows, formulas.CashFlow{Date: last.Date, Amount: units * last.Price})

	return formulas.XIRR(flows)
}
