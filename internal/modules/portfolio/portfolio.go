// Package portfolio combines weighted assets into one goal plan: blended returns,
// per-asset contributions, the composite price history and the deterministic trajectory.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/returns"
	"github.com/aristath/goalsip/pkg/formulas"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// WeightTolerance is the allowed drift of the weight sum from 1
const WeightTolerance = 1e-8

// Plan is the investor's goal
type Plan struct {
	GoalAmount    float64
	HorizonYears  int
	LumpsumAmount float64
	StartDate     time.Time
}

// TotalMonths is the horizon in months
func (p Plan) TotalMonths() int {
	return p.HorizonYears * 12
}

// Validate checks the goal, horizon and lumpsum ranges
func (p Plan) Validate() error {
	if !formulas.IsFinite(p.GoalAmount) || p.GoalAmount <= 0 {
		return domain.ErrInvalidGoalAmount
	}
	if p.HorizonYears <= 0 {
		return domain.ErrInvalidTimeHorizon
	}
	if !formulas.IsFinite(p.LumpsumAmount) || p.LumpsumAmount < 0 || p.LumpsumAmount > p.GoalAmount {
		return domain.ErrInvalidLumpsum
	}
	return nil
}

// Portfolio is built once per analysis. Its stages run in order:
// EstimateReturns, AllocateContributions, then any of the trajectory, forecast and composite steps.
type Portfolio struct {
	plan   Plan
	assets []*Asset
	log    zerolog.Logger

	estimated         bool
	blendedReturn     float64 // annual percent
	monthlyRate       float64
	totalContribution float64
	allocated         bool

	composite  *Composite
	trajectory []TrajectoryPoint
}

// New validates the plan and the weights
func New(plan Plan, assets []*Asset, log zerolog.Logger) (*Portfolio, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, &domain.WeightSumError{Sum: 0}
	}

	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if seen[a.Name()] {
			return nil, fmt.Errorf("duplicate asset %q", a.Name())
		}
		seen[a.Name()] = true
	}

	if err := ValidateWeights(assets); err != nil {
		return nil, err
	}

	return &Portfolio{
		plan:   plan,
		assets: assets,
		log:    log.With().Str("component", "portfolio").Logger(),
	}, nil
}

// ValidateWeights fails with *domain.WeightSumError unless the weights sum to 1 within WeightTolerance
func ValidateWeights(assets []*Asset) error {
	total := 0.0
	for _, a := range assets {
		total += a.Weight()
	}
	if math.Abs(total-1) > WeightTolerance {
		return &domain.WeightSumError{Sum: total}
	}
	return nil
}

// Plan returns the goal plan
func (p *Portfolio) Plan() Plan { return p.plan }

// Assets returns the portfolio assets in construction order
func (p *Portfolio) Assets() []*Asset { return p.assets }

// TotalContribution returns the monthly contribution summed over assets
func (p *Portfolio) TotalContribution() float64 { return p.totalContribution }

// MonthlyRate returns the blended monthly decimal rate
func (p *Portfolio) MonthlyRate() float64 { return p.monthlyRate }

// EnsureLoaded loads every history-backed asset concurrently
func (p *Portfolio) EnsureLoaded(ctx context.Context, loader domain.SeriesLoader) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range p.assets {
		g.Go(func() error {
			return a.EnsureLoaded(ctx, loader)
		})
	}
	return g.Wait()
}

// EstimateReturns sets every asset's expected return and the blended rate
func (p *Portfolio) EstimateReturns(est *returns.Estimator, mode returns.Mode) error {
	for _, a := range p.assets {
		rate, err := a.EstimateExpectedReturn(est, p.plan.HorizonYears, mode)
		if err != nil {
			p.log.Error().Err(err).Str("asset", a.Name()).Msg("Expected return estimation failed")
			return fmt.Errorf("estimate %s: %w", a.Name(), err)
		}
		p.log.Debug().Str("asset", a.Name()).Float64("expected_return", rate).Msg("Expected return")
	}

	p.estimated = true
	_, _, err := p.BlendExpectedReturn()
	return err
}

// BlendExpectedReturn computes the weighted annual return (percent) and its monthly decimal rate
func (p *Portfolio) BlendExpectedReturn() (annual, monthly float64, err error) {
	if !p.estimated {
		return 0, 0, domain.ErrNonPositiveRate
	}
	for _, a := range p.assets {
		annual += a.ExpectedReturn() * a.Weight()
	}
	p.blendedReturn = annual
	p.monthlyRate = formulas.MonthlyRate(annual)
	return p.blendedReturn, p.monthlyRate, nil
}

// AllocateContributions computes each asset's share of the monthly contribution at the blended rate
func (p *Portfolio) AllocateContributions() (float64, error) {
	if !p.estimated {
		return 0, domain.ErrNonPositiveRate
	}

	total := 0.0
	for _, a := range p.assets {
		c, err := a.ComputeContribution(p.plan.GoalAmount, p.plan.LumpsumAmount, p.plan.TotalMonths(), p.monthlyRate)
		if err != nil {
			return 0, err
		}
		total += c
	}

	p.totalContribution = formulas.Round2(total)
	p.allocated = true
	p.log.Info().
		Float64("blended_return", p.blendedReturn).
		Float64("total_contribution", p.totalContribution).
		Msg("Allocated contributions")
	return p.totalContribution, nil
}

// BuildComposite aligns the asset histories on one calendar once and caches the result
// for both the rolling-return estimate and the Monte Carlo model.
func (p *Portfolio) BuildComposite() (*Composite, error) {
	if p.composite != nil {
		return p.composite, nil
	}
	c, err := buildComposite(p.assets, p.log)
	if err != nil {
		return nil, err
	}
	p.composite = c
	return c, nil
}

// EstimateRollingReturn runs the rolling-window estimator on the weighted composite series
func (p *Portfolio) EstimateRollingReturn(est *returns.Estimator, mode returns.Mode) (returns.Estimate, error) {
	c, err := p.BuildComposite()
	if err != nil {
		return returns.Estimate{}, err
	}
	weighted, err := c.Weighted()
	if err != nil {
		return returns.Estimate{}, fmt.Errorf("composite series: %w", err)
	}
	return est.Estimate("portfolio", weighted, p.plan.HorizonYears, mode)
}

// AssetForecast is the outcome of one asset's forward return projection
type AssetForecast struct {
	Name    string
	Return  float64
	GoalMet bool
}

// ForecastReturns projects each asset's return on its weighted share of the goal and lumpsum,
// then the whole plan's return at the blended rate. goalMet reports the terminal
// "lumpsum already reaches the goal" outcome for the whole plan.
func (p *Portfolio) ForecastReturns() (overall float64, goalMet bool, perAsset []AssetForecast, err error) {
	if !p.allocated {
		return 0, false, nil, domain.ErrNonPositiveRate
	}

	perAsset = make([]AssetForecast, 0, len(p.assets))
	for _, a := range p.assets {
		w := a.Weight()
		rate, ferr := a.ForecastedXIRR(p.plan.GoalAmount*w, p.plan.LumpsumAmount*w, p.plan.StartDate, p.plan.TotalMonths())
		if ferr != nil && !errors.Is(ferr, domain.ErrGoalAlreadyMet) {
			return 0, false, nil, fmt.Errorf("forecast %s: %w", a.Name(), ferr)
		}
		perAsset = append(perAsset, AssetForecast{Name: a.Name(), Return: rate, GoalMet: a.GoalMet()})
	}

	overall, err = forecastXIRR(p.plan.GoalAmount, p.plan.LumpsumAmount, p.totalContribution,
		p.blendedReturn, p.plan.StartDate, p.plan.TotalMonths())
	if errors.Is(err, domain.ErrGoalAlreadyMet) {
		return 0, true, perAsset, nil
	}
	if err != nil {
		return 0, false, nil, fmt.Errorf("forecast portfolio: %w", err)
	}
	return overall, false, perAsset, nil
}
