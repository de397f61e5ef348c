// Package planning runs the goal analysis pipeline: allocation, return estimation,
// contributions, forecasts and the Monte Carlo goal probability.
package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/aristath/goalsip/internal/modules/montecarlo"
	"github.com/aristath/goalsip/internal/modules/portfolio"
	"github.com/aristath/goalsip/internal/modules/returns"
	"github.com/aristath/goalsip/internal/utils"
	"github.com/aristath/goalsip/internal/workers"
	"github.com/aristath/goalsip/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Settings tunes the estimation and simulation stages
type Settings struct {
	Mode              returns.Mode
	NumSimulations    int
	TargetProbability float64
	Seed              uint64
}

// DefaultSettings mirrors the server defaults
func DefaultSettings() Settings {
	return Settings{
		Mode:              returns.Median,
		NumSimulations:    montecarlo.DefaultNumSimulations,
		TargetProbability: 0.90,
		Seed:              42,
	}
}

// Service analyzes goal plans. It holds no per-request state.
type Service struct {
	table     *allocation.Table
	loader    domain.SeriesLoader
	estimator *returns.Estimator
	pool      *workers.WorkerPool
	settings  Settings
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates the analysis service
func NewService(
	table *allocation.Table,
	loader domain.SeriesLoader,
	pool *workers.WorkerPool,
	settings Settings,
	log zerolog.Logger,
) *Service {
	return &Service{
		table:     table,
		loader:    loader,
		estimator: returns.NewEstimator(log),
		pool:      pool,
		settings:  settings,
		now:       time.Now,
		log:       log.With().Str("service", "goal_planning").Logger(),
	}
}

// Profiles returns the risk-profile table
func (s *Service) Profiles() *allocation.Table {
	return s.table
}

// Projection is the deterministic part of an analysis
type Projection struct {
	RequestID  string
	Portfolio  *portfolio.Portfolio
	Rolling    returns.Estimate
	Growth     float64
	Forecast   float64
	GoalMet    bool
	PerAsset   []portfolio.AssetForecast
	Trajectory []portfolio.TrajectoryPoint
}

// Project runs every deterministic stage: allocation, loading, estimation, contributions,
// the composite rolling return, the trajectory and the forecast returns.
func (s *Service) Project(ctx context.Context, req Request) (*Projection, error) {
	return s.project(ctx, req, uuid.New().String())
}

func (s *Service) project(ctx context.Context, req Request, requestID string) (*Projection, error) {
	log := s.log.With().Str("request_id", requestID).Logger()

	alloc, err := req.Validate(s.table)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid goal request")
		return nil, err
	}
	start, err := req.Start(s.now())
	if err != nil {
		log.Warn().Err(err).Msg("Invalid start date")
		return nil, err
	}

	assets, err := s.buildAssets(alloc)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid allocation")
		return nil, err
	}

	plan := portfolio.Plan{
		GoalAmount:    req.GoalAmount,
		HorizonYears:  req.TimeHorizon,
		LumpsumAmount: req.LumpsumAmount,
		StartDate:     start,
	}
	p, err := portfolio.New(plan, assets, log)
	if err != nil {
		log.Warn().Err(err).Msg("Portfolio construction failed")
		return nil, err
	}

	if err := p.EnsureLoaded(ctx, s.loader); err != nil {
		log.Error().Err(err).Msg("Failed to load asset histories")
		return nil, err
	}
	log.Debug().Int("assets", len(assets)).Msg("Loaded asset histories")

	if err := p.EstimateReturns(s.estimator, s.settings.Mode); err != nil {
		return nil, err
	}

	total, err := p.AllocateContributions()
	if err != nil {
		log.Error().Err(err).Msg("Contribution allocation failed")
		return nil, err
	}

	rolling, err := p.EstimateRollingReturn(s.estimator, s.settings.Mode)
	if err != nil {
		log.Error().Err(err).Msg("Portfolio rolling return failed")
		return nil, err
	}

	trajectory := p.SimulateDeterministicTrajectory()

	forecast, goalMet, perAsset, err := p.ForecastReturns()
	if err != nil {
		log.Error().Err(err).Msg("Forecast return failed")
		return nil, err
	}

	log.Info().
		Float64("total_contribution", total).
		Float64("rolling_return", rolling.Rate).
		Float64("forecast_return", forecast).
		Bool("goal_met", goalMet).
		Msg("Projection complete")

	return &Projection{
		RequestID:  requestID,
		Portfolio:  p,
		Rolling:    rolling,
		Growth:     p.Growth(),
		Forecast:   forecast,
		GoalMet:    goalMet,
		PerAsset:   perAsset,
		Trajectory: trajectory,
	}, nil
}

// Analyze runs the full pipeline and assembles the summary. The lumpsum already reaching
// the goal is a normal outcome reported through the sentinel fields.
func (s *Service) Analyze(ctx context.Context, req Request) (*Summary, error) {
	requestID := uuid.New().String()
	log := s.log.With().Str("request_id", requestID).Logger()
	timer := utils.NewTimer("goal_analysis", log)
	defer timer.Stop()

	log.Info().
		Float64("goal_amount", req.GoalAmount).
		Int("time_horizon", req.TimeHorizon).
		Float64("lumpsum_amount", req.LumpsumAmount).
		Str("risk_profile", req.RiskProfile).
		Msg("Goal analysis started")

	proj, err := s.project(ctx, req, requestID)
	if err != nil {
		return nil, err
	}
	p := proj.Portfolio
	plan := p.Plan()
	months := plan.TotalMonths()

	engine, err := s.newEngine(p, log)
	if err != nil {
		log.Error().Err(err).Msg("Monte Carlo model estimation failed")
		return nil, err
	}

	probability, err := engine.Probability(ctx, plan.GoalAmount, plan.LumpsumAmount, p.TotalContribution(), months)
	if err != nil {
		log.Error().Err(err).Msg("Goal probability simulation failed")
		return nil, err
	}

	suggested := Note(NoAdditionalSIP)
	if !proj.GoalMet {
		amount, err := engine.SuggestContribution(ctx, plan.GoalAmount, plan.LumpsumAmount, months, s.settings.TargetProbability)
		if err != nil {
			log.Error().Err(err).Msg("Contribution search failed")
			return nil, err
		}
		if amount > p.TotalContribution() {
			suggested = Amount(amount)
		}
	}

	summary := s.summarize(req, proj, formulas.Round2(probability*100), suggested)
	log.Info().
		Float64("probability", summary.GoalAchievementProbability).
		Str("suggested_sip", summary.SuggestedSIP.String()).
		Msg("Goal analysis complete")
	return summary, nil
}

func (s *Service) newEngine(p *portfolio.Portfolio, log zerolog.Logger) (*montecarlo.Engine, error) {
	composite, err := p.BuildComposite()
	if err != nil {
		return nil, err
	}

	inputs := make([]montecarlo.AssetInput, len(composite.Columns))
	for i, col := range composite.Columns {
		inputs[i] = montecarlo.AssetInput{
			Name:      col.Name,
			Weight:    col.Weight,
			Prices:    col.Prices,
			FixedRate: col.FixedRate,
		}
	}

	model, err := montecarlo.NewModel(inputs)
	if err != nil {
		return nil, err
	}
	return montecarlo.NewEngine(model, montecarlo.Config{
		NumSimulations: s.settings.NumSimulations,
		Seed:           s.settings.Seed,
	}, s.pool, log), nil
}

// buildAssets creates assets in name order; assets with a configured fixed rate have no history
func (s *Service) buildAssets(alloc allocation.Allocation) ([]*portfolio.Asset, error) {
	names := alloc.Assets()
	assets := make([]*portfolio.Asset, 0, len(names))
	for _, name := range names {
		var (
			a   *portfolio.Asset
			err error
		)
		if rate, ok := s.table.FixedRate(name); ok {
			a, err = portfolio.NewFixedRateAsset(name, alloc[name], rate)
		} else {
			a, err = portfolio.NewAsset(name, alloc[name])
		}
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", name, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

func (s *Service) summarize(req Request, proj *Projection, probability float64, suggested AmountOrNote) *Summary {
	p := proj.Portfolio

	summary := &Summary{
		RequestID:                  proj.RequestID,
		GoalAmount:                 req.GoalAmount,
		TimeHorizon:                req.TimeHorizon,
		LumpsumAmount:              req.LumpsumAmount,
		RiskProfile:                req.RiskProfile,
		TotalMonthlySIP:            Amount(p.TotalContribution()),
		PortfolioGrowth:            proj.Growth,
		RollingXIRR:                proj.Rolling.Rate,
		GoalAchievementProbability: probability,
		SuggestedSIP:               suggested,
		AssetSummaries:             make([]AssetSummary, 0, len(p.Assets())),
	}

	if proj.GoalMet {
		summary.TotalMonthlySIP = Note(SIPNotRequired)
	} else {
		forecast := proj.Forecast
		summary.ForecastReturn = &forecast
	}

	for i, a := range p.Assets() {
		as := AssetSummary{
			Name:           a.Name(),
			Weight:         a.Weight(),
			ExpectedReturn: a.ExpectedReturn(),
			SIPAmount:      a.Contribution(),
			FixedRate:      a.IsFixedRate(),
		}
		if !proj.PerAsset[i].GoalMet {
			r := proj.PerAsset[i].Return
			as.ForecastReturn = &r
		}
		summary.AssetSummaries = append(summary.AssetSummaries, as)
	}

	if req.IncludeTrajectory {
		summary.Trajectory = proj.Trajectory
	}
	if req.IncludeSamples {
		summary.RollingSamples = make([]RollingSample, len(proj.Rolling.Samples))
		for i, v := range proj.Rolling.Samples {
			summary.RollingSamples[i] = RollingSample{
				WindowEnd: proj.Rolling.WindowEnds[i].Format(domain.DateLayout),
				Return:    v,
			}
		}
	}
	return summary
}
