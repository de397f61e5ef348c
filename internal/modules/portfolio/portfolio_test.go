package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/returns"
	"github.com/aristath/goalsip/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLog   = zerolog.New(nil).Level(zerolog.Disabled)
	testStart = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
)

func monthlySeries(t *testing.T, start time.Time, prices []float64) domain.Series {
	t.Helper()
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Date: start.AddDate(0, i, 0), Price: p}
	}
	s, err := domain.NewSeries(points)
	require.NoError(t, err)
	return s
}

func growthPrices(n int, monthly float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 * math.Pow(1+monthly, float64(i))
	}
	return prices
}

func mapLoader(series map[string]domain.Series) domain.SeriesLoader {
	return domain.SeriesLoaderFunc(func(_ context.Context, id string) (domain.Series, error) {
		s, ok := series[id]
		if !ok {
			return domain.Series{}, &domain.DataUnavailableError{AssetID: id}
		}
		return s, nil
	})
}

func fixedAsset(t *testing.T, name string, weight, rate float64) *Asset {
	t.Helper()
	a, err := NewFixedRateAsset(name, weight, rate)
	require.NoError(t, err)
	return a
}

func historyAsset(t *testing.T, name string, weight float64) *Asset {
	t.Helper()
	a, err := NewAsset(name, weight)
	require.NoError(t, err)
	return a
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		wantErr bool
	}{
		{"conservative", []float64{0.2, 0.6, 0.2}, false},
		{"balanced", []float64{0.30, 0.20, 0.3, 0.2}, false},
		{"aggressive", []float64{0.4, 0.3, 0.30}, false},
		{"single", []float64{1}, false},
		{"drift inside tolerance", []float64{0.5, 0.5 + 5e-9}, false},
		{"short", []float64{0.5, 0.4}, true},
		{"drift outside tolerance", []float64{0.5, 0.5, 1e-7}, true},
		{"over", []float64{0.7, 0.7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := make([]*Asset, len(tt.weights))
			for i, w := range tt.weights {
				assets[i] = fixedAsset(t, string(rune('a'+i)), w, 7)
			}

			err := ValidateWeights(assets)
			if tt.wantErr {
				var wErr *domain.WeightSumError
				assert.True(t, errors.As(err, &wErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_ValidatesPlan(t *testing.T) {
	assets := []*Asset{fixedAsset(t, "fd", 1, 7)}

	tests := []struct {
		name string
		plan Plan
		want error
	}{
		{"zero goal", Plan{GoalAmount: 0, HorizonYears: 5}, domain.ErrInvalidGoalAmount},
		{"zero horizon", Plan{GoalAmount: 100, HorizonYears: 0}, domain.ErrInvalidTimeHorizon},
		{"negative lumpsum", Plan{GoalAmount: 100, HorizonYears: 1, LumpsumAmount: -1}, domain.ErrInvalidLumpsum},
		{"lumpsum above goal", Plan{GoalAmount: 100, HorizonYears: 1, LumpsumAmount: 101}, domain.ErrInvalidLumpsum},
		{"infinite goal", Plan{GoalAmount: math.Inf(1), HorizonYears: 5}, domain.ErrInvalidGoalAmount},
		{"NaN goal", Plan{GoalAmount: math.NaN(), HorizonYears: 5}, domain.ErrInvalidGoalAmount},
		{"NaN lumpsum", Plan{GoalAmount: 100, HorizonYears: 1, LumpsumAmount: math.NaN()}, domain.ErrInvalidLumpsum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.plan, assets, testLog)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_RejectsDuplicateAssets(t *testing.T) {
	_, err := New(Plan{GoalAmount: 100, HorizonYears: 1},
		[]*Asset{fixedAsset(t, "fd", 0.5, 7), fixedAsset(t, "fd", 0.5, 7)}, testLog)
	assert.Error(t, err)
}

func TestNewAsset_WeightRange(t *testing.T) {
	for _, w := range []float64{0, -0.1, 1.01} {
		_, err := NewAsset("x", w)
		assert.Error(t, err)
	}
	_, err := NewFixedRateAsset("fd", 0.5, 0)
	assert.ErrorIs(t, err, domain.ErrNonPositiveRate)
}

func TestComputeContribution_RequiresEstimate(t *testing.T) {
	a := historyAsset(t, "gold", 1)
	_, err := a.ComputeContribution(1e6, 0, 12, 0.01)
	assert.ErrorIs(t, err, domain.ErrNonPositiveRate)
}

func TestComputeContribution_ZeroRateIsLinear(t *testing.T) {
	a := fixedAsset(t, "fd", 0.25, 7)
	_, err := a.EstimateExpectedReturn(nil, 1, returns.Median)
	require.NoError(t, err)

	c, err := a.ComputeContribution(12000, 0, 12, 0)
	require.NoError(t, err)
	assert.Equal(t, 250.0, c)
}

func TestComputeContribution_ClampsToZero(t *testing.T) {
	a := fixedAsset(t, "fd", 1, 7)
	_, err := a.EstimateExpectedReturn(nil, 3, returns.Median)
	require.NoError(t, err)

	c, err := a.ComputeContribution(100000, 95000, 36, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c)
}

func TestComputeContribution_MonotonicallyDecreasing(t *testing.T) {
	a := fixedAsset(t, "fd", 0.6, 7)
	_, err := a.EstimateExpectedReturn(nil, 5, returns.Median)
	require.NoError(t, err)

	const goal, months = 1_000_000.0, 60

	prev := math.Inf(1)
	for lumpsum := 0.0; lumpsum <= goal; lumpsum += 50_000 {
		c, err := a.ComputeContribution(goal, lumpsum, months, 0.008)
		require.NoError(t, err)
		assert.LessOrEqual(t, c, prev, "lumpsum %v", lumpsum)
		prev = c
	}

	prev = math.Inf(1)
	for rate := 0.001; rate <= 0.02; rate += 0.001 {
		c, err := a.ComputeContribution(goal, 100_000, months, rate)
		require.NoError(t, err)
		assert.LessOrEqual(t, c, prev, "rate %v", rate)
		prev = c
	}
}

func TestSingleAssetOnePercentScenario(t *testing.T) {
	p, err := New(Plan{GoalAmount: 1_000_000, HorizonYears: 1, StartDate: testStart},
		[]*Asset{fixedAsset(t, "steady", 1, 12)}, testLog)
	require.NoError(t, err)

	require.NoError(t, p.EstimateReturns(nil, returns.Median))
	assert.InDelta(t, 0.01, p.MonthlyRate(), 1e-12)

	contribution, err := p.AllocateContributions()
	require.NoError(t, err)
	assert.InDelta(t, 1_000_000/((math.Pow(1.01, 12)-1)/0.01), contribution, 0.01)

	trajectory := p.SimulateDeterministicTrajectory()
	require.Len(t, trajectory, 13)

	want := contribution * (math.Pow(1.01, 12) - 1) / 0.01 * 1.01
	assert.InDelta(t, want, trajectory[12].Value, 1e-6)
	assert.InDelta(t, contribution*12, trajectory[12].Invested, 1e-6)
}

func TestTrajectory_RoundTrip(t *testing.T) {
	for _, lumpsum := range []float64{0, 150_000} {
		p, err := New(Plan{GoalAmount: 2_000_000, HorizonYears: 7, LumpsumAmount: lumpsum, StartDate: testStart},
			[]*Asset{fixedAsset(t, "a", 0.7, 11), fixedAsset(t, "b", 0.3, 7)}, testLog)
		require.NoError(t, err)
		require.NoError(t, p.EstimateReturns(nil, returns.Median))
		contribution, err := p.AllocateContributions()
		require.NoError(t, err)

		trajectory := p.SimulateDeterministicTrajectory()
		final := trajectory[len(trajectory)-1].Value

		back := formulas.RequiredPayment(final, lumpsum, p.MonthlyRate(), 84, formulas.Due)
		assert.InDelta(t, contribution, back, 0.01, "lumpsum %v", lumpsum)
	}
}

func TestTrajectory_InvestedWithLumpsum(t *testing.T) {
	p, err := New(Plan{GoalAmount: 500_000, HorizonYears: 2, LumpsumAmount: 100_000, StartDate: testStart},
		[]*Asset{fixedAsset(t, "fd", 1, 7)}, testLog)
	require.NoError(t, err)
	require.NoError(t, p.EstimateReturns(nil, returns.Median))
	s, err := p.AllocateContributions()
	require.NoError(t, err)

	tr := p.SimulateDeterministicTrajectory()
	assert.Equal(t, 100_000.0, tr[0].Invested)
	assert.Equal(t, 100_000.0, tr[0].Value)
	assert.Equal(t, 0.0, tr[0].Gain)
	assert.Equal(t, 100_000.0, tr[1].Invested)
	assert.InDelta(t, 100_000+s, tr[2].Invested, 1e-9)
	for _, pt := range tr {
		assert.GreaterOrEqual(t, pt.Gain, 0.0)
	}
	assert.Greater(t, p.Growth(), 0.0)
}

func TestGoalAlreadyMet(t *testing.T) {
	p, err := New(Plan{GoalAmount: 1_000_000, HorizonYears: 3, LumpsumAmount: 900_000, StartDate: testStart},
		[]*Asset{fixedAsset(t, "fd", 1, 12)}, testLog)
	require.NoError(t, err)
	require.NoError(t, p.EstimateReturns(nil, returns.Median))

	contribution, err := p.AllocateContributions()
	require.NoError(t, err)
	assert.Equal(t, 0.0, contribution)

	overall, goalMet, perAsset, err := p.ForecastReturns()
	require.NoError(t, err)
	assert.True(t, goalMet)
	assert.Equal(t, 0.0, overall)
	require.Len(t, perAsset, 1)
	assert.True(t, perAsset[0].GoalMet)

	_, err = p.Assets()[0].ForecastedXIRR(1_000_000, 900_000, testStart, 36)
	assert.ErrorIs(t, err, domain.ErrGoalAlreadyMet)
}

func TestForecastedXIRR_Preconditions(t *testing.T) {
	unestimated := historyAsset(t, "gold", 1)
	_, err := unestimated.ForecastedXIRR(1e6, 0, testStart, 12)
	assert.ErrorIs(t, err, domain.ErrNonPositiveRate)

	a := fixedAsset(t, "fd", 1, 7)
	_, err = a.EstimateExpectedReturn(nil, 1, returns.Median)
	require.NoError(t, err)

	_, err = a.ForecastedXIRR(1e6, 0, time.Time{}, 12)
	assert.ErrorIs(t, err, domain.ErrMissingStartDate)

	_, err = a.ForecastedXIRR(1e6, 0, testStart, 0)
	assert.ErrorIs(t, err, domain.ErrNonPositiveHorizon)
}

func TestForecastedXIRR_MatchesExpectedRate(t *testing.T) {
	a := fixedAsset(t, "fd", 1, 12)
	_, err := a.EstimateExpectedReturn(nil, 5, returns.Median)
	require.NoError(t, err)
	_, err = a.ComputeContribution(1_000_000, 0, 60, 0.01)
	require.NoError(t, err)

	rate, err := a.ForecastedXIRR(1_000_000, 0, testStart, 60)
	require.NoError(t, err)

	// 1% a month is 12.68% effective; day counts move it slightly
	assert.InDelta(t, 12.68, rate, 0.3)
	assert.Equal(t, rate, a.ForecastReturn())
}

func TestEnsureLoaded_PropagatesDataErrors(t *testing.T) {
	p, err := New(Plan{GoalAmount: 1e6, HorizonYears: 1, StartDate: testStart},
		[]*Asset{historyAsset(t, "largecap", 0.5), historyAsset(t, "missing", 0.5)}, testLog)
	require.NoError(t, err)

	err = p.EnsureLoaded(context.Background(), mapLoader(map[string]domain.Series{
		"largecap": monthlySeries(t, testStart, growthPrices(24, 0.01)),
	}))

	var dataErr *domain.DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, "missing", dataErr.AssetID)
}

func TestBuildComposite_AlignsAndFills(t *testing.T) {
	jan := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	a := historyAsset(t, "a", 0.5)
	b := historyAsset(t, "b", 0.3)
	fd := fixedAsset(t, "fd", 0.2, 12)

	p, err := New(Plan{GoalAmount: 1e6, HorizonYears: 1, StartDate: testStart}, []*Asset{a, b, fd}, testLog)
	require.NoError(t, err)
	require.NoError(t, p.EnsureLoaded(context.Background(), mapLoader(map[string]domain.Series{
		"a": monthlySeries(t, jan, []float64{10, 11, 12, 13}),
		"b": monthlySeries(t, jan.AddDate(0, 1, 0), []float64{20, 21}),
	})))

	c, err := p.BuildComposite()
	require.NoError(t, err)
	require.Len(t, c.Dates, 4)
	require.Len(t, c.Columns, 3)

	assert.Equal(t, []float64{10, 11, 12, 13}, c.Columns[0].Prices)
	assert.Equal(t, []float64{20, 20, 21, 21}, c.Columns[1].Prices, "back-filled head, forward-filled tail")
	assert.InDelta(t, 1.01, c.Columns[2].Prices[1], 1e-12)
	assert.Zero(t, c.Columns[0].FixedRate)
	assert.NotZero(t, c.Columns[2].FixedRate)

	weighted, err := c.Weighted()
	require.NoError(t, err)
	assert.InDelta(t, 10*0.5+20*0.3+1*0.2, weighted.At(0).Price, 1e-9)

	again, err := p.BuildComposite()
	require.NoError(t, err)
	assert.Same(t, c, again)
}

func TestBuildComposite_EmptyWhenNoHistory(t *testing.T) {
	p, err := New(Plan{GoalAmount: 1e6, HorizonYears: 1, StartDate: testStart},
		[]*Asset{fixedAsset(t, "fd", 1, 7)}, testLog)
	require.NoError(t, err)

	_, err = p.BuildComposite()
	assert.ErrorIs(t, err, domain.ErrEmptyComposite)
}

func TestEstimateRollingReturn_OnComposite(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := New(Plan{GoalAmount: 1e6, HorizonYears: 2, StartDate: testStart},
		[]*Asset{historyAsset(t, "a", 0.6), historyAsset(t, "b", 0.4)}, testLog)
	require.NoError(t, err)
	require.NoError(t, p.EnsureLoaded(context.Background(), mapLoader(map[string]domain.Series{
		"a": monthlySeries(t, start, growthPrices(60, 0.01)),
		"b": monthlySeries(t, start, growthPrices(60, 0.01)),
	})))

	est, err := p.EstimateRollingReturn(returns.NewEstimator(testLog), returns.Median)
	require.NoError(t, err)
	assert.Len(t, est.Samples, 60-24)
	assert.InDelta(t, 12.68, est.Rate, 0.3)
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), addMonths(jan31, 1))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), addMonths(jan31, 2))
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), addMonths(jan31, 13))
}
