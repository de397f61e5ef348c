package montecarlo

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/workers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

// randomWalks returns two correlated monthly price histories
func randomWalks(n int) ([]float64, []float64) {
	rng := rand.New(rand.NewPCG(7, 11))
	a, b := make([]float64, n), make([]float64, n)
	a[0], b[0] = 100, 50
	for i := 1; i < n; i++ {
		shock := rng.NormFloat64()
		a[i] = a[i-1] * math.Exp(0.009+0.045*shock)
		b[i] = b[i-1] * math.Exp(0.006+0.02*(0.5*shock+0.85*rng.NormFloat64()))
	}
	return a, b
}

func testModel(t *testing.T) *Model {
	t.Helper()
	a, b := randomWalks(180)
	m, err := NewModel([]AssetInput{
		{Name: "largecap", Weight: 0.5, Prices: a},
		{Name: "gold", Weight: 0.3, Prices: b},
		{Name: "fixed_deposit", Weight: 0.2, FixedRate: 7},
	})
	require.NoError(t, err)
	return m
}

func testEngine(t *testing.T, workersCount int, sims int) *Engine {
	t.Helper()
	return NewEngine(testModel(t), Config{NumSimulations: sims, Seed: 42, ChunkSize: 100},
		workers.NewWorkerPool(workersCount), testLog)
}

func TestNewModel_Estimates(t *testing.T) {
	a, b := randomWalks(120)
	m, err := NewModel([]AssetInput{
		{Name: "a", Weight: 0.6, Prices: a},
		{Name: "b", Weight: 0.4, Prices: b},
	})
	require.NoError(t, err)

	ra := make([]float64, len(a)-1)
	rb := make([]float64, len(b)-1)
	for i := 1; i < len(a); i++ {
		ra[i-1] = math.Log(a[i] / a[i-1])
		rb[i-1] = math.Log(b[i] / b[i-1])
	}

	assert.Equal(t, 119, m.Observations())
	assert.InDelta(t, stat.Mean(ra, nil), m.Mu()[0], 1e-12)
	assert.InDelta(t, stat.Mean(rb, nil), m.Mu()[1], 1e-12)

	cov := m.Covariance()
	assert.InDelta(t, stat.Covariance(ra, ra, nil), cov.At(0, 0), 1e-12)
	assert.InDelta(t, stat.Covariance(ra, rb, nil), cov.At(0, 1), 1e-12)
	assert.InDelta(t, stat.Covariance(rb, rb, nil), cov.At(1, 1), 1e-12)

	// the returned matrix is a copy
	cov.(*mat.SymDense).SetSym(0, 0, 99)
	assert.InDelta(t, stat.Covariance(ra, ra, nil), m.Covariance().At(0, 0), 1e-12)

	// L·Lᵀ reproduces Σ
	for i := 0; i < 2; i++ {
		for j := 0; j <= i; j++ {
			sum := 0.0
			for k := 0; k <= j; k++ {
				sum += m.lower[i][k] * m.lower[j][k]
			}
			assert.InDelta(t, cov.At(i, j), sum, 1e-12)
		}
	}
}

func TestNewModel_IdenticalSeriesIsSingular(t *testing.T) {
	a, _ := randomWalks(120)
	dup := make([]float64, len(a))
	copy(dup, a)

	_, err := NewModel([]AssetInput{
		{Name: "largecap", Weight: 0.5, Prices: a},
		{Name: "largecap_clone", Weight: 0.5, Prices: dup},
	})

	var covErr *domain.NonPositiveDefiniteCovarianceError
	require.True(t, errors.As(err, &covErr))
	assert.Equal(t, []string{"largecap", "largecap_clone"}, covErr.Assets)
}

func TestNewModel_ConstantGrowthHasNoVariance(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 * math.Pow(1.01, float64(i))
	}

	_, err := NewModel([]AssetInput{{Name: "steady", Weight: 1, Prices: prices}})

	var covErr *domain.NonPositiveDefiniteCovarianceError
	assert.True(t, errors.As(err, &covErr))
}

func TestNewModel_TooFewObservations(t *testing.T) {
	_, err := NewModel([]AssetInput{{Name: "short", Weight: 1, Prices: []float64{100, 101}}})

	var covErr *domain.NonPositiveDefiniteCovarianceError
	assert.True(t, errors.As(err, &covErr))
}

func TestNewModel_RequiresHistory(t *testing.T) {
	_, err := NewModel([]AssetInput{{Name: "fd", Weight: 1, FixedRate: 7}})
	assert.ErrorIs(t, err, domain.ErrEmptyComposite)
}

func TestNewModel_MismatchedLengths(t *testing.T) {
	a, b := randomWalks(60)
	_, err := NewModel([]AssetInput{
		{Name: "a", Weight: 0.5, Prices: a},
		{Name: "b", Weight: 0.5, Prices: b[:40]},
	})
	assert.Error(t, err)
}

func TestTerminalValues_ReproducibleAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()

	single, err := testEngine(t, 1, 1000).TerminalValues(ctx, 50_000, 5_000, 60)
	require.NoError(t, err)
	many, err := testEngine(t, 8, 1000).TerminalValues(ctx, 50_000, 5_000, 60)
	require.NoError(t, err)

	require.Len(t, single, 1000)
	assert.Equal(t, single, many)
}

func TestTerminalValues_SeedChangesDraws(t *testing.T) {
	ctx := context.Background()
	m := testModel(t)

	a, err := NewEngine(m, Config{NumSimulations: 200, Seed: 1}, nil, testLog).TerminalValues(ctx, 0, 1000, 24)
	require.NoError(t, err)
	b, err := NewEngine(m, Config{NumSimulations: 200, Seed: 2}, nil, testLog).TerminalValues(ctx, 0, 1000, 24)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTerminalValues_PartialLastChunk(t *testing.T) {
	values, err := NewEngine(testModel(t), Config{NumSimulations: 250, Seed: 3, ChunkSize: 100}, nil, testLog).
		TerminalValues(context.Background(), 0, 1000, 12)
	require.NoError(t, err)
	assert.Len(t, values, 250)
	for _, v := range values {
		assert.Greater(t, v, 0.0)
	}
}

func TestTerminalValues_FixedRateOnlyGrowthIsDeterministic(t *testing.T) {
	a, b := randomWalks(120)
	m, err := NewModel([]AssetInput{
		{Name: "a", Weight: 0.0001, Prices: a},
		{Name: "b", Weight: 0.0001, Prices: b},
		{Name: "fd", Weight: 0.9998, FixedRate: 12},
	})
	require.NoError(t, err)

	values, err := NewEngine(m, Config{NumSimulations: 100, Seed: 9}, nil, testLog).
		TerminalValues(context.Background(), 10_000, 1_000, 12)
	require.NoError(t, err)

	// invest-then-grow every month: annuity due on top of the lumpsum
	want := 0.9998 * (10_000*math.Pow(1.01, 12) + 1_000*(math.Pow(1.01, 12)-1)/0.01*1.01)
	for _, v := range values {
		assert.InDelta(t, want, v, want*0.01)
	}
}

func TestProbability_MonotonicInContribution(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, 4, 1000)

	const goal, months = 1_000_000.0, 60
	var probabilities []float64
	for contribution := 0.0; contribution <= 25_000; contribution += 1_250 {
		p, err := e.Probability(ctx, goal, 20_000, contribution, months)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		probabilities = append(probabilities, p)
	}

	for i := 1; i < len(probabilities); i++ {
		assert.GreaterOrEqual(t, probabilities[i], probabilities[i-1], "step %d", i)
	}
	assert.Equal(t, 0.0, probabilities[0])
	assert.Greater(t, probabilities[len(probabilities)-1], 0.95)
}

func TestSuggestContribution_HitsTarget(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, 4, 2000)

	const goal, lumpsum, months, target = 1_000_000.0, 20_000.0, 60, 0.9

	suggested, err := e.SuggestContribution(ctx, goal, lumpsum, months, target)
	require.NoError(t, err)
	assert.Greater(t, suggested, 0.0)
	assert.Less(t, suggested, goal)

	p, err := e.Probability(ctx, goal, lumpsum, suggested, months)
	require.NoError(t, err)
	assert.InDelta(t, target, p, 0.02)

	below, err := e.Probability(ctx, goal, lumpsum, suggested*0.95, months)
	require.NoError(t, err)
	assert.Less(t, below, target)
}

func TestSuggestContribution_Reproducible(t *testing.T) {
	ctx := context.Background()

	a, err := testEngine(t, 2, 500).SuggestContribution(ctx, 500_000, 0, 36, 0.9)
	require.NoError(t, err)
	b, err := testEngine(t, 6, 500).SuggestContribution(ctx, 500_000, 0, 36, 0.9)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestProbability_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testEngine(t, 2, 500).Probability(ctx, 1e6, 0, 1000, 12)
	assert.ErrorIs(t, err, context.Canceled)
}
