package history

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_NormalizesToBase(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.ImportPrices(ctx, "sp_500", "USD", "", points(map[string]float64{"2020-01-01": 10, "2020-02-01": 20}))
	require.NoError(t, err)
	_, err = repo.ImportRates(ctx, "USD", "", points(map[string]float64{"2020-01-01": 70, "2020-02-01": 80}))
	require.NoError(t, err)
	_, err = repo.ImportPrices(ctx, "gold", "INR", "", points(map[string]float64{"2020-01-01": 5}))
	require.NoError(t, err)

	loader := NewLoader(repo, currency.NewNormalizer("INR", repo, testLog), testLog)

	sp, err := loader.LoadSeries(ctx, "sp_500")
	require.NoError(t, err)
	assert.Equal(t, []float64{700, 1600}, sp.Prices())

	gold, err := loader.LoadSeries(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, gold.Prices())

	var _ domain.SeriesLoader = loader
}

func TestLoader_Errors(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	_, err := repo.ImportPrices(ctx, "sp_500", "USD", "", points(map[string]float64{"2020-01-01": 10, "2020-02-01": 20}))
	require.NoError(t, err)
	_, err = repo.ImportRates(ctx, "USD", "", points(map[string]float64{"2020-01-01": 70}))
	require.NoError(t, err)

	loader := NewLoader(repo, currency.NewNormalizer("INR", repo, testLog), testLog)

	_, err = loader.LoadSeries(ctx, "sp_500")
	var misaligned *domain.MisalignedDatesError
	assert.True(t, errors.As(err, &misaligned))

	_, err = loader.LoadSeries(ctx, "midcap")
	var unavailable *domain.DataUnavailableError
	assert.True(t, errors.As(err, &unavailable))
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	_, err := repo.ImportPrices(ctx, "gold", "INR", "", points(map[string]float64{"2020-01-01": 5, "2020-02-01": 6}))
	require.NoError(t, err)

	loader := NewLoader(repo, currency.NewNormalizer("INR", repo, testLog), testLog)

	var wg sync.WaitGroup
	results := make([]domain.Series, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = loader.LoadSeries(ctx, "gold")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, []float64{5, 6}, results[i].Prices())
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	loader := NewLoader(newTestRepository(t), currency.NewNormalizer("INR", nil, testLog), testLog)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.LoadSeries(ctx, "gold")
	assert.Error(t, err)
}
