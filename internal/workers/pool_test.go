package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPool_Defaults(t *testing.T) {
	assert.Equal(t, 10, NewWorkerPool(0).Size())
	assert.Equal(t, 10, NewWorkerPool(-3).Size())
	assert.Equal(t, 4, NewWorkerPool(4).Size())
}

func TestMap_PreservesOrder(t *testing.T) {
	wp := NewWorkerPool(4)

	got, err := Map(context.Background(), wp, 100, func(_ context.Context, i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i*i, v)
	}
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), NewWorkerPool(2), 0, func(_ context.Context, i int) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMap_MoreWorkersThanJobs(t *testing.T) {
	var calls atomic.Int32
	got, err := Map(context.Background(), NewWorkerPool(50), 3, func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		return i, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMap_ReturnsJobError(t *testing.T) {
	boom := errors.New("boom")

	_, err := Map(context.Background(), NewWorkerPool(3), 20, func(_ context.Context, i int) (int, error) {
		if i == 7 {
			return 0, boom
		}
		return i, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := Map(ctx, NewWorkerPool(2), 10, func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		return i, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}
