// Package workers runs indexed jobs on a bounded set of goroutines.
package workers

import (
	"context"
	"errors"
	"sync"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 10 // Default to 10 workers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the configured number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// jobItem represents a single job
type jobItem struct {
	index int
}

// resultItem represents the result of a job
type resultItem[T any] struct {
	index int
	value T
	err   error
}

// Map runs fn for every index in [0, n) and returns the results in index order.
// Once a job fails or ctx is cancelled the remaining jobs are skipped and the
// lowest-index job failure is returned.
func Map[T any](ctx context.Context, wp *WorkerPool, n int, fn func(ctx context.Context, index int) (T, error)) ([]T, error) {
	if n == 0 {
		return []T{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan jobItem, n)
	results := make(chan resultItem[T], n)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if n < numActualWorkers {
		numActualWorkers = n // Don't spawn more workers than jobs
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, cancel, jobs, results, fn)
		}()
	}

	for idx := 0; idx < n; idx++ {
		jobs <- jobItem{index: idx}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	values := make([]T, n)
	errs := make([]error, n)
	for result := range results {
		values[result.index] = result.value
		errs[result.index] = result.err
	}

	// skipped jobs report cancellation; the job that failed is the interesting error
	var cancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if cancelled == nil {
				cancelled = err
			}
			continue
		}
		return nil, err
	}
	if cancelled != nil {
		return nil, cancelled
	}
	return values, nil
}

func worker[T any](
	ctx context.Context,
	cancel context.CancelFunc,
	jobs <-chan jobItem,
	results chan<- resultItem[T],
	fn func(ctx context.Context, index int) (T, error),
) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- resultItem[T]{index: job.index, err: err}
			continue
		}

		value, err := fn(ctx, job.index)
		if err != nil {
			cancel()
		}
		results <- resultItem[T]{index: job.index, value: value, err: err}
	}
}
