package montecarlo

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/aristath/goalsip/internal/workers"
	"github.com/aristath/goalsip/pkg/formulas"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultNumSimulations is the number of paths per probability estimate
	DefaultNumSimulations = 5000
	// DefaultChunkSize is the number of paths generated from one sub-generator
	DefaultChunkSize = 250
	// SearchIterations is the number of bisection steps over [0, goal]
	SearchIterations = 20
)

// Config controls path generation. Paths are split into fixed-size chunks, each drawing from
// its own generator seeded with (Seed, chunk index), so results depend on Seed alone and
// never on how many workers run the chunks.
type Config struct {
	NumSimulations int
	Seed           uint64
	ChunkSize      int
}

// Engine runs the goal simulations for one model
type Engine struct {
	model *Model
	cfg   Config
	pool  *workers.WorkerPool
	log   zerolog.Logger
}

// NewEngine creates an engine. Zero config values take the package defaults.
func NewEngine(model *Model, cfg Config, pool *workers.WorkerPool, log zerolog.Logger) *Engine {
	if cfg.NumSimulations <= 0 {
		cfg.NumSimulations = DefaultNumSimulations
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if pool == nil {
		pool = workers.NewWorkerPool(0)
	}
	return &Engine{
		model: model,
		cfg:   cfg,
		pool:  pool,
		log:   log.With().Str("component", "montecarlo").Logger(),
	}
}

// TerminalValues simulates NumSimulations paths and returns each path's final portfolio value.
// Every month the allocation of the contribution (plus the lumpsum in month 0) is added to each
// asset first, then every asset grows by one correlated draw.
func (e *Engine) TerminalValues(ctx context.Context, lumpsum, contribution float64, months int) ([]float64, error) {
	chunks := (e.cfg.NumSimulations + e.cfg.ChunkSize - 1) / e.cfg.ChunkSize

	results, err := workers.Map(ctx, e.pool, chunks, func(ctx context.Context, chunk int) ([]float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		count := min(e.cfg.ChunkSize, e.cfg.NumSimulations-chunk*e.cfg.ChunkSize)
		return e.simulateChunk(chunk, count, lumpsum, contribution, months), nil
	})
	if err != nil {
		return nil, err
	}

	terminal := make([]float64, 0, e.cfg.NumSimulations)
	for _, r := range results {
		terminal = append(terminal, r...)
	}
	return terminal, nil
}

func (e *Engine) simulateChunk(chunk, count int, lumpsum, contribution float64, months int) []float64 {
	m := e.model
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(e.cfg.Seed, uint64(chunk))}

	lumpAlloc := make([]float64, len(m.weights))
	sipAlloc := make([]float64, len(m.weights))
	for i, w := range m.weights {
		lumpAlloc[i] = lumpsum * w
		sipAlloc[i] = contribution * w
	}

	values := make([]float64, len(m.weights))
	z := make([]float64, len(m.stochastic))
	out := make([]float64, count)

	for s := 0; s < count; s++ {
		clear(values)
		for month := 0; month < months; month++ {
			for i := range values {
				values[i] += sipAlloc[i]
				if month == 0 {
					values[i] += lumpAlloc[i]
				}
			}

			for j := range z {
				z[j] = normal.Rand()
			}
			// correlated = z·Lᵀ + μ
			for j, idx := range m.stochastic {
				r := m.mu[j]
				for l, coeff := range m.lower[j] {
					r += coeff * z[l]
				}
				values[idx] *= math.Exp(r)
			}
			for _, idx := range m.deterministic {
				values[idx] *= m.growth[idx]
			}
		}

		total := 0.0
		for _, v := range values {
			total += v
		}
		out[s] = total
	}
	return out
}

// Probability is the fraction of simulated terminal values at or above the goal
func (e *Engine) Probability(ctx context.Context, goal, lumpsum, contribution float64, months int) (float64, error) {
	terminal, err := e.TerminalValues(ctx, lumpsum, contribution, months)
	if err != nil {
		return 0, err
	}

	hits := 0
	for _, v := range terminal {
		if v >= goal {
			hits++
		}
	}
	return float64(hits) / float64(len(terminal)), nil
}

// SuggestContribution bisects [0, goal] for SearchIterations steps, re-simulating at every
// midpoint, and returns the smallest bracketed contribution (2 decimals) whose probability
// meets the target. Relies on probability rising with the contribution, which holds
// because every midpoint replays the same seeded draws.
func (e *Engine) SuggestContribution(ctx context.Context, goal, lumpsum float64, months int, target float64) (float64, error) {
	start := time.Now()
	low, high := 0.0, goal

	for i := 0; i < SearchIterations; i++ {
		mid := (low + high) / 2
		p, err := e.Probability(ctx, goal, lumpsum, mid, months)
		if err != nil {
			return 0, err
		}
		if p < target {
			low = mid
		} else {
			high = mid
		}
	}

	suggested := formulas.Round2(high)
	e.log.Debug().
		Float64("target", target).
		Float64("suggested", suggested).
		Dur("elapsed", time.Since(start)).
		Msg("Contribution search finished")
	return suggested, nil
}
