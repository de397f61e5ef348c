// Package montecarlo simulates correlated monthly asset returns to estimate the
// probability that a contribution plan reaches its goal.
package montecarlo

import (
	"fmt"
	"math"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/pkg/formulas"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// maxCovarianceCondition rejects covariance matrices that factor only by rounding luck
	maxCovarianceCondition = 1e12
	// minReturnVariance treats a return column this flat as constant
	minReturnVariance = 1e-12
)

// AssetInput describes one asset to the model
type AssetInput struct {
	Name      string
	Weight    float64
	Prices    []float64 // aligned monthly history, ignored for fixed-rate assets
	FixedRate float64   // annual percent; non-zero makes the asset deterministic
}

// Model is the multivariate normal model of monthly log returns of the history-backed
// assets, plus the constant monthly growth of the fixed-rate ones.
type Model struct {
	names   []string
	weights []float64

	stochastic    []int       // asset indices driven by the correlated draws
	deterministic []int       // asset indices growing at a fixed rate
	growth        []float64   // per asset monthly growth factor, deterministic assets only
	mu            []float64   // per stochastic asset
	lower         [][]float64 // Cholesky factor L, Σ = L·Lᵀ
	cov           *mat.SymDense

	observations int
}

// NewModel estimates μ and Σ from the monthly log returns of the history-backed assets
// and factors Σ. Fails with *domain.NonPositiveDefiniteCovarianceError when Σ is singular
// or too ill-conditioned, e.g. two assets with identical histories.
func NewModel(assets []AssetInput) (*Model, error) {
	m := &Model{
		names:   make([]string, len(assets)),
		weights: make([]float64, len(assets)),
		growth:  make([]float64, len(assets)),
	}

	var columns [][]float64
	for i, a := range assets {
		m.names[i] = a.Name
		m.weights[i] = a.Weight
		if a.FixedRate != 0 {
			m.deterministic = append(m.deterministic, i)
			m.growth[i] = 1 + a.FixedRate/1200
			continue
		}
		m.stochastic = append(m.stochastic, i)
		columns = append(columns, formulas.LogReturns(a.Prices))
	}
	if len(m.stochastic) == 0 {
		return nil, domain.ErrEmptyComposite
	}

	rows := len(columns[0])
	for i, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("asset %q has %d returns, expected %d", m.names[m.stochastic[i]], len(col), rows)
		}
	}
	m.observations = rows

	k := len(columns)
	if rows < 2 {
		return nil, m.covarianceError()
	}

	returns := mat.NewDense(rows, k, nil)
	m.mu = make([]float64, k)
	for j, col := range columns {
		returns.SetCol(j, col)
		m.mu[j] = stat.Mean(col, nil)
	}

	m.cov = mat.NewSymDense(k, nil)
	stat.CovarianceMatrix(m.cov, returns, nil)
	for j := 0; j < k; j++ {
		if m.cov.At(j, j) < minReturnVariance {
			return nil, m.covarianceError()
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(m.cov); !ok || chol.Cond() > maxCovarianceCondition || math.IsNaN(chol.Cond()) {
		return nil, m.covarianceError()
	}

	var l mat.TriDense
	chol.LTo(&l)
	m.lower = make([][]float64, k)
	for i := 0; i < k; i++ {
		m.lower[i] = make([]float64, i+1)
		for j := 0; j <= i; j++ {
			m.lower[i][j] = l.At(i, j)
		}
	}

	return m, nil
}

func (m *Model) covarianceError() error {
	names := make([]string, len(m.stochastic))
	for i, idx := range m.stochastic {
		names[i] = m.names[idx]
	}
	return &domain.NonPositiveDefiniteCovarianceError{Assets: names, Observations: m.observations}
}

// Mu returns the mean monthly log return of each history-backed asset
func (m *Model) Mu() []float64 {
	out := make([]float64, len(m.mu))
	copy(out, m.mu)
	return out
}

// Covariance returns the sample covariance (N-1 denominator) of the monthly log returns
func (m *Model) Covariance() mat.Symmetric {
	c := mat.NewSymDense(m.cov.SymmetricDim(), nil)
	c.CopySym(m.cov)
	return c
}

// Observations is the number of monthly returns behind the estimates
func (m *Model) Observations() int { return m.observations }

// Names returns the asset names in input order
func (m *Model) Names() []string { return m.names }
