package portfolio

import (
	"github.com/aristath/goalsip/pkg/formulas"
)

// TrajectoryPoint is the deterministic state of the plan at the end of a month
type TrajectoryPoint struct {
	Month    int     `json:"month" msgpack:"month"`
	Invested float64 `json:"invested" msgpack:"invested"`
	Value    float64 `json:"value" msgpack:"value"`
	Gain     float64 `json:"gain" msgpack:"gain"`
}

// SimulateDeterministicTrajectory projects months 0..N at the blended rate. Capital is the
// lumpsum at month 0 plus one contribution per month from month 1 (without a lumpsum,
// m contributions by month m); value follows the annuity-due future value.
func (p *Portfolio) SimulateDeterministicTrajectory() []TrajectoryPoint {
	lumpsum := p.plan.LumpsumAmount
	contribution := p.totalContribution
	r := p.monthlyRate
	months := p.plan.TotalMonths()

	points := make([]TrajectoryPoint, 0, months+1)
	for m := 0; m <= months; m++ {
		var invested float64
		if lumpsum > 0 {
			invested = lumpsum + contribution*float64(max(0, m-1))
		} else {
			invested = contribution * float64(m)
		}

		value := formulas.CompoundGrowth(lumpsum, r, m)
		if m > 0 {
			value += contribution * formulas.AnnuityFactor(r, m, formulas.Due)
		}

		points = append(points, TrajectoryPoint{
			Month:    m,
			Invested: invested,
			Value:    value,
			Gain:     max(0, value-invested),
		})
	}

	p.trajectory = points
	return points
}

// Trajectory returns the last simulated trajectory
func (p *Portfolio) Trajectory() []TrajectoryPoint { return p.trajectory }

// Growth is the final gain as a percentage of the final invested capital, 2 decimals
func (p *Portfolio) Growth() float64 {
	if len(p.trajectory) == 0 {
		return 0
	}
	last := p.trajectory[len(p.trajectory)-1]
	if last.Invested == 0 {
		return 0
	}
	return formulas.Round2(last.Gain / last.Invested * 100)
}
