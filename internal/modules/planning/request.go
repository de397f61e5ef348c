package planning

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/aristath/goalsip/pkg/formulas"
)

// Request is one goal-analysis request
type Request struct {
	GoalAmount    float64               `json:"goal_amount" msgpack:"goal_amount"`
	TimeHorizon   int                   `json:"time_horizon" msgpack:"time_horizon"` // years
	LumpsumAmount float64               `json:"lumpsum_amount" msgpack:"lumpsum_amount"`
	RiskProfile   string                `json:"risk_profile" msgpack:"risk_profile"`
	Allocation    allocation.Allocation `json:"allocation,omitempty" msgpack:"allocation,omitempty"` // custom profile only
	StartDate     string                `json:"start_date,omitempty" msgpack:"start_date,omitempty"` // YYYY-MM-DD, defaults to today

	IncludeTrajectory bool `json:"include_trajectory,omitempty" msgpack:"include_trajectory,omitempty"`
	IncludeSamples    bool `json:"include_samples,omitempty" msgpack:"include_samples,omitempty"`
}

// Validate checks the request in a fixed order (goal, horizon, lumpsum, profile)
// and resolves its allocation.
func (r Request) Validate(table *allocation.Table) (allocation.Allocation, error) {
	if !formulas.IsFinite(r.GoalAmount) || r.GoalAmount <= 0 {
		return nil, domain.ErrInvalidGoalAmount
	}
	if r.TimeHorizon <= 0 {
		return nil, domain.ErrInvalidTimeHorizon
	}
	if !formulas.IsFinite(r.LumpsumAmount) || r.LumpsumAmount < 0 || r.LumpsumAmount > r.GoalAmount {
		return nil, domain.ErrInvalidLumpsum
	}
	return table.Resolve(strings.ToLower(strings.TrimSpace(r.RiskProfile)), r.Allocation)
}

// Start returns the plan start date, falling back to today
func (r Request) Start(now time.Time) (time.Time, error) {
	if r.StartDate == "" {
		return domain.TruncateDay(now), nil
	}
	start, err := time.Parse(domain.DateLayout, r.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: got %q", domain.ErrInvalidStartDate, r.StartDate)
	}
	return start, nil
}
