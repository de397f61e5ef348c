package planning

import (
	"encoding/json"
	"fmt"

	"github.com/aristath/goalsip/internal/modules/portfolio"
	"github.com/vmihailenco/msgpack/v5"
)

// Sentinel texts for terminal outcomes
const (
	SIPNotRequired  = "SIP not required. Lumpsum enough to reach Goal."
	NoAdditionalSIP = "No additional SIP required."
)

// AmountOrNote is a monetary amount, or a descriptive note standing in for one.
// It encodes as a bare number or a bare string.
type AmountOrNote struct {
	Amount float64
	Note   string
}

// Amount wraps a number
func Amount(v float64) AmountOrNote { return AmountOrNote{Amount: v} }

// Note wraps a sentinel text
func Note(text string) AmountOrNote { return AmountOrNote{Note: text} }

// IsNote reports whether the value carries a note instead of an amount
func (a AmountOrNote) IsNote() bool { return a.Note != "" }

func (a AmountOrNote) String() string {
	if a.IsNote() {
		return a.Note
	}
	return fmt.Sprintf("%.2f", a.Amount)
}

func (a AmountOrNote) MarshalJSON() ([]byte, error) {
	if a.IsNote() {
		return json.Marshal(a.Note)
	}
	return json.Marshal(a.Amount)
}

func (a *AmountOrNote) UnmarshalJSON(data []byte) error {
	var note string
	if err := json.Unmarshal(data, &note); err == nil {
		*a = Note(note)
		return nil
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return fmt.Errorf("expected number or string, got %s", data)
	}
	*a = Amount(amount)
	return nil
}

var (
	_ msgpack.CustomEncoder = AmountOrNote{}
	_ msgpack.CustomDecoder = (*AmountOrNote)(nil)
)

func (a AmountOrNote) EncodeMsgpack(enc *msgpack.Encoder) error {
	if a.IsNote() {
		return enc.EncodeString(a.Note)
	}
	return enc.EncodeFloat64(a.Amount)
}

func (a *AmountOrNote) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*a = Note(t)
	case float64:
		*a = Amount(t)
	case int64:
		*a = Amount(float64(t))
	case uint64:
		*a = Amount(float64(t))
	default:
		return fmt.Errorf("expected number or string, got %T", v)
	}
	return nil
}

// AssetSummary reports one asset of the plan
type AssetSummary struct {
	Name           string   `json:"name" msgpack:"name"`
	Weight         float64  `json:"weight" msgpack:"weight"`
	ExpectedReturn float64  `json:"expected_return" msgpack:"expected_return"`
	SIPAmount      float64  `json:"sip_amount" msgpack:"sip_amount"`
	ForecastReturn *float64 `json:"forecast_return" msgpack:"forecast_return"` // nil when the asset's lumpsum share already meets its goal share
	FixedRate      bool     `json:"fixed_rate" msgpack:"fixed_rate"`
}

// RollingSample is one rolling window's annualized return
type RollingSample struct {
	WindowEnd string  `json:"window_end" msgpack:"window_end"`
	Return    float64 `json:"return" msgpack:"return"`
}

// Summary is the outcome of a goal analysis
type Summary struct {
	RequestID                  string                      `json:"request_id" msgpack:"request_id"`
	GoalAmount                 float64                     `json:"goal_amount" msgpack:"goal_amount"`
	TimeHorizon                int                         `json:"time_horizon" msgpack:"time_horizon"`
	LumpsumAmount              float64                     `json:"lumpsum_amount" msgpack:"lumpsum_amount"`
	RiskProfile                string                      `json:"risk_profile" msgpack:"risk_profile"`
	TotalMonthlySIP            AmountOrNote                `json:"total_monthly_sip" msgpack:"total_monthly_sip"`
	PortfolioGrowth            float64                     `json:"portfolio_growth" msgpack:"portfolio_growth"`
	ForecastReturn             *float64                    `json:"forecast_return" msgpack:"forecast_return"`
	AssetSummaries             []AssetSummary              `json:"asset_summaries" msgpack:"asset_summaries"`
	RollingXIRR                float64                     `json:"rolling_xirr" msgpack:"rolling_xirr"`
	GoalAchievementProbability float64                     `json:"goal_achievement_probability" msgpack:"goal_achievement_probability"`
	SuggestedSIP               AmountOrNote                `json:"suggested_sip" msgpack:"suggested_sip"`
	Trajectory                 []portfolio.TrajectoryPoint `json:"trajectory,omitempty" msgpack:"trajectory,omitempty"`
	RollingSamples             []RollingSample             `json:"rolling_samples,omitempty" msgpack:"rolling_samples,omitempty"`
}

// GoalAlreadyMet reports the terminal outcome where the lumpsum alone reaches the goal
func (s *Summary) GoalAlreadyMet() bool {
	return s.TotalMonthlySIP.Note == SIPNotRequired
}
