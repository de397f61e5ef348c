// Package allocation maps investor risk profiles to asset weights.
package allocation

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/aristath/goalsip/internal/domain"
	"gopkg.in/yaml.v3"
)

// Custom is the profile whose allocation the caller supplies
const Custom = "custom"

const weightTolerance = 1e-8

// Allocation maps asset names to weights
type Allocation map[string]float64

// Table is the risk-profile configuration: preset allocations plus the fixed annual return
// (percent) of assets that have no price history.
type Table struct {
	Profiles   map[string]Allocation `yaml:"profiles" json:"profiles"`
	FixedRates map[string]float64    `yaml:"fixed_rates" json:"fixed_rates"`
}

// DefaultTable returns the built-in profiles
func DefaultTable() *Table {
	return &Table{
		Profiles: map[string]Allocation{
			"conservative": {"largecap": 0.2, "fixed_deposit": 0.6, "gold": 0.2},
			"balanced":     {"largecap": 0.30, "sp_500": 0.20, "gold": 0.3, "fixed_deposit": 0.2},
			"aggressive":   {"largecap": 0.4, "sp_500": 0.3, "gold": 0.30},
		},
		FixedRates: map[string]float64{
			"fixed_deposit": 7,
		},
	}
}

// LoadTable reads a YAML table from path. An empty path returns the built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML table
func ParseTable(data []byte) (*Table, error) {
	t := &Table{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if t.FixedRates == nil {
		t.FixedRates = map[string]float64{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks every preset allocation and fixed rate
func (t *Table) Validate() error {
	if len(t.Profiles) == 0 {
		return fmt.Errorf("no risk profiles defined")
	}
	if _, ok := t.Profiles[Custom]; ok {
		return fmt.Errorf("profile %q is reserved for caller allocations", Custom)
	}
	for name, alloc := range t.Profiles {
		if err := alloc.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}
	for asset, rate := range t.FixedRates {
		if rate <= 0 {
			return fmt.Errorf("fixed rate for %s: %w", asset, domain.ErrNonPositiveRate)
		}
	}
	return nil
}

// Names lists the preset profiles followed by Custom
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Profiles)+1)
	for name := range t.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(names, Custom)
}

// Resolve returns the allocation for a profile with zero weights dropped. The custom
// profile takes the caller's allocation.
func (t *Table) Resolve(profile string, custom Allocation) (Allocation, error) {
	var source Allocation
	switch {
	case profile == Custom:
		if len(custom) == 0 {
			return nil, domain.ErrMissingAllocation
		}
		if err := custom.Validate(); err != nil {
			return nil, err
		}
		source = custom
	default:
		preset, ok := t.Profiles[profile]
		if !ok {
			return nil, &domain.UnknownRiskProfileError{Profile: profile, Valid: t.Names()}
		}
		source = preset
	}

	out := make(Allocation, len(source))
	for asset, w := range source {
		if w != 0 {
			out[asset] = w
		}
	}
	return out, nil
}

// FixedRate returns the configured annual percent for an asset without history
func (t *Table) FixedRate(asset string) (float64, bool) {
	rate, ok := t.FixedRates[asset]
	return rate, ok
}

// Validate checks that weights are in [0, 1] and sum to 1
func (a Allocation) Validate() error {
	total := 0.0
	for asset, w := range a {
		if w < 0 || w > 1 || math.IsNaN(w) {
			return fmt.Errorf("%w: %v for %s outside [0, 1]", domain.ErrInvalidWeight, w, asset)
		}
		total += w
	}
	if math.Abs(total-1) > weightTolerance {
		return &domain.WeightSumError{Sum: total}
	}
	return nil
}

// Assets returns the asset names in a stable order
func (a Allocation) Assets() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
