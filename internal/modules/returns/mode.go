package returns

import (
	"fmt"
	"strings"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/pkg/formulas"
)

// Mode selects the statistic used to collapse rolling-window returns into one estimate
type Mode int

const (
	// Median of the window returns
	Median Mode = iota
	// Mean of the window returns
	Mean
	// Pessimistic is the 25th percentile
	Pessimistic
	// Optimistic is the 75th percentile
	Optimistic
)

var modeNames = map[Mode]string{
	Median:      "median",
	Mean:        "mean",
	Pessimistic: "pessimistic",
	Optimistic:  "optimistic",
}

// ParseMode maps a mode name to its Mode
func ParseMode(name string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for mode, n := range modeNames {
		if n == normalized {
			return mode, nil
		}
	}
	return 0, &domain.InvalidModeError{Mode: name}
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the defined modes
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &domain.InvalidModeError{Mode: m.String()}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Aggregate applies the statistic to the samples
func (m Mode) Aggregate(samples []float64) (float64, error) {
	switch m {
	case Median:
		return formulas.Median(samples), nil
	case Mean:
		return formulas.Mean(samples), nil
	case Pessimistic:
		return formulas.Percentile(samples, 0.25), nil
	case Optimistic:
		return formulas.Percentile(samples, 0.75), nil
	default:
		return 0, &domain.InvalidModeError{Mode: m.String()}
	}
}
