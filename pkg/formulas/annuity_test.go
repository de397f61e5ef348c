package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyRate(t *testing.T) {
	assert.InDelta(t, 0.01, MonthlyRate(12), 1e-12)
	assert.Equal(t, 0.0, MonthlyRate(0))
}

func TestAnnuityFactor(t *testing.T) {
	tests := []struct {
		name   string
		r      float64
		n      int
		timing Timing
		want   float64
	}{
		{"ordinary 1% 12 months", 0.01, 12, Ordinary, (math.Pow(1.01, 12) - 1) / 0.01},
		{"due 1% 12 months", 0.01, 12, Due, (math.Pow(1.01, 12) - 1) / 0.01 * 1.01},
		{"zero rate is linear", 0, 24, Ordinary, 24},
		{"zero rate due is linear", 0, 24, Due, 24},
		{"no periods", 0.01, 0, Ordinary, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AnnuityFactor(tt.r, tt.n, tt.timing), 1e-9)
		})
	}
}

func TestRequiredPayment_InvertsFutureValue(t *testing.T) {
	for _, timing := range []Timing{Ordinary, Due} {
		for _, r := range []float64{0, 0.004, 0.01} {
			fv := FutureValue(25000, 1234.56, r, 60, timing)
			assert.InDelta(t, 1234.56, RequiredPayment(fv, 25000, r, 60, timing), 1e-6)
		}
	}
}

func TestRequiredPayment_NegativeWhenLumpsumOvershoots(t *testing.T) {
	assert.Less(t, RequiredPayment(100000, 90000, 0.01, 36, Ordinary), 0.0)
}

func TestRequiredPayment_NoPeriods(t *testing.T) {
	assert.Equal(t, 0.0, RequiredPayment(100000, 0, 0.01, 0, Ordinary))
}
