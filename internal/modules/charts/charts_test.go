package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/aristath/goalsip/internal/modules/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG")

func TestTrajectory(t *testing.T) {
	points := make([]portfolio.TrajectoryPoint, 25)
	for i := range points {
		points[i] = portfolio.TrajectoryPoint{Month: i, Invested: float64(i) * 100, Value: float64(i) * 110}
	}

	img, err := Trajectory(points, "Goal 10000 over 2 years")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestRollingReturns(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []float64{11.2, 9.8, 12.4, 10.1}
	ends := make([]time.Time, len(samples))
	for i := range ends {
		ends[i] = start.AddDate(0, i, 0)
	}

	img, err := RollingReturns(samples, ends, "Portfolio rolling returns")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))

	img, err = RollingReturns(samples[:1], ends[:1], "single window")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestCharts_Errors(t *testing.T) {
	_, err := Trajectory(nil, "")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RollingReturns(nil, nil, "")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RollingReturns([]float64{1, 2}, []time.Time{time.Now()}, "")
	assert.Error(t, err)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Y0", monthLabel(0))
	assert.Equal(t, "M5", monthLabel(5))
	assert.Equal(t, "Y2", monthLabel(24))
}
