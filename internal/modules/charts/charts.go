// Package charts renders plan projections as PNG line charts.
package charts

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/goalsip/internal/modules/portfolio"
	"github.com/vicanso/go-charts/v2"
)

// ErrNoData is returned when there is nothing to plot
var ErrNoData = errors.New("no data to chart")

const (
	width  = 1000
	height = 560
)

// Trajectory plots invested capital against projected value, one point per month
func Trajectory(points []portfolio.TrajectoryPoint, title string) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	labels := make([]string, len(points))
	invested := make([]float64, len(points))
	value := make([]float64, len(points))
	for i, p := range points {
		labels[i] = monthLabel(p.Month)
		invested[i] = p.Invested
		value[i] = p.Value
	}

	p, err := charts.LineRender(
		[][]float64{invested, value},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNumber(len(labels)),
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: []string{"Invested", "Projected value"},
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render trajectory chart: %w", err)
	}
	return p.Bytes()
}

// RollingReturns plots each rolling window's annualized return against its end date
func RollingReturns(samples []float64, windowEnds []time.Time, title string) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}
	if len(windowEnds) != len(samples) {
		return nil, fmt.Errorf("got %d window dates for %d samples", len(windowEnds), len(samples))
	}

	labels := make([]string, len(windowEnds))
	for i, d := range windowEnds {
		labels[i] = d.Format("Jan '06")
	}

	// A single sample draws no line; repeat it so the chart still renders
	values := samples
	if len(values) == 1 {
		values = []float64{samples[0], samples[0]}
		labels = append(labels, labels[0])
	}

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title, "annualized return per window, %"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNumber(len(labels)),
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render rolling return chart: %w", err)
	}
	return p.Bytes()
}

func monthLabel(month int) string {
	if month%12 == 0 {
		return fmt.Sprintf("Y%d", month/12)
	}
	return fmt.Sprintf("M%d", month)
}

func splitNumber(n int) int {
	if n <= 30 {
		return max(3, n/3)
	}
	return 6
}
