package testing

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/aristath/goalsip/internal/domain"
)

// MonthlyDates returns n month-start dates beginning at start
func MonthlyDates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, i, 0)
	}
	return dates
}

// GeometricSeries builds a monthly series that compounds at annualRate (percent) from 100
func GeometricSeries(t *testing.T, start time.Time, months int, annualRate float64) domain.Series {
	t.Helper()
	growth := math.Pow(1+annualRate/100, 1.0/12)
	points := make([]domain.PricePoint, months)
	for i, d := range MonthlyDates(start, months) {
		points[i] = domain.PricePoint{Date: d, Price: 100 * math.Pow(growth, float64(i))}
	}
	return MustSeries(t, points)
}

// WavySeries is GeometricSeries with a deterministic sinusoidal wobble, so returns have variance
func WavySeries(t *testing.T, start time.Time, months int, annualRate, amplitude, phase float64) domain.Series {
	t.Helper()
	growth := math.Pow(1+annualRate/100, 1.0/12)
	points := make([]domain.PricePoint, months)
	for i, d := range MonthlyDates(start, months) {
		wobble := 1 + amplitude*math.Sin(float64(i)/2+phase)
		points[i] = domain.PricePoint{Date: d, Price: 100 * math.Pow(growth, float64(i)) * wobble}
	}
	return MustSeries(t, points)
}

// MustSeries wraps domain.NewSeries and fails the test on error
func MustSeries(t *testing.T, points []domain.PricePoint) domain.Series {
	t.Helper()
	s, err := domain.NewSeries(points)
	if err != nil {
		t.Fatalf("invalid fixture series: %v", err)
	}
	return s
}

// StaticLoader serves series from a map and reports unknown names as unavailable
type StaticLoader map[string]domain.Series

// LoadSeries implements domain.SeriesLoader
func (l StaticLoader) LoadSeries(_ context.Context, assetID string) (domain.Series, error) {
	s, ok := l[assetID]
	if !ok {
		return domain.Series{}, &domain.DataUnavailableError{AssetID: assetID}
	}
	return s, nil
}

// Date parses a YYYY-MM-DD literal for tests
func Date(value string) time.Time {
	d, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		panic(fmt.Sprintf("bad test date %q: %v", value, err))
	}
	return d
}
