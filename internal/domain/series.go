package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PricePoint is a single dated price observation
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Series is an immutable price history: ascending by date, one point per calendar day,
// every price positive and finite. Construct it with NewSeries.
type Series struct {
	points []PricePoint
}

// NewSeries copies, sorts and de-duplicates the points. Dates are truncated to the
// calendar day in UTC; for duplicate days the last point in input order wins.
func NewSeries(points []PricePoint) (Series, error) {
	byDay := make(map[time.Time]int, len(points))
	cleaned := make([]PricePoint, 0, len(points))

	for _, p := range points {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return Series{}, fmt.Errorf("invalid price %v on %s", p.Price, p.Date.Format(DateLayout))
		}
		day := TruncateDay(p.Date)
		if idx, ok := byDay[day]; ok {
			cleaned[idx].Price = p.Price
			continue
		}
		byDay[day] = len(cleaned)
		cleaned = append(cleaned, PricePoint{Date: day, Price: p.Price})
	}

	sort.Slice(cleaned, func(i, j int) bool {
		return cleaned[i].Date.Before(cleaned[j].Date)
	})
	return Series{points: cleaned}, nil
}

// DateLayout is the storage and wire format for series dates
const DateLayout = "2006-01-02"

// TruncateDay drops the time of day, normalizing to UTC midnight
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Len returns the number of observations
func (s Series) Len() int { return len(s.points) }

// IsEmpty reports whether the series has no observations
func (s Series) IsEmpty() bool { return len(s.points) == 0 }

// At returns the i-th observation
func (s Series) At(i int) PricePoint { return s.points[i] }

// Points returns a copy of the observations
func (s Series) Points() []PricePoint {
	out := make([]PricePoint, len(s.points))
	copy(out, s.points)
	return out
}

// Dates returns the observation dates in ascending order
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Date
	}
	return out
}

// Prices returns the observation prices in date order
func (s Series) Prices() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Price
	}
	return out
}

// Slice returns the observations in [from, to) as a new series
func (s Series) Slice(from, to int) Series {
	return Series{points: s.points[from:to:to]}
}
