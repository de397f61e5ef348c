package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/rs/zerolog"
)

// CompositeColumn is one asset's price column on the shared calendar
type CompositeColumn struct {
	Name      string
	Weight    float64
	Prices    []float64
	FixedRate float64 // annual percent; non-zero marks a synthetic, deterministic column
}

// Composite holds every asset's prices aligned on one calendar
type Composite struct {
	Dates   []time.Time
	Columns []CompositeColumn
}

// buildComposite outer-joins the asset histories on date, forward-fills then back-fills gaps,
// and adds a synthetic compounding column for each fixed-rate asset.
func buildComposite(assets []*Asset, log zerolog.Logger) (*Composite, error) {
	daySet := make(map[time.Time]struct{})
	for _, a := range assets {
		if a.IsFixedRate() {
			continue
		}
		series, err := a.Series()
		if err != nil {
			return nil, err
		}
		for _, d := range series.Dates() {
			daySet[d] = struct{}{}
		}
	}
	if len(daySet) == 0 {
		return nil, domain.ErrEmptyComposite
	}

	dates := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	composite := &Composite{Dates: dates, Columns: make([]CompositeColumn, 0, len(assets))}
	missing, filled := 0, 0

	for _, a := range assets {
		col := CompositeColumn{Name: a.Name(), Weight: a.Weight(), Prices: make([]float64, len(dates))}

		if a.IsFixedRate() {
			col.FixedRate = a.FixedRate()
			growth := 1 + a.FixedRate()/1200
			for i := range col.Prices {
				col.Prices[i] = math.Pow(growth, float64(i))
			}
			composite.Columns = append(composite.Columns, col)
			continue
		}

		for i := range col.Prices {
			col.Prices[i] = math.NaN()
		}
		series, _ := a.Series()
		for _, p := range series.Points() {
			col.Prices[index[p.Date]] = p.Price
		}

		m, f := fillGaps(col.Prices)
		missing += m
		filled += f
		composite.Columns = append(composite.Columns, col)
	}

	if missing > 0 {
		log.Warn().
			Int("missing_data_points", missing).
			Int("filled_data_points", filled).
			Msg("Filled missing price data")
	}

	return composite, nil
}

// fillGaps forward-fills NaNs from the previous valid value, then back-fills leading NaNs.
func fillGaps(prices []float64) (missing, filled int) {
	lastValid, hasLast := 0.0, false
	for i, p := range prices {
		if math.IsNaN(p) {
			missing++
			if hasLast {
				prices[i] = lastValid
				filled++
			}
			continue
		}
		lastValid, hasLast = p, true
	}

	nextValid, hasNext := 0.0, false
	for i := len(prices) - 1; i >= 0; i-- {
		if math.IsNaN(prices[i]) {
			if hasNext {
				prices[i] = nextValid
				filled++
			}
			continue
		}
		nextValid, hasNext = prices[i], true
	}
	return missing, filled
}

// Weighted sums every column scaled by its weight into one valuation series
func (c *Composite) Weighted() (domain.Series, error) {
	points := make([]domain.PricePoint, len(c.Dates))
	for i, d := range c.Dates {
		total := 0.0
		for _, col := range c.Columns {
			total += col.Prices[i] * col.Weight
		}
		points[i] = domain.PricePoint{Date: d, Price: total}
	}
	return domain.NewSeries(points)
}
