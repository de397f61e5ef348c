// Package currency converts price histories into the base currency.
package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/rs/zerolog"
)

// RateSource provides exchange-rate histories quoted as base-currency units per unit of currency
type RateSource interface {
	RateSeries(ctx context.Context, currency string) (domain.Series, error)
}

// Normalizer converts price series into the base currency using stored rate histories
type Normalizer struct {
	base  string
	rates RateSource
	log   zerolog.Logger
}

// NewNormalizer creates a normalizer that converts into base
func NewNormalizer(base string, rates RateSource, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		base:  NormalizeCode(base),
		rates: rates,
		log:   log.With().Str("service", "currency_normalizer").Logger(),
	}
}

// Base returns the target currency code
func (n *Normalizer) Base() string {
	return n.base
}

// NormalizeCode upper-cases and trims a currency code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Normalize returns series priced in the base currency.
// Series already in the base currency (or with no currency) are returned unchanged.
// The rate series must cover exactly the same dates as the price series.
func (n *Normalizer) Normalize(ctx context.Context, series domain.Series, currency string) (domain.Series, error) {
	currency = NormalizeCode(currency)
	if currency == "" || currency == n.base {
		return series, nil
	}

	rates, err := n.rates.RateSeries(ctx, currency)
	if err != nil {
		return domain.Series{}, fmt.Errorf("failed to load %s rates: %w", currency, err)
	}

	if rates.Len() != series.Len() {
		n.log.Warn().
			Str("currency", currency).
			Int("prices", series.Len()).
			Int("rates", rates.Len()).
			Msg("Rate calendar length differs from price calendar")
		return domain.Series{}, &domain.MisalignedDatesError{Currency: currency}
	}

	converted := make([]domain.PricePoint, series.Len())
	for i := 0; i < series.Len(); i++ {
		p, r := series.At(i), rates.At(i)
		if !p.Date.Equal(r.Date) {
			n.log.Warn().
				Str("currency", currency).
				Str("price_date", p.Date.Format(domain.DateLayout)).
				Str("rate_date", r.Date.Format(domain.DateLayout)).
				Msg("Rate calendar does not match price calendar")
			return domain.Series{}, &domain.MisalignedDatesError{Currency: currency}
		}
		converted[i] = domain.PricePoint{Date: p.Date, Price: p.Price * r.Price}
	}

	n.log.Debug().
		Str("currency", currency).
		Str("base", n.base).
		Int("points", len(converted)).
		Msg("Converted series to base currency")

	return domain.NewSeries(converted)
}
