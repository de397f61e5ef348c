package domain

import "context"

// SeriesLoader returns an asset's price history in the base currency.
// Fails with *DataUnavailableError when nothing is stored for the asset.
type SeriesLoader interface {
	LoadSeries(ctx context.Context, assetID string) (Series, error)
}

// CurrencyNormalizer converts a price series from its source currency into the base currency.
// Fails with *MisalignedDatesError when the rate calendar differs from the price calendar.
type CurrencyNormalizer interface {
	Normalize(ctx context.Context, series Series, currency string) (Series, error)
}

// SeriesLoaderFunc adapts a function to SeriesLoader
type SeriesLoaderFunc func(ctx context.Context, assetID string) (Series, error)

// LoadSeries calls f(ctx, assetID)
func (f SeriesLoaderFunc) LoadSeries(ctx context.Context, assetID string) (Series, error) {
	return f(ctx, assetID)
}
