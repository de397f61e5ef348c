package history

import (
	"context"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Loader serves stored NAV histories in the base currency.
// Concurrent loads of the same asset share one database read.
type Loader struct {
	repo       *Repository
	normalizer domain.CurrencyNormalizer
	group      singleflight.Group
	log        zerolog.Logger
}

// NewLoader creates a loader reading from repo and converting through normalizer
func NewLoader(repo *Repository, normalizer domain.CurrencyNormalizer, log zerolog.Logger) *Loader {
	return &Loader{
		repo:       repo,
		normalizer: normalizer,
		log:        log.With().Str("service", "series_loader").Logger(),
	}
}

// LoadSeries implements domain.SeriesLoader
func (l *Loader) LoadSeries(ctx context.Context, assetID string) (domain.Series, error) {
	ch := l.group.DoChan(assetID, func() (interface{}, error) {
		// Detached from any single caller so one cancelled request does not fail the others
		loadCtx := context.WithoutCancel(ctx)

		raw, currency, err := l.repo.PriceSeries(loadCtx, assetID)
		if err != nil {
			return domain.Series{}, err
		}
		series, err := l.normalizer.Normalize(loadCtx, raw, currency)
		if err != nil {
			return domain.Series{}, err
		}

		l.log.Debug().
			Str("asset", assetID).
			Str("currency", currency).
			Int("points", series.Len()).
			Msg("Loaded series")
		return series, nil
	})

	select {
	case <-ctx.Done():
		return domain.Series{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Series{}, res.Err
		}
		return res.Val.(domain.Series), nil
	}
}
