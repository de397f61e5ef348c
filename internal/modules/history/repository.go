// Package history stores monthly NAV and exchange-rate histories and serves them as series.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/goalsip/internal/database"
	"github.com/aristath/goalsip/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidImport marks caller mistakes in imported data (bad CSV, bad names, currency conflicts)
var ErrInvalidImport = errors.New("invalid import")

// Kind identifies what an import batch wrote
type Kind string

const (
	KindNAV Kind = "nav"
	KindFX  Kind = "fx"
)

// AssetInfo describes a stored asset history
type AssetInfo struct {
	Name         string    `json:"name"`
	Currency     string    `json:"currency"`
	Source       string    `json:"source"`
	Observations int       `json:"observations"`
	FirstDate    string    `json:"first_date,omitempty"`
	LastDate     string    `json:"last_date,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ImportResult summarizes one committed import batch
type ImportResult struct {
	BatchID   string `json:"batch_id"`
	Kind      Kind   `json:"kind"`
	Target    string `json:"target"`
	Rows      int    `json:"rows"`
	FirstDate string `json:"first_date"`
	LastDate  string `json:"last_date"`
}

// Repository reads and writes the history database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a repository over an open history database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// ImportPrices upserts NAV observations for asset in one transaction.
// An asset keeps the currency it was first imported with.
func (r *Repository) ImportPrices(ctx context.Context, asset, currency, source string, points []domain.PricePoint) (ImportResult, error) {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return ImportResult{}, fmt.Errorf("%w: asset name is required", ErrInvalidImport)
	}
	currency, err := validCurrency(currency)
	if err != nil {
		return ImportResult{}, err
	}
	series, err := cleanPoints(points)
	if err != nil {
		return ImportResult{}, err
	}

	result := newResult(KindNAV, asset, series)
	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var stored string
		err := tx.QueryRowContext(ctx, "SELECT currency FROM assets WHERE name = ?", asset).Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to look up asset %s: %w", asset, err)
		case stored != currency:
			return fmt.Errorf("%w: asset %s is stored in %s, not %s", ErrInvalidImport, asset, stored, currency)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO assets (name, currency, source, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at
		`, asset, currency, source, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to upsert asset %s: %w", asset, err)
		}

		if err := upsertPoints(ctx, tx, `
			INSERT INTO nav_prices (asset, date, price) VALUES (?, ?, ?)
			ON CONFLICT(asset, date) DO UPDATE SET price = excluded.price
		`, asset, series); err != nil {
			return err
		}
		return recordBatch(ctx, tx, result, source)
	})
	if err != nil {
		return ImportResult{}, err
	}

	r.log.Info().
		Str("asset", asset).
		Str("currency", currency).
		Int("rows", result.Rows).
		Str("batch_id", result.BatchID).
		Msg("Imported NAV history")
	return result, nil
}

// ImportRates upserts exchange rates for currency (base-currency units per unit) in one transaction
func (r *Repository) ImportRates(ctx context.Context, currency, source string, points []domain.PricePoint) (ImportResult, error) {
	currency, err := validCurrency(currency)
	if err != nil {
		return ImportResult{}, err
	}
	series, err := cleanPoints(points)
	if err != nil {
		return ImportResult{}, err
	}

	result := newResult(KindFX, currency, series)
	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if err := upsertPoints(ctx, tx, `
			INSERT INTO fx_rates (currency, date, rate) VALUES (?, ?, ?)
			ON CONFLICT(currency, date) DO UPDATE SET rate = excluded.rate
		`, currency, series); err != nil {
			return err
		}
		return recordBatch(ctx, tx, result, source)
	})
	if err != nil {
		return ImportResult{}, err
	}

	r.log.Info().
		Str("currency", currency).
		Int("rows", result.Rows).
		Str("batch_id", result.BatchID).
		Msg("Imported exchange rates")
	return result, nil
}

// ListAssets returns every stored asset with its observation count and date range
func (r *Repository) ListAssets(ctx context.Context) ([]AssetInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.name, a.currency, a.source, a.updated_at,
		       COUNT(p.date), COALESCE(MIN(p.date), ''), COALESCE(MAX(p.date), '')
		FROM assets a
		LEFT JOIN nav_prices p ON p.asset = a.name
		GROUP BY a.name
		ORDER BY a.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := []AssetInfo{}
	for rows.Next() {
		var info AssetInfo
		var updated int64
		if err := rows.Scan(&info.Name, &info.Currency, &info.Source, &updated,
			&info.Observations, &info.FirstDate, &info.LastDate); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		info.UpdatedAt = time.Unix(updated, 0).UTC()
		assets = append(assets, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

// PriceSeries returns the raw NAV history of asset and the currency it is quoted in.
// Fails with *domain.DataUnavailableError when nothing is stored.
func (r *Repository) PriceSeries(ctx context.Context, asset string) (domain.Series, string, error) {
	var currency string
	err := r.db.QueryRowContext(ctx, "SELECT currency FROM assets WHERE name = ?", asset).Scan(&currency)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Series{}, "", &domain.DataUnavailableError{AssetID: asset}
	}
	if err != nil {
		return domain.Series{}, "", fmt.Errorf("failed to look up asset %s: %w", asset, err)
	}

	series, err := r.querySeries(ctx, "SELECT date, price FROM nav_prices WHERE asset = ? ORDER BY date", asset)
	if err != nil {
		return domain.Series{}, "", err
	}
	if series.IsEmpty() {
		return domain.Series{}, "", &domain.DataUnavailableError{AssetID: asset}
	}
	return series, currency, nil
}

// RateSeries returns the stored exchange-rate history for currency
func (r *Repository) RateSeries(ctx context.Context, currency string) (domain.Series, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	series, err := r.querySeries(ctx, "SELECT date, rate FROM fx_rates WHERE currency = ? ORDER BY date", currency)
	if err != nil {
		return domain.Series{}, err
	}
	if series.IsEmpty() {
		return domain.Series{}, &domain.DataUnavailableError{AssetID: "fx:" + currency}
	}
	return series, nil
}

func (r *Repository) querySeries(ctx context.Context, query, key string) (domain.Series, error) {
	rows, err := r.db.QueryContext(ctx, query, key)
	if err != nil {
		return domain.Series{}, fmt.Errorf("failed to query history for %s: %w", key, err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var date string
		var value float64
		if err := rows.Scan(&date, &value); err != nil {
			return domain.Series{}, fmt.Errorf("failed to scan history row: %w", err)
		}
		d, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return domain.Series{}, fmt.Errorf("corrupt date %q for %s: %w", date, key, err)
		}
		points = append(points, domain.PricePoint{Date: d, Price: value})
	}
	if err := rows.Err(); err != nil {
		return domain.Series{}, fmt.Errorf("error iterating history for %s: %w", key, err)
	}
	return domain.NewSeries(points)
}

func validCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency code %q must have three letters", ErrInvalidImport, code)
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", fmt.Errorf("%w: currency code %q must have three letters", ErrInvalidImport, code)
		}
	}
	return code, nil
}

func cleanPoints(points []domain.PricePoint) (domain.Series, error) {
	if len(points) == 0 {
		return domain.Series{}, fmt.Errorf("%w: no rows", ErrInvalidImport)
	}
	series, err := domain.NewSeries(points)
	if err != nil {
		return domain.Series{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return series, nil
}

func newResult(kind Kind, target string, series domain.Series) ImportResult {
	return ImportResult{
		BatchID:   uuid.New().String(),
		Kind:      kind,
		Target:    target,
		Rows:      series.Len(),
		FirstDate: series.At(0).Date.Format(domain.DateLayout),
		LastDate:  series.At(series.Len() - 1).Date.Format(domain.DateLayout),
	}
}

func upsertPoints(ctx context.Context, tx *sql.Tx, query, key string, series domain.Series) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range series.Points() {
		date := p.Date.Format(domain.DateLayout)
		if _, err := stmt.ExecContext(ctx, key, date, p.Price); err != nil {
			return fmt.Errorf("failed to write %s for %s: %w", date, key, err)
		}
	}
	return nil
}

func recordBatch(ctx context.Context, tx *sql.Tx, result ImportResult, source string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO import_batches (id, kind, target, rows, source, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.BatchID, string(result.Kind), result.Target, result.Rows, source, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record import batch: %w", err)
	}
	return nil
}
