package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ProcessedDir is the subdirectory of the import directory that receives imported files
const ProcessedDir = "processed"

// ImportFile is a recognized import file name: nav_<asset>_<CUR>.csv or fx_<CUR>.csv
type ImportFile struct {
	Name     string
	Kind     Kind
	Asset    string
	Currency string
}

// ParseImportFilename recognizes import file names. Asset names may contain underscores;
// the currency is always the last segment.
func ParseImportFilename(name string) (ImportFile, bool) {
	base := strings.TrimSuffix(name, ".csv")
	if base == name {
		return ImportFile{}, false
	}

	switch {
	case strings.HasPrefix(base, "fx_"):
		cur, err := validCurrency(strings.TrimPrefix(base, "fx_"))
		if err != nil {
			return ImportFile{}, false
		}
		return ImportFile{Name: name, Kind: KindFX, Currency: cur}, true

	case strings.HasPrefix(base, "nav_"):
		rest := strings.TrimPrefix(base, "nav_")
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 {
			return ImportFile{}, false
		}
		cur, err := validCurrency(rest[idx+1:])
		if err != nil {
			return ImportFile{}, false
		}
		return ImportFile{Name: name, Kind: KindNAV, Asset: rest[:idx], Currency: cur}, true
	}
	return ImportFile{}, false
}

// DirectoryResult summarizes one scan of the import directory
type DirectoryResult struct {
	Imported []ImportResult `json:"imported"`
	Failed   []string       `json:"failed"`
	Skipped  []string       `json:"skipped"`
}

// Importer loads CSV files into the repository
type Importer struct {
	repo *Repository
	log  zerolog.Logger
}

// NewImporter creates an importer writing to repo
func NewImporter(repo *Repository, log zerolog.Logger) *Importer {
	return &Importer{
		repo: repo,
		log:  log.With().Str("service", "history_importer").Logger(),
	}
}

// ImportPricesCSV parses a date,price CSV and stores it as the NAV history of asset
func (i *Importer) ImportPricesCSV(ctx context.Context, asset, currency, source string, r io.Reader) (ImportResult, error) {
	points, err := ParseCSV(r, ColumnPrice)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse prices for %s: %w", asset, err)
	}
	return i.repo.ImportPrices(ctx, asset, currency, source, points)
}

// ImportRatesCSV parses a date,rate CSV and stores it as the rate history of currency
func (i *Importer) ImportRatesCSV(ctx context.Context, currency, source string, r io.Reader) (ImportResult, error) {
	points, err := ParseCSV(r, ColumnRate)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse %s rates: %w", currency, err)
	}
	return i.repo.ImportRates(ctx, currency, source, points)
}

// ImportFile imports a single recognized file from disk
func (i *Importer) ImportFile(ctx context.Context, path string, file ImportFile) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if file.Kind == KindFX {
		return i.ImportRatesCSV(ctx, file.Currency, file.Name, f)
	}
	return i.ImportPricesCSV(ctx, file.Asset, file.Currency, file.Name, f)
}

// ImportDirectory imports every recognized CSV in dir and moves it into dir/processed.
// Files that fail stay in place and are retried on the next scan. A missing dir is not an error.
func (i *Importer) ImportDirectory(ctx context.Context, dir string) (DirectoryResult, error) {
	result := DirectoryResult{Imported: []ImportResult{}, Failed: []string{}, Skipped: []string{}}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to read import directory: %w", err)
	}

	var files []ImportFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file, ok := ParseImportFilename(entry.Name())
		if !ok {
			result.Skipped = append(result.Skipped, entry.Name())
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return result, nil
	}

	// Rates before prices so a scan that brings both leaves the store consistent
	sort.SliceStable(files, func(a, b int) bool {
		if files[a].Kind != files[b].Kind {
			return files[a].Kind == KindFX
		}
		return files[a].Name < files[b].Name
	})

	processed := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(processed, 0755); err != nil {
		return result, fmt.Errorf("failed to create processed directory: %w", err)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		src := filepath.Join(dir, file.Name)
		imported, err := i.ImportFile(ctx, src, file)
		if err != nil {
			i.log.Warn().Err(err).Str("file", file.Name).Msg("Import failed")
			result.Failed = append(result.Failed, file.Name)
			continue
		}
		if err := os.Rename(src, filepath.Join(processed, file.Name)); err != nil {
			i.log.Warn().Err(err).Str("file", file.Name).Msg("Failed to move imported file")
		}
		result.Imported = append(result.Imported, imported)
	}

	i.log.Info().
		Int("imported", len(result.Imported)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Msg("Import directory scan complete")
	return result, nil
}
