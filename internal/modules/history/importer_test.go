package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportFilename(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want ImportFile
	}{
		{"nav_gold_INR.csv", true, ImportFile{Name: "nav_gold_INR.csv", Kind: KindNAV, Asset: "gold", Currency: "INR"}},
		{"nav_sp_500_usd.csv", true, ImportFile{Name: "nav_sp_500_usd.csv", Kind: KindNAV, Asset: "sp_500", Currency: "USD"}},
		{"fx_USD.csv", true, ImportFile{Name: "fx_USD.csv", Kind: KindFX, Currency: "USD"}},
		{"nav_gold.csv", false, ImportFile{}},
		{"nav__INR.csv", false, ImportFile{}},
		{"fx_dollar.csv", false, ImportFile{}},
		{"nav_gold_INR.txt", false, ImportFile{}},
		{"readme.csv", false, ImportFile{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseImportFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestImportDirectory(t *testing.T) {
	repo := newTestRepository(t)
	importer := NewImporter(repo, testLog)
	dir := t.TempDir()
	ctx := context.Background()

	writeFile(t, dir, "nav_sp_500_USD.csv", "date,price\n2020-01-01,3200\n2020-02-01,3300\n")
	writeFile(t, dir, "fx_USD.csv", "date,rate\n2020-01-01,71\n2020-02-01,72\n")
	writeFile(t, dir, "nav_broken_INR.csv", "date,price\n2020-01-01,zero\n")
	writeFile(t, dir, "notes.txt", "ignore me")

	result, err := importer.ImportDirectory(ctx, dir)
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	assert.Equal(t, KindFX, result.Imported[0].Kind, "rates are imported first")
	assert.Equal(t, "sp_500", result.Imported[1].Target)
	assert.Equal(t, []string{"nav_broken_INR.csv"}, result.Failed)
	assert.Equal(t, []string{"notes.txt"}, result.Skipped)

	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "fx_USD.csv"))
	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "nav_sp_500_USD.csv"))
	assert.FileExists(t, filepath.Join(dir, "nav_broken_INR.csv"), "failed files stay for retry")
	assert.NoFileExists(t, filepath.Join(dir, "fx_USD.csv"))

	series, currency, err := repo.PriceSeries(ctx, "sp_500")
	require.NoError(t, err)
	assert.Equal(t, "USD", currency)
	assert.Equal(t, 2, series.Len())
}

func TestImportDirectory_MissingDir(t *testing.T) {
	importer := NewImporter(newTestRepository(t), testLog)

	result, err := importer.ImportDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
}
