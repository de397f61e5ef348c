package allocation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_Valid(t *testing.T) {
	table := DefaultTable()
	require.NoError(t, table.Validate())
	assert.Equal(t, []string{"aggressive", "balanced", "conservative", "custom"}, table.Names())

	rate, ok := table.FixedRate("fixed_deposit")
	assert.True(t, ok)
	assert.Equal(t, 7.0, rate)
	_, ok = table.FixedRate("gold")
	assert.False(t, ok)
}

func TestLoadTable_MatchesShippedFile(t *testing.T) {
	table, err := LoadTable(filepath.Join("..", "..", "..", "configs", "profiles.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTable(), table)
}

func TestLoadTable_EmptyPathUsesDefaults(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTable(), table)
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseTable_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "profiles: [1, 2"},
		{"no profiles", "fixed_rates:\n  fd: 7\n"},
		{"weights off", "profiles:\n  p:\n    a: 0.5\n    b: 0.4\n"},
		{"negative weight", "profiles:\n  p:\n    a: 1.5\n    b: -0.5\n"},
		{"reserved custom", "profiles:\n  custom:\n    a: 1\n"},
		{"non-positive rate", "profiles:\n  p:\n    a: 1\nfixed_rates:\n  a: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseTable_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  growth:\n    nifty: 0.75\n    gold: 0.25\n"), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"growth", "custom"}, table.Names())
	assert.NotNil(t, table.FixedRates)
}

func TestResolve(t *testing.T) {
	table := DefaultTable()

	alloc, err := table.Resolve("balanced", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed_deposit", "gold", "largecap", "sp_500"}, alloc.Assets())

	// mutating the result leaves the table untouched
	alloc["gold"] = 0
	assert.Equal(t, 0.3, table.Profiles["balanced"]["gold"])
}

func TestResolve_Custom(t *testing.T) {
	table := DefaultTable()

	alloc, err := table.Resolve(Custom, Allocation{"largecap": 0.7, "gold": 0.3, "sp_500": 0})
	require.NoError(t, err)
	assert.Equal(t, Allocation{"largecap": 0.7, "gold": 0.3}, alloc)

	_, err = table.Resolve(Custom, nil)
	assert.ErrorIs(t, err, domain.ErrMissingAllocation)

	_, err = table.Resolve(Custom, Allocation{"largecap": 0.7})
	var wErr *domain.WeightSumError
	assert.True(t, errors.As(err, &wErr))
}

func TestResolve_UnknownProfile(t *testing.T) {
	_, err := DefaultTable().Resolve("yolo", nil)

	var pErr *domain.UnknownRiskProfileError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "yolo", pErr.Profile)
	assert.Contains(t, pErr.Valid, "custom")
}
