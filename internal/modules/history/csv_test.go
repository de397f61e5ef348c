package history

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	points, err := ParseCSV(strings.NewReader("\ufeffDate, Price\n2020-01-31,10.5\n\n2020-02-29, 11\n"), ColumnPrice)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2020-01-31", points[0].Date.Format("2006-01-02"))
	assert.Equal(t, 10.5, points[0].Price)
	assert.Equal(t, 11.0, points[1].Price)
}

func TestParseCSV_ExtraColumnsAndOrder(t *testing.T) {
	points, err := ParseCSV(strings.NewReader("rate,source,date\n82.1,rbi,2021-03-01\n"), ColumnRate)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 82.1, points[0].Price)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		col   string
	}{
		{"empty", "", ColumnPrice},
		{"wrong header", "date,rate\n2020-01-01,1\n", ColumnPrice},
		{"header only", "date,price\n", ColumnPrice},
		{"bad date", "date,price\n01/02/2020,1\n", ColumnPrice},
		{"bad number", "date,price\n2020-01-01,abc\n", ColumnPrice},
		{"zero price", "date,price\n2020-01-01,0\n", ColumnPrice},
		{"negative rate", "date,rate\n2020-01-01,-3\n", ColumnRate},
		{"short row", "date,price\n2020-01-01\n", ColumnPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), tt.col)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidImport), err.Error())
		})
	}
}
