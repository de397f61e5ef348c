package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/goalsip/internal/domain"
)

// CSV value columns
const (
	ColumnPrice = "price"
	ColumnRate  = "rate"
)

// ParseCSV reads "date,<valueColumn>" rows with YYYY-MM-DD dates.
// Header names are matched case-insensitively and extra columns are ignored.
func ParseCSV(r io.Reader, valueColumn string) ([]domain.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidImport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	dateIdx, valueIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "date":
			dateIdx = i
		case valueColumn:
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("%w: header must contain date and %s columns", ErrInvalidImport, valueColumn)
	}

	var points []domain.PricePoint
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) <= dateIdx || len(record) <= valueIdx {
			return nil, fmt.Errorf("%w: line %d: missing columns", ErrInvalidImport, line)
		}
		if strings.TrimSpace(record[dateIdx]) == "" && strings.TrimSpace(record[valueIdx]) == "" {
			continue
		}

		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad date %q", ErrInvalidImport, line, record[dateIdx])
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[valueIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad %s %q", ErrInvalidImport, line, valueColumn, record[valueIdx])
		}
		if value <= 0 {
			return nil, fmt.Errorf("%w: line %d: %s must be positive", ErrInvalidImport, line, valueColumn)
		}
		points = append(points, domain.PricePoint{Date: date, Price: value})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidImport)
	}
	return points, nil
}
