package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParseWeights parses "name=weight,name=weight" into a map.
// Returns nil for empty input; repeated names are an error.
func ParseWeights(s string) (map[string]float64, error) {
	items := ParseCSV(s)
	if items == nil {
		return nil, nil
	}

	weights := make(map[string]float64, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=weight, got %q", item)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %s: %w", name, err)
		}
		if _, dup := weights[name]; dup {
			return nil, fmt.Errorf("duplicate weight for %s", name)
		}
		weights[name] = w
	}
	return weights, nil
}
