package tables

import (
	"fmt"
	"strconv"
	"strings"
)

// parseNumber accepts plain numbers as well as the "6.3%" form used by
// published rate tables.
func parseNumber(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))
	if trimmed == "" {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
