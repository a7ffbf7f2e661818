package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gwcatalog/internal/errors"
)

// Format selects the catalog file layout.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", errors.NewConfigError(fmt.Sprintf("unknown export format %q", s), nil)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// formatCell renders a summary value for text output. Null is an empty cell.
func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(value)
	case int:
		return strconv.Itoa(value)
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// formatFloat uses the shortest representation that round-trips, switching
// to exponent notation at the same magnitudes encoding/json does so text and
// JSON exports agree.
func formatFloat(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.FormatFloat(f, format, -1, 64)
}
