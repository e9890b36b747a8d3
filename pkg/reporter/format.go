package reporter

import (
	"fmt"

	"github.com/yaklabco/atclint/pkg/config"
)

// Format represents an output format.
type Format string

// Output formats supported by the reporter.
const (
	FormatText    = Format(config.FormatText)
	FormatJSON    = Format(config.FormatJSON)
	FormatSARIF   = Format(config.FormatSARIF)
	FormatDiff    = Format(config.FormatDiff)
	FormatSummary = Format(config.FormatSummary)
)

// ParseFormat parses a format string, returning an error for unknown formats.
// The empty string selects text.
func ParseFormat(formatStr string) (Format, error) {
	if formatStr == "" {
		return FormatText, nil
	}
	format := Format(formatStr)
	if !format.IsValid() {
		return "", fmt.Errorf("unknown format %q; valid formats: text, json, sarif, diff, summary", formatStr)
	}
	return format, nil
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if the format is a known valid format.
func (f Format) IsValid() bool {
	return config.OutputFormat(f).IsValid()
}
