package configloader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
)

// Bounds accepted for numeric settings.
const (
	minLineLength = 20
	maxLineLength = 1000
	maxIndentSize = 16
)

// ValidationError describes one invalid configuration value.
type ValidationError struct {
	// Field is the dotted path of the value, e.g. "rules.ATC201.severity".
	Field string

	Value any

	Message string

	// FilePath is the config file the value came from, when known.
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, 3)
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// ValidationResult collects validation findings. Errors stop loading;
// warnings are reported and ignored.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Valid reports whether no errors were found.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) fail(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// Validate checks cfg. Rule keys unknown to registry produce warnings; a nil
// registry skips that check.
func Validate(cfg *config.Config, registry *lint.Registry) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	if cfg.MaxLineLength < minLineLength || cfg.MaxLineLength > maxLineLength {
		result.fail("max_line_length", cfg.MaxLineLength,
			"must be between %d and %d", minLineLength, maxLineLength)
	}
	if !config.IsValidLineWidth(cfg.LineWidth) {
		result.fail("line_width", cfg.LineWidth,
			"invalid line width %q; must be one of: %s, %s", cfg.LineWidth, config.LineWidthChars, config.LineWidthDisplay)
	}
	if cfg.IndentSize < 1 || cfg.IndentSize > maxIndentSize {
		result.fail("indent_size", cfg.IndentSize, "must be between 1 and %d", maxIndentSize)
	}
	if cfg.SeverityDefault != "" && !config.Severity(cfg.SeverityDefault).IsValid() {
		result.fail("severity_default", cfg.SeverityDefault,
			"invalid severity %q; must be one of: error, warning, info", cfg.SeverityDefault)
	}
	if cfg.Format != "" && !cfg.Format.IsValid() {
		result.fail("format", cfg.Format,
			"invalid format %q; must be one of: text, json, sarif, diff, summary", cfg.Format)
	}
	if cfg.RuleFormat != "" && !cfg.RuleFormat.IsValid() {
		result.fail("rule_format", cfg.RuleFormat,
			"invalid rule format %q; must be one of: name, id, combined", cfg.RuleFormat)
	}
	if cfg.Jobs < 0 {
		result.fail("jobs", cfg.Jobs, "jobs must be >= 0 (0 means auto)")
	}
	if cfg.Backups.Mode != "" && cfg.Backups.Mode != "sidecar" && cfg.Backups.Mode != "none" {
		result.fail("backups.mode", cfg.Backups.Mode,
			"invalid backup mode %q; must be one of: sidecar, none", cfg.Backups.Mode)
	}
	if strings.TrimSpace(cfg.GlobalUsingsFile) == "" {
		result.fail("global_usings_file", cfg.GlobalUsingsFile, "must not be empty")
	}

	validateRules(cfg, registry, result)
	validateIgnorePatterns(cfg, result)

	return result
}

func validateRules(cfg *config.Config, registry *lint.Registry, result *ValidationResult) {
	for ruleID, ruleCfg := range cfg.Rules {
		if registry != nil {
			if _, ok := registry.GetByID(ruleID); !ok {
				result.warn("rules."+ruleID, ruleID, "unknown rule %q; it will be ignored", ruleID)
			}
		}
		if ruleCfg.Severity != nil && !config.Severity(*ruleCfg.Severity).IsValid() {
			result.fail("rules."+ruleID+".severity", *ruleCfg.Severity,
				"invalid severity %q; must be one of: error, warning, info", *ruleCfg.Severity)
		}
	}

	if registry == nil {
		return
	}
	for _, list := range []struct {
		field string
		ids   []string
	}{
		{"enable", cfg.EnableRules},
		{"disable", cfg.DisableRules},
		{"fix_rules", cfg.FixRules},
	} {
		for _, key := range list.ids {
			if _, _, ok := registry.Resolve(key); !ok {
				result.warn(list.field, key, "unknown rule %q; it will be ignored", key)
			}
		}
	}
}

// validateIgnorePatterns rejects malformed globs. filepath.Match only
// reports ErrBadPattern, whatever the name.
func validateIgnorePatterns(cfg *config.Config, result *ValidationResult) {
	for i, pattern := range cfg.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			result.fail(fmt.Sprintf("ignore[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}
}

// ValidateWithFile validates cfg and tags every finding with filePath.
func ValidateWithFile(cfg *config.Config, registry *lint.Registry, filePath string) *ValidationResult {
	result := Validate(cfg, registry)
	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}
	return result
}
