package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/yaklabco/atclint/pkg/config"
)

// EnvPrefix is the prefix shared by all configuration environment variables.
const EnvPrefix = "ATCLINT_"

// envVar binds one environment variable to a config field.
type envVar struct {
	suffix      string
	description string
	apply       func(cfg *config.Config, value string) error
}

//nolint:gochecknoglobals // Read-only lookup table.
var envVars = []envVar{
	{"MAX_LINE_LENGTH", "Layout line length threshold", intField(func(c *config.Config, v int) { c.MaxLineLength = v })},
	{"LINE_WIDTH", "Line width mode: chars or display", func(c *config.Config, v string) error {
		c.LineWidth = v
		return nil
	}},
	{"INDENT_SIZE", "Indent width used when a file gives no evidence", intField(func(c *config.Config, v int) { c.IndentSize = v })},
	{"SEVERITY_DEFAULT", "Default severity: error, warning or info", func(c *config.Config, v string) error {
		c.SeverityDefault = v
		return nil
	}},
	{"GLOBAL_USINGS_FILE", "Path of the shared global usings file", func(c *config.Config, v string) error {
		c.GlobalUsingsFile = v
		return nil
	}},
	{"GLOBAL_USING_PREFIXES", "Comma-separated namespace prefixes for scoped global usings", func(c *config.Config, v string) error {
		c.GlobalUsingPrefixes = parseSliceValue(v)
		return nil
	}},
	{"CONNECTOR_IDENTIFIERS", "Comma-separated members allowed to join a two-call chain", func(c *config.Config, v string) error {
		c.ConnectorIdentifiers = parseSliceValue(v)
		return nil
	}},
	{"IGNORE", "Comma-separated ignore globs", func(c *config.Config, v string) error {
		c.Ignore = parseSliceValue(v)
		return nil
	}},
	{"FIX", "Apply fixes: true or false", boolField(func(c *config.Config, v bool) { c.Fix = v })},
	{"DRY_RUN", "Show fixes as diffs without writing: true or false", boolField(func(c *config.Config, v bool) { c.DryRun = v })},
	{"NO_BACKUPS", "Skip backup files when fixing: true or false", boolField(func(c *config.Config, v bool) { c.NoBackups = v })},
	{"JOBS", "Parallel workers (0 = auto)", intField(func(c *config.Config, v int) { c.Jobs = v })},
	{"FORMAT", "Output format: text, json, sarif, diff or summary", func(c *config.Config, v string) error {
		c.Format = config.OutputFormat(v)
		return nil
	}},
	{"RULE_FORMAT", "Rule label in output: name, id or combined", func(c *config.Config, v string) error {
		c.RuleFormat = config.RuleFormat(v)
		return nil
	}},
	{"CACHE", "Enable the lint result cache: true or false", boolField(func(c *config.Config, v bool) { c.Cache.Enabled = v })},
	{"CACHE_DIR", "Directory of the lint result cache", func(c *config.Config, v string) error {
		c.Cache.Dir = v
		return nil
	}},
}

func intField(set func(*config.Config, int)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		set(cfg, n)
		return nil
	}
}

func boolField(set func(*config.Config, bool)) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid boolean %q (expected true/false/1/0)", value)
		}
		set(cfg, b)
		return nil
	}
}

// LoadFromEnv applies ATCLINT_* overrides to cfg. Unset and empty variables
// are ignored.
func LoadFromEnv(cfg *config.Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *config.Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return nil
	}
	for _, ev := range envVars {
		name := EnvPrefix + ev.suffix
		value, ok := lookup(name)
		if !ok || value == "" {
			continue
		}
		if err := ev.apply(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func parseSliceValue(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ListEnvVars returns the supported variables and their descriptions, sorted
// by name.
func ListEnvVars() [][2]string {
	out := make([][2]string, 0, len(envVars))
	for _, ev := range envVars {
		out = append(out, [2]string{EnvPrefix + ev.suffix, ev.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
