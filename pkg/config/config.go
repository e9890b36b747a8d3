// Package config defines core configuration types for atclint.
// These types are pure data structures; loading and merging live in
// internal/configloader.
package config

// Severity represents the severity level of a lint diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

// RuleConfig holds per-rule configuration options. Pointer fields distinguish
// "unset" from a zero value; nil pointers are never encoded.
type RuleConfig struct {
	Enabled  *bool          `mapstructure:"enabled" yaml:"enabled,omitempty" toml:"enabled"`
	Severity *string        `mapstructure:"severity" yaml:"severity,omitempty" toml:"severity"`
	AutoFix  *bool          `mapstructure:"auto_fix" yaml:"auto_fix,omitempty" toml:"auto_fix"`
	Options  map[string]any `mapstructure:"options" yaml:"options,omitempty" toml:"options"`
}

// BackupsConfig controls backup behavior when fixing files.
type BackupsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Mode    string `mapstructure:"mode" yaml:"mode" toml:"mode"` // "sidecar" or "none"
}

// CacheConfig controls the on-disk result cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	// Dir overrides the cache directory. Empty means the user cache dir.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty" toml:"dir,omitempty"`
}

// OutputFormat specifies the output format for diagnostics.
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatJSON    OutputFormat = "json"
	FormatSARIF   OutputFormat = "sarif"
	FormatDiff    OutputFormat = "diff"
	FormatSummary OutputFormat = "summary"
)

// RuleFormat controls how rule identifiers appear in output.
type RuleFormat string

const (
	RuleFormatName     RuleFormat = "name"     // "parameter-layout"
	RuleFormatID       RuleFormat = "id"       // "ATC201"
	RuleFormatCombined RuleFormat = "combined" // "ATC201/parameter-layout"
)

// Line width modes. Chars counts runes; display counts terminal cells after
// NFC normalisation.
const (
	LineWidthChars   = "chars"
	LineWidthDisplay = "display"
)

// Defaults.
const (
	DefaultMaxLineLength    = 80
	DefaultIndentSize       = 4
	DefaultGlobalUsingsFile = "GlobalUsings.cs"
)

// Config is the root configuration structure for atclint.
type Config struct {
	// MaxLineLength is the layout threshold used by the parameter-layout and
	// expression-body rules.
	MaxLineLength int `mapstructure:"max_line_length" yaml:"max_line_length" toml:"max_line_length"`

	// LineWidth selects how line length is measured ("chars" or "display").
	LineWidth string `mapstructure:"line_width" yaml:"line_width" toml:"line_width"`

	// IndentSize is the number of spaces in one indent unit when a file gives
	// no better evidence.
	IndentSize int `mapstructure:"indent_size" yaml:"indent_size" toml:"indent_size"`

	// SeverityDefault is the default severity for rules that don't specify one.
	SeverityDefault string `mapstructure:"severity_default" yaml:"severity_default,omitempty" toml:"severity_default,omitempty"`

	// ConnectorIdentifiers are member names that may join a two-segment
	// invocation chain on one line.
	ConnectorIdentifiers []string `mapstructure:"connector_identifiers" yaml:"connector_identifiers" toml:"connector_identifiers"`

	// GlobalUsingPrefixes scopes the scoped-global-usings rule.
	GlobalUsingPrefixes []string `mapstructure:"global_using_prefixes" yaml:"global_using_prefixes" toml:"global_using_prefixes"`

	// GlobalUsingsFile is the path of the shared global usings file. Relative
	// paths are resolved against the directory of the config file.
	GlobalUsingsFile string `mapstructure:"global_usings_file" yaml:"global_usings_file" toml:"global_usings_file"`

	// Rules contains per-rule configuration keyed by rule ID.
	Rules map[string]RuleConfig `mapstructure:"rules" yaml:"rules,omitempty" toml:"rules,omitempty"`

	// Ignore contains glob patterns for files to ignore.
	Ignore []string `mapstructure:"ignore" yaml:"ignore,omitempty" toml:"ignore,omitempty"`

	// Backups configures backup behavior when fixing.
	Backups BackupsConfig `mapstructure:"backups" yaml:"backups" toml:"backups"`

	// Cache configures the lint result cache.
	Cache CacheConfig `mapstructure:"cache" yaml:"cache" toml:"cache"`

	// CLI-level options (not persisted to config files).

	// Fix enables auto-fixing of issues.
	Fix bool `mapstructure:"-" yaml:"-" toml:"-"`

	// DryRun shows what would be fixed without making changes.
	DryRun bool `mapstructure:"-" yaml:"-" toml:"-"`

	// Format specifies the output format.
	Format OutputFormat `mapstructure:"-" yaml:"-" toml:"-"`

	// RuleFormat controls how rule identifiers appear in output.
	RuleFormat RuleFormat `mapstructure:"-" yaml:"-" toml:"-"`

	// Jobs specifies the number of parallel workers.
	Jobs int `mapstructure:"-" yaml:"-" toml:"-"`

	// EnableRules contains rule IDs to explicitly enable.
	EnableRules []string `mapstructure:"-" yaml:"-" toml:"-"`

	// DisableRules contains rule IDs to explicitly disable.
	DisableRules []string `mapstructure:"-" yaml:"-" toml:"-"`

	// FixRules limits auto-fixing to specific rule IDs.
	FixRules []string `mapstructure:"-" yaml:"-" toml:"-"`

	// NoBackups disables backup creation when fixing.
	NoBackups bool `mapstructure:"-" yaml:"-" toml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		MaxLineLength:        DefaultMaxLineLength,
		LineWidth:            LineWidthChars,
		IndentSize:           DefaultIndentSize,
		SeverityDefault:      string(SeverityWarning),
		ConnectorIdentifiers: []string{"Should"},
		GlobalUsingsFile:     DefaultGlobalUsingsFile,
		Rules:                make(map[string]RuleConfig),
		Backups: BackupsConfig{
			Enabled: true,
			Mode:    "sidecar",
		},
		Format:     FormatText,
		RuleFormat: RuleFormatName,
		Jobs:       0, // 0 means use GOMAXPROCS
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.ConnectorIdentifiers = cloneStrings(c.ConnectorIdentifiers)
	clone.GlobalUsingPrefixes = cloneStrings(c.GlobalUsingPrefixes)
	clone.Ignore = cloneStrings(c.Ignore)
	clone.EnableRules = cloneStrings(c.EnableRules)
	clone.DisableRules = cloneStrings(c.DisableRules)
	clone.FixRules = cloneStrings(c.FixRules)

	if c.Rules != nil {
		clone.Rules = make(map[string]RuleConfig, len(c.Rules))
		for id, rc := range c.Rules {
			clone.Rules[id] = rc.clone()
		}
	}

	return &clone
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// clone creates a deep copy of a RuleConfig. Nested values inside Options are
// shared.
func (rc RuleConfig) clone() RuleConfig {
	out := RuleConfig{}

	if rc.Enabled != nil {
		enabled := *rc.Enabled
		out.Enabled = &enabled
	}
	if rc.Severity != nil {
		severity := *rc.Severity
		out.Severity = &severity
	}
	if rc.AutoFix != nil {
		autoFix := *rc.AutoFix
		out.AutoFix = &autoFix
	}
	if rc.Options != nil {
		out.Options = make(map[string]any, len(rc.Options))
		for k, v := range rc.Options {
			out.Options[k] = v
		}
	}

	return out
}
