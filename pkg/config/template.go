package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// commentWrapWidth is the maximum width for wrapped comments in templates.
const commentWrapWidth = 70

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full includes every rule with its documentation.
	// If false, generates a minimal template.
	Full bool

	// Format is the output format: "yaml" (default) or "toml".
	Format string

	// IncludeRules limits the documented rules. Empty means all.
	IncludeRules []string

	// Rules supplies the rule metadata to document, usually taken from the
	// caller's registry.
	Rules []RuleInfo
}

// RuleInfo contains rule metadata for template generation.
type RuleInfo struct {
	ID          string
	Name        string
	Description string
	Enabled     bool
	Severity    Severity
	Tags        []string
	CanFix      bool
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if strings.EqualFold(opts.Format, "toml") {
		return generateTOMLTemplate(opts)
	}
	if opts.Full {
		return generateFullTemplate(opts), nil
	}
	return generateMinimalTemplate(), nil
}

// generateMinimalTemplate creates a minimal commented template.
func generateMinimalTemplate() []byte {
	return []byte(DefaultTemplateHeader() + `

# Maximum line length used for layout decisions
max_line_length: 80

# How line length is measured: chars or display
# line_width: chars

# Member names that may join a two-call chain on one line
connector_identifiers:
  - Should

# Namespaces that must be imported through the global usings file
# global_using_prefixes:
#   - System
#   - Microsoft.Extensions

# Location of the global usings file, relative to this file
# global_usings_file: GlobalUsings.cs

# File patterns to ignore (glob patterns)
# ignore:
#   - "bin/**"
#   - "obj/**"

# Rule-specific configuration
# rules:
#   ATC301:
#     enabled: true
#   ATC202:
#     options:
#       connector_identifiers: [Should, Must]
`)
}

// generateFullTemplate creates a full template with all rules documented.
func generateFullTemplate(opts TemplateOptions) []byte {
	var buf bytes.Buffer

	buf.WriteString(DefaultTemplateHeader())
	buf.WriteString(`
#
# This template includes all available rules with their default settings.
# Uncomment and modify settings as needed.

max_line_length: 80
line_width: chars
indent_size: 4
severity_default: warning

connector_identifiers:
  - Should

global_using_prefixes: []
global_usings_file: GlobalUsings.cs

# Backup configuration for auto-fix
backups:
  enabled: true
  mode: sidecar

# Result cache for lint-only runs
cache:
  enabled: false

ignore:
  - "bin/**"
  - "obj/**"
  - ".git/**"

rules:
`)

	for _, rule := range selectRules(opts) {
		fmt.Fprintf(&buf, "\n  # %s: %s\n", rule.ID, rule.Name)
		fmt.Fprintf(&buf, "  # %s\n", wrapComment(rule.Description, commentWrapWidth))
		if len(rule.Tags) > 0 {
			fmt.Fprintf(&buf, "  # Tags: %s\n", strings.Join(rule.Tags, ", "))
		}
		if rule.CanFix {
			buf.WriteString("  # Auto-fix: yes\n")
		}
		fmt.Fprintf(&buf, "  %s:\n", rule.ID)
		fmt.Fprintf(&buf, "    enabled: %t\n", rule.Enabled)
		fmt.Fprintf(&buf, "    severity: %s\n", rule.Severity)
	}

	return buf.Bytes()
}

// generateTOMLTemplate renders the defaults through the TOML encoder so the
// output always round-trips through FromTOML.
func generateTOMLTemplate(opts TemplateOptions) ([]byte, error) {
	cfg := NewConfig()
	cfg.Ignore = []string{"bin/**", "obj/**", ".git/**"}
	if opts.Full {
		for _, rule := range selectRules(opts) {
			enabled := rule.Enabled
			severity := string(rule.Severity)
			cfg.Rules[rule.ID] = RuleConfig{Enabled: &enabled, Severity: &severity}
		}
	}

	body, err := cfg.ToTOML()
	if err != nil {
		return nil, err
	}
	return withHeader(DefaultTemplateHeader(), body), nil
}

func selectRules(opts TemplateOptions) []RuleInfo {
	rules := make([]RuleInfo, 0, len(opts.Rules))
	if len(opts.IncludeRules) == 0 {
		rules = append(rules, opts.Rules...)
	} else {
		include := make(map[string]bool, len(opts.IncludeRules))
		for _, id := range opts.IncludeRules {
			include[id] = true
		}
		for _, r := range opts.Rules {
			if include[r.ID] {
				rules = append(rules, r)
			}
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID < rules[j].ID
	})
	return rules
}

// wrapComment wraps a comment to fit within maxWidth characters.
func wrapComment(text string, maxWidth int) string {
	if len(text) <= maxWidth {
		return text
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxWidth:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	return strings.Join(lines, "\n  # ")
}

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# atclint configuration
# See: https://github.com/yaklabco/atclint`
}
