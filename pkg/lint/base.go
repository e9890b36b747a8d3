package lint

import "github.com/yaklabco/atclint/pkg/config"

// BaseRule provides a default implementation of the Rule interface.
// Embed this in rule implementations and override methods as needed.
//
// Fields are unexported to avoid stutter and name collisions with interface methods.
// Use the New* constructors or struct literal with field names.
type BaseRule struct {
	id       string           // Unique identifier (e.g., "ATC201")
	name     string           // Human-readable name
	desc     string           // Detailed description
	tags     []string         // Categorization tags
	fixable  bool             // Whether the rule can auto-fix
	disabled bool             // Off unless configured on
	severity config.Severity  // Empty means warning
}

// NewBaseRule creates a BaseRule with the given properties.
func NewBaseRule(id, name, desc string, tags []string, fixable bool) BaseRule {
	return BaseRule{
		id:      id,
		name:    name,
		desc:    desc,
		tags:    tags,
		fixable: fixable,
	}
}

// ID returns the unique identifier for this rule.
func (r *BaseRule) ID() string {
	return r.id
}

// Name returns the human-readable name of the rule.
func (r *BaseRule) Name() string {
	return r.name
}

// Description returns a detailed description of what the rule checks.
func (r *BaseRule) Description() string {
	return r.desc
}

// OffByDefault returns a copy of r that is disabled unless configured on.
func (r BaseRule) OffByDefault() BaseRule {
	r.disabled = true
	return r
}

// WithDefaultSeverity returns a copy of r with a different default severity.
func (r BaseRule) WithDefaultSeverity(sev config.Severity) BaseRule {
	r.severity = sev
	return r
}

// DefaultEnabled returns whether the rule is enabled by default.
func (r *BaseRule) DefaultEnabled() bool {
	return !r.disabled
}

// DefaultSeverity returns the default severity for this rule.
func (r *BaseRule) DefaultSeverity() config.Severity {
	if r.severity == "" {
		return config.SeverityWarning
	}
	return r.severity
}

// Category returns the category derived from the rule id.
func (r *BaseRule) Category() Category {
	return CategoryForID(r.id)
}

// Tags returns categorization tags for this rule.
func (r *BaseRule) Tags() []string {
	return r.tags
}

// CanFix returns whether this rule can auto-fix issues.
func (r *BaseRule) CanFix() bool {
	return r.fixable
}

// Apply must be overridden by concrete rule implementations.
// The default implementation returns no diagnostics.
func (r *BaseRule) Apply(_ *RuleContext) ([]Diagnostic, error) {
	return nil, nil
}
