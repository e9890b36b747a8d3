// Package lint provides the rule engine, diagnostics, and registry for atclint.
package lint

import (
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
)

// Diagnostic represents a single lint issue found in a file.
type Diagnostic struct {
	// RuleID is the identifier of the rule that produced this diagnostic (e.g., "ATC201").
	RuleID string

	// RuleName is the human-readable name of the rule (e.g., "parameter-layout").
	RuleName string

	// Category is derived from the numeric band of RuleID.
	Category Category

	// Message is the human-readable description of the issue.
	Message string

	// Severity indicates the importance of the diagnostic.
	Severity config.Severity

	// FilePath is the path to the file containing the issue.
	FilePath string

	// StartOffset and EndOffset delimit the reported span in bytes.
	StartOffset int
	EndOffset   int

	// StartLine is the 1-based line number where the issue starts.
	StartLine int

	// StartColumn is the 1-based column number where the issue starts.
	StartColumn int

	// EndLine is the 1-based line number where the issue ends.
	EndLine int

	// EndColumn is the 1-based column number where the issue ends.
	EndColumn int

	// Suggestion is an optional human-readable fix suggestion.
	Suggestion string

	// HelpURL links to the rule documentation.
	HelpURL string

	// Fixable reports whether the rule offered a fix for this issue. It stays
	// true when the fix was later rejected; FixError then says why.
	Fixable bool

	// Fix holds the edits that remove the issue, possibly spanning files.
	Fix *fix.EditSet

	// Internal marks a diagnostic that reports a rule failure rather than a
	// style violation.
	Internal bool

	// FixError is set when a fix was offered but not applied.
	FixError string
}

// HasFix returns true if this diagnostic has associated fix edits.
func (d *Diagnostic) HasFix() bool {
	return !d.Fix.IsEmpty()
}

// SourcePosition returns the diagnostic position as a SourcePosition.
func (d *Diagnostic) SourcePosition() csast.SourcePosition {
	return csast.SourcePosition{
		StartLine:   d.StartLine,
		StartColumn: d.StartColumn,
		EndLine:     d.EndLine,
		EndColumn:   d.EndColumn,
	}
}

// SourceRange returns the diagnostic span as byte offsets.
func (d *Diagnostic) SourceRange() csast.SourceRange {
	return csast.SourceRange{StartOffset: d.StartOffset, EndOffset: d.EndOffset}
}

// Rule defines the interface that all lint rules must implement.
type Rule interface {
	// ID returns the unique identifier for this rule (e.g., "ATC201").
	ID() string

	// Name returns the human-readable name of the rule.
	Name() string

	// Description returns a detailed description of what the rule checks.
	Description() string

	// DefaultEnabled returns whether the rule is enabled by default.
	DefaultEnabled() bool

	// DefaultSeverity returns the default severity for this rule.
	DefaultSeverity() config.Severity

	// Tags returns categorization tags for this rule (e.g., ["layout", "declarations"]).
	Tags() []string

	// CanFix returns whether this rule can auto-fix issues.
	CanFix() bool

	// Apply executes the rule against the given context and returns diagnostics.
	//
	// Rules must:
	//   - Treat the context as read-only.
	//   - Attach fixes with DiagnosticBuilder.WithFix (if CanFix() is true).
	//   - Respect context cancellation.
	//   - Return error only for internal failures, not violations.
	Apply(ctx *RuleContext) ([]Diagnostic, error)
}
