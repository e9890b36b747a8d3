package lint

import (
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
)

// DiagnosticBuilder helps construct Diagnostic values.
type DiagnosticBuilder struct {
	diag Diagnostic
}

// NewDiagnostic starts building a diagnostic for the given rule and node.
func NewDiagnostic(ruleID string, node *csast.Node, message string) *DiagnosticBuilder {
	if node == nil {
		return NewDiagnosticAt(ruleID, nil, csast.SourceRange{}, message)
	}
	return NewDiagnosticAt(ruleID, node.File, node.SourceRange(), message)
}

// NewDiagnosticAt starts building a diagnostic for a byte range of file.
func NewDiagnosticAt(
	ruleID string,
	file *csast.FileSnapshot,
	span csast.SourceRange,
	message string,
) *DiagnosticBuilder {
	diag := Diagnostic{
		RuleID:      ruleID,
		Message:     message,
		StartOffset: span.StartOffset,
		EndOffset:   span.EndOffset,
	}

	if file != nil {
		pos := file.PositionOf(span)
		diag.FilePath = file.Path
		diag.StartLine = pos.StartLine
		diag.StartColumn = pos.StartColumn
		diag.EndLine = pos.EndLine
		diag.EndColumn = pos.EndColumn
	}

	return &DiagnosticBuilder{diag: diag}
}

// WithSeverity sets the severity.
func (b *DiagnosticBuilder) WithSeverity(s config.Severity) *DiagnosticBuilder {
	b.diag.Severity = s
	return b
}

// WithSuggestion sets a human-readable fix suggestion.
func (b *DiagnosticBuilder) WithSuggestion(s string) *DiagnosticBuilder {
	b.diag.Suggestion = s
	return b
}

// WithFix attaches a complete edit set. A nil or empty set is ignored.
func (b *DiagnosticBuilder) WithFix(set *fix.EditSet) *DiagnosticBuilder {
	if !set.IsEmpty() {
		b.diag.Fix = set
	}
	return b
}

// WithEdits attaches the edits accumulated by an EditBuilder as primary edits.
func (b *DiagnosticBuilder) WithEdits(builder *fix.EditBuilder) *DiagnosticBuilder {
	if builder == nil || builder.Len() == 0 {
		return b
	}
	return b.WithFix(builder.Set())
}

// WithEdit adds a single primary edit.
func (b *DiagnosticBuilder) WithEdit(edit fix.TextEdit) *DiagnosticBuilder {
	if b.diag.Fix == nil {
		b.diag.Fix = &fix.EditSet{}
	}
	b.diag.Fix.Primary = append(b.diag.Fix.Primary, edit)
	return b
}

// Build returns the constructed Diagnostic.
func (b *DiagnosticBuilder) Build() Diagnostic {
	diag := b.diag
	diag.Category = CategoryForID(diag.RuleID)
	diag.HelpURL = HelpURL(diag.RuleID)
	diag.Fixable = diag.HasFix()
	return diag
}
