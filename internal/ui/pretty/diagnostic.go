package pretty

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
)

// contextIndent aligns source context under the diagnostic line.
const contextIndent = "        "

// FormatDiagnosticWithFormat renders one diagnostic:
//
//	  path:line:col  severity  message  (rule)
//	        source line
//	        ^
//	    Suggestion: ...
//
// The context lines appear only when showContext is set and sourceLine is
// known.
func (s *Styles) FormatDiagnosticWithFormat(diag *lint.Diagnostic, showContext bool, sourceLine string, ruleFormat config.RuleFormat) string {
	var builder strings.Builder

	location := fmt.Sprintf("%s:%d:%d", s.FilePath.Render(diag.FilePath), diag.StartLine, diag.StartColumn)
	rule := config.FormatRuleID(ruleFormat, diag.RuleID, diag.RuleName)

	fmt.Fprintf(&builder, "  %s  %s  %s  %s\n",
		location,
		s.FormatSeverity(diag.Severity),
		s.Message.Render(diag.Message),
		s.RuleID.Render("("+rule+")"),
	)

	if showContext && sourceLine != "" {
		builder.WriteString(s.FormatSourceContext(sourceLine, diag.StartColumn))
	}
	if diag.Suggestion != "" {
		builder.WriteString("    " + s.Dim.Render("Suggestion:") + " " + s.Suggestion.Render(diag.Suggestion) + "\n")
	}
	if diag.FixError != "" {
		builder.WriteString("    " + s.Dim.Render("Fix not applied:") + " " + s.Warning.Render(diag.FixError) + "\n")
	}

	return builder.String()
}

// FormatSeverity returns a styled severity string. An unset severity reads
// as warning.
func (s *Styles) FormatSeverity(sev config.Severity) string {
	switch sev {
	case config.SeverityError:
		return s.Error.Render("error")
	case config.SeverityInfo:
		return s.Info.Render("info")
	case config.SeverityWarning, "":
		return s.Warning.Render("warning")
	default:
		return string(sev)
	}
}

// FormatSourceContext renders line with a caret under the 1-based byte
// column. The caret is padded by the display width of the text before it,
// with tabs expanded the way the source line style expands them.
func (s *Styles) FormatSourceContext(line string, column int) string {
	var builder strings.Builder
	builder.WriteString(contextIndent + s.SourceLine.Render(line) + "\n")

	if column < 1 {
		return builder.String()
	}

	tab := "\t"
	if width := s.SourceLine.GetTabWidth(); width >= 0 {
		tab = strings.Repeat(" ", width)
	}

	prefix := line[:min(column-1, len(line))]
	var pad strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			pad.WriteString(tab)
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	builder.WriteString(contextIndent + pad.String() + s.Caret.Render("^") + "\n")

	return builder.String()
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	switch {
	case issueCount == 1:
		header += s.Dim.Render(" (1 issue)")
	case issueCount > 1:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issueCount))
	}
	return header
}
