// Package pretty renders diagnostics and run summaries for terminals using
// lipgloss.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles used by the text, diff and summary
// output. Without color every style renders its input unchanged.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	FilePath   lipgloss.Style
	RuleID     lipgloss.Style
	Message    lipgloss.Style
	Suggestion lipgloss.Style
	SourceLine lipgloss.Style
	Caret      lipgloss.Style

	DiffHeader  lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style

	Success lipgloss.Style

	TableHeader    lipgloss.Style
	TableSeparator lipgloss.Style
	TableErrorRow  lipgloss.Style
	TableWarnRow   lipgloss.Style

	Dim  lipgloss.Style
	Bold lipgloss.Style
}

// ANSI 16-color indices.
const (
	colorRed    = lipgloss.Color("9")
	colorGreen  = lipgloss.Color("10")
	colorYellow = lipgloss.Color("11")
	colorBlue   = lipgloss.Color("12")
	colorCyan   = lipgloss.Color("14")
	colorGray   = lipgloss.Color("8")
	colorLight  = lipgloss.Color("7")
)

// sourceTabWidth is the number of spaces a tab expands to in source lines.
const sourceTabWidth = 4

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &Styles{
			Error: plain, Warning: plain, Info: plain,
			FilePath: plain, RuleID: plain, Message: plain, Suggestion: plain, Caret: plain,
			SourceLine: plain.TabWidth(sourceTabWidth),
			DiffHeader: plain, DiffHunk: plain, DiffAdd: plain, DiffRemove: plain, DiffContext: plain,
			Success:     plain,
			TableHeader: plain, TableSeparator: plain, TableErrorRow: plain, TableWarnRow: plain,
			Dim: plain, Bold: plain,
		}
	}

	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return &Styles{
		Error:   fg(colorRed).Bold(true),
		Warning: fg(colorYellow).Bold(true),
		Info:    fg(colorBlue).Bold(true),

		FilePath:   lipgloss.NewStyle().Bold(true),
		RuleID:     fg(colorGray),
		Message:    lipgloss.NewStyle(),
		Suggestion: fg(colorGreen).Italic(true),
		SourceLine: fg(colorLight).TabWidth(sourceTabWidth),
		Caret:      fg(colorRed),

		DiffHeader:  lipgloss.NewStyle().Bold(true),
		DiffHunk:    fg(colorCyan),
		DiffAdd:     fg(colorGreen),
		DiffRemove:  fg(colorRed),
		DiffContext: fg(colorGray),

		Success: fg(colorGreen).Bold(true),

		TableHeader:    fg(colorLight).Bold(true),
		TableSeparator: fg(colorGray),
		TableErrorRow:  fg(colorRed),
		TableWarnRow:   fg(colorYellow),

		Dim:  fg(colorGray),
		Bold: lipgloss.NewStyle().Bold(true),
	}
}

// IsColorEnabled resolves a color mode ("auto", "always" or "never") for
// writer. Auto enables color only for terminals, and never when NO_COLOR
// is set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
