package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/runner"
)

// plural returns word, with an "s" unless n is 1.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// FormatSummaryOneLine formats run statistics as a single line, e.g.
// "12 issues (8 errors, 4 warnings) in 3 files, 6 fixable".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	var parts []string

	if stats.DiagnosticsTotal == 0 {
		checked := plural(stats.FilesProcessed, "file") + " checked"
		if stats.FilesCached > 0 {
			checked += fmt.Sprintf(", %d cached", stats.FilesCached)
		}
		parts = append(parts, s.Success.Render("No issues found")+s.Dim.Render(" ("+checked+")"))
	} else {
		head := plural(stats.DiagnosticsTotal, "issue")

		var bySeverity []string
		if n := stats.DiagnosticsBySeverity[string(config.SeverityError)]; n > 0 {
			bySeverity = append(bySeverity, s.Error.Render(fmt.Sprintf("%d errors", n)))
		}
		if n := stats.DiagnosticsBySeverity[string(config.SeverityWarning)]; n > 0 {
			bySeverity = append(bySeverity, s.Warning.Render(fmt.Sprintf("%d warnings", n)))
		}
		if n := stats.DiagnosticsBySeverity[string(config.SeverityInfo)]; n > 0 {
			bySeverity = append(bySeverity, s.Info.Render(fmt.Sprintf("%d info", n)))
		}
		if len(bySeverity) > 0 {
			head += " (" + strings.Join(bySeverity, ", ") + ")"
		}
		parts = append(parts, head+" in "+plural(stats.FilesWithIssues, "file"))

		if stats.DiagnosticsFixable > 0 {
			parts = append(parts, s.Success.Render(fmt.Sprintf("%d fixable", stats.DiagnosticsFixable)))
		}
	}

	if stats.DiagnosticsFixed > 0 {
		parts = append(parts, s.Success.Render(fmt.Sprintf("%d fixed in %s", stats.DiagnosticsFixed, plural(stats.FilesModified, "file"))))
	}
	if stats.GlobalUsingsWrites > 0 {
		parts = append(parts, s.Success.Render("global usings updated"))
	}
	if stats.FilesSkipped > 0 {
		parts = append(parts, s.Warning.Render(plural(stats.FilesSkipped, "file")+" skipped"))
	}
	if stats.FilesFailedVerification > 0 {
		parts = append(parts, s.Error.Render(plural(stats.FilesFailedVerification, "file")+" failed fix verification"))
	}
	if stats.FilesErrored > 0 {
		parts = append(parts, s.Error.Render(plural(stats.FilesErrored, "file")+" could not be processed"))
	}

	return strings.Join(parts, ", ") + "\n"
}
