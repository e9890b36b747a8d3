package reporter

import (
	"bufio"
	"context"
	"fmt"

	"github.com/yaklabco/atclint/internal/ui/pretty"
	"github.com/yaklabco/atclint/pkg/analysis"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/runner"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(pretty.IsColorEnabled(opts.Color, opts.Writer)),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	bw := bufio.NewWriterSize(r.opts.Writer, bufWriterSize)
	defer func() {
		if flushErr := bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil || len(result.Files) == 0 {
		if r.opts.ShowSummary {
			fmt.Fprintln(bw, r.styles.Success.Render("No files to check."))
		}
		return 0, nil
	}

	var total int
	for _, file := range result.Files {
		displayPath := analysis.RelativePath(file.Path, r.opts.WorkingDir)

		if file.Error != nil {
			fmt.Fprintf(bw, "%s: %s\n",
				r.styles.FilePath.Render(displayPath),
				r.styles.Error.Render(fmt.Sprintf("error: %v", file.Error)),
			)
			continue
		}
		if file.Result == nil {
			continue
		}
		if file.Result.Skipped {
			fmt.Fprintf(bw, "%s: %s\n",
				r.styles.FilePath.Render(displayPath),
				r.styles.Warning.Render("skipped: "+file.Result.SkipReason),
			)
		}
		if file.Result.FileResult == nil || len(file.Result.Diagnostics) == 0 {
			continue
		}

		diagnostics := file.Result.Diagnostics
		if r.opts.GroupByFile {
			fmt.Fprintln(bw, r.styles.FormatFileHeader(displayPath, len(diagnostics)))
		}

		for idx := range diagnostics {
			diag := diagnostics[idx]
			diag.FilePath = displayPath

			var sourceLine string
			if r.opts.ShowContext {
				sourceLine = getSourceLine(file.Result.Snapshot, diag.StartLine)
			}

			fmt.Fprint(bw, r.styles.FormatDiagnosticWithFormat(&diag, r.opts.ShowContext, sourceLine, r.opts.RuleFormat))
			total++
		}

		if r.opts.GroupByFile {
			fmt.Fprintln(bw)
		}
	}

	if r.opts.ShowSummary {
		fmt.Fprint(bw, r.styles.FormatSummaryOneLine(result.Stats))
	}

	return total, nil
}

// getSourceLine returns line lineNum of the snapshot. Cached results carry
// no snapshot and yield "".
func getSourceLine(snapshot *csast.FileSnapshot, lineNum int) string {
	if snapshot == nil {
		return ""
	}
	return string(snapshot.LineContent(lineNum))
}
