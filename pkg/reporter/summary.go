package reporter

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/yaklabco/atclint/internal/ui/pretty"
	"github.com/yaklabco/atclint/pkg/analysis"
	"github.com/yaklabco/atclint/pkg/config"
)

// Column widths of the summary tables, in terminal cells.
const (
	tableWidth      = 90
	nameColWidth    = 30
	fileColWidth    = 60
	numColWidth     = 7
	warnColWidth    = 8
	fixableColWidth = 8
)

// SummaryRenderer formats results as aggregated tables: one per category,
// rule and file.
type SummaryRenderer struct {
	opts   Options
	styles *pretty.Styles
	out    io.Writer
}

// NewSummaryRenderer creates a new summary renderer.
func NewSummaryRenderer(opts Options) *SummaryRenderer {
	return &SummaryRenderer{
		opts:   opts,
		styles: pretty.NewStyles(pretty.IsColorEnabled(opts.Color, opts.Writer)),
		out:    opts.Writer,
	}
}

// Render implements Renderer.
func (r *SummaryRenderer) Render(_ context.Context, report *analysis.Report) error {
	for _, fe := range report.Errors {
		fmt.Fprintf(r.out, "%s: %s\n",
			r.styles.FilePath.Render(fe.Path),
			r.styles.Error.Render("error: "+fe.Message),
		)
	}

	if report.Totals.Issues == 0 {
		fmt.Fprintln(r.out, r.styles.Success.Render("No issues found"))
		return nil
	}

	r.renderCategoryTable(report.ByCategory)
	r.renderRuleTable(report.ByRule)
	r.renderFileTable(report.ByFile)
	r.renderTotals(report.Totals)

	return nil
}

// padRight and padLeft pad by display width. Padding must happen before
// styling so ANSI sequences are not counted.
func padRight(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func padLeft(s string, width int) string {
	return runewidth.FillLeft(s, width)
}

// truncateLeft keeps the end of a path, which is the part that identifies it.
func truncateLeft(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && runewidth.StringWidth(string(runes))+1 > width {
		runes = runes[1:]
	}
	return "…" + string(runes)
}

func (r *SummaryRenderer) tableHeader(title string, columns ...string) {
	fmt.Fprintln(r.out, r.styles.Bold.Render(title))
	fmt.Fprintln(r.out, r.styles.TableSeparator.Render(strings.Repeat("─", tableWidth)))
	fmt.Fprintln(r.out, r.styles.TableHeader.Render(strings.Join(columns, " ")))
	fmt.Fprintln(r.out, r.styles.TableSeparator.Render(strings.Repeat("─", tableWidth)))
}

func (r *SummaryRenderer) styleName(padded string, counts analysis.Counts) string {
	switch {
	case counts.Errors > 0:
		return r.styles.TableErrorRow.Render(padded)
	case counts.Warnings > 0:
		return r.styles.TableWarnRow.Render(padded)
	default:
		return padded
	}
}

func (r *SummaryRenderer) countColumns(counts analysis.Counts) string {
	return strings.Join([]string{
		padLeft(strconv.Itoa(counts.Issues), numColWidth),
		padLeft(strconv.Itoa(counts.Errors), numColWidth),
		padLeft(strconv.Itoa(counts.Warnings), warnColWidth),
	}, " ")
}

func (r *SummaryRenderer) renderCategoryTable(categories []analysis.CategoryAnalysis) {
	if len(categories) == 0 {
		return
	}

	r.tableHeader("Categories",
		padRight("Category", nameColWidth),
		padLeft("Count", numColWidth),
		padLeft("Errors", numColWidth),
		padLeft("Warnings", warnColWidth),
	)
	for _, category := range categories {
		fmt.Fprintf(r.out, "%s %s\n",
			r.styleName(padRight(category.Category, nameColWidth), category.Counts),
			r.countColumns(category.Counts),
		)
	}
	fmt.Fprintln(r.out)
}

func (r *SummaryRenderer) renderRuleTable(rules []analysis.RuleAnalysis) {
	if len(rules) == 0 {
		return
	}

	r.tableHeader("Rules",
		padRight("Rule", nameColWidth),
		padLeft("Count", numColWidth),
		padLeft("Errors", numColWidth),
		padLeft("Warnings", warnColWidth),
		padLeft("Fixable", fixableColWidth),
	)
	for _, rule := range rules {
		name := config.FormatRuleID(r.opts.RuleFormat, rule.RuleID, rule.RuleName)

		fixable := padLeft("", fixableColWidth)
		if rule.Fixable {
			fixable = r.styles.Success.Render(padLeft("✓", fixableColWidth))
		}

		fmt.Fprintf(r.out, "%s %s %s\n",
			r.styleName(padRight(name, nameColWidth), rule.Counts),
			r.countColumns(rule.Counts),
			fixable,
		)
	}
	fmt.Fprintln(r.out)
}

func (r *SummaryRenderer) renderFileTable(files []analysis.FileAnalysis) {
	if len(files) == 0 {
		return
	}

	r.tableHeader("Files",
		padRight("File", fileColWidth),
		padLeft("Count", numColWidth),
		padLeft("Errors", numColWidth),
		padLeft("Warnings", warnColWidth),
	)
	for _, file := range files {
		fmt.Fprintf(r.out, "%s %s\n",
			r.styleName(padRight(truncateLeft(file.Path, fileColWidth), fileColWidth), file.Counts),
			r.countColumns(file.Counts),
		)
	}
	fmt.Fprintln(r.out)
}

func (r *SummaryRenderer) renderTotals(totals analysis.Totals) {
	issueWord := "issues"
	if totals.Issues == 1 {
		issueWord = "issue"
	}
	line := fmt.Sprintf("%d %s", totals.Issues, issueWord)

	var severityParts []string
	if totals.Errors > 0 {
		severityParts = append(severityParts, r.styles.Error.Render(fmt.Sprintf("%d errors", totals.Errors)))
	}
	if totals.Warnings > 0 {
		severityParts = append(severityParts, r.styles.Warning.Render(fmt.Sprintf("%d warnings", totals.Warnings)))
	}
	if totals.Infos > 0 {
		severityParts = append(severityParts, r.styles.Info.Render(fmt.Sprintf("%d info", totals.Infos)))
	}
	if len(severityParts) > 0 {
		line += " (" + strings.Join(severityParts, ", ") + ")"
	}

	fileWord := "files"
	if totals.FilesWithIssues == 1 {
		fileWord = "file"
	}
	line += fmt.Sprintf(" in %d %s", totals.FilesWithIssues, fileWord)

	if totals.Fixable > 0 {
		line += ", " + r.styles.Success.Render(fmt.Sprintf("%d fixable", totals.Fixable))
	}

	fmt.Fprintln(r.out, r.styles.Bold.Render("Total: ")+line)
}
