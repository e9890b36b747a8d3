package analysis

import (
	"cmp"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/runner"
)

// ReportVersion is the current report format version.
const ReportVersion = "1.1.0"

const (
	severityError   = string(config.SeverityError)
	severityWarning = string(config.SeverityWarning)
	severityInfo    = string(config.SeverityInfo)
)

// RelativePath converts path to one relative to workDir. If workDir is empty
// or conversion fails, path is returned unchanged.
func RelativePath(path, workDir string) string {
	if workDir == "" {
		return path
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil {
		return path
	}
	return rel
}

type group[T any] struct {
	value   *T
	members map[string]bool
}

func newGroup[T any](value *T) *group[T] {
	return &group[T]{value: value, members: make(map[string]bool)}
}

// accumulator holds state during a single pass over the result.
type accumulator struct {
	files      map[string]*group[FileAnalysis]
	rules      map[string]*group[RuleAnalysis]
	categories map[string]*group[CategoryAnalysis]
}

func (acc *accumulator) file(path string) *group[FileAnalysis] {
	g, ok := acc.files[path]
	if !ok {
		g = newGroup(&FileAnalysis{Path: path})
		acc.files[path] = g
	}
	return g
}

func (acc *accumulator) rule(diag *lint.Diagnostic) *group[RuleAnalysis] {
	g, ok := acc.rules[diag.RuleID]
	if !ok {
		g = newGroup(&RuleAnalysis{
			RuleID:   diag.RuleID,
			RuleName: diag.RuleName,
			Category: string(categoryOf(diag)),
		})
		acc.rules[diag.RuleID] = g
	}
	return g
}

func (acc *accumulator) category(name string) *group[CategoryAnalysis] {
	g, ok := acc.categories[name]
	if !ok {
		g = newGroup(&CategoryAnalysis{Category: name})
		acc.categories[name] = g
	}
	return g
}

func categoryOf(diag *lint.Diagnostic) lint.Category {
	if diag.Category != "" {
		return diag.Category
	}
	return lint.CategoryForID(diag.RuleID)
}

func normalizeSeverity(sev config.Severity) string {
	if sev == "" {
		return severityWarning
	}
	return string(sev)
}

func newDiagnosticEntry(path, severity string, diag *lint.Diagnostic, withFixes bool) DiagnosticEntry {
	entry := DiagnosticEntry{
		FilePath:    path,
		RuleID:      diag.RuleID,
		RuleName:    diag.RuleName,
		Category:    string(categoryOf(diag)),
		Severity:    severity,
		Message:     diag.Message,
		StartOffset: diag.StartOffset,
		EndOffset:   diag.EndOffset,
		StartLine:   diag.StartLine,
		StartColumn: diag.StartColumn,
		EndLine:     diag.EndLine,
		EndColumn:   diag.EndColumn,
		Suggestion:  diag.Suggestion,
		HelpURL:     diag.HelpURL,
		Fixable:     diag.Fixable,
		FixError:    diag.FixError,
		Internal:    diag.Internal,
	}
	if !withFixes || diag.Fix == nil {
		return entry
	}

	for _, edit := range diag.Fix.Primary {
		entry.Fixes = append(entry.Fixes, FixEntry{
			StartOffset: edit.StartOffset,
			EndOffset:   edit.EndOffset,
			NewText:     edit.NewText,
		})
	}
	for _, fe := range diag.Fix.External {
		for _, edit := range fe.Edits {
			entry.Fixes = append(entry.Fixes, FixEntry{
				FilePath:    fe.Path,
				StartOffset: edit.StartOffset,
				EndOffset:   edit.EndOffset,
				NewText:     edit.NewText,
			})
		}
	}
	return entry
}

// Analyze transforms a runner.Result into a Report in a single pass over
// its diagnostics.
func Analyze(result *runner.Result, opts Options) *Report {
	report := &Report{
		Version:   ReportVersion,
		Timestamp: time.Now(),
	}

	if result == nil {
		return report
	}

	acc := &accumulator{
		files:      make(map[string]*group[FileAnalysis]),
		rules:      make(map[string]*group[RuleAnalysis]),
		categories: make(map[string]*group[CategoryAnalysis]),
	}

	for _, outcome := range result.Files {
		report.Totals.Files++
		displayPath := RelativePath(outcome.Path, opts.WorkingDir)

		if outcome.Error != nil {
			report.Totals.FilesErrored++
			report.Errors = append(report.Errors, FileError{Path: displayPath, Message: outcome.Error.Error()})
			continue
		}
		if outcome.Cached {
			report.Totals.FilesCached++
		}
		if outcome.Result == nil {
			continue
		}
		if outcome.Result.Written {
			report.Totals.FilesModified++
		}
		if outcome.Result.FileResult == nil {
			continue
		}
		if len(outcome.Result.Diagnostics) > 0 {
			report.Totals.FilesWithIssues++
		}

		fileGroup := acc.file(displayPath)
		for idx := range outcome.Result.Diagnostics {
			diag := &outcome.Result.Diagnostics[idx]
			severity := normalizeSeverity(diag.Severity)

			report.Totals.Issues++
			switch severity {
			case severityError:
				report.Totals.Errors++
			case severityWarning:
				report.Totals.Warnings++
			case severityInfo:
				report.Totals.Infos++
			}
			if diag.Fixable {
				report.Totals.Fixable++
			}
			if diag.Internal {
				report.Totals.Internal++
			}

			fileGroup.value.add(severity)
			fileGroup.members[diag.RuleID] = true

			ruleGroup := acc.rule(diag)
			ruleGroup.value.add(severity)
			ruleGroup.value.Fixable = ruleGroup.value.Fixable || diag.Fixable
			ruleGroup.members[displayPath] = true

			catGroup := acc.category(ruleGroup.value.Category)
			catGroup.value.add(severity)
			catGroup.members[diag.RuleID] = true

			if opts.IncludeDiagnostics {
				report.Diagnostics = append(report.Diagnostics,
					newDiagnosticEntry(displayPath, severity, diag, opts.IncludeFixes))
			}
		}
	}

	if opts.IncludeByFile {
		report.ByFile = collect(acc.files, func(fa *FileAnalysis, members []string) { fa.Rules = members })
		sortGroups(report.ByFile, opts, func(fa FileAnalysis) (string, Counts) { return fa.Path, fa.Counts })
	}
	if opts.IncludeByRule {
		report.ByRule = collect(acc.rules, func(ra *RuleAnalysis, members []string) { ra.Files = members })
		sortGroups(report.ByRule, opts, func(ra RuleAnalysis) (string, Counts) { return ra.RuleID, ra.Counts })
	}
	if opts.IncludeByCategory {
		report.ByCategory = collect(acc.categories, func(ca *CategoryAnalysis, members []string) { ca.Rules = members })
		sortGroups(report.ByCategory, opts, func(ca CategoryAnalysis) (string, Counts) { return ca.Category, ca.Counts })
	}

	return report
}

// collect flattens groups, skipping those without issues, and attaches
// their sorted member lists.
func collect[T any](groups map[string]*group[T], attach func(*T, []string)) []T {
	var out []T
	for _, g := range groups {
		members := slices.Sorted(maps.Keys(g.members))
		if len(members) == 0 {
			continue
		}
		attach(g.value, members)
		out = append(out, *g.value)
	}
	return out
}

func sortGroups[T any](items []T, opts Options, key func(T) (string, Counts)) {
	slices.SortFunc(items, func(left, right T) int {
		leftName, leftCounts := key(left)
		rightName, rightCounts := key(right)

		var result int
		switch opts.SortBy {
		case SortByAlpha:
		case SortBySeverity:
			result = cmp.Or(
				cmp.Compare(rightCounts.Errors, leftCounts.Errors),
				cmp.Compare(rightCounts.Warnings, leftCounts.Warnings),
				cmp.Compare(rightCounts.Issues, leftCounts.Issues),
			)
		default:
			result = cmp.Compare(leftCounts.Issues, rightCounts.Issues)
			if opts.SortDesc {
				result = -result
			}
		}
		return cmp.Or(result, cmp.Compare(leftName, rightName))
	})
}
