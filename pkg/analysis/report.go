// Package analysis aggregates a runner result into the views reporters
// render: a flat diagnostic list, and totals per file, rule and category.
package analysis

import "time"

// Report contains pre-computed views of lint results.
// Computed once by Analyze, used by all renderers.
type Report struct {
	Diagnostics []DiagnosticEntry  `json:"diagnostics,omitempty"`
	ByFile      []FileAnalysis     `json:"byFile,omitempty"`
	ByRule      []RuleAnalysis     `json:"byRule,omitempty"`
	ByCategory  []CategoryAnalysis `json:"byCategory,omitempty"`

	// Errors lists files that could not be processed.
	Errors []FileError `json:"errors,omitempty"`

	Totals    Totals    `json:"summary"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// DiagnosticEntry represents a single diagnostic in the report.
type DiagnosticEntry struct {
	FilePath    string     `json:"filePath"`
	RuleID      string     `json:"ruleId"`
	RuleName    string     `json:"ruleName"`
	Category    string     `json:"category"`
	Severity    string     `json:"severity"`
	Message     string     `json:"message"`
	StartOffset int        `json:"startOffset"`
	EndOffset   int        `json:"endOffset"`
	StartLine   int        `json:"startLine"`
	StartColumn int        `json:"startColumn"`
	EndLine     int        `json:"endLine"`
	EndColumn   int        `json:"endColumn"`
	Suggestion  string     `json:"suggestion,omitempty"`
	HelpURL     string     `json:"helpUri,omitempty"`
	Fixable     bool       `json:"fixable"`
	FixError    string     `json:"fixError,omitempty"`
	Internal    bool       `json:"internal,omitempty"`
	Fixes       []FixEntry `json:"fixes,omitempty"`
}

// FixEntry represents one text edit of a fix. FilePath is empty for edits
// to the file the diagnostic belongs to.
type FixEntry struct {
	FilePath    string `json:"filePath,omitempty"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	NewText     string `json:"newText"`
}

// FileError records a file that failed to process.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Totals contains aggregate statistics for the report.
type Totals struct {
	Files           int `json:"filesChecked"`
	FilesWithIssues int `json:"filesWithIssues"`
	FilesCached     int `json:"filesCached"`
	FilesModified   int `json:"filesModified"`
	FilesErrored    int `json:"filesErrored"`
	Issues          int `json:"totalIssues"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Infos           int `json:"infos"`
	Fixable         int `json:"fixable"`
	Internal        int `json:"internal"`
}

// HasIssues returns true if there are any issues.
func (t Totals) HasIssues() bool {
	return t.Issues > 0
}

// HasErrors returns true if there are any errors.
func (t Totals) HasErrors() bool {
	return t.Errors > 0
}

// Counts holds per-severity issue counts.
type Counts struct {
	Issues   int `json:"issues"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

func (c *Counts) add(severity string) {
	c.Issues++
	switch severity {
	case severityError:
		c.Errors++
	case severityWarning:
		c.Warnings++
	case severityInfo:
		c.Infos++
	}
}

// FileAnalysis contains aggregated data for a single file.
type FileAnalysis struct {
	Path string `json:"path"`
	Counts
	Rules []string `json:"rules,omitempty"`
}

// RuleAnalysis contains aggregated data for a single rule.
type RuleAnalysis struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Category string `json:"category"`
	Counts
	Fixable bool     `json:"fixable"`
	Files   []string `json:"files,omitempty"`
}

// CategoryAnalysis contains aggregated data for one rule category.
type CategoryAnalysis struct {
	Category string `json:"category"`
	Counts
	Rules []string `json:"rules,omitempty"`
}
