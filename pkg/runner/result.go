package runner

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
)

// FileOutcome wraps PipelineResult with resolved path metadata.
type FileOutcome struct {
	// Path is the file path that was processed.
	Path string

	// Result contains the pipeline result for this file.
	// Nil if the file encountered an error during processing.
	Result *lint.PipelineResult

	// Cached is true when the diagnostics came from the result cache. The
	// result then carries no syntax snapshot.
	Cached bool

	// Error is set if the file could not be processed.
	Error error
}

// Stats captures aggregate information about a run.
type Stats struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesCached     int

	// FilesSkipped counts files left alone because they changed on disk
	// while being fixed.
	FilesSkipped int
	FilesErrored int

	// FilesFailedVerification counts files whose fixes were rejected by
	// the idempotence or interference checks.
	FilesFailedVerification int

	DiagnosticsTotal   int
	DiagnosticsFixable int

	// DiagnosticsBySeverity maps severity levels to counts.
	DiagnosticsBySeverity map[string]int

	FilesWithIssues int
	FilesModified   int

	// DiagnosticsFixed is the total number of fixes applied across all files.
	DiagnosticsFixed int

	// GlobalUsingsWrites counts commits to the global usings file.
	GlobalUsingsWrites int
}

// Result is the overall runner result.
type Result struct {
	// Files contains the outcome for each processed file, ordered by path.
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats

	// Errors contains any non-file-specific errors encountered.
	Errors []error
}

// HasFailures reports whether any diagnostics with error severity occurred.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsBySeverity[string(config.SeverityError)] > 0
}

// HasIssues reports whether any diagnostics were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsTotal > 0
}

// Err combines every file error and run error into one, or returns nil.
// File errors are prefixed with their path.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}

	var merr *multierror.Error
	for _, outcome := range r.Files {
		if outcome.Error != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", outcome.Path, outcome.Error))
		}
	}
	merr = multierror.Append(merr, r.Errors...)
	return merr.ErrorOrNil()
}

func newStats() Stats {
	return Stats{
		DiagnosticsBySeverity: make(map[string]int),
	}
}

func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	if outcome.Result == nil {
		return
	}

	r.Stats.FilesProcessed++
	if outcome.Cached {
		r.Stats.FilesCached++
	}

	pr := outcome.Result
	if pr.Skipped {
		r.Stats.FilesSkipped++
	}
	if pr.Written {
		r.Stats.FilesModified++
	}
	if pr.GlobalWritten {
		r.Stats.GlobalUsingsWrites++
	}
	if len(pr.Violations) > 0 {
		r.Stats.FilesFailedVerification++
	}

	r.Stats.DiagnosticsFixed += pr.TotalEditsApplied

	if pr.FileResult == nil {
		return
	}

	diagCount := len(pr.Diagnostics)
	r.Stats.DiagnosticsTotal += diagCount
	r.Stats.DiagnosticsFixable += pr.FixableCount()

	if diagCount > 0 {
		r.Stats.FilesWithIssues++
	}

	for _, diag := range pr.Diagnostics {
		severity := string(diag.Severity)
		if severity == "" {
			severity = string(config.SeverityWarning)
		}
		r.Stats.DiagnosticsBySeverity[severity]++
	}
}
