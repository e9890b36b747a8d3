package logging

// Structured field keys.
const (
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldFiles      = "files"
	FieldWorkingDir = "working_dir"
	FieldConfig     = "config"

	// Run settings.
	FieldFix    = "fix"
	FieldDryRun = "dry_run"
	FieldJobs   = "jobs"
	FieldFormat = "format"
	FieldCache  = "cache"

	// Per-file processing.
	FieldRule         = "rule"
	FieldPass         = "pass"
	FieldEdits        = "edits"
	FieldCached       = "cached"
	FieldGlobalUsings = "global_usings"

	// Run statistics.
	FieldFilesDiscovered  = "files_discovered"
	FieldFilesProcessed   = "files_processed"
	FieldFilesCached      = "files_cached"
	FieldFilesWithIssues  = "files_with_issues"
	FieldFilesModified    = "files_modified"
	FieldDiagnosticsTotal = "diagnostics_total"
	FieldDuration         = "duration"

	// Build information.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"

	// Rule listings.
	FieldName        = "name"
	FieldCategory    = "category"
	FieldSeverity    = "severity"
	FieldFixable     = "fixable"
	FieldDescription = "description"
)
