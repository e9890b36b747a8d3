package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/fsutil"
	"github.com/yaklabco/atclint/pkg/globalusings"
)

// DefaultMaxFixPasses is the maximum number of fix passes to prevent infinite loops.
// This should be sufficient for most files - if more passes are needed, there may
// be rules that create issues for each other.
const DefaultMaxFixPasses = 10

// Pipeline error types for categorization.
var (
	// ErrFileNotFound indicates the file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrPermissionDenied indicates a permission error.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrParseFailure indicates a parsing error.
	ErrParseFailure = errors.New("parse failure")

	// ErrWriteFailure indicates a write error.
	ErrWriteFailure = errors.New("write failure")

	// ErrFixFailed indicates a fix could not be applied as a unit. Nothing
	// was left half-written.
	ErrFixFailed = errors.New("fix failed")

	// ErrIdempotence indicates a fix did not clear its own diagnostic or
	// introduced new ones.
	ErrIdempotence = errors.New("fix verification failed")
)

// ViolationKind classifies a failed fix verification.
type ViolationKind string

const (
	// ViolationIdempotence: the fixed rule still reports as many issues as
	// before its fix.
	ViolationIdempotence ViolationKind = "idempotence"

	// ViolationInterference: a rule that was not fixed reports new issues.
	ViolationInterference ViolationKind = "interference"

	// ViolationReparse: the fixed content no longer parses.
	ViolationReparse ViolationKind = "reparse"
)

// Violation records a fix pass that failed verification. The pass is
// discarded and the fixes of the offending rules are disabled for the rest
// of the file; their diagnostics stay reported.
type Violation struct {
	Kind   ViolationKind
	RuleID string
	Pass   int

	// Before, Fixed and After are the rule's diagnostic counts before the
	// pass, fixed by the pass, and found after it.
	Before int
	Fixed  int
	After  int
}

func (v Violation) String() string {
	switch v.Kind {
	case ViolationReparse:
		return fmt.Sprintf("pass %d: fixes from %s produced unparsable content", v.Pass, v.RuleID)
	case ViolationIdempotence:
		return fmt.Sprintf("pass %d: %s fixed %d of %d issues but %d remain",
			v.Pass, v.RuleID, v.Fixed, v.Before, v.After)
	default:
		return fmt.Sprintf("pass %d: %s went from %d to %d issues without being fixed",
			v.Pass, v.RuleID, v.Before, v.After)
	}
}

// PipelineResult contains the result of processing a single file through the safety pipeline.
type PipelineResult struct {
	// FileResult contains lint diagnostics and edits from the FINAL pass.
	// For multi-pass fixing, this reflects the state after all passes.
	*FileResult

	// Path is the file path that was processed.
	Path string

	// OriginalInfo is the file state before processing.
	OriginalInfo *fsutil.FileInfo

	// Modified is true if the file content was changed.
	Modified bool

	// ModifiedContent is the new content after applying edits (nil if not modified).
	ModifiedContent []byte

	// Diff is the unified diff for dry-run mode (nil if not in dry-run).
	Diff *fix.Diff

	// GlobalUsings is the change the fixes make to the global usings file,
	// nil when there is none.
	GlobalUsings *globalusings.Staged

	// GlobalDiff is the dry-run diff of the global usings file.
	GlobalDiff *fix.Diff

	// GlobalWritten is true if the global usings file was written.
	GlobalWritten bool

	// Skipped is true if the file was skipped (e.g., due to concurrent modification).
	Skipped bool

	// SkipReason explains why the file was skipped.
	SkipReason string

	// Cancelled is true when cancellation stopped the pipeline before edits
	// were applied. Diagnostics are still those of a complete evaluation.
	Cancelled bool

	// BackupCreated is true if a backup was created for this file.
	BackupCreated bool

	// Written is true if the file was written to disk.
	Written bool

	// FixPasses is the number of fix passes performed (for multi-pass fixing).
	FixPasses int

	// TotalEditsApplied is the total number of edits applied across all passes.
	TotalEditsApplied int

	// FixedByRule counts applied fixes per rule across all passes.
	FixedByRule map[string]int

	// Violations lists failed fix verifications.
	Violations []Violation
}

// Summary returns a human-readable summary of the pipeline result.
func (pr *PipelineResult) Summary() string {
	switch {
	case pr.Skipped:
		return "skipped: " + pr.SkipReason
	case pr.Cancelled:
		return "cancelled"
	case len(pr.Violations) > 0:
		return "fix verification failed"
	case pr.Written && pr.BackupCreated:
		return "fixed (backup created)"
	case pr.Written:
		return "fixed"
	case pr.Modified:
		return "changes pending"
	case pr.FileResult != nil && pr.HasIssues():
		return "issues found"
	default:
		return "ok"
	}
}

// VerificationError returns an error wrapping ErrIdempotence when any fix
// failed verification, nil otherwise.
func (pr *PipelineResult) VerificationError() error {
	if len(pr.Violations) == 0 {
		return nil
	}
	parts := make([]string, len(pr.Violations))
	for idx, v := range pr.Violations {
		parts[idx] = v.String()
	}
	return fmt.Errorf("%w: %s: %s", ErrIdempotence, pr.Path, strings.Join(parts, "; "))
}

// PipelineOptions controls safety pipeline behavior.
type PipelineOptions struct {
	// Fix enables auto-fix mode.
	Fix bool

	// DryRun generates diffs without writing files.
	DryRun bool

	// Backup configures backup behavior.
	Backup fsutil.BackupConfig

	// StrictRaceDetection uses hash comparison for modification detection.
	// When false, only mod time and size are checked.
	StrictRaceDetection bool

	// MaxFixPasses limits the number of fix iterations to prevent infinite loops.
	// When conflicting edits are skipped, a subsequent pass may be able to fix them.
	// Set to 0 to use DefaultMaxFixPasses.
	MaxFixPasses int
}

// DefaultPipelineOptions returns sensible defaults.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Fix:                 false,
		DryRun:              false,
		Backup:              fsutil.DefaultBackupConfig(),
		StrictRaceDetection: true,
	}
}

// Pipeline orchestrates the safe processing of a single file.
type Pipeline struct {
	// Engine is the lint engine used for parsing and rule execution.
	Engine *Engine
}

// NewPipeline creates a new safety pipeline with the given engine.
func NewPipeline(engine *Engine) *Pipeline {
	return &Pipeline{Engine: engine}
}

// ProcessFile runs the full safety pipeline for a single file.
//
// The pipeline performs the following steps:
//  1. Read and hash the original file.
//  2. Multi-pass fix loop (if fix mode enabled), each pass verified by
//     re-parsing and re-linting the fixed content.
//  3. Stage the global usings change the fixes need, if any.
//  4. Generate diffs (if dry-run mode).
//  5. Check for concurrent modifications.
//  6. Create backup (if enabled).
//  7. Write the file atomically, then the global usings file. If the second
//     write fails the first is rolled back.
func (p *Pipeline) ProcessFile(
	ctx context.Context,
	path string,
	cfg *config.Config,
	opts PipelineOptions,
) (*PipelineResult, error) {
	result := &PipelineResult{
		Path: path,
	}

	// Step 1: Read and hash the original file.
	originalContent, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return nil, CategorizeError(err)
	}
	result.OriginalInfo = info

	// Step 2: Multi-pass fix loop.
	content, external, err := p.fixLoop(ctx, path, originalContent, cfg, opts, result)
	if err != nil {
		return nil, err
	}
	if !result.Modified && len(external) == 0 {
		return result, nil
	}
	result.ModifiedContent = content

	store := p.Engine.GlobalUsings
	if len(external) > 0 {
		if err := p.checkExternal(path, store); err != nil {
			return nil, err
		}
	}

	// Steps 3-4: dry run stages and diffs without taking the writer lock.
	if opts.DryRun {
		if len(external) > 0 {
			staged, err := store.Stage(ctx, external)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrFixFailed, path, err)
			}
			result.GlobalUsings = staged
			result.GlobalDiff = fix.GenerateDiff(store.Path(), staged.Base.Content, staged.Content)
		}
		result.Diff = fix.GenerateDiff(path, originalContent, content)
		return result, nil
	}

	if ctx.Err() != nil {
		result.Cancelled = true
		return result, fmt.Errorf("processing cancelled: %w", ctx.Err())
	}

	// Step 5: Check for concurrent modifications before writing.
	modified, err := p.checkModified(ctx, info, opts.StrictRaceDetection)
	if err != nil {
		return nil, fmt.Errorf("check modified: %w", err)
	}
	if modified {
		result.Skipped = true
		result.SkipReason = "file modified during processing"
		return result, nil
	}

	if len(external) == 0 {
		if err := p.writePrimary(ctx, nil, path, originalContent, content, info, opts, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	// Two-file commit: hold the global usings writer lock across both writes.
	if err := store.Acquire(ctx); err != nil {
		result.Cancelled = ctx.Err() != nil
		return result, fmt.Errorf("%w: %s: %w", ErrFixFailed, path, err)
	}
	defer store.Release()

	staged, err := store.Stage(ctx, external)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFixFailed, path, err)
	}
	result.GlobalUsings = staged

	// Step 6-7: primary file first, then the companion.
	var journal fsutil.Journal
	if err := p.writePrimary(ctx, &journal, path, originalContent, content, info, opts, result); err != nil {
		return nil, err
	}

	if err := store.Commit(ctx, staged); err != nil {
		rollbackErr := journal.Rollback(ctx)
		result.Written = false
		p.Engine.debug("global usings commit failed", "file", path, "error", err, "rollback_error", rollbackErr)
		if rollbackErr != nil {
			return nil, fmt.Errorf("%w: %s: %w (rollback failed: %w)", ErrFixFailed, path, err, rollbackErr)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFixFailed, path, err)
	}
	result.GlobalWritten = staged.Changed()

	return result, nil
}

// ProcessContent processes in-memory content without file I/O.
// This is useful for testing or when content is already loaded.
// It supports multi-pass fixing just like ProcessFile. A global usings
// change is staged for inspection but never committed.
func (p *Pipeline) ProcessContent(
	ctx context.Context,
	path string,
	originalContent []byte,
	cfg *config.Config,
	opts PipelineOptions,
) (*PipelineResult, error) {
	result := &PipelineResult{
		Path: path,
	}

	content, external, err := p.fixLoop(ctx, path, originalContent, cfg, opts, result)
	if err != nil {
		return nil, err
	}
	if !result.Modified && len(external) == 0 {
		return result, nil
	}
	result.ModifiedContent = content

	if len(external) > 0 {
		store := p.Engine.GlobalUsings
		if err := p.checkExternal(path, store); err != nil {
			return nil, err
		}
		staged, err := store.Stage(ctx, external)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFixFailed, path, err)
		}
		result.GlobalUsings = staged
		if opts.DryRun {
			result.GlobalDiff = fix.GenerateDiff(store.Path(), staged.Base.Content, staged.Content)
		}
	}

	if opts.DryRun {
		result.Diff = fix.GenerateDiff(path, originalContent, content)
	}

	return result, nil
}

// fixLoop lints content and, in fix mode, applies verified fix passes until
// no fix remains or the pass limit is reached. It returns the final content
// and the accumulated edits for the global usings file.
func (p *Pipeline) fixLoop(
	ctx context.Context,
	path string,
	content []byte,
	cfg *config.Config,
	opts PipelineOptions,
	result *PipelineResult,
) ([]byte, []fix.TextEdit, error) {
	maxPasses := opts.MaxFixPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxFixPasses
	}

	passCfg := cfg.Clone()
	if passCfg == nil {
		passCfg = config.NewConfig()
	}
	passCfg.Fix = opts.Fix || opts.DryRun

	fileResult, err := p.lint(ctx, path, content, passCfg)
	if err != nil {
		return nil, nil, err
	}

	var external []fix.TextEdit
	blocked := make(map[string]string)
	result.FixedByRule = make(map[string]int)

	for pass := 1; passCfg.Fix && pass <= maxPasses && fileResult.HasFixes(); pass++ {
		// Evaluation is complete; edits must not start after cancellation.
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		next := fix.ApplyEdits(content, fileResult.Edits)
		after, err := p.lint(ctx, path, next, passCfg)
		if err != nil && !errors.Is(err, ErrParseFailure) {
			return nil, nil, err
		}

		var violations []Violation
		if err != nil {
			for _, id := range sortedKeys(fileResult.Fixed) {
				violations = append(violations, Violation{Kind: ViolationReparse, RuleID: id, Pass: pass})
			}
		} else {
			violations = verifyPass(fileResult, after, pass)
		}

		if len(violations) > 0 {
			// Discard the pass, disable the offending fixes, re-evaluate.
			result.Violations = append(result.Violations, violations...)
			for _, id := range culprits(violations, fileResult.Fixed) {
				blocked[id] = violations[0].String()
				disableAutoFix(passCfg, id)
			}
			p.Engine.debug("fix pass rejected", "file", path, "pass", pass, "violations", len(violations))

			fileResult, err = p.lint(ctx, path, content, passCfg)
			if err != nil {
				return nil, nil, err
			}
			continue
		}

		for _, fe := range fileResult.External {
			external = append(external, fe.Edits...)
		}
		for id, n := range fileResult.Fixed {
			result.FixedByRule[id] += n
		}
		content = next
		result.FixPasses++
		result.TotalEditsApplied += len(fileResult.Edits)
		result.Modified = true
		fileResult = after
	}

	for idx := range fileResult.Diagnostics {
		d := &fileResult.Diagnostics[idx]
		if reason, ok := blocked[d.RuleID]; ok && d.HasFix() {
			d.FixError = "fix disabled after failed verification: " + reason
		}
	}

	result.FileResult = fileResult
	return content, external, nil
}

func (p *Pipeline) lint(ctx context.Context, path string, content []byte, cfg *config.Config) (*FileResult, error) {
	fileResult, err := p.Engine.LintFile(ctx, path, content, cfg)
	if err != nil {
		if errors.Is(err, ErrParseFailure) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	return fileResult, nil
}

// verifyPass compares per-rule counts before and after a pass. Each rule
// may report at most its previous count minus the issues it fixed.
func verifyPass(before, after *FileResult, pass int) []Violation {
	beforeCounts := CountByRule(before.Diagnostics)
	afterCounts := CountByRule(after.Diagnostics)

	ids := make(map[string]struct{}, len(afterCounts))
	for id := range afterCounts {
		ids[id] = struct{}{}
	}

	var violations []Violation
	for _, id := range sortedKeys(ids) {
		fixed := before.Fixed[id]
		if afterCounts[id] <= beforeCounts[id]-fixed {
			continue
		}
		kind := ViolationInterference
		if fixed > 0 {
			kind = ViolationIdempotence
		}
		violations = append(violations, Violation{
			Kind:   kind,
			RuleID: id,
			Pass:   pass,
			Before: beforeCounts[id],
			Fixed:  fixed,
			After:  afterCounts[id],
		})
	}
	return violations
}

// culprits returns the rules whose fixes must be disabled. A rule that did
// not clear its own issues is blamed directly; interference and reparse
// failures blame every rule fixed in the pass.
func culprits(violations []Violation, fixed map[string]int) []string {
	var out []string
	blameAll := false
	for _, v := range violations {
		if v.Kind == ViolationIdempotence {
			out = append(out, v.RuleID)
			continue
		}
		blameAll = true
	}
	if blameAll {
		out = append(out, sortedKeys(fixed)...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func disableAutoFix(cfg *config.Config, id string) {
	if cfg.Rules == nil {
		cfg.Rules = make(map[string]config.RuleConfig)
	}
	rc := cfg.Rules[id]
	off := false
	rc.AutoFix = &off
	cfg.Rules[id] = rc
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// checkExternal verifies that every external edit targets the global
// usings file managed by the engine.
func (p *Pipeline) checkExternal(path string, store *globalusings.Store) error {
	if store == nil {
		return fmt.Errorf("%w: %s: fix edits another file but no global usings file is configured", ErrFixFailed, path)
	}
	return nil
}

// writePrimary backs up and rewrites the linted file. With a journal the
// write can be rolled back if the global usings commit fails.
func (p *Pipeline) writePrimary(
	ctx context.Context,
	journal *fsutil.Journal,
	path string,
	original, content []byte,
	info *fsutil.FileInfo,
	opts PipelineOptions,
	result *PipelineResult,
) error {
	if !result.Modified {
		return nil
	}

	created, err := fsutil.CreateBackup(ctx, path, original, info.Mode, opts.Backup)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	result.BackupCreated = created

	if journal != nil {
		err = journal.Write(ctx, path, content, original, info.Mode)
	} else {
		err = fsutil.WriteAtomic(ctx, path, content, info.Mode)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	result.Written = true
	return nil
}

// checkModified checks if a file has been modified since it was read.
func (p *Pipeline) checkModified(ctx context.Context, info *fsutil.FileInfo, strict bool) (bool, error) {
	modified, err := fsutil.CheckModified(ctx, info, strict)
	if err != nil {
		return false, fmt.Errorf("check modified: %w", err)
	}
	return modified, nil
}

// CategorizeError wraps a file read error with the matching pipeline error.
// It uses errors.Is for robust error detection rather than string matching.
func CategorizeError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, fsutil.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}

	if errors.Is(err, fsutil.ErrPermissionDenied) || errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	return err
}

// IsPipelineError checks if an error is a known pipeline error type.
func IsPipelineError(err error) bool {
	return errors.Is(err, ErrFileNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrParseFailure) ||
		errors.Is(err, ErrWriteFailure) ||
		errors.Is(err, ErrFixFailed) ||
		errors.Is(err, ErrIdempotence) ||
		errors.Is(err, ErrMissingSyntaxModel)
}

// BackupConfigFromConfig creates an fsutil.BackupConfig from config.Config.
func BackupConfigFromConfig(cfg *config.Config) fsutil.BackupConfig {
	if cfg == nil {
		return fsutil.DefaultBackupConfig()
	}
	return fsutil.BackupConfig{
		Enabled: cfg.Backups.Enabled && !cfg.NoBackups,
		Mode:    fsutil.BackupMode(cfg.Backups.Mode),
	}
}

// PipelineOptionsFromConfig creates PipelineOptions from config.Config.
func PipelineOptionsFromConfig(cfg *config.Config) PipelineOptions {
	if cfg == nil {
		return DefaultPipelineOptions()
	}
	return PipelineOptions{
		Fix:                 cfg.Fix,
		DryRun:              cfg.DryRun,
		Backup:              BackupConfigFromConfig(cfg),
		StrictRaceDetection: true,
	}
}
