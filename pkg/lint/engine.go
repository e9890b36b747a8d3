package lint

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/globalusings"
)

// ErrMissingSyntaxModel is returned when a file has no usable syntax model.
// It is a tool-level error: no rule runs for the file.
var ErrMissingSyntaxModel = errors.New("missing or malformed syntax model")

// FileResult contains the results of linting a single file.
type FileResult struct {
	// Snapshot is the parsed file.
	Snapshot *csast.FileSnapshot

	// Diagnostics contains all issues found, in report order.
	Diagnostics []Diagnostic

	// Edits contains the merged primary edits of the selected fixes,
	// sorted ascending. Empty when no fix is enabled.
	Edits []fix.TextEdit

	// External contains the merged edits the selected fixes make to other
	// files (the global usings file).
	External []fix.FileEdits

	// Fixed counts, per rule id, the diagnostics whose fixes were selected.
	Fixed map[string]int

	// SkippedFixes counts fixes rejected because they were invalid or
	// conflicted with an earlier fix.
	SkippedFixes int

	// EditConflicts is true if any fix was skipped due to conflicts.
	EditConflicts bool

	// RuleErrors contains errors and panics from rule execution.
	RuleErrors map[string]error
}

// HasIssues returns true if any diagnostics were found.
func (fr *FileResult) HasIssues() bool {
	return len(fr.Diagnostics) > 0
}

// HasFixes returns true if any fixes were selected.
func (fr *FileResult) HasFixes() bool {
	return len(fr.Edits) > 0 || len(fr.External) > 0
}

// IssueCount returns the total number of diagnostics.
func (fr *FileResult) IssueCount() int {
	return len(fr.Diagnostics)
}

// FixableCount returns the number of diagnostics with fixes.
func (fr *FileResult) FixableCount() int {
	count := 0
	for _, d := range fr.Diagnostics {
		if d.HasFix() {
			count++
		}
	}
	return count
}

// ExternalFor returns the selected edits for the file at path.
func (fr *FileResult) ExternalFor(path string) []fix.TextEdit {
	for _, fe := range fr.External {
		if fe.Path == path {
			return fe.Edits
		}
	}
	return nil
}

// Engine coordinates parsing and rule execution for linting.
type Engine struct {
	// Parser parses C# files into FileSnapshots.
	Parser Parser

	// Registry holds all available rules.
	Registry *Registry

	// GlobalUsings provides the shared global usings file. May be nil.
	GlobalUsings *globalusings.Store

	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

// NewEngine creates a new Engine with the given parser and registry.
func NewEngine(parser Parser, registry *Registry) *Engine {
	return &Engine{
		Parser:   parser,
		Registry: registry,
	}
}

// LintFile parses and lints a single file.
func (e *Engine) LintFile(
	ctx context.Context,
	path string,
	content []byte,
	cfg *config.Config,
) (*FileResult, error) {
	snapshot, err := e.Parser.Parse(ctx, path, content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("linting cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFailure, path, err)
	}
	return e.LintSnapshot(ctx, snapshot, cfg)
}

// LintSnapshot runs the enabled rules over an already parsed file.
//
// Each rule runs in isolation: an error or panic becomes an internal-error
// diagnostic for that rule and the remaining rules still run. When auto-fix
// is enabled, whole fixes are selected greedily in report order; a fix that
// is invalid or overlaps an earlier one is skipped and its diagnostic stays
// reported with FixError set.
func (e *Engine) LintSnapshot(
	ctx context.Context,
	snapshot *csast.FileSnapshot,
	cfg *config.Config,
) (*FileResult, error) {
	if err := checkSnapshot(snapshot); err != nil {
		return nil, err
	}

	resolved := ResolveRules(e.Registry, cfg)

	result := &FileResult{
		Snapshot:   snapshot,
		Fixed:      make(map[string]int),
		RuleErrors: make(map[string]error),
	}

	var globals *globalusings.Snapshot
	if e.GlobalUsings != nil {
		globals = e.GlobalUsings.Snapshot()
	}

	cache := newNodeCache()
	collector := NewCollector()
	autoFix := make(map[string]bool, len(resolved))

	for _, rr := range resolved {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("linting cancelled: %w", ctx.Err())
		default:
		}

		ruleCtx := NewRuleContext(ctx, snapshot, cfg, rr.Config)
		ruleCtx.Registry = e.Registry
		ruleCtx.GlobalUsings = globals
		ruleCtx.nodes = cache

		diags, err := runRule(rr.Rule, ruleCtx)
		if err != nil {
			result.RuleErrors[rr.Rule.ID()] = err
			e.debug("rule failed", "rule", rr.Rule.ID(), "file", snapshot.Path, "error", err)
			collector.Add(internalDiagnostic(rr.Rule, snapshot, err))
			continue
		}

		autoFix[rr.Rule.ID()] = rr.AutoFix
		for idx := range diags {
			d := &diags[idx]
			d.RuleID = rr.Rule.ID()
			d.RuleName = rr.Rule.Name()
			d.Severity = rr.Severity
			d.Category = CategoryForID(d.RuleID)
			d.HelpURL = HelpURL(d.RuleID)
			d.Fixable = d.HasFix()
			if d.FilePath == "" {
				d.FilePath = snapshot.Path
			}
		}
		collector.Add(diags...)
	}

	result.Diagnostics = collector.Diagnostics()
	e.selectFixes(result, autoFix)

	return result, nil
}

// selectFixes picks the fixes to apply and records why others were skipped.
func (e *Engine) selectFixes(result *FileResult, autoFix map[string]bool) {
	var sets []*fix.EditSet
	var owners []int
	for idx := range result.Diagnostics {
		d := &result.Diagnostics[idx]
		if !autoFix[d.RuleID] || !d.HasFix() {
			continue
		}
		sets = append(sets, d.Fix)
		owners = append(owners, idx)
	}
	if len(sets) == 0 {
		return
	}

	accepted, rejected := fix.SelectSets(sets, len(result.Snapshot.Content))

	chosen := make([]*fix.EditSet, 0, len(accepted))
	for _, idx := range accepted {
		chosen = append(chosen, sets[idx])
		result.Fixed[result.Diagnostics[owners[idx]].RuleID]++
	}
	result.Edits, result.External = fix.MergeSets(chosen)

	for _, idx := range rejected {
		d := &result.Diagnostics[owners[idx]]
		if err := d.Fix.Validate(len(result.Snapshot.Content)); err != nil {
			d.FixError = "invalid fix: " + err.Error()
		} else {
			d.FixError = "fix conflicts with another fix; rerun to apply"
			result.EditConflicts = true
		}
	}
	result.SkippedFixes = len(rejected)
	if len(rejected) > 0 {
		e.debug("fixes skipped", "file", result.Snapshot.Path, "count", len(rejected))
	}
}

// runRule applies rule, converting a panic into an error.
func runRule(rule Rule, ctx *RuleContext) (diags []Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			diags = nil
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return rule.Apply(ctx)
}

// internalDiagnostic reports a rule failure at the start of the file.
func internalDiagnostic(rule Rule, snapshot *csast.FileSnapshot, err error) Diagnostic {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	d := NewDiagnosticAt(rule.ID(), snapshot, csast.SourceRange{}, "internal error in rule "+rule.ID()+": "+msg).
		WithSeverity(config.SeverityError).
		Build()
	d.RuleName = rule.Name()
	d.Internal = true
	if d.StartLine == 0 {
		d.StartLine, d.StartColumn, d.EndLine, d.EndColumn = 1, 1, 1, 1
	}
	return d
}

// checkSnapshot rejects snapshots no rule can safely read.
func checkSnapshot(snapshot *csast.FileSnapshot) error {
	switch {
	case snapshot == nil:
		return fmt.Errorf("%w: nil snapshot", ErrMissingSyntaxModel)
	case snapshot.Root == nil:
		return fmt.Errorf("%w: %s: no syntax tree", ErrMissingSyntaxModel, snapshot.Path)
	case !csast.ValidateTokens(snapshot.Tokens, len(snapshot.Content)):
		return fmt.Errorf("%w: %s: token stream does not cover content", ErrMissingSyntaxModel, snapshot.Path)
	case len(snapshot.Metrics) != len(snapshot.Lines):
		return fmt.Errorf("%w: %s: line metrics missing", ErrMissingSyntaxModel, snapshot.Path)
	}
	return nil
}

func (e *Engine) debug(msg string, keyvals ...any) {
	if e.Logger != nil {
		e.Logger.Debug(msg, keyvals...)
	}
}
