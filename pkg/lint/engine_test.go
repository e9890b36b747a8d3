package lint_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/lint/rules"
	"github.com/yaklabco/atclint/pkg/parser/csharp"
)

const engineSource = "class C { }\n"

// mockParser implements lint.Parser for testing. Without parseFunc it
// delegates to the real C# parser.
type mockParser struct {
	parseFunc func(ctx context.Context, path string, content []byte) (*csast.FileSnapshot, error)
}

func (p *mockParser) Parse(ctx context.Context, path string, content []byte) (*csast.FileSnapshot, error) {
	if p.parseFunc != nil {
		return p.parseFunc(ctx, path, content)
	}
	return csharp.New().Parse(ctx, path, content)
}

// diagnosticRule is a test rule that returns fixed diagnostics.
type diagnosticRule struct {
	lint.BaseRule
	diags []lint.Diagnostic
	err   error
}

func (r *diagnosticRule) Apply(_ *lint.RuleContext) ([]lint.Diagnostic, error) {
	return r.diags, r.err
}

// panicRule always panics.
type panicRule struct {
	lint.BaseRule
}

func (r *panicRule) Apply(_ *lint.RuleContext) ([]lint.Diagnostic, error) {
	panic("boom")
}

func replaceDiag(start, end int, text string) lint.Diagnostic {
	return lint.Diagnostic{
		Message:     "replace " + text,
		StartOffset: start,
		EndOffset:   end,
		Fix:         &fix.EditSet{Primary: []fix.TextEdit{{StartOffset: start, EndOffset: end, NewText: text}}},
	}
}

func fixConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Fix = true
	return cfg
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	parser := &mockParser{}
	registry := lint.NewRegistry()

	engine := lint.NewEngine(parser, registry)

	if engine.Parser != parser {
		t.Error("Parser mismatch")
	}
	if engine.Registry != registry {
		t.Error("Registry mismatch")
	}
	if engine.GlobalUsings != nil {
		t.Error("GlobalUsings should default to nil")
	}
}

func TestEngine_LintFile_Basic(t *testing.T) {
	t.Parallel()

	engine := lint.NewEngine(&mockParser{}, lint.NewRegistry())

	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if result.Snapshot == nil {
		t.Fatal("expected Snapshot to be set")
	}
	if result.Snapshot.Path != "Test.cs" {
		t.Errorf("Path = %q, want Test.cs", result.Snapshot.Path)
	}
	if result.HasIssues() {
		t.Errorf("unexpected diagnostics: %v", result.Diagnostics)
	}
}

func TestEngine_LintFile_ParseError(t *testing.T) {
	t.Parallel()

	parseErr := errors.New("parse failed")
	parser := &mockParser{
		parseFunc: func(_ context.Context, _ string, _ []byte) (*csast.FileSnapshot, error) {
			return nil, parseErr
		},
	}
	engine := lint.NewEngine(parser, lint.NewRegistry())

	_, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, parseErr) {
		t.Errorf("expected parse error, got %v", err)
	}
	if !errors.Is(err, lint.ErrParseFailure) {
		t.Errorf("expected ErrParseFailure, got %v", err)
	}
}

func TestEngine_LintFile_MissingSyntaxModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		snapshot func(content []byte) *csast.FileSnapshot
	}{
		{
			name:     "nil snapshot",
			snapshot: func([]byte) *csast.FileSnapshot { return nil },
		},
		{
			name: "no tree",
			snapshot: func(content []byte) *csast.FileSnapshot {
				return csast.NewFileSnapshot("Test.cs", content)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parser := &mockParser{
				parseFunc: func(_ context.Context, _ string, content []byte) (*csast.FileSnapshot, error) {
					return tt.snapshot(content), nil
				},
			}
			registry := lint.NewRegistry()
			registry.Register(&diagnosticRule{BaseRule: lint.NewBaseRule("ATC901", "test-rule", "", nil, false)})
			engine := lint.NewEngine(parser, registry)

			_, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
			if !errors.Is(err, lint.ErrMissingSyntaxModel) {
				t.Errorf("expected ErrMissingSyntaxModel, got %v", err)
			}
		})
	}
}

func TestEngine_LintFile_WithDiagnostics(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "test-rule", "", nil, false),
		diags: []lint.Diagnostic{
			{Message: "test issue", StartOffset: 6, EndOffset: 7},
		},
	})

	engine := lint.NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}

	if result.IssueCount() != 1 {
		t.Fatalf("IssueCount() = %d, want 1", result.IssueCount())
	}

	diag := result.Diagnostics[0]
	if diag.RuleID != "ATC201" || diag.RuleName != "test-rule" {
		t.Errorf("rule = %s/%s, want ATC201/test-rule", diag.RuleID, diag.RuleName)
	}
	if diag.Severity != config.SeverityWarning {
		t.Errorf("Severity = %v, want warning", diag.Severity)
	}
	if diag.Category != lint.CategoryStyle {
		t.Errorf("Category = %v, want style", diag.Category)
	}
	if diag.HelpURL != lint.HelpURL("ATC201") {
		t.Errorf("HelpURL = %q", diag.HelpURL)
	}
	if diag.FilePath != "Test.cs" {
		t.Errorf("FilePath = %q, want Test.cs", diag.FilePath)
	}
}

func TestEngine_LintFile_SeverityOverride(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "test-rule", "", nil, false),
		diags:    []lint.Diagnostic{{Message: "test issue"}},
	})

	engine := lint.NewEngine(&mockParser{}, registry)

	severity := "error"
	cfg := config.NewConfig()
	cfg.Rules["ATC201"] = config.RuleConfig{Severity: &severity}

	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), cfg)
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if result.Diagnostics[0].Severity != config.SeverityError {
		t.Errorf("Severity = %v, want error", result.Diagnostics[0].Severity)
	}
}

func TestEngine_LintFile_RuleError(t *testing.T) {
	t.Parallel()

	ruleErr := errors.New("rule failed")
	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "failing", "", nil, false),
		err:      ruleErr,
	})
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC202", "working", "", nil, false),
		diags:    []lint.Diagnostic{{Message: "still reported", StartOffset: 6, EndOffset: 7}},
	})

	engine := lint.NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile should not fail on rule error: %v", err)
	}

	if !errors.Is(result.RuleErrors["ATC201"], ruleErr) {
		t.Errorf("RuleErrors[ATC201] = %v", result.RuleErrors["ATC201"])
	}
	if len(result.Diagnostics) != 2 {
		t.Fatalf("len(Diagnostics) = %d, want 2", len(result.Diagnostics))
	}

	internal := result.Diagnostics[0]
	if !internal.Internal || internal.RuleID != "ATC201" {
		t.Errorf("first diagnostic should be the internal error, got %+v", internal)
	}
	if internal.Severity != config.SeverityError {
		t.Errorf("internal Severity = %v, want error", internal.Severity)
	}
	if internal.StartLine != 1 || internal.StartColumn != 1 {
		t.Errorf("internal position = %d:%d, want 1:1", internal.StartLine, internal.StartColumn)
	}
	if result.Diagnostics[1].RuleID != "ATC202" {
		t.Errorf("second diagnostic RuleID = %q, want ATC202", result.Diagnostics[1].RuleID)
	}
	if got := lint.CountByRule(result.Diagnostics); got["ATC201"] != 0 || got["ATC202"] != 1 {
		t.Errorf("CountByRule = %v", got)
	}
}

func TestEngine_LintFile_RulePanic(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&panicRule{BaseRule: lint.NewBaseRule("ATC205", "panics", "", nil, false)})

	engine := lint.NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile should recover from panics: %v", err)
	}

	if len(result.Diagnostics) != 1 {
		t.Fatalf("len(Diagnostics) = %d, want 1", len(result.Diagnostics))
	}
	msg := result.Diagnostics[0].Message
	if !strings.HasPrefix(msg, "internal error in rule ATC205: panic: boom") {
		t.Errorf("Message = %q", msg)
	}
	if strings.Contains(msg, "\n") {
		t.Error("internal message should not include the stack trace")
	}
}

func TestEngine_LintFile_ContextCancellation(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "test-rule", "", nil, false),
		diags:    []lint.Diagnostic{{Message: "test issue"}},
	})
	engine := lint.NewEngine(&mockParser{}, registry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.LintFile(ctx, "Test.cs", []byte(engineSource), config.NewConfig())
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_LintFile_WithFixes(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "fixer", "", nil, true),
		diags:    []lint.Diagnostic{replaceDiag(0, 5, "struct")},
	})
	engine := lint.NewEngine(&mockParser{}, registry)

	t.Run("fix disabled", func(t *testing.T) {
		t.Parallel()

		result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
		if err != nil {
			t.Fatalf("LintFile error: %v", err)
		}
		if result.HasFixes() {
			t.Error("no fix should be selected without cfg.Fix")
		}
		if result.FixableCount() != 1 || !result.Diagnostics[0].Fixable {
			t.Error("diagnostic should still be reported as fixable")
		}
	})

	t.Run("fix enabled", func(t *testing.T) {
		t.Parallel()

		result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), fixConfig())
		if err != nil {
			t.Fatalf("LintFile error: %v", err)
		}
		if !result.HasFixes() {
			t.Fatal("expected fixes")
		}
		if result.Fixed["ATC201"] != 1 {
			t.Errorf("Fixed = %v", result.Fixed)
		}
		got := string(fix.ApplyEdits(result.Snapshot.Content, result.Edits))
		if got != "struct C { }\n" {
			t.Errorf("fixed content = %q", got)
		}
	})

	t.Run("auto-fix disabled for the rule", func(t *testing.T) {
		t.Parallel()

		off := false
		cfg := fixConfig()
		cfg.Rules["ATC201"] = config.RuleConfig{AutoFix: &off}

		result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), cfg)
		if err != nil {
			t.Fatalf("LintFile error: %v", err)
		}
		if result.HasFixes() {
			t.Error("rule auto-fix is off")
		}
	})
}

func TestEngine_LintFile_EditConflicts(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "first", "", nil, true),
		diags:    []lint.Diagnostic{replaceDiag(0, 5, "struct")},
	})
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC202", "second", "", nil, true),
		diags:    []lint.Diagnostic{replaceDiag(2, 4, "xx"), replaceDiag(8, 9, "{ }")},
	})
	engine := lint.NewEngine(&mockParser{}, registry)

	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), fixConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}

	if !result.EditConflicts {
		t.Error("expected EditConflicts")
	}
	if result.SkippedFixes != 1 {
		t.Errorf("SkippedFixes = %d, want 1", result.SkippedFixes)
	}
	if result.Fixed["ATC201"] != 1 || result.Fixed["ATC202"] != 1 {
		t.Errorf("Fixed = %v", result.Fixed)
	}

	var skipped lint.Diagnostic
	for _, d := range result.Diagnostics {
		if d.FixError != "" {
			skipped = d
		}
	}
	if skipped.StartOffset != 2 {
		t.Errorf("skipped diagnostic at %d, want 2", skipped.StartOffset)
	}
	if skipped.FixError != "fix conflicts with another fix; rerun to apply" {
		t.Errorf("FixError = %q", skipped.FixError)
	}
	if len(result.Edits) != 2 {
		t.Errorf("len(Edits) = %d, want 2", len(result.Edits))
	}
}

func TestEngine_LintFile_InvalidFix(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "broken", "", nil, true),
		diags:    []lint.Diagnostic{replaceDiag(5, 500, "")},
	})
	engine := lint.NewEngine(&mockParser{}, registry)

	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), fixConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}

	if result.HasFixes() {
		t.Error("invalid fix should not be selected")
	}
	if result.EditConflicts {
		t.Error("an invalid fix is not a conflict")
	}
	if !strings.HasPrefix(result.Diagnostics[0].FixError, "invalid fix: ") {
		t.Errorf("FixError = %q", result.Diagnostics[0].FixError)
	}
}

func TestEngine_LintFile_DuplicateDiagnostics(t *testing.T) {
	t.Parallel()

	dup := lint.Diagnostic{Message: "same", StartOffset: 6, EndOffset: 7}
	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC203", "dup", "", nil, false),
		diags:    []lint.Diagnostic{dup, dup, {Message: "earlier", StartOffset: 0, EndOffset: 5}},
	})
	engine := lint.NewEngine(&mockParser{}, registry)

	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}

	if len(result.Diagnostics) != 2 {
		t.Fatalf("len(Diagnostics) = %d, want 2", len(result.Diagnostics))
	}
	if result.Diagnostics[0].Message != "earlier" {
		t.Errorf("diagnostics not sorted by offset: %v", result.Diagnostics)
	}
}

func TestEngine_LintFile_FilePathSet(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "test-rule", "", nil, false),
		diags:    []lint.Diagnostic{{Message: "no path"}},
	})
	engine := lint.NewEngine(&mockParser{}, registry)

	result, err := engine.LintFile(context.Background(), "src/Orders/Order.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}
	if result.Diagnostics[0].FilePath != "src/Orders/Order.cs" {
		t.Errorf("FilePath = %q", result.Diagnostics[0].FilePath)
	}
}

func TestFileResult_Methods(t *testing.T) {
	t.Parallel()

	result := &lint.FileResult{
		Diagnostics: []lint.Diagnostic{
			{RuleID: "ATC201"},
			{RuleID: "ATC301", Fix: &fix.EditSet{Primary: []fix.TextEdit{{NewText: "x"}}}},
		},
		External: []fix.FileEdits{
			{Path: "GlobalUsings.cs", Edits: []fix.TextEdit{{NewText: "global using A;\n"}}},
		},
	}

	if !result.HasIssues() {
		t.Error("HasIssues() = false")
	}
	if result.IssueCount() != 2 {
		t.Errorf("IssueCount() = %d, want 2", result.IssueCount())
	}
	if result.FixableCount() != 1 {
		t.Errorf("FixableCount() = %d, want 1", result.FixableCount())
	}
	if !result.HasFixes() {
		t.Error("external edits count as fixes")
	}
	if len(result.ExternalFor("GlobalUsings.cs")) != 1 {
		t.Error("ExternalFor should find the global file edits")
	}
	if result.ExternalFor("Other.cs") != nil {
		t.Error("ExternalFor should return nil for unknown paths")
	}

	empty := &lint.FileResult{}
	if empty.HasIssues() || empty.HasFixes() || empty.FixableCount() != 0 {
		t.Error("empty result should report nothing")
	}
}

func TestEngine_LintFile_OrderAcrossRules(t *testing.T) {
	t.Parallel()

	registry := lint.NewRegistry()
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC201", "a", "", nil, false),
		diags:    []lint.Diagnostic{{Message: "a1", StartOffset: 8, EndOffset: 9}},
	})
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC401", "b", "", nil, false),
		diags:    []lint.Diagnostic{{Message: "b1", StartOffset: 8, EndOffset: 9}},
	})
	registry.Register(&diagnosticRule{
		BaseRule: lint.NewBaseRule("ATC301", "c", "", nil, false).OffByDefault(),
		diags:    []lint.Diagnostic{{Message: "c1"}},
	})

	engine := lint.NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(engineSource), config.NewConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}

	if len(result.Diagnostics) != 2 {
		t.Fatalf("len(Diagnostics) = %d, want 2 (ATC301 is off by default)", len(result.Diagnostics))
	}
	if result.Diagnostics[0].RuleID != "ATC201" || result.Diagnostics[1].RuleID != "ATC401" {
		t.Errorf("same offset should sort by rule id: %v", result.Diagnostics)
	}
	if result.Diagnostics[1].Category != lint.CategoryPerformance {
		t.Errorf("Category = %v, want performance", result.Diagnostics[1].Category)
	}
}

func TestEngine_Integration_DefaultRules(t *testing.T) {
	t.Parallel()

	source := strings.Join([]string{
		"partial class C",
		"{",
		"    [GeneratedRegex(\"a+\", RegexOptions.Compiled)]",
		"    private static partial Regex Pattern();",
		"",
		"    public int Count()",
		"    {",
		"        return 1;",
		"    }",
		"}",
		"",
	}, "\n")

	engine := lint.NewEngine(&mockParser{}, rules.NewDefaultRegistry())
	result, err := engine.LintFile(context.Background(), "Test.cs", []byte(source), fixConfig())
	if err != nil {
		t.Fatalf("LintFile error: %v", err)
	}

	counts := lint.CountByRule(result.Diagnostics)
	if counts["ATC401"] != 1 || counts["ATC204"] != 1 {
		t.Fatalf("CountByRule = %v, want ATC204 and ATC401 once", counts)
	}
	if result.Diagnostics[0].RuleID != "ATC401" {
		t.Errorf("first diagnostic = %s, want ATC401", result.Diagnostics[0].RuleID)
	}

	got := string(fix.ApplyEdits(result.Snapshot.Content, result.Edits))
	want := strings.Join([]string{
		"partial class C",
		"{",
		"    [GeneratedRegex(\"a+\")]",
		"    private static partial Regex Pattern();",
		"",
		"    public int Count() => 1;",
		"}",
		"",
	}, "\n")
	if got != want {
		t.Errorf("fixed content =\n%s\nwant\n%s", got, want)
	}
}
