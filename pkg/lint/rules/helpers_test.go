package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/globalusings"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/parser/csharp"
)

// src joins lines with "\n" and terminates the last one.
func src(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// ruleRun describes one rule evaluation.
type ruleRun struct {
	options map[string]any
	cfg     *config.Config
	globals *globalusings.Snapshot
	path    string
}

func parseSource(t *testing.T, path, source string) *csast.FileSnapshot {
	t.Helper()

	snapshot, err := csharp.New().Parse(context.Background(), path, []byte(source))
	require.NoError(t, err)
	return snapshot
}

// applyRule parses source and evaluates rule against it.
func applyRule(t *testing.T, rule lint.Rule, source string, run ruleRun) (*csast.FileSnapshot, []lint.Diagnostic) {
	t.Helper()

	path := run.path
	if path == "" {
		path = "Test.cs"
	}
	cfg := run.cfg
	if cfg == nil {
		cfg = config.NewConfig()
	}
	var ruleCfg *config.RuleConfig
	if run.options != nil {
		ruleCfg = &config.RuleConfig{Options: run.options}
	}

	snapshot := parseSource(t, path, source)
	ruleCtx := lint.NewRuleContext(context.Background(), snapshot, cfg, ruleCfg)
	ruleCtx.GlobalUsings = run.globals

	diags, err := rule.Apply(ruleCtx)
	require.NoError(t, err)
	return snapshot, diags
}

// applyFixes applies every compatible fix the diagnostics carry to the
// primary file, the way the engine selects them.
func applyFixes(snapshot *csast.FileSnapshot, diags []lint.Diagnostic) (string, []fix.FileEdits) {
	var sets []*fix.EditSet
	for idx := range diags {
		if diags[idx].HasFix() {
			sets = append(sets, diags[idx].Fix)
		}
	}
	accepted, _ := fix.SelectSets(sets, len(snapshot.Content))
	chosen := make([]*fix.EditSet, 0, len(accepted))
	for _, idx := range accepted {
		chosen = append(chosen, sets[idx])
	}
	primary, external := fix.MergeSets(chosen)
	return string(fix.ApplyEdits(snapshot.Content, primary)), external
}

// fixCase is a table row shared by the fix tests of every rule.
type fixCase struct {
	name      string
	input     string
	wantDiags int
	want      string // expected content after fixing; empty means unchanged
	noFix     bool   // diagnostics carry no fix
	options   map[string]any
}

// runFixCases checks detection, the fixed content, and that the fixed
// content is clean on a second run.
func runFixCases(t *testing.T, newRule func() lint.Rule, tests []fixCase) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule := newRule()
			run := ruleRun{options: tt.options}
			snapshot, diags := applyRule(t, rule, tt.input, run)
			require.Len(t, diags, tt.wantDiags, "diagnostics: %v", messages(diags))

			for _, d := range diags {
				require.Equal(t, rule.ID(), d.RuleID)
				require.Equal(t, !tt.noFix, d.HasFix(), "fixable mismatch for %q", d.Message)
			}

			want := tt.want
			if want == "" {
				want = tt.input
			}
			got, _ := applyFixes(snapshot, diags)
			require.Equal(t, want, got)

			if tt.noFix || tt.wantDiags == 0 {
				return
			}
			_, again := applyRule(t, rule, got, run)
			require.Empty(t, again, "fixed content still reports: %v", messages(again))
		})
	}
}

func messages(diags []lint.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}
