package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/globalusings"
	"github.com/yaklabco/atclint/pkg/lint"
)

// GlobalUsingsRule reports local using directives that belong in the
// shared global usings file. Static and aliased directives are exempt.
//
// The fix removes the local directive and appends the namespace to the
// global usings file when it is not declared there yet. Both edits form one
// fix and are applied together or not at all.
type GlobalUsingsRule struct {
	lint.BaseRule

	// scoped limits the rule to namespaces under the configured prefixes.
	scoped bool
}

// NewGlobalUsingsRule creates the global-usings rule, which moves every
// local using directive. It is disabled by default.
func NewGlobalUsingsRule() *GlobalUsingsRule {
	return &GlobalUsingsRule{
		BaseRule: lint.NewBaseRule(
			"ATC301",
			"global-usings",
			"Using directives should be declared in the global usings file",
			[]string{"usings", "imports"},
			true,
		).OffByDefault(),
	}
}

// NewScopedGlobalUsingsRule creates the scoped-global-usings rule, which
// moves only directives for namespaces under the configured prefixes.
func NewScopedGlobalUsingsRule() *GlobalUsingsRule {
	return &GlobalUsingsRule{
		BaseRule: lint.NewBaseRule(
			"ATC302",
			"scoped-global-usings",
			"Using directives for shared namespaces should be declared in the global usings file",
			[]string{"usings", "imports"},
			true,
		),
		scoped: true,
	}
}

// Apply checks every using directive of the file.
func (r *GlobalUsingsRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}
	if ctx.GlobalUsings != nil && samePath(ctx.File.Path, ctx.GlobalUsings.Path) {
		return nil, nil
	}

	var prefixes []string
	if r.scoped {
		var fallback []string
		if ctx.Config != nil {
			fallback = ctx.Config.GlobalUsingPrefixes
		}
		prefixes = ctx.OptionStringSlice("prefixes", fallback)
		if len(prefixes) == 0 {
			return nil, nil
		}
	}

	var diags []lint.Diagnostic
	for _, directive := range ctx.Nodes(csast.NodeUsingDirective) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		u := directive.Using
		if u == nil || u.Global || u.Static || u.Alias != "" {
			continue
		}
		ns := globalusings.Normalize(u.Namespace)
		if r.scoped && !matchesPrefix(ns, prefixes) {
			continue
		}

		msg := fmt.Sprintf("Using directive for '%s' should be declared in the global usings file", ns)
		builder := lint.NewDiagnostic(r.ID(), directive, msg).
			WithSuggestion("Move the directive to " + globalFileName(ctx))
		builder.WithFix(r.moveFix(ctx, directive, ns))
		diags = append(diags, builder.Build())
	}

	return diags, nil
}

// moveFix deletes the directive and, when needed, appends it to the global
// usings file. Without a configured global usings file there is no fix.
func (r *GlobalUsingsRule) moveFix(ctx *lint.RuleContext, directive *csast.Node, ns string) *fix.EditSet {
	if ctx.GlobalUsings == nil || hasComments(directive) {
		return nil
	}

	file := ctx.File
	start, end := tokStart(file, directive.FirstToken), tokEnd(file, directive.LastToken)
	line := file.Lines[tokLine(file, directive.FirstToken)-1]
	ownLine := file.FirstOnLine(directive.FirstToken) &&
		tokLine(file, directive.LastToken) == tokLine(file, directive.FirstToken) &&
		strings.TrimSpace(string(file.Content[end:line.NewlineStart])) == ""
	if ownLine {
		start, end = line.StartOffset, line.EndOffset
	}

	edits := fix.NewEditBuilder()
	edits.Delete(start, end)
	set := edits.Set()
	if !ctx.GlobalUsings.Has(ns) {
		set.AddExternal(ctx.GlobalUsings.Path, ctx.GlobalUsings.AppendEdit(ns, ctx.Newline()))
	}
	return set
}

// matchesPrefix reports whether ns is one of prefixes or nested below one.
func matchesPrefix(ns string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(globalusings.Normalize(prefix), ".")
		if ns == prefix || strings.HasPrefix(ns, prefix+".") {
			return true
		}
	}
	return false
}

func globalFileName(ctx *lint.RuleContext) string {
	if ctx.GlobalUsings != nil {
		return filepath.Base(ctx.GlobalUsings.Path)
	}
	if ctx.Config != nil && ctx.Config.GlobalUsingsFile != "" {
		return filepath.Base(ctx.Config.GlobalUsingsFile)
	}
	return "the global usings file"
}

// samePath compares two paths after making them absolute.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
