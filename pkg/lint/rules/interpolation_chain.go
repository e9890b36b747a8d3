package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/parser/csharp"
)

// InterpolationChainRule flags method chains inside interpolation holes.
//
// A hole holding two or more chained calls is hard to read; the chain
// should be extracted into a local first. When the string sits in a plain
// statement the fix hoists the hole into "var name = chain;" just before
// that statement, with the chain broken one call per line.
type InterpolationChainRule struct {
	lint.BaseRule
}

// NewInterpolationChainRule creates a new interpolation-chain rule.
func NewInterpolationChainRule() *InterpolationChainRule {
	return &InterpolationChainRule{
		BaseRule: lint.NewBaseRule(
			"ATC203",
			"interpolation-chain",
			"Method chains inside interpolated strings should be extracted",
			[]string{"layout", "chains", "strings"},
			true,
		),
	}
}

// Apply checks every interpolation hole in the file.
func (r *InterpolationChainRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}

	taken := identifiers(ctx.File)
	var diags []lint.Diagnostic

	for _, hole := range ctx.Nodes(csast.NodeInterpolation) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		expr := hole.FirstChild
		if expr == nil {
			continue
		}
		chains := chainTops(expr, 2)
		if len(chains) == 0 {
			continue
		}

		longest := 0
		for _, segments := range chains {
			longest = max(longest, len(segments))
		}

		msg := fmt.Sprintf("Interpolation hole contains a method chain with %d calls", longest)
		builder := lint.NewDiagnostic(r.ID(), expr, msg).
			WithSuggestion("Extract the chain into a local variable before the string")
		if stmt := hoistTarget(hole); stmt != nil && !hasComments(expr) {
			name := uniqueName(chainName(chains[0]), taken)
			builder.WithEdits(r.hoist(ctx, stmt, expr, chains, name))
		}
		diags = append(diags, builder.Build())
	}

	return diags, nil
}

// hoist builds the edits that declare name before stmt and replace the hole
// expression with it.
func (r *InterpolationChainRule) hoist(
	ctx *lint.RuleContext,
	stmt, expr *csast.Node,
	chains [][]*csast.Node,
	name string,
) *fix.EditBuilder {
	file := ctx.File
	newline := ctx.Newline()
	stmtIndent := file.LineIndent(stmt.StartLine())

	breaks := make(map[int]string)
	connectors := connectorIdentifiers(ctx)
	for _, segments := range chains {
		for _, op := range breakOperators(segments, connectors) {
			breaks[op] = newline + stmtIndent + ctx.IndentUnit()
		}
	}
	value := render(file, expr.FirstToken, expr.LastToken, breaks)

	edits := fix.NewEditBuilder()
	edits.Insert(tokStart(file, stmt.FirstToken), "var "+name+" = "+value+";"+newline+stmtIndent)
	edits.ReplaceRange(tokStart(file, expr.FirstToken), tokEnd(file, expr.LastToken), name)
	return edits
}

// hoistTarget returns the statement a hole can be hoisted in front of
// without changing when or whether the expression is evaluated, or nil.
func hoistTarget(hole *csast.Node) *csast.Node {
	stmt := enclosingStatement(hole)
	if stmt == nil {
		return nil
	}
	switch stmt.Kind {
	case csast.NodeExpressionStatement, csast.NodeLocalDeclaration, csast.NodeReturn:
	case csast.NodeStatement:
		if stmt.Name != "throw" {
			return nil
		}
	default:
		return nil
	}

	for node := hole.Parent; node != nil && node != stmt; node = node.Parent {
		switch node.Kind {
		case csast.NodeLambda, csast.NodeConditional, csast.NodeSwitchExpression:
			return nil
		case csast.NodeBinary:
			switch node.Op {
			case "&&", "||", "??":
				return nil
			}
		}
	}
	return stmt
}

// hasHoistableChain reports whether root holds an interpolation hole whose
// chain the interpolation-chain fix would hoist.
func hasHoistableChain(root *csast.Node) bool {
	hole := csast.FindFirst(root, func(n *csast.Node) bool {
		if n.Kind != csast.NodeInterpolation || n.FirstChild == nil {
			return false
		}
		return len(chainTops(n.FirstChild, 2)) > 0 && !hasComments(n.FirstChild) && hoistTarget(n) != nil
	})
	return hole != nil
}

// chainName derives a local name from the last call of a chain:
// GetDisplayName becomes displayName, ToUpper becomes toUpper.
func chainName(segments []*csast.Node) string {
	name := segments[len(segments)-1].Name
	if rest, ok := strings.CutPrefix(name, "Get"); ok && rest != "" && rest[0] >= 'A' && rest[0] <= 'Z' {
		name = rest
	}
	name = lowerFirst(name)
	if name == "" || csharp.IsKeyword(name) {
		name += "Value"
	}
	return name
}

// uniqueName returns base, or base with the smallest numeric suffix, that
// is not in taken, and records the result.
func uniqueName(base string, taken map[string]struct{}) string {
	name := base
	for n := 2; ; n++ {
		if _, used := taken[name]; !used {
			break
		}
		name = base + strconv.Itoa(n)
	}
	taken[name] = struct{}{}
	return name
}

// identifiers collects every identifier spelled in the file.
func identifiers(f *csast.FileSnapshot) map[string]struct{} {
	names := make(map[string]struct{})
	for idx, tok := range f.Tokens {
		if tok.Kind == csast.TokIdentifier {
			names[f.TokenText(idx)] = struct{}{}
		}
	}
	return names
}
