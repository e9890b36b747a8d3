package rules

import (
	"fmt"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
)

// MethodChainRule requires each call of a method chain to start on its own
// line once the chain has two or more calls.
//
// A property access after a single call (x.Trim().Length) is not a chain.
// A call directly following a connector such as Should may stay on the
// connector's line. Chains inside interpolation holes are reported by
// ATC203 instead.
type MethodChainRule struct {
	lint.BaseRule
}

// NewMethodChainRule creates a new method-chain-separation rule.
func NewMethodChainRule() *MethodChainRule {
	return &MethodChainRule{
		BaseRule: lint.NewBaseRule(
			"ATC202",
			"method-chain-separation",
			"Chained method calls should each start on their own line",
			[]string{"layout", "chains"},
			true,
		),
	}
}

// Apply checks every method chain in the file.
func (r *MethodChainRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}

	connectors := connectorIdentifiers(ctx)
	file := ctx.File
	var diags []lint.Diagnostic

	for _, inv := range ctx.Nodes(csast.NodeInvocation) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if !isChainTop(inv) || inv.Ancestor(csast.NodeInterpolation) != nil {
			continue
		}

		segments := chainSegments(inv)
		if len(segments) < 2 {
			continue
		}

		var misplaced []int
		for _, op := range breakOperators(segments, connectors) {
			if !file.FirstOnLine(op) {
				misplaced = append(misplaced, op)
			}
		}
		if len(misplaced) == 0 {
			continue
		}

		msg := fmt.Sprintf("Method chain with %d calls should place each call on its own line", len(segments))
		builder := lint.NewDiagnostic(r.ID(), inv, msg).
			WithSuggestion("Break the line before each chained call")
		builder.WithEdits(r.breakEdits(ctx, inv, misplaced))
		diags = append(diags, builder.Build())
	}

	return diags, nil
}

// breakEdits replaces the space before each misplaced operator with a line
// break indented one unit deeper than the line the chain starts on. A chain
// with comments between its calls is left alone.
func (r *MethodChainRule) breakEdits(ctx *lint.RuleContext, chain *csast.Node, ops []int) *fix.EditBuilder {
	file := ctx.File
	indent := ctx.IndentUnit()
	if width := ctx.OptionInt("indent", 0); width > 0 {
		indent = strings.Repeat(" ", width)
	}
	indent = file.LineIndent(chain.StartLine()) + indent

	edits := fix.NewEditBuilder()
	for _, op := range ops {
		prev := file.PrevSignificant(op)
		if prev < 0 || file.HasCommentBetween(prev, op) {
			return nil
		}
		edits.ReplaceRange(tokEnd(file, prev), tokStart(file, op), ctx.Newline()+indent)
	}
	return edits
}

// connectorIdentifiers returns the rule's connector option, falling back to
// the configuration-wide list.
func connectorIdentifiers(ctx *lint.RuleContext) []string {
	var fallback []string
	if ctx.Config != nil {
		fallback = ctx.Config.ConnectorIdentifiers
	}
	return ctx.OptionStringSlice("connector_identifiers", fallback)
}
