package rules

import (
	"fmt"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
)

// ParameterLayoutRule checks the layout of declaration parameter lists.
//
// A single parameter stays inline while the declaration header fits within
// the maximum line length and moves to its own line otherwise. Two or more
// parameters always go one per line. Call sites, lambdas and indexers are
// not checked.
type ParameterLayoutRule struct {
	lint.BaseRule
}

// NewParameterLayoutRule creates a new parameter-layout rule.
func NewParameterLayoutRule() *ParameterLayoutRule {
	return &ParameterLayoutRule{
		BaseRule: lint.NewBaseRule(
			"ATC201",
			"parameter-layout",
			"Declaration parameters should be laid out by count and header length",
			[]string{"layout", "parameters", "line_length"},
			true,
		),
	}
}

// Apply checks every method, constructor, local function and delegate.
func (r *ParameterLayoutRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}

	maxLen := ctx.MaxLineLength()
	var diags []lint.Diagnostic

	decls := ctx.Nodes(csast.NodeMethodDecl, csast.NodeConstructorDecl,
		csast.NodeLocalFunction, csast.NodeDelegateDecl)
	for _, decl := range decls {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		list := decl.Child(csast.NodeParameterList)
		if list == nil || decl.Decl == nil {
			continue
		}
		params := list.ChildrenOf(csast.NodeParameter)

		switch {
		case len(params) == 0:
			continue
		case len(params) == 1:
			if diag, ok := r.checkSingle(ctx, decl, list, params[0], maxLen); ok {
				diags = append(diags, diag)
			}
		default:
			if diag, ok := r.checkMultiple(ctx, decl, list, params); ok {
				diags = append(diags, diag)
			}
		}
	}

	return diags, nil
}

func (r *ParameterLayoutRule) checkSingle(
	ctx *lint.RuleContext,
	decl, list, param *csast.Node,
	maxLen int,
) (lint.Diagnostic, bool) {
	file := ctx.File
	headerLen := ctx.Width(r.headerRendering(file, decl, list))
	open, closer := list.FirstToken, list.LastToken

	inline := tokLine(file, open) == tokLine(file, param.FirstToken) &&
		tokLine(file, param.LastToken) == tokLine(file, closer)
	ownLine := file.FirstOnLine(param.FirstToken)

	var msg string
	var replacement string
	switch {
	case headerLen <= maxLen && !inline:
		msg = fmt.Sprintf("Single parameter should be inline when the declaration fits in %d characters (%d)",
			maxLen, headerLen)
		replacement = collapseNode(param)
	case headerLen > maxLen && !ownLine:
		msg = fmt.Sprintf("Single parameter should start on its own line when the declaration exceeds %d characters (%d)",
			maxLen, headerLen)
		replacement = r.expanded(ctx, decl, []*csast.Node{param})
	default:
		return lint.Diagnostic{}, false
	}

	builder := lint.NewDiagnostic(r.ID(), list, msg).
		WithSuggestion("Reflow the parameter list")
	if !hasComments(list) {
		edits := fix.NewEditBuilder()
		edits.ReplaceRange(tokEnd(file, open), tokStart(file, closer), replacement)
		builder.WithEdits(edits)
	}
	return builder.Build(), true
}

func (r *ParameterLayoutRule) checkMultiple(
	ctx *lint.RuleContext,
	decl, list *csast.Node,
	params []*csast.Node,
) (lint.Diagnostic, bool) {
	file := ctx.File
	open, closer := list.FirstToken, list.LastToken

	shared := 0
	if tokLine(file, open) == tokLine(file, params[0].FirstToken) {
		shared++
	}
	for idx := 1; idx < len(params); idx++ {
		if tokLine(file, params[idx-1].LastToken) == tokLine(file, params[idx].FirstToken) {
			shared++
		}
	}
	if shared == 0 {
		return lint.Diagnostic{}, false
	}

	msg := fmt.Sprintf("Each of the %d parameters should be on its own line", len(params))
	builder := lint.NewDiagnostic(r.ID(), list, msg).
		WithSuggestion("Place one parameter per line")
	if !hasComments(list) {
		edits := fix.NewEditBuilder()
		edits.ReplaceRange(tokEnd(file, open), tokStart(file, closer), r.expanded(ctx, decl, params))
		builder.WithEdits(edits)
	}
	return builder.Build(), true
}

// headerRendering is the declaration header on one line, up to the closing
// parenthesis and a directly following semicolon. It keeps whatever precedes
// the header on its line, so an attribute on the same line counts.
func (r *ParameterLayoutRule) headerRendering(file *csast.FileSnapshot, decl, list *csast.Node) string {
	header := decl.Decl.HeaderToken
	lineStart := file.Lines[tokLine(file, header)-1].StartOffset
	rendering := string(file.Content[lineStart:tokStart(file, header)]) + collapse(file, header, list.LastToken)
	if next := file.NextSignificant(list.LastToken); next >= 0 && file.TokenText(next) == ";" {
		rendering += ";"
	}
	return rendering
}

// expanded lays params out one per line, one indent unit deeper than the
// declaration header. The closing parenthesis follows the last parameter.
func (r *ParameterLayoutRule) expanded(ctx *lint.RuleContext, decl *csast.Node, params []*csast.Node) string {
	indent := ctx.File.LineIndent(tokLine(ctx.File, decl.Decl.HeaderToken)) + ctx.IndentUnit()
	newline := ctx.Newline()

	parts := make([]string, len(params))
	for idx, param := range params {
		parts[idx] = newline + indent + collapseNode(param)
	}
	return strings.Join(parts, ",")
}
