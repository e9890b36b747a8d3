package rules

import (
	"fmt"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
)

// ExpressionBodyRule prefers expression bodies for single-expression
// members and checks where their arrow goes.
//
// The arrow stays on the header line while "header => expression;" fits
// within the maximum line length. Otherwise, or when the expression itself
// is laid out over several lines, the arrow starts a new line indented one
// unit under the header. Line breaks that only separate chained calls do
// not make an expression multi-line.
type ExpressionBodyRule struct {
	lint.BaseRule
}

// NewExpressionBodyRule creates a new expression-body rule.
func NewExpressionBodyRule() *ExpressionBodyRule {
	return &ExpressionBodyRule{
		BaseRule: lint.NewBaseRule(
			"ATC204",
			"expression-body",
			"Single-expression members should use expression bodies",
			[]string{"layout", "members", "line_length"},
			true,
		),
	}
}

// bodyCandidate is a block-bodied member whose block holds one expression.
type bodyCandidate struct {
	member    *csast.Node // node reported
	kind      string      // "Method", "Property" or "Accessor"
	headerEnd int         // last token before the body
	bodyEnd   int         // last token of the body
	expr      *csast.Node
	clean     bool // no comments inside the body
}

// Apply checks methods, local functions, properties and accessors.
func (r *ExpressionBodyRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic
	members := ctx.Nodes(csast.NodeMethodDecl, csast.NodeLocalFunction,
		csast.NodePropertyDecl, csast.NodeAccessor)

	for _, member := range members {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}

		if arrow := member.Child(csast.NodeArrowClause); arrow != nil {
			if diag, ok := r.checkArrow(ctx, member, arrow); ok {
				diags = append(diags, diag)
			}
			continue
		}

		cand, ok := r.candidate(member)
		if !ok {
			continue
		}
		diags = append(diags, r.convert(ctx, cand))
	}

	return diags, nil
}

// candidate reports whether member is block-bodied with a single return or
// expression statement.
func (r *ExpressionBodyRule) candidate(member *csast.Node) (bodyCandidate, bool) {
	file := member.File

	switch member.Kind {
	case csast.NodeMethodDecl, csast.NodeLocalFunction:
		block := member.Child(csast.NodeBlock)
		expr, ok := singleExpression(block, true)
		if !ok {
			return bodyCandidate{}, false
		}
		return bodyCandidate{
			member:    member,
			kind:      "Method",
			headerEnd: file.PrevSignificant(block.FirstToken),
			bodyEnd:   block.LastToken,
			expr:      expr,
			clean:     !hasComments(block),
		}, true

	case csast.NodePropertyDecl:
		list := member.Child(csast.NodeAccessorList)
		accessor, ok := getOnlyAccessor(member)
		if !ok {
			return bodyCandidate{}, false
		}
		block := accessor.Child(csast.NodeBlock)
		expr, ok := singleExpression(block, false)
		if !ok {
			return bodyCandidate{}, false
		}
		return bodyCandidate{
			member:    member,
			kind:      "Property",
			headerEnd: file.PrevSignificant(list.FirstToken),
			bodyEnd:   list.LastToken,
			expr:      expr,
			clean:     !hasComments(list),
		}, true

	case csast.NodeAccessor:
		if prop := member.Ancestor(csast.NodePropertyDecl); prop != nil {
			if only, ok := getOnlyAccessor(prop); ok && only == member {
				return bodyCandidate{}, false
			}
		}
		block := member.Child(csast.NodeBlock)
		expr, ok := singleExpression(block, member.Name != "get")
		if !ok {
			return bodyCandidate{}, false
		}
		return bodyCandidate{
			member:    member,
			kind:      "Accessor",
			headerEnd: file.PrevSignificant(block.FirstToken),
			bodyEnd:   block.LastToken,
			expr:      expr,
			clean:     !hasComments(block),
		}, true
	}

	return bodyCandidate{}, false
}

// convert reports a block-bodied candidate and rewrites it to an
// expression body laid out by the arrow placement rule. The rewrite is
// withheld while the body holds an interpolated chain that still has to be
// hoisted into a local, since an expression body leaves no statement to
// hoist in front of.
func (r *ExpressionBodyRule) convert(ctx *lint.RuleContext, cand bodyCandidate) lint.Diagnostic {
	file := ctx.File
	newLine, _ := r.arrowOnNewLine(ctx, cand.headerEnd, cand.expr)

	name := cand.member.Name
	msg := fmt.Sprintf("%s '%s' should use an expression body", cand.kind, name)
	builder := lint.NewDiagnostic(r.ID(), cand.member, msg).
		WithSuggestion("Replace the block with => expression;")

	if cand.clean && !hasHoistableChain(cand.expr) {
		lead := " "
		if newLine {
			lead = ctx.Newline() + r.continuationIndent(ctx, cand.member)
		}
		edits := fix.NewEditBuilder()
		edits.ReplaceRange(tokEnd(file, cand.headerEnd), tokEnd(file, cand.bodyEnd),
			lead+"=> "+nodeText(cand.expr)+";")
		builder.WithEdits(edits)
	}
	return builder.Build()
}

// checkArrow verifies the arrow placement of an expression-bodied member.
// When the member fits on one line the expression must also start on the
// arrow's line.
func (r *ExpressionBodyRule) checkArrow(ctx *lint.RuleContext, member, arrow *csast.Node) (lint.Diagnostic, bool) {
	file := ctx.File
	expr := arrow.FirstChild
	if expr == nil {
		return lint.Diagnostic{}, false
	}

	arrowTok := arrow.FirstToken
	headerEnd := file.PrevSignificant(arrowTok)
	if headerEnd < 0 {
		return lint.Diagnostic{}, false
	}

	want, width := r.arrowOnNewLine(ctx, headerEnd, expr)
	have := file.FirstOnLine(arrowTok)
	split := tokLine(file, arrowTok) != tokLine(file, expr.FirstToken)

	if want {
		if have {
			return lint.Diagnostic{}, false
		}
		msg := fmt.Sprintf("Expression body arrow should start on a new line (%d > %d or multi-line expression)",
			width, ctx.MaxLineLength())
		builder := r.arrowDiagnostic(file, arrowTok, msg)
		if !file.HasCommentBetween(headerEnd, arrowTok) {
			edits := fix.NewEditBuilder()
			edits.ReplaceRange(tokEnd(file, headerEnd), tokStart(file, arrowTok),
				ctx.Newline()+r.continuationIndent(ctx, member))
			builder.WithEdits(edits)
		}
		return builder.Build(), true
	}

	if !have && !split {
		return lint.Diagnostic{}, false
	}

	msg := "Expression body arrow should be on the same line as the declaration"
	if !have {
		msg = "Expression body should start on the same line as the arrow"
	}
	builder := r.arrowDiagnostic(file, arrowTok, msg)
	if !file.HasCommentBetween(headerEnd, expr.FirstToken) {
		edits := fix.NewEditBuilder()
		edits.ReplaceRange(tokEnd(file, headerEnd), tokStart(file, expr.FirstToken), " => ")
		builder.WithEdits(edits)
	}
	return builder.Build(), true
}

func (r *ExpressionBodyRule) arrowDiagnostic(file *csast.FileSnapshot, arrowTok int, msg string) *lint.DiagnosticBuilder {
	span := csast.SourceRange{StartOffset: tokStart(file, arrowTok), EndOffset: tokEnd(file, arrowTok)}
	return lint.NewDiagnosticAt(r.ID(), file, span, msg).
		WithSuggestion("Move the => token")
}

// arrowOnNewLine decides the arrow placement for an expression body that
// follows the token headerEnd. It also returns the one-line width.
func (r *ExpressionBodyRule) arrowOnNewLine(ctx *lint.RuleContext, headerEnd int, expr *csast.Node) (bool, int) {
	rendering := linePrefix(ctx.File, headerEnd) + " => " + collapseNode(expr) + ";"
	width := ctx.Width(rendering)
	return inherentlyMultiline(expr) || width > ctx.MaxLineLength(), width
}

func (r *ExpressionBodyRule) continuationIndent(ctx *lint.RuleContext, member *csast.Node) string {
	header := member.FirstToken
	if member.Decl != nil {
		header = member.Decl.HeaderToken
	}
	return ctx.File.LineIndent(tokLine(ctx.File, header)) + ctx.IndentUnit()
}

// singleExpression returns the expression of a block holding exactly one
// return statement with a value, or, when statements is set, one
// expression statement.
func singleExpression(block *csast.Node, statements bool) (*csast.Node, bool) {
	if block == nil || block.ChildCount() != 1 {
		return nil, false
	}
	stmt := block.FirstChild
	switch stmt.Kind {
	case csast.NodeReturn:
	case csast.NodeExpressionStatement:
		if !statements {
			return nil, false
		}
	default:
		return nil, false
	}
	if stmt.FirstChild == nil {
		return nil, false
	}
	return stmt.FirstChild, true
}

// getOnlyAccessor returns the accessor of a property whose accessor list
// holds a single plain get accessor and no initializer follows.
func getOnlyAccessor(prop *csast.Node) (*csast.Node, bool) {
	list := prop.Child(csast.NodeAccessorList)
	if list == nil || list.Next != nil || list.ChildCount() != 1 {
		return nil, false
	}
	accessor := list.FirstChild
	if accessor.Kind != csast.NodeAccessor || accessor.Name != "get" {
		return nil, false
	}
	if accessor.Child(csast.NodeAttributeList) != nil || len(accessor.Decl.Modifiers) > 0 {
		return nil, false
	}
	return accessor, accessor.Child(csast.NodeBlock) != nil
}

// inherentlyMultiline reports whether expr breaks a line anywhere other
// than before a member access operator.
func inherentlyMultiline(expr *csast.Node) bool {
	if !spansLines(expr) {
		return false
	}
	file := expr.File
	prev := -1
	for idx := expr.FirstToken; idx <= expr.LastToken; idx++ {
		if file.Tokens[idx].Kind.IsTrivia() {
			continue
		}
		if prev >= 0 && tokLine(file, prev) != tokLine(file, idx) {
			switch file.TokenText(idx) {
			case ".", "?.":
			default:
				return true
			}
		}
		prev = idx
	}
	return false
}
