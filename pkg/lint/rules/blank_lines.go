package rules

import (
	"fmt"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
)

// BlankLineBetweenBlocksRule requires exactly one blank line between two
// sibling block statements (if, for, foreach, while, do, switch, try,
// using, lock).
//
// Comment and preprocessor lines directly above a block belong to it, so
// the gap is measured up to them. The clauses of one statement (if/else,
// try/catch/finally) are not siblings and must have no blank line between
// them.
type BlankLineBetweenBlocksRule struct {
	lint.BaseRule
}

// NewBlankLineBetweenBlocksRule creates a new blank-line-between-blocks rule.
func NewBlankLineBetweenBlocksRule() *BlankLineBetweenBlocksRule {
	return &BlankLineBetweenBlocksRule{
		BaseRule: lint.NewBaseRule(
			"ATC205",
			"blank-line-between-blocks",
			"Sibling block statements should be separated by one blank line",
			[]string{"blank_lines", "whitespace", "blocks"},
			true,
		),
	}
}

// gap describes the lines between the end of one construct and the
// trivia-adjusted start of the next.
type gap struct {
	endLine   int // line of the last token before the gap
	startLine int // first line after the gap
	next      int // first token after the gap
}

func (g gap) blanks() int {
	return g.startLine - g.endLine - 1
}

// Apply checks sibling block statements and statement clauses.
func (r *BlankLineBetweenBlocksRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic

	containers := append([]*csast.Node{ctx.Root}, ctx.Nodes(csast.NodeBlock, csast.NodeSwitchSection)...)
	for _, container := range containers {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		for a := container.FirstChild; a != nil && a.Next != nil; a = a.Next {
			b := a.Next
			if !a.IsBlockStatement() || !b.IsBlockStatement() {
				continue
			}
			if diag, ok := r.checkSiblings(ctx, a, b); ok {
				diags = append(diags, diag)
			}
		}
	}

	for _, stmt := range ctx.Nodes(csast.NodeIf, csast.NodeTry) {
		for _, clause := range clauses(stmt) {
			if diag, ok := r.checkClause(ctx, clause); ok {
				diags = append(diags, diag)
			}
		}
	}

	lint.SortDiagnostics(diags)
	return diags, nil
}

func (r *BlankLineBetweenBlocksRule) checkSiblings(ctx *lint.RuleContext, a, b *csast.Node) (lint.Diagnostic, bool) {
	file := ctx.File
	g, ok := measureGap(file, a.LastToken, b.FirstToken, true)
	if !ok {
		return lint.Diagnostic{}, false
	}

	span := tokenRange(file, g.next)
	edits := fix.NewEditBuilder()
	var msg string

	switch n := g.blanks(); {
	case n == 1:
		return lint.Diagnostic{}, false
	case n == 0:
		msg = "Missing blank line between block statements"
		edits.Insert(file.Lines[g.startLine-1].StartOffset, ctx.Newline())
	default:
		msg = fmt.Sprintf("Excessive blank lines between block statements (%d)", n)
		edits.Delete(file.Lines[g.endLine+1].StartOffset, file.Lines[g.startLine-1].StartOffset)
	}

	return lint.NewDiagnosticAt(r.ID(), file, span, msg).
		WithSuggestion("Separate the blocks with exactly one blank line").
		WithEdits(edits).
		Build(), true
}

func (r *BlankLineBetweenBlocksRule) checkClause(ctx *lint.RuleContext, clause *csast.Node) (lint.Diagnostic, bool) {
	file := ctx.File
	prev := file.PrevSignificant(clause.FirstToken)
	if prev < 0 {
		return lint.Diagnostic{}, false
	}
	g, ok := measureGap(file, prev, clause.FirstToken, false)
	if !ok || g.blanks() == 0 {
		return lint.Diagnostic{}, false
	}

	msg := fmt.Sprintf("The %s clause must not be separated from the previous clause by blank lines (%d)",
		file.TokenText(clause.FirstToken), g.blanks())
	edits := fix.NewEditBuilder()
	edits.Delete(file.Lines[g.endLine].StartOffset, file.Lines[g.startLine-1].StartOffset)

	return lint.NewDiagnosticAt(r.ID(), file, tokenRange(file, clause.FirstToken), msg).
		WithSuggestion("Remove the blank lines between the clauses").
		WithEdits(edits).
		Build(), true
}

// measureGap finds the lines between token last and token first, which
// must each end and start their lines. When attach is set, comment lines
// directly above first are counted as part of what follows. Gaps holding
// anything but blank lines are not measured.
func measureGap(file *csast.FileSnapshot, last, first int, attach bool) (gap, bool) {
	endLine := file.LineOf(file.Tokens[last].EndOffset - 1)
	startLine := tokLine(file, first)
	if startLine <= endLine || !file.FirstOnLine(first) {
		return gap{}, false
	}
	if attach {
		for startLine-1 > endLine && file.Metric(startLine-1).CommentOnly {
			startLine--
		}
	}

	for line := endLine + 1; line < startLine; line++ {
		if !file.IsBlankLine(line) {
			return gap{}, false
		}
	}
	return gap{endLine: endLine, startLine: startLine, next: first}, true
}

// clauses returns the clauses of stmt that follow another clause: the else
// of an if, and the catch and finally parts of a try.
func clauses(stmt *csast.Node) []*csast.Node {
	switch stmt.Kind {
	case csast.NodeIf:
		if elseNode := stmt.Child(csast.NodeElse); elseNode != nil {
			return []*csast.Node{elseNode}
		}
	case csast.NodeTry:
		var parts []*csast.Node
		for child := stmt.FirstChild; child != nil; child = child.Next {
			if child.Kind == csast.NodeCatch || child.Kind == csast.NodeFinally {
				parts = append(parts, child)
			}
		}
		return parts
	}
	return nil
}

func tokenRange(file *csast.FileSnapshot, idx int) csast.SourceRange {
	return csast.SourceRange{StartOffset: tokStart(file, idx), EndOffset: tokEnd(file, idx)}
}
