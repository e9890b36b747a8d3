package rules

import (
	"fmt"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
)

// RedundantRegexCompiledRule reports RegexOptions.Compiled on the
// GeneratedRegex attribute. The source generator already emits compiled
// code, so the flag only costs startup time. Runtime Regex construction is
// not checked.
type RedundantRegexCompiledRule struct {
	lint.BaseRule
}

// NewRedundantRegexCompiledRule creates a new redundant-regex-compiled rule.
func NewRedundantRegexCompiledRule() *RedundantRegexCompiledRule {
	return &RedundantRegexCompiledRule{
		BaseRule: lint.NewBaseRule(
			"ATC401",
			"redundant-regex-compiled",
			"RegexOptions.Compiled is redundant on GeneratedRegex",
			[]string{"regex", "performance"},
			true,
		),
	}
}

// compiledFlag is the option the generator makes redundant.
const compiledFlag = "Compiled"

// Apply checks every GeneratedRegex attribute.
func (r *RedundantRegexCompiledRule) Apply(ctx *lint.RuleContext) ([]lint.Diagnostic, error) {
	if ctx.File == nil || ctx.Root == nil {
		return nil, nil
	}

	var diags []lint.Diagnostic
	for _, attr := range ctx.Nodes(csast.NodeAttribute) {
		if ctx.Cancelled() {
			return diags, fmt.Errorf("rule cancelled: %w", ctx.Ctx.Err())
		}
		if !isGeneratedRegex(attr.Name) {
			continue
		}

		args := attr.Child(csast.NodeArgumentList)
		if args == nil {
			continue
		}
		arg := optionsArgument(args)
		if arg == nil || arg.FirstChild == nil {
			continue
		}

		expr := arg.FirstChild
		for expr.Kind == csast.NodeParenthesized && expr.FirstChild != nil {
			expr = expr.FirstChild
		}
		operands := flags(expr)

		var compiled *csast.Node
		var kept []string
		for _, op := range operands {
			if isCompiledFlag(op) {
				if compiled == nil {
					compiled = op
				}
				continue
			}
			kept = append(kept, nodeText(op))
		}
		if compiled == nil {
			continue
		}

		builder := lint.NewDiagnostic(r.ID(), compiled,
			"RegexOptions.Compiled is redundant: GeneratedRegex already produces compiled code").
			WithSuggestion("Remove RegexOptions.Compiled")
		if !hasComments(args) {
			builder.WithEdits(r.removeEdits(ctx.File, args, arg, expr, compiled, kept))
		}
		diags = append(diags, builder.Build())
	}

	return diags, nil
}

// removeEdits drops the Compiled flag. Remaining flags are rejoined; when
// none remain the options argument is removed, or set to None when
// positional arguments follow it.
func (r *RedundantRegexCompiledRule) removeEdits(
	file *csast.FileSnapshot,
	args, arg, expr, compiled *csast.Node,
	kept []string,
) *fix.EditBuilder {
	edits := fix.NewEditBuilder()
	exprStart, exprEnd := tokStart(file, expr.FirstToken), tokEnd(file, expr.LastToken)

	if len(kept) > 0 {
		edits.ReplaceRange(exprStart, exprEnd, strings.Join(kept, " | "))
		return edits
	}

	next := nextArgument(arg)
	switch {
	case next == nil:
		// Remove ", options" together with its separator.
		prev := file.PrevSignificant(arg.FirstToken)
		if prev < 0 || prev <= args.FirstToken {
			edits.Delete(tokStart(file, arg.FirstToken), tokEnd(file, arg.LastToken))
			return edits
		}
		edits.Delete(tokEnd(file, file.PrevSignificant(prev)), tokEnd(file, arg.LastToken))
	case arg.Name != "":
		edits.Delete(tokStart(file, arg.FirstToken), tokStart(file, next.FirstToken))
	default:
		none := "None"
		if compiled.Kind == csast.NodeMemberAccess && compiled.FirstChild != nil {
			none = nodeText(compiled.FirstChild) + ".None"
		}
		edits.ReplaceRange(exprStart, exprEnd, none)
	}
	return edits
}

// isGeneratedRegex matches GeneratedRegex, GeneratedRegexAttribute and
// their qualified spellings.
func isGeneratedRegex(name string) bool {
	if idx := strings.LastIndexAny(name, ".:"); idx >= 0 {
		name = name[idx+1:]
	}
	return name == "GeneratedRegex" || name == "GeneratedRegexAttribute"
}

// optionsArgument returns the named "options:" argument or the second
// positional argument.
func optionsArgument(args *csast.Node) *csast.Node {
	positional := 0
	for _, arg := range args.ChildrenOf(csast.NodeArgument) {
		if arg.Name != "" {
			if arg.Name == "options" && arg.Op == ":" {
				return arg
			}
			continue
		}
		positional++
		if positional == 2 {
			return arg
		}
	}
	return nil
}

func nextArgument(arg *csast.Node) *csast.Node {
	for next := arg.Next; next != nil; next = next.Next {
		if next.Kind == csast.NodeArgument {
			return next
		}
	}
	return nil
}

// flags flattens a bitwise-or expression into its operands.
func flags(expr *csast.Node) []*csast.Node {
	if expr.Kind == csast.NodeBinary && expr.Op == "|" && expr.FirstChild != nil && expr.LastChild != nil {
		return append(flags(expr.FirstChild), flags(expr.LastChild)...)
	}
	return []*csast.Node{expr}
}

func isCompiledFlag(n *csast.Node) bool {
	switch n.Kind {
	case csast.NodeMemberAccess, csast.NodeIdentifier:
		return n.Name == compiledFlag
	}
	return false
}
