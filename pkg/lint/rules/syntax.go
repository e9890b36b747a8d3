package rules

import (
	"slices"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
)

// tokLine returns the 1-based line of the token at idx.
func tokLine(f *csast.FileSnapshot, idx int) int {
	return f.LineOf(f.Tokens[idx].StartOffset)
}

func tokStart(f *csast.FileSnapshot, idx int) int {
	return f.Tokens[idx].StartOffset
}

func tokEnd(f *csast.FileSnapshot, idx int) int {
	return f.Tokens[idx].EndOffset
}

// nodeText returns the source text of n.
func nodeText(n *csast.Node) string {
	return string(n.Text())
}

// hasComments reports whether a comment or preprocessor line sits inside n.
func hasComments(n *csast.Node) bool {
	return n.File.HasCommentBetween(n.FirstToken, n.LastToken)
}

// isTrailingPunct and isLeadingPunct list tokens that never take a space
// on the side facing their neighbour when a span is rendered on one line.
func isTrailingPunct(text string) bool {
	switch text {
	case ")", "]", ",", ";", ".", "?.":
		return true
	}
	return false
}

func isLeadingPunct(text string) bool {
	switch text {
	case "(", "[", ".", "?.":
		return true
	}
	return false
}

// collapse renders the significant tokens in [from, to] on one line. Tokens
// adjacent in the source stay adjacent; any other separation becomes one
// space except next to brackets and member access operators.
func collapse(f *csast.FileSnapshot, from, to int) string {
	return render(f, from, to, nil)
}

// render is collapse with forced line breaks: a token whose index is a key
// of breaks is preceded by the mapped text instead of a space.
func render(f *csast.FileSnapshot, from, to int, breaks map[int]string) string {
	var sb strings.Builder
	prev := -1
	for idx := from; idx <= to && idx < len(f.Tokens); idx++ {
		if f.Tokens[idx].Kind.IsTrivia() {
			continue
		}
		text := f.TokenText(idx)
		if brk, ok := breaks[idx]; ok && prev >= 0 {
			sb.WriteString(brk)
		} else if prev >= 0 && prev+1 != idx {
			if !isLeadingPunct(f.TokenText(prev)) && !isTrailingPunct(text) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(text)
		prev = idx
	}
	return sb.String()
}

// collapseNode renders n on one line.
func collapseNode(n *csast.Node) string {
	return collapse(n.File, n.FirstToken, n.LastToken)
}

// linePrefix returns the raw text from the start of the line holding token
// idx up to the end of that token.
func linePrefix(f *csast.FileSnapshot, idx int) string {
	line := tokLine(f, idx)
	start := f.Lines[line-1].StartOffset
	return string(f.Content[start:tokEnd(f, idx)])
}

// spansLines reports whether n starts and ends on different lines.
func spansLines(n *csast.Node) bool {
	return n.StartLine() != n.EndLine()
}

// isChainSegment reports whether n is an invocation of a member access,
// the unit a method chain is made of.
func isChainSegment(n *csast.Node) bool {
	return n != nil && n.Kind == csast.NodeInvocation &&
		n.FirstChild != nil && n.FirstChild.Kind == csast.NodeMemberAccess
}

// isChainTop reports whether inv is an invocation segment that is not
// itself the receiver of a further segment.
func isChainTop(inv *csast.Node) bool {
	if !isChainSegment(inv) {
		return false
	}
	access := inv.Parent
	if access == nil || access.Kind != csast.NodeMemberAccess || access.FirstChild != inv {
		return true
	}
	return !isChainSegment(access.Parent) || access.Parent.FirstChild != access
}

// chainSegments returns the member accesses of the invocation segments
// ending at top, in source order. The receiver of each segment after the
// first is the previous invocation.
func chainSegments(top *csast.Node) []*csast.Node {
	var segments []*csast.Node
	for node := top; isChainSegment(node); {
		access := node.FirstChild
		segments = append(segments, access)
		node = access.FirstChild
	}
	slices.Reverse(segments)
	return segments
}

// chainTops returns every chain with at least minSegments segments inside
// root, outermost first.
func chainTops(root *csast.Node, minSegments int) [][]*csast.Node {
	var chains [][]*csast.Node
	_ = csast.Walk(root, func(n *csast.Node) error {
		if isChainTop(n) {
			if segments := chainSegments(n); len(segments) >= minSegments {
				chains = append(chains, segments)
			}
		}
		return nil
	})
	return chains
}

// breakOperators returns the operator tokens of the segments that must
// start their own line: every segment after the first, except the partner
// of a connector segment.
func breakOperators(segments []*csast.Node, connectors []string) []int {
	var ops []int
	for idx := 1; idx < len(segments); idx++ {
		if connectorPartner(segments, connectors, idx) {
			continue
		}
		ops = append(ops, segments[idx].OpToken)
	}
	return ops
}

// connectorPartner reports whether segment idx directly follows a connector
// and may share its line. A connector unit is exactly two segments, so a
// partner cannot open another unit.
func connectorPartner(segments []*csast.Node, connectors []string, idx int) bool {
	return idx > 0 && slices.Contains(connectors, segments[idx-1].Name) &&
		!connectorPartner(segments, connectors, idx-1)
}

// enclosingStatement returns the statement containing n that sits directly
// in a block, a switch section or the compilation unit, or nil.
func enclosingStatement(n *csast.Node) *csast.Node {
	for node := n.Parent; node != nil; node = node.Parent {
		if !node.IsStatement() || node.Parent == nil {
			continue
		}
		switch node.Parent.Kind {
		case csast.NodeBlock, csast.NodeSwitchSection, csast.NodeCompilationUnit:
			return node
		}
	}
	return nil
}

// lowerFirst lower-cases the first byte of an ASCII identifier.
func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+('a'-'A')) + s[1:]
}
