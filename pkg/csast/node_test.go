package csast_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yaklabco/atclint/pkg/csast"
)

func TestNewNode(t *testing.T) {
	t.Parallel()

	node := csast.NewNode(csast.NodeBlock)

	if node.Kind != csast.NodeBlock {
		t.Errorf("expected Block, got %s", node.Kind)
	}
	if node.FirstToken != -1 || node.LastToken != -1 || node.OpToken != -1 {
		t.Error("expected token indices to be -1")
	}
	if node.Parent != nil || node.FirstChild != nil || node.LastChild != nil {
		t.Error("expected nil parent and children")
	}
}

func TestNodeKind_String(t *testing.T) {
	t.Parallel()

	if got := csast.NodeMemberAccess.String(); got != "MemberAccess" {
		t.Errorf("String() = %q", got)
	}
	if got := csast.NodeKind(9999).String(); got != "NodeKind(?)" {
		t.Errorf("String() for unknown kind = %q", got)
	}
}

func TestNode_IsBlockStatement(t *testing.T) {
	t.Parallel()

	blockKinds := []csast.NodeKind{
		csast.NodeIf, csast.NodeFor, csast.NodeForeach, csast.NodeWhile, csast.NodeDo,
		csast.NodeSwitch, csast.NodeTry, csast.NodeUsingStatement, csast.NodeLock,
	}
	for _, kind := range blockKinds {
		node := &csast.Node{Kind: kind}
		if !node.IsBlockStatement() || !node.IsStatement() {
			t.Errorf("expected %s to be a block statement", kind)
		}
	}

	for _, kind := range []csast.NodeKind{csast.NodeBlock, csast.NodeReturn, csast.NodeLocalDeclaration} {
		node := &csast.Node{Kind: kind}
		if node.IsBlockStatement() {
			t.Errorf("expected %s not to be a block statement", kind)
		}
	}
}

func TestAppendChild_Links(t *testing.T) {
	t.Parallel()

	parent := csast.NewNode(csast.NodeBlock)
	first := csast.NewNode(csast.NodeReturn)
	second := csast.NewNode(csast.NodeIf)
	csast.AppendChild(parent, first)
	csast.AppendChild(parent, second)
	csast.AppendChild(parent, nil)

	if parent.FirstChild != first || parent.LastChild != second {
		t.Fatal("child pointers not maintained")
	}
	if first.Next != second || second.Prev != first || second.Parent != parent {
		t.Error("sibling pointers not maintained")
	}
	if parent.ChildCount() != 2 || !parent.HasChildren() {
		t.Errorf("ChildCount() = %d", parent.ChildCount())
	}
	if parent.Child(csast.NodeIf) != second || len(parent.ChildrenOf(csast.NodeReturn)) != 1 {
		t.Error("Child lookups failed")
	}
}

func TestNode_Navigation(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"class C",
		"{",
		"    void M()",
		"    {",
		"        // lead",
		"        var x = a.B(); // tail",
		"    }",
		"}",
		"",
	}, "\n")
	snapshot := mustParse(t, src)

	decl := csast.FindFirst(snapshot.Root, func(n *csast.Node) bool {
		return n.Kind == csast.NodeLocalDeclaration
	})
	if decl == nil {
		t.Fatal("local declaration not found")
	}

	if got := string(decl.Text()); got != "var x = a.B();" {
		t.Errorf("Text() = %q", got)
	}
	if decl.StartLine() != 6 || decl.EndLine() != 6 {
		t.Errorf("lines = %d..%d, want 6..6", decl.StartLine(), decl.EndLine())
	}

	pos := decl.SourcePosition()
	if pos.StartColumn != 9 || !pos.IsSingleLine() || !pos.IsValid() {
		t.Errorf("SourcePosition() = %+v", pos)
	}

	if method := decl.Ancestor(csast.NodeMethodDecl); method == nil || method.Name != "M" {
		t.Error("Ancestor(MethodDecl) did not find M")
	}
	if decl.Ancestor(csast.NodeLambda) != nil {
		t.Error("unexpected lambda ancestor")
	}

	var leadingComments int
	for _, tok := range decl.LeadingTrivia() {
		if tok.Kind == csast.TokLineComment {
			leadingComments++
		}
	}
	if leadingComments != 1 {
		t.Errorf("leading comments = %d, want 1", leadingComments)
	}

	trailing := decl.TrailingTrivia()
	if len(trailing) == 0 || trailing[len(trailing)-1].Kind != csast.TokNewline {
		t.Error("trailing trivia should end at the newline")
	}
	if !snapshot.FirstOnLine(decl.FirstToken) {
		t.Error("declaration starts its line")
	}
	if snapshot.FirstOnLine(decl.LastToken) {
		t.Error("semicolon does not start its line")
	}

	next := snapshot.NextSignificant(decl.LastToken)
	if snapshot.TokenText(next) != "}" {
		t.Errorf("NextSignificant after decl = %q", snapshot.TokenText(next))
	}
	if !snapshot.HasCommentBetween(decl.LastToken, next) {
		t.Error("trailing comment lies between ';' and '}'")
	}
	if prev := snapshot.PrevSignificant(decl.FirstToken); snapshot.TokenText(prev) != "{" {
		t.Errorf("PrevSignificant before decl = %q", snapshot.TokenText(prev))
	}
	if snapshot.TokenText(-1) != "" {
		t.Error("TokenText out of range should be empty")
	}
}

func TestWalk_SkipAndStop(t *testing.T) {
	t.Parallel()

	snapshot := mustParse(t, "class A { void M() { if (x) { F(); } } }\nclass B { }\n")

	var visited []string
	err := csast.Walk(snapshot.Root, func(n *csast.Node) error {
		if n.Kind == csast.NodeTypeDecl {
			visited = append(visited, n.Name)
			return csast.SkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if strings.Join(visited, ",") != "A,B" {
		t.Errorf("visited = %v", visited)
	}

	if csast.FindFirst(snapshot.Root, func(n *csast.Node) bool { return n.Kind == csast.NodeIf }) == nil {
		t.Error("FindFirst did not find the if statement")
	}
	if len(csast.FindByKind(snapshot.Root, csast.NodeTypeDecl, csast.NodeMethodDecl)) != 3 {
		t.Error("FindByKind should find two types and one method")
	}

	sentinel := errors.New("stop")
	err = csast.Walk(snapshot.Root, func(*csast.Node) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("Walk() error = %v, want sentinel", err)
	}

	var order []string
	err = csast.WalkWithContext(snapshot.Root,
		func(n *csast.Node) error {
			if n.Kind == csast.NodeIf {
				order = append(order, "enter")
			}
			return nil
		},
		func(n *csast.Node) error {
			if n.Kind == csast.NodeIf {
				order = append(order, "leave")
			}
			return nil
		})
	if err != nil || strings.Join(order, ",") != "enter,leave" {
		t.Errorf("WalkWithContext order = %v, err = %v", order, err)
	}
}

func TestValidateTree_DetectsEscapingChild(t *testing.T) {
	t.Parallel()

	snapshot := mustParse(t, "class A { }\nclass B { }\n")
	first := snapshot.Root.FirstChild
	second := first.Next

	// Graft B under A: B's span lies outside A's.
	broken := csast.NewNode(csast.NodeTypeDecl)
	broken.File = snapshot
	broken.FirstToken = first.FirstToken
	broken.LastToken = first.LastToken
	child := csast.NewNode(csast.NodeTypeDecl)
	child.File = snapshot
	child.FirstToken = second.FirstToken
	child.LastToken = second.LastToken
	csast.AppendChild(broken, child)

	if err := csast.ValidateTree(broken); err == nil {
		t.Error("expected ValidateTree to reject a child outside its parent")
	}
	if err := csast.ValidateTree(snapshot.Root); err != nil {
		t.Errorf("parsed tree should validate: %v", err)
	}
}

func TestSourceRange(t *testing.T) {
	t.Parallel()

	r := csast.SourceRange{StartOffset: 2, EndOffset: 6}
	if r.Len() != 4 || r.IsEmpty() {
		t.Error("Len/IsEmpty")
	}
	if !r.Contains(2) || r.Contains(6) {
		t.Error("Contains is half-open")
	}
	if !r.Encloses(csast.SourceRange{StartOffset: 3, EndOffset: 6}) {
		t.Error("Encloses inner range")
	}
	if r.Overlaps(csast.SourceRange{StartOffset: 6, EndOffset: 8}) {
		t.Error("adjacent ranges do not overlap")
	}
	if !r.Overlaps(csast.SourceRange{StartOffset: 5, EndOffset: 8}) {
		t.Error("crossing ranges overlap")
	}
}
