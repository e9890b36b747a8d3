package csast

import "fmt"

// NewNode creates a new node of the specified kind.
// The node has no parent, children, or token associations.
func NewNode(kind NodeKind) *Node {
	return &Node{
		Kind:       kind,
		FirstToken: -1,
		LastToken:  -1,
		OpToken:    -1,
	}
}

// AppendChild appends a child node to a parent.
// It maintains the parent/child/sibling relationships correctly.
func AppendChild(parent, child *Node) {
	if parent == nil || child == nil {
		return
	}

	child.Parent = parent
	child.Prev = parent.LastChild
	child.Next = nil

	if parent.LastChild != nil {
		parent.LastChild.Next = child
	} else {
		parent.FirstChild = child
	}

	parent.LastChild = child
}

// SetFile sets the file reference for a node and all its descendants.
func SetFile(node *Node, file *FileSnapshot) {
	//nolint:errcheck,revive // Walk only returns nil errors in this usage
	Walk(node, func(child *Node) error {
		child.File = file
		return nil
	})
}

// ValidateTree checks the span invariants of a tree: every child span lies
// within its parent's span and sibling spans do not overlap.
func ValidateTree(root *Node) error {
	return Walk(root, func(n *Node) error {
		span := n.SourceRange()
		var prev *Node
		for child := n.FirstChild; child != nil; child = child.Next {
			if child.FirstToken < 0 {
				continue
			}
			childSpan := child.SourceRange()
			if n.FirstToken >= 0 && !span.Encloses(childSpan) {
				return fmt.Errorf("%s [%d:%d] escapes parent %s [%d:%d]",
					child.Kind, childSpan.StartOffset, childSpan.EndOffset,
					n.Kind, span.StartOffset, span.EndOffset)
			}
			if prev != nil && prev.SourceRange().Overlaps(childSpan) {
				return fmt.Errorf("%s [%d:%d] overlaps sibling %s",
					child.Kind, childSpan.StartOffset, childSpan.EndOffset, prev.Kind)
			}
			prev = child
		}
		return nil
	})
}
