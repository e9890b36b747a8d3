package lint

import "github.com/yaklabco/atclint/pkg/csast"

// NodeCache indexes the syntax tree by node kind.
//
// The tree is walked once, on first access, and every rule evaluating the
// same file shares the result. The returned slices are shared: copy before
// sorting or filtering in place.
//
// NodeCache is not safe for concurrent use. Each file gets its own
// RuleContext and therefore its own cache.
type NodeCache struct {
	byKind map[csast.NodeKind][]*csast.Node
	built  bool
}

func newNodeCache() *NodeCache {
	return &NodeCache{}
}

// build walks the tree once and buckets every node by kind, in pre-order.
func (nc *NodeCache) build(root *csast.Node) {
	if nc.built || root == nil {
		return
	}

	nc.byKind = make(map[csast.NodeKind][]*csast.Node)

	//nolint:errcheck // Walk visitor never returns error in this usage
	csast.Walk(root, func(node *csast.Node) error {
		nc.byKind[node.Kind] = append(nc.byKind[node.Kind], node)
		return nil
	})

	nc.built = true
}

// Nodes returns the nodes of the given kinds in document order. A single
// kind returns the shared slice; several kinds return a merged copy.
// Do not mutate the returned slice.
func (nc *NodeCache) Nodes(kinds ...csast.NodeKind) []*csast.Node {
	switch len(kinds) {
	case 0:
		return nil
	case 1:
		return nc.byKind[kinds[0]]
	}

	var out []*csast.Node
	for _, kind := range kinds {
		out = append(out, nc.byKind[kind]...)
	}
	sortByOffset(out)
	return out
}

// Count returns the number of nodes of kind.
func (nc *NodeCache) Count(kind csast.NodeKind) int {
	return len(nc.byKind[kind])
}
