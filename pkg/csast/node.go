package csast

// NodeKind classifies the type of a syntax node. The set is closed; rules
// switch over it and new kinds are added here.
type NodeKind uint16

// Node kinds for declarations, statements and expressions.
const (
	NodeCompilationUnit NodeKind = iota

	// Declarations.
	NodeUsingDirective
	NodeNamespace
	NodeTypeDecl
	NodeMethodDecl
	NodeConstructorDecl
	NodeLocalFunction
	NodeDelegateDecl
	NodePropertyDecl
	NodeIndexerDecl
	NodeAccessorList
	NodeAccessor
	NodeFieldDecl
	NodeParameterList
	NodeParameter
	NodeAttributeList
	NodeAttribute
	NodeArrowClause

	// Statements.
	NodeBlock
	NodeIf
	NodeElse
	NodeFor
	NodeForeach
	NodeWhile
	NodeDo
	NodeSwitch
	NodeSwitchSection
	NodeTry
	NodeCatch
	NodeFinally
	NodeUsingStatement
	NodeLock
	NodeReturn
	NodeExpressionStatement
	NodeLocalDeclaration
	NodeStatement

	// Expressions.
	NodeInvocation
	NodeMemberAccess
	NodeElementAccess
	NodeArgumentList
	NodeArgument
	NodeIdentifier
	NodeLiteral
	NodeStringTemplate
	NodeInterpolation
	NodeConditional
	NodeBinary
	NodeUnary
	NodeParenthesized
	NodeCast
	NodeLambda
	NodeObjectCreation
	NodeInitializer
	NodeSwitchExpression
	NodeExpression
)

var nodeKindNames = [...]string{
	NodeCompilationUnit:     "CompilationUnit",
	NodeUsingDirective:      "UsingDirective",
	NodeNamespace:           "Namespace",
	NodeTypeDecl:            "TypeDecl",
	NodeMethodDecl:          "MethodDecl",
	NodeConstructorDecl:     "ConstructorDecl",
	NodeLocalFunction:       "LocalFunction",
	NodeDelegateDecl:        "DelegateDecl",
	NodePropertyDecl:        "PropertyDecl",
	NodeIndexerDecl:         "IndexerDecl",
	NodeAccessorList:        "AccessorList",
	NodeAccessor:            "Accessor",
	NodeFieldDecl:           "FieldDecl",
	NodeParameterList:       "ParameterList",
	NodeParameter:           "Parameter",
	NodeAttributeList:       "AttributeList",
	NodeAttribute:           "Attribute",
	NodeArrowClause:         "ArrowClause",
	NodeBlock:               "Block",
	NodeIf:                  "If",
	NodeElse:                "Else",
	NodeFor:                 "For",
	NodeForeach:             "Foreach",
	NodeWhile:               "While",
	NodeDo:                  "Do",
	NodeSwitch:              "Switch",
	NodeSwitchSection:       "SwitchSection",
	NodeTry:                 "Try",
	NodeCatch:               "Catch",
	NodeFinally:             "Finally",
	NodeUsingStatement:      "UsingStatement",
	NodeLock:                "Lock",
	NodeReturn:              "Return",
	NodeExpressionStatement: "ExpressionStatement",
	NodeLocalDeclaration:    "LocalDeclaration",
	NodeStatement:           "Statement",
	NodeInvocation:          "Invocation",
	NodeMemberAccess:        "MemberAccess",
	NodeElementAccess:       "ElementAccess",
	NodeArgumentList:        "ArgumentList",
	NodeArgument:            "Argument",
	NodeIdentifier:          "Identifier",
	NodeLiteral:             "Literal",
	NodeStringTemplate:      "StringTemplate",
	NodeInterpolation:       "Interpolation",
	NodeConditional:         "Conditional",
	NodeBinary:              "Binary",
	NodeUnary:               "Unary",
	NodeParenthesized:       "Parenthesized",
	NodeCast:                "Cast",
	NodeLambda:              "Lambda",
	NodeObjectCreation:      "ObjectCreation",
	NodeInitializer:         "Initializer",
	NodeSwitchExpression:    "SwitchExpression",
	NodeExpression:          "Expression",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) && nodeKindNames[k] != "" {
		return nodeKindNames[k]
	}
	return "NodeKind(?)"
}

// Node represents a single node in the syntax tree.
// Nodes form a tree structure with parent/child/sibling relationships.
type Node struct {
	// Kind identifies what type of node this is.
	Kind NodeKind

	// Tree structure pointers.
	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node

	// Token span (indices into FileSnapshot.Tokens). Both ends are
	// significant tokens. Both are -1 for synthetic nodes.
	FirstToken int
	LastToken  int

	// File is a back-reference to the containing FileSnapshot.
	File *FileSnapshot

	// Name is the declared or referenced name: the member name of a member
	// access, the identifier of a declaration, the keyword of a NodeStatement,
	// the argument name of a named argument.
	Name string

	// Op is the operator text for NodeBinary, NodeUnary and NodeMemberAccess
	// ("." or "?."), and OpToken its token index (-1 when absent).
	Op      string
	OpToken int

	// Postfix marks a NodeUnary whose operator follows its operand (x!, x++).
	Postfix bool

	// Decl holds declaration attributes (nil for other kinds).
	Decl *DeclAttrs

	// Using holds using-directive attributes (nil for other kinds).
	Using *UsingAttrs
}

// DeclAttrs holds attributes shared by member declarations.
type DeclAttrs struct {
	// HeaderToken is the first token of the declaration after its attribute lists.
	HeaderToken int

	// NameToken is the token holding the declared name, or -1.
	NameToken int

	// Modifiers lists the modifier keywords in source order.
	Modifiers []string
}

// UsingAttrs holds attributes of a using directive.
type UsingAttrs struct {
	// Namespace is the imported namespace or type, with whitespace removed.
	Namespace string

	// Alias is the alias name for "using A = X;", empty otherwise.
	Alias string

	// Static marks "using static X;".
	Static bool

	// Global marks "global using X;".
	Global bool
}

// IsStatement reports whether the node is a statement.
func (n *Node) IsStatement() bool {
	switch n.Kind {
	case NodeBlock, NodeIf, NodeFor, NodeForeach, NodeWhile, NodeDo, NodeSwitch,
		NodeTry, NodeUsingStatement, NodeLock, NodeReturn, NodeExpressionStatement,
		NodeLocalDeclaration, NodeStatement, NodeLocalFunction:
		return true
	default:
		return false
	}
}

// IsBlockStatement reports whether the node is a compound statement that
// owns a braced body: if, for, foreach, while, do, switch, try, using, lock.
func (n *Node) IsBlockStatement() bool {
	switch n.Kind {
	case NodeIf, NodeFor, NodeForeach, NodeWhile, NodeDo, NodeSwitch,
		NodeTry, NodeUsingStatement, NodeLock:
		return true
	default:
		return false
	}
}

// HasChildren returns true if this node has any children.
func (n *Node) HasChildren() bool {
	return n.FirstChild != nil
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for child := n.FirstChild; child != nil; child = child.Next {
		count++
	}
	return count
}

// Children returns a slice of all direct children.
func (n *Node) Children() []*Node {
	var children []*Node
	for child := n.FirstChild; child != nil; child = child.Next {
		children = append(children, child)
	}
	return children
}

// Child returns the first direct child of the given kind, or nil.
func (n *Node) Child(kind NodeKind) *Node {
	for child := n.FirstChild; child != nil; child = child.Next {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

// ChildrenOf returns the direct children of the given kind.
func (n *Node) ChildrenOf(kind NodeKind) []*Node {
	var out []*Node
	for child := n.FirstChild; child != nil; child = child.Next {
		if child.Kind == kind {
			out = append(out, child)
		}
	}
	return out
}

// Ancestor returns the closest ancestor whose kind is one of kinds, or nil.
func (n *Node) Ancestor(kinds ...NodeKind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, k := range kinds {
			if p.Kind == k {
				return p
			}
		}
	}
	return nil
}
