package csharp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/atclint/pkg/csast"
)

func parse(t *testing.T, src string) *csast.FileSnapshot {
	t.Helper()

	snapshot, err := New().Parse(context.Background(), "test.cs", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.NoError(t, csast.ValidateTree(snapshot.Root))
	return snapshot
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func findNamed(root *csast.Node, kind csast.NodeKind, name string) *csast.Node {
	return csast.FindFirst(root, func(n *csast.Node) bool {
		return n.Kind == kind && n.Name == name
	})
}

func TestParser_Parse_Basic(t *testing.T) {
	t.Parallel()

	content := []byte("class C { }\n")
	snapshot, err := New().Parse(context.Background(), "c.cs", content)
	require.NoError(t, err)

	assert.Equal(t, "c.cs", snapshot.Path)
	assert.Equal(t, content, snapshot.Content)
	assert.NotSame(t, &content[0], &snapshot.Content[0], "content must be copied")
	assert.True(t, csast.ValidateTokens(snapshot.Tokens, len(content)))
	assert.Len(t, snapshot.Metrics, len(snapshot.Lines))
	require.NotNil(t, snapshot.Root)
	assert.Equal(t, csast.NodeCompilationUnit, snapshot.Root.Kind)

	typeDecl := snapshot.Root.FirstChild
	require.NotNil(t, typeDecl)
	assert.Equal(t, csast.NodeTypeDecl, typeDecl.Kind)
	assert.Equal(t, "C", typeDecl.Name)
	assert.Same(t, snapshot, typeDecl.File)
}

func TestParser_Parse_Empty(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, "")
	assert.Empty(t, snapshot.Tokens)
	assert.Nil(t, snapshot.Root.FirstChild)
}

func TestParser_Parse_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Parse(ctx, "x.cs", []byte("class C {}"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParser_Parse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"unclosed brace", "class C {\n"},
		{"stray closer", "class C { } }\n"},
		{"mismatched", "void M() { (a]; }\n"},
		{"unterminated string", "var s = \"abc;\n"},
		{"unterminated comment", "/* never closed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New().Parse(context.Background(), "bad.cs", []byte(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParser_UsingDirectives(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"using System;",
		"global using System.Linq;",
		"using static System.Math;",
		"using IO = System.IO;",
		"using System.Collections.Generic;",
	))

	usings := csast.FindByKind(snapshot.Root, csast.NodeUsingDirective)
	require.Len(t, usings, 5)

	assert.Equal(t, csast.UsingAttrs{Namespace: "System"}, *usings[0].Using)
	assert.Equal(t, csast.UsingAttrs{Namespace: "System.Linq", Global: true}, *usings[1].Using)
	assert.Equal(t, csast.UsingAttrs{Namespace: "System.Math", Static: true}, *usings[2].Using)
	assert.Equal(t, csast.UsingAttrs{Namespace: "System.IO", Alias: "IO"}, *usings[3].Using)
	assert.Equal(t, "System.Collections.Generic", usings[4].Name)
	assert.Equal(t, 5, usings[4].StartLine())
}

func TestParser_Namespaces(t *testing.T) {
	t.Parallel()

	t.Run("file scoped", func(t *testing.T) {
		t.Parallel()

		snapshot := parse(t, lines("namespace A.B;", "", "class C {}", "class D {}"))
		ns := snapshot.Root.FirstChild
		require.NotNil(t, ns)
		assert.Equal(t, csast.NodeNamespace, ns.Kind)
		assert.Equal(t, "A.B", ns.Name)
		assert.Equal(t, 2, ns.ChildCount())
	})

	t.Run("block", func(t *testing.T) {
		t.Parallel()

		snapshot := parse(t, lines("namespace A {", "  using X;", "  class C {}", "}"))
		ns := snapshot.Root.FirstChild
		require.NotNil(t, ns)
		assert.Equal(t, "A", ns.Name)
		kinds := []csast.NodeKind{}
		for _, child := range ns.Children() {
			kinds = append(kinds, child.Kind)
		}
		assert.Equal(t, []csast.NodeKind{csast.NodeUsingDirective, csast.NodeTypeDecl}, kinds)
	})
}

func TestParser_MethodDeclaration(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"public class C",
		"{",
		"    public static int Add(int a, [NotNull] string? b = null, params object[] rest)",
		"    {",
		"        return a;",
		"    }",
		"}",
	))

	method := findNamed(snapshot.Root, csast.NodeMethodDecl, "Add")
	require.NotNil(t, method)
	assert.Equal(t, []string{"public", "static"}, method.Decl.Modifiers)
	assert.Equal(t, "public", snapshot.TokenText(method.Decl.HeaderToken))
	assert.Equal(t, "Add", snapshot.TokenText(method.Decl.NameToken))

	params := method.Child(csast.NodeParameterList)
	require.NotNil(t, params)
	assert.Equal(t, "(int a, [NotNull] string? b = null, params object[] rest)", string(params.Text()))

	var names []string
	for _, p := range params.ChildrenOf(csast.NodeParameter) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "b", "rest"}, names)

	body := method.Child(csast.NodeBlock)
	require.NotNil(t, body)
	assert.Equal(t, csast.NodeReturn, body.FirstChild.Kind)
}

func TestParser_MemberKinds(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"class C<T> : Base<T>, IThing where T : class",
		"{",
		"    private readonly int _x = 1, _y;",
		"    public C(int x) : base(x) { _x = x; }",
		"    ~C() { }",
		"    public int X { get { return _x; } private set => _x = value; }",
		"    public int Y => _x;",
		"    public int this[int i] => i;",
		"    public event EventHandler? Changed;",
		"    public static C operator +(C a, C b) => a;",
		"    public delegate void Handler(object sender);",
		"    T IThing.Get<T>() => default;",
		"    enum E { A, B = 2 }",
		"    record R(int A, int B);",
		"}",
	))

	typeDecl := findNamed(snapshot.Root, csast.NodeTypeDecl, "C")
	require.NotNil(t, typeDecl)

	var got []string
	for _, child := range typeDecl.Children() {
		got = append(got, child.Kind.String()+":"+child.Name)
	}
	assert.Equal(t, []string{
		"FieldDecl:_x",
		"ConstructorDecl:C",
		"ConstructorDecl:~C",
		"PropertyDecl:X",
		"PropertyDecl:Y",
		"IndexerDecl:this",
		"FieldDecl:Changed",
		"MethodDecl:operator+",
		"DelegateDecl:Handler",
		"MethodDecl:Get",
		"TypeDecl:E",
		"TypeDecl:R",
	}, got)

	prop := findNamed(typeDecl, csast.NodePropertyDecl, "X")
	accessors := prop.Child(csast.NodeAccessorList)
	require.NotNil(t, accessors)
	require.Equal(t, 2, accessors.ChildCount())
	assert.Equal(t, "get", accessors.FirstChild.Name)
	assert.NotNil(t, accessors.FirstChild.Child(csast.NodeBlock))
	assert.Equal(t, "set", accessors.LastChild.Name)
	assert.Equal(t, []string{"private"}, accessors.LastChild.Decl.Modifiers)
	assert.NotNil(t, accessors.LastChild.Child(csast.NodeArrowClause))

	record := findNamed(typeDecl, csast.NodeTypeDecl, "R")
	assert.NotNil(t, record.Child(csast.NodeParameterList))
}

func TestParser_Statements(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"void M()",
		"{",
		"    var x = 1;",
		"    if (x > 0) { x++; } else if (x < 0) { x--; } else { }",
		"    for (var i = 0; i < 3; i++) { }",
		"    foreach (var item in items) { }",
		"    while (true) { break; }",
		"    do { } while (false);",
		"    switch (x) { case 1: case 2: F(); break; default: break; }",
		"    try { } catch (Exception e) when (e is not null) { } finally { }",
		"    using (var s = Open()) { }",
		"    using var t = Open();",
		"    lock (this) { }",
		"    int Local(int a) => a;",
		"    label: return;",
		"}",
	))

	method := findNamed(snapshot.Root, csast.NodeLocalFunction, "M")
	require.NotNil(t, method, "top-level function is a local function")

	body := method.Child(csast.NodeBlock)
	require.NotNil(t, body)

	var kinds []csast.NodeKind
	for _, stmt := range body.Children() {
		kinds = append(kinds, stmt.Kind)
	}
	assert.Equal(t, []csast.NodeKind{
		csast.NodeLocalDeclaration,
		csast.NodeIf,
		csast.NodeFor,
		csast.NodeForeach,
		csast.NodeWhile,
		csast.NodeDo,
		csast.NodeSwitch,
		csast.NodeTry,
		csast.NodeUsingStatement,
		csast.NodeLocalDeclaration,
		csast.NodeLock,
		csast.NodeLocalFunction,
		csast.NodeStatement,
	}, kinds)

	ifNode := body.Child(csast.NodeIf)
	elseNode := ifNode.Child(csast.NodeElse)
	require.NotNil(t, elseNode)
	assert.Equal(t, csast.NodeIf, elseNode.FirstChild.Kind, "else-if nests an if")

	switchNode := body.Child(csast.NodeSwitch)
	sections := switchNode.ChildrenOf(csast.NodeSwitchSection)
	require.Len(t, sections, 2)
	assert.Equal(t, 2, sections[0].ChildCount())

	tryNode := body.Child(csast.NodeTry)
	assert.Len(t, tryNode.ChildrenOf(csast.NodeCatch), 1)
	assert.NotNil(t, tryNode.Child(csast.NodeFinally))
}

func TestParser_TopLevelStatements(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"using System;",
		"Console.WriteLine(\"hi\");",
		"await Task.Delay(1);",
		"return 0;",
	))

	var kinds []csast.NodeKind
	for _, child := range snapshot.Root.Children() {
		kinds = append(kinds, child.Kind)
	}
	assert.Equal(t, []csast.NodeKind{
		csast.NodeUsingDirective,
		csast.NodeExpressionStatement,
		csast.NodeExpressionStatement,
		csast.NodeReturn,
	}, kinds)
}

func TestParser_MethodChain(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, "var q = items.Where(x => x > 0).Select(x => x * 2).ToList();\n")

	decl := snapshot.Root.FirstChild
	require.Equal(t, csast.NodeLocalDeclaration, decl.Kind)
	assert.Equal(t, "q", decl.Name)

	outer := decl.FirstChild
	require.NotNil(t, outer)
	require.Equal(t, csast.NodeInvocation, outer.Kind)

	var names []string
	for n := outer; n != nil && n.Kind == csast.NodeInvocation; {
		callee := n.FirstChild
		require.Equal(t, csast.NodeMemberAccess, callee.Kind)
		names = append(names, callee.Name)
		assert.Equal(t, ".", snapshot.TokenText(callee.OpToken))
		n = callee.FirstChild
	}
	assert.Equal(t, []string{"ToList", "Select", "Where"}, names)

	lambdas := csast.FindByKind(outer, csast.NodeLambda)
	assert.Len(t, lambdas, 2)
}

func TestParser_Expressions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		kind csast.NodeKind
	}{
		{"conditional", "a ? b : c", csast.NodeConditional},
		{"coalesce", "a ?? b", csast.NodeBinary},
		{"assignment", "a = b", csast.NodeBinary},
		{"shift", "a >> 2", csast.NodeBinary},
		{"is pattern", "a is not null", csast.NodeBinary},
		{"as type", "a as string", csast.NodeBinary},
		{"cast", "(int)a", csast.NodeCast},
		{"parenthesized", "(a + b)", csast.NodeParenthesized},
		{"lambda", "(a, b) => a + b", csast.NodeLambda},
		{"object creation", "new List<int> { 1, 2 }", csast.NodeObjectCreation},
		{"target typed new", "new()", csast.NodeObjectCreation},
		{"element access", "a[0]", csast.NodeElementAccess},
		{"null forgiving", "a!", csast.NodeUnary},
		{"await", "await a", csast.NodeUnary},
		{"switch expression", "a switch { 1 => \"x\", _ => \"y\" }", csast.NodeSwitchExpression},
		{"generic call", "F<int>(a)", csast.NodeInvocation},
		{"string template", "$\"{a}\"", csast.NodeStringTemplate},
		{"collection expression", "[1, 2, ..rest]", csast.NodeInitializer},
		{"typeof", "typeof(int)", csast.NodeExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			snapshot := parse(t, "var v = "+tt.expr+";\n")
			decl := snapshot.Root.FirstChild
			require.NotNil(t, decl)
			require.Equal(t, csast.NodeLocalDeclaration, decl.Kind)

			expr := decl.FirstChild
			require.NotNil(t, expr)
			assert.Equal(t, tt.kind, expr.Kind)
			assert.Equal(t, tt.expr, string(expr.Text()))
		})
	}
}

func TestParser_Interpolation(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, "var s = $\"Name: {user.Name.Trim().ToUpper()} ({count:N0})\";\n")

	holes := csast.FindByKind(snapshot.Root, csast.NodeInterpolation)
	require.Len(t, holes, 2)

	first := holes[0].FirstChild
	require.NotNil(t, first)
	assert.Equal(t, csast.NodeInvocation, first.Kind)
	assert.Equal(t, "user.Name.Trim().ToUpper()", string(first.Text()))

	second := holes[1].FirstChild
	require.NotNil(t, second)
	assert.Equal(t, csast.NodeIdentifier, second.Kind)
	assert.Equal(t, "count", second.Name)
}

func TestParser_Attributes(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"partial class C",
		"{",
		"    [GeneratedRegex(\"a+\", RegexOptions.IgnoreCase | RegexOptions.Compiled, matchTimeoutMilliseconds: 100)]",
		"    private static partial Regex A();",
		"}",
	))

	attr := findNamed(snapshot.Root, csast.NodeAttribute, "GeneratedRegex")
	require.NotNil(t, attr)

	args := attr.Child(csast.NodeArgumentList)
	require.NotNil(t, args)
	list := args.ChildrenOf(csast.NodeArgument)
	require.Len(t, list, 3)
	assert.Equal(t, csast.NodeBinary, list[1].FirstChild.Kind)
	assert.Equal(t, "|", list[1].FirstChild.Op)
	assert.Equal(t, "matchTimeoutMilliseconds", list[2].Name)

	method := findNamed(snapshot.Root, csast.NodeMethodDecl, "A")
	require.NotNil(t, method)
	assert.Equal(t, []string{"private", "static", "partial"}, method.Decl.Modifiers)
	assert.Equal(t, csast.NodeAttributeList, method.FirstChild.Kind)
}

func TestParser_Tolerance(t *testing.T) {
	t.Parallel()

	// Unmodelled constructs must not fail the parse.
	src := lines(
		"class C",
		"{",
		"    void M()",
		"    {",
		"        var q = from x in xs where x > 1 select x;",
		"        unsafe { int* p = null; }",
		"        fixed (int* p = arr) { }",
		"        checked { x = x + 1; }",
		"        yield return 1;",
		"        goto done;",
		"        (var a, var b) = (1, 2);",
		"        var (c, d) = (3, 4);",
		"        #if DEBUG",
		"        Log();",
		"        #endif",
		"    }",
		"}",
	)

	snapshot := parse(t, src)
	assert.NotNil(t, findNamed(snapshot.Root, csast.NodeMethodDecl, "M"))
}

func TestParser_NodeSpansAreSignificant(t *testing.T) {
	t.Parallel()

	snapshot := parse(t, lines(
		"class C",
		"{",
		"    // comment",
		"    int M() => 1; // trailing",
		"}",
	))

	//nolint:errcheck // Walk callback never fails.
	csast.Walk(snapshot.Root, func(n *csast.Node) error {
		if n.FirstToken >= 0 {
			assert.False(t, snapshot.Tokens[n.FirstToken].Kind.IsTrivia(), n.Kind.String())
			assert.False(t, snapshot.Tokens[n.LastToken].Kind.IsTrivia(), n.Kind.String())
		}
		return nil
	})
}
