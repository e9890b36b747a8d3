package csharp

import (
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
)

//nolint:gochecknoglobals // Read-only lookup table.
var memberModifiers = map[string]struct{}{
	"public": {}, "private": {}, "protected": {}, "internal": {}, "static": {},
	"abstract": {}, "virtual": {}, "override": {}, "sealed": {}, "readonly": {},
	"extern": {}, "unsafe": {}, "new": {}, "volatile": {}, "const": {}, "ref": {},
}

// contextualModifiers only act as modifiers when followed by another word.
//
//nolint:gochecknoglobals // Read-only lookup table.
var contextualModifiers = map[string]struct{}{
	"async": {}, "partial": {}, "required": {}, "file": {}, "scoped": {},
}

//nolint:gochecknoglobals // Read-only lookup table.
var parameterModifiers = map[string]struct{}{
	"this": {}, "ref": {}, "out": {}, "in": {}, "params": {}, "readonly": {},
}

// parseMembers parses namespace or type members into parent until EOF or,
// when inBraces is set, the closing brace (not consumed).
func (ps *parseState) parseMembers(parent *csast.Node, inBraces bool) {
	for !ps.eof() {
		if inBraces && ps.isPunct("}") {
			return
		}
		if err := ps.ctx.Err(); err != nil {
			ps.err = err
			return
		}

		before := ps.pos
		appendChild(parent, ps.parseMember(parent))
		if ps.pos == before {
			ps.pos++
		}
	}
}

func (ps *parseState) parseMember(parent *csast.Node) *csast.Node {
	ps.enter()
	defer ps.leave()

	start := ps.pos
	switch {
	case ps.isPunct(";"):
		ps.pos++
		return ps.statementNode("empty", start)

	case ps.isWord("global") && ps.isKeywordAt(ps.pos+1, "using"):
		return ps.parseUsingDirective()

	case ps.isKeyword("using") && ps.isUsingDirective(ps.pos+1):
		return ps.parseUsingDirective()

	case ps.isKeyword("extern") && ps.isWordAt(ps.pos+1, "alias"):
		ps.skipStatementTail()
		return ps.statementNode("extern", start)

	case ps.isKeyword("namespace"):
		return ps.parseNamespace()

	case ps.isPunct("[") && (ps.isWordAt(ps.pos+1, "assembly") || ps.isWordAt(ps.pos+1, "module")):
		return ps.parseAttributeList()
	}

	inType := parent.Kind == csast.NodeTypeDecl
	attrs := ps.parseAttributeLists()
	header := ps.pos
	mods := ps.parseModifiers()

	switch {
	case ps.isTypeKeyword():
		return ps.parseTypeDecl(start, header, attrs, mods)
	case ps.isKeyword("delegate") && !ps.isPunctAt(ps.pos+1, "(") && !ps.isPunctAt(ps.pos+1, "{"):
		return ps.parseDelegate(start, header, attrs, mods)
	case inType:
		return ps.parseTypeMember(start, header, attrs, mods)
	}

	// Top-level statements and anything else outside a type.
	ps.pos = start
	return ps.parseStatement()
}

func (ps *parseState) statementNode(name string, start int) *csast.Node {
	n := ps.span(csast.NodeStatement, start)
	n.Name = name
	return n
}

func (ps *parseState) newDecl(kind csast.NodeKind, header int, mods []string, attrs []*csast.Node) *csast.Node {
	n := csast.NewNode(kind)
	n.Decl = &csast.DeclAttrs{HeaderToken: ps.sig[min(header, len(ps.sig)-1)], NameToken: -1, Modifiers: mods}
	for _, attr := range attrs {
		appendChild(n, attr)
	}
	return n
}

// setName records the identifier under the cursor as the declaration name.
func (ps *parseState) setName(n *csast.Node) {
	if ps.isIdentAt(ps.pos) {
		n.Name = ps.text()
		n.Decl.NameToken = ps.sig[ps.pos]
		ps.pos++
	}
}

func (ps *parseState) parseModifiers() []string {
	var mods []string
	for !ps.eof() {
		text := ps.text()
		if ps.kind() == csast.TokKeyword {
			if _, ok := memberModifiers[text]; ok {
				mods = append(mods, text)
				ps.pos++
				continue
			}
			return mods
		}
		if _, ok := contextualModifiers[text]; ok && ps.kind() == csast.TokIdentifier {
			next := ps.kindAt(ps.pos + 1)
			if next == csast.TokIdentifier || next == csast.TokKeyword {
				mods = append(mods, text)
				ps.pos++
				continue
			}
		}
		return mods
	}
	return mods
}

func (ps *parseState) isTypeKeyword() bool {
	switch {
	case ps.isKeyword("class"), ps.isKeyword("struct"), ps.isKeyword("interface"), ps.isKeyword("enum"):
		return true
	case ps.isWord("record"):
		next := ps.pos + 1
		return ps.isIdentAt(next) || ps.isKeywordAt(next, "class") || ps.isKeywordAt(next, "struct")
	default:
		return false
	}
}

// isUsingDirective reports whether the tokens after "using" at pos form a
// directive rather than a using statement or declaration.
func (ps *parseState) isUsingDirective(pos int) bool {
	if ps.isKeywordAt(pos, "static") {
		return true
	}
	if ps.isIdentAt(pos) && ps.isPunctAt(pos+1, "=") {
		return true
	}
	end, ok := ps.scanType(pos)
	return ok && ps.isPunctAt(end, ";")
}

func (ps *parseState) parseUsingDirective() *csast.Node {
	start := ps.pos
	attrs := &csast.UsingAttrs{}

	if ps.isWord("global") {
		attrs.Global = true
		ps.pos++
	}
	ps.pos++ // using

	if ps.isKeyword("static") {
		attrs.Static = true
		ps.pos++
	}
	if ps.isIdentAt(ps.pos) && ps.isPunctAt(ps.pos+1, "=") {
		attrs.Alias = ps.text()
		ps.pos += 2
	}

	var name strings.Builder
	for !ps.eof() && !ps.isPunct(";") && !ps.isCloser(ps.pos) {
		name.WriteString(ps.text())
		ps.pos++
	}
	attrs.Namespace = name.String()
	ps.accept(";")

	n := ps.span(csast.NodeUsingDirective, start)
	n.Name = attrs.Namespace
	n.Using = attrs
	return n
}

func (ps *parseState) parseNamespace() *csast.Node {
	start := ps.pos
	ps.pos++ // namespace

	var name strings.Builder
	for !ps.eof() && (ps.isIdentAt(ps.pos) || ps.isPunct(".")) {
		name.WriteString(ps.text())
		ps.pos++
	}

	n := csast.NewNode(csast.NodeNamespace)
	n.Name = name.String()

	switch {
	case ps.accept(";"):
		ps.parseMembers(n, false)
	case ps.accept("{"):
		ps.parseMembers(n, true)
		ps.accept("}")
		ps.accept(";")
	}
	return ps.finish(n, start)
}

// parseAttributeLists parses consecutive "[...]" attribute sections.
func (ps *parseState) parseAttributeLists() []*csast.Node {
	var lists []*csast.Node
	for ps.isPunct("[") && !ps.eof() {
		lists = append(lists, ps.parseAttributeList())
	}
	return lists
}

func (ps *parseState) parseAttributeList() *csast.Node {
	start := ps.pos
	list := csast.NewNode(csast.NodeAttributeList)
	ps.pos++ // [

	if (ps.isIdentAt(ps.pos) || ps.kind() == csast.TokKeyword) && ps.isPunctAt(ps.pos+1, ":") {
		ps.pos += 2
	}

	for !ps.eof() && !ps.isPunct("]") {
		before := ps.pos
		appendChild(list, ps.parseAttribute())
		if !ps.accept(",") {
			break
		}
		if ps.pos == before {
			break
		}
	}
	ps.skipToPunct("]")
	ps.accept("]")
	return ps.finish(list, start)
}

func (ps *parseState) parseAttribute() *csast.Node {
	start := ps.pos
	attr := csast.NewNode(csast.NodeAttribute)

	var name strings.Builder
	for ps.isIdentAt(ps.pos) {
		name.WriteString(ps.text())
		ps.pos++
		if end, ok := ps.scanTypeArgs(ps.pos); ok {
			ps.pos = end
		}
		if (ps.isPunct(".") || ps.isPunct("::")) && ps.isIdentAt(ps.pos+1) {
			name.WriteString(ps.text())
			ps.pos++
			continue
		}
		break
	}
	attr.Name = name.String()

	if ps.isPunct("(") {
		appendChild(attr, ps.parseArgumentList("(", ")", true))
	}
	ps.skipUntil(func(pos int) bool { return ps.isPunctAt(pos, ",") || ps.isPunctAt(pos, "]") })
	return ps.finish(attr, start)
}

func (ps *parseState) parseTypeDecl(start, header int, attrs []*csast.Node, mods []string) *csast.Node {
	n := ps.newDecl(csast.NodeTypeDecl, header, mods, attrs)

	isEnum := ps.isKeyword("enum")
	if ps.isWord("record") {
		ps.pos++
		if ps.isKeyword("class") || ps.isKeyword("struct") {
			ps.pos++
		}
	} else {
		ps.pos++
	}

	ps.setName(n)
	ps.skipAngles()

	if ps.isPunct("(") {
		appendChild(n, ps.parseParameterList("(", ")"))
	}

	// Base list and constraints.
	ps.skipToPunct("{", ";")

	switch {
	case ps.isPunct("{") && isEnum:
		ps.skipGroup()
	case ps.accept("{"):
		ps.parseMembers(n, true)
		ps.accept("}")
	}
	ps.accept(";")

	return ps.finish(n, start)
}

func (ps *parseState) parseDelegate(start, header int, attrs []*csast.Node, mods []string) *csast.Node {
	n := ps.newDecl(csast.NodeDelegateDecl, header, mods, attrs)
	ps.pos++ // delegate

	if end, ok := ps.scanType(ps.pos); ok {
		ps.pos = end
	}
	ps.setName(n)
	ps.skipAngles()

	if ps.isPunct("(") {
		appendChild(n, ps.parseParameterList("(", ")"))
	}
	ps.skipStatementTail()
	return ps.finish(n, start)
}

func (ps *parseState) parseTypeMember(start, header int, attrs []*csast.Node, mods []string) *csast.Node {
	switch {
	case ps.isKeyword("event"):
		return ps.parseEvent(start, header, attrs, mods)

	case ps.isPunct("~"):
		n := ps.newDecl(csast.NodeConstructorDecl, header, mods, attrs)
		ps.pos++
		ps.setName(n)
		n.Name = "~" + n.Name
		ps.parseMethodRest(n)
		return ps.finish(n, start)

	case ps.isKeyword("implicit") || ps.isKeyword("explicit"):
		n := ps.newDecl(csast.NodeMethodDecl, header, mods, attrs)
		ps.pos++
		if ps.isKeyword("operator") {
			ps.pos++
		}
		n.Name = "operator"
		if end, ok := ps.scanType(ps.pos); ok {
			ps.pos = end
		}
		ps.parseMethodRest(n)
		return ps.finish(n, start)

	case ps.isIdentAt(ps.pos) && ps.isPunctAt(ps.pos+1, "("):
		n := ps.newDecl(csast.NodeConstructorDecl, header, mods, attrs)
		ps.setName(n)
		ps.parseMethodRest(n)
		return ps.finish(n, start)
	}

	end, ok := ps.scanType(ps.pos)
	if !ok {
		return ps.skipUnknownMember(start)
	}
	ps.pos = end

	switch {
	case ps.isKeyword("operator"):
		n := ps.newDecl(csast.NodeMethodDecl, header, mods, attrs)
		ps.pos++
		var op strings.Builder
		for !ps.eof() && !ps.isPunct("(") {
			op.WriteString(ps.text())
			ps.pos++
		}
		n.Name = "operator" + op.String()
		ps.parseMethodRest(n)
		return ps.finish(n, start)

	case ps.isKeyword("this"):
		return ps.parseIndexer(start, header, attrs, mods)
	}

	if !ps.isIdentAt(ps.pos) {
		return ps.skipUnknownMember(start)
	}

	// The member name, possibly qualified by an explicitly implemented interface.
	nameTok := ps.pos
	for {
		nameTok = ps.pos
		ps.pos++
		if ps.isPunct("<") {
			if after, ok := ps.scanTypeArgs(ps.pos); ok && ps.isPunctAt(after, ".") {
				ps.pos = after
			}
		}
		if ps.isPunct(".") && ps.isKeywordAt(ps.pos+1, "this") {
			ps.pos++
			return ps.parseIndexer(start, header, attrs, mods)
		}
		if ps.isPunct(".") && ps.isIdentAt(ps.pos+1) {
			ps.pos++
			continue
		}
		break
	}

	switch {
	case ps.isPunct("(") || ps.isPunct("<"):
		n := ps.newDecl(csast.NodeMethodDecl, header, mods, attrs)
		n.Name = ps.textAt(nameTok)
		n.Decl.NameToken = ps.sig[nameTok]
		ps.parseMethodRest(n)
		return ps.finish(n, start)

	case ps.isPunct("{") || ps.isPunct("=>"):
		n := ps.newDecl(csast.NodePropertyDecl, header, mods, attrs)
		n.Name = ps.textAt(nameTok)
		n.Decl.NameToken = ps.sig[nameTok]
		ps.parsePropertyRest(n)
		return ps.finish(n, start)

	default:
		n := ps.newDecl(csast.NodeFieldDecl, header, mods, attrs)
		ps.pos = nameTok
		ps.parseVariableDeclarators(n)
		return ps.finish(n, start)
	}
}

func (ps *parseState) skipUnknownMember(start int) *csast.Node {
	ps.skipToPunct(";", "{")
	if ps.isPunct("{") {
		ps.skipGroup()
	} else {
		ps.accept(";")
	}
	return ps.statementNode("unknown", start)
}

func (ps *parseState) parseEvent(start, header int, attrs []*csast.Node, mods []string) *csast.Node {
	ps.pos++ // event
	if end, ok := ps.scanType(ps.pos); ok {
		ps.pos = end
	}

	if ps.isIdentAt(ps.pos) && ps.isPunctAt(ps.pos+1, "{") {
		n := ps.newDecl(csast.NodePropertyDecl, header, mods, attrs)
		ps.setName(n)
		ps.parsePropertyRest(n)
		return ps.finish(n, start)
	}

	n := ps.newDecl(csast.NodeFieldDecl, header, mods, attrs)
	ps.parseVariableDeclarators(n)
	return ps.finish(n, start)
}

func (ps *parseState) parseIndexer(start, header int, attrs []*csast.Node, mods []string) *csast.Node {
	n := ps.newDecl(csast.NodeIndexerDecl, header, mods, attrs)
	n.Name = "this"
	n.Decl.NameToken = ps.sig[ps.pos]
	ps.pos++ // this

	if ps.isPunct("[") {
		appendChild(n, ps.parseParameterList("[", "]"))
	}
	ps.parsePropertyRest(n)
	return ps.finish(n, start)
}

// parseMethodRest parses type parameters, the parameter list, constraints
// or constructor initializer, and the body.
func (ps *parseState) parseMethodRest(n *csast.Node) {
	ps.skipAngles()
	if ps.isPunct("(") {
		appendChild(n, ps.parseParameterList("(", ")"))
	}
	ps.skipToPunct("{", "=>", ";")
	ps.parseBody(n)
}

// parseBody parses a block body, an expression body, or a bare ';'.
func (ps *parseState) parseBody(n *csast.Node) {
	switch {
	case ps.isPunct("{"):
		appendChild(n, ps.parseBlock())
	case ps.isPunct("=>"):
		appendChild(n, ps.parseArrowClause())
		ps.skipStatementTail()
	default:
		ps.accept(";")
	}
}

func (ps *parseState) parseArrowClause() *csast.Node {
	start := ps.pos
	ps.pos++ // =>
	arrow := csast.NewNode(csast.NodeArrowClause)
	expr := ps.parseExpression()
	if expr == nil {
		ps.skipToPunct(";")
	}
	ps.finish(arrow, start)
	appendChild(arrow, expr)
	return arrow
}

func (ps *parseState) parsePropertyRest(n *csast.Node) {
	switch {
	case ps.isPunct("{"):
		appendChild(n, ps.parseAccessorList())
		if ps.accept("=") {
			appendChild(n, ps.parseExpression())
			ps.skipStatementTail()
		}
	case ps.isPunct("=>"):
		appendChild(n, ps.parseArrowClause())
		ps.skipStatementTail()
	default:
		ps.skipStatementTail()
	}
}

func (ps *parseState) parseAccessorList() *csast.Node {
	start := ps.pos
	list := csast.NewNode(csast.NodeAccessorList)
	ps.pos++ // {

	for !ps.eof() && !ps.isPunct("}") {
		before := ps.pos
		appendChild(list, ps.parseAccessor())
		if ps.pos == before {
			ps.pos++
		}
	}
	ps.accept("}")
	return ps.finish(list, start)
}

func (ps *parseState) parseAccessor() *csast.Node {
	start := ps.pos
	attrs := ps.parseAttributeLists()
	header := ps.pos
	mods := ps.parseModifiers()
	if !ps.isIdentAt(ps.pos) {
		return nil
	}

	n := ps.newDecl(csast.NodeAccessor, header, mods, attrs)
	ps.setName(n)
	ps.parseBody(n)
	return ps.finish(n, start)
}

// parseVariableDeclarators parses "a = x, b" up to and including ';'.
// The first declared name becomes the node name.
func (ps *parseState) parseVariableDeclarators(n *csast.Node) {
	for !ps.eof() && ps.isIdentAt(ps.pos) {
		if n.Name == "" {
			n.Name = ps.text()
			if n.Decl != nil {
				n.Decl.NameToken = ps.sig[ps.pos]
			}
		}
		ps.pos++
		if ps.isPunct("[") {
			ps.skipGroup()
		}
		if ps.accept("=") {
			appendChild(n, ps.parseExpression())
		}
		ps.skipToPunct(",", ";")
		if !ps.accept(",") {
			break
		}
	}
	ps.skipStatementTail()
}

func (ps *parseState) parseParameterList(open, closer string) *csast.Node {
	start := ps.pos
	list := csast.NewNode(csast.NodeParameterList)
	if !ps.accept(open) {
		return nil
	}

	for !ps.eof() && !ps.isPunct(closer) {
		before := ps.pos
		appendChild(list, ps.parseParameter(closer))
		if !ps.accept(",") || ps.pos == before {
			break
		}
	}
	ps.skipToPunct(closer)
	ps.accept(closer)
	return ps.finish(list, start)
}

func (ps *parseState) parseParameter(closer string) *csast.Node {
	start := ps.pos
	param := csast.NewNode(csast.NodeParameter)
	for _, attr := range ps.parseAttributeLists() {
		appendChild(param, attr)
	}

	for !ps.eof() {
		if _, ok := parameterModifiers[ps.text()]; ok && ps.kind() == csast.TokKeyword {
			ps.pos++
			continue
		}
		if ps.isWord("scoped") && ps.kindAt(ps.pos+1) != csast.TokPunct {
			ps.pos++
			continue
		}
		break
	}

	if end, ok := ps.scanType(ps.pos); ok && ps.isIdentAt(end) {
		ps.pos = end
		param.Name = ps.text()
		ps.pos++
	}

	if ps.accept("=") {
		appendChild(param, ps.parseExpression())
	}
	ps.skipToPunct(",", closer)
	return ps.finish(param, start)
}
