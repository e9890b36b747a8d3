package csharp

import "github.com/yaklabco/atclint/pkg/csast"

// localModifiers may precede a local function.
//
//nolint:gochecknoglobals // Read-only lookup table.
var localModifiers = map[string]struct{}{
	"static": {}, "async": {}, "unsafe": {}, "extern": {},
}

// parseStatement parses one statement. It always consumes at least one
// token unless the cursor is at EOF or a closing brace.
func (ps *parseState) parseStatement() *csast.Node {
	ps.enter()
	defer ps.leave()

	if ps.eof() || ps.isPunct("}") {
		return nil
	}

	start := ps.pos
	n := ps.parseStatementKind()
	if ps.pos == start {
		ps.pos++
		return ps.statementNode("unknown", start)
	}
	return n
}

func (ps *parseState) parseStatementKind() *csast.Node {
	start := ps.pos

	switch ps.kind() {
	case csast.TokPunct:
		switch ps.text() {
		case "{":
			return ps.parseBlock()
		case ";":
			ps.pos++
			return ps.statementNode("empty", start)
		case "[":
			attrs := ps.parseAttributeLists()
			if ps.isLocalFunction(ps.pos) {
				return ps.parseLocalFunction(start, attrs)
			}
			ps.pos = start
		}

	case csast.TokKeyword:
		switch ps.text() {
		case "if":
			return ps.parseIf()
		case "while":
			return ps.parseConditionLoop(csast.NodeWhile)
		case "lock":
			return ps.parseConditionLoop(csast.NodeLock)
		case "do":
			return ps.parseDo()
		case "for":
			return ps.parseFor()
		case "foreach":
			return ps.parseForeach(start)
		case "switch":
			return ps.parseSwitch()
		case "try":
			return ps.parseTry()
		case "using":
			return ps.parseUsing(start)
		case "return":
			return ps.parseReturn()
		case "throw":
			ps.pos++
			n := csast.NewNode(csast.NodeStatement)
			n.Name = "throw"
			expr := ps.parseExpression()
			ps.skipStatementTail()
			ps.finish(n, start)
			appendChild(n, expr)
			return n
		case "break", "continue", "goto":
			name := ps.text()
			ps.skipStatementTail()
			return ps.statementNode(name, start)
		case "checked", "unchecked", "unsafe":
			if ps.isPunctAt(ps.pos+1, "{") {
				name := ps.text()
				ps.pos++
				n := csast.NewNode(csast.NodeStatement)
				n.Name = name
				block := ps.parseBlock()
				ps.finish(n, start)
				appendChild(n, block)
				return n
			}
		case "fixed":
			ps.pos++
			n := csast.NewNode(csast.NodeStatement)
			n.Name = "fixed"
			ps.skipGroup()
			body := ps.parseStatement()
			ps.finish(n, start)
			appendChild(n, body)
			return n
		}

	case csast.TokIdentifier:
		switch {
		case ps.isWord("await") && ps.isKeywordAt(ps.pos+1, "foreach"):
			ps.pos++
			return ps.parseForeach(start)
		case ps.isWord("await") && ps.isKeywordAt(ps.pos+1, "using"):
			ps.pos++
			return ps.parseUsing(start)
		case ps.isWord("yield") && (ps.isKeywordAt(ps.pos+1, "return") || ps.isKeywordAt(ps.pos+1, "break")):
			ps.pos += 2
			n := csast.NewNode(csast.NodeStatement)
			n.Name = "yield"
			expr := ps.parseExpression()
			ps.skipStatementTail()
			ps.finish(n, start)
			appendChild(n, expr)
			return n
		case ps.isPunctAt(ps.pos+1, ":"):
			ps.pos += 2
			n := csast.NewNode(csast.NodeStatement)
			n.Name = "label"
			inner := ps.parseStatement()
			ps.finish(n, start)
			appendChild(n, inner)
			return n
		}
	}

	switch {
	case ps.isLocalFunction(ps.pos):
		return ps.parseLocalFunction(start, nil)
	case ps.isLocalDeclaration(ps.pos):
		return ps.parseLocalDeclaration(start)
	default:
		return ps.parseExpressionStatement()
	}
}

func (ps *parseState) parseBlock() *csast.Node {
	start := ps.pos
	block := csast.NewNode(csast.NodeBlock)
	if !ps.accept("{") {
		return nil
	}

	for !ps.eof() && !ps.isPunct("}") {
		appendChild(block, ps.parseStatement())
	}
	ps.accept("}")
	return ps.finish(block, start)
}

func (ps *parseState) parseExpressionStatement() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeExpressionStatement)
	expr := ps.parseExpression()
	if expr == nil || !ps.isPunct(";") {
		ps.skipToPunct(";")
	}
	ps.accept(";")
	ps.finish(n, start)
	appendChild(n, expr)
	return n
}

// parseCondition parses "(expr)" and returns the expression.
func (ps *parseState) parseCondition() *csast.Node {
	if !ps.accept("(") {
		return nil
	}
	expr := ps.parseExpression()
	ps.skipToPunct(")")
	ps.accept(")")
	return expr
}

func (ps *parseState) parseIf() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeIf)
	ps.pos++ // if

	cond := ps.parseCondition()
	then := ps.parseStatement()

	var elseNode *csast.Node
	if ps.isKeyword("else") {
		elseStart := ps.pos
		ps.pos++
		elseNode = csast.NewNode(csast.NodeElse)
		inner := ps.parseStatement()
		ps.finish(elseNode, elseStart)
		appendChild(elseNode, inner)
	}

	ps.finish(n, start)
	appendChild(n, cond)
	appendChild(n, then)
	appendChild(n, elseNode)
	return n
}

func (ps *parseState) parseConditionLoop(kind csast.NodeKind) *csast.Node {
	start := ps.pos
	n := csast.NewNode(kind)
	ps.pos++

	cond := ps.parseCondition()
	body := ps.parseStatement()

	ps.finish(n, start)
	appendChild(n, cond)
	appendChild(n, body)
	return n
}

func (ps *parseState) parseDo() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeDo)
	ps.pos++ // do

	body := ps.parseStatement()
	var cond *csast.Node
	if ps.isKeyword("while") {
		ps.pos++
		cond = ps.parseCondition()
	}
	ps.skipStatementTail()

	ps.finish(n, start)
	appendChild(n, body)
	appendChild(n, cond)
	return n
}

func (ps *parseState) parseFor() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeFor)
	ps.pos++ // for

	ps.skipGroup()
	body := ps.parseStatement()

	ps.finish(n, start)
	appendChild(n, body)
	return n
}

func (ps *parseState) parseForeach(start int) *csast.Node {
	n := csast.NewNode(csast.NodeForeach)
	ps.pos++ // foreach

	var expr *csast.Node
	if ps.accept("(") {
		ps.skipUntil(func(pos int) bool { return ps.isKeywordAt(pos, "in") })
		if ps.isKeyword("in") {
			ps.pos++
			expr = ps.parseExpression()
		}
		ps.skipToPunct(")")
		ps.accept(")")
	}
	body := ps.parseStatement()

	ps.finish(n, start)
	appendChild(n, expr)
	appendChild(n, body)
	return n
}

func (ps *parseState) parseSwitch() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeSwitch)
	ps.pos++ // switch

	expr := ps.parseCondition()
	appendChild(n, expr)

	if ps.accept("{") {
		for !ps.eof() && !ps.isPunct("}") {
			before := ps.pos
			appendChild(n, ps.parseSwitchSection())
			if ps.pos == before {
				ps.pos++
			}
		}
		ps.accept("}")
	}
	return ps.finish(n, start)
}

func (ps *parseState) isSwitchLabel() bool {
	return ps.isKeyword("case") || (ps.isKeyword("default") && ps.isPunctAt(ps.pos+1, ":"))
}

func (ps *parseState) parseSwitchSection() *csast.Node {
	start := ps.pos
	section := csast.NewNode(csast.NodeSwitchSection)

	for ps.isSwitchLabel() && !ps.eof() {
		ps.pos++
		ps.skipToPunct(":")
		ps.accept(":")
	}
	for !ps.eof() && !ps.isPunct("}") && !ps.isSwitchLabel() {
		appendChild(section, ps.parseStatement())
	}
	return ps.finish(section, start)
}

func (ps *parseState) parseTry() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeTry)
	ps.pos++ // try

	var parts []*csast.Node
	parts = append(parts, ps.parseBlock())

	for ps.isKeyword("catch") && !ps.eof() {
		catchStart := ps.pos
		catch := csast.NewNode(csast.NodeCatch)
		ps.pos++
		if ps.isPunct("(") {
			ps.skipGroup()
		}
		if ps.isWord("when") {
			ps.pos++
			ps.skipGroup()
		}
		block := ps.parseBlock()
		ps.finish(catch, catchStart)
		appendChild(catch, block)
		parts = append(parts, catch)
	}

	if ps.isKeyword("finally") {
		finallyStart := ps.pos
		finally := csast.NewNode(csast.NodeFinally)
		ps.pos++
		block := ps.parseBlock()
		ps.finish(finally, finallyStart)
		appendChild(finally, block)
		parts = append(parts, finally)
	}

	ps.finish(n, start)
	for _, part := range parts {
		appendChild(n, part)
	}
	return n
}

// parseUsing parses "using (...) stmt" and the "using var x = ...;" declaration.
func (ps *parseState) parseUsing(start int) *csast.Node {
	ps.pos++ // using

	if !ps.isPunct("(") {
		return ps.parseLocalDeclaration(start)
	}

	n := csast.NewNode(csast.NodeUsingStatement)
	var resource *csast.Node
	ps.pos++
	if !ps.isLocalDeclaration(ps.pos) {
		resource = ps.parseExpression()
	}
	ps.skipToPunct(")")
	ps.accept(")")
	body := ps.parseStatement()

	ps.finish(n, start)
	appendChild(n, resource)
	appendChild(n, body)
	return n
}

func (ps *parseState) parseReturn() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeReturn)
	ps.pos++ // return

	var expr *csast.Node
	if !ps.isPunct(";") {
		expr = ps.parseExpression()
	}
	ps.skipStatementTail()

	ps.finish(n, start)
	appendChild(n, expr)
	return n
}

// declarationStart skips the modifiers that may open a local declaration
// and returns the position of the type.
func (ps *parseState) declarationStart(pos int) int {
	for {
		switch {
		case ps.isKeywordAt(pos, "ref"), ps.isKeywordAt(pos, "readonly"), ps.isKeywordAt(pos, "const"):
			pos++
		case ps.isWordAt(pos, "scoped") && ps.kindAt(pos+1) != csast.TokPunct:
			pos++
		default:
			return pos
		}
	}
}

// isNonTypeWord reports words that never start a declaration type in
// statement position.
func (ps *parseState) isNonTypeWord(pos int) bool {
	return ps.isWordAt(pos, "await") || ps.isWordAt(pos, "yield") || ps.isWordAt(pos, "nameof")
}

func (ps *parseState) isLocalDeclaration(pos int) bool {
	pos = ps.declarationStart(pos)
	if ps.isWordAt(pos, "var") && ps.isPunctAt(pos+1, "(") {
		return true
	}
	if ps.isNonTypeWord(pos) {
		return false
	}

	end, ok := ps.scanType(pos)
	if !ok || !ps.isIdentAt(end) {
		return false
	}
	next := end + 1
	return ps.isPunctAt(next, "=") || ps.isPunctAt(next, ";") || ps.isPunctAt(next, ",") ||
		ps.isKeywordAt(next, "in") || ps.isPunctAt(next, ")")
}

func (ps *parseState) isLocalFunction(pos int) bool {
	for ps.kindAt(pos) == csast.TokKeyword || ps.kindAt(pos) == csast.TokIdentifier {
		if _, ok := localModifiers[ps.textAt(pos)]; !ok {
			break
		}
		if ps.kindAt(pos+1) == csast.TokPunct {
			break
		}
		pos++
	}
	if ps.isNonTypeWord(pos) {
		return false
	}

	end, ok := ps.scanType(pos)
	if !ok || !ps.isIdentAt(end) {
		return false
	}
	next := end + 1
	if ps.isPunctAt(next, "(") {
		return true
	}
	if after, ok := ps.scanTypeArgs(next); ok {
		return ps.isPunctAt(after, "(")
	}
	return false
}

func (ps *parseState) parseLocalFunction(start int, attrs []*csast.Node) *csast.Node {
	header := ps.pos
	mods := ps.parseModifiers()
	n := ps.newDecl(csast.NodeLocalFunction, header, mods, attrs)

	if end, ok := ps.scanType(ps.pos); ok {
		ps.pos = end
	}
	ps.setName(n)
	ps.parseMethodRest(n)
	return ps.finish(n, start)
}

func (ps *parseState) parseLocalDeclaration(start int) *csast.Node {
	n := csast.NewNode(csast.NodeLocalDeclaration)
	ps.pos = ps.declarationStart(ps.pos)

	if ps.isWord("var") && ps.isPunctAt(ps.pos+1, "(") {
		ps.pos++
		ps.skipGroup()
		if ps.accept("=") {
			appendChild(n, ps.parseExpression())
		}
		ps.skipStatementTail()
		return ps.finish(n, start)
	}

	if end, ok := ps.scanType(ps.pos); ok {
		ps.pos = end
	}
	ps.parseVariableDeclarators(n)
	return ps.finish(n, start)
}
