package csharp

import "github.com/yaklabco/atclint/pkg/csast"

// Binary operator precedences, loosest first.
const (
	precCoalesce = 1 + iota
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precRange
)

//nolint:gochecknoglobals // Read-only lookup table.
var binaryPrecedence = map[string]int{
	"??": precCoalesce,
	"||": precOr,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "!=": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"<<": precShift,
	"+":  precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
	"..": precRange,
}

//nolint:gochecknoglobals // Read-only lookup table.
var assignmentOps = map[string]struct{}{
	"=": {}, "+=": {}, "-=": {}, "*=": {}, "/=": {}, "%=": {}, "&=": {}, "|=": {},
	"^=": {}, "<<=": {}, "??=": {},
}

//nolint:gochecknoglobals // Read-only lookup table.
var prefixOps = map[string]struct{}{
	"+": {}, "-": {}, "!": {}, "~": {}, "++": {}, "--": {}, "&": {}, "*": {}, "^": {}, "..": {},
}

// parseExpression parses an assignment-level expression, or returns nil
// without consuming input when none starts at the cursor.
func (ps *parseState) parseExpression() *csast.Node {
	ps.enter()
	defer ps.leave()
	if ps.eof() {
		return nil
	}

	if lambda := ps.tryLambda(); lambda != nil {
		return lambda
	}

	left := ps.parseConditional()
	if left == nil {
		return nil
	}

	op, width := ps.assignmentOp()
	if width == 0 {
		return left
	}

	opPos := ps.pos
	ps.pos += width
	right := ps.parseExpression()
	if right == nil {
		ps.pos = opPos
		return left
	}
	return ps.binary(op, opPos, left, right)
}

// assignmentOp recognises an assignment operator at the cursor, joining
// ">" ">=" into ">>=" and ">" ">" ">=" into ">>>=".
func (ps *parseState) assignmentOp() (string, int) {
	if ps.kind() != csast.TokPunct {
		return "", 0
	}
	text := ps.text()
	if _, ok := assignmentOps[text]; ok {
		return text, 1
	}
	if text == ">" && ps.adjacent(ps.pos) {
		if ps.isPunctAt(ps.pos+1, ">=") {
			return ">>=", 2
		}
		if ps.isPunctAt(ps.pos+1, ">") && ps.adjacent(ps.pos+1) && ps.isPunctAt(ps.pos+2, ">=") {
			return ">>>=", 3
		}
	}
	return "", 0
}

func (ps *parseState) binary(op string, opPos int, left, right *csast.Node) *csast.Node {
	n := csast.NewNode(csast.NodeBinary)
	n.Op = op
	n.OpToken = ps.sig[opPos]
	n.FirstToken = left.FirstToken
	n.LastToken = right.LastToken
	csast.AppendChild(n, left)
	csast.AppendChild(n, right)
	return n
}

func (ps *parseState) parseConditional() *csast.Node {
	cond := ps.parseBinary(precCoalesce)
	if cond == nil || !ps.isPunct("?") {
		return cond
	}

	save := ps.pos
	ps.pos++
	whenTrue := ps.parseExpression()
	if whenTrue == nil || !ps.accept(":") {
		ps.pos = save
		return cond
	}
	whenFalse := ps.parseExpression()
	if whenFalse == nil {
		ps.pos = save
		return cond
	}

	n := csast.NewNode(csast.NodeConditional)
	n.FirstToken = cond.FirstToken
	n.LastToken = whenFalse.LastToken
	csast.AppendChild(n, cond)
	csast.AppendChild(n, whenTrue)
	csast.AppendChild(n, whenFalse)
	return n
}

// binaryOp recognises a binary operator at the cursor.
func (ps *parseState) binaryOp() (string, int, int) {
	switch ps.kind() {
	case csast.TokKeyword:
		if ps.text() == "is" || ps.text() == "as" {
			return ps.text(), 1, precRelational
		}
		return "", 0, 0
	case csast.TokPunct:
	default:
		return "", 0, 0
	}

	text := ps.text()
	if text == ">" && ps.adjacent(ps.pos) && ps.isPunctAt(ps.pos+1, ">") {
		if ps.adjacent(ps.pos+1) && ps.isPunctAt(ps.pos+2, ">") {
			if ps.adjacent(ps.pos+2) && ps.isPunctAt(ps.pos+3, ">=") {
				return "", 0, 0
			}
			return ">>>", 3, precShift
		}
		if ps.adjacent(ps.pos+1) && ps.isPunctAt(ps.pos+2, ">=") {
			return "", 0, 0
		}
		return ">>", 2, precShift
	}
	if text == ">" && ps.adjacent(ps.pos) && ps.isPunctAt(ps.pos+1, ">=") {
		return "", 0, 0
	}
	if prec, ok := binaryPrecedence[text]; ok {
		return text, 1, prec
	}
	return "", 0, 0
}

func (ps *parseState) parseBinary(minPrec int) *csast.Node {
	left := ps.parseUnary()
	if left == nil {
		return nil
	}
	left = ps.parseSwitchOrWith(left)

	for !ps.eof() {
		op, width, prec := ps.binaryOp()
		if prec == 0 || prec < minPrec {
			break
		}

		opPos := ps.pos
		ps.pos += width

		var right *csast.Node
		switch op {
		case "is":
			right = ps.parsePattern()
		case "as":
			right = ps.parseTypeExpression()
		case "??":
			right = ps.parseBinary(prec)
		default:
			right = ps.parseBinary(prec + 1)
		}
		if right == nil {
			ps.pos = opPos
			break
		}
		left = ps.binary(op, opPos, left, right)
	}
	return left
}

// parseSwitchOrWith applies postfix "switch { ... }" and "with { ... }".
func (ps *parseState) parseSwitchOrWith(left *csast.Node) *csast.Node {
	for !ps.eof() {
		switch {
		case ps.isKeyword("switch") && ps.isPunctAt(ps.pos+1, "{"):
			left = ps.parseSwitchExpression(left)
		case ps.isWord("with") && ps.isPunctAt(ps.pos+1, "{"):
			ps.pos++
			init := ps.parseInitializer("{", "}")
			n := csast.NewNode(csast.NodeExpression)
			n.Name = "with"
			n.FirstToken = left.FirstToken
			n.LastToken = init.LastToken
			csast.AppendChild(n, left)
			csast.AppendChild(n, init)
			left = n
		default:
			return left
		}
	}
	return left
}

func (ps *parseState) parseSwitchExpression(governing *csast.Node) *csast.Node {
	n := csast.NewNode(csast.NodeSwitchExpression)
	n.FirstToken = governing.FirstToken
	csast.AppendChild(n, governing)

	ps.pos += 2 // switch {
	for !ps.eof() && !ps.isPunct("}") {
		before := ps.pos
		ps.skipUntil(func(pos int) bool { return ps.isPunctAt(pos, "=>") || ps.isWordAt(pos, "when") })
		if ps.isWord("when") {
			ps.pos++
			appendChild(n, ps.parseExpression())
		}
		if ps.accept("=>") {
			appendChild(n, ps.parseExpression())
		}
		ps.skipToPunct(",")
		if !ps.accept(",") && ps.pos == before {
			break
		}
	}
	ps.accept("}")
	ps.extend(n)
	return n
}

// parsePattern consumes a pattern after "is" as an opaque expression.
func (ps *parseState) parsePattern() *csast.Node {
	start := ps.pos
	ps.skipUntil(func(pos int) bool {
		if ps.kindAt(pos) == csast.TokInterpHoleFormat {
			return true
		}
		if ps.kindAt(pos) != csast.TokPunct {
			return false
		}
		switch ps.textAt(pos) {
		case ",", ";", "?", ":", "&&", "||", "??", "=>", "==", "!=", "=":
			return true
		}
		return false
	})
	if ps.pos == start {
		return nil
	}
	n := ps.span(csast.NodeExpression, start)
	n.Name = "pattern"
	return n
}

func (ps *parseState) parseTypeExpression() *csast.Node {
	start := ps.pos
	end, ok := ps.scanType(ps.pos)
	if !ok {
		return nil
	}
	ps.pos = end
	n := ps.span(csast.NodeExpression, start)
	n.Name = "type"
	return n
}

func (ps *parseState) parseUnary() *csast.Node {
	ps.enter()
	defer ps.leave()
	if ps.eof() {
		return nil
	}

	start := ps.pos
	text := ps.text()

	switch ps.kind() {
	case csast.TokPunct:
		if _, ok := prefixOps[text]; ok {
			return ps.prefixUnary(text, start)
		}
		if text == "(" {
			if end, ok := ps.castEnd(ps.pos); ok {
				ps.pos = end
				operand := ps.parseUnary()
				if operand == nil {
					ps.pos = start
					break
				}
				n := ps.span(csast.NodeCast, start)
				csast.AppendChild(n, operand)
				return n
			}
		}
	case csast.TokIdentifier:
		if text == "await" && ps.startsOperand(ps.pos+1) {
			return ps.prefixUnary(text, start)
		}
	case csast.TokKeyword:
		if text == "throw" {
			ps.pos++
			n := csast.NewNode(csast.NodeUnary)
			n.Op = text
			n.OpToken = ps.sig[start]
			operand := ps.parseExpression()
			ps.finish(n, start)
			appendChild(n, operand)
			return n
		}
		if text == "ref" || text == "out" || text == "in" {
			return ps.prefixUnary(text, start)
		}
	}

	return ps.parsePostfix(ps.parsePrimary())
}

func (ps *parseState) prefixUnary(op string, start int) *csast.Node {
	ps.pos++
	operand := ps.parseUnary()
	if operand == nil && op != ".." {
		ps.pos = start
		return nil
	}
	n := csast.NewNode(csast.NodeUnary)
	n.Op = op
	n.OpToken = ps.sig[start]
	ps.finish(n, start)
	appendChild(n, operand)
	return n
}

// startsOperand reports whether the token at pos can begin an operand.
func (ps *parseState) startsOperand(pos int) bool {
	switch ps.kindAt(pos) {
	case csast.TokIdentifier, csast.TokNumber, csast.TokString, csast.TokChar, csast.TokInterpStart:
		return true
	case csast.TokKeyword:
		switch ps.textAt(pos) {
		case "is", "as", "in", "switch":
			return false
		}
		return true
	case csast.TokPunct:
		switch ps.textAt(pos) {
		case "(", "[", "!", "~", "-", "+", "++", "--", "&", "*", "^", "@":
			return true
		}
	}
	return false
}

// castEnd reports whether "(" at pos opens a cast and returns the position
// after ")".
func (ps *parseState) castEnd(pos int) (int, bool) {
	end, ok := ps.scanType(pos + 1)
	if !ok || !ps.isPunctAt(end, ")") {
		return pos, false
	}
	after := end + 1

	predefined := ps.isPredefinedTypeAt(pos+1) && end == pos+2
	switch ps.kindAt(after) {
	case csast.TokIdentifier:
		return after, !ps.isWordAt(after, "when") && !ps.isWordAt(after, "with")
	case csast.TokNumber, csast.TokString, csast.TokChar, csast.TokInterpStart:
		return after, true
	case csast.TokKeyword:
		switch ps.textAt(after) {
		case "is", "as", "in", "switch":
			return pos, false
		}
		return after, true
	case csast.TokPunct:
		switch ps.textAt(after) {
		case "(", "!", "~":
			return after, true
		case "-", "+", "&", "*":
			return after, predefined
		}
	}
	return pos, false
}

func (ps *parseState) parsePrimary() *csast.Node {
	if ps.eof() {
		return nil
	}
	start := ps.pos
	text := ps.text()

	switch ps.kind() {
	case csast.TokIdentifier:
		ps.pos++
		if end, ok := ps.genericArgsEnd(ps.pos); ok && ps.isPunct("<") {
			ps.pos = end
		}
		n := ps.span(csast.NodeIdentifier, start)
		n.Name = text
		return n

	case csast.TokNumber, csast.TokString, csast.TokChar:
		ps.pos++
		return ps.span(csast.NodeLiteral, start)

	case csast.TokInterpStart:
		return ps.parseStringTemplate()

	case csast.TokKeyword:
		return ps.parseKeywordPrimary(text, start)

	case csast.TokPunct:
		switch text {
		case "(":
			return ps.parseParenthesized()
		case "[":
			return ps.parseInitializer("[", "]")
		case "{":
			return ps.parseInitializer("{", "}")
		}
	}
	return nil
}

func (ps *parseState) parseKeywordPrimary(text string, start int) *csast.Node {
	switch text {
	case "true", "false", "null":
		ps.pos++
		return ps.span(csast.NodeLiteral, start)

	case "default":
		ps.pos++
		if !ps.isPunct("(") {
			return ps.span(csast.NodeLiteral, start)
		}
		ps.skipGroup()
		n := ps.span(csast.NodeExpression, start)
		n.Name = text
		return n

	case "this", "base":
		ps.pos++
		n := ps.span(csast.NodeIdentifier, start)
		n.Name = text
		return n

	case "typeof", "sizeof", "checked", "unchecked", "__makeref", "__reftype", "__refvalue":
		ps.pos++
		ps.skipGroup()
		n := ps.span(csast.NodeExpression, start)
		n.Name = text
		return n

	case "new":
		return ps.parseObjectCreation()

	case "stackalloc":
		ps.pos++
		if end, ok := ps.scanType(ps.pos); ok {
			ps.pos = end
		}
		if ps.isPunct("[") {
			ps.skipGroup()
		}
		if ps.isPunct("{") {
			ps.skipGroup()
		}
		n := ps.span(csast.NodeExpression, start)
		n.Name = text
		return n

	case "delegate":
		ps.pos++
		if ps.isPunct("(") {
			ps.skipGroup()
		}
		n := csast.NewNode(csast.NodeLambda)
		body := ps.parseBlock()
		ps.finish(n, start)
		appendChild(n, body)
		return n
	}

	if ps.isPredefinedTypeAt(ps.pos) {
		ps.pos++
		n := ps.span(csast.NodeIdentifier, start)
		n.Name = text
		return n
	}
	return nil
}

func (ps *parseState) parseObjectCreation() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeObjectCreation)
	ps.pos++ // new

	var children []*csast.Node
	switch {
	case ps.isPunct("("), ps.isPunct("{"):
	case ps.isPunct("["):
		ps.skipGroup()
	default:
		end, ok := ps.scanType(ps.pos)
		if !ok {
			return ps.finish(n, start)
		}
		ps.pos = end
		n.Name = ps.textAt(start + 1)
		for ps.isPunct("[") {
			ps.skipGroup()
		}
	}

	if ps.isPunct("(") {
		children = append(children, ps.parseArgumentList("(", ")", false))
	}
	if ps.isPunct("{") {
		children = append(children, ps.parseInitializer("{", "}"))
	}

	ps.finish(n, start)
	for _, child := range children {
		appendChild(n, child)
	}
	return n
}

// parseInitializer parses "{ a, b = c, { d } }" or a "[...]" collection expression.
func (ps *parseState) parseInitializer(open, closer string) *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeInitializer)
	if !ps.accept(open) {
		return nil
	}

	var children []*csast.Node
	for !ps.eof() && !ps.isPunct(closer) {
		before := ps.pos
		var elem *csast.Node
		if ps.isPunct("{") {
			elem = ps.parseInitializer("{", "}")
		} else {
			elem = ps.parseExpression()
		}
		if elem != nil {
			children = append(children, elem)
		}
		ps.skipToPunct(",", closer)
		if !ps.accept(",") || ps.pos == before {
			break
		}
	}
	ps.skipToPunct(closer)
	ps.accept(closer)

	ps.finish(n, start)
	for _, child := range children {
		appendChild(n, child)
	}
	return n
}

func (ps *parseState) parseParenthesized() *csast.Node {
	start := ps.pos
	ps.pos++ // (

	if ps.isIdentAt(ps.pos) && ps.isPunctAt(ps.pos+1, ":") {
		ps.pos += 2
	}
	first := ps.parseExpression()

	if first != nil && ps.isPunct(")") {
		ps.pos++
		n := ps.span(csast.NodeParenthesized, start)
		csast.AppendChild(n, first)
		return n
	}

	if first != nil && ps.isPunct(",") {
		elements := []*csast.Node{first}
		for ps.accept(",") {
			if ps.isIdentAt(ps.pos) && ps.isPunctAt(ps.pos+1, ":") {
				ps.pos += 2
			}
			elem := ps.parseExpression()
			if elem == nil {
				break
			}
			elements = append(elements, elem)
		}
		ps.skipToPunct(")")
		ps.accept(")")
		n := ps.span(csast.NodeExpression, start)
		n.Name = "tuple"
		for _, elem := range elements {
			csast.AppendChild(n, elem)
		}
		return n
	}

	// Declaration expressions and other shapes are kept opaque.
	ps.pos = start
	ps.skipGroup()
	n := ps.span(csast.NodeParenthesized, start)
	return n
}

func (ps *parseState) parsePostfix(n *csast.Node) *csast.Node {
	for n != nil && !ps.eof() {
		switch {
		case ps.isPunct(".") || ps.isPunct("?.") || ps.isPunct("->") || ps.isPunct("::"):
			opPos := ps.pos
			if !ps.isIdentAt(opPos+1) && !ps.isPredefinedTypeAt(opPos+1) {
				return n
			}
			ps.pos += 2
			if end, ok := ps.genericArgsEnd(ps.pos); ok && ps.isPunct("<") {
				ps.pos = end
			}
			access := csast.NewNode(csast.NodeMemberAccess)
			access.Name = ps.textAt(opPos + 1)
			access.Op = ps.textAt(opPos)
			access.OpToken = ps.sig[opPos]
			access.FirstToken = n.FirstToken
			access.LastToken = ps.sig[ps.pos-1]
			csast.AppendChild(access, n)
			n = access

		case ps.isPunct("("):
			args := ps.parseArgumentList("(", ")", false)
			inv := wrap(csast.NodeInvocation, n)
			inv.LastToken = args.LastToken
			csast.AppendChild(inv, args)
			n = inv

		case ps.isPunct("["), ps.isPunct("?") && ps.isPunctAt(ps.pos+1, "[") && ps.adjacent(ps.pos):
			opPos := ps.pos
			if ps.isPunct("?") {
				ps.pos++
			}
			args := ps.parseArgumentList("[", "]", false)
			access := wrap(csast.NodeElementAccess, n)
			access.Op = ps.textAt(opPos)
			access.OpToken = ps.sig[opPos]
			access.LastToken = args.LastToken
			csast.AppendChild(access, args)
			n = access

		case ps.isPunct("++") || ps.isPunct("--"):
			n = ps.postfixUnary(n)

		case ps.isPunct("!") && ps.adjacent(ps.pos-1) && !ps.startsOperand(ps.pos+1):
			n = ps.postfixUnary(n)

		default:
			return n
		}
	}
	return n
}

func (ps *parseState) postfixUnary(operand *csast.Node) *csast.Node {
	u := wrap(csast.NodeUnary, operand)
	u.Op = ps.text()
	u.OpToken = ps.sig[ps.pos]
	u.Postfix = true
	ps.pos++
	u.LastToken = ps.sig[ps.pos-1]
	return u
}

// parseArgumentList parses "(args)" or "[args]". Attribute argument lists
// also accept "Name = value" arguments.
func (ps *parseState) parseArgumentList(open, closer string, attribute bool) *csast.Node {
	start := ps.pos
	list := csast.NewNode(csast.NodeArgumentList)
	if !ps.accept(open) {
		return nil
	}

	var args []*csast.Node
	for !ps.eof() && !ps.isPunct(closer) {
		before := ps.pos
		if arg := ps.parseArgument(closer, attribute); arg != nil {
			args = append(args, arg)
		}
		ps.skipToPunct(",", closer)
		if !ps.accept(",") || ps.pos == before {
			break
		}
	}
	ps.skipToPunct(closer)
	ps.accept(closer)

	ps.finish(list, start)
	for _, arg := range args {
		appendChild(list, arg)
	}
	return list
}

func (ps *parseState) parseArgument(closer string, attribute bool) *csast.Node {
	start := ps.pos
	arg := csast.NewNode(csast.NodeArgument)

	if ps.isIdentAt(ps.pos) {
		switch {
		case ps.isPunctAt(ps.pos+1, ":"):
			arg.Name = ps.text()
			arg.Op = ":"
			ps.pos += 2
		case attribute && ps.isPunctAt(ps.pos+1, "="):
			arg.Name = ps.text()
			arg.Op = "="
			ps.pos += 2
		}
	}

	// out/ref declaration expressions: "out var x", "out int x".
	if ps.isKeyword("out") || ps.isKeyword("ref") || ps.isKeyword("in") {
		if end, ok := ps.scanType(ps.pos + 1); ok && ps.isIdentAt(end) &&
			(ps.isPunctAt(end+1, ",") || ps.isPunctAt(end+1, closer)) {
			ps.pos = end + 1
			return ps.finish(arg, start)
		}
	}

	expr := ps.parseExpression()
	if expr == nil && ps.pos == start {
		return nil
	}
	ps.finish(arg, start)
	appendChild(arg, expr)
	return arg
}

// tryLambda parses a lambda at the cursor, or returns nil without
// consuming input.
func (ps *parseState) tryLambda() *csast.Node {
	start := ps.pos
	idx := ps.pos
	for (ps.isWordAt(idx, "async") || ps.isKeywordAt(idx, "static")) &&
		(ps.isIdentAt(idx+1) || ps.isKeywordAt(idx+1, "static") || ps.isPunctAt(idx+1, "(")) {
		idx++
	}

	var arrow int
	switch {
	case ps.isIdentAt(idx) && ps.isPunctAt(idx+1, "=>"):
		arrow = idx + 1
	case ps.isPunctAt(idx, "("):
		end := ps.groupEnd(idx)
		if end < 0 || !ps.isPunctAt(end, "=>") {
			return nil
		}
		arrow = end
	default:
		return nil
	}

	ps.pos = arrow + 1
	n := csast.NewNode(csast.NodeLambda)
	var body *csast.Node
	if ps.isPunct("{") {
		body = ps.parseBlock()
	} else {
		body = ps.parseExpression()
	}
	ps.finish(n, start)
	appendChild(n, body)
	return n
}

func (ps *parseState) parseStringTemplate() *csast.Node {
	start := ps.pos
	n := csast.NewNode(csast.NodeStringTemplate)
	ps.pos++ // start

	var holes []*csast.Node
loop:
	for !ps.eof() {
		switch ps.kind() {
		case csast.TokInterpText:
			ps.pos++
		case csast.TokInterpHoleOpen:
			holeStart := ps.pos
			ps.pos++
			hole := csast.NewNode(csast.NodeInterpolation)
			expr := ps.parseExpression()
			ps.skipUntil(func(int) bool { return false })
			if ps.kind() == csast.TokInterpHoleClose {
				ps.pos++
			}
			ps.finish(hole, holeStart)
			appendChild(hole, expr)
			holes = append(holes, hole)
		case csast.TokInterpEnd:
			ps.pos++
			break loop
		default:
			break loop
		}
	}

	ps.finish(n, start)
	for _, hole := range holes {
		appendChild(n, hole)
	}
	return n
}
