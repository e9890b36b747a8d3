package csharp

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/yaklabco/atclint/pkg/csast"
)

// keywords holds the reserved C# keywords. Contextual keywords (var, async,
// await, record, when, ...) are lexed as identifiers.
//
//nolint:gochecknoglobals // Read-only lookup table.
var keywords = map[string]struct{}{
	"abstract": {}, "as": {}, "base": {}, "bool": {}, "break": {}, "byte": {},
	"case": {}, "catch": {}, "char": {}, "checked": {}, "class": {}, "const": {},
	"continue": {}, "decimal": {}, "default": {}, "delegate": {}, "do": {},
	"double": {}, "else": {}, "enum": {}, "event": {}, "explicit": {}, "extern": {},
	"false": {}, "finally": {}, "fixed": {}, "float": {}, "for": {}, "foreach": {},
	"goto": {}, "if": {}, "implicit": {}, "in": {}, "int": {}, "interface": {},
	"internal": {}, "is": {}, "lock": {}, "long": {}, "namespace": {}, "new": {},
	"null": {}, "object": {}, "operator": {}, "out": {}, "override": {},
	"params": {}, "private": {}, "protected": {}, "public": {}, "readonly": {},
	"ref": {}, "return": {}, "sbyte": {}, "sealed": {}, "short": {}, "sizeof": {},
	"stackalloc": {}, "static": {}, "string": {}, "struct": {}, "switch": {},
	"this": {}, "throw": {}, "true": {}, "try": {}, "typeof": {}, "uint": {},
	"ulong": {}, "unchecked": {}, "unsafe": {}, "ushort": {}, "using": {},
	"virtual": {}, "void": {}, "volatile": {}, "while": {},
}

// IsKeyword reports whether word is a reserved C# keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

// punctuators is ordered longest first so the lexer can take the first match.
// '>' is always a single token so that nested generic argument lists close
// cleanly; the parser recombines adjacent '>' tokens into shift operators.
//
//nolint:gochecknoglobals // Read-only lookup table.
var punctuators = []string{
	"??=", "<<=", "...",
	"?.", "??", "::", "++", "--", "&&", "||", "->", "=>", "==", "!=", "<=", ">=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", "..",
}

// lexError describes a lexical failure at a byte offset.
type lexError struct {
	offset int
	msg    string
}

func (e *lexError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.offset, e.msg)
}

// tokenizer converts source bytes into a lossless token stream.
type tokenizer struct {
	src    []byte
	pos    int
	tokens []csast.Token

	// lineStart is true while only whitespace has been seen on the current line.
	lineStart bool
}

// tokenize lexes the full content. It fails on unterminated comments,
// strings, characters and interpolation holes.
func tokenize(src []byte) ([]csast.Token, error) {
	tk := &tokenizer{src: src, lineStart: true}
	for tk.pos < len(tk.src) {
		if err := tk.next(); err != nil {
			return nil, err
		}
	}
	return tk.tokens, nil
}

func (tk *tokenizer) emit(kind csast.TokenKind, start int) {
	tk.tokens = append(tk.tokens, csast.Token{Kind: kind, StartOffset: start, EndOffset: tk.pos})
	switch kind {
	case csast.TokNewline:
		tk.lineStart = true
	case csast.TokWhitespace:
	default:
		tk.lineStart = false
	}
}

func (tk *tokenizer) peek(ahead int) byte {
	if tk.pos+ahead < len(tk.src) {
		return tk.src[tk.pos+ahead]
	}
	return 0
}

func (tk *tokenizer) fail(offset int, format string, args ...any) error {
	return &lexError{offset: offset, msg: fmt.Sprintf(format, args...)}
}

// next lexes one token (or one whole interpolated string) at tk.pos.
func (tk *tokenizer) next() error {
	start := tk.pos
	c := tk.src[tk.pos]

	switch {
	case c == ' ' || c == '\t' || c == '\f' || c == '\v':
		for tk.pos < len(tk.src) && isBlank(tk.src[tk.pos]) {
			tk.pos++
		}
		tk.emit(csast.TokWhitespace, start)
		return nil

	case c == '\r' || c == '\n':
		if c == '\r' && tk.peek(1) == '\n' {
			tk.pos++
		}
		tk.pos++
		tk.emit(csast.TokNewline, start)
		return nil

	case c == '/' && tk.peek(1) == '/':
		kind := csast.TokLineComment
		if tk.peek(2) == '/' && tk.peek(3) != '/' {
			kind = csast.TokDocComment
		}
		tk.skipToLineEnd()
		tk.emit(kind, start)
		return nil

	case c == '/' && tk.peek(1) == '*':
		tk.pos += 2
		for {
			if tk.pos+1 >= len(tk.src) {
				return tk.fail(start, "unterminated block comment")
			}
			if tk.src[tk.pos] == '*' && tk.src[tk.pos+1] == '/' {
				tk.pos += 2
				break
			}
			tk.pos++
		}
		tk.emit(csast.TokBlockComment, start)
		return nil

	case c == '#' && tk.lineStart:
		tk.skipToLineEnd()
		tk.emit(csast.TokPreprocessor, start)
		return nil

	case c == '$' || (c == '@' && tk.peek(1) == '$'):
		if tk.isInterpolatedStart() {
			return tk.lexInterpolated()
		}

	case c == '@' && tk.peek(1) == '"':
		return tk.lexVerbatimString()

	case c == '"':
		if tk.peek(1) == '"' && tk.peek(2) == '"' {
			return tk.lexRawString()
		}
		return tk.lexRegularString()

	case c == '\'':
		return tk.lexChar()

	case isDigit(c) || (c == '.' && isDigit(tk.peek(1))):
		tk.lexNumber()
		tk.emit(csast.TokNumber, start)
		return nil
	}

	if c == '@' || isIdentStart(tk.runeAt(tk.pos)) {
		if tk.lexIdentifier() {
			return nil
		}
	}

	tk.lexPunct()
	return nil
}

func (tk *tokenizer) skipToLineEnd() {
	for tk.pos < len(tk.src) && tk.src[tk.pos] != '\n' && tk.src[tk.pos] != '\r' {
		tk.pos++
	}
}

func (tk *tokenizer) runeAt(pos int) rune {
	if pos >= len(tk.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRune(tk.src[pos:])
	return r
}

func (tk *tokenizer) lexIdentifier() bool {
	start := tk.pos
	verbatim := false
	if tk.src[tk.pos] == '@' {
		if !isIdentStart(tk.runeAt(tk.pos + 1)) {
			return false
		}
		verbatim = true
		tk.pos++
	}
	for tk.pos < len(tk.src) {
		r, size := utf8.DecodeRune(tk.src[tk.pos:])
		if !isIdentPart(r) {
			break
		}
		tk.pos += size
	}

	kind := csast.TokIdentifier
	if _, ok := keywords[string(tk.src[start:tk.pos])]; ok && !verbatim {
		kind = csast.TokKeyword
	}
	tk.emit(kind, start)
	return true
}

func (tk *tokenizer) lexNumber() {
	if tk.src[tk.pos] == '0' && (tk.peek(1) == 'x' || tk.peek(1) == 'X' || tk.peek(1) == 'b' || tk.peek(1) == 'B') {
		tk.pos += 2
		for tk.pos < len(tk.src) && (isHexDigit(tk.src[tk.pos]) || tk.src[tk.pos] == '_') {
			tk.pos++
		}
		tk.lexNumberSuffix()
		return
	}

	tk.lexDigits()
	if tk.peek(0) == '.' && isDigit(tk.peek(1)) {
		tk.pos++
		tk.lexDigits()
	}
	if c := tk.peek(0); c == 'e' || c == 'E' {
		next := tk.peek(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(tk.peek(2))) {
			tk.pos += 2
			tk.lexDigits()
		}
	}
	tk.lexNumberSuffix()
}

func (tk *tokenizer) lexDigits() {
	for tk.pos < len(tk.src) && (isDigit(tk.src[tk.pos]) || tk.src[tk.pos] == '_') {
		tk.pos++
	}
}

func (tk *tokenizer) lexNumberSuffix() {
	for tk.pos < len(tk.src) {
		switch tk.src[tk.pos] {
		case 'u', 'U', 'l', 'L', 'f', 'F', 'd', 'D', 'm', 'M':
			tk.pos++
		default:
			return
		}
	}
}

func (tk *tokenizer) lexPunct() {
	start := tk.pos
	for _, p := range punctuators {
		if tk.pos+len(p) <= len(tk.src) && string(tk.src[tk.pos:tk.pos+len(p)]) == p {
			tk.pos += len(p)
			tk.emit(csast.TokPunct, start)
			return
		}
	}
	_, size := utf8.DecodeRune(tk.src[tk.pos:])
	tk.pos += size
	tk.emit(csast.TokPunct, start)
}

func (tk *tokenizer) lexUTF8Suffix() {
	if (tk.peek(0) == 'u' || tk.peek(0) == 'U') && tk.peek(1) == '8' {
		tk.pos += 2
	}
}

func (tk *tokenizer) lexRegularString() error {
	start := tk.pos
	tk.pos++
	for {
		if tk.pos >= len(tk.src) || tk.src[tk.pos] == '\n' || tk.src[tk.pos] == '\r' {
			return tk.fail(start, "unterminated string literal")
		}
		switch tk.src[tk.pos] {
		case '\\':
			tk.pos += 2
			continue
		case '"':
			tk.pos++
			tk.lexUTF8Suffix()
			tk.emit(csast.TokString, start)
			return nil
		}
		tk.pos++
	}
}

func (tk *tokenizer) lexVerbatimString() error {
	start := tk.pos
	tk.pos += 2
	for {
		if tk.pos >= len(tk.src) {
			return tk.fail(start, "unterminated verbatim string literal")
		}
		if tk.src[tk.pos] == '"' {
			if tk.peek(1) == '"' {
				tk.pos += 2
				continue
			}
			tk.pos++
			tk.lexUTF8Suffix()
			tk.emit(csast.TokString, start)
			return nil
		}
		tk.pos++
	}
}

func (tk *tokenizer) countRun(pos int, c byte) int {
	n := 0
	for pos+n < len(tk.src) && tk.src[pos+n] == c {
		n++
	}
	return n
}

func (tk *tokenizer) lexRawString() error {
	start := tk.pos
	quotes := tk.countRun(tk.pos, '"')
	tk.pos += quotes
	for {
		if tk.pos >= len(tk.src) {
			return tk.fail(start, "unterminated raw string literal")
		}
		if tk.src[tk.pos] == '"' && tk.countRun(tk.pos, '"') >= quotes {
			tk.pos += tk.countRun(tk.pos, '"')
			tk.lexUTF8Suffix()
			tk.emit(csast.TokString, start)
			return nil
		}
		tk.pos++
	}
}

func (tk *tokenizer) lexChar() error {
	start := tk.pos
	tk.pos++
	for {
		if tk.pos >= len(tk.src) || tk.src[tk.pos] == '\n' || tk.src[tk.pos] == '\r' {
			return tk.fail(start, "unterminated character literal")
		}
		switch tk.src[tk.pos] {
		case '\\':
			tk.pos += 2
			continue
		case '\'':
			tk.pos++
			tk.emit(csast.TokChar, start)
			return nil
		}
		tk.pos++
	}
}

func (tk *tokenizer) isInterpolatedStart() bool {
	pos := tk.pos
	if tk.src[pos] == '@' {
		pos++
	}
	pos += tk.countRun(pos, '$')
	if pos < len(tk.src) && tk.src[pos] == '@' {
		pos++
	}
	return pos < len(tk.src) && tk.src[pos] == '"' && pos > tk.pos
}

// interpolation describes the delimiters of one interpolated string.
type interpolation struct {
	dollars  int
	verbatim bool
	quotes   int // 0 for regular and verbatim strings, >= 3 for raw strings
}

func (tk *tokenizer) lexInterpolated() error {
	start := tk.pos
	var form interpolation

	if tk.src[tk.pos] == '@' {
		form.verbatim = true
		tk.pos++
	}
	form.dollars = tk.countRun(tk.pos, '$')
	tk.pos += form.dollars
	if tk.peek(0) == '@' {
		form.verbatim = true
		tk.pos++
	}
	if quotes := tk.countRun(tk.pos, '"'); quotes >= 3 && !form.verbatim {
		form.quotes = quotes
		tk.pos += quotes
	} else {
		tk.pos++
	}
	tk.emit(csast.TokInterpStart, start)

	textStart := tk.pos
	flushText := func() {
		if tk.pos > textStart {
			tk.tokens = append(tk.tokens, csast.Token{Kind: csast.TokInterpText, StartOffset: textStart, EndOffset: tk.pos})
		}
	}

	for {
		if tk.pos >= len(tk.src) {
			return tk.fail(start, "unterminated interpolated string")
		}
		c := tk.src[tk.pos]

		switch {
		case c == '"' && form.quotes > 0:
			if run := tk.countRun(tk.pos, '"'); run >= form.quotes {
				flushText()
				endStart := tk.pos
				tk.pos += run
				tk.emit(csast.TokInterpEnd, endStart)
				return nil
			}
			tk.pos++

		case c == '"' && form.verbatim:
			if tk.peek(1) == '"' {
				tk.pos += 2
				continue
			}
			flushText()
			endStart := tk.pos
			tk.pos++
			tk.emit(csast.TokInterpEnd, endStart)
			return nil

		case c == '"':
			flushText()
			endStart := tk.pos
			tk.pos++
			tk.emit(csast.TokInterpEnd, endStart)
			return nil

		case c == '\\' && !form.verbatim && form.quotes == 0:
			tk.pos += 2

		case c == '{':
			run := tk.countRun(tk.pos, '{')
			need := 1
			if form.quotes > 0 {
				need = form.dollars
			}
			if form.quotes == 0 && run >= 2 {
				// "{{" is an escaped brace.
				tk.pos += 2
				continue
			}
			if run < need {
				tk.pos += run
				continue
			}
			// Extra leading braces belong to the text.
			tk.pos += run - need
			flushText()
			if err := tk.lexHole(need); err != nil {
				return err
			}
			textStart = tk.pos

		default:
			tk.pos++
		}
	}
}

// lexHole lexes "{ expr [,align] [:format] }" with width opening braces.
func (tk *tokenizer) lexHole(width int) error {
	start := tk.pos
	tk.pos += width
	tk.emit(csast.TokInterpHoleOpen, start)

	parens := 0
	braces := 0
	for {
		if tk.pos >= len(tk.src) {
			return tk.fail(start, "unterminated interpolation hole")
		}
		c := tk.src[tk.pos]

		if braces == 0 && parens == 0 {
			if c == '}' {
				closeStart := tk.pos
				tk.pos += min(width, tk.countRun(tk.pos, '}'))
				tk.emit(csast.TokInterpHoleClose, closeStart)
				return nil
			}
			if c == ',' || (c == ':' && tk.peek(1) != ':') {
				formatStart := tk.pos
				for tk.pos < len(tk.src) && tk.src[tk.pos] != '}' {
					tk.pos++
				}
				if tk.pos >= len(tk.src) {
					return tk.fail(start, "unterminated interpolation hole")
				}
				tk.emit(csast.TokInterpHoleFormat, formatStart)
				continue
			}
		}

		before := len(tk.tokens)
		if err := tk.next(); err != nil {
			return err
		}
		for _, tok := range tk.tokens[before:] {
			if tok.Kind != csast.TokPunct {
				continue
			}
			switch string(tok.Text(tk.src)) {
			case "(", "[":
				parens++
			case ")", "]":
				if parens > 0 {
					parens--
				}
			case "{":
				braces++
			case "}":
				if braces > 0 {
					braces--
				}
			}
		}
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Pc, r)
}
