package csharp

import "github.com/yaklabco/atclint/pkg/csast"

// predefinedTypes are the keyword spellings of built-in types.
//
//nolint:gochecknoglobals // Read-only lookup table.
var predefinedTypes = map[string]struct{}{
	"bool": {}, "byte": {}, "char": {}, "decimal": {}, "double": {}, "float": {},
	"int": {}, "long": {}, "object": {}, "sbyte": {}, "short": {}, "string": {},
	"uint": {}, "ulong": {}, "ushort": {}, "void": {},
}

// genericFollowers are the tokens that may follow a type argument list in
// an expression for "<...>" to be read as type arguments.
//
//nolint:gochecknoglobals // Read-only lookup table.
var genericFollowers = map[string]struct{}{
	"(": {}, ")": {}, "]": {}, "}": {}, ":": {}, ";": {}, ",": {}, ".": {},
	"?.": {}, "?": {}, "==": {}, "!=": {}, "|": {}, "^": {}, "&&": {}, "||": {},
	"&": {}, "[": {}, "=>": {},
}

func (ps *parseState) isPredefinedTypeAt(pos int) bool {
	if ps.kindAt(pos) != csast.TokKeyword {
		return false
	}
	_, ok := predefinedTypes[ps.textAt(pos)]
	return ok
}

func (ps *parseState) isTypeStartAt(pos int) bool {
	return ps.isIdentAt(pos) || ps.isPredefinedTypeAt(pos)
}

// scanType recognises a type starting at pos without consuming it. It
// returns the position after the type.
func (ps *parseState) scanType(pos int) (int, bool) {
	if ps.isPunctAt(pos, "(") {
		idx := pos + 1
		for {
			end, ok := ps.scanType(idx)
			if !ok {
				return pos, false
			}
			idx = end
			if ps.isIdentAt(idx) {
				idx++
			}
			if ps.isPunctAt(idx, ",") {
				idx++
				continue
			}
			if ps.isPunctAt(idx, ")") {
				return ps.scanTypeSuffix(idx + 1), true
			}
			return pos, false
		}
	}

	if !ps.isTypeStartAt(pos) {
		return pos, false
	}

	idx := pos + 1
	for {
		if ps.isPunctAt(idx, "<") {
			end, ok := ps.scanTypeArgs(idx)
			if !ok {
				break
			}
			idx = end
		}
		if (ps.isPunctAt(idx, ".") || ps.isPunctAt(idx, "::")) && ps.isIdentAt(idx+1) {
			idx += 2
			continue
		}
		break
	}

	return ps.scanTypeSuffix(idx), true
}

// scanTypeArgs recognises "<T, U>" (or the unbound "<,>") at pos.
func (ps *parseState) scanTypeArgs(pos int) (int, bool) {
	if !ps.isPunctAt(pos, "<") {
		return pos, false
	}
	idx := pos + 1
	for ps.isPunctAt(idx, ",") {
		idx++
	}
	if ps.isPunctAt(idx, ">") {
		return idx + 1, true
	}

	for {
		for ps.isWordAt(idx, "in") || ps.isKeywordAt(idx, "in") || ps.isKeywordAt(idx, "out") {
			idx++
		}
		end, ok := ps.scanType(idx)
		if !ok {
			return pos, false
		}
		idx = end
		if ps.isPunctAt(idx, ",") {
			idx++
			continue
		}
		if ps.isPunctAt(idx, ">") {
			return idx + 1, true
		}
		return pos, false
	}
}

// scanTypeSuffix consumes nullable, pointer and array rank suffixes.
func (ps *parseState) scanTypeSuffix(idx int) int {
	for {
		switch {
		case ps.isPunctAt(idx, "?"), ps.isPunctAt(idx, "*"):
			idx++
		case ps.isPunctAt(idx, "["):
			end := idx + 1
			for ps.isPunctAt(end, ",") {
				end++
			}
			if !ps.isPunctAt(end, "]") {
				return idx
			}
			idx = end + 1
		default:
			return idx
		}
	}
}

// genericArgsEnd reports whether "<...>" at pos reads as type arguments in
// an expression and returns the position after the closing '>'.
func (ps *parseState) genericArgsEnd(pos int) (int, bool) {
	end, ok := ps.scanTypeArgs(pos)
	if !ok {
		return pos, false
	}
	if end >= len(ps.sig) {
		return end, true
	}
	if ps.kindAt(end) == csast.TokInterpHoleClose || ps.kindAt(end) == csast.TokInterpHoleFormat {
		return end, true
	}
	if ps.kindAt(end) != csast.TokPunct {
		return pos, false
	}
	if _, ok := genericFollowers[ps.textAt(end)]; !ok {
		return pos, false
	}
	return end, true
}

// isOpener and isCloser classify delimiter tokens, interpolation holes included.
func (ps *parseState) isOpener(pos int) bool {
	switch ps.kindAt(pos) {
	case csast.TokInterpHoleOpen:
		return true
	case csast.TokPunct:
		text := ps.textAt(pos)
		return text == "(" || text == "[" || text == "{"
	default:
		return false
	}
}

func (ps *parseState) isCloser(pos int) bool {
	switch ps.kindAt(pos) {
	case csast.TokInterpHoleClose:
		return true
	case csast.TokPunct:
		text := ps.textAt(pos)
		return text == ")" || text == "]" || text == "}"
	default:
		return false
	}
}

// skipUntil advances until stop reports true at nesting depth zero, or a
// closing delimiter at depth zero is reached. Neither is consumed.
func (ps *parseState) skipUntil(stop func(pos int) bool) {
	depth := 0
	for !ps.eof() {
		if depth == 0 && stop(ps.pos) {
			return
		}
		switch {
		case ps.isOpener(ps.pos):
			depth++
		case ps.isCloser(ps.pos):
			if depth == 0 {
				return
			}
			depth--
		}
		ps.pos++
	}
}

// skipToPunct advances to the next depth-zero occurrence of any of texts.
func (ps *parseState) skipToPunct(texts ...string) {
	ps.skipUntil(func(pos int) bool {
		for _, t := range texts {
			if ps.isPunctAt(pos, t) {
				return true
			}
		}
		return false
	})
}

// skipGroup consumes a delimited group starting at the opener under the cursor.
func (ps *parseState) skipGroup() {
	if !ps.isOpener(ps.pos) {
		return
	}
	ps.pos++
	ps.skipUntil(func(int) bool { return false })
	if !ps.eof() {
		ps.pos++
	}
}

// groupEnd returns the position after the group that opens at pos, or -1.
func (ps *parseState) groupEnd(pos int) int {
	if !ps.isOpener(pos) {
		return -1
	}
	depth := 0
	for idx := pos; idx < len(ps.sig); idx++ {
		switch {
		case ps.isOpener(idx):
			depth++
		case ps.isCloser(idx):
			depth--
			if depth == 0 {
				return idx + 1
			}
		}
	}
	return -1
}

// skipAngles consumes a "<...>" type parameter list at the cursor.
func (ps *parseState) skipAngles() {
	if !ps.isPunct("<") {
		return
	}
	depth := 0
	for !ps.eof() {
		switch {
		case ps.isPunct("<"):
			depth++
		case ps.isPunct(">"):
			depth--
		case ps.isCloser(ps.pos) || ps.isPunct(";") || ps.isPunct("{"):
			return
		}
		ps.pos++
		if depth == 0 {
			return
		}
	}
}

// skipStatementTail consumes tokens up to and including the next
// depth-zero ';'. It stops before a depth-zero closing delimiter.
func (ps *parseState) skipStatementTail() {
	ps.skipToPunct(";")
	ps.accept(";")
}
