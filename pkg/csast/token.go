package csast

//go:generate stringer -type=TokenKind -trimprefix=Tok

// TokenKind classifies the type of a token in C# source.
type TokenKind uint16

// Token kinds cover every byte in the source.
const (
	TokWhitespace TokenKind = iota
	TokNewline

	TokLineComment  // "// ..." up to the newline
	TokDocComment   // "/// ..." up to the newline
	TokBlockComment // "/* ... */", possibly spanning lines
	TokPreprocessor // "#region", "#if", ... up to the newline

	TokIdentifier // identifiers and contextual keywords (var, async, await, ...)
	TokKeyword    // reserved keywords
	TokNumber
	TokString // regular, verbatim and raw string literals
	TokChar
	TokPunct // operators and punctuation

	TokInterpStart      // $" $@" @$" $"""
	TokInterpText       // literal text between holes
	TokInterpHoleOpen   // '{' opening a hole
	TokInterpHoleFormat // ",align" or ":format" tail of a hole, up to the closing brace
	TokInterpHoleClose  // '}' closing a hole
	TokInterpEnd        // closing quote(s)
)

// IsTrivia reports whether tokens of this kind carry no syntax.
func (k TokenKind) IsTrivia() bool {
	switch k {
	case TokWhitespace, TokNewline, TokLineComment, TokDocComment, TokBlockComment, TokPreprocessor:
		return true
	default:
		return false
	}
}

// IsComment reports whether the kind is a comment or a preprocessor line.
func (k TokenKind) IsComment() bool {
	switch k {
	case TokLineComment, TokDocComment, TokBlockComment, TokPreprocessor:
		return true
	default:
		return false
	}
}

// Token represents a classified span of bytes in the source.
// Tokens are contiguous and non-overlapping, covering [0, len(Content)).
type Token struct {
	// Kind classifies what this token represents.
	Kind TokenKind

	// StartOffset is the byte index where this token begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where this token ends (exclusive).
	EndOffset int
}

// Text returns the source text of this token from the given content.
func (t Token) Text(content []byte) []byte {
	if t.StartOffset < 0 || t.EndOffset > len(content) || t.StartOffset > t.EndOffset {
		return nil
	}
	return content[t.StartOffset:t.EndOffset]
}

// Len returns the length of this token in bytes.
func (t Token) Len() int {
	return t.EndOffset - t.StartOffset
}

// ValidateTokens checks that tokens are contiguous, non-overlapping and
// cover [0, contentLen).
func ValidateTokens(tokens []Token, contentLen int) bool {
	if len(tokens) == 0 {
		return contentLen == 0
	}

	if tokens[0].StartOffset != 0 || tokens[len(tokens)-1].EndOffset != contentLen {
		return false
	}

	for i := 1; i < len(tokens); i++ {
		if tokens[i].StartOffset != tokens[i-1].EndOffset {
			return false
		}
		if tokens[i].EndOffset < tokens[i].StartOffset {
			return false
		}
	}

	return true
}

// TokenText returns the text of the token at index idx, or "" when idx is out of range.
func (f *FileSnapshot) TokenText(idx int) string {
	if idx < 0 || idx >= len(f.Tokens) {
		return ""
	}
	return string(f.Tokens[idx].Text(f.Content))
}

// PrevSignificant returns the index of the closest non-trivia token before idx, or -1.
func (f *FileSnapshot) PrevSignificant(idx int) int {
	for i := idx - 1; i >= 0; i-- {
		if !f.Tokens[i].Kind.IsTrivia() {
			return i
		}
	}
	return -1
}

// NextSignificant returns the index of the closest non-trivia token after idx, or -1.
func (f *FileSnapshot) NextSignificant(idx int) int {
	for i := idx + 1; i < len(f.Tokens); i++ {
		if !f.Tokens[i].Kind.IsTrivia() {
			return i
		}
	}
	return -1
}

// FirstOnLine reports whether the token at idx is preceded on its line only by whitespace.
func (f *FileSnapshot) FirstOnLine(idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		switch f.Tokens[i].Kind {
		case TokWhitespace:
			continue
		case TokNewline:
			return true
		default:
			return false
		}
	}
	return true
}

// HasCommentBetween reports whether any comment or preprocessor token lies
// strictly between the token indices from and to.
func (f *FileSnapshot) HasCommentBetween(from, to int) bool {
	for i := from + 1; i < to && i < len(f.Tokens); i++ {
		if f.Tokens[i].Kind.IsComment() {
			return true
		}
	}
	return false
}
