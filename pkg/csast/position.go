package csast

// SourceRange represents a byte range in the source content.
type SourceRange struct {
	// StartOffset is the byte index where the range begins (inclusive).
	StartOffset int

	// EndOffset is the byte index where the range ends (exclusive).
	EndOffset int
}

// Len returns the length of the range in bytes.
func (r SourceRange) Len() int {
	return r.EndOffset - r.StartOffset
}

// IsEmpty returns true if the range has zero length.
func (r SourceRange) IsEmpty() bool {
	return r.StartOffset == r.EndOffset
}

// Contains returns true if the given offset is within this range.
func (r SourceRange) Contains(offset int) bool {
	return offset >= r.StartOffset && offset < r.EndOffset
}

// Encloses reports whether other lies entirely within r.
func (r SourceRange) Encloses(other SourceRange) bool {
	return other.StartOffset >= r.StartOffset && other.EndOffset <= r.EndOffset
}

// Overlaps reports whether the two ranges share at least one byte.
func (r SourceRange) Overlaps(other SourceRange) bool {
	return r.StartOffset < other.EndOffset && other.StartOffset < r.EndOffset
}

// Position represents a 1-based line and column in a file.
type Position struct {
	Line   int
	Column int
}

// IsValid returns true if this position has valid (positive) values.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// SourcePosition represents a range in terms of line/column positions.
type SourcePosition struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Start returns the start position.
func (sp SourcePosition) Start() Position {
	return Position{Line: sp.StartLine, Column: sp.StartColumn}
}

// End returns the end position.
func (sp SourcePosition) End() Position {
	return Position{Line: sp.EndLine, Column: sp.EndColumn}
}

// IsValid returns true if both start and end positions are valid.
func (sp SourcePosition) IsValid() bool {
	return sp.StartLine > 0 && sp.StartColumn > 0 &&
		sp.EndLine > 0 && sp.EndColumn > 0
}

// IsSingleLine returns true if start and end are on the same line.
func (sp SourcePosition) IsSingleLine() bool {
	return sp.StartLine == sp.EndLine
}

// PositionOf converts a byte range to line/column form.
func (f *FileSnapshot) PositionOf(r SourceRange) SourcePosition {
	startLine, startCol := f.LineAt(r.StartOffset)
	endLine, endCol := f.LineAt(r.EndOffset)
	return SourcePosition{
		StartLine:   startLine,
		StartColumn: startCol,
		EndLine:     endLine,
		EndColumn:   endCol,
	}
}

// SourceRange returns the byte range for this node.
// Returns an empty range if the node has no associated file or tokens.
func (n *Node) SourceRange() SourceRange {
	if n.File == nil || n.FirstToken < 0 || n.LastToken < 0 {
		return SourceRange{}
	}

	tokens := n.File.Tokens
	if n.FirstToken >= len(tokens) || n.LastToken >= len(tokens) {
		return SourceRange{}
	}

	return SourceRange{
		StartOffset: tokens[n.FirstToken].StartOffset,
		EndOffset:   tokens[n.LastToken].EndOffset,
	}
}

// SourcePosition returns the line/column range for this node.
// Returns an invalid position if the node has no associated file.
func (n *Node) SourcePosition() SourcePosition {
	if n.File == nil || n.FirstToken < 0 {
		return SourcePosition{}
	}
	return n.File.PositionOf(n.SourceRange())
}

// Text returns the source text for this node.
// Returns nil if the node has no associated file.
func (n *Node) Text() []byte {
	if n.File == nil {
		return nil
	}

	r := n.SourceRange()
	if r.StartOffset < 0 || r.EndOffset > len(n.File.Content) {
		return nil
	}

	return n.File.Content[r.StartOffset:r.EndOffset]
}

// StartLine returns the 1-based line of the node's first token.
func (n *Node) StartLine() int {
	return n.SourcePosition().StartLine
}

// EndLine returns the 1-based line of the node's last token.
func (n *Node) EndLine() int {
	if n.File == nil || n.LastToken < 0 {
		return 0
	}
	return n.File.LineOf(n.File.Tokens[n.LastToken].StartOffset)
}

// LeadingTrivia returns the trivia tokens between the previous significant
// token and the node's first token.
func (n *Node) LeadingTrivia() []Token {
	if n.File == nil || n.FirstToken < 0 {
		return nil
	}
	start := n.File.PrevSignificant(n.FirstToken) + 1
	return n.File.Tokens[start:n.FirstToken]
}

// TrailingTrivia returns the trivia tokens after the node's last token up
// to and including the first newline.
func (n *Node) TrailingTrivia() []Token {
	if n.File == nil || n.LastToken < 0 {
		return nil
	}
	tokens := n.File.Tokens
	end := n.LastToken + 1
	for end < len(tokens) && tokens[end].Kind.IsTrivia() {
		end++
		if tokens[end-1].Kind == TokNewline {
			break
		}
	}
	return tokens[n.LastToken+1 : end]
}
