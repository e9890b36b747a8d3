// Package csast provides the C# syntax model for atclint.
// It defines a lossless, immutable view of a source file:
//   - FileSnapshot: the complete file representation
//   - Token stream: every byte classified, trivia included
//   - Nodes: structural representation referencing token spans
//   - Line metrics: per-line facts computed once per snapshot
package csast

import "bytes"

// FileSnapshot is an immutable, lossless view of a C# file at a specific time.
// A fix never mutates a snapshot; the fixed content is parsed into a new one.
type FileSnapshot struct {
	// Path is the file path (may be empty for in-memory content).
	Path string

	// Content is the full file bytes.
	Content []byte

	// Lines contains metadata for each line in the file.
	Lines []LineInfo

	// Metrics contains derived per-line facts, indexed like Lines.
	Metrics []LineMetric

	// Tokens is the full token stream covering every byte.
	Tokens []Token

	// Root is the syntax tree root (NodeCompilationUnit).
	Root *Node
}

// LineInfo holds byte offsets for a single line in a file.
type LineInfo struct {
	// StartOffset is the byte index of the line start.
	StartOffset int

	// NewlineStart is the byte index where newline characters begin.
	// For lines without a trailing newline, this equals EndOffset.
	NewlineStart int

	// EndOffset is the byte index just after the newline (or end of file).
	EndOffset int
}

// NewFileSnapshot creates a FileSnapshot holding the line index only.
// Tokens, metrics and the tree are filled in by a parser.
func NewFileSnapshot(path string, content []byte) *FileSnapshot {
	return &FileSnapshot{
		Path:    path,
		Content: content,
		Lines:   BuildLines(content),
	}
}

// Newline returns the line terminator used by the file: "\r\n" when the
// first terminator is CRLF, "\n" otherwise.
func (f *FileSnapshot) Newline() string {
	idx := bytes.IndexByte(f.Content, '\n')
	if idx > 0 && f.Content[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
