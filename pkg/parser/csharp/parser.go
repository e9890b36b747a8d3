// Package csharp provides a Parser implementation for C# source.
// It builds a lossless csast.FileSnapshot: a token stream covering every
// byte plus a tolerant syntax tree. Constructs the tree does not model are
// kept as opaque statement or expression nodes so that a parse succeeds on
// any lexically valid file.
package csharp

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaklabco/atclint/pkg/csast"
)

// ErrMalformed is returned for source that cannot be tokenized or whose
// delimiters do not balance.
var ErrMalformed = errors.New("malformed source")

// maxNesting bounds recursion on pathological input.
const maxNesting = 400

// Parser implements C# parsing.
type Parser struct{}

// New creates a new C# parser.
func New() *Parser {
	return &Parser{}
}

// Parse parses content and returns a complete FileSnapshot.
// The path is stored in the snapshot but not read.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*csast.FileSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	snapshot := csast.NewFileSnapshot(path, copyContent(content))

	tokens, err := tokenize(snapshot.Content)
	if err != nil {
		return nil, malformed(snapshot, err)
	}
	snapshot.Tokens = tokens

	if !csast.ValidateTokens(tokens, len(snapshot.Content)) {
		return nil, fmt.Errorf("%w: token stream does not cover content", ErrMalformed)
	}

	if err := checkBalance(snapshot); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	ps := newParseState(ctx, snapshot)
	root, err := ps.parseCompilationUnit()
	if err != nil {
		return nil, err
	}
	snapshot.Root = root

	csast.SetFile(root, snapshot)
	snapshot.Metrics = csast.ComputeMetrics(snapshot)

	return snapshot, nil
}

// copyContent copies content so the snapshot never aliases the caller's buffer.
func copyContent(content []byte) []byte {
	if content == nil {
		return []byte{}
	}
	result := make([]byte, len(content))
	copy(result, content)
	return result
}

func malformed(snapshot *csast.FileSnapshot, err error) error {
	var lexErr *lexError
	if errors.As(err, &lexErr) {
		line, col := snapshot.LineAt(lexErr.offset)
		return fmt.Errorf("%w: %d:%d: %s", ErrMalformed, line, col, lexErr.msg)
	}
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

// checkBalance verifies that brackets, parentheses, braces and
// interpolation holes nest properly.
func checkBalance(snapshot *csast.FileSnapshot) error {
	type open struct {
		closer string
		offset int
	}
	var stack []open

	report := func(offset int, msg string) error {
		line, col := snapshot.LineAt(offset)
		return fmt.Errorf("%w: %d:%d: %s", ErrMalformed, line, col, msg)
	}

	for _, tok := range snapshot.Tokens {
		var text string
		switch tok.Kind {
		case csast.TokPunct:
			text = string(tok.Text(snapshot.Content))
		case csast.TokInterpHoleOpen:
			text = "{hole"
		case csast.TokInterpHoleClose:
			text = "}hole"
		default:
			continue
		}

		switch text {
		case "(":
			stack = append(stack, open{")", tok.StartOffset})
		case "[":
			stack = append(stack, open{"]", tok.StartOffset})
		case "{":
			stack = append(stack, open{"}", tok.StartOffset})
		case "{hole":
			stack = append(stack, open{"}hole", tok.StartOffset})
		case ")", "]", "}", "}hole":
			if len(stack) == 0 {
				return report(tok.StartOffset, "unexpected closing delimiter")
			}
			top := stack[len(stack)-1]
			if top.closer != text {
				return report(tok.StartOffset, "mismatched closing delimiter")
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		return report(stack[len(stack)-1].offset, "unclosed delimiter")
	}
	return nil
}

// parseState walks the significant tokens of a snapshot.
type parseState struct {
	ctx     context.Context
	file    *csast.FileSnapshot
	content []byte

	// sig holds indices of significant tokens in file.Tokens.
	sig []int
	pos int

	nesting int

	// err is the first fatal error. Once set, eof reports true so that
	// every loop unwinds.
	err error
}

func newParseState(ctx context.Context, file *csast.FileSnapshot) *parseState {
	sig := make([]int, 0, len(file.Tokens)/2)
	for idx, tok := range file.Tokens {
		if !tok.Kind.IsTrivia() {
			sig = append(sig, idx)
		}
	}
	return &parseState{ctx: ctx, file: file, content: file.Content, sig: sig}
}

func (ps *parseState) parseCompilationUnit() (*csast.Node, error) {
	root := csast.NewNode(csast.NodeCompilationUnit)
	if len(ps.sig) > 0 {
		root.FirstToken = ps.sig[0]
		root.LastToken = ps.sig[len(ps.sig)-1]
	}

	ps.parseMembers(root, false)
	if ps.err != nil {
		return nil, ps.err
	}
	return root, nil
}

// enter guards recursion depth. Callers defer leave.
func (ps *parseState) enter() {
	ps.nesting++
	if ps.nesting > maxNesting && ps.err == nil {
		line, col := ps.file.LineAt(ps.offset())
		ps.err = fmt.Errorf("%w: %d:%d: nesting too deep", ErrMalformed, line, col)
	}
}

func (ps *parseState) leave() {
	ps.nesting--
}

// Cursor helpers. All indices are positions in ps.sig.

func (ps *parseState) eof() bool {
	return ps.err != nil || ps.pos >= len(ps.sig)
}

func (ps *parseState) tokenAt(pos int) csast.Token {
	if pos < 0 || pos >= len(ps.sig) {
		return csast.Token{Kind: csast.TokWhitespace, StartOffset: len(ps.content), EndOffset: len(ps.content)}
	}
	return ps.file.Tokens[ps.sig[pos]]
}

func (ps *parseState) textAt(pos int) string {
	if pos < 0 || pos >= len(ps.sig) {
		return ""
	}
	return string(ps.tokenAt(pos).Text(ps.content))
}

func (ps *parseState) kindAt(pos int) csast.TokenKind {
	return ps.tokenAt(pos).Kind
}

func (ps *parseState) text() string {
	return ps.textAt(ps.pos)
}

func (ps *parseState) peekText(ahead int) string {
	return ps.textAt(ps.pos + ahead)
}

func (ps *parseState) kind() csast.TokenKind {
	return ps.kindAt(ps.pos)
}

func (ps *parseState) offset() int {
	return ps.tokenAt(ps.pos).StartOffset
}

// isPunct reports whether the token at pos is the punctuator s.
func (ps *parseState) isPunctAt(pos int, s string) bool {
	return ps.kindAt(pos) == csast.TokPunct && ps.textAt(pos) == s
}

func (ps *parseState) isPunct(s string) bool {
	return ps.isPunctAt(ps.pos, s)
}

func (ps *parseState) isKeywordAt(pos int, s string) bool {
	return ps.kindAt(pos) == csast.TokKeyword && ps.textAt(pos) == s
}

func (ps *parseState) isKeyword(s string) bool {
	return ps.isKeywordAt(ps.pos, s)
}

// isWordAt reports whether the token at pos is the identifier (contextual
// keyword) s.
func (ps *parseState) isWordAt(pos int, s string) bool {
	return ps.kindAt(pos) == csast.TokIdentifier && ps.textAt(pos) == s
}

func (ps *parseState) isWord(s string) bool {
	return ps.isWordAt(ps.pos, s)
}

func (ps *parseState) isIdentAt(pos int) bool {
	return pos < len(ps.sig) && ps.kindAt(pos) == csast.TokIdentifier
}

// accept consumes the punctuator s when present.
func (ps *parseState) accept(s string) bool {
	if ps.isPunct(s) {
		ps.pos++
		return true
	}
	return false
}

// adjacent reports whether the tokens at pos and pos+1 touch with no
// trivia between them.
func (ps *parseState) adjacent(pos int) bool {
	if pos+1 >= len(ps.sig) {
		return false
	}
	return ps.sig[pos+1] == ps.sig[pos]+1
}

// finish sets the token span of n to [start, ps.pos).
func (ps *parseState) finish(n *csast.Node, start int) *csast.Node {
	if ps.pos > start && start < len(ps.sig) {
		n.FirstToken = ps.sig[start]
		n.LastToken = ps.sig[min(ps.pos, len(ps.sig))-1]
	}
	return n
}

// span returns a node of kind covering [start, ps.pos).
func (ps *parseState) span(kind csast.NodeKind, start int) *csast.Node {
	return ps.finish(csast.NewNode(kind), start)
}

// extend widens n so that it also covers up to ps.pos.
func (ps *parseState) extend(n *csast.Node) {
	if ps.pos > 0 && ps.pos <= len(ps.sig) {
		n.LastToken = ps.sig[ps.pos-1]
	}
}

// wrap creates a node of kind whose span starts at first.
func wrap(kind csast.NodeKind, first *csast.Node) *csast.Node {
	n := csast.NewNode(kind)
	n.FirstToken = first.FirstToken
	n.LastToken = first.LastToken
	csast.AppendChild(n, first)
	return n
}

// appendChild appends child when it is non-nil and has a span.
func appendChild(parent, child *csast.Node) {
	if child != nil && child.FirstToken >= 0 {
		csast.AppendChild(parent, child)
	}
}
