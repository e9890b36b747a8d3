// Package globalusings models the shared file that holds a project's
// "global using" directives. A Snapshot is the read-only view every file
// evaluation shares; a Store serializes writers to the file.
package globalusings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yaklabco/atclint/pkg/csast"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/fsutil"
	"github.com/yaklabco/atclint/pkg/parser/csharp"
)

// Snapshot is an immutable view of the global usings file.
type Snapshot struct {
	// Path is the location of the file.
	Path string

	// Content is the file content. Empty when the file does not exist yet.
	Content []byte

	// Namespaces lists the plain "global using X;" entries in file order.
	// Static and aliased directives are not included.
	Namespaces []string

	index  map[string]struct{}
	exists bool
	info   *fsutil.FileInfo
}

// Load reads the file at path. A missing file yields an empty snapshot that
// will be created on the first commit.
func Load(ctx context.Context, path string) (*Snapshot, error) {
	content, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, fsutil.ErrNotFound) {
			return Empty(path), nil
		}
		return nil, fmt.Errorf("load global usings: %w", err)
	}

	snap, err := Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	snap.exists = true
	snap.info = info
	return snap, nil
}

// Empty returns a snapshot for a file that does not exist yet.
func Empty(path string) *Snapshot {
	return &Snapshot{Path: path, index: map[string]struct{}{}}
}

// Parse builds a snapshot from in-memory content.
func Parse(ctx context.Context, path string, content []byte) (*Snapshot, error) {
	file, err := csharp.New().Parse(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("global usings %s: %w", path, err)
	}

	snap := &Snapshot{
		Path:    path,
		Content: file.Content,
		index:   make(map[string]struct{}),
	}
	for _, n := range csast.FindByKind(file.Root, csast.NodeUsingDirective) {
		u := n.Using
		if u == nil || !u.Global || u.Static || u.Alias != "" {
			continue
		}
		ns := Normalize(u.Namespace)
		if _, dup := snap.index[ns]; dup {
			continue
		}
		snap.index[ns] = struct{}{}
		snap.Namespaces = append(snap.Namespaces, ns)
	}
	return snap, nil
}

// Normalize strips the "global::" qualifier so that equivalent spellings of
// a namespace compare equal.
func Normalize(ns string) string {
	return strings.TrimPrefix(strings.TrimSpace(ns), "global::")
}

// Has reports whether ns is declared in the file.
func (s *Snapshot) Has(ns string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[Normalize(ns)]
	return ok
}

// Exists reports whether the file existed when the snapshot was taken.
func (s *Snapshot) Exists() bool {
	return s != nil && s.exists
}

// Directive renders the global using line for ns, without a terminator.
func Directive(ns string) string {
	return "global using " + Normalize(ns) + ";"
}

// AppendEdit returns the edit that adds ns at the end of the file. A
// terminator is inserted first when the file does not end with one.
func (s *Snapshot) AppendEdit(ns, newline string) fix.TextEdit {
	end := len(s.Content)
	var text strings.Builder
	if end > 0 && s.Content[end-1] != '\n' {
		text.WriteString(newline)
	}
	text.WriteString(Directive(ns))
	text.WriteString(newline)
	return fix.TextEdit{StartOffset: end, EndOffset: end, NewText: text.String()}
}

// newline returns the terminator used by the file, "\n" when it has none.
func (s *Snapshot) newline() string {
	idx := bytes.IndexByte(s.Content, '\n')
	if idx > 0 && s.Content[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
