package globalusings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/fsutil"
)

// Sentinel errors for error categorization via errors.Is.
var (
	// ErrNotAppend is returned for edits that do anything other than append
	// "global using" lines.
	ErrNotAppend = errors.New("global usings edits must append directives")

	// ErrStale is returned when a staged change was computed against a
	// snapshot that is no longer current.
	ErrStale = errors.New("global usings changed since staging")

	// ErrModified is returned when the file changed on disk after it was loaded.
	ErrModified = errors.New("global usings file modified externally")
)

// Store owns the global usings file for one run. Readers take the current
// Snapshot; writers must hold the store's lock (Acquire/Release) across
// Stage and Commit, so at most one writer touches the file at a time.
type Store struct {
	sem *semaphore.Weighted

	mu      sync.RWMutex
	current *Snapshot
}

// NewStore wraps a loaded snapshot.
func NewStore(snap *Snapshot) *Store {
	return &Store{
		sem:     semaphore.NewWeighted(1),
		current: snap,
	}
}

// Open loads the file at path and wraps it in a Store.
func Open(ctx context.Context, path string) (*Store, error) {
	snap, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(snap), nil
}

// Path returns the location of the global usings file.
func (st *Store) Path() string {
	return st.Snapshot().Path
}

// Snapshot returns the current read-only view of the file.
func (st *Store) Snapshot() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Acquire takes the writer lock, blocking until it is free or ctx is done.
func (st *Store) Acquire(ctx context.Context) error {
	if err := st.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire global usings: %w", err)
	}
	return nil
}

// Release gives up the writer lock.
func (st *Store) Release() {
	st.sem.Release(1)
}

// Staged is a pending change to the global usings file.
type Staged struct {
	// Base is the snapshot the change was computed against.
	Base *Snapshot

	// Content is the complete new file content.
	Content []byte

	// Added lists the namespaces the change adds, in order.
	Added []string
}

// Changed reports whether committing would alter the file.
func (s *Staged) Changed() bool {
	return s != nil && len(s.Added) > 0
}

// Stage rebases append edits onto the current content. Edits may have been
// computed against an older snapshot; only the directives they carry are
// kept, and namespaces already present are skipped. The caller must hold
// the writer lock.
func (st *Store) Stage(ctx context.Context, edits []fix.TextEdit) (*Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stage global usings: %w", err)
	}

	base := st.Snapshot()
	staged := &Staged{Base: base, Content: base.Content}

	seen := make(map[string]struct{})
	for _, edit := range edits {
		if !edit.IsInsert() {
			return nil, fmt.Errorf("%w: %s", ErrNotAppend, edit)
		}
		namespaces, err := directivesIn(edit.NewText)
		if err != nil {
			return nil, err
		}
		for _, ns := range namespaces {
			if _, dup := seen[ns]; dup || base.Has(ns) {
				continue
			}
			seen[ns] = struct{}{}
			staged.Added = append(staged.Added, ns)
		}
	}

	if len(staged.Added) == 0 {
		return staged, nil
	}

	newline := base.newline()
	var buf bytes.Buffer
	buf.Write(base.Content)
	if buf.Len() > 0 && !bytes.HasSuffix(base.Content, []byte("\n")) {
		buf.WriteString(newline)
	}
	for _, ns := range staged.Added {
		buf.WriteString(Directive(ns))
		buf.WriteString(newline)
	}
	staged.Content = buf.Bytes()
	return staged, nil
}

// Commit writes a staged change atomically and publishes the new snapshot.
// The caller must hold the writer lock.
func (st *Store) Commit(ctx context.Context, staged *Staged) error {
	if !staged.Changed() {
		return nil
	}

	base := st.Snapshot()
	if staged.Base != base {
		return ErrStale
	}

	if base.info != nil {
		modified, err := fsutil.CheckModified(ctx, base.info, true)
		if err != nil {
			return fmt.Errorf("commit global usings: %w", err)
		}
		if modified {
			return fmt.Errorf("%w: %s", ErrModified, base.Path)
		}
	}

	mode := fsutil.DefaultFileMode
	if base.info != nil {
		mode = base.info.Mode
	}
	if err := fsutil.WriteAtomic(ctx, base.Path, staged.Content, mode); err != nil {
		return fmt.Errorf("commit global usings: %w", err)
	}

	next, err := Load(ctx, base.Path)
	if err != nil {
		return err
	}

	st.mu.Lock()
	st.current = next
	st.mu.Unlock()
	return nil
}

// directivesIn extracts the namespaces of the "global using" lines in text.
func directivesIn(text string) ([]string, error) {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		body, ok := strings.CutPrefix(line, "global using ")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotAppend, line)
		}
		body, ok = strings.CutSuffix(body, ";")
		if !ok || strings.ContainsAny(body, "=;") || strings.HasPrefix(body, "static ") {
			return nil, fmt.Errorf("%w: %q", ErrNotAppend, line)
		}
		out = append(out, Normalize(body))
	}
	return out, nil
}
