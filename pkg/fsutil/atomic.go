package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// DefaultFileMode is used for files that did not exist before.
const DefaultFileMode os.FileMode = 0o644

// WriteAtomic replaces path with content. The data is written and synced
// to a temporary file in the same directory, then renamed over path, so
// readers see either the old or the new content. A zero mode means
// DefaultFileMode.
func WriteAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if mode == 0 {
		mode = DefaultFileMode
	}

	tmpPath, err := writeTemp(filepath.Dir(path), filepath.Base(path), content, mode)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: rename: %w", path, err)
	}
	return nil
}

func writeTemp(dir, base string, content []byte, mode os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+base+".atclint-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	var merr *multierror.Error
	if _, err := tmp.Write(content); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("write temp file: %w", err))
	} else if err := tmp.Sync(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("close temp file: %w", err))
	}
	if merr == nil {
		if err := os.Chmod(tmp.Name(), mode); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("chmod temp file: %w", err))
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Journal writes files atomically and remembers what each held before, so
// a fix spanning several files can be undone when a later write fails. The
// zero value is ready to use. A Journal is not safe for concurrent use.
type Journal struct {
	entries []journalEntry
}

type journalEntry struct {
	path     string
	original []byte
	mode     os.FileMode
	created  bool
}

// Write replaces path with content. original and mode describe the file
// before the write; a nil original means the file did not exist and
// Rollback removes it.
func (j *Journal) Write(ctx context.Context, path string, content, original []byte, mode os.FileMode) error {
	if err := WriteAtomic(ctx, path, content, mode); err != nil {
		return err
	}
	j.entries = append(j.entries, journalEntry{
		path:     path,
		original: original,
		mode:     mode,
		created:  original == nil,
	})
	return nil
}

// Len returns the number of recorded writes.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Rollback restores every recorded file in reverse order and clears the
// journal. It runs even when ctx is cancelled, since a half-applied fix is
// worse than a late one. All restore failures are returned together.
func (j *Journal) Rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	var merr *multierror.Error
	for i := len(j.entries) - 1; i >= 0; i-- {
		entry := j.entries[i]
		if entry.created {
			if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) {
				merr = multierror.Append(merr, fmt.Errorf("rollback %s: %w", entry.path, err))
			}
			continue
		}
		if err := WriteAtomic(ctx, entry.path, entry.original, entry.mode); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("rollback: %w", err))
		}
	}
	j.entries = nil
	return merr.ErrorOrNil()
}
