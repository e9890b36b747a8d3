// Package cache stores lint-only results on disk so unchanged files are not
// re-evaluated.
//
// An entry is keyed by an xxhash digest of the tool version, the
// configuration that affects diagnostics, the global usings file and the
// file itself. Entries are msgpack encoded and written atomically; a
// corrupt or foreign entry reads as a miss.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/fsutil"
	"github.com/yaklabco/atclint/pkg/lint"
)

// schemaVersion changes whenever the entry layout does.
const schemaVersion uint16 = 1

// ErrOffsetRange is returned when a diagnostic position does not fit the
// entry encoding.
var ErrOffsetRange = errors.New("diagnostic position out of range")

// Cache is a directory of result entries. The zero value is not usable;
// construct with New. A nil *Cache is a valid, always-missing cache.
type Cache struct {
	dir  string
	salt []byte
}

type entry struct {
	Schema      uint16
	Path        string
	Diagnostics []entryDiag
}

type entryDiag struct {
	RuleID      string
	RuleName    string
	Category    string
	Message     string
	Severity    string
	Start       uint32
	End         uint32
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	Suggestion  string `msgpack:",omitempty"`
	HelpURL     string `msgpack:",omitempty"`
	Fixable     bool   `msgpack:",omitempty"`
	Internal    bool   `msgpack:",omitempty"`
}

// DefaultDir returns the per-user cache directory for atclint.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("user cache dir: %w", err)
	}
	return filepath.Join(base, "atclint"), nil
}

// New opens the cache at dir, creating it if needed. An empty dir selects
// DefaultDir. version and cfg are folded into every key.
func New(dir, version string, cfg *config.Config) (*Cache, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	fingerprint, err := Fingerprint(cfg)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, 0, len(version)+1+len(fingerprint))
	salt = append(salt, version...)
	salt = append(salt, 0)
	salt = append(salt, fingerprint...)

	return &Cache{dir: dir, salt: salt}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Fingerprint encodes the parts of cfg that influence diagnostics. Output
// and run-mode settings are left out so that, for example, switching the
// report format keeps the cache warm.
func Fingerprint(cfg *config.Config) ([]byte, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	relevant := cfg.Clone()
	relevant.Fix = false
	relevant.DryRun = false
	relevant.Format = ""
	relevant.RuleFormat = ""
	relevant.Jobs = 0
	relevant.NoBackups = false
	relevant.Backups = config.BackupsConfig{}
	relevant.Cache = config.CacheConfig{}
	relevant.Ignore = nil

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(relevant); err != nil {
		return nil, fmt.Errorf("fingerprint config: %w", err)
	}
	return buf.Bytes(), nil
}

// Key digests one file evaluation. globals is the content of the global
// usings file, nil when none is configured.
func (c *Cache) Key(path string, content, globals []byte) uint64 {
	digest := xxhash.New()
	if c != nil {
		_, _ = digest.Write(c.salt)
	}
	for _, part := range [][]byte{[]byte(path), globals, content} {
		_, _ = digest.WriteString(strconv.Itoa(len(part)))
		_, _ = digest.Write([]byte{0})
		_, _ = digest.Write(part)
	}
	return digest.Sum64()
}

func (c *Cache) pathFor(key uint64) string {
	name := fmt.Sprintf("%016x.mp", key)
	return filepath.Join(c.dir, name[:2], name)
}

// Get returns the diagnostics stored for key. A missing, corrupt or
// mismatched entry is a miss.
func (c *Cache) Get(key uint64, path string) ([]lint.Diagnostic, bool) {
	if c == nil {
		return nil, false
	}

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if e.Schema != schemaVersion || e.Path != path {
		return nil, false
	}

	diags := make([]lint.Diagnostic, len(e.Diagnostics))
	for idx, d := range e.Diagnostics {
		diags[idx] = lint.Diagnostic{
			RuleID:      d.RuleID,
			RuleName:    d.RuleName,
			Category:    lint.Category(d.Category),
			Message:     d.Message,
			Severity:    config.Severity(d.Severity),
			FilePath:    path,
			StartOffset: int(d.Start),
			EndOffset:   int(d.End),
			StartLine:   int(d.StartLine),
			StartColumn: int(d.StartColumn),
			EndLine:     int(d.EndLine),
			EndColumn:   int(d.EndColumn),
			Suggestion:  d.Suggestion,
			HelpURL:     d.HelpURL,
			Fixable:     d.Fixable,
			Internal:    d.Internal,
		}
	}
	return diags, true
}

// Put stores diagnostics for key. Fix edits are not stored: cached results
// serve lint-only runs.
func (c *Cache) Put(ctx context.Context, key uint64, path string, diags []lint.Diagnostic) error {
	if c == nil {
		return nil
	}

	e := entry{Schema: schemaVersion, Path: path, Diagnostics: make([]entryDiag, len(diags))}
	for idx, d := range diags {
		ed, err := toEntry(d)
		if err != nil {
			return fmt.Errorf("cache %s: %w", path, err)
		}
		e.Diagnostics[idx] = ed
	}

	data, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	target := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := fsutil.WriteAtomic(ctx, target, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return os.MkdirAll(c.dir, 0o755)
}

func toEntry(d lint.Diagnostic) (entryDiag, error) {
	var positions [6]uint32
	for idx, v := range [6]int{d.StartOffset, d.EndOffset, d.StartLine, d.StartColumn, d.EndLine, d.EndColumn} {
		n, err := safecast.Conv[uint32](v)
		if err != nil {
			return entryDiag{}, fmt.Errorf("%w: %s: %w", ErrOffsetRange, d.RuleID, err)
		}
		positions[idx] = n
	}

	return entryDiag{
		RuleID:      d.RuleID,
		RuleName:    d.RuleName,
		Category:    string(d.Category),
		Message:     d.Message,
		Severity:    string(d.Severity),
		Start:       positions[0],
		End:         positions[1],
		StartLine:   positions[2],
		StartColumn: positions[3],
		EndLine:     positions[4],
		EndColumn:   positions[5],
		Suggestion:  d.Suggestion,
		HelpURL:     d.HelpURL,
		Fixable:     d.Fixable,
		Internal:    d.Internal,
	}, nil
}
