package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yaklabco/atclint/pkg/langdetect"
)

// sniffSize bounds how much of a candidate is read for language checks.
const sniffSize = 16 << 10

// buildOutputDirs hold compiler output and are skipped during walks.
var buildOutputDirs = map[string]bool{"bin": true, "obj": true}

// Discover finds C# files matching opts under the given working directory.
// It returns a deterministically sorted list of absolute file paths.
//
// Walked candidates must pass the extension filter, the ignore globs and a
// content check that confirms they are C#. Generated and vendored sources
// are dropped unless opts.IncludeGenerated is set. Files named explicitly
// in opts.Paths skip the generated check.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	// Resolve working directory.
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	extensions := opts.effectiveExtensions()
	paths := opts.effectivePaths()

	// Use a map for deduplication.
	seen := make(map[string]struct{})
	var files []string

	for _, inputPath := range paths {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("discovery cancelled: %w", ctx.Err())
		default:
		}

		// Resolve to absolute path.
		absPath := inputPath
		if !filepath.IsAbs(inputPath) {
			absPath = filepath.Join(workDir, inputPath)
		}
		absPath = filepath.Clean(absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", inputPath, err)
		}

		if info.IsDir() {
			// Walk directory.
			discovered, err := walkDirectory(ctx, absPath, workDir, extensions, opts)
			if err != nil {
				return nil, err
			}
			for _, f := range discovered {
				if _, ok := seen[f]; !ok {
					seen[f] = struct{}{}
					files = append(files, f)
				}
			}
		} else if matchesFile(absPath, workDir, extensions, opts) {
			ok, err := confirmCSharp(absPath, workDir, true, opts)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if _, ok := seen[absPath]; !ok {
				seen[absPath] = struct{}{}
				files = append(files, absPath)
			}
		}
	}

	// Sort for deterministic ordering.
	slices.Sort(files)

	return files, nil
}

// resolveWorkDir resolves the working directory, defaulting to os.Getwd().
func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}

// walkDirectory recursively walks a directory and returns matching C# files.
func walkDirectory(
	ctx context.Context,
	root string,
	workDir string,
	extensions []string,
	opts Options,
) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		// Check for context cancellation.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			// Handle permission errors gracefully.
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		// Get relative path for pattern matching.
		relPath, relErr := filepath.Rel(workDir, path)
		if relErr != nil {
			relPath = path
		}

		// Handle directories.
		if entry.IsDir() {
			// Skip hidden directories (except root).
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}

			if path != root && !opts.IncludeGenerated && buildOutputDirs[strings.ToLower(entry.Name())] {
				return filepath.SkipDir
			}

			// Check if directory should be excluded.
			if matchesAny(relPath, opts.ExcludeGlobs) {
				return filepath.SkipDir
			}

			return nil
		}

		// Handle symlinks.
		if entry.Type()&fs.ModeSymlink != 0 {
			// Resolve symlink to check if it points to a file or directory.
			realPath, evalErr := filepath.EvalSymlinks(path)
			if evalErr != nil {
				// Broken symlink, skip silently.
				return nil //nolint:nilerr // Intentionally skip broken symlinks
			}
			info, statErr := os.Stat(realPath)
			if statErr != nil {
				// Cannot stat target, skip silently.
				return nil //nolint:nilerr // Intentionally skip inaccessible symlink targets
			}
			if info.IsDir() {
				// Directory symlink: skip unless FollowSymlinks is set.
				if !opts.FollowSymlinks {
					return nil
				}
				// Walk the symlink TARGET (realPath), not the symlink itself.
				// This avoids infinite recursion since WalkDir uses Lstat on root.
				subFiles, err := walkDirectory(ctx, realPath, workDir, extensions, opts)
				if err != nil {
					return err
				}
				files = append(files, subFiles...)
				return nil
			}
			// File symlink: continue to check as regular file.
		}

		// Skip hidden files.
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		if !matchesFile(path, workDir, extensions, opts) {
			return nil
		}

		ok, err := confirmCSharp(path, workDir, false, opts)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	return files, nil
}

// confirmCSharp reads the head of path and checks it with langdetect.
// Unreadable files are kept so the pipeline can report them.
func confirmCSharp(path, workDir string, explicit bool, opts Options) (bool, error) {
	head, err := readHead(path)
	if err != nil {
		if os.IsPermission(err) || errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	relPath, relErr := filepath.Rel(workDir, path)
	if relErr != nil || strings.HasPrefix(relPath, "..") {
		relPath = filepath.Base(path)
	}

	switch langdetect.Classify(filepath.ToSlash(relPath), head) {
	case langdetect.VerdictCSharp:
		return true, nil
	case langdetect.VerdictGenerated, langdetect.VerdictVendored:
		return explicit || opts.IncludeGenerated, nil
	default:
		return false, nil
	}
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, sniffSize))
	if err != nil {
		return nil, err
	}
	return head, nil
}

// matchesFile checks if a file path matches the inclusion criteria.
func matchesFile(path, workDir string, extensions []string, opts Options) bool {
	// Get relative path for pattern matching.
	relPath, err := filepath.Rel(workDir, path)
	if err != nil {
		relPath = path
	}

	if !hasMatchingExtension(path, extensions) || matchesAny(relPath, opts.ExcludeGlobs) {
		return false
	}
	return len(opts.IncludeGlobs) == 0 || matchesAny(relPath, opts.IncludeGlobs)
}

// hasMatchingExtension checks if the file has a matching extension.
func hasMatchingExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

func matchesAny(relPath string, patterns []string) bool {
	return slices.ContainsFunc(patterns, func(pattern string) bool {
		return matchGlob(relPath, pattern)
	})
}

// matchGlob matches a slash-separated relative path against a glob.
// A pattern without a slash matches the base name or the whole path; "**"
// matches any number of path segments.
func matchGlob(name, pattern string) bool {
	name = filepath.ToSlash(name)
	pattern = filepath.ToSlash(pattern)

	if !strings.Contains(pattern, "/") && pattern != "**" {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
		base := name[strings.LastIndex(name, "/")+1:]
		ok, err := filepath.Match(pattern, base)
		return err == nil && ok
	}

	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for skip := 0; skip <= len(segments); skip++ {
				if matchSegments(rest, segments[skip:]) {
					return true
				}
			}
			return false
		}

		if len(segments) == 0 {
			return false
		}
		if ok, err := filepath.Match(pattern[0], segments[0]); err != nil || !ok {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}
