package runner_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/yaklabco/atclint/pkg/runner"
)

const csharpSource = "using System;\n\nnamespace Shop;\n\npublic class Order { }\n"

// discoverRel runs Discover and returns paths relative to dir, slash separated.
func discoverRel(t *testing.T, dir string, opts runner.Options) []string {
	t.Helper()

	opts.WorkingDir = dir
	files, err := runner.Discover(context.Background(), opts)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		if err != nil {
			t.Fatalf("rel: %v", err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel
}

func TestDiscover_SingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Order.cs": csharpSource})

	files, err := runner.Discover(context.Background(), runner.Options{
		Paths:      []string{filepath.Join(dir, "Order.cs")},
		WorkingDir: dir,
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(dir, "Order.cs") {
		t.Errorf("Discover() = %v", files)
	}
}

func TestDiscover_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Program.cs":                     csharpSource,
		"src/Models/Order.cs":            csharpSource,
		"src/Script.csx":                 csharpSource,
		"README.md":                      "# Shop\n",
		"src/Counter.cs":                 "!Counter methodsFor: 'accessing'!\nvalue\n\t^value! !\n",
		"src/Form1.Designer.cs":          csharpSource,
		"bin/Debug/Generated.cs":         csharpSource,
		"obj/Debug/AssemblyInfo.cs":      csharpSource,
		".vs/Settings.cs":                csharpSource,
		"src/.hidden.cs":                 csharpSource,
		"tests/Shop.Tests/OrderTests.cs": csharpSource,
	})

	got := discoverRel(t, dir, runner.Options{})
	want := []string{"Program.cs", "src/Models/Order.cs", "tests/Shop.Tests/OrderTests.cs"}
	if !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscover_IncludeGenerated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Program.cs":             csharpSource,
		"src/Form1.Designer.cs":  csharpSource,
		"obj/Debug/Generated.cs": csharpSource,
	})

	got := discoverRel(t, dir, runner.Options{IncludeGenerated: true})
	want := []string{"Program.cs", "obj/Debug/Generated.cs", "src/Form1.Designer.cs"}
	if !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscover_ExplicitGeneratedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Form1.Designer.cs": csharpSource})

	got := discoverRel(t, dir, runner.Options{Paths: []string{"Form1.Designer.cs"}})
	if !slices.Equal(got, []string{"Form1.Designer.cs"}) {
		t.Errorf("explicit generated file should be kept, got %v", got)
	}
}

func TestDiscover_DefaultsToCurrentDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Order.cs": csharpSource})

	got := discoverRel(t, dir, runner.Options{Paths: nil})
	if !slices.Equal(got, []string{"Order.cs"}) {
		t.Errorf("Discover() = %v", got)
	}
}

func TestDiscover_CustomExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Order.cs":   csharpSource,
		"Script.csx": csharpSource,
	})

	got := discoverRel(t, dir, runner.Options{Extensions: []string{".cs", ".csx"}})
	if !slices.Equal(got, []string{"Order.cs", "Script.csx"}) {
		t.Errorf("Discover() = %v", got)
	}
}

func TestDiscover_Globs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/Order.cs":                csharpSource,
		"src/Migrations/0001_Init.cs": csharpSource,
		"tests/OrderTests.cs":         csharpSource,
		"tools/Build.cs":              csharpSource,
	})

	tests := []struct {
		name string
		opts runner.Options
		want []string
	}{
		{
			name: "exclude directory anywhere",
			opts: runner.Options{ExcludeGlobs: []string{"**/Migrations/**"}},
			want: []string{"src/Order.cs", "tests/OrderTests.cs", "tools/Build.cs"},
		},
		{
			name: "exclude prefix",
			opts: runner.Options{ExcludeGlobs: []string{"tools/**", "tests/**"}},
			want: []string{"src/Migrations/0001_Init.cs", "src/Order.cs"},
		},
		{
			name: "exclude file name",
			opts: runner.Options{ExcludeGlobs: []string{"*Tests.cs"}},
			want: []string{"src/Migrations/0001_Init.cs", "src/Order.cs", "tools/Build.cs"},
		},
		{
			name: "include",
			opts: runner.Options{IncludeGlobs: []string{"src/**"}},
			want: []string{"src/Migrations/0001_Init.cs", "src/Order.cs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := discoverRel(t, dir, tt.opts); !slices.Equal(got, tt.want) {
				t.Errorf("Discover() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_DeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b/Z.cs": csharpSource,
		"a/Y.cs": csharpSource,
		"X.cs":   csharpSource,
	})

	got := discoverRel(t, dir, runner.Options{Paths: []string{"b", ".", "a/Y.cs", "X.cs"}})
	want := []string{"X.cs", "a/Y.cs", "b/Z.cs"}
	if !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscover_NonExistentPath(t *testing.T) {
	t.Parallel()

	_, err := runner.Discover(context.Background(), runner.Options{
		Paths:      []string{"missing"},
		WorkingDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for non-existent path")
	}
}

func TestDiscover_ContextCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Order.cs": csharpSource})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.Discover(ctx, runner.Options{WorkingDir: dir}); err == nil {
		t.Fatal("expected a cancellation error")
	}
}

func TestDiscover_DirectorySymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"real/Order.cs": csharpSource})

	externalDir := t.TempDir()
	writeFiles(t, externalDir, map[string]string{"External.cs": csharpSource})

	if err := os.Symlink(externalDir, filepath.Join(dir, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	got := discoverRel(t, dir, runner.Options{})
	if !slices.Equal(got, []string{"real/Order.cs"}) {
		t.Errorf("without FollowSymlinks: %v", got)
	}

	files, err := runner.Discover(context.Background(), runner.Options{WorkingDir: dir, FollowSymlinks: true})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("with FollowSymlinks: %v", files)
	}
}

func TestDefaultExtensions(t *testing.T) {
	t.Parallel()

	if exts := runner.DefaultExtensions(); !slices.Equal(exts, []string{".cs"}) {
		t.Errorf("DefaultExtensions() = %v", exts)
	}
}
