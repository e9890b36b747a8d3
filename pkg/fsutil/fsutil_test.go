package fsutil_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yaklabco/atclint/pkg/fsutil"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Order.cs")
	writeTestFile(t, path, "class Order { }\n")

	content, info, err := fsutil.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "class Order { }\n" {
		t.Errorf("content = %q", content)
	}
	if info.Path != path || info.Size != int64(len(content)) || info.Mode != 0o644 {
		t.Errorf("info = %+v", info)
	}
	if info.Digest == 0 {
		t.Error("Digest should be set")
	}
}

func TestReadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "Missing.cs"), fsutil.ErrNotFound},
		{"directory", dir, fsutil.ErrIsDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := fsutil.ReadFile(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadFile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadFile_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := fsutil.ReadFile(ctx, "Order.cs"); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadFile() error = %v, want context.Canceled", err)
	}
}

func TestCheckModified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unchanged", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "A.cs")
		writeTestFile(t, path, "class A { }\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		if err != nil {
			t.Fatal(err)
		}

		for _, strict := range []bool{false, true} {
			modified, err := fsutil.CheckModified(ctx, info, strict)
			if err != nil || modified {
				t.Errorf("CheckModified(strict=%v) = %v, %v; want false, nil", strict, modified, err)
			}
		}
	})

	t.Run("size changed", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "A.cs")
		writeTestFile(t, path, "class A { }\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		if err != nil {
			t.Fatal(err)
		}
		writeTestFile(t, path, "class A { int x; }\n")

		if modified, err := fsutil.CheckModified(ctx, info, false); err != nil || !modified {
			t.Errorf("CheckModified() = %v, %v; want true, nil", modified, err)
		}
	})

	t.Run("same size and mtime needs strict", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "A.cs")
		writeTestFile(t, path, "class A { }\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		if err != nil {
			t.Fatal(err)
		}
		writeTestFile(t, path, "class B { }\n")
		if err := os.Chtimes(path, time.Now(), info.ModTime); err != nil {
			t.Fatal(err)
		}

		if modified, _ := fsutil.CheckModified(ctx, info, false); modified {
			t.Error("quick check should not see a same-size edit with restored mtime")
		}
		if modified, err := fsutil.CheckModified(ctx, info, true); err != nil || !modified {
			t.Errorf("CheckModified(strict) = %v, %v; want true, nil", modified, err)
		}
	})

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "A.cs")
		writeTestFile(t, path, "class A { }\n")
		_, info, err := fsutil.ReadFile(ctx, path)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}

		if modified, err := fsutil.CheckModified(ctx, info, false); err != nil || !modified {
			t.Errorf("CheckModified() = %v, %v; want true, nil", modified, err)
		}
	})

	t.Run("nil info", func(t *testing.T) {
		t.Parallel()

		if _, err := fsutil.CheckModified(ctx, nil, true); !errors.Is(err, fsutil.ErrNilFileInfo) {
			t.Errorf("error = %v, want ErrNilFileInfo", err)
		}
	})
}
