package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yaklabco/atclint/pkg/fsutil"
)

func TestBackupPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode fsutil.BackupMode
		want string
	}{
		{fsutil.BackupModeSidecar, "src/A.cs.atclint.bak"},
		{fsutil.BackupModeNone, ""},
		{"xdg", "src/A.cs.atclint.bak"},
	}

	for _, tt := range tests {
		if got := fsutil.BackupPath("src/A.cs", tt.mode); got != tt.want {
			t.Errorf("BackupPath(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestCreateBackup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	enabled := fsutil.BackupConfig{Enabled: true, Mode: fsutil.BackupModeSidecar}

	t.Run("writes the original once", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "A.cs")

		created, err := fsutil.CreateBackup(ctx, path, []byte("first"), 0o640, enabled)
		if err != nil || !created {
			t.Fatalf("CreateBackup() = %v, %v; want true, nil", created, err)
		}
		created, err = fsutil.CreateBackup(ctx, path, []byte("second"), 0o640, enabled)
		if err != nil || created {
			t.Fatalf("second CreateBackup() = %v, %v; want false, nil", created, err)
		}

		backup := path + fsutil.BackupSuffix
		if got := readTestFile(t, backup); got != "first" {
			t.Errorf("backup = %q, want the first original", got)
		}
		stat, err := os.Stat(backup)
		if err != nil {
			t.Fatal(err)
		}
		if stat.Mode().Perm() != 0o640 {
			t.Errorf("mode = %o, want 640", stat.Mode().Perm())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "A.cs")
		for _, cfg := range []fsutil.BackupConfig{
			fsutil.DefaultBackupConfig(),
			{Enabled: true, Mode: fsutil.BackupModeNone},
		} {
			created, err := fsutil.CreateBackup(ctx, path, []byte("x"), 0, cfg)
			if err != nil || created {
				t.Errorf("CreateBackup(%+v) = %v, %v; want false, nil", cfg, created, err)
			}
		}
		if _, err := os.Stat(path + fsutil.BackupSuffix); !os.IsNotExist(err) {
			t.Error("no backup expected")
		}
	})
}
