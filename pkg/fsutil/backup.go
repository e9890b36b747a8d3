package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupMode selects where backups go.
type BackupMode string

const (
	// BackupModeSidecar writes "<file>.atclint.bak" next to the file.
	BackupModeSidecar BackupMode = "sidecar"

	// BackupModeNone disables backups.
	BackupModeNone BackupMode = "none"
)

// BackupSuffix is appended to sidecar backups.
const BackupSuffix = ".atclint.bak"

// BackupConfig controls backups before fixes are written.
type BackupConfig struct {
	Enabled bool
	Mode    BackupMode
}

// DefaultBackupConfig returns backups off, in sidecar mode once enabled.
func DefaultBackupConfig() BackupConfig {
	return BackupConfig{Mode: BackupModeSidecar}
}

// BackupPath returns where the backup of path goes, or "" for
// BackupModeNone. Unknown modes fall back to sidecar.
func BackupPath(path string, mode BackupMode) string {
	if mode == BackupModeNone {
		return ""
	}
	return path + BackupSuffix
}

// CreateBackup saves original as the backup of path. An existing backup is
// kept, so it always holds the content from before the first fix. It
// reports whether a backup was written.
func CreateBackup(ctx context.Context, path string, original []byte, mode os.FileMode, cfg BackupConfig) (bool, error) {
	if !cfg.Enabled {
		return false, nil
	}
	backupPath := BackupPath(path, cfg.Mode)
	if backupPath == "" {
		return false, nil
	}

	_, err := os.Stat(backupPath)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("backup %s: %w", path, err)
	}

	if err := WriteAtomic(ctx, backupPath, original, mode); err != nil {
		return false, fmt.Errorf("backup %s: %w", path, err)
	}
	return true, nil
}
