package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBackupNow_WritesFileAndVerifies(t *testing.T) {
	dir := t.TempDir()
	var backedUp string
	backupFn := func(_ context.Context, path string) error {
		backedUp = path
		return os.WriteFile(path, []byte("fake-db"), 0644)
	}
	verify := func(path string) error {
		if path != backedUp {
			t.Fatalf("verify called with %s, want %s", path, backedUp)
		}
		return nil
	}

	svc, err := New(backupFn, nil, verify, Config{BackupDir: dir, VerifyBackups: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := svc.BackupNow(context.Background())
	if err != nil {
		t.Fatalf("BackupNow: %v", err)
	}
	if !result.Verified {
		t.Error("expected result.Verified to be true")
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestBackupNow_SurfacesBackupFuncError(t *testing.T) {
	dir := t.TempDir()
	boom := os.ErrPermission
	svc, err := New(func(context.Context, string) error { return boom }, nil, nil, Config{BackupDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := svc.BackupNow(context.Background()); err == nil {
		t.Error("expected BackupNow to surface the backup function's error")
	}
}

func TestRestoreBackup_RejectsWhileRunning(t *testing.T) {
	dir := t.TempDir()
	svc, err := New(func(context.Context, string) error { return nil }, func(context.Context, string) error { return nil }, nil, Config{BackupDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	svc.mu.Lock()
	svc.running = true
	svc.mu.Unlock()

	if err := svc.RestoreBackup(context.Background(), filepath.Join(dir, "x.db")); err == nil {
		t.Error("expected RestoreBackup to reject while the service is running")
	}
}

func TestNew_RequiresBackupDir(t *testing.T) {
	if _, err := New(func(context.Context, string) error { return nil }, nil, nil, Config{}); err == nil {
		t.Error("expected New to reject a blank backup directory")
	}
}
