package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	lock, err := LockDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %s", lock.Path())
	}

	if _, err := LockDir(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked for second lock, got %v", err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("unexpected unlock error: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("expected lock file removed, got %v", err)
	}

	again, err := LockDir(dir)
	if err != nil {
		t.Fatalf("expected lock to be free after unlock: %v", err)
	}
	_ = again.Unlock()
}
