package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the output directory while a run writes to it
const LockFileName = ".audio-trimmer.lock"

// ErrLocked is returned when another run holds the output directory
var ErrLocked = errors.New("output directory is in use by another audio-trimmer run")

// DirLock guards an output directory against concurrent runs
type DirLock struct {
	lock *flock.Flock
}

// LockDir creates dir if needed and takes its lock without waiting
func LockDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	l := flock.New(filepath.Join(dir, LockFileName))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &DirLock{lock: l}, nil
}

// Path returns the lock file path
func (d *DirLock) Path() string {
	return d.lock.Path()
}

// Unlock releases the lock and removes the lock file
func (d *DirLock) Unlock() error {
	if err := d.lock.Unlock(); err != nil {
		return err
	}
	_ = os.Remove(d.lock.Path())
	return nil
}
