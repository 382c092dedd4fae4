package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the refresh lock.
var ErrLocked = errors.New("index is locked by another refresh")

// Lock is a cross-process lock that sits next to the database file
// at <db>.lock. Refresh holds it for the whole pass.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewLock returns the lock guarding the database at dbPath.
func NewLock(dbPath string) *Lock {
	lockPath := dbPath + ".lock"
	return &Lock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock acquires the lock without blocking. It returns ErrLocked when
// the lock is held elsewhere.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return ErrLocked
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Calling it on an unlocked Lock is a no-op.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}
