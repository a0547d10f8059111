package lockfile

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"

	"memoryatlas/internal/services"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.Mark(errors.New("another atlas command is already running"), services.ErrTransient)

// Lock is a held single-instance lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock at path without blocking.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create lock directory")
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquire lock")
	}
	if !ok {
		return nil, services.WithHint(errors.WithStack(ErrLocked), "wait for the other atlas run to finish")
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks the file. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return errors.Wrap(err, "release lock")
	}
	return nil
}
