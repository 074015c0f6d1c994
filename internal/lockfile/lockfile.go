// Package lockfile keeps two runs from working on the same home directory.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Name is the lock file created in the home directory.
const Name = ".lock"

// DefaultStale is the age after which a leftover lock is considered dead.
const DefaultStale = 3 * time.Hour

var ErrLocked = errors.New("another run holds the lock")

type Lock struct {
	path string
}

// Acquire creates <home>/.lock exclusively. A lock older than stale is
// removed first; a younger one fails with ErrLocked.
func Acquire(home string, stale time.Duration, now time.Time) (*Lock, error) {
	path := filepath.Join(home, Name)

	if st, err := os.Stat(path); err == nil {
		if stale > 0 && now.Sub(st.ModTime()) > stale {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("remove stale lock: %w", err)
			}
		} else {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", err)
	}
	return &Lock{path: path}, nil
}

func (l *Lock) Path() string { return l.path }

// Release removes the lock file. It is safe to call on a nil Lock and more
// than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
