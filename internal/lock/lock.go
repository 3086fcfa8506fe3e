// Package lock provides an advisory file lock that keeps two installers
// from working on the same data directory at once.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// FileName is the lock file created in the data directory.
const FileName = ".crmsetup.lock"

// ErrHeld is returned when another process holds the lock and the wait
// expired.
var ErrHeld = errors.New("another installation is running")

var flockFn = unix.Flock
var lockSleep = time.Sleep

// PollEvery is how often a blocked Acquire retries.
var PollEvery = 100 * time.Millisecond

// Lock is a held advisory lock.
type Lock struct {
	file *os.File
}

// Path returns the lock file for a data directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Acquire creates dir if needed and takes an exclusive lock on its lock
// file, waiting up to wait. A zero wait tries once.
func Acquire(dir string, wait time.Duration) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir %s: %w", dir, err)
	}
	path := Path(dir)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock %s: %w", path, err)
	}
	if err := lockFile(file, wait); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &Lock{file: file}, nil
}

// Release unlocks and closes the lock file. Safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := flockFn(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func lockFile(file *os.File, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		if !time.Now().Before(deadline) {
			return ErrHeld
		}
		lockSleep(PollEvery)
	}
}
