//go:build unix

package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Acquire takes an exclusive, non-blocking advisory lock on dir.
//
// On Unix systems, this uses flock(2) on a file named "LOCK" inside the
// directory. The lock belongs to the open file description, so a second
// Acquire fails even from the same process. The kernel drops it if the
// process dies.
func Acquire(dir string) (*Lock, error) {
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	return &Lock{f: f}, nil
}

// Release drops the flock and closes the lock file. The file itself is left
// in place.
func (l *Lock) Release() error {
	unlockErr := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
