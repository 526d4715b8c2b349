//go:build windows

package lock

import (
	"fmt"
	"os"
	"path/filepath"
)

// Acquire takes an exclusive lock on dir.
//
// On Windows, this is implemented by atomically creating a file named "LOCK"
// inside the directory. If the file already exists, the directory is assumed
// to be in use by another store instance.
func Acquire(dir string) (*Lock, error) {
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}

	return &Lock{f: f}, nil
}

// Release closes and removes the lock file. It should be called exactly once
// for each successful Acquire.
func (l *Lock) Release() error {
	name := l.f.Name()
	if err := l.f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
