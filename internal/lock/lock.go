// Package lock guards a store directory against a second concurrent user.
package lock

import (
	"errors"
	"os"
)

// FileName is the name of the lock file created inside a locked directory.
const FileName = "LOCK"

// ErrLocked is returned when another instance already holds the lock.
var ErrLocked = errors.New("directory already in use by another store instance")

// Lock is an exclusive lock on a directory. It is held until Release.
type Lock struct {
	f *os.File
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.f.Name()
}
