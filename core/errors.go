package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

var (
	// ErrIO wraps failures of the underlying filesystem.
	ErrIO = errors.New("io error")

	// ErrCorruption is returned when log bytes do not decode as the record
	// the index expects.
	ErrCorruption = errors.New("corrupted log")

	// ErrKeyNotFound is returned by Remove for a key with no live value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidDirectory is returned when the store path cannot be used
	// as a store root.
	ErrInvalidDirectory = errors.New("invalid store directory")

	// ErrInvalidArgument is returned for keys or values that cannot be
	// represented in the log.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

func corruptionError(gen GenerationID, err error) error {
	return fmt.Errorf("%w: segment %s: %w", ErrCorruption, SegmentFileName(gen), err)
}

// readError classifies a failure while reading back a record: short reads
// and undecodable bytes mean the segment no longer matches the index.
func readError(gen GenerationID, err error) error {
	if errors.Is(err, record.ErrMalformed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return corruptionError(gen, err)
	}
	return ioError("read "+SegmentFileName(gen), err)
}

// Kind returns the name of the error class err belongs to, or "" when err
// does not come from the store.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrKeyNotFound):
		return "KeyNotFound"
	case errors.Is(err, ErrCorruption):
		return "Corruption"
	case errors.Is(err, ErrInvalidDirectory):
		return "InvalidDirectory"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	case errors.Is(err, ErrClosed):
		return "Closed"
	case errors.Is(err, ErrIO):
		return "Io"
	default:
		return ""
	}
}
