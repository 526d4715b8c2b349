package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-kvs/internal/lock"
	"github.com/0xRadioAc7iv/go-kvs/internal/metrics"
	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

// Store is a persistent key-value store backed by a directory of append-only
// segment files.
//
// A Store assumes it is the only user of its directory. Nothing prevents two
// processes from opening the same directory unless WithDirectoryLock is used.
// Within a process all methods are safe to call concurrently; they are
// serialised internally.
type Store struct {
	mu sync.Mutex

	dir      string
	keyDir   KeyDir
	segments *segmentStore
	active   *segmentWriter
	dirLock  *lock.Lock
	closed   bool

	log         *slog.Logger
	metrics     *metrics.Collector
	syncOnWrite bool
}

// Open opens the store rooted at dir, creating the directory if necessary.
//
// Every existing segment is replayed to rebuild the index, then a brand-new
// generation is created for writes. Open never truncates or deletes
// segments; a segment that fails to decode makes Open fail with
// ErrCorruption.
func Open(dir string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if err := prepareDirectory(dir); err != nil {
		return nil, err
	}

	s := &Store{
		dir:         dir,
		segments:    newSegmentStore(dir),
		log:         o.logger.With("dir", dir),
		metrics:     o.metrics,
		syncOnWrite: o.syncOnWrite,
	}

	if o.lockDirectory {
		l, err := lock.Acquire(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
		}
		s.dirLock = l
	}

	if err := s.load(); err != nil {
		s.release()
		return nil, err
	}

	return s, nil
}

func prepareDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, dir)
		}
		return nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}

	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	return nil
}

// load rebuilds the index from disk and starts the write generation.
func (s *Store) load() error {
	gens, err := ListGenerations(s.dir)
	if err != nil {
		return ioError("list segments", err)
	}

	for _, gen := range gens {
		if _, err := s.segments.openReader(gen); err != nil {
			return ioError("open "+SegmentFileName(gen), err)
		}
	}

	started := time.Now()
	keyDir, stats, err := buildKeyDir(s.segments, gens)
	if err != nil {
		return err
	}
	s.keyDir = keyDir
	s.metrics.ObserveReplay(stats.Records, time.Since(started))

	next := nextGeneration(gens)
	w, err := s.segments.createWriter(next)
	if err != nil {
		return ioError("create "+SegmentFileName(next), err)
	}
	s.active = w

	s.log.Info("store opened",
		"segments", stats.Generations,
		"records", stats.Records,
		"tombstones", stats.Tombstones,
		"keys", len(s.keyDir),
		"active_generation", uint64(next),
		"replay", time.Since(started),
	)
	s.updateGauges()

	return nil
}

// Get returns the value stored under key. A missing key is not an error:
// ok is false and err is nil.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.metrics.ObserveOperation("get", err) }()

	if s.closed {
		return "", false, ErrClosed
	}

	loc, ok := s.keyDir[key]
	if !ok {
		return "", false, nil
	}

	rec, err := s.readRecord(loc)
	if err != nil {
		return "", false, err
	}

	if rec.Op != record.OpSet || rec.Key != key {
		return "", false, corruptionError(loc.Generation,
			fmt.Errorf("offset %d holds %s record for %q, want set for %q", loc.Offset, rec.Op, rec.Key, key))
	}

	return rec.Value, true, nil
}

func (s *Store) readRecord(loc ValueLocation) (record.LogRecord, error) {
	r, ok := s.segments.reader(loc.Generation)
	if !ok {
		return record.LogRecord{}, corruptionError(loc.Generation, errors.New("segment is not open"))
	}

	if _, err := r.Seek(loc.Offset, io.SeekStart); err != nil {
		return record.LogRecord{}, ioError("seek "+SegmentFileName(loc.Generation), err)
	}

	buf := make([]byte, loc.Length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return record.LogRecord{}, readError(loc.Generation, err)
	}

	rec, n, err := record.Decode(buf)
	if err != nil {
		return record.LogRecord{}, readError(loc.Generation, err)
	}
	if n != loc.Length {
		return record.LogRecord{}, corruptionError(loc.Generation,
			fmt.Errorf("record at offset %d is %d bytes, index says %d", loc.Offset, n, loc.Length))
	}

	return rec, nil
}

// Set stores value under key, replacing any previous value. The record is
// flushed to the operating system before Set returns.
func (s *Store) Set(key, value string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.metrics.ObserveOperation("set", err) }()

	if s.closed {
		return ErrClosed
	}

	data, err := record.Encode(record.NewSet(key, value))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	loc, err := s.append(data)
	if err != nil {
		return err
	}

	s.keyDir[key] = loc
	s.metrics.SetLiveKeys(len(s.keyDir))
	return nil
}

// Remove deletes key. It returns ErrKeyNotFound when the key has no live
// value, in which case nothing is written to the log.
func (s *Store) Remove(key string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.metrics.ObserveOperation("rm", err) }()

	if s.closed {
		return ErrClosed
	}

	if _, ok := s.keyDir[key]; !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}

	data, err := record.Encode(record.NewRemove(key))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if _, err := s.append(data); err != nil {
		return err
	}

	delete(s.keyDir, key)
	s.metrics.SetLiveKeys(len(s.keyDir))
	return nil
}

// append writes one encoded record to the active segment and flushes it.
func (s *Store) append(data []byte) (ValueLocation, error) {
	w := s.active
	offset := w.Pos()

	if _, err := w.Write(data); err != nil {
		return ValueLocation{}, ioError("write "+SegmentFileName(w.gen), err)
	}
	if err := w.Flush(); err != nil {
		return ValueLocation{}, ioError("flush "+SegmentFileName(w.gen), err)
	}
	if s.syncOnWrite {
		if err := w.file.Sync(); err != nil {
			return ValueLocation{}, ioError("sync "+SegmentFileName(w.gen), err)
		}
	}

	loc := ValueLocation{
		Generation: w.gen,
		Offset:     offset,
		Length:     w.Pos() - offset,
	}

	s.metrics.AddBytes(loc.Length)
	s.log.Debug("record appended", "generation", uint64(loc.Generation), "offset", loc.Offset, "length", loc.Length)

	return loc, nil
}

// RotateSegment starts a new generation and directs all further writes to it.
// Existing segments stay open for reads and are never modified. The store
// never rotates on its own; this is the hook for an external compaction pass.
func (s *Store) RotateSegment() (GenerationID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	prev := s.active
	next := prev.gen + 1

	if err := prev.Flush(); err != nil {
		return 0, ioError("flush "+SegmentFileName(prev.gen), err)
	}

	w, err := s.segments.createWriter(next)
	if err != nil {
		return 0, ioError("create "+SegmentFileName(next), err)
	}
	s.active = w

	if err := prev.close(); err != nil {
		s.log.Warn("closing previous segment writer failed", "generation", uint64(prev.gen), "error", err)
	}

	s.log.Info("segment rotated", "from", uint64(prev.gen), "to", uint64(next))
	s.updateGauges()

	return next, nil
}

// Keys returns every live key in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.keyDir))
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.keyDir)
}

// Generation returns the generation currently receiving writes.
func (s *Store) Generation() GenerationID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return 0
	}
	return s.active.gen
}

// Generations returns every generation the store has open, oldest first.
func (s *Store) Generations() []GenerationID {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.segments.generations()
}

func (s *Store) Dir() string {
	return s.dir
}

// Close flushes the active segment and releases every file handle and the
// directory lock. Closing an already closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.release()
	if err != nil {
		return ioError("close", err)
	}

	s.log.Info("store closed")
	return nil
}

func (s *Store) release() error {
	var errs []error

	if s.active != nil {
		if err := s.active.close(); err != nil {
			errs = append(errs, err)
		}
		s.active = nil
	}

	if err := s.segments.close(); err != nil {
		errs = append(errs, err)
	}

	if s.dirLock != nil {
		if err := s.dirLock.Release(); err != nil {
			errs = append(errs, err)
		}
		s.dirLock = nil
	}

	return errors.Join(errs...)
}

func (s *Store) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetLiveKeys(len(s.keyDir))
	s.metrics.SetSegments(len(s.segments.readers), uint64(s.active.gen))
}
