package core

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/go-kvs/internal/posio"
)

// SegmentFileName returns the file name used for a generation, e.g. "7.log".
func SegmentFileName(gen GenerationID) string {
	return strconv.FormatUint(uint64(gen), 10) + SegmentFileExt
}

// parseSegmentFileName extracts the generation from a segment file name.
// Only the canonical form produced by SegmentFileName is accepted, so "07.log"
// or "+7.log" are treated as unrelated files.
func parseSegmentFileName(name string) (GenerationID, bool) {
	stem, ok := strings.CutSuffix(name, SegmentFileExt)
	if !ok || stem == "" {
		return 0, false
	}

	n, err := strconv.ParseUint(stem, 10, 64)
	if err != nil || strconv.FormatUint(n, 10) != stem {
		return 0, false
	}

	return GenerationID(n), true
}

// ListGenerations looks for segment files inside dir and returns their
// generations in ascending order. Directories and files that do not follow
// the naming convention are ignored.
func ListGenerations(dir string) ([]GenerationID, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	gens := []GenerationID{}

	for _, entry := range entries {
		gen, ok := parseSegmentFileName(entry.Name())
		if !ok {
			continue
		}

		// ReadDir does not follow symlinks, so resolve the type properly
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}

		gens = append(gens, gen)
	}

	slices.Sort(gens)
	return gens, nil
}

// nextGeneration returns the generation a fresh writer should use.
func nextGeneration(gens []GenerationID) GenerationID {
	if len(gens) == 0 {
		return FirstGeneration
	}
	return slices.Max(gens) + 1
}

type segmentReader struct {
	file *os.File
	*posio.Reader
}

type segmentWriter struct {
	gen  GenerationID
	file *os.File
	*posio.Writer
}

func (w *segmentWriter) close() error {
	flushErr := w.Flush()
	closeErr := w.file.Close()
	return errors.Join(flushErr, closeErr)
}

// segmentStore owns the segment directory and one read handle per known
// generation. Reads at different generations never share a cursor.
type segmentStore struct {
	dir     string
	readers map[GenerationID]*segmentReader
}

func newSegmentStore(dir string) *segmentStore {
	return &segmentStore{
		dir:     dir,
		readers: make(map[GenerationID]*segmentReader),
	}
}

func (ss *segmentStore) path(gen GenerationID) string {
	return filepath.Join(ss.dir, SegmentFileName(gen))
}

// openReader opens a read handle for an existing generation and registers it.
func (ss *segmentStore) openReader(gen GenerationID) (*segmentReader, error) {
	if r, ok := ss.readers[gen]; ok {
		return r, nil
	}

	f, err := os.Open(ss.path(gen))
	if err != nil {
		return nil, err
	}

	pr, err := posio.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &segmentReader{file: f, Reader: pr}
	ss.readers[gen] = r
	return r, nil
}

func (ss *segmentStore) reader(gen GenerationID) (*segmentReader, bool) {
	r, ok := ss.readers[gen]
	return r, ok
}

// createWriter opens gen for appending, creating the file if needed, and
// registers a reader for it so freshly written records can be read back.
func (ss *segmentStore) createWriter(gen GenerationID) (*segmentWriter, error) {
	f, err := os.OpenFile(ss.path(gen), os.O_CREATE|os.O_WRONLY|os.O_APPEND, FilePerm)
	if err != nil {
		return nil, err
	}

	// Append mode leaves the offset at 0 until the first write
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}

	pw, err := posio.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if _, err := ss.openReader(gen); err != nil {
		f.Close()
		return nil, err
	}

	return &segmentWriter{gen: gen, file: f, Writer: pw}, nil
}

// generations returns every registered generation in ascending order.
func (ss *segmentStore) generations() []GenerationID {
	gens := make([]GenerationID, 0, len(ss.readers))
	for gen := range ss.readers {
		gens = append(gens, gen)
	}
	slices.Sort(gens)
	return gens
}

func (ss *segmentStore) close() error {
	var errs []error
	for gen, r := range ss.readers {
		if err := r.file.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(ss.readers, gen)
	}
	return errors.Join(errs...)
}
