// Package snapshot writes and reads portable copies of a store's live data.
//
// A snapshot is a snappy-framed stream of JSON lines, one {"key","value"}
// object per live key in key order. It holds no segment layout, so it can be
// imported into any store.
package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// Source is the read side of a store.
type Source interface {
	Keys() []string
	Get(key string) (string, bool, error)
}

// Sink is the write side of a store.
type Sink interface {
	Set(key, value string) error
}

type entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Export writes every live key of src to w and returns how many entries were
// written. Keys removed between listing and reading are skipped.
func Export(src Source, w io.Writer) (int, error) {
	sw := snappy.NewBufferedWriter(w)
	enc := json.NewEncoder(sw)

	n := 0
	for _, key := range src.Keys() {
		value, ok, err := src.Get(key)
		if err != nil {
			return n, fmt.Errorf("Export: %q: %w", key, err)
		}
		if !ok {
			continue
		}

		if err := enc.Encode(entry{Key: key, Value: value}); err != nil {
			return n, fmt.Errorf("Export: %w", err)
		}
		n++
	}

	if err := sw.Close(); err != nil {
		return n, fmt.Errorf("Export: %w", err)
	}
	return n, nil
}

// Import reads a snapshot from r and applies every entry to dst with Set.
// Entries already applied stay applied if a later one fails.
func Import(dst Sink, r io.Reader) (int, error) {
	dec := json.NewDecoder(bufio.NewReader(snappy.NewReader(r)))

	n := 0
	for {
		var e entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("Import: entry %d: %w", n+1, err)
		}

		if err := dst.Set(e.Key, e.Value); err != nil {
			return n, fmt.Errorf("Import: %q: %w", e.Key, err)
		}
		n++
	}
}
