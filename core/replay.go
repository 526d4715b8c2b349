package core

import (
	"errors"
	"io"

	"github.com/0xRadioAc7iv/go-kvs/internal/record"
)

// ReplayStats summarises an index rebuild.
type ReplayStats struct {
	Generations int   // Segments replayed
	Records     int   // Records decoded across all segments
	Tombstones  int   // Remove records among them
	Bytes       int64 // Total bytes decoded
}

// buildKeyDir replays gens in ascending order and returns the resulting
// index. Readers for every generation must already be registered in ss.
//
// A record that fails to decode aborts the whole rebuild: dropping an
// unreadable tail would silently lose data.
func buildKeyDir(ss *segmentStore, gens []GenerationID) (KeyDir, ReplayStats, error) {
	keyDir := make(KeyDir)
	var stats ReplayStats

	for _, gen := range gens {
		r, ok := ss.reader(gen)
		if !ok {
			return nil, stats, ioError("replay "+SegmentFileName(gen), errors.New("segment not open"))
		}

		n, err := replaySegment(gen, r, keyDir, &stats)
		if err != nil {
			return nil, stats, err
		}

		stats.Generations++
		stats.Bytes += n
	}

	return keyDir, stats, nil
}

// replaySegment applies the records of one segment to keyDir in file order
// and returns the offset just past the last record.
func replaySegment(gen GenerationID, r *segmentReader, keyDir KeyDir, stats *ReplayStats) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, ioError("seek "+SegmentFileName(gen), err)
	}

	dec := record.NewDecoder(r)
	var offset int64

	for {
		rec, start, end, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				return offset, nil
			}
			if errors.Is(err, record.ErrMalformed) {
				return offset, corruptionError(gen, err)
			}
			return offset, ioError("read "+SegmentFileName(gen), err)
		}

		stats.Records++

		switch rec.Op {
		case record.OpSet:
			keyDir[rec.Key] = ValueLocation{
				Generation: gen,
				Offset:     start,
				Length:     end - start,
			}
		case record.OpRemove:
			// The Set may live in an earlier generation or not exist at all
			delete(keyDir, rec.Key)
			stats.Tombstones++
		}

		offset = end
	}
}
