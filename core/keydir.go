package core

// GenerationID identifies one segment file. Higher ids hold newer records.
type GenerationID uint64

// ValueLocation is the in-memory index entry for a single key.
//
// It points at the exact byte range of the key's most recent Set record.
// Older versions may still exist in earlier segments but are unreachable.
type ValueLocation struct {
	Generation GenerationID // Segment containing the record
	Offset     int64        // Byte offset in the segment where the record starts
	Length     int64        // Size of the encoded record in bytes
}

// KeyDir is the in-memory index mapping keys to their latest on-disk records.
//
// It is never persisted. Open rebuilds it by replaying every segment in
// generation order.
type KeyDir map[string]ValueLocation
