// Package core implements a log-structured key-value store.
//
// Every mutation is appended to the newest segment file in the store
// directory. Segment files are named "<generation>.log" and are never
// rewritten once a newer generation exists. An in-memory index (the KeyDir)
// maps each live key to the byte range of its latest Set record:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  Write:  Set/Remove → encode → append to active segment      │
//	│          → flush → update KeyDir                             │
//	│  Read:   KeyDir lookup → seek reader of that generation      │
//	│          → read exactly Length bytes → decode                │
//	│  Open:   list segments → replay in generation order          │
//	│          → start a new, empty generation for writes          │
//	└──────────────────────────────────────────────────────────────┘
//
// The index is never persisted. It is rebuilt on every Open, which makes the
// log the only source of truth: a crashed process loses nothing that a
// completed Set or Remove had flushed. Flushing hands data to the operating
// system; use WithSyncOnWrite to survive power loss as well.
//
// Segments are not compacted. Each Open adds one segment and RotateSegment
// adds another; stale records stay on disk.
package core
