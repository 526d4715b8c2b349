package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Op identifies the kind of a log record.
type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "rm"
)

// ErrMalformed is returned for bytes that do not decode as a valid record.
var ErrMalformed = errors.New("malformed record")

// LogRecord is a single entry of a segment file. A record is either a Set,
// carrying the key's new value, or a Remove tombstone with no value.
//
// Records are stored as JSON objects written back to back with no separator:
//
//	{"op":"set","key":"a","value":"1","crc":N}{"op":"rm","key":"a","crc":M}
//
// JSON is self-delimiting, so a segment can be replayed without any length
// prefix and the decoder reports where each record ends.
type LogRecord struct {
	Op    Op     `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	CRC   uint32 `json:"crc"` // Checksum of Key and Value
}

func NewSet(key, value string) LogRecord {
	return LogRecord{
		Op:    OpSet,
		Key:   key,
		Value: value,
		CRC:   CalculateCRC(key, value),
	}
}

func NewRemove(key string) LogRecord {
	return LogRecord{
		Op:  OpRemove,
		Key: key,
		CRC: CalculateCRC(key, ""),
	}
}

// IsTombstone reports whether the record marks its key as removed.
func (r LogRecord) IsTombstone() bool {
	return r.Op == OpRemove
}

func (r LogRecord) validate() error {
	if !utf8.ValidString(r.Key) || !utf8.ValidString(r.Value) {
		return fmt.Errorf("%w: key and value must be valid UTF-8", ErrMalformed)
	}

	switch r.Op {
	case OpSet:
	case OpRemove:
		if r.Value != "" {
			return fmt.Errorf("%w: tombstone for %q carries a value", ErrMalformed, r.Key)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrMalformed, r.Op)
	}

	if !ValidateCRC(r.Key, r.Value, r.CRC) {
		return fmt.Errorf("%w: checksum mismatch for key %q", ErrMalformed, r.Key)
	}

	return nil
}

// Encode serializes a record into its on-disk form.
func Encode(r LogRecord) ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// Decode reads one record from the front of data and returns it together with
// the number of bytes it occupied.
func Decode(data []byte) (LogRecord, int64, error) {
	dec := NewDecoder(bytes.NewReader(data))

	r, _, end, err := dec.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return LogRecord{}, 0, fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)
		}
		return LogRecord{}, 0, err
	}

	return r, end, nil
}

// Decoder reads consecutive records from a stream.
type Decoder struct {
	dec *json.Decoder
	off int64
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next decodes the next record. start is the offset the record begins at,
// relative to the beginning of the stream, and end is the offset right after
// its last byte. Next returns io.EOF once the stream is exhausted on a record
// boundary; a record cut short by the end of the stream is ErrMalformed.
func (d *Decoder) Next() (r LogRecord, start, end int64, err error) {
	start = d.off

	if err := d.dec.Decode(&r); err != nil {
		if err == io.EOF {
			return LogRecord{}, start, start, io.EOF
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return LogRecord{}, start, start, fmt.Errorf("%w at offset %d: %w", ErrMalformed, start, err)
		}

		return LogRecord{}, start, start, err
	}

	if err := r.validate(); err != nil {
		return LogRecord{}, start, start, fmt.Errorf("at offset %d: %w", start, err)
	}

	d.off = d.dec.InputOffset()
	return r, start, d.off, nil
}
