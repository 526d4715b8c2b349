package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
)

func TestEncodeDecodeRecord(t *testing.T) {
	tests := []struct {
		name   string
		record LogRecord
	}{
		{"set", NewSet("language", "go")},
		{"set with empty value", NewSet("empty", "")},
		{"set with markup", NewSet("<k>", "a & b")},
		{"unicode", NewSet("emoji", "🚀🔥")},
		{"tombstone", NewRemove("language")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.record)
			if err != nil {
				t.Fatalf("unexpected encode error: %v", err)
			}

			decoded, n, err := Decode(encoded)
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if n != int64(len(encoded)) {
				t.Errorf("consumed %d bytes, want %d", n, len(encoded))
			}
			if decoded != tt.record {
				t.Errorf("decoded %+v, want %+v", decoded, tt.record)
			}
		})
	}
}

func TestDecodeReportsConsumedBytesOfFirstRecord(t *testing.T) {
	first, _ := Encode(NewSet("a", "1"))
	second, _ := Encode(NewRemove("a"))

	decoded, n, err := Decode(append(append([]byte{}, first...), second...))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if n != int64(len(first)) {
		t.Fatalf("consumed %d bytes, want %d", n, len(first))
	}
	if decoded.Key != "a" || decoded.Op != OpSet {
		t.Fatalf("unexpected record %+v", decoded)
	}
}

func TestDecodeErrorsOnTruncatedData(t *testing.T) {
	encoded, _ := Encode(NewSet("abc", "xy"))

	for i := 0; i < len(encoded); i++ {
		_, _, err := Decode(encoded[:i])
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed when decoding truncated data of length %d, got %v", i, err)
		}
	}
}

func TestDecodeRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json"},
		{"null", "null"},
		{"array", `[1,2]`},
		{"unknown op", `{"op":"put","key":"a","value":"1","crc":0}`},
		{"wrong crc", `{"op":"set","key":"a","value":"1","crc":1}`},
		{"tombstone with value", `{"op":"rm","key":"a","value":"1","crc":0}`},
		{"wrong field type", `{"op":"set","key":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode([]byte(tt.data)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	if _, err := Encode(NewSet("bad\xff", "v")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestEncodedLayout(t *testing.T) {
	encoded, err := Encode(NewRemove("k"))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		t.Fatalf("encoded record is not a JSON object: %v", err)
	}

	if fields["op"] != "rm" || fields["key"] != "k" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["value"]; ok {
		t.Fatalf("tombstone should not carry a value field: %s", encoded)
	}
	if bytes.HasSuffix(encoded, []byte("\n")) {
		t.Fatalf("records must not be newline terminated")
	}
}

func TestDecoderStream(t *testing.T) {
	records := []LogRecord{
		NewSet("a", "1"),
		NewSet("b", "2"),
		NewRemove("a"),
		NewSet("a", "3"),
	}

	var buf bytes.Buffer
	var ends []int64
	for _, r := range records {
		encoded, err := Encode(r)
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(encoded)
		ends = append(ends, int64(buf.Len()))
	}

	dec := NewDecoder(&buf)
	var prevEnd int64
	for i, want := range records {
		got, start, end, err := dec.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got != want {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
		if start != prevEnd {
			t.Errorf("record %d: start %d, want %d", i, start, prevEnd)
		}
		if end != ends[i] {
			t.Errorf("record %d: end %d, want %d", i, end, ends[i])
		}
		prevEnd = end
	}

	if _, _, _, err := dec.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last record, got %v", err)
	}
}

func TestDecoderStreamTruncatedTail(t *testing.T) {
	first, _ := Encode(NewSet("a", "1"))
	second, _ := Encode(NewSet("b", "2"))

	data := append(append([]byte{}, first...), second[:len(second)-3]...)
	dec := NewDecoder(bytes.NewReader(data))

	if _, _, _, err := dec.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}

	_, start, _, err := dec.Next()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if start != int64(len(first)) {
		t.Fatalf("failing record starts at %d, want %d", start, len(first))
	}
}
