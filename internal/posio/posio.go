// Package posio provides buffered readers and writers that keep track of
// their byte offset in the underlying stream.
//
// Every Read, Write and Seek updates the tracked position as a side effect,
// so callers never need to ask the file for its offset.
package posio

import (
	"bufio"
	"io"
)

// Reader is a buffered reader over a seekable stream that tracks its
// current offset.
type Reader struct {
	src io.ReadSeeker
	buf *bufio.Reader
	pos int64
}

// NewReader wraps rs. The starting position is taken from the stream itself,
// so a handle that has already been advanced is tracked correctly.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &Reader{
		src: rs,
		buf: bufio.NewReader(rs),
		pos: pos,
	}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.buf.Read(p)
	r.pos += int64(n)
	return n, err
}

// Seek moves the underlying stream and drops anything left in the buffer.
//
// Relative seeks are resolved against the tracked position rather than the
// stream's own offset, which runs ahead of it by whatever is buffered.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset += r.pos
		whence = io.SeekStart
	}

	pos, err := r.src.Seek(offset, whence)
	if err != nil {
		return r.pos, err
	}

	r.buf.Reset(r.src)
	r.pos = pos
	return pos, nil
}

// Pos returns the offset of the next byte Read will return.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Writer is a buffered writer over a seekable stream that tracks its
// current offset.
type Writer struct {
	dst io.WriteSeeker
	buf *bufio.Writer
	pos int64
}

// NewWriter wraps ws, starting from the stream's current offset.
func NewWriter(ws io.WriteSeeker) (*Writer, error) {
	pos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &Writer{
		dst: ws,
		buf: bufio.NewWriter(ws),
		pos: pos,
	}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.pos += int64(n)
	return n, err
}

// Flush pushes buffered bytes to the underlying stream.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Seek flushes pending bytes and then moves the underlying stream.
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	if err := w.buf.Flush(); err != nil {
		return w.pos, err
	}

	pos, err := w.dst.Seek(offset, whence)
	if err != nil {
		return w.pos, err
	}

	w.pos = pos
	return pos, nil
}

// Pos returns the offset the next Write will land at.
func (w *Writer) Pos() int64 {
	return w.pos
}
