package posio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderTracksPosition(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("hello world")))
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Pos())

	buf := make([]byte, 5)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
	assert.Equal(t, int64(5), r.Pos())

	pos, err := r.Seek(6, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "world", string(rest))
	assert.Equal(t, int64(11), r.Pos())
}

func TestReaderSeekCurrentUsesTrackedPosition(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("abcdefghij")))
	require.NoError(t, err)

	// the first read fills the buffer past the tracked offset
	one := make([]byte, 1)
	_, err = r.Read(one)
	require.NoError(t, err)

	pos, err := r.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)

	_, err = r.Read(one)
	require.NoError(t, err)
	assert.Equal(t, "d", string(one))
}

func TestReaderStartsAtStreamOffset(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	_, err := src.Seek(4, io.SeekStart)
	require.NoError(t, err)

	r, err := NewReader(src)
	require.NoError(t, err)
	assert.Equal(t, int64(4), r.Pos())
}

func TestWriterTracksPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(f)
	require.NoError(t, err)

	n, err := w.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), w.Pos())

	_, err = w.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.Pos())

	// nothing reaches the file until Flush
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())

	require.NoError(t, w.Flush())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefg", string(data))
}

func TestWriterSeekFlushesFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter(f)
	require.NoError(t, err)

	_, err = w.Write([]byte("xxxx"))
	require.NoError(t, err)

	pos, err := w.Seek(1, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)

	_, err = w.Write([]byte("y"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	assert.Equal(t, int64(2), w.Pos())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xyxx", string(data))
}

func TestWriterStartsAtEndOfExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))

	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	w, err := NewWriter(f)
	require.NoError(t, err)
	assert.Equal(t, int64(5), w.Pos())
}
