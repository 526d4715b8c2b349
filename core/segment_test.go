package core

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegmentFileName(t *testing.T) {
	tests := []struct {
		name string
		gen  GenerationID
		ok   bool
	}{
		{"1.log", 1, true},
		{"42.log", 42, true},
		{"18446744073709551615.log", 18446744073709551615, true},
		{"0.log", 0, true},
		{"07.log", 0, false},
		{"+7.log", 0, false},
		{"-1.log", 0, false},
		{".log", 0, false},
		{"1.log.tmp", 0, false},
		{"1.LOG", 0, false},
		{"abc.log", 0, false},
		{"18446744073709551616.log", 0, false},
		{"LOCK", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, ok := parseSegmentFileName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.gen, gen)
		})
	}
}

func TestSegmentFileNameRoundTrip(t *testing.T) {
	for _, gen := range []GenerationID{1, 9, 10, 123456789} {
		parsed, ok := parseSegmentFileName(SegmentFileName(gen))
		require.True(t, ok)
		assert.Equal(t, gen, parsed)
	}
}

func TestListGenerations(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		gens, err := ListGenerations(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, gens)
	})

	t.Run("sorted numerically regardless of creation order", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"10.log", "2.log", "1.log", "notes.txt", "x.log"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
		}
		require.NoError(t, os.Mkdir(filepath.Join(dir, "3.log"), 0755))

		gens, err := ListGenerations(dir)
		require.NoError(t, err)
		assert.Equal(t, []GenerationID{1, 2, 10}, gens)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := ListGenerations(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNextGeneration(t *testing.T) {
	assert.Equal(t, FirstGeneration, nextGeneration(nil))
	assert.Equal(t, GenerationID(4), nextGeneration([]GenerationID{1, 3}))
	assert.Equal(t, GenerationID(8), nextGeneration([]GenerationID{7, 2, 5}))
}

func TestSegmentStoreOpenReaderMissing(t *testing.T) {
	ss := newSegmentStore(t.TempDir())
	defer ss.close()

	_, err := ss.openReader(5)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, ok := ss.reader(5)
	assert.False(t, ok)
}

func TestSegmentStoreWriterRegistersReader(t *testing.T) {
	dir := t.TempDir()
	ss := newSegmentStore(dir)
	defer ss.close()

	w, err := ss.createWriter(3)
	require.NoError(t, err)
	defer w.close()

	assert.Equal(t, int64(0), w.Pos())
	assert.Equal(t, []GenerationID{3}, ss.generations())

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	assert.Equal(t, int64(5), w.Pos())

	// the registered reader sees flushed bytes without reopening
	r, ok := ss.reader(3)
	require.True(t, ok)
	_, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSegmentStoreWriterAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2.log"), []byte("abc"), 0644))

	ss := newSegmentStore(dir)
	defer ss.close()

	w, err := ss.createWriter(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), w.Pos())

	_, err = w.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, w.close())

	data, err := os.ReadFile(filepath.Join(dir, "2.log"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))
}
