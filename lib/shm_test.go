//go:build linux

package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShmFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestShmSource_ReadsWrittenFrame(t *testing.T) {
	const w, h = 4, 2
	path := newShmFile(t, w*h*BytesPerPixel)

	src, err := OpenShmSource(path, w, h)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, w*h*BytesPerPixel, src.Size())

	frame := make([]byte, w*h*BytesPerPixel)
	for i := range frame {
		frame[i] = byte(i)
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(frame, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, src.Wait())
	m, stamp, err := CopyFrame(src)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, frame, m.ToBytes())
	assert.False(t, stamp.IsZero())
}

func TestShmSource_ShortFile(t *testing.T) {
	path := newShmFile(t, 10)
	_, err := OpenShmSource(path, 4, 2)
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestShmSource_Missing(t *testing.T) {
	_, err := OpenShmSource(filepath.Join(t.TempDir(), "nope"), 4, 2)
	assert.Error(t, err)
}
