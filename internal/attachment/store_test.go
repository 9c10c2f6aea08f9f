package attachment

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndRemove(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, err := s.Save("photo.png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)

	require.NoError(t, s.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Remove("/nonexistent/upload"))
}

func TestStore_ConcurrentSavesDoNotCollide(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Save("same.bin", []byte("one"))
	require.NoError(t, err)
	b, err := s.Save("same.bin", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStore_SaveSanitizesFilename(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, err := s.Save("../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(path, ".."))

	// A name that sanitizes to nothing still stores under a generic name.
	path, err = s.Save("!!!", []byte("y"))
	require.NoError(t, err)
	assert.Contains(t, path, "upload")
}
