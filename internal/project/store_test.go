package project

import (
	"os"
	"path/filepath"
	"testing"

	"harp/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "projects"))
	require.NoError(t, err)
	return s
}

func TestStore_AddIdempotent(t *testing.T) {
	s := newTestStore(t)

	projects, err := s.Add("My Project")
	require.NoError(t, err)
	assert.Equal(t, []string{"My Project"}, projects)

	// Adding the same name again must not duplicate the entry.
	projects, err = s.Add("My Project")
	require.NoError(t, err)
	assert.Equal(t, []string{"My Project"}, projects)
}

func TestStore_AddSanitizes(t *testing.T) {
	s := newTestStore(t)

	projects, err := s.Add("ark-of-the-covenant")
	require.NoError(t, err)
	assert.Contains(t, projects, "arkofthecovenant")
}

func TestStore_AddInvalidName(t *testing.T) {
	s := newTestStore(t)

	var invalid *schema.InvalidNameError
	_, err := s.Add("###")
	assert.ErrorAs(t, err, &invalid)

	projects, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, projects, "rejected add must not mutate anything")
}

func TestStore_DeleteUnknownIsNoop(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Add("keeper")
	require.NoError(t, err)

	projects, err := s.Delete("ghost")
	require.NoError(t, err)
	assert.Equal(t, []string{"keeper"}, projects)
}

func TestStore_DeleteRemovesRecursively(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "projects")
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.Add("deep")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "deep", "nested"), 0755))

	projects, err := s.Delete("deep")
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestStore_ListIgnoresFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "projects")
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644))

	projects, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, projects)
}
