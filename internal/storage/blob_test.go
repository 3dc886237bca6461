package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStoreSaveDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBlobStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	require.NoError(t, s.Save("a.png", []byte("png-bytes")))
	data, err := os.ReadFile(filepath.Join(s.Dir(), "a.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	s.Delete("a.png")
	_, err = os.Stat(filepath.Join(s.Dir(), "a.png"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing blob is a no-op.
	s.Delete("a.png")
}

func TestBlobStoreFlattensPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBlobStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	require.NoError(t, s.Save("../escape.png", []byte("x")))
	_, err = os.Stat(filepath.Join(s.Dir(), "escape.png"))
	assert.NoError(t, err, "path components outside the dir are stripped")
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.True(t, os.IsNotExist(err))
}
