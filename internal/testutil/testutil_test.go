package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(CreateTempDir(t), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(filepath.Join(dir, "missing")))
}

func TestWriteCorruptImage(t *testing.T) {
	p := filepath.Join(CreateTempDir(t), "sub", "bad.png")
	WriteCorruptImage(t, p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
