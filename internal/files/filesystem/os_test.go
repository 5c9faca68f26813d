package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_ReadFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "tblmodel.csv")
	require.NoError(t, os.WriteFile(filePath, []byte("idtblmodel,name\n1,HadGEM\n"), 0644))

	data, err := NewOSFileSystem().ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "idtblmodel,name\n1,HadGEM\n", string(data))
}

func TestOSFileSystem_Missing(t *testing.T) {
	p := NewOSFileSystem()
	missing := filepath.Join(t.TempDir(), "missing.csv")

	_, err := p.ReadFile(missing)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), missing)

	_, err = p.Stat(missing)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOSFileSystem_Stat(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(filePath, []byte("hello"), 0644))

	info, err := NewOSFileSystem().Stat(filePath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, int64(5), info.Size())

	info, err = NewOSFileSystem().Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
