package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.hcl", "a.hcl", "notes.txt", "sub/c.hcl", "sub/deeper/d.hcl")

	t.Run("directory in lexical order", func(t *testing.T) {
		files, err := FindFilesByExtension(".hcl", dir)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.hcl"),
			filepath.Join(dir, "b.hcl"),
			filepath.Join(dir, "sub", "c.hcl"),
			filepath.Join(dir, "sub", "deeper", "d.hcl"),
		}, files)
	})

	t.Run("single file and overlapping roots", func(t *testing.T) {
		files, err := FindFilesByExtension(".hcl", filepath.Join(dir, "b.hcl"), filepath.Join(dir, "sub"), filepath.Join(dir, "sub", "c.hcl"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "b.hcl"),
			filepath.Join(dir, "sub", "c.hcl"),
			filepath.Join(dir, "sub", "deeper", "d.hcl"),
		}, files)
	})

	t.Run("file with another extension", func(t *testing.T) {
		files, err := FindFilesByExtension(".hcl", filepath.Join(dir, "notes.txt"))
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := FindFilesByExtension(".hcl", filepath.Join(dir, "missing"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("empty extension", func(t *testing.T) {
		_, err := FindFilesByExtension("", dir)
		assert.Error(t, err)
	})
}
