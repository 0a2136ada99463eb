package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T) (src, dst string)
		expectError bool
	}{
		{
			name: "moves file to existing directory",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				src := filepath.Join(dir, "src.nc")
				require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
				return src, filepath.Join(dir, "dst.nc")
			},
		},
		{
			name: "creates destination directories",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				src := filepath.Join(dir, "src.nc")
				require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))
				return src, filepath.Join(dir, "a", "b", "c", "dst.nc")
			},
		},
		{
			name: "fails on missing source",
			setup: func(t *testing.T) (string, string) {
				dir := t.TempDir()
				return filepath.Join(dir, "missing.nc"), filepath.Join(dir, "dst.nc")
			},
			expectError: true,
		},
		{
			name: "fails on empty paths",
			setup: func(t *testing.T) (string, string) {
				return "", ""
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := tt.setup(t)
			err := Move(src, dst)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoFileExists(t, src)
			data, err := os.ReadFile(dst)
			require.NoError(t, err)
			assert.Equal(t, []byte("payload"), data)
		})
	}
}

func TestEnsureDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "parent", "child")
	require.NoError(t, EnsureDir(nested))
	assert.DirExists(t, nested)

	// Already existing directory is fine.
	require.NoError(t, EnsureDir(nested))
}

func TestEnsureFileDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "deep", "tree", "file.nc")
	require.NoError(t, EnsureFileDir(file))
	assert.DirExists(t, filepath.Dir(file))
}

func TestEnsurePrivateFileDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cache", "entry.json")
	require.NoError(t, EnsurePrivateFileDir(file))

	info, err := os.Stat(filepath.Dir(file))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DirModePrivate), info.Mode().Perm())
}
