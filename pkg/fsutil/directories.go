// Package fsutil provides filesystem helpers shared by the download and cache layers.
package fsutil

import (
	"os"
	"path/filepath"
)

// EnsureDir creates a directory and all necessary parent directories with
// default permissions if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of a file path if it doesn't exist.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// EnsurePrivateDir creates a directory readable only by the owning user. Used
// for on-disk caches.
func EnsurePrivateDir(path string) error {
	return os.MkdirAll(path, DirModePrivate)
}

// EnsurePrivateFileDir creates the private parent directory of a file path.
func EnsurePrivateFileDir(filePath string) error {
	return EnsurePrivateDir(filepath.Dir(filePath))
}
