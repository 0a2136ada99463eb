// Package archive bundles downloaded dataset trees into tar.gz files for
// transfer to machines without federation access, and restores them.
package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"

	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/fsutil"
)

// Bundler creates and restores dataset bundles.
type Bundler struct{}

// NewBundler creates a new Bundler instance.
func NewBundler() *Bundler {
	return &Bundler{}
}

// Create archives the dataset tree rooted at sourceDir into a tar.gz file at
// bundlePath. Paths inside the bundle are relative to sourceDir, so the tree
// can be restored below any destination root.
func (b *Bundler) Create(ctx context.Context, sourceDir, bundlePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to resolve source directory")
	}

	bundleFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read files from disk")
	}

	if err := fsutil.EnsureFileDir(bundlePath); err != nil {
		return pkgerrors.Wrap(err, "failed to create bundle directory")
	}
	file, err := os.Create(bundlePath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create bundle file %s", bundlePath)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, file, bundleFiles); err != nil {
		return pkgerrors.Wrap(err, "failed to write bundle")
	}
	return nil
}

// Restore extracts every file from a bundle below destDir.
func (b *Bundler) Restore(ctx context.Context, bundlePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, bundlePath, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open bundle %s", bundlePath)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return pkgerrors.Wrap(err, "failed to create destination directory")
	}

	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		targetPath := filepath.Join(destDir, path)
		if d.IsDir() {
			return os.MkdirAll(targetPath, fsutil.DirModeDefault)
		}
		return b.restoreFile(fsys, path, targetPath)
	})
}

func (b *Bundler) restoreFile(fsys fs.FS, path, targetPath string) error {
	srcFile, err := fsys.Open(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open bundled file %s", path)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return pkgerrors.Wrapf(err, "failed to create parent directory for %s", path)
	}
	dstFile, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", targetPath)
	}
	defer func() { _ = dstFile.Close() }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return pkgerrors.Wrapf(err, "failed to restore %s", path)
	}
	return nil
}
