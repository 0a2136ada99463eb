// Package download implements the verified transfer engine: streaming
// replicas to a private temporary directory with an incremental digest, and
// publishing them at the final path only after verification.
package download

import (
	"context"
	"crypto/md5"  //nolint:gosec // federation nodes advertise md5 digests
	"crypto/sha1" //nolint:gosec // federation nodes advertise sha1 digests
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glorpus-work/cmipget/internal/logger"
	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/fsutil"
)

// ManagerImpl is an HTTP-based download manager with checksum verification
// and an idempotent short-circuit for files already present and valid.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
	validate  ValidateFunc
}

// NewManager creates a download manager. validate decides whether a
// pre-existing local file can be trusted; nil trusts any existing file.
func NewManager(timeout time.Duration, userAgent string, validate ValidateFunc) *ManagerImpl {
	if userAgent == "" {
		userAgent = "cmipget/1.0"
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		validate:  validate,
	}
}

// Fetch downloads a single item and returns the absolute local path.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return "", fmt.Errorf("destination dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	return m.fetchOne(ctx, item, opts)
}

// FetchAll downloads all items through a bounded worker pool. A failing item
// never cancels its siblings: the whole batch runs to completion so the
// caller knows every error before deciding on the next combination.
func (m *ManagerImpl) FetchAll(ctx context.Context, items []Item, opts Options) (map[string]Result, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return nil, fmt.Errorf("destination dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	if err := fsutil.EnsureDir(opts.Dir); err != nil {
		return nil, pkgerrors.Wrap(err, "could not create destination dir")
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]Result, len(items))
	tasks := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				path, err := m.fetchOne(ctx, items[idx], opts)
				results[idx] = Result{Path: path, Err: err}
			}
		}()
	}
	for i := range items {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	out := make(map[string]Result, len(items))
	for i, item := range items {
		out[item.ID] = results[i]
	}
	return out, nil
}

func (m *ManagerImpl) fetchOne(ctx context.Context, item Item, opts Options) (string, error) {
	if item.URL == nil {
		return "", fmt.Errorf("item %s has no URL: %w", item.ID, pkgerrors.ErrDownloadFailed)
	}
	if item.RelPath == "" {
		return "", fmt.Errorf("item %s has no destination path: %w", item.ID, pkgerrors.ErrInvalidPath)
	}
	absPath := filepath.Join(opts.Dir, filepath.FromSlash(item.RelPath))

	// Idempotent short-circuit: a pre-existing valid file is returned
	// unchanged; a pre-existing invalid file is fatal and never fetched
	// over.
	if _, err := os.Stat(absPath); err == nil {
		if m.validate == nil || m.validate(absPath) {
			logger.Warnf("%s already exists and is valid, not downloading", absPath)
			return absPath, nil
		}
		return "", pkgerrors.Wrapf(pkgerrors.ErrLocalFileInvalid, "%s", absPath)
	}

	hasher, err := newHasher(item.Checksum.Algorithm)
	if err != nil {
		return "", err
	}
	if hasher == nil {
		logger.Warnf("no checksum available, unable to verify integrity of %s", item.URL)
	}

	tmpDir, err := os.MkdirTemp("", "cmipget-dl-*")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp dir")
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	start := time.Now()
	logger.Debugf("downloading %s from %s", item.ID, item.URL.Host)

	tmpPath, err := m.streamToTemp(ctx, item, tmpDir, hasher)
	if err != nil {
		return "", err
	}

	if hasher != nil {
		got := hex.EncodeToString(hasher.Sum(nil))
		want := strings.ToLower(strings.TrimSpace(item.Checksum.Digest))
		if got != want {
			return "", fmt.Errorf("wrong %s checksum for %s: expected %s, got %s: %w",
				item.Checksum.Algorithm, item.URL, want, got, pkgerrors.ErrChecksumMismatch)
		}
	}

	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return "", pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return "", pkgerrors.Wrap(err, "could not set permissions")
	}

	logger.Debugf("downloaded %s (%d bytes) in %s from %s", absPath, item.Size,
		time.Since(start).Round(time.Millisecond), item.URL.Host)
	return absPath, nil
}

// streamToTemp writes the response body to a temp file, feeding the hasher
// incrementally when one is present.
func (m *ManagerImpl) streamToTemp(ctx context.Context, item Item, tmpDir string, hasher hash.Hash) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s: %w", resp.StatusCode, item.URL, pkgerrors.ErrDownloadFailed)
	}

	tmp, err := os.CreateTemp(tmpDir, "dl-*.part")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	var dst io.Writer = tmp
	if hasher != nil {
		dst = io.MultiWriter(tmp, hasher)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: %w", pkgerrors.ErrDownloadFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

// newHasher maps an advertised checksum algorithm to a hash. An empty
// algorithm yields a nil hasher (unverifiable download); an unknown one is an
// error so corruption is never silently accepted.
func newHasher(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "":
		return nil, nil
	case "md5":
		return md5.New(), nil //nolint:gosec
	case "sha1":
		return sha1.New(), nil //nolint:gosec
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, pkgerrors.Wrapf(pkgerrors.ErrUnsupportedChecksum, "%q", algorithm)
	}
}
