// Package nodes implements the mirror liveness oracle: it fetches the
// federation's node-status map and caches it on disk with a short TTL.
// Unknown mirrors are defensively treated as unreachable.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/cmipget/internal/logger"
	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/fsutil"
)

// DefaultTTL is how long a cached status map stays fresh.
const DefaultTTL = 10 * time.Minute

// Status maps mirror identifiers to a reachability flag.
type Status map[string]bool

// Reachable reports whether a mirror is up. Mirrors absent from the map are
// unreachable; the ambiguity is logged.
func (s Status) Reachable(mirror string) bool {
	up, known := s[mirror]
	if !known {
		logger.Debugf("mirror %s not part of the node status map, treating as unreachable", mirror)
	}
	return up
}

// Client fetches the node-status map from a status endpoint with a file-backed
// TTL cache.
type Client struct {
	client    *http.Client
	statusURL string
	cacheFile string
	ttl       time.Duration
}

// NewClient creates a node-status client. cacheFile may be empty to disable
// caching.
func NewClient(statusURL, cacheFile string, timeout time.Duration, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{
		client:    &http.Client{Timeout: timeout},
		statusURL: statusURL,
		cacheFile: cacheFile,
		ttl:       ttl,
	}
}

// Fetch returns the current node-status map, from cache when fresh.
func (c *Client) Fetch(ctx context.Context) (Status, error) {
	if status, ok := c.loadCache(); ok {
		return status, nil
	}
	status, err := c.fetchRemote(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(status)
	return status, nil
}

func (c *Client) loadCache() (Status, bool) {
	if c.cacheFile == "" {
		return nil, false
	}
	info, err := os.Stat(c.cacheFile)
	if err != nil || time.Since(info.ModTime()) >= c.ttl {
		return nil, false
	}
	data, err := os.ReadFile(c.cacheFile)
	if err != nil {
		logger.Warnf("could not read node status cache, fetching again: %v", err)
		return nil, false
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		logger.Warnf("could not parse node status cache, fetching again: %v", err)
		return nil, false
	}
	return status, true
}

func (c *Client) writeCache(status Status) {
	if c.cacheFile == "" {
		return
	}
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := fsutil.EnsurePrivateFileDir(c.cacheFile); err != nil {
		logger.Warnf("could not create node status cache dir: %v", err)
		return
	}
	if err := os.WriteFile(c.cacheFile, data, fsutil.FileModeDefault); err != nil {
		logger.Warnf("could not write node status cache: %v", err)
	}
}

func (c *Client) fetchRemote(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrNodeStatusFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s: %w", resp.StatusCode, c.statusURL, pkgerrors.ErrNodeStatusFetch)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrNodeStatusFetch, err)
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrNodeStatusFetch, err)
	}
	logger.Debugf("fetched status for %d federation nodes", len(status))
	return status, nil
}

// DefaultCacheFile returns the node-status cache path below cacheDir.
func DefaultCacheFile(cacheDir string) string {
	return filepath.Join(cacheDir, "node-status.json")
}
