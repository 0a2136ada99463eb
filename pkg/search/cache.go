package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/glorpus-work/cmipget/internal/logger"
	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/fsutil"
	"github.com/glorpus-work/cmipget/pkg/model"
)

// CacheFormatVersion is the current on-disk cache format version. Entries
// written by an incompatible future format are ignored, not misread.
const CacheFormatVersion = "1.0"

var cacheFormatConstraint = version.MustConstraints(version.NewConstraint(">= 1.0, < 2.0"))

// Cache is an explicit, file-backed store of search results keyed by the
// canonical query. It is passed to the client rather than hidden behind
// process-global memoization so tests and callers stay in control.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates a cache rooted at dir with the given time-to-live.
func NewCache(dir string, ttl time.Duration) *Cache {
	return &Cache{dir: dir, ttl: ttl}
}

type cacheEnvelope struct {
	FormatVersion string         `json:"format_version"`
	CreatedAt     time.Time      `json:"created_at"`
	Query         string         `json:"query"`
	Records       []model.Record `json:"records"`
}

// Get returns the cached records for a query, or false on any kind of miss
// (absent, expired, unreadable, incompatible format).
func (c *Cache) Get(query Query) ([]model.Record, bool) {
	data, err := os.ReadFile(c.entryPath(query))
	if err != nil {
		return nil, false
	}
	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Warnf("could not parse search cache entry, ignoring: %v", err)
		return nil, false
	}
	if !c.formatCompatible(env.FormatVersion) {
		logger.Warnf("search cache entry has %v: %s", pkgerrors.ErrCacheFormat, env.FormatVersion)
		return nil, false
	}
	if time.Since(env.CreatedAt) >= c.ttl {
		logger.Debugf("%v for %s", pkgerrors.ErrCacheExpired, env.Query)
		return nil, false
	}
	return env.Records, true
}

// Put stores the records for a query.
func (c *Cache) Put(query Query, records []model.Record) error {
	env := cacheEnvelope{
		FormatVersion: CacheFormatVersion,
		CreatedAt:     time.Now(),
		Query:         query.Canonical(),
		Records:       records,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return pkgerrors.Wrap(err, "could not encode cache entry")
	}
	path := c.entryPath(query)
	if err := fsutil.EnsurePrivateFileDir(path); err != nil {
		return pkgerrors.Wrap(err, "could not create cache dir")
	}
	return os.WriteFile(path, data, fsutil.FileModeDefault)
}

// Clean removes every cached search result.
func (c *Cache) Clean() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "search-") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Info reports the number of cached entries and their total size in bytes.
func (c *Cache) Info() (int, int64, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	var count int
	var size int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "search-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}

func (c *Cache) formatCompatible(v string) bool {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return false
	}
	return cacheFormatConstraint.Check(parsed)
}

func (c *Cache) entryPath(query Query) string {
	sum := sha256.Sum256([]byte(query.Canonical()))
	return filepath.Join(c.dir, "search-"+hex.EncodeToString(sum[:16])+".json")
}
