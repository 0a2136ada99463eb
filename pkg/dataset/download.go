package dataset

import (
	"context"
	"fmt"
	"net/url"

	"github.com/glorpus-work/cmipget/internal/logger"
	"github.com/glorpus-work/cmipget/pkg/download"
	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
)

// Downloader is the transfer engine the failover loop drives. Implementations
// must run every item of a batch to completion and report per-item outcomes.
type Downloader interface {
	FetchAll(ctx context.Context, items []download.Item, opts download.Options) (map[string]download.Result, error)
}

// DownloadOptions control a dataset download.
type DownloadOptions struct {
	// Dir is the destination root. Must be absolute.
	Dir string
	// Concurrency bounds parallel transfers within one key combination.
	Concurrency int
}

// Download retrieves one self-consistent copy of the dataset. Replica-class
// keys are tried in priority order; for each key one replica per file is
// fetched concurrently, and only a combination with zero errors counts as
// success. Mixing keys across files is never acceptable, so a partially
// failed combination is abandoned as a whole and the next key is tried.
// When every key is exhausted the collected per-key diagnostics are returned
// as a *DownloadError.
func (d *Dataset) Download(ctx context.Context, dl Downloader, opts DownloadOptions) ([]string, error) {
	failure := &DownloadError{Dataset: d.Name}
	if len(d.CommonKeys) == 0 {
		return nil, failure
	}

	for _, key := range d.CommonKeys {
		replicas, err := d.Select(key)
		if err != nil {
			failure.Attempts = append(failure.Attempts, KeyErrors{Key: key, Errs: []error{err}})
			continue
		}
		items, err := replicaItems(replicas)
		if err != nil {
			failure.Attempts = append(failure.Attempts, KeyErrors{Key: key, Errs: []error{err}})
			continue
		}

		logger.Infof("attempting to download %s with key %s (%d files, %d parallel transfers)",
			d.Name, key, len(items), opts.Concurrency)

		results, err := dl.FetchAll(ctx, items, download.Options{Dir: opts.Dir, Concurrency: opts.Concurrency})
		if err != nil {
			failure.Attempts = append(failure.Attempts, KeyErrors{Key: key, Errs: []error{err}})
			continue
		}

		var errs []error
		paths := make([]string, 0, len(items))
		for _, item := range items {
			res := results[item.ID]
			if res.Err != nil {
				logger.Debugf("failed to download %s: %v", item.ID, res.Err)
				errs = append(errs, res.Err)
				continue
			}
			paths = append(paths, res.Path)
		}
		if len(errs) == 0 {
			logger.Infof("successfully downloaded %s with key %s", d.Name, key)
			return paths, nil
		}
		failure.Attempts = append(failure.Attempts, KeyErrors{Key: key, Errs: errs})
	}
	return nil, failure
}

// replicaItems converts the selected combination into download items.
func replicaItems(replicas []Replica) ([]download.Item, error) {
	items := make([]download.Item, 0, len(replicas))
	for _, r := range replicas {
		u, err := url.Parse(r.URL)
		if err != nil || u.Scheme == "" {
			return nil, fmt.Errorf("replica %s has unparseable URL %q: %w", r.ID(), r.URL, pkgerrors.ErrDownloadFailed)
		}
		items = append(items, download.Item{
			ID:       r.ID(),
			URL:      u,
			RelPath:  r.RelativePath(),
			Size:     r.Size,
			Checksum: r.Checksum,
		})
	}
	return items, nil
}
