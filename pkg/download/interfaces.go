package download

import (
	"context"
	"net/url"

	"github.com/glorpus-work/cmipget/pkg/model"
)

// Manager defines the interface for transferring replicas with integrity
// verification. Batch fetches always run every item to completion so callers
// see the full per-item outcome of a candidate combination.
type Manager interface {
	// Fetch transfers a single item to opts.Dir/item.RelPath and returns
	// the absolute local file path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)

	// FetchAll transfers all items through a bounded worker pool and
	// returns a per-item Result keyed by Item.ID. The returned error
	// covers setup problems only; transfer failures are in the results.
	FetchAll(ctx context.Context, items []Item, opts Options) (map[string]Result, error)
}

// Item represents one remote replica to transfer.
type Item struct {
	ID       string         // stable identifier, unique within a batch
	URL      *url.URL       // source URL
	RelPath  string         // destination path relative to Options.Dir
	Size     int64          // advertised byte size, informational
	Checksum model.Checksum // optional; verified when an algorithm is advertised
}

// Options control the behavior of the download manager.
type Options struct {
	Dir         string // destination root. Must be absolute.
	Concurrency int    // parallel transfers within one batch; if <=0, one at a time
}

// Result is the outcome of one item in a batch.
type Result struct {
	Path string
	Err  error
}

// ValidateFunc reports whether the file at path is a structurally valid
// instance of the target scientific format. It is consulted only for files
// that already exist at the destination.
type ValidateFunc func(path string) bool
