//go:generate mockgen -destination=./mocks/orchestrator.go . SearchProvider,NodeStatusProvider,Downloader,HookRunner

package orchestrator

import (
	"context"

	"github.com/glorpus-work/cmipget/pkg/download"
	"github.com/glorpus-work/cmipget/pkg/hooks"
	"github.com/glorpus-work/cmipget/pkg/model"
	"github.com/glorpus-work/cmipget/pkg/nodes"
	"github.com/glorpus-work/cmipget/pkg/search"
)

// SearchProvider is the subset of the search client used by the orchestrator.
type SearchProvider interface {
	Search(ctx context.Context, query search.Query) ([]model.Record, error)
}

// NodeStatusProvider supplies the federation's mirror reachability map.
type NodeStatusProvider interface {
	Fetch(ctx context.Context) (nodes.Status, error)
}

// Downloader handles verified file transfers.
type Downloader interface {
	FetchAll(ctx context.Context, items []download.Item, opts download.Options) (map[string]download.Result, error)
}

// HookRunner executes user-supplied lifecycle scripts.
type HookRunner interface {
	Execute(hookType hooks.HookType, ctx hooks.HookContext) error
}

// Orchestrator ties search, node status, download and hooks together for
// fetches.
type Orchestrator struct {
	Search SearchProvider
	Nodes  NodeStatusProvider
	DL     Downloader
	Runner HookRunner
	Hooks  Hooks // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // searching|reconciling|downloading|done|error
	ID    string // dataset name
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// FindOptions control dataset reconciliation and filtering.
type FindOptions struct {
	// SpanStart and SpanEnd restrict datasets to files overlapping the
	// year span [SpanStart, SpanEnd). A zero bound leaves that side open;
	// both zero disables the filter.
	SpanStart int
	SpanEnd   int

	// FilterNodes drops replicas hosted on unreachable mirrors before
	// downloading.
	FilterNodes bool
}

// FetchOptions control orchestrator fetch execution.
type FetchOptions struct {
	FindOptions

	DestDir     string // destination root. Must be absolute.
	Concurrency int
	DryRun      bool
}
