package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/cmipget/internal/logger"
	"github.com/glorpus-work/cmipget/pkg/dataset"
	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/hooks"
	"github.com/glorpus-work/cmipget/pkg/search"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Find searches the federation and reconciles the results into downloadable
// datasets, applying the requested span and mirror filters.
func (o *Orchestrator) Find(ctx context.Context, query search.Query, opts FindOptions) ([]dataset.Dataset, error) {
	if o.Search == nil {
		return nil, fmt.Errorf("search provider is not configured")
	}

	emit(o.Hooks, Event{Phase: "searching", Msg: query.Canonical()})
	records, err := o.Search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "reconciling", Msg: fmt.Sprintf("%d records", len(records))})
	datasets, err := dataset.FromRecords(records)
	if err != nil {
		return nil, err
	}

	if opts.SpanStart != 0 || opts.SpanEnd != 0 {
		datasets, err = filterSpan(datasets, opts.SpanStart, opts.SpanEnd)
		if err != nil {
			return nil, err
		}
	}

	if !opts.FilterNodes {
		logger.Warnf("not filtering unreachable mirrors, downloads may stall on dead nodes")
		return datasets, nil
	}
	return o.filterMirrors(ctx, datasets)
}

// Fetch searches, reconciles and downloads one self-consistent copy of every
// matching dataset. It returns the local paths per dataset name. Datasets
// that fail are reported together after the rest have been attempted.
func (o *Orchestrator) Fetch(ctx context.Context, query search.Query, opts FetchOptions) (map[string][]string, error) {
	if o.DL == nil {
		return nil, fmt.Errorf("download manager is not configured")
	}

	datasets, err := o.Find(ctx, query, opts.FindOptions)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		for _, ds := range datasets {
			emit(o.Hooks, Event{Phase: "reconciling", ID: ds.Name, Msg: fmt.Sprintf("%d files, %d keys", len(ds.Files), len(ds.CommonKeys))})
		}
		emit(o.Hooks, Event{Phase: "done", Msg: "dry-run"})
		return nil, nil
	}

	fetched := make(map[string][]string, len(datasets))
	var failures []error
	for _, ds := range datasets {
		emit(o.Hooks, Event{Phase: "downloading", ID: ds.Name})
		paths, err := o.fetchDataset(ctx, ds, opts)
		if err != nil {
			emit(o.Hooks, Event{Phase: "error", ID: ds.Name, Msg: err.Error()})
			failures = append(failures, err)
			continue
		}
		fetched[ds.Name] = paths
	}
	if len(failures) > 0 {
		return fetched, fmt.Errorf("%w: %d of %d datasets failed: %w",
			pkgerrors.ErrDownloadFailed, len(failures), len(datasets), errors.Join(failures...))
	}
	emit(o.Hooks, Event{Phase: "done"})
	return fetched, nil
}

func (o *Orchestrator) fetchDataset(ctx context.Context, ds dataset.Dataset, opts FetchOptions) ([]string, error) {
	if err := o.runHook(hooks.PreDownload, hooks.HookContext{DatasetName: ds.Name}); err != nil {
		return nil, err
	}

	paths, err := ds.Download(ctx, o.DL, dataset.DownloadOptions{Dir: opts.DestDir, Concurrency: opts.Concurrency})
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		hctx := hooks.HookContext{DatasetName: ds.Name, FileName: filepath.Base(path), LocalPath: path}
		if err := o.runHook(hooks.PostDownload, hctx); err != nil {
			return nil, err
		}
	}
	if err := o.runHook(hooks.PostDataset, hooks.HookContext{DatasetName: ds.Name, LocalPath: opts.DestDir}); err != nil {
		return nil, err
	}
	return paths, nil
}

func (o *Orchestrator) runHook(hookType hooks.HookType, ctx hooks.HookContext) error {
	if o.Runner == nil {
		return nil
	}
	return o.Runner.Execute(hookType, ctx)
}

func filterSpan(datasets []dataset.Dataset, startYear, endYear int) ([]dataset.Dataset, error) {
	kept := make([]dataset.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		filtered, err := ds.FilterSpan(startYear, endYear)
		if err != nil {
			return nil, err
		}
		if filtered != nil {
			kept = append(kept, *filtered)
		}
	}
	return kept, nil
}

func (o *Orchestrator) filterMirrors(ctx context.Context, datasets []dataset.Dataset) ([]dataset.Dataset, error) {
	if o.Nodes == nil {
		return nil, fmt.Errorf("node status provider is not configured")
	}
	status, err := o.Nodes.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]dataset.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		filtered, err := ds.FilterMirrors(status)
		if err != nil {
			return nil, err
		}
		if filtered != nil {
			kept = append(kept, *filtered)
		}
	}
	return kept, nil
}

// New constructs a default Orchestrator from existing collaborators. Helper
// for wiring. Runner may be nil if no lifecycle hooks are needed.
func New(sp SearchProvider, np NodeStatusProvider, dl Downloader, runner HookRunner, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Search: sp,
		Nodes:  np,
		DL:     dl,
		Runner: runner,
		Hooks:  hooks,
	}
}
