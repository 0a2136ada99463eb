package dataset

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/glorpus-work/cmipget/internal/logger"
	"github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/model"
)

// Dataset is the unit a user downloads: all logical files sharing the same
// non-temporal facets, plus the replica-class keys available in every one of
// them. Datasets are never mutated in place; filtering operations return new
// instances.
type Dataset struct {
	SourceID     string
	ExperimentID string
	MemberID     string
	Variable     string

	// Start and End span the min/max coverage across Files.
	Start time.Time
	End   time.Time

	Name  string
	Files []File

	// CommonKeys is the exact intersection of every file's key set, in
	// fixed priority order. Empty means the dataset cannot be downloaded
	// consistently; construction still succeeds.
	CommonKeys []model.ReplicaKey
}

// NewDatasets groups logical files into datasets by their non-temporal facets.
func NewDatasets(files []File) ([]Dataset, error) {
	var datasets []Dataset
	for _, group := range groupConsecutive(files, func(f File) string {
		return datasetKey(f.Name)
	}) {
		logger.Debugf("creating dataset %s from %d files", datasetKey(group[0].Name), len(group))
		ds, err := newDataset(group)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, nil
}

// FromRecords reconciles raw search records all the way to datasets.
func FromRecords(records []model.Record) ([]Dataset, error) {
	if len(records) == 0 {
		return nil, errors.ErrNoRecords
	}
	files, err := NewFiles(records)
	if err != nil {
		return nil, err
	}
	return NewDatasets(files)
}

func newDataset(files []File) (*Dataset, error) {
	first := files[0]
	start, end := first.Start, first.End
	for _, f := range files[1:] {
		if f.Start.Before(start) {
			start = f.Start
		}
		if f.End.After(end) {
			end = f.End
		}
	}

	common, err := intersectKeys(files)
	if err != nil {
		return nil, err
	}

	name := strings.Join([]string{
		first.SourceID, first.ExperimentID, first.MemberID, first.Variable,
		model.FormatFileDate(start) + "-" + model.FormatFileDate(end),
	}, "_")

	return &Dataset{
		SourceID:     first.SourceID,
		ExperimentID: first.ExperimentID,
		MemberID:     first.MemberID,
		Variable:     first.Variable,
		Start:        start,
		End:          end,
		Name:         name,
		Files:        files,
		CommonKeys:   common,
	}, nil
}

// intersectKeys computes the replica-class keys present in every file and
// sorts them by the composite priority ordering, resolving version recency
// against the stamps present in the intersection itself. Once the running
// intersection is empty it stays empty.
func intersectKeys(files []File) ([]model.ReplicaKey, error) {
	common := make(map[model.ReplicaKey]struct{}, len(files[0].Keys))
	for _, k := range files[0].Keys {
		common[k] = struct{}{}
	}
	for _, f := range files[1:] {
		if len(common) == 0 {
			break
		}
		inFile := make(map[model.ReplicaKey]struct{}, len(f.Keys))
		for _, k := range f.Keys {
			inFile[k] = struct{}{}
		}
		for k := range common {
			if _, ok := inFile[k]; !ok {
				delete(common, k)
			}
		}
	}
	if len(common) == 0 {
		return nil, nil
	}

	keys := make([]model.ReplicaKey, 0, len(common))
	versions := make([]string, 0, len(common))
	for k := range common {
		keys = append(keys, k)
		versions = append(versions, k.Version)
	}
	versionRank := rankVersions(versions)

	type entry struct {
		key   model.ReplicaKey
		table int
		ver   int
		grid  int
	}
	entries := make([]entry, len(keys))
	for i, k := range keys {
		tableRank, err := model.TableIDRank(k.TableID)
		if err != nil {
			return nil, err
		}
		gridRank, err := model.GridLabelRank(k.GridLabel)
		if err != nil {
			return nil, err
		}
		entries[i] = entry{key: k, table: tableRank, ver: versionRank[k.Version], grid: gridRank}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.table != b.table {
			return a.table < b.table
		}
		if a.ver != b.ver {
			return a.ver < b.ver
		}
		return a.grid < b.grid
	})

	sorted := make([]model.ReplicaKey, len(entries))
	for i, e := range entries {
		sorted[i] = e.key
	}
	return sorted, nil
}

// FilterMirrors returns a copy of the dataset keeping only replicas on
// reachable mirrors, dropping files left empty and recomputing the common-key
// intersection. Returns nil when nothing survives: callers must check before
// use.
func (d *Dataset) FilterMirrors(reachable map[string]bool) (*Dataset, error) {
	kept := make([]File, 0, len(d.Files))
	for _, f := range d.Files {
		if filtered := f.filterMirrors(reachable); filtered != nil {
			kept = append(kept, *filtered)
		}
	}
	if len(kept) == 0 {
		logger.Warnf("filtering reachable mirrors on %s resulted in an empty dataset", d.Name)
		return nil, nil
	}
	return newDataset(kept)
}

// FilterSpan returns a copy of the dataset keeping only files whose coverage
// overlaps the year span [startYear, endYear). A zero bound leaves that side
// of the span open. Returns nil when no file overlaps.
func (d *Dataset) FilterSpan(startYear, endYear int) (*Dataset, error) {
	lo, hi := startYear, endYear
	if lo == 0 {
		lo = math.MinInt
	}
	if hi == 0 {
		hi = math.MaxInt
	}
	kept := make([]File, 0, len(d.Files))
	for _, f := range d.Files {
		if Overlaps(f.Start.Year(), f.End.Year(), lo, hi) {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		logger.Warnf("filtering years %d to %d on %s resulted in an empty dataset", startYear, endYear, d.Name)
		return nil, nil
	}
	return newDataset(kept)
}

// Overlaps reports whether a file covering [fileStart, fileEnd] overlaps the
// span [spanStart, spanEnd). The file's end may equal the span's lower bound
// and still count; the file's start must be strictly below the span's upper
// bound.
func Overlaps(fileStart, fileEnd, spanStart, spanEnd int) bool {
	return fileStart < spanEnd && fileEnd >= spanStart
}

// Select returns one replica per file for the given replica-class key.
func (d *Dataset) Select(key model.ReplicaKey) ([]Replica, error) {
	replicas := make([]Replica, 0, len(d.Files))
	for _, f := range d.Files {
		r, ok := f.SelectKey(key)
		if !ok {
			return nil, errors.Wrapf(errors.ErrNoCommonKeys, "file %s has no replica for key %s", f.Name, key)
		}
		replicas = append(replicas, r)
	}
	return replicas, nil
}
