package dataset

import (
	"sort"
	"strings"
	"time"

	"github.com/glorpus-work/cmipget/internal/logger"
	"github.com/glorpus-work/cmipget/pkg/model"
)

// File is one real-world scientific file, consistently identified: all its
// replicas share the owning facets and the temporal range, and each
// replica-class key appears exactly once.
type File struct {
	SourceID     string
	ExperimentID string
	MemberID     string
	Variable     string

	// Start and End are the temporal coverage parsed from the file name.
	Start time.Time
	End   time.Time

	// Name is facets plus date range, e.g.
	// "AWI-CM-1-1-MR_historical_r1i1p1f1_tos_18500101-18501231".
	Name string

	// Replicas in deterministic priority order; Keys is the parallel
	// replica-class key sequence.
	Replicas []Replica
	Keys     []model.ReplicaKey
}

// NewFiles groups raw records into logical files. Records grouping under the
// same derived name become one file. Records whose filename carries no
// parseable date range are skipped with a warning; records whose version
// stamp fails to parse are skipped per file, also with a warning. A group
// whose records are all skipped produces no file.
func NewFiles(records []model.Record) ([]File, error) {
	usable := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if _, err := rec.Name(); err != nil {
			logger.Warnf("ignoring record with unparseable filename %q: %v", rec.Filename, err)
			continue
		}
		usable = append(usable, rec)
	}

	var files []File
	for _, group := range groupConsecutive(usable, func(r model.Record) string {
		name, _ := r.Name()
		return name
	}) {
		file, err := newFile(group)
		if err != nil {
			return nil, err
		}
		if file == nil {
			continue
		}
		files = append(files, *file)
	}
	return files, nil
}

// newFile builds one logical file from records sharing a derived name.
// Returns nil if every record was dropped.
func newFile(records []model.Record) (*File, error) {
	first := records[0]
	name, err := first.Name()
	if err != nil {
		return nil, err
	}
	start, end, err := model.FileDates(first.Filename)
	if err != nil {
		return nil, err
	}

	// Drop records whose version stamp does not parse. Recoverable: warn
	// and continue with the rest.
	kept := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if _, err := model.ParseVersionStamp(rec.Version); err != nil {
			logger.Warnf("ignoring invalid version %q in %s: %v", rec.Version, name, err)
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		logger.Warnf("all records of %s carried invalid versions, dropping file", name)
		return nil, nil
	}

	ordered, err := orderRecords(kept)
	if err != nil {
		return nil, err
	}
	replicas := dedupReplicas(ordered)

	keys := make([]model.ReplicaKey, len(replicas))
	for i, r := range replicas {
		keys[i] = r.Key
	}

	return &File{
		SourceID:     first.SourceID,
		ExperimentID: first.ExperimentID,
		MemberID:     first.MemberID,
		Variable:     first.Variable,
		Start:        start,
		End:          end,
		Name:         name,
		Replicas:     replicas,
		Keys:         keys,
	}, nil
}

// orderRecords sorts records by the composite priority key: table-kind rank,
// then version recency (newest first), then grid-label rank. A table kind or
// grid label missing from the fixed orderings is unrecoverable.
func orderRecords(records []model.Record) ([]model.Record, error) {
	versionRank := rankVersions(recordVersions(records))

	type entry struct {
		rec   model.Record
		table int
		ver   int
		grid  int
	}
	entries := make([]entry, len(records))
	for i, rec := range records {
		tableRank, err := model.TableIDRank(rec.TableID)
		if err != nil {
			return nil, err
		}
		gridRank, err := model.GridLabelRank(rec.GridLabel)
		if err != nil {
			return nil, err
		}
		entries[i] = entry{rec: rec, table: tableRank, ver: versionRank[rec.Version], grid: gridRank}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.table != b.table {
			return a.table < b.table
		}
		if a.ver != b.ver {
			return a.ver < b.ver
		}
		return a.grid < b.grid
	})

	ordered := make([]model.Record, len(entries))
	for i, e := range entries {
		ordered[i] = e.rec
	}
	return ordered, nil
}

func recordVersions(records []model.Record) []string {
	versions := make([]string, len(records))
	for i, rec := range records {
		versions[i] = rec.Version
	}
	return versions
}

// rankVersions assigns rank 0 to the newest stamp. Stamps are fixed-width
// vYYYYMMDD, so lexicographic order matches chronological order.
func rankVersions(versions []string) map[string]int {
	unique := make([]string, 0, len(versions))
	seen := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(unique)))

	rank := make(map[string]int, len(unique))
	for i, v := range unique {
		rank[v] = i
	}
	return rank
}

// dedupReplicas collapses redundant hits (same file on the same mirror
// reported by several index nodes) and then duplicate replica-class keys,
// keeping the first occurrence under the established priority order so the
// key sequence ends up unique.
func dedupReplicas(ordered []model.Record) []Replica {
	seenID := make(map[string]struct{}, len(ordered))
	seenKey := make(map[model.ReplicaKey]struct{}, len(ordered))
	replicas := make([]Replica, 0, len(ordered))
	for _, rec := range ordered {
		r := NewReplica(rec)
		if _, ok := seenID[r.ID()]; ok {
			continue
		}
		seenID[r.ID()] = struct{}{}
		if _, ok := seenKey[r.Key]; ok {
			continue
		}
		seenKey[r.Key] = struct{}{}
		replicas = append(replicas, r)
	}
	return replicas
}

// SelectKey returns the replica carrying the given replica-class key.
func (f File) SelectKey(key model.ReplicaKey) (Replica, bool) {
	for i, k := range f.Keys {
		if k == key {
			return f.Replicas[i], true
		}
	}
	return Replica{}, false
}

// filterMirrors returns a copy of the file keeping only replicas on reachable
// mirrors, or nil when none survive. Mirrors absent from the map are treated
// as unreachable.
func (f File) filterMirrors(reachable map[string]bool) *File {
	kept := make([]Replica, 0, len(f.Replicas))
	for _, r := range f.Replicas {
		up, known := reachable[r.Mirror]
		if !known {
			logger.Debugf("mirror %s of %s not in node status, treating as unreachable", r.Mirror, f.Name)
		}
		if up {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		logger.Warnf("filtering reachable mirrors left %s with no replicas", f.Name)
		return nil
	}

	keys := make([]model.ReplicaKey, len(kept))
	for i, r := range kept {
		keys[i] = r.Key
	}
	out := f
	out.Replicas = kept
	out.Keys = keys
	return &out
}

// datasetKey strips the trailing date-range component from a file name; files
// sharing the result belong to the same logical dataset.
func datasetKey(fileName string) string {
	if i := strings.LastIndexByte(fileName, '_'); i >= 0 {
		return fileName[:i]
	}
	return fileName
}
