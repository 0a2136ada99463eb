// Package dataset implements the reconciliation core: it turns raw per-node
// search records into deduplicated replicas, logical files and logical
// datasets, and downloads a dataset as one self-consistent replica-class
// combination with failover to the next combination.
package dataset

import (
	"path"

	"github.com/glorpus-work/cmipget/pkg/model"
)

// Replica is one downloadable copy of one file version on one mirror. It is
// an immutable value: derived collections copy replicas, never mutate them.
type Replica struct {
	SourceID     string
	ExperimentID string
	MemberID     string
	Variable     string

	// Key is the replica-class key this copy competes under.
	Key model.ReplicaKey

	// Mirror is the data node hosting this copy.
	Mirror string

	URL      string
	Size     int64
	Checksum model.Checksum

	// FileStem is the file name without extensions.
	FileStem string
}

// NewReplica builds a Replica from a raw search record.
func NewReplica(rec model.Record) Replica {
	return Replica{
		SourceID:     rec.SourceID,
		ExperimentID: rec.ExperimentID,
		MemberID:     rec.MemberID,
		Variable:     rec.Variable,
		Key:          rec.Key(),
		Mirror:       rec.DataNode,
		URL:          rec.URL,
		Size:         rec.Size,
		Checksum:     rec.Checksum,
		FileStem:     rec.FileStem(),
	}
}

// ID identifies the same physical copy across redundant search hits: the same
// file on the same mirror reported by several index nodes collapses to one ID.
func (r Replica) ID() string {
	return r.FileStem + "|" + r.Mirror
}

// RelativePath is the storage path below the destination root. The layout
// <model>/<experiment>/<member>/<table-kind>/<variable>/<version>/<filename>
// is a stable contract other tooling relies on.
func (r Replica) RelativePath() string {
	return path.Join(
		r.SourceID,
		r.ExperimentID,
		r.MemberID,
		r.Key.TableID,
		r.Variable,
		r.Key.Version,
		r.FileStem+".nc",
	)
}
