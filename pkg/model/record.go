// Package model provides the plain value types exchanged between the search,
// reconciliation and download layers: raw search records, checksums, replica
// keys and the fixed facet vocabularies they are ordered by.
package model

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Checksum is an (algorithm, hex digest) pair advertised by an index node.
// A zero Checksum means integrity cannot be verified.
type Checksum struct {
	Algorithm string `json:"algorithm,omitempty"`
	Digest    string `json:"digest,omitempty"`
}

// Empty reports whether no checksum algorithm was advertised.
func (c Checksum) Empty() bool {
	return c.Algorithm == ""
}

// Record is a serializable snapshot of one raw per-node search hit. It is
// built by the search layer and carries no session state, so it can be cached
// to disk and copied freely.
type Record struct {
	SourceID     string `json:"source_id"`
	ExperimentID string `json:"experiment_id"`
	MemberID     string `json:"member_id"`
	Variable     string `json:"variable"`
	TableID      string `json:"table_id"`
	GridLabel    string `json:"grid_label"`

	// DataNode is the mirror hosting this copy.
	DataNode string `json:"data_node"`

	// DatasetID is the version-bearing dataset identifier,
	// e.g. "CMIP6.CMIP.AWI.AWI-CM-1-1-MR.historical.r1i1p1f1.Oday.tos.gn.v20181218|esgf.node".
	DatasetID string `json:"dataset_id"`

	// Version is the version stamp (vYYYYMMDD) derived from DatasetID.
	Version string `json:"version"`

	Filename string   `json:"filename"`
	URL      string   `json:"url"`
	Size     int64    `json:"size"`
	Checksum Checksum `json:"checksum"`
}

// Key returns the replica-class key of this record.
func (r Record) Key() ReplicaKey {
	return ReplicaKey{TableID: r.TableID, Version: r.Version, GridLabel: r.GridLabel}
}

// FileStem returns the filename with every extension removed.
func (r Record) FileStem() string {
	return StripExtensions(r.Filename)
}

// Name returns the deterministic logical-file name for this record:
// facets plus the filename's raw date range. Records with equal names
// describe the same scientific file.
func (r Record) Name() (string, error) {
	start, end, err := FileDateStrings(r.Filename)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{r.SourceID, r.ExperimentID, r.MemberID, r.Variable, start + "-" + end}, "_"), nil
}

// GetURL returns the parsed download URL, or nil if it does not parse.
func (r Record) GetURL() *url.URL {
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return nil
	}
	return parsed
}

// ReplicaKey is the (table-kind, version, grid-label) triple along which
// replicas of the same logical file compete.
type ReplicaKey struct {
	TableID   string `json:"table_id"`
	Version   string `json:"version"`
	GridLabel string `json:"grid_label"`
}

func (k ReplicaKey) String() string {
	return fmt.Sprintf("(%s, %s, %s)", k.TableID, k.Version, k.GridLabel)
}

// StripExtensions removes all extensions from a file name,
// e.g. "tos_Oday_x_18500101-18501231.nc.gz" -> "tos_Oday_x_18500101-18501231".
func StripExtensions(filename string) string {
	name := path.Base(filename)
	for {
		ext := path.Ext(name)
		if ext == "" {
			return name
		}
		name = strings.TrimSuffix(name, ext)
	}
}
