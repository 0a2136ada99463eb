package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
	"github.com/glorpus-work/cmipget/pkg/model"
)

func key(tableID, version, gridLabel string) model.ReplicaKey {
	return model.ReplicaKey{TableID: tableID, Version: version, GridLabel: gridLabel}
}

func TestNewDatasetsGroupsByFacets(t *testing.T) {
	records := []model.Record{
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18500101-18501231"),
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18510101-18511231"),
		testRecord("tas", "day", "gn", "v20190101", "node-a", "18500101-18501231"),
	}

	datasets, err := FromRecords(records)
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	// Groups sort by the facets-only key, so "tas" comes before "tos".
	assert.Equal(t, "AWI-CM-1-1-MR_historical_r1i1p1f1_tas_18500101-18501231", datasets[0].Name)
	assert.Len(t, datasets[0].Files, 1)

	assert.Equal(t, "AWI-CM-1-1-MR_historical_r1i1p1f1_tos_18500101-18511231", datasets[1].Name)
	assert.Len(t, datasets[1].Files, 2)
	assert.Equal(t, 1850, datasets[1].Start.Year())
	assert.Equal(t, 1851, datasets[1].End.Year())
}

func TestFromRecordsEmpty(t *testing.T) {
	_, err := FromRecords(nil)
	assert.ErrorIs(t, err, pkgerrors.ErrNoRecords)
}

func TestCommonKeysAreExactIntersection(t *testing.T) {
	records := []model.Record{
		// File one: three keys.
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18500101-18501231"),
		testRecord("tos", "Oday", "gr", "v20190101", "node-a", "18500101-18501231"),
		testRecord("tos", "Oday", "gn", "v20180101", "node-a", "18500101-18501231"),
		// File two: two of them.
		testRecord("tos", "Oday", "gn", "v20190101", "node-b", "18510101-18511231"),
		testRecord("tos", "Oday", "gn", "v20180101", "node-b", "18510101-18511231"),
	}

	datasets, err := FromRecords(records)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	ds := datasets[0]

	// Newest version first.
	want := []model.ReplicaKey{
		key("Oday", "v20190101", "gn"),
		key("Oday", "v20180101", "gn"),
	}
	assert.Equal(t, want, ds.CommonKeys)

	// Subset property: every common key is in every file's key set.
	for _, k := range ds.CommonKeys {
		for _, f := range ds.Files {
			_, ok := f.SelectKey(k)
			assert.True(t, ok, "key %s missing from %s", k, f.Name)
		}
	}
	// Exactness: a key missing from some file is not in the common set.
	for _, k := range ds.Files[0].Keys {
		if _, ok := ds.Files[1].SelectKey(k); !ok {
			assert.NotContains(t, ds.CommonKeys, k)
		}
	}
}

func TestCommonKeysEmptyIntersectionStaysEmpty(t *testing.T) {
	records := []model.Record{
		// Three files with pairwise-disjoint versions after the first two.
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18500101-18501231"),
		testRecord("tos", "Oday", "gn", "v20180101", "node-b", "18510101-18511231"),
		// Third file carries the first file's key again; the intersection
		// must NOT reset to it.
		testRecord("tos", "Oday", "gn", "v20190101", "node-c", "18520101-18521231"),
	}

	datasets, err := FromRecords(records)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Empty(t, datasets[0].CommonKeys)
}

func TestOverlaps(t *testing.T) {
	// The boundary asymmetry must hold exactly: end-at-lower-bound is kept,
	// start-at-upper-bound is not.
	assert.True(t, Overlaps(1850, 1900, 1900, 1950))
	assert.False(t, Overlaps(1900, 1950, 1850, 1900))
	assert.True(t, Overlaps(1850, 1900, 1840, 1860))
	assert.False(t, Overlaps(1850, 1900, 1901, 1950))
}

func TestFilterSpan(t *testing.T) {
	records := []model.Record{
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18500101-19001231"),
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "19010101-19501231"),
	}
	datasets, err := FromRecords(records)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	ds := datasets[0]

	filtered, err := ds.FilterSpan(1900, 1950)
	require.NoError(t, err)
	require.NotNil(t, filtered)
	// First file ends exactly at the lower bound: kept. Second file starts
	// inside the span: kept.
	assert.Len(t, filtered.Files, 2)

	filtered, err = ds.FilterSpan(1850, 1900)
	require.NoError(t, err)
	require.NotNil(t, filtered)
	require.Len(t, filtered.Files, 1)
	assert.Equal(t, 1850, filtered.Files[0].Start.Year())

	// Original is unchanged.
	assert.Len(t, ds.Files, 2)

	// Empty result is an explicit absence, not an error.
	filtered, err = ds.FilterSpan(2000, 2010)
	require.NoError(t, err)
	assert.Nil(t, filtered)
}

func TestFilterSpanOpenEnded(t *testing.T) {
	records := []model.Record{
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18500101-19001231"),
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "19010101-19501231"),
	}
	datasets, err := FromRecords(records)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	ds := datasets[0]

	// Only a lower bound: everything ending at or after it survives.
	filtered, err := ds.FilterSpan(1901, 0)
	require.NoError(t, err)
	require.NotNil(t, filtered)
	require.Len(t, filtered.Files, 1)
	assert.Equal(t, 1901, filtered.Files[0].Start.Year())

	// Only an upper bound: everything starting before it survives.
	filtered, err = ds.FilterSpan(0, 1901)
	require.NoError(t, err)
	require.NotNil(t, filtered)
	require.Len(t, filtered.Files, 1)
	assert.Equal(t, 1850, filtered.Files[0].Start.Year())

	filtered, err = ds.FilterSpan(1850, 0)
	require.NoError(t, err)
	require.NotNil(t, filtered)
	assert.Len(t, filtered.Files, 2)
}

func TestFilterMirrors(t *testing.T) {
	records := []model.Record{
		testRecord("tos", "Oday", "gn", "v20190101", "node-up", "18500101-18501231"),
		testRecord("tos", "Oday", "gr", "v20190101", "node-down", "18500101-18501231"),
		testRecord("tos", "Oday", "gn", "v20190101", "node-up", "18510101-18511231"),
		testRecord("tos", "Oday", "gr", "v20190101", "node-down", "18510101-18511231"),
	}
	datasets, err := FromRecords(records)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	ds := datasets[0]
	require.Len(t, ds.CommonKeys, 2)

	status := map[string]bool{"node-up": true, "node-down": false}
	filtered, err := ds.FilterMirrors(status)
	require.NoError(t, err)
	require.NotNil(t, filtered)

	// Only the gn replicas survive and the intersection is recomputed.
	assert.Equal(t, []model.ReplicaKey{key("Oday", "v20190101", "gn")}, filtered.CommonKeys)
	for _, f := range filtered.Files {
		require.Len(t, f.Replicas, 1)
		assert.Equal(t, "node-up", f.Replicas[0].Mirror)
	}

	// Unknown mirrors default to unreachable.
	filtered, err = ds.FilterMirrors(map[string]bool{})
	require.NoError(t, err)
	assert.Nil(t, filtered)

	// Original is unchanged.
	assert.Len(t, ds.CommonKeys, 2)
}

func TestSelect(t *testing.T) {
	records := []model.Record{
		testRecord("tos", "Oday", "gn", "v20190101", "node-a", "18500101-18501231"),
		testRecord("tos", "Oday", "gn", "v20190101", "node-b", "18510101-18511231"),
	}
	datasets, err := FromRecords(records)
	require.NoError(t, err)
	ds := datasets[0]

	replicas, err := ds.Select(key("Oday", "v20190101", "gn"))
	require.NoError(t, err)
	require.Len(t, replicas, 2)
	assert.Equal(t, "node-a", replicas[0].Mirror)
	assert.Equal(t, "node-b", replicas[1].Mirror)

	_, err = ds.Select(key("day", "v20190101", "gn"))
	assert.ErrorIs(t, err, pkgerrors.ErrNoCommonKeys)
}
