package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/glorpus-work/cmipget/pkg/errors"
)

const exampleFilename = "tos_Oday_AWI-CM-1-1-MR_historical_r1i1p1f1_gn_18500101-18501231.nc"

func exampleRecord() Record {
	return Record{
		SourceID:     "AWI-CM-1-1-MR",
		ExperimentID: "historical",
		MemberID:     "r1i1p1f1",
		Variable:     "tos",
		TableID:      "Oday",
		GridLabel:    "gn",
		DataNode:     "esgf.awi.de",
		DatasetID:    "CMIP6.CMIP.AWI.AWI-CM-1-1-MR.historical.r1i1p1f1.Oday.tos.gn.v20181218|esgf.awi.de",
		Version:      "v20181218",
		Filename:     exampleFilename,
		URL:          "https://esgf.awi.de/thredds/fileServer/tos.nc",
		Size:         1024,
		Checksum:     Checksum{Algorithm: "SHA256", Digest: "abcd"},
	}
}

func TestStripExtensions(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{exampleFilename, "tos_Oday_AWI-CM-1-1-MR_historical_r1i1p1f1_gn_18500101-18501231"},
		{"file.nc.gz", "file"},
		{"noext", "noext"},
		{"/path/to/file.nc", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripExtensions(tt.in))
	}
}

func TestRecordName(t *testing.T) {
	name, err := exampleRecord().Name()
	require.NoError(t, err)
	assert.Equal(t, "AWI-CM-1-1-MR_historical_r1i1p1f1_tos_18500101-18501231", name)

	rec := exampleRecord()
	rec.Filename = "garbage.nc"
	_, err = rec.Name()
	require.Error(t, err)
}

func TestFileDates(t *testing.T) {
	start, end, err := FileDates(exampleFilename)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(1850, 12, 31, 0, 0, 0, 0, time.UTC), end)

	_, _, err = FileDates("tos_Oday_gn_1850-01-01.nc")
	require.Error(t, err)
}

func TestParseVersionStamp(t *testing.T) {
	stamp, err := ParseVersionStamp("v20181218")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 12, 18, 0, 0, 0, 0, time.UTC), stamp)

	for _, bad := range []string{"20181218", "v2018", "vABCDEFGH", ""} {
		_, err := ParseVersionStamp(bad)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidVersionStamp, "stamp %q", bad)
	}
}

func TestVersionFromDatasetID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"CMIP6.CMIP.AWI.AWI-CM-1-1-MR.historical.r1i1p1f1.Oday.tos.gn.v20181218|esgf.awi.de", "v20181218"},
		{"CMIP6.CMIP.X.v20200101", "v20200101"},
		{"nodots", "nodots"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VersionFromDatasetID(tt.id))
	}
}

func TestRanks(t *testing.T) {
	r, err := TableIDRank("Oday")
	require.NoError(t, err)
	assert.Equal(t, 2, r)

	_, err = TableIDRank("Amon")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownTableID)

	r, err = GridLabelRank("gn")
	require.NoError(t, err)
	assert.Equal(t, 0, r)

	_, err = GridLabelRank("gm")
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownGridLabel)
}

func TestChecksumEmpty(t *testing.T) {
	assert.True(t, Checksum{}.Empty())
	assert.False(t, Checksum{Algorithm: "md5", Digest: "x"}.Empty())
}

func TestRecordKey(t *testing.T) {
	key := exampleRecord().Key()
	assert.Equal(t, ReplicaKey{TableID: "Oday", Version: "v20181218", GridLabel: "gn"}, key)
	assert.Equal(t, "(Oday, v20181218, gn)", key.String())
}
