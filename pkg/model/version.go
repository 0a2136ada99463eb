package model

import (
	"strings"
	"time"

	"github.com/glorpus-work/cmipget/pkg/errors"
)

// VersionStampLayout is the time layout of dataset version stamps.
const VersionStampLayout = "v20060102"

// FileDateLayout is the time layout of the date components in file names.
const FileDateLayout = "20060102"

// ParseVersionStamp parses a version stamp of the form vYYYYMMDD.
func ParseVersionStamp(stamp string) (time.Time, error) {
	t, err := time.Parse(VersionStampLayout, stamp)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidVersionStamp, "%q", stamp)
	}
	return t, nil
}

// VersionFromDatasetID extracts the version stamp from a version-bearing
// dataset identifier such as
// "CMIP6.CMIP.AWI.AWI-CM-1-1-MR.historical.r1i1p1f1.Oday.tos.gn.v20181218|esgf.node".
// The returned stamp is not validated; callers parse it with ParseVersionStamp.
func VersionFromDatasetID(datasetID string) string {
	id := datasetID
	if i := strings.IndexByte(id, '|'); i >= 0 {
		id = id[:i]
	}
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		id = id[i+1:]
	}
	return id
}

// FileDateStrings extracts the raw start and end date strings from a file
// name with the pattern
// "tos_Oday_AWI-CM-1-1-MR_historical_r1i1p1f1_gn_18500101-18501231.nc".
func FileDateStrings(filename string) (string, string, error) {
	stem := StripExtensions(filename)
	i := strings.LastIndexByte(stem, '_')
	if i < 0 {
		return "", "", errors.Wrapf(errors.ErrInvalidPath, "no date range in filename %q", filename)
	}
	start, end, ok := strings.Cut(stem[i+1:], "-")
	if !ok {
		return "", "", errors.Wrapf(errors.ErrInvalidPath, "no date range in filename %q", filename)
	}
	return start, end, nil
}

// FileDates extracts the temporal coverage of a file from its name.
func FileDates(filename string) (start, end time.Time, err error) {
	startStr, endStr, err := FileDateStrings(filename)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err = time.Parse(FileDateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidPath, "bad start date in filename %q", filename)
	}
	end, err = time.Parse(FileDateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidPath, "bad end date in filename %q", filename)
	}
	return start, end, nil
}

// FormatFileDate renders a time in the file-name date layout.
func FormatFileDate(t time.Time) string {
	return t.Format(FileDateLayout)
}
