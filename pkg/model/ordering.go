package model

import (
	"github.com/glorpus-work/cmipget/pkg/errors"
)

// Fixed priority orderings for the replica-key facets. Lower index means
// higher priority. These lists must stay exhaustive for the vocabulary the
// search layer is queried with: an unlisted value is a hard error, never a
// silent misordering.
var (
	// TableIDOrder prefers higher temporal granularity tables.
	TableIDOrder = []string{"Eday", "day", "Oday"}

	// GridLabelOrder prefers native grids over regridded ones.
	GridLabelOrder = []string{"gn", "gr", "gr1", "gr2", "gr3", "gr4", "gr5", "gr6", "gr7", "gr8", "gr9"}
)

// TableIDRank returns the priority rank of a table id.
func TableIDRank(tableID string) (int, error) {
	for i, t := range TableIDOrder {
		if t == tableID {
			return i, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownTableID, "%q", tableID)
}

// GridLabelRank returns the priority rank of a grid label.
func GridLabelRank(gridLabel string) (int, error) {
	for i, g := range GridLabelOrder {
		if g == gridLabel {
			return i, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownGridLabel, "%q", gridLabel)
}
