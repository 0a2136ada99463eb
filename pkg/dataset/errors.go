package dataset

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/cmipget/pkg/model"
)

// KeyErrors records every error collected while attempting one replica-class
// key combination.
type KeyErrors struct {
	Key  model.ReplicaKey
	Errs []error
}

// DownloadError reports that every replica-class key combination of a dataset
// failed, with the full per-key diagnostics.
type DownloadError struct {
	Dataset  string
	Attempts []KeyErrors
}

func (e *DownloadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to download %s from any replica key:", e.Dataset)
	if len(e.Attempts) == 0 {
		b.WriteString(" no replica key is common to all files")
	}
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n- %s:", a.Key)
		for _, err := range a.Errs {
			fmt.Fprintf(&b, " %v;", err)
		}
	}
	return b.String()
}

// Unwrap exposes the collected errors so callers can match sentinels with
// errors.Is across all attempts.
func (e *DownloadError) Unwrap() []error {
	var errs []error
	for _, a := range e.Attempts {
		errs = append(errs, a.Errs...)
	}
	return errs
}
