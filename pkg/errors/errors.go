// Package errors defines the sentinel errors shared across cmipget and small
// helpers for wrapping them with context.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")

	// Path errors.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// Search errors.
	ErrSearchUnavailable = fmt.Errorf("no index node reachable")
	ErrCacheExpired      = fmt.Errorf("cached search results expired")
	ErrCacheFormat       = fmt.Errorf("unsupported cache format version")

	// Reconciliation errors.
	ErrUnknownTableID      = fmt.Errorf("table id missing from priority ordering")
	ErrUnknownGridLabel    = fmt.Errorf("grid label missing from priority ordering")
	ErrInvalidVersionStamp = fmt.Errorf("invalid version stamp")
	ErrNoRecords           = fmt.Errorf("no records to reconcile")
	ErrNoCommonKeys        = fmt.Errorf("no replica key common to all files")

	// Download errors.
	ErrDownloadFailed      = fmt.Errorf("download failed")
	ErrChecksumMismatch    = fmt.Errorf("checksum mismatch")
	ErrUnsupportedChecksum = fmt.Errorf("unsupported checksum algorithm")
	ErrLocalFileInvalid    = fmt.Errorf("existing local file is not a valid data file")

	// Node status errors.
	ErrNodeStatusFetch = fmt.Errorf("failed to fetch node status")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
