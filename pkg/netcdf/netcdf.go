// Package netcdf decides whether a local file is structurally a NetCDF file.
// It is the validity predicate consulted before trusting a pre-existing
// download; it does not decode the file.
package netcdf

import (
	"bytes"
	"io"
	"os"
)

// Magic numbers of the NetCDF container formats: classic (CDF-1), 64-bit
// offset (CDF-2), CDF-5, and the HDF5 signature used by NetCDF-4.
var magics = [][]byte{
	{'C', 'D', 'F', 0x01},
	{'C', 'D', 'F', 0x02},
	{'C', 'D', 'F', 0x05},
	{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'},
}

// Valid reports whether the file at path starts with a known NetCDF magic
// number. Unreadable or truncated files are not valid.
func Valid(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 8)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	for _, magic := range magics {
		if bytes.HasPrefix(header, magic) {
			return true
		}
	}
	return false
}
