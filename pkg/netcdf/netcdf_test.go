package netcdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{name: "classic", content: append([]byte("CDF\x01"), make([]byte, 16)...), want: true},
		{name: "64-bit offset", content: append([]byte("CDF\x02"), make([]byte, 16)...), want: true},
		{name: "cdf5", content: append([]byte("CDF\x05"), make([]byte, 16)...), want: true},
		{name: "hdf5", content: append([]byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...), want: true},
		{name: "html error page", content: []byte("<html><body>404</body></html>"), want: false},
		{name: "truncated", content: []byte("CDF"), want: false},
		{name: "empty", content: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "file.nc")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))
			assert.Equal(t, tt.want, Valid(path))
		})
	}
}

func TestValidMissingFile(t *testing.T) {
	assert.False(t, Valid(filepath.Join(t.TempDir(), "nope.nc")))
}
