package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logAtWarn string
		logDebug  string
		wantDebug bool
	}{
		{name: "debug level shows debug", level: "debug", wantDebug: true},
		{name: "info level hides debug", level: "info", wantDebug: false},
		{name: "unknown level falls back to info", level: "bogus", wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetTestOutput(&buf)
			defer UnsetTestOutput()
			InitLogger(tt.level)

			Debug("debug message")
			Warn("warn message")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug message"))
			assert.Contains(t, out, "warn message")
		})
	}
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	SetTestOutput(&buf)
	defer UnsetTestOutput()
	InitLogger("info")

	Info("downloaded", Fields{"mirror": "esgf.node.example", "size": 42})

	out := buf.String()
	assert.Contains(t, out, "downloaded")
	assert.Contains(t, out, "mirror=esgf.node.example")
	assert.Contains(t, out, "size=42")
}

func TestFormattedHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetTestOutput(&buf)
	defer UnsetTestOutput()
	InitLogger("debug")

	Debugf("attempt %d", 2)
	Infof("dataset %s", "tos")
	Warnf("node %s down", "esgf.ceda.ac.uk")
	Errorf("failed after %d keys", 3)

	out := buf.String()
	assert.Contains(t, out, "attempt 2")
	assert.Contains(t, out, "dataset tos")
	assert.Contains(t, out, "node esgf.ceda.ac.uk down")
	assert.Contains(t, out, "failed after 3 keys")
}
