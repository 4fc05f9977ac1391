package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetupLoggerSplitsStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setupLogger(Options{Level: "info", Format: FormatText}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("hidden")
	logger.Info("progress", "output", "NativeMethods.g.cs")
	logger.Error("failed", "error", "boom")

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "msg=progress")
	assert.NotContains(t, stdout.String(), "failed")
	assert.Contains(t, stderr.String(), "msg=failed")
	assert.NotContains(t, stderr.String(), "progress")
}

func TestSetupLoggerFormats(t *testing.T) {
	var stdout bytes.Buffer
	logger, _, err := setupLogger(Options{Format: FormatJSON}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	logger.Info("hello", "functions", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.EqualValues(t, 3, rec["functions"])

	// a buffer is not an *os.File, so auto falls back to text
	stdout.Reset()
	logger, _, err = setupLogger(Options{Format: FormatAuto}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, stdout.String(), "msg=hello")

	_, _, err = setupLogger(Options{Format: "xml"}, &stdout, &bytes.Buffer{})
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindgen.log")
	var stderr bytes.Buffer
	logger, closers, err := setupLogger(Options{Level: "debug", File: path}, &bytes.Buffer{}, &stderr)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Debug("scanning", "source", "lib.rs")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "scanning", rec["msg"])
	assert.Contains(t, stderr.String(), "scanning")
}

func TestSetupLoggerReserveStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, _, err := setupLogger(Options{Level: "debug", Format: FormatText, ReserveStdout: true}, &stdout, &stderr)
	require.NoError(t, err)

	logger.Debug("Skipped item", "item", "host_log")
	logger.Error("failed")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "msg=\"Skipped item\"")
	assert.Contains(t, stderr.String(), "msg=failed")
}
