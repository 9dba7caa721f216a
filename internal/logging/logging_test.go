package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WriterOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := Setup(&buf, "", slog.LevelInfo)
	require.NoError(t, err)
	defer cleanup()

	logger.Debug("hidden")
	logger.Info("expanded", "decl", "isOver", "line", 6)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "expanded", entry["msg"])
	assert.Equal(t, "isOver", entry["decl"])
	assert.Equal(t, float64(6), entry["line"])
}

func TestSetup_LogFile(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "predgen.log")

	logger, cleanup, err := Setup(&buf, logFile, slog.LevelDebug)
	require.NoError(t, err)
	logger.Debug("expanding", "macro", "PredicateHelper")
	cleanup()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
	assert.Contains(t, string(data), `"macro":"PredicateHelper"`)
}

func TestSetup_BadLogFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, _, err := Setup(nil, filepath.Join(blocker, "x.log"), slog.LevelInfo)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
