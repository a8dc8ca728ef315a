package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := New("info", path)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Named("store").Info("store ready")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "store", entry["logger"])
	require.Equal(t, "store ready", entry["msg"])
	require.Contains(t, entry, "ts")
}

func TestNewDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New("debug", path)
	require.NoError(t, err)

	logger.Debug("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "visible")
}

func TestNewEmptyPathIsNop(t *testing.T) {
	logger, err := New("info", "")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewUnknownLevel(t *testing.T) {
	_, err := New("chatty", filepath.Join(t.TempDir(), "app.log"))
	require.Error(t, err)
}
