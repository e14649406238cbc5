package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garagon/tatu/internal/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	require.Equal(t, zapcore.InfoLevel, logging.Options{}.Level())
	require.Equal(t, zapcore.DebugLevel, logging.Options{Verbose: true}.Level())
	require.Equal(t, zapcore.ErrorLevel, logging.Options{Quiet: true}.Level())
	require.Equal(t, zapcore.ErrorLevel, logging.Options{Quiet: true, Verbose: true}.Level())
}

func TestConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup := logging.New(logging.Options{Console: &buf})
	logger.Debug("hidden detail")
	logger.Info("loaded config", zap.String("path", ".tatu.yml"))
	cleanup()

	out := buf.String()
	require.NotContains(t, out, "hidden detail")
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "loaded config")
	require.Contains(t, out, ".tatu.yml")
}

func TestQuietConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup := logging.New(logging.Options{Console: &buf, Quiet: true})
	logger.Warn("invalid pattern")
	logger.Error("detector failed")
	cleanup()

	require.NotContains(t, buf.String(), "invalid pattern")
	require.Contains(t, buf.String(), "detector failed")
}

func TestFileReceivesDebugJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "tatu.log")
	logger, cleanup := logging.New(logging.Options{Console: &buf, File: path})
	logger.Debug("skipping file", zap.String("path", "a.bin"))
	cleanup()

	require.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	require.Equal(t, "skipping file", entry["message"])
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "a.bin", entry["path"])
	require.Contains(t, entry, "timestamp")
}
