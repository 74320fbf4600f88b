package infrastructure

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valeurverte/internal/config"
)

func TestInitializeLoggerFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("silver layer rebuilt", slog.Int("rows", 42))

	f, err := os.Open(logFile)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "log file must contain at least one line")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "silver layer rebuilt", entry["msg"])
	assert.Equal(t, float64(42), entry["rows"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeLoggerBothCreatesFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Output:   "both",
		FilePath: logFile,
	})
	require.NoError(t, err)

	logger.Debug("debug enabled")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug enabled")
}

func TestInitializeLoggerStdoutNeedsNoFile(t *testing.T) {
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Output: "stdout",
	})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestInitializeLoggerSetsDefault(t *testing.T) {
	logger, err := InitializeLogger(config.LoggingConfig{Level: "warn", Output: "stdout"})
	require.NoError(t, err)
	assert.Equal(t, logger, slog.Default())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestInitializeLoggerLevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "warn",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)

	logger.Info("below threshold")
	logger.Warn("at threshold")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "below threshold")
	assert.Contains(t, string(content), "at threshold")
}
