package logger_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limbo/streek/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel(" warn "))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(&buf, "warn")
	l.Info("skipped")
	l.Warn("kept", slog.String("uid", "42"))

	var record map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "42", record["uid"])
}

func TestSetupWithFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	file := filepath.Join(t.TempDir(), "logs", "streek.log")

	l, err := logger.Setup(logger.Config{Level: "info", File: file})
	require.NoError(t, err)
	l.Info("to file")

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "to file")
}
