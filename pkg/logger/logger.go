package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/limbo/streek/pkg/cleanup"
)

type Config struct {
	// debug, info, warn or error; anything else means info
	Level string
	// Optional file that receives a copy of every record, rotated by size
	File string
}

// Setup builds the JSON logger and makes it the default one.
func Setup(cfg Config) (*slog.Logger, error) {
	var writer io.Writer = os.Stdout
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		cleanup.Register(&cleanup.Job{
			Name: "closing log file",
			F:    fileWriter.Close,
		})
		writer = io.MultiWriter(os.Stdout, fileWriter)
	}
	logger := New(writer, cfg.Level)
	slog.SetDefault(logger)
	return logger, nil
}

func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
