package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Init configures slog and installs the logger as the default. format is
// "json" or "text". Logs go to stderr unless file is set, in which case they are written to a
// rotated file. If the log directory cannot be created the logger falls back
// to stderr and the error is returned.
func Init(level, format, file string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var out io.Writer = os.Stderr
	var initErr error
	if path := strings.TrimSpace(file); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			initErr = err
		} else {
			out = &lumberjack.Logger{
				Filename:   path,
				MaxSize:    maxLogSizeMB,
				MaxBackups: maxLogBackups,
				MaxAge:     maxLogAgeDays,
				Compress:   true,
			}
		}
	}

	logger := slog.New(newHandler(format, out, opts))
	slog.SetDefault(logger)
	return logger, initErr
}

func parseLogLevel(level string) slog.Level {
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

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}
