package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

func noCleanup() error { return nil }

// SetupLogger builds the process logger: text on stderr and, when logFile
// is set, JSON lines appended to logFile. The returned function closes the
// file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(os.Stderr, opts)
	if logFile == "" {
		return slog.New(console), noCleanup
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		slog.New(console).Warn("log directory unavailable, logging to stderr only", "file", logFile, "error", err)
		return slog.New(console), noCleanup
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.New(console).Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return slog.New(console), noCleanup
	}

	logger := slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(file, opts)))
	return logger, file.Close
}

// SetupLoggerWithWriters is SetupLogger over arbitrary writers.
func SetupLoggerWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(console, opts),
		slog.NewJSONHandler(file, opts),
	))
}
