package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// The TUI owns stdout/stderr, so logs go to a file under the data directory.
// Before Init is called (or if it fails), records are discarded.

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	closer io.Closer
)

// Init opens the log file and installs a handler at the given level.
// Levels: "debug", "info", "warn", "error". Unknown levels default to info.
func Init(dataDir, level string) error {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, "lesson-builder.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(level)})

	mu.Lock()
	if closer != nil {
		closer.Close()
	}
	logger = slog.New(handler)
	closer = f
	mu.Unlock()

	return nil
}

// Close flushes and closes the log sink. Logging after Close is discarded.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
		closer = nil
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message with key-value pairs.
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs an info message with key-value pairs.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs an error message with key-value pairs.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}
