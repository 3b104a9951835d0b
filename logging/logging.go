// Package logging builds the slog loggers used by the demon snake binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// New returns a logger writing indented JSON records at level and above.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewPrettyJSONHandler(w, &HandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: level},
		Indent:         true,
	}))
}

// NewCompact is New with one record per line, for files other tools read.
func NewCompact(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewPrettyJSONHandler(w, &HandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: level},
	}))
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// OpenFile opens path for appending, creating its directory. The caller
// closes the returned file.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
