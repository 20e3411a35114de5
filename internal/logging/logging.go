package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrInvalidConfig is returned for an unrecognised level or format.
var ErrInvalidConfig = errors.New("invalid log config")

// LogConfig holds logging configuration as given on the command line.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"; empty means info
	Format string // "json", "text"; empty means text
}

// InitLogger validates cfg, builds a structured slog.Logger writing to w
// (stderr when nil) and installs it as the default logger.
func InitLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("log format %q, want text or json: %w", cfg.Format, ErrInvalidConfig)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel maps a level name to slog.Level. Names are case-insensitive.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log level %q, want debug, info, warn or error: %w", level, ErrInvalidConfig)
}
