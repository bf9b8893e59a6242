package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the slog sink for one supervisor instance.
// When File is empty, output goes to stdout; otherwise to a rotating file.
type Config struct {
	Level      string
	Format     string // "color" (default), "text" or "json"
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

// New builds a *slog.Logger from the config. The returned logger is meant to
// be injected per instance; this package keeps no global state.
func New(c Config) (*slog.Logger, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	var w io.Writer = os.Stdout
	if c.File != "" {
		w = &lj.Logger{
			Filename:   c.File,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch c.Format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text":
		h = slog.NewTextHandler(w, opts)
	default:
		h = NewColorTextHandler(w, opts)
	}
	return slog.New(h), nil
}

// Default returns a stdout logger at the given level, falling back to info
// when the level string is invalid.
func Default(level string) *slog.Logger {
	return For(level, "")
}

// For builds a per-instance logger: stdout when file is empty, a rotating
// file sink otherwise. An invalid level falls back to info, like Default.
// File output uses the plain text handler; ANSI colors belong on terminals.
func For(level, file string) *slog.Logger {
	c := Config{Level: level, File: file}
	if file != "" {
		c.Format = "text"
	}
	l, err := New(c)
	if err != nil {
		c.Level = ""
		l, _ = New(c)
	}
	return l
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
