package logger

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"ERROR":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, "level %q", in)
		assert.Equal(t, want, got, "level %q", in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewFormats(t *testing.T) {
	for _, format := range []string{"", "color", "text", "json"} {
		l, err := New(Config{Format: format})
		require.NoError(t, err, "format %q", format)
		require.NotNil(t, l)
	}
	_, err := New(Config{Level: "bogus"})
	assert.Error(t, err)
}

func TestNewFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pglite.log")
	l, err := New(Config{File: path, Format: "text"})
	require.NoError(t, err)
	l.Info("hello", "k", "v")
	// lumberjack creates the file lazily on first write
	require.FileExists(t, path)
}

func TestColorTextHandlerColorsLevel(t *testing.T) {
	var buf strings.Builder
	l := slog.New(NewColorTextHandler(&buf, nil))
	l.Warn("careful")
	out := buf.String()
	assert.Contains(t, out, "\033[33m")
	assert.Contains(t, out, "careful")
}

func TestDefaultFallsBackOnBadLevel(t *testing.T) {
	assert.NotNil(t, Default("bogus"))
	assert.NotNil(t, Default("debug"))
}

func TestForWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pglite.log")
	l := For("debug", path)
	l.Info("instance log", "k", "v")
	require.FileExists(t, path)

	// Bad level still yields a working file logger.
	l = For("bogus", path)
	require.NotNil(t, l)
	l.Info("still writing")
}
