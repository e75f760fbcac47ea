package logger

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedLogger(level LogLevel, json bool) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&Config{
		Level:      level,
		Output:     &buf,
		JSON:       json,
		TimeFormat: "15:04:05",
	}), &buf
}

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewForTests()
		ctx := ContextWithLogger(t.Context(), expected)

		actual := FromContext(ctx)

		require.NotNil(t, actual)
		assert.Equal(t, expected, actual)
	})

	t.Run("Should fall back to the default logger when context holds a foreign value", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")

		l := FromContext(ctx)

		require.NotNil(t, l)
		l.Info("fallback")
	})

	t.Run("Should fall back to the default logger when context holds a nil logger", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, (Logger)(nil))

		require.NotNil(t, FromContext(ctx))
	})
}

func TestLogLevel(t *testing.T) {
	t.Run("Should convert levels to charm levels", func(t *testing.T) {
		cases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{DisabledLevel, 1000},
			{LogLevel("unknown"), 0},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %s", tc.level)
		}
	})

	t.Run("Should parse level names case-insensitively", func(t *testing.T) {
		assert.Equal(t, DebugLevel, ParseLevel(" DEBUG "))
		assert.Equal(t, WarnLevel, ParseLevel("warn"))
		assert.Equal(t, DisabledLevel, ParseLevel("disabled"))
		assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text output", func(t *testing.T) {
		l, buf := bufferedLogger(InfoLevel, false)

		l.Info("users loaded", "count", 12)

		assert.Contains(t, buf.String(), "users loaded")
		assert.Contains(t, buf.String(), "count")
	})

	t.Run("Should write JSON output when enabled", func(t *testing.T) {
		l, buf := bufferedLogger(InfoLevel, true)

		l.Info("users loaded")

		out := strings.TrimSpace(buf.String())
		assert.True(t, strings.HasPrefix(out, "{") && strings.HasSuffix(out, "}"))
		assert.Contains(t, out, `"msg":"users loaded"`)
	})

	t.Run("Should carry fields added with With", func(t *testing.T) {
		l, buf := bufferedLogger(InfoLevel, false)

		l.With("component", "listview", "resource", "usuarios").Info("search applied")

		out := buf.String()
		assert.Contains(t, out, "component")
		assert.Contains(t, out, "listview")
		assert.Contains(t, out, "usuarios")
	})

	t.Run("Should pick the test configuration when config is nil under go test", func(t *testing.T) {
		require.NotNil(t, NewLogger(nil))
		assert.True(t, IsTestEnvironment())
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should provide default configuration", func(t *testing.T) {
		cfg := DefaultConfig()

		assert.Equal(t, InfoLevel, cfg.Level)
		assert.Equal(t, os.Stdout, cfg.Output)
		assert.Equal(t, "15:04:05", cfg.TimeFormat)
	})

	t.Run("Should provide silent test configuration", func(t *testing.T) {
		cfg := TestConfig()

		assert.Equal(t, DisabledLevel, cfg.Level)
		assert.Equal(t, io.Discard, cfg.Output)
	})
}

func TestLoggerLevels(t *testing.T) {
	t.Run("Should respect level filtering", func(t *testing.T) {
		l, buf := bufferedLogger(WarnLevel, false)

		l.Debug("debug message")
		l.Info("info message")
		l.Warn("warn message")
		l.Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("Should emit nothing when disabled", func(t *testing.T) {
		l, buf := bufferedLogger(DisabledLevel, false)

		l.Error("error message")

		assert.Empty(t, buf.String())
	})
}
