package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseLevel(tc.in); got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("text handler filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "warn", false)
		l.Info("hidden")
		l.Warn("shown", "kind", "CaptureFailed")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info line should be filtered: %s", out)
		}
		if !strings.Contains(out, "kind=CaptureFailed") {
			t.Errorf("expected text attrs, got: %s", out)
		}
	})

	t.Run("json handler", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "debug", true)
		l.Debug("classified", "label", "strawberry")

		if !strings.Contains(buf.String(), `"label":"strawberry"`) {
			t.Errorf("expected JSON output, got: %s", buf.String())
		}
	})
}
