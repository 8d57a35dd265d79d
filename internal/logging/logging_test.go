package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		" WARN ":   slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"info":     slog.LevelInfo,
		"":         slog.LevelInfo,
		"verbose?": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriterFormats(t *testing.T) {
	t.Parallel()

	var text bytes.Buffer
	Component(NewWriter(&text, "info", "text"), "sweeper").Debug("hidden")
	Component(NewWriter(&text, "info", "text"), "sweeper").Info("probed", "source_id", 3)
	if out := text.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "component=sweeper") {
		t.Fatalf("unexpected text output %q", out)
	}

	var js bytes.Buffer
	NewWriter(&js, "debug", "JSON").Info("run finished")
	if !strings.HasPrefix(js.String(), "{") || !strings.Contains(js.String(), `"msg":"run finished"`) {
		t.Fatalf("unexpected json output %q", js.String())
	}
}
