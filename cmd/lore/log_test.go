package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func texts(entries []logEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.text
	}
	return out
}

func TestLogBuffer(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		add         []string
		want        []string
		wantDropped int
	}{
		{"empty", 3, nil, []string{}, 0},
		{"partial", 3, []string{"a", "b"}, []string{"a", "b"}, 0},
		{"exactly full", 3, []string{"a", "b", "c"}, []string{"a", "b", "c"}, 0},
		{"wrapped", 2, []string{"a", "b", "c"}, []string{"b", "c"}, 1},
		{"wrapped twice", 2, []string{"a", "b", "c", "d", "e"}, []string{"d", "e"}, 3},
		{"zero size keeps one", 0, []string{"a", "b"}, []string{"b"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newLogBuffer(tt.size)
			for _, s := range tt.add {
				b.add(slog.LevelInfo, s)
			}
			entries, dropped := b.snapshot()
			if got := texts(entries); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("entries = %v, want %v", got, tt.want)
			}
			if dropped != tt.wantDropped {
				t.Errorf("dropped = %d, want %d", dropped, tt.wantDropped)
			}
		})
	}
}

func TestBufferHandler(t *testing.T) {
	buf := newLogBuffer(10)
	logger := slog.New(newBufferHandler(buf, slog.LevelInfo)).With("db", "lore.db")
	logger.Debug("hidden")
	logger.Info("entity created", "label", "Alice", "note", "two words")

	entries, _ := buf.snapshot()
	if len(entries) != 1 {
		t.Fatalf("entries = %v", texts(entries))
	}
	line := entries[0].text
	for _, want := range []string{"INFO", "entity created", "db=lore.db", "label=Alice", `note="two words"`} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q lacks %q", line, want)
		}
	}
	if entries[0].level != slog.LevelInfo {
		t.Errorf("level = %v", entries[0].level)
	}
}

func TestFanoutHandler(t *testing.T) {
	quiet, loud := newLogBuffer(10), newLogBuffer(10)
	logger := slog.New(fanoutHandler{
		newBufferHandler(quiet, slog.LevelWarn),
		newBufferHandler(loud, slog.LevelDebug),
	})
	logger.Debug("detail")
	logger.Warn("problem")

	if got, _ := quiet.snapshot(); len(got) != 1 || !strings.Contains(got[0].text, "problem") {
		t.Errorf("warn handler got %v", texts(got))
	}
	if got, _ := loud.snapshot(); len(got) != 2 {
		t.Errorf("debug handler got %v", texts(got))
	}
}

func TestRenderLogs(t *testing.T) {
	buf := newLogBuffer(2)
	buf.add(slog.LevelInfo, "first")
	buf.add(slog.LevelWarn, "second")
	buf.add(slog.LevelError, "third")
	out := renderLogs(buf)
	if strings.Contains(out, "first") {
		t.Errorf("overwritten line shown: %q", out)
	}
	for _, want := range []string{"1 older lines dropped", "second", "third"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestBrowseLoggerFileLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "lore.log")
	buf := newLogBuffer(10)
	closeLog := setupBrowseLogger(buf, slog.LevelInfo, path)
	slog.Debug("cascade detail")
	slog.Info("entity created", "label", "Alice")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); strings.Contains(got, "cascade detail") || !strings.Contains(got, "entity created") {
		t.Errorf("log file = %q", got)
	}
	if entries, _ := buf.snapshot(); len(entries) != 1 {
		t.Errorf("buffer = %v", texts(entries))
	}
}
