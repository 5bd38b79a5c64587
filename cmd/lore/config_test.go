package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFileMissing(t *testing.T) {
	cfg, err := loadConfigFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if !cfg.UI.Markdown || cfg.UI.GlamourStyle != "auto" || cfg.UI.LogLines != 500 || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte(`[store]
path = "/srv/lore.db"

[ui]
markdown = false
glamour_style = ""

[log]
level = "debug"
`), 0600)

	cfg, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if cfg.Store.Path != "/srv/lore.db" {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if cfg.UI.Markdown {
		t.Error("ui.markdown = true, want false")
	}
	if cfg.UI.GlamourStyle != "auto" {
		t.Errorf("empty glamour_style not defaulted: %q", cfg.UI.GlamourStyle)
	}
	if got := logLevel(false, cfg); got != slog.LevelDebug {
		t.Errorf("logLevel = %v, want debug", got)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[store\npath = 1"), 0600)
	if _, err := loadConfigFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"~/lore.db":   filepath.Join(home, "lore.db"),
		"~":           home,
		"/abs/db":     "/abs/db",
		"rel/db":      "rel/db",
		"~other/x.db": "~other/x.db",
	}
	for in, want := range tests {
		if got := expandHome(in); got != want {
			t.Errorf("expandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	cfg := defaultConfig()
	if got := logLevel(true, cfg); got != slog.LevelDebug {
		t.Errorf("debug flag = %v", got)
	}
	cfg.Log.Level = "warn"
	if got := logLevel(false, cfg); got != slog.LevelWarn {
		t.Errorf("warn = %v", got)
	}
	cfg.Log.Level = "loud"
	if got := logLevel(false, cfg); got != slog.LevelInfo {
		t.Errorf("unknown level = %v, want info", got)
	}
}

func TestResolveDB(t *testing.T) {
	cfg := defaultConfig()
	if _, err := resolveDB("", cfg); !errors.Is(err, errNoDatabase) {
		t.Errorf("err = %v, want errNoDatabase", err)
	}
	cfg.Store.Path = "/from/config.db"
	if got, _ := resolveDB("", cfg); got != "/from/config.db" {
		t.Errorf("config path = %q", got)
	}
	if got, _ := resolveDB("/flag.db", cfg); got != "/flag.db" {
		t.Errorf("flag path = %q", got)
	}
}
