package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// UserConfig holds user-level configuration loaded from ~/.config/lore/config.toml.
type UserConfig struct {
	Store StoreConfig `toml:"store"`
	UI    UIConfig    `toml:"ui"`
	Log   LogConfig   `toml:"log"`
}

// StoreConfig names the database opened when none is given on the command line.
type StoreConfig struct {
	Path string `toml:"path"`
}

// UIConfig configures the browser.
type UIConfig struct {
	Markdown     bool   `toml:"markdown"`
	GlamourStyle string `toml:"glamour_style"`
	LogLines     int    `toml:"log_lines"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func defaultConfig() *UserConfig {
	return &UserConfig{
		UI: UIConfig{
			Markdown:     true,
			GlamourStyle: "auto",
			LogLines:     500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// loadUserConfig reads ~/.config/lore/config.toml and returns the parsed
// config with defaults applied. If the file does not exist, defaults are
// returned with no error.
func loadUserConfig() (*UserConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home dir: %w", err)
	}
	return loadConfigFile(filepath.Join(home, ".config", "lore", "config.toml"))
}

func loadConfigFile(path string) (*UserConfig, error) {
	cfg := defaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Re-apply defaults for empty fields
	if cfg.UI.GlamourStyle == "" {
		cfg.UI.GlamourStyle = "auto"
	}
	if cfg.UI.LogLines <= 0 {
		cfg.UI.LogLines = 500
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	return cfg, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := cutHomePrefix(path)
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func cutHomePrefix(path string) (string, bool) {
	if path == "~" {
		return "", true
	}
	if len(path) >= 2 && path[0] == '~' && path[1] == '/' {
		return path[2:], true
	}
	return "", false
}

// stateDir returns ~/.local/state/lore, creating it if needed.
func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".local", "state", "lore")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}
