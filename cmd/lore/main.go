package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/lthms/lore/internal/lore"
	"github.com/lthms/lore/internal/store"
)

// CLI is the top-level command structure for lore.
type CLI struct {
	Debug  bool      `env:"LORE_DEBUG" help:"Enable debug logging."`
	Browse BrowseCmd `cmd:"" default:"withargs" help:"Browse and edit a lore database."`
	Import ImportCmd `cmd:"" help:"Merge a YAML or JSON snapshot into a lore database."`
	Export ExportCmd `cmd:"" help:"Write a lore database as a YAML or JSON snapshot."`
	MCP    MCPCmd    `cmd:"" name:"mcp" help:"Serve read-only lore tools over MCP on stdio."`
}

// errNoDatabase is returned when neither a flag nor the config names a
// database file.
var errNoDatabase = errors.New("no database given: pass --db or set store.path in the config")

// resolveDB picks the database path from a flag, falling back to config.
func resolveDB(flag string, cfg *UserConfig) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path, nil
	}
	return "", errNoDatabase
}

// openStore opens the SQLite database at path.
func openStore(path string) (lore.Store, error) {
	s, err := store.Open(store.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return s, nil
}

// closeStore closes s if it holds resources.
func closeStore(s lore.Store) {
	c, ok := s.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}

func main() {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("lore"),
		kong.Description("Browse and edit a knowledge base of entities, relationships and history."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			os.Exit(code)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lore: %v\n", err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := loadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lore: %v\n", err)
		os.Exit(1)
	}

	level := logLevel(cli.Debug, cfg)
	setupLogger(level)
	ctx.Bind(cfg, level)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

// logLevel resolves the slog level from the debug flag and config.
func logLevel(debug bool, cfg *UserConfig) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func setupLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
