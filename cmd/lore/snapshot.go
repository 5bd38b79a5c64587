package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/lthms/lore/internal/store"
)

// ImportCmd merges a snapshot file into a database.
type ImportCmd struct {
	File   string `arg:"" type:"existingfile" help:"Snapshot to import."`
	DB     string `type:"path" help:"Database to import into. Defaults to store.path from the config."`
	Format string `enum:"auto,yaml,json" default:"auto" help:"Snapshot format (${enum})."`
	Yes    bool   `short:"y" help:"Do not ask before merging into a non-empty database."`
}

// ExportCmd writes a database as a snapshot.
type ExportCmd struct {
	DB     string `type:"path" help:"Database to export. Defaults to store.path from the config."`
	Format string `enum:"yaml,json" default:"yaml" help:"Snapshot format (${enum})."`
	Output string `short:"o" type:"path" help:"Write to this file instead of stdout."`
}

func (cmd *ImportCmd) Run(cfg *UserConfig) error {
	path, err := resolveDB(cmd.DB, cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()

	format := store.Format(cmd.Format)
	if cmd.Format == "auto" {
		format = store.FormatOf(cmd.File)
	}
	snap, err := store.DecodeSnapshot(f, format)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.File, err)
	}

	s, err := store.Open(store.Config{Path: path})
	if err != nil {
		return err
	}
	defer s.Close()

	if !cmd.Yes {
		empty, err := s.Empty()
		if err != nil {
			return err
		}
		if !empty {
			ok, err := confirmImport(path, snap)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Import cancelled.")
				return nil
			}
		}
	}

	if err := s.Import(snap); err != nil {
		return err
	}
	fmt.Printf("Imported %d entities, %d relationships and %d history items into %s.\n",
		len(snap.Entities), len(snap.Relationships), len(snap.History), path)
	return nil
}

// newForm creates a form with appropriate settings based on TTY detection.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

func confirmImport(path string, snap *store.Snapshot) (bool, error) {
	merge := false
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s is not empty. Merge %d entities, %d relationships and %d history items into it?",
					path, len(snap.Entities), len(snap.Relationships), len(snap.History))).
				Description("Descriptors and history items present in both are overwritten by the snapshot.").
				Value(&merge).
				Affirmative("Merge").
				Negative("Cancel"),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return merge, nil
}

func (cmd *ExportCmd) Run(cfg *UserConfig) error {
	path, err := resolveDB(cmd.DB, cfg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	s, err := store.Open(store.Config{Path: path})
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.Export()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if cmd.Output != "" {
		f, err := os.Create(cmd.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return snap.Encode(w, store.Format(cmd.Format))
}
