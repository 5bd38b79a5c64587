package store

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/lthms/lore/internal/lore"
)

// Snapshot is the portable form of a whole lore database.
type Snapshot struct {
	Entities      []SnapshotEntity       `yaml:"entities" json:"entities"`
	Relationships []SnapshotRelationship `yaml:"relationships,omitempty" json:"relationships,omitempty"`
	History       []SnapshotHistoryItem  `yaml:"history,omitempty" json:"history,omitempty"`
}

type SnapshotEntity struct {
	Label       string               `yaml:"label" json:"label"`
	Descriptors []SnapshotDescriptor `yaml:"descriptors,omitempty" json:"descriptors,omitempty"`
}

type SnapshotDescriptor struct {
	Name        string  `yaml:"name" json:"name"`
	Description *string `yaml:"description,omitempty" json:"description,omitempty"`
}

type SnapshotRelationship struct {
	Parent string  `yaml:"parent" json:"parent"`
	Child  string  `yaml:"child" json:"child"`
	Role   *string `yaml:"role,omitempty" json:"role,omitempty"`
}

type SnapshotHistoryItem struct {
	Timestamp  int64             `yaml:"timestamp" json:"timestamp"`
	Year       int32             `yaml:"year" json:"year"`
	Day        *uint32           `yaml:"day,omitempty" json:"day,omitempty"`
	Content    string            `yaml:"content" json:"content"`
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// Format names a snapshot encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf guesses the snapshot format from a file extension, defaulting
// to YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode writes snap to w.
func (snap *Snapshot) Encode(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown snapshot format %q", f)
}

// DecodeSnapshot reads a snapshot from r.
func DecodeSnapshot(r io.Reader, f Format) (*Snapshot, error) {
	var snap Snapshot
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&snap); err != nil {
			return nil, fmt.Errorf("decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&snap); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", f)
	}
	return &snap, nil
}

// Export reads the whole database into a snapshot.
func (s *Store) Export() (*Snapshot, error) {
	snap := &Snapshot{}

	labels, err := s.Labels("")
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		e := SnapshotEntity{Label: string(l)}
		rows, err := s.db.Query(
			`SELECT descriptor, description FROM descriptors WHERE label = ? ORDER BY descriptor`, string(l))
		if err != nil {
			return nil, storeErr("export descriptors", err)
		}
		for rows.Next() {
			var (
				d    SnapshotDescriptor
				text sql.NullString
			)
			if err := rows.Scan(&d.Name, &text); err != nil {
				rows.Close()
				return nil, storeErr("export descriptors", err)
			}
			if text.Valid {
				d.Description = &text.String
			}
			e.Descriptors = append(e.Descriptors, d)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, storeErr("export descriptors", err)
		}
		snap.Entities = append(snap.Entities, e)
	}

	rels, err := s.Relationships(nil, nil)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		r := SnapshotRelationship{Parent: string(rel.Parent), Child: string(rel.Child)}
		if rel.Role != nil {
			role := string(*rel.Role)
			r.Role = &role
		}
		snap.Relationships = append(snap.Relationships, r)
	}

	items, err := queryColumn(s.db, "export history",
		`SELECT timestamp, year, day, content, properties FROM history_items ORDER BY timestamp, id`,
		nil, scanHistoryItem)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		h := SnapshotHistoryItem{
			Timestamp:  int64(item.Timestamp),
			Year:       int32(item.Year),
			Content:    string(item.Content),
			Properties: item.Properties,
		}
		if n, ok := item.Day.Value(); ok {
			h.Day = &n
		}
		snap.History = append(snap.History, h)
	}
	return snap, nil
}

// Import merges snap into the database in one transaction. Existing
// entities are kept and descriptors are overwritten. A relationship already
// present with the same role is skipped. History items replace the stored
// items at their timestamp, so importing the same snapshot twice leaves the
// database unchanged.
func (s *Store) Import(snap *Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storeErr("import", err)
	}
	defer tx.Rollback()

	for _, e := range snap.Entities {
		if _, err := lore.ParseLabel(e.Label); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO entities (label) VALUES (?)`, e.Label); err != nil {
			return storeErr("import entity "+e.Label, err)
		}
		for _, d := range e.Descriptors {
			var text any
			if d.Description != nil {
				text = *d.Description
			}
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO descriptors (label, descriptor, description) VALUES (?, ?, ?)`,
				e.Label, d.Name, text,
			); err != nil {
				return storeErr("import descriptor "+d.Name, err)
			}
		}
	}
	for _, r := range snap.Relationships {
		role := roleArg(lore.RolePtr(deref(r.Role)))
		if _, err := tx.Exec(
			`INSERT INTO relationships (parent, child, role)
			 SELECT ?, ?, ?
			 WHERE NOT EXISTS (
			   SELECT 1 FROM relationships WHERE parent = ? AND child = ? AND role IS ?
			 )`,
			r.Parent, r.Child, role, r.Parent, r.Child, role,
		); err != nil {
			return storeErr("import relationship "+r.Parent+" -> "+r.Child, err)
		}
	}
	replaced := make(map[int64]bool, len(snap.History))
	for _, h := range snap.History {
		if replaced[h.Timestamp] {
			continue
		}
		replaced[h.Timestamp] = true
		if _, err := tx.Exec(`DELETE FROM history_items WHERE timestamp = ?`, h.Timestamp); err != nil {
			return storeErr("import history", err)
		}
	}
	for _, h := range snap.History {
		item := lore.HistoryItem{
			Timestamp:  lore.Timestamp(h.Timestamp),
			Year:       lore.Year(h.Year),
			Day:        lore.NoDay,
			Content:    lore.HistoryContent(h.Content),
			Properties: h.Properties,
		}
		if h.Day != nil {
			item.Day = lore.DayOf(*h.Day)
		}
		if err := insertHistoryItem(tx, item); err != nil {
			return storeErr("import history", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("import", err)
	}
	slog.Info("snapshot imported",
		"entities", len(snap.Entities),
		"relationships", len(snap.Relationships),
		"history", len(snap.History))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
