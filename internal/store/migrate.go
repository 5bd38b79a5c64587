package store

import (
	"database/sql"
	"fmt"
)

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			label TEXT PRIMARY KEY
		)`,

		// Descriptor names are unique per entity; the description may be absent
		`CREATE TABLE IF NOT EXISTS descriptors (
			label       TEXT NOT NULL REFERENCES entities(label) ON UPDATE CASCADE ON DELETE CASCADE,
			descriptor  TEXT NOT NULL,
			description TEXT,
			PRIMARY KEY (label, descriptor)
		)`,

		// Duplicate (parent, child) pairs are not prevented here; readers
		// report them as an integrity error
		`CREATE TABLE IF NOT EXISTS relationships (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			parent TEXT NOT NULL REFERENCES entities(label) ON UPDATE CASCADE ON DELETE CASCADE,
			child  TEXT NOT NULL REFERENCES entities(label) ON UPDATE CASCADE ON DELETE CASCADE,
			role   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS relationships_pair ON relationships (parent, child)`,

		// History items; properties is a JSON object
		`CREATE TABLE IF NOT EXISTS history_items (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			year       INTEGER NOT NULL,
			day        INTEGER,
			content    TEXT NOT NULL DEFAULT '',
			properties TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS history_items_timestamp ON history_items (timestamp)`,
		`CREATE INDEX IF NOT EXISTS history_items_date ON history_items (year, day)`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", truncate(s, 60), err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
