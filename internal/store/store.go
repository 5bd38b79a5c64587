// Package store implements lore.Store on top of a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lthms/lore/internal/lore"

	_ "modernc.org/sqlite"
)

// ErrNotFound is wrapped by updates that matched no row.
var ErrNotFound = errors.New("not found")

// Config holds store initialization parameters.
type Config struct {
	Path string // path to SQLite file
}

// Store is a lore database backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ lore.Store = (*Store)(nil)

// Open opens (or creates) the lore database at the configured path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path must not be empty")
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, path: cfg.Path}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Empty reports whether the database holds no entities, relationships or
// history items.
func (s *Store) Empty() (bool, error) {
	var empty bool
	err := s.db.QueryRow(`SELECT
		NOT EXISTS (SELECT 1 FROM entities)
		AND NOT EXISTS (SELECT 1 FROM relationships)
		AND NOT EXISTS (SELECT 1 FROM history_items)`).Scan(&empty)
	if err != nil {
		return false, storeErr("check empty", err)
	}
	return empty, nil
}

func storeErr(op string, err error) error {
	return &lore.StoreError{Op: op, Err: err}
}

// mustAffect turns an update that matched nothing into ErrNotFound.
func mustAffect(op string, res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return storeErr(op, fmt.Errorf("%s: %w", what, ErrNotFound))
	}
	return nil
}

func dayArg(d lore.Day) any {
	if n, ok := d.Value(); ok {
		return int64(n)
	}
	return nil
}

func dayFrom(n sql.NullInt64) lore.Day {
	if !n.Valid {
		return lore.NoDay
	}
	return lore.DayOf(uint32(n.Int64))
}

func roleArg(r *lore.Role) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

func roleFrom(s sql.NullString) *lore.Role {
	if !s.Valid {
		return nil
	}
	r := lore.Role(s.String)
	return &r
}
