package store

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lthms/lore/internal/lore"
)

// Labels returns entity labels containing nameFilter, sorted.
func (s *Store) Labels(nameFilter string) ([]lore.Label, error) {
	var w where
	w.contains("label", nameFilter)
	return queryColumn(s.db, "query labels",
		`SELECT label FROM entities`+w.String()+` ORDER BY label`,
		w.args, scanString[lore.Label])
}

// Descriptors returns the descriptor names of label containing nameFilter.
func (s *Store) Descriptors(label lore.Label, nameFilter string) ([]lore.Descriptor, error) {
	var w where
	w.add("label = ?", string(label))
	w.contains("descriptor", nameFilter)
	return queryColumn(s.db, "query descriptors",
		`SELECT descriptor FROM descriptors`+w.String()+` ORDER BY descriptor`,
		w.args, scanString[lore.Descriptor])
}

// Description returns the description of a descriptor, or nil if the
// descriptor does not exist or has none.
func (s *Store) Description(label lore.Label, descriptor lore.Descriptor) (*lore.Description, error) {
	var text sql.NullString
	err := s.db.QueryRow(
		`SELECT description FROM descriptors WHERE label = ? AND descriptor = ?`,
		string(label), string(descriptor),
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !text.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get description", err)
	}
	d := lore.Description(text.String)
	return &d, nil
}

// CreateEntity inserts a new entity with no descriptors.
func (s *Store) CreateEntity(label lore.Label) error {
	if _, err := s.db.Exec(`INSERT INTO entities (label) VALUES (?)`, string(label)); err != nil {
		return storeErr("create entity", err)
	}
	slog.Info("entity created", "label", label)
	return nil
}

// RelabelEntity renames an entity. Descriptors and relationships follow
// through the foreign keys.
func (s *Store) RelabelEntity(old, new lore.Label) error {
	res, err := s.db.Exec(`UPDATE entities SET label = ? WHERE label = ?`, string(new), string(old))
	if err != nil {
		return storeErr("relabel entity", err)
	}
	if err := mustAffect("relabel entity", res, "entity "+string(old)); err != nil {
		return err
	}
	slog.Info("entity relabeled", "old", old, "new", new)
	return nil
}

// DeleteEntity removes an entity with its descriptors and relationships.
func (s *Store) DeleteEntity(label lore.Label) error {
	res, err := s.db.Exec(`DELETE FROM entities WHERE label = ?`, string(label))
	if err != nil {
		return storeErr("delete entity", err)
	}
	if err := mustAffect("delete entity", res, "entity "+string(label)); err != nil {
		return err
	}
	slog.Info("entity deleted", "label", label)
	return nil
}

// CreateDescriptor adds a descriptor without description to label.
func (s *Store) CreateDescriptor(label lore.Label, descriptor lore.Descriptor) error {
	_, err := s.db.Exec(
		`INSERT INTO descriptors (label, descriptor, description) VALUES (?, ?, NULL)`,
		string(label), string(descriptor),
	)
	if err != nil {
		return storeErr("create descriptor", err)
	}
	slog.Info("descriptor created", "label", label, "descriptor", descriptor)
	return nil
}

func (s *Store) RenameDescriptor(label lore.Label, old, new lore.Descriptor) error {
	res, err := s.db.Exec(
		`UPDATE descriptors SET descriptor = ? WHERE label = ? AND descriptor = ?`,
		string(new), string(label), string(old),
	)
	if err != nil {
		return storeErr("rename descriptor", err)
	}
	if err := mustAffect("rename descriptor", res, "descriptor "+string(old)); err != nil {
		return err
	}
	slog.Info("descriptor renamed", "label", label, "old", old, "new", new)
	return nil
}

func (s *Store) DeleteDescriptor(label lore.Label, descriptor lore.Descriptor) error {
	res, err := s.db.Exec(
		`DELETE FROM descriptors WHERE label = ? AND descriptor = ?`,
		string(label), string(descriptor),
	)
	if err != nil {
		return storeErr("delete descriptor", err)
	}
	if err := mustAffect("delete descriptor", res, "descriptor "+string(descriptor)); err != nil {
		return err
	}
	slog.Info("descriptor deleted", "label", label, "descriptor", descriptor)
	return nil
}

// SetDescription replaces the description of a descriptor; nil clears it.
func (s *Store) SetDescription(label lore.Label, descriptor lore.Descriptor, text *lore.Description) error {
	var arg any
	if text != nil {
		arg = string(*text)
	}
	res, err := s.db.Exec(
		`UPDATE descriptors SET description = ? WHERE label = ? AND descriptor = ?`,
		arg, string(label), string(descriptor),
	)
	if err != nil {
		return storeErr("set description", err)
	}
	if err := mustAffect("set description", res, "descriptor "+string(descriptor)); err != nil {
		return err
	}
	slog.Info("description saved", "label", label, "descriptor", descriptor)
	return nil
}
