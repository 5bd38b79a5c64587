package store

import (
	"database/sql"
	"log/slog"

	"github.com/lthms/lore/internal/lore"
)

func matchLabel(w *where, col string, m *lore.LabelMatch) {
	switch {
	case m == nil:
	case m.Exact:
		w.add(col+" = ?", string(m.Label))
	default:
		w.contains(col, string(m.Label))
	}
}

// Relationships returns every relationship whose parent and child match.
// A nil match accepts any label.
func (s *Store) Relationships(parent, child *lore.LabelMatch) ([]lore.Relationship, error) {
	var w where
	matchLabel(&w, "parent", parent)
	matchLabel(&w, "child", child)
	return queryColumn(s.db, "query relationships",
		`SELECT parent, child, role FROM relationships`+w.String()+` ORDER BY parent, child, id`,
		w.args, func(rows *sql.Rows) (lore.Relationship, error) {
			var (
				rel  lore.Relationship
				role sql.NullString
			)
			err := rows.Scan(&rel.Parent, &rel.Child, &role)
			rel.Role = roleFrom(role)
			return rel, err
		})
}

func (s *Store) CreateRelationship(rel lore.Relationship) error {
	_, err := s.db.Exec(
		`INSERT INTO relationships (parent, child, role) VALUES (?, ?, ?)`,
		string(rel.Parent), string(rel.Child), roleArg(rel.Role),
	)
	if err != nil {
		return storeErr("create relationship", err)
	}
	slog.Info("relationship created", "parent", rel.Parent, "child", rel.Child, "role", rel.RoleString())
	return nil
}

// ChangeRole sets the role of one relationship matching rel exactly.
func (s *Store) ChangeRole(rel lore.Relationship, role *lore.Role) error {
	res, err := s.db.Exec(
		`UPDATE relationships SET role = ? WHERE id = (
			SELECT id FROM relationships WHERE parent = ? AND child = ? AND role IS ? ORDER BY id LIMIT 1
		)`,
		roleArg(role), string(rel.Parent), string(rel.Child), roleArg(rel.Role),
	)
	if err != nil {
		return storeErr("change role", err)
	}
	if err := mustAffect("change role", res, "relationship "+string(rel.Parent)+" -> "+string(rel.Child)); err != nil {
		return err
	}
	slog.Info("relationship role changed", "parent", rel.Parent, "child", rel.Child, "role", lore.Relationship{Role: role}.RoleString())
	return nil
}

func (s *Store) DeleteRelationship(rel lore.Relationship) error {
	res, err := s.db.Exec(
		`DELETE FROM relationships WHERE parent = ? AND child = ? AND role IS ?`,
		string(rel.Parent), string(rel.Child), roleArg(rel.Role),
	)
	if err != nil {
		return storeErr("delete relationship", err)
	}
	if err := mustAffect("delete relationship", res, "relationship "+string(rel.Parent)+" -> "+string(rel.Child)); err != nil {
		return err
	}
	slog.Info("relationship deleted", "parent", rel.Parent, "child", rel.Child)
	return nil
}
