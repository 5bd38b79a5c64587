package cascade

import (
	"fmt"
	"log/slog"

	"github.com/lthms/lore/internal/colview"
	"github.com/lthms/lore/internal/lore"
)

// RelationshipEvent is one user action on the relationship view.
type RelationshipEvent interface{ relationshipEvent() }

type SearchParent struct{ Text string }
type SelectParent struct{ Parent colview.Entry[lore.Label] }
type SearchChild struct{ Text string }
type SelectChild struct{ Child colview.Entry[lore.Label] }

func (SearchParent) relationshipEvent() {}
func (SelectParent) relationshipEvent() {}
func (SearchChild) relationshipEvent()  {}
func (SelectChild) relationshipEvent()  {}

// Relationship is the parent <-> child -> role cascade. Parent and child
// each restrict the candidates of the other; the role is derived from the
// selected pair and resolves to at most one value.
type Relationship struct {
	Parents  colview.State[lore.Label]
	Children colview.State[lore.Label]
	Role     colview.Entry[lore.Role]
}

// NewRelationship returns an empty relationship cascade.
func NewRelationship() Relationship {
	return Relationship{
		Parents:  colview.New[lore.Label](),
		Children: colview.New[lore.Label](),
	}
}

// Handle applies ev and recomputes everything that depends on it.
func (prev Relationship) Handle(q lore.Querier, ev RelationshipEvent) (Relationship, error) {
	slog.Debug("relationship view event", "event", ev)
	r := prev
	var err error
	switch ev := ev.(type) {
	case SearchParent:
		r.Parents.SetSearchText(ev.Text)
		err = r.updateParents(q)
	case SelectParent:
		r.Parents.SetSelected(ev.Parent)
		if err = r.updateChildren(q); err != nil {
			break
		}
		err = r.updateRole(q)
	case SearchChild:
		r.Children.SetSearchText(ev.Text)
		err = r.updateChildren(q)
	case SelectChild:
		r.Children.SetSelected(ev.Child)
		if err = r.updateParents(q); err != nil {
			break
		}
		err = r.updateRole(q)
	}
	if err != nil {
		return prev, err
	}
	return r, nil
}

// Reset clears both selections and reloads both columns and the role.
func (r Relationship) Reset(q lore.Querier) (Relationship, error) {
	next := r
	next.Parents.SelectNone()
	next.Children.SelectNone()
	next, err := next.Refresh(q)
	if err != nil {
		return r, err
	}
	return next, nil
}

// Refresh reloads both columns and the role, keeping selections.
func (prev Relationship) Refresh(q lore.Querier) (Relationship, error) {
	r := prev
	if err := r.updateParents(q); err != nil {
		return prev, err
	}
	if err := r.updateChildren(q); err != nil {
		return prev, err
	}
	if err := r.updateRole(q); err != nil {
		return prev, err
	}
	return r, nil
}

// Resolve returns the one relationship between the selected parent and
// child.
func (r Relationship) Resolve(q lore.Querier) (lore.Relationship, error) {
	parent, pok := r.Parents.SelectedValue()
	child, cok := r.Children.SelectedValue()
	if !pok || !cok {
		return lore.Relationship{}, lore.Inputf("select a parent and a child first")
	}
	rel, found, err := findRelationship(q, parent, child)
	if err != nil {
		return lore.Relationship{}, err
	}
	if !found {
		return lore.Relationship{}, lore.Inputf("no relationship from %s to %s", parent, child)
	}
	return rel, nil
}

func (r *Relationship) updateParents(q lore.Querier) error {
	var parent, child *lore.LabelMatch
	if text := r.Parents.SearchText(); text != "" {
		parent = lore.Containing(text)
	}
	if c, ok := r.Children.SelectedValue(); ok {
		child = lore.Exactly(c)
	}
	rels, err := q.QueryRelationships(parent, child)
	if err != nil {
		return err
	}
	r.Parents.SetEntries(distinct(rels, func(rel lore.Relationship) lore.Label { return rel.Parent }))
	return nil
}

func (r *Relationship) updateChildren(q lore.Querier) error {
	var parent, child *lore.LabelMatch
	if p, ok := r.Parents.SelectedValue(); ok {
		parent = lore.Exactly(p)
	}
	if text := r.Children.SearchText(); text != "" {
		child = lore.Containing(text)
	}
	rels, err := q.QueryRelationships(parent, child)
	if err != nil {
		return err
	}
	r.Children.SetEntries(distinct(rels, func(rel lore.Relationship) lore.Label { return rel.Child }))
	return nil
}

func (r *Relationship) updateRole(q lore.Querier) error {
	parent, pok := r.Parents.SelectedValue()
	child, cok := r.Children.SelectedValue()
	if !pok || !cok {
		r.Role = colview.None[lore.Role]()
		return nil
	}
	rel, found, err := findRelationship(q, parent, child)
	if err != nil {
		return err
	}
	if !found {
		r.Role = colview.None[lore.Role]()
		return nil
	}
	r.Role = colview.FromPtr(rel.Role)
	return nil
}

func findRelationship(q lore.Querier, parent, child lore.Label) (lore.Relationship, bool, error) {
	rels, err := q.QueryRelationships(lore.Exactly(parent), lore.Exactly(child))
	if err != nil {
		return lore.Relationship{}, false, err
	}
	switch len(rels) {
	case 0:
		return lore.Relationship{}, false, nil
	case 1:
		return rels[0], true, nil
	}
	slog.Warn("duplicate relationship", "parent", parent, "child", child, "count", len(rels))
	return lore.Relationship{}, false, fmt.Errorf("relationship %s -> %s: %w", parent, child, lore.ErrMultipleResults)
}

// distinct extracts labels in first-seen order.
func distinct(rels []lore.Relationship, label func(lore.Relationship) lore.Label) []lore.Label {
	seen := make(map[lore.Label]bool, len(rels))
	var out []lore.Label
	for _, rel := range rels {
		l := label(rel)
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
