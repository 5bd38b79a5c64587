package browser

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/lthms/lore/internal/cascade"
	"github.com/lthms/lore/internal/colview"
	"github.com/lthms/lore/internal/lore"
)

// Mutation is a change to the lore store requested from one of the views.
// The set of variants is closed; Apply dispatches on it.
type Mutation interface{ mutation() }

// Entity view mutations. Descriptor mutations act on the selected label.
type (
	CreateEntity struct{ Label string }

	RelabelEntity struct {
		Old lore.Label
		New string
	}

	DeleteEntity struct{ Label lore.Label }

	CreateDescriptor struct{ Descriptor string }

	RenameDescriptor struct {
		Old lore.Descriptor
		New string
	}

	DeleteDescriptor struct{ Descriptor lore.Descriptor }

	// SaveDescription replaces the description of the selected descriptor.
	// Blank text clears it.
	SaveDescription struct{ Text string }
)

// Relationship view mutations.
type (
	CreateRelationship struct {
		Parent, Child string
		Role          string
	}

	// ChangeRole needs a relationship that was resolved unambiguously, see
	// Browser.SelectedRelationship.
	ChangeRole struct {
		Relationship lore.Relationship
		NewRole      string
	}

	DeleteRelationship struct{ Relationship lore.Relationship }
)

// History view mutations.
type (
	// CreateHistoryItem records a new item stamped with the current time.
	// Day may be empty; Properties is a list of key=value pairs.
	CreateHistoryItem struct {
		Year, Day  string
		Content    string
		Properties string
	}

	RedateHistoryItem struct {
		Timestamp lore.Timestamp
		Year, Day string
	}

	DeleteHistoryItem struct{ Timestamp lore.Timestamp }

	// SaveHistoryContent replaces the content of the selected item.
	SaveHistoryContent struct{ Content string }
)

func (CreateEntity) mutation()       {}
func (RelabelEntity) mutation()      {}
func (DeleteEntity) mutation()       {}
func (CreateDescriptor) mutation()   {}
func (RenameDescriptor) mutation()   {}
func (DeleteDescriptor) mutation()   {}
func (SaveDescription) mutation()    {}
func (CreateRelationship) mutation() {}
func (ChangeRole) mutation()         {}
func (DeleteRelationship) mutation() {}
func (CreateHistoryItem) mutation()  {}
func (RedateHistoryItem) mutation()  {}
func (DeleteHistoryItem) mutation()  {}
func (SaveHistoryContent) mutation() {}

// Apply validates m, writes it to the store and refreshes the affected
// view. Nothing is written when validation fails. If the write succeeds
// but the refresh does not, the error is a *lore.StaleViewError and the
// view keeps showing the state from before the write.
func (b *Browser) Apply(m Mutation) error {
	if !b.conn.Connected() {
		return lore.ErrNoStore
	}
	slog.Debug("apply mutation", "mutation", m)

	switch m := m.(type) {
	case CreateEntity:
		label, err := lore.ParseLabel(m.Label)
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.CreateEntity(label) },
			func() error { return b.showLabel(colview.Some(label)) },
		)

	case RelabelEntity:
		label, err := lore.ParseLabel(m.New)
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.RelabelEntity(m.Old, label) },
			func() error { return b.showLabel(colview.Some(label)) },
			b.resetRelationships,
		)

	case DeleteEntity:
		return b.commit(
			func(s lore.Store) error { return s.DeleteEntity(m.Label) },
			func() error { return b.showLabel(colview.None[lore.Label]()) },
			b.resetRelationships,
		)

	case CreateDescriptor:
		label, err := b.selectedLabel()
		if err != nil {
			return err
		}
		d, err := lore.ParseDescriptor(m.Descriptor)
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.CreateDescriptor(label, d) },
			func() error { return b.showDescriptor(colview.Some(d)) },
		)

	case RenameDescriptor:
		label, err := b.selectedLabel()
		if err != nil {
			return err
		}
		d, err := lore.ParseDescriptor(m.New)
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.RenameDescriptor(label, m.Old, d) },
			func() error { return b.showDescriptor(colview.Some(d)) },
		)

	case DeleteDescriptor:
		label, err := b.selectedLabel()
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.DeleteDescriptor(label, m.Descriptor) },
			func() error { return b.showDescriptor(colview.None[lore.Descriptor]()) },
		)

	case SaveDescription:
		label, err := b.selectedLabel()
		if err != nil {
			return err
		}
		d, ok := b.entity.Descriptors.SelectedValue()
		if !ok {
			return lore.Inputf("select a descriptor first")
		}
		var text *lore.Description
		if strings.TrimSpace(m.Text) != "" {
			t := lore.Description(m.Text)
			text = &t
		}
		return b.commit(
			func(s lore.Store) error { return s.SetDescription(label, d, text) },
			func() error { return b.showDescriptor(colview.Some(d)) },
		)

	case CreateRelationship:
		parent, err := lore.ParseLabel(m.Parent)
		if err != nil {
			return err
		}
		child, err := lore.ParseLabel(m.Child)
		if err != nil {
			return err
		}
		rel := lore.Relationship{Parent: parent, Child: child, Role: lore.RolePtr(strings.TrimSpace(m.Role))}
		return b.commit(
			func(s lore.Store) error { return s.CreateRelationship(rel) },
			b.clearRelationshipSearch,
		)

	case ChangeRole:
		role := lore.RolePtr(strings.TrimSpace(m.NewRole))
		return b.commit(
			func(s lore.Store) error { return s.ChangeRole(m.Relationship, role) },
			b.refreshRelationships,
		)

	case DeleteRelationship:
		return b.commit(
			func(s lore.Store) error { return s.DeleteRelationship(m.Relationship) },
			b.refreshRelationships,
		)

	case CreateHistoryItem:
		item, err := b.newHistoryItem(m)
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.WriteHistoryItems([]lore.HistoryItem{item}) },
			func() error { return b.showHistoryItem(item) },
		)

	case RedateHistoryItem:
		year, err := lore.ParseYear(m.Year)
		if err != nil {
			return err
		}
		day, err := lore.ParseDay(m.Day)
		if err != nil {
			return err
		}
		return b.commit(
			func(s lore.Store) error { return s.RedateHistoryItem(m.Timestamp, year, day) },
			func() error { return b.reselectTimestamp(m.Timestamp) },
		)

	case DeleteHistoryItem:
		return b.commit(
			func(s lore.Store) error { return s.DeleteHistoryItem(m.Timestamp) },
			b.refreshHistory,
		)

	case SaveHistoryContent:
		ts, ok := b.history.Timestamps.SelectedValue()
		if !ok {
			return lore.Inputf("select a history item first")
		}
		return b.commit(
			func(s lore.Store) error { return s.SetHistoryContent(ts, lore.HistoryContent(m.Content)) },
			func() error { return b.UpdateHistoryView(cascade.SelectTimestamp{Timestamp: colview.Some(ts)}) },
		)
	}
	return lore.Inputf("unsupported change %T", m)
}

// commit writes through the store, then runs each refresh in order. The
// refreshes replace view state as they go; if one fails, every view is put
// back as it was before the write.
func (b *Browser) commit(write func(lore.Store) error, refresh ...func() error) error {
	if err := b.conn.Mutate(write); err != nil {
		return err
	}
	entity, history, relationship := b.entity, b.history, b.relationship
	for _, r := range refresh {
		if err := r(); err != nil {
			b.entity, b.history, b.relationship = entity, history, relationship
			slog.Warn("view refresh after write failed", "error", err)
			return &lore.StaleViewError{Err: err}
		}
	}
	return nil
}

func (b *Browser) selectedLabel() (lore.Label, error) {
	label, ok := b.entity.Labels.SelectedValue()
	if !ok {
		return "", lore.Inputf("select an entity first")
	}
	return label, nil
}

// showLabel clears the label search and selects sel.
func (b *Browser) showLabel(sel colview.Entry[lore.Label]) error {
	e, err := b.entity.Handle(b.conn, cascade.SearchLabel{})
	if err != nil {
		return err
	}
	if e, err = e.Handle(b.conn, cascade.SelectLabel{Label: sel}); err != nil {
		return err
	}
	b.entity = e
	return nil
}

// showDescriptor clears the descriptor search and selects sel.
func (b *Browser) showDescriptor(sel colview.Entry[lore.Descriptor]) error {
	e, err := b.entity.Handle(b.conn, cascade.SearchDescriptor{})
	if err != nil {
		return err
	}
	if e, err = e.Handle(b.conn, cascade.SelectDescriptor{Descriptor: sel}); err != nil {
		return err
	}
	b.entity = e
	return nil
}

func (b *Browser) resetRelationships() error {
	r, err := b.relationship.Reset(b.conn)
	if err != nil {
		return err
	}
	b.relationship = r
	return nil
}

func (b *Browser) refreshRelationships() error {
	r, err := b.relationship.Refresh(b.conn)
	if err != nil {
		return err
	}
	b.relationship = r
	return nil
}

func (b *Browser) clearRelationshipSearch() error {
	r := b.relationship
	r.Parents.SetSearchText("")
	r.Children.SetSearchText("")
	r, err := r.Refresh(b.conn)
	if err != nil {
		return err
	}
	b.relationship = r
	return nil
}

func (b *Browser) newHistoryItem(m CreateHistoryItem) (lore.HistoryItem, error) {
	year, err := lore.ParseYear(m.Year)
	if err != nil {
		return lore.HistoryItem{}, err
	}
	day, err := lore.ParseDay(m.Day)
	if err != nil {
		return lore.HistoryItem{}, err
	}
	props, err := lore.ParseProperties(m.Properties)
	if err != nil {
		return lore.HistoryItem{}, err
	}
	return lore.HistoryItem{
		Timestamp:  lore.Timestamp(b.now().UnixMicro()),
		Year:       year,
		Day:        day,
		Content:    lore.HistoryContent(m.Content),
		Properties: props,
	}, nil
}

// showHistoryItem clears every history search and selects item down to
// its timestamp.
func (b *Browser) showHistoryItem(item lore.HistoryItem) error {
	h := b.history
	h.Days.SetSearchText("")
	h.Timestamps.SetSearchText("")
	events := []cascade.HistoryEvent{
		cascade.SearchYear{},
		cascade.SelectYear{Year: colview.Some(item.Year)},
		cascade.SelectDay{Day: colview.Some(item.Day)},
		cascade.SelectTimestamp{Timestamp: colview.Some(item.Timestamp)},
	}
	for _, ev := range events {
		var err error
		if h, err = h.Handle(b.conn, ev); err != nil {
			return err
		}
	}
	b.history = h
	return nil
}

// reselectTimestamp refreshes the history view and selects ts again if the
// current year and day still list it. Otherwise every selection is cleared.
func (b *Browser) reselectTimestamp(ts lore.Timestamp) error {
	h, err := b.history.Refresh(b.conn)
	if err != nil {
		return err
	}
	if slices.Contains(h.Timestamps.Values(), ts) {
		h, err = h.Handle(b.conn, cascade.SelectTimestamp{Timestamp: colview.Some(ts)})
	} else {
		h, err = h.Reset(b.conn)
	}
	if err != nil {
		return err
	}
	b.history = h
	return nil
}

// refreshHistory reloads the history view keeping only the year selection.
func (b *Browser) refreshHistory() error {
	h := b.history
	h.Days.SelectNone()
	h, err := h.Refresh(b.conn)
	if err != nil {
		return err
	}
	b.history = h
	return nil
}
