// Package cascade keeps the dependent columns of the lore views consistent.
//
// A cascade is a value. Handle applies one event to a copy and returns the
// copy once every column downstream of the change has been recomputed; on
// error the caller keeps the previous value, so no partial update is ever
// observable. Cascades only read from the store; writes belong to the
// orchestrator in package browser.
package cascade

import (
	"log/slog"

	"github.com/lthms/lore/internal/colview"
	"github.com/lthms/lore/internal/lore"
)

// EntityEvent is one user action on the entity view.
type EntityEvent interface{ entityEvent() }

// SearchLabel changes the label search text.
type SearchLabel struct{ Text string }

// SelectLabel changes the label selection.
type SelectLabel struct{ Label colview.Entry[lore.Label] }

// SearchDescriptor changes the descriptor search text.
type SearchDescriptor struct{ Text string }

// SelectDescriptor changes the descriptor selection.
type SelectDescriptor struct {
	Descriptor colview.Entry[lore.Descriptor]
}

func (SearchLabel) entityEvent()      {}
func (SelectLabel) entityEvent()      {}
func (SearchDescriptor) entityEvent() {}
func (SelectDescriptor) entityEvent() {}

// Entity is the label -> descriptor -> description cascade.
type Entity struct {
	Labels      colview.State[lore.Label]
	Descriptors colview.State[lore.Descriptor]
	Description colview.Entry[lore.Description]
}

// NewEntity returns an empty entity cascade.
func NewEntity() Entity {
	return Entity{
		Labels:      colview.New[lore.Label](),
		Descriptors: colview.New[lore.Descriptor](),
	}
}

// Handle applies ev and recomputes everything downstream of it.
func (prev Entity) Handle(q lore.Querier, ev EntityEvent) (Entity, error) {
	slog.Debug("entity view event", "event", ev)
	e := prev
	var err error
	switch ev := ev.(type) {
	case SearchLabel:
		e.Labels.SetSearchText(ev.Text)
		if err = e.updateLabels(q); err != nil {
			break
		}
		e.Descriptors.SelectNone()
		err = e.updateDescriptors(q)
	case SelectLabel:
		e.Labels.SetSelected(ev.Label)
		e.Descriptors.SelectNone()
		err = e.updateDescriptors(q)
	case SearchDescriptor:
		e.Descriptors.SetSearchText(ev.Text)
		err = e.updateDescriptors(q)
	case SelectDescriptor:
		e.Descriptors.SetSelected(ev.Descriptor)
		err = e.updateDescription(q)
	}
	if err != nil {
		return prev, err
	}
	return e, nil
}

// Reset clears both selections and reloads from the label column down.
// Search texts are kept.
func (prev Entity) Reset(q lore.Querier) (Entity, error) {
	e := prev
	e.Labels.SelectNone()
	e.Descriptors.SelectNone()
	if err := e.updateLabels(q); err != nil {
		return prev, err
	}
	if err := e.updateDescriptors(q); err != nil {
		return prev, err
	}
	return e, nil
}

func (e *Entity) updateLabels(q lore.Querier) error {
	labels, err := q.QueryLabels(e.Labels.SearchText())
	if err != nil {
		return err
	}
	e.Labels.SetEntries(labels)
	return nil
}

func (e *Entity) updateDescriptors(q lore.Querier) error {
	label, ok := e.Labels.SelectedValue()
	if !ok {
		e.Descriptors.SetEntries(nil)
		return e.updateDescription(q)
	}
	descriptors, err := q.QueryDescriptors(label, e.Descriptors.SearchText())
	if err != nil {
		return err
	}
	e.Descriptors.SetEntries(descriptors)
	return e.updateDescription(q)
}

func (e *Entity) updateDescription(q lore.Querier) error {
	label, ok := e.Labels.SelectedValue()
	descriptor, dok := e.Descriptors.SelectedValue()
	if !ok || !dok {
		e.Description = colview.None[lore.Description]()
		return nil
	}
	text, err := q.GetDescription(label, descriptor)
	if err != nil {
		return err
	}
	e.Description = colview.FromPtr(text)
	return nil
}
