package browser

import (
	"maps"
	"slices"
	"strings"

	"github.com/lthms/lore/internal/lore"
)

// SelectedRelationship resolves the relationship between the selected
// parent and child, for building ChangeRole and DeleteRelationship.
func (b *Browser) SelectedRelationship() (lore.Relationship, error) {
	return b.relationship.Resolve(b.conn)
}

// SelectedHistoryItem returns the item at the selected timestamp, or an
// input error if there is none.
func (b *Browser) SelectedHistoryItem() (lore.HistoryItem, error) {
	ts, ok := b.history.Timestamps.SelectedValue()
	if !ok {
		return lore.HistoryItem{}, lore.Inputf("select a history item first")
	}
	item, err := b.conn.GetHistoryItem(ts)
	if err != nil {
		return lore.HistoryItem{}, err
	}
	if item == nil {
		return lore.HistoryItem{}, lore.Inputf("history item %s no longer exists", ts)
	}
	return *item, nil
}

// Prefill holds the initial field values of an edit dialog.
type Prefill struct {
	Label      string
	Descriptor string
	Text       string
	Year, Day  string
}

// EntityPrefill returns the current label, descriptor and description for
// relabel, rename and edit dialogs.
func (b *Browser) EntityPrefill() Prefill {
	var p Prefill
	if l, ok := b.entity.Labels.SelectedValue(); ok {
		p.Label = string(l)
	}
	if d, ok := b.entity.Descriptors.SelectedValue(); ok {
		p.Descriptor = string(d)
	}
	if t, ok := b.entity.Description.Get(); ok {
		p.Text = string(t)
	}
	return p
}

// HistoryPrefill returns the date and content of the selected item for
// redate and edit dialogs. New items default to the selected year and day.
func (b *Browser) HistoryPrefill() Prefill {
	var p Prefill
	if y, ok := b.history.Years.SelectedValue(); ok {
		p.Year = y.String()
	}
	if d, ok := b.history.Days.SelectedValue(); ok && !d.IsNone() {
		p.Day = d.String()
	}
	if c, ok := b.history.Content.Get(); ok {
		p.Text = string(c)
	}
	return p
}

// FormatProperties renders properties the way ParseProperties reads them.
func FormatProperties(props map[string]string) string {
	keys := slices.Sorted(maps.Keys(props))
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + props[k]
	}
	return strings.Join(pairs, ", ")
}
