// Package loretest provides an in-memory lore.Store for tests.
package loretest

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lthms/lore/internal/lore"
)

// MemStore is an in-memory lore.Store. It keeps rows in slices so that
// duplicate history items and relationships can be planted on purpose.
// Set Fail to make every subsequent call return that error; set FailOn to
// fail only the named methods.
type MemStore struct {
	Columns  []lore.EntityColumn
	Entities []lore.Label
	History  []lore.HistoryItem
	Rels     []lore.Relationship
	Fail     error
	FailOn   map[string]error
	Calls    []string
	Writes   int
}

var _ lore.Store = (*MemStore)(nil)

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{}
}

func (m *MemStore) call(name string) error {
	m.Calls = append(m.Calls, name)
	if m.Fail != nil {
		return &lore.StoreError{Op: name, Err: m.Fail}
	}
	if err, ok := m.FailOn[name]; ok {
		return &lore.StoreError{Op: name, Err: err}
	}
	return nil
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *MemStore) hasEntity(l lore.Label) bool {
	return slices.Contains(m.Entities, l)
}

func (m *MemStore) Labels(nameFilter string) ([]lore.Label, error) {
	if err := m.call("Labels"); err != nil {
		return nil, err
	}
	var out []lore.Label
	for _, l := range m.Entities {
		if contains(string(l), nameFilter) {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *MemStore) Descriptors(label lore.Label, nameFilter string) ([]lore.Descriptor, error) {
	if err := m.call("Descriptors"); err != nil {
		return nil, err
	}
	var out []lore.Descriptor
	for _, c := range m.Columns {
		if c.Label == label && contains(string(c.Descriptor), nameFilter) {
			out = append(out, c.Descriptor)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *MemStore) Description(label lore.Label, descriptor lore.Descriptor) (*lore.Description, error) {
	if err := m.call("Description"); err != nil {
		return nil, err
	}
	for _, c := range m.Columns {
		if c.Label == label && c.Descriptor == descriptor {
			return c.Description, nil
		}
	}
	return nil, nil
}

func (m *MemStore) Years(filter *lore.Year) ([]lore.Year, error) {
	if err := m.call("Years"); err != nil {
		return nil, err
	}
	var out []lore.Year
	for _, h := range m.History {
		if filter != nil && h.Year != *filter {
			continue
		}
		if !slices.Contains(out, h.Year) {
			out = append(out, h.Year)
		}
	}
	slices.Sort(out)
	return out, nil
}

func dayLess(a, b lore.Day) bool {
	an, aok := a.Value()
	bn, bok := b.Value()
	if aok != bok {
		return !aok
	}
	return an < bn
}

func (m *MemStore) Days(year lore.Year, filter *lore.Day) ([]lore.Day, error) {
	if err := m.call("Days"); err != nil {
		return nil, err
	}
	var out []lore.Day
	for _, h := range m.History {
		if h.Year != year || (filter != nil && h.Day != *filter) {
			continue
		}
		if !slices.Contains(out, h.Day) {
			out = append(out, h.Day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return dayLess(out[i], out[j]) })
	return out, nil
}

func (m *MemStore) Timestamps(year lore.Year, day *lore.Day, filter *lore.Timestamp) ([]lore.Timestamp, error) {
	if err := m.call("Timestamps"); err != nil {
		return nil, err
	}
	var out []lore.Timestamp
	for _, h := range m.History {
		if h.Year != year || (day != nil && h.Day != *day) || (filter != nil && h.Timestamp != *filter) {
			continue
		}
		out = append(out, h.Timestamp)
	}
	slices.Sort(out)
	return out, nil
}

func (m *MemStore) HistoryItemsAt(ts lore.Timestamp) ([]lore.HistoryItem, error) {
	if err := m.call("HistoryItemsAt"); err != nil {
		return nil, err
	}
	var out []lore.HistoryItem
	for _, h := range m.History {
		if h.Timestamp == ts {
			out = append(out, h)
		}
	}
	return out, nil
}

func matches(l lore.Label, m *lore.LabelMatch) bool {
	if m == nil {
		return true
	}
	if m.Exact {
		return l == m.Label
	}
	return contains(string(l), string(m.Label))
}

func (m *MemStore) Relationships(parent, child *lore.LabelMatch) ([]lore.Relationship, error) {
	if err := m.call("Relationships"); err != nil {
		return nil, err
	}
	var out []lore.Relationship
	for _, r := range m.Rels {
		if matches(r.Parent, parent) && matches(r.Child, child) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent < out[j].Parent
		}
		return out[i].Child < out[j].Child
	})
	return out, nil
}

var errNotFound = errors.New("not found")
var errExists = errors.New("already exists")

func (m *MemStore) write(name string) error {
	if err := m.call(name); err != nil {
		return err
	}
	m.Writes++
	return nil
}

func (m *MemStore) CreateEntity(label lore.Label) error {
	if err := m.write("CreateEntity"); err != nil {
		return err
	}
	if m.hasEntity(label) {
		return &lore.StoreError{Op: "create entity", Err: errExists}
	}
	m.Entities = append(m.Entities, label)
	return nil
}

func (m *MemStore) RelabelEntity(old, new lore.Label) error {
	if err := m.write("RelabelEntity"); err != nil {
		return err
	}
	i := slices.Index(m.Entities, old)
	if i < 0 {
		return &lore.StoreError{Op: "relabel entity", Err: errNotFound}
	}
	m.Entities[i] = new
	for j := range m.Columns {
		if m.Columns[j].Label == old {
			m.Columns[j].Label = new
		}
	}
	for j := range m.Rels {
		if m.Rels[j].Parent == old {
			m.Rels[j].Parent = new
		}
		if m.Rels[j].Child == old {
			m.Rels[j].Child = new
		}
	}
	return nil
}

func (m *MemStore) DeleteEntity(label lore.Label) error {
	if err := m.write("DeleteEntity"); err != nil {
		return err
	}
	m.Entities = slices.DeleteFunc(m.Entities, func(l lore.Label) bool { return l == label })
	m.Columns = slices.DeleteFunc(m.Columns, func(c lore.EntityColumn) bool { return c.Label == label })
	m.Rels = slices.DeleteFunc(m.Rels, func(r lore.Relationship) bool { return r.Parent == label || r.Child == label })
	return nil
}

func (m *MemStore) column(label lore.Label, d lore.Descriptor) int {
	return slices.IndexFunc(m.Columns, func(c lore.EntityColumn) bool {
		return c.Label == label && c.Descriptor == d
	})
}

func (m *MemStore) CreateDescriptor(label lore.Label, descriptor lore.Descriptor) error {
	if err := m.write("CreateDescriptor"); err != nil {
		return err
	}
	if !m.hasEntity(label) {
		return &lore.StoreError{Op: "create descriptor", Err: errNotFound}
	}
	if m.column(label, descriptor) >= 0 {
		return &lore.StoreError{Op: "create descriptor", Err: errExists}
	}
	m.Columns = append(m.Columns, lore.EntityColumn{Label: label, Descriptor: descriptor})
	return nil
}

func (m *MemStore) RenameDescriptor(label lore.Label, old, new lore.Descriptor) error {
	if err := m.write("RenameDescriptor"); err != nil {
		return err
	}
	i := m.column(label, old)
	if i < 0 {
		return &lore.StoreError{Op: "rename descriptor", Err: errNotFound}
	}
	m.Columns[i].Descriptor = new
	return nil
}

func (m *MemStore) DeleteDescriptor(label lore.Label, descriptor lore.Descriptor) error {
	if err := m.write("DeleteDescriptor"); err != nil {
		return err
	}
	i := m.column(label, descriptor)
	if i < 0 {
		return &lore.StoreError{Op: "delete descriptor", Err: errNotFound}
	}
	m.Columns = slices.Delete(m.Columns, i, i+1)
	return nil
}

func (m *MemStore) SetDescription(label lore.Label, descriptor lore.Descriptor, text *lore.Description) error {
	if err := m.write("SetDescription"); err != nil {
		return err
	}
	i := m.column(label, descriptor)
	if i < 0 {
		return &lore.StoreError{Op: "set description", Err: errNotFound}
	}
	m.Columns[i].Description = text
	return nil
}

func sameRole(a, b *lore.Role) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *MemStore) CreateRelationship(rel lore.Relationship) error {
	if err := m.write("CreateRelationship"); err != nil {
		return err
	}
	if !m.hasEntity(rel.Parent) || !m.hasEntity(rel.Child) {
		return &lore.StoreError{Op: "create relationship", Err: errNotFound}
	}
	m.Rels = append(m.Rels, rel)
	return nil
}

func (m *MemStore) ChangeRole(rel lore.Relationship, role *lore.Role) error {
	if err := m.write("ChangeRole"); err != nil {
		return err
	}
	for i, r := range m.Rels {
		if r.Parent == rel.Parent && r.Child == rel.Child && sameRole(r.Role, rel.Role) {
			m.Rels[i].Role = role
			return nil
		}
	}
	return &lore.StoreError{Op: "change role", Err: errNotFound}
}

func (m *MemStore) DeleteRelationship(rel lore.Relationship) error {
	if err := m.write("DeleteRelationship"); err != nil {
		return err
	}
	m.Rels = slices.DeleteFunc(m.Rels, func(r lore.Relationship) bool {
		return r.Parent == rel.Parent && r.Child == rel.Child && sameRole(r.Role, rel.Role)
	})
	return nil
}

func (m *MemStore) WriteHistoryItems(items []lore.HistoryItem) error {
	if err := m.write("WriteHistoryItems"); err != nil {
		return err
	}
	m.History = append(m.History, items...)
	return nil
}

func (m *MemStore) history(ts lore.Timestamp) (int, error) {
	i := slices.IndexFunc(m.History, func(h lore.HistoryItem) bool { return h.Timestamp == ts })
	if i < 0 {
		return -1, fmt.Errorf("history item %d: %w", ts, errNotFound)
	}
	return i, nil
}

func (m *MemStore) RedateHistoryItem(ts lore.Timestamp, year lore.Year, day lore.Day) error {
	if err := m.write("RedateHistoryItem"); err != nil {
		return err
	}
	i, err := m.history(ts)
	if err != nil {
		return &lore.StoreError{Op: "redate history item", Err: err}
	}
	m.History[i].Year = year
	m.History[i].Day = day
	return nil
}

func (m *MemStore) DeleteHistoryItem(ts lore.Timestamp) error {
	if err := m.write("DeleteHistoryItem"); err != nil {
		return err
	}
	m.History = slices.DeleteFunc(m.History, func(h lore.HistoryItem) bool { return h.Timestamp == ts })
	return nil
}

func (m *MemStore) SetHistoryContent(ts lore.Timestamp, content lore.HistoryContent) error {
	if err := m.write("SetHistoryContent"); err != nil {
		return err
	}
	i, err := m.history(ts)
	if err != nil {
		return &lore.StoreError{Op: "set history content", Err: err}
	}
	m.History[i].Content = content
	return nil
}

// Entity adds an entity with the given descriptors and descriptions.
// Pairs alternate descriptor, description; an empty description is stored
// as absent.
func (m *MemStore) Entity(label lore.Label, pairs ...string) *MemStore {
	m.Entities = append(m.Entities, label)
	for i := 0; i+1 < len(pairs); i += 2 {
		col := lore.EntityColumn{Label: label, Descriptor: lore.Descriptor(pairs[i])}
		if pairs[i+1] != "" {
			d := lore.Description(pairs[i+1])
			col.Description = &d
		}
		m.Columns = append(m.Columns, col)
	}
	return m
}

// Item adds a history item.
func (m *MemStore) Item(ts lore.Timestamp, year lore.Year, day lore.Day, content string) *MemStore {
	m.History = append(m.History, lore.HistoryItem{Timestamp: ts, Year: year, Day: day, Content: lore.HistoryContent(content)})
	return m
}

// Rel adds a relationship; an empty role is stored as absent.
func (m *MemStore) Rel(parent, child lore.Label, role string) *MemStore {
	m.Rels = append(m.Rels, lore.Relationship{Parent: parent, Child: child, Role: lore.RolePtr(role)})
	return m
}
