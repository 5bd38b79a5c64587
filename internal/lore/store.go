package lore

import (
	"fmt"
	"log/slog"
)

// Store is a backing store for lore. Every method is a single blocking,
// all-or-nothing operation. Query results come back in a stable order and
// free of duplicates, except where a duplicate row is itself an integrity
// problem (history items sharing a timestamp, repeated relationships).
type Store interface {
	Labels(nameFilter string) ([]Label, error)
	Descriptors(label Label, nameFilter string) ([]Descriptor, error)
	Description(label Label, descriptor Descriptor) (*Description, error)

	Years(filter *Year) ([]Year, error)
	Days(year Year, filter *Day) ([]Day, error)
	Timestamps(year Year, day *Day, filter *Timestamp) ([]Timestamp, error)
	HistoryItemsAt(ts Timestamp) ([]HistoryItem, error)

	Relationships(parent, child *LabelMatch) ([]Relationship, error)

	CreateEntity(label Label) error
	RelabelEntity(old, new Label) error
	DeleteEntity(label Label) error
	CreateDescriptor(label Label, descriptor Descriptor) error
	RenameDescriptor(label Label, old, new Descriptor) error
	DeleteDescriptor(label Label, descriptor Descriptor) error
	SetDescription(label Label, descriptor Descriptor, text *Description) error

	CreateRelationship(rel Relationship) error
	ChangeRole(rel Relationship, role *Role) error
	DeleteRelationship(rel Relationship) error

	WriteHistoryItems(items []HistoryItem) error
	RedateHistoryItem(ts Timestamp, year Year, day Day) error
	DeleteHistoryItem(ts Timestamp) error
	SetHistoryContent(ts Timestamp, content HistoryContent) error
}

// Querier is the read side of the store as the views consume it.
type Querier interface {
	QueryLabels(nameFilter string) ([]Label, error)
	QueryDescriptors(label Label, nameFilter string) ([]Descriptor, error)
	GetDescription(label Label, descriptor Descriptor) (*Description, error)
	QueryYears(filter *Year) ([]Year, error)
	QueryDays(year Year, filter *Day) ([]Day, error)
	QueryTimestamps(year Year, day *Day, filter *Timestamp) ([]Timestamp, error)
	GetContent(ts Timestamp) (*HistoryContent, error)
	GetHistoryItem(ts Timestamp) (*HistoryItem, error)
	QueryRelationships(parent, child *LabelMatch) ([]Relationship, error)
}

// Conn is the connection to a possibly absent store. With no store, every
// query returns an empty result and every mutation fails with ErrNoStore.
// The zero Conn is disconnected.
type Conn struct {
	store Store
}

var _ Querier = (*Conn)(nil)

// NewConn returns a connection to s. A nil s gives a disconnected Conn.
func NewConn(s Store) *Conn {
	return &Conn{store: s}
}

// Connected reports whether a store is attached.
func (c *Conn) Connected() bool {
	return c != nil && c.store != nil
}

// Store returns the attached store, or nil.
func (c *Conn) Store() Store {
	if c == nil {
		return nil
	}
	return c.store
}

func (c *Conn) QueryLabels(nameFilter string) ([]Label, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Labels(nameFilter)
}

func (c *Conn) QueryDescriptors(label Label, nameFilter string) ([]Descriptor, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Descriptors(label, nameFilter)
}

func (c *Conn) GetDescription(label Label, descriptor Descriptor) (*Description, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Description(label, descriptor)
}

func (c *Conn) QueryYears(filter *Year) ([]Year, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Years(filter)
}

func (c *Conn) QueryDays(year Year, filter *Day) ([]Day, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Days(year, filter)
}

func (c *Conn) QueryTimestamps(year Year, day *Day, filter *Timestamp) ([]Timestamp, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Timestamps(year, day, filter)
}

// GetHistoryItem returns the history item at ts, or nil if there is none.
// More than one item at ts is reported as ErrMultipleResults.
func (c *Conn) GetHistoryItem(ts Timestamp) (*HistoryItem, error) {
	if !c.Connected() {
		return nil, nil
	}
	items, err := c.store.HistoryItemsAt(ts)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return &items[0], nil
	}
	slog.Warn("duplicate history timestamp", "timestamp", ts, "count", len(items))
	return nil, fmt.Errorf("history item %d: %w", ts, ErrMultipleResults)
}

// GetContent returns the content of the history item at ts.
func (c *Conn) GetContent(ts Timestamp) (*HistoryContent, error) {
	item, err := c.GetHistoryItem(ts)
	if err != nil || item == nil {
		return nil, err
	}
	content := item.Content
	return &content, nil
}

func (c *Conn) QueryRelationships(parent, child *LabelMatch) ([]Relationship, error) {
	if !c.Connected() {
		return nil, nil
	}
	return c.store.Relationships(parent, child)
}

// Mutate runs fn against the store, or fails with ErrNoStore.
func (c *Conn) Mutate(fn func(Store) error) error {
	if !c.Connected() {
		return ErrNoStore
	}
	return fn(c.store)
}
