// Package browser owns the three lore views and the store connection they
// read from. It dispatches view events to the cascades, applies mutations
// to the store, and refreshes the affected view afterwards.
package browser

import (
	"log/slog"
	"time"

	"github.com/lthms/lore/internal/cascade"
	"github.com/lthms/lore/internal/lore"
)

// Browser holds the view state of one lore session. The zero value is not
// usable; call New.
type Browser struct {
	conn         *lore.Conn
	entity       cascade.Entity
	history      cascade.History
	relationship cascade.Relationship

	now func() time.Time
}

// Option configures a Browser.
type Option func(*Browser)

// WithClock overrides the clock used to stamp new history items.
func WithClock(now func() time.Time) Option {
	return func(b *Browser) { b.now = now }
}

// New returns a disconnected browser with empty views.
func New(opts ...Option) *Browser {
	b := &Browser{
		conn:         lore.NewConn(nil),
		entity:       cascade.NewEntity(),
		history:      cascade.NewHistory(),
		relationship: cascade.NewRelationship(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Entity returns the entity view.
func (b *Browser) Entity() cascade.Entity { return b.entity }

// History returns the history view.
func (b *Browser) History() cascade.History { return b.history }

// Relationship returns the relationship view.
func (b *Browser) Relationship() cascade.Relationship { return b.relationship }

// Connected reports whether a store is attached.
func (b *Browser) Connected() bool { return b.conn.Connected() }

// Connect attaches s, replacing any previous store, and reloads every view
// from empty. The store stays attached even if reloading fails.
func (b *Browser) Connect(s lore.Store) error {
	b.conn = lore.NewConn(s)
	slog.Info("store connected")
	return b.reload()
}

// Disconnect detaches the store and returns it so the caller can close it.
// Every view is emptied.
func (b *Browser) Disconnect() lore.Store {
	s := b.conn.Store()
	b.conn = lore.NewConn(nil)
	// Without a store every query is empty, so reload cannot fail.
	_ = b.reload()
	if s != nil {
		slog.Info("store disconnected")
	}
	return s
}

func (b *Browser) reload() error {
	b.entity = cascade.NewEntity()
	b.history = cascade.NewHistory()
	b.relationship = cascade.NewRelationship()

	entity, err := b.entity.Reset(b.conn)
	if err != nil {
		return err
	}
	history, err := b.history.Reset(b.conn)
	if err != nil {
		return err
	}
	relationship, err := b.relationship.Reset(b.conn)
	if err != nil {
		return err
	}
	b.entity, b.history, b.relationship = entity, history, relationship
	return nil
}

// UpdateEntityView applies ev to the entity view. On error the view is left
// as it was.
func (b *Browser) UpdateEntityView(ev cascade.EntityEvent) error {
	next, err := b.entity.Handle(b.conn, ev)
	if err != nil {
		return err
	}
	b.entity = next
	return nil
}

// UpdateHistoryView applies ev to the history view.
func (b *Browser) UpdateHistoryView(ev cascade.HistoryEvent) error {
	next, err := b.history.Handle(b.conn, ev)
	if err != nil {
		return err
	}
	b.history = next
	return nil
}

// UpdateRelationshipView applies ev to the relationship view.
func (b *Browser) UpdateRelationshipView(ev cascade.RelationshipEvent) error {
	next, err := b.relationship.Handle(b.conn, ev)
	if err != nil {
		return err
	}
	b.relationship = next
	return nil
}
