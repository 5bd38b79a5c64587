package lore_test

import (
	"errors"
	"testing"

	"github.com/lthms/lore/internal/lore"
	"github.com/lthms/lore/internal/lore/loretest"
)

func TestConn_NoStore(t *testing.T) {
	for _, c := range []*lore.Conn{nil, {}, lore.NewConn(nil)} {
		if c.Connected() {
			t.Fatal("connected without a store")
		}
		if labels, err := c.QueryLabels(""); err != nil || len(labels) != 0 {
			t.Errorf("QueryLabels = %v, %v", labels, err)
		}
		if years, err := c.QueryYears(nil); err != nil || len(years) != 0 {
			t.Errorf("QueryYears = %v, %v", years, err)
		}
		if content, err := c.GetContent(1); err != nil || content != nil {
			t.Errorf("GetContent = %v, %v", content, err)
		}
		if rels, err := c.QueryRelationships(nil, nil); err != nil || len(rels) != 0 {
			t.Errorf("QueryRelationships = %v, %v", rels, err)
		}
		err := c.Mutate(func(s lore.Store) error { return s.CreateEntity("x") })
		if !errors.Is(err, lore.ErrNoStore) {
			t.Errorf("Mutate err = %v, want ErrNoStore", err)
		}
	}
}

func TestConn_GetContent(t *testing.T) {
	c := lore.NewConn(loretest.New().Item(10, 1, lore.NoDay, "hello"))
	content, err := c.GetContent(10)
	if err != nil || content == nil || *content != "hello" {
		t.Fatalf("GetContent = %v, %v", content, err)
	}
	if content, err := c.GetContent(11); err != nil || content != nil {
		t.Errorf("missing timestamp = %v, %v", content, err)
	}
}

func TestConn_DuplicateTimestamp(t *testing.T) {
	c := lore.NewConn(loretest.New().
		Item(10, 1, lore.NoDay, "a").
		Item(10, 2, lore.DayOf(3), "b"))
	if _, err := c.GetContent(10); !errors.Is(err, lore.ErrMultipleResults) {
		t.Errorf("err = %v, want ErrMultipleResults", err)
	}
}

func TestConn_MutateReachesStore(t *testing.T) {
	m := loretest.New()
	c := lore.NewConn(m)
	if err := c.Mutate(func(s lore.Store) error { return s.CreateEntity("Alice") }); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if m.Writes != 1 || len(m.Entities) != 1 {
		t.Errorf("writes %d, entities %v", m.Writes, m.Entities)
	}
}
