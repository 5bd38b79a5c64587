package browser

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/lthms/lore/internal/cascade"
	"github.com/lthms/lore/internal/colview"
	"github.com/lthms/lore/internal/lore"
	"github.com/lthms/lore/internal/lore/loretest"
)

func connected(t *testing.T, m *loretest.MemStore, opts ...Option) *Browser {
	t.Helper()
	b := New(opts...)
	if err := b.Connect(m); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return b
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestNoStore(t *testing.T) {
	b := New()
	if b.Connected() {
		t.Fatal("new browser is connected")
	}
	must(t, b.UpdateEntityView(cascade.SearchLabel{Text: "x"}))
	if len(b.Entity().Labels.Values()) != 0 {
		t.Errorf("labels = %v", b.Entity().Labels.Values())
	}

	// NoStore wins over input validation.
	for _, m := range []Mutation{
		CreateEntity{Label: "Alice"},
		CreateEntity{Label: ""},
		CreateDescriptor{Descriptor: "age"},
		CreateHistoryItem{Year: "nope"},
	} {
		if err := b.Apply(m); !errors.Is(err, lore.ErrNoStore) {
			t.Errorf("Apply(%#v) = %v, want ErrNoStore", m, err)
		}
	}
}

func TestConnectDisconnect(t *testing.T) {
	m := loretest.New().Entity("Alice", "age", "33").Item(1, 10, lore.NoDay, "x").Rel("Alice", "Alice", "")
	b := connected(t, m)
	if got := b.Entity().Labels.Values(); !slices.Equal(got, []lore.Label{"Alice"}) {
		t.Errorf("labels = %v", got)
	}
	if got := b.History().Years.Values(); !slices.Equal(got, []lore.Year{10}) {
		t.Errorf("years = %v", got)
	}
	must(t, b.UpdateEntityView(cascade.SelectLabel{Label: colview.Some[lore.Label]("Alice")}))

	if s := b.Disconnect(); s != lore.Store(m) {
		t.Errorf("Disconnect returned %v", s)
	}
	e := b.Entity()
	if len(e.Labels.Values()) != 0 || !e.Labels.Selected().IsNone() || len(e.Descriptors.Values()) != 0 {
		t.Errorf("entity view not emptied: %+v", e)
	}
	if len(b.History().Years.Values()) != 0 || len(b.Relationship().Parents.Values()) != 0 {
		t.Error("views not emptied")
	}
	if b.Disconnect() != nil {
		t.Error("second Disconnect returned a store")
	}
}

func TestCreateDescriptorRefresh(t *testing.T) {
	m := loretest.New().Entity("Alice", "title", "Queen", "name", "Alice of Arden")
	b := connected(t, m)
	must(t, b.UpdateEntityView(cascade.SelectLabel{Label: colview.Some[lore.Label]("Alice")}))
	must(t, b.UpdateEntityView(cascade.SearchDescriptor{Text: "tit"}))
	must(t, b.UpdateEntityView(cascade.SelectDescriptor{Descriptor: colview.Some[lore.Descriptor]("title")}))

	must(t, b.Apply(CreateDescriptor{Descriptor: " age "}))

	e := b.Entity()
	if e.Descriptors.SearchText() != "" {
		t.Errorf("descriptor search = %q, want empty", e.Descriptors.SearchText())
	}
	if e.Descriptors.Selected() != colview.Some[lore.Descriptor]("age") {
		t.Errorf("selected = %v, want age", e.Descriptors.Selected())
	}
	if !e.Description.IsNone() {
		t.Errorf("description = %v, want none", e.Description)
	}
	if got := e.Descriptors.Values(); !slices.Equal(got, []lore.Descriptor{"age", "name", "title"}) {
		t.Errorf("descriptors = %v", got)
	}
}

func TestCreateDescriptorNeedsLabel(t *testing.T) {
	m := loretest.New().Entity("Alice")
	b := connected(t, m)
	err := b.Apply(CreateDescriptor{Descriptor: "age"})
	if !lore.IsInputError(err) {
		t.Fatalf("err = %v, want input error", err)
	}
	if m.Writes != 0 {
		t.Errorf("store written %d times", m.Writes)
	}
}

func TestCreateEntity(t *testing.T) {
	m := loretest.New().Entity("Bob")
	b := connected(t, m)
	must(t, b.UpdateEntityView(cascade.SearchLabel{Text: "bo"}))

	must(t, b.Apply(CreateEntity{Label: "Alice"}))
	e := b.Entity()
	if e.Labels.SearchText() != "" || e.Labels.Selected() != colview.Some[lore.Label]("Alice") {
		t.Errorf("search %q, selected %v", e.Labels.SearchText(), e.Labels.Selected())
	}
	if got := e.Labels.Values(); !slices.Equal(got, []lore.Label{"Alice", "Bob"}) {
		t.Errorf("labels = %v", got)
	}

	if err := b.Apply(CreateEntity{Label: "  "}); !lore.IsInputError(err) {
		t.Errorf("blank label err = %v", err)
	}
}

func TestRelabelAndDeleteEntity(t *testing.T) {
	m := loretest.New().Entity("A", "age", "1").Entity("B").Rel("A", "B", "ally")
	b := connected(t, m)
	must(t, b.UpdateRelationshipView(cascade.SelectParent{Parent: colview.Some[lore.Label]("A")}))

	must(t, b.Apply(RelabelEntity{Old: "A", New: "Z"}))
	if b.Entity().Labels.Selected() != colview.Some[lore.Label]("Z") {
		t.Errorf("selected = %v", b.Entity().Labels.Selected())
	}
	if got := b.Entity().Descriptors.Values(); !slices.Equal(got, []lore.Descriptor{"age"}) {
		t.Errorf("descriptors = %v", got)
	}
	r := b.Relationship()
	if !r.Parents.Selected().IsNone() || !slices.Equal(r.Parents.Values(), []lore.Label{"Z"}) {
		t.Errorf("relationship view: selected %v, parents %v", r.Parents.Selected(), r.Parents.Values())
	}

	must(t, b.Apply(DeleteEntity{Label: "Z"}))
	if !b.Entity().Labels.Selected().IsNone() {
		t.Errorf("selected after delete = %v", b.Entity().Labels.Selected())
	}
	if len(b.Relationship().Parents.Values()) != 0 {
		t.Errorf("parents = %v", b.Relationship().Parents.Values())
	}
}

func TestRenameAndDeleteDescriptor(t *testing.T) {
	m := loretest.New().Entity("A", "age", "1", "title", "")
	b := connected(t, m)
	must(t, b.UpdateEntityView(cascade.SelectLabel{Label: colview.Some[lore.Label]("A")}))

	must(t, b.Apply(RenameDescriptor{Old: "age", New: "years"}))
	e := b.Entity()
	if e.Descriptors.Selected() != colview.Some[lore.Descriptor]("years") || e.Description != colview.Some[lore.Description]("1") {
		t.Errorf("selected %v, description %v", e.Descriptors.Selected(), e.Description)
	}

	must(t, b.Apply(DeleteDescriptor{Descriptor: "years"}))
	e = b.Entity()
	if !e.Descriptors.Selected().IsNone() || !slices.Equal(e.Descriptors.Values(), []lore.Descriptor{"title"}) {
		t.Errorf("selected %v, descriptors %v", e.Descriptors.Selected(), e.Descriptors.Values())
	}
}

func TestSaveDescription(t *testing.T) {
	m := loretest.New().Entity("A", "age", "1")
	b := connected(t, m)
	if err := b.Apply(SaveDescription{Text: "2"}); !lore.IsInputError(err) {
		t.Fatalf("without selection err = %v", err)
	}
	must(t, b.UpdateEntityView(cascade.SelectLabel{Label: colview.Some[lore.Label]("A")}))
	must(t, b.UpdateEntityView(cascade.SelectDescriptor{Descriptor: colview.Some[lore.Descriptor]("age")}))

	must(t, b.Apply(SaveDescription{Text: "2"}))
	if b.Entity().Description != colview.Some[lore.Description]("2") {
		t.Errorf("description = %v", b.Entity().Description)
	}
	must(t, b.Apply(SaveDescription{Text: "  "}))
	if !b.Entity().Description.IsNone() {
		t.Errorf("blank save left %v", b.Entity().Description)
	}
}

func TestWriteFailureKeepsState(t *testing.T) {
	m := loretest.New().Entity("A")
	b := connected(t, m)
	must(t, b.UpdateEntityView(cascade.SearchLabel{Text: "a"}))
	before := b.Entity()

	m.FailOn = map[string]error{"CreateEntity": errors.New("read-only")}
	err := b.Apply(CreateEntity{Label: "B"})
	if !lore.IsStoreError(err) {
		t.Fatalf("err = %v, want store error", err)
	}
	var stale *lore.StaleViewError
	if errors.As(err, &stale) {
		t.Error("failed write reported as stale view")
	}
	if b.Entity().Labels.SearchText() != before.Labels.SearchText() {
		t.Error("view changed after failed write")
	}
}

func TestRefreshFailureIsStale(t *testing.T) {
	m := loretest.New().Entity("A")
	b := connected(t, m)
	m.FailOn = map[string]error{"Labels": errors.New("io")}

	err := b.Apply(CreateEntity{Label: "B"})
	var stale *lore.StaleViewError
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want StaleViewError", err)
	}
	if len(m.Entities) != 2 {
		t.Errorf("write not committed: %v", m.Entities)
	}
	if got := b.Entity().Labels.Values(); !slices.Equal(got, []lore.Label{"A"}) {
		t.Errorf("labels = %v, want the pre-write view", got)
	}
}

func TestStaleRefreshRestoresEveryView(t *testing.T) {
	m := loretest.New().Entity("A").Entity("B").Rel("A", "B", "ally")
	b := connected(t, m)
	must(t, b.UpdateEntityView(cascade.SelectLabel{Label: colview.Some[lore.Label]("A")}))
	must(t, b.UpdateRelationshipView(cascade.SelectParent{Parent: colview.Some[lore.Label]("A")}))
	entity, relationship := b.Entity(), b.Relationship()

	m.FailOn = map[string]error{"Relationships": errors.New("io")}
	err := b.Apply(RelabelEntity{Old: "A", New: "Z"})
	var stale *lore.StaleViewError
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want StaleViewError", err)
	}
	if !slices.Contains(m.Entities, "Z") {
		t.Fatalf("write not committed: %v", m.Entities)
	}

	e := b.Entity()
	if !slices.Equal(e.Labels.Values(), entity.Labels.Values()) || e.Labels.Selected() != entity.Labels.Selected() {
		t.Errorf("entity view moved: labels %v, selected %v", e.Labels.Values(), e.Labels.Selected())
	}
	r := b.Relationship()
	if !slices.Equal(r.Parents.Values(), relationship.Parents.Values()) || r.Parents.Selected() != relationship.Parents.Selected() {
		t.Errorf("relationship view moved: parents %v, selected %v", r.Parents.Values(), r.Parents.Selected())
	}
}

func TestRelationshipMutations(t *testing.T) {
	m := loretest.New().Entity("A").Entity("B").Entity("C").Rel("A", "B", "ally")
	b := connected(t, m)
	must(t, b.UpdateRelationshipView(cascade.SearchParent{Text: "zzz"}))

	must(t, b.Apply(CreateRelationship{Parent: "A", Child: "C", Role: ""}))
	r := b.Relationship()
	if r.Parents.SearchText() != "" || r.Children.SearchText() != "" {
		t.Errorf("searches not cleared: %q %q", r.Parents.SearchText(), r.Children.SearchText())
	}
	if got := r.Children.Values(); !slices.Equal(got, []lore.Label{"B", "C"}) {
		t.Errorf("children = %v", got)
	}

	if _, err := b.SelectedRelationship(); !lore.IsInputError(err) {
		t.Errorf("resolve without selection err = %v", err)
	}
	must(t, b.UpdateRelationshipView(cascade.SelectParent{Parent: colview.Some[lore.Label]("A")}))
	must(t, b.UpdateRelationshipView(cascade.SelectChild{Child: colview.Some[lore.Label]("C")}))
	rel, err := b.SelectedRelationship()
	must(t, err)
	if rel.Role != nil {
		t.Fatalf("role = %v", rel.RoleString())
	}

	must(t, b.Apply(ChangeRole{Relationship: rel, NewRole: "friend"}))
	if b.Relationship().Role != colview.Some[lore.Role]("friend") {
		t.Errorf("role = %v", b.Relationship().Role)
	}

	rel, err = b.SelectedRelationship()
	must(t, err)
	must(t, b.Apply(DeleteRelationship{Relationship: rel}))
	if !b.Relationship().Role.IsNone() {
		t.Errorf("role after delete = %v", b.Relationship().Role)
	}

	if err := b.Apply(CreateRelationship{Parent: "A", Child: ""}); !lore.IsInputError(err) {
		t.Errorf("blank child err = %v", err)
	}
}

func TestCreateHistoryItem(t *testing.T) {
	at := time.UnixMicro(1_700_000_000_000_000)
	m := loretest.New().Item(5, 1, lore.NoDay, "old")
	b := connected(t, m, WithClock(func() time.Time { return at }))
	must(t, b.UpdateHistoryView(cascade.SearchYear{Text: "1"}))

	must(t, b.Apply(CreateHistoryItem{Year: "2", Day: "9", Content: "new", Properties: "mood=grim"}))

	h := b.History()
	want := lore.Timestamp(at.UnixMicro())
	if h.Years.SearchText() != "" || h.Years.Selected() != colview.Some[lore.Year](2) {
		t.Errorf("year search %q, selected %v", h.Years.SearchText(), h.Years.Selected())
	}
	if h.Days.Selected() != colview.Some(lore.DayOf(9)) || h.Timestamps.Selected() != colview.Some(want) {
		t.Errorf("day %v, ts %v", h.Days.Selected(), h.Timestamps.Selected())
	}
	if h.Content != colview.Some[lore.HistoryContent]("new") {
		t.Errorf("content = %v", h.Content)
	}
	item, err := b.SelectedHistoryItem()
	must(t, err)
	if item.Properties["mood"] != "grim" {
		t.Errorf("properties = %v", item.Properties)
	}

	if err := b.Apply(CreateHistoryItem{Year: "x"}); !lore.IsInputError(err) {
		t.Errorf("bad year err = %v", err)
	}
	if err := b.Apply(CreateHistoryItem{Year: "1", Properties: "oops"}); !lore.IsInputError(err) {
		t.Errorf("bad properties err = %v", err)
	}
}

func TestRedateHistoryItem(t *testing.T) {
	m := loretest.New().
		Item(100, 1, lore.DayOf(5), "a").
		Item(200, 1, lore.DayOf(5), "b")
	b := connected(t, m)
	for _, ev := range []cascade.HistoryEvent{
		cascade.SelectYear{Year: colview.Some[lore.Year](1)},
		cascade.SelectDay{Day: colview.Some(lore.DayOf(5))},
		cascade.SelectTimestamp{Timestamp: colview.Some[lore.Timestamp](100)},
	} {
		must(t, b.UpdateHistoryView(ev))
	}

	// With no day selected the item stays listed after moving to another day.
	must(t, b.UpdateHistoryView(cascade.SelectDay{Day: colview.None[lore.Day]()}))
	must(t, b.UpdateHistoryView(cascade.SelectTimestamp{Timestamp: colview.Some[lore.Timestamp](100)}))
	must(t, b.Apply(RedateHistoryItem{Timestamp: 100, Year: "1", Day: ""}))
	h := b.History()
	if h.Timestamps.Selected() != colview.Some[lore.Timestamp](100) || h.Content != colview.Some[lore.HistoryContent]("a") {
		t.Errorf("ts %v, content %v", h.Timestamps.Selected(), h.Content)
	}
	if got := h.Days.Values(); !slices.Equal(got, []lore.Day{lore.NoDay, lore.DayOf(5)}) {
		t.Errorf("days = %v", got)
	}

	// Moved out of the selected year: everything cleared.
	must(t, b.Apply(RedateHistoryItem{Timestamp: 100, Year: "2", Day: "3"}))
	h = b.History()
	if !h.Years.Selected().IsNone() || !h.Timestamps.Selected().IsNone() || !h.Content.IsNone() {
		t.Errorf("selections kept: %v %v %v", h.Years.Selected(), h.Timestamps.Selected(), h.Content)
	}
	if got := h.Years.Values(); !slices.Equal(got, []lore.Year{1, 2}) {
		t.Errorf("years = %v", got)
	}
}

func TestDeleteHistoryItem(t *testing.T) {
	m := loretest.New().Item(100, 1, lore.DayOf(5), "a").Item(200, 1, lore.NoDay, "b")
	b := connected(t, m)
	must(t, b.UpdateHistoryView(cascade.SelectYear{Year: colview.Some[lore.Year](1)}))
	must(t, b.UpdateHistoryView(cascade.SelectDay{Day: colview.Some(lore.DayOf(5))}))
	must(t, b.UpdateHistoryView(cascade.SelectTimestamp{Timestamp: colview.Some[lore.Timestamp](100)}))

	must(t, b.Apply(DeleteHistoryItem{Timestamp: 100}))
	h := b.History()
	if h.Years.Selected() != colview.Some[lore.Year](1) {
		t.Errorf("year = %v", h.Years.Selected())
	}
	if !h.Days.Selected().IsNone() || !h.Timestamps.Selected().IsNone() || !h.Content.IsNone() {
		t.Errorf("lower selections kept: %v %v %v", h.Days.Selected(), h.Timestamps.Selected(), h.Content)
	}
	if got := h.Timestamps.Values(); !slices.Equal(got, []lore.Timestamp{200}) {
		t.Errorf("timestamps = %v", got)
	}
}

func TestSaveHistoryContent(t *testing.T) {
	m := loretest.New().Item(100, 1, lore.NoDay, "a")
	b := connected(t, m)
	if err := b.Apply(SaveHistoryContent{Content: "x"}); !lore.IsInputError(err) {
		t.Fatalf("err = %v", err)
	}
	must(t, b.UpdateHistoryView(cascade.SelectYear{Year: colview.Some[lore.Year](1)}))
	must(t, b.UpdateHistoryView(cascade.SelectTimestamp{Timestamp: colview.Some[lore.Timestamp](100)}))
	must(t, b.Apply(SaveHistoryContent{Content: "rewritten"}))
	if b.History().Content != colview.Some[lore.HistoryContent]("rewritten") {
		t.Errorf("content = %v", b.History().Content)
	}
}

func TestPrefill(t *testing.T) {
	m := loretest.New().Entity("A", "age", "7").Item(100, 3, lore.DayOf(4), "c")
	b := connected(t, m)
	must(t, b.UpdateEntityView(cascade.SelectLabel{Label: colview.Some[lore.Label]("A")}))
	must(t, b.UpdateEntityView(cascade.SelectDescriptor{Descriptor: colview.Some[lore.Descriptor]("age")}))
	if p := b.EntityPrefill(); p.Label != "A" || p.Descriptor != "age" || p.Text != "7" {
		t.Errorf("entity prefill = %+v", p)
	}
	must(t, b.UpdateHistoryView(cascade.SelectYear{Year: colview.Some[lore.Year](3)}))
	must(t, b.UpdateHistoryView(cascade.SelectDay{Day: colview.Some(lore.DayOf(4))}))
	if p := b.HistoryPrefill(); p.Year != "3" || p.Day != "4" {
		t.Errorf("history prefill = %+v", p)
	}
	if got := FormatProperties(map[string]string{"b": "2", "a": "1"}); got != "a=1, b=2" {
		t.Errorf("FormatProperties = %q", got)
	}
}
