package colview

// State is one column of a picker. It knows nothing about other columns:
// requerying entries after a search change is up to the caller, so that a
// cascade controls the order in which its columns are recomputed.
//
// Setters never modify a slice previously returned by Entries, so a copied
// State keeps its own entries.
type State[T comparable] struct {
	search    string
	entries   []Entry[T]
	selected  Entry[T]
	allowNone bool
}

// New returns an empty column that offers a none entry.
func New[T comparable]() State[T] {
	s := State[T]{allowNone: true}
	s.SetEntries(nil)
	return s
}

// NewStrict returns an empty column without a none entry.
func NewStrict[T comparable]() State[T] {
	return State[T]{}
}

// SearchText returns the raw search text; empty means no filter.
func (s State[T]) SearchText() string {
	return s.search
}

// SetSearchText stores text without requerying.
func (s *State[T]) SetSearchText(text string) {
	s.search = text
}

// Entries returns the current entries in query order.
func (s State[T]) Entries() []Entry[T] {
	return s.entries
}

// Values returns the concrete values among the entries.
func (s State[T]) Values() []T {
	var out []T
	for _, e := range s.entries {
		if v, ok := e.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// SetEntries replaces the entry list with values, in order, prefixed by a
// none entry if the column allows an empty selection.
func (s *State[T]) SetEntries(values []T) {
	entries := make([]Entry[T], 0, len(values)+1)
	if s.allowNone {
		entries = append(entries, None[T]())
	}
	for _, v := range values {
		entries = append(entries, Some(v))
	}
	s.entries = entries
}

// SetEntryList replaces the entry list with entries, adding a leading none
// entry when the column allows it and entries has none yet.
func (s *State[T]) SetEntryList(entries []Entry[T]) {
	out := make([]Entry[T], 0, len(entries)+1)
	if s.allowNone && !hasNone(entries) {
		out = append(out, None[T]())
	}
	s.entries = append(out, entries...)
}

func hasNone[T comparable](entries []Entry[T]) bool {
	for _, e := range entries {
		if e.IsNone() {
			return true
		}
	}
	return false
}

// Selected returns the current selection.
func (s State[T]) Selected() Entry[T] {
	return s.selected
}

// SelectedValue returns the selected value and whether there is one.
func (s State[T]) SelectedValue() (T, bool) {
	return s.selected.Get()
}

// SetSelected sets the selection. The entry need not be among Entries.
func (s *State[T]) SetSelected(e Entry[T]) {
	s.selected = e
}

// SelectNone clears the selection.
func (s *State[T]) SelectNone() {
	s.selected = None[T]()
}

// Index returns the position of the selection within Entries, or -1.
func (s State[T]) Index() int {
	for i, e := range s.entries {
		if e == s.selected {
			return i
		}
	}
	return -1
}

// ParseSearch parses the search text of s with parse. Empty search text
// yields ok == false and no error. Parse failures are returned as is.
func ParseSearch[V any, T comparable](s *State[T], parse func(string) (V, error)) (v V, ok bool, err error) {
	if s.search == "" {
		return v, false, nil
	}
	v, err = parse(s.search)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// SearchPtr is ParseSearch returning nil for "no filter".
func SearchPtr[V any, T comparable](s *State[T], parse func(string) (V, error)) (*V, error) {
	v, ok, err := ParseSearch(s, parse)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
