package colview

import (
	"errors"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

func noneCount[T comparable](entries []Entry[T]) int {
	n := 0
	for _, e := range entries {
		if e.IsNone() {
			n++
		}
	}
	return n
}

func TestEntry_String(t *testing.T) {
	if got := None[int]().String(); got != NoneText {
		t.Errorf("None.String() = %q, want %q", got, NoneText)
	}
	if got := Some(42).String(); got != "42" {
		t.Errorf("Some(42).String() = %q, want %q", got, "42")
	}
	if Some("") == None[string]() {
		t.Error("Some(\"\") must differ from None")
	}
}

func TestEntry_FromPtr(t *testing.T) {
	if !FromPtr[int](nil).IsNone() {
		t.Error("FromPtr(nil) should be none")
	}
	v := 7
	e := FromPtr(&v)
	if got, ok := e.Get(); !ok || got != 7 {
		t.Errorf("FromPtr(&7).Get() = %d, %v", got, ok)
	}
	if p := e.Ptr(); p == nil || *p != 7 {
		t.Errorf("Ptr() = %v", p)
	}
}

func TestSetEntries_PrependsNone(t *testing.T) {
	s := New[string]()
	s.SetEntries([]string{"b", "a"})
	entries := s.Entries()
	if len(entries) != 3 || !entries[0].IsNone() || entries[1] != Some("b") || entries[2] != Some("a") {
		t.Errorf("entries = %v", entries)
	}
}

func TestSetEntries_StrictHasNoNone(t *testing.T) {
	s := NewStrict[string]()
	s.SetEntries([]string{"a"})
	if noneCount(s.Entries()) != 0 {
		t.Errorf("strict column has none entry: %v", s.Entries())
	}
}

func TestSetEntries_DoesNotAliasOldEntries(t *testing.T) {
	s := New[int]()
	s.SetEntries([]int{1, 2})
	copied := s
	s.SetEntries([]int{3})
	if got := copied.Values(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("copied values changed to %v", got)
	}
}

func TestNoneSentinelIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOf(rapid.IntRange(-5, 5)).Draw(t, "values")
		s := New[int]()
		s.SetEntries(values)
		s.SetEntries(values)
		if n := noneCount(s.Entries()); n != 1 {
			t.Fatalf("none entries = %d after SetEntries twice", n)
		}
		s.SetEntryList(s.Entries())
		if n := noneCount(s.Entries()); n != 1 {
			t.Fatalf("none entries = %d after SetEntryList of own entries", n)
		}
		if len(s.Entries()) != len(values)+1 {
			t.Fatalf("len = %d, want %d", len(s.Entries()), len(values)+1)
		}
	})
}

func TestSearchDoesNotChangeSelection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New[string]()
		sel := rapid.String().Draw(t, "selected")
		s.SetSelected(Some(sel))
		s.SetSearchText(rapid.String().Draw(t, "search"))
		s.SetEntries(rapid.SliceOf(rapid.String()).Draw(t, "entries"))
		if s.Selected() != Some(sel) {
			t.Fatalf("selected = %v, want %q", s.Selected(), sel)
		}
	})
}

func TestIndex(t *testing.T) {
	s := New[string]()
	s.SetEntries([]string{"a", "b"})
	if got := s.Index(); got != 0 {
		t.Errorf("Index() with no selection = %d, want 0", got)
	}
	s.SetSelected(Some("b"))
	if got := s.Index(); got != 2 {
		t.Errorf("Index() = %d, want 2", got)
	}
	s.SetSelected(Some("z"))
	if got := s.Index(); got != -1 {
		t.Errorf("Index() of stale selection = %d, want -1", got)
	}
}

func TestParseSearch(t *testing.T) {
	errBad := errors.New("bad")
	parse := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errBad
		}
		return n, nil
	}

	tests := []struct {
		name    string
		search  string
		want    int
		wantOk  bool
		wantErr error
	}{
		{name: "empty", search: "", wantOk: false},
		{name: "number", search: "12", want: 12, wantOk: true},
		{name: "malformed", search: "x", wantErr: errBad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New[int]()
			s.SetSearchText(tt.search)
			got, ok, err := ParseSearch(&s, parse)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("ParseSearch = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestSearchPtr(t *testing.T) {
	s := New[int]()
	p, err := SearchPtr(&s, strconv.Atoi)
	if err != nil || p != nil {
		t.Fatalf("SearchPtr on empty search = %v, %v", p, err)
	}
	s.SetSearchText("3")
	p, err = SearchPtr(&s, strconv.Atoi)
	if err != nil || p == nil || *p != 3 {
		t.Fatalf("SearchPtr = %v, %v", p, err)
	}
}

func TestReadFromReturnedState(t *testing.T) {
	filled := func() State[int] {
		s := New[int]()
		s.SetEntries([]int{1, 2})
		s.SetSelected(Some(2))
		s.SetSearchText("2")
		return s
	}
	if got := filled().Values(); len(got) != 2 {
		t.Errorf("Values = %v", got)
	}
	if got := filled().Index(); got != 2 {
		t.Errorf("Index = %d, want 2", got)
	}
	if v, ok := filled().SelectedValue(); !ok || v != 2 {
		t.Errorf("SelectedValue = %v, %v", v, ok)
	}
	if filled().Selected() != Some(2) || filled().SearchText() != "2" || len(filled().Entries()) != 3 {
		t.Error("read accessors disagree with the stored state")
	}
}
