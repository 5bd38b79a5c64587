// Package colview holds the state of one level of a hierarchical picker:
// its search text, the entries matching it and the current selection.
package colview

import "fmt"

// NoneText is how the absence of a selection is displayed.
const NoneText = "[none]"

// Entry is either a value of T or the explicit absence of one.
// The zero Entry is none.
type Entry[T comparable] struct {
	value T
	some  bool
}

// Some returns an entry holding v.
func Some[T comparable](v T) Entry[T] {
	return Entry[T]{value: v, some: true}
}

// None returns the empty entry.
func None[T comparable]() Entry[T] {
	return Entry[T]{}
}

// FromPtr returns Some(*p), or none for a nil p.
func FromPtr[T comparable](p *T) Entry[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether there is one.
func (e Entry[T]) Get() (T, bool) {
	return e.value, e.some
}

// IsNone reports whether e holds no value.
func (e Entry[T]) IsNone() bool {
	return !e.some
}

// Ptr returns a pointer to a copy of the value, or nil.
func (e Entry[T]) Ptr() *T {
	if !e.some {
		return nil
	}
	v := e.value
	return &v
}

func (e Entry[T]) String() string {
	if !e.some {
		return NoneText
	}
	return fmt.Sprint(e.value)
}
