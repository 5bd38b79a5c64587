// Package lore defines the lore knowledge base domain: entities with
// descriptors, relationships between entities and dated history items.
package lore

import (
	"strconv"
)

// Label names an entity.
type Label string

// Descriptor names one attribute of an entity.
type Descriptor string

// Description is the free text stored under an entity descriptor.
type Description string

// Role labels a relationship between two entities.
type Role string

// Year of a history item.
type Year int32

// Timestamp identifies a history item. It is the creation time in
// microseconds since the Unix epoch.
type Timestamp int64

// HistoryContent is the text of a history item.
type HistoryContent string

func (l Label) String() string          { return string(l) }
func (d Descriptor) String() string     { return string(d) }
func (d Description) String() string    { return string(d) }
func (r Role) String() string           { return string(r) }
func (c HistoryContent) String() string { return string(c) }
func (y Year) String() string           { return strconv.FormatInt(int64(y), 10) }
func (t Timestamp) String() string      { return strconv.FormatInt(int64(t), 10) }

// Day is the optional day of a history item within its year. A history
// item without a day carries NoDay, which is a regular queryable value.
type Day struct {
	n     uint32
	valid bool
}

// NoDay is the day of history items that are only dated by year.
var NoDay = Day{}

// DayOf returns the day n.
func DayOf(n uint32) Day {
	return Day{n: n, valid: true}
}

// Value returns the day number and whether the day is set.
func (d Day) Value() (uint32, bool) {
	return d.n, d.valid
}

// IsNone reports whether d is NoDay.
func (d Day) IsNone() bool {
	return !d.valid
}

func (d Day) String() string {
	if !d.valid {
		return "-"
	}
	return strconv.FormatUint(uint64(d.n), 10)
}

// EntityColumn is one descriptor row of an entity.
type EntityColumn struct {
	Label       Label
	Descriptor  Descriptor
	Description *Description
}

// Relationship is a directed edge from Parent to Child. Role is nil when
// the relationship exists without a role.
type Relationship struct {
	Parent Label
	Child  Label
	Role   *Role
}

// RoleString renders the role, or "" when there is none.
func (r Relationship) RoleString() string {
	if r.Role == nil {
		return ""
	}
	return string(*r.Role)
}

// HistoryItem is a dated piece of lore.
type HistoryItem struct {
	Timestamp  Timestamp
	Year       Year
	Day        Day
	Content    HistoryContent
	Properties map[string]string
}

// LabelMatch restricts a relationship query on one side. With Exact unset
// Label is matched as a case-insensitive substring.
type LabelMatch struct {
	Label Label
	Exact bool
}

// Exactly matches l as a whole label.
func Exactly(l Label) *LabelMatch {
	return &LabelMatch{Label: l, Exact: true}
}

// Containing matches labels containing s.
func Containing(s string) *LabelMatch {
	return &LabelMatch{Label: Label(s)}
}

// RolePtr returns a pointer to r, or nil for an empty role.
func RolePtr(r string) *Role {
	if r == "" {
		return nil
	}
	role := Role(r)
	return &role
}
