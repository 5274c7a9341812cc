// Package entry provides the flat keyed table of metadata entries produced by
// the extractor and consumed by the evaluator and synthesizers. Tables are
// built fresh per source file and never mutated after extraction.
package entry

import (
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Entry is one extracted metadata field. Value is one of []string, []int,
// []float64, []byte, or []*Table when the field is sequence-valued (one
// nested table per sequence item).
type Entry struct {
	Tag   tag.Tag
	Name  string
	VR    string
	Value any
}

// IsEmpty reports whether the entry carries no values.
func (e *Entry) IsEmpty() bool {
	switch v := e.Value.(type) {
	case nil:
		return true
	case []string:
		return len(v) == 0
	case []int:
		return len(v) == 0
	case []float64:
		return len(v) == 0
	case []byte:
		return len(v) == 0
	case []*Table:
		return len(v) == 0
	default:
		return false
	}
}

// Items returns the nested item tables of a sequence-valued entry, or nil for
// leaf entries.
func (e *Entry) Items() []*Table {
	items, _ := e.Value.([]*Table)
	return items
}

// Strings returns the entry's string values, or nil if it is not string-valued.
func (e *Entry) Strings() []string {
	v, _ := e.Value.([]string)
	return v
}

// Ints returns the entry's integer values, or nil if it is not int-valued.
func (e *Entry) Ints() []int {
	v, _ := e.Value.([]int)
	return v
}

// Floats returns the entry's float values, or nil if it is not float-valued.
func (e *Entry) Floats() []float64 {
	v, _ := e.Value.([]float64)
	return v
}

// Table is an insertion-ordered collection of entries keyed by tag. A source
// tag appearing twice keeps the last occurrence, mirroring catalog
// declaration semantics.
type Table struct {
	order []tag.Tag
	byTag map[tag.Tag]*Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byTag: make(map[tag.Tag]*Entry)}
}

// Put inserts or replaces an entry.
func (t *Table) Put(e *Entry) {
	if _, exists := t.byTag[e.Tag]; !exists {
		t.order = append(t.order, e.Tag)
	}
	t.byTag[e.Tag] = e
}

// Get returns the entry for a tag, if present. Absence is not an error:
// the evaluator distinguishes absent tags from blank-disposition emptiness.
func (t *Table) Get(tg tag.Tag) (*Entry, bool) {
	e, ok := t.byTag[tg]
	return e, ok
}

// Has reports whether the table holds an entry for the tag.
func (t *Table) Has(tg tag.Tag) bool {
	_, ok := t.byTag[tg]
	return ok
}

// Tags returns the table's tags in insertion order.
func (t *Table) Tags() []tag.Tag {
	out := make([]tag.Tag, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.byTag)
}

// FirstString returns the first string value for a tag, or "" when the tag is
// absent or empty.
func (t *Table) FirstString(tg tag.Tag) string {
	if e, ok := t.Get(tg); ok {
		if v := e.Strings(); len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// FirstInt returns the first integer value for a tag and whether one exists.
func (t *Table) FirstInt(tg tag.Tag) (int, bool) {
	if e, ok := t.Get(tg); ok {
		if v := e.Ints(); len(v) > 0 {
			return v[0], true
		}
	}
	return 0, false
}

// FirstFloat returns the first float value for a tag and whether one exists.
func (t *Table) FirstFloat(tg tag.Tag) (float64, bool) {
	if e, ok := t.Get(tg); ok {
		if v := e.Floats(); len(v) > 0 {
			return v[0], true
		}
	}
	return 0, false
}

// ItemCount returns the number of items in a sequence-valued entry, or zero
// when the tag is absent or not a sequence.
func (t *Table) ItemCount(tg tag.Tag) int {
	if e, ok := t.Get(tg); ok {
		return len(e.Items())
	}
	return 0
}
