package catalog

import (
	"github.com/suyashkumar/dicom/pkg/tag"
)

// elementSet is an insertion-ordered element collection keyed by tag.
// Duplicate declarations overwrite explicitly: the last declaration for a tag
// wins, and the tag keeps its original position. This replaces the silent
// set-collapsing behavior the device modules historically relied on.
type elementSet struct {
	order []tag.Tag
	byTag map[tag.Tag]Element
}

func newElementSet(elements []Element) *elementSet {
	s := &elementSet{byTag: make(map[tag.Tag]Element, len(elements))}
	for _, e := range elements {
		s.add(e)
	}
	return s
}

func (s *elementSet) add(e Element) {
	if _, exists := s.byTag[e.Tag]; !exists {
		s.order = append(s.order, e.Tag)
	}
	s.byTag[e.Tag] = e
}

func (s *elementSet) tags() []tag.Tag {
	out := make([]tag.Tag, len(s.order))
	copy(out, s.order)
	return out
}

func (s *elementSet) elements() []Element {
	out := make([]Element, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.byTag[t])
	}
	return out
}

func (s *elementSet) get(t tag.Tag) (Element, bool) {
	e, ok := s.byTag[t]
	return e, ok
}

// ConversionRule aggregates header elements, flat elements and sequences into
// one named protocol (for example "Heightmap", "OCT B", "En Face"). Rules are
// built once per device/modality at startup and are read-only afterwards.
type ConversionRule struct {
	name      string
	header    *elementSet
	elements  *elementSet
	sequences []Sequence
}

// NewConversionRule builds a rule from literal declaration lists. Duplicate
// tags within the header or element lists collapse last-wins.
func NewConversionRule(name string, header, elements []Element, sequences []Sequence) *ConversionRule {
	return &ConversionRule{
		name:      name,
		header:    newElementSet(header),
		elements:  newElementSet(elements),
		sequences: sequences,
	}
}

// Name returns the protocol name.
func (r *ConversionRule) Name() string {
	return r.name
}

// HeaderTags returns the declared header tags in declaration order, deduplicated.
func (r *ConversionRule) HeaderTags() []tag.Tag {
	return r.header.tags()
}

// Tags returns the declared flat tags in declaration order, deduplicated.
func (r *ConversionRule) Tags() []tag.Tag {
	return r.elements.tags()
}

// HeaderElements returns the effective header declarations in order.
func (r *ConversionRule) HeaderElements() []Element {
	return r.header.elements()
}

// Elements returns the effective flat declarations in order.
func (r *ConversionRule) Elements() []Element {
	return r.elements.elements()
}

// Element returns the effective declaration for a flat tag.
func (r *ConversionRule) Element(t tag.Tag) (Element, bool) {
	return r.elements.get(t)
}

// Sequences returns the declared sequences in order.
func (r *ConversionRule) Sequences() []Sequence {
	return r.sequences
}

// SequenceTags returns, for each declared sequence in order, its tag and the
// per-item child tag lists.
func (r *ConversionRule) SequenceTags() []SequenceTags {
	out := make([]SequenceTags, 0, len(r.sequences))
	for _, sq := range r.sequences {
		st := SequenceTags{Tag: sq.Tag}
		for _, item := range sq.Items {
			childSet := newElementSet(item)
			st.ItemTags = append(st.ItemTags, childSet.tags())
		}
		out = append(out, st)
	}
	return out
}

// SequenceTags pairs a sequence tag with the ordered child tags of each of
// its declared items.
type SequenceTags struct {
	Tag      tag.Tag
	ItemTags [][]tag.Tag
}

// AllTags returns the union of header tags, flat tags, sequence tags and the
// supplied extra tags, in that order, deduplicated. This is the tag list
// handed to the extractor.
func (r *ConversionRule) AllTags(extra ...tag.Tag) []tag.Tag {
	seen := make(map[tag.Tag]struct{})
	var out []tag.Tag
	appendTag := func(t tag.Tag) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range r.header.tags() {
		appendTag(t)
	}
	for _, t := range r.elements.tags() {
		appendTag(t)
	}
	for _, sq := range r.sequences {
		appendTag(sq.Tag)
	}
	for _, t := range extra {
		appendTag(t)
	}
	return out
}

// ForcedElements returns the declarations with the ForceOnRead disposition,
// in order. The extractor applies these to the entry table before the
// evaluator runs.
func (r *ConversionRule) ForcedElements() []Element {
	var out []Element
	for _, e := range r.elements.elements() {
		if e.Disposition == ForceOnRead {
			out = append(out, e)
		}
	}
	return out
}
