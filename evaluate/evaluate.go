// Package evaluate computes the output value for every field a conversion
// rule declares, resolving dispositions and cross-file lookups against the
// extracted entry tables.
package evaluate

import (
	"fmt"
	"strconv"

	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// Sources are the companion entry tables for one conversion, keyed by role.
type Sources map[catalog.Role]*entry.Table

// Field is one resolved flat output field.
type Field struct {
	Element catalog.Element
	Value   any
}

// ItemResult is one resolved sequence item: its flat fields plus any resolved
// nested sequences.
type ItemResult struct {
	Fields []Field
	Nested []SequenceField
}

// SequenceField is one resolved sequence. Items is never nil: a sequence
// absent from or empty in the source resolves to zero items, not to an
// omitted field.
type SequenceField struct {
	Sequence catalog.Sequence
	Items    []ItemResult
}

// Result carries every resolved field for the writer.
type Result struct {
	Header    []Field
	Fields    []Field
	Sequences []SequenceField
}

// Evaluate resolves a conversion rule against the primary entry table and the
// companion tables. Designate lookups that reference an absent companion or
// an absent mapped tag are hard failures for this output file.
func Evaluate(rule *catalog.ConversionRule, maps []catalog.Map, primary *entry.Table, companions Sources) (*Result, error) {
	res := &Result{}

	for _, he := range rule.HeaderElements() {
		e, ok := primary.Get(he.Tag)
		if !ok {
			return nil, errors.WrapMissing(errors.ErrMissingField, "Evaluator", "Evaluate",
				fmt.Sprintf("header tag %s (%s)", he.Tag, he.Name))
		}
		res.Header = append(res.Header, Field{Element: he, Value: e.Value})
	}

	for _, el := range rule.Elements() {
		f, err := resolveElement(el, maps, primary, companions)
		if err != nil {
			return nil, err
		}
		res.Fields = append(res.Fields, f)
	}

	for _, sq := range rule.Sequences() {
		sf, err := resolveSequence(sq, maps, primary, companions)
		if err != nil {
			return nil, err
		}
		res.Sequences = append(res.Sequences, sf)
	}

	return res, nil
}

// resolveElement applies one declaration's disposition against the scoped
// entry table.
func resolveElement(el catalog.Element, maps []catalog.Map, scope *entry.Table, companions Sources) (Field, error) {
	switch el.Disposition {
	case catalog.Blank:
		return Field{Element: el, Value: EmptyValue(el.VR)}, nil

	case catalog.Harmonize:
		if el.HarmonizedValue == nil {
			return Field{}, errors.WrapFatal(errors.ErrInvalidConfig, "Evaluator", "resolveElement",
				fmt.Sprintf("harmonize declaration %s has no value", el.Name))
		}
		return Field{Element: el, Value: el.HarmonizedValue}, nil

	case catalog.Designate:
		v, err := resolveDesignate(el, maps, companions)
		if err != nil {
			return Field{}, err
		}
		return Field{Element: el, Value: v}, nil

	default: // Keep and ForceOnRead read whatever the table now holds.
		if e, ok := scope.Get(el.Tag); ok {
			return Field{Element: el, Value: e.Value}, nil
		}
		return Field{Element: el, Value: EmptyValue(el.VR)}, nil
	}
}

// resolveDesignate resolves a cross-file mapping. When a tag carries more
// than one Map declaration the last one wins, matching catalog scan order.
func resolveDesignate(el catalog.Element, maps []catalog.Map, companions Sources) (any, error) {
	var m *catalog.Map
	for i := range maps {
		if maps[i].Tag == el.Tag {
			m = &maps[i]
		}
	}
	if m == nil {
		return nil, errors.WrapMissing(errors.ErrNoMappingRule, "Evaluator", "resolveDesignate",
			fmt.Sprintf("tag %s (%s)", el.Tag, el.Name))
	}

	companion, ok := companions[m.Role]
	if !ok || companion == nil {
		return nil, errors.WrapMissing(errors.ErrMissingCompanion, "Evaluator", "resolveDesignate",
			fmt.Sprintf("role %s for tag %s", m.Role, el.Tag))
	}

	switch len(m.MappedTags) {
	case 1:
		e, ok := companion.Get(m.MappedTags[0])
		if !ok {
			return nil, errors.WrapMissing(errors.ErrMissingField, "Evaluator", "resolveDesignate",
				fmt.Sprintf("mapped tag %s in role %s", m.MappedTags[0], m.Role))
		}
		v, err := firstValue(e)
		if err != nil {
			return nil, err
		}
		return v, nil

	case 2:
		// Two mapped tags: the value is the item count of the sequence named
		// by the second tag.
		e, ok := companion.Get(m.MappedTags[1])
		if !ok {
			return nil, errors.WrapMissing(errors.ErrMissingField, "Evaluator", "resolveDesignate",
				fmt.Sprintf("counted sequence %s in role %s", m.MappedTags[1], m.Role))
		}
		return countValue(el.VR, len(e.Items())), nil

	default:
		return nil, errors.WrapFatal(errors.ErrInvalidConfig, "Evaluator", "resolveDesignate",
			fmt.Sprintf("map %s declares %d mapped tags", m.Name, len(m.MappedTags)))
	}
}

// resolveSequence emits a sequence field for one declaration. Source items
// are paired with the declared item lists; a single declared list applies to
// every source item.
func resolveSequence(sq catalog.Sequence, maps []catalog.Map, primary *entry.Table, companions Sources) (SequenceField, error) {
	sf := SequenceField{Sequence: sq, Items: []ItemResult{}}

	e, ok := primary.Get(sq.Tag)
	if !ok || e.IsEmpty() {
		return sf, nil
	}

	for idx, itemTable := range e.Items() {
		decls := declarationsForItem(sq, idx)
		item := ItemResult{}
		for _, el := range decls {
			f, err := resolveElement(el, maps, itemTable, companions)
			if err != nil {
				return SequenceField{}, err
			}
			item.Fields = append(item.Fields, f)
		}
		for _, nested := range sq.Nested {
			nf, err := resolveSequence(nested, maps, itemTable, companions)
			if err != nil {
				return SequenceField{}, err
			}
			item.Nested = append(item.Nested, nf)
		}
		sf.Items = append(sf.Items, item)
	}

	return sf, nil
}

// declarationsForItem picks the declaration list for a source item index.
func declarationsForItem(sq catalog.Sequence, idx int) []catalog.Element {
	if len(sq.Items) == 0 {
		return nil
	}
	if idx < len(sq.Items) {
		return dedupe(sq.Items[idx])
	}
	return dedupe(sq.Items[len(sq.Items)-1])
}

// dedupe collapses duplicate child declarations last-wins, same as the
// catalog does for flat lists.
func dedupe(elements []catalog.Element) []catalog.Element {
	order := make([]tag.Tag, 0, len(elements))
	byTag := make(map[tag.Tag]catalog.Element, len(elements))
	for _, e := range elements {
		if _, ok := byTag[e.Tag]; !ok {
			order = append(order, e.Tag)
		}
		byTag[e.Tag] = e
	}
	out := make([]catalog.Element, 0, len(order))
	for _, t := range order {
		out = append(out, byTag[t])
	}
	return out
}

// firstValue narrows an entry to its first value, preserving type.
func firstValue(e *entry.Entry) (any, error) {
	switch v := e.Value.(type) {
	case []string:
		if len(v) > 0 {
			return []string{v[0]}, nil
		}
	case []int:
		if len(v) > 0 {
			return []int{v[0]}, nil
		}
	case []float64:
		if len(v) > 0 {
			return []float64{v[0]}, nil
		}
	case []byte:
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, errors.WrapInvalid(errors.ErrEmptyMappedTag, "Evaluator", "firstValue",
		fmt.Sprintf("tag %s (%s)", e.Tag, e.Name))
}

// countValue represents an item count in the target field's value
// representation.
func countValue(vr string, n int) any {
	if isIntVR(vr) {
		return []int{n}
	}
	return []string{strconv.Itoa(n)}
}

// EmptyValue returns the typed empty value for a value representation.
func EmptyValue(vr string) any {
	switch {
	case vr == "SQ":
		return []*entry.Table{}
	case isIntVR(vr):
		return []int{}
	case isFloatVR(vr):
		return []float64{}
	case isBinaryVR(vr):
		return []byte{}
	default:
		return []string{}
	}
}

func isIntVR(vr string) bool {
	switch vr {
	case "US", "UL", "SS", "SL", "AT":
		return true
	}
	return false
}

func isFloatVR(vr string) bool {
	switch vr {
	case "FL", "FD", "OF", "OD":
		return true
	}
	return false
}

func isBinaryVR(vr string) bool {
	switch vr {
	case "OB", "OW", "UN":
		return true
	}
	return false
}
