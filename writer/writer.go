// Package writer assembles the output dataset from resolved fields,
// synthesized sequences and the pixel payload, runs the ordered
// post-assembly fixups, and serializes the file with the source transfer
// syntax.
package writer

import (
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/evaluate"
	"github.com/AI-READI/fairhub-pipeline-sub000/extract"
)

// Fixup mutates the assembled dataset after every field is placed. Fixups
// run in the order the profile lists them, before serialization.
type Fixup func(*dicom.Dataset) error

// Output is everything one conversion produced for a single file.
type Output struct {
	Syntax      extract.TransferSyntax
	Result      *evaluate.Result
	Synthesized []*dicom.Element
	Payload     *extract.Payload
	Fixups      []Fixup
}

// Assemble builds the output dataset: file meta block first, then header
// fields, flat fields, declared sequences, synthesized sequences and the
// payload. Placement is last-wins by tag, so a synthesized sequence replaces
// a declared field for the same tag in place.
func Assemble(out Output) (dicom.Dataset, error) {
	if out.Result == nil {
		return dicom.Dataset{}, errors.WrapFatal(errors.ErrMissingField, "Writer", "Assemble",
			"nil evaluation result")
	}

	set := newElementSet()

	meta, err := metaElements(out)
	if err != nil {
		return dicom.Dataset{}, err
	}
	for _, e := range meta {
		set.put(e)
	}

	for _, f := range out.Result.Header {
		e, err := fieldElement(f)
		if err != nil {
			return dicom.Dataset{}, err
		}
		set.put(e)
	}
	for _, f := range out.Result.Fields {
		e, err := fieldElement(f)
		if err != nil {
			return dicom.Dataset{}, err
		}
		set.put(e)
	}
	for _, sf := range out.Result.Sequences {
		e, err := sequenceElement(sf)
		if err != nil {
			return dicom.Dataset{}, err
		}
		set.put(e)
	}
	for _, e := range out.Synthesized {
		set.put(e)
	}

	if out.Payload != nil {
		e, err := newElement(out.Payload.Tag, out.Payload.VR, out.Payload.Value)
		if err != nil {
			return dicom.Dataset{}, err
		}
		set.put(e)
	}

	ds := dicom.Dataset{Elements: set.elements()}
	for _, fix := range out.Fixups {
		if err := fix(&ds); err != nil {
			return dicom.Dataset{}, err
		}
	}
	return ds, nil
}

// Write assembles the output and serializes it to path. A failed write
// leaves no partial file behind.
func Write(path string, out Output) error {
	ds, err := Assemble(out)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapFatal(err, "Writer", "Write", "create "+path)
	}

	if err := dicom.Write(f, ds, dicom.SkipVRVerification()); err != nil {
		f.Close()
		os.Remove(path)
		return errors.WrapInvalid(err, "Writer", "Write", "serialize "+path)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.WrapFatal(err, "Writer", "Write", "close "+path)
	}
	return nil
}

// metaElements derives the file meta group from the resolved header: the
// media storage identifiers mirror the header SOP class/instance, and the
// transfer syntax is the one the source file was read with.
func metaElements(out Output) ([]*dicom.Element, error) {
	sopClass := headerString(out.Result, tag.SOPClassUID)
	sopInstance := headerString(out.Result, tag.SOPInstanceUID)
	if sopClass == "" || sopInstance == "" {
		return nil, errors.WrapMissing(errors.ErrMissingField, "Writer", "metaElements",
			"SOP class/instance identifiers in resolved header")
	}

	syntax := out.Syntax.UID
	if syntax == "" {
		syntax = "1.2.840.10008.1.2.1"
	}

	var (
		meta []*dicom.Element
		err  error
	)
	add := func(t tag.Tag, value string) {
		if err != nil {
			return
		}
		var e *dicom.Element
		if e, err = newElement(t, "UI", []string{value}); err == nil {
			meta = append(meta, e)
		}
	}
	add(tag.MediaStorageSOPClassUID, sopClass)
	add(tag.MediaStorageSOPInstanceUID, sopInstance)
	add(tag.TransferSyntaxUID, syntax)
	return meta, err
}

// headerString finds a single-valued string field in the resolved header,
// falling back to the flat fields.
func headerString(res *evaluate.Result, t tag.Tag) string {
	for _, fields := range [][]evaluate.Field{res.Header, res.Fields} {
		for _, f := range fields {
			if f.Element.Tag != t {
				continue
			}
			if vals, ok := f.Value.([]string); ok && len(vals) > 0 {
				return vals[0]
			}
		}
	}
	return ""
}

// fieldElement encodes one resolved flat field.
func fieldElement(f evaluate.Field) (*dicom.Element, error) {
	if tables, ok := f.Value.([]*entry.Table); ok {
		items, err := sequenceItems(tables)
		if err != nil {
			return nil, err
		}
		return newElement(f.Element.Tag, f.Element.VR, items)
	}
	return newElement(f.Element.Tag, f.Element.VR, f.Value)
}

// sequenceElement encodes one resolved sequence, empty sequences included.
func sequenceElement(sf evaluate.SequenceField) (*dicom.Element, error) {
	items := make([][]*dicom.Element, 0, len(sf.Items))
	for _, item := range sf.Items {
		children := make([]*dicom.Element, 0, len(item.Fields)+len(item.Nested))
		for _, f := range item.Fields {
			e, err := fieldElement(f)
			if err != nil {
				return nil, err
			}
			children = append(children, e)
		}
		for _, nested := range item.Nested {
			e, err := sequenceElement(nested)
			if err != nil {
				return nil, err
			}
			children = append(children, e)
		}
		items = append(items, children)
	}
	return newElement(sf.Sequence.Tag, sf.Sequence.VR, items)
}

// sequenceItems rebuilds dataset item lists from nested entry tables.
func sequenceItems(tables []*entry.Table) ([][]*dicom.Element, error) {
	items := make([][]*dicom.Element, 0, len(tables))
	for _, tbl := range tables {
		children := make([]*dicom.Element, 0, tbl.Len())
		for _, t := range tbl.Tags() {
			e, _ := tbl.Get(t)
			var (
				el  *dicom.Element
				err error
			)
			if nested, ok := e.Value.([]*entry.Table); ok {
				var data [][]*dicom.Element
				if data, err = sequenceItems(nested); err == nil {
					el, err = newElement(e.Tag, e.VR, data)
				}
			} else {
				el, err = newElement(e.Tag, e.VR, e.Value)
			}
			if err != nil {
				return nil, err
			}
			children = append(children, el)
		}
		items = append(items, children)
	}
	return items, nil
}

// newElement builds a dataset element with an explicit value representation,
// independent of the standard dictionary. Declared VRs survive for private
// and retired tags.
func newElement(t tag.Tag, vr string, value any) (*dicom.Element, error) {
	v, err := dicom.NewValue(value)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Writer", "newElement",
			fmt.Sprintf("encode %s (%s)", t, vr))
	}
	return &dicom.Element{
		Tag:                    t,
		ValueRepresentation:    tag.GetVRKind(t, vr),
		RawValueRepresentation: vr,
		Value:                  v,
	}, nil
}

// elementSet is an insertion-ordered tag map: a repeated put replaces the
// value but keeps the first position.
type elementSet struct {
	order []tag.Tag
	byTag map[tag.Tag]*dicom.Element
}

func newElementSet() *elementSet {
	return &elementSet{byTag: make(map[tag.Tag]*dicom.Element)}
}

func (s *elementSet) put(e *dicom.Element) {
	if _, ok := s.byTag[e.Tag]; !ok {
		s.order = append(s.order, e.Tag)
	}
	s.byTag[e.Tag] = e
}

func (s *elementSet) elements() []*dicom.Element {
	out := make([]*dicom.Element, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.byTag[t])
	}
	return out
}
