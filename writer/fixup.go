package writer

import (
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// SliceThicknessFromPixelSpacing copies one axis of the flat PixelSpacing
// value into the flat SliceThickness field, replacing whatever the source
// file carried there.
func SliceThicknessFromPixelSpacing(axis int) Fixup {
	return func(ds *dicom.Dataset) error {
		ps, err := ds.FindElementByTag(tag.PixelSpacing)
		if err != nil {
			return errors.WrapMissing(errors.ErrMissingField, "Writer", "SliceThicknessFromPixelSpacing",
				"PixelSpacing in assembled dataset")
		}
		vals, _ := ps.Value.GetValue().([]string)
		if axis < 0 || axis >= len(vals) {
			return errors.WrapInvalid(errors.ErrShapeMismatch, "Writer", "SliceThicknessFromPixelSpacing",
				fmt.Sprintf("axis %d of %d spacing values", axis, len(vals)))
		}

		e, err := newElement(tag.SliceThickness, "DS", []string{vals[axis]})
		if err != nil {
			return err
		}
		putElement(ds, e)
		return nil
	}
}

// DimensionOrganizationFromIndex copies the organization identifier embedded
// in the first dimension-index item into the flat DimensionOrganizationUID
// field, so the two places the identifier appears can never disagree.
func DimensionOrganizationFromIndex() Fixup {
	return func(ds *dicom.Dataset) error {
		idx, err := ds.FindElementByTag(tag.DimensionIndexSequence)
		if err != nil {
			return errors.WrapMissing(errors.ErrMissingField, "Writer", "DimensionOrganizationFromIndex",
				"DimensionIndexSequence in assembled dataset")
		}

		uid := itemString(idx, 0, tag.DimensionOrganizationUID)
		if uid == "" {
			return errors.WrapMissing(errors.ErrMissingField, "Writer", "DimensionOrganizationFromIndex",
				"DimensionOrganizationUID in first index item")
		}

		e, err := newElement(tag.DimensionOrganizationUID, "UI", []string{uid})
		if err != nil {
			return err
		}
		putElement(ds, e)
		return nil
	}
}

// putElement replaces a flat element in place or appends it.
func putElement(ds *dicom.Dataset, e *dicom.Element) {
	for i, existing := range ds.Elements {
		if existing.Tag == e.Tag {
			ds.Elements[i] = e
			return
		}
	}
	ds.Elements = append(ds.Elements, e)
}

// itemString reads a single-valued string child from one item of a sequence
// element; missing pieces yield "".
func itemString(seq *dicom.Element, item int, t tag.Tag) string {
	items, ok := seq.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok || item >= len(items) {
		return ""
	}
	children, ok := items[item].GetValue().([]*dicom.Element)
	if !ok {
		return ""
	}
	for _, child := range children {
		if child.Tag != t {
			continue
		}
		if vals, ok := child.Value.GetValue().([]string); ok && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
