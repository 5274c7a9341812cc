// Package extract reads a source imaging file's metadata tree and pixel
// payload into an entry table. One extraction per source file; the resulting
// table is immutable input to the evaluator and synthesizers.
package extract

import (
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// floatPixelData (7FE0,0008) holds the floating-point pixel payload some
// devices write instead of PixelData.
var floatPixelData = tag.Tag{Group: 0x7FE0, Element: 0x0008}

// Payload is the pixel payload of a source file, either the regular
// PixelData value carried through unprocessed or the floating-point
// alternate.
type Payload struct {
	Tag   tag.Tag
	VR    string
	Value any
}

// Result is the extractor output for one source file.
type Result struct {
	Table   *entry.Table
	Syntax  TransferSyntax
	Payload *Payload
}

// Options configures one extraction.
type Options struct {
	// Dictionary resolves names and VRs for private tags the standard
	// dictionary does not know. Optional.
	Dictionary *catalog.Dictionary
	// Forced declarations are applied to the entry table immediately after
	// the walk, before the caller sees it. This is the ForceOnRead
	// disposition: harmonization baked into extraction.
	Forced []catalog.Element
	// FloatPayload selects the floating-point alternate payload (7FE0,0008)
	// instead of PixelData.
	FloatPayload bool
}

// Extract opens the file at path and walks the requested tag list against its
// metadata tree. Tags absent from the file are omitted from the table, not
// errors. A missing file is a hard error.
func Extract(path string, tags []tag.Tag, opts Options) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WrapMissing(errors.ErrMissingInput, "Extractor", "Extract", "stat "+path)
	}

	ds, err := dicom.ParseFile(path, nil, dicom.SkipProcessingPixelDataValue())
	if err != nil {
		return nil, errors.WrapInvalid(err, "Extractor", "Extract", "parse "+path)
	}

	res := &Result{
		Table:  entry.NewTable(),
		Syntax: transferSyntaxFromUID(firstString(&ds, tag.TransferSyntaxUID)),
	}

	index := make(map[tag.Tag]*dicom.Element, len(ds.Elements))
	for _, el := range ds.Elements {
		index[el.Tag] = el
	}

	for _, t := range tags {
		el, ok := index[t]
		if !ok {
			continue
		}
		if el.Value.ValueType() == dicom.PixelData {
			continue
		}
		res.Table.Put(convertElement(el, opts.Dictionary))
	}

	res.Payload = extractPayload(index, opts.FloatPayload)

	for _, f := range opts.Forced {
		res.Table.Put(&entry.Entry{
			Tag:   f.Tag,
			Name:  f.Name,
			VR:    f.VR,
			Value: f.HarmonizedValue,
		})
	}

	return res, nil
}

// convertElement builds an entry from a dataset element, recursing into
// sequence items. Nested tables carry every child field of their item; the
// requested tag list filters only at the top level.
func convertElement(el *dicom.Element, dict *catalog.Dictionary) *entry.Entry {
	e := &entry.Entry{
		Tag:  el.Tag,
		Name: dict.Name(el.Tag),
		VR:   el.RawValueRepresentation,
	}

	if el.Value.ValueType() == dicom.Sequences {
		items, _ := el.Value.GetValue().([]*dicom.SequenceItemValue)
		tables := make([]*entry.Table, 0, len(items))
		for _, item := range items {
			nested := entry.NewTable()
			children, _ := item.GetValue().([]*dicom.Element)
			for _, child := range children {
				nested.Put(convertElement(child, dict))
			}
			tables = append(tables, nested)
		}
		e.Value = tables
		return e
	}

	e.Value = el.Value.GetValue()
	return e
}

// extractPayload pulls the pixel payload out of the indexed dataset.
func extractPayload(index map[tag.Tag]*dicom.Element, float bool) *Payload {
	if float {
		if el, ok := index[floatPixelData]; ok {
			return &Payload{
				Tag:   floatPixelData,
				VR:    el.RawValueRepresentation,
				Value: el.Value.GetValue(),
			}
		}
		return nil
	}

	if el, ok := index[tag.PixelData]; ok {
		return &Payload{
			Tag:   tag.PixelData,
			VR:    el.RawValueRepresentation,
			Value: el.Value.GetValue(),
		}
	}
	return nil
}

func firstString(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	if vals, ok := el.Value.GetValue().([]string); ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
