// Package synth builds the compound nested structures that cannot be
// expressed as flat field copies: functional group sequences, dimension
// organization, segment descriptors and cross-file reference sequences.
// Synthesizers are pure functions over companion entry tables; they run only
// after every companion extracted successfully, so a missing companion tag is
// a hard failure here.
package synth

import (
	"fmt"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/transcode"
)

// Ref identifies one companion instance for cross-linking sequences.
type Ref struct {
	SeriesUID      string
	SOPClassUID    string
	SOPInstanceUID string
}

func el(t tag.Tag, value any) (*dicom.Element, error) {
	e, err := dicom.NewElement(t, value)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Synthesizer", "el", fmt.Sprintf("build %s", t))
	}
	return e, nil
}

func seq(t tag.Tag, items ...[]*dicom.Element) (*dicom.Element, error) {
	data := make([][]*dicom.Element, 0, len(items))
	data = append(data, items...)
	return el(t, data)
}

// item collects child elements, propagating the first build error.
type item struct {
	elements []*dicom.Element
	err      error
}

func (it *item) add(t tag.Tag, value any) *item {
	if it.err != nil {
		return it
	}
	e, err := el(t, value)
	if err != nil {
		it.err = err
		return it
	}
	it.elements = append(it.elements, e)
	return it
}

func (it *item) addElement(e *dicom.Element, err error) *item {
	if it.err != nil {
		return it
	}
	if err != nil {
		it.err = err
		return it
	}
	it.elements = append(it.elements, e)
	return it
}

// codeItem builds the (CodeValue, CodingSchemeDesignator, CodeMeaning)
// triplet every coded sequence item carries.
func codeItem(value, scheme, meaning string) *item {
	it := &item{}
	it.add(tag.CodeValue, []string{value})
	it.add(tag.CodingSchemeDesignator, []string{scheme})
	it.add(tag.CodeMeaning, []string{meaning})
	return it
}

// OrganizationUID reads the dimension organization identifier embedded in a
// structural OCT table. The output file copies this identifier verbatim so
// both files index their frames against the same organization.
func OrganizationUID(oct *entry.Table) (string, error) {
	e, ok := oct.Get(tag.DimensionOrganizationSequence)
	if !ok || len(e.Items()) == 0 {
		return "", errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "OrganizationUID",
			"DimensionOrganizationSequence in OCT companion")
	}
	uid := e.Items()[0].FirstString(tag.DimensionOrganizationUID)
	if uid == "" {
		return "", errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "OrganizationUID",
			"DimensionOrganizationUID in OCT companion")
	}
	return uid, nil
}

// PixelMeasures locates the OCT volume's pixel spacing and slice thickness,
// preferring the shared functional groups and falling back to the first
// per-frame geometry block.
func PixelMeasures(oct *entry.Table) (spacing, thickness []string, err error) {
	for _, seqTag := range []tag.Tag{tag.SharedFunctionalGroupsSequence, tag.PerFrameFunctionalGroupsSequence} {
		e, ok := oct.Get(seqTag)
		if !ok || len(e.Items()) == 0 {
			continue
		}
		pm, ok := e.Items()[0].Get(tag.PixelMeasuresSequence)
		if !ok || len(pm.Items()) == 0 {
			continue
		}
		measures := pm.Items()[0]
		if sp, ok := measures.Get(tag.PixelSpacing); ok {
			spacing = sp.Strings()
		}
		if th, ok := measures.Get(tag.SliceThickness); ok {
			thickness = th.Strings()
		}
		if len(spacing) > 0 {
			return spacing, thickness, nil
		}
	}
	return nil, nil, errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "pixelMeasures",
		"PixelMeasuresSequence in OCT companion")
}

// FrameCoordinates reads the per-frame plane positions of an OCT volume as
// (x, y) reference coordinates for the frame-location bounding box.
func FrameCoordinates(oct *entry.Table) ([]transcode.FrameCoordinate, error) {
	e, ok := oct.Get(tag.PerFrameFunctionalGroupsSequence)
	if !ok || len(e.Items()) == 0 {
		return nil, errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "FrameCoordinates",
			"PerFrameFunctionalGroupsSequence in OCT companion")
	}

	coords := make([]transcode.FrameCoordinate, 0, len(e.Items()))
	for i, frame := range e.Items() {
		pp, ok := frame.Get(tag.PlanePositionSequence)
		if !ok || len(pp.Items()) == 0 {
			return nil, errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "FrameCoordinates",
				fmt.Sprintf("PlanePositionSequence in frame %d", i))
		}
		var pos []string
		if ipp, ok := pp.Items()[0].Get(tag.ImagePositionPatient); ok {
			pos = ipp.Strings()
		}
		if len(pos) < 2 {
			return nil, errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "FrameCoordinates",
				fmt.Sprintf("ImagePositionPatient in frame %d", i))
		}
		x, errX := strconv.ParseFloat(pos[0], 64)
		y, errY := strconv.ParseFloat(pos[1], 64)
		if errX != nil || errY != nil {
			return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Synthesizer", "FrameCoordinates",
				fmt.Sprintf("unparseable position in frame %d", i))
		}
		coords = append(coords, transcode.FrameCoordinate{X: x, Y: y})
	}
	return coords, nil
}
