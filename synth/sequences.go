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

// SharedFunctionalGroups encodes, once per output file, the frame anatomy,
// the pixel spacing and slice thickness read from the companion volume's
// geometry block, and the linear real-world-value mapping from pixel index to
// physical millimeters.
func SharedFunctionalGroups(oct *entry.Table, laterality string, mmPerUnit float64) (*dicom.Element, error) {
	spacing, thickness, err := PixelMeasures(oct)
	if err != nil {
		return nil, err
	}
	if len(thickness) == 0 {
		thickness = []string{spacing[0]}
	}

	measures := &item{}
	measures.add(tag.PixelSpacing, spacing)
	measures.add(tag.SliceThickness, thickness)
	if measures.err != nil {
		return nil, measures.err
	}

	region := codeItem("5665001", "SCT", "Retina")
	if region.err != nil {
		return nil, region.err
	}

	anatomy := &item{}
	anatomy.addElement(seq(tag.AnatomicRegionSequence, region.elements))
	anatomy.add(tag.FrameLaterality, []string{laterality})
	if anatomy.err != nil {
		return nil, anatomy.err
	}

	units := codeItem("mm", "UCUM", "millimeter")
	if units.err != nil {
		return nil, units.err
	}

	mapping := &item{}
	mapping.add(tag.RealWorldValueIntercept, []float64{0})
	mapping.add(tag.RealWorldValueSlope, []float64{mmPerUnit})
	mapping.addElement(seq(tag.MeasurementUnitsCodeSequence, units.elements))
	if mapping.err != nil {
		return nil, mapping.err
	}

	shared := &item{}
	shared.addElement(seq(tag.PixelMeasuresSequence, measures.elements))
	shared.addElement(seq(tag.FrameAnatomySequence, anatomy.elements))
	shared.addElement(seq(tag.RealWorldValueMappingSequence, mapping.elements))
	if shared.err != nil {
		return nil, shared.err
	}

	return seq(tag.SharedFunctionalGroupsSequence, shared.elements)
}

// PerFrameFunctionalGroups emits one item per output frame carrying the
// stack/position indices and the segment-identification back-reference.
// Frame n maps to segment n+1.
func PerFrameFunctionalGroups(frames int) (*dicom.Element, error) {
	if frames <= 0 {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Synthesizer", "PerFrameFunctionalGroups",
			fmt.Sprintf("frame count %d", frames))
	}

	items := make([][]*dicom.Element, 0, frames)
	for f := 0; f < frames; f++ {
		content := &item{}
		content.add(tag.StackID, []string{"1"})
		content.add(tag.InStackPositionNumber, []int{f + 1})
		if content.err != nil {
			return nil, content.err
		}

		ident := &item{}
		ident.add(tag.ReferencedSegmentNumber, []int{f + 1})
		if ident.err != nil {
			return nil, ident.err
		}

		frame := &item{}
		frame.addElement(seq(tag.FrameContentSequence, content.elements))
		frame.addElement(seq(tag.SegmentIdentificationSequence, ident.elements))
		if frame.err != nil {
			return nil, frame.err
		}
		items = append(items, frame.elements)
	}

	return seq(tag.PerFrameFunctionalGroupsSequence, items...)
}

// DimensionOrganization declares how the multi-frame pixel data is logically
// indexed: by stack, then by in-stack position. The organization identifier
// is the single source of truth threaded in by the caller - it is copied
// from the companion structural file, never regenerated, so both files agree
// numerically.
func DimensionOrganization(orgUID string) ([]*dicom.Element, error) {
	if orgUID == "" {
		return nil, errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "DimensionOrganization",
			"empty organization identifier")
	}

	org := &item{}
	org.add(tag.DimensionOrganizationUID, []string{orgUID})
	if org.err != nil {
		return nil, org.err
	}
	orgSeq, err := seq(tag.DimensionOrganizationSequence, org.elements)
	if err != nil {
		return nil, err
	}

	labels := []string{"Stack ID", "In-Stack Position Number"}
	items := make([][]*dicom.Element, 0, len(labels))
	for _, label := range labels {
		it := &item{}
		it.add(tag.DimensionOrganizationUID, []string{orgUID})
		it.add(tag.DimensionDescriptionLabel, []string{label})
		if it.err != nil {
			return nil, it.err
		}
		items = append(items, it.elements)
	}
	idxSeq, err := seq(tag.DimensionIndexSequence, items...)
	if err != nil {
		return nil, err
	}

	return []*dicom.Element{orgSeq, idxSeq}, nil
}

// segmentLayer names the anatomical layer for a segment index.
type segmentLayer struct {
	label       string
	typeCode    string
	typeMeaning string
}

// Canonical two-surface segmentation: inner limiting membrane first, then
// the retinal pigment epithelium surface.
var defaultLayers = []segmentLayer{
	{label: "ILM", typeCode: "280677004", typeMeaning: "Internal limiting membrane"},
	{label: "RPE", typeCode: "61518007", typeMeaning: "Retinal pigment epithelium"},
}

// SegmentSequence enumerates the segmented anatomical layers with fixed coded
// anatomical-category and property-type values, one segment per layer index.
// The count is driven by the number of layers the companion segmentation file
// carries.
func SegmentSequence(count int) (*dicom.Element, error) {
	if count <= 0 {
		return nil, errors.WrapInvalid(errors.ErrSegmentCount, "Synthesizer", "SegmentSequence",
			fmt.Sprintf("segment count %d", count))
	}

	items := make([][]*dicom.Element, 0, count)
	for i := 0; i < count; i++ {
		layer := segmentLayer{
			label:       "Layer " + strconv.Itoa(i+1),
			typeCode:    "255503000",
			typeMeaning: "Entire retina",
		}
		if i < len(defaultLayers) {
			layer = defaultLayers[i]
		}

		category := codeItem("91723000", "SCT", "Anatomical Structure")
		if category.err != nil {
			return nil, category.err
		}
		typ := codeItem(layer.typeCode, "SCT", layer.typeMeaning)
		if typ.err != nil {
			return nil, typ.err
		}

		it := &item{}
		it.add(tag.SegmentNumber, []int{i + 1})
		it.add(tag.SegmentLabel, []string{layer.label})
		it.add(tag.SegmentAlgorithmType, []string{"AUTOMATIC"})
		it.addElement(seq(tag.SegmentedPropertyCategoryCodeSequence, category.elements))
		it.addElement(seq(tag.SegmentedPropertyTypeCodeSequence, typ.elements))
		if it.err != nil {
			return nil, it.err
		}
		items = append(items, it.elements)
	}

	return seq(tag.SegmentSequence, items...)
}

// ReferencedSeries cross-links the output to its source instances by SOP
// class/instance UID, grouped per series.
func ReferencedSeries(refs []Ref) (*dicom.Element, error) {
	if len(refs) == 0 {
		return nil, errors.WrapMissing(errors.ErrMissingField, "Synthesizer", "ReferencedSeries",
			"no source references")
	}

	bySeries := make(map[string][]Ref)
	var order []string
	for _, r := range refs {
		if _, ok := bySeries[r.SeriesUID]; !ok {
			order = append(order, r.SeriesUID)
		}
		bySeries[r.SeriesUID] = append(bySeries[r.SeriesUID], r)
	}

	items := make([][]*dicom.Element, 0, len(order))
	for _, series := range order {
		instances := make([][]*dicom.Element, 0, len(bySeries[series]))
		for _, r := range bySeries[series] {
			inst := &item{}
			inst.add(tag.ReferencedSOPClassUID, []string{r.SOPClassUID})
			inst.add(tag.ReferencedSOPInstanceUID, []string{r.SOPInstanceUID})
			if inst.err != nil {
				return nil, inst.err
			}
			instances = append(instances, inst.elements)
		}

		it := &item{}
		it.add(tag.SeriesInstanceUID, []string{series})
		it.addElement(seq(tag.ReferencedInstanceSequence, instances...))
		if it.err != nil {
			return nil, it.err
		}
		items = append(items, it.elements)
	}

	return seq(tag.ReferencedSeriesSequence, items...)
}

// SourceImages records the derivation inputs (enface, segmentation, operator
// image) the output was computed from.
func SourceImages(refs []Ref) (*dicom.Element, error) {
	items := make([][]*dicom.Element, 0, len(refs))
	for _, r := range refs {
		it := &item{}
		it.add(tag.ReferencedSOPClassUID, []string{r.SOPClassUID})
		it.add(tag.ReferencedSOPInstanceUID, []string{r.SOPInstanceUID})
		if it.err != nil {
			return nil, it.err
		}
		items = append(items, it.elements)
	}
	return seq(tag.SourceImageSequence, items...)
}

// FrameLocation embeds the physical reference bounding box computed from the
// companion OCT volume's per-frame spatial metadata, cross-linked to the
// structural instance.
func FrameLocation(oct *entry.Table, ref Ref) (*dicom.Element, error) {
	coords, err := FrameCoordinates(oct)
	if err != nil {
		return nil, err
	}
	box, err := transcode.ReferenceBox(coords)
	if err != nil {
		return nil, err
	}

	it := &item{}
	it.add(tag.ReferencedSOPClassUID, []string{ref.SOPClassUID})
	it.add(tag.ReferencedSOPInstanceUID, []string{ref.SOPInstanceUID})
	it.add(tag.ReferenceCoordinates, box[:])
	if it.err != nil {
		return nil, it.err
	}

	return seq(tag.OphthalmicFrameLocationSequence, it.elements)
}
