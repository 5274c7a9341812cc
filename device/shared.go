// Package device holds the four supported acquisition families - cirrus,
// maestro2_triton, spectralis and flio - expressed purely as conversion
// profiles over the generic engine: declaration tables, mapping tables and
// small synthesizer/transcoder callbacks. No family reaches into the engine
// internals.
package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/extract"
	"github.com/AI-READI/fairhub-pipeline-sub000/synth"
)

// floatPixelData (7FE0,0008) carries derived floating-point payloads.
var floatPixelData = tag.Tag{Group: 0x7FE0, Element: 0x0008}

// headerElements is the identity block every profile evaluates first. A
// source file missing any of these cannot be converted.
func headerElements() []catalog.Element {
	return []catalog.Element{
		{Name: "SOPClassUID", Tag: tag.SOPClassUID, VR: "UI", Disposition: catalog.Keep},
		{Name: "SOPInstanceUID", Tag: tag.SOPInstanceUID, VR: "UI", Disposition: catalog.Keep},
		{Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID, VR: "UI", Disposition: catalog.Keep},
		{Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID, VR: "UI", Disposition: catalog.Keep},
	}
}

// commonElements is the shared harmonization core: acquisition context kept,
// free-text and schedule fields blanked, de-identification markers stamped.
func commonElements() []catalog.Element {
	return []catalog.Element{
		{Name: "Modality", Tag: tag.Modality, VR: "CS", Disposition: catalog.Keep},
		{Name: "StudyDate", Tag: tag.StudyDate, VR: "DA", Disposition: catalog.Keep},
		{Name: "StudyTime", Tag: tag.StudyTime, VR: "TM", Disposition: catalog.Keep},
		{Name: "SeriesNumber", Tag: tag.SeriesNumber, VR: "IS", Disposition: catalog.Keep},
		{Name: "InstanceNumber", Tag: tag.InstanceNumber, VR: "IS", Disposition: catalog.Keep},
		{Name: "PatientID", Tag: tag.PatientID, VR: "LO", Disposition: catalog.Keep},
		{Name: "PatientSex", Tag: tag.PatientSex, VR: "CS", Disposition: catalog.Keep},

		{Name: "PatientName", Tag: tag.PatientName, VR: "PN", Disposition: catalog.Blank},
		{Name: "PatientBirthDate", Tag: tag.PatientBirthDate, VR: "DA", Disposition: catalog.Blank},
		{Name: "AccessionNumber", Tag: tag.AccessionNumber, VR: "SH", Disposition: catalog.Blank},
		{Name: "ReferringPhysicianName", Tag: tag.ReferringPhysicianName, VR: "PN", Disposition: catalog.Blank},
		{Name: "InstitutionName", Tag: tag.InstitutionName, VR: "LO", Disposition: catalog.Blank},
		{Name: "StationName", Tag: tag.StationName, VR: "SH", Disposition: catalog.Blank},
		{Name: "OperatorsName", Tag: tag.OperatorsName, VR: "PN", Disposition: catalog.Blank},
		{Name: "DeviceSerialNumber", Tag: tag.DeviceSerialNumber, VR: "LO", Disposition: catalog.Blank},

		{Name: "PatientIdentityRemoved", Tag: tag.PatientIdentityRemoved, VR: "CS",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"YES"}},
		{Name: "BurnedInAnnotation", Tag: tag.BurnedInAnnotation, VR: "CS",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"NO"}},
	}
}

// imageElements is the pixel-module block for profiles whose output carries
// image pixel data.
func imageElements() []catalog.Element {
	return []catalog.Element{
		{Name: "Rows", Tag: tag.Rows, VR: "US", Disposition: catalog.Keep},
		{Name: "Columns", Tag: tag.Columns, VR: "US", Disposition: catalog.Keep},
		{Name: "BitsAllocated", Tag: tag.BitsAllocated, VR: "US", Disposition: catalog.Keep},
		{Name: "BitsStored", Tag: tag.BitsStored, VR: "US", Disposition: catalog.Keep},
		{Name: "HighBit", Tag: tag.HighBit, VR: "US", Disposition: catalog.Keep},
		{Name: "PixelRepresentation", Tag: tag.PixelRepresentation, VR: "US", Disposition: catalog.Keep},
		{Name: "SamplesPerPixel", Tag: tag.SamplesPerPixel, VR: "US", Disposition: catalog.Keep},
		{Name: "PhotometricInterpretation", Tag: tag.PhotometricInterpretation, VR: "CS", Disposition: catalog.Keep},
		{Name: "NumberOfFrames", Tag: tag.NumberOfFrames, VR: "IS", Disposition: catalog.Keep},
		{Name: "ImageLaterality", Tag: tag.ImageLaterality, VR: "CS", Disposition: catalog.Keep},
		{Name: "PixelSpacing", Tag: tag.PixelSpacing, VR: "DS", Disposition: catalog.Keep},
		{Name: "SliceThickness", Tag: tag.SliceThickness, VR: "DS", Disposition: catalog.Keep},
	}
}

// anatomySequence declares the coded anatomic region every output carries,
// populated from the source when present and emitted empty otherwise.
func anatomySequence() catalog.Sequence {
	return catalog.Sequence{
		Name: "AnatomicRegionSequence",
		Tag:  tag.AnatomicRegionSequence,
		VR:   "SQ",
		Items: [][]catalog.Element{{
			{Name: "CodeValue", Tag: tag.CodeValue, VR: "SH", Disposition: catalog.Keep},
			{Name: "CodingSchemeDesignator", Tag: tag.CodingSchemeDesignator, VR: "SH", Disposition: catalog.Keep},
			{Name: "CodeMeaning", Tag: tag.CodeMeaning, VR: "LO", Disposition: catalog.Keep},
		}},
	}
}

// companionRefTags are the tags every companion table needs for cross-file
// reference synthesis.
func companionRefTags() []tag.Tag {
	return []tag.Tag{
		tag.SOPClassUID,
		tag.SOPInstanceUID,
		tag.SeriesInstanceUID,
	}
}

// structuralTags are the extra OCT companion tags the geometry synthesizers
// read.
func structuralTags() []tag.Tag {
	return append(companionRefTags(),
		tag.ImageLaterality,
		tag.DimensionOrganizationSequence,
		tag.SharedFunctionalGroupsSequence,
		tag.PerFrameFunctionalGroupsSequence,
	)
}

// refFrom builds the cross-link reference for one companion table.
func refFrom(tbl *entry.Table) (synth.Ref, error) {
	if tbl == nil {
		return synth.Ref{}, errors.WrapMissing(errors.ErrMissingCompanion, "Device", "refFrom",
			"no companion table")
	}
	ref := synth.Ref{
		SeriesUID:      tbl.FirstString(tag.SeriesInstanceUID),
		SOPClassUID:    tbl.FirstString(tag.SOPClassUID),
		SOPInstanceUID: tbl.FirstString(tag.SOPInstanceUID),
	}
	if ref.SOPClassUID == "" || ref.SOPInstanceUID == "" {
		return synth.Ref{}, errors.WrapMissing(errors.ErrMissingField, "Device", "refFrom",
			"companion SOP identifiers")
	}
	return ref, nil
}

// sliceThicknessMM reads the structural volume's slice thickness as the
// device-unit to millimeter scale factor.
func sliceThicknessMM(oct *entry.Table) (float64, error) {
	spacing, thickness, err := synth.PixelMeasures(oct)
	if err != nil {
		return 0, err
	}
	raw := spacing[0]
	if len(thickness) > 0 {
		raw = thickness[0]
	}
	mm, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.WrapInvalid(errors.ErrShapeMismatch, "Device", "sliceThicknessMM",
			"unparseable thickness "+raw)
	}
	return mm, nil
}

// payloadBytes unwraps the raw pixel bytes of an extracted payload.
func payloadBytes(p *extract.Payload) ([]byte, error) {
	if p == nil {
		return nil, errors.WrapMissing(errors.ErrMissingPayload, "Device", "payloadBytes",
			"no pixel payload")
	}
	switch v := p.Value.(type) {
	case dicom.PixelDataInfo:
		return v.UnprocessedValueData, nil
	case []byte:
		return v, nil
	}
	return nil, errors.WrapInvalid(errors.ErrMissingPayload, "Device", "payloadBytes",
		fmt.Sprintf("payload type %T", p.Value))
}

// reshapeVolume reinterprets raw 8-bit pixel bytes as a (frames, rows, cols)
// volume.
func reshapeVolume(raw []byte, frames, rows, cols int) ([][][]uint8, error) {
	if frames <= 0 || rows <= 0 || cols <= 0 || len(raw) != frames*rows*cols {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Device", "reshapeVolume",
			fmt.Sprintf("%d bytes against %dx%dx%d", len(raw), frames, rows, cols))
	}
	volume := make([][][]uint8, frames)
	for f := 0; f < frames; f++ {
		slice := make([][]uint8, rows)
		for r := 0; r < rows; r++ {
			off := (f*rows + r) * cols
			slice[r] = raw[off : off+cols]
		}
		volume[f] = slice
	}
	return volume, nil
}

// decodeFloat32 reinterprets raw little-endian bytes as float64 values.
func decodeFloat32(raw []byte) ([]float64, error) {
	if len(raw)%4 != 0 {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Device", "decodeFloat32",
			fmt.Sprintf("%d bytes not float32-aligned", len(raw)))
	}
	out := make([]float64, 0, len(raw)/4)
	for off := 0; off < len(raw); off += 4 {
		bits := binary.LittleEndian.Uint32(raw[off:])
		out = append(out, float64(math.Float32frombits(bits)))
	}
	return out, nil
}

// tableInt reads a single integer field, accepting the IS string form.
func tableInt(tbl *entry.Table, t tag.Tag) (int, bool) {
	e, ok := tbl.Get(t)
	if !ok {
		return 0, false
	}
	switch v := e.Value.(type) {
	case []int:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(v[0]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// derivedSequences is the synthesis block shared by the heightmap profiles:
// geometry from the structural companion, segment descriptors, dimension
// organization copied from the companion, and cross-file references.
func derivedSequences(s *convert.State, oct *entry.Table, layers int) ([]*dicom.Element, error) {
	laterality := oct.FirstString(tag.ImageLaterality)
	if laterality == "" {
		laterality = s.Table(s.Profile.Primary).FirstString(tag.ImageLaterality)
	}
	mm, err := sliceThicknessMM(oct)
	if err != nil {
		return nil, err
	}

	octRef, err := refFrom(oct)
	if err != nil {
		return nil, err
	}
	refs := []synth.Ref{octRef}
	for _, role := range s.Profile.Optional {
		if tbl := s.Table(role); tbl != nil {
			ref, err := refFrom(tbl)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
	}

	orgUID, err := synth.OrganizationUID(oct)
	if err != nil {
		return nil, err
	}

	var out []*dicom.Element
	add := func(e *dicom.Element, buildErr error) {
		if err == nil {
			err = buildErr
		}
		if err == nil {
			out = append(out, e)
		}
	}

	add(synth.SharedFunctionalGroups(oct, laterality, mm))
	add(synth.PerFrameFunctionalGroups(layers))
	add(synth.SegmentSequence(layers))
	add(synth.ReferencedSeries(refs))
	add(synth.SourceImages(refs))
	add(synth.FrameLocation(oct, octRef))
	if err != nil {
		return nil, err
	}

	dim, err := synth.DimensionOrganization(orgUID)
	if err != nil {
		return nil, err
	}
	return append(out, dim...), nil
}
