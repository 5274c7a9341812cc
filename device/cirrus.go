package device

import (
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/extract"
	"github.com/AI-READI/fairhub-pipeline-sub000/synth"
	"github.com/AI-READI/fairhub-pipeline-sub000/transcode"
	"github.com/AI-READI/fairhub-pipeline-sub000/writer"
)

// cirrusLayers is the two-surface segmentation every Cirrus heightmap
// derives: ILM and RPE.
const cirrusLayers = 2

// cirrusDictionary names the Zeiss private block the scanner writes its
// acquisition parameters into.
func cirrusDictionary() *catalog.Dictionary {
	return catalog.NewDictionary(
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0407, Element: 0x10A0}, Name: "CirrusScanPattern", VR: "LO", VM: "1"},
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0407, Element: 0x10A1}, Name: "CirrusScanDensity", VR: "DS", VM: "1"},
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0407, Element: 0x10A5}, Name: "CirrusSignalStrength", VR: "IS", VM: "1"},
	)
}

// Cirrus is the Zeiss Cirrus 5000 family: the structural OCT cube, the
// en-face projection cross-linked to it, and the derived retinal-surface
// heightmap.
func Cirrus() *Family {
	return &Family{
		Name: "cirrus",
		Profiles: map[string]*convert.Profile{
			"oct":       cirrusOCT(),
			"enface":    cirrusEnface(),
			"heightmap": cirrusHeightmap(),
		},
	}
}

func cirrusElements() []catalog.Element {
	return append(commonElements(),
		catalog.Element{Name: "Manufacturer", Tag: tag.Manufacturer, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"Carl Zeiss Meditec"}},
		catalog.Element{Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"CIRRUS HD-OCT 5000"}},
	)
}

func cirrusOCT() *convert.Profile {
	elements := append(cirrusElements(), imageElements()...)
	return &convert.Profile{
		Device:     "cirrus",
		Name:       "oct",
		Rule:       catalog.NewConversionRule("cirrus-oct", headerElements(), elements, []catalog.Sequence{anatomySequence()}),
		Dictionary: cirrusDictionary(),
		Primary:    catalog.RoleOCT,
		Fixups:     []writer.Fixup{writer.SliceThicknessFromPixelSpacing(0)},
	}
}

func cirrusEnface() *convert.Profile {
	elements := append(cirrusElements(), imageElements()...)
	return &convert.Profile{
		Device:     "cirrus",
		Name:       "enface",
		Rule:       catalog.NewConversionRule("cirrus-enface", headerElements(), elements, []catalog.Sequence{anatomySequence()}),
		Dictionary: cirrusDictionary(),
		Primary:    catalog.RoleEnface,
		Companions: []catalog.Role{catalog.RoleOCT},
		CompanionTags: map[catalog.Role][]tag.Tag{
			catalog.RoleOCT: structuralTags(),
		},
		Synthesize: enfaceReferences,
	}
}

// enfaceReferences cross-links a projection image back to the structural
// volume it was computed from.
func enfaceReferences(s *convert.State) ([]*dicom.Element, error) {
	oct := s.Table(catalog.RoleOCT)
	ref, err := refFrom(oct)
	if err != nil {
		return nil, err
	}

	series, err := synth.ReferencedSeries([]synth.Ref{ref})
	if err != nil {
		return nil, err
	}
	location, err := synth.FrameLocation(oct, ref)
	if err != nil {
		return nil, err
	}
	return []*dicom.Element{series, location}, nil
}

func cirrusHeightmap() *convert.Profile {
	elements := append(cirrusElements(),
		catalog.Element{Name: "ImageLaterality", Tag: tag.ImageLaterality, VR: "CS", Disposition: catalog.Designate},
		catalog.Element{Name: "Rows", Tag: tag.Rows, VR: "US", Disposition: catalog.Keep},
		catalog.Element{Name: "Columns", Tag: tag.Columns, VR: "US", Disposition: catalog.Keep},
		catalog.Element{Name: "NumberOfFrames", Tag: tag.NumberOfFrames, VR: "IS", Disposition: catalog.Designate},
		catalog.Element{Name: "BitsAllocated", Tag: tag.BitsAllocated, VR: "US",
			Disposition: catalog.Harmonize, HarmonizedValue: []int{32}},
		catalog.Element{Name: "SamplesPerPixel", Tag: tag.SamplesPerPixel, VR: "US",
			Disposition: catalog.Harmonize, HarmonizedValue: []int{1}},
		catalog.Element{Name: "PhotometricInterpretation", Tag: tag.PhotometricInterpretation, VR: "CS",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"MONOCHROME2"}},
	)

	return &convert.Profile{
		Device:     "cirrus",
		Name:       "heightmap",
		Rule:       catalog.NewConversionRule("cirrus-heightmap", headerElements(), elements, nil),
		Dictionary: cirrusDictionary(),
		Maps: []catalog.Map{
			{Name: "laterality", Tag: tag.ImageLaterality, Role: catalog.RoleOCT,
				MappedName: "ImageLaterality", MappedTags: []tag.Tag{tag.ImageLaterality}},
			// Frame count comes from the structural volume's per-frame
			// cardinality, not from the cube header the scanner wrote.
			{Name: "frames", Tag: tag.NumberOfFrames, Role: catalog.RoleOCT,
				MappedName: "PerFrameFunctionalGroupsSequence",
				MappedTags: []tag.Tag{tag.NumberOfFrames, tag.PerFrameFunctionalGroupsSequence}},
		},
		Primary:    catalog.RoleSEG,
		Companions: []catalog.Role{catalog.RoleOCT},
		Optional:   []catalog.Role{catalog.RoleEnface},
		CompanionTags: map[catalog.Role][]tag.Tag{
			catalog.RoleOCT:    structuralTags(),
			catalog.RoleEnface: companionRefTags(),
		},
		Transcode:  cirrusBoundaryTranscode,
		Synthesize: cirrusHeightmapSynth,
		Fixups:     []writer.Fixup{writer.DimensionOrganizationFromIndex()},
	}
}

// cirrusBoundaryTranscode turns the binary segmentation cube into the
// two-surface boundary heightmap, emitted as floating-point pixel data.
func cirrusBoundaryTranscode(s *convert.State) (*extract.Payload, error) {
	seg := s.Table(s.Profile.Primary)
	raw, err := payloadBytes(s.Payloads[s.Profile.Primary])
	if err != nil {
		return nil, err
	}

	frames, okF := tableInt(seg, tag.NumberOfFrames)
	rows, okR := tableInt(seg, tag.Rows)
	cols, okC := tableInt(seg, tag.Columns)
	if !okF || !okR || !okC {
		return nil, errors.WrapMissing(errors.ErrMissingField, "Device", "cirrusBoundaryTranscode",
			"segmentation cube dimensions")
	}

	volume, err := reshapeVolume(raw, frames, rows, cols)
	if err != nil {
		return nil, err
	}
	heights, err := transcode.BoundaryHeightmap(volume, 255)
	if err != nil {
		return nil, err
	}

	return &extract.Payload{
		Tag:   floatPixelData,
		VR:    "OF",
		Value: transcode.FlattenHeightmap(heights),
	}, nil
}

func cirrusHeightmapSynth(s *convert.State) ([]*dicom.Element, error) {
	return derivedSequences(s, s.Table(catalog.RoleOCT), cirrusLayers)
}
