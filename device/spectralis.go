package device

import (
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/extract"
	"github.com/AI-READI/fairhub-pipeline-sub000/transcode"
	"github.com/AI-READI/fairhub-pipeline-sub000/writer"
)

// spectralisLayers mirrors the Cirrus surfaces: ILM and RPE.
const spectralisLayers = 2

func spectralisDictionary() *catalog.Dictionary {
	return catalog.NewDictionary(
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0063, Element: 0x1001}, Name: "SpectralisScanPattern", VR: "LO", VM: "1"},
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0063, Element: 0x1009}, Name: "SpectralisARTFrames", VR: "IS", VM: "1"},
	)
}

// Spectralis is the Heidelberg Spectralis family. Its segmentation export is
// a layer-major point cloud rather than a binary cube, so the heightmap
// profile bins points onto the structural grid instead of scanning for
// boundary transitions.
func Spectralis() *Family {
	return &Family{
		Name: "spectralis",
		Profiles: map[string]*convert.Profile{
			"oct":       spectralisOCT(),
			"heightmap": spectralisHeightmap(),
		},
	}
}

func spectralisElements() []catalog.Element {
	return append(commonElements(),
		catalog.Element{Name: "Manufacturer", Tag: tag.Manufacturer, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"Heidelberg Engineering"}},
		catalog.Element{Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"Spectralis"}},
	)
}

func spectralisOCT() *convert.Profile {
	elements := append(spectralisElements(), imageElements()...)
	return &convert.Profile{
		Device:     "spectralis",
		Name:       "oct",
		Rule:       catalog.NewConversionRule("spectralis-oct", headerElements(), elements, []catalog.Sequence{anatomySequence()}),
		Dictionary: spectralisDictionary(),
		Primary:    catalog.RoleOCT,
	}
}

func spectralisHeightmap() *convert.Profile {
	elements := append(spectralisElements(),
		catalog.Element{Name: "ImageLaterality", Tag: tag.ImageLaterality, VR: "CS", Disposition: catalog.Designate},
		catalog.Element{Name: "Rows", Tag: tag.Rows, VR: "US", Disposition: catalog.Keep},
		catalog.Element{Name: "Columns", Tag: tag.Columns, VR: "US", Disposition: catalog.Keep},
		catalog.Element{Name: "NumberOfFrames", Tag: tag.NumberOfFrames, VR: "IS", Disposition: catalog.Keep},
		catalog.Element{Name: "BitsAllocated", Tag: tag.BitsAllocated, VR: "US",
			Disposition: catalog.Harmonize, HarmonizedValue: []int{32}},
		catalog.Element{Name: "SamplesPerPixel", Tag: tag.SamplesPerPixel, VR: "US",
			Disposition: catalog.Harmonize, HarmonizedValue: []int{1}},
		catalog.Element{Name: "PhotometricInterpretation", Tag: tag.PhotometricInterpretation, VR: "CS",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"MONOCHROME2"}},
	)

	return &convert.Profile{
		Device:     "spectralis",
		Name:       "heightmap",
		Rule:       catalog.NewConversionRule("spectralis-heightmap", headerElements(), elements, nil),
		Dictionary: spectralisDictionary(),
		Maps: []catalog.Map{
			{Name: "laterality", Tag: tag.ImageLaterality, Role: catalog.RoleOCT,
				MappedName: "ImageLaterality", MappedTags: []tag.Tag{tag.ImageLaterality}},
		},
		Primary:    catalog.RoleSEG,
		Companions: []catalog.Role{catalog.RoleOCT},
		CompanionTags: map[catalog.Role][]tag.Tag{
			catalog.RoleOCT: structuralTags(),
		},
		Transcode:  spectralisPointTranscode,
		Synthesize: spectralisHeightmapSynth,
		Fixups:     []writer.Fixup{writer.DimensionOrganizationFromIndex()},
	}
}

// spectralisPointTranscode bins the layer-major float32 (x, y, z) point
// records of the segmentation export onto the structural grid, z scaled to
// millimeters by the structural slice thickness.
func spectralisPointTranscode(s *convert.State) (*extract.Payload, error) {
	seg := s.Table(s.Profile.Primary)
	raw, err := payloadBytes(s.Payloads[s.Profile.Primary])
	if err != nil {
		return nil, err
	}
	values, err := decodeFloat32(raw)
	if err != nil {
		return nil, err
	}
	if len(values)%(3*spectralisLayers) != 0 {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Device", "spectralisPointTranscode",
			"point records not layer-aligned")
	}

	width, okW := tableInt(seg, tag.Columns)
	height, okH := tableInt(seg, tag.Rows)
	if !okW || !okH {
		return nil, errors.WrapMissing(errors.ErrMissingField, "Device", "spectralisPointTranscode",
			"segmentation grid dimensions")
	}
	zScale, err := sliceThicknessMM(s.Table(catalog.RoleOCT))
	if err != nil {
		return nil, err
	}

	perLayer := len(values) / (3 * spectralisLayers)
	layers := make([][]transcode.Point, spectralisLayers)
	for l := range layers {
		points := make([]transcode.Point, 0, perLayer)
		base := l * perLayer * 3
		for p := 0; p < perLayer; p++ {
			off := base + p*3
			points = append(points, transcode.Point{X: values[off], Y: values[off+1], Z: values[off+2]})
		}
		layers[l] = points
	}

	surfaces, err := transcode.PointCloudHeightmap(layers, width, height, zScale)
	if err != nil {
		return nil, err
	}
	return &extract.Payload{
		Tag:   floatPixelData,
		VR:    "OF",
		Value: transcode.FlattenHeightmap(surfaces),
	}, nil
}

func spectralisHeightmapSynth(s *convert.State) ([]*dicom.Element, error) {
	return derivedSequences(s, s.Table(catalog.RoleOCT), spectralisLayers)
}
