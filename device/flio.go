package device

import (
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
)

// flioDictionary names the Heidelberg private block the FLIO prototype
// writes its lifetime parameters into.
func flioDictionary() *catalog.Dictionary {
	return catalog.NewDictionary(
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0073, Element: 0x1001}, Name: "FlioSpectralChannel", VR: "CS", VM: "1"},
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0073, Element: 0x1002}, Name: "FlioRepetitionRate", VR: "DS", VM: "1"},
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0073, Element: 0x1003}, Name: "FlioPhotonCount", VR: "IS", VM: "1"},
	)
}

// Flio is the fluorescence-lifetime family. The prototype writes its decay
// maps as floating-point pixel data and records patient orientation
// inconsistently across firmware revisions, so the orientation fields are
// forced to the upright convention at read time.
func Flio() *Family {
	return &Family{
		Name: "flio",
		Profiles: map[string]*convert.Profile{
			"flio": flioProfile(),
		},
	}
}

func flioProfile() *convert.Profile {
	elements := append(commonElements(),
		catalog.Element{Name: "Manufacturer", Tag: tag.Manufacturer, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"Heidelberg Engineering"}},
		catalog.Element{Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"FLIO"}},
		catalog.Element{Name: "PatientOrientation", Tag: tag.PatientOrientation, VR: "CS",
			Disposition: catalog.ForceOnRead, HarmonizedValue: []string{"L", "F"}},
		catalog.Element{Name: "ImageOrientationPatient", Tag: tag.ImageOrientationPatient, VR: "DS",
			Disposition: catalog.ForceOnRead, HarmonizedValue: []string{"1", "0", "0", "0", "1", "0"}},
		catalog.Element{Name: "ImageLaterality", Tag: tag.ImageLaterality, VR: "CS", Disposition: catalog.Keep},
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
		Device:     "flio",
		Name:       "flio",
		Rule:       catalog.NewConversionRule("flio", headerElements(), elements, []catalog.Sequence{anatomySequence()}),
		Dictionary: flioDictionary(),
		Primary:    catalog.RoleFlow,
		// Lifetime maps live in the floating-point alternate payload.
		FloatPayload: true,
	}
}
