package device

import (
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/writer"
)

// topconDictionary names the Topcon private block shared by the Maestro2 and
// Triton scanners.
func topconDictionary() *catalog.Dictionary {
	return catalog.NewDictionary(
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0039, Element: 0x1001}, Name: "TopconScanMode", VR: "LO", VM: "1"},
		catalog.DictEntry{Tag: tag.Tag{Group: 0x0039, Element: 0x1004}, Name: "TopconImageQuality", VR: "DS", VM: "1"},
	)
}

// Maestro2Triton is the Topcon family. The Maestro2 and Triton emit the same
// metadata shape, so one set of profiles covers both scanners.
func Maestro2Triton() *Family {
	return &Family{
		Name: "maestro2_triton",
		Profiles: map[string]*convert.Profile{
			"oct":    topconOCT(),
			"enface": topconEnface(),
		},
	}
}

func topconElements() []catalog.Element {
	return append(commonElements(),
		catalog.Element{Name: "Manufacturer", Tag: tag.Manufacturer, VR: "LO",
			Disposition: catalog.Harmonize, HarmonizedValue: []string{"Topcon"}},
		// Model name differs per scanner and carries no harmonized value.
		catalog.Element{Name: "ManufacturerModelName", Tag: tag.ManufacturerModelName, VR: "LO",
			Disposition: catalog.Keep},
		catalog.Element{Name: "SoftwareVersions", Tag: tag.SoftwareVersions, VR: "LO",
			Disposition: catalog.Blank},
	)
}

func topconOCT() *convert.Profile {
	elements := append(topconElements(), imageElements()...)
	return &convert.Profile{
		Device:     "maestro2_triton",
		Name:       "oct",
		Rule:       catalog.NewConversionRule("topcon-oct", headerElements(), elements, []catalog.Sequence{anatomySequence()}),
		Dictionary: topconDictionary(),
		Primary:    catalog.RoleOCT,
		Fixups:     []writer.Fixup{writer.SliceThicknessFromPixelSpacing(0)},
	}
}

func topconEnface() *convert.Profile {
	elements := append(topconElements(), imageElements()...)
	return &convert.Profile{
		Device:     "maestro2_triton",
		Name:       "enface",
		Rule:       catalog.NewConversionRule("topcon-enface", headerElements(), elements, []catalog.Sequence{anatomySequence()}),
		Dictionary: topconDictionary(),
		Primary:    catalog.RoleEnface,
		Companions: []catalog.Role{catalog.RoleOCT},
		CompanionTags: map[catalog.Role][]tag.Tag{
			catalog.RoleOCT: structuralTags(),
		},
		Synthesize: enfaceReferences,
	}
}
