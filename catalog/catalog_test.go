package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestConversionRule_TagsDeduplicate(t *testing.T) {
	rule := NewConversionRule("test",
		[]Element{
			{Name: "SOPClassUID", Tag: tag.SOPClassUID, VR: "UI"},
		},
		[]Element{
			{Name: "Modality", Tag: tag.Modality, VR: "CS", Disposition: Harmonize, HarmonizedValue: []string{"OPT"}},
			{Name: "InstanceNumber", Tag: tag.InstanceNumber, VR: "IS"},
			{Name: "InstanceNumber", Tag: tag.InstanceNumber, VR: "IS", Disposition: Blank},
		},
		nil,
	)

	tags := rule.Tags()
	assert.Len(t, tags, 2, "duplicate declarations must collapse")
	assert.Equal(t, tag.Modality, tags[0])
	assert.Equal(t, tag.InstanceNumber, tags[1])
}

func TestConversionRule_DuplicateDeclarationLastWins(t *testing.T) {
	// The tie-break rule must be explicit: for a tag declared twice, the
	// later declaration is the effective one.
	rule := NewConversionRule("test", nil,
		[]Element{
			{Name: "InstanceNumber", Tag: tag.InstanceNumber, VR: "IS", Disposition: Keep},
			{Name: "Laterality", Tag: tag.Laterality, VR: "CS", Disposition: Keep},
			{Name: "InstanceNumber", Tag: tag.InstanceNumber, VR: "IS", Disposition: Harmonize, HarmonizedValue: []string{"1"}},
		},
		nil,
	)

	el, ok := rule.Element(tag.InstanceNumber)
	require.True(t, ok)
	assert.Equal(t, Harmonize, el.Disposition)
	assert.Equal(t, []string{"1"}, el.HarmonizedValue)

	// Position is stable: the tag keeps its first declaration slot.
	assert.Equal(t, []tag.Tag{tag.InstanceNumber, tag.Laterality}, rule.Tags())
}

func TestConversionRule_SequenceTags(t *testing.T) {
	rule := NewConversionRule("test", nil, nil, []Sequence{
		{
			Name: "AnatomicRegionSequence",
			Tag:  tag.AnatomicRegionSequence,
			VR:   "SQ",
			Items: [][]Element{
				{
					{Name: "CodeValue", Tag: tag.CodeValue, VR: "SH"},
					{Name: "CodingSchemeDesignator", Tag: tag.CodingSchemeDesignator, VR: "SH"},
					{Name: "CodeMeaning", Tag: tag.CodeMeaning, VR: "LO"},
				},
			},
		},
	})

	sts := rule.SequenceTags()
	require.Len(t, sts, 1)
	assert.Equal(t, tag.AnatomicRegionSequence, sts[0].Tag)
	require.Len(t, sts[0].ItemTags, 1)
	assert.Equal(t,
		[]tag.Tag{tag.CodeValue, tag.CodingSchemeDesignator, tag.CodeMeaning},
		sts[0].ItemTags[0])
}

func TestConversionRule_AllTags(t *testing.T) {
	rule := NewConversionRule("test",
		[]Element{{Name: "SOPClassUID", Tag: tag.SOPClassUID, VR: "UI"}},
		[]Element{
			{Name: "Modality", Tag: tag.Modality, VR: "CS"},
			// Header/flat overlap must not duplicate in the union.
			{Name: "SOPClassUID", Tag: tag.SOPClassUID, VR: "UI"},
		},
		[]Sequence{{Name: "AnatomicRegionSequence", Tag: tag.AnatomicRegionSequence, VR: "SQ"}},
	)

	all := rule.AllTags(tag.NumberOfFrames)
	assert.Equal(t, []tag.Tag{
		tag.SOPClassUID,
		tag.Modality,
		tag.AnatomicRegionSequence,
		tag.NumberOfFrames,
	}, all)
}

func TestConversionRule_ForcedElements(t *testing.T) {
	rule := NewConversionRule("test", nil,
		[]Element{
			{Name: "Modality", Tag: tag.Modality, VR: "CS"},
			{Name: "PatientOrientation", Tag: tag.PatientOrientation, VR: "CS",
				Disposition: ForceOnRead, HarmonizedValue: []string{"L", "F"}},
		},
		nil,
	)

	forced := rule.ForcedElements()
	require.Len(t, forced, 1)
	assert.Equal(t, tag.PatientOrientation, forced[0].Tag)
	assert.Equal(t, []string{"L", "F"}, forced[0].HarmonizedValue)
}

func TestDisposition_String(t *testing.T) {
	tests := []struct {
		d        Disposition
		expected string
	}{
		{Keep, "keep"},
		{Blank, "blank"},
		{Harmonize, "harmonize"},
		{Designate, "designate"},
		{ForceOnRead, "force-on-read"},
		{Disposition(99), "unknown"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, test.d.String())
	}
}

func TestDictionary(t *testing.T) {
	privateTag := tag.Tag{Group: 0x2201, Element: 0x1002}
	d := NewDictionary(
		DictEntry{Tag: privateTag, Name: "ScanOrientation", VR: "CS", VM: "1"},
		DictEntry{Tag: privateTag, Name: "ScanPattern", VR: "CS", VM: "1"},
	)

	// Last declaration wins, same as catalog elements.
	e, ok := d.Find(privateTag)
	require.True(t, ok)
	assert.Equal(t, "ScanPattern", e.Name)
	assert.Equal(t, 1, d.Len())

	// Standard tags fall back to the standard dictionary.
	assert.Equal(t, "Modality", d.Name(tag.Modality))
	assert.Equal(t, "CS", d.VR(tag.Modality))

	// Unknown tags degrade to empty name / UN.
	unknown := tag.Tag{Group: 0x7777, Element: 0x0001}
	assert.Equal(t, "", d.Name(unknown))
	assert.Equal(t, "UN", d.VR(unknown))

	// A nil dictionary is usable.
	var nilDict *Dictionary
	_, ok = nilDict.Find(privateTag)
	assert.False(t, ok)
	assert.Equal(t, 0, nilDict.Len())
}
