package device

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/AI-READI/fairhub-pipeline-sub000/catalog"
	"github.com/AI-READI/fairhub-pipeline-sub000/convert"
	"github.com/AI-READI/fairhub-pipeline-sub000/entry"
	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
	"github.com/AI-READI/fairhub-pipeline-sub000/testutil"
)

const (
	octSOPClass = "1.2.840.10008.5.1.4.1.1.77.1.5.4"
	segSOPClass = "1.2.840.10008.5.1.4.1.1.66.4"
	orgUID      = "1.2.826.0.1.3680043.9.99.1"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"cirrus", "flio", "maestro2_triton", "spectralis"}, r.Devices())

	for device, profiles := range map[string][]string{
		"cirrus":          {"enface", "heightmap", "oct"},
		"maestro2_triton": {"enface", "oct"},
		"spectralis":      {"heightmap", "oct"},
		"flio":            {"flio"},
	} {
		names, err := r.Profiles(device)
		require.NoError(t, err)
		assert.Equal(t, profiles, names, device)

		for _, name := range names {
			p, err := r.Lookup(device, name)
			require.NoError(t, err)
			assert.Equal(t, device, p.Device)
			assert.NotNil(t, p.Rule)
		}
	}
}

func TestRegistry_UnknownLookups(t *testing.T) {
	r := Default()

	_, err := r.Lookup("kowa", "oct")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownDevice))

	_, err = r.Lookup("cirrus", "flio")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownProfile))
}

func TestReshapeVolume(t *testing.T) {
	raw := make([]byte, 12)
	for i := range raw {
		raw[i] = byte(i)
	}

	volume, err := reshapeVolume(raw, 2, 3, 2)
	require.NoError(t, err)
	require.Len(t, volume, 2)
	assert.Equal(t, []uint8{0, 1}, volume[0][0])
	assert.Equal(t, []uint8{10, 11}, volume[1][2])

	_, err = reshapeVolume(raw, 2, 3, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestDecodeFloat32(t *testing.T) {
	// 1.0 and -2.5 little-endian.
	raw := []byte{0x00, 0x00, 0x80, 0x3F, 0x00, 0x00, 0x20, 0xC0}
	values, err := decodeFloat32(raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, -2.5}, values)

	_, err = decodeFloat32(raw[:7])
	require.Error(t, err)
}

func TestTableInt(t *testing.T) {
	tbl := entry.NewTable()
	tbl.Put(&entry.Entry{Tag: tag.Rows, VR: "US", Value: []int{496}})
	tbl.Put(&entry.Entry{Tag: tag.NumberOfFrames, VR: "IS", Value: []string{"128"}})

	n, ok := tableInt(tbl, tag.Rows)
	assert.True(t, ok)
	assert.Equal(t, 496, n)

	n, ok = tableInt(tbl, tag.NumberOfFrames)
	assert.True(t, ok)
	assert.Equal(t, 128, n)

	_, ok = tableInt(tbl, tag.Columns)
	assert.False(t, ok)
}

// writeStructuralOCT builds a synthetic Cirrus cube file with the geometry
// blocks the heightmap synthesizers read.
func writeStructuralOCT(t *testing.T, dir string) string {
	t.Helper()

	pixelMeasures := testutil.MustSequence(t, tag.PixelMeasuresSequence, testutil.SequenceItem(
		testutil.MustElement(t, tag.PixelSpacing, []string{"0.0117", "0.0469"}),
		testutil.MustElement(t, tag.SliceThickness, []string{"0.0469"}),
	))
	perFrame := make([][]*dicom.Element, 0, 2)
	for _, pos := range [][]string{{"-3.0", "2.25", "0"}, {"3.0", "-2.25", "0"}} {
		perFrame = append(perFrame, testutil.SequenceItem(
			testutil.MustSequence(t, tag.PlanePositionSequence, testutil.SequenceItem(
				testutil.MustElement(t, tag.ImagePositionPatient, pos),
			)),
		))
	}

	path := filepath.Join(dir, "oct.dcm")
	testutil.WriteFile(t, path, append(testutil.MetaElements(t, octSOPClass, "1.2.3.100.1"),
		testutil.MustElement(t, tag.SOPClassUID, []string{octSOPClass}),
		testutil.MustElement(t, tag.SOPInstanceUID, []string{"1.2.3.100.1"}),
		testutil.MustElement(t, tag.SeriesInstanceUID, []string{"1.2.3.100"}),
		testutil.MustElement(t, tag.ImageLaterality, []string{"R"}),
		testutil.MustSequence(t, tag.DimensionOrganizationSequence, testutil.SequenceItem(
			testutil.MustElement(t, tag.DimensionOrganizationUID, []string{orgUID}),
		)),
		testutil.MustSequence(t, tag.SharedFunctionalGroupsSequence, testutil.SequenceItem(pixelMeasures)),
		testutil.MustSequence(t, tag.PerFrameFunctionalGroupsSequence, perFrame...),
	))
	return path
}

// writeSegmentationCube builds a 2-frame 4x3 binary cube with one 255 band
// per column: rising boundary at row 1, falling at row 3.
func writeSegmentationCube(t *testing.T, dir string) string {
	t.Helper()

	const frames, rows, cols = 2, 4, 3
	raw := make([]byte, frames*rows*cols)
	for f := 0; f < frames; f++ {
		for r := 1; r < 3; r++ {
			for c := 0; c < cols; c++ {
				raw[(f*rows+r)*cols+c] = 255
			}
		}
	}

	path := filepath.Join(dir, "seg.dcm")
	testutil.WriteFile(t, path, append(testutil.MetaElements(t, segSOPClass, "1.2.3.200.1"),
		testutil.MustElement(t, tag.SOPClassUID, []string{segSOPClass}),
		testutil.MustElement(t, tag.SOPInstanceUID, []string{"1.2.3.200.1"}),
		testutil.MustElement(t, tag.StudyInstanceUID, []string{"1.2.3"}),
		testutil.MustElement(t, tag.SeriesInstanceUID, []string{"1.2.3.200"}),
		testutil.MustElement(t, tag.Modality, []string{"SEG"}),
		testutil.MustElement(t, tag.PatientID, []string{"AIREADI-0001"}),
		testutil.MustElement(t, tag.Rows, []int{rows}),
		testutil.MustElement(t, tag.Columns, []int{cols}),
		testutil.MustElement(t, tag.NumberOfFrames, []string{"2"}),
		testutil.MustElement(t, tag.PixelData, testutil.SmallPixelData(raw)),
	))
	return path
}

func findElement(t *testing.T, ds dicom.Dataset, tg tag.Tag) *dicom.Element {
	t.Helper()
	e, err := ds.FindElementByTag(tg)
	require.NoError(t, err, "element %v", tg)
	return e
}

func TestCirrusHeightmap_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	profile, err := Default().Lookup("cirrus", "heightmap")
	require.NoError(t, err)

	out, err := convert.Convert(context.Background(), profile, convert.Job{
		Inputs: map[catalog.Role]string{
			catalog.RoleSEG: writeSegmentationCube(t, dir),
			catalog.RoleOCT: writeStructuralOCT(t, dir),
		},
		OutputDir:  filepath.Join(dir, "out"),
		OutputName: "heightmap.dcm",
	})
	require.NoError(t, err)

	ds, err := dicom.ParseFile(out, nil, dicom.SkipProcessingPixelDataValue())
	require.NoError(t, err)

	assert.Equal(t, []string{"R"}, findElement(t, ds, tag.ImageLaterality).Value.GetValue(),
		"laterality designated from the structural companion")
	assert.Equal(t, []string{"Carl Zeiss Meditec"}, findElement(t, ds, tag.Manufacturer).Value.GetValue())

	assert.Equal(t, []string{"2"}, findElement(t, ds, tag.NumberOfFrames).Value.GetValue(),
		"frame count designated from the structural companion")

	// Flat identifier reconciled against the synthesized index sequence.
	assert.Equal(t, []string{orgUID}, findElement(t, ds, tag.DimensionOrganizationUID).Value.GetValue())

	segments, _ := findElement(t, ds, tag.SegmentSequence).Value.GetValue().([]*dicom.SequenceItemValue)
	assert.Len(t, segments, cirrusLayers)

	// Two surfaces over 2 slices x 3 columns, every cell the same band.
	heights, ok := findElement(t, ds, floatPixelData).Value.GetValue().([]float64)
	require.True(t, ok)
	require.Len(t, heights, 12)
	for i := 0; i < 6; i++ {
		assert.Equal(t, 1.0, heights[i], "rising boundary")
	}
	for i := 6; i < 12; i++ {
		assert.Equal(t, 3.0, heights[i], "falling boundary")
	}
}

func TestCirrusHeightmap_FrameCountFromStructuralVolume(t *testing.T) {
	dir := t.TempDir()
	profile, err := Default().Lookup("cirrus", "heightmap")
	require.NoError(t, err)

	// Structural volume with three B-scans against a cube header declaring
	// two frames: a kept cube value could never resolve to three.
	pixelMeasures := testutil.MustSequence(t, tag.PixelMeasuresSequence, testutil.SequenceItem(
		testutil.MustElement(t, tag.PixelSpacing, []string{"0.0117", "0.0469"}),
		testutil.MustElement(t, tag.SliceThickness, []string{"0.0469"}),
	))
	perFrame := make([][]*dicom.Element, 0, 3)
	for _, pos := range [][]string{{"-3.0", "2.25", "0"}, {"0", "0", "0"}, {"3.0", "-2.25", "0"}} {
		perFrame = append(perFrame, testutil.SequenceItem(
			testutil.MustSequence(t, tag.PlanePositionSequence, testutil.SequenceItem(
				testutil.MustElement(t, tag.ImagePositionPatient, pos),
			)),
		))
	}
	octPath := filepath.Join(dir, "oct3.dcm")
	testutil.WriteFile(t, octPath, append(testutil.MetaElements(t, octSOPClass, "1.2.3.100.2"),
		testutil.MustElement(t, tag.SOPClassUID, []string{octSOPClass}),
		testutil.MustElement(t, tag.SOPInstanceUID, []string{"1.2.3.100.2"}),
		testutil.MustElement(t, tag.SeriesInstanceUID, []string{"1.2.3.100"}),
		testutil.MustElement(t, tag.ImageLaterality, []string{"L"}),
		testutil.MustSequence(t, tag.DimensionOrganizationSequence, testutil.SequenceItem(
			testutil.MustElement(t, tag.DimensionOrganizationUID, []string{orgUID}),
		)),
		testutil.MustSequence(t, tag.SharedFunctionalGroupsSequence, testutil.SequenceItem(pixelMeasures)),
		testutil.MustSequence(t, tag.PerFrameFunctionalGroupsSequence, perFrame...),
	))

	out, err := convert.Convert(context.Background(), profile, convert.Job{
		Inputs: map[catalog.Role]string{
			catalog.RoleSEG: writeSegmentationCube(t, dir),
			catalog.RoleOCT: octPath,
		},
		OutputDir: filepath.Join(dir, "out"),
	})
	require.NoError(t, err)

	ds, err := dicom.ParseFile(out, nil, dicom.SkipProcessingPixelDataValue())
	require.NoError(t, err)

	assert.Equal(t, []string{"3"}, findElement(t, ds, tag.NumberOfFrames).Value.GetValue(),
		"frame count follows the companion's per-frame cardinality, not the cube header")
}

func TestCirrusHeightmap_BadCubeShapeFails(t *testing.T) {
	dir := t.TempDir()
	profile, err := Default().Lookup("cirrus", "heightmap")
	require.NoError(t, err)

	// Declared dimensions disagree with the payload length.
	path := filepath.Join(dir, "seg.dcm")
	testutil.WriteFile(t, path, append(testutil.MetaElements(t, segSOPClass, "1.2.3.200.2"),
		testutil.MustElement(t, tag.SOPClassUID, []string{segSOPClass}),
		testutil.MustElement(t, tag.SOPInstanceUID, []string{"1.2.3.200.2"}),
		testutil.MustElement(t, tag.StudyInstanceUID, []string{"1.2.3"}),
		testutil.MustElement(t, tag.SeriesInstanceUID, []string{"1.2.3.200"}),
		testutil.MustElement(t, tag.Rows, []int{10}),
		testutil.MustElement(t, tag.Columns, []int{10}),
		testutil.MustElement(t, tag.NumberOfFrames, []string{"2"}),
		testutil.MustElement(t, tag.PixelData, testutil.SmallPixelData(make([]byte, 8))),
	))

	_, err = convert.Convert(context.Background(), profile, convert.Job{
		Inputs: map[catalog.Role]string{
			catalog.RoleSEG: path,
			catalog.RoleOCT: writeStructuralOCT(t, dir),
		},
		OutputDir: dir,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestFlioProfile_ForcesOrientation(t *testing.T) {
	p, err := Default().Lookup("flio", "flio")
	require.NoError(t, err)
	assert.True(t, p.FloatPayload)

	forced := make(map[tag.Tag]any)
	for _, el := range p.Rule.ForcedElements() {
		forced[el.Tag] = el.HarmonizedValue
	}
	require.Len(t, forced, 2)
	assert.Equal(t, []string{"L", "F"}, forced[tag.PatientOrientation])
	assert.Equal(t, []string{"1", "0", "0", "0", "1", "0"}, forced[tag.ImageOrientationPatient],
		"axial orientation overwritten at read time")
}
