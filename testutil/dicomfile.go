// Package testutil provides test fixtures for the conversion engine:
// builders for synthetic DICOM datasets and files with known metadata,
// sequences and pixel payloads. No device-specific knowledge lives here.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MustElement builds a dataset element or fails the test.
func MustElement(t *testing.T, tg tag.Tag, value any) *dicom.Element {
	t.Helper()
	el, err := dicom.NewElement(tg, value)
	require.NoError(t, err, "building element %v", tg)
	return el
}

// SequenceItem bundles the elements of one sequence item.
func SequenceItem(elements ...*dicom.Element) []*dicom.Element {
	return elements
}

// MustSequence builds a sequence element from item element lists.
func MustSequence(t *testing.T, tg tag.Tag, items ...[]*dicom.Element) *dicom.Element {
	t.Helper()
	data := make([][]*dicom.Element, 0, len(items))
	data = append(data, items...)
	el, err := dicom.NewElement(tg, data)
	require.NoError(t, err, "building sequence %v", tg)
	return el
}

// MetaElements returns the minimal file meta group for a synthetic file:
// storage SOP class/instance plus explicit little endian transfer syntax.
func MetaElements(t *testing.T, sopClassUID, sopInstanceUID string) []*dicom.Element {
	t.Helper()
	return []*dicom.Element{
		MustElement(t, tag.MediaStorageSOPClassUID, []string{sopClassUID}),
		MustElement(t, tag.MediaStorageSOPInstanceUID, []string{sopInstanceUID}),
		MustElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
	}
}

// WriteFile serializes elements to path as a DICOM file.
func WriteFile(t *testing.T, path string, elements []*dicom.Element) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	ds := dicom.Dataset{Elements: elements}
	require.NoError(t, dicom.Write(f, ds, dicom.SkipVRVerification()))
}

// SmallPixelData returns a PixelDataInfo carrying raw little-endian bytes,
// bypassing frame processing the same way the extractor reads payloads.
func SmallPixelData(raw []byte) dicom.PixelDataInfo {
	return dicom.PixelDataInfo{
		IntentionallyUnprocessed: true,
		UnprocessedValueData:     raw,
		IsEncapsulated:           false,
	}
}
