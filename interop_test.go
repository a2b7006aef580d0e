package dcmio

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/b71729/dcmio/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

/*
===============================================================================
    Interoperability with github.com/suyashkumar/dicom
===============================================================================
*/

// interopImage returns a 3x2 16 bit image carrying patient metadata
func interopImage(t *testing.T) *Document {
	t.Helper()
	doc, err := NewImageDocument(ImageInfo{
		Dimensions:      [3]int{3, 2, 1},
		Spacing:         [3]float64{0.5, 0.25, 1},
		SampleType:      Uint16,
		SamplesPerPixel: 1,
		RescaleSlope:    1,
	})
	require.NoError(t, err)
	_, err = Absorb(doc, map[string]string{
		"PatientName": "Doe^John",
		"PatientID":   "ID-0001",
		"StudyDate":   "20240102",
	})
	require.NoError(t, err)
	pixels := u16(le, 1, 2, 3, 4, 5, 6)
	require.NoError(t, WritePixels(doc, pixels, len(pixels)))
	return doc
}

func TestInteropWrittenFilesParse(t *testing.T) {
	t.Parallel()
	doc := interopImage(t)
	for _, uid := range []string{dictionary.ExplicitVRLittleEndian, dictionary.ImplicitVRLittleEndian} {
		path := filepath.Join(t.TempDir(), "interop.dcm")
		require.NoError(t, WriteFile(path, doc, WithTransferSyntax(uid)))

		ds, err := dicom.ParseFile(path, nil)
		require.NoError(t, err, uid)

		elem, err := ds.FindElementByTag(tag.TransferSyntaxUID)
		require.NoError(t, err)
		assert.Equal(t, uid, dicom.MustGetStrings(elem.Value)[0])

		elem, err = ds.FindElementByTag(tag.PatientName)
		require.NoError(t, err)
		assert.Equal(t, "Doe^John", dicom.MustGetStrings(elem.Value)[0])

		elem, err = ds.FindElementByTag(tag.PatientID)
		require.NoError(t, err)
		assert.Equal(t, "ID-0001", dicom.MustGetStrings(elem.Value)[0])

		elem, err = ds.FindElementByTag(tag.Rows)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, dicom.MustGetInts(elem.Value))

		elem, err = ds.FindElementByTag(tag.Columns)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, dicom.MustGetInts(elem.Value))

		elem, err = ds.FindElementByTag(tag.PixelSpacing)
		require.NoError(t, err)
		assert.Equal(t, []string{"0.25", "0.5"}, dicom.MustGetStrings(elem.Value))

		elem, err = ds.FindElementByTag(tag.SOPInstanceUID)
		require.NoError(t, err)
		sopInstance, _ := doc.DataSet.String(dictionary.SOPInstanceUID)
		assert.Equal(t, sopInstance, dicom.MustGetStrings(elem.Value)[0])

		elem, err = ds.FindElementByTag(tag.PixelData)
		require.NoError(t, err)
		info := dicom.MustGetPixelDataInfo(elem.Value)
		require.Len(t, info.Frames, 1)
		assert.False(t, info.Frames[0].Encapsulated)
	}
}

func TestInteropParsesForeignFiles(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.Put(NewElement(dictionary.SOPClassUID, "UI", Strings{dictionary.SecondaryCaptureImageStorage}))
	doc.Put(NewElement(dictionary.SOPInstanceUID, "UI", Strings{"1.2.3.4.5"}))
	doc.Put(NewElement(dictionary.Modality, "CS", Strings{"OT"}))
	doc.Put(NewElement(dictionary.PatientName, "PN", Strings{"Roe^Jane"}))
	doc.Put(NewElement(dictionary.Rows, "US", Uint16s{16}))
	var ours bytes.Buffer
	require.NoError(t, Write(&ours, doc))

	// re-encode with the other implementation, then read that back
	ds, err := dicom.Parse(bytes.NewReader(ours.Bytes()), int64(ours.Len()), nil)
	require.NoError(t, err)
	var theirs bytes.Buffer
	require.NoError(t, dicom.Write(&theirs, ds))

	parsed := parseFixture(t, theirs.Bytes(), ExplicitLittleEndian)
	assert.Equal(t, Export(doc), Export(parsed))
	sopClass, _ := parsed.Meta.String(dictionary.MediaStorageSOPClassUID)
	assert.Equal(t, dictionary.SecondaryCaptureImageStorage, sopClass)
}
