package dcmio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/b71729/dcmio/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBytes writes `doc`, failing the test on error
func writeBytes(t *testing.T, doc *Document, opts ...WriteOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, opts...))
	return buf.Bytes()
}

// assertSameValues asserts that both data sets hold the same tags and values
func assertSameValues(t *testing.T, expected, actual *DataSet) {
	t.Helper()
	require.Equal(t, expected.Tags(), actual.Tags())
	for _, e := range expected.Elements() {
		other, _ := actual.Get(e.Tag)
		assert.Equal(t, e.VR, other.VR, "%s", e.Tag)
		assert.Equal(t, e.Value, other.Value, "%s", e.Tag)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t, imageFixture(), ExplicitLittleEndian)
	out := writeBytes(t, doc)

	assert.Equal(t, []byte("DICM"), out[128:132])
	parsed := parseFixture(t, out, ImplicitLittleEndian)
	assert.Equal(t, ExplicitLittleEndian, parsed.Encoding)
	assertSameValues(t, doc.DataSet, parsed.DataSet)

	// file meta is regenerated
	groupLength, found := parsed.Meta.Int(dictionary.FileMetaInformationGroupLength)
	require.True(t, found)
	metaEnd := 132 + 12 + groupLength
	assert.Equal(t, []byte{0x08, 0x00, 0x16, 0x00}, out[metaEnd:metaEnd+4], "first data set element follows the meta")
	sopClass, _ := parsed.Meta.String(dictionary.MediaStorageSOPClassUID)
	assert.Equal(t, dictionary.SecondaryCaptureImageStorage, sopClass)
	sopInstance, _ := parsed.Meta.String(dictionary.MediaStorageSOPInstanceUID)
	assert.Equal(t, "1.2.3.4", sopInstance)
	implementation, _ := parsed.Meta.String(dictionary.ImplementationClassUID)
	assert.Equal(t, GetImplementationUID(false), implementation)
	version, _ := parsed.Meta.String(dictionary.ImplementationVersionName)
	assert.Equal(t, GetImplementationVersionName(), version)
	e, _ := parsed.Get(dictionary.FileMetaInformationVersion)
	assert.Equal(t, Bytes{0x00, 0x01}, e.Value)

	// writing the reparsed document reproduces the same bytes
	assert.Equal(t, out, writeBytes(t, parsed))
}

func TestWriteTransferSyntaxes(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t, imageFixture(), ExplicitLittleEndian)
	sequence, _ := parseFixture(t, validSequenceElementBytes, ExplicitLittleEndian).Get(requestedProcedureCodeSequence)
	doc.Put(sequence)
	for _, uid := range []string{dictionary.ImplicitVRLittleEndian, dictionary.ExplicitVRBigEndian, dictionary.ExplicitVRLittleEndian} {
		out := writeBytes(t, doc, WithTransferSyntax(uid))
		parsed := parseFixture(t, out, ExplicitLittleEndian)
		assert.Equal(t, uid, parsed.TransferSyntaxUID)
		assertSameValues(t, doc.DataSet, parsed.DataSet)
	}
}

func TestWriteUnsupportedTransferSyntax(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t, imageFixture(), ExplicitLittleEndian)
	err := Write(&bytes.Buffer{}, doc, WithTransferSyntax(dictionary.DeflatedExplicitVRLittleEndian))
	assert.True(t, errors.Is(err, ErrUnsupportedEncoding))
	// native pixel data cannot be declared compressed
	err = Write(&bytes.Buffer{}, doc, WithTransferSyntax(jpegBaseline))
	assert.True(t, errors.Is(err, ErrUnsupportedEncoding))
}

func TestWriteWithoutFileMeta(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.DataSet.Put(NewElement(dictionary.PatientName, "PN", Strings{"Doe"}))
	doc.DataSet.Put(NewElement(dictionary.SOPInstanceUID, "UI", Strings{"1.2.3"}))
	out := writeBytes(t, doc, WithoutFileMeta())

	expected := []byte{
		0x08, 0x00, 0x18, 0x00, 0x55, 0x49, 0x06, 0x00, // (0008,0018) UI, 6 bytes
		0x31, 0x2E, 0x32, 0x2E, 0x33, 0x00, // "1.2.3" + NULL
		0x10, 0x00, 0x10, 0x00, 0x50, 0x4E, 0x04, 0x00, // (0010,0010) PN, 4 bytes
		0x44, 0x6F, 0x65, 0x20, // "Doe" + space
	}
	assert.Equal(t, expected, out)
}

func TestWriteImplicitLittleEndian(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.DataSet.Put(NewElement(dictionary.Rows, "US", Uint16s{2}))
	out := writeBytes(t, doc, WithoutFileMeta(), WithTransferSyntax(dictionary.ImplicitVRLittleEndian))
	assert.Equal(t, implicitElement(dictionary.Rows, u16(le, 2)), out)
}

func TestWriteDropsGroupLengths(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.DataSet.Put(NewElement(dictionary.NewTag(0x0010, 0x0000), "UL", Uint32s{999}))
	doc.DataSet.Put(NewElement(dictionary.PatientName, "PN", Strings{"Doe"}))
	parsed := parseFixture(t, writeBytes(t, doc), ExplicitLittleEndian)
	assert.False(t, parsed.DataSet.Has(dictionary.NewTag(0x0010, 0x0000)))
	assert.True(t, parsed.DataSet.Has(dictionary.PatientName))
}

func TestWriteShortFormOverflow(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.DataSet.Put(NewElement(dictionary.PatientID, "LO", Strings{strings.Repeat("x", 70000)}))
	err := Write(&bytes.Buffer{}, doc)
	assert.True(t, errors.Is(err, ErrMalformedElement))
	var elementErr *ElementError
	require.True(t, errors.As(err, &elementErr))
	assert.Equal(t, dictionary.PatientID, elementErr.Tag)
}

func TestWriteCharacterSet(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.CharacterSet = CharacterSetMap["ISO_IR 100"]
	doc.DataSet.Put(NewElement(dictionary.SpecificCharacterSet, "CS", Strings{"ISO_IR 100"}))
	doc.DataSet.Put(NewElement(dictionary.PatientName, "PN", Strings{"Muñoz"}))
	out := writeBytes(t, doc, WithoutFileMeta())
	assert.True(t, bytes.Contains(out, []byte("Mu\xF1oz ")))

	parsed := parseFixture(t, out, ExplicitLittleEndian)
	name, _ := parsed.DataSet.String(dictionary.PatientName)
	assert.Equal(t, "Muñoz", name)

	// characters outside of the repertoire are refused
	doc.DataSet.Put(NewElement(dictionary.PatientName, "PN", Strings{"山田"}))
	err := Write(&bytes.Buffer{}, doc)
	assert.True(t, errors.Is(err, ErrMalformedElement))
}

func TestWriteDeferredValues(t *testing.T) {
	t.Parallel()
	input := concat(
		fileMeta(dictionary.ExplicitVRBigEndian),
		explicitElement(be, dictionary.Rows, "US", u16(be, 1)),
		explicitElement(be, dictionary.Columns, "US", u16(be, 4)),
		explicitElement(be, dictionary.BitsAllocated, "US", u16(be, 16)),
		explicitElement(be, dictionary.PixelData, "OW", u16(be, 1, 2, 3, 0xFFFF)),
	)
	doc := parseFixture(t, input, ExplicitLittleEndian, WithMaterializeThreshold(0))
	e, _ := doc.Get(dictionary.PixelData)
	require.Equal(t, NotLoaded, e.State)

	for _, uid := range []string{dictionary.ExplicitVRLittleEndian, dictionary.ExplicitVRBigEndian} {
		parsed := parseFixture(t, writeBytes(t, doc, WithTransferSyntax(uid)), ExplicitLittleEndian)
		pixels, _, err := ExtractPixels(parsed)
		require.NoError(t, err)
		assert.Equal(t, u16(le, 1, 2, 3, 0xFFFF), pixels, uid)
	}

	doc.Detach()
	err := Write(&bytes.Buffer{}, doc)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestWriteEncapsulated(t *testing.T) {
	t.Parallel()
	input := concat(
		fileMeta(jpegBaseline),
		explicitElement(le, dictionary.Rows, "US", u16(le, 2)),
		encapsulatedPixelDataBytes,
	)
	doc := parseFixture(t, input, ExplicitLittleEndian)
	out := writeBytes(t, doc)
	assert.True(t, bytes.HasSuffix(out, encapsulatedPixelDataBytes))

	parsed := parseFixture(t, out, ExplicitLittleEndian)
	assert.Equal(t, jpegBaseline, parsed.TransferSyntaxUID)
	e, _ := parsed.Get(dictionary.PixelData)
	assert.Equal(t, Fragments{[]byte{}, {0xDE, 0xAD, 0xBE, 0xEF}}, e.Value)

	err := Write(&bytes.Buffer{}, doc, WithTransferSyntax(dictionary.ExplicitVRLittleEndian))
	assert.True(t, errors.Is(err, ErrUnsupportedEncoding))
}

func TestWriteSequenceUndefinedLength(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t, definedSequenceElementBytes, ImplicitLittleEndian)
	out := writeBytes(t, doc, WithoutFileMeta(), WithTransferSyntax(dictionary.ImplicitVRLittleEndian))
	expected := []byte{
		0x32, 0x00, 0x64, 0x10, 0xFF, 0xFF, 0xFF, 0xFF, // (0032,1064), length undefined
		0xFE, 0xFF, 0x00, 0xE0, 0xFF, 0xFF, 0xFF, 0xFF, // StartItem, length undefined
		0x08, 0x00, 0x00, 0x01, 0x08, 0x00, 0x00, 0x00, // (0008,0100), 8 bytes
		0x41, 0x42, 0x43, 0x44, 0x31, 0x32, 0x33, 0x34, // "ABCD1234"
		0xFE, 0xFF, 0x0D, 0xE0, 0x00, 0x00, 0x00, 0x00, // ItemEnd
		0xFE, 0xFF, 0xDD, 0xE0, 0x00, 0x00, 0x00, 0x00, // SequenceDelimItem
	}
	assert.Equal(t, expected, out)
}

func TestWriteFileReplacesSource(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "image.dcm")
	require.NoError(t, os.WriteFile(path, imageFixture(), 0o644))
	doc, err := ParseFile(path, ExplicitLittleEndian, WithMaterializeThreshold(4))
	require.NoError(t, err)

	dropped, err := Absorb(doc, map[string]string{"PatientName": "Roe^Richard"})
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.NoError(t, WriteFile(path, doc))

	parsed, err := ParseFile(path, ExplicitLittleEndian)
	require.NoError(t, err)
	name, _ := parsed.DataSet.String(dictionary.PatientName)
	assert.Equal(t, "Roe^Richard", name)
	pixels, _, err := ExtractPixels(parsed)
	require.NoError(t, err)
	assert.Equal(t, u16(le, 1, 2, 3, 0xFFFF), pixels)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestWritePadsOddValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		tag   dictionary.Tag
		vr    string
		value string
		pad   byte
	}{
		{tag: dictionary.SOPInstanceUID, vr: "UI", value: "1.2.840.1", pad: 0x00},
		{tag: dictionary.PatientName, vr: "PN", value: "Doe^Jon", pad: 0x20},
		{tag: dictionary.PatientID, vr: "LO", value: "ABC", pad: 0x20},
		{tag: dictionary.SliceThickness, vr: "DS", value: "1.5", pad: 0x20},
	}
	for _, testCase := range cases {
		doc := NewDocument()
		doc.DataSet.Put(NewElement(testCase.tag, testCase.vr, Strings{testCase.value}))
		out := writeBytes(t, doc, WithoutFileMeta())

		padded := append([]byte(testCase.value), testCase.pad)
		assert.Equal(t, explicitElement(le, testCase.tag, testCase.vr, padded), out, testCase.vr)
		assert.Equal(t, u16(le, uint16(len(padded))), out[6:8], "%s length is even", testCase.vr)

		parsed := parseFixture(t, out, ExplicitLittleEndian)
		value, _ := parsed.DataSet.String(testCase.tag)
		assert.Equal(t, testCase.value, value, testCase.vr)
	}
}

func TestWriteSixtyFourBitVRs(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.DataSet.Put(NewElement(dictionary.NewTag(0x0008, 0x040C), "UV", Uint64s{0x8000000000000001}))
	doc.DataSet.Put(NewElement(dictionary.NewTag(0x0072, 0x0081), "OV", Bytes{1, 2, 3, 4, 5, 6, 7, 8}))
	doc.DataSet.Put(NewElement(dictionary.NewTag(0x0072, 0x0082), "SV", Int64s{-1, 5}))

	out := writeBytes(t, doc, WithoutFileMeta())
	expected := []byte{
		0x08, 0x00, 0x0C, 0x04, 0x55, 0x56, 0x00, 0x00, // (0008,040C) UV
		0x08, 0x00, 0x00, 0x00, // Length: 8 bytes
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80,
	}
	assert.Equal(t, expected, out[:len(expected)])

	for _, uid := range []string{dictionary.ImplicitVRLittleEndian, dictionary.ExplicitVRBigEndian, dictionary.ExplicitVRLittleEndian} {
		parsed := parseFixture(t, writeBytes(t, doc, WithTransferSyntax(uid)), ExplicitLittleEndian)
		assertSameValues(t, doc.DataSet, parsed.DataSet)
	}
}

func TestWriteImplicitRoundTripUsesFullDictionary(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	sequenceName := dictionary.NewTag(0x0018, 0x0024)
	doc.DataSet.Put(NewElement(sequenceName, "SH", Strings{"fl3d1"}))
	doc.DataSet.Put(NewElement(dictionary.NewTag(0x0018, 0x9073), "FD", Float64s{2.5}))

	out := writeBytes(t, doc, WithTransferSyntax(dictionary.ImplicitVRLittleEndian))
	parsed := parseFixture(t, out, ImplicitLittleEndian)
	assertSameValues(t, doc.DataSet, parsed.DataSet)
	assert.Empty(t, diagnosticsOf(parsed, UnresolvedVR))
	exported := Export(parsed)
	assert.Equal(t, Export(doc), exported)
	assert.Equal(t, "fl3d1", exported["SequenceName"])
	assert.Equal(t, "2.5", exported["AcquisitionDuration"])
}

func TestWriteBigEndianRejectsWideSamples(t *testing.T) {
	t.Parallel()
	for _, sampleType := range []SampleType{Uint32, Float64} {
		doc, err := NewImageDocument(ImageInfo{Dimensions: [3]int{2, 1, 1}, SampleType: sampleType})
		require.NoError(t, err)
		pixels := make([]byte, 2*sampleType.Size())
		pixels[0] = 1
		require.NoError(t, WritePixels(doc, pixels, len(pixels)))

		err = Write(&bytes.Buffer{}, doc, WithTransferSyntax(dictionary.ExplicitVRBigEndian))
		assert.True(t, errors.Is(err, ErrUnsupportedEncoding), sampleType.String())
		assert.NoError(t, Write(&bytes.Buffer{}, doc, WithTransferSyntax(dictionary.ExplicitVRLittleEndian)))
	}

	// 16 bit samples fit the OW word and round trip
	doc, err := NewImageDocument(ImageInfo{Dimensions: [3]int{2, 1, 1}, SampleType: Uint16})
	require.NoError(t, err)
	pixels := u16(le, 1, 0xFF00)
	require.NoError(t, WritePixels(doc, pixels, len(pixels)))
	parsed := parseFixture(t, writeBytes(t, doc, WithTransferSyntax(dictionary.ExplicitVRBigEndian)), ExplicitLittleEndian)
	extracted, _, err := ExtractPixels(parsed)
	require.NoError(t, err)
	assert.Equal(t, pixels, extracted)
}

func TestElementWriterSwitchesEncoding(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	elw := NewElementWriter(&buf, ExplicitLittleEndian)
	require.NoError(t, elw.WriteElement(NewElement(dictionary.Rows, "US", Uint16s{2})))
	assert.Equal(t, int64(10), elw.GetPosition())

	elw.SetEncoding(ExplicitBigEndian)
	assert.Equal(t, ExplicitBigEndian, elw.Encoding())
	require.NoError(t, elw.WriteElement(NewElement(dictionary.Columns, "US", Uint16s{3})))
	require.NoError(t, elw.WriteElement(NewElement(dictionary.NewTag(0x0029, 0x1010), "OB", Bytes{0xAB})))

	expected := concat(
		explicitElement(le, dictionary.Rows, "US", u16(le, 2)),
		explicitElement(be, dictionary.Columns, "US", u16(be, 3)),
		[]byte{
			0x00, 0x29, 0x10, 0x10, 0x4F, 0x42, 0x00, 0x00, // (0029,1010) OB, reserved
			0x00, 0x00, 0x00, 0x02, // Length: 2 bytes
			0xAB, 0x00, // value + NULL pad
		},
	)
	assert.Equal(t, expected, buf.Bytes())
	assert.Equal(t, int64(len(expected)), elw.GetPosition())
}
