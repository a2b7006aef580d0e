package dcmio

import (
	"fmt"
	"math"
	"strconv"

	"github.com/b71729/dcmio/dictionary"
)

/*
===============================================================================
    Image geometry
===============================================================================
*/

// SampleType is the scalar type of one pixel sample
type SampleType int

// Sample types, selected by BitsAllocated (0028,0100) and PixelRepresentation (0028,0103)
const (
	Uint8 SampleType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float64
)

// Size returns the number of bytes in one sample
func (t SampleType) Size() int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// Signed returns whether samples are signed
func (t SampleType) Signed() bool {
	switch t {
	case Int8, Int16, Int32, Float64:
		return true
	}
	return false
}

func (t SampleType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	default:
		return "SampleType(" + strconv.Itoa(int(t)) + ")"
	}
}

// ImageInfo describes the pixel data of a document
type ImageInfo struct {
	// Dimensions is (Columns, Rows, NumberOfFrames)
	Dimensions [3]int
	// Spacing is (column spacing, row spacing, slice spacing)
	Spacing [3]float64
	// Origin is the position of the first transmitted pixel
	Origin           [3]float64
	SampleType       SampleType
	SamplesPerPixel  int
	RescaleSlope     float64
	RescaleIntercept float64
	// PixelTag is the tag holding pixel data, resolved through ImageLocation (0028,0200)
	PixelTag dictionary.Tag
}

// Size returns the number of pixel data bytes described by the geometry
func (info ImageInfo) Size() int {
	return info.Dimensions[0] * info.Dimensions[1] * info.Dimensions[2] * info.SamplesPerPixel * info.SampleType.Size()
}

// FrameSize returns the number of bytes in one frame
func (info ImageInfo) FrameSize() int {
	return info.Dimensions[0] * info.Dimensions[1] * info.SamplesPerPixel * info.SampleType.Size()
}

// Image derives the pixel geometry, sample type and rescale parameters of `doc`.
// Missing dimensions and spacings are 1, a missing origin is 0, and a missing slope
// and intercept are 1 and 0. A missing or unusable BitsAllocated defaults to Uint16
// and is recorded as a diagnostic.
func (doc *Document) Image() ImageInfo {
	ds := doc.DataSet
	info := ImageInfo{
		Dimensions:      [3]int{1, 1, 1},
		Spacing:         [3]float64{1, 1, 1},
		SamplesPerPixel: 1,
		RescaleSlope:    1,
		PixelTag:        doc.PixelTag(),
	}
	for i, tag := range []dictionary.Tag{dictionary.Columns, dictionary.Rows, dictionary.NumberOfFrames} {
		if n, found := ds.Int(tag); found && n > 0 {
			info.Dimensions[i] = n
		}
	}
	// PixelSpacing is (row spacing, column spacing)
	if spacing, found := ds.Floats(dictionary.PixelSpacing); found && len(spacing) >= 2 {
		info.Spacing[0], info.Spacing[1] = spacing[1], spacing[0]
	}
	if z, found := ds.Floats(dictionary.SpacingBetweenSlices); found {
		info.Spacing[2] = z[0]
	} else if z, found := ds.Floats(dictionary.SliceThickness); found {
		info.Spacing[2] = z[0]
	}
	origin, found := ds.Floats(dictionary.ImagePositionPatient)
	if !found || len(origin) < 3 {
		origin, found = ds.Floats(dictionary.ImagePosition)
	}
	if found && len(origin) >= 3 {
		copy(info.Origin[:], origin)
	}
	if n, found := ds.Int(dictionary.SamplesPerPixel); found && n > 0 {
		info.SamplesPerPixel = n
	}
	if slope, found := ds.Floats(dictionary.RescaleSlope); found {
		info.RescaleSlope = slope[0]
	}
	if intercept, found := ds.Floats(dictionary.RescaleIntercept); found {
		info.RescaleIntercept = intercept[0]
	}
	info.SampleType = doc.sampleType()
	return info
}

// sampleType selects the sample type from BitsAllocated and PixelRepresentation
func (doc *Document) sampleType() SampleType {
	signed := false
	if rep, found := doc.DataSet.Int(dictionary.PixelRepresentation); found {
		signed = rep == 1
	}
	bits, found := doc.DataSet.Int(dictionary.BitsAllocated)
	switch {
	case !found:
		doc.addDiagnosticOnce(DefaultedSampleType, dictionary.BitsAllocated, "BitsAllocated missing, assuming 16 bit samples")
		return Uint16
	case bits == 8 && signed:
		return Int8
	case bits == 8:
		return Uint8
	case (bits == 12 || bits == 16) && signed:
		return Int16
	case bits == 12 || bits == 16:
		return Uint16
	case bits == 32 && signed:
		return Int32
	case bits == 32:
		return Uint32
	case bits == 64:
		return Float64
	}
	doc.addDiagnosticOnce(DefaultedSampleType, dictionary.BitsAllocated, "BitsAllocated %d unsupported, assuming 16 bit samples", bits)
	return Uint16
}

// addDiagnosticOnce records a diagnostic unless one of the same kind and tag exists
func (doc *Document) addDiagnosticOnce(kind DiagnosticKind, tag dictionary.Tag, format string, a ...interface{}) {
	for _, d := range doc.Diagnostics {
		if d.Kind == kind && d.Tag == tag {
			return
		}
	}
	doc.addDiagnostic(kind, tag, format, a...)
}

/*
===============================================================================
    Pixel data
===============================================================================
*/

// ExtractPixels returns an owned copy of the native pixel data of `doc`, and its size in bytes.
//
// NotLoaded pixel data is read from the source at its recorded offset; the element itself
// stays NotLoaded. The available bytes must equal the size computed from the geometry, save
// for one trailing pad byte when that size is odd. Multi-byte samples are little endian.
func ExtractPixels(doc *Document) ([]byte, int, error) {
	info := doc.Image()
	e, found := doc.DataSet.Get(info.PixelTag)
	if !found {
		return nil, 0, fmt.Errorf("%w: no element %s", ErrPixelDataMissing, info.PixelTag)
	}
	var data []byte
	switch e.State {
	case Unavailable:
		return nil, 0, &ElementError{Tag: e.Tag, Offset: e.Offset, Err: ErrUnavailable}
	case NotLoaded:
		buf, err := doc.readValueBytes(e)
		if err != nil {
			return nil, 0, err
		}
		data = buf
	default:
		switch v := e.Value.(type) {
		case Bytes:
			data = append([]byte(nil), v...)
		case Fragments:
			return nil, 0, elementErrorf(e.Tag, e.Offset, ErrUnsupportedEncoding, "pixel data is encapsulated (%s)", doc.TransferSyntaxUID)
		case nil:
			data = []byte{}
		default:
			return nil, 0, elementErrorf(e.Tag, e.Offset, ErrMalformedElement, "pixel data held as %T", v)
		}
	}

	expected := info.Size()
	switch {
	case len(data) == expected:
	case len(data) == expected+1 && expected%2 == 1:
		data = data[:expected]
	default:
		return nil, 0, elementErrorf(e.Tag, e.Offset, ErrSizeMismatch, "%d bytes available, %dx%dx%d x%d %s samples need %d",
			len(data), info.Dimensions[0], info.Dimensions[1], info.Dimensions[2], info.SamplesPerPixel, info.SampleType, expected)
	}
	return data, expected, nil
}

// WritePixels replaces the pixel data of `doc` with the first `n` bytes of `buf`, which must
// be all of it. When the document describes its geometry (Rows and Columns), `n` must equal
// the computed size. ImageLocation (0028,0200) is added if absent.
//
// The document takes ownership of `buf`. All other elements are untouched.
func WritePixels(doc *Document, buf []byte, n int) error {
	if n != len(buf) {
		return fmt.Errorf("%w: %d bytes given, buffer holds %d", ErrSizeMismatch, n, len(buf))
	}
	info := doc.Image()
	if doc.DataSet.Has(dictionary.Rows) && doc.DataSet.Has(dictionary.Columns) && n != info.Size() {
		return fmt.Errorf("%w: %d bytes given, %dx%dx%d x%d %s samples need %d",
			ErrSizeMismatch, n, info.Dimensions[0], info.Dimensions[1], info.Dimensions[2], info.SamplesPerPixel, info.SampleType, info.Size())
	}
	if int64(n) >= int64(UndefinedLength) {
		return fmt.Errorf("%w: %d bytes exceed the largest value length", ErrSizeMismatch, n)
	}
	if !doc.DataSet.Has(dictionary.ImageLocation) {
		doc.DataSet.Put(NewElement(dictionary.ImageLocation, "US", Uint16s{dictionary.PixelData.Group()}))
	}
	tag := doc.PixelTag()
	vrCode := "OW"
	if info.SampleType.Size() == 1 {
		vrCode = "OB"
	}
	if old, found := doc.DataSet.Get(tag); found {
		if _, encapsulated := old.Value.(Fragments); encapsulated {
			// native pixel data can no longer be written under a compressed syntax
			doc.TransferSyntaxUID = TransferSyntaxFor(doc.Encoding)
		} else if old.VR != "" {
			vrCode = old.VR
		}
	}
	doc.DataSet.Put(&Element{Tag: tag, VR: vrCode, Length: uint32(n), State: Loaded, Value: Bytes(buf)})
	Debugf("replaced %s with %d bytes", tag, n)
	return nil
}

/*
===============================================================================
    Image documents
===============================================================================
*/

// NewImageDocument returns a Secondary Capture document describing an image of `info`,
// ready for WritePixels.
func NewImageDocument(info ImageInfo) (*Document, error) {
	doc := NewDocument()
	instanceUID, err := NewRandInstanceUID()
	if err != nil {
		return nil, err
	}
	doc.DataSet.Put(NewElement(dictionary.SOPClassUID, "UI", Strings{dictionary.SecondaryCaptureImageStorage}))
	doc.DataSet.Put(NewElement(dictionary.SOPInstanceUID, "UI", Strings{instanceUID}))
	doc.DataSet.Put(NewElement(dictionary.Modality, "CS", Strings{"OT"}))
	if err := doc.SetImage(info); err != nil {
		return nil, err
	}
	return doc, nil
}

// SetImage writes the geometry, sample type and rescale elements describing `info`.
// Zero dimensions, spacings and samples per pixel are taken as 1, and a zero slope as 1.
func (doc *Document) SetImage(info ImageInfo) error {
	ds := doc.DataSet
	dims := info.Dimensions
	for i := range dims {
		if dims[i] <= 0 {
			dims[i] = 1
		}
	}
	if dims[0] > math.MaxUint16 || dims[1] > math.MaxUint16 {
		return fmt.Errorf("%w: %dx%d exceeds the largest Rows and Columns", ErrMalformedElement, dims[0], dims[1])
	}
	spacing := info.Spacing
	for i := range spacing {
		if spacing[i] == 0 {
			spacing[i] = 1
		}
	}
	spp := info.SamplesPerPixel
	if spp <= 0 {
		spp = 1
	}
	slope := info.RescaleSlope
	if slope == 0 {
		slope = 1
	}
	bits := uint16(info.SampleType.Size() * 8)
	if bits == 0 {
		return fmt.Errorf("%w: sample type %s", ErrUnsupportedEncoding, info.SampleType)
	}
	representation := uint16(0)
	if info.SampleType.Signed() && info.SampleType != Float64 {
		representation = 1
	}

	ds.Put(NewElement(dictionary.SamplesPerPixel, "US", Uint16s{uint16(spp)}))
	if !ds.Has(dictionary.PhotometricInterpretation) {
		photometric := "MONOCHROME2"
		if spp == 3 {
			photometric = "RGB"
		}
		ds.Put(NewElement(dictionary.PhotometricInterpretation, "CS", Strings{photometric}))
	}
	if spp > 1 {
		ds.Put(NewElement(dictionary.PlanarConfiguration, "US", Uint16s{0}))
	} else {
		ds.Delete(dictionary.PlanarConfiguration)
	}
	if dims[2] > 1 {
		ds.Put(NewElement(dictionary.NumberOfFrames, "IS", Strings{strconv.Itoa(dims[2])}))
	} else {
		ds.Delete(dictionary.NumberOfFrames)
	}
	ds.Put(NewElement(dictionary.Rows, "US", Uint16s{uint16(dims[1])}))
	ds.Put(NewElement(dictionary.Columns, "US", Uint16s{uint16(dims[0])}))
	ds.Put(NewElement(dictionary.PixelSpacing, "DS", Strings{formatDS(spacing[1]), formatDS(spacing[0])}))
	ds.Put(NewElement(dictionary.SpacingBetweenSlices, "DS", Strings{formatDS(spacing[2])}))
	ds.Put(NewElement(dictionary.ImagePositionPatient, "DS", Strings{formatDS(info.Origin[0]), formatDS(info.Origin[1]), formatDS(info.Origin[2])}))
	ds.Put(NewElement(dictionary.BitsAllocated, "US", Uint16s{bits}))
	ds.Put(NewElement(dictionary.BitsStored, "US", Uint16s{bits}))
	ds.Put(NewElement(dictionary.HighBit, "US", Uint16s{bits - 1}))
	ds.Put(NewElement(dictionary.PixelRepresentation, "US", Uint16s{representation}))
	ds.Put(NewElement(dictionary.RescaleIntercept, "DS", Strings{formatDS(info.RescaleIntercept)}))
	ds.Put(NewElement(dictionary.RescaleSlope, "DS", Strings{formatDS(slope)}))
	return nil
}

// formatDS formats `f` as a decimal string of at most 16 characters
func formatDS(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for prec := 10; len(s) > 16 && prec > 0; prec-- {
		s = strconv.FormatFloat(f, 'g', prec, 64)
	}
	return s
}
