package dcmio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/b71729/dcmio/dictionary"
)

/*
===============================================================================
    `Encoding`: Support For Multiple Transfer Syntaxes
===============================================================================
*/

// Encoding represents the expected encoding of dicom attributes: the byte order
// and whether VRs are present in the stream.
type Encoding struct {
	ImplicitVR   bool
	LittleEndian bool
}

// The three uncompressed encodings
var (
	ExplicitLittleEndian = Encoding{ImplicitVR: false, LittleEndian: true}
	ImplicitLittleEndian = Encoding{ImplicitVR: true, LittleEndian: true}
	ExplicitBigEndian    = Encoding{ImplicitVR: false, LittleEndian: false}
)

func (e Encoding) String() string {
	var implicitness = "ImplicitVR"
	var endian = "LittleEndian"
	if !e.ImplicitVR {
		implicitness = "ExplicitVR"
	}
	if !e.LittleEndian {
		endian = "BigEndian"
	}
	return fmt.Sprintf("%s + %s", implicitness, endian)
}

// ByteOrder returns the byte order of the encoding
func (e Encoding) ByteOrder() binary.ByteOrder {
	if e.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// transferSyntaxToEncodingMap provides a mapping between uncompressed transfer syntax UIDs and encoding
var transferSyntaxToEncodingMap = map[string]Encoding{
	dictionary.ImplicitVRLittleEndian: ImplicitLittleEndian,
	dictionary.ExplicitVRLittleEndian: ExplicitLittleEndian,
	dictionary.ExplicitVRBigEndian:    ExplicitBigEndian,
}

// TransferSyntaxFor returns the transfer syntax UID of an uncompressed encoding
func TransferSyntaxFor(enc Encoding) string {
	switch enc {
	case ImplicitLittleEndian:
		return dictionary.ImplicitVRLittleEndian
	case ExplicitBigEndian:
		return dictionary.ExplicitVRBigEndian
	default:
		return dictionary.ExplicitVRLittleEndian
	}
}

// IsEncapsulated returns whether `uid` names a transfer syntax whose pixel data is
// encapsulated (compressed) while the data set itself is Explicit VR Little Endian.
func IsEncapsulated(uid string) bool {
	return strings.HasPrefix(uid, "1.2.840.10008.1.2.4.") || uid == "1.2.840.10008.1.2.5"
}

// encodingForTransferSyntax returns the data set encoding declared by `uid`
func encodingForTransferSyntax(uid string) (Encoding, error) {
	if enc, found := transferSyntaxToEncodingMap[uid]; found {
		return enc, nil
	}
	if IsEncapsulated(uid) {
		return ExplicitLittleEndian, nil
	}
	return Encoding{}, fmt.Errorf("%w: transfer syntax %q", ErrUnsupportedEncoding, uid)
}

/*
===============================================================================
    Document
===============================================================================
*/

const (
	// DefaultPixelElement is the element number of pixel data in group 7FE0
	DefaultPixelElement uint16 = 0x0010
	// LegacyPixelElement is the element number of pixel data that old ACR-NEMA files
	// relocate to another group through ImageLocation (0028,0200)
	LegacyPixelElement uint16 = 0x1010
)

// Document represents a parsed file containing one SOP Instance
// as per http://dicom.nema.org/dicom/2013/output/chtml/part10/chapter_7.html
type Document struct {
	// Preamble is nil when the input carried no preamble and "DICM" marker
	Preamble []byte
	// Meta holds the group 0002 file meta elements
	Meta *DataSet
	// DataSet holds every other element
	DataSet *DataSet
	// Encoding is the encoding of DataSet in the source
	Encoding Encoding
	// TransferSyntaxUID is declared by the file meta, or derived from Encoding
	TransferSyntaxUID string
	CharacterSet      *CharacterSet
	// PixelElement overrides the element number of the pixel data tag. When zero, it
	// is derived from the group held by ImageLocation (0028,0200).
	PixelElement uint16
	Diagnostics  []Diagnostic
	Dictionary   *dictionary.Dictionary

	source source
}

// NewDocument returns an empty document encoded as Explicit VR Little Endian
func NewDocument() *Document {
	return &Document{
		Meta:              NewDataSet(),
		DataSet:           NewDataSet(),
		Encoding:          ExplicitLittleEndian,
		TransferSyntaxUID: dictionary.ExplicitVRLittleEndian,
		CharacterSet:      DefaultCharacterSet,
		Dictionary:        dictionary.Default(),
	}
}

// Get returns the element indexed by `tag`, searching the file meta for group 0002
func (doc *Document) Get(tag dictionary.Tag) (*Element, bool) {
	if tag.IsFileMeta() {
		return doc.Meta.Get(tag)
	}
	return doc.DataSet.Get(tag)
}

// Put adds `e` to the file meta or the data set according to its group
func (doc *Document) Put(e *Element) {
	if e.Tag.IsFileMeta() {
		doc.Meta.Put(e)
		return
	}
	doc.DataSet.Put(e)
}

// PixelTag resolves the tag holding pixel data. The group is read from ImageLocation
// (0028,0200) when present, else 7FE0. Pixel data relocated to another group sits at
// element 1010, unless PixelElement says otherwise.
func (doc *Document) PixelTag() dictionary.Tag {
	group := dictionary.PixelData.Group()
	if location, found := doc.DataSet.Int(dictionary.ImageLocation); found && location > 0 && location <= 0xFFFF {
		group = uint16(location)
		// written in the other byte order by some old encoders
		if group == 0xE07F {
			group = dictionary.PixelData.Group()
		}
	}
	element := doc.PixelElement
	switch {
	case element != 0:
	case group == dictionary.PixelData.Group():
		element = DefaultPixelElement
	default:
		element = LegacyPixelElement
	}
	return dictionary.NewTag(group, element)
}

// addDiagnostic records a recoverable condition and logs it
func (doc *Document) addDiagnostic(kind DiagnosticKind, tag dictionary.Tag, format string, a ...interface{}) {
	d := Diagnostic{Kind: kind, Tag: tag, Message: fmt.Sprintf(format, a...)}
	doc.Diagnostics = append(doc.Diagnostics, d)
	Warnf("%s", d)
}

/*
===============================================================================
    Deferred values
===============================================================================
*/

// source provides access to the bytes of NotLoaded values
type source interface {
	// open returns a reader over the source and a function releasing it
	open() (io.ReaderAt, func() error, error)
}

// readerAtSource serves values from a caller-owned io.ReaderAt
type readerAtSource struct {
	r io.ReaderAt
}

func (s readerAtSource) open() (io.ReaderAt, func() error, error) {
	return s.r, func() error { return nil }, nil
}

// fileSource reopens the file for each read, so no handle outlives a call
type fileSource struct {
	path string
}

func (s fileSource) open() (io.ReaderAt, func() error, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// readValueBytes reads the value bytes of the NotLoaded element `e` from the source,
// converted to little endian when the source was big endian.
func (doc *Document) readValueBytes(e *Element) ([]byte, error) {
	if e.State == Unavailable || doc.source == nil {
		return nil, &ElementError{Tag: e.Tag, Offset: e.Offset, Err: ErrUnavailable}
	}
	r, release, err := doc.source.open()
	if err != nil {
		return nil, &ElementError{Tag: e.Tag, Offset: e.Offset, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer release()
	buf := make([]byte, e.Length)
	if _, err := io.ReadFull(io.NewSectionReader(r, e.Offset, int64(e.Length)), buf); err != nil {
		return nil, elementErrorf(e.Tag, e.Offset, ErrTruncated, "reading %d deferred bytes: %v", e.Length, err)
	}
	if e.bigEndian {
		swapBytes(buf, wordWidth(e.VR))
	}
	return buf, nil
}

// Materialize reads the value of the NotLoaded element `tag` from the source, leaving it Loaded.
// It is a no-op for elements which are already Loaded.
func (doc *Document) Materialize(tag dictionary.Tag) error {
	e, found := doc.Get(tag)
	if !found {
		return fmt.Errorf("materialize %s: element not found", tag)
	}
	switch e.State {
	case Loaded:
		return nil
	case Unavailable:
		return &ElementError{Tag: e.Tag, Offset: e.Offset, Err: ErrUnavailable}
	}
	buf, err := doc.readValueBytes(e)
	if err != nil {
		return err
	}
	e.Value = Bytes(buf)
	e.State = Loaded
	e.bigEndian = false
	Debugf("materialized %s (%d bytes)", e.Tag, len(buf))
	return nil
}

// Detach releases the document's source. Values still NotLoaded become Unavailable.
func (doc *Document) Detach() {
	for _, e := range doc.DataSet.Elements() {
		if e.State == NotLoaded {
			e.State = Unavailable
		}
	}
	doc.source = nil
}

// wordWidth returns the byte width of one word of bulk VR `vrCode`
func wordWidth(vrCode string) int {
	switch vrCode {
	case "OW":
		return 2
	case "OF", "OL":
		return 4
	case "OD", "OV":
		return 8
	default:
		return 1
	}
}

// swapBytes reverses the byte order of each `width`-byte word of `buf` in place
func swapBytes(buf []byte, width int) {
	if width < 2 {
		return
	}
	for i := 0; i+width <= len(buf); i += width {
		for a, b := i, i+width-1; a < b; a, b = a+1, b-1 {
			buf[a], buf[b] = buf[b], buf[a]
		}
	}
}
