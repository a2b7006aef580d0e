package dcmio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/b71729/bin"
	"github.com/b71729/dcmio/dictionary"
	"github.com/b71729/dcmio/vr"
)

/*
===============================================================================
    ElementWriter
===============================================================================
*/

// deferredChunkSize is the unit in which NotLoaded values are copied from their source.
// It is a multiple of every word width, so byte swapping never splits a word.
const deferredChunkSize = 64 * 1024

// countingWriter counts the bytes passed through to `w`
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// ElementWriter extends `bin.Writer` to encode DICOM Elements, i.e. "WriteElement", in
// one of the uncompressed encodings.
type ElementWriter struct {
	bw       bin.Writer
	out      *countingWriter
	implicit bool

	// doc provides the character set, and the source of NotLoaded values
	doc *Document
}

// NewElementWriter returns a fresh ElementWriter set up to write to `dest` with encoding `enc`.
func NewElementWriter(dest io.Writer, enc Encoding) *ElementWriter {
	out := &countingWriter{w: dest}
	elw := &ElementWriter{bw: bin.NewWriter(out, binary.LittleEndian), out: out}
	elw.SetEncoding(enc)
	return elw
}

// SetEncoding sets the byte order and VR mode used for subsequent elements
func (elw *ElementWriter) SetEncoding(enc Encoding) {
	elw.implicit = enc.ImplicitVR
	elw.bw.SetByteOrder(enc.ByteOrder())
}

// Encoding returns the current encoding
func (elw *ElementWriter) Encoding() Encoding {
	return Encoding{ImplicitVR: elw.implicit, LittleEndian: elw.isLittleEndian()}
}

func (elw *ElementWriter) isLittleEndian() bool {
	return elw.bw.GetByteOrder() == binary.LittleEndian
}

// GetPosition returns the number of bytes written so far
func (elw *ElementWriter) GetPosition() int64 {
	return elw.out.n
}

func (elw *ElementWriter) write(buf []byte) error {
	return elw.bw.WriteBytes(buf)
}

func (elw *ElementWriter) characterSet() *CharacterSet {
	if elw.doc == nil || elw.doc.CharacterSet == nil {
		return DefaultCharacterSet
	}
	return elw.doc.CharacterSet
}

// writeHeader writes the tag, VR and length components of an element.
// Items and delimiters (group FFFE) never carry a VR.
func (elw *ElementWriter) writeHeader(tag dictionary.Tag, vrCode string, length uint32) error {
	if len(vrCode) != 2 {
		vrCode = "UN"
	}
	if !elw.implicit && tag.Group() != 0xFFFE && !vr.IsLongForm(vrCode) && length > math.MaxUint16 {
		return elementErrorf(tag, elw.GetPosition(), ErrMalformedElement, "%d bytes exceed the %s short-form length", length, vrCode)
	}
	if err := elw.bw.WriteUint16(tag.Group()); err != nil {
		return err
	}
	if err := elw.bw.WriteUint16(tag.Element()); err != nil {
		return err
	}
	if elw.implicit || tag.Group() == 0xFFFE {
		// ImplicitVR: all length definitions are 32 bits
		return elw.bw.WriteUint32(length)
	}
	if err := elw.bw.WriteBytes([]byte(vrCode)); err != nil {
		return err
	}
	if vr.IsLongForm(vrCode) {
		// two reserved bytes, then length is 32 bits
		if err := elw.bw.ZeroFill(2); err != nil {
			return err
		}
		return elw.bw.WriteUint32(length)
	}
	return elw.bw.WriteUint16(uint16(length))
}

// WriteElement attempts to completely write `e`.
//
// Sequences and their items are written with undefined length and delimiters.
// Values are padded to even length with the pad byte of their VR.
func (elw *ElementWriter) WriteElement(e *Element) error {
	switch e.State {
	case Unavailable:
		return &ElementError{Tag: e.Tag, Offset: e.Offset, Err: ErrUnavailable}
	case NotLoaded:
		return elw.writeDeferred(e)
	}
	switch v := e.Value.(type) {
	case Sequence:
		return elw.writeSequence(e.Tag, v)
	case Fragments:
		return elw.writeFragments(e, v)
	case nil:
		if e.VR == "SQ" {
			return elw.writeSequence(e.Tag, nil)
		}
	}
	buf, err := encodeValue(e.VR, e.Value, elw.bw.GetByteOrder(), elw.characterSet())
	if err != nil {
		return &ElementError{Tag: e.Tag, Offset: elw.GetPosition(), Err: err}
	}
	if len(buf)%2 == 1 {
		buf = append(buf, vr.PadByte(e.VR))
	}
	if err := elw.writeHeader(e.Tag, e.VR, uint32(len(buf))); err != nil {
		return err
	}
	return elw.write(buf)
}

// writeSequence writes the items of `seq`, as per http://dicom.nema.org/dicom/2013/output/chtml/part05/sect_7.5.html
func (elw *ElementWriter) writeSequence(tag dictionary.Tag, seq Sequence) error {
	if err := elw.writeHeader(tag, "SQ", UndefinedLength); err != nil {
		return err
	}
	for _, item := range seq {
		if err := elw.writeHeader(dictionary.Item, "", UndefinedLength); err != nil {
			return err
		}
		for _, e := range item.Elements() {
			if e.Tag.IsGroupLength() {
				continue
			}
			if err := elw.WriteElement(e); err != nil {
				return err
			}
		}
		if err := elw.writeHeader(dictionary.ItemDelimitationItem, "", 0); err != nil {
			return err
		}
	}
	return elw.writeHeader(dictionary.SequenceDelimitationItem, "", 0)
}

// writeFragments writes encapsulated pixel data. Encapsulated syntaxes are always
// explicit VR little endian.
func (elw *ElementWriter) writeFragments(e *Element, frags Fragments) error {
	if elw.implicit || !elw.isLittleEndian() {
		return elementErrorf(e.Tag, elw.GetPosition(), ErrUnsupportedEncoding, "encapsulated pixel data requires explicit VR little endian")
	}
	vrCode := e.VR
	if vrCode != "OB" && vrCode != "OW" {
		vrCode = "OB"
	}
	if err := elw.writeHeader(e.Tag, vrCode, UndefinedLength); err != nil {
		return err
	}
	for _, frag := range frags {
		length := uint32(len(frag))
		if err := elw.writeHeader(dictionary.Item, "", length+length%2); err != nil {
			return err
		}
		if err := elw.write(frag); err != nil {
			return err
		}
		if length%2 == 1 {
			if err := elw.write([]byte{0x00}); err != nil {
				return err
			}
		}
	}
	return elw.writeHeader(dictionary.SequenceDelimitationItem, "", 0)
}

// writeDeferred copies a NotLoaded value from the document's source in chunks,
// swapping words when the source byte order differs from the output.
func (elw *ElementWriter) writeDeferred(e *Element) error {
	if elw.doc == nil || elw.doc.source == nil {
		return &ElementError{Tag: e.Tag, Offset: e.Offset, Err: ErrUnavailable}
	}
	r, release, err := elw.doc.source.open()
	if err != nil {
		return &ElementError{Tag: e.Tag, Offset: e.Offset, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer release()

	pad := e.Length % 2
	if err := elw.writeHeader(e.Tag, e.VR, e.Length+pad); err != nil {
		return err
	}
	section := io.NewSectionReader(r, e.Offset, int64(e.Length))
	width := wordWidth(e.VR)
	swap := e.bigEndian == elw.isLittleEndian()
	chunk := make([]byte, deferredChunkSize)
	for remaining := int64(e.Length); remaining > 0; {
		n := int64(len(chunk))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(section, chunk[:n]); err != nil {
			return elementErrorf(e.Tag, e.Offset, ErrTruncated, "copying deferred value: %v", err)
		}
		if swap {
			swapBytes(chunk[:n], width)
		}
		if err := elw.write(chunk[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	if pad == 1 {
		return elw.write([]byte{vr.PadByte(e.VR)})
	}
	return nil
}

// encodeValue encodes `v` into the value bytes of VR `vrCode`, without padding.
// Text of charset-sensitive VRs is encoded in `cs`.
func encodeValue(vrCode string, v Value, order binary.ByteOrder, cs *CharacterSet) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Strings:
		text := strings.Join(v, `\`)
		if !vr.IsCharsetSensitive(vrCode) {
			return []byte(text), nil
		}
		buf, err := encodeString(text, cs)
		if err != nil {
			return nil, fmt.Errorf("%w: text cannot be encoded in %s: %v", ErrMalformedElement, cs.Name, err)
		}
		return buf, nil
	case Uint16s:
		buf := make([]byte, len(v)*2)
		for i, n := range v {
			order.PutUint16(buf[i*2:], n)
		}
		return buf, nil
	case Int16s:
		buf := make([]byte, len(v)*2)
		for i, n := range v {
			order.PutUint16(buf[i*2:], uint16(n))
		}
		return buf, nil
	case Uint32s:
		buf := make([]byte, len(v)*4)
		for i, n := range v {
			order.PutUint32(buf[i*4:], n)
		}
		return buf, nil
	case Int32s:
		buf := make([]byte, len(v)*4)
		for i, n := range v {
			order.PutUint32(buf[i*4:], uint32(n))
		}
		return buf, nil
	case Uint64s:
		buf := make([]byte, len(v)*8)
		for i, n := range v {
			order.PutUint64(buf[i*8:], n)
		}
		return buf, nil
	case Int64s:
		buf := make([]byte, len(v)*8)
		for i, n := range v {
			order.PutUint64(buf[i*8:], uint64(n))
		}
		return buf, nil
	case Float32s:
		buf := make([]byte, len(v)*4)
		for i, f := range v {
			order.PutUint32(buf[i*4:], math.Float32bits(f))
		}
		return buf, nil
	case Float64s:
		buf := make([]byte, len(v)*8)
		for i, f := range v {
			order.PutUint64(buf[i*8:], math.Float64bits(f))
		}
		return buf, nil
	case Tags:
		buf := make([]byte, len(v)*4)
		for i, tag := range v {
			order.PutUint16(buf[i*4:], tag.Group())
			order.PutUint16(buf[i*4+2:], tag.Element())
		}
		return buf, nil
	case Bytes:
		buf := append([]byte(nil), v...)
		if order == binary.BigEndian {
			swapBytes(buf, wordWidth(vrCode))
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %T cannot be encoded as a flat value", ErrUnsupportedEncoding, v)
	}
}

/*
===============================================================================
    Write
===============================================================================
*/

type writeConfig struct {
	transferSyntax string
	fileMeta       bool
}

// WriteOption configures Write
type WriteOption func(*writeConfig)

// WithTransferSyntax selects the transfer syntax of the output: Explicit VR Little Endian
// (the default), Implicit VR Little Endian or Explicit VR Big Endian. Documents holding
// encapsulated pixel data may only be written with their own transfer syntax.
func WithTransferSyntax(uid string) WriteOption {
	return func(wc *writeConfig) {
		wc.transferSyntax = uid
	}
}

// WithoutFileMeta writes the bare data set: no preamble, no "DICM" marker and no group 0002.
func WithoutFileMeta() WriteOption {
	return func(wc *writeConfig) {
		wc.fileMeta = false
	}
}

// Write encodes `doc` to `w`.
//
// The file meta is regenerated for the output transfer syntax, and group length elements
// outside of it are dropped. NotLoaded values are copied from the document's source.
func Write(w io.Writer, doc *Document, opts ...WriteOption) error {
	cfg := writeConfig{transferSyntax: dictionary.ExplicitVRLittleEndian, fileMeta: true}
	if IsEncapsulated(doc.TransferSyntaxUID) {
		cfg.transferSyntax = doc.TransferSyntaxUID
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	enc, err := encodingForTransferSyntax(cfg.transferSyntax)
	if err != nil {
		return err
	}
	if err := checkPixelEncoding(doc, cfg.transferSyntax, enc); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	elw := NewElementWriter(bw, ExplicitLittleEndian)
	elw.doc = doc
	if cfg.fileMeta {
		if err := writeFileMeta(elw, doc, cfg.transferSyntax); err != nil {
			return err
		}
	}
	elw.SetEncoding(enc)
	for _, e := range doc.DataSet.Elements() {
		if e.Tag.IsGroupLength() {
			continue
		}
		if err := elw.WriteElement(e); err != nil {
			return err
		}
	}
	Debugf("wrote %d bytes (%s)", elw.GetPosition(), cfg.transferSyntax)
	return bw.Flush()
}

// WriteFile encodes `doc` to a new file at `path`. The file is written beside `path` and
// renamed into place, so `path` may be the file `doc` was parsed from.
func WriteFile(path string, doc *Document, opts ...WriteOption) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dcmio-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := Write(tmp, doc, opts...); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// checkPixelEncoding ensures encapsulated pixel data is written only under an encapsulated
// transfer syntax, and native pixel data only under an uncompressed one. Big endian output
// swaps pixel data by the word width of its VR, so samples wider than that word would
// come out in neither byte order.
func checkPixelEncoding(doc *Document, uid string, enc Encoding) error {
	e, found := doc.DataSet.Get(doc.PixelTag())
	if !found {
		return nil
	}
	_, fragments := e.Value.(Fragments)
	switch {
	case fragments && !IsEncapsulated(uid):
		return elementErrorf(e.Tag, e.Offset, ErrUnsupportedEncoding, "encapsulated pixel data cannot be written as %s", uid)
	case !fragments && IsEncapsulated(uid):
		return elementErrorf(e.Tag, e.Offset, ErrUnsupportedEncoding, "native pixel data cannot be written as %s", uid)
	}
	if bits, found := doc.DataSet.Int(dictionary.BitsAllocated); found && !enc.LittleEndian && !fragments && bits > 8*wordWidth(e.VR) {
		return elementErrorf(e.Tag, e.Offset, ErrUnsupportedEncoding, "%d bit samples cannot be written big endian as %s", bits, e.VR)
	}
	return nil
}

// writeFileMeta writes the preamble, "DICM" marker and file meta elements.
// See ``7.1 DICOM File Meta Information`` for more information.
func writeFileMeta(elw *ElementWriter, doc *Document, uid string) error {
	preamble := make([]byte, 128)
	copy(preamble, doc.Preamble)
	if err := elw.write(preamble); err != nil {
		return err
	}
	if err := elw.write(dicmTestString); err != nil {
		return err
	}
	meta, err := buildFileMeta(doc, uid)
	if err != nil {
		return err
	}
	// group length counts the bytes of every other meta element
	var body bytes.Buffer
	mw := NewElementWriter(&body, ExplicitLittleEndian)
	for _, e := range meta.Elements() {
		if err := mw.WriteElement(e); err != nil {
			return err
		}
	}
	groupLength := NewElement(dictionary.FileMetaInformationGroupLength, "UL", Uint32s{uint32(body.Len())})
	if err := elw.WriteElement(groupLength); err != nil {
		return err
	}
	return elw.write(body.Bytes())
}

// buildFileMeta derives the file meta elements of `doc` for transfer syntax `uid`.
// Existing meta elements are kept unless regenerated here.
func buildFileMeta(doc *Document, uid string) (*DataSet, error) {
	meta := NewDataSet()
	for _, e := range doc.Meta.Elements() {
		if !e.Tag.IsGroupLength() {
			meta.Put(e)
		}
	}
	sopClass, found := doc.DataSet.String(dictionary.SOPClassUID)
	if !found {
		sopClass = dictionary.SecondaryCaptureImageStorage
	}
	sopInstance, found := doc.DataSet.String(dictionary.SOPInstanceUID)
	if !found {
		sopInstance, found = doc.Meta.String(dictionary.MediaStorageSOPInstanceUID)
	}
	if !found {
		var err error
		if sopInstance, err = NewRandInstanceUID(); err != nil {
			return nil, err
		}
	}
	meta.Put(NewElement(dictionary.FileMetaInformationVersion, "OB", Bytes{0x00, 0x01}))
	meta.Put(NewElement(dictionary.MediaStorageSOPClassUID, "UI", Strings{sopClass}))
	meta.Put(NewElement(dictionary.MediaStorageSOPInstanceUID, "UI", Strings{sopInstance}))
	meta.Put(NewElement(dictionary.TransferSyntaxUID, "UI", Strings{uid}))
	meta.Put(NewElement(dictionary.ImplementationClassUID, "UI", Strings{GetImplementationUID(false)}))
	meta.Put(NewElement(dictionary.ImplementationVersionName, "SH", Strings{GetImplementationVersionName()}))
	return meta, nil
}
