package dcmio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/b71729/dcmio/dictionary"
	"github.com/b71729/dcmio/vr"
)

/*
===============================================================================
    `ElementStream`: positioned reads over an io.ReaderAt
===============================================================================
*/

// windowPool is a pool of read-ahead windows, keyed implicitly by capacity
var windowPool = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

func getWindow(size int) []byte {
	buf := windowPool.Get().([]byte)
	if cap(buf) != size {
		buf = make([]byte, size)
	}
	return buf[:size]
}

func putWindow(buf []byte) {
	windowPool.Put(buf[:0])
}

// ElementStream provides positioned reads over an `io.ReaderAt`, buffering a window of the
// source. Reads go no further than requested, unless read-ahead up to a fence has been
// allowed with extendReadAhead. Skipped regions (such as deferred pixel data) are
// therefore never read from the source.
type ElementStream struct {
	src        io.ReaderAt
	readerPos  int64
	readerSize int64
	encoding   Encoding
	order      binary.ByteOrder

	window    []byte
	windowPos int64
	windowLen int
	// fence is the offset up to which refills may read ahead
	fence int64
}

// NewElementStream sets up a new `ElementStream` reading `readerSize` bytes of `src`
func NewElementStream(src io.ReaderAt, readerSize int64, window []byte) *ElementStream {
	es := &ElementStream{src: src, readerSize: readerSize, window: window, windowPos: -1}
	es.SetEncoding(ExplicitLittleEndian)
	return es
}

// SetEncoding sets the byte order and VR mode used for subsequent reads
func (es *ElementStream) SetEncoding(enc Encoding) {
	es.encoding = enc
	es.order = enc.ByteOrder()
}

// Encoding returns the current encoding
func (es *ElementStream) Encoding() Encoding {
	return es.encoding
}

// GetPosition returns the current stream position
func (es *ElementStream) GetPosition() int64 {
	return es.readerPos
}

// GetRemainingBytes returns the number of remaining unread bytes
func (es *ElementStream) GetRemainingBytes() int64 {
	return es.readerSize - es.readerPos
}

func (es *ElementStream) truncated(num int64) error {
	return fmt.Errorf("%w: need %d bytes at offset 0x%X, %d remain", ErrTruncated, num, es.readerPos, es.GetRemainingBytes())
}

// fill ensures the window holds `num` bytes from the current position
func (es *ElementStream) fill(num int) error {
	if int64(num) > es.GetRemainingBytes() {
		return es.truncated(int64(num))
	}
	start := es.readerPos - es.windowPos
	if es.windowPos >= 0 && start >= 0 && start+int64(num) <= int64(es.windowLen) {
		return nil
	}
	size := int64(num)
	if ahead := es.fence - es.readerPos; ahead > size {
		size = ahead
	}
	if size > int64(len(es.window)) {
		size = int64(len(es.window))
	}
	if rem := es.GetRemainingBytes(); rem < size {
		size = rem
	}
	if size < int64(num) {
		return fmt.Errorf("read of %d bytes exceeds the %d byte window", num, len(es.window))
	}
	nread, err := es.src.ReadAt(es.window[:size], es.readerPos)
	if nread < num {
		es.windowPos = -1
		if err == nil || errors.Is(err, io.EOF) {
			return es.truncated(int64(num))
		}
		return fmt.Errorf("reading at offset 0x%X: %w", es.readerPos, err)
	}
	es.windowPos = es.readerPos
	es.windowLen = nread
	return nil
}

// extendReadAhead allows refills to read ahead up to offset `end`, and returns a function
// restoring the previous fence. Only regions which hold no deferrable value may be opened.
func (es *ElementStream) extendReadAhead(end int64) (restore func()) {
	previous := es.fence
	if end > es.fence {
		es.fence = end
	}
	return func() { es.fence = previous }
}

// peek returns the next `num` bytes without consuming them.
// The returned slice is only valid until the next read.
func (es *ElementStream) peek(num int) ([]byte, error) {
	if err := es.fill(num); err != nil {
		return nil, err
	}
	start := int(es.readerPos - es.windowPos)
	return es.window[start : start+num], nil
}

// next consumes `num` bytes, returning a view valid until the next read
func (es *ElementStream) next(num int) ([]byte, error) {
	buf, err := es.peek(num)
	if err != nil {
		return nil, err
	}
	es.readerPos += int64(num)
	return buf, nil
}

// skipBytes fast-forwards the stream `num` bytes without reading them
func (es *ElementStream) skipBytes(num int64) error {
	if num > es.GetRemainingBytes() {
		return es.truncated(num)
	}
	es.readerPos += num
	return nil
}

// getUint16 retrieves a uint16 (two bytes) from the stream
func (es *ElementStream) getUint16() (uint16, error) {
	buf, err := es.next(2)
	if err != nil {
		return 0, err
	}
	return es.order.Uint16(buf), nil
}

// getUint32 retrieves a uint32 (four bytes) from the stream
func (es *ElementStream) getUint32() (uint32, error) {
	buf, err := es.next(4)
	if err != nil {
		return 0, err
	}
	return es.order.Uint32(buf), nil
}

// tagFromBytes returns a tag from an array of bytes. length should be at least four.
func tagFromBytes(buf []byte, order binary.ByteOrder) dictionary.Tag {
	return dictionary.NewTag(order.Uint16(buf[0:2]), order.Uint16(buf[2:4]))
}

// getTag retrieves a tag from the stream
func (es *ElementStream) getTag() (dictionary.Tag, error) {
	buf, err := es.next(4)
	if err != nil {
		return 0, err
	}
	return tagFromBytes(buf, es.order), nil
}

// getBytes retrieves a copy of the next `num` bytes from the stream
func (es *ElementStream) getBytes(num int64) ([]byte, error) {
	if num == 0 {
		return []byte{}, nil
	}
	if num > es.GetRemainingBytes() {
		return nil, es.truncated(num)
	}
	buf := make([]byte, num)
	if num <= int64(len(es.window)) {
		view, err := es.next(int(num))
		if err != nil {
			return nil, err
		}
		copy(buf, view)
		return buf, nil
	}
	// larger than the window: read straight into the value buffer
	nread, err := es.src.ReadAt(buf, es.readerPos)
	if int64(nread) < num {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, es.truncated(num)
		}
		return nil, fmt.Errorf("reading at offset 0x%X: %w", es.readerPos, err)
	}
	es.readerPos += num
	return buf, nil
}

/*
===============================================================================
    Parser
===============================================================================
*/

// dicmTestString contains the dicom magic value
var dicmTestString = []byte("DICM")

// header holds the tag, VR and length of an element, and its starting offset
type header struct {
	tag    dictionary.Tag
	vr     string
	length uint32
	offset int64
}

type parser struct {
	es       *ElementStream
	doc      *Document
	cfg      parseConfig
	pixelTag dictionary.Tag
}

// Parse decodes a DICOM stream of `size` bytes from `src`.
//
// `enc` is the byte order and VR mode of the data set. If the stream starts with the
// 128 byte preamble and "DICM" marker, or directly with group 0002, the file meta is read
// as Explicit VR Little Endian and a declared transfer syntax replaces `enc`.
//
// Any error aborts the parse; no partial Document is returned. `src` must remain valid
// for as long as NotLoaded values may be materialized.
func Parse(src io.ReaderAt, size int64, enc Encoding, opts ...ParseOption) (*Document, error) {
	doc, err := parse(src, size, enc, newParseConfig(opts))
	if err != nil {
		return nil, err
	}
	doc.source = readerAtSource{r: src}
	return doc, nil
}

// ParseBytes decodes a DICOM stream held in `b`. See Parse.
func ParseBytes(b []byte, enc Encoding, opts ...ParseOption) (*Document, error) {
	return Parse(bytes.NewReader(b), int64(len(b)), enc, opts...)
}

// ParseFile decodes the DICOM file at `path`. See Parse.
//
// The file is closed before returning. NotLoaded values are read by reopening the file.
func ParseFile(path string, enc Encoding, opts ...ParseOption) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	doc, err := parse(f, stat.Size(), enc, newParseConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.source = fileSource{path: path}
	return doc, nil
}

func parse(src io.ReaderAt, size int64, enc Encoding, cfg parseConfig) (*Document, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: empty input", ErrTruncated)
	}
	window := getWindow(cfg.bufferSize)
	defer putWindow(window)

	doc := NewDocument()
	doc.Dictionary = cfg.dict
	doc.Encoding = enc
	doc.TransferSyntaxUID = TransferSyntaxFor(enc)
	p := &parser{
		es:       NewElementStream(src, size, window),
		doc:      doc,
		cfg:      cfg,
		pixelTag: dictionary.PixelData,
	}
	if err := p.crawlMeta(); err != nil {
		return nil, err
	}
	if err := p.crawlElements(); err != nil {
		return nil, err
	}
	return doc, nil
}

// crawlMeta reads the preamble, if any, and all "meta" elements.
// See ``7.1 DICOM File Meta Information`` for more information.
func (p *parser) crawlMeta() error {
	if preamble, err := p.es.peek(132); err == nil && bytes.Equal(preamble[128:132], dicmTestString) {
		p.doc.Preamble = append([]byte(nil), preamble[:128]...)
		_ = p.es.skipBytes(132)
	} else {
		Debugf("input is missing preamble/magic (bytes 0-132)")
	}

	// meta elements are always explicit vr, little endian
	p.es.SetEncoding(ExplicitLittleEndian)
	for {
		next, err := p.es.peek(2)
		if err != nil || binary.LittleEndian.Uint16(next) != 0x0002 {
			break
		}
		h, err := p.readHeader()
		if err != nil {
			return err
		}
		e, err := p.readElement(h, false)
		if err != nil {
			return err
		}
		if err := p.put(p.doc.Meta, e); err != nil {
			return err
		}
		if length, ok := e.Value.(Uint32s); ok && e.Tag == dictionary.FileMetaInformationGroupLength && len(length) == 1 {
			p.es.extendReadAhead(p.es.GetPosition() + int64(length[0]))
		}
	}
	Debugf("exiting meta (offset = 0x%X)", p.es.GetPosition())

	if uid, found := p.doc.Meta.String(dictionary.TransferSyntaxUID); found {
		enc, err := encodingForTransferSyntax(uid)
		if err != nil {
			return err
		}
		p.doc.Encoding = enc
		p.doc.TransferSyntaxUID = uid
	}
	p.es.SetEncoding(p.doc.Encoding)
	return nil
}

// crawlElements reads all remaining elements into the main data set.
// See ``7.1 Data Elements`` for more information.
func (p *parser) crawlElements() error {
	for p.es.GetRemainingBytes() > 0 {
		h, err := p.readHeader()
		if err != nil {
			return err
		}
		if h.tag == dictionary.SequenceDelimitationItem {
			Debugf("end of data set delimiter at offset 0x%X", h.offset)
			break
		}
		if h.tag.Group() == 0xFFFE {
			return elementErrorf(h.tag, h.offset, ErrMalformedElement, "item tag outside of a sequence")
		}
		e, err := p.readElement(h, true)
		if err != nil {
			return err
		}
		if err := p.put(p.doc.DataSet, e); err != nil {
			return err
		}
		switch e.Tag {
		case dictionary.SpecificCharacterSet:
			if terms, ok := e.Value.(Strings); ok {
				cs, found := LookupCharacterSet(terms)
				if !found {
					p.doc.addDiagnostic(UnknownCharset, e.Tag, "unrecognised character set %q, using %s", terms.String(), cs.Name)
				}
				p.doc.CharacterSet = cs
			}
		case dictionary.ImageLocation:
			p.pixelTag = p.doc.PixelTag()
		}
	}
	return nil
}

// put adds `e` to `ds`, checking that tags ascend. A repeated tag is always an error:
// keeping either element would drop the other.
func (p *parser) put(ds *DataSet, e *Element) error {
	if ds.Has(e.Tag) {
		return elementErrorf(e.Tag, e.Offset, ErrMalformedElement, "duplicate element")
	}
	if n := ds.Len(); n > 0 && ds.order[n-1] > e.Tag {
		if p.cfg.strict {
			return elementErrorf(e.Tag, e.Offset, ErrMalformedElement, "tag out of order (follows %s)", ds.order[n-1])
		}
		p.doc.addDiagnostic(OutOfOrder, e.Tag, "tag follows %s", ds.order[n-1])
	}
	ds.Put(e)
	return nil
}

// implicitVR looks up the VR of `tag` for streams which do not carry VRs
func (p *parser) implicitVR(tag dictionary.Tag) string {
	if entry, found := p.cfg.dict.LookupByTag(tag); found {
		return entry.VR
	}
	if !tag.IsPrivate() {
		p.doc.addDiagnostic(UnresolvedVR, tag, "not in dictionary, reading as UN")
	}
	return "UN"
}

// readHeader reads the tag, VR and length of the next element.
// Items and delimiters (group FFFE) never carry a VR.
func (p *parser) readHeader() (header, error) {
	es := p.es
	h := header{offset: es.GetPosition()}
	// every header is at least 8 bytes long
	defer es.extendReadAhead(h.offset + 8)()
	var err error
	if h.tag, err = es.getTag(); err != nil {
		return h, err
	}
	if h.tag.Group() == 0xFFFE {
		h.length, err = es.getUint32()
		return h, wrapElement(h, err)
	}
	if es.encoding.ImplicitVR {
		// implicit VR -- all VR length definitions are 32 bits
		h.vr = p.implicitVR(h.tag)
		h.length, err = es.getUint32()
		return h, wrapElement(h, err)
	}
	vrBytes, err := es.next(2)
	if err != nil {
		return h, wrapElement(h, err)
	}
	h.vr = string(vrBytes)
	if !vr.IsRecognised(h.vr) {
		if p.cfg.strict {
			return h, elementErrorf(h.tag, h.offset, ErrUnresolvedVR, "unrecognised VR %q", h.vr)
		}
		p.doc.addDiagnostic(UnresolvedVR, h.tag, "unrecognised VR %q, reading as text", h.vr)
	} else if !h.tag.IsPrivate() {
		if _, found := p.cfg.dict.LookupByTag(h.tag); !found {
			p.doc.addDiagnostic(UnknownTag, h.tag, "not in dictionary")
		}
	}
	if vr.IsLongForm(h.vr) {
		// skip the two reserved bytes, then the length is 32 bits
		if err = es.skipBytes(2); err != nil {
			return h, wrapElement(h, err)
		}
		h.length, err = es.getUint32()
		return h, wrapElement(h, err)
	}
	length, err := es.getUint16()
	h.length = uint32(length)
	return h, wrapElement(h, err)
}

// wrapElement attaches the element tag and offset to a stream error
func wrapElement(h header, err error) error {
	if err == nil {
		return nil
	}
	var ee *ElementError
	if errors.As(err, &ee) {
		return err
	}
	return &ElementError{Tag: h.tag, Offset: h.offset, Err: err}
}

// readElement reads the value of the element described by `h`
func (p *parser) readElement(h header, topLevel bool) (*Element, error) {
	es := p.es
	e := &Element{Tag: h.tag, VR: h.vr, Length: h.length, State: Loaded, Offset: h.offset}
	if h.length == UndefinedLength {
		switch h.vr {
		case "SQ":
			seq, err := p.readSequence(h)
			if err != nil {
				return nil, err
			}
			e.Value = seq
		case "UN":
			// undefined length UN holds a sequence encoded as Implicit VR Little Endian
			saved := es.Encoding()
			es.SetEncoding(ImplicitLittleEndian)
			seq, err := p.readSequence(h)
			es.SetEncoding(saved)
			if err != nil {
				return nil, err
			}
			e.VR = "SQ"
			e.Value = seq
		default:
			frags, err := p.readFragments(h)
			if err != nil {
				return nil, err
			}
			e.Value = frags
		}
		return e, nil
	}

	// value length must not exceed the remaining input
	if int64(h.length) > es.GetRemainingBytes() {
		return nil, elementErrorf(h.tag, h.offset, ErrTruncated, "value length %d exceeds remaining %d bytes", h.length, es.GetRemainingBytes())
	}
	if h.vr == "SQ" {
		seq, err := p.readSequence(h)
		if err != nil {
			return nil, err
		}
		e.Value = seq
		return e, nil
	}
	if topLevel && h.tag == p.pixelTag && int64(h.length) > p.cfg.threshold {
		e.State = NotLoaded
		e.Offset = es.GetPosition()
		e.bigEndian = !es.encoding.LittleEndian
		Debugf("deferring %s: %d bytes at offset 0x%X", h.tag, h.length, e.Offset)
		return e, wrapElement(h, es.skipBytes(int64(h.length)))
	}
	buf, err := es.getBytes(int64(h.length))
	if err != nil {
		return nil, wrapElement(h, err)
	}
	if e.Value, err = decodeValue(h.vr, buf, es.order, p.doc.CharacterSet); err != nil {
		return nil, &ElementError{Tag: h.tag, Offset: h.offset, Err: err}
	}
	return e, nil
}

// readSequence reads the items of the SQ element described by `h`.
// Items may be of defined or undefined length (see: NEMA 7.5 Nesting of Data Sets).
func (p *parser) readSequence(h header) (Sequence, error) {
	es := p.es
	seq := Sequence{}
	end := es.GetPosition() + int64(h.length)
	if h.length != UndefinedLength {
		defer es.extendReadAhead(end)()
	}
	for {
		if h.length != UndefinedLength && es.GetPosition() >= end {
			break
		}
		itemOffset := es.GetPosition()
		tag, err := es.getTag()
		if err != nil {
			return nil, wrapElement(h, err)
		}
		length, err := es.getUint32()
		if err != nil {
			return nil, wrapElement(h, err)
		}
		if tag == dictionary.SequenceDelimitationItem {
			break
		}
		if tag != dictionary.Item {
			return nil, elementErrorf(h.tag, itemOffset, ErrMalformedElement, "found %s where an item was expected", tag)
		}
		item, err := p.readItem(h, length)
		if err != nil {
			return nil, err
		}
		seq = append(seq, item)
	}
	if h.length != UndefinedLength && es.GetPosition() != end {
		return nil, elementErrorf(h.tag, h.offset, ErrMalformedElement, "items overrun sequence length %d", h.length)
	}
	return seq, nil
}

// readItem reads the nested data set of one item of `length` bytes
func (p *parser) readItem(seqHeader header, length uint32) (*DataSet, error) {
	es := p.es
	ds := NewDataSet()
	if length == UndefinedLength {
		for {
			h, err := p.readHeader()
			if err != nil {
				return nil, err
			}
			if h.tag == dictionary.ItemDelimitationItem {
				return ds, nil
			}
			if h.tag.Group() == 0xFFFE {
				return nil, elementErrorf(h.tag, h.offset, ErrMalformedElement, "unexpected delimiter inside item of %s", seqHeader.tag)
			}
			e, err := p.readElement(h, false)
			if err != nil {
				return nil, err
			}
			if err := p.put(ds, e); err != nil {
				return nil, err
			}
		}
	}
	if int64(length) > es.GetRemainingBytes() {
		return nil, elementErrorf(seqHeader.tag, es.GetPosition(), ErrTruncated, "item length %d exceeds remaining %d bytes", length, es.GetRemainingBytes())
	}
	end := es.GetPosition() + int64(length)
	defer es.extendReadAhead(end)()
	for es.GetPosition() < end {
		h, err := p.readHeader()
		if err != nil {
			return nil, err
		}
		if h.tag.Group() == 0xFFFE {
			return nil, elementErrorf(h.tag, h.offset, ErrMalformedElement, "unexpected delimiter inside item of %s", seqHeader.tag)
		}
		e, err := p.readElement(h, false)
		if err != nil {
			return nil, err
		}
		if err := p.put(ds, e); err != nil {
			return nil, err
		}
	}
	if es.GetPosition() != end {
		return nil, elementErrorf(seqHeader.tag, es.GetPosition(), ErrMalformedElement, "elements overrun item length %d", length)
	}
	return ds, nil
}

// readFragments reads the items of encapsulated pixel data
func (p *parser) readFragments(h header) (Fragments, error) {
	es := p.es
	frags := Fragments{}
	for {
		itemOffset := es.GetPosition()
		tag, err := es.getTag()
		if err != nil {
			return nil, wrapElement(h, err)
		}
		length, err := es.getUint32()
		if err != nil {
			return nil, wrapElement(h, err)
		}
		if tag == dictionary.SequenceDelimitationItem {
			return frags, nil
		}
		if tag != dictionary.Item || length == UndefinedLength {
			return nil, elementErrorf(h.tag, itemOffset, ErrMalformedElement, "invalid fragment %s (length 0x%X)", tag, length)
		}
		buf, err := es.getBytes(int64(length))
		if err != nil {
			return nil, wrapElement(h, err)
		}
		frags = append(frags, buf)
	}
}

/*
===============================================================================
    Value decoding
===============================================================================
*/

// decodeValue decodes the raw bytes of a value of VR `vrCode`.
// Binary VRs decode into typed slices and must be a whole number of values long.
// Text is stripped of its trailing pad byte, charset-decoded and split on "\".
func decodeValue(vrCode string, buf []byte, order binary.ByteOrder, cs *CharacterSet) (Value, error) {
	if vr.IsBulk(vrCode) {
		width := wordWidth(vrCode)
		if len(buf)%width != 0 {
			return nil, fmt.Errorf("%w: %s length %d is not a multiple of %d", ErrMalformedElement, vrCode, len(buf), width)
		}
		if order == binary.BigEndian {
			swapBytes(buf, width)
		}
		return Bytes(buf), nil
	}
	if vr.ClassOf(vrCode) == vr.Binary {
		width := vr.Count(vrCode)
		if len(buf)%width != 0 {
			return nil, fmt.Errorf("%w: %s length %d is not a multiple of %d", ErrMalformedElement, vrCode, len(buf), width)
		}
		n := len(buf) / width
		switch vrCode {
		case "US":
			out := make(Uint16s, n)
			for i := range out {
				out[i] = order.Uint16(buf[i*2:])
			}
			return out, nil
		case "SS":
			out := make(Int16s, n)
			for i := range out {
				out[i] = int16(order.Uint16(buf[i*2:]))
			}
			return out, nil
		case "UL":
			out := make(Uint32s, n)
			for i := range out {
				out[i] = order.Uint32(buf[i*4:])
			}
			return out, nil
		case "SL":
			out := make(Int32s, n)
			for i := range out {
				out[i] = int32(order.Uint32(buf[i*4:]))
			}
			return out, nil
		case "UV":
			out := make(Uint64s, n)
			for i := range out {
				out[i] = order.Uint64(buf[i*8:])
			}
			return out, nil
		case "SV":
			out := make(Int64s, n)
			for i := range out {
				out[i] = int64(order.Uint64(buf[i*8:]))
			}
			return out, nil
		case "FL":
			out := make(Float32s, n)
			for i := range out {
				out[i] = math.Float32frombits(order.Uint32(buf[i*4:]))
			}
			return out, nil
		case "FD":
			out := make(Float64s, n)
			for i := range out {
				out[i] = math.Float64frombits(order.Uint64(buf[i*8:]))
			}
			return out, nil
		case "AT":
			out := make(Tags, n)
			for i := range out {
				out[i] = tagFromBytes(buf[i*4:], order)
			}
			return out, nil
		}
	}
	return decodeText(vrCode, buf, cs), nil
}

// decodeText strips the single trailing pad byte, decodes and splits a text value
func decodeText(vrCode string, buf []byte, cs *CharacterSet) Strings {
	if n := len(buf); n > 0 && (buf[n-1] == 0x00 || buf[n-1] == 0x20) {
		buf = buf[:n-1]
	}
	if len(buf) == 0 {
		return Strings{}
	}
	var text string
	if vr.IsCharsetSensitive(vrCode) {
		text = decodeBytes(buf, cs)
	} else {
		text = string(buf)
	}
	return Strings(splitText(vrCode, text))
}

/*
===============================================================================
    Encoding heuristics
===============================================================================
*/

// GuessEncoding is a heuristic for determining the encoding of a data set from its
// first six bytes, for callers that have no other hint:
// 1. If the first group (read little endian) is > 2000, it's most likely Big Endian
// 2. If bytes four to six match a VR code, it's most likely explicit VR
func GuessEncoding(buf []byte) Encoding {
	enc := ExplicitLittleEndian
	if len(buf) < 6 {
		return enc
	}
	group := binary.LittleEndian.Uint16(buf[0:2])
	enc.LittleEndian = group < 2000 || group == 0x7FE0
	enc.ImplicitVR = !vr.IsRecognised(string(buf[4:6]))
	return enc
}
