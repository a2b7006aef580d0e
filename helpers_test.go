package dcmio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/b71729/dcmio/dictionary"
	"github.com/b71729/dcmio/vr"
	"github.com/stretchr/testify/require"
)

/*
===============================================================================
    Utilities
===============================================================================
*/

var le, be = binary.LittleEndian, binary.BigEndian

func u16(order binary.ByteOrder, vals ...uint16) []byte {
	buf := make([]byte, len(vals)*2)
	for i, v := range vals {
		order.PutUint16(buf[i*2:], v)
	}
	return buf
}

func u32(order binary.ByteOrder, vals ...uint32) []byte {
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		order.PutUint32(buf[i*4:], v)
	}
	return buf
}

// text returns `s` padded to even length with `pad`
func text(s string, pad byte) []byte {
	buf := []byte(s)
	if len(buf)%2 == 1 {
		buf = append(buf, pad)
	}
	return buf
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// explicitElement encodes one explicit VR element in `order`
func explicitElement(order binary.ByteOrder, tag dictionary.Tag, vrCode string, value []byte) []byte {
	out := concat(u16(order, tag.Group(), tag.Element()), []byte(vrCode))
	if vr.IsLongForm(vrCode) {
		out = concat(out, []byte{0x00, 0x00}, u32(order, uint32(len(value))))
	} else {
		out = concat(out, u16(order, uint16(len(value))))
	}
	return concat(out, value)
}

// implicitElement encodes one implicit VR little endian element
func implicitElement(tag dictionary.Tag, value []byte) []byte {
	return concat(u16(le, tag.Group(), tag.Element()), u32(le, uint32(len(value))), value)
}

// fileMeta returns a preamble, "DICM" marker and a file meta declaring `uid`
func fileMeta(uid string) []byte {
	return concat(
		make([]byte, 128),
		[]byte("DICM"),
		explicitElement(le, dictionary.TransferSyntaxUID, "UI", text(uid, 0x00)),
	)
}

// parseFixture parses `b`, failing the test on error
func parseFixture(t *testing.T, b []byte, enc Encoding, opts ...ParseOption) *Document {
	t.Helper()
	doc, err := ParseBytes(b, enc, opts...)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

// imageFixture returns a 2x2 16 bit explicit VR little endian image with file meta
func imageFixture() []byte {
	return concat(
		fileMeta(dictionary.ExplicitVRLittleEndian),
		explicitElement(le, dictionary.SOPClassUID, "UI", text(dictionary.SecondaryCaptureImageStorage, 0x00)),
		explicitElement(le, dictionary.SOPInstanceUID, "UI", text("1.2.3.4", 0x00)),
		explicitElement(le, dictionary.PatientName, "PN", text("Doe^John", 0x20)),
		explicitElement(le, dictionary.SamplesPerPixel, "US", u16(le, 1)),
		explicitElement(le, dictionary.Rows, "US", u16(le, 2)),
		explicitElement(le, dictionary.Columns, "US", u16(le, 2)),
		explicitElement(le, dictionary.PixelSpacing, "DS", text(`0.5\0.25`, 0x20)),
		explicitElement(le, dictionary.BitsAllocated, "US", u16(le, 16)),
		explicitElement(le, dictionary.PixelRepresentation, "US", u16(le, 0)),
		explicitElement(le, dictionary.PixelData, "OW", u16(le, 1, 2, 3, 0xFFFF)),
	)
}
