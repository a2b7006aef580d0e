// Package vr classifies DICOM Value Representations.
// See ``6.2 Value Representation (VR)`` for more information.
package vr

// Class groups VRs by how their value bytes are decoded.
type Class int

const (
	// Unknown is returned for VR codes not present in the table.
	Unknown Class = iota
	// Binary VRs hold fixed-width numbers (or opaque bytes, for OB/UN).
	Binary
	// String VRs hold delimited, padded text.
	String
	// Sequence is SQ: a list of nested data sets.
	Sequence
)

func (c Class) String() string {
	switch c {
	case Binary:
		return "Binary"
	case String:
		return "String"
	case Sequence:
		return "Sequence"
	default:
		return "Unknown"
	}
}

// properties holds the fixed properties of one VR
type properties struct {
	class Class
	width int
	// longForm VRs use two reserved bytes and a 32-bit length in explicit VR streams
	longForm bool
	// multi is false for text VRs that do not use "\" as a value delimiter
	multi bool
	// charset is true for VRs whose text is subject to SpecificCharacterSet
	charset bool
}

var table = map[string]properties{
	"AE": {class: String, width: 1, multi: true},
	"AS": {class: String, width: 1, multi: true},
	"CS": {class: String, width: 1, multi: true},
	"DA": {class: String, width: 1, multi: true},
	"DS": {class: String, width: 1, multi: true},
	"DT": {class: String, width: 1, multi: true},
	"IS": {class: String, width: 1, multi: true},
	"LO": {class: String, width: 1, multi: true, charset: true},
	"LT": {class: String, width: 1, charset: true},
	"PN": {class: String, width: 1, multi: true, charset: true},
	"SH": {class: String, width: 1, multi: true, charset: true},
	"ST": {class: String, width: 1, charset: true},
	"TM": {class: String, width: 1, multi: true},
	"UC": {class: String, width: 1, longForm: true, multi: true, charset: true},
	"UI": {class: String, width: 1, multi: true},
	"UR": {class: String, width: 1, longForm: true},
	"UT": {class: String, width: 1, longForm: true, charset: true},

	"AT": {class: Binary, width: 4, multi: true},
	"FL": {class: Binary, width: 4, multi: true},
	"FD": {class: Binary, width: 8, multi: true},
	"SL": {class: Binary, width: 4, multi: true},
	"SS": {class: Binary, width: 2, multi: true},
	"SV": {class: Binary, width: 8, longForm: true, multi: true},
	"UL": {class: Binary, width: 4, multi: true},
	"US": {class: Binary, width: 2, multi: true},
	"UV": {class: Binary, width: 8, longForm: true, multi: true},
	"OB": {class: Binary, width: 1, longForm: true},
	"OD": {class: Binary, width: 8, longForm: true},
	"OF": {class: Binary, width: 4, longForm: true},
	"OL": {class: Binary, width: 4, longForm: true},
	"OV": {class: Binary, width: 8, longForm: true},
	"OW": {class: Binary, width: 2, longForm: true},
	"UN": {class: Binary, width: 1, longForm: true},

	"SQ": {class: Sequence, longForm: true},
}

// Recognised lists every VR code known to the classifier, in alphabetical order.
var Recognised = []string{
	"AE", "AS", "AT", "CS", "DA", "DS", "DT", "FD", "FL", "IS", "LO", "LT", "OB", "OD", "OF",
	"OL", "OV", "OW", "PN", "SH", "SL", "SQ", "SS", "ST", "SV", "TM", "UC", "UI", "UL", "UN",
	"UR", "US", "UT", "UV",
}

// ClassOf returns the representation class of `vr`.
func ClassOf(vr string) Class {
	return table[vr].class
}

// Count returns the width in bytes of one value of `vr`: the element width for
// binary VRs, 1 (one byte per character) for string VRs, and 0 for SQ or unknown VRs.
func Count(vr string) int {
	return table[vr].width
}

// IsRecognised returns whether `vr` is present in the table.
func IsRecognised(vr string) bool {
	_, ok := table[vr]
	return ok
}

// IsLongForm returns whether `vr` is encoded with two reserved bytes followed by a
// 32-bit length in explicit VR streams (OB, OD, OF, OL, OV, OW, SQ, SV, UC, UN, UR, UT, UV).
// VR codes missing from the table are long form too, as required of VRs defined after
// this table was written (PS3.5 7.1.2).
func IsLongForm(vr string) bool {
	s, ok := table[vr]
	return !ok || s.longForm
}

// IsMultiValued returns whether values of `vr` may hold several values delimited by "\".
func IsMultiValued(vr string) bool {
	return table[vr].multi
}

// IsCharsetSensitive returns whether text of `vr` is encoded according to
// SpecificCharacterSet (0008,0005).
func IsCharsetSensitive(vr string) bool {
	return table[vr].charset
}

// PadByte returns the byte used to pad values of `vr` to an even length.
// UI and OB are padded with NULL, everything else with a space.
func PadByte(vr string) byte {
	switch vr {
	case "UI", "OB", "UN":
		return 0x00
	default:
		return 0x20
	}
}

// IsBulk returns whether `vr` holds opaque binary data that is kept as raw bytes
// rather than decoded into numbers (OB, OD, OF, OL, OV, OW, UN).
func IsBulk(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OV", "OW", "UN":
		return true
	}
	return false
}
