// Package dcmio parses and writes DICOM files: an ordered stream of tagged data
// elements followed, for image objects, by pixel data whose geometry and sample type
// are described by earlier elements.
//
// Parsing produces a Document holding ordered, typed DataSets. Large pixel data is left
// unread (NotLoaded) until ExtractPixels or Materialize needs it, so header-only access
// never pays for the pixel payload.
package dcmio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/b71729/dcmio/dictionary"
)

/*
===============================================================================
    Element
===============================================================================
*/

// UndefinedLength is the value length of sequences, items and encapsulated pixel data
// whose extent is marked by a delimitation item rather than a byte count.
const UndefinedLength uint32 = 0xFFFFFFFF

// ValueState records whether an element's value is held in memory
type ValueState int

const (
	// Loaded elements hold their decoded Value
	Loaded ValueState = iota
	// NotLoaded elements record only where their value bytes are in the source
	NotLoaded
	// Unavailable elements were NotLoaded when their source was detached or lost
	Unavailable
)

func (s ValueState) String() string {
	switch s {
	case Loaded:
		return "Loaded"
	case NotLoaded:
		return "NotLoaded"
	case Unavailable:
		return "Unavailable"
	default:
		return "ValueState(" + strconv.Itoa(int(s)) + ")"
	}
}

// Element represents a Data Element,
// as per http://dicom.nema.org/dicom/2013/output/chtml/part05/chapter_7.html#sect_7.1
type Element struct {
	Tag dictionary.Tag
	VR  string
	// Length is the value length as found in the stream, or as set when the value was replaced.
	Length uint32
	State  ValueState
	// Value is nil unless State is Loaded
	Value Value
	// Offset is the position of the value bytes in the source when State is NotLoaded
	Offset int64

	// bigEndian records the byte order of the source of a NotLoaded value
	bigEndian bool
}

// NewElement returns a Loaded element holding `value`
func NewElement(tag dictionary.Tag, vrCode string, value Value) *Element {
	return &Element{Tag: tag, VR: vrCode, State: Loaded, Value: value}
}

// IsLoaded returns whether the element holds its value in memory
func (e *Element) IsLoaded() bool {
	return e.State == Loaded
}

// Text returns the canonical text form of a Loaded value, and false otherwise
func (e *Element) Text() (string, bool) {
	if e.State != Loaded || e.Value == nil {
		return "", false
	}
	return e.Value.String(), true
}

// Describe returns a string array of human-readable element description
func (e *Element) Describe(dict *dictionary.Dictionary, indentLevel int) []string {
	var description []string
	indentStr := strings.Repeat(" ", indentLevel)
	name := dictionary.UnknownName
	if entry, found := dict.LookupByTag(e.Tag); found {
		name = entry.Name
	}
	switch {
	case e.State == NotLoaded:
		description = append(description, fmt.Sprintf("%s[%s] %s %s: (%d bytes, not loaded)", indentStr, e.VR, e.Tag, name, e.Length))
	case e.State == Unavailable:
		description = append(description, fmt.Sprintf("%s[%s] %s %s: (unavailable)", indentStr, e.VR, e.Tag, name))
	default:
		switch v := e.Value.(type) {
		case Sequence:
			description = append(description, fmt.Sprintf("%s[%s] %s %s:", indentStr, e.VR, e.Tag, name))
			for i, item := range v {
				description = append(description, fmt.Sprintf("%s  item %d:", indentStr, i))
				for _, nested := range item.Elements() {
					description = append(description, nested.Describe(dict, indentLevel+4)...)
				}
			}
		case nil:
			description = append(description, fmt.Sprintf("%s[%s] %s %s: (empty)", indentStr, e.VR, e.Tag, name))
		default:
			text := v.String()
			if len(text) > 256 {
				text = fmt.Sprintf("(%d bytes)", e.Length)
			}
			description = append(description, fmt.Sprintf("%s[%s] %s %s: %s", indentStr, e.VR, e.Tag, name, text))
		}
	}
	return description
}

/*
===============================================================================
    DataSet
===============================================================================
*/

// DataSet represents a single Data Set, ordered by ascending tag,
// as per: http://dicom.nema.org/dicom/2013/output/chtml/part10/sect_7.2.html
type DataSet struct {
	elements map[dictionary.Tag]*Element
	order    []dictionary.Tag
}

// NewDataSet returns a fresh DataSet
func NewDataSet() *DataSet {
	return &DataSet{elements: make(map[dictionary.Tag]*Element)}
}

// Get returns the element indexed by `tag`.
// If the tag is not found, param `bool` will be false.
func (ds *DataSet) Get(tag dictionary.Tag) (*Element, bool) {
	e, ok := ds.elements[tag]
	return e, ok
}

// Has returns whether the element indexed by `tag` exists.
func (ds *DataSet) Has(tag dictionary.Tag) bool {
	_, ok := ds.elements[tag]
	return ok
}

// Put adds `e`, replacing any element with the same tag. Ascending tag order is kept.
func (ds *DataSet) Put(e *Element) {
	if _, found := ds.elements[e.Tag]; found {
		ds.elements[e.Tag] = e
		return
	}
	ds.elements[e.Tag] = e
	n := len(ds.order)
	if n == 0 || ds.order[n-1] < e.Tag {
		ds.order = append(ds.order, e.Tag)
		return
	}
	i := sort.Search(n, func(i int) bool { return ds.order[i] > e.Tag })
	ds.order = append(ds.order, 0)
	copy(ds.order[i+1:], ds.order[i:])
	ds.order[i] = e.Tag
}

// Delete removes the element indexed by `tag`, returning whether it existed
func (ds *DataSet) Delete(tag dictionary.Tag) bool {
	if _, found := ds.elements[tag]; !found {
		return false
	}
	delete(ds.elements, tag)
	i := sort.Search(len(ds.order), func(i int) bool { return ds.order[i] >= tag })
	ds.order = append(ds.order[:i], ds.order[i+1:]...)
	return true
}

// Len returns the number of elements.
func (ds *DataSet) Len() int {
	return len(ds.order)
}

// Tags returns the tags of all elements in ascending order
func (ds *DataSet) Tags() []dictionary.Tag {
	return append([]dictionary.Tag(nil), ds.order...)
}

// Elements returns all elements in ascending tag order
func (ds *DataSet) Elements() []*Element {
	elements := make([]*Element, 0, len(ds.order))
	for _, tag := range ds.order {
		elements = append(elements, ds.elements[tag])
	}
	return elements
}

// String returns the first text value of `tag`
func (ds *DataSet) String(tag dictionary.Tag) (string, bool) {
	e, found := ds.elements[tag]
	if !found || e.State != Loaded {
		return "", false
	}
	switch v := e.Value.(type) {
	case Strings:
		if len(v) == 0 {
			return "", false
		}
		return v[0], true
	case nil:
		return "", false
	default:
		if v.Len() == 0 || !hasText(v) {
			return "", false
		}
		return strings.SplitN(v.String(), `\`, 2)[0], true
	}
}

// Floats returns the values of `tag` as float64s. Decimal and integer strings are parsed;
// numeric values are converted. Values that cannot be parsed end the result.
func (ds *DataSet) Floats(tag dictionary.Tag) ([]float64, bool) {
	e, found := ds.elements[tag]
	if !found || e.State != Loaded {
		return nil, false
	}
	var out []float64
	switch v := e.Value.(type) {
	case Strings:
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				break
			}
			out = append(out, f)
		}
	case Uint16s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Int16s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Uint32s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Int32s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Uint64s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Int64s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Float32s:
		for _, n := range v {
			out = append(out, float64(n))
		}
	case Float64s:
		out = append(out, v...)
	}
	return out, len(out) > 0
}

// Int returns the first value of `tag` as an int
func (ds *DataSet) Int(tag dictionary.Tag) (int, bool) {
	floats, found := ds.Floats(tag)
	if !found {
		return 0, false
	}
	return int(floats[0]), true
}
