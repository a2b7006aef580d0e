package dcmio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/b71729/dcmio/dictionary"
	"github.com/b71729/dcmio/vr"
)

// Value is the decoded value of a Loaded element. The set of implementations is closed:
// Strings, Uint16s, Int16s, Uint32s, Int32s, Uint64s, Int64s, Float32s, Float64s, Tags,
// Bytes, Sequence and Fragments.
type Value interface {
	// Len returns the number of values (items, for Sequence; fragments, for Fragments)
	Len() int
	// String returns the canonical text form: values joined by "\"
	String() string
	isValue()
}

// Strings holds string-representable values, already charset-decoded and stripped of padding
type Strings []string

// Uint16s holds US values
type Uint16s []uint16

// Int16s holds SS values
type Int16s []int16

// Uint32s holds UL values
type Uint32s []uint32

// Int32s holds SL values
type Int32s []int32

// Uint64s holds UV values
type Uint64s []uint64

// Int64s holds SV values
type Int64s []int64

// Float32s holds FL values
type Float32s []float32

// Float64s holds FD values
type Float64s []float64

// Tags holds AT values
type Tags []dictionary.Tag

// Bytes holds OB, OD, OF, OL, OV, OW and UN values, in little endian byte order
// regardless of the byte order of the source.
type Bytes []byte

// Sequence holds the items of an SQ element, each a nested DataSet
type Sequence []*DataSet

// Fragments holds the raw items of encapsulated (compressed) pixel data.
// The first fragment is the basic offset table, and may be empty.
type Fragments [][]byte

func (Strings) isValue()   {}
func (Uint16s) isValue()   {}
func (Int16s) isValue()    {}
func (Uint32s) isValue()   {}
func (Int32s) isValue()    {}
func (Uint64s) isValue()   {}
func (Int64s) isValue()    {}
func (Float32s) isValue()  {}
func (Float64s) isValue()  {}
func (Tags) isValue()      {}
func (Bytes) isValue()     {}
func (Sequence) isValue()  {}
func (Fragments) isValue() {}

func (v Strings) Len() int   { return len(v) }
func (v Uint16s) Len() int   { return len(v) }
func (v Int16s) Len() int    { return len(v) }
func (v Uint32s) Len() int   { return len(v) }
func (v Int32s) Len() int    { return len(v) }
func (v Uint64s) Len() int   { return len(v) }
func (v Int64s) Len() int    { return len(v) }
func (v Float32s) Len() int  { return len(v) }
func (v Float64s) Len() int  { return len(v) }
func (v Tags) Len() int      { return len(v) }
func (v Bytes) Len() int     { return len(v) }
func (v Sequence) Len() int  { return len(v) }
func (v Fragments) Len() int { return len(v) }

func (v Strings) String() string {
	return strings.Join(v, `\`)
}

func (v Uint16s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatUint(uint64(v[i]), 10) })
}

func (v Int16s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatInt(int64(v[i]), 10) })
}

func (v Uint32s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatUint(uint64(v[i]), 10) })
}

func (v Int32s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatInt(int64(v[i]), 10) })
}

func (v Uint64s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatUint(v[i], 10) })
}

func (v Int64s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatInt(v[i], 10) })
}

func (v Float32s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatFloat(float64(v[i]), 'g', -1, 32) })
}

func (v Float64s) String() string {
	return joinFormatted(len(v), func(i int) string { return strconv.FormatFloat(v[i], 'g', -1, 64) })
}

func (v Tags) String() string {
	return joinFormatted(len(v), func(i int) string { return v[i].Label() })
}

func (v Bytes) String() string {
	return "(" + strconv.Itoa(len(v)) + " bytes)"
}

func (v Sequence) String() string {
	return "(" + strconv.Itoa(len(v)) + " items)"
}

func (v Fragments) String() string {
	return "(" + strconv.Itoa(len(v)) + " fragments)"
}

func joinFormatted(n int, format func(i int) string) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte('\\')
		}
		sb.WriteString(format(i))
	}
	return sb.String()
}

// hasText returns whether `v` has a canonical text form that can be parsed back
func hasText(v Value) bool {
	switch v.(type) {
	case Bytes, Sequence, Fragments:
		return false
	}
	return true
}

// ValueFromText encodes the canonical text form `text` as a value of VR `vrCode`.
// Multiple values are separated by "\". Text which cannot be represented by the VR
// (for instance "abc" for US, or a decimal string that is not a number) returns an
// error wrapping ErrMalformedElement. Bulk and sequence VRs have no text form and
// return ErrUnsupportedEncoding.
func ValueFromText(vrCode, text string) (Value, error) {
	parts := splitText(vrCode, text)
	switch vrCode {
	case "US":
		out := make(Uint16s, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = uint16(n)
		}
		return out, nil
	case "SS":
		out := make(Int16s, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 16)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = int16(n)
		}
		return out, nil
	case "UL":
		out := make(Uint32s, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = uint32(n)
		}
		return out, nil
	case "SL":
		out := make(Int32s, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = int32(n)
		}
		return out, nil
	case "UV":
		out := make(Uint64s, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = n
		}
		return out, nil
	case "SV":
		out := make(Int64s, len(parts))
		for i, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = n
		}
		return out, nil
	case "FL":
		out := make(Float32s, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = float32(f)
		}
		return out, nil
	case "FD":
		out := make(Float64s, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = f
		}
		return out, nil
	case "AT":
		out := make(Tags, len(parts))
		for i, p := range parts {
			tag, err := dictionary.ParseTag(p)
			if err != nil {
				return nil, textError(vrCode, p, err)
			}
			out[i] = tag
		}
		return out, nil
	case "DS":
		for _, p := range parts {
			if _, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil && strings.TrimSpace(p) != "" {
				return nil, textError(vrCode, p, err)
			}
		}
	case "IS":
		for _, p := range parts {
			if _, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err != nil && strings.TrimSpace(p) != "" {
				return nil, textError(vrCode, p, err)
			}
		}
	case "SQ", "OB", "OD", "OF", "OL", "OV", "OW", "UN":
		return nil, fmt.Errorf("%w: VR %s has no text form", ErrUnsupportedEncoding, vrCode)
	}
	return Strings(parts), nil
}

// splitText splits `text` into its values. Empty text holds no values.
func splitText(vrCode, text string) []string {
	if text == "" {
		return []string{}
	}
	if vr.IsMultiValued(vrCode) || !vr.IsRecognised(vrCode) {
		return strings.Split(text, `\`)
	}
	return []string{text}
}

func textError(vrCode, text string, err error) error {
	return fmt.Errorf("%w: %q is not a valid %s value: %v", ErrMalformedElement, text, vrCode, err)
}
