package dcmio

import (
	"errors"
	"fmt"

	"github.com/b71729/dcmio/dictionary"
)

/*
===============================================================================
    Error Types
===============================================================================
*/

var (
	// ErrTruncated indicates that a declared length would read past the end of the input
	ErrTruncated = errors.New("truncated input")
	// ErrMalformedElement indicates an element whose length is inconsistent with its VR
	ErrMalformedElement = errors.New("malformed element")
	// ErrUnresolvedVR indicates a VR which could not be determined (fatal only in StrictMode)
	ErrUnresolvedVR = errors.New("unresolved VR")
	// ErrSizeMismatch indicates that pixel geometry disagrees with the available pixel bytes
	ErrSizeMismatch = errors.New("pixel data size mismatch")
	// ErrUnsupportedEncoding indicates a transfer syntax or value encoding this package cannot handle
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrPixelDataMissing indicates that the document holds no pixel data element
	ErrPixelDataMissing = errors.New("pixel data missing")
	// ErrUnavailable indicates a deferred value whose source is no longer available
	ErrUnavailable = errors.New("value unavailable")
)

// ElementError records the element and stream offset at which decoding or encoding failed.
// Err is one of the sentinel errors above, possibly wrapped.
type ElementError struct {
	Tag    dictionary.Tag
	Offset int64
	Err    error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %s (offset 0x%X): %v", e.Tag, e.Offset, e.Err)
}

// Unwrap allows `errors.Is(err, ErrMalformedElement)` and friends
func (e *ElementError) Unwrap() error {
	return e.Err
}

// elementErrorf raises an `ElementError` wrapping `sentinel` with further detail
func elementErrorf(tag dictionary.Tag, offset int64, sentinel error, format string, a ...interface{}) *ElementError {
	return &ElementError{Tag: tag, Offset: offset, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, a...))}
}

/*
===============================================================================
    Diagnostics
===============================================================================
*/

// DiagnosticKind classifies a recoverable condition met while parsing or editing a Document
type DiagnosticKind int

const (
	// UnknownTag is reported for tags absent from the dictionary
	UnknownTag DiagnosticKind = iota
	// UnresolvedVR is reported when a VR could not be determined and a fallback was used
	UnresolvedVR
	// OutOfOrder is reported for tags which do not ascend in the stream
	OutOfOrder
	// UnknownCharset is reported for SpecificCharacterSet terms with no known encoding
	UnknownCharset
	// DroppedName is reported by Absorb for metadata names with no dictionary entry
	DroppedName
	// DefaultedSampleType is reported when BitsAllocated is missing or unsupported
	DefaultedSampleType
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnknownTag:
		return "UnknownTag"
	case UnresolvedVR:
		return "UnresolvedVR"
	case OutOfOrder:
		return "OutOfOrder"
	case UnknownCharset:
		return "UnknownCharset"
	case DroppedName:
		return "DroppedName"
	case DefaultedSampleType:
		return "DefaultedSampleType"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic is a non-fatal report attached to a Document
type Diagnostic struct {
	Kind    DiagnosticKind
	Tag     dictionary.Tag
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Tag, d.Message)
}
