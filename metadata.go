package dcmio

import (
	"fmt"
	"sort"

	"github.com/b71729/dcmio/dictionary"
	"github.com/b71729/dcmio/vr"
)

// exportable returns whether the top-level element `e` belongs in the metadata table
func (doc *Document) exportable(e *Element, pixelTag dictionary.Tag) bool {
	switch {
	case e.State != Loaded || e.Value == nil:
		return false
	case e.Tag == pixelTag, e.Tag.IsPrivate(), e.Tag.IsGroupLength(), e.Tag.IsFileMeta():
		return false
	case e.VR == "SQ":
		return false
	}
	return hasText(e.Value)
}

// metadataName returns the table key of `tag`: its dictionary name, or its "GGGG,EEEE" label
func (doc *Document) metadataName(tag dictionary.Tag) string {
	if entry, found := doc.Dictionary.LookupByTag(tag); found && entry.Name != dictionary.UnknownName {
		return entry.Name
	}
	return tag.Label()
}

// Export returns a snapshot of the top-level text metadata of `doc`, keyed by dictionary
// name. Pixel data, private tags, sequences, group lengths, file meta and values without a
// text form (bulk bytes) are left out. Numbers are in canonical text form, "\"-joined.
func Export(doc *Document) map[string]string {
	pixelTag := doc.PixelTag()
	out := make(map[string]string, doc.DataSet.Len())
	for _, e := range doc.DataSet.Elements() {
		if !doc.exportable(e, pixelTag) {
			continue
		}
		out[doc.metadataName(e.Tag)] = e.Value.String()
	}
	return out
}

// Absorb applies the metadata table `m` to `doc`.
//
// Keys are resolved with the document's dictionary (or "GGGG,EEEE" labels). Values equal to
// the current text of their element are left alone, so absorbing an unchanged Export is a
// no-op. Other values are encoded through the VR of the tag. Keys that do not resolve are
// skipped, reported as diagnostics and returned in sorted order.
//
// A value that cannot be encoded for its VR aborts with an error before any change is made.
func Absorb(doc *Document, m map[string]string) ([]string, error) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var dropped []string
	var pending []*Element
	for _, key := range keys {
		text := m[key]
		tag, vrCode, found := doc.resolveName(key)
		if !found {
			dropped = append(dropped, key)
			doc.addDiagnostic(DroppedName, 0, "metadata name %q not in dictionary", key)
			continue
		}
		existing, exists := doc.DataSet.Get(tag)
		if exists {
			if current, loaded := existing.Text(); loaded && hasText(existing.Value) && current == text {
				continue
			}
			if existing.VR != "" {
				vrCode = existing.VR
			}
		}
		value, err := ValueFromText(vrCode, text)
		if err != nil {
			return dropped, fmt.Errorf("%s %s: %w", key, tag, err)
		}
		if vr.IsCharsetSensitive(vrCode) {
			if _, err := encodeString(text, doc.CharacterSet); err != nil {
				return dropped, fmt.Errorf("%s %s: %w: text cannot be encoded in %s", key, tag, ErrMalformedElement, doc.CharacterSet.Name)
			}
		}
		pending = append(pending, NewElement(tag, vrCode, value))
	}
	for _, e := range pending {
		doc.Put(e)
		if e.Tag == dictionary.SpecificCharacterSet {
			doc.CharacterSet, _ = LookupCharacterSet(e.Value.(Strings))
		}
	}
	Debugf("absorbed %d of %d metadata values (%d dropped)", len(pending), len(m), len(dropped))
	return dropped, nil
}

// resolveName resolves a metadata key to a tag and VR
func (doc *Document) resolveName(name string) (dictionary.Tag, string, bool) {
	if entry, found := doc.Dictionary.LookupByName(name); found {
		return entry.Tag, entry.VR, true
	}
	// labels exported for tags missing from the dictionary
	if tag, err := dictionary.ParseTag(name); err == nil {
		if e, found := doc.DataSet.Get(tag); found {
			return tag, e.VR, true
		}
		if entry, found := doc.Dictionary.LookupByTag(tag); found {
			return tag, entry.VR, true
		}
	}
	return 0, "", false
}
