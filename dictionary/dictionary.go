// Package dictionary provides the DICOM data dictionary: a read-only mapping from
// tags to names, VRs and value multiplicities, with a reverse index by name.
//
// A Dictionary is never mutated after construction, so lookups from any number of
// goroutines are safe without locking.
package dictionary

import (
	"bufio"
	_ "embed" // embedded default dictionary table
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/b71729/dcmio/vr"
)

// Entry represents a single data dictionary entry
type Entry struct {
	Tag         Tag
	VR          string
	Name        string
	VM          string
	Description string
	Retired     bool
}

// UnknownName is the name given to placeholder entries of unresolved tags
const UnknownName = "unknown"

// Dictionary is an immutable tag dictionary
type Dictionary struct {
	byTag  map[Tag]Entry
	byName map[string]Entry
}

// New builds a Dictionary from `entries`. Later entries replace earlier ones
// sharing the same tag. Entries in private (odd) groups are ignored: private tags
// are only meaningful together with their private creator.
func New(entries []Entry) *Dictionary {
	d := &Dictionary{
		byTag:  make(map[Tag]Entry, len(entries)),
		byName: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if e.Tag.IsPrivate() {
			continue
		}
		if old, found := d.byTag[e.Tag]; found {
			delete(d.byName, old.Name)
		}
		d.byTag[e.Tag] = e
		if e.Name != "" {
			d.byName[e.Name] = e
		}
	}
	return d
}

// LookupByTag searches for the entry of `tag`.
// Group length tags (gggg,0000) of even groups always resolve to a UL entry.
func (d *Dictionary) LookupByTag(tag Tag) (Entry, bool) {
	if tag.IsPrivate() {
		return Entry{}, false
	}
	if e, found := d.byTag[tag]; found {
		return e, true
	}
	if tag.IsGroupLength() {
		return Entry{Tag: tag, VR: "UL", Name: "GroupLength", VM: "1", Description: "Group Length"}, true
	}
	return Entry{}, false
}

// LookupByName searches for the entry whose keyword equals `name`
func (d *Dictionary) LookupByName(name string) (Entry, bool) {
	e, found := d.byName[name]
	return e, found
}

// Len returns the number of entries
func (d *Dictionary) Len() int {
	return len(d.byTag)
}

// Placeholder returns the entry to use for a tag which the dictionary cannot resolve.
// The VR is "UN" so that the value is carried through unmodified.
func Placeholder(tag Tag) Entry {
	return Entry{Tag: tag, VR: "UN", Name: UnknownName, VM: "1", Description: "Unknown " + tag.String()}
}

// Load reads a dictionary definition table from `r`.
//
// Each non-empty line that does not start with '#' holds tab separated columns:
//
//	(GGGG,EEEE)  VR  Name  VM  Description  [RET]
func Load(r io.Reader) (*Dictionary, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("dictionary line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	return New(entries), nil
}

func parseLine(line string) (Entry, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 5 {
		return Entry{}, fmt.Errorf("want at least 5 columns, got %d", len(cols))
	}
	tag, err := ParseTag(cols[0])
	if err != nil {
		return Entry{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(cols[1]))
	if !vr.IsRecognised(code) {
		return Entry{}, fmt.Errorf("tag %s: unknown VR %q", tag, code)
	}
	name := strings.TrimSpace(cols[2])
	if name == "" {
		return Entry{}, fmt.Errorf("tag %s: empty name", tag)
	}
	e := Entry{
		Tag:         tag,
		VR:          code,
		Name:        name,
		VM:          strings.TrimSpace(cols[3]),
		Description: strings.TrimSpace(cols[4]),
	}
	if len(cols) > 5 && strings.TrimSpace(cols[5]) == "RET" {
		e.Retired = true
	}
	return e, nil
}

// ParseTag parses "(GGGG,EEEE)" or "GGGG,EEEE" into a Tag
func ParseTag(s string) (Tag, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed tag %q", s)
	}
	group, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("malformed tag group %q: %w", s, err)
	}
	element, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("malformed tag element %q: %w", s, err)
	}
	return NewTag(uint16(group), uint16(element)), nil
}

//go:generate go run ../util/gendict -o dicom.tsv part06.xml

//go:embed dicom.tsv
var defaultTable string

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// Default returns the process-wide dictionary built from the embedded table.
// It is built on first use and shared thereafter.
func Default() *Dictionary {
	defaultOnce.Do(func() {
		d, err := Load(strings.NewReader(defaultTable))
		if err != nil {
			// the embedded table is part of the build; failing here is a programming error
			panic(err)
		}
		defaultDict = d
	})
	return defaultDict
}
