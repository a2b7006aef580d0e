// Command gendict generates the embedded dictionary table from the DocBook XML
// of DICOM PS3.6 (part06.xml, published at dicom.nema.org).
//
//	go run ./util/gendict -o dictionary/dicom.tsv part06.xml
package main

import (
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/b71729/dcmio/dictionary"
)

func check(e error) {
	if e != nil {
		log.Fatal(e)
	}
}

// dictionaryTables are the xml:id of the PS3.6 tables holding data elements,
// file meta elements and directory structuring elements respectively.
var dictionaryTables = map[string]bool{
	"table_6-1": true,
	"table_7-1": true,
	"table_8-1": true,
}

// delimiters have no VR in PS3.6; they are carried as UN.
var delimiters = []dictionary.Entry{
	{Tag: dictionary.Item, VR: "UN", Name: "Item", VM: "1", Description: "Item"},
	{Tag: dictionary.ItemDelimitationItem, VR: "UN", Name: "ItemDelimitationItem", VM: "0", Description: "Item Delimitation Item"},
	{Tag: dictionary.SequenceDelimitationItem, VR: "UN", Name: "SequenceDelimitationItem", VM: "0", Description: "Sequence Delimitation Item"},
}

const header = `# DICOM data dictionary: the data elements and file meta elements of PS3.6, without private tags.
# Columns are tab separated: tag, VR, keyword, VM, description and an optional RET marker.
# Lines starting with '#' are ignored. Regenerate with ` + "`go generate ./dictionary`" + `.
`

// clean removes the zero width spaces PS3.6 uses as soft hyphens, and collapses whitespace
func clean(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u200b", "")), " ")
}

// pickVR chooses a single VR for entries listing alternatives, e.g. "US or SS".
// US is preferred over SS and OW (image pixel module defaults), OW over OB.
func pickVR(s string) string {
	alternatives := strings.Split(s, " or ")
	for _, preferred := range []string{"US", "OW"} {
		for _, alt := range alternatives {
			if strings.TrimSpace(alt) == preferred {
				return preferred
			}
		}
	}
	return strings.TrimSpace(alternatives[0])
}

// rowEntry converts the cells of one table row into an entry.
// Rows without a keyword or VR (e.g. "See Note") are skipped.
func rowEntry(cells []string) (dictionary.Entry, bool, error) {
	if len(cells) < 5 {
		return dictionary.Entry{}, false, nil
	}
	keyword := strings.ReplaceAll(cells[2], " ", "")
	vrCode := pickVR(cells[3])
	if keyword == "" || len(vrCode) != 2 {
		return dictionary.Entry{}, false, nil
	}
	// repeating groups and elements, e.g. (60xx,0010), are listed at their first instance
	tag, err := dictionary.ParseTag(strings.NewReplacer("x", "0", "X", "0").Replace(cells[0]))
	if err != nil {
		return dictionary.Entry{}, false, err
	}
	if tag.IsPrivate() {
		return dictionary.Entry{}, false, nil
	}
	e := dictionary.Entry{
		Tag:         tag,
		VR:          vrCode,
		Name:        keyword,
		VM:          cells[4],
		Description: cells[1],
	}
	if len(cells) > 5 && strings.HasPrefix(cells[5], "RET") {
		e.Retired = true
	}
	return e, true, nil
}

// ParseDataElements walks the PS3.6 document and returns the entries of every dictionary table,
// sorted by tag. Keywords are unique: the first row using a keyword wins.
func ParseDataElements(r io.Reader) ([]dictionary.Entry, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	var (
		entries  []dictionary.Entry
		inTable  bool
		inCell   bool
		cells    []string
		cellText strings.Builder
		keywords = make(map[string]bool)
		tags     = make(map[dictionary.Tag]bool)
	)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "table":
				inTable = false
				for _, attr := range element.Attr {
					if attr.Name.Local == "id" && dictionaryTables[attr.Value] {
						inTable = true
					}
				}
			case "tr":
				cells = cells[:0]
			case "td":
				inCell = true
				cellText.Reset()
			}
		case xml.CharData:
			if inTable && inCell {
				cellText.Write(element)
				cellText.WriteByte(' ')
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "table":
				inTable = false
			case "td":
				inCell = false
				cells = append(cells, clean(cellText.String()))
			case "tr":
				if !inTable {
					continue
				}
				e, ok, err := rowEntry(cells)
				if err != nil {
					return nil, err
				}
				if !ok || keywords[e.Name] || tags[e.Tag] {
					continue
				}
				keywords[e.Name] = true
				tags[e.Tag] = true
				entries = append(entries, e)
			}
		}
	}
	for _, e := range delimiters {
		if !tags[e.Tag] {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag })
	return entries, nil
}

// WriteTable writes `entries` in the format read by dictionary.Load
func WriteTable(w io.Writer, entries []dictionary.Entry) error {
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", e.Tag, e.VR, e.Name, e.VM, e.Description)
		if e.Retired {
			line += "\tRET"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	out := flag.String("o", "dicom.tsv", "output table")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gendict [-o dicom.tsv] part06.xml")
		os.Exit(2)
	}
	f, err := os.Open(flag.Arg(0))
	check(err)
	defer f.Close()

	entries, err := ParseDataElements(f)
	check(err)
	log.Printf("found %d entries", len(entries))

	outF, err := os.Create(*out)
	check(err)
	check(WriteTable(outF, entries))
	check(outF.Close())
}
