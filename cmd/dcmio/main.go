package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/b71729/dcmio"
	"github.com/b71729/dcmio/dictionary"
	"github.com/charmbracelet/lipgloss"
)

var baseFile = filepath.Base(os.Args[0])

func check(err error) {
	if err != nil {
		dcmio.Errorf("error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf("dcmio version %s\n", dcmio.Version)
	fmt.Printf("usage: %s [%s] [flags] args\n", baseFile, strings.Join([]string{"dump", "extract", "preview", "scan", "set", "strip"}, " / "))
	os.Exit(1)
}

func main() {
	dcmio.GetConfig()
	if len(os.Args) < 2 || os.Args[1] == "--help" || os.Args[1] == "-h" {
		usage()
	}
	switch os.Args[1] {
	case "dump":
		startDump(os.Args[2:])
	case "extract":
		startExtract(os.Args[2:])
	case "preview":
		startPreview(os.Args[2:])
	case "scan":
		startScan(os.Args[2:])
	case "set":
		startSet(os.Args[2:])
	case "strip":
		startStrip(os.Args[2:])
	default:
		usage()
	}
}

/*
===============================================================================
    Flags
===============================================================================
*/

// hintFlags registers the encoding hint flags shared by every mode
type hintFlags struct {
	implicit  *bool
	bigEndian *bool
}

func newFlagSet(mode, args string) (*flag.FlagSet, hintFlags) {
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s %s [flags] %s\n", baseFile, mode, args)
		fs.PrintDefaults()
	}
	hints := hintFlags{
		implicit:  fs.Bool("implicit", false, "data set is implicit VR little endian"),
		bigEndian: fs.Bool("bigendian", false, "data set is explicit VR big endian"),
	}
	return fs, hints
}

// encodingFor returns the hinted encoding for `path`. Without a hint, files carrying a
// file meta need none, and bare data sets are sniffed from their first bytes.
func (h hintFlags) encodingFor(path string) (dcmio.Encoding, error) {
	switch {
	case *h.implicit:
		return dcmio.ImplicitLittleEndian, nil
	case *h.bigEndian:
		return dcmio.ExplicitBigEndian, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return dcmio.Encoding{}, err
	}
	defer f.Close()
	head := make([]byte, 132)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return dcmio.Encoding{}, err
	}
	head = head[:n]
	if n == 132 && bytes.Equal(head[128:], []byte("DICM")) {
		return dcmio.ExplicitLittleEndian, nil
	}
	enc := dcmio.GuessEncoding(head)
	dcmio.Debugf("guessed %s for %q", enc, path)
	return enc, nil
}

func (h hintFlags) parse(path string) *dcmio.Document {
	enc, err := h.encodingFor(path)
	check(err)
	doc, err := dcmio.ParseFile(path, enc)
	check(err)
	return doc
}

/*
===============================================================================
    Mode: Dump
===============================================================================
*/

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// styleLine renders one line of an element description, dimming everything before the value
func styleLine(line string) string {
	i := strings.Index(line, ": ")
	if i < 0 {
		return headerStyle.Render(line)
	}
	return headerStyle.Render(line[:i+1]) + line[i+1:]
}

func dump(w io.Writer, path string, doc *dcmio.Document) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s, %s)", path, doc.TransferSyntaxUID, doc.Encoding)))
	for _, ds := range []*dcmio.DataSet{doc.Meta, doc.DataSet} {
		for _, e := range ds.Elements() {
			for _, line := range e.Describe(doc.Dictionary, 0) {
				fmt.Fprintln(w, styleLine(line))
			}
		}
	}
	for _, d := range doc.Diagnostics {
		fmt.Fprintln(w, warnStyle.Render(d.String()))
	}
}

func startDump(args []string) {
	fs, hints := newFlagSet("dump", "file")
	check(fs.Parse(args))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	path := fs.Arg(0)
	dump(os.Stdout, path, hints.parse(path))
}

/*
===============================================================================
    Mode: Extract
===============================================================================
*/

func startExtract(args []string) {
	fs, hints := newFlagSet("extract", "file out")
	check(fs.Parse(args))
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}
	doc := hints.parse(fs.Arg(0))
	pixels, n, err := dcmio.ExtractPixels(doc)
	check(err)
	check(os.WriteFile(fs.Arg(1), pixels, 0o644))
	info := doc.Image()
	dcmio.Infof("wrote %d bytes to %q: %dx%dx%d %s, %d sample(s) per pixel", n, fs.Arg(1),
		info.Dimensions[0], info.Dimensions[1], info.Dimensions[2], info.SampleType, info.SamplesPerPixel)
}

/*
===============================================================================
    Mode: Preview
===============================================================================
*/

func startPreview(args []string) {
	fs, hints := newFlagSet("preview", "file out.png")
	size := fs.Int("size", 256, "longest edge of the thumbnail, in pixels")
	check(fs.Parse(args))
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}
	doc := hints.parse(fs.Arg(0))
	img, err := renderFrame(doc)
	check(err)
	out, err := os.Create(fs.Arg(1))
	check(err)
	defer out.Close()
	check(writePNG(out, thumbnail(img, *size)))
	dcmio.Infof("wrote preview to %q", fs.Arg(1))
}

/*
===============================================================================
    Mode: Scan
===============================================================================
*/

func isDicomFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dcm")
}

func scan(w io.Writer, results []dcmio.ScanResult) (successCount, errorCount int) {
	for _, result := range results {
		if result.Err != nil {
			dcmio.Errorf(`error parsing "%s": %v`, result.Path, result.Err)
			errorCount++
			continue
		}
		successCount++
		info := result.Document.Image()
		fmt.Fprintf(w, "%s\t%dx%dx%d\t%s\t%d diagnostics\n", result.Path,
			info.Dimensions[0], info.Dimensions[1], info.Dimensions[2], info.SampleType, len(result.Document.Diagnostics))
	}
	return successCount, errorCount
}

func startScan(args []string) {
	fs, hints := newFlagSet("scan", "dir")
	check(fs.Parse(args))
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	enc := dcmio.ExplicitLittleEndian
	switch {
	case *hints.implicit:
		enc = dcmio.ImplicitLittleEndian
	case *hints.bigEndian:
		enc = dcmio.ExplicitBigEndian
	}
	results, err := dcmio.ScanDir(fs.Arg(0), isDicomFile, enc)
	check(err)
	successCount, errorCount := scan(os.Stdout, results)
	if errorCount == 0 {
		dcmio.Infof("parsed %d files without errors", successCount)
	} else {
		dcmio.Infof("parsed %d files without errors, and failed to parse %d files", successCount, errorCount)
	}
}

/*
===============================================================================
    Mode: Set
===============================================================================
*/

// assignments parses `Name=value` arguments into a metadata map
func assignments(args []string) (map[string]string, error) {
	m := make(map[string]string, len(args))
	for _, arg := range args {
		i := strings.IndexByte(arg, '=')
		if i <= 0 {
			return nil, fmt.Errorf("%q is not of the form Name=value", arg)
		}
		m[arg[:i]] = arg[i+1:]
	}
	return m, nil
}

func startSet(args []string) {
	fs, hints := newFlagSet("set", "file out Name=value...")
	check(fs.Parse(args))
	if fs.NArg() < 3 {
		fs.Usage()
		os.Exit(1)
	}
	m, err := assignments(fs.Args()[2:])
	check(err)
	doc := hints.parse(fs.Arg(0))
	dropped, err := dcmio.Absorb(doc, m)
	check(err)
	for _, name := range dropped {
		dcmio.Warnf("%s is not a known attribute name, ignored", name)
	}
	check(dcmio.WriteFile(fs.Arg(1), doc))
	dcmio.Infof("wrote %q with %d value(s) applied", fs.Arg(1), len(m)-len(dropped))
}

/*
===============================================================================
    Mode: Strip
===============================================================================
*/

// stripTags removes every element named by `labels` from the data set of `doc`,
// returning the number removed. Labels are dictionary names or "GGGG,EEEE".
func stripTags(doc *dcmio.Document, labels []string) (int, error) {
	removed := 0
	for _, label := range labels {
		tag, err := dictionary.ParseTag(label)
		if err != nil {
			entry, found := doc.Dictionary.LookupByName(label)
			if !found {
				return removed, fmt.Errorf("%q is neither a tag nor a known attribute name", label)
			}
			tag = entry.Tag
		}
		if tag.IsFileMeta() {
			return removed, fmt.Errorf("%s belongs to the file meta and cannot be stripped", tag)
		}
		if doc.DataSet.Delete(tag) {
			removed++
		} else {
			dcmio.Debugf("%s not present, nothing to strip", tag)
		}
	}
	return removed, nil
}

func startStrip(args []string) {
	fs, hints := newFlagSet("strip", "file out tag...")
	check(fs.Parse(args))
	if fs.NArg() < 3 {
		fs.Usage()
		os.Exit(1)
	}
	doc := hints.parse(fs.Arg(0))
	removed, err := stripTags(doc, fs.Args()[2:])
	check(err)
	check(dcmio.WriteFile(fs.Arg(1), doc))
	dcmio.Infof("stripped %d element(s), wrote %q", removed, fs.Arg(1))
}
