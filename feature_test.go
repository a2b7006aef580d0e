package dcmio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
)

// featureContext holds the state of a single scenario
type featureContext struct {
	doc      *Document
	parsed   *Document
	pixels   []byte
	ramp     []byte
	err      error
	dropped  []string
	exported map[string]string
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func initializeScenario(sc *godog.ScenarioContext) {
	fc := &featureContext{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*fc = featureContext{}
		return ctx, nil
	})

	sc.Step(`^a (\d+) by (\d+) image of "([^"]*)" samples$`, fc.anImage)
	sc.Step(`^a rescale slope of (-?[\d.]+) and an intercept of (-?[\d.]+)$`, fc.aRescale)
	sc.Step(`^all zero pixel data$`, fc.allZeroPixelData)
	sc.Step(`^ramp pixel data$`, fc.rampPixelData)
	sc.Step(`^the document is written as "([^"]*)" and parsed back$`, fc.writtenAndParsed)
	sc.Step(`^extracting the pixels returns (\d+) bytes$`, fc.extractingReturns)
	sc.Step(`^the image dimensions are (\d+) by (\d+) by (\d+)$`, fc.dimensionsAre)
	sc.Step(`^the rescale slope is (-?[\d.]+) and the intercept is (-?[\d.]+)$`, fc.rescaleIs)
	sc.Step(`^the pixels equal the ramp$`, fc.pixelsEqualRamp)
	sc.Step(`^(\d+) pixel bytes are written$`, fc.pixelBytesWritten)
	sc.Step(`^the write fails with a size mismatch$`, fc.writeFailsWithSizeMismatch)
	sc.Step(`^the metadata value "([^"]*)" is "([^"]*)"$`, fc.absorb)
	sc.Step(`^the metadata value "([^"]*)" is changed to "([^"]*)"$`, fc.absorb)
	sc.Step(`^the exported metadata contains "([^"]*)" as "([^"]*)"$`, fc.exportedContains)
	sc.Step(`^"([^"]*)" is reported as dropped$`, fc.reportedAsDropped)
}

// current is the document the latest step produced
func (fc *featureContext) current() *Document {
	if fc.parsed != nil {
		return fc.parsed
	}
	return fc.doc
}

func (fc *featureContext) anImage(columns, rows int, sampleType string) error {
	types := map[string]SampleType{
		"uint8": Uint8, "int8": Int8, "uint16": Uint16, "int16": Int16,
		"uint32": Uint32, "int32": Int32, "float64": Float64,
	}
	st, found := types[sampleType]
	if !found {
		return fmt.Errorf("unknown sample type %q", sampleType)
	}
	doc, err := NewImageDocument(ImageInfo{
		Dimensions:      [3]int{columns, rows, 1},
		Spacing:         [3]float64{1, 1, 1},
		SampleType:      st,
		SamplesPerPixel: 1,
		RescaleSlope:    1,
	})
	fc.doc = doc
	return err
}

func (fc *featureContext) aRescale(slope, intercept float64) error {
	info := fc.doc.Image()
	info.RescaleSlope = slope
	info.RescaleIntercept = intercept
	return fc.doc.SetImage(info)
}

func (fc *featureContext) allZeroPixelData() error {
	buf := make([]byte, fc.doc.Image().Size())
	return WritePixels(fc.doc, buf, len(buf))
}

func (fc *featureContext) rampPixelData() error {
	fc.ramp = make([]byte, fc.doc.Image().Size())
	for i := range fc.ramp {
		fc.ramp[i] = byte(i)
	}
	return WritePixels(fc.doc, fc.ramp, len(fc.ramp))
}

func (fc *featureContext) writtenAndParsed(uid string) error {
	var buf bytes.Buffer
	if err := Write(&buf, fc.doc, WithTransferSyntax(uid)); err != nil {
		return err
	}
	parsed, err := ParseBytes(buf.Bytes(), ExplicitLittleEndian)
	if err != nil {
		return err
	}
	if parsed.TransferSyntaxUID != uid {
		return fmt.Errorf("parsed transfer syntax %s (!= %s)", parsed.TransferSyntaxUID, uid)
	}
	fc.parsed = parsed
	return nil
}

func (fc *featureContext) extractingReturns(expected int) error {
	pixels, n, err := ExtractPixels(fc.current())
	if err != nil {
		return err
	}
	if n != expected || len(pixels) != expected {
		return fmt.Errorf("got %d bytes (!= %d)", n, expected)
	}
	fc.pixels = pixels
	return nil
}

func (fc *featureContext) dimensionsAre(columns, rows, frames int) error {
	if got := fc.current().Image().Dimensions; got != [3]int{columns, rows, frames} {
		return fmt.Errorf("dimensions %v (!= %d, %d, %d)", got, columns, rows, frames)
	}
	return nil
}

func (fc *featureContext) rescaleIs(slope, intercept float64) error {
	info := fc.current().Image()
	if info.RescaleSlope != slope || info.RescaleIntercept != intercept {
		return fmt.Errorf("rescale %g/%g (!= %g/%g)", info.RescaleSlope, info.RescaleIntercept, slope, intercept)
	}
	return nil
}

func (fc *featureContext) pixelsEqualRamp() error {
	if !bytes.Equal(fc.pixels, fc.ramp) {
		return fmt.Errorf("pixels % X (!= % X)", fc.pixels, fc.ramp)
	}
	return nil
}

func (fc *featureContext) pixelBytesWritten(n int) error {
	fc.err = WritePixels(fc.doc, make([]byte, n), n)
	return nil
}

func (fc *featureContext) writeFailsWithSizeMismatch() error {
	if !errors.Is(fc.err, ErrSizeMismatch) {
		return fmt.Errorf("got error %v (!= %v)", fc.err, ErrSizeMismatch)
	}
	return nil
}

func (fc *featureContext) absorb(name, value string) error {
	dropped, err := Absorb(fc.current(), map[string]string{name: value})
	fc.dropped = dropped
	fc.exported = Export(fc.current())
	return err
}

func (fc *featureContext) exportedContains(name, value string) error {
	exported := Export(fc.current())
	if got, found := exported[name]; !found || got != value {
		return fmt.Errorf("%s = %q (!= %q)", name, got, value)
	}
	return nil
}

func (fc *featureContext) reportedAsDropped(name string) error {
	if len(fc.dropped) != 1 || fc.dropped[0] != name {
		return fmt.Errorf("dropped %v (!= [%s])", fc.dropped, name)
	}
	for _, d := range fc.current().Diagnostics {
		if d.Kind == DroppedName {
			return nil
		}
	}
	return errors.New("no DroppedName diagnostic")
}
