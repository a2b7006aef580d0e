package main

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/b71729/dcmio"
	"github.com/b71729/dcmio/dictionary"
	"golang.org/x/image/draw"
)

// sampleAt decodes sample `i` of the little endian buffer `buf`
func sampleAt(buf []byte, i int, st dcmio.SampleType) float64 {
	switch st {
	case dcmio.Uint8:
		return float64(buf[i])
	case dcmio.Int8:
		return float64(int8(buf[i]))
	case dcmio.Uint16:
		return float64(binary.LittleEndian.Uint16(buf[i*2:]))
	case dcmio.Int16:
		return float64(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	case dcmio.Uint32:
		return float64(binary.LittleEndian.Uint32(buf[i*4:]))
	case dcmio.Int32:
		return float64(int32(binary.LittleEndian.Uint32(buf[i*4:])))
	case dcmio.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return 0
}

// window returns the value range mapped onto black..white: the document's first
// WindowCenter/WindowWidth when present, else the range of `values`.
func window(ds *dcmio.DataSet, values []float64) (lo, hi float64) {
	center, hasCenter := ds.Floats(dictionary.WindowCenter)
	width, hasWidth := ds.Floats(dictionary.WindowWidth)
	if hasCenter && hasWidth && width[0] > 0 {
		return center[0] - width[0]/2, center[0] + width[0]/2
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// renderFrame renders the first frame of a single sample image as 8 bit grey levels,
// after applying the rescale slope and intercept.
func renderFrame(doc *dcmio.Document) (*image.Gray, error) {
	info := doc.Image()
	if info.SamplesPerPixel != 1 {
		return nil, fmt.Errorf("preview of %d samples per pixel is not supported", info.SamplesPerPixel)
	}
	pixels, _, err := dcmio.ExtractPixels(doc)
	if err != nil {
		return nil, err
	}
	columns, rows := info.Dimensions[0], info.Dimensions[1]
	values := make([]float64, columns*rows)
	for i := range values {
		values[i] = sampleAt(pixels, i, info.SampleType)*info.RescaleSlope + info.RescaleIntercept
	}
	lo, hi := window(doc.DataSet, values)
	if hi <= lo {
		hi = lo + 1
	}
	img := image.NewGray(image.Rect(0, 0, columns, rows))
	for i, v := range values {
		l := (v - lo) / (hi - lo)
		l = math.Max(0, math.Min(1, l))
		img.Pix[i] = uint8(l*255 + 0.5)
	}
	return img, nil
}

// thumbnail scales `img` so that its longest edge is `size`. Smaller images are kept as is.
func thumbnail(img *image.Gray, size int) *image.Gray {
	b := img.Bounds()
	longest := b.Dx()
	if b.Dy() > longest {
		longest = b.Dy()
	}
	if size <= 0 || longest <= size {
		return img
	}
	w := int(math.Max(1, math.Round(float64(b.Dx()*size)/float64(longest))))
	h := int(math.Max(1, math.Round(float64(b.Dy()*size)/float64(longest))))
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
