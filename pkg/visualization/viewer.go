// Package visualization turns rendered images into viewable files: 16-bit
// TIFF for lossless inspection and false-colour PNG previews.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"gsrender/pkg/gserrors"
	"gsrender/pkg/raster"
)

// Stretch maps pixel values to [0,1] for display.
type Stretch int

const (
	// Linear maps [min, max] onto [0,1].
	Linear Stretch = iota
	// Asinh compresses bright pixels, keeping faint structure visible.
	Asinh
)

// Viewer renders a real image for display.
type Viewer struct {
	// image is the rendered image, in row-major order from its bounds
	image *raster.Image

	// stretch selects the display mapping
	stretch Stretch

	// softening is the asinh scale as a fraction of the peak value
	softening float64

	// palette is sampled along the stretched value for false colour
	palette []colorful.Color
}

// NewViewer creates a viewer for a real image.
func NewViewer(im *raster.Image, stretch Stretch) (*Viewer, error) {
	if !im.Bounds().IsDefined() {
		return nil, fmt.Errorf("%w: cannot view an image with undefined bounds", gserrors.ErrUndefinedBounds)
	}
	if im.IsComplex() {
		return nil, fmt.Errorf("%w: cannot view a complex image, take Real() or Imag() first", gserrors.ErrValue)
	}
	return &Viewer{
		image:     im,
		stretch:   stretch,
		softening: 0.02,
		palette:   defaultPalette(),
	}, nil
}

// defaultPalette parses the fixed false color ramp. It panics only if the
// hex table is malformed.
func defaultPalette() []colorful.Color {
	hexes := []string{"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}
	p := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		p[i] = c
	}
	return p
}

// SetSoftening sets the asinh softening as a fraction of the peak.
func (v *Viewer) SetSoftening(s float64) error {
	if !(s > 0) {
		return fmt.Errorf("%w: softening must be positive, got %g", gserrors.ErrValue, s)
	}
	v.softening = s
	return nil
}

// Normalized returns the stretched pixel values in [0,1], row-major with
// the first row at YMin.
func (v *Viewer) Normalized() []float64 {
	data := v.image.Array()
	lo, hi := floats.Min(data), floats.Max(data)
	out := make([]float64, len(data))
	if hi == lo {
		return out
	}
	switch v.stretch {
	case Asinh:
		soft := v.softening * (hi - lo)
		top := math.Asinh((hi - lo) / soft)
		for i, x := range data {
			out[i] = math.Asinh((x-lo)/soft) / top
		}
	default:
		for i, x := range data {
			out[i] = (x - lo) / (hi - lo)
		}
	}
	return out
}

// Gray16 converts the image to 16-bit grayscale. Image rows are flipped so
// that YMax is at the top, the usual astronomical orientation.
func (v *Viewer) Gray16() *image.Gray16 {
	rows, cols := v.image.Bounds().NumpyShape()
	vals := v.Normalized()
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			value := uint16(math.Max(0, math.Min(65535, vals[r*cols+c]*65535)))
			img.SetGray16(c, rows-1-r, color.Gray16{Y: value})
		}
	}
	return img
}

// FalseColor maps the stretched values through the palette, blending in
// HCL space between palette stops.
func (v *Viewer) FalseColor() *image.RGBA {
	rows, cols := v.image.Bounds().NumpyShape()
	vals := v.Normalized()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.Set(c, rows-1-r, v.colorAt(vals[r*cols+c]))
		}
	}
	return img
}

func (v *Viewer) colorAt(t float64) color.Color {
	n := len(v.palette) - 1
	pos := math.Max(0, math.Min(1, t)) * float64(n)
	i := min(int(pos), n-1)
	return v.palette[i].BlendHcl(v.palette[i+1], pos-float64(i)).Clamped()
}

// SaveTIFF writes the 16-bit grayscale rendering, deflate compressed.
func (v *Viewer) SaveTIFF(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := tiff.Encode(file, v.Gray16(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("failed to encode tiff: %w", err)
	}
	return nil
}

// SavePNG writes the false-colour preview.
func (v *Viewer) SavePNG(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := png.Encode(file, v.FalseColor()); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SaveSequence writes a TIFF and a PNG preview for each named image into
// outputDir, as <name>.tif and <name>.png.
func SaveSequence(images map[string]*raster.Image, stretch Stretch, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, err := NewViewer(images[name], stretch)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := v.SaveTIFF(filepath.Join(outputDir, name+".tif")); err != nil {
			return err
		}
		if err := v.SavePNG(filepath.Join(outputDir, name+".png")); err != nil {
			return err
		}
	}
	return nil
}
