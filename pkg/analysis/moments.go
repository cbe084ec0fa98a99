// Package analysis measures rendered images: flux-weighted moments, and
// metrics comparing two renderings of the same scene.
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gsrender/pkg/gserrors"
	"gsrender/pkg/raster"
)

// Moments holds the unweighted moments of an image, in pixels, using the
// pixel values as weights.
type Moments struct {
	// Flux is the sum of the pixel values.
	Flux float64

	// CentroidX and CentroidY are the flux-weighted mean position.
	CentroidX float64
	CentroidY float64

	// Mxx, Myy and Mxy are the central second moments.
	Mxx float64
	Myy float64
	Mxy float64
}

// Size is sqrt((Mxx+Myy)/2), the sigma of a Gaussian with these moments.
func (m Moments) Size() float64 { return math.Sqrt((m.Mxx + m.Myy) / 2) }

// Ellipticity returns the distortion (e1, e2) of the second moments.
func (m Moments) Ellipticity() (e1, e2 float64) {
	t := m.Mxx + m.Myy
	if t == 0 {
		return 0, 0
	}
	return (m.Mxx - m.Myy) / t, 2 * m.Mxy / t
}

// MeasureMoments computes the moments of a real image.
func MeasureMoments(im *raster.Image) (Moments, error) {
	if !im.Bounds().IsDefined() {
		return Moments{}, fmt.Errorf("%w: cannot measure an image with undefined bounds", gserrors.ErrUndefinedBounds)
	}
	if im.IsComplex() {
		return Moments{}, fmt.Errorf("%w: moments need a real image", gserrors.ErrValue)
	}
	w := im.Array()
	flux := floats.Sum(w)
	if flux == 0 {
		return Moments{}, fmt.Errorf("%w: image has zero flux", gserrors.ErrValue)
	}
	xs, ys := im.PixelCenters()

	mx, vx := stat.PopMeanVariance(xs, w)
	my, vy := stat.PopMeanVariance(ys, w)
	var cxy float64
	for i := range w {
		cxy += w[i] * (xs[i] - mx) * (ys[i] - my)
	}
	return Moments{
		Flux:      flux,
		CentroidX: mx,
		CentroidY: my,
		Mxx:       vx,
		Myy:       vy,
		Mxy:       cxy / flux,
	}, nil
}
