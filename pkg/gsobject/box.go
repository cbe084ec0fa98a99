package gsobject

import (
	"fmt"
	"math"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// Box is a uniform rectangle of the given width and height.
type Box struct {
	width    float64
	height   float64
	flux     float64
	gsparams GSParams
}

// NewBox returns a Box with the given dimensions and flux.
func NewBox(width, height, flux float64) (*Box, error) {
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: box dimensions must be positive, got %gx%g", gserrors.ErrValue, width, height)
	}
	return &Box{width: width, height: height, flux: flux, gsparams: DefaultGSParams()}, nil
}

func (b *Box) Width() float64 { return b.width }
func (b *Box) Height() float64 { return b.height }

func (b *Box) Flux() float64 { return b.flux }
func (b *Box) GSParams() GSParams { return b.gsparams }

func (b *Box) MaxK() float64 {
	return 2 / (b.gsparams.MaxKThreshold * math.Min(b.width, b.height))
}

func (b *Box) StepK() float64 { return math.Pi / math.Max(b.width, b.height) }

func (b *Box) HasHardEdges() bool { return true }
func (b *Box) IsAxisymmetric() bool { return false }
func (b *Box) IsAnalyticX() bool { return true }
func (b *Box) IsAnalyticK() bool { return true }
func (b *Box) Centroid() bounds.PositionD { return bounds.PositionD{} }
func (b *Box) PositiveFlux() float64 { return math.Max(b.flux, 0) }
func (b *Box) NegativeFlux() float64 { return math.Max(-b.flux, 0) }
func (b *Box) MaxSB() float64 { return math.Abs(b.flux) / (b.width * b.height) }

func (b *Box) xValue(p bounds.PositionD) float64 {
	if 2*math.Abs(p.X) < b.width && 2*math.Abs(p.Y) < b.height {
		return b.flux / (b.width * b.height)
	}
	return 0
}

// sinc is sin(pi u)/(pi u).
func sinc(u float64) float64 {
	if math.Abs(u) < 1e-4 {
		pu := math.Pi * u
		return 1 - pu*pu/6
	}
	return math.Sin(math.Pi*u) / (math.Pi * u)
}

func (b *Box) kValue(k bounds.PositionD) complex128 {
	return complex(b.flux*sinc(k.X*b.width/(2*math.Pi))*sinc(k.Y*b.height/(2*math.Pi)), 0)
}

func (b *Box) XValue(p bounds.PositionD) (float64, error) { return b.xValue(p), nil }
func (b *Box) KValue(k bounds.PositionD) (complex128, error) { return b.kValue(k), nil }

func (b *Box) DrawReal(img *raster.Image, jac wcs.Jacobian, offset bounds.PositionD, fluxScale float64) error {
	return drawRealFunc(img, jac, offset, fluxScale, b.xValue)
}

func (b *Box) DrawKImage(img *raster.Image, jac wcs.Jacobian) error {
	return drawKFunc(img, jac, b.kValue)
}

// Shoot places photons uniformly over the rectangle.
func (b *Box) Shoot(photons *photon.Array, rng random.Deviate) error {
	n := photons.Capacity()
	if err := photons.SetSize(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	u := random.Uniform(rng)
	fluxPer := b.flux / float64(n)
	for i := range n {
		photons.X[i] = (u.Float64() - 0.5) * b.width
		photons.Y[i] = (u.Float64() - 0.5) * b.height
		photons.Flux[i] = fluxPer
	}
	return nil
}

func (b *Box) WithGSParams(gs GSParams) Object {
	out := *b
	out.gsparams = gs
	return &out
}

func (b *Box) Equal(other Object) bool {
	o, ok := other.(*Box)
	return ok && (o == b || *o == *b)
}

// Pixel is a square Box of side Scale, the response of one pixel.
type Pixel struct {
	Box
}

// NewPixel returns a unit-flux pixel of the given scale.
func NewPixel(scale float64) (*Pixel, error) {
	b, err := NewBox(scale, scale, 1)
	if err != nil {
		return nil, err
	}
	return &Pixel{*b}, nil
}

// Scale is the side length.
func (p *Pixel) Scale() float64 { return p.width }

func (p *Pixel) WithGSParams(gs GSParams) Object {
	out := *p
	out.gsparams = gs
	return &out
}

func (p *Pixel) Equal(other Object) bool {
	o, ok := other.(*Pixel)
	return ok && (o == p || o.Box == p.Box)
}
