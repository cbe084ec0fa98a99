package gsobject

import (
	"math"
	"math/cmplx"

	"gsrender/pkg/bounds"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// Deconvolution is the inverse of a profile in Fourier space. It can only
// be drawn by FFT, normally as part of a Convolution.
type Deconvolution struct {
	orig     Object
	gsparams GSParams
}

// NewDeconvolution returns the deconvolution of obj. The deconvolution of
// a deconvolution is its original object, with the GSParams applied.
func NewDeconvolution(obj Object, opts ConvolveOptions) Object {
	g := obj.GSParams()
	if opts.GSParams != nil {
		g = *opts.GSParams
	}
	if d, ok := obj.(*Deconvolution); ok {
		inner := d.orig
		if !opts.KeepChildGSParams && inner.GSParams() != g {
			inner = inner.WithGSParams(g)
		}
		return inner
	}
	if !opts.KeepChildGSParams && obj.GSParams() != g {
		obj = obj.WithGSParams(g)
	}
	return &Deconvolution{orig: obj, gsparams: g}
}

// Deconvolve is NewDeconvolution with default options.
func Deconvolve(obj Object) Object {
	return NewDeconvolution(obj, ConvolveOptions{})
}

// Original returns the deconvolved object.
func (d *Deconvolution) Original() Object { return d.orig }

func (d *Deconvolution) GSParams() GSParams { return d.gsparams }
func (d *Deconvolution) Flux() float64 { return 1 / d.orig.Flux() }
func (d *Deconvolution) MaxK() float64 { return d.orig.MaxK() }
func (d *Deconvolution) StepK() float64 { return d.orig.StepK() }
func (d *Deconvolution) HasHardEdges() bool { return false }
func (d *Deconvolution) IsAxisymmetric() bool { return d.orig.IsAxisymmetric() }
func (d *Deconvolution) IsAnalyticX() bool { return false }
func (d *Deconvolution) IsAnalyticK() bool { return d.orig.IsAnalyticK() }
func (d *Deconvolution) PositiveFlux() float64 { return math.Max(d.Flux(), 0) }
func (d *Deconvolution) NegativeFlux() float64 { return math.Max(-d.Flux(), 0) }

func (d *Deconvolution) Centroid() bounds.PositionD { return d.orig.Centroid().Neg() }

func (d *Deconvolution) MaxSB() float64 {
	f := d.orig.Flux()
	return -d.orig.MaxSB() / (f * f)
}

// minAccKValue is the smallest child amplitude that is inverted; smaller
// amplitudes are clamped to it.
func (d *Deconvolution) minAccKValue() float64 {
	return math.Abs(d.orig.Flux()) * d.gsparams.KValueAccuracy
}

func (d *Deconvolution) invert(v complex128) complex128 {
	if m := d.minAccKValue(); cmplx.Abs(v) < m {
		return complex(1/m, 0)
	}
	return 1 / v
}

func (d *Deconvolution) KValue(k bounds.PositionD) (complex128, error) {
	v, err := d.orig.KValue(k)
	if err != nil {
		return 0, err
	}
	return d.invert(v), nil
}

// DrawKImage inverts the child's k image and zeroes it beyond the child's
// maxK.
func (d *Deconvolution) DrawKImage(img *raster.Image, jac wcs.Jacobian) error {
	if err := d.orig.DrawKImage(img, jac); err != nil {
		return err
	}
	dk, err := img.Scale()
	if err != nil {
		return err
	}
	maxk2 := d.orig.MaxK() * d.orig.MaxK()
	b := img.Bounds()
	for ky := b.YMin; ky <= b.YMax; ky++ {
		for kx := b.XMin; kx <= b.XMax; kx++ {
			k := jac.ApplyTranspose(bounds.PositionD{X: dk * float64(kx), Y: dk * float64(ky)})
			if k.X*k.X+k.Y*k.Y > maxk2 {
				img.SetRawComplex(kx, ky, 0)
				continue
			}
			img.SetRawComplex(kx, ky, d.invert(img.RawComplex(kx, ky)))
		}
	}
	return nil
}

func (d *Deconvolution) XValue(bounds.PositionD) (float64, error) {
	return 0, notImplemented("real-space evaluation", d)
}

func (d *Deconvolution) DrawReal(*raster.Image, wcs.Jacobian, bounds.PositionD, float64) error {
	return notImplemented("real-space drawing", d)
}

func (d *Deconvolution) Shoot(*photon.Array, random.Deviate) error {
	return notImplemented("photon shooting", d)
}

func (d *Deconvolution) WithGSParams(g GSParams) Object {
	return &Deconvolution{orig: d.orig.WithGSParams(g), gsparams: g}
}

func (d *Deconvolution) Equal(other Object) bool {
	o, ok := other.(*Deconvolution)
	return ok && (o == d || (o.gsparams == d.gsparams && o.orig.Equal(d.orig)))
}
