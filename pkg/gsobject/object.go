// Package gsobject defines surface-brightness profiles, the algebra that
// combines them, and the renderers that draw them into images by direct
// evaluation, by FFT, or by shooting photons.
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

// Object is a surface-brightness profile. Objects are immutable: every
// transformation returns a new Object.
//
// Positions are in world units (arcsec, say) and k in inverse world units.
// Profiles that cannot be evaluated in one domain return an error wrapping
// gserrors.ErrNotImplemented from the corresponding method.
type Object interface {
	Flux() float64
	GSParams() GSParams

	// MaxK is the k beyond which the Fourier amplitude is negligible.
	MaxK() float64
	// StepK is the k sampling needed to avoid folding.
	StepK() float64

	HasHardEdges() bool
	IsAxisymmetric() bool
	IsAnalyticX() bool
	IsAnalyticK() bool

	Centroid() bounds.PositionD
	PositiveFlux() float64
	NegativeFlux() float64
	// MaxSB is an estimate of the largest surface brightness.
	MaxSB() float64

	XValue(pos bounds.PositionD) (float64, error)
	KValue(kpos bounds.PositionD) (complex128, error)

	// DrawReal sets every pixel p of img to
	// fluxScale * XValue(jac * (p - offset)).
	DrawReal(img *raster.Image, jac wcs.Jacobian, offset bounds.PositionD, fluxScale float64) error
	// DrawKImage sets every pixel p of the k image img, whose pixel scale
	// is dk, to KValue(jac^T * dk*p).
	DrawKImage(img *raster.Image, jac wcs.Jacobian) error
	// Shoot fills all Capacity() slots of photons and sets the size to the
	// capacity. Every photon carries (PositiveFlux()+NegativeFlux())/N
	// with a sign, so the total is Flux() exactly when all photons share
	// a sign and Flux() on average otherwise.
	Shoot(photons *photon.Array, rng random.Deviate) error

	WithGSParams(g GSParams) Object
	Equal(other Object) bool
}

// NyquistScale is the pixel scale that samples obj at its band limit.
func NyquistScale(obj Object) float64 { return math.Pi / obj.MaxK() }

// FluxPerPhoton is the fraction of the flux carried by each photon when
// positive and negative photons are shot with equal magnitude: 1 - 2*eta
// with eta the negative fraction of the absolute flux.
func FluxPerPhoton(obj Object) float64 {
	pos, neg := obj.PositiveFlux(), obj.NegativeFlux()
	if pos+neg == 0 {
		return 1
	}
	return 1 - 2*neg/(pos+neg)
}

// GoodImageSize is the even image size at the given pixel scale that
// contains the profile without folding.
func GoodImageSize(obj Object, scale float64) int {
	nd := 2 * math.Pi / (scale * obj.StepK())
	n := int(math.Ceil(nd * (1 - 1e-12)))
	n += n % 2
	return max(n, 2)
}

func notImplemented(what string, obj any) error {
	return fmt.Errorf("%w: %s is not implemented for %T", gserrors.ErrNotImplemented, what, obj)
}

func checkDrawable(img *raster.Image) error {
	if img.IsConst() {
		return fmt.Errorf("%w: cannot draw into a const image", gserrors.ErrImmutable)
	}
	if !img.Bounds().IsDefined() {
		return fmt.Errorf("%w: cannot draw into an image with undefined bounds", gserrors.ErrUndefinedBounds)
	}
	return nil
}

// drawRealFunc implements DrawReal for profiles with a closed-form xValue.
func drawRealFunc(img *raster.Image, jac wcs.Jacobian, offset bounds.PositionD, fluxScale float64,
	xValue func(bounds.PositionD) float64) error {
	if err := checkDrawable(img); err != nil {
		return err
	}
	b := img.Bounds()
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			p := bounds.PositionD{X: float64(x) - offset.X, Y: float64(y) - offset.Y}
			img.SetRawValue(x, y, fluxScale*xValue(jac.Apply(p)))
		}
	}
	return nil
}

// drawKFunc implements DrawKImage for profiles with a closed-form kValue.
func drawKFunc(img *raster.Image, jac wcs.Jacobian, kValue func(bounds.PositionD) complex128) error {
	if err := checkDrawable(img); err != nil {
		return err
	}
	dk, err := img.Scale()
	if err != nil {
		return fmt.Errorf("drawKImage requires a pixel scale: %w", err)
	}
	b := img.Bounds()
	for ky := b.YMin; ky <= b.YMax; ky++ {
		for kx := b.XMin; kx <= b.XMax; kx++ {
			k := bounds.PositionD{X: dk * float64(kx), Y: dk * float64(ky)}
			img.SetRawComplex(kx, ky, kValue(jac.ApplyTranspose(k)))
		}
	}
	return nil
}
