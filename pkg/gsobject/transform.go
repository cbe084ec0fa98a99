package gsobject

import (
	"fmt"
	"math"
	"math/cmplx"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// Transformation is an affine transform of another object:
//
//	T(x) = fluxRatio / |det J| * orig(J^-1 (x - offset))
//
// so its flux is fluxRatio times the original flux.
type Transformation struct {
	orig      Object
	jac       wcs.Jacobian
	invJac    wcs.Jacobian
	det       float64
	offset    bounds.PositionD
	fluxRatio float64
	gsparams  GSParams
}

// NewTransformation wraps obj. A transformation of a transformation is
// folded into a single node. A singular jac is an ErrValue.
func NewTransformation(obj Object, jac wcs.Jacobian, offset bounds.PositionD, fluxRatio float64) (*Transformation, error) {
	if t, ok := obj.(*Transformation); ok {
		offset = jac.Apply(t.offset).Add(offset)
		jac = jac.Mul(t.jac)
		fluxRatio *= t.fluxRatio
		obj = t.orig
	}
	inv, err := jac.Inverse()
	if err != nil {
		return nil, fmt.Errorf("invalid transformation: %w", err)
	}
	return &Transformation{
		orig:      obj,
		jac:       jac,
		invJac:    inv,
		det:       jac.Det(),
		offset:    offset,
		fluxRatio: fluxRatio,
		gsparams:  obj.GSParams(),
	}, nil
}

// mustTransform is NewTransformation for identity and rotation jacobians,
// which stay invertible under composition. It panics on a singular jac,
// which is a bug in the caller.
func mustTransform(obj Object, jac wcs.Jacobian, offset bounds.PositionD, fluxRatio float64) *Transformation {
	t, err := NewTransformation(obj, jac, offset, fluxRatio)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Transformation) Original() Object { return t.orig }
func (t *Transformation) Jacobian() wcs.Jacobian { return t.jac }
func (t *Transformation) Offset() bounds.PositionD { return t.offset }
func (t *Transformation) FluxRatio() float64 { return t.fluxRatio }
func (t *Transformation) Flux() float64 { return t.fluxRatio * t.orig.Flux() }
func (t *Transformation) GSParams() GSParams { return t.gsparams }
func (t *Transformation) HasHardEdges() bool { return t.orig.HasHardEdges() }
func (t *Transformation) IsAnalyticX() bool { return t.orig.IsAnalyticX() }
func (t *Transformation) IsAnalyticK() bool { return t.orig.IsAnalyticK() }

func (t *Transformation) MaxK() float64 {
	_, minor := t.jac.MajorMinor()
	return t.orig.MaxK() / minor
}

func (t *Transformation) StepK() float64 {
	major, _ := t.jac.MajorMinor()
	stepk := t.orig.StepK() / major
	shift := math.Hypot(t.offset.X, t.offset.Y)
	return math.Pi / (math.Pi/stepk + shift)
}

func (t *Transformation) IsAxisymmetric() bool {
	major, minor := t.jac.MajorMinor()
	return t.orig.IsAxisymmetric() && major == minor && t.offset == (bounds.PositionD{})
}

func (t *Transformation) Centroid() bounds.PositionD {
	return t.jac.Apply(t.orig.Centroid()).Add(t.offset)
}

func (t *Transformation) PositiveFlux() float64 {
	if t.fluxRatio < 0 {
		return -t.fluxRatio * t.orig.NegativeFlux()
	}
	return t.fluxRatio * t.orig.PositiveFlux()
}

func (t *Transformation) NegativeFlux() float64 {
	if t.fluxRatio < 0 {
		return -t.fluxRatio * t.orig.PositiveFlux()
	}
	return t.fluxRatio * t.orig.NegativeFlux()
}

func (t *Transformation) MaxSB() float64 {
	return math.Abs(t.fluxRatio/t.det) * t.orig.MaxSB()
}

func (t *Transformation) XValue(p bounds.PositionD) (float64, error) {
	v, err := t.orig.XValue(t.invJac.Apply(p.Sub(t.offset)))
	if err != nil {
		return 0, err
	}
	return t.fluxRatio / math.Abs(t.det) * v, nil
}

func (t *Transformation) phase(k bounds.PositionD) complex128 {
	if t.offset == (bounds.PositionD{}) {
		return 1
	}
	return cmplx.Exp(complex(0, -(k.X*t.offset.X + k.Y*t.offset.Y)))
}

func (t *Transformation) KValue(k bounds.PositionD) (complex128, error) {
	v, err := t.orig.KValue(t.jac.ApplyTranspose(k))
	if err != nil {
		return 0, err
	}
	return complex(t.fluxRatio, 0) * v * t.phase(k), nil
}

// DrawReal folds the transformation into the jacobian and offset passed to
// the original object.
func (t *Transformation) DrawReal(img *raster.Image, jac wcs.Jacobian, offset bounds.PositionD, fluxScale float64) error {
	jacInv, err := jac.Inverse()
	if err != nil {
		return err
	}
	return t.orig.DrawReal(img,
		t.invJac.Mul(jac),
		offset.Add(jacInv.Apply(t.offset)),
		fluxScale*t.fluxRatio/math.Abs(t.det))
}

// DrawKImage draws the original through jac*J and applies the flux ratio
// and the phase of the offset.
func (t *Transformation) DrawKImage(img *raster.Image, jac wcs.Jacobian) error {
	if err := t.orig.DrawKImage(img, jac.Mul(t.jac)); err != nil {
		return err
	}
	shift := jac.Apply(t.offset)
	if t.fluxRatio == 1 && shift == (bounds.PositionD{}) {
		return nil
	}
	dk, err := img.Scale()
	if err != nil {
		return err
	}
	b := img.Bounds()
	for ky := b.YMin; ky <= b.YMax; ky++ {
		for kx := b.XMin; kx <= b.XMax; kx++ {
			arg := -dk * (float64(kx)*shift.X + float64(ky)*shift.Y)
			f := complex(t.fluxRatio, 0) * cmplx.Exp(complex(0, arg))
			img.SetRawComplex(kx, ky, img.RawComplex(kx, ky)*f)
		}
	}
	return nil
}

func (t *Transformation) Shoot(photons *photon.Array, rng random.Deviate) error {
	if err := t.orig.Shoot(photons, rng); err != nil {
		return err
	}
	j := t.jac
	for i := range photons.Size() {
		x, y := photons.X[i], photons.Y[i]
		photons.X[i] = j.DUDX*x + j.DUDY*y + t.offset.X
		photons.Y[i] = j.DVDX*x + j.DVDY*y + t.offset.Y
	}
	if t.fluxRatio != 1 {
		photons.ScaleFlux(t.fluxRatio)
	}
	return nil
}

func (t *Transformation) WithGSParams(g GSParams) Object {
	out := *t
	out.orig = t.orig.WithGSParams(g)
	out.gsparams = g
	return &out
}

func (t *Transformation) Equal(other Object) bool {
	o, ok := other.(*Transformation)
	if !ok {
		return false
	}
	return o == t || (o.jac == t.jac && o.offset == t.offset && o.fluxRatio == t.fluxRatio &&
		o.gsparams == t.gsparams && o.orig.Equal(t.orig))
}

// WithScaledFlux multiplies the flux of obj by ratio.
func WithScaledFlux(obj Object, ratio float64) Object {
	return mustTransform(obj, wcs.Identity, bounds.PositionD{}, ratio)
}

// WithFlux returns obj rescaled to the given flux. obj must have nonzero
// flux.
func WithFlux(obj Object, flux float64) (Object, error) {
	if obj.Flux() == 0 {
		return nil, fmt.Errorf("%w: cannot set the flux of a zero-flux object", gserrors.ErrValue)
	}
	return WithScaledFlux(obj, flux/obj.Flux()), nil
}

// Shift moves obj by (dx, dy).
func Shift(obj Object, dx, dy float64) Object {
	return mustTransform(obj, wcs.Identity, bounds.PositionD{X: dx, Y: dy}, 1)
}

// Transform applies the linear map [[dudx, dudy], [dvdx, dvdy]] to obj,
// preserving flux.
func Transform(obj Object, dudx, dudy, dvdx, dvdy float64) (Object, error) {
	return NewTransformation(obj, wcs.NewJacobian(dudx, dudy, dvdx, dvdy), bounds.PositionD{}, 1)
}

// Dilate scales the linear size of obj, preserving flux.
func Dilate(obj Object, scale float64) (Object, error) {
	return NewTransformation(obj, wcs.Diag(scale, scale), bounds.PositionD{}, 1)
}

// Expand scales the linear size of obj, preserving surface brightness.
func Expand(obj Object, scale float64) (Object, error) {
	return NewTransformation(obj, wcs.Diag(scale, scale), bounds.PositionD{}, scale*scale)
}

// Magnify expands obj so that its area grows by mu.
func Magnify(obj Object, mu float64) (Object, error) {
	if !(mu > 0) {
		return nil, fmt.Errorf("%w: magnification must be positive, got %g", gserrors.ErrValue, mu)
	}
	return Expand(obj, math.Sqrt(mu))
}

// Rotate turns obj counter-clockwise by theta radians.
func Rotate(obj Object, theta float64) Object {
	s, c := math.Sincos(theta)
	return mustTransform(obj, wcs.NewJacobian(c, -s, s, c), bounds.PositionD{}, 1)
}

// ShearJacobian is the area-preserving map for reduced shear (g1, g2).
func ShearJacobian(g1, g2 float64) (wcs.Jacobian, error) {
	gsq := g1*g1 + g2*g2
	if gsq >= 1 {
		return wcs.Jacobian{}, fmt.Errorf("%w: shear |g| must be < 1, got %g", gserrors.ErrValue, math.Sqrt(gsq))
	}
	f := 1 / math.Sqrt(1-gsq)
	return wcs.NewJacobian(f*(1+g1), f*g2, f*g2, f*(1-g1)), nil
}

// Shear applies the reduced shear (g1, g2) to obj.
func Shear(obj Object, g1, g2 float64) (Object, error) {
	jac, err := ShearJacobian(g1, g2)
	if err != nil {
		return nil, err
	}
	return NewTransformation(obj, jac, bounds.PositionD{}, 1)
}

// Lens applies a weak-lensing shear (g1, g2) and magnification mu.
func Lens(obj Object, g1, g2, mu float64) (Object, error) {
	sheared, err := Shear(obj, g1, g2)
	if err != nil {
		return nil, err
	}
	return Magnify(sheared, mu)
}
