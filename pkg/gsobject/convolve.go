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

// RealSpace selects how a convolution may be drawn.
type RealSpace int

const (
	// RealSpaceAuto picks a method from the children's properties.
	RealSpaceAuto RealSpace = iota
	// RealSpaceFalse always uses Fourier space.
	RealSpaceFalse
	// RealSpaceTrue requests real-space convolution, which is not
	// supported.
	RealSpaceTrue
)

func (r RealSpace) String() string {
	switch r {
	case RealSpaceFalse:
		return "false"
	case RealSpaceTrue:
		return "true"
	}
	return "auto"
}

// ConvolveOptions controls NewConvolution and NewDeconvolution.
type ConvolveOptions struct {
	RealSpace RealSpace
	// GSParams overrides the combination of the children's GSParams.
	GSParams *GSParams
	// KeepChildGSParams leaves the children's own GSParams in place
	// instead of propagating the combined ones.
	KeepChildGSParams bool
}

// Convolution is the convolution of several profiles, computed as the
// product of their Fourier transforms.
type Convolution struct {
	objs     []Object
	gsparams GSParams
}

// NewConvolution convolves objs. Nested convolutions are flattened.
// Real-space convolution is not implemented: RealSpaceTrue fails, and
// RealSpaceAuto falls back to Fourier space with a warning where real space
// would have been preferred.
func NewConvolution(objs []Object, opts ConvolveOptions) (*Convolution, error) {
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: convolution requires at least one object", gserrors.ErrIncompatibleValues)
	}
	if opts.RealSpace == RealSpaceTrue {
		return nil, fmt.Errorf("%w: real-space convolutions", gserrors.ErrNotImplemented)
	}

	var flat []Object
	for _, o := range objs {
		if c, ok := o.(*Convolution); ok {
			flat = append(flat, c.objs...)
		} else {
			flat = append(flat, o)
		}
	}

	if opts.RealSpace == RealSpaceAuto {
		hard := true
		for _, o := range flat {
			hard = hard && o.HasHardEdges()
		}
		switch {
		case hard && len(flat) <= 2:
			Logger().Warn("convolution of objects with hard edges might be more accurate in real space, which is not implemented; using FFT",
				"objects", len(flat))
		case hard:
			Logger().Warn("convolution of more than two objects with hard edges uses FFT; the result may show ringing",
				"objects", len(flat))
		}
	}

	var g GSParams
	if opts.GSParams != nil {
		g = *opts.GSParams
	} else {
		gs := make([]GSParams, len(flat))
		for i, o := range flat {
			gs[i] = o.GSParams()
		}
		g = CombineGSParams(gs...)
	}
	if !opts.KeepChildGSParams {
		for i, o := range flat {
			if o.GSParams() != g {
				flat[i] = o.WithGSParams(g)
			}
		}
	}
	return &Convolution{objs: flat, gsparams: g}, nil
}

// Convolve is NewConvolution with default options.
func Convolve(objs ...Object) (*Convolution, error) {
	return NewConvolution(objs, ConvolveOptions{})
}

// Objects returns the convolved objects.
func (c *Convolution) Objects() []Object { return append([]Object(nil), c.objs...) }

func (c *Convolution) GSParams() GSParams { return c.gsparams }

func (c *Convolution) Flux() float64 {
	f := 1.0
	for _, o := range c.objs {
		f *= o.Flux()
	}
	return f
}

func (c *Convolution) MaxK() float64 {
	m := math.Inf(1)
	for _, o := range c.objs {
		m = math.Min(m, o.MaxK())
	}
	return m
}

// StepK adds the sizes of the children in quadrature, which is exact for
// Gaussians.
func (c *Convolution) StepK() float64 {
	var inv float64
	for _, o := range c.objs {
		s := o.StepK()
		inv += 1 / (s * s)
	}
	return 1 / math.Sqrt(inv)
}

func (c *Convolution) HasHardEdges() bool { return len(c.objs) == 1 && c.objs[0].HasHardEdges() }

func (c *Convolution) IsAxisymmetric() bool {
	for _, o := range c.objs {
		if !o.IsAxisymmetric() {
			return false
		}
	}
	return true
}

// IsAnalyticX is false unless there is a single child, since real-space
// convolution is not implemented.
func (c *Convolution) IsAnalyticX() bool { return len(c.objs) == 1 && c.objs[0].IsAnalyticX() }

func (c *Convolution) IsAnalyticK() bool {
	for _, o := range c.objs {
		if !o.IsAnalyticK() {
			return false
		}
	}
	return true
}

func (c *Convolution) Centroid() bounds.PositionD {
	var p bounds.PositionD
	for _, o := range c.objs {
		p = p.Add(o.Centroid())
	}
	return p
}

func (c *Convolution) posNeg() (pos, neg float64) {
	pos, neg = c.objs[0].PositiveFlux(), c.objs[0].NegativeFlux()
	for _, o := range c.objs[1:] {
		p, n := o.PositiveFlux(), o.NegativeFlux()
		pos, neg = pos*p+neg*n, pos*n+neg*p
	}
	return pos, neg
}

func (c *Convolution) PositiveFlux() float64 { p, _ := c.posNeg(); return p }
func (c *Convolution) NegativeFlux() float64 { _, n := c.posNeg(); return n }

// MaxSB is exact for Gaussians, whose areas flux/maxSB add under
// convolution, and an overestimate otherwise.
func (c *Convolution) MaxSB() float64 {
	var area float64
	for _, o := range c.objs {
		if sb := o.MaxSB(); sb != 0 {
			area += math.Abs(o.Flux() / sb)
		}
	}
	if area == 0 {
		return math.Inf(1)
	}
	return math.Abs(c.Flux()) / area
}

func (c *Convolution) XValue(bounds.PositionD) (float64, error) {
	return 0, notImplemented("real-space evaluation", c)
}

func (c *Convolution) DrawReal(*raster.Image, wcs.Jacobian, bounds.PositionD, float64) error {
	return notImplemented("real-space drawing", c)
}

func (c *Convolution) KValue(k bounds.PositionD) (complex128, error) {
	v := complex(1, 0)
	for _, o := range c.objs {
		x, err := o.KValue(k)
		if err != nil {
			return 0, err
		}
		v *= x
	}
	return v, nil
}

func (c *Convolution) DrawKImage(img *raster.Image, jac wcs.Jacobian) error {
	if err := c.objs[0].DrawKImage(img, jac); err != nil {
		return err
	}
	if len(c.objs) == 1 {
		return nil
	}
	tmp := scratchLike(img, raster.Complex128)
	for _, o := range c.objs[1:] {
		if err := o.DrawKImage(tmp, jac); err != nil {
			return err
		}
		if err := img.IMul(tmp); err != nil {
			return err
		}
	}
	return nil
}

// Shoot shoots the first child into photons and each later child into a
// scratch buffer of the same capacity, convolving as it goes.
func (c *Convolution) Shoot(photons *photon.Array, rng random.Deviate) error {
	if err := c.objs[0].Shoot(photons, rng); err != nil {
		return err
	}
	if len(c.objs) == 1 {
		return nil
	}
	scratch := photon.NewArray(photons.Capacity())
	for _, o := range c.objs[1:] {
		scratch.SetCorrelated(false)
		if err := o.Shoot(scratch, rng); err != nil {
			return err
		}
		if err := photons.Convolve(scratch, rng); err != nil {
			return err
		}
	}
	return nil
}

func (c *Convolution) WithGSParams(g GSParams) Object {
	objs := make([]Object, len(c.objs))
	for i, o := range c.objs {
		objs[i] = o.WithGSParams(g)
	}
	return &Convolution{objs: objs, gsparams: g}
}

func (c *Convolution) Equal(other Object) bool {
	o, ok := other.(*Convolution)
	if !ok {
		return false
	}
	return o == c || (o.gsparams == c.gsparams && equalLists(o.objs, c.objs))
}

// containsPixel reports whether obj is a convolution with a Pixel among
// its children.
func containsPixel(obj Object) bool {
	c, ok := obj.(*Convolution)
	if !ok {
		return false
	}
	for _, o := range c.objs {
		if _, ok := o.(*Pixel); ok {
			return true
		}
	}
	return false
}
