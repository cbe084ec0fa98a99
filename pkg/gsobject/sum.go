package gsobject

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// Sum is the sum of several profiles.
type Sum struct {
	objs     []Object
	gsparams GSParams
}

// NewSum adds objs. At least one object is required. The combined
// GSParams are propagated to every child.
func NewSum(objs ...Object) (*Sum, error) {
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: sum requires at least one object", gserrors.ErrIncompatibleValues)
	}
	var flat []Object
	for _, o := range objs {
		if s, ok := o.(*Sum); ok {
			flat = append(flat, s.objs...)
		} else {
			flat = append(flat, o)
		}
	}
	gs := make([]GSParams, len(flat))
	for i, o := range flat {
		gs[i] = o.GSParams()
	}
	g := CombineGSParams(gs...)
	for i, o := range flat {
		if o.GSParams() != g {
			flat[i] = o.WithGSParams(g)
		}
	}
	return &Sum{objs: flat, gsparams: g}, nil
}

// Objects returns the summed objects.
func (s *Sum) Objects() []Object { return append([]Object(nil), s.objs...) }

func (s *Sum) GSParams() GSParams { return s.gsparams }

func (s *Sum) Flux() float64 {
	var f float64
	for _, o := range s.objs {
		f += o.Flux()
	}
	return f
}

func (s *Sum) MaxK() float64 {
	m := 0.0
	for _, o := range s.objs {
		m = math.Max(m, o.MaxK())
	}
	return m
}

func (s *Sum) StepK() float64 {
	m := math.Inf(1)
	for _, o := range s.objs {
		m = math.Min(m, o.StepK())
	}
	return m
}

func (s *Sum) all(f func(Object) bool) bool {
	for _, o := range s.objs {
		if !f(o) {
			return false
		}
	}
	return true
}

func (s *Sum) HasHardEdges() bool { return !s.all(func(o Object) bool { return !o.HasHardEdges() }) }
func (s *Sum) IsAxisymmetric() bool { return s.all(Object.IsAxisymmetric) }
func (s *Sum) IsAnalyticX() bool { return s.all(Object.IsAnalyticX) }
func (s *Sum) IsAnalyticK() bool { return s.all(Object.IsAnalyticK) }

// Centroid is the flux-weighted mean of the child centroids.
func (s *Sum) Centroid() bounds.PositionD {
	flux := s.Flux()
	if flux == 0 {
		return bounds.PositionD{}
	}
	var c bounds.PositionD
	for _, o := range s.objs {
		c = c.Add(o.Centroid().Scale(o.Flux()))
	}
	return c.Scale(1 / flux)
}

func (s *Sum) PositiveFlux() float64 {
	var f float64
	for _, o := range s.objs {
		f += o.PositiveFlux()
	}
	return f
}

func (s *Sum) NegativeFlux() float64 {
	var f float64
	for _, o := range s.objs {
		f += o.NegativeFlux()
	}
	return f
}

func (s *Sum) MaxSB() float64 {
	var m float64
	for _, o := range s.objs {
		m += math.Abs(o.MaxSB())
	}
	return m
}

func (s *Sum) XValue(p bounds.PositionD) (float64, error) {
	var v float64
	for _, o := range s.objs {
		x, err := o.XValue(p)
		if err != nil {
			return 0, err
		}
		v += x
	}
	return v, nil
}

func (s *Sum) KValue(k bounds.PositionD) (complex128, error) {
	var v complex128
	for _, o := range s.objs {
		x, err := o.KValue(k)
		if err != nil {
			return 0, err
		}
		v += x
	}
	return v, nil
}

// scratchLike returns a zero image with the bounds and wcs of img.
func scratchLike(img *raster.Image, dtype raster.DType) *raster.Image {
	tmp := raster.New(img.Bounds(), dtype)
	tmp.SetWCS(img.WCS())
	return tmp
}

func (s *Sum) DrawReal(img *raster.Image, jac wcs.Jacobian, offset bounds.PositionD, fluxScale float64) error {
	if err := s.objs[0].DrawReal(img, jac, offset, fluxScale); err != nil {
		return err
	}
	if len(s.objs) == 1 {
		return nil
	}
	tmp := scratchLike(img, raster.Float64)
	for _, o := range s.objs[1:] {
		if err := o.DrawReal(tmp, jac, offset, fluxScale); err != nil {
			return err
		}
		if err := img.IAdd(tmp); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sum) DrawKImage(img *raster.Image, jac wcs.Jacobian) error {
	if err := s.objs[0].DrawKImage(img, jac); err != nil {
		return err
	}
	if len(s.objs) == 1 {
		return nil
	}
	tmp := scratchLike(img, raster.Complex128)
	for _, o := range s.objs[1:] {
		if err := o.DrawKImage(tmp, jac); err != nil {
			return err
		}
		if err := img.IAdd(tmp); err != nil {
			return err
		}
	}
	return nil
}

// chooseChildren assigns each of n photons to a child with probability
// proportional to its weight and returns the photon count of each child.
// A zero total sends every photon to the first child.
func chooseChildren(n int, weights []float64, rng random.Deviate) []int {
	counts := make([]int, len(weights))
	if floats.Sum(weights) == 0 {
		counts[0] = n
		return counts
	}
	pick := distuv.NewCategorical(weights, rng.Base().Source())
	for range n {
		counts[int(pick.Rand())]++
	}
	return counts
}

// Shoot picks the child of every photon at random with probability
// |F_i|/sum|F_j|, then rescales each photon to carry sum|F_j|/N with the
// sign of its child, so faint children are sampled at the right rate.
func (s *Sum) Shoot(photons *photon.Array, rng random.Deviate) error {
	n := photons.Capacity()
	if err := photons.SetSize(n); err != nil {
		return err
	}
	weights := make([]float64, len(s.objs))
	for i, o := range s.objs {
		weights[i] = o.PositiveFlux() + o.NegativeFlux()
	}
	absFlux := floats.Sum(weights)
	counts := chooseChildren(n, weights, rng)
	offset := 0
	for i, o := range s.objs {
		if counts[i] == 0 {
			continue
		}
		part := photon.NewArray(counts[i])
		if err := o.Shoot(part, rng); err != nil {
			return err
		}
		if weights[i] > 0 {
			part.ScaleFlux(absFlux / float64(n) * float64(counts[i]) / weights[i])
		}
		if err := photons.CopyFrom(part, offset, 0, counts[i]); err != nil {
			return err
		}
		offset += counts[i]
	}
	// Photons from different children are grouped, not randomly ordered.
	photons.SetCorrelated(len(s.objs) > 1)
	return nil
}

func (s *Sum) WithGSParams(g GSParams) Object {
	objs := make([]Object, len(s.objs))
	for i, o := range s.objs {
		objs[i] = o.WithGSParams(g)
	}
	return &Sum{objs: objs, gsparams: g}
}

func (s *Sum) Equal(other Object) bool {
	o, ok := other.(*Sum)
	if !ok {
		return false
	}
	if o == s {
		return true
	}
	return o.gsparams == s.gsparams && equalLists(o.objs, s.objs)
}

func equalLists(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
