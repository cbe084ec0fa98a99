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

// sqrt(2 ln 2): half-light radius in units of sigma.
const gaussianHLRFactor = 1.1774100225154747

// Gaussian is a circular Gaussian profile.
type Gaussian struct {
	sigma    float64
	flux     float64
	gsparams GSParams
}

// NewGaussian returns a Gaussian with the given sigma and flux.
func NewGaussian(sigma, flux float64) (*Gaussian, error) {
	if !(sigma > 0) {
		return nil, fmt.Errorf("%w: gaussian sigma must be positive, got %g", gserrors.ErrValue, sigma)
	}
	return &Gaussian{sigma: sigma, flux: flux, gsparams: DefaultGSParams()}, nil
}

// Sigma returns the Gaussian width.
func (g *Gaussian) Sigma() float64 { return g.sigma }

// HalfLightRadius returns the radius enclosing half the flux.
func (g *Gaussian) HalfLightRadius() float64 { return g.sigma * gaussianHLRFactor }

func (g *Gaussian) Flux() float64 { return g.flux }
func (g *Gaussian) GSParams() GSParams { return g.gsparams }

func (g *Gaussian) MaxK() float64 {
	return math.Sqrt(-2*math.Log(g.gsparams.MaxKThreshold)) / g.sigma
}

func (g *Gaussian) StepK() float64 {
	r := math.Max(math.Sqrt(-2*math.Log(g.gsparams.FoldingThreshold)),
		g.gsparams.StepKMinimumHLR*gaussianHLRFactor)
	return math.Pi / (r * g.sigma)
}

func (g *Gaussian) HasHardEdges() bool { return false }
func (g *Gaussian) IsAxisymmetric() bool { return true }
func (g *Gaussian) IsAnalyticX() bool { return true }
func (g *Gaussian) IsAnalyticK() bool { return true }
func (g *Gaussian) Centroid() bounds.PositionD { return bounds.PositionD{} }
func (g *Gaussian) PositiveFlux() float64 { return math.Max(g.flux, 0) }
func (g *Gaussian) NegativeFlux() float64 { return math.Max(-g.flux, 0) }

func (g *Gaussian) MaxSB() float64 {
	return math.Abs(g.flux) / (2 * math.Pi * g.sigma * g.sigma)
}

func (g *Gaussian) xValue(p bounds.PositionD) float64 {
	s2 := g.sigma * g.sigma
	return g.flux / (2 * math.Pi * s2) * math.Exp(-(p.X*p.X+p.Y*p.Y)/(2*s2))
}

func (g *Gaussian) kValue(k bounds.PositionD) complex128 {
	return complex(g.flux*math.Exp(-(k.X*k.X+k.Y*k.Y)*g.sigma*g.sigma/2), 0)
}

func (g *Gaussian) XValue(p bounds.PositionD) (float64, error) { return g.xValue(p), nil }
func (g *Gaussian) KValue(k bounds.PositionD) (complex128, error) { return g.kValue(k), nil }

func (g *Gaussian) DrawReal(img *raster.Image, jac wcs.Jacobian, offset bounds.PositionD, fluxScale float64) error {
	return drawRealFunc(img, jac, offset, fluxScale, g.xValue)
}

func (g *Gaussian) DrawKImage(img *raster.Image, jac wcs.Jacobian) error {
	return drawKFunc(img, jac, g.kValue)
}

// Shoot draws photon positions from the normal distribution.
func (g *Gaussian) Shoot(photons *photon.Array, rng random.Deviate) error {
	n := photons.Capacity()
	if err := photons.SetSize(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	norm := random.NewGaussianDeviate(rng, 0, g.sigma)
	fluxPer := g.flux / float64(n)
	for i := range n {
		photons.X[i] = norm.Float64()
		photons.Y[i] = norm.Float64()
		photons.Flux[i] = fluxPer
	}
	return nil
}

func (g *Gaussian) WithGSParams(gs GSParams) Object {
	out := *g
	out.gsparams = gs
	return &out
}

func (g *Gaussian) Equal(other Object) bool {
	o, ok := other.(*Gaussian)
	return ok && (o == g || *o == *g)
}
