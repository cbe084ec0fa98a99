package random

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformDeviate draws uniformly from [0,1).
type UniformDeviate struct {
	*BaseDeviate
}

// NewUniformDeviate returns a uniform deviate with its own stream.
func NewUniformDeviate(seed uint64) *UniformDeviate {
	return &UniformDeviate{NewBaseDeviate(seed)}
}

// Uniform returns a uniform deviate sharing the stream of d.
func Uniform(d Deviate) *UniformDeviate { return &UniformDeviate{d.Base()} }

func (u *UniformDeviate) Duplicate() Deviate {
	return &UniformDeviate{&BaseDeviate{s: u.s.clone()}}
}

func (u *UniformDeviate) Generate(dst []float64) { generate(u, dst) }

// GaussianDeviate draws from a normal distribution.
type GaussianDeviate struct {
	*BaseDeviate
	Mean  float64
	Sigma float64
}

// NewGaussianDeviate returns a normal deviate sharing the stream of d.
func NewGaussianDeviate(d Deviate, mean, sigma float64) *GaussianDeviate {
	return &GaussianDeviate{BaseDeviate: d.Base(), Mean: mean, Sigma: sigma}
}

func (g *GaussianDeviate) Float64() float64 {
	return g.Mean + g.Sigma*g.Rand().NormFloat64()
}

func (g *GaussianDeviate) Duplicate() Deviate {
	return &GaussianDeviate{BaseDeviate: &BaseDeviate{s: g.s.clone()}, Mean: g.Mean, Sigma: g.Sigma}
}

func (g *GaussianDeviate) Generate(dst []float64) { generate(g, dst) }

// PoissonDeviate draws integer counts with the given mean.
type PoissonDeviate struct {
	*BaseDeviate
	dist distuv.Poisson
}

// NewPoissonDeviate returns a Poisson deviate sharing the stream of d.
func NewPoissonDeviate(d Deviate, mean float64) *PoissonDeviate {
	base := d.Base()
	return &PoissonDeviate{
		BaseDeviate: base,
		dist:        distuv.Poisson{Lambda: mean, Src: base.Source()},
	}
}

// Mean returns the distribution mean.
func (p *PoissonDeviate) Mean() float64 { return p.dist.Lambda }

func (p *PoissonDeviate) Float64() float64 {
	if p.dist.Lambda <= 0 {
		return 0
	}
	return p.dist.Rand()
}

func (p *PoissonDeviate) Duplicate() Deviate {
	base := &BaseDeviate{s: p.s.clone()}
	return &PoissonDeviate{BaseDeviate: base, dist: distuv.Poisson{Lambda: p.dist.Lambda, Src: base.Source()}}
}

func (p *PoissonDeviate) Generate(dst []float64) { generate(p, dst) }
