package gsobject

import (
	"fmt"
	"math"

	"gsrender/pkg/bounds"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// calculateNPhotons returns the number of photons to shoot for obj and the
// factor g by which the total flux should be scaled.
//
// Without nPhotons the count is |flux|/(1-2eta)^2, eta being the negative
// fraction of the absolute flux, so that the photon noise matches a
// Poisson realisation of the flux. maxExtraNoise > 0 allows fewer photons,
// adding up to that much variance per pixel at the peak surface
// brightness. With poissonFlux the total flux itself is Poisson-varied.
func calculateNPhotons(obj Object, nPhotons float64, poissonFlux bool, maxExtraNoise float64,
	rng random.Deviate) (int, float64) {
	flux := obj.Flux()
	if flux == 0 {
		return 0, 1
	}
	eta := FluxPerPhoton(obj)
	modFlux := flux / (eta * eta)
	g := 1.0

	if poissonFlux {
		mean := eta * eta * math.Abs(flux)
		pd := random.NewPoissonDeviate(rng, mean).Float64()
		ratio := (pd - mean + math.Abs(flux)) / math.Abs(flux)
		g *= ratio
		modFlux *= ratio
	}

	if nPhotons != 0 {
		return int(nPhotons + 0.5), g
	}
	n := math.Abs(modFlux)
	if maxExtraNoise > 0 {
		n /= 1 + maxExtraNoise/math.Abs(obj.MaxSB())
	}
	return int(n + 0.5), g
}

// ShootPhotons shoots exactly n photons from obj.
func ShootPhotons(obj Object, n int, rng random.Deviate) (*photon.Array, error) {
	if rng == nil {
		rng = random.NewBaseDeviate(0)
	}
	photons := photon.NewArray(n)
	if err := obj.Shoot(photons, rng); err != nil {
		return nil, fmt.Errorf("unable to shoot photons from %T (perhaps it is a deconvolution): %w", obj, err)
	}
	return photons, nil
}

// PhotOptions are the arguments of MakePhot.
type PhotOptions struct {
	// NPhotons is the photon count; zero derives it from the flux.
	NPhotons      float64
	RNG           random.Deviate
	MaxExtraNoise float64
	// PoissonFlux defaults to true when NPhotons is zero.
	PoissonFlux *bool
	PhotonOps   []photon.Op
	// WCS is passed to the photon ops; default a unit pixel scale.
	WCS wcs.WCS
}

// MakePhot shoots the photons DrawImage would shoot for obj, without
// accumulating them, and applies the photon ops.
func MakePhot(obj Object, opts PhotOptions) (*photon.Array, error) {
	rng := opts.RNG
	if rng == nil {
		rng = random.NewBaseDeviate(0)
	}
	poisson := opts.NPhotons == 0
	if opts.PoissonFlux != nil {
		poisson = *opts.PoissonFlux
	}
	n, g := calculateNPhotons(obj, opts.NPhotons, poisson, opts.MaxExtraNoise, rng)
	photons, err := ShootPhotons(obj, n, rng)
	if err != nil {
		return nil, err
	}
	if g != 1 {
		photons.ScaleFlux(g)
	}
	w := opts.WCS
	if w == nil {
		w = wcs.NewPixelScale(1)
	}
	for _, op := range opts.PhotonOps {
		if err := op.ApplyTo(photons, w, rng); err != nil {
			return nil, fmt.Errorf("photon op failed: %w", err)
		}
	}
	return photons, nil
}

// drawPhot shoots photons from prof, which is in image coordinates, into
// image, whose center is (0,0). Photons are shot in chunks of at most MaxN
// through a single buffer of that capacity; each photon carries
// g*flux/Ntot so the chunks add up to the same image as a single shoot.
// Photon ops see w, the local WCS shifted by the draw offset.
// It returns the flux accumulated and, for a single chunk, the photons.
func drawPhot(prof Object, image *raster.Image, opts *DrawOptions, origCenter bounds.PositionI,
	w wcs.WCS) (float64, *photon.Array, error) {
	rng := opts.RNG
	if rng == nil {
		rng = random.NewBaseDeviate(0)
	}
	var sensor photon.Sensor = photon.SimpleSensor{}
	if opts.Sensor != nil {
		sensor = opts.Sensor
	}
	poisson := opts.NPhotons == 0
	if opts.PoissonFlux != nil {
		poisson = *opts.PoissonFlux
	}

	ntot, g := calculateNPhotons(prof, opts.NPhotons, poisson, opts.MaxExtraNoise, rng)
	g /= orOne(opts.Gain)
	Logger().Debug("drawPhot", "n_photons", ntot, "maxN", opts.MaxN, "g", g)

	if !opts.AddToImage {
		if err := image.SetZero(); err != nil {
			return 0, nil, err
		}
	}
	if ntot == 0 {
		return 0, photon.NewArray(0), nil
	}

	target := image
	if image.DType() != raster.Float32 && image.DType() != raster.Float64 {
		target = raster.New(image.Bounds(), raster.Float64)
		target.SetWCS(image.WCS())
	}
	scale, err := image.Scale()
	if err != nil {
		return 0, nil, err
	}

	maxN := ntot
	if opts.MaxN > 0 {
		maxN = min(opts.MaxN, ntot)
	}
	arena := photon.NewArray(maxN)
	// Each full shoot holds prof.Flux() spread over maxN photons.
	fluxFactor := g * float64(maxN) / float64(ntot)

	var added float64
	resume := false
	for remaining := ntot; remaining > 0; {
		thisN := min(maxN, remaining)
		arena.SetCorrelated(false)
		if err := prof.Shoot(arena, rng); err != nil {
			return 0, nil, fmt.Errorf("unable to draw this object with photon shooting (perhaps it is a deconvolution): %w", err)
		}
		if thisN < maxN && arena.IsCorrelated() {
			arena.Shuffle(rng)
		}
		if err := arena.SetSize(thisN); err != nil {
			return 0, nil, err
		}
		if fluxFactor != 1 {
			arena.ScaleFlux(fluxFactor)
		}
		if scale != 1 {
			arena.ScaleXY(1 / scale)
		}
		for _, op := range opts.PhotonOps {
			if err := op.ApplyTo(arena, w, rng); err != nil {
				return 0, nil, fmt.Errorf("photon op failed: %w", err)
			}
		}
		a, err := sensor.Accumulate(arena, target, origCenter, resume)
		if err != nil {
			return 0, nil, fmt.Errorf("sensor accumulation failed: %w", err)
		}
		added += a
		resume = true
		remaining -= thisN
	}

	if target != image {
		if err := image.IAdd(target); err != nil {
			return 0, nil, err
		}
	}
	return added, arena, nil
}

// photonOp convolves photons with photons shot from an object.
type photonOp struct {
	obj Object
}

// AsPhotonOp turns obj into a photon operator that convolves the photons
// with obj. obj is in world coordinates and is mapped to the image through
// the jacobian of the WCS given to ApplyTo.
func AsPhotonOp(obj Object) photon.Op { return photonOp{obj: obj} }

func (op photonOp) ApplyTo(photons *photon.Array, w wcs.WCS, rng random.Deviate) error {
	obj := op.obj
	if w != nil {
		inv, err := w.Local(bounds.PositionD{}).Jacobian().Inverse()
		if err != nil {
			return err
		}
		if !inv.IsIdentity() {
			t, err := NewTransformation(obj, inv, bounds.PositionD{}, 1)
			if err != nil {
				return err
			}
			obj = t
		}
	}
	if rng == nil {
		rng = random.NewBaseDeviate(0)
	}
	p1 := photon.NewArray(photons.Size())
	if err := obj.Shoot(p1, rng); err != nil {
		return err
	}
	return photons.Convolve(p1, rng)
}
