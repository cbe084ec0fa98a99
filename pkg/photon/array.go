// Package photon holds the fixed-capacity photon buffer used by photon
// shooting, along with the sensor and photon-operator contracts.
package photon

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gsrender/pkg/gserrors"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
)

// Array is a set of photons with positions and fluxes. Its capacity is fixed
// at construction; Size photons (<= capacity) are in use. The optional
// wavelength, pupil and time columns are allocated on demand.
type Array struct {
	X    []float64
	Y    []float64
	Flux []float64

	Wavelength []float64
	PupilU     []float64
	PupilV     []float64
	Time       []float64

	size       int
	correlated bool
}

// NewArray allocates an array of the given capacity, all of it in use.
func NewArray(capacity int) *Array {
	return &Array{
		X:    make([]float64, capacity),
		Y:    make([]float64, capacity),
		Flux: make([]float64, capacity),
		size: capacity,
	}
}

// Capacity is the number of allocated slots.
func (p *Array) Capacity() int { return len(p.X) }

// Size is the number of photons in use.
func (p *Array) Size() int { return p.size }

// SetSize sets the number of photons in use.
func (p *Array) SetSize(n int) error {
	if n < 0 || n > p.Capacity() {
		return fmt.Errorf("%w: photon count %d outside [0, %d]", gserrors.ErrValue, n, p.Capacity())
	}
	p.size = n
	return nil
}

// IsCorrelated reports whether the photons are not independent draws, so
// that convolving two such arrays requires a shuffle.
func (p *Array) IsCorrelated() bool { return p.correlated }

// SetCorrelated marks the array as correlated or not.
func (p *Array) SetCorrelated(c bool) { p.correlated = c }

// AllocateWavelengths makes sure the wavelength column exists.
func (p *Array) AllocateWavelengths() {
	if p.Wavelength == nil {
		p.Wavelength = make([]float64, p.Capacity())
	}
}

// AllocatePupil makes sure the pupil u/v columns exist.
func (p *Array) AllocatePupil() {
	if p.PupilU == nil {
		p.PupilU = make([]float64, p.Capacity())
		p.PupilV = make([]float64, p.Capacity())
	}
}

// AllocateTimes makes sure the time column exists.
func (p *Array) AllocateTimes() {
	if p.Time == nil {
		p.Time = make([]float64, p.Capacity())
	}
}

// HasWavelengths reports whether the wavelength column is allocated.
func (p *Array) HasWavelengths() bool { return p.Wavelength != nil }

// HasPupil reports whether the pupil columns are allocated.
func (p *Array) HasPupil() bool { return p.PupilU != nil }

// HasTimes reports whether the time column is allocated.
func (p *Array) HasTimes() bool { return p.Time != nil }

// TotalFlux is the summed flux of the photons in use.
func (p *Array) TotalFlux() float64 { return floats.Sum(p.Flux[:p.size]) }

// ScaleFlux multiplies every flux by s.
func (p *Array) ScaleFlux(s float64) { floats.Scale(s, p.Flux[:p.size]) }

// ScaleXY multiplies every position by s.
func (p *Array) ScaleXY(s float64) {
	floats.Scale(s, p.X[:p.size])
	floats.Scale(s, p.Y[:p.size])
}

// Convolve adds the positions of rhs to those of p and multiplies the
// fluxes, so that p holds photons from the convolution of the two profiles.
// Both arrays must be the same size. When both are correlated the photons of
// rhs are taken in a random order drawn from rng.
func (p *Array) Convolve(rhs *Array, rng random.Deviate) error {
	n := p.size
	if rhs.size != n {
		return fmt.Errorf("%w: photon arrays are different sizes (%d vs %d)",
			gserrors.ErrIncompatibleValues, n, rhs.size)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if p.correlated && rhs.correlated {
		if rng == nil {
			return fmt.Errorf("%w: convolving correlated photon arrays needs an rng", gserrors.ErrIncompatibleValues)
		}
		rng.Base().Rand().Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
	}

	scale := float64(n)
	for i, j := range perm {
		p.X[i] += rhs.X[j]
		p.Y[i] += rhs.Y[j]
		p.Flux[i] *= rhs.Flux[j] * scale
	}
	if rhs.HasWavelengths() && !p.HasWavelengths() {
		p.AllocateWavelengths()
		for i, j := range perm {
			p.Wavelength[i] = rhs.Wavelength[j]
		}
	}
	if rhs.HasPupil() && !p.HasPupil() {
		p.AllocatePupil()
		for i, j := range perm {
			p.PupilU[i], p.PupilV[i] = rhs.PupilU[j], rhs.PupilV[j]
		}
	}
	if rhs.HasTimes() && !p.HasTimes() {
		p.AllocateTimes()
		for i, j := range perm {
			p.Time[i] = rhs.Time[j]
		}
	}
	p.correlated = p.correlated || rhs.correlated
	return nil
}

// Shuffle randomly reorders the photons in use, together with their
// optional columns, and clears the correlated flag.
func (p *Array) Shuffle(rng random.Deviate) {
	cols := [][]float64{p.X, p.Y, p.Flux, p.Wavelength, p.PupilU, p.PupilV, p.Time}
	rng.Base().Rand().Shuffle(p.size, func(i, j int) {
		for _, c := range cols {
			if c != nil {
				c[i], c[j] = c[j], c[i]
			}
		}
	})
	p.correlated = false
}

// CopyFrom copies n photons of src starting at srcOffset into p starting at
// dstOffset. Optional columns present in src are copied too.
func (p *Array) CopyFrom(src *Array, dstOffset, srcOffset, n int) error {
	if dstOffset < 0 || srcOffset < 0 || n < 0 ||
		dstOffset+n > p.Capacity() || srcOffset+n > src.Capacity() {
		return fmt.Errorf("%w: cannot copy %d photons from offset %d to offset %d",
			gserrors.ErrValue, n, srcOffset, dstOffset)
	}
	copy(p.X[dstOffset:dstOffset+n], src.X[srcOffset:srcOffset+n])
	copy(p.Y[dstOffset:dstOffset+n], src.Y[srcOffset:srcOffset+n])
	copy(p.Flux[dstOffset:dstOffset+n], src.Flux[srcOffset:srcOffset+n])
	if src.HasWavelengths() {
		p.AllocateWavelengths()
		copy(p.Wavelength[dstOffset:dstOffset+n], src.Wavelength[srcOffset:srcOffset+n])
	}
	if src.HasPupil() {
		p.AllocatePupil()
		copy(p.PupilU[dstOffset:dstOffset+n], src.PupilU[srcOffset:srcOffset+n])
		copy(p.PupilV[dstOffset:dstOffset+n], src.PupilV[srcOffset:srcOffset+n])
	}
	if src.HasTimes() {
		p.AllocateTimes()
		copy(p.Time[dstOffset:dstOffset+n], src.Time[srcOffset:srcOffset+n])
	}
	if src.correlated {
		p.correlated = true
	}
	return nil
}

// AddTo deposits every photon in use onto the pixel containing it, where
// pixel (i,j) covers [i-0.5, i+0.5) x [j-0.5, j+0.5). Photons off the
// image are dropped. It returns the flux that landed on the image.
func (p *Array) AddTo(im *raster.Image) (float64, error) {
	b := im.Bounds()
	if !b.IsDefined() {
		return 0, fmt.Errorf("%w: attempting to add photons to an image with undefined bounds",
			gserrors.ErrUndefinedBounds)
	}
	if im.IsConst() {
		return 0, fmt.Errorf("%w: cannot add photons to an immutable image", gserrors.ErrImmutable)
	}
	var added float64
	for i := 0; i < p.size; i++ {
		ix := int(math.Floor(p.X[i] + 0.5))
		iy := int(math.Floor(p.Y[i] + 0.5))
		if ix < b.XMin || ix > b.XMax || iy < b.YMin || iy > b.YMax {
			continue
		}
		im.AddRawValue(ix, iy, p.Flux[i])
		added += p.Flux[i]
	}
	return added, nil
}
