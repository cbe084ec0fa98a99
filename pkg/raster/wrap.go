package raster

import (
	"fmt"
	"math/cmplx"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
)

// Hermitian selects how Wrap treats an image that stores only half of a
// Hermitian-symmetric plane.
type Hermitian int

const (
	// HermitianNone wraps a plain periodic image.
	HermitianNone Hermitian = iota
	// HermitianX means only x >= 0 is stored; f(-x,-y) = conj(f(x,y)).
	HermitianX
	// HermitianY means only y >= 0 is stored; f(-x,-y) = conj(f(x,y)).
	HermitianY
)

func (h Hermitian) String() string {
	switch h {
	case HermitianNone:
		return "none"
	case HermitianX:
		return "x"
	case HermitianY:
		return "y"
	}
	return fmt.Sprintf("Hermitian(%d)", int(h))
}

// Wrap folds the whole image periodically into the region b: each pixel of
// b receives the sum of all pixels congruent to it modulo the size of b.
// The receiver's region b is overwritten with the folded values and a copy
// of that region is returned.
//
// With HermitianX the image must have xmin == 0 and so must b; the implied
// pixels at negative x take part in the fold and the x period is 2*b.XMax.
// HermitianY is the same with the axes swapped.
func (im *Image) Wrap(b bounds.BoundsI, hermitian Hermitian) (*Image, error) {
	if err := im.checkWritable(); err != nil {
		return nil, err
	}
	if !im.bounds.IsDefined() {
		return nil, fmt.Errorf("%w: cannot wrap an undefined image", gserrors.ErrUndefinedBounds)
	}
	if !im.bounds.IncludesBounds(b) {
		return nil, &gserrors.BoundsError{
			Msg:    "wrap bounds must be contained in the image",
			Target: b.String(),
			Bounds: im.bounds.String(),
		}
	}
	switch hermitian {
	case HermitianNone:
		im.wrapPlain(b)
	case HermitianX:
		if im.bounds.XMin != 0 {
			return nil, fmt.Errorf("%w: hermitian x wrap requires image xmin == 0, got %v",
				gserrors.ErrIncompatibleValues, im.bounds)
		}
		if b.XMin != 0 {
			return nil, fmt.Errorf("%w: hermitian x wrap requires bounds xmin == 0, got %v",
				gserrors.ErrIncompatibleValues, b)
		}
		im.wrapHermitian(b, false)
	case HermitianY:
		if im.bounds.YMin != 0 {
			return nil, fmt.Errorf("%w: hermitian y wrap requires image ymin == 0, got %v",
				gserrors.ErrIncompatibleValues, im.bounds)
		}
		if b.YMin != 0 {
			return nil, fmt.Errorf("%w: hermitian y wrap requires bounds ymin == 0, got %v",
				gserrors.ErrIncompatibleValues, b)
		}
		im.wrapHermitian(b, true)
	default:
		return nil, fmt.Errorf("%w: invalid hermitian mode %v", gserrors.ErrValue, hermitian)
	}
	return im.SubImage(b)
}

// wrapInto maps v into [lo, lo+n).
func wrapInto(v, lo, n int) int {
	m := (v - lo) % n
	if m < 0 {
		m += n
	}
	return lo + m
}

func (im *Image) wrapPlain(b bounds.BoundsI) {
	nx := b.XMax - b.XMin + 1
	ny := b.YMax - b.YMin + 1
	acc := make([]complex128, nx*ny)
	src := im.bounds
	for y := src.YMin; y <= src.YMax; y++ {
		yw := wrapInto(y, b.YMin, ny) - b.YMin
		for x := src.XMin; x <= src.XMax; x++ {
			xw := wrapInto(x, b.XMin, nx) - b.XMin
			acc[yw*nx+xw] += im.RawComplex(x, y)
		}
	}
	im.storeRegion(b, acc)
}

// wrapHermitian folds a half-plane image. With swap false the stored half
// is x >= 0; with swap true it is y >= 0.
func (im *Image) wrapHermitian(b bounds.BoundsI, swap bool) {
	// u is the half-stored axis, w the full axis.
	uMax, wMin, wMax := b.XMax, b.YMin, b.YMax
	su0, su1, sw0, sw1 := im.bounds.XMin, im.bounds.XMax, im.bounds.YMin, im.bounds.YMax
	if swap {
		uMax, wMin, wMax = b.YMax, b.XMin, b.XMax
		su0, su1, sw0, sw1 = im.bounds.YMin, im.bounds.YMax, im.bounds.XMin, im.bounds.XMax
	}
	nu := uMax + 1
	nw := wMax - wMin + 1
	period := 2 * uMax
	uLo := -uMax + 1
	acc := make([]complex128, nu*nw)

	deposit := func(u, w int, v complex128) {
		var uw int
		if period > 0 {
			uw = wrapInto(u, uLo, period)
		}
		if uw < 0 {
			return
		}
		ww := wrapInto(w, wMin, nw) - wMin
		acc[ww*nu+uw] += v
	}
	get := func(u, w int) complex128 {
		if swap {
			return im.RawComplex(w, u)
		}
		return im.RawComplex(u, w)
	}

	for w := sw0; w <= sw1; w++ {
		for u := su0; u <= su1; u++ {
			v := get(u, w)
			deposit(u, w, v)
			// The mirror (-u,-w) is implied unless it is stored too.
			if u > 0 || -w < sw0 || -w > sw1 {
				deposit(-u, -w, cmplx.Conj(v))
			}
		}
	}

	if swap {
		// acc is indexed [x][y]; transpose it into row-major [y][x].
		flat := make([]complex128, nu*nw)
		for x := 0; x < nw; x++ {
			for y := 0; y < nu; y++ {
				flat[y*nw+x] = acc[x*nu+y]
			}
		}
		acc = flat
	}
	im.storeRegion(b, acc)
}

func (im *Image) storeRegion(b bounds.BoundsI, acc []complex128) {
	nx := b.XMax - b.XMin + 1
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			im.SetRawComplex(x, y, acc[(y-b.YMin)*nx+(x-b.XMin)])
		}
	}
}
