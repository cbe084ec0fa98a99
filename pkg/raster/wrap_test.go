package raster

import (
	"errors"
	"math/cmplx"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
)

// TestWrapPlain verifies the periodic fold and that wrapping is idempotent
func TestWrapPlain(t *testing.T) {
	im := NewFilled(bounds.NewBoundsI(-4, 5, -4, 5), Float64, 1)
	b := bounds.NewBoundsI(0, 4, 0, 4)
	total := im.Sum()

	w, err := im.Wrap(b, HermitianNone)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if w.Bounds() != b {
		t.Errorf("Expected wrapped bounds %v, got %v", b, w.Bounds())
	}
	if w.Sum() != total {
		t.Errorf("Wrap should conserve the sum: expected %f, got %f", total, w.Sum())
	}
	// 10 columns fold onto 5, so every pixel collects 2x2 inputs.
	if v, _ := w.GetValue(2, 3); v != 4 {
		t.Errorf("Expected 4 at (2,3), got %f", v)
	}
	if v, _ := im.GetValue(2, 3); v != 4 {
		t.Errorf("Expected the receiver region to be updated, got %f", v)
	}

	ww, err := w.Wrap(b, HermitianNone)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ww.Equal(w) {
		t.Errorf("Wrapping twice should equal wrapping once")
	}
}

// hermitianPlane builds a complex image on [-m,m]x[-m,m] with
// f(-x,-y) = conj(f(x,y)).
func hermitianPlane(m int) *Image {
	im := New(bounds.NewBoundsI(-m, m, -m, m), Complex128)
	for y := -m; y <= m; y++ {
		for x := -m; x <= m; x++ {
			v := complex(float64(x*x+3*y*y+1), float64(2*x+5*y))
			if x < 0 || (x == 0 && y < 0) {
				continue
			}
			im.SetRawComplex(x, y, v)
			im.SetRawComplex(-x, -y, cmplx.Conj(v))
		}
	}
	im.SetRawComplex(0, 0, 7)
	return im
}

// TestWrapHermitianX checks the half-plane fold against the full-plane one
func TestWrapHermitianX(t *testing.T) {
	const m = 9
	full := hermitianPlane(m)
	half, err := full.SubImage(bounds.NewBoundsI(0, m, -m, m))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	b := bounds.NewBoundsI(0, 4, -4, 3)
	got, err := half.Wrap(b, HermitianX)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ref, err := full.Copy().Wrap(bounds.NewBoundsI(-3, 4, -4, 3), HermitianNone)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			g := got.RawComplex(x, y)
			r := ref.RawComplex(x, y)
			if cmplx.Abs(g-r) > 1e-9 {
				t.Errorf("(%d,%d): expected %v, got %v", x, y, r, g)
			}
		}
	}
}

// TestWrapHermitianY checks the y variant via the transposed plane
func TestWrapHermitianY(t *testing.T) {
	const m = 7
	full := hermitianPlane(m).Transpose()
	half, _ := full.SubImage(bounds.NewBoundsI(-m, m, 0, m))

	b := bounds.NewBoundsI(-3, 2, 0, 3)
	got, err := half.Wrap(b, HermitianY)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ref, _ := full.Copy().Wrap(bounds.NewBoundsI(-3, 2, -2, 3), HermitianNone)
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			if d := cmplx.Abs(got.RawComplex(x, y) - ref.RawComplex(x, y)); d > 1e-9 {
				t.Errorf("(%d,%d): mismatch %g", x, y, d)
			}
		}
	}
}

// TestWrapHermitianRequiresZeroEdge checks the xmin == 0 preconditions
func TestWrapHermitianRequiresZeroEdge(t *testing.T) {
	im := New(bounds.NewBoundsI(-2, 5, -5, 5), Complex128)
	_, err := im.Wrap(bounds.NewBoundsI(0, 3, -2, 2), HermitianX)
	if !errors.Is(err, gserrors.ErrIncompatibleValues) {
		t.Errorf("Expected ErrIncompatibleValues for image xmin != 0, got %v", err)
	}
	im2 := New(bounds.NewBoundsI(0, 5, -5, 5), Complex128)
	_, err = im2.Wrap(bounds.NewBoundsI(1, 3, -2, 2), HermitianX)
	if !errors.Is(err, gserrors.ErrIncompatibleValues) {
		t.Errorf("Expected ErrIncompatibleValues for bounds xmin != 0, got %v", err)
	}
	_, err = im2.Wrap(bounds.NewBoundsI(0, 8, -2, 2), HermitianX)
	if !errors.Is(err, gserrors.ErrBounds) {
		t.Errorf("Expected ErrBounds for bounds outside image, got %v", err)
	}
}
