package raster

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/wcs"
)

// TestGoodFFTSize checks the 2^k / 3*2^k rounding
func TestGoodFFTSize(t *testing.T) {
	cases := map[int]int{
		0:    2,
		1:    2,
		2:    2,
		3:    4,
		5:    6,
		7:    8,
		100:  128,
		129:  192,
		192:  192,
		193:  256,
		1000: 1024,
		1025: 1536,
	}
	for in, want := range cases {
		if got := GoodFFTSize(in); got != want {
			t.Errorf("GoodFFTSize(%d): expected %d, got %d", in, want, got)
		}
	}
}

// TestFFTRoundTrip transforms an odd-sized image and back
func TestFFTRoundTrip(t *testing.T) {
	b := bounds.NewBoundsI(-3, 3, -3, 3)
	im := New(b, Float64)
	im.SetWCS(wcs.NewPixelScale(0.5))
	im.FillFunc(func(x, y int) float64 {
		return math.Exp(-float64(x*x+y*y)/4) + 0.1*float64(x) - 0.05*float64(y*x)
	})

	k, err := im.CalculateFFT()
	if err != nil {
		t.Fatalf("CalculateFFT failed: %v", err)
	}
	if k.Bounds() != bounds.NewBoundsI(0, 4, -4, 3) {
		t.Errorf("Unexpected k bounds %v", k.Bounds())
	}
	dk, _ := k.Scale()
	if math.Abs(dk-math.Pi/2) > 1e-12 {
		t.Errorf("Expected dk = pi/2, got %f", dk)
	}
	k0, _ := k.GetComplex(0, 0)
	if flux := im.Sum() * 0.25; cmplx.Abs(k0-complex(flux, 0)) > 1e-12 {
		t.Errorf("Expected k(0,0) = flux*dx^2 = %f, got %v", flux, k0)
	}

	back, err := k.CalculateInverseFFT()
	if err != nil {
		t.Fatalf("CalculateInverseFFT failed: %v", err)
	}
	if s, _ := back.Scale(); math.Abs(s-0.5) > 1e-12 {
		t.Errorf("Expected recovered scale 0.5, got %f", s)
	}
	sub, err := back.SubImage(b)
	if err != nil {
		t.Fatalf("SubImage failed: %v", err)
	}
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			if d := math.Abs(sub.RawValue(x, y) - im.RawValue(x, y)); d > 1e-10 {
				t.Errorf("(%d,%d): round trip error %g", x, y, d)
			}
		}
	}
	if v, _ := back.GetValue(-4, -4); math.Abs(v) > 1e-10 {
		t.Errorf("Expected zero padding at (-4,-4), got %g", v)
	}
}

// TestInverseFFTPadsAndWraps feeds a k image that is not in the target shape
func TestInverseFFTPadsAndWraps(t *testing.T) {
	// A delta function at the origin has a flat transform.
	k := NewFilled(bounds.NewBoundsI(0, 4, -4, 4), Complex128, 1)
	k.SetWCS(wcs.NewPixelScale(math.Pi / 4))
	x, err := k.CalculateInverseFFT()
	if err != nil {
		t.Fatalf("CalculateInverseFFT failed: %v", err)
	}
	if x.Bounds() != bounds.NewBoundsI(-4, 3, -4, 3) {
		t.Errorf("Unexpected bounds %v", x.Bounds())
	}
	dx, _ := x.Scale()
	// Total flux is k(0,0) = 1, so sum * dx^2 = 1.
	if flux := x.Sum() * dx * dx; math.Abs(flux-1) > 1e-10 {
		t.Errorf("Expected flux 1, got %f", flux)
	}
	peak, _ := x.GetValue(0, 0)
	for y := -4; y <= 3; y++ {
		for xx := -4; xx <= 3; xx++ {
			if v, _ := x.GetValue(xx, y); v > peak+1e-12 {
				t.Errorf("Expected the peak at the origin, (%d,%d) = %f > %f", xx, y, v, peak)
			}
		}
	}
}

// TestFFTPreconditions checks the documented failure modes
func TestFFTPreconditions(t *testing.T) {
	im := New(bounds.NewBoundsI(-2, 2, -2, 2), Float64)
	if _, err := im.CalculateFFT(); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue without a scale, got %v", err)
	}
	if _, err := New(bounds.BoundsI{}, Float64).CalculateFFT(); !errors.Is(err, gserrors.ErrUndefinedBounds) {
		t.Errorf("Expected ErrUndefinedBounds, got %v", err)
	}
	c := New(bounds.NewBoundsI(-2, 2, -2, 2), Complex128)
	c.SetWCS(wcs.NewPixelScale(1))
	if _, err := c.CalculateFFT(); !errors.Is(err, gserrors.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented for complex forward FFT, got %v", err)
	}
	k := New(bounds.NewBoundsI(1, 4, 1, 4), Complex128)
	k.SetWCS(wcs.NewPixelScale(1))
	if _, err := k.CalculateInverseFFT(); !errors.Is(err, gserrors.ErrBounds) {
		t.Errorf("Expected ErrBounds when (0,0) is missing, got %v", err)
	}
}

// BenchmarkCalculateFFT measures a 256x256 forward transform
func BenchmarkCalculateFFT(b *testing.B) {
	im := NewFilled(bounds.NewBoundsI(-128, 127, -128, 127), Float64, 1)
	im.SetWCS(wcs.NewPixelScale(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := im.CalculateFFT(); err != nil {
			b.Fatal(err)
		}
	}
}
