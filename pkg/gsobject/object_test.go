package gsobject

import (
	"errors"
	"math"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/wcs"
)

func closeTo(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func mustGaussian(t testing.TB, sigma, flux float64) *Gaussian {
	t.Helper()
	g, err := NewGaussian(sigma, flux)
	if err != nil {
		t.Fatalf("NewGaussian failed: %v", err)
	}
	return g
}

// TestGaussianProperties checks flux, size and the k-space limits
func TestGaussianProperties(t *testing.T) {
	g := mustGaussian(t, 2, 10)
	if g.Flux() != 10 || g.Sigma() != 2 {
		t.Errorf("Expected flux 10 sigma 2, got %f %f", g.Flux(), g.Sigma())
	}
	if !closeTo(g.HalfLightRadius(), 2*1.1774100225154747, 1e-12) {
		t.Errorf("Unexpected half-light radius %f", g.HalfLightRadius())
	}
	v, _ := g.XValue(bounds.PositionD{})
	if !closeTo(v, 10/(8*math.Pi), 1e-12) || !closeTo(g.MaxSB(), v, 1e-12) {
		t.Errorf("Expected central SB %f, got %f (maxSB %f)", 10/(8*math.Pi), v, g.MaxSB())
	}
	k, _ := g.KValue(bounds.PositionD{})
	if real(k) != 10 {
		t.Errorf("Expected k(0)=flux, got %v", k)
	}
	// At maxK the amplitude falls to the threshold.
	kmax, _ := g.KValue(bounds.PositionD{X: g.MaxK()})
	if !closeTo(real(kmax)/10, g.GSParams().MaxKThreshold, 1e-12) {
		t.Errorf("Expected k(maxK)/flux = %g, got %g", g.GSParams().MaxKThreshold, real(kmax)/10)
	}
	if _, err := NewGaussian(0, 1); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for sigma 0, got %v", err)
	}
	if !g.Equal(mustGaussian(t, 2, 10)) || g.Equal(mustGaussian(t, 2, 11)) {
		t.Errorf("Gaussian equality is wrong")
	}
}

// TestBoxAndPixel checks the hard-edged profiles
func TestBoxAndPixel(t *testing.T) {
	b, err := NewBox(2, 4, 8)
	if err != nil {
		t.Fatalf("NewBox failed: %v", err)
	}
	if v, _ := b.XValue(bounds.PositionD{X: 0.9, Y: 1.9}); v != 1 {
		t.Errorf("Expected SB 1 inside the box, got %f", v)
	}
	if v, _ := b.XValue(bounds.PositionD{X: 1.1}); v != 0 {
		t.Errorf("Expected 0 outside the box, got %f", v)
	}
	if !b.HasHardEdges() || b.StepK() != math.Pi/4 {
		t.Errorf("Unexpected box properties: hard %v stepK %f", b.HasHardEdges(), b.StepK())
	}
	p, err := NewPixel(0.5)
	if err != nil {
		t.Fatalf("NewPixel failed: %v", err)
	}
	if p.Flux() != 1 || p.Scale() != 0.5 {
		t.Errorf("Expected unit-flux pixel of scale 0.5, got %f %f", p.Flux(), p.Scale())
	}
	if _, err := NewPixel(-1); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for a negative pixel, got %v", err)
	}
}

// TestTransformations checks the flux and geometry of the transform helpers
func TestTransformations(t *testing.T) {
	g := mustGaussian(t, 1, 5)

	shifted := Shift(g, 1.5, -2)
	if c := shifted.Centroid(); c.X != 1.5 || c.Y != -2 {
		t.Errorf("Expected centroid (1.5,-2), got %v", c)
	}
	v, _ := shifted.XValue(bounds.PositionD{X: 1.5, Y: -2})
	v0, _ := g.XValue(bounds.PositionD{})
	if !closeTo(v, v0, 1e-12) {
		t.Errorf("Shifted peak should match original peak, got %f vs %f", v, v0)
	}

	scaled, err := WithFlux(g, 20)
	if err != nil {
		t.Fatalf("WithFlux failed: %v", err)
	}
	if !closeTo(scaled.Flux(), 20, 1e-12) {
		t.Errorf("Expected flux 20, got %f", scaled.Flux())
	}

	dilated, _ := Dilate(g, 2)
	expanded, _ := Expand(g, 2)
	if !closeTo(dilated.Flux(), 5, 1e-12) || !closeTo(expanded.Flux(), 20, 1e-12) {
		t.Errorf("Dilate keeps flux and expand scales it by 4, got %f %f", dilated.Flux(), expanded.Flux())
	}
	if !closeTo(dilated.MaxK(), g.MaxK()/2, 1e-12) || !closeTo(dilated.StepK(), g.StepK()/2, 1e-12) {
		t.Errorf("Dilation should halve maxK and stepK")
	}
	if !dilated.IsAxisymmetric() {
		t.Errorf("A dilated Gaussian is still axisymmetric")
	}

	sheared, err := Shear(g, 0.3, 0.1)
	if err != nil {
		t.Fatalf("Shear failed: %v", err)
	}
	if !closeTo(sheared.Flux(), 5, 1e-12) || sheared.IsAxisymmetric() {
		t.Errorf("Shear should keep flux and break symmetry")
	}
	jac := sheared.(*Transformation).Jacobian()
	if !closeTo(jac.Det(), 1, 1e-12) {
		t.Errorf("Shear jacobian should preserve area, det %f", jac.Det())
	}
	if _, err := Shear(g, 0.8, 0.8); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for |g|>=1, got %v", err)
	}
	if _, err := Magnify(g, -1); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for negative magnification, got %v", err)
	}
	if _, err := Transform(g, 1, 2, 2, 4); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for a singular jacobian, got %v", err)
	}

	rotated := Rotate(Shift(g, 1, 0), math.Pi/2)
	if c := rotated.Centroid(); !closeTo(c.X, 0, 1e-12) || !closeTo(c.Y, 1, 1e-12) {
		t.Errorf("Expected rotated centroid (0,1), got %v", c)
	}
}

// TestNestedTransformFolds checks that transforms of transforms collapse
func TestNestedTransformFolds(t *testing.T) {
	g := mustGaussian(t, 1, 2)
	inner := mustTransform(g, wcs.Diag(2, 1), bounds.PositionD{X: 1}, 3)
	outer, err := NewTransformation(inner, wcs.Diag(1, 2), bounds.PositionD{Y: 1}, 0.5)
	if err != nil {
		t.Fatalf("NewTransformation failed: %v", err)
	}
	if outer.Original() != Object(g) {
		t.Fatalf("Expected the nested transform to wrap the Gaussian directly, got %T", outer.Original())
	}
	if outer.Jacobian() != wcs.Diag(2, 2) {
		t.Errorf("Expected combined jacobian diag(2,2), got %v", outer.Jacobian())
	}
	if outer.Offset() != (bounds.PositionD{X: 1, Y: 1}) {
		t.Errorf("Expected combined offset (1,1), got %v", outer.Offset())
	}
	if !closeTo(outer.Flux(), 3, 1e-12) {
		t.Errorf("Expected flux 2*3*0.5 = 3, got %f", outer.Flux())
	}

	// The folded node must evaluate like the two-step composition.
	p := bounds.PositionD{X: 0.7, Y: -0.4}
	want, _ := inner.XValue(wcs.Diag(1, 0.5).Apply(p.Sub(bounds.PositionD{Y: 1})))
	want *= 0.5 / 2
	got, _ := outer.XValue(p)
	if !closeTo(got, want, 1e-12) {
		t.Errorf("Expected %g, got %g", want, got)
	}
}

// TestTransformKValue checks the Fourier shift theorem
func TestTransformKValue(t *testing.T) {
	g := mustGaussian(t, 1, 1)
	s := Shift(g, 0.5, 0)
	k := bounds.PositionD{X: 2}
	v, _ := s.KValue(k)
	v0, _ := g.KValue(k)
	if !closeTo(real(v), real(v0)*math.Cos(1), 1e-12) || !closeTo(imag(v), -real(v0)*math.Sin(1), 1e-12) {
		t.Errorf("Unexpected shifted k value %v", v)
	}
}

// TestGoodImageSize checks the size rounding
func TestGoodImageSize(t *testing.T) {
	g := mustGaussian(t, 1, 1)
	n := GoodImageSize(g, 0.2)
	want := int(math.Ceil(2 * math.Pi / (0.2 * g.StepK())))
	want += want % 2
	if n != want || n%2 != 0 {
		t.Errorf("Expected even size %d, got %d", want, n)
	}
	if GoodImageSize(g, 1e6) != 2 {
		t.Errorf("Expected the minimum size 2 for a huge scale")
	}
}

// TestGSParams checks validation and combination
func TestGSParams(t *testing.T) {
	d := DefaultGSParams()
	if err := d.Validate(); err != nil {
		t.Errorf("Default GSParams should validate, got %v", err)
	}
	bad := d
	bad.MaximumFFTSize = 64
	if err := bad.Validate(); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for maximum < minimum, got %v", err)
	}
	bad = d
	bad.FoldingThreshold = 2
	if err := bad.Validate(); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for a threshold above 1, got %v", err)
	}

	a, b := d, d
	a.MaximumFFTSize = 16384
	b.FoldingThreshold = 1e-3
	c := CombineGSParams(a, b)
	if c.MaximumFFTSize != 16384 || c.FoldingThreshold != 1e-3 {
		t.Errorf("Expected the stricter of each value, got %+v", c)
	}
}
