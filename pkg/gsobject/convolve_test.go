package gsobject

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// captureLogs routes package logging into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

// TestConvolutionProperties checks the combined flux, centroid and limits
func TestConvolutionProperties(t *testing.T) {
	a := Shift(mustGaussian(t, 1, 2), 1, 0)
	b := Shift(mustGaussian(t, 2, 3), 0, -1)
	c, err := Convolve(a, b)
	if err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if !closeTo(c.Flux(), 6, 1e-12) {
		t.Errorf("Expected flux 6, got %f", c.Flux())
	}
	if cen := c.Centroid(); !closeTo(cen.X, 1, 1e-12) || !closeTo(cen.Y, -1, 1e-12) {
		t.Errorf("Expected centroid (1,-1), got %v", cen)
	}
	if c.MaxK() != math.Min(a.MaxK(), b.MaxK()) {
		t.Errorf("Expected the smaller maxK, got %f", c.MaxK())
	}
	want := 1 / math.Sqrt(1/(a.StepK()*a.StepK())+1/(b.StepK()*b.StepK()))
	if !closeTo(c.StepK(), want, 1e-12) {
		t.Errorf("Expected stepK %f, got %f", want, c.StepK())
	}

	k := bounds.PositionD{X: 0.3, Y: 0.2}
	ka, _ := a.KValue(k)
	kb, _ := b.KValue(k)
	kc, _ := c.KValue(k)
	if d := kc - ka*kb; math.Hypot(real(d), imag(d)) > 1e-12 {
		t.Errorf("Expected the product of k values, got %v vs %v", kc, ka*kb)
	}

	// Two circular Gaussians convolve to a Gaussian of sigma sqrt(5).
	g1, g2 := mustGaussian(t, 1, 1), mustGaussian(t, 2, 1)
	gg, _ := Convolve(g1, g2)
	if !closeTo(gg.MaxSB(), 1/(2*math.Pi*5), 1e-12) {
		t.Errorf("Expected maxSB %f, got %f", 1/(2*math.Pi*5), gg.MaxSB())
	}
	if !gg.IsAxisymmetric() || gg.IsAnalyticX() || !gg.IsAnalyticK() {
		t.Errorf("Unexpected analytic flags for a Gaussian convolution")
	}
}

// TestConvolutionFlattens checks nested convolutions become one node
func TestConvolutionFlattens(t *testing.T) {
	g := mustGaussian(t, 1, 1)
	inner, _ := Convolve(g, g)
	outer, err := Convolve(inner, g)
	if err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if n := len(outer.Objects()); n != 3 {
		t.Errorf("Expected 3 flattened children, got %d", n)
	}
}

// TestConvolutionErrors checks the unsupported cases
func TestConvolutionErrors(t *testing.T) {
	if _, err := Convolve(); !errors.Is(err, gserrors.ErrIncompatibleValues) {
		t.Errorf("Expected ErrIncompatibleValues for no objects, got %v", err)
	}
	g := mustGaussian(t, 1, 1)
	if _, err := NewConvolution([]Object{g, g}, ConvolveOptions{RealSpace: RealSpaceTrue}); !errors.Is(err, gserrors.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented for real space, got %v", err)
	}
	c, _ := Convolve(g, g)
	if _, err := c.XValue(bounds.PositionD{}); !errors.Is(err, gserrors.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented for XValue, got %v", err)
	}
	img := raster.New(bounds.NewBoundsI(-2, 2, -2, 2), raster.Float64)
	if err := c.DrawReal(img, wcs.Identity, bounds.PositionD{}, 1); !errors.Is(err, gserrors.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented for DrawReal, got %v", err)
	}
}

// TestConvolutionHardEdgeWarning checks the warning for hard-edged inputs
func TestConvolutionHardEdgeWarning(t *testing.T) {
	buf := captureLogs(t)
	b1, _ := NewBox(1, 1, 1)
	b2, _ := NewBox(2, 2, 1)
	if _, err := Convolve(b1, b2); err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if !strings.Contains(buf.String(), "real space") {
		t.Errorf("Expected a real-space warning, got %q", buf.String())
	}

	buf.Reset()
	if _, err := Convolve(b1, b2, b1); err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if !strings.Contains(buf.String(), "ringing") {
		t.Errorf("Expected a ringing warning, got %q", buf.String())
	}

	buf.Reset()
	if _, err := NewConvolution([]Object{b1, b2}, ConvolveOptions{RealSpace: RealSpaceFalse}); err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no warning with real space off, got %q", buf.String())
	}
}

// TestConvolutionPositiveNegative checks the flux split with a negative child
func TestConvolutionPositiveNegative(t *testing.T) {
	pos := mustGaussian(t, 1, 3)
	neg := mustGaussian(t, 2, -2)
	sum, err := NewSum(pos, neg)
	if err != nil {
		t.Fatalf("NewSum failed: %v", err)
	}
	c, _ := Convolve(sum, mustGaussian(t, 1, -1))
	// (3 - 2) convolved with -1: positive part 2, negative part 3.
	if c.PositiveFlux() != 2 || c.NegativeFlux() != 3 {
		t.Errorf("Expected positive 2 negative 3, got %f %f", c.PositiveFlux(), c.NegativeFlux())
	}
	if !closeTo(c.Flux(), c.PositiveFlux()-c.NegativeFlux(), 1e-12) {
		t.Errorf("Flux should equal positive minus negative, got %f", c.Flux())
	}
	if !closeTo(FluxPerPhoton(c), -0.2, 1e-12) {
		t.Errorf("Expected flux per photon -0.2, got %f", FluxPerPhoton(c))
	}
}

// TestConvolutionGSParams checks gsparams combination and propagation
func TestConvolutionGSParams(t *testing.T) {
	g := mustGaussian(t, 1, 1)
	gs := DefaultGSParams()
	gs.FoldingThreshold = 1e-4
	strict := g.WithGSParams(gs)

	c, _ := Convolve(g, strict)
	if c.GSParams().FoldingThreshold != 1e-4 {
		t.Errorf("Expected the stricter folding threshold, got %g", c.GSParams().FoldingThreshold)
	}
	for i, o := range c.Objects() {
		if o.GSParams() != c.GSParams() {
			t.Errorf("Child %d did not receive the combined gsparams", i)
		}
	}

	kept, _ := NewConvolution([]Object{g, strict}, ConvolveOptions{KeepChildGSParams: true})
	if kept.Objects()[0].GSParams() != DefaultGSParams() {
		t.Errorf("KeepChildGSParams should leave children alone")
	}

	override := DefaultGSParams()
	override.MaximumFFTSize = 1024
	o, _ := NewConvolution([]Object{g, strict}, ConvolveOptions{GSParams: &override})
	if o.GSParams() != override {
		t.Errorf("Expected the explicit gsparams, got %+v", o.GSParams())
	}
}

// TestConvolutionDrawKImage checks the k image is the product of the children
func TestConvolutionDrawKImage(t *testing.T) {
	a := Shift(mustGaussian(t, 1, 2), 0.5, 0)
	b := mustGaussian(t, 1.5, 1)
	c, _ := Convolve(a, b)

	img := raster.New(bounds.NewBoundsI(-4, 4, -4, 4), raster.Complex128)
	img.SetWCS(wcs.NewPixelScale(0.25))
	if err := c.DrawKImage(img, wcs.Identity); err != nil {
		t.Fatalf("DrawKImage failed: %v", err)
	}
	for _, p := range []bounds.PositionI{{X: 0, Y: 0}, {X: 3, Y: -2}, {X: -4, Y: 4}} {
		want, _ := c.KValue(bounds.PositionD{X: 0.25 * float64(p.X), Y: 0.25 * float64(p.Y)})
		got, _ := img.GetComplex(p.X, p.Y)
		if d := got - want; math.Hypot(real(d), imag(d)) > 1e-12 {
			t.Errorf("At %v expected %v, got %v", p, want, got)
		}
	}
}

// TestConvolutionShoot checks that shot variances add
func TestConvolutionShoot(t *testing.T) {
	c, _ := Convolve(mustGaussian(t, 1, 2), mustGaussian(t, 2, 1.5))
	photons := photon.NewArray(50000)
	if err := c.Shoot(photons, random.NewBaseDeviate(21)); err != nil {
		t.Fatalf("Shoot failed: %v", err)
	}
	if !closeTo(photons.TotalFlux(), 3, 1e-9) {
		t.Errorf("Expected total flux 3, got %f", photons.TotalFlux())
	}
	var vx float64
	for i := range photons.Size() {
		vx += photons.X[i] * photons.X[i]
	}
	vx /= float64(photons.Size())
	if !closeTo(vx, 5, 0.15) {
		t.Errorf("Expected x variance near 5, got %f", vx)
	}
}

// TestDeconvolution checks inversion, collapse and the unsupported paths
func TestDeconvolution(t *testing.T) {
	g := mustGaussian(t, 1, 4)
	d := Deconvolve(g)
	if !closeTo(d.Flux(), 0.25, 1e-12) {
		t.Errorf("Expected flux 1/4, got %f", d.Flux())
	}
	if back := Deconvolve(d); !back.Equal(g) {
		t.Errorf("Deconvolving twice should give back the original, got %T", back)
	}

	k := bounds.PositionD{X: 0.5}
	gk, _ := g.KValue(k)
	dk, _ := d.KValue(k)
	if !closeTo(real(dk), 1/real(gk), 1e-12) {
		t.Errorf("Expected 1/k value %f, got %v", 1/real(gk), dk)
	}
	// Far out the amplitude is clamped instead of blowing up.
	far, _ := d.KValue(bounds.PositionD{X: 100})
	limit := 1 / (4 * g.GSParams().KValueAccuracy)
	if !closeTo(real(far), limit, 1e-6*limit) {
		t.Errorf("Expected clamped amplitude %g, got %v", limit, far)
	}

	shifted := Deconvolve(Shift(g, 1, 2))
	if c := shifted.Centroid(); c.X != -1 || c.Y != -2 {
		t.Errorf("Expected negated centroid, got %v", c)
	}

	if _, err := d.XValue(bounds.PositionD{}); !errors.Is(err, gserrors.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented for XValue, got %v", err)
	}
	if err := d.Shoot(photon.NewArray(10), random.NewBaseDeviate(1)); !errors.Is(err, gserrors.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented for Shoot, got %v", err)
	}

	// Convolving by the inverse recovers the other factor in k space.
	psf := mustGaussian(t, 1, 1)
	gal := mustGaussian(t, 2, 5)
	obs, _ := Convolve(gal, psf)
	rec, _ := Convolve(obs, Deconvolve(psf))
	rk, _ := rec.KValue(k)
	galk, _ := gal.KValue(k)
	if !closeTo(real(rk), real(galk), 1e-10) {
		t.Errorf("Expected recovered k value %f, got %v", real(galk), rk)
	}
}

// TestDeconvolutionDrawKImage checks zeroing beyond maxK
func TestDeconvolutionDrawKImage(t *testing.T) {
	g := mustGaussian(t, 1, 1)
	d := Deconvolve(g)
	img := raster.New(bounds.NewBoundsI(0, 8, -8, 8), raster.Complex128)
	dk := g.MaxK() / 5
	img.SetWCS(wcs.NewPixelScale(dk))
	if err := d.DrawKImage(img, wcs.Identity); err != nil {
		t.Fatalf("DrawKImage failed: %v", err)
	}
	if v, _ := img.GetComplex(8, 0); v != 0 {
		t.Errorf("Expected 0 beyond maxK, got %v", v)
	}
	want, _ := d.KValue(bounds.PositionD{X: 2 * dk, Y: dk})
	if v, _ := img.GetComplex(2, 1); !closeTo(real(v), real(want), 1e-9*real(want)) {
		t.Errorf("Expected %v inside maxK, got %v", want, v)
	}
}
