package wcs

import (
	"errors"
	"math"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-12 }

func nearPos(a, b bounds.PositionD) bool { return near(a.X, b.X) && near(a.Y, b.Y) }

// TestPixelScale checks the simplest map and its origin shift
func TestPixelScale(t *testing.T) {
	w := NewPixelScale(0.2)
	if !w.IsPixelScale() || !w.IsLocal() {
		t.Errorf("PixelScale should be a local pixel scale")
	}
	if !near(w.PixelArea(), 0.04) {
		t.Errorf("Expected pixel area 0.04, got %f", w.PixelArea())
	}
	p := bounds.PositionD{X: 10, Y: -5}
	if got := w.ToImage(w.ToWorld(p)); !nearPos(got, p) {
		t.Errorf("Round trip failed: %v -> %v", p, got)
	}

	shifted := w.ShiftOrigin(bounds.PositionD{X: 3, Y: 4})
	if shifted.IsLocal() {
		t.Errorf("Shifted WCS should not be local")
	}
	if got := shifted.ToWorld(bounds.PositionD{X: 3, Y: 4}); !nearPos(got, bounds.PositionD{}) {
		t.Errorf("Expected new origin to map to world zero, got %v", got)
	}
	if !shifted.Local(bounds.PositionD{}).Equal(w) {
		t.Errorf("Local map of OffsetWCS should equal the original scale")
	}
}

// TestJacobianAlgebra covers products, inverse and singular values
func TestJacobianAlgebra(t *testing.T) {
	j := NewJacobian(2, 1, 0.5, 3)
	inv, err := j.Inverse()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	id := j.Mul(inv)
	if !near(id.DUDX, 1) || !near(id.DVDY, 1) || !near(id.DUDY, 0) || !near(id.DVDX, 0) {
		t.Errorf("Expected identity, got %v", id)
	}
	if !near(j.Det(), 5.5) {
		t.Errorf("Expected det 5.5, got %f", j.Det())
	}

	major, minor := Diag(3, -2).MajorMinor()
	if !near(major, 3) || !near(minor, 2) {
		t.Errorf("Expected (3,2), got (%f,%f)", major, minor)
	}

	k := bounds.PositionD{X: 0.3, Y: -0.7}
	x := bounds.PositionD{X: 1.5, Y: 2.5}
	lhs := j.ApplyTranspose(k)
	rhs := j.Apply(x)
	if !near(lhs.X*x.X+lhs.Y*x.Y, k.X*rhs.X+k.Y*rhs.Y) {
		t.Errorf("Transpose does not satisfy <J^T k, x> = <k, J x>")
	}

	_, err = NewJacobian(1, 2, 2, 4).Inverse()
	if !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for singular jacobian, got %v", err)
	}
}

// TestAffineWCS verifies the shifted general map
func TestAffineWCS(t *testing.T) {
	j := NewJacobian(0.2, 0.05, -0.05, 0.2)
	a := j.ShiftOrigin(bounds.PositionD{X: 1, Y: 1})
	p := bounds.PositionD{X: 7, Y: -2}
	if got := a.ToImage(a.ToWorld(p)); !nearPos(got, p) {
		t.Errorf("Round trip failed: %v -> %v", p, got)
	}
	if !near(a.PixelArea(), j.PixelArea()) {
		t.Errorf("Pixel area should not depend on the origin")
	}
	if !near(MinLinearScale(a), 0.2*math.Sqrt(1+0.0625)) {
		t.Errorf("Unexpected min linear scale %f", MinLinearScale(a))
	}
}
