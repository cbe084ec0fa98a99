package bounds

import (
	"errors"
	"testing"

	"gsrender/pkg/gserrors"
)

// TestNewBoundsI verifies construction and the undefined state
func TestNewBoundsI(t *testing.T) {
	b := NewBoundsI(1, 10, 2, 5)
	if !b.IsDefined() {
		t.Fatalf("Expected defined bounds, got %v", b)
	}
	if b.Area() != 40 {
		t.Errorf("Expected area 40, got %d", b.Area())
	}
	rows, cols := b.NumpyShape()
	if rows != 4 || cols != 10 {
		t.Errorf("Expected shape (4,10), got (%d,%d)", rows, cols)
	}

	bad := NewBoundsI(5, 4, 0, 0)
	if bad.IsDefined() {
		t.Errorf("Expected undefined bounds for xmin > xmax")
	}
	if bad != (BoundsI{}) {
		t.Errorf("Expected canonical undefined value, got %+v", bad)
	}
	if rows, cols := bad.NumpyShape(); rows != 0 || cols != 0 {
		t.Errorf("Expected shape (0,0) for undefined bounds, got (%d,%d)", rows, cols)
	}
	if bad.Includes(PositionI{0, 0}) {
		t.Errorf("Undefined bounds should include nothing")
	}
}

// TestBoundsIFromFloats checks the integrality requirement
func TestBoundsIFromFloats(t *testing.T) {
	b, err := BoundsIFromFloats(1, 4, -2, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b != NewBoundsI(1, 4, -2, 3) {
		t.Errorf("Expected BoundsI(1,4,-2,3), got %v", b)
	}

	_, err = BoundsIFromFloats(1.5, 4, 0, 3)
	if !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for non-integral extent, got %v", err)
	}
}

// TestCenter verifies the up-and-right rounding of the integer center
func TestCenter(t *testing.T) {
	cases := []struct {
		b    BoundsI
		want PositionI
		tc   PositionD
	}{
		{NewBoundsI(1, 10, 1, 10), PositionI{6, 6}, PositionD{5.5, 5.5}},
		{NewBoundsI(1, 9, 1, 9), PositionI{5, 5}, PositionD{5, 5}},
		{NewBoundsI(-4, 3, -3, 3), PositionI{0, 0}, PositionD{-0.5, 0}},
		{NewBoundsI(-5, -2, 0, 0), PositionI{-3, 0}, PositionD{-3.5, 0}},
	}
	for _, c := range cases {
		if got := c.b.Center(); got != c.want {
			t.Errorf("%v: expected center %v, got %v", c.b, c.want, got)
		}
		if got := c.b.TrueCenter(); got != c.tc {
			t.Errorf("%v: expected true center %v, got %v", c.b, c.tc, got)
		}
	}
	if got := (BoundsI{}).Center(); got != (PositionI{}) {
		t.Errorf("Expected zero center for undefined bounds, got %v", got)
	}
}

// TestCenterIncluded checks that the center pixel lies inside every
// defined bounds, for odd and even sizes and negative origins
func TestCenterIncluded(t *testing.T) {
	cases := []struct {
		xmin, ymin int
	}{
		{1, 1}, {0, 0}, {-1, -1}, {-7, 2}, {3, -8}, {-100, -51},
	}
	for _, c := range cases {
		for nx := 1; nx <= 6; nx++ {
			for ny := 1; ny <= 6; ny++ {
				b := NewBoundsI(c.xmin, c.xmin+nx-1, c.ymin, c.ymin+ny-1)
				if !b.Includes(b.Center()) {
					t.Errorf("%v: center %v is outside the bounds", b, b.Center())
				}
				if tc := b.TrueCenter(); !b.IncludesPoint(tc.X, tc.Y) {
					t.Errorf("%v: true center %v is outside the bounds", b, tc)
				}
			}
		}
	}
}

// TestIntersectUnion checks the undefined absorbing and identity rules
func TestIntersectUnion(t *testing.T) {
	a := NewBoundsI(1, 10, 1, 10)
	b := NewBoundsI(5, 15, -3, 4)
	u := BoundsI{}

	if got := a.Intersect(b); got != NewBoundsI(5, 10, 1, 4) {
		t.Errorf("Expected BoundsI(5,10,1,4), got %v", got)
	}
	if got := a.Intersect(NewBoundsI(20, 30, 1, 10)); got.IsDefined() {
		t.Errorf("Expected undefined for disjoint bounds, got %v", got)
	}
	if got := a.Intersect(u); got.IsDefined() {
		t.Errorf("Expected undefined to absorb, got %v", got)
	}
	if got := a.Union(b); got != NewBoundsI(1, 15, -3, 10) {
		t.Errorf("Expected BoundsI(1,15,-3,10), got %v", got)
	}
	if got := a.Union(u); got != a {
		t.Errorf("Expected undefined to be the union identity, got %v", got)
	}
	if got := u.UnionPosition(PositionI{3, 4}); got != NewBoundsI(3, 3, 4, 4) {
		t.Errorf("Expected single pixel bounds, got %v", got)
	}
}

// TestIncludes covers point and bounds containment
func TestIncludes(t *testing.T) {
	b := NewBoundsI(1, 10, 1, 10)
	if !b.Includes(PositionI{1, 10}) || b.Includes(PositionI{0, 5}) {
		t.Errorf("Edge pixel containment is wrong for %v", b)
	}
	if !b.IncludesPoint(10, 1) || b.IncludesPoint(10.5, 1) {
		t.Errorf("Point containment is wrong for %v", b)
	}
	if !b.IncludesBounds(NewBoundsI(2, 3, 4, 5)) || b.IncludesBounds(NewBoundsI(0, 3, 4, 5)) {
		t.Errorf("Bounds containment is wrong for %v", b)
	}
	if b.IncludesBounds(BoundsI{}) {
		t.Errorf("Undefined bounds should never be included")
	}
}

// TestExpandShiftBorder checks the derived-rectangle helpers
func TestExpandShiftBorder(t *testing.T) {
	b := NewBoundsI(0, 9, 0, 9)
	if got := b.Expand(1.5, 1.5); got != NewBoundsI(-3, 12, -3, 12) {
		t.Errorf("Expected ceil growth to BoundsI(-3,12,-3,12), got %v", got)
	}
	if got := b.WithBorder(2, 1); got != NewBoundsI(-2, 11, -1, 10) {
		t.Errorf("Expected BoundsI(-2,11,-1,10), got %v", got)
	}
	if got := b.Shift(PositionI{-5, 3}); got != NewBoundsI(-5, 4, 3, 12) {
		t.Errorf("Expected BoundsI(-5,4,3,12), got %v", got)
	}
	if got := b.Origin(); got != (PositionI{0, 0}) {
		t.Errorf("Expected origin (0,0), got %v", got)
	}
}

// TestBoundsD covers the real-valued rectangle
func TestBoundsD(t *testing.T) {
	b := NewBoundsD(0, 2, -1, 3)
	if b.Area() != 8 {
		t.Errorf("Expected area 8, got %f", b.Area())
	}
	if c := b.Center(); c != (PositionD{1, 1}) {
		t.Errorf("Expected center (1,1), got %v", c)
	}
	if got := b.Expand(2, 1); got != NewBoundsD(-1, 3, -1, 3) {
		t.Errorf("Expected BoundsD(-1,3,-1,3), got %v", got)
	}
	if got := b.Intersect(NewBoundsD(5, 6, 0, 1)); got.IsDefined() {
		t.Errorf("Expected undefined intersection, got %v", got)
	}
	if got := NewBoundsI(1, 3, 1, 3).ToD(); got != NewBoundsD(1, 3, 1, 3) {
		t.Errorf("Expected BoundsD(1,3,1,3), got %v", got)
	}
}
