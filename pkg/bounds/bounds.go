// Package bounds provides the integer and real axis-aligned rectangles that
// anchor every pixel buffer to a coordinate frame.
//
// A bounds is either defined (xmin <= xmax and ymin <= ymax) or undefined.
// The undefined value is the zero value: all extrema zero and the defined
// flag false. Undefined bounds absorb under Intersect and are the identity
// under Union.
package bounds

import (
	"fmt"
	"math"

	"gsrender/pkg/gserrors"
)

// BoundsI is an integer rectangle. Both edge pixels are inside.
type BoundsI struct {
	XMin, XMax, YMin, YMax int
	defined                bool
}

// NewBoundsI returns the bounds [xmin,xmax] x [ymin,ymax]. If the extrema
// are out of order the undefined bounds is returned.
func NewBoundsI(xmin, xmax, ymin, ymax int) BoundsI {
	if xmin > xmax || ymin > ymax {
		return BoundsI{}
	}
	return BoundsI{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax, defined: true}
}

// BoundsIFromFloats builds a BoundsI from real extrema, which must all be
// integral.
func BoundsIFromFloats(xmin, xmax, ymin, ymax float64) (BoundsI, error) {
	for _, v := range []float64{xmin, xmax, ymin, ymax} {
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return BoundsI{}, fmt.Errorf("%w: BoundsI must be initialized with integer values, got %v",
				gserrors.ErrValue, v)
		}
	}
	return NewBoundsI(int(xmin), int(xmax), int(ymin), int(ymax)), nil
}

// BoundsIFromPosition returns the single-pixel bounds containing p.
func BoundsIFromPosition(p PositionI) BoundsI {
	return NewBoundsI(p.X, p.X, p.Y, p.Y)
}

// BoundsIFromPositions returns the smallest bounds containing p1 and p2.
func BoundsIFromPositions(p1, p2 PositionI) BoundsI {
	return NewBoundsI(min(p1.X, p2.X), max(p1.X, p2.X), min(p1.Y, p2.Y), max(p1.Y, p2.Y))
}

// IsDefined reports whether b is a defined rectangle.
func (b BoundsI) IsDefined() bool { return b.defined }

// Includes reports whether the pixel p lies inside b.
func (b BoundsI) Includes(p PositionI) bool {
	return b.defined && b.XMin <= p.X && p.X <= b.XMax && b.YMin <= p.Y && p.Y <= b.YMax
}

// IncludesPoint reports whether the real point (x,y) lies inside b.
func (b BoundsI) IncludesPoint(x, y float64) bool {
	return b.defined && float64(b.XMin) <= x && x <= float64(b.XMax) &&
		float64(b.YMin) <= y && y <= float64(b.YMax)
}

// IncludesBounds reports whether o lies fully inside b. Undefined bounds
// never include or are included.
func (b BoundsI) IncludesBounds(o BoundsI) bool {
	return b.defined && o.defined &&
		b.XMin <= o.XMin && b.XMax >= o.XMax && b.YMin <= o.YMin && b.YMax >= o.YMax
}

// Intersect returns the overlap of b and o.
func (b BoundsI) Intersect(o BoundsI) BoundsI {
	if !b.defined || !o.defined {
		return BoundsI{}
	}
	return NewBoundsI(max(b.XMin, o.XMin), min(b.XMax, o.XMax), max(b.YMin, o.YMin), min(b.YMax, o.YMax))
}

// Union returns the smallest bounds containing both b and o.
func (b BoundsI) Union(o BoundsI) BoundsI {
	switch {
	case !o.defined:
		return b
	case !b.defined:
		return o
	}
	return NewBoundsI(min(b.XMin, o.XMin), max(b.XMax, o.XMax), min(b.YMin, o.YMin), max(b.YMax, o.YMax))
}

// UnionPosition returns the smallest bounds containing b and p.
func (b BoundsI) UnionPosition(p PositionI) BoundsI {
	if !b.defined {
		return BoundsIFromPosition(p)
	}
	return NewBoundsI(min(b.XMin, p.X), max(b.XMax, p.X), min(b.YMin, p.Y), max(b.YMax, p.Y))
}

// WithBorder grows b by dx on the left and right and dy on the top and
// bottom. Negative values shrink.
func (b BoundsI) WithBorder(dx, dy int) BoundsI {
	if !b.defined {
		return b
	}
	return NewBoundsI(b.XMin-dx, b.XMax+dx, b.YMin-dy, b.YMax+dy)
}

// Expand scales the extent of b about its center by the given factors.
// The border growth is rounded up so the result stays integral.
func (b BoundsI) Expand(factorX, factorY float64) BoundsI {
	if !b.defined {
		return b
	}
	dx := math.Ceil(float64(b.XMax-b.XMin) * 0.5 * (factorX - 1))
	dy := math.Ceil(float64(b.YMax-b.YMin) * 0.5 * (factorY - 1))
	return b.WithBorder(int(dx), int(dy))
}

// Shift returns b translated by delta.
func (b BoundsI) Shift(delta PositionI) BoundsI {
	if !b.defined {
		return b
	}
	return NewBoundsI(b.XMin+delta.X, b.XMax+delta.X, b.YMin+delta.Y, b.YMax+delta.Y)
}

// Area is the number of pixels in b, counting both edges.
func (b BoundsI) Area() int {
	if !b.defined {
		return 0
	}
	return (b.XMax - b.XMin + 1) * (b.YMax - b.YMin + 1)
}

// NumpyShape returns the buffer shape (rows, cols) for b.
func (b BoundsI) NumpyShape() (rows, cols int) {
	if !b.defined {
		return 0, 0
	}
	return b.YMax - b.YMin + 1, b.XMax - b.XMin + 1
}

// Center is the central pixel of b. For even extents it is the pixel just
// up and to the right of the true center. The zero position is returned for
// undefined bounds.
func (b BoundsI) Center() PositionI {
	if !b.defined {
		return PositionI{}
	}
	return PositionI{
		X: b.XMin + floorDiv(b.XMax-b.XMin+1, 2),
		Y: b.YMin + floorDiv(b.YMax-b.YMin+1, 2),
	}
}

// TrueCenter is ((xmin+xmax)/2, (ymin+ymax)/2), not necessarily integral.
func (b BoundsI) TrueCenter() PositionD {
	if !b.defined {
		return PositionD{}
	}
	return PositionD{float64(b.XMin+b.XMax) / 2, float64(b.YMin+b.YMax) / 2}
}

// Origin is the lower-left pixel of b.
func (b BoundsI) Origin() PositionI { return PositionI{b.XMin, b.YMin} }

// ToD converts b to real bounds with the same extrema.
func (b BoundsI) ToD() BoundsD {
	if !b.defined {
		return BoundsD{}
	}
	return NewBoundsD(float64(b.XMin), float64(b.XMax), float64(b.YMin), float64(b.YMax))
}

func (b BoundsI) String() string {
	if !b.defined {
		return "BoundsI()"
	}
	return fmt.Sprintf("BoundsI(%d,%d,%d,%d)", b.XMin, b.XMax, b.YMin, b.YMax)
}

func floorDiv(a, n int) int {
	q := a / n
	if (a%n != 0) && ((a < 0) != (n < 0)) {
		q--
	}
	return q
}
