package bounds

import "fmt"

// BoundsD is a real-valued rectangle.
type BoundsD struct {
	XMin, XMax, YMin, YMax float64
	defined                bool
}

// NewBoundsD returns the bounds [xmin,xmax] x [ymin,ymax], or the undefined
// bounds if the extrema are out of order.
func NewBoundsD(xmin, xmax, ymin, ymax float64) BoundsD {
	if xmin > xmax || ymin > ymax {
		return BoundsD{}
	}
	return BoundsD{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax, defined: true}
}

// BoundsDFromPosition returns the degenerate bounds at p.
func BoundsDFromPosition(p PositionD) BoundsD {
	return NewBoundsD(p.X, p.X, p.Y, p.Y)
}

// BoundsDFromPositions returns the smallest bounds containing p1 and p2.
func BoundsDFromPositions(p1, p2 PositionD) BoundsD {
	return NewBoundsD(min(p1.X, p2.X), max(p1.X, p2.X), min(p1.Y, p2.Y), max(p1.Y, p2.Y))
}

// IsDefined reports whether b is a defined rectangle.
func (b BoundsD) IsDefined() bool { return b.defined }

// Includes reports whether p lies inside b.
func (b BoundsD) Includes(p PositionD) bool {
	return b.defined && b.XMin <= p.X && p.X <= b.XMax && b.YMin <= p.Y && p.Y <= b.YMax
}

// IncludesBounds reports whether o lies fully inside b.
func (b BoundsD) IncludesBounds(o BoundsD) bool {
	return b.defined && o.defined &&
		b.XMin <= o.XMin && b.XMax >= o.XMax && b.YMin <= o.YMin && b.YMax >= o.YMax
}

// Intersect returns the overlap of b and o.
func (b BoundsD) Intersect(o BoundsD) BoundsD {
	if !b.defined || !o.defined {
		return BoundsD{}
	}
	return NewBoundsD(max(b.XMin, o.XMin), min(b.XMax, o.XMax), max(b.YMin, o.YMin), min(b.YMax, o.YMax))
}

// Union returns the smallest bounds containing both b and o.
func (b BoundsD) Union(o BoundsD) BoundsD {
	switch {
	case !o.defined:
		return b
	case !b.defined:
		return o
	}
	return NewBoundsD(min(b.XMin, o.XMin), max(b.XMax, o.XMax), min(b.YMin, o.YMin), max(b.YMax, o.YMax))
}

// UnionPosition returns the smallest bounds containing b and p.
func (b BoundsD) UnionPosition(p PositionD) BoundsD {
	if !b.defined {
		return BoundsDFromPosition(p)
	}
	return NewBoundsD(min(b.XMin, p.X), max(b.XMax, p.X), min(b.YMin, p.Y), max(b.YMax, p.Y))
}

// WithBorder grows b by dx horizontally and dy vertically on each side.
func (b BoundsD) WithBorder(dx, dy float64) BoundsD {
	if !b.defined {
		return b
	}
	return NewBoundsD(b.XMin-dx, b.XMax+dx, b.YMin-dy, b.YMax+dy)
}

// Expand scales the extent of b about its center.
func (b BoundsD) Expand(factorX, factorY float64) BoundsD {
	if !b.defined {
		return b
	}
	dx := (b.XMax - b.XMin) * 0.5 * (factorX - 1)
	dy := (b.YMax - b.YMin) * 0.5 * (factorY - 1)
	return b.WithBorder(dx, dy)
}

// Shift returns b translated by delta.
func (b BoundsD) Shift(delta PositionD) BoundsD {
	if !b.defined {
		return b
	}
	return NewBoundsD(b.XMin+delta.X, b.XMax+delta.X, b.YMin+delta.Y, b.YMax+delta.Y)
}

// Area is (xmax-xmin)*(ymax-ymin); edges do not add extra width.
func (b BoundsD) Area() float64 {
	if !b.defined {
		return 0
	}
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

// Center is the midpoint of b.
func (b BoundsD) Center() PositionD { return b.TrueCenter() }

// TrueCenter is the midpoint of b.
func (b BoundsD) TrueCenter() PositionD {
	if !b.defined {
		return PositionD{}
	}
	return PositionD{(b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2}
}

// Origin is the lower-left corner of b.
func (b BoundsD) Origin() PositionD { return PositionD{b.XMin, b.YMin} }

func (b BoundsD) String() string {
	if !b.defined {
		return "BoundsD()"
	}
	return fmt.Sprintf("BoundsD(%g,%g,%g,%g)", b.XMin, b.XMax, b.YMin, b.YMax)
}
