package bounds

import "fmt"

// PositionI is an integer pixel position.
type PositionI struct {
	X, Y int
}

// PositionD is a real-valued position, in image or world units.
type PositionD struct {
	X, Y float64
}

// Add returns p+q.
func (p PositionI) Add(q PositionI) PositionI { return PositionI{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p PositionI) Sub(q PositionI) PositionI { return PositionI{p.X - q.X, p.Y - q.Y} }

// Neg returns -p.
func (p PositionI) Neg() PositionI { return PositionI{-p.X, -p.Y} }

// ToD converts p to a PositionD.
func (p PositionI) ToD() PositionD { return PositionD{float64(p.X), float64(p.Y)} }

func (p PositionI) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Add returns p+q.
func (p PositionD) Add(q PositionD) PositionD { return PositionD{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p PositionD) Sub(q PositionD) PositionD { return PositionD{p.X - q.X, p.Y - q.Y} }

// Scale returns p*s.
func (p PositionD) Scale(s float64) PositionD { return PositionD{p.X * s, p.Y * s} }

// Neg returns -p.
func (p PositionD) Neg() PositionD { return PositionD{-p.X, -p.Y} }

func (p PositionD) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }
