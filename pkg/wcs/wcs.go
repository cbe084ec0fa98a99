// Package wcs maps image coordinates to world coordinates.
//
// Only linear (uniform) maps are supported: a pixel scale, a general 2x2
// Jacobian, and their shifted counterparts OffsetWCS and AffineWCS.
package wcs

import (
	"math"

	"gsrender/pkg/bounds"
)

// WCS is a world coordinate system attached to an image.
type WCS interface {
	// IsPixelScale reports whether the map is a pure isotropic scale
	// with no rotation or shear.
	IsPixelScale() bool
	// IsUniform reports whether the local jacobian is the same everywhere.
	IsUniform() bool
	// IsLocal reports whether the map sends image (0,0) to world (0,0).
	IsLocal() bool
	// Local returns the local linear approximation at imagePos.
	Local(imagePos bounds.PositionD) Local
	// ShiftOrigin returns a WCS whose image origin is moved by delta.
	ShiftOrigin(delta bounds.PositionD) WCS
	PixelArea() float64
	ToWorld(imagePos bounds.PositionD) bounds.PositionD
	ToImage(worldPos bounds.PositionD) bounds.PositionD
	Equal(other WCS) bool
}

// Local is a WCS that is linear about the origin, i.e. a PixelScale or
// a Jacobian.
type Local interface {
	WCS
	Jacobian() Jacobian
}

// PixelScale is the isotropic map world = scale * image.
type PixelScale struct {
	Scale float64
}

// NewPixelScale returns a PixelScale WCS.
func NewPixelScale(scale float64) PixelScale { return PixelScale{Scale: scale} }

func (p PixelScale) IsPixelScale() bool { return true }
func (p PixelScale) IsUniform() bool { return true }
func (p PixelScale) IsLocal() bool { return true }
func (p PixelScale) Local(bounds.PositionD) Local { return p }
func (p PixelScale) PixelArea() float64 { return p.Scale * p.Scale }
func (p PixelScale) Jacobian() Jacobian { return Jacobian{p.Scale, 0, 0, p.Scale} }

func (p PixelScale) ToWorld(q bounds.PositionD) bounds.PositionD { return q.Scale(p.Scale) }
func (p PixelScale) ToImage(q bounds.PositionD) bounds.PositionD { return q.Scale(1 / p.Scale) }

// ShiftOrigin turns the scale into an OffsetWCS.
func (p PixelScale) ShiftOrigin(delta bounds.PositionD) WCS {
	return OffsetWCS{Scale: p.Scale, Origin: delta}
}

func (p PixelScale) Equal(other WCS) bool {
	o, ok := other.(PixelScale)
	return ok && o.Scale == p.Scale
}

// MinLinearScale is the smallest length in world units of a unit step in
// image coordinates, over all directions.
func MinLinearScale(w WCS) float64 {
	_, minor := w.Local(bounds.PositionD{}).Jacobian().MajorMinor()
	return minor
}

// MaxLinearScale is the largest such length.
func MaxLinearScale(w WCS) float64 {
	major, _ := w.Local(bounds.PositionD{}).Jacobian().MajorMinor()
	return major
}

// OffsetWCS is a PixelScale whose image origin and world origin are moved.
// It still counts as a pixel scale.
type OffsetWCS struct {
	Scale       float64
	Origin      bounds.PositionD
	WorldOrigin bounds.PositionD
}

func (o OffsetWCS) IsPixelScale() bool { return true }
func (o OffsetWCS) IsUniform() bool { return true }
func (o OffsetWCS) IsLocal() bool { return false }
func (o OffsetWCS) Local(bounds.PositionD) Local {
	return PixelScale{Scale: o.Scale}
}
func (o OffsetWCS) PixelArea() float64 { return o.Scale * o.Scale }

func (o OffsetWCS) ShiftOrigin(delta bounds.PositionD) WCS {
	o.Origin = o.Origin.Add(delta)
	return o
}

func (o OffsetWCS) ToWorld(q bounds.PositionD) bounds.PositionD {
	return q.Sub(o.Origin).Scale(o.Scale).Add(o.WorldOrigin)
}

func (o OffsetWCS) ToImage(q bounds.PositionD) bounds.PositionD {
	return q.Sub(o.WorldOrigin).Scale(1 / o.Scale).Add(o.Origin)
}

func (o OffsetWCS) Equal(other WCS) bool {
	p, ok := other.(OffsetWCS)
	return ok && p == o
}

// AffineWCS is a Jacobian with moved image and world origins.
type AffineWCS struct {
	Jac         Jacobian
	Origin      bounds.PositionD
	WorldOrigin bounds.PositionD
}

func (a AffineWCS) IsPixelScale() bool { return false }
func (a AffineWCS) IsUniform() bool { return true }
func (a AffineWCS) IsLocal() bool { return false }
func (a AffineWCS) Local(bounds.PositionD) Local {
	return a.Jac
}
func (a AffineWCS) PixelArea() float64 { return math.Abs(a.Jac.Det()) }

func (a AffineWCS) ShiftOrigin(delta bounds.PositionD) WCS {
	a.Origin = a.Origin.Add(delta)
	return a
}

func (a AffineWCS) ToWorld(q bounds.PositionD) bounds.PositionD {
	return a.Jac.Apply(q.Sub(a.Origin)).Add(a.WorldOrigin)
}

func (a AffineWCS) ToImage(q bounds.PositionD) bounds.PositionD {
	inv, err := a.Jac.Inverse()
	if err != nil {
		return bounds.PositionD{X: math.NaN(), Y: math.NaN()}
	}
	return inv.Apply(q.Sub(a.WorldOrigin)).Add(a.Origin)
}

func (a AffineWCS) Equal(other WCS) bool {
	b, ok := other.(AffineWCS)
	return ok && b == a
}

// ScaleOf returns the pixel scale of w, or false if w is not a pixel scale.
func ScaleOf(w WCS) (float64, bool) {
	if w == nil || !w.IsPixelScale() {
		return 0, false
	}
	return w.Local(bounds.PositionD{}).Jacobian().DUDX, true
}
