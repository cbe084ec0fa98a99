package raster

import "gsrender/pkg/bounds"

// remap builds a new image of bounds nb where each pixel (x,y) takes the
// value of the source pixel src(x,y).
func (im *Image) remap(nb bounds.BoundsI, src func(x, y int) (int, int)) *Image {
	out := New(nb, im.dtype)
	if !nb.IsDefined() {
		return out
	}
	for y := nb.YMin; y <= nb.YMax; y++ {
		for x := nb.XMin; x <= nb.XMax; x++ {
			sx, sy := src(x, y)
			out.SetRawComplex(x, y, im.RawComplex(sx, sy))
		}
	}
	return out
}

// Transpose swaps the x and y axes, including the bounds.
func (im *Image) Transpose() *Image {
	b := im.bounds
	var nb bounds.BoundsI
	if b.IsDefined() {
		nb = bounds.NewBoundsI(b.YMin, b.YMax, b.XMin, b.XMax)
	}
	return im.remap(nb, func(x, y int) (int, int) { return y, x })
}

// FlipLR mirrors the image left to right within the same bounds.
func (im *Image) FlipLR() *Image {
	b := im.bounds
	return im.remap(b, func(x, y int) (int, int) { return b.XMin + b.XMax - x, y })
}

// FlipUD mirrors the image top to bottom within the same bounds.
func (im *Image) FlipUD() *Image {
	b := im.bounds
	return im.remap(b, func(x, y int) (int, int) { return x, b.YMin + b.YMax - y })
}

// Rot180 rotates by 180 degrees within the same bounds.
func (im *Image) Rot180() *Image {
	b := im.bounds
	return im.remap(b, func(x, y int) (int, int) { return b.XMin + b.XMax - x, b.YMin + b.YMax - y })
}

// RotCCW rotates by 90 degrees counter-clockwise. The bounds are transposed.
func (im *Image) RotCCW() *Image {
	b := im.bounds
	var nb bounds.BoundsI
	if b.IsDefined() {
		nb = bounds.NewBoundsI(b.YMin, b.YMax, b.XMin, b.XMax)
	}
	return im.remap(nb, func(x, y int) (int, int) { return y, b.YMin + b.YMax - x })
}

// RotCW rotates by 90 degrees clockwise. The bounds are transposed.
func (im *Image) RotCW() *Image {
	b := im.bounds
	var nb bounds.BoundsI
	if b.IsDefined() {
		nb = bounds.NewBoundsI(b.YMin, b.YMax, b.XMin, b.XMax)
	}
	return im.remap(nb, func(x, y int) (int, int) { return b.XMin + b.XMax - y, x })
}
