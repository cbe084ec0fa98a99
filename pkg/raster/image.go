// Package raster implements Image, a typed 2-D pixel buffer anchored to
// integer bounds, together with the wrap and FFT operations used by the
// renderer.
//
// Images never alias each other: SubImage, Copy, Real, Imag and View all
// return fresh buffers.
package raster

import (
	"fmt"
	"math/cmplx"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/wcs"
)

// Image is a row-major pixel buffer. Real dtypes are stored as float64 and
// complex dtypes as complex128; values are narrowed to the dtype on write.
type Image struct {
	bounds  bounds.BoundsI
	dtype   DType
	ncol    int
	data    []float64
	cdata   []complex128
	wcs     wcs.WCS
	isConst bool
}

// New allocates a zero image covering b. An undefined b gives an empty
// image with a 1x1 placeholder buffer. New panics on a DType outside the
// declared constants; use ParseDType for untrusted names.
func New(b bounds.BoundsI, dtype DType) *Image {
	if !dtype.Valid() {
		panic(fmt.Sprintf("raster: invalid dtype %d", int(dtype)))
	}
	rows, cols := b.NumpyShape()
	if rows == 0 || cols == 0 {
		rows, cols = 1, 1
	}
	im := &Image{bounds: b, dtype: dtype, ncol: cols}
	if dtype.IsComplex() {
		im.cdata = make([]complex128, rows*cols)
	} else {
		im.data = make([]float64, rows*cols)
	}
	return im
}

// NewFilled allocates an image covering b with every pixel set to v.
func NewFilled(b bounds.BoundsI, dtype DType, v float64) *Image {
	im := New(b, dtype)
	im.fill(complex(v, 0))
	return im
}

// NewSize allocates an ncol x nrow zero image with origin (1,1).
func NewSize(ncol, nrow int, dtype DType) (*Image, error) {
	if ncol <= 0 || nrow <= 0 {
		return nil, fmt.Errorf("%w: image size must be positive, got %dx%d", gserrors.ErrValue, ncol, nrow)
	}
	return New(bounds.NewBoundsI(1, ncol, 1, nrow), dtype), nil
}

// FromArray wraps a copy of a row-major array with ncol columns. If b is
// undefined the image gets origin (1,1); otherwise b must match the array
// shape.
func FromArray(data []float64, ncol int, b bounds.BoundsI, dtype DType) (*Image, error) {
	b, err := arrayBounds(len(data), ncol, b)
	if err != nil {
		return nil, err
	}
	im := New(b, dtype)
	for i, v := range data {
		if im.dtype.IsComplex() {
			im.cdata[i] = im.dtype.castComplex(complex(v, 0))
		} else {
			im.data[i] = im.dtype.cast(v)
		}
	}
	return im, nil
}

// FromComplexArray is FromArray for complex data. dtype must be complex.
func FromComplexArray(data []complex128, ncol int, b bounds.BoundsI, dtype DType) (*Image, error) {
	if !dtype.IsComplex() {
		return nil, fmt.Errorf("%w: complex array requires a complex dtype, got %v", gserrors.ErrValue, dtype)
	}
	b, err := arrayBounds(len(data), ncol, b)
	if err != nil {
		return nil, err
	}
	im := New(b, dtype)
	for i, v := range data {
		im.cdata[i] = dtype.castComplex(v)
	}
	return im, nil
}

func arrayBounds(n, ncol int, b bounds.BoundsI) (bounds.BoundsI, error) {
	if ncol <= 0 || n%ncol != 0 || n == 0 {
		return b, fmt.Errorf("%w: array of length %d cannot have %d columns", gserrors.ErrValue, n, ncol)
	}
	nrow := n / ncol
	if !b.IsDefined() {
		return bounds.NewBoundsI(1, ncol, 1, nrow), nil
	}
	if rows, cols := b.NumpyShape(); rows != nrow || cols != ncol {
		return b, fmt.Errorf("%w: array shape (%d,%d) does not match bounds %v",
			gserrors.ErrIncompatibleValues, nrow, ncol, b)
	}
	return b, nil
}

// Bounds returns the image bounds.
func (im *Image) Bounds() bounds.BoundsI { return im.bounds }

// DType returns the element type.
func (im *Image) DType() DType { return im.dtype }

// WCS returns the attached WCS, or nil.
func (im *Image) WCS() wcs.WCS { return im.wcs }

// SetWCS attaches w (nil detaches).
func (im *Image) SetWCS(w wcs.WCS) { im.wcs = w }

// Scale returns the pixel scale. It fails unless the WCS is a pixel scale.
func (im *Image) Scale() (float64, error) {
	s, ok := wcs.ScaleOf(im.wcs)
	if !ok {
		return 0, fmt.Errorf("%w: image scale requires a PixelScale wcs", gserrors.ErrValue)
	}
	return s, nil
}

// IsConst reports whether the image rejects mutation.
func (im *Image) IsConst() bool { return im.isConst }

// MakeConst marks the image immutable.
func (im *Image) MakeConst() { im.isConst = true }

// IsComplex reports whether the dtype is complex.
func (im *Image) IsComplex() bool { return im.dtype.IsComplex() }

// IsInteger reports whether the dtype is integral.
func (im *Image) IsInteger() bool { return im.dtype.IsInteger() }

// Center is the central pixel of the bounds.
func (im *Image) Center() bounds.PositionI { return im.bounds.Center() }

// TrueCenter is the exact center of the bounds.
func (im *Image) TrueCenter() bounds.PositionD { return im.bounds.TrueCenter() }

// Origin is the lower-left pixel.
func (im *Image) Origin() bounds.PositionI { return im.bounds.Origin() }

// OuterBounds is the real rectangle covered by the pixels, edges included.
func (im *Image) OuterBounds() bounds.BoundsD {
	if !im.bounds.IsDefined() {
		return bounds.BoundsD{}
	}
	b := im.bounds
	return bounds.NewBoundsD(float64(b.XMin)-0.5, float64(b.XMax)+0.5, float64(b.YMin)-0.5, float64(b.YMax)+0.5)
}

func (im *Image) index(x, y int) int {
	return (y-im.bounds.YMin)*im.ncol + (x - im.bounds.XMin)
}

func (im *Image) checkWritable() error {
	if im.isConst {
		return fmt.Errorf("%w: cannot modify an immutable image", gserrors.ErrImmutable)
	}
	return nil
}

func (im *Image) checkPos(x, y int) error {
	if !im.bounds.IsDefined() {
		return fmt.Errorf("%w: attempt to access values of an undefined image", gserrors.ErrUndefinedBounds)
	}
	p := bounds.PositionI{X: x, Y: y}
	if !im.bounds.Includes(p) {
		return &gserrors.BoundsError{
			Msg:    "attempt to access position not in bounds of image",
			Target: p.String(),
			Bounds: im.bounds.String(),
		}
	}
	return nil
}

// GetValue returns the pixel at (x,y). Complex images return the real part.
func (im *Image) GetValue(x, y int) (float64, error) {
	if err := im.checkPos(x, y); err != nil {
		return 0, err
	}
	return im.RawValue(x, y), nil
}

// GetComplex returns the pixel at (x,y) as a complex number.
func (im *Image) GetComplex(x, y int) (complex128, error) {
	if err := im.checkPos(x, y); err != nil {
		return 0, err
	}
	return im.RawComplex(x, y), nil
}

// SetValue sets the pixel at (x,y).
func (im *Image) SetValue(x, y int, v float64) error {
	return im.SetComplex(x, y, complex(v, 0))
}

// SetComplex sets the pixel at (x,y). The imaginary part is dropped for
// real images.
func (im *Image) SetComplex(x, y int, v complex128) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if err := im.checkPos(x, y); err != nil {
		return err
	}
	im.SetRawComplex(x, y, v)
	return nil
}

// AddValue adds v to the pixel at (x,y).
func (im *Image) AddValue(x, y int, v float64) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if err := im.checkPos(x, y); err != nil {
		return err
	}
	im.AddRawValue(x, y, v)
	return nil
}

// AddComplex adds v to the pixel at (x,y).
func (im *Image) AddComplex(x, y int, v complex128) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if err := im.checkPos(x, y); err != nil {
		return err
	}
	im.AddRawComplex(x, y, v)
	return nil
}

// RawValue returns the pixel at (x,y) without any checks.
func (im *Image) RawValue(x, y int) float64 {
	if im.cdata != nil {
		return real(im.cdata[im.index(x, y)])
	}
	return im.data[im.index(x, y)]
}

// RawComplex returns the pixel at (x,y) as complex without any checks.
func (im *Image) RawComplex(x, y int) complex128 {
	if im.cdata != nil {
		return im.cdata[im.index(x, y)]
	}
	return complex(im.data[im.index(x, y)], 0)
}

// SetRawValue sets the pixel at (x,y) without any checks.
func (im *Image) SetRawValue(x, y int, v float64) { im.setAt(im.index(x, y), complex(v, 0)) }

// SetRawComplex sets the pixel at (x,y) without any checks.
func (im *Image) SetRawComplex(x, y int, v complex128) { im.setAt(im.index(x, y), v) }

// AddRawValue adds v to the pixel at (x,y) without any checks.
func (im *Image) AddRawValue(x, y int, v float64) { im.AddRawComplex(x, y, complex(v, 0)) }

// AddRawComplex adds v to the pixel at (x,y) without any checks.
func (im *Image) AddRawComplex(x, y int, v complex128) {
	i := im.index(x, y)
	im.setAt(i, im.at(i)+v)
}

func (im *Image) at(i int) complex128 {
	if im.cdata != nil {
		return im.cdata[i]
	}
	return complex(im.data[i], 0)
}

func (im *Image) setAt(i int, v complex128) {
	if im.cdata != nil {
		im.cdata[i] = im.dtype.castComplex(v)
		return
	}
	im.data[i] = im.dtype.cast(real(v))
}

func (im *Image) size() int {
	if im.cdata != nil {
		return len(im.cdata)
	}
	return len(im.data)
}

func (im *Image) fill(v complex128) {
	for i := range im.size() {
		im.setAt(i, v)
	}
}

// FillFunc sets each pixel to f(x, y).
func (im *Image) FillFunc(f func(x, y int) float64) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if !im.bounds.IsDefined() {
		return fmt.Errorf("%w: cannot fill an undefined image", gserrors.ErrUndefinedBounds)
	}
	b := im.bounds
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			im.SetRawValue(x, y, f(x, y))
		}
	}
	return nil
}

// Copy returns a deep copy, keeping the WCS and const flag.
func (im *Image) Copy() *Image {
	out := *im
	if im.data != nil {
		out.data = append([]float64(nil), im.data...)
	}
	if im.cdata != nil {
		out.cdata = append([]complex128(nil), im.cdata...)
	}
	return &out
}

// View returns a copy with the given const flag.
func (im *Image) View(makeConst bool) *Image {
	out := im.Copy()
	out.isConst = makeConst
	return out
}

// AsType returns a copy converted to dtype. Converting complex to real drops
// the imaginary part.
func (im *Image) AsType(dtype DType) *Image {
	out := New(im.bounds, dtype)
	out.wcs = im.wcs
	for i := range im.size() {
		out.setAt(i, im.at(i))
	}
	return out
}

// Real returns the real part as a new image.
func (im *Image) Real() *Image {
	return im.AsType(im.dtype.RealPart())
}

// Imag returns the imaginary part as a new image; zero for real dtypes.
func (im *Image) Imag() *Image {
	out := New(im.bounds, im.dtype.RealPart())
	out.wcs = im.wcs
	if im.cdata != nil {
		for i, v := range im.cdata {
			out.setAt(i, complex(imag(v), 0))
		}
	}
	return out
}

// Conjugate returns the complex conjugate as a new image.
func (im *Image) Conjugate() *Image {
	out := im.Copy()
	out.isConst = false
	for i, v := range out.cdata {
		out.cdata[i] = cmplx.Conj(v)
	}
	return out
}

// Array returns a row-major copy of the pixel values. Complex images give
// their real parts.
func (im *Image) Array() []float64 {
	out := make([]float64, im.size())
	for i := range out {
		out[i] = real(im.at(i))
	}
	return out
}

// ComplexArray returns a row-major complex copy of the pixel values.
func (im *Image) ComplexArray() []complex128 {
	out := make([]complex128, im.size())
	for i := range out {
		out[i] = im.at(i)
	}
	return out
}

// PixelCenters returns the x and y coordinates of every pixel center in
// row-major order.
func (im *Image) PixelCenters() (xs, ys []float64) {
	if !im.bounds.IsDefined() {
		return nil, nil
	}
	b := im.bounds
	xs = make([]float64, 0, b.Area())
	ys = make([]float64, 0, b.Area())
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			xs = append(xs, float64(x))
			ys = append(ys, float64(y))
		}
	}
	return xs, ys
}

// Sum returns the sum of all pixels (real part for complex images).
func (im *Image) Sum() float64 { return real(im.ComplexSum()) }

// ComplexSum returns the sum of all pixels.
func (im *Image) ComplexSum() complex128 {
	if !im.bounds.IsDefined() {
		return 0
	}
	var s complex128
	for i := range im.size() {
		s += im.at(i)
	}
	return s
}

// Equal reports whether the images have the same bounds, values and WCS.
func (im *Image) Equal(other *Image) bool {
	if other == nil || im.bounds != other.bounds {
		return false
	}
	if (im.wcs == nil) != (other.wcs == nil) || (im.wcs != nil && !im.wcs.Equal(other.wcs)) {
		return false
	}
	if !im.bounds.IsDefined() {
		return true
	}
	for i := range im.size() {
		if im.at(i) != other.at(i) {
			return false
		}
	}
	return true
}

// SubImage returns a copy of the region b, which must lie inside the image.
func (im *Image) SubImage(b bounds.BoundsI) (*Image, error) {
	if !im.bounds.IsDefined() {
		return nil, fmt.Errorf("%w: attempt to access subimage of undefined image", gserrors.ErrUndefinedBounds)
	}
	if !im.bounds.IncludesBounds(b) {
		return nil, &gserrors.BoundsError{
			Msg:    "attempt to access subimage not (fully) in image",
			Target: b.String(),
			Bounds: im.bounds.String(),
		}
	}
	out := New(b, im.dtype)
	out.wcs = im.wcs
	out.isConst = im.isConst
	copyRegion(out, im, b)
	return out, nil
}

// SetSubImage writes rhs into the region b. rhs must have the shape of b.
func (im *Image) SetSubImage(b bounds.BoundsI, rhs *Image) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if !im.bounds.IsDefined() {
		return fmt.Errorf("%w: attempt to set subimage of undefined image", gserrors.ErrUndefinedBounds)
	}
	if !im.bounds.IncludesBounds(b) {
		return &gserrors.BoundsError{
			Msg:    "attempt to set subimage not (fully) in image",
			Target: b.String(),
			Bounds: im.bounds.String(),
		}
	}
	r1, c1 := b.NumpyShape()
	r2, c2 := rhs.bounds.NumpyShape()
	if r1 != r2 || c1 != c2 {
		return fmt.Errorf("%w: cannot assign image of shape (%d,%d) to region %v",
			gserrors.ErrIncompatibleValues, r2, c2, b)
	}
	for j := 0; j < r1; j++ {
		for i := 0; i < c1; i++ {
			v := rhs.RawComplex(rhs.bounds.XMin+i, rhs.bounds.YMin+j)
			im.SetRawComplex(b.XMin+i, b.YMin+j, v)
		}
	}
	return nil
}

// CopyFrom copies the pixel values of rhs, which must have the same shape.
// The bounds of the receiver are kept.
func (im *Image) CopyFrom(rhs *Image) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	r1, c1 := im.bounds.NumpyShape()
	r2, c2 := rhs.bounds.NumpyShape()
	if r1 != r2 || c1 != c2 {
		return fmt.Errorf("%w: trying to copy images that are not the same shape", gserrors.ErrIncompatibleValues)
	}
	for i := range im.size() {
		im.setAt(i, rhs.at(i))
	}
	return nil
}

// copyRegion copies region b of src into dst, both of which contain b.
func copyRegion(dst, src *Image, b bounds.BoundsI) {
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			dst.SetRawComplex(x, y, src.RawComplex(x, y))
		}
	}
}

// Shift translates the bounds by delta and moves the WCS origin to match.
func (im *Image) Shift(delta bounds.PositionI) {
	if delta == (bounds.PositionI{}) {
		return
	}
	im.bounds = im.bounds.Shift(delta)
	if im.wcs != nil {
		im.wcs = im.wcs.ShiftOrigin(delta.ToD())
	}
}

// SetCenter shifts the image so that Center() is c.
func (im *Image) SetCenter(c bounds.PositionI) { im.Shift(c.Sub(im.Center())) }

// SetOrigin shifts the image so that Origin() is o.
func (im *Image) SetOrigin(o bounds.PositionI) { im.Shift(o.Sub(im.Origin())) }

// Resize reallocates the image to b, zeroing the contents, and sets the WCS.
func (im *Image) Resize(b bounds.BoundsI, w wcs.WCS) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	fresh := New(b, im.dtype)
	im.bounds, im.ncol, im.data, im.cdata = fresh.bounds, fresh.ncol, fresh.data, fresh.cdata
	im.wcs = w
	return nil
}

// Fill sets every pixel to v.
func (im *Image) Fill(v float64) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	im.fill(complex(v, 0))
	return nil
}

// SetZero sets every pixel to zero.
func (im *Image) SetZero() error { return im.Fill(0) }

// InvertSelf replaces every nonzero pixel v with 1/v.
func (im *Image) InvertSelf() error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	for i := range im.size() {
		if v := im.at(i); v != 0 {
			im.setAt(i, 1/v)
		}
	}
	return nil
}

// ReplaceNegative sets every negative pixel to v.
func (im *Image) ReplaceNegative(v float64) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if im.IsComplex() {
		return fmt.Errorf("%w: replaceNegative requires a real image", gserrors.ErrValue)
	}
	for i, x := range im.data {
		if x < 0 {
			im.data[i] = im.dtype.cast(v)
		}
	}
	return nil
}

func (im *Image) String() string {
	return fmt.Sprintf("Image(bounds=%v, dtype=%v, wcs=%v)", im.bounds, im.dtype, im.wcs)
}
