package raster

import (
	"fmt"
	"math"
	"math/cmplx"

	"gsrender/pkg/gserrors"
)

// Op is an elementwise binary operation.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpAnd
	OpOr
	OpXor
)

var opNames = [...]string{"+", "-", "*", "/", "//", "%", "**", "&", "|", "^"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

func (o Op) bitwise() bool { return o == OpAnd || o == OpOr || o == OpXor }

// resultType is the dtype of a op b for operand dtypes a and b.
func (o Op) resultType(a, b DType) DType {
	r := promote(a, b)
	if o == OpDiv && r.IsInteger() {
		return Float64
	}
	return r
}

func (o Op) check(a, b DType) error {
	if o.bitwise() && !(a.IsInteger() && b.IsInteger()) {
		return fmt.Errorf("%w: operator %v requires integral images, got %v and %v", gserrors.ErrValue, o, a, b)
	}
	if (o == OpFloorDiv || o == OpMod) && (a.IsComplex() || b.IsComplex()) {
		return fmt.Errorf("%w: operator %v is not defined for complex values", gserrors.ErrValue, o)
	}
	return nil
}

// eval applies o to a single pair of values. Integral results follow
// floor-division semantics and yield 0 on division by zero.
func (o Op) eval(a, b complex128, integral bool) complex128 {
	switch o {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if imag(a) == 0 && imag(b) == 0 {
			return complex(real(a)/real(b), 0)
		}
		return a / b
	case OpFloorDiv:
		if integral && real(b) == 0 {
			return 0
		}
		return complex(math.Floor(real(a)/real(b)), 0)
	case OpMod:
		x, y := real(a), real(b)
		if integral && y == 0 {
			return 0
		}
		m := math.Mod(x, y)
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return complex(m, 0)
	case OpPow:
		if imag(a) == 0 && imag(b) == 0 {
			return complex(math.Pow(real(a), real(b)), 0)
		}
		return cmplx.Pow(a, b)
	case OpAnd:
		return complex(float64(int64(real(a))&int64(real(b))), 0)
	case OpOr:
		return complex(float64(int64(real(a))|int64(real(b))), 0)
	case OpXor:
		return complex(float64(int64(real(a))^int64(real(b))), 0)
	}
	return 0
}

func (im *Image) checkShape(rhs *Image) error {
	r1, c1 := im.bounds.NumpyShape()
	r2, c2 := rhs.bounds.NumpyShape()
	if r1 != r2 || c1 != c2 {
		return fmt.Errorf("%w: image shapes are inconsistent: %v vs %v",
			gserrors.ErrIncompatibleValues, im.bounds, rhs.bounds)
	}
	return nil
}

// IApply computes im = im op rhs in place, keeping the dtype of im.
func (im *Image) IApply(op Op, rhs *Image) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if err := im.checkShape(rhs); err != nil {
		return err
	}
	if err := op.check(im.dtype, rhs.dtype); err != nil {
		return err
	}
	integral := im.dtype.IsInteger() && rhs.dtype.IsInteger()
	for i := range im.size() {
		im.setAt(i, op.eval(im.at(i), rhs.at(i), integral))
	}
	return nil
}

// Apply returns im op rhs as a new image with the promoted dtype. The
// result takes the bounds and WCS of im.
func (im *Image) Apply(op Op, rhs *Image) (*Image, error) {
	if err := im.checkShape(rhs); err != nil {
		return nil, err
	}
	if err := op.check(im.dtype, rhs.dtype); err != nil {
		return nil, err
	}
	out := New(im.bounds, op.resultType(im.dtype, rhs.dtype))
	out.wcs = im.wcs
	integral := out.dtype.IsInteger()
	for i := range im.size() {
		out.setAt(i, op.eval(im.at(i), rhs.at(i), integral))
	}
	return out, nil
}

// scalarType is the dtype able to hold a scalar operand.
func scalarType(v complex128) DType {
	switch {
	case imag(v) != 0:
		return Complex128
	case isIntegral(real(v)) && math.Abs(real(v)) < 1<<31:
		return Int16
	}
	return Float64
}

// IApplyScalar computes im = im op v in place, keeping the dtype of im.
func (im *Image) IApplyScalar(op Op, v complex128) error {
	if err := im.checkWritable(); err != nil {
		return err
	}
	if err := op.check(im.dtype, scalarType(v)); err != nil {
		return err
	}
	integral := im.dtype.IsInteger() && scalarType(v).IsInteger()
	for i := range im.size() {
		im.setAt(i, op.eval(im.at(i), v, integral))
	}
	return nil
}

// ApplyScalar returns im op v as a new image.
func (im *Image) ApplyScalar(op Op, v complex128) (*Image, error) {
	st := scalarType(v)
	if err := op.check(im.dtype, st); err != nil {
		return nil, err
	}
	dt := im.dtype
	switch {
	case st.IsComplex() && !dt.IsComplex():
		dt = Complex128
	case st == Float64 && dt.IsInteger():
		dt = Float64
	case op == OpDiv && dt.IsInteger():
		dt = Float64
	}
	out := New(im.bounds, dt)
	out.wcs = im.wcs
	integral := dt.IsInteger()
	for i := range im.size() {
		out.setAt(i, op.eval(im.at(i), v, integral))
	}
	return out, nil
}

// RApplyScalar returns v op im as a new image.
func (im *Image) RApplyScalar(op Op, v complex128) (*Image, error) {
	st := scalarType(v)
	if err := op.check(st, im.dtype); err != nil {
		return nil, err
	}
	dt := im.dtype
	if st.IsComplex() && !dt.IsComplex() {
		dt = Complex128
	} else if (st == Float64 || op == OpDiv) && dt.IsInteger() {
		dt = Float64
	}
	out := New(im.bounds, dt)
	out.wcs = im.wcs
	integral := dt.IsInteger()
	for i := range im.size() {
		out.setAt(i, op.eval(v, im.at(i), integral))
	}
	return out, nil
}

// Add returns im + rhs.
func (im *Image) Add(rhs *Image) (*Image, error) { return im.Apply(OpAdd, rhs) }

// Sub returns im - rhs.
func (im *Image) Sub(rhs *Image) (*Image, error) { return im.Apply(OpSub, rhs) }

// Mul returns im * rhs.
func (im *Image) Mul(rhs *Image) (*Image, error) { return im.Apply(OpMul, rhs) }

// Div returns im / rhs.
func (im *Image) Div(rhs *Image) (*Image, error) { return im.Apply(OpDiv, rhs) }

// FloorDiv returns im // rhs.
func (im *Image) FloorDiv(rhs *Image) (*Image, error) { return im.Apply(OpFloorDiv, rhs) }

// Mod returns im % rhs.
func (im *Image) Mod(rhs *Image) (*Image, error) { return im.Apply(OpMod, rhs) }

// And returns the bitwise and of two integral images.
func (im *Image) And(rhs *Image) (*Image, error) { return im.Apply(OpAnd, rhs) }

// Or returns the bitwise or of two integral images.
func (im *Image) Or(rhs *Image) (*Image, error) { return im.Apply(OpOr, rhs) }

// Xor returns the bitwise xor of two integral images.
func (im *Image) Xor(rhs *Image) (*Image, error) { return im.Apply(OpXor, rhs) }

// Pow returns im raised to the power p.
func (im *Image) Pow(p float64) (*Image, error) { return im.ApplyScalar(OpPow, complex(p, 0)) }

// Neg returns -im.
func (im *Image) Neg() *Image {
	out := im.Copy()
	out.isConst = false
	for i := range out.size() {
		out.setAt(i, -out.at(i))
	}
	return out
}

// IAdd adds rhs in place.
func (im *Image) IAdd(rhs *Image) error { return im.IApply(OpAdd, rhs) }

// ISub subtracts rhs in place.
func (im *Image) ISub(rhs *Image) error { return im.IApply(OpSub, rhs) }

// IMul multiplies by rhs in place.
func (im *Image) IMul(rhs *Image) error { return im.IApply(OpMul, rhs) }

// IDiv divides by rhs in place.
func (im *Image) IDiv(rhs *Image) error { return im.IApply(OpDiv, rhs) }

// IAddScalar adds v to every pixel.
func (im *Image) IAddScalar(v float64) error { return im.IApplyScalar(OpAdd, complex(v, 0)) }

// IMulScalar multiplies every pixel by v.
func (im *Image) IMulScalar(v float64) error { return im.IApplyScalar(OpMul, complex(v, 0)) }

// IMulComplex multiplies every pixel by the complex v.
func (im *Image) IMulComplex(v complex128) error { return im.IApplyScalar(OpMul, v) }

// MulScalar returns im * v.
func (im *Image) MulScalar(v float64) (*Image, error) { return im.ApplyScalar(OpMul, complex(v, 0)) }

// AddScalar returns im + v.
func (im *Image) AddScalar(v float64) (*Image, error) { return im.ApplyScalar(OpAdd, complex(v, 0)) }
