package raster

import (
	"fmt"
	"math"

	"gsrender/pkg/gserrors"
)

// DType is the element type of an image buffer.
type DType int

// Supported dtypes, ordered from narrowest to widest so that promotion can
// take the larger of two values.
const (
	Int16 DType = iota
	Uint16
	Int32
	Uint32
	Float32
	Float64
	Complex64
	Complex128
)

var dtypeNames = map[DType]string{
	Int16:      "int16",
	Uint16:     "uint16",
	Int32:      "int32",
	Uint32:     "uint32",
	Float32:    "float32",
	Float64:    "float64",
	Complex64:  "complex64",
	Complex128: "complex128",
}

// ParseDType looks a dtype up by name. Unknown names are an ErrValue.
func ParseDType(name string) (DType, error) {
	switch name {
	case "float", "double":
		return Float64, nil
	case "complex":
		return Complex128, nil
	case "int":
		return Int32, nil
	}
	for d, n := range dtypeNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: invalid dtype %q", gserrors.ErrValue, name)
}

func (d DType) String() string {
	if n, ok := dtypeNames[d]; ok {
		return n
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// Valid reports whether d is one of the supported dtypes.
func (d DType) Valid() bool { return d >= Int16 && d <= Complex128 }

// IsComplex reports whether d stores complex values.
func (d DType) IsComplex() bool { return d == Complex64 || d == Complex128 }

// IsInteger reports whether d stores integers.
func (d DType) IsInteger() bool { return d >= Int16 && d <= Uint32 }

// RealPart returns the dtype of the real or imaginary part of d.
func (d DType) RealPart() DType {
	switch d {
	case Complex64:
		return Float32
	case Complex128:
		return Float64
	}
	return d
}

// cast converts v to the precision of d. Integers truncate toward zero and
// wrap on overflow.
func (d DType) cast(v float64) float64 {
	switch d {
	case Int16:
		return float64(int16(int64(v)))
	case Uint16:
		return float64(uint16(int64(v)))
	case Int32:
		return float64(int32(int64(v)))
	case Uint32:
		return float64(uint32(int64(v)))
	case Float32, Complex64:
		return float64(float32(v))
	}
	return v
}

func (d DType) castComplex(c complex128) complex128 {
	if d == Complex64 {
		return complex128(complex64(c))
	}
	return c
}

// promote returns the dtype able to hold the result of combining a and b.
func promote(a, b DType) DType {
	if a == b {
		return a
	}
	r := max(a, b)
	switch {
	case r.IsComplex():
		if r == Complex128 || a == Float64 || b == Float64 || a == Int32 || b == Int32 || a == Uint32 || b == Uint32 {
			return Complex128
		}
		return Complex64
	case r == Float32:
		if a == Int32 || b == Int32 || a == Uint32 || b == Uint32 {
			return Float64
		}
	}
	return r
}

func isIntegral(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}
