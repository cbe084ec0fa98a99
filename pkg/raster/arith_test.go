package raster

import (
	"errors"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
)

// TestArithmetic covers the elementwise operators
func TestArithmetic(t *testing.T) {
	b := bounds.NewBoundsI(1, 2, 1, 1)
	a, _ := FromArray([]float64{7, -7}, 2, b, Int32)
	d, _ := FromArray([]float64{2, 2}, 2, b, Int32)

	cases := []struct {
		name string
		op   Op
		want []float64
		dt   DType
	}{
		{"add", OpAdd, []float64{9, -5}, Int32},
		{"sub", OpSub, []float64{5, -9}, Int32},
		{"mul", OpMul, []float64{14, -14}, Int32},
		{"div", OpDiv, []float64{3.5, -3.5}, Float64},
		{"floordiv", OpFloorDiv, []float64{3, -4}, Int32},
		{"mod", OpMod, []float64{1, 1}, Int32},
		{"and", OpAnd, []float64{2, 0}, Int32},
		{"xor", OpXor, []float64{5, -5}, Int32},
	}
	for _, c := range cases {
		out, err := a.Apply(c.op, d)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if out.DType() != c.dt {
			t.Errorf("%s: expected dtype %v, got %v", c.name, c.dt, out.DType())
		}
		for i, v := range out.Array() {
			if v != c.want[i] {
				t.Errorf("%s[%d]: expected %v, got %v", c.name, i, c.want[i], v)
			}
		}
	}
}

// TestArithmeticErrors covers shape and dtype restrictions
func TestArithmeticErrors(t *testing.T) {
	f := New(bounds.NewBoundsI(1, 3, 1, 3), Float64)
	g := New(bounds.NewBoundsI(1, 2, 1, 3), Float64)
	if _, err := f.Add(g); !errors.Is(err, gserrors.ErrIncompatibleValues) {
		t.Errorf("Expected ErrIncompatibleValues for shape mismatch, got %v", err)
	}
	if _, err := f.And(f); !errors.Is(err, gserrors.ErrValue) {
		t.Errorf("Expected ErrValue for bitwise op on float image, got %v", err)
	}

	// Shapes match even if the bounds are offset.
	h := New(bounds.NewBoundsI(11, 13, -1, 1), Float64)
	if err := f.IAdd(h); err != nil {
		t.Errorf("Unexpected error for offset bounds: %v", err)
	}
}

// TestScalarArithmetic covers image-scalar operations and promotion
func TestScalarArithmetic(t *testing.T) {
	im := NewFilled(bounds.NewBoundsI(1, 2, 1, 2), Int16, 3)
	half, err := im.MulScalar(0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if half.DType() != Float64 || half.Sum() != 6 {
		t.Errorf("Expected float64 image summing to 6, got %v sum %f", half.DType(), half.Sum())
	}
	sq, _ := im.Pow(2)
	if v, _ := sq.GetValue(1, 1); v != 9 {
		t.Errorf("Expected 9, got %f", v)
	}
	if v, _ := im.Neg().GetValue(2, 2); v != -3 {
		t.Errorf("Expected -3, got %f", v)
	}
	c, _ := im.ApplyScalar(OpMul, complex(0, 1))
	if !c.IsComplex() {
		t.Errorf("Expected complex promotion, got %v", c.DType())
	}
	if v, _ := c.GetComplex(1, 1); v != complex(0, 3) {
		t.Errorf("Expected 3i, got %v", v)
	}
}
