package wcs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
)

// Jacobian is the local linear map
//
//	u = DUDX*x + DUDY*y
//	v = DVDX*x + DVDY*y
//
// from image (x,y) to world (u,v). It is also used by the rendering code as
// a general 2x2 transformation matrix.
type Jacobian struct {
	DUDX, DUDY, DVDX, DVDY float64
}

// Identity is the unit Jacobian.
var Identity = Jacobian{1, 0, 0, 1}

// NewJacobian builds a Jacobian from its four elements.
func NewJacobian(dudx, dudy, dvdx, dvdy float64) Jacobian {
	return Jacobian{DUDX: dudx, DUDY: dudy, DVDX: dvdx, DVDY: dvdy}
}

// Diag returns the diagonal Jacobian diag(sx, sy).
func Diag(sx, sy float64) Jacobian { return Jacobian{sx, 0, 0, sy} }

// Matrix returns the Jacobian as a gonum dense matrix.
func (j Jacobian) Matrix() *mat.Dense {
	return mat.NewDense(2, 2, []float64{j.DUDX, j.DUDY, j.DVDX, j.DVDY})
}

func fromMatrix(m mat.Matrix) Jacobian {
	return Jacobian{m.At(0, 0), m.At(0, 1), m.At(1, 0), m.At(1, 1)}
}

// Det is the determinant.
func (j Jacobian) Det() float64 { return mat.Det(j.Matrix()) }

// Mul returns the product j*k.
func (j Jacobian) Mul(k Jacobian) Jacobian {
	var p mat.Dense
	p.Mul(j.Matrix(), k.Matrix())
	return fromMatrix(&p)
}

// Transpose returns the transposed map.
func (j Jacobian) Transpose() Jacobian {
	return fromMatrix(j.Matrix().T())
}

// Inverse returns the inverse map. A singular Jacobian is an ErrValue.
func (j Jacobian) Inverse() (Jacobian, error) {
	var inv mat.Dense
	if err := inv.Inverse(j.Matrix()); err != nil {
		return Jacobian{}, fmt.Errorf("%w: singular jacobian %v: %v", gserrors.ErrValue, j, err)
	}
	return fromMatrix(&inv), nil
}

// Apply maps p through j.
func (j Jacobian) Apply(p bounds.PositionD) bounds.PositionD {
	return bounds.PositionD{
		X: j.DUDX*p.X + j.DUDY*p.Y,
		Y: j.DVDX*p.X + j.DVDY*p.Y,
	}
}

// ApplyTranspose maps p through the transpose of j. Wavevectors transform
// this way when the positions transform through j.
func (j Jacobian) ApplyTranspose(p bounds.PositionD) bounds.PositionD {
	return bounds.PositionD{
		X: j.DUDX*p.X + j.DVDX*p.Y,
		Y: j.DUDY*p.X + j.DVDY*p.Y,
	}
}

// MajorMinor returns the singular values of j, largest first.
func (j Jacobian) MajorMinor() (major, minor float64) {
	var svd mat.SVD
	if !svd.Factorize(j.Matrix(), mat.SVDNone) {
		return math.NaN(), math.NaN()
	}
	s := svd.Values(nil)
	return s[0], s[1]
}

// IsIdentity reports whether j is the unit map.
func (j Jacobian) IsIdentity() bool { return j == Identity }

func (j Jacobian) IsPixelScale() bool {
	return j.DUDY == 0 && j.DVDX == 0 && j.DUDX == j.DVDY && j.DUDX > 0
}

func (j Jacobian) IsUniform() bool { return true }
func (j Jacobian) IsLocal() bool { return true }
func (j Jacobian) Local(bounds.PositionD) Local { return j }
func (j Jacobian) Jacobian() Jacobian { return j }
func (j Jacobian) PixelArea() float64 { return math.Abs(j.Det()) }

func (j Jacobian) ShiftOrigin(delta bounds.PositionD) WCS {
	return AffineWCS{Jac: j, Origin: delta}
}

func (j Jacobian) ToWorld(p bounds.PositionD) bounds.PositionD { return j.Apply(p) }

func (j Jacobian) ToImage(p bounds.PositionD) bounds.PositionD {
	inv, err := j.Inverse()
	if err != nil {
		return bounds.PositionD{X: math.NaN(), Y: math.NaN()}
	}
	return inv.Apply(p)
}

func (j Jacobian) Equal(other WCS) bool {
	k, ok := other.(Jacobian)
	return ok && k == j
}

func (j Jacobian) String() string {
	return fmt.Sprintf("Jacobian(%g,%g,%g,%g)", j.DUDX, j.DUDY, j.DVDX, j.DVDY)
}
