package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gsrender/pkg/gserrors"
	"gsrender/pkg/raster"
)

// Comparison holds metrics comparing a rendered image against a reference
// rendering of the same profile, for example an FFT draw against a photon
// shooting draw.
type Comparison struct {
	// RMSE is the root mean square pixel difference.
	RMSE float64

	// MaxAbsDiff is the largest absolute pixel difference.
	MaxAbsDiff float64

	// FluxRatio is the total flux of the image over that of the reference.
	FluxRatio float64

	// Correlation is the Pearson correlation of the pixel values.
	Correlation float64

	// SSIM is the global structural similarity index.
	SSIM float64

	// MutualInformation is an approximation based on the correlation.
	MutualInformation float64

	// Entropy is the histogram entropy of the image.
	Entropy float64
}

// Compare computes the comparison metrics of im against ref. Both must be
// real images with the same shape.
func Compare(im, ref *raster.Image) (Comparison, error) {
	a, b, err := pixelPair(im, ref)
	if err != nil {
		return Comparison{}, err
	}
	var c Comparison
	c.RMSE = RMSE(a, b)
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, b)
	for _, d := range diff {
		c.MaxAbsDiff = math.Max(c.MaxAbsDiff, math.Abs(d))
	}
	if s := floats.Sum(b); s != 0 {
		c.FluxRatio = floats.Sum(a) / s
	}
	c.Correlation = stat.Correlation(a, b, nil)
	c.SSIM = SSIM(a, b)
	c.MutualInformation = MutualInformation(a, b)
	c.Entropy = Entropy(a)
	return c, nil
}

func pixelPair(im, ref *raster.Image) ([]float64, []float64, error) {
	for _, x := range []*raster.Image{im, ref} {
		if !x.Bounds().IsDefined() {
			return nil, nil, fmt.Errorf("%w: cannot compare images with undefined bounds", gserrors.ErrUndefinedBounds)
		}
		if x.IsComplex() {
			return nil, nil, fmt.Errorf("%w: comparison needs real images", gserrors.ErrValue)
		}
	}
	ar, ac := im.Bounds().NumpyShape()
	br, bc := ref.Bounds().NumpyShape()
	if ar != br || ac != bc {
		return nil, nil, fmt.Errorf("%w: image shapes differ (%dx%d vs %dx%d)",
			gserrors.ErrIncompatibleValues, ar, ac, br, bc)
	}
	return im.Array(), ref.Array(), nil
}

// RMSE returns the root mean square error between two equal-length slices.
func RMSE(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return floats.Distance(a, b, 2) / math.Sqrt(float64(len(a)))
}

// SSIM computes a global structural similarity index. Both slices are
// rescaled to [0,1] by the combined range first.
func SSIM(a, b []float64) float64 {
	lo := math.Min(floats.Min(a), floats.Min(b))
	hi := math.Max(floats.Max(a), floats.Max(b))
	if hi == lo {
		return 1
	}
	x := normalized(a, lo, hi)
	y := normalized(b, lo, hi)

	const (
		k1 = 0.01
		k2 = 0.03
		L  = 1.0
	)
	c1 := (k1 * L) * (k1 * L)
	c2 := (k2 * L) * (k2 * L)

	mx := stat.Mean(x, nil)
	my := stat.Mean(y, nil)
	vx := stat.Variance(x, nil)
	vy := stat.Variance(y, nil)
	cov := stat.Covariance(x, y, nil)

	num := (2*mx*my + c1) * (2*cov + c2)
	den := (mx*mx + my*my + c1) * (vx + vy + c2)
	return num / den
}

func normalized(v []float64, lo, hi float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	floats.AddConst(-lo, out)
	floats.Scale(1/(hi-lo), out)
	return out
}

// MutualInformation approximates the mutual information of two images
// under a bivariate Gaussian assumption, -0.5*log(1-rho^2).
func MutualInformation(a, b []float64) float64 {
	rho := stat.Correlation(a, b, nil)
	if math.IsNaN(rho) {
		return 0
	}
	r2 := math.Min(rho*rho, 1-1e-12)
	return -0.5 * math.Log(1-r2)
}

// Entropy returns the Shannon entropy in bits of a 256-bin histogram of v.
func Entropy(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	lo, hi := floats.Min(v), floats.Max(v)
	if hi == lo {
		return 0
	}
	var hist [256]int
	for _, x := range v {
		bin := int((x - lo) / (hi - lo) * 255)
		hist[bin]++
	}
	var e float64
	n := float64(len(v))
	for _, c := range hist {
		if c > 0 {
			p := float64(c) / n
			e -= p * math.Log2(p)
		}
	}
	return e
}

// Median returns the empirical median of v, the lower middle value for an
// even count. v is not modified.
func Median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	return stat.Quantile(0.5, stat.Empirical, s, nil)
}
