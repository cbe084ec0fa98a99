package raster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/wcs"
)

// rfft2 computes the 2-D FFT of the real n x n row-major array a. Row
// transforms are real-to-half-complex; the columns of the half plane are
// then transformed as complex sequences. The result is (n, n/2+1) in
// row-major order, unnormalised.
func rfft2(a []float64, n int) []complex128 {
	nh := n/2 + 1
	out := make([]complex128, n*nh)

	rfft := fourier.NewFFT(n)
	row := make([]complex128, nh)
	for y := 0; y < n; y++ {
		rfft.Coefficients(row, a[y*n:(y+1)*n])
		copy(out[y*nh:(y+1)*nh], row)
	}

	cfft := fourier.NewCmplxFFT(n)
	col := make([]complex128, n)
	for kx := 0; kx < nh; kx++ {
		for y := 0; y < n; y++ {
			col[y] = out[y*nh+kx]
		}
		cfft.Coefficients(col, col)
		for y := 0; y < n; y++ {
			out[y*nh+kx] = col[y]
		}
	}
	return out
}

// irfft2 inverts rfft2, including the 1/n^2 normalisation.
func irfft2(c []complex128, n int) []float64 {
	nh := n/2 + 1
	half := append([]complex128(nil), c...)

	cfft := fourier.NewCmplxFFT(n)
	col := make([]complex128, n)
	for kx := 0; kx < nh; kx++ {
		for y := 0; y < n; y++ {
			col[y] = half[y*nh+kx]
		}
		cfft.Sequence(col, col)
		for y := 0; y < n; y++ {
			half[y*nh+kx] = col[y]
		}
	}

	out := make([]float64, n*n)
	rfft := fourier.NewFFT(n)
	norm := 1 / float64(n*n)
	for y := 0; y < n; y++ {
		row := out[y*n : (y+1)*n]
		rfft.Sequence(row, half[y*nh:(y+1)*nh])
		for x := range row {
			row[x] *= norm
		}
	}
	return out
}

// mod returns v mod n in [0, n).
func mod(v, n int) int {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}

func (im *Image) fftScale(what string) (float64, error) {
	if !im.bounds.IsDefined() {
		return 0, fmt.Errorf("%w: %s requires that the image have defined bounds", gserrors.ErrUndefinedBounds, what)
	}
	if im.wcs == nil {
		return 0, fmt.Errorf("%w: %s requires that the scale be set", gserrors.ErrValue, what)
	}
	s, ok := wcs.ScaleOf(im.wcs)
	if !ok {
		return 0, fmt.Errorf("%w: %s requires that the image has a PixelScale wcs", gserrors.ErrValue, what)
	}
	return s, nil
}

// CalculateFFT returns the Fourier transform of a real image. The image is
// zero padded to [-N/2, N/2-1]^2 with N/2 = max(-xmin, xmax+1, -ymin,
// ymax+1); the result covers kx in [0, N/2] and ky in [-N/2, N/2-1] with
// scale dk = pi/(N/2 dx), normalised by dx^2 so that the k=0 value is the
// image flux.
func (im *Image) CalculateFFT() (*Image, error) {
	dx, err := im.fftScale("calculate_fft")
	if err != nil {
		return nil, err
	}
	if im.IsComplex() {
		return nil, fmt.Errorf("%w: forward FFT of complex dtypes is not supported", gserrors.ErrNotImplemented)
	}
	b := im.bounds
	no2 := max(-b.XMin, b.XMax+1, -b.YMin, b.YMax+1)
	n := 2 * no2

	a := make([]float64, n*n)
	for y := b.YMin; y <= b.YMax; y++ {
		for x := b.XMin; x <= b.XMax; x++ {
			a[mod(y, n)*n+mod(x, n)] = im.RawValue(x, y)
		}
	}
	c := rfft2(a, n)

	dk := math.Pi / (float64(no2) * dx)
	out := New(bounds.NewBoundsI(0, no2, -no2, no2-1), Complex128)
	out.wcs = wcs.NewPixelScale(dk)
	nh := no2 + 1
	for ky := -no2; ky < no2; ky++ {
		for kx := 0; kx <= no2; kx++ {
			out.SetRawComplex(kx, ky, c[mod(ky, n)*nh+kx]*complex(dx*dx, 0))
		}
	}
	return out, nil
}

// CalculateInverseFFT returns the real image whose transform is the
// half-plane k image im. The bounds must include (0,0). The k image is
// padded and Hermitian-wrapped to kx in [0, N/2], ky in [-N/2, N/2-1] with
// N/2 = max(xmax, -ymin, ymax); the result covers [-N/2, N/2-1]^2 with
// scale dx = pi/(N/2 dk).
func (im *Image) CalculateInverseFFT() (*Image, error) {
	dk, err := im.fftScale("calculate_inverse_fft")
	if err != nil {
		return nil, err
	}
	b := im.bounds
	if !b.Includes(bounds.PositionI{}) {
		return nil, &gserrors.BoundsError{
			Msg:    "calculate_inverse_fft requires that the image includes (0,0)",
			Target: bounds.PositionI{}.String(),
			Bounds: b.String(),
		}
	}
	no2 := max(b.XMax, -b.YMin, b.YMax)
	if no2 == 0 {
		return nil, fmt.Errorf("%w: calculate_inverse_fft requires a k image larger than one pixel", gserrors.ErrValue)
	}
	target := bounds.NewBoundsI(0, no2, -no2, no2-1)

	kimage := im
	if b != target {
		full := New(bounds.NewBoundsI(0, no2, -no2, no2), Complex128)
		posx := bounds.NewBoundsI(0, b.XMax, b.YMin, b.YMax)
		copyRegion(full, im, posx)
		if kimage, err = full.Wrap(target, HermitianX); err != nil {
			return nil, fmt.Errorf("failed to wrap k image: %w", err)
		}
	}

	n := 2 * no2
	nh := no2 + 1
	c := make([]complex128, n*nh)
	for ky := -no2; ky < no2; ky++ {
		for kx := 0; kx <= no2; kx++ {
			c[mod(ky, n)*nh+kx] = kimage.RawComplex(kx, ky)
		}
	}
	a := irfft2(c, n)

	dx := math.Pi / (float64(no2) * dk)
	norm := (dk * float64(no2) / math.Pi)
	norm *= norm
	out := New(bounds.NewBoundsI(-no2, no2-1, -no2, no2-1), Float64)
	out.wcs = wcs.NewPixelScale(dx)
	for y := -no2; y < no2; y++ {
		for x := -no2; x < no2; x++ {
			out.SetRawValue(x, y, a[mod(y, n)*n+mod(x, n)]*norm)
		}
	}
	return out, nil
}

// GoodFFTSize rounds n up to the next 2^k or 3*2^k, and at least 2.
func GoodFFTSize(n int) int {
	insize := (1 - 1e-5) * float64(n)
	if insize <= 1 {
		return 2
	}
	log2n := math.Ln2 * math.Ceil(math.Log(insize)/math.Ln2)
	log2n3 := math.Log(3) + math.Ln2*math.Ceil((math.Log(insize)-math.Log(3))/math.Ln2)
	log2n3 = math.Max(log2n3, math.Log(6))
	return max(int(math.Ceil(math.Exp(math.Min(log2n, log2n3))-1e-5)), 2)
}

// IRFFT2 exposes the half-plane inverse transform used by the renderer:
// c is (n, n/2+1) in row-major order with row index ky mod n; the result
// is the n x n real array, normalised by 1/n^2.
func IRFFT2(c []complex128, n int) []float64 { return irfft2(c, n) }
