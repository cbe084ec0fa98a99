package gsobject

import (
	"fmt"
	"math"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// DrawFFTMakeKImage sizes the k image for drawing obj into image by FFT.
// It returns the k image, covering kx in [0, Nk/2] and ky in [-Nk/2, Nk/2]
// with spacing dk = 2pi/(N scale), and the real-space FFT size N. Nk exceeds
// N when N would alias beyond the profile's maxK; the k image is then
// wrapped down to N before the inverse transform.
func DrawFFTMakeKImage(obj Object, image *raster.Image) (*raster.Image, int, error) {
	scale, err := image.Scale()
	if err != nil {
		return nil, 0, fmt.Errorf("drawFFT requires an image with a PixelScale wcs: %w", err)
	}
	if !image.Bounds().IsDefined() {
		return nil, 0, fmt.Errorf("%w: drawFFT requires an image with defined bounds", gserrors.ErrUndefinedBounds)
	}
	g := obj.GSParams()

	var n, nk int
	var dk float64
	if g.MaximumFFTSize == g.MinimumFFTSize {
		n = g.MaximumFFTSize
		nk = n
		dk = 2 * math.Pi / (float64(n) * scale)
	} else {
		n = GoodImageSize(obj, scale)

		b := image.Bounds()
		rows, cols := b.NumpyShape()
		extent := max(abs(b.XMin), abs(b.XMax), abs(b.YMin), abs(b.YMax))
		n = max(n, 2*extent, rows, cols)

		n = raster.GoodFFTSize(n)
		n = max(n, g.MinimumFFTSize)
		dk = 2 * math.Pi / (float64(n) * scale)

		if maxk := obj.MaxK(); float64(n)*dk/2 > maxk {
			nk = n
		} else {
			nk = 2 * int(math.Ceil(maxk/dk))
		}
		if nk > g.MaximumFFTSize {
			return nil, 0, &gserrors.FFTSizeError{Msg: "drawFFT requires an FFT that is too large", Size: nk}
		}
	}
	Logger().Debug("drawFFT sizes", "N", n, "Nk", nk, "dk", dk)

	dtype := raster.Complex64
	switch image.DType() {
	case raster.Complex128, raster.Float64, raster.Int32, raster.Uint32:
		dtype = raster.Complex128
	}
	kimage := raster.New(bounds.NewBoundsI(0, nk/2, -nk/2, nk/2), dtype)
	kimage.SetWCS(wcs.NewPixelScale(dk))
	return kimage, n, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// DrawFFTFinish wraps kimage to wrapSize, transforms it to real space and
// places the part inside image's bounds into image, adding when add is
// set. It returns the flux inside the image bounds.
func DrawFFTFinish(image, kimage *raster.Image, wrapSize int, add bool) (float64, error) {
	n := wrapSize
	no2 := n / 2
	// Wrapping even when Nk == N makes the N/2 row and column Hermitian.
	bwrap := bounds.NewBoundsI(0, no2, -no2, no2-1)
	wrapped, err := kimage.Wrap(bwrap, raster.HermitianX)
	if err != nil {
		return 0, fmt.Errorf("failed to wrap k image: %w", err)
	}

	nh := no2 + 1
	c := make([]complex128, n*nh)
	for ky := -no2; ky < no2; ky++ {
		row := ((ky % n) + n) % n
		for kx := 0; kx <= no2; kx++ {
			c[row*nh+kx] = wrapped.RawComplex(kx, ky)
		}
	}
	a := raster.IRFFT2(c, n)

	breal := bounds.NewBoundsI(-no2, no2-1, -no2, no2-1)
	realImage := raster.New(breal, image.DType())
	realImage.SetWCS(image.WCS())
	for y := -no2; y < no2; y++ {
		row := ((y % n) + n) % n
		for x := -no2; x < no2; x++ {
			realImage.SetRawValue(x, y, a[row*n+((x%n)+n)%n])
		}
	}

	temp, err := realImage.SubImage(image.Bounds())
	if err != nil {
		return 0, fmt.Errorf("fft image does not cover the target: %w", err)
	}
	if add {
		err = image.IAdd(temp)
	} else {
		err = image.CopyFrom(temp)
	}
	if err != nil {
		return 0, err
	}
	return temp.Sum(), nil
}

// DrawFFT draws obj into image by drawing its k image, wrapping it and
// transforming back. The image needs a pixel-scale WCS.
func DrawFFT(obj Object, image *raster.Image, add bool) (float64, error) {
	if err := checkDrawable(image); err != nil {
		return 0, err
	}
	kimage, n, err := DrawFFTMakeKImage(obj, image)
	if err != nil {
		return 0, err
	}
	if err := obj.DrawKImage(kimage, wcs.Identity); err != nil {
		return 0, err
	}
	return DrawFFTFinish(image, kimage, n, add)
}
