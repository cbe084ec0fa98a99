package gsobject

import (
	"fmt"
	"math"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/photon"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// Method selects how DrawImage renders an object.
type Method int

const (
	// MethodAuto convolves with the pixel and lets the profile choose
	// between real space and FFT.
	MethodAuto Method = iota
	// MethodFFT convolves with the pixel in Fourier space.
	MethodFFT
	// MethodRealSpace convolves with the pixel in real space.
	MethodRealSpace
	// MethodPhot shoots photons; the pixel response comes from binning.
	MethodPhot
	// MethodNoPixel samples the profile at pixel centers.
	MethodNoPixel
	// MethodSB is MethodNoPixel in surface-brightness units.
	MethodSB
)

var methodNames = [...]string{"auto", "fft", "real_space", "phot", "no_pixel", "sb"}

// methodRealSpace is the pixel convolution mode of the methods that add
// the pixel response.
var methodRealSpace = map[Method]RealSpace{
	MethodAuto:      RealSpaceAuto,
	MethodFFT:       RealSpaceFalse,
	MethodRealSpace: RealSpaceTrue,
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod looks a method up by name.
func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: invalid method name %q, expected one of %v", gserrors.ErrValue, name, methodNames)
}

// DrawOptions are the arguments of DrawImage. Zero values mean "not
// given".
type DrawOptions struct {
	// Image is drawn into, and resized first if its bounds are undefined.
	// Without an Image a new one is made from NX,NY or Bounds, or sized
	// from the profile.
	Image  *raster.Image
	NX, NY int
	Bounds bounds.BoundsI
	// DType names the dtype of a new image; default float32.
	DType string

	// Scale and WCS are mutually exclusive. With neither, the image WCS is
	// used, falling back to the Nyquist scale of the object.
	Scale float64
	WCS   wcs.WCS

	Method Method

	// Area and Exptime scale the flux; zero means 1.
	Area    float64
	Exptime float64
	// Gain converts photons to ADU; zero means 1.
	Gain float64

	AddToImage bool
	// Center places the object at this image position instead of the
	// image center.
	Center *bounds.PositionD
	// IntegerCenter centers even-sized images on the pixel up and right of
	// the true center.
	IntegerCenter bool
	// Offset is added to the object position, in pixels.
	Offset bounds.PositionD

	// Photon shooting only.
	NPhotons      float64
	RNG           random.Deviate
	MaxExtraNoise float64
	PoissonFlux   *bool
	Sensor        photon.Sensor
	PhotonOps     []photon.Op
	// MaxN caps the photons shot at once; zero shoots all in one go.
	MaxN        int
	SavePhotons bool

	// SetupOnly returns the prepared image without drawing.
	SetupOnly bool
}

// DrawResult reports what DrawImage did.
type DrawResult struct {
	// AddedFlux is the flux that landed inside the image bounds, in the
	// units of the object flux.
	AddedFlux float64
	// Photons holds the photons shot when SavePhotons was set.
	Photons *photon.Array
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func incompatible(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{gserrors.ErrIncompatibleValues}, args...)...)
}

// validate checks argument combinations that do not depend on the image.
func (o *DrawOptions) validate(obj Object) error {
	if o.Method == MethodPhot && o.SavePhotons && o.MaxN > 0 {
		return incompatible("setting maxN is incompatible with save_photons")
	}
	if o.Method < MethodAuto || o.Method > MethodSB {
		return fmt.Errorf("%w: invalid method %v", gserrors.ErrValue, o.Method)
	}
	if o.Method == MethodAuto && containsPixel(obj) {
		Logger().Warn("drawImage with method auto for an object that includes convolution by a Pixel; " +
			"this is probably an error. Use method no_pixel to handle the pixel yourself, " +
			"or fft to convolve by an additional pixel")
	}
	if o.Method != MethodPhot {
		if o.NPhotons != 0 {
			return incompatible("n_photons is only relevant for method phot")
		}
		if o.PoissonFlux != nil {
			return incompatible("poisson_flux is only relevant for method phot")
		}
		if o.Sensor == nil {
			switch {
			case o.RNG != nil:
				return incompatible("rng is only relevant for method phot or when using a sensor")
			case o.MaxN != 0:
				return incompatible("maxN is only relevant for method phot or when using a sensor")
			case o.SavePhotons:
				return incompatible("save_photons is only valid for method phot or when using a sensor")
			}
		}
	}
	if o.Scale != 0 && o.WCS != nil {
		return incompatible("cannot provide both wcs and scale")
	}
	return nil
}

// determineWCS picks the WCS from scale, wcs and the image WCS, with the
// Nyquist scale as a fallback and in place of a non-positive pixel scale.
func determineWCS(obj Object, o *DrawOptions) wcs.WCS {
	var w wcs.WCS
	switch {
	case o.WCS != nil:
		w = o.WCS
	case o.Scale != 0:
		w = wcs.NewPixelScale(o.Scale)
	case o.Image != nil && o.Image.WCS() != nil:
		w = o.Image.WCS()
	}
	if w == nil {
		return wcs.NewPixelScale(NyquistScale(obj))
	}
	if s, ok := wcs.ScaleOf(w); ok && w.IsLocal() && s <= 0 {
		return wcs.NewPixelScale(NyquistScale(obj))
	}
	return w
}

// newBounds is the bounds the drawn image will have, if known before it is
// set up.
func newBounds(o *DrawOptions) bounds.BoundsI {
	switch {
	case o.Image != nil && o.Image.Bounds().IsDefined():
		return o.Image.Bounds()
	case o.NX != 0 && o.NY != 0:
		b := bounds.NewBoundsI(1, o.NX, 1, o.NY)
		if o.Center != nil {
			c := b.Center()
			b = b.Shift(bounds.PositionI{
				X: int(math.Floor(o.Center.X+0.5)) - c.X,
				Y: int(math.Floor(o.Center.Y+0.5)) - c.Y,
			})
		}
		return b
	case o.Bounds.IsDefined():
		return o.Bounds
	}
	return bounds.BoundsI{}
}

// localWCS is the jacobian of w at the object position.
func localWCS(w wcs.WCS, o *DrawOptions, nb bounds.BoundsI) (wcs.Local, error) {
	if w.IsUniform() {
		return w.Local(bounds.PositionD{}), nil
	}
	if !nb.IsDefined() {
		return nil, incompatible("cannot provide non-local wcs with automatically sized image")
	}
	var pos bounds.PositionD
	switch {
	case o.Center != nil:
		pos = *o.Center
	case !o.IntegerCenter:
		pos = nb.TrueCenter()
	default:
		pos = nb.Center().ToD()
	}
	return w.Local(pos.Add(o.Offset)), nil
}

// adjustOffset moves the object to the requested center, or to the true
// center of an even-sized image.
func adjustOffset(nb bounds.BoundsI, offset bounds.PositionD, center *bounds.PositionD, trueCenter bool) bounds.PositionD {
	switch {
	case center != nil && nb.IsDefined():
		return offset.Add(center.Sub(nb.Center().ToD()))
	case center != nil:
		// An automatically sized image is even and centered on ceil(center).
		return offset.Add(bounds.PositionD{X: center.X - math.Ceil(center.X), Y: center.Y - math.Ceil(center.Y)})
	case trueCenter:
		rows, cols := nb.NumpyShape()
		offset.X -= 0.5 * float64((cols+1)%2)
		offset.Y -= 0.5 * float64((rows+1)%2)
	}
	return offset
}

// profileToImage expresses obj in image coordinates through the local WCS,
// scaling its flux by fluxRatio and shifting it by offset pixels.
func profileToImage(obj Object, local wcs.Local, fluxRatio float64, offset bounds.PositionD) (Object, error) {
	inv, err := local.Jacobian().Inverse()
	if err != nil {
		return nil, fmt.Errorf("failed to map profile to image coordinates: %w", err)
	}
	return NewTransformation(obj, inv, offset, fluxRatio)
}

// imageRequest holds the image-shaping arguments shared by DrawImage and
// DrawKImage.
type imageRequest struct {
	image    *raster.Image
	nx, ny   int
	bounds   bounds.BoundsI
	add      bool
	dtype    raster.DType
	dtypeSet bool
	center   *bounds.PositionD
}

// setupImage returns the image to draw into, creating or resizing it as
// needed. Automatically sized images get GoodImageSize(prof, 1) pixels on
// a side, plus one when odd is set.
func setupImage(prof Object, r imageRequest, odd bool) (*raster.Image, error) {
	goodSize := func() int {
		n := GoodImageSize(prof, 1)
		if odd {
			n++
		}
		return n
	}

	if r.image != nil {
		if r.bounds.IsDefined() {
			return nil, incompatible("cannot provide bounds if image is provided")
		}
		if r.nx != 0 || r.ny != 0 {
			return nil, incompatible("cannot provide nx,ny if image is provided")
		}
		if r.dtypeSet && r.image.DType() != r.dtype {
			return nil, incompatible("cannot specify dtype %v != image dtype %v", r.dtype, r.image.DType())
		}
		if !r.image.Bounds().IsDefined() {
			if r.add {
				return nil, incompatible("cannot add_to_image if image bounds are not defined")
			}
			n := goodSize()
			if err := r.image.Resize(bounds.NewBoundsI(1, n, 1, n), r.image.WCS()); err != nil {
				return nil, err
			}
		}
		return r.image, nil
	}

	if r.add {
		return nil, incompatible("cannot add_to_image if image is not provided")
	}
	switch {
	case r.bounds.IsDefined():
		if r.nx != 0 || r.ny != 0 {
			return nil, incompatible("cannot set both bounds and (nx, ny)")
		}
		return raster.New(r.bounds, r.dtype), nil
	case r.nx != 0 || r.ny != 0:
		if r.nx == 0 || r.ny == 0 {
			return nil, incompatible("must set either both or neither of nx, ny")
		}
		im, err := raster.NewSize(r.nx, r.ny, r.dtype)
		if err != nil {
			return nil, err
		}
		if r.center != nil {
			// Same placement as newBounds, so the offset computed there holds.
			im.SetCenter(bounds.PositionI{
				X: int(math.Floor(r.center.X + 0.5)),
				Y: int(math.Floor(r.center.Y + 0.5)),
			})
		}
		return im, nil
	}
	n := goodSize()
	im := raster.New(bounds.NewBoundsI(1, n, 1, n), r.dtype)
	if r.center != nil {
		im.SetCenter(bounds.PositionI{X: int(math.Ceil(r.center.X)), Y: int(math.Ceil(r.center.Y))})
	}
	return im, nil
}

// DrawImage renders obj into an image and returns it. When opts.Image is
// given it is drawn into in place, and returned.
//
// The object is mapped into image coordinates through the local WCS, with
// its flux scaled by area*exptime (and 1/gain unless shooting photons, and
// 1/pixel area for MethodSB). Methods auto, fft and real_space convolve by
// the pixel response first. The image keeps its bounds and WCS.
func DrawImage(obj Object, opts DrawOptions) (*raster.Image, DrawResult, error) {
	var res DrawResult
	if err := opts.validate(obj); err != nil {
		return nil, res, err
	}
	dtype := raster.Float32
	if opts.DType != "" {
		d, err := raster.ParseDType(opts.DType)
		if err != nil {
			return nil, res, err
		}
		dtype = d
	}

	w := determineWCS(obj, &opts)
	nb := newBounds(&opts)
	local, err := localWCS(w, &opts, nb)
	if err != nil {
		return nil, res, err
	}

	fluxScale := orOne(opts.Area) * orOne(opts.Exptime)
	if opts.Method == MethodSB {
		fluxScale /= local.PixelArea()
	}
	if opts.Method != MethodPhot && opts.Sensor == nil {
		fluxScale /= orOne(opts.Gain)
	}

	offset := adjustOffset(nb, opts.Offset, opts.Center, !opts.IntegerCenter)
	prof, err := profileToImage(obj, local, fluxScale, offset)
	if err != nil {
		return nil, res, err
	}

	switch opts.Method {
	case MethodAuto, MethodFFT, MethodRealSpace:
		rs := methodRealSpace[opts.Method]
		pix, err := NewPixel(1)
		if err != nil {
			return nil, res, err
		}
		g := obj.GSParams()
		conv, err := NewConvolution([]Object{prof, pix.WithGSParams(g)}, ConvolveOptions{RealSpace: rs, GSParams: &g})
		if err != nil {
			return nil, res, err
		}
		prof = conv
	}

	image, err := setupImage(prof, imageRequest{
		image:    opts.Image,
		nx:       opts.NX,
		ny:       opts.NY,
		bounds:   opts.Bounds,
		add:      opts.AddToImage,
		dtype:    dtype,
		dtypeSet: opts.DType != "",
		center:   opts.Center,
	}, false)
	if err != nil {
		return nil, res, err
	}
	image.SetWCS(w)
	if opts.SetupOnly {
		return image, res, nil
	}

	origCenter := image.Center()
	image.SetCenter(bounds.PositionI{})
	image.SetWCS(wcs.NewPixelScale(1))

	var added float64
	if opts.Method == MethodPhot {
		added, res.Photons, err = drawPhot(prof, image, &opts, origCenter, local.ShiftOrigin(offset))
	} else {
		if opts.Sensor != nil || len(opts.PhotonOps) > 0 {
			err = fmt.Errorf("%w: sensor and photon ops need method phot", gserrors.ErrNotImplemented)
		} else if prof.IsAnalyticX() {
			added, err = DrawReal(prof, image, opts.AddToImage)
		} else {
			added, err = DrawFFT(prof, image, opts.AddToImage)
		}
	}
	image.Shift(origCenter)
	image.SetWCS(w)
	if err != nil {
		return nil, DrawResult{}, err
	}
	res.AddedFlux = added / fluxScale
	if !opts.SavePhotons {
		res.Photons = nil
	}
	Logger().Debug("drawImage", "method", opts.Method.String(), "bounds", image.Bounds().String(),
		"added_flux", res.AddedFlux)
	return image, res, nil
}

// DrawReal draws obj into image by evaluating it at the pixel centers and
// returns the flux drawn. The image needs a pixel-scale WCS.
func DrawReal(obj Object, image *raster.Image, add bool) (float64, error) {
	scale, err := image.Scale()
	if err != nil {
		return 0, fmt.Errorf("drawReal requires an image with a PixelScale wcs: %w", err)
	}
	if err := checkDrawable(image); err != nil {
		return 0, err
	}
	tmp := raster.New(image.Bounds(), raster.Float64)
	if err := obj.DrawReal(tmp, wcs.Diag(scale, scale), bounds.PositionD{}, scale*scale); err != nil {
		return 0, err
	}
	tmp = tmp.AsType(image.DType())
	if add {
		err = image.IAdd(tmp)
	} else {
		err = image.CopyFrom(tmp)
	}
	if err != nil {
		return 0, err
	}
	return tmp.Sum(), nil
}

// KImageOptions are the arguments of DrawKImage. Zero values mean "not
// given".
type KImageOptions struct {
	Image  *raster.Image
	NX, NY int
	Bounds bounds.BoundsI
	// Scale is the k spacing dk; default the image scale or obj.StepK().
	Scale      float64
	AddToImage bool
	// KeepCenter leaves a provided image where it is instead of centering
	// it on (0,0).
	KeepCenter bool
	SetupOnly  bool
}

// DrawKImage draws the Fourier transform of obj into a complex image whose
// pixel (i,j) holds the amplitude at k = dk*(i,j).
func DrawKImage(obj Object, opts KImageOptions) (*raster.Image, error) {
	dk := opts.Scale
	if dk == 0 && opts.Image != nil {
		if s, ok := wcs.ScaleOf(opts.Image.WCS()); ok {
			dk = s
		}
	}
	if dk <= 0 {
		dk = obj.StepK()
	}

	image := opts.Image
	if image == nil {
		var dx float64
		switch {
		case opts.NX != 0 && opts.NY != 0:
			dx = math.Pi / (float64(max(opts.NX, opts.NY)/2) * dk)
		case opts.Bounds.IsDefined():
			rows, cols := opts.Bounds.NumpyShape()
			dx = math.Pi / (float64(max(rows, cols)/2) * dk)
		case opts.Scale == 0:
			dx = NyquistScale(obj)
		default:
			dx = NyquistScale(obj) * dk / obj.StepK()
		}
		prof, err := NewTransformation(obj, wcs.Diag(1/dx, 1/dx), bounds.PositionD{}, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to size k image: %w", err)
		}
		image, err = setupImage(prof, imageRequest{
			nx:     opts.NX,
			ny:     opts.NY,
			bounds: opts.Bounds,
			add:    opts.AddToImage,
			dtype:  raster.Complex128,
		}, true)
		if err != nil {
			return nil, err
		}
	} else {
		if opts.Bounds.IsDefined() {
			return nil, incompatible("cannot provide bounds if image is provided")
		}
		if opts.NX != 0 || opts.NY != 0 {
			return nil, incompatible("cannot provide nx,ny if image is provided")
		}
	}

	recenter := !opts.KeepCenter
	if recenter && image.Center() != (bounds.PositionI{}) && opts.AddToImage {
		return nil, incompatible("cannot use add_to_image unless image is centered at (0,0) or the center is kept")
	}
	if recenter {
		image.Shift(image.Center().Neg())
	}
	image.SetWCS(wcs.NewPixelScale(dk))
	if opts.SetupOnly {
		return image, nil
	}

	tmp := raster.New(image.Bounds(), raster.Complex128)
	tmp.SetWCS(image.WCS())
	if err := obj.DrawKImage(tmp, wcs.Identity); err != nil {
		return nil, err
	}
	var err error
	if opts.AddToImage {
		err = image.IAdd(tmp)
	} else {
		err = image.CopyFrom(tmp)
	}
	if err != nil {
		return nil, err
	}
	return image, nil
}
