// Package imageio stores rendered images as YAML documents holding the
// pixel array, bounds, dtype and WCS, so that a render can be reloaded
// exactly.
package imageio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// document is the on-disk layout of an image.
type document struct {
	DType  string    `yaml:"dtype"`
	Bounds boundsDoc `yaml:"bounds"`
	WCS    *wcsDoc   `yaml:"wcs,omitempty"`
	Data   []float64 `yaml:"data,flow,omitempty"`
	Imag   []float64 `yaml:"imag,flow,omitempty"`
}

type boundsDoc struct {
	XMin int `yaml:"xmin"`
	XMax int `yaml:"xmax"`
	YMin int `yaml:"ymin"`
	YMax int `yaml:"ymax"`
}

// wcsDoc holds any of the supported WCS kinds. Fields not used by Kind are
// left zero.
type wcsDoc struct {
	Kind        string      `yaml:"kind"`
	Scale       float64     `yaml:"scale,omitempty"`
	Jacobian    []float64   `yaml:"jacobian,flow,omitempty"`
	Origin      *[2]float64 `yaml:"origin,flow,omitempty"`
	WorldOrigin *[2]float64 `yaml:"worldOrigin,flow,omitempty"`
}

const (
	kindPixelScale = "pixelScale"
	kindJacobian   = "jacobian"
	kindOffset     = "offset"
	kindAffine     = "affine"
)

func pair(p bounds.PositionD) *[2]float64 { return &[2]float64{p.X, p.Y} }

func position(p *[2]float64) bounds.PositionD {
	if p == nil {
		return bounds.PositionD{}
	}
	return bounds.PositionD{X: p[0], Y: p[1]}
}

func jacobianSlice(j wcs.Jacobian) []float64 { return []float64{j.DUDX, j.DUDY, j.DVDX, j.DVDY} }

func encodeWCS(w wcs.WCS) (*wcsDoc, error) {
	switch w := w.(type) {
	case nil:
		return nil, nil
	case wcs.PixelScale:
		return &wcsDoc{Kind: kindPixelScale, Scale: w.Scale}, nil
	case wcs.Jacobian:
		return &wcsDoc{Kind: kindJacobian, Jacobian: jacobianSlice(w)}, nil
	case wcs.OffsetWCS:
		return &wcsDoc{Kind: kindOffset, Scale: w.Scale, Origin: pair(w.Origin), WorldOrigin: pair(w.WorldOrigin)}, nil
	case wcs.AffineWCS:
		return &wcsDoc{Kind: kindAffine, Jacobian: jacobianSlice(w.Jac), Origin: pair(w.Origin), WorldOrigin: pair(w.WorldOrigin)}, nil
	}
	return nil, fmt.Errorf("%w: cannot store wcs of type %T", gserrors.ErrNotImplemented, w)
}

func (d *wcsDoc) decode() (wcs.WCS, error) {
	if d == nil {
		return nil, nil
	}
	jac := func() (wcs.Jacobian, error) {
		if len(d.Jacobian) != 4 {
			return wcs.Jacobian{}, fmt.Errorf("%w: jacobian needs 4 elements, got %d", gserrors.ErrValue, len(d.Jacobian))
		}
		return wcs.NewJacobian(d.Jacobian[0], d.Jacobian[1], d.Jacobian[2], d.Jacobian[3]), nil
	}
	switch d.Kind {
	case kindPixelScale:
		return wcs.PixelScale{Scale: d.Scale}, nil
	case kindJacobian:
		return jac()
	case kindOffset:
		return wcs.OffsetWCS{Scale: d.Scale, Origin: position(d.Origin), WorldOrigin: position(d.WorldOrigin)}, nil
	case kindAffine:
		j, err := jac()
		if err != nil {
			return nil, err
		}
		return wcs.AffineWCS{Jac: j, Origin: position(d.Origin), WorldOrigin: position(d.WorldOrigin)}, nil
	}
	return nil, fmt.Errorf("%w: unknown wcs kind %q", gserrors.ErrValue, d.Kind)
}

// Marshal encodes an image as YAML. The image must have defined bounds.
func Marshal(im *raster.Image) ([]byte, error) {
	b := im.Bounds()
	if !b.IsDefined() {
		return nil, fmt.Errorf("%w: cannot store an image with undefined bounds", gserrors.ErrUndefinedBounds)
	}
	w, err := encodeWCS(im.WCS())
	if err != nil {
		return nil, err
	}
	doc := document{
		DType:  im.DType().String(),
		Bounds: boundsDoc{XMin: b.XMin, XMax: b.XMax, YMin: b.YMin, YMax: b.YMax},
		WCS:    w,
	}
	if im.IsComplex() {
		c := im.ComplexArray()
		doc.Data = make([]float64, len(c))
		doc.Imag = make([]float64, len(c))
		for i, v := range c {
			doc.Data[i], doc.Imag[i] = real(v), imag(v)
		}
	} else {
		doc.Data = im.Array()
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("error marshaling image: %w", err)
	}
	return data, nil
}

// Unmarshal decodes an image written by Marshal.
func Unmarshal(data []byte) (*raster.Image, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing image: %w", err)
	}
	dtype, err := raster.ParseDType(doc.DType)
	if err != nil {
		return nil, err
	}
	b := bounds.NewBoundsI(doc.Bounds.XMin, doc.Bounds.XMax, doc.Bounds.YMin, doc.Bounds.YMax)
	if !b.IsDefined() {
		return nil, fmt.Errorf("%w: stored bounds %+v are empty", gserrors.ErrUndefinedBounds, doc.Bounds)
	}
	_, ncol := b.NumpyShape()

	var im *raster.Image
	if dtype.IsComplex() {
		if len(doc.Imag) != len(doc.Data) {
			return nil, fmt.Errorf("%w: %d real and %d imaginary values", gserrors.ErrIncompatibleValues,
				len(doc.Data), len(doc.Imag))
		}
		c := make([]complex128, len(doc.Data))
		for i := range c {
			c[i] = complex(doc.Data[i], doc.Imag[i])
		}
		im, err = raster.FromComplexArray(c, ncol, b, dtype)
	} else {
		im, err = raster.FromArray(doc.Data, ncol, b, dtype)
	}
	if err != nil {
		return nil, err
	}

	w, err := doc.WCS.decode()
	if err != nil {
		return nil, err
	}
	im.SetWCS(w)
	return im, nil
}

// Save writes an image to path, creating the directory if needed.
func Save(im *raster.Image, path string) error {
	data, err := Marshal(im)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating image directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing image file: %w", err)
	}
	return nil
}

// Load reads an image written by Save.
func Load(path string) (*raster.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading image file: %w", err)
	}
	im, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return im, nil
}
