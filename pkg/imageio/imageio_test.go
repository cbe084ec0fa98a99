package imageio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gsrender/pkg/bounds"
	"gsrender/pkg/gserrors"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// TestRoundTrip checks that every dtype and wcs kind survives Save and Load
func TestRoundTrip(t *testing.T) {
	b := bounds.NewBoundsI(-2, 1, 3, 5)
	origin := bounds.PositionD{X: 1.5, Y: -2}
	world := bounds.PositionD{X: 10, Y: 20}
	jac := wcs.NewJacobian(0.2, 0.01, -0.02, 0.25)

	tests := []struct {
		name  string
		dtype raster.DType
		wcs   wcs.WCS
	}{
		{"float32 pixel scale", raster.Float32, wcs.PixelScale{Scale: 0.2}},
		{"float64 jacobian", raster.Float64, jac},
		{"int32 offset", raster.Int32, wcs.OffsetWCS{Scale: 0.3, Origin: origin, WorldOrigin: world}},
		{"uint16 affine", raster.Uint16, wcs.AffineWCS{Jac: jac, Origin: origin, WorldOrigin: world}},
		{"complex128 no wcs", raster.Complex128, nil},
	}

	dir := t.TempDir()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			im := raster.New(b, tc.dtype)
			for y := b.YMin; y <= b.YMax; y++ {
				for x := b.XMin; x <= b.XMax; x++ {
					if tc.dtype.IsComplex() {
						im.SetRawComplex(x, y, complex(float64(x)+0.25, float64(y)))
					} else {
						im.SetRawValue(x, y, float64(3*x+y+2)+0.1)
					}
				}
			}
			im.SetWCS(tc.wcs)

			path := filepath.Join(dir, "sub", strings.ReplaceAll(tc.name, " ", "_")+".yaml")
			if err := Save(im, path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if got.Bounds() != im.Bounds() {
				t.Errorf("Expected bounds %v, got %v", im.Bounds(), got.Bounds())
			}
			if got.DType() != tc.dtype {
				t.Errorf("Expected dtype %v, got %v", tc.dtype, got.DType())
			}
			if tc.wcs == nil {
				if got.WCS() != nil {
					t.Errorf("Expected no wcs, got %v", got.WCS())
				}
			} else if got.WCS() == nil || !got.WCS().Equal(tc.wcs) {
				t.Errorf("Expected wcs %v, got %v", tc.wcs, got.WCS())
			}
			want, have := im.ComplexArray(), got.ComplexArray()
			for i := range want {
				if want[i] != have[i] {
					t.Errorf("Pixel %d: expected %v, got %v", i, want[i], have[i])
					break
				}
			}
		})
	}
}

// TestMarshalErrors checks the rejected images and documents
func TestMarshalErrors(t *testing.T) {
	empty := raster.New(bounds.BoundsI{}, raster.Float32)
	if _, err := Marshal(empty); !errors.Is(err, gserrors.ErrUndefinedBounds) {
		t.Errorf("Expected ErrUndefinedBounds, got %v", err)
	}

	docs := map[string]error{
		"dtype: float16\nbounds: {xmin: 1, xmax: 1, ymin: 1, ymax: 1}\ndata: [1]\n":                        gserrors.ErrValue,
		"dtype: float32\nbounds: {xmin: 2, xmax: 1, ymin: 1, ymax: 1}\ndata: [1]\n":                        gserrors.ErrUndefinedBounds,
		"dtype: float32\nbounds: {xmin: 1, xmax: 2, ymin: 1, ymax: 1}\ndata: [1, 2, 3]\n":                  gserrors.ErrValue,
		"dtype: complex64\nbounds: {xmin: 1, xmax: 1, ymin: 1, ymax: 1}\ndata: [1]\n":                      gserrors.ErrIncompatibleValues,
		"dtype: float32\nbounds: {xmin: 1, xmax: 1, ymin: 1, ymax: 1}\ndata: [1]\nwcs: {kind: sky}\n":      gserrors.ErrValue,
		"dtype: float32\nbounds: {xmin: 1, xmax: 1, ymin: 1, ymax: 1}\ndata: [1]\nwcs: {kind: jacobian}\n": gserrors.ErrValue,
	}
	for doc, want := range docs {
		if _, err := Unmarshal([]byte(doc)); !errors.Is(err, want) {
			t.Errorf("Document %q: expected %v, got %v", doc, want, err)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}
