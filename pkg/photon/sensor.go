package photon

import (
	"gsrender/pkg/bounds"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/wcs"
)

// Sensor turns photons into pixel values.
type Sensor interface {
	// Accumulate adds photons to image and returns the flux that landed.
	// origCenter is the center of the image in the caller's frame, before
	// any recentering done for drawing. resume is true for every chunk
	// after the first in a single draw.
	Accumulate(photons *Array, image *raster.Image, origCenter bounds.PositionI, resume bool) (float64, error)
}

// SimpleSensor deposits each photon's flux into the pixel it lands in.
type SimpleSensor struct{}

func (SimpleSensor) Accumulate(photons *Array, image *raster.Image, _ bounds.PositionI, _ bool) (float64, error) {
	return photons.AddTo(image)
}

// Op modifies photons after they are shot and before they reach the
// sensor. Ops are applied in list order. w maps the photon positions,
// which are in pixels about the drawn profile's center, to world
// coordinates; it already includes the draw offset.
type Op interface {
	ApplyTo(photons *Array, w wcs.WCS, rng random.Deviate) error
}

// OpFunc adapts a function to the Op interface.
type OpFunc func(photons *Array, w wcs.WCS, rng random.Deviate) error

func (f OpFunc) ApplyTo(photons *Array, w wcs.WCS, rng random.Deviate) error {
	return f(photons, w, rng)
}
