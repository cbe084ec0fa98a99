// Package gserrors defines the error values shared by the rendering packages.
//
// Callers should match with errors.Is against the sentinel values; the typed
// errors below carry extra context and unwrap to their sentinel.
package gserrors

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatibleValues reports mutually exclusive or jointly required
	// arguments that were combined incorrectly.
	ErrIncompatibleValues = errors.New("incompatible values")

	// ErrValue reports an argument with an invalid value, e.g. an unknown
	// dtype or a non-integral BoundsI extent.
	ErrValue = errors.New("invalid value")

	// ErrBounds reports an access outside the bounds of an image.
	ErrBounds = errors.New("out of bounds")

	// ErrUndefinedBounds reports an operation that needs defined bounds.
	ErrUndefinedBounds = errors.New("undefined bounds")

	// ErrImmutable reports an attempt to modify a const image.
	ErrImmutable = errors.New("immutable image")

	// ErrNotImplemented reports an operation the object cannot perform,
	// e.g. real-space evaluation of a convolution.
	ErrNotImplemented = errors.New("not implemented")

	// ErrFFTSize reports an FFT that exceeds the configured maximum size.
	ErrFFTSize = errors.New("fft too large")
)

// FFTSizeError is returned when a rendering step would need an FFT larger
// than GSParams.MaximumFFTSize.
type FFTSizeError struct {
	Msg  string
	Size int
}

// MemoryGB is the approximate memory needed for an FFT of this size.
func (e *FFTSizeError) MemoryGB() float64 {
	return float64(e.Size) * float64(e.Size) * 24 / (1 << 30)
}

func (e *FFTSizeError) Error() string {
	return fmt.Sprintf("%s: fft size %d would need about %.2f GB", e.Msg, e.Size, e.MemoryGB())
}

func (e *FFTSizeError) Unwrap() error { return ErrFFTSize }

// BoundsError is returned when a position or sub-region falls outside the
// bounds of an image.
type BoundsError struct {
	Msg    string
	Target string
	Bounds string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: %s not in %s", e.Msg, e.Target, e.Bounds)
}

func (e *BoundsError) Unwrap() error { return ErrBounds }
