package gsobject

import (
	"fmt"
	"math"

	"gsrender/pkg/gserrors"
)

// GSParams holds the accuracy and size trade-offs attached to every
// object. It is comparable with ==.
type GSParams struct {
	MinimumFFTSize   int     `yaml:"minimumFFTSize"`
	MaximumFFTSize   int     `yaml:"maximumFFTSize"`
	FoldingThreshold float64 `yaml:"foldingThreshold"`
	StepKMinimumHLR  float64 `yaml:"stepKMinimumHLR"`
	MaxKThreshold    float64 `yaml:"maxKThreshold"`
	KValueAccuracy   float64 `yaml:"kValueAccuracy"`
	XValueAccuracy   float64 `yaml:"xValueAccuracy"`
	ShootAccuracy    float64 `yaml:"shootAccuracy"`
	RealSpaceRelErr  float64 `yaml:"realSpaceRelErr"`
	RealSpaceAbsErr  float64 `yaml:"realSpaceAbsErr"`
}

// DefaultGSParams returns the standard settings.
func DefaultGSParams() GSParams {
	return GSParams{
		MinimumFFTSize:   128,
		MaximumFFTSize:   8192,
		FoldingThreshold: 5e-3,
		StepKMinimumHLR:  5,
		MaxKThreshold:    1e-3,
		KValueAccuracy:   1e-5,
		XValueAccuracy:   1e-5,
		ShootAccuracy:    1e-5,
		RealSpaceRelErr:  1e-4,
		RealSpaceAbsErr:  1e-6,
	}
}

// Validate checks that every field is usable.
func (g GSParams) Validate() error {
	if g.MinimumFFTSize < 2 || g.MaximumFFTSize < g.MinimumFFTSize {
		return fmt.Errorf("%w: fft sizes must satisfy 2 <= minimum (%d) <= maximum (%d)",
			gserrors.ErrValue, g.MinimumFFTSize, g.MaximumFFTSize)
	}
	for name, v := range map[string]float64{
		"foldingThreshold": g.FoldingThreshold,
		"maxKThreshold":    g.MaxKThreshold,
		"kValueAccuracy":   g.KValueAccuracy,
		"xValueAccuracy":   g.XValueAccuracy,
		"shootAccuracy":    g.ShootAccuracy,
		"realSpaceRelErr":  g.RealSpaceRelErr,
		"realSpaceAbsErr":  g.RealSpaceAbsErr,
	} {
		if !(v > 0 && v < 1) {
			return fmt.Errorf("%w: %s must be in (0,1), got %g", gserrors.ErrValue, name, v)
		}
	}
	if g.StepKMinimumHLR <= 0 {
		return fmt.Errorf("%w: stepKMinimumHLR must be positive, got %g", gserrors.ErrValue, g.StepKMinimumHLR)
	}
	return nil
}

// CombineGSParams returns the most restrictive combination of gs: the
// largest FFT sizes and step-k padding, the smallest thresholds.
func CombineGSParams(gs ...GSParams) GSParams {
	if len(gs) == 0 {
		return DefaultGSParams()
	}
	out := gs[0]
	for _, g := range gs[1:] {
		out.MinimumFFTSize = max(out.MinimumFFTSize, g.MinimumFFTSize)
		out.MaximumFFTSize = max(out.MaximumFFTSize, g.MaximumFFTSize)
		out.FoldingThreshold = math.Min(out.FoldingThreshold, g.FoldingThreshold)
		out.StepKMinimumHLR = math.Max(out.StepKMinimumHLR, g.StepKMinimumHLR)
		out.MaxKThreshold = math.Min(out.MaxKThreshold, g.MaxKThreshold)
		out.KValueAccuracy = math.Min(out.KValueAccuracy, g.KValueAccuracy)
		out.XValueAccuracy = math.Min(out.XValueAccuracy, g.XValueAccuracy)
		out.ShootAccuracy = math.Min(out.ShootAccuracy, g.ShootAccuracy)
		out.RealSpaceRelErr = math.Min(out.RealSpaceRelErr, g.RealSpaceRelErr)
		out.RealSpaceAbsErr = math.Min(out.RealSpaceAbsErr, g.RealSpaceAbsErr)
	}
	return out
}
