// Package config provides configuration loading and management for gsrender.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"gsrender/pkg/gserrors"
	"gsrender/pkg/gsobject"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Accuracy holds the GSParams attached to every object in the scene
	Accuracy gsobject.GSParams `yaml:"gsparams"`

	// Processing parameters
	Processing struct {
		// NumCores caps how many renders run at the same time
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Draw parameters, passed to gsobject.DrawImage
	Draw struct {
		// Method is the drawing method: auto, fft, real_space, phot, no_pixel or sb
		Method string `yaml:"method"`

		// Reference is a second method drawn on the same grid for comparison.
		// Empty disables the comparison.
		Reference string `yaml:"reference"`

		// NX and NY give the image size; zero sizes the image from the profile
		NX int `yaml:"nx"`
		NY int `yaml:"ny"`

		// Scale is the pixel scale in arcsec
		Scale float64 `yaml:"scale"`

		// DType of the rendered image
		DType string `yaml:"dtype"`

		// NPhotons to shoot; zero uses the flux
		NPhotons float64 `yaml:"nPhotons"`

		// MaxN caps the photons shot in one chunk; zero shoots all at once
		MaxN int `yaml:"maxN"`

		// Seed of the photon deviate; zero seeds from the clock
		Seed uint64 `yaml:"seed"`

		// PoissonFlux lets the total flux vary with the photon count
		PoissonFlux bool `yaml:"poissonFlux"`

		Gain    float64 `yaml:"gain"`
		Exptime float64 `yaml:"exptime"`
		Area    float64 `yaml:"area"`
	} `yaml:"draw"`

	// Scene parameters
	Scene struct {
		// Galaxy is a sheared and shifted Gaussian
		Galaxy struct {
			Sigma float64    `yaml:"sigma"`
			Flux  float64    `yaml:"flux"`
			Shear [2]float64 `yaml:"shear,flow"`
			Shift [2]float64 `yaml:"shift,flow"`
		} `yaml:"galaxy"`

		// PSFSigma is the width of the Gaussian PSF the galaxy is convolved with
		PSFSigma float64 `yaml:"psfSigma"`

		// Deconvolve removes the PSF again and convolves with a Gaussian of
		// width TargetPSFSigma instead
		Deconvolve     bool    `yaml:"deconvolve"`
		TargetPSFSigma float64 `yaml:"targetPSFSigma"`
	} `yaml:"scene"`

	// Output parameters
	Output struct {
		// Image is the path of the YAML image file
		Image string `yaml:"image"`

		// TIFF is the path of the 16-bit export; empty skips it
		TIFF string `yaml:"tiff"`

		// Preview is the path of the false-colour PNG; empty skips it
		Preview string `yaml:"preview"`

		// SaveIntermediaryResults determines whether to save the scene components
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Accuracy = gsobject.DefaultGSParams()

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU()

	// Set default draw parameters
	cfg.Draw.Method = "auto"
	cfg.Draw.Reference = "phot"
	cfg.Draw.NX = 64
	cfg.Draw.NY = 64
	cfg.Draw.Scale = 0.2
	cfg.Draw.DType = "float32"
	cfg.Draw.NPhotons = 1e6
	cfg.Draw.MaxN = 100000
	cfg.Draw.Seed = 1234

	// Set default scene parameters
	cfg.Scene.Galaxy.Sigma = 1.0
	cfg.Scene.Galaxy.Flux = 1e5
	cfg.Scene.Galaxy.Shear = [2]float64{0.2, 0.1}
	cfg.Scene.PSFSigma = 0.5
	cfg.Scene.TargetPSFSigma = 0.8

	// Set default output parameters
	cfg.Output.Image = "render.yaml"
	cfg.Output.TIFF = "render.tif"
	cfg.Output.Preview = "render.png"
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = true

	return cfg
}

// GSParams returns the validated accuracy parameters
func (c *Config) GSParams() (gsobject.GSParams, error) {
	if err := c.Accuracy.Validate(); err != nil {
		return gsobject.GSParams{}, fmt.Errorf("invalid gsparams: %w", err)
	}
	return c.Accuracy, nil
}

// Validate checks the configuration for values that cannot be rendered
func (c *Config) Validate() error {
	if _, err := c.GSParams(); err != nil {
		return err
	}
	method, err := gsobject.ParseMethod(c.Draw.Method)
	if err != nil {
		return fmt.Errorf("invalid draw method: %w", err)
	}
	methods := []gsobject.Method{method}
	if c.Draw.Reference != "" {
		ref, err := gsobject.ParseMethod(c.Draw.Reference)
		if err != nil {
			return fmt.Errorf("invalid reference method: %w", err)
		}
		methods = append(methods, ref)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("%w: numCores must be at least 1, got %d", gserrors.ErrValue, c.Processing.NumCores)
	}
	if c.Draw.NX < 0 || c.Draw.NY < 0 || (c.Draw.NX == 0) != (c.Draw.NY == 0) {
		return fmt.Errorf("%w: nx and ny must both be positive or both zero, got %d and %d",
			gserrors.ErrValue, c.Draw.NX, c.Draw.NY)
	}
	if c.Draw.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", gserrors.ErrValue, c.Draw.Scale)
	}
	if c.Scene.Galaxy.Sigma <= 0 || c.Scene.PSFSigma <= 0 {
		return fmt.Errorf("%w: galaxy and psf sigma must be positive", gserrors.ErrValue)
	}
	if c.Scene.Deconvolve {
		if c.Scene.TargetPSFSigma <= c.Scene.PSFSigma {
			return fmt.Errorf("%w: targetPSFSigma (%g) must exceed psfSigma (%g) when deconvolving",
				gserrors.ErrValue, c.Scene.TargetPSFSigma, c.Scene.PSFSigma)
		}
		for _, m := range methods {
			if m == gsobject.MethodPhot {
				return fmt.Errorf("%w: a deconvolved scene cannot be drawn by photon shooting",
					gserrors.ErrIncompatibleValues)
			}
		}
	}
	if c.Output.Image == "" {
		return fmt.Errorf("%w: output image path is required", gserrors.ErrValue)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
