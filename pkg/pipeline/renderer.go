// Package pipeline runs a configured render: it builds the scene, draws it
// with the requested method and an optional reference method, measures the
// result and writes the outputs.
package pipeline

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gsrender/pkg/analysis"
	"gsrender/pkg/config"
	"gsrender/pkg/gsobject"
	"gsrender/pkg/imageio"
	"gsrender/pkg/random"
	"gsrender/pkg/raster"
	"gsrender/pkg/visualization"
)

// Metrics holds what was measured on the rendered image.
type Metrics struct {
	// Moments of the primary image
	Moments analysis.Moments

	// AddedFlux is the flux that landed on the primary image
	AddedFlux float64

	// Reference compares the primary image with the reference render.
	// Only set when HasReference is true.
	Reference    analysis.Comparison
	HasReference bool

	// Elapsed is the wall time of each render, keyed by method name
	Elapsed map[string]time.Duration
}

// Renderer draws the scene described by a configuration.
type Renderer struct {
	// cfg is the validated configuration
	cfg *config.Config

	// scene is the full profile; components holds its named parts
	scene      gsobject.Object
	components map[string]gsobject.Object

	// nx and ny are the image size shared by every render
	nx, ny int

	image     *raster.Image
	reference *raster.Image

	metrics Metrics
}

// NewRenderer validates cfg and builds the scene.
func NewRenderer(cfg *config.Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scene, components, err := BuildScene(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}
	r := &Renderer{cfg: cfg, scene: scene, components: components, nx: cfg.Draw.NX, ny: cfg.Draw.NY}
	if r.nx == 0 {
		// Both renders must share one grid for the comparison.
		n := gsobject.GoodImageSize(scene, cfg.Draw.Scale)
		r.nx, r.ny = n, n
	}
	return r, nil
}

// BuildScene makes the galaxy, convolves it with the PSF and, if asked,
// swaps the PSF for the target PSF by deconvolution. The scene and its
// named components carry the configured GSParams.
func BuildScene(cfg *config.Config) (gsobject.Object, map[string]gsobject.Object, error) {
	gsp, err := cfg.GSParams()
	if err != nil {
		return nil, nil, err
	}
	sc := cfg.Scene

	gauss, err := gsobject.NewGaussian(sc.Galaxy.Sigma, sc.Galaxy.Flux)
	if err != nil {
		return nil, nil, err
	}
	galaxy, err := gsobject.Shear(gauss, sc.Galaxy.Shear[0], sc.Galaxy.Shear[1])
	if err != nil {
		return nil, nil, err
	}
	galaxy = gsobject.Shift(galaxy, sc.Galaxy.Shift[0], sc.Galaxy.Shift[1])

	psf, err := gsobject.NewGaussian(sc.PSFSigma, 1)
	if err != nil {
		return nil, nil, err
	}
	components := map[string]gsobject.Object{
		"01_galaxy": galaxy.WithGSParams(gsp),
		"02_psf":    psf.WithGSParams(gsp),
	}

	parts := []gsobject.Object{galaxy, psf}
	if sc.Deconvolve {
		target, err := gsobject.NewGaussian(sc.TargetPSFSigma, 1)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, gsobject.Deconvolve(psf), target)
		components["03_target_psf"] = target.WithGSParams(gsp)
	}
	scene, err := gsobject.NewConvolution(parts, gsobject.ConvolveOptions{GSParams: &gsp})
	if err != nil {
		return nil, nil, err
	}
	return scene, components, nil
}

// Scene returns the profile being rendered.
func (r *Renderer) Scene() gsobject.Object { return r.scene }

func (r *Renderer) logf(format string, args ...any) {
	if r.cfg.Output.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// drawOptions returns the DrawImage arguments for one method. Each photon
// render gets its own deviate so that the two renders can run at once.
func (r *Renderer) drawOptions(method gsobject.Method, seedOffset uint64) gsobject.DrawOptions {
	d := r.cfg.Draw
	opts := gsobject.DrawOptions{
		NX:      r.nx,
		NY:      r.ny,
		Scale:   d.Scale,
		DType:   d.DType,
		Method:  method,
		Gain:    d.Gain,
		Exptime: d.Exptime,
		Area:    d.Area,
	}
	if method == gsobject.MethodPhot {
		seed := d.Seed
		if seed != 0 {
			seed += seedOffset
		}
		poisson := d.PoissonFlux
		opts.NPhotons = d.NPhotons
		opts.RNG = random.NewBaseDeviate(seed)
		opts.PoissonFlux = &poisson
		opts.MaxN = d.MaxN
	}
	return opts
}

// Process runs the complete render pipeline
func (r *Renderer) Process() error {
	// Step 1: Draw the scene, and the reference if any, in parallel
	r.logf("Step 1: Drawing %dx%d image with method %s...", r.nx, r.ny, r.cfg.Draw.Method)
	if err := r.drawAll(); err != nil {
		return err
	}

	// Step 2: Save intermediary results
	if r.cfg.Output.SaveIntermediaryResults {
		r.logf("Step 2: Saving intermediary results to %s...", r.cfg.Output.IntermediaryDir)
		if err := r.saveIntermediaryResults(); err != nil {
			fmt.Printf("Warning: Failed to save intermediary results: %v\n", err)
		}
	}

	// Step 3: Calculate metrics
	r.logf("Step 3: Calculating metrics...")
	moments, err := analysis.MeasureMoments(r.image)
	if err != nil {
		return fmt.Errorf("failed to measure moments: %w", err)
	}
	r.metrics.Moments = moments
	if r.reference != nil {
		cmp, err := analysis.Compare(r.image, r.reference)
		if err != nil {
			return fmt.Errorf("failed to compare with reference: %w", err)
		}
		r.metrics.Reference = cmp
		r.metrics.HasReference = true
	}
	return nil
}

type renderJob struct {
	method    string
	reference bool
}

type renderResult struct {
	reference bool
	image     *raster.Image
	res       gsobject.DrawResult
	elapsed   time.Duration
	err       error
}

func (r *Renderer) drawAll() error {
	jobs := []renderJob{{r.cfg.Draw.Method, false}}
	if r.cfg.Draw.Reference != "" {
		jobs = append(jobs, renderJob{r.cfg.Draw.Reference, true})
	}

	resultChan := make(chan renderResult, len(jobs))
	sem := make(chan struct{}, r.cfg.Processing.NumCores)
	var wg sync.WaitGroup
	for i, job := range jobs {
		method, err := gsobject.ParseMethod(job.method)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(method gsobject.Method, reference bool, seedOffset uint64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			im, res, err := gsobject.DrawImage(r.scene, r.drawOptions(method, seedOffset))
			resultChan <- renderResult{reference: reference, image: im, res: res, elapsed: time.Since(start), err: err}
		}(method, job.reference, uint64(i))
	}
	wg.Wait()
	close(resultChan)

	r.metrics.Elapsed = make(map[string]time.Duration, len(jobs))
	var firstErr error
	for result := range resultChan {
		name := r.cfg.Draw.Method
		if result.reference {
			name = r.cfg.Draw.Reference
		}
		if result.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to draw with method %s: %w", name, result.err)
			}
			continue
		}
		if result.reference {
			r.reference = result.image
			name = "reference " + name
		} else {
			r.image = result.image
			r.metrics.AddedFlux = result.res.AddedFlux
		}
		r.metrics.Elapsed[name] = result.elapsed
	}
	return firstErr
}

// saveIntermediaryResults writes each scene component drawn without the
// pixel, plus the reference image and the residual against it.
func (r *Renderer) saveIntermediaryResults() error {
	images := make(map[string]*raster.Image, len(r.components)+2)
	for name, obj := range r.components {
		im, _, err := gsobject.DrawImage(obj, gsobject.DrawOptions{
			NX: r.nx, NY: r.ny, Scale: r.cfg.Draw.Scale, Method: gsobject.MethodNoPixel,
		})
		if err != nil {
			return fmt.Errorf("failed to draw %s: %w", name, err)
		}
		images[name] = im
	}
	if r.reference != nil {
		images["04_reference"] = r.reference
		residual, err := r.image.Sub(r.reference)
		if err != nil {
			return fmt.Errorf("failed to compute residual: %w", err)
		}
		images["05_residual"] = residual
	}
	return visualization.SaveSequence(images, visualization.Asinh, r.cfg.Output.IntermediaryDir)
}

// SaveOutputs writes the image file and, when configured, the TIFF export
// and PNG preview. Relative paths are taken relative to dir.
func (r *Renderer) SaveOutputs(dir string) ([]string, error) {
	if r.image == nil {
		return nil, fmt.Errorf("nothing rendered yet, call Process first")
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	out := r.cfg.Output
	imagePath := resolve(out.Image)
	if err := imageio.Save(r.image, imagePath); err != nil {
		return nil, err
	}
	written := []string{imagePath}
	if out.TIFF == "" && out.Preview == "" {
		return written, nil
	}

	viewer, err := visualization.NewViewer(r.image, visualization.Asinh)
	if err != nil {
		return written, err
	}
	if out.TIFF != "" {
		if err := viewer.SaveTIFF(resolve(out.TIFF)); err != nil {
			return written, err
		}
		written = append(written, resolve(out.TIFF))
	}
	if out.Preview != "" {
		if err := viewer.SavePNG(resolve(out.Preview)); err != nil {
			return written, err
		}
		written = append(written, resolve(out.Preview))
	}
	return written, nil
}

// GetMetrics returns the metrics computed by Process.
func (r *Renderer) GetMetrics() Metrics {
	return r.metrics
}

// GetImage returns the primary image, and the reference image or nil.
func (r *Renderer) GetImage() (image, reference *raster.Image) {
	return r.image, r.reference
}
