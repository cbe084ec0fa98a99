package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"gsrender/pkg/config"
	"gsrender/pkg/gsobject"
	"gsrender/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "gsrender.yaml", "YAML configuration file (defaults are used if it does not exist)")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	outputDir := flag.String("output-dir", ".", "Directory for relative output paths")
	method := flag.String("method", "", "Override the drawing method (auto, fft, real_space, phot, no_pixel, sb)")
	reference := flag.String("reference", "", "Override the reference method, or \"none\" to skip the comparison")
	seed := flag.Uint64("seed", 0, "Override the photon seed")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save the scene components and residuals")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *method != "" {
		cfg.Draw.Method = *method
	}
	switch *reference {
	case "":
	case "none":
		cfg.Draw.Reference = ""
	default:
		cfg.Draw.Reference = *reference
	}
	if *seed != 0 {
		cfg.Draw.Seed = *seed
	}
	if *saveIntermediary {
		cfg.Output.SaveIntermediaryResults = true
	}

	if cfg.Output.Verbose {
		gsobject.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	fmt.Println("================================")
	fmt.Println("GSRENDER: ASTRONOMICAL PROFILE RENDERING")
	fmt.Println("================================")

	renderer, err := pipeline.NewRenderer(cfg)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	startTime := time.Now()
	if err := renderer.Process(); err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
	processingTime := time.Since(startTime)

	written, err := renderer.SaveOutputs(*outputDir)
	if err != nil {
		log.Fatalf("Failed to save outputs: %v", err)
	}

	metrics := renderer.GetMetrics()
	fmt.Printf("\nRendering completed in %.2f seconds!\n", processingTime.Seconds())
	for _, path := range written {
		fmt.Printf("Output saved to: %s\n", path)
	}

	fmt.Printf("\nImage Moments (pixels):\n")
	fmt.Printf("=======================\n")
	m := metrics.Moments
	e1, e2 := m.Ellipticity()
	fmt.Printf("Flux: %.4f (added %.4f)\n", m.Flux, metrics.AddedFlux)
	fmt.Printf("Centroid: (%.4f, %.4f)\n", m.CentroidX, m.CentroidY)
	fmt.Printf("Size: %.4f\n", m.Size())
	fmt.Printf("Ellipticity: (%.4f, %.4f)\n", e1, e2)

	if metrics.HasReference {
		c := metrics.Reference
		fmt.Printf("\nComparison with %s reference:\n", cfg.Draw.Reference)
		fmt.Printf("=======================\n")
		fmt.Printf("Root Mean Square Error (RMSE): %.6f\n", c.RMSE)
		fmt.Printf("Max Absolute Difference: %.6f\n", c.MaxAbsDiff)
		fmt.Printf("Flux Ratio: %.6f\n", c.FluxRatio)
		fmt.Printf("Correlation: %.6f\n", c.Correlation)
		fmt.Printf("Structural Similarity Index (SSIM): %.4f\n", c.SSIM)
		fmt.Printf("Mutual Information (MI): %.3f\n", c.MutualInformation)
		fmt.Printf("Entropy: %.3f bits\n", c.Entropy)
	}

	fmt.Println("\nRender timings:")
	names := make([]string, 0, len(metrics.Elapsed))
	for name := range metrics.Elapsed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("- %s: %.3f seconds\n", name, metrics.Elapsed[name].Seconds())
	}

	if cfg.Output.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", cfg.Output.IntermediaryDir)
	}
}
