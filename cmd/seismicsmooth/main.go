package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"seismicsmooth/pkg/config"
	"seismicsmooth/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "seismicsmooth.yaml", "Path to the YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	task := flag.String("task", "smooth", "Task to run: smooth or interpolate")
	inputFile := flag.String("input", "", "Input volume (raw 32-bit floats)")
	outputFile := flag.String("output", "", "Output volume (raw 32-bit floats)")
	samplesFile := flag.String("samples", "", "YAML samples file for interpolation")
	sigma := flag.Float64("sigma", 0, "Smoothing half-width in samples (overrides config)")
	passes := flag.Int("passes", 0, "Number of smoothing passes (overrides config)")
	extractSlices := flag.Bool("extract-slices", false, "Save JPEG sections of the result along all axes")
	slicesDir := flag.String("slices-dir", "", "Directory for extracted sections (overrides config)")
	quiet := flag.Bool("quiet", false, "Suppress progress output")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	t, err := pipeline.ParseTask(*task)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if t == pipeline.TaskSmooth && *inputFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line flags take precedence over the configuration file
	if *sigma > 0 {
		cfg.Smoothing.Sigma = *sigma
	}
	if *passes > 0 {
		cfg.Smoothing.Passes = *passes
	}
	if *extractSlices {
		cfg.Output.SaveSlices = true
	}
	if *slicesDir != "" {
		cfg.Output.SlicesDir = *slicesDir
	}
	if *quiet {
		cfg.Output.Verbose = false
	}

	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("SEISMIC SMOOTHING WITH STRUCTURE-ORIENTED PRECONDITIONERS")
		fmt.Println("================================")
	}

	p := pipeline.NewPipeline(&pipeline.Params{
		Task:        t,
		InputFile:   *inputFile,
		SamplesFile: *samplesFile,
		OutputFile:  *outputFile,
		Config:      cfg,
	})

	startTime := time.Now()
	if err := p.Process(); err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
	processingTime := time.Since(startTime)

	metrics := p.GetMetrics()
	fmt.Printf("\nCompleted %s in %.2f seconds\n", t, processingTime.Seconds())
	if *outputFile != "" {
		fmt.Printf("Output volume saved to: %s\n", *outputFile)
	}

	fmt.Printf("\nMetrics:\n")
	fmt.Printf("=======================================\n")
	fmt.Printf("Mean: %.6f\n", metrics.Mean)
	fmt.Printf("Standard deviation: %.6f\n", metrics.StdDev)
	fmt.Printf("Roughness: %.6f (reference %.6f)\n", metrics.Roughness, metrics.ReferenceRoughness)
	fmt.Printf("Root Mean Square Error (RMSE): %.6f\n", metrics.RMSE)
	fmt.Printf("Correlation: %.4f\n", metrics.Correlation)
	if t == pipeline.TaskInterpolate {
		fmt.Printf("CG iterations: %d (relative residual %.3e)\n", metrics.Iterations, metrics.Residual)
	}
	if cfg.Output.SaveSlices {
		fmt.Printf("\nSections saved to: %s\n", cfg.Output.SlicesDir)
	}
}
