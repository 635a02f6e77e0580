// Package config provides configuration loading and management for seismicsmooth.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Volume describes the raw input files
	Volume struct {
		// N1, N2, N3 are the dimensions; n1 varies fastest
		N1 int `yaml:"n1"`
		N2 int `yaml:"n2"`
		N3 int `yaml:"n3"`

		// ByteOrder is "big" or "little"
		ByteOrder string `yaml:"byteOrder"`
	} `yaml:"volume"`

	// Smoothing parameters
	Smoothing struct {
		// Sigma is the smoothing half-width in samples
		Sigma float64 `yaml:"sigma"`

		// Edges is the edge policy of the isotropic filter: output-zero-slope,
		// output-zero-value or input-zero-value. Only output-zero-slope keeps
		// constants unchanged; the other two pull values toward zero near the
		// ends of the volume
		Edges string `yaml:"edges"`

		// Passes is how many times the smoother is applied by the smooth task
		Passes int `yaml:"passes"`

		// WeightsFile is an optional volume of weights in [0,1]
		WeightsFile string `yaml:"weightsFile"`
	} `yaml:"smoothing"`

	// Tensors control structure-oriented smoothing
	Tensors struct {
		// Enabled estimates structure tensors from the guide image
		Enabled bool `yaml:"enabled"`

		// GuideFile is the image to estimate tensors from; defaults to the input
		GuideFile string `yaml:"guideFile"`

		// Sigma is the half-width used to smooth gradient products
		Sigma float64 `yaml:"sigma"`

		// Eigenvalues, if set, replace the smoothing eigenvalues (au, av, aw).
		// Otherwise they are derived from the estimate so that smoothing
		// follows the layers
		Eigenvalues []float64 `yaml:"eigenvalues"`
	} `yaml:"tensors"`

	// LocalSmoothing parameters for the guided filter
	LocalSmoothing struct {
		// Small is the relative residual at which the inner CG stops
		Small float64 `yaml:"small"`

		// Iterations bounds the inner CG
		Iterations int `yaml:"iterations"`
	} `yaml:"localSmoothing"`

	// Solver parameters for interpolation
	Solver struct {
		// Epsilon damps the model norm
		Epsilon float64 `yaml:"epsilon"`

		// Tolerance is the relative residual at which CG stops
		Tolerance float64 `yaml:"tolerance"`

		// Iterations bounds CG
		Iterations int `yaml:"iterations"`
	} `yaml:"solver"`

	// Output parameters
	Output struct {
		// SaveSlices writes JPEG sections of the result
		SaveSlices bool `yaml:"saveSlices"`

		// SlicesDir is where sections are written
		SlicesDir string `yaml:"slicesDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Volume.ByteOrder = "big"

	cfg.Smoothing.Sigma = 4.0
	cfg.Smoothing.Edges = "output-zero-slope"
	cfg.Smoothing.Passes = 1

	cfg.Tensors.Enabled = false
	cfg.Tensors.Sigma = 2.0

	cfg.LocalSmoothing.Small = 0.01
	cfg.LocalSmoothing.Iterations = 100

	cfg.Solver.Epsilon = 0.01
	cfg.Solver.Tolerance = 1e-4
	cfg.Solver.Iterations = 200

	cfg.Output.SaveSlices = false
	cfg.Output.SlicesDir = "slices"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks values that would otherwise fail deep inside processing.
func (c *Config) Validate() error {
	switch {
	case c.Volume.N1 <= 0 || c.Volume.N2 <= 0 || c.Volume.N3 <= 0:
		return fmt.Errorf("%w: volume dimensions %dx%dx%d", ErrInvalid, c.Volume.N1, c.Volume.N2, c.Volume.N3)
	case c.Smoothing.Sigma <= 0:
		return fmt.Errorf("%w: smoothing sigma %v must be positive", ErrInvalid, c.Smoothing.Sigma)
	case c.Smoothing.Passes < 1:
		return fmt.Errorf("%w: smoothing passes %d must be at least 1", ErrInvalid, c.Smoothing.Passes)
	case c.Tensors.Enabled && c.Tensors.Sigma <= 0:
		return fmt.Errorf("%w: tensor sigma %v must be positive", ErrInvalid, c.Tensors.Sigma)
	case len(c.Tensors.Eigenvalues) != 0 && len(c.Tensors.Eigenvalues) != 3:
		return fmt.Errorf("%w: tensor eigenvalues need 3 values, got %d", ErrInvalid, len(c.Tensors.Eigenvalues))
	case c.Solver.Epsilon < 0:
		return fmt.Errorf("%w: solver epsilon %v must be non-negative", ErrInvalid, c.Solver.Epsilon)
	case c.Solver.Tolerance < 0:
		return fmt.Errorf("%w: solver tolerance %v must be non-negative", ErrInvalid, c.Solver.Tolerance)
	case c.Solver.Iterations < 0:
		return fmt.Errorf("%w: solver iterations %d must be non-negative", ErrInvalid, c.Solver.Iterations)
	case c.LocalSmoothing.Iterations < 0:
		return fmt.Errorf("%w: local smoothing iterations %d must be non-negative", ErrInvalid, c.LocalSmoothing.Iterations)
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

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
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

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
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
