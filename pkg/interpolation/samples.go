package interpolation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"seismicsmooth/internal/models"
)

// sampleFile is the YAML layout of a samples file:
//
//	samples:
//	  - {i1: 10, i2: 4, i3: 7, value: 2.31}
type sampleFile struct {
	Samples models.Samples `yaml:"samples"`
}

// LoadSamples reads scattered samples from a YAML file.
func LoadSamples(path string) (models.Samples, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading samples file: %w", err)
	}
	var sf sampleFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("error parsing samples file: %w", err)
	}
	if len(sf.Samples) == 0 {
		return nil, fmt.Errorf("samples file %s contains no samples", path)
	}
	return sf.Samples, nil
}

// SaveSamples writes samples to a YAML file, creating its directory.
func SaveSamples(path string, samples models.Samples) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating samples directory: %w", err)
	}
	data, err := yaml.Marshal(sampleFile{Samples: samples})
	if err != nil {
		return fmt.Errorf("error marshaling samples: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing samples file: %w", err)
	}
	return nil
}
