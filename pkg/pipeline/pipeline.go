// Package pipeline runs seismicsmooth jobs end to end: it loads volumes,
// builds the smoother, smooths or interpolates, writes the result and
// reports quality metrics.
package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"seismicsmooth/internal/models"
	"seismicsmooth/pkg/config"
	"seismicsmooth/pkg/interpolation"
	"seismicsmooth/pkg/localsmooth"
	"seismicsmooth/pkg/recursive"
	"seismicsmooth/pkg/smoother"
	"seismicsmooth/pkg/tensor"
	"seismicsmooth/pkg/visualization"
	"seismicsmooth/pkg/volio"
)

// normalEigenvalue is the smoothing coefficient across layers for tensors
// estimated from a guide image.
const normalEigenvalue = 0.01

// Task selects what the pipeline does with the smoother.
type Task string

const (
	// TaskSmooth applies the smoother to the input volume.
	TaskSmooth Task = "smooth"

	// TaskInterpolate fills the grid from scattered samples.
	TaskInterpolate Task = "interpolate"
)

// ParseTask converts a command line string to a Task.
func ParseTask(s string) (Task, error) {
	switch Task(s) {
	case TaskSmooth, TaskInterpolate:
		return Task(s), nil
	}
	return "", fmt.Errorf("unknown task %q (must be smooth or interpolate)", s)
}

// Metrics summarizes a run.
type Metrics struct {
	// Mean and StdDev of the output volume
	Mean   float64
	StdDev float64

	// Roughness is the mean squared first difference of the output over
	// all three axes
	Roughness float64

	// ReferenceRoughness is the roughness of the input for smoothing, and of
	// nearest-neighbor interpolation of the samples for interpolation
	ReferenceRoughness float64

	// RMSE and Correlation compare the output with the input for smoothing,
	// and with the sample values at sampled points for interpolation.
	// Correlation is NaN when either side is constant.
	RMSE        float64
	Correlation float64

	// Iterations and Residual of the interpolation solve
	Iterations int
	Residual   float64

	// Runtime of Process
	Runtime time.Duration
}

// Params holds the inputs of a run. Volume dimensions and processing
// parameters come from Config.
type Params struct {
	Task Task

	// InputFile is the volume to smooth. For interpolation it is optional
	// and only serves as the default structure tensor guide.
	InputFile string

	// SamplesFile lists the samples to interpolate
	SamplesFile string

	// OutputFile receives the result; empty skips writing
	OutputFile string

	Config *config.Config
}

// Pipeline executes one run. A Pipeline is not reusable.
type Pipeline struct {
	params *Params
	order  binary.ByteOrder

	input   *models.Field
	samples models.Samples
	weights *models.Field
	tensors *tensor.EigenTensors3

	smoother *smoother.Smoother3
	output   *models.Field
	metrics  Metrics
}

// NewPipeline creates a pipeline for params. A nil Config means
// config.DefaultConfig.
func NewPipeline(params *Params) *Pipeline {
	if params.Config == nil {
		params.Config = config.DefaultConfig()
	}
	return &Pipeline{params: params}
}

// Process runs every step of the pipeline
func (p *Pipeline) Process() error {
	start := time.Now()
	cfg := p.params.Config
	if _, err := ParseTask(string(p.params.Task)); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	order, err := volio.ParseByteOrder(cfg.Volume.ByteOrder)
	if err != nil {
		return err
	}
	p.order = order

	// Step 1: Load volumes and samples
	p.logf("Step 1: Loading input...\n")
	if err := p.load(); err != nil {
		return fmt.Errorf("failed to load input: %w", err)
	}

	// Step 2: Build the smoother
	p.logf("Step 2: Building smoother...\n")
	if err := p.buildSmoother(); err != nil {
		return fmt.Errorf("failed to build smoother: %w", err)
	}
	p.logf("  mode %s, sigma %.2f\n", p.smoother.Mode(), p.smoother.Sigma())

	// Step 3: Run the task
	switch p.params.Task {
	case TaskSmooth:
		p.logf("Step 3: Smoothing (%d passes)...\n", cfg.Smoothing.Passes)
		err = p.smooth()
	case TaskInterpolate:
		p.logf("Step 3: Interpolating %d samples...\n", len(p.samples))
		err = p.interpolate()
	default:
		err = fmt.Errorf("unknown task %q", p.params.Task)
	}
	if err != nil {
		return err
	}

	// Step 4: Calculate metrics
	p.logf("Step 4: Calculating metrics...\n")
	if err := p.calculateMetrics(); err != nil {
		return fmt.Errorf("failed to calculate metrics: %w", err)
	}

	// Step 5: Write output
	if p.params.OutputFile != "" {
		p.logf("Step 5: Writing %s...\n", p.params.OutputFile)
		if err := volio.WriteFile(p.params.OutputFile, p.output, p.order); err != nil {
			return err
		}
	}

	// Step 6: Export sections
	if cfg.Output.SaveSlices {
		p.logf("Step 6: Saving slices to %s...\n", cfg.Output.SlicesDir)
		if err := p.saveSlices(); err != nil {
			return fmt.Errorf("failed to save slices: %w", err)
		}
	}

	p.metrics.Runtime = time.Since(start)
	return nil
}

// GetMetrics returns the metrics of the last Process call
func (p *Pipeline) GetMetrics() Metrics {
	return p.metrics
}

// Output returns the smoothed or interpolated volume, or nil before Process
func (p *Pipeline) Output() *models.Field {
	return p.output
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.params.Config.Output.Verbose {
		fmt.Printf(format, args...)
	}
}

func (p *Pipeline) readVolume(path string) (*models.Field, error) {
	v := p.params.Config.Volume
	return volio.ReadFile(path, v.N1, v.N2, v.N3, p.order)
}

func (p *Pipeline) load() error {
	cfg := p.params.Config
	var err error

	if p.params.InputFile != "" {
		if p.input, err = p.readVolume(p.params.InputFile); err != nil {
			return err
		}
	} else if p.params.Task == TaskSmooth {
		return errors.New("smoothing requires an input volume")
	}

	if p.params.Task == TaskInterpolate {
		if p.params.SamplesFile == "" {
			return errors.New("interpolation requires a samples file")
		}
		if p.samples, err = interpolation.LoadSamples(p.params.SamplesFile); err != nil {
			return err
		}
	}

	if cfg.Smoothing.WeightsFile != "" {
		if p.weights, err = p.readVolume(cfg.Smoothing.WeightsFile); err != nil {
			return fmt.Errorf("weights: %w", err)
		}
	}

	if cfg.Tensors.Enabled {
		guide := p.input
		if cfg.Tensors.GuideFile != "" {
			if guide, err = p.readVolume(cfg.Tensors.GuideFile); err != nil {
				return fmt.Errorf("tensor guide: %w", err)
			}
		}
		if guide == nil {
			return errors.New("structure tensors require a guide or input volume")
		}
		p.logf("  estimating structure tensors (sigma %.2f)\n", cfg.Tensors.Sigma)
		if p.tensors, err = tensor.FromStructure(guide, cfg.Tensors.Sigma); err != nil {
			return err
		}
		if ev := cfg.Tensors.Eigenvalues; len(ev) == 3 {
			p.tensors.SetEigenvalues(ev[0], ev[1], ev[2])
		} else {
			p.tensors.ToSmoothing(normalEigenvalue)
		}
	}
	return nil
}

func (p *Pipeline) buildSmoother() error {
	cfg := p.params.Config
	edges, err := recursive.ParseEdges(cfg.Smoothing.Edges)
	if err != nil {
		return err
	}
	ref := recursive.NewExponentialFilter(cfg.Smoothing.Sigma)
	ref.SetEdges(edges)
	lsf := localsmooth.New(cfg.LocalSmoothing.Small, cfg.LocalSmoothing.Iterations)

	var tensors tensor.Tensors3
	if p.tensors != nil {
		tensors = p.tensors
	}
	p.smoother = smoother.New(cfg.Smoothing.Sigma, p.weights, tensors,
		smoother.WithSeparable(ref),
		smoother.WithGuided(lsf),
	)
	return nil
}

func (p *Pipeline) smooth() error {
	passes := p.params.Config.Smoothing.Passes
	x := p.input.Clone()
	for pass := 1; pass <= passes; pass++ {
		if err := p.smoother.Apply(x); err != nil {
			return fmt.Errorf("smoothing pass %d: %w", pass, err)
		}
		p.logf("  pass %d/%d done\n", pass, passes)
	}
	p.output = x
	return nil
}

func (p *Pipeline) interpolate() error {
	cfg := p.params.Config
	ip := interpolation.DefaultParams()
	ip.Smoother = p.smoother
	ip.Epsilon = cfg.Solver.Epsilon
	ip.Tolerance = cfg.Solver.Tolerance
	ip.Iterations = cfg.Solver.Iterations
	if cfg.Output.Verbose {
		ip.Progress = func(completed, total int, message string) {
			if completed%10 == 0 {
				fmt.Printf("  iteration %d/%d: %s\n", completed, total, message)
			}
		}
	}

	v := cfg.Volume
	out, stats, err := interpolation.Guided(p.samples, v.N1, v.N2, v.N3, ip)
	if err != nil {
		return fmt.Errorf("interpolation failed: %w", err)
	}
	p.output = out
	p.metrics.Iterations = stats.Iterations
	p.metrics.Residual = stats.Residual
	p.logf("  %d iterations, relative residual %.3e\n", stats.Iterations, stats.Residual)
	return nil
}

func (p *Pipeline) calculateMetrics() error {
	out := p.output
	p.metrics.Mean = stat.Mean(out.Data, nil)
	p.metrics.StdDev = stat.StdDev(out.Data, nil)
	p.metrics.Roughness = roughness(out)

	switch p.params.Task {
	case TaskSmooth:
		p.metrics.ReferenceRoughness = roughness(p.input)
		p.metrics.RMSE = rmse(out.Data, p.input.Data)
		p.metrics.Correlation = stat.Correlation(out.Data, p.input.Data, nil)

	case TaskInterpolate:
		v := p.params.Config.Volume
		nearest, err := interpolation.Nearest(p.samples, v.N1, v.N2, v.N3)
		if err != nil {
			return err
		}
		p.metrics.ReferenceRoughness = roughness(nearest)

		want := make([]float64, len(p.samples))
		got := make([]float64, len(p.samples))
		for i, s := range p.samples {
			want[i] = s.Value
			got[i] = out.At(s.I1, s.I2, s.I3)
		}
		p.metrics.RMSE = rmse(got, want)
		p.metrics.Correlation = math.NaN()
		if len(p.samples) > 1 {
			p.metrics.Correlation = stat.Correlation(got, want, nil)
		}
	}
	return nil
}

// saveSlices writes every section along each axis, one goroutine per axis.
// Gray levels clip at the 1st and 99th percentiles.
func (p *Pipeline) saveSlices() error {
	viewer := visualization.NewViewer(p.output)

	sorted := append([]float64(nil), p.output.Data...)
	sort.Float64s(sorted)
	lo := stat.Quantile(0.01, stat.Empirical, sorted, nil)
	hi := stat.Quantile(0.99, stat.Empirical, sorted, nil)
	if hi > lo {
		viewer.SetClip(lo, hi)
	}

	axes := []int{1, 2, 3}
	errs := make([]error, len(axes))
	var wg sync.WaitGroup
	for i, axis := range axes {
		wg.Add(1)
		go func(i, axis int) {
			defer wg.Done()
			dir := filepath.Join(p.params.Config.Output.SlicesDir, fmt.Sprintf("axis%d", axis))
			if err := viewer.SaveSliceSequence(axis, dir); err != nil {
				errs[i] = fmt.Errorf("axis %d: %w", axis, err)
			}
		}(i, axis)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// roughness returns the mean squared first difference along all axes.
func roughness(f *models.Field) float64 {
	var sum float64
	var n int
	for i3 := 0; i3 < f.N3; i3++ {
		for i2 := 0; i2 < f.N2; i2++ {
			for i1 := 0; i1 < f.N1; i1++ {
				v := f.At(i1, i2, i3)
				if i1+1 < f.N1 {
					d := f.At(i1+1, i2, i3) - v
					sum += d * d
					n++
				}
				if i2+1 < f.N2 {
					d := f.At(i1, i2+1, i3) - v
					sum += d * d
					n++
				}
				if i3+1 < f.N3 {
					d := f.At(i1, i2, i3+1) - v
					sum += d * d
					n++
				}
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func rmse(a, b []float64) float64 {
	return floats.Distance(a, b, 2) / math.Sqrt(float64(len(a)))
}
