// Package interpolation fills 3D grids from scattered samples, such as
// well-log measurements inside a seismic image.
package interpolation

import (
	"errors"
	"fmt"

	"seismicsmooth/internal/models"
	"seismicsmooth/pkg/cg"
)

// Smoother is a symmetric positive definite smoothing operator applied in
// place, such as *smoother.Smoother3.
type Smoother interface {
	Apply(x *models.Field) error
}

// ProgressCallback is a function that reports progress during interpolation
type ProgressCallback func(completed, total int, message string)

// Params holds the parameters for image-guided interpolation
type Params struct {
	// Smoother shapes the interpolated field. Required.
	Smoother Smoother

	// Epsilon damps the model norm relative to the scale of S K'K S; small
	// values honor samples closely.
	Epsilon float64

	// Tolerance and Iterations bound the CG solve.
	Tolerance  float64
	Iterations int

	// Progress is optional.
	Progress ProgressCallback
}

// DefaultParams returns parameters suitable for most images. The caller
// must still set Smoother.
func DefaultParams() Params {
	return Params{
		Epsilon:    0.01,
		Tolerance:  1e-4,
		Iterations: 200,
	}
}

// Guided interpolates samples onto an n1 x n2 x n3 grid.
//
// With S the smoother and K the operator that picks the sampled grid points,
// it solves
//
//	(S K'K S + eps I) p = S K'(d - mean)
//
// and returns m = S p + mean. This is CG on K'K m = K'd with S applied as a
// split preconditioner, so m varies the way S smooths: along layers when S
// is guided by structure tensors. Reaching the iteration limit is not an
// error; the result after the last iteration is returned.
func Guided(samples models.Samples, n1, n2, n3 int, p Params) (*models.Field, cg.Stats, error) {
	if p.Smoother == nil {
		return nil, cg.Stats{}, errors.New("guided interpolation requires a smoother")
	}
	if len(samples) == 0 {
		return nil, cg.Stats{}, fmt.Errorf("no samples to interpolate")
	}
	if err := samples.Inside(n1, n2, n3); err != nil {
		return nil, cg.Stats{}, err
	}

	mean := 0.0
	for _, s := range samples {
		mean += s.Value
	}
	mean /= float64(len(samples))

	// K'K is diagonal: the number of samples at each grid point.
	counts := models.NewField(n1, n2, n3)
	b := models.NewField(n1, n2, n3)
	for _, s := range samples {
		i := b.Index(s.I1, s.I2, s.I3)
		counts.Data[i]++
		b.Data[i] += s.Value - mean
	}

	var smoothErr error
	smooth := func(x *models.Field) {
		if err := p.Smoother.Apply(x); err != nil && smoothErr == nil {
			smoothErr = err
		}
	}
	smooth(b)
	if smoothErr != nil {
		return nil, cg.Stats{}, fmt.Errorf("smoothing right-hand side: %w", smoothErr)
	}

	shaped := func(dst, src *models.Field) {
		copy(dst.Data, src.Data)
		smooth(dst)
		for i, c := range counts.Data {
			dst.Data[i] *= c
		}
		smooth(dst)
	}

	// Scale epsilon by the Rayleigh quotient of S K'K S at b.
	eps := p.Epsilon
	if bb := b.Dot(b); bb > 0 {
		sb := models.NewField(n1, n2, n3)
		shaped(sb, b)
		eps *= sb.Dot(b) / bb
	}

	op := func(dst, src *models.Field) {
		shaped(dst, src)
		for i, v := range src.Data {
			dst.Data[i] += eps * v
		}
	}

	settings := cg.Settings{
		Tolerance:  p.Tolerance,
		Iterations: p.Iterations,
	}
	if p.Progress != nil {
		settings.Progress = func(iter int, residual float64) {
			p.Progress(iter, p.Iterations, fmt.Sprintf("relative residual %.3e", residual))
		}
	}

	res, err := cg.Solve(op, b, nil, settings)
	if smoothErr != nil {
		return nil, res.Stats, fmt.Errorf("smoothing during CG: %w", smoothErr)
	}
	if err != nil && !errors.Is(err, cg.ErrIterationLimit) {
		return nil, res.Stats, err
	}

	m := res.X
	smooth(m)
	if smoothErr != nil {
		return nil, res.Stats, fmt.Errorf("smoothing solution: %w", smoothErr)
	}
	for i := range m.Data {
		m.Data[i] += mean
	}
	return m, res.Stats, nil
}
