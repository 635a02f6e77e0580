// Package cg solves symmetric positive definite systems on 3D fields with
// the preconditioned conjugate gradient method.
package cg

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/floats"

	"seismicsmooth/internal/models"
)

// ErrIterationLimit is returned when the solver stops before reaching the
// requested tolerance. The returned Result still holds the last iterate.
var ErrIterationLimit = errors.New("cg: iteration limit reached")

// Operator computes dst = A*src for a symmetric positive definite A.
type Operator func(dst, src *models.Field)

// Preconditioner approximates the inverse of A in place. It must be
// symmetric positive definite.
type Preconditioner interface {
	Apply(x *models.Field) error
}

// Settings control the solver.
type Settings struct {
	// Tolerance is the relative residual |b-Ax|/|b| at which to stop.
	Tolerance float64

	// Iterations is the maximum number of iterations. Zero or negative means
	// twice the number of unknowns.
	Iterations int

	// Preconditioner is optional.
	Preconditioner Preconditioner

	// Progress, if set, is called after every iteration.
	Progress func(iteration int, residual float64)
}

// DefaultSettings returns a tolerance of 1e-6 and no preconditioner.
func DefaultSettings() Settings {
	return Settings{Tolerance: 1e-6}
}

type Stats struct {
	Iterations int
	MatVec     int
	PSolve     int
	Residual   float64
	StartTime  time.Time
	Runtime    time.Duration
}

type Result struct {
	X     *models.Field
	Stats Stats
}

// Solve solves A*x = b starting from x0, or from zero when x0 is nil.
// x0 is not modified.
func Solve(a Operator, b, x0 *models.Field, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}
	if a == nil {
		panic("cg: nil operator")
	}
	if x0 != nil && !x0.SameShape(b) {
		return Result{}, models.ErrShape
	}
	defaultSettings(&settings, b.Len())

	n1, n2, n3 := b.Shape()
	x := models.NewField(n1, n2, n3)
	r := models.NewField(n1, n2, n3)
	if x0 != nil {
		copy(x.Data, x0.Data)
		a(r, x)
		stats.MatVec++
		floats.SubTo(r.Data, b.Data, r.Data) // r = b - Ax
	} else {
		copy(r.Data, b.Data)
	}

	bnorm := floats.Norm(b.Data, 2)
	if bnorm == 0 {
		bnorm = 1
	}
	stats.Residual = floats.Norm(r.Data, 2) / bnorm

	var err error
	if stats.Residual >= settings.Tolerance {
		err = iterate(a, x, r, bnorm, settings, &stats)
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result{X: x, Stats: stats}, err
}

func iterate(a Operator, x, r *models.Field, bnorm float64, settings Settings, stats *Stats) error {
	z := r.Clone()
	p := models.NewField(r.N1, r.N2, r.N3)
	q := models.NewField(r.N1, r.N2, r.N3)

	psolve := func() error {
		copy(z.Data, r.Data)
		if settings.Preconditioner == nil {
			return nil
		}
		stats.PSolve++
		return settings.Preconditioner.Apply(z)
	}

	if err := psolve(); err != nil {
		return err
	}
	copy(p.Data, z.Data)
	rz := floats.Dot(r.Data, z.Data)

	for {
		a(q, p)
		stats.MatVec++
		pq := floats.Dot(p.Data, q.Data)
		if pq <= 0 {
			return errors.New("cg: operator is not positive definite")
		}
		alpha := rz / pq
		floats.AddScaled(x.Data, alpha, p.Data)  // x += alpha p
		floats.AddScaled(r.Data, -alpha, q.Data) // r -= alpha Ap

		stats.Iterations++
		stats.Residual = floats.Norm(r.Data, 2) / bnorm
		if settings.Progress != nil {
			settings.Progress(stats.Iterations, stats.Residual)
		}
		if stats.Residual < settings.Tolerance {
			return nil
		}
		if stats.Iterations >= settings.Iterations {
			return ErrIterationLimit
		}

		if err := psolve(); err != nil {
			return err
		}
		rzNew := floats.Dot(r.Data, z.Data)
		beta := rzNew / rz
		rz = rzNew
		floats.AddScaledTo(p.Data, z.Data, beta, p.Data) // p = z + beta p
	}
}

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance <= 0 {
		s.Tolerance = 1e-6
	}
	if s.Iterations <= 0 {
		s.Iterations = 2 * dim
	}
}
