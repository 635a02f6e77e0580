// Package smoother provides Smoother3, a symmetric positive definite 3D
// smoothing operator used to precondition conjugate-gradient solvers for
// seismic image processing.
//
// Smoother3 picks one of four strategies when it is constructed, depending on
// which of a weight map and a tensor field are supplied:
//
//	weights  tensors  mode
//	-        -        Isotropic: six-pass recursive exponential sweep
//	yes      -        WeightedIsotropic
//	-        yes      Anisotropic
//	yes      yes      WeightedAnisotropic
//
// The three guided modes first smooth a scratch copy of the input and then
// apply tensor-guided local smoothing from the copy back into the input.
package smoother

import (
	"errors"
	"fmt"

	"seismicsmooth/internal/models"
	"seismicsmooth/pkg/localsmooth"
	"seismicsmooth/pkg/recursive"
	"seismicsmooth/pkg/tensor"
)

// ErrNilField is returned by Apply when called without a field.
var ErrNilField = errors.New("smoother: nil field")

// Mode identifies the smoothing strategy of a Smoother3.
type Mode int

const (
	Isotropic Mode = iota
	WeightedIsotropic
	Anisotropic
	WeightedAnisotropic
)

func (m Mode) String() string {
	switch m {
	case Isotropic:
		return "isotropic"
	case WeightedIsotropic:
		return "weighted-isotropic"
	case Anisotropic:
		return "anisotropic"
	case WeightedAnisotropic:
		return "weighted-anisotropic"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// SelectMode maps the presence of a weight map and a tensor field to a Mode.
func SelectMode(hasWeights, hasTensors bool) Mode {
	switch {
	case hasWeights && hasTensors:
		return WeightedAnisotropic
	case hasTensors:
		return Anisotropic
	case hasWeights:
		return WeightedIsotropic
	default:
		return Isotropic
	}
}

// SeparableSmoother filters a field along one axis at a time. src and dst
// may be the same field.
type SeparableSmoother interface {
	Apply1(src, dst *models.Field)
	Apply2(src, dst *models.Field)
	Apply3(src, dst *models.Field)
}

// GuidedSmoother performs tensor-guided local smoothing.
type GuidedSmoother interface {
	// SmoothCopy writes an unguided smoothing of src into dst.
	SmoothCopy(src, dst *models.Field)

	// ApplyGuided smooths src into dst using the coefficients in g.
	ApplyGuided(g localsmooth.Guide, src, dst *models.Field) error
}

// Smoother3 is a 3D smoothing preconditioner. Its mode never changes after
// construction. Apply may be called concurrently on distinct fields.
type Smoother3 struct {
	sigma float64
	scale float64
	mode  Mode
	guide localsmooth.Guide

	ref  SeparableSmoother
	lsf  GuidedSmoother
	pool *ScratchPool
}

// Option configures a Smoother3.
type Option func(*Smoother3)

// WithSeparable replaces the recursive exponential filter used by the
// isotropic mode.
func WithSeparable(s SeparableSmoother) Option {
	return func(sm *Smoother3) { sm.ref = s }
}

// WithGuided replaces the local smoothing filter used by the guided modes.
func WithGuided(g GuidedSmoother) Option {
	return func(sm *Smoother3) { sm.lsf = g }
}

// WithPool shares a scratch pool between smoothers.
func WithPool(p *ScratchPool) Option {
	return func(sm *Smoother3) { sm.pool = p }
}

// New constructs a smoother with half-width sigma. weights and tensors are
// optional; pass nil to omit either. Shapes are not checked until Apply.
func New(sigma float64, weights *models.Field, tensors tensor.Tensors3, opts ...Option) *Smoother3 {
	if et, ok := tensors.(*tensor.EigenTensors3); ok && et == nil {
		tensors = nil
	}
	scale := 0.5 * sigma * sigma
	s := &Smoother3{
		sigma: sigma,
		scale: scale,
		mode:  SelectMode(weights != nil, tensors != nil),
	}
	switch s.mode {
	case WeightedIsotropic:
		s.guide = localsmooth.Guide{Scale: scale, Weights: weights}
	case Anisotropic:
		s.guide = localsmooth.Guide{Tensors: tensors, Scale: scale}
	case WeightedAnisotropic:
		s.guide = localsmooth.Guide{Tensors: tensors, Scale: scale, Weights: weights}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.ref == nil && s.mode == Isotropic {
		ref := recursive.NewExponentialFilter(sigma)
		ref.SetEdges(recursive.OutputZeroSlope)
		s.ref = ref
	}
	if s.lsf == nil && s.mode != Isotropic {
		s.lsf = localsmooth.NewDefault()
	}
	if s.pool == nil {
		s.pool = NewScratchPool()
	}
	return s
}

func (s *Smoother3) Mode() Mode { return s.mode }

func (s *Smoother3) Sigma() float64 { return s.sigma }

// Scale returns 0.5*sigma^2, the bandwidth passed to the guided filter.
func (s *Smoother3) Scale() float64 { return s.scale }

// Apply smooths x in place.
func (s *Smoother3) Apply(x *models.Field) error {
	if x == nil {
		return ErrNilField
	}
	if s.mode == Isotropic {
		s.sweep(x)
		return nil
	}
	y := s.pool.Get(x.N1, x.N2, x.N3)
	defer s.pool.Put(y)
	s.lsf.SmoothCopy(x, y)
	return s.lsf.ApplyGuided(s.guide, y, x)
}

// sweep applies the separable filter along axes 1,2,3,3,2,1. With symmetric
// axis filters A1, A2, A3 the palindrome equals B*B' for B = A1*A2*A3, which
// is symmetric positive definite. Keep the order.
func (s *Smoother3) sweep(x *models.Field) {
	s.ref.Apply1(x, x)
	s.ref.Apply2(x, x)
	s.ref.Apply3(x, x)
	s.ref.Apply3(x, x)
	s.ref.Apply2(x, x)
	s.ref.Apply1(x, x)
}
