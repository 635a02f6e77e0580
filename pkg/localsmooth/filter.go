// Package localsmooth implements structure-oriented smoothing guided by a
// field of tensors.
//
// The guided filter computes y such that
//
//	(I + G'DG) y = x
//
// where G is the 3D gradient evaluated on 2x2x2 cells and D = c*s*T holds, at
// each cell, a scale factor c, an optional weight s and an optional tensor T.
// Smoothing is strong along directions where D is large and negligible where
// D vanishes. The linear system is solved with conjugate gradients.
package localsmooth

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"seismicsmooth/internal/models"
	"seismicsmooth/pkg/tensor"
)

const (
	// DefaultSmall is the default relative residual at which CG stops.
	DefaultSmall = 0.01

	// DefaultIterations is the default maximum number of CG iterations.
	DefaultIterations = 100
)

// Guide selects the smoothing coefficients for ApplyGuided. Tensors and
// Weights are optional.
type Guide struct {
	Tensors tensor.Tensors3
	Scale   float64
	Weights *models.Field
}

// Filter is a tensor-guided local smoothing filter. A Filter holds no
// per-call state and may be shared between goroutines.
type Filter struct {
	small float64
	niter int
}

// New returns a filter that stops CG when the residual norm falls below
// small times its initial value, or after niter iterations.
func New(small float64, niter int) *Filter {
	if small <= 0 {
		small = DefaultSmall
	}
	if niter <= 0 {
		niter = DefaultIterations
	}
	return &Filter{small: small, niter: niter}
}

// NewDefault returns a filter with DefaultSmall and DefaultIterations.
func NewDefault() *Filter {
	return New(DefaultSmall, DefaultIterations)
}

// SmoothCopy applies a [1 2 1]/4 filter along each axis with zero-slope
// ends. It attenuates Nyquist-frequency noise that the gradient stencil of
// the guided filter cannot see. src and dst may be the same field.
func (f *Filter) SmoothCopy(src, dst *models.Field) {
	if !src.SameShape(dst) {
		panic(models.ErrShape)
	}
	if src != dst {
		copy(dst.Data, src.Data)
	}
	for axis := 1; axis <= 3; axis++ {
		forEachLine(dst, axis, smooth121)
	}
}

// ApplyGuided smooths src into dst using the coefficients selected by g.
// src and dst may be the same field.
func (f *Filter) ApplyGuided(g Guide, src, dst *models.Field) error {
	if err := g.check(src, dst); err != nil {
		return err
	}
	op := newOperator(g, src)
	b := src.Data
	if src == dst {
		b = append([]float64(nil), src.Data...)
	} else {
		copy(dst.Data, src.Data)
	}
	f.solve(op, b, dst)
	return nil
}

func (g Guide) check(src, dst *models.Field) error {
	if !src.SameShape(dst) {
		return fmt.Errorf("%w: input %dx%dx%d, output %dx%dx%d", models.ErrShape,
			src.N1, src.N2, src.N3, dst.N1, dst.N2, dst.N3)
	}
	if g.Weights != nil && !g.Weights.SameShape(src) {
		return fmt.Errorf("%w: weights %dx%dx%d, input %dx%dx%d", models.ErrShape,
			g.Weights.N1, g.Weights.N2, g.Weights.N3, src.N1, src.N2, src.N3)
	}
	if g.Tensors != nil {
		n1, n2, n3 := g.Tensors.Shape()
		if n1 != src.N1 || n2 != src.N2 || n3 != src.N3 {
			return fmt.Errorf("%w: tensors %dx%dx%d, input %dx%dx%d", models.ErrShape,
				n1, n2, n3, src.N1, src.N2, src.N3)
		}
	}
	return nil
}

// solve runs CG on op(y) = b starting from the current contents of y.
func (f *Filter) solve(op *operator, b []float64, y *models.Field) {
	n := len(b)
	r := make([]float64, n)
	q := make([]float64, n)
	op.apply(y.Data, q)
	floats.SubTo(r, b, q)
	p := append([]float64(nil), r...)
	rr := floats.Dot(r, r)
	stop := rr * f.small * f.small
	for iter := 0; iter < f.niter && rr > stop; iter++ {
		op.apply(p, q)
		pq := floats.Dot(p, q)
		if pq <= 0 {
			break
		}
		alpha := rr / pq
		floats.AddScaled(y.Data, alpha, p)
		floats.AddScaled(r, -alpha, q)
		rrOld := rr
		rr = floats.Dot(r, r)
		floats.AddScaledTo(p, r, rr/rrOld, p)
	}
}

// operator evaluates (I + G'DG) x with per-sample coefficients folded in.
type operator struct {
	n1, n2, n3 int
	cs         []float64    // isotropic coefficients, nil when tensors are set
	d          [6][]float64 // c*s*T components, nil when isotropic
}

func newOperator(g Guide, x *models.Field) *operator {
	n := x.Len()
	cs := make([]float64, n)
	if g.Weights != nil {
		vecmath.ScaleBlock(cs, g.Weights.Data, g.Scale)
	} else {
		for i := range cs {
			cs[i] = g.Scale
		}
	}
	op := &operator{n1: x.N1, n2: x.N2, n3: x.N3}
	if g.Tensors == nil {
		op.cs = cs
		return op
	}
	for k := range op.d {
		op.d[k] = make([]float64, n)
	}
	for i3 := 0; i3 < x.N3; i3++ {
		for i2 := 0; i2 < x.N2; i2++ {
			for i1 := 0; i1 < x.N1; i1++ {
				i := x.Index(i1, i2, i3)
				t := g.Tensors.Tensor(i1, i2, i3)
				for k := range op.d {
					op.d[k][i] = t[k]
				}
			}
		}
	}
	for k := range op.d {
		vecmath.MulBlockInPlace(op.d[k], cs)
	}
	return op
}

// apply computes y = x + G'DG x.
func (op *operator) apply(x, y []float64) {
	copy(y, x)
	n1, n2 := op.n1, op.n2
	s1, s2, s3 := 1, n1, n1*n2
	for i3 := 1; i3 < op.n3; i3++ {
		for i2 := 1; i2 < n2; i2++ {
			for i1 := 1; i1 < n1; i1++ {
				i := i3*s3 + i2*s2 + i1
				// Corners are named by their offsets along (i3, i2, i1).
				x000, x001 := x[i], x[i-s1]
				x010, x011 := x[i-s2], x[i-s2-s1]
				x100, x101 := x[i-s3], x[i-s3-s1]
				x110, x111 := x[i-s3-s2], x[i-s3-s2-s1]
				xa := x000 - x111
				xb := x001 - x110
				xc := x010 - x101
				xd := x100 - x011
				g1 := 0.25 * (xa - xb + xc + xd)
				g2 := 0.25 * (xa + xb - xc + xd)
				g3 := 0.25 * (xa + xb + xc - xd)

				var h1, h2, h3 float64
				if op.cs != nil {
					c := op.cs[i]
					h1, h2, h3 = c*g1, c*g2, c*g3
				} else {
					d11, d12, d13 := op.d[0][i], op.d[1][i], op.d[2][i]
					d22, d23, d33 := op.d[3][i], op.d[4][i], op.d[5][i]
					h1 = d11*g1 + d12*g2 + d13*g3
					h2 = d12*g1 + d22*g2 + d23*g3
					h3 = d13*g1 + d23*g2 + d33*g3
				}

				ya := 0.25 * (h1 + h2 + h3)
				yb := 0.25 * (-h1 + h2 + h3)
				yc := 0.25 * (h1 - h2 + h3)
				yd := 0.25 * (h1 + h2 - h3)
				y[i] += ya
				y[i-s3-s2-s1] -= ya
				y[i-s1] += yb
				y[i-s3-s2] -= yb
				y[i-s2] += yc
				y[i-s3-s1] -= yc
				y[i-s3] += yd
				y[i-s2-s1] -= yd
			}
		}
	}
}

// smooth121 filters one line in place with zero-slope ends.
func smooth121(x []float64) {
	n := len(x)
	if n < 2 {
		return
	}
	prev := x[0]
	x[0] = 0.75*x[0] + 0.25*x[1]
	for i := 1; i < n-1; i++ {
		cur := x[i]
		x[i] = 0.25*prev + 0.5*cur + 0.25*x[i+1]
		prev = cur
	}
	x[n-1] = 0.25*prev + 0.75*x[n-1]
}

// forEachLine gathers each line of f along axis into a buffer, calls fn on it
// and scatters the result back.
func forEachLine(f *models.Field, axis int, fn func([]float64)) {
	n1, n2, n3 := f.Shape()
	switch axis {
	case 1:
		for j := 0; j < n2*n3; j++ {
			fn(f.Data[j*n1 : (j+1)*n1])
		}
	case 2:
		buf := make([]float64, n2)
		for i3 := 0; i3 < n3; i3++ {
			for i1 := 0; i1 < n1; i1++ {
				for i2 := range buf {
					buf[i2] = f.At(i1, i2, i3)
				}
				fn(buf)
				for i2, v := range buf {
					f.Set(i1, i2, i3, v)
				}
			}
		}
	case 3:
		buf := make([]float64, n3)
		for i2 := 0; i2 < n2; i2++ {
			for i1 := 0; i1 < n1; i1++ {
				for i3 := range buf {
					buf[i3] = f.At(i1, i2, i3)
				}
				fn(buf)
				for i3, v := range buf {
					f.Set(i1, i2, i3, v)
				}
			}
		}
	}
}
