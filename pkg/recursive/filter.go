// Package recursive implements a recursive two-sided exponential smoothing
// filter for 3D fields.
//
// Along one axis the filter computes y = (I + a*L)^-1 x, where a = sigma^2/2
// and L is the second-difference operator whose first and last rows depend on
// the edge policy. The tridiagonal system is solved with one causal and one
// anti-causal first-order recursion, so the cost per sample does not depend
// on sigma. In the interior the impulse response decays as p^|k| with
//
//	p = (1 + s^2 - sqrt(1 + 2*s^2)) / s^2
//
// which is the pole of the classic recursive exponential filter.
//
// For every edge policy the 1D operator is symmetric positive definite.
package recursive

import (
	"fmt"
	"math"

	"seismicsmooth/internal/models"
)

// Edges selects how the filter treats the ends of each line.
type Edges int

const (
	// InputZeroValue extends the input with zeros beyond the ends, giving the
	// exact response of the filter on an infinite line.
	InputZeroValue Edges = iota

	// OutputZeroValue forces the output to vanish just outside the ends.
	OutputZeroValue

	// OutputZeroSlope forces zero output slope at the ends. Constants pass
	// through unchanged.
	OutputZeroSlope
)

func (e Edges) String() string {
	switch e {
	case InputZeroValue:
		return "input-zero-value"
	case OutputZeroValue:
		return "output-zero-value"
	case OutputZeroSlope:
		return "output-zero-slope"
	default:
		return fmt.Sprintf("Edges(%d)", int(e))
	}
}

// ParseEdges converts a configuration string to an Edges value.
func ParseEdges(s string) (Edges, error) {
	switch s {
	case "input-zero-value":
		return InputZeroValue, nil
	case "output-zero-value":
		return OutputZeroValue, nil
	case "output-zero-slope", "":
		return OutputZeroSlope, nil
	}
	return 0, fmt.Errorf("unknown edge policy %q", s)
}

// ExponentialFilter smooths 3D fields one axis at a time.
type ExponentialFilter struct {
	sigma [3]float64
	edges Edges
}

// NewExponentialFilter returns a filter with the same half-width for all axes
// and OutputZeroSlope edges.
func NewExponentialFilter(sigma float64) *ExponentialFilter {
	return NewExponentialFilter3(sigma, sigma, sigma)
}

// NewExponentialFilter3 returns a filter with a half-width for each axis.
func NewExponentialFilter3(sigma1, sigma2, sigma3 float64) *ExponentialFilter {
	return &ExponentialFilter{
		sigma: [3]float64{sigma1, sigma2, sigma3},
		edges: OutputZeroSlope,
	}
}

// SetEdges sets the edge policy for subsequent applications.
func (f *ExponentialFilter) SetEdges(e Edges) { f.edges = e }

func (f *ExponentialFilter) Edges() Edges { return f.edges }

// Sigma returns the half-width used along axis (1, 2 or 3).
func (f *ExponentialFilter) Sigma(axis int) float64 { return f.sigma[axis-1] }

// ApplyLine filters one line with the first-axis half-width. src and dst may
// be the same slice.
func (f *ExponentialFilter) ApplyLine(src, dst []float64) {
	if len(src) != len(dst) {
		panic(models.ErrShape)
	}
	ln := newLine(len(src), f.sigma[0], f.edges)
	if ln == nil {
		copy(dst, src)
		return
	}
	ln.solve(src, dst)
}

// Apply1 filters along the first (fastest) dimension. src and dst may be the
// same field.
func (f *ExponentialFilter) Apply1(src, dst *models.Field) {
	checkShapes(src, dst)
	n1 := src.N1
	ln := newLine(n1, f.sigma[0], f.edges)
	if ln == nil {
		copyIfDistinct(src, dst)
		return
	}
	for j := 0; j < src.N2*src.N3; j++ {
		k := j * n1
		ln.solve(src.Data[k:k+n1], dst.Data[k:k+n1])
	}
}

// Apply2 filters along the second dimension. src and dst may be the same
// field.
func (f *ExponentialFilter) Apply2(src, dst *models.Field) {
	checkShapes(src, dst)
	n1, n2 := src.N1, src.N2
	ln := newLine(n2, f.sigma[1], f.edges)
	if ln == nil {
		copyIfDistinct(src, dst)
		return
	}
	buf := make([]float64, n2)
	for i3 := 0; i3 < src.N3; i3++ {
		base := i3 * n2 * n1
		for i1 := 0; i1 < n1; i1++ {
			for i2 := 0; i2 < n2; i2++ {
				buf[i2] = src.Data[base+i2*n1+i1]
			}
			ln.solve(buf, buf)
			for i2 := 0; i2 < n2; i2++ {
				dst.Data[base+i2*n1+i1] = buf[i2]
			}
		}
	}
}

// Apply3 filters along the third (slowest) dimension. src and dst may be the
// same field.
func (f *ExponentialFilter) Apply3(src, dst *models.Field) {
	checkShapes(src, dst)
	n12, n3 := src.N1*src.N2, src.N3
	ln := newLine(n3, f.sigma[2], f.edges)
	if ln == nil {
		copyIfDistinct(src, dst)
		return
	}
	buf := make([]float64, n3)
	for i12 := 0; i12 < n12; i12++ {
		for i3 := 0; i3 < n3; i3++ {
			buf[i3] = src.Data[i3*n12+i12]
		}
		ln.solve(buf, buf)
		for i3 := 0; i3 < n3; i3++ {
			dst.Data[i3*n12+i12] = buf[i3]
		}
	}
}

// Apply filters along all three dimensions once.
func (f *ExponentialFilter) Apply(src, dst *models.Field) {
	f.Apply1(src, dst)
	f.Apply2(dst, dst)
	f.Apply3(dst, dst)
}

// Pole returns the interior pole of the recursion for half-width sigma.
func Pole(sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	ss := sigma * sigma
	return (1 + ss - math.Sqrt(1+2*ss)) / ss
}

// line holds the LU factorization of (I + a*L) for one line length.
type line struct {
	a   float64
	l   []float64 // sub-diagonal multipliers
	inv []float64 // reciprocal pivots
}

// newLine factors the tridiagonal system, or returns nil when the filter is
// the identity (sigma <= 0 or a single sample with zero-slope edges).
func newLine(n int, sigma float64, edges Edges) *line {
	if sigma <= 0 || n == 0 {
		return nil
	}
	a := 0.5 * sigma * sigma
	var end float64
	switch edges {
	case OutputZeroSlope:
		if n == 1 {
			return nil
		}
		end = 1 + a
	case OutputZeroValue:
		end = 1 + 2*a
	default:
		// Absorbing end: the exterior solution decays by the pole per sample.
		end = 1 + 2*a - a*Pole(sigma)
	}
	diag := func(i int) float64 {
		if i == 0 || i == n-1 {
			if n == 1 {
				return 1 + 2*(end-1-a)
			}
			return end
		}
		return 1 + 2*a
	}
	ln := &line{a: a, l: make([]float64, n), inv: make([]float64, n)}
	d := diag(0)
	ln.inv[0] = 1 / d
	for i := 1; i < n; i++ {
		ln.l[i] = -a * ln.inv[i-1]
		d = diag(i) + a*ln.l[i]
		ln.inv[i] = 1 / d
	}
	return ln
}

// solve runs the causal then anti-causal recursion. x and y may alias.
func (ln *line) solve(x, y []float64) {
	n := len(x)
	yi := x[0]
	y[0] = yi
	for i := 1; i < n; i++ {
		yi = x[i] - ln.l[i]*yi
		y[i] = yi
	}
	yi = y[n-1] * ln.inv[n-1]
	y[n-1] = yi
	for i := n - 2; i >= 0; i-- {
		yi = (y[i] + ln.a*yi) * ln.inv[i]
		y[i] = yi
	}
}

func checkShapes(src, dst *models.Field) {
	if !src.SameShape(dst) {
		panic(models.ErrShape)
	}
}

func copyIfDistinct(src, dst *models.Field) {
	if src != dst {
		copy(dst.Data, src.Data)
	}
}
