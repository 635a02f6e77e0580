package tensor

import (
	"fmt"
	"math"
)

// Tensors3 is a field of symmetric positive semi-definite 3x3 tensors that
// guide local smoothing.
type Tensors3 interface {
	// Shape returns the dimensions n1, n2, n3 of the tensor field.
	Shape() (int, int, int)

	// Tensor returns the components d11, d12, d13, d22, d23, d33 at (i1,i2,i3).
	Tensor(i1, i2, i3 int) [6]float64
}

// EigenTensors3 stores tensors by their eigen-decomposition
//
//	D = au*u*u' + av*v*v' + aw*w*w'
//
// where u and w are unit vectors and v = w x u.
type EigenTensors3 struct {
	n1, n2, n3 int
	au, av, aw []float64
	u, w       [][3]float64
}

// NewEigenTensors3 returns n1 x n2 x n3 tensors with unit eigenvalues and
// eigenvectors aligned with the axes (u along axis 1, w along axis 3), so
// every tensor starts as the identity.
func NewEigenTensors3(n1, n2, n3 int) *EigenTensors3 {
	n := n1 * n2 * n3
	et := &EigenTensors3{
		n1: n1, n2: n2, n3: n3,
		au: make([]float64, n),
		av: make([]float64, n),
		aw: make([]float64, n),
		u:  make([][3]float64, n),
		w:  make([][3]float64, n),
	}
	for i := 0; i < n; i++ {
		et.au[i], et.av[i], et.aw[i] = 1, 1, 1
		et.u[i] = [3]float64{1, 0, 0}
		et.w[i] = [3]float64{0, 0, 1}
	}
	return et
}

func (et *EigenTensors3) Shape() (int, int, int) { return et.n1, et.n2, et.n3 }

func (et *EigenTensors3) index(i1, i2, i3 int) int {
	return (i3*et.n2+i2)*et.n1 + i1
}

// SetEigenvalues sets the same eigenvalues for every tensor.
func (et *EigenTensors3) SetEigenvalues(au, av, aw float64) {
	for i := range et.au {
		et.au[i], et.av[i], et.aw[i] = au, av, aw
	}
}

// SetEigenvaluesAt sets the eigenvalues of one tensor.
func (et *EigenTensors3) SetEigenvaluesAt(i1, i2, i3 int, au, av, aw float64) {
	i := et.index(i1, i2, i3)
	et.au[i], et.av[i], et.aw[i] = au, av, aw
}

// EigenvaluesAt returns au, av, aw at (i1,i2,i3).
func (et *EigenTensors3) EigenvaluesAt(i1, i2, i3 int) (float64, float64, float64) {
	i := et.index(i1, i2, i3)
	return et.au[i], et.av[i], et.aw[i]
}

// SetEigenvectorsAt sets the eigenvectors u and w of one tensor. The vectors
// are normalized; w is made orthogonal to u.
func (et *EigenTensors3) SetEigenvectorsAt(i1, i2, i3 int, u, w [3]float64) error {
	u, ok := normalize(u)
	if !ok {
		return fmt.Errorf("zero eigenvector u at (%d,%d,%d)", i1, i2, i3)
	}
	d := dot(u, w)
	for k := range w {
		w[k] -= d * u[k]
	}
	w, ok = normalize(w)
	if !ok {
		return fmt.Errorf("eigenvector w parallel to u at (%d,%d,%d)", i1, i2, i3)
	}
	i := et.index(i1, i2, i3)
	et.u[i], et.w[i] = u, w
	return nil
}

// EigenvectorsAt returns u, v, w at (i1,i2,i3).
func (et *EigenTensors3) EigenvectorsAt(i1, i2, i3 int) (u, v, w [3]float64) {
	i := et.index(i1, i2, i3)
	u, w = et.u[i], et.w[i]
	return u, cross(w, u), w
}

// ToSmoothing turns structure eigenvalues into smoothing coefficients. At
// each sample the normal u gets floor, and v and w get 1 - av/au and
// 1 - aw/au, clamped to [floor, 1]. Layers are then smoothed along their
// planes and linear features along their direction. Samples with au = 0 get
// the identity.
func (et *EigenTensors3) ToSmoothing(floor float64) {
	for i, au := range et.au {
		if au <= 0 {
			et.au[i], et.av[i], et.aw[i] = 1, 1, 1
			continue
		}
		et.av[i] = clamp(1-et.av[i]/au, floor, 1)
		et.aw[i] = clamp(1-et.aw[i]/au, floor, 1)
		et.au[i] = floor
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func (et *EigenTensors3) Tensor(i1, i2, i3 int) [6]float64 {
	i := et.index(i1, i2, i3)
	au, av, aw := et.au[i], et.av[i], et.aw[i]
	u, w := et.u[i], et.w[i]
	v := cross(w, u)
	var d [6]float64
	k := 0
	for r := 0; r < 3; r++ {
		for c := r; c < 3; c++ {
			d[k] = au*u[r]*u[c] + av*v[r]*v[c] + aw*w[r]*w[c]
			k++
		}
	}
	return d
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(a [3]float64) ([3]float64, bool) {
	s := math.Sqrt(dot(a, a))
	if s == 0 {
		return a, false
	}
	return [3]float64{a[0] / s, a[1] / s, a[2] / s}, true
}
