package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"seismicsmooth/internal/models"
	"seismicsmooth/pkg/recursive"
)

// FromStructure estimates structure tensors of the image x.
//
// Gradient outer products are smoothed with a recursive exponential filter of
// half-width sigma and decomposed at every sample. The eigenvector u of the
// largest eigenvalue is normal to the local layering; w belongs to the
// smallest eigenvalue and points along linear features. Eigenvalues are
// scaled by the largest eigenvalue in the image, so they lie in [0,1].
func FromStructure(x *models.Field, sigma float64) (*EigenTensors3, error) {
	if sigma <= 0 {
		return nil, fmt.Errorf("structure tensor half-width must be positive, got %v", sigma)
	}
	n1, n2, n3 := x.Shape()
	g1, g2, g3 := gradient(x)

	// g11, g12, g13, g22, g23, g33
	products := [6]*models.Field{}
	pairs := [6][2]*models.Field{{g1, g1}, {g1, g2}, {g1, g3}, {g2, g2}, {g2, g3}, {g3, g3}}
	ref := recursive.NewExponentialFilter(sigma)
	for k, p := range pairs {
		f := models.NewField(n1, n2, n3)
		for i := range f.Data {
			f.Data[i] = p[0].Data[i] * p[1].Data[i]
		}
		ref.Apply(f, f)
		products[k] = f
	}

	et := NewEigenTensors3(n1, n2, n3)
	sym := mat.NewSymDense(3, nil)
	var es mat.EigenSym
	var vecs mat.Dense
	vals := make([]float64, 3)
	emax := 0.0
	for i3 := 0; i3 < n3; i3++ {
		for i2 := 0; i2 < n2; i2++ {
			for i1 := 0; i1 < n1; i1++ {
				i := x.Index(i1, i2, i3)
				sym.SetSym(0, 0, products[0].Data[i])
				sym.SetSym(0, 1, products[1].Data[i])
				sym.SetSym(0, 2, products[2].Data[i])
				sym.SetSym(1, 1, products[3].Data[i])
				sym.SetSym(1, 2, products[4].Data[i])
				sym.SetSym(2, 2, products[5].Data[i])
				if ok := es.Factorize(sym, true); !ok {
					return nil, fmt.Errorf("eigen decomposition failed at (%d,%d,%d)", i1, i2, i3)
				}
				es.Values(vals)
				es.VectorsTo(&vecs)

				// Values are ascending.
				u := [3]float64{vecs.At(0, 2), vecs.At(1, 2), vecs.At(2, 2)}
				w := [3]float64{vecs.At(0, 0), vecs.At(1, 0), vecs.At(2, 0)}
				if u[0] < 0 {
					u = [3]float64{-u[0], -u[1], -u[2]}
				}
				if err := et.SetEigenvectorsAt(i1, i2, i3, u, w); err != nil {
					return nil, err
				}
				eu, ev, ew := clampNonNegative(vals[2]), clampNonNegative(vals[1]), clampNonNegative(vals[0])
				et.SetEigenvaluesAt(i1, i2, i3, eu, ev, ew)
				if eu > emax {
					emax = eu
				}
			}
		}
	}
	if emax > 0 {
		for i := range et.au {
			et.au[i] /= emax
			et.av[i] /= emax
			et.aw[i] /= emax
		}
	}
	return et, nil
}

// gradient returns centered finite differences along each axis, one-sided at
// the ends.
func gradient(x *models.Field) (*models.Field, *models.Field, *models.Field) {
	n1, n2, n3 := x.Shape()
	g1 := models.NewField(n1, n2, n3)
	g2 := models.NewField(n1, n2, n3)
	g3 := models.NewField(n1, n2, n3)
	for i3 := 0; i3 < n3; i3++ {
		for i2 := 0; i2 < n2; i2++ {
			for i1 := 0; i1 < n1; i1++ {
				i := x.Index(i1, i2, i3)
				g1.Data[i] = diff(i1, n1, func(j int) float64 { return x.At(j, i2, i3) })
				g2.Data[i] = diff(i2, n2, func(j int) float64 { return x.At(i1, j, i3) })
				g3.Data[i] = diff(i3, n3, func(j int) float64 { return x.At(i1, i2, j) })
			}
		}
	}
	return g1, g2, g3
}

func diff(i, n int, at func(int) float64) float64 {
	switch {
	case n == 1:
		return 0
	case i == 0:
		return at(1) - at(0)
	case i == n-1:
		return at(n-1) - at(n-2)
	default:
		return 0.5 * (at(i+1) - at(i-1))
	}
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
