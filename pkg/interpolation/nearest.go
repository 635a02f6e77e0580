package interpolation

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"

	"seismicsmooth/internal/models"
)

// Point3D is a sample location with its value
type Point3D struct {
	X, Y, Z float64
	Value   float64
}

// Compare implements the kdtree.Comparable interface
func (p Point3D) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point3D)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Point3D) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p Point3D) Distance(c kdtree.Comparable) float64 {
	q := c.(Point3D)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// Points3D is a collection of Point3D that satisfies kdtree.Interface
type Points3D []Point3D

func (p Points3D) Index(i int) kdtree.Comparable         { return p[i] }
func (p Points3D) Len() int                              { return len(p) }
func (p Points3D) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Points3D) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{Points3D: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{Points3D: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for Points3D
type pointPlane struct {
	Points3D
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Points3D[i].X < p.Points3D[j].X
	case 1:
		return p.Points3D[i].Y < p.Points3D[j].Y
	case 2:
		return p.Points3D[i].Z < p.Points3D[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{Points3D: p.Points3D[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.Points3D[i], p.Points3D[j] = p.Points3D[j], p.Points3D[i]
}

// pointsFrom converts grid samples to KD-tree points.
func pointsFrom(samples models.Samples) Points3D {
	points := make(Points3D, len(samples))
	for i, s := range samples {
		points[i] = Point3D{X: float64(s.I1), Y: float64(s.I2), Z: float64(s.I3), Value: s.Value}
	}
	return points
}

// Nearest fills an n1 x n2 x n3 grid with the value of the nearest sample.
// Ties are broken by the KD-tree search order.
func Nearest(samples models.Samples, n1, n2, n3 int) (*models.Field, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to interpolate")
	}
	if err := samples.Inside(n1, n2, n3); err != nil {
		return nil, err
	}

	tree := kdtree.New(pointsFrom(samples), true)
	f := models.NewField(n1, n2, n3)
	for i3 := 0; i3 < n3; i3++ {
		for i2 := 0; i2 < n2; i2++ {
			for i1 := 0; i1 < n1; i1++ {
				q := Point3D{X: float64(i1), Y: float64(i2), Z: float64(i3)}
				nearest, _ := tree.Nearest(q)
				f.Set(i1, i2, i3, nearest.(Point3D).Value)
			}
		}
	}
	return f, nil
}
