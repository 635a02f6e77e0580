package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrShape is returned (or panicked with) when two arrays that must share
// dimensions do not.
var ErrShape = errors.New("models: dimension mismatch")

// Field is a dense 3D array of samples stored as a 1D array.
// N1 is the fastest dimension and N3 the slowest, so sample (i1,i2,i3)
// lives at Data[(i3*N2+i2)*N1+i1].
type Field struct {
	// Data holds N1*N2*N3 samples
	Data []float64

	// N1, N2, N3 are the dimensions of the field
	N1, N2, N3 int
}

// NewField allocates a zero-valued field with the given dimensions.
func NewField(n1, n2, n3 int) *Field {
	if n1 <= 0 || n2 <= 0 || n3 <= 0 {
		panic(fmt.Sprintf("models: invalid field dimensions %dx%dx%d", n1, n2, n3))
	}
	return &Field{
		Data: make([]float64, n1*n2*n3),
		N1:   n1,
		N2:   n2,
		N3:   n3,
	}
}

// NewFieldFrom wraps data without copying. The length of data must equal n1*n2*n3.
func NewFieldFrom(data []float64, n1, n2, n3 int) (*Field, error) {
	if n1 <= 0 || n2 <= 0 || n3 <= 0 {
		return nil, fmt.Errorf("invalid field dimensions %dx%dx%d", n1, n2, n3)
	}
	if len(data) != n1*n2*n3 {
		return nil, fmt.Errorf("%w: %d samples for %dx%dx%d", ErrShape, len(data), n1, n2, n3)
	}
	return &Field{Data: data, N1: n1, N2: n2, N3: n3}, nil
}

// Index returns the position of sample (i1,i2,i3) in Data.
func (f *Field) Index(i1, i2, i3 int) int {
	return (i3*f.N2+i2)*f.N1 + i1
}

func (f *Field) At(i1, i2, i3 int) float64 {
	return f.Data[f.Index(i1, i2, i3)]
}

func (f *Field) Set(i1, i2, i3 int, v float64) {
	f.Data[f.Index(i1, i2, i3)] = v
}

// Len returns the number of samples.
func (f *Field) Len() int { return len(f.Data) }

// Shape returns the dimensions n1, n2, n3.
func (f *Field) Shape() (int, int, int) { return f.N1, f.N2, f.N3 }

// SameShape reports whether f and g have identical dimensions.
func (f *Field) SameShape(g *Field) bool {
	return f.N1 == g.N1 && f.N2 == g.N2 && f.N3 == g.N3
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	g := &Field{Data: make([]float64, len(f.Data)), N1: f.N1, N2: f.N2, N3: f.N3}
	copy(g.Data, f.Data)
	return g
}

// CopyFrom copies the samples of src into f.
func (f *Field) CopyFrom(src *Field) error {
	if !f.SameShape(src) {
		return fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrShape, f.N1, f.N2, f.N3, src.N1, src.N2, src.N3)
	}
	copy(f.Data, src.Data)
	return nil
}

// Fill sets every sample to v.
func (f *Field) Fill(v float64) {
	for i := range f.Data {
		f.Data[i] = v
	}
}

// Dot returns the inner product of f and g.
func (f *Field) Dot(g *Field) float64 {
	if !f.SameShape(g) {
		panic(ErrShape)
	}
	return floats.Dot(f.Data, g.Data)
}

// MinMax returns the smallest and largest sample values.
func (f *Field) MinMax() (float64, float64) {
	lo, hi := f.Data[0], f.Data[0]
	for _, v := range f.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Sample is a known value at integer grid coordinates, for example a
// well-log measurement inside a seismic image.
type Sample struct {
	I1    int     `yaml:"i1"`
	I2    int     `yaml:"i2"`
	I3    int     `yaml:"i3"`
	Value float64 `yaml:"value"`
}

// Samples is a collection of scattered known values.
type Samples []Sample

// Inside reports whether every sample lies within an n1 x n2 x n3 grid.
func (s Samples) Inside(n1, n2, n3 int) error {
	for i, p := range s {
		if p.I1 < 0 || p.I1 >= n1 || p.I2 < 0 || p.I2 >= n2 || p.I3 < 0 || p.I3 >= n3 {
			return fmt.Errorf("sample %d at (%d,%d,%d) outside %dx%dx%d grid", i, p.I1, p.I2, p.I3, n1, n2, n3)
		}
	}
	return nil
}
