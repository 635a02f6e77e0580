package models

import (
	"errors"
	"testing"
)

func TestFieldIndexing(t *testing.T) {
	f := NewField(4, 3, 2)
	if f.Len() != 24 {
		t.Fatalf("Expected 24 samples, got %d", f.Len())
	}

	f.Set(3, 2, 1, 7)
	if got := f.Data[(1*3+2)*4+3]; got != 7 {
		t.Errorf("Expected sample (3,2,1) at flat index 23, got %v", got)
	}
	if got := f.At(3, 2, 1); got != 7 {
		t.Errorf("Expected At(3,2,1)=7, got %v", got)
	}
}

func TestNewFieldFrom(t *testing.T) {
	if _, err := NewFieldFrom(make([]float64, 5), 2, 2, 2); !errors.Is(err, ErrShape) {
		t.Errorf("Expected ErrShape for short data, got %v", err)
	}

	f, err := NewFieldFrom(make([]float64, 8), 2, 2, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n1, n2, n3 := f.Shape(); n1 != 2 || n2 != 2 || n3 != 2 {
		t.Errorf("Expected 2x2x2, got %dx%dx%d", n1, n2, n3)
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := NewField(2, 2, 2)
	f.Fill(1)
	g := f.Clone()
	g.Data[0] = 5

	if f.Data[0] != 1 {
		t.Errorf("Clone shares storage with original")
	}
	if !f.SameShape(g) {
		t.Errorf("Clone changed shape")
	}
}

func TestCopyFromShapeMismatch(t *testing.T) {
	f := NewField(2, 2, 2)
	g := NewField(2, 2, 3)
	if err := f.CopyFrom(g); !errors.Is(err, ErrShape) {
		t.Errorf("Expected ErrShape, got %v", err)
	}
}

func TestDotAndMinMax(t *testing.T) {
	f := NewField(3, 1, 1)
	copy(f.Data, []float64{1, -2, 3})
	g := NewField(3, 1, 1)
	copy(g.Data, []float64{4, 5, 6})

	if got := f.Dot(g); got != 12 {
		t.Errorf("Expected dot 12, got %v", got)
	}
	lo, hi := f.MinMax()
	if lo != -2 || hi != 3 {
		t.Errorf("Expected min/max -2/3, got %v/%v", lo, hi)
	}
}

func TestSamplesInside(t *testing.T) {
	s := Samples{{I1: 0, I2: 1, I3: 2, Value: 1}}
	if err := s.Inside(1, 2, 3); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := s.Inside(1, 2, 2); err == nil {
		t.Errorf("Expected error for sample outside grid")
	}
}
