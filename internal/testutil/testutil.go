// Package testutil holds helpers shared by package tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"seismicsmooth/internal/models"
)

// RequireFieldNearlyEqual fails t if got and want differ in shape or if any
// sample pair differs by more than eps.
func RequireFieldNearlyEqual(t *testing.T, got, want *models.Field, eps float64) {
	t.Helper()
	if !got.SameShape(want) {
		t.Fatalf("shape mismatch: got %dx%dx%d, want %dx%dx%d", got.N1, got.N2, got.N3, want.N1, want.N2, want.N3)
	}
	for i := range got.Data {
		if d := math.Abs(got.Data[i] - want.Data[i]); d > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got.Data[i], want.Data[i], d, eps)
		}
	}
}

// RequireConstant fails t if any sample of f differs from v by more than eps.
func RequireConstant(t *testing.T, f *models.Field, v, eps float64) {
	t.Helper()
	for i, x := range f.Data {
		if math.Abs(x-v) > eps {
			t.Fatalf("index %d: got %v, want constant %v", i, x, v)
		}
	}
}

// RandomField returns a field of uniform random values in [-1,1) from a fixed seed.
func RandomField(n1, n2, n3 int, seed int64) *models.Field {
	r := rand.New(rand.NewSource(seed))
	f := models.NewField(n1, n2, n3)
	for i := range f.Data {
		f.Data[i] = 2*r.Float64() - 1
	}
	return f
}

// Impulse returns a zero field with a single unit sample at flat index k.
func Impulse(n1, n2, n3, k int) *models.Field {
	f := models.NewField(n1, n2, n3)
	f.Data[k] = 1
	return f
}

// Planes returns sin(a1*i1+a2*i2+a3*i3), a layered field whose layer
// normal is (a1,a2,a3).
func Planes(n1, n2, n3 int, a1, a2, a3 float64) *models.Field {
	f := models.NewField(n1, n2, n3)
	for i3 := 0; i3 < n3; i3++ {
		for i2 := 0; i2 < n2; i2++ {
			for i1 := 0; i1 < n1; i1++ {
				s := a1*float64(i1) + a2*float64(i2) + a3*float64(i3)
				f.Set(i1, i2, i3, math.Sin(s))
			}
		}
	}
	return f
}
