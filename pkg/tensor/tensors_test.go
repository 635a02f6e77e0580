package tensor

import (
	"math"
	"testing"

	"seismicsmooth/internal/testutil"
)

func TestNewEigenTensorsAreIdentity(t *testing.T) {
	et := NewEigenTensors3(3, 2, 2)
	want := [6]float64{1, 0, 0, 1, 0, 1}
	for i3 := 0; i3 < 2; i3++ {
		for i2 := 0; i2 < 2; i2++ {
			for i1 := 0; i1 < 3; i1++ {
				if got := et.Tensor(i1, i2, i3); got != want {
					t.Fatalf("Tensor(%d,%d,%d) = %v, want %v", i1, i2, i3, got, want)
				}
			}
		}
	}
}

func TestTensorFromEigenDecomposition(t *testing.T) {
	et := NewEigenTensors3(1, 1, 1)
	s := 1 / math.Sqrt2
	if err := et.SetEigenvectorsAt(0, 0, 0, [3]float64{s, s, 0}, [3]float64{0, 0, 1}); err != nil {
		t.Fatalf("SetEigenvectorsAt: %v", err)
	}
	et.SetEigenvaluesAt(0, 0, 0, 3, 2, 1)

	got := et.Tensor(0, 0, 0)
	want := [6]float64{2.5, 0.5, 0, 2.5, 0, 1}
	for k := range want {
		if math.Abs(got[k]-want[k]) > 1e-12 {
			t.Fatalf("component %d = %v, want %v", k, got[k], want[k])
		}
	}

	_, v, _ := et.EigenvectorsAt(0, 0, 0)
	if math.Abs(v[0]+s) > 1e-12 || math.Abs(v[1]-s) > 1e-12 || v[2] != 0 {
		t.Errorf("Expected v = w x u = (-s, s, 0), got %v", v)
	}
}

func TestSetEigenvectorsOrthogonalizes(t *testing.T) {
	et := NewEigenTensors3(1, 1, 1)
	if err := et.SetEigenvectorsAt(0, 0, 0, [3]float64{2, 0, 0}, [3]float64{1, 0, 1}); err != nil {
		t.Fatalf("SetEigenvectorsAt: %v", err)
	}
	u, _, w := et.EigenvectorsAt(0, 0, 0)
	if u != [3]float64{1, 0, 0} {
		t.Errorf("Expected normalized u, got %v", u)
	}
	if w != [3]float64{0, 0, 1} {
		t.Errorf("Expected w orthogonal to u, got %v", w)
	}

	if err := et.SetEigenvectorsAt(0, 0, 0, [3]float64{1, 0, 0}, [3]float64{3, 0, 0}); err == nil {
		t.Errorf("Expected error for w parallel to u")
	}
	if err := et.SetEigenvectorsAt(0, 0, 0, [3]float64{}, [3]float64{0, 0, 1}); err == nil {
		t.Errorf("Expected error for zero u")
	}
}

func TestSetEigenvaluesGlobal(t *testing.T) {
	et := NewEigenTensors3(2, 2, 2)
	et.SetEigenvalues(0.001, 1, 1)
	au, av, aw := et.EigenvaluesAt(1, 1, 1)
	if au != 0.001 || av != 1 || aw != 1 {
		t.Errorf("Expected (0.001,1,1), got (%v,%v,%v)", au, av, aw)
	}
}

func TestFromStructureFindsLayerNormal(t *testing.T) {
	x := testutil.Planes(8, 12, 8, 0, 0.7, 0)
	et, err := FromStructure(x, 2)
	if err != nil {
		t.Fatalf("FromStructure: %v", err)
	}

	maxAU := 0.0
	for i3 := 1; i3 < 7; i3++ {
		for i2 := 1; i2 < 11; i2++ {
			for i1 := 1; i1 < 7; i1++ {
				u, _, _ := et.EigenvectorsAt(i1, i2, i3)
				if math.Abs(u[1]) < 0.99 {
					t.Fatalf("(%d,%d,%d): normal %v not along axis 2", i1, i2, i3, u)
				}
				au, av, aw := et.EigenvaluesAt(i1, i2, i3)
				if au < av || av < aw {
					t.Fatalf("(%d,%d,%d): eigenvalues not ordered: %v %v %v", i1, i2, i3, au, av, aw)
				}
				maxAU = math.Max(maxAU, au)
			}
		}
	}
	if maxAU > 1+1e-12 {
		t.Errorf("Expected normalized eigenvalues, max au = %v", maxAU)
	}
}

func TestToSmoothingFollowsLayers(t *testing.T) {
	x := testutil.Planes(8, 12, 8, 0, 0.7, 0)
	et, err := FromStructure(x, 2)
	if err != nil {
		t.Fatalf("FromStructure: %v", err)
	}
	et.ToSmoothing(0.01)

	for _, p := range [][3]int{{2, 3, 2}, {4, 6, 4}, {5, 8, 3}} {
		d := et.Tensor(p[0], p[1], p[2])
		if math.Abs(d[3]-0.01) > 1e-6 {
			t.Errorf("%v: expected d22 = 0.01 across layers, got %v", p, d[3])
		}
		if math.Abs(d[0]-1) > 1e-6 || math.Abs(d[5]-1) > 1e-6 {
			t.Errorf("%v: expected d11 = d33 = 1 along layers, got %v %v", p, d[0], d[5])
		}
	}
}

func TestToSmoothingFlatIsIdentity(t *testing.T) {
	et := NewEigenTensors3(2, 2, 2)
	et.SetEigenvalues(0, 0, 0)
	et.ToSmoothing(0.01)
	if au, av, aw := et.EigenvaluesAt(1, 0, 1); au != 1 || av != 1 || aw != 1 {
		t.Errorf("Expected identity where there is no structure, got (%v,%v,%v)", au, av, aw)
	}
}

func TestFromStructureRejectsBadSigma(t *testing.T) {
	if _, err := FromStructure(testutil.RandomField(2, 2, 2, 1), 0); err == nil {
		t.Errorf("Expected error for zero sigma")
	}
}
