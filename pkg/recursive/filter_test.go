package recursive

import (
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"

	"seismicsmooth/internal/models"
	"seismicsmooth/internal/testutil"
)

// lineMatrix builds the explicit n x n matrix of the 1D filter column by column.
func lineMatrix(f *ExponentialFilter, n int) [][]float64 {
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
	}
	x := make([]float64, n)
	y := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := range x {
			x[i] = 0
		}
		x[j] = 1
		f.ApplyLine(x, y)
		for i := 0; i < n; i++ {
			a[i][j] = y[i]
		}
	}
	return a
}

func TestLineOperatorIsSymmetric(t *testing.T) {
	for _, edges := range []Edges{InputZeroValue, OutputZeroValue, OutputZeroSlope} {
		t.Run(edges.String(), func(t *testing.T) {
			f := NewExponentialFilter(3)
			f.SetEdges(edges)
			a := lineMatrix(f, 9)
			for i := range a {
				for j := range a {
					if math.Abs(a[i][j]-a[j][i]) > 1e-12 {
						t.Fatalf("a[%d][%d]=%v, a[%d][%d]=%v", i, j, a[i][j], j, i, a[j][i])
					}
				}
			}
		})
	}
}

func TestZeroSlopePreservesConstants(t *testing.T) {
	f := NewExponentialFilter(4)
	x := models.NewField(7, 5, 3)
	x.Fill(5)

	f.Apply1(x, x)
	f.Apply2(x, x)
	f.Apply3(x, x)

	testutil.RequireConstant(t, x, 5, 1e-12)
}

func TestZeroValueLosesMassAtEdges(t *testing.T) {
	f := NewExponentialFilter(4)
	f.SetEdges(OutputZeroValue)
	x := []float64{1, 1, 1, 1, 1, 1}
	y := make([]float64, len(x))
	f.ApplyLine(x, y)

	if y[0] >= 1 || y[len(y)-1] >= 1 {
		t.Errorf("Expected attenuated ends, got %v", y)
	}
	if y[0] >= y[2] {
		t.Errorf("Expected ends smaller than interior, got %v", y)
	}
}

func TestInteriorDecayMatchesPole(t *testing.T) {
	sigma := 2.0
	f := NewExponentialFilter(sigma)
	f.SetEdges(InputZeroValue)
	n := 101
	x := make([]float64, n)
	x[n/2] = 1
	y := make([]float64, n)
	f.ApplyLine(x, y)

	p := Pole(sigma)
	for k := 1; k < 10; k++ {
		ratio := y[n/2+k] / y[n/2+k-1]
		if math.Abs(ratio-p) > 1e-9 {
			t.Fatalf("lag %d: decay ratio %v, want pole %v", k, ratio, p)
		}
	}
}

// The infinite-line filter has frequency response 1/(1 + a*(2-2cos w)).
func TestFrequencyResponse(t *testing.T) {
	sigma := 4.0
	n := 256
	f := NewExponentialFilter(sigma)
	f.SetEdges(InputZeroValue)

	x := make([]float64, n)
	x[n/2] = 1
	y := make([]float64, n)
	f.ApplyLine(x, y)

	coeffs := fourier.NewFFT(n).Coefficients(nil, y)
	a := 0.5 * sigma * sigma
	prev := math.Inf(1)
	for k, c := range coeffs {
		w := 2 * math.Pi * float64(k) / float64(n)
		want := 1 / (1 + a*(2-2*math.Cos(w)))
		got := cmplx.Abs(c)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("bin %d: |H|=%v, want %v", k, got, want)
		}
		if got > prev {
			t.Fatalf("bin %d: response not decreasing (%v > %v)", k, got, prev)
		}
		prev = got
	}
}

func TestAxesAgreeOnTransposedData(t *testing.T) {
	f := NewExponentialFilter(1.5)
	n := 6
	line := testutil.RandomField(n, 1, 1, 3)

	x1 := line.Clone()
	f.Apply1(x1, x1)

	x2 := models.NewField(1, n, 1)
	copy(x2.Data, line.Data)
	f.Apply2(x2, x2)

	x3 := models.NewField(1, 1, n)
	copy(x3.Data, line.Data)
	f.Apply3(x3, x3)

	for i := 0; i < n; i++ {
		if math.Abs(x1.Data[i]-x2.Data[i]) > 1e-14 || math.Abs(x1.Data[i]-x3.Data[i]) > 1e-14 {
			t.Fatalf("index %d: axis results differ: %v %v %v", i, x1.Data[i], x2.Data[i], x3.Data[i])
		}
	}
}

func TestAliasedAndDistinctOutputsMatch(t *testing.T) {
	f := NewExponentialFilter3(1, 2, 3)
	src := testutil.RandomField(5, 4, 3, 11)

	dst := models.NewField(5, 4, 3)
	f.Apply(src, dst)

	inPlace := src.Clone()
	f.Apply(inPlace, inPlace)

	testutil.RequireFieldNearlyEqual(t, inPlace, dst, 0)
}

func TestZeroSigmaIsIdentity(t *testing.T) {
	f := NewExponentialFilter(0)
	src := testutil.RandomField(4, 3, 2, 5)
	dst := models.NewField(4, 3, 2)
	f.Apply(src, dst)
	testutil.RequireFieldNearlyEqual(t, dst, src, 0)
}

func TestShapeMismatchPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != models.ErrShape {
			t.Errorf("Expected panic with ErrShape, got %v", r)
		}
	}()
	NewExponentialFilter(1).Apply1(models.NewField(2, 2, 2), models.NewField(3, 2, 2))
}

func TestParseEdges(t *testing.T) {
	tests := []struct {
		in   string
		want Edges
		ok   bool
	}{
		{"", OutputZeroSlope, true},
		{"output-zero-slope", OutputZeroSlope, true},
		{"output-zero-value", OutputZeroValue, true},
		{"input-zero-value", InputZeroValue, true},
		{"mirror", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseEdges(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseEdges(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseEdges(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
