package sampling

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func assertOnePointPerStratum(t *testing.T, u *mat.Dense) {
	t.Helper()
	n, d := u.Dims()
	for j := 0; j < d; j++ {
		seen := make([]bool, n)
		for i := 0; i < n; i++ {
			v := u.At(i, j)
			if v < 0 || v >= 1 {
				t.Fatalf("value %f outside [0,1) in column %d", v, j)
			}
			s := int(v * float64(n))
			if seen[s] {
				t.Fatalf("stratum %d of column %d hit twice", s, j)
			}
			seen[s] = true
		}
	}
}

func TestUnitLHSCriteria(t *testing.T) {
	tests := []LHSOptions{
		{Criterion: Random},
		{Criterion: Centered},
		{Criterion: Maximin, Metric: Euclidean, Iterations: 10},
		{Criterion: Maximin, Metric: Chebyshev, Iterations: 10},
		{Criterion: Correlate, Iterations: 10},
	}

	for _, opts := range tests {
		t.Run(string(opts.Criterion)+"/"+string(opts.Metric), func(t *testing.T) {
			u, err := UnitLHS(20, 3, opts, newRand())
			if err != nil {
				t.Fatalf("UnitLHS failed: %v", err)
			}
			assertOnePointPerStratum(t, u)
		})
	}
}

func TestCenteredLHSUsesMidpoints(t *testing.T) {
	u, err := UnitLHS(4, 2, LHSOptions{Criterion: Centered}, newRand())
	if err != nil {
		t.Fatal(err)
	}
	col := mat.Col(nil, 0, u)
	sort.Float64s(col)
	want := []float64{0.125, 0.375, 0.625, 0.875}
	for i := range want {
		if math.Abs(col[i]-want[i]) > 1e-12 {
			t.Errorf("centered value %d = %f, want %f", i, col[i], want[i])
		}
	}
}

func TestCorrelateNotWorseThanFirstCandidate(t *testing.T) {
	first := randomLHS(30, 4, newRand())
	best, err := UnitLHS(30, 4, LHSOptions{Criterion: Correlate, Iterations: 50}, newRand())
	if err != nil {
		t.Fatal(err)
	}
	if MaxCorrelation(best) > MaxCorrelation(first)+1e-12 {
		t.Errorf("correlate criterion increased correlation: %f > %f", MaxCorrelation(best), MaxCorrelation(first))
	}
}

func TestMCSTransform(t *testing.T) {
	uni, _ := ParseDistribution("Uniform", []float64{2, 4})
	exp, _ := ParseDistribution("Exponential", []float64{1})

	d, err := MCS(500, []Distribution{uni, exp}, newRand())
	if err != nil {
		t.Fatal(err)
	}
	n, _ := d.Samples.Dims()
	for i := 0; i < n; i++ {
		if x := d.Samples.At(i, 0); x < 2 || x > 4 {
			t.Fatalf("uniform sample %f outside [2,4]", x)
		}
		if x := d.Samples.At(i, 1); x < 0 {
			t.Fatalf("exponential sample %f negative", x)
		}
	}
}

func TestLHSNormalQuantiles(t *testing.T) {
	norm, _ := ParseSpec("Normal:10,2")
	d, err := LHS(3, []Distribution{norm}, LHSOptions{Criterion: Centered}, newRand())
	if err != nil {
		t.Fatal(err)
	}
	col := mat.Col(nil, 0, d.Samples)
	sort.Float64s(col)
	if math.Abs(col[1]-10) > 1e-9 {
		t.Errorf("median stratum should map to the mean, got %f", col[1])
	}
	if col[0] >= 10 || col[2] <= 10 {
		t.Errorf("outer strata should straddle the mean: %v", col)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := ParseDistribution("Cauchy", []float64{0, 1}); !errors.Is(err, ErrUnknownDistribution) {
		t.Errorf("expected ErrUnknownDistribution, got %v", err)
	}
	if _, err := ParseDistribution("Normal", []float64{0}); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
	if _, err := ParseSpec("Gamma:1,x"); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
	if _, err := UnitLHS(0, 2, LHSOptions{}, newRand()); !errors.Is(err, ErrInvalidDesign) {
		t.Errorf("expected ErrInvalidDesign, got %v", err)
	}
	if _, err := UnitLHS(5, 2, LHSOptions{Criterion: "sobol"}, newRand()); !errors.Is(err, ErrInvalidDesign) {
		t.Errorf("expected ErrInvalidDesign, got %v", err)
	}
}
