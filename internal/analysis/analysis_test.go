package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/srmsim/internal/spectra"
	"github.com/san-kum/srmsim/internal/srm"
)

func generate(t *testing.T, m, samples int, coherence float64) (*srm.Samples, *srm.Spectrum, srm.Grid) {
	t.Helper()
	nw, nt := 64, 128
	dw := 4.0 / float64(nw)
	grid := srm.Grid{
		TimeIncrements:      []float64{2 * math.Pi / (float64(nt) * dw)},
		FrequencyIncrements: []float64{dw},
		TimePoints:          []int{nt},
		FrequencyPoints:     []int{nw},
	}
	autos := make([]spectra.PSD, m)
	for i := range autos {
		autos[i] = spectra.NewExponential(125.0/4*float64(i+1), 5)
	}
	spec, err := spectra.Build(grid, autos, spectra.FullCoherence(m, &spectra.ConstantCoherence{Level: coherence}))
	if err != nil {
		t.Fatal(err)
	}
	gen, err := srm.New(grid, spec)
	if err != nil {
		t.Fatal(err)
	}
	out, err := gen.Generate(context.Background(), srm.Params{Samples: samples, Seed: 77})
	if err != nil {
		t.Fatal(err)
	}
	return out, spec, grid
}

func TestSummarizeConverges(t *testing.T) {
	samples, spec, grid := generate(t, 2, 1000, 0.5)
	stats := Summarize(samples, spec, grid)

	if stats["relative_error"] > 0.05 {
		t.Errorf("variance %f vs expected %f", stats["variance"], stats["expected_variance"])
	}
	if math.Abs(stats["mean"]) > 0.05*math.Sqrt(stats["expected_variance"]) {
		t.Errorf("mean %f not near zero", stats["mean"])
	}
	if stats["min"] >= 0 || stats["max"] <= 0 {
		t.Errorf("expected samples of both signs, min=%f max=%f", stats["min"], stats["max"])
	}
}

func TestCrossCovarianceMatchesSpectrum(t *testing.T) {
	samples, spec, grid := generate(t, 2, 2000, 0.8)

	got := CrossCovariance(samples, 0, 1)
	want := ExpectedCrossCovariance(spec, grid, 0, 1)
	scale := math.Sqrt(VariableVariance(samples, 0) * VariableVariance(samples, 1))
	if math.Abs(got-want) > 0.05*scale {
		t.Errorf("cross covariance %f, expected %f", got, want)
	}

	if v0, want0 := VariableVariance(samples, 0), ExpectedCrossCovariance(spec, grid, 0, 0); math.Abs(v0-want0) > 0.01*want0 {
		t.Errorf("variance of variable 0: %f, expected %f", v0, want0)
	}
}

func TestPeriodogramRecoversFirstAutoSpectrum(t *testing.T) {
	samples, spec, grid := generate(t, 1, 4, 0)

	fields := make([][]float64, samples.Count)
	for i := range fields {
		fields[i] = samples.Field(i, 0)
	}
	ps := AveragePeriodogram(fields, grid.TimeIncrements[0])

	for k := 1; k < spec.Points(); k++ {
		want := real(spec.AtFlat(0, 0, k))
		if math.Abs(ps[k]-want) > 1e-6*math.Max(want, 1e-3) {
			t.Fatalf("bin %d: periodogram %g, spectrum %g", k, ps[k], want)
		}
	}
}

func TestMetrics(t *testing.T) {
	s := &srm.Samples{
		Count:     2,
		Variables: 1,
		Shape:     []int{4},
		Data:      []float64{1, -1, 1, -1, 2, -2, 2, -3},
	}

	got := Observe(s, DefaultMetrics()...)
	if got["peak_amplitude"] != 3 {
		t.Errorf("peak amplitude = %f, want 3", got["peak_amplitude"])
	}
	// second field: mean -0.25, variance 5.1875; first field: variance 1
	if math.Abs(got["field_variance_spread"]-5.1875) > 1e-12 {
		t.Errorf("variance spread = %f, want 5.1875", got["field_variance_spread"])
	}

	m := NewPeakAmplitude()
	m.Observe([]float64{5})
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestLinePeriodogram(t *testing.T) {
	samples, _, grid := generate(t, 1, 4, 0)
	dt := grid.TimeIncrements[0]

	fields := make([][]float64, samples.Count)
	for i := range fields {
		fields[i] = samples.Field(i, 0)
	}
	want := AveragePeriodogram(fields, dt)
	got := LinePeriodogram(samples, 0, dt)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for k := range got {
		if got[k] != want[k] {
			t.Fatalf("bin %d: %g != %g", k, got[k], want[k])
		}
	}

	// exponential spectrum w^2 exp(-5w) peaks at w = 0.4
	peak := float64(DominantBin(got)) * grid.FrequencyIncrements[0]
	if math.Abs(peak-0.4) > 2*grid.FrequencyIncrements[0] {
		t.Errorf("dominant frequency %f, want about 0.4", peak)
	}
}

func TestExpectedLinePeriodogram1D(t *testing.T) {
	_, spec, grid := generate(t, 2, 1, 0.3)
	for v := 0; v < 2; v++ {
		target := ExpectedLinePeriodogram(spec, v, grid.FrequencyIncrements)
		if len(target) != 64 {
			t.Fatalf("len = %d, want 64", len(target))
		}
		for k := range target {
			if target[k] != real(spec.AtFlat(v, v, k)) {
				t.Fatalf("variable %d bin %d: %g != %g", v, k, target[k], real(spec.AtFlat(v, v, k)))
			}
		}
	}
}

func TestExpectedLinePeriodogram2D(t *testing.T) {
	nw, nt := []int{8, 16}, []int{16, 32}
	dw := []float64{2.0 / 8, 2.0 / 16}
	grid := srm.Grid{
		TimeIncrements:      []float64{2 * math.Pi / (16 * dw[0]), 2 * math.Pi / (32 * dw[1])},
		FrequencyIncrements: dw,
		TimePoints:          nt,
		FrequencyPoints:     nw,
	}
	spec := srm.NewSpectrum(1, nw)
	for k := 0; k < spec.Points(); k++ {
		spec.SetFlat(0, 0, k, 1)
	}

	target := ExpectedLinePeriodogram(spec, 0, dw)
	if len(target) != 16 {
		t.Fatalf("len = %d, want 16", len(target))
	}
	// integrating the one-sided density recovers the field variance
	total := 0.0
	for _, v := range target {
		total += 2 * v * dw[1]
	}
	if want := srm.ExpectedVariance(spec, grid); math.Abs(total-want) > 1e-12 {
		t.Errorf("integrated target = %f, want %f", total, want)
	}

	gen, err := srm.New(grid, spec)
	if err != nil {
		t.Fatal(err)
	}
	out, err := gen.Generate(context.Background(), srm.Params{Samples: 40, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	ps := LinePeriodogram(out, 0, grid.TimeIncrements[1])

	if rel := BandError(ps, target); rel > 0.15 {
		t.Errorf("line periodogram off its target by %.3f", rel)
	}
}

func TestBandError(t *testing.T) {
	if got := BandError([]float64{9, 1, 2}, []float64{0, 2, 2}); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("BandError = %f, want 0.25", got)
	}
	if !math.IsNaN(BandError([]float64{1, 1}, []float64{1, 0})) {
		t.Error("a zero target should give NaN")
	}
}
