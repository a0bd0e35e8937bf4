package experiment

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/san-kum/srmsim/internal/config"
	"github.com/san-kum/srmsim/internal/logging"
	"github.com/san-kum/srmsim/internal/spectra"
	"github.com/san-kum/srmsim/internal/srm"
)

func smallConfig() *config.Config {
	cfg := config.GetPreset("wind")
	cfg.Samples = 8
	cfg.Grid.FrequencyPoints = config.Sizes{32}
	cfg.Grid.TimePoints = config.Sizes{64}
	return cfg
}

func TestExperimentRun(t *testing.T) {
	var buf bytes.Buffer
	var calls atomic.Int64
	exp := New(smallConfig(),
		WithLogger(logging.NewWriterLogger(&buf, false)),
		WithProgress(func(done, total int) { calls.Add(1) }),
	)
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	dims := res.Samples.Dims()
	want := []int{8, 2, 64}
	for i := range want {
		if dims[i] != want[i] {
			t.Fatalf("dims = %v, want %v", dims, want)
		}
	}
	if res.Method != srm.MethodFFT {
		t.Errorf("method = %s, want fft", res.Method)
	}
	if calls.Load() != 8 {
		t.Errorf("progress called %d times, want 8", calls.Load())
	}
	for _, key := range []string{"mean", "variance", "expected_variance", "relative_error", "peak_amplitude"} {
		if _, ok := res.Metrics[key]; !ok {
			t.Errorf("missing metric %s", key)
		}
	}
	if !strings.Contains(buf.String(), "run=wind") {
		t.Errorf("expected run field in log output, got %q", buf.String())
	}
}

func TestExperimentDeterministic(t *testing.T) {
	run := func() []float64 {
		exp := New(smallConfig(), WithLogger(&logging.NoOpLogger{}))
		if err := exp.Setup(); err != nil {
			t.Fatal(err)
		}
		res, err := exp.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res.Samples.Data
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample data differs at %d", i)
		}
	}
}

func TestExperimentNotSetup(t *testing.T) {
	exp := New(smallConfig())
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
}

func TestExperimentSetupErrors(t *testing.T) {
	cfg := smallConfig()
	cfg.Spectra.Autos[1].Name = "pink"
	if err := New(cfg, WithLogger(&logging.NoOpLogger{})).Setup(); err == nil {
		t.Error("expected unknown model error")
	}

	cfg = smallConfig()
	cfg.Samples = 0
	err := New(cfg, WithLogger(&logging.NoOpLogger{})).Setup()
	if !errors.Is(err, srm.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	cfg = smallConfig()
	cfg.Spectra.Coherence[0].J = 5
	err = New(cfg, WithLogger(&logging.NoOpLogger{})).Setup()
	if !errors.Is(err, srm.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBuildSpectrumPairOverride(t *testing.T) {
	cfg := config.GetPreset("cosine")
	cfg.Spectra.Coherence = []config.PairConfig{
		{I: 1, J: 0, Model: config.ModelConfig{Name: "constant", Params: map[string]float64{"level": 0}}},
	}
	g, err := cfg.ResolveGrid()
	if err != nil {
		t.Fatal(err)
	}

	spec, err := BuildSpectrum(spectra.NewRegistry(), cfg, g)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < spec.Points(); k++ {
		if v := spec.AtFlat(0, 1, k); v != 0 {
			t.Fatalf("cross spectrum at %d = %v, want 0", k, v)
		}
	}
}

func TestResultMetadata(t *testing.T) {
	exp := New(smallConfig(), WithLogger(&logging.NoOpLogger{}))
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	meta := res.Metadata("wind")
	if meta.Samples != 8 || meta.Variables != 2 || meta.Dimensions != 1 {
		t.Errorf("unexpected layout in %+v", meta)
	}
	if meta.Method != "fft" || meta.Phases != "mcs" || meta.Seed != 7 {
		t.Errorf("unexpected run settings in %+v", meta)
	}
	if meta.Metrics["variance"] != res.Metrics["variance"] {
		t.Error("metrics not carried over")
	}
	if len(meta.LineTargets) != 2 {
		t.Fatalf("got %d line targets, want one per variable", len(meta.LineTargets))
	}
	for v, target := range meta.LineTargets {
		if len(target) != meta.FrequencyPoints[0] {
			t.Errorf("variable %d target has %d bins, want %d", v, len(target), meta.FrequencyPoints[0])
		}
		if target[3] != real(res.Spectrum.AtFlat(v, v, 3)) {
			t.Errorf("variable %d: 1-D target should equal the auto-spectrum", v)
		}
	}
}
