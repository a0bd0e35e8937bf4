package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/srmsim/internal/analysis"
	"github.com/san-kum/srmsim/internal/config"
	"github.com/san-kum/srmsim/internal/logging"
	"github.com/san-kum/srmsim/internal/spectra"
	"github.com/san-kum/srmsim/internal/srm"
	"github.com/san-kum/srmsim/internal/storage"
)

type Result struct {
	Samples  *srm.Samples
	Spectrum *srm.Spectrum
	Grid     srm.Grid
	Params   srm.Params
	Method   srm.Method
	Metrics  map[string]float64
	Elapsed  time.Duration
}

type Experiment struct {
	cfg      *config.Config
	registry *spectra.Registry
	log      logging.Logger
	progress func(done, total int)

	grid      srm.Grid
	generator *srm.Generator
}

type Option func(*Experiment)

func WithLogger(l logging.Logger) Option {
	return func(e *Experiment) { e.log = l }
}

func WithRegistry(r *spectra.Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// WithProgress installs a callback invoked after each realization.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Experiment) { e.progress = fn }
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:      cfg,
		registry: spectra.NewRegistry(),
		log:      logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup validates the config, evaluates the spectrum and prepares the
// generator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %q: %w", e.cfg.Name, err)
	}
	g, err := e.cfg.ResolveGrid()
	if err != nil {
		return err
	}
	spec, err := BuildSpectrum(e.registry, e.cfg, g)
	if err != nil {
		return err
	}
	gen, err := srm.New(g, spec, srm.WithLogger(e.log))
	if err != nil {
		return err
	}
	e.grid = g
	e.generator = gen
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	p, err := e.cfg.Params()
	if err != nil {
		return nil, err
	}
	p.Progress = e.progress

	method, err := e.generator.ResolveMethod(p.Method)
	if err != nil {
		return nil, err
	}

	log := e.log.WithFields(logging.Fields{"run": e.cfg.Name})
	log.Info("generating", logging.Fields{
		"samples": p.Samples,
		"method":  method.String(),
		"phases":  p.Phases.String(),
	})

	start := time.Now()
	samples, err := e.generator.Generate(ctx, p)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	metrics := analysis.Summarize(samples, e.generator.Spectrum(), e.grid)
	for name, v := range analysis.Observe(samples, analysis.DefaultMetrics()...) {
		metrics[name] = v
	}
	log.Info("done", logging.Fields{
		"elapsed":        elapsed.Round(time.Millisecond).String(),
		"variance":       metrics["variance"],
		"relative_error": metrics["relative_error"],
	})

	return &Result{
		Samples:  samples,
		Spectrum: e.generator.Spectrum(),
		Grid:     e.grid,
		Params:   p,
		Method:   method,
		Metrics:  metrics,
		Elapsed:  elapsed,
	}, nil
}

// Metadata describes the run for storage.
func (r *Result) Metadata(name string) storage.RunMetadata {
	var targets [][]float64
	if r.Spectrum != nil {
		for v := 0; v < r.Spectrum.Variables(); v++ {
			targets = append(targets, analysis.ExpectedLinePeriodogram(r.Spectrum, v, r.Grid.FrequencyIncrements))
		}
	}
	return storage.RunMetadata{
		Name:                name,
		Timestamp:           time.Now(),
		Seed:                r.Params.Seed,
		Samples:             r.Samples.Count,
		Variables:           r.Samples.Variables,
		Dimensions:          len(r.Grid.FrequencyPoints),
		Shape:               append([]int(nil), r.Samples.Shape...),
		Method:              r.Method.String(),
		Phases:              r.Params.Phases.String(),
		TimeIncrements:      append([]float64(nil), r.Grid.TimeIncrements...),
		FrequencyIncrements: append([]float64(nil), r.Grid.FrequencyIncrements...),
		FrequencyPoints:     append([]int(nil), r.Grid.FrequencyPoints...),
		Elapsed:             r.Elapsed.Seconds(),
		Metrics:             r.Metrics,
		LineTargets:         targets,
	}
}

// Generator returns the prepared generator, or nil before Setup.
func (e *Experiment) Generator() *srm.Generator {
	return e.generator
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}
