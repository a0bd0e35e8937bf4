package config

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/srmsim/internal/srm"
)

const (
	DefaultSamples = 10
	DefaultMethod  = "auto"
	DefaultPhases  = "mcs"
)

// Config is a run description. A zero Dimensions takes the dimension from
// the grid axes.
type Config struct {
	Name       string        `yaml:"name"`
	Variables  int           `yaml:"variables"`
	Dimensions int           `yaml:"dimensions"`
	Samples    int           `yaml:"samples"`
	Seed       uint64        `yaml:"seed"`
	Method     string        `yaml:"method"`
	Phases     string        `yaml:"phases"`
	Workers    int           `yaml:"workers,omitempty"`
	Grid       GridConfig    `yaml:"grid"`
	Spectra    SpectraConfig `yaml:"spectra"`
}

// GridConfig describes the frequency and time grids. dw may be replaced by
// upper cutoffs (dw = upper/nw) and dt may be left out, in which case it is
// chosen so the grid is FFT compatible (dt = 2*pi/(nt*dw)).
type GridConfig struct {
	TimeIncrements      Increments `yaml:"dt,omitempty"`
	FrequencyIncrements Increments `yaml:"dw,omitempty"`
	Upper               Increments `yaml:"upper,omitempty"`
	TimePoints          Sizes      `yaml:"nt"`
	FrequencyPoints     Sizes      `yaml:"nw"`
}

type ModelConfig struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

type PairConfig struct {
	I     int         `yaml:"i"`
	J     int         `yaml:"j"`
	Model ModelConfig `yaml:",inline"`
}

type SpectraConfig struct {
	Autos     []ModelConfig `yaml:"autos"`
	Coherence []PairConfig  `yaml:"coherence,omitempty"`
	// AllPairs applies one coherence model to every pair not listed in
	// Coherence.
	AllPairs *ModelConfig `yaml:"all_pairs,omitempty"`
}

// Sizes is a per-axis list of grid point counts. A bare scalar is rejected:
// the number of axes must be explicit.
type Sizes []int

func (s *Sizes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: %w: expected a list of sizes, got %q", node.Line, srm.ErrDegenerateGrid, node.Value)
	}
	var out []int
	if err := node.Decode(&out); err != nil {
		return err
	}
	*s = out
	return nil
}

// Increments is a per-axis list of grid spacings. A bare scalar is rejected
// like in Sizes.
type Increments []float64

func (in *Increments) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: %w: expected a list of increments, got %q", node.Line, srm.ErrDegenerateGrid, node.Value)
	}
	var out []float64
	if err := node.Decode(&out); err != nil {
		return err
	}
	*in = out
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "default",
		Variables: 1,
		Samples:   DefaultSamples,
		Seed:      1,
		Method:    DefaultMethod,
		Phases:    DefaultPhases,
		Grid: GridConfig{
			Upper:           Increments{4},
			FrequencyPoints: Sizes{128},
			TimePoints:      Sizes{256},
		},
		Spectra: SpectraConfig{
			Autos: []ModelConfig{{Name: "exponential"}},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML on top of DefaultConfig. Grid and spectra sections
// replace the defaults wholesale.
func Parse(data []byte) (*Config, error) {
	var sections struct {
		Grid    *yaml.Node `yaml:"grid"`
		Spectra *yaml.Node `yaml:"spectra"`
	}
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if sections.Grid != nil {
		cfg.Grid = GridConfig{}
	}
	if sections.Spectra != nil {
		cfg.Spectra = SpectraConfig{}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Grid resolves the configured grid into the form the generator takes.
func (c *Config) ResolveGrid() (srm.Grid, error) {
	gc := c.Grid
	nw := []int(gc.FrequencyPoints)
	nt := []int(gc.TimePoints)
	if len(nw) == 0 || len(nt) == 0 {
		return srm.Grid{}, fmt.Errorf("%w: nw and nt are required", srm.ErrDegenerateGrid)
	}

	dw := append([]float64(nil), gc.FrequencyIncrements...)
	if len(dw) == 0 {
		if len(gc.Upper) != len(nw) {
			return srm.Grid{}, fmt.Errorf("%w: need dw or one upper cutoff per axis", srm.ErrDimensionMismatch)
		}
		dw = make([]float64, len(nw))
		for i, u := range gc.Upper {
			if nw[i] <= 0 {
				return srm.Grid{}, fmt.Errorf("%w: nw[%d] = %d", srm.ErrDegenerateGrid, i, nw[i])
			}
			dw[i] = u / float64(nw[i])
		}
	}

	dt := append([]float64(nil), gc.TimeIncrements...)
	if len(dt) == 0 {
		if len(nt) != len(dw) {
			return srm.Grid{}, fmt.Errorf("%w: %d time axes, %d frequency axes", srm.ErrDimensionMismatch, len(nt), len(dw))
		}
		dt = make([]float64, len(nt))
		for i := range nt {
			dt[i] = 2 * math.Pi / (float64(nt[i]) * dw[i])
		}
	}

	g := srm.Grid{
		Dimensions:          c.Dimensions,
		TimeIncrements:      dt,
		FrequencyIncrements: dw,
		TimePoints:          append([]int(nil), nt...),
		FrequencyPoints:     append([]int(nil), nw...),
	}
	if err := g.Validate(); err != nil {
		return srm.Grid{}, err
	}
	return g, nil
}

// Validate checks the parts of the config that do not need the spectral
// models to be resolved.
func (c *Config) Validate() error {
	var errs []error
	if c.Samples < 1 {
		errs = append(errs, fmt.Errorf("%w: samples must be positive, got %d", srm.ErrParameterBounds, c.Samples))
	}
	if _, err := srm.ParseMethod(c.Method); err != nil {
		errs = append(errs, err)
	}
	if _, err := srm.ParsePhaseSampling(c.Phases); err != nil {
		errs = append(errs, err)
	}
	if len(c.Spectra.Autos) == 0 {
		errs = append(errs, fmt.Errorf("%w: no auto-spectra configured", srm.ErrDimensionMismatch))
	} else if c.Variables != 0 && c.Variables != len(c.Spectra.Autos) {
		errs = append(errs, fmt.Errorf("%w: %d variables but %d auto-spectra", srm.ErrDimensionMismatch, c.Variables, len(c.Spectra.Autos)))
	}
	if _, err := c.ResolveGrid(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Params maps the run settings onto generator parameters.
func (c *Config) Params() (srm.Params, error) {
	method, err := srm.ParseMethod(c.Method)
	if err != nil {
		return srm.Params{}, err
	}
	phases, err := srm.ParsePhaseSampling(c.Phases)
	if err != nil {
		return srm.Params{}, err
	}
	return srm.Params{
		Samples: c.Samples,
		Seed:    c.Seed,
		Method:  method,
		Phases:  phases,
		Workers: c.Workers,
	}, nil
}

// Clone returns a deep copy, so presets can be modified by callers.
func (c *Config) Clone() *Config {
	out := *c
	out.Grid = GridConfig{
		TimeIncrements:      append(Increments(nil), c.Grid.TimeIncrements...),
		FrequencyIncrements: append(Increments(nil), c.Grid.FrequencyIncrements...),
		Upper:               append(Increments(nil), c.Grid.Upper...),
		TimePoints:          append(Sizes(nil), c.Grid.TimePoints...),
		FrequencyPoints:     append(Sizes(nil), c.Grid.FrequencyPoints...),
	}
	out.Spectra.Autos = nil
	for _, m := range c.Spectra.Autos {
		out.Spectra.Autos = append(out.Spectra.Autos, m.clone())
	}
	out.Spectra.Coherence = nil
	for _, p := range c.Spectra.Coherence {
		out.Spectra.Coherence = append(out.Spectra.Coherence, PairConfig{I: p.I, J: p.J, Model: p.Model.clone()})
	}
	if c.Spectra.AllPairs != nil {
		m := c.Spectra.AllPairs.clone()
		out.Spectra.AllPairs = &m
	}
	return &out
}

func (m ModelConfig) clone() ModelConfig {
	return ModelConfig{Name: m.Name, Params: maps.Clone(m.Params)}
}
