package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrConflictingSources = errors.New("config: a preset and a config file were both given")

var Presets = map[string]*Config{
	"plane": {
		Name: "plane", Variables: 3, Dimensions: 2, Samples: 100, Seed: 2024,
		Method: "auto", Phases: "mcs",
		Grid: GridConfig{
			Upper:           Increments{1.5, 2.5},
			FrequencyPoints: Sizes{100, 100},
			TimePoints:      Sizes{256, 256},
		},
		Spectra: SpectraConfig{
			Autos: []ModelConfig{
				{Name: "exponential", Params: map[string]float64{"scale": 125.0 / 4, "decay": 5}},
				{Name: "exponential", Params: map[string]float64{"scale": 125.0 / 2, "decay": 5}},
				{Name: "exponential", Params: map[string]float64{"scale": 375.0 / 4, "decay": 5}},
			},
			AllPairs: &ModelConfig{Name: "exponential", Params: map[string]float64{"decay": 0.1757}},
		},
	},
	"wind": {
		Name: "wind", Variables: 2, Dimensions: 1, Samples: 200, Seed: 7,
		Method: "fft", Phases: "mcs",
		Grid: GridConfig{
			Upper:           Increments{4},
			FrequencyPoints: Sizes{256},
			TimePoints:      Sizes{512},
		},
		Spectra: SpectraConfig{
			Autos: []ModelConfig{
				{Name: "exponential"},
				{Name: "exponential", Params: map[string]float64{"scale": 125.0 / 2}},
			},
			Coherence: []PairConfig{
				{I: 0, J: 1, Model: ModelConfig{Name: "exponential", Params: map[string]float64{"decay": 0.5}}},
			},
		},
	},
	"white": {
		Name: "white", Variables: 1, Dimensions: 1, Samples: 50, Seed: 1,
		Method: "auto", Phases: "lhs",
		Grid: GridConfig{
			Upper:           Increments{4},
			FrequencyPoints: Sizes{128},
			TimePoints:      Sizes{256},
		},
		Spectra: SpectraConfig{
			Autos: []ModelConfig{{Name: "white", Params: map[string]float64{"level": 1, "cutoff": 2}}},
		},
	},
	"surface": {
		Name: "surface", Variables: 1, Dimensions: 2, Samples: 20, Seed: 3,
		Method: "auto", Phases: "lhs",
		Grid: GridConfig{
			Upper:           Increments{3, 3},
			FrequencyPoints: Sizes{32, 32},
			TimePoints:      Sizes{64, 64},
		},
		Spectra: SpectraConfig{
			Autos: []ModelConfig{{Name: "gaussian", Params: map[string]float64{"width": 0.8}}},
		},
	},
	"cosine": {
		Name: "cosine", Variables: 2, Dimensions: 1, Samples: 20, Seed: 11,
		Method: "cosine", Phases: "mcs",
		Grid: GridConfig{
			TimeIncrements:      Increments{0.5},
			FrequencyIncrements: Increments{0.05},
			FrequencyPoints:     Sizes{64},
			TimePoints:          Sizes{200},
		},
		Spectra: SpectraConfig{
			Autos: []ModelConfig{{Name: "exponential"}, {Name: "gaussian"}},
			AllPairs: &ModelConfig{Name: "constant", Params: map[string]float64{"level": 0.6}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}

// Select returns the base config for a run: the named preset, the config
// file at path, or the defaults when neither is given.
func Select(preset, path string) (*Config, error) {
	switch {
	case preset != "" && path != "":
		return nil, fmt.Errorf("%w: preset %q, file %q", ErrConflictingSources, preset, path)
	case preset != "":
		cfg := GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, ListPresets())
		}
		return cfg, nil
	case path != "":
		cfg, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	return DefaultConfig(), nil
}
