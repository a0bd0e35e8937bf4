package spectra

import (
	"fmt"
	"sort"
)

// Registry resolves spectral models and coherence functions by name.
type Registry struct {
	psds      map[string]func(map[string]float64) PSD
	coherence map[string]func(map[string]float64) Coherence
}

func NewRegistry() *Registry {
	r := &Registry{
		psds:      make(map[string]func(map[string]float64) PSD),
		coherence: make(map[string]func(map[string]float64) Coherence),
	}

	r.psds["exponential"] = func(p map[string]float64) PSD {
		return NewExponential(param(p, "scale", 125.0/4), param(p, "decay", 5))
	}
	r.psds["white"] = func(p map[string]float64) PSD {
		return NewWhiteNoise(param(p, "level", 1), p["cutoff"])
	}
	r.psds["gaussian"] = func(p map[string]float64) PSD {
		return NewGaussian(param(p, "scale", 1), param(p, "width", 1))
	}

	r.coherence["exponential"] = func(p map[string]float64) Coherence {
		return &ExponentialCoherence{Decay: param(p, "decay", 0.1757)}
	}
	r.coherence["constant"] = func(p map[string]float64) Coherence {
		return &ConstantCoherence{Level: p["level"]}
	}

	return r
}

func param(p map[string]float64, name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

func (r *Registry) GetPSD(name string, params map[string]float64) (PSD, error) {
	fn, ok := r.psds[name]
	if !ok {
		return nil, fmt.Errorf("unknown spectral model: %s (available: %v)", name, r.ListPSDs())
	}
	return fn(params), nil
}

func (r *Registry) GetCoherence(name string, params map[string]float64) (Coherence, error) {
	fn, ok := r.coherence[name]
	if !ok {
		return nil, fmt.Errorf("unknown coherence: %s (available: %v)", name, r.ListCoherence())
	}
	return fn(params), nil
}

func (r *Registry) ListPSDs() []string {
	return sortedKeys(r.psds)
}

func (r *Registry) ListCoherence() []string {
	return sortedKeys(r.coherence)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
