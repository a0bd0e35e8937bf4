package experiment

import (
	"fmt"

	"github.com/san-kum/srmsim/internal/config"
	"github.com/san-kum/srmsim/internal/spectra"
	"github.com/san-kum/srmsim/internal/srm"
)

// BuildSpectrum resolves the spectral models named in cfg through reg and
// evaluates them on g.
func BuildSpectrum(reg *spectra.Registry, cfg *config.Config, g srm.Grid) (*srm.Spectrum, error) {
	autos := make([]spectra.PSD, 0, len(cfg.Spectra.Autos))
	for i, mc := range cfg.Spectra.Autos {
		psd, err := reg.GetPSD(mc.Name, mc.Params)
		if err != nil {
			return nil, fmt.Errorf("auto-spectrum %d: %w", i, err)
		}
		autos = append(autos, psd)
	}

	m := len(autos)
	coherence := make(map[spectra.Pair]spectra.Coherence)
	if cfg.Spectra.AllPairs != nil {
		c, err := reg.GetCoherence(cfg.Spectra.AllPairs.Name, cfg.Spectra.AllPairs.Params)
		if err != nil {
			return nil, fmt.Errorf("all_pairs: %w", err)
		}
		coherence = spectra.FullCoherence(m, c)
	}
	for _, pc := range cfg.Spectra.Coherence {
		c, err := reg.GetCoherence(pc.Model.Name, pc.Model.Params)
		if err != nil {
			return nil, fmt.Errorf("coherence (%d,%d): %w", pc.I, pc.J, err)
		}
		p := spectra.Pair{I: pc.I, J: pc.J}
		delete(coherence, spectra.Pair{I: pc.J, J: pc.I})
		coherence[p] = c
	}

	return spectra.Build(g, autos, coherence)
}
