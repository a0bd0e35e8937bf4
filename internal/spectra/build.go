package spectra

import (
	"fmt"
	"math"

	"github.com/san-kum/srmsim/internal/srm"
)

// Pair addresses an off-diagonal entry. Build treats (I, J) and (J, I) alike.
type Pair struct {
	I, J int
}

func (p Pair) ordered() Pair {
	if p.I > p.J {
		return Pair{p.J, p.I}
	}
	return p
}

// FrequencyAxes returns the frequency values k*dw of every axis of g.
func FrequencyAxes(g srm.Grid) [][]float64 {
	axes := make([][]float64, len(g.FrequencyPoints))
	for ax, n := range g.FrequencyPoints {
		axes[ax] = make([]float64, n)
		for k := range axes[ax] {
			axes[ax][k] = float64(k) * g.FrequencyIncrements[ax]
		}
	}
	return axes
}

// Build evaluates S_ii = autos[i](w) and S_ij = g_ij(w)*sqrt(S_ii*S_jj) on the
// frequency grid of g. Pairs missing from coherence are uncorrelated.
func Build(g srm.Grid, autos []PSD, coherence map[Pair]Coherence) (*srm.Spectrum, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	m := len(autos)
	if m == 0 {
		return nil, fmt.Errorf("%w: no auto-spectra given", srm.ErrDimensionMismatch)
	}
	coh := make(map[Pair]Coherence, len(coherence))
	for p, c := range coherence {
		if p.I < 0 || p.J < 0 || p.I >= m || p.J >= m || p.I == p.J {
			return nil, fmt.Errorf("%w: coherence pair (%d,%d) for %d variables", srm.ErrDimensionMismatch, p.I, p.J, m)
		}
		coh[p.ordered()] = c
	}

	s := srm.NewSpectrum(m, g.FrequencyPoints)
	axes := FrequencyAxes(g)
	idx := make([]int, len(axes))
	w := make([]float64, len(axes))
	diag := make([]float64, m)

	for k := 0; k < s.Points(); k++ {
		rem := k
		for ax := len(axes) - 1; ax >= 0; ax-- {
			idx[ax] = rem % len(axes[ax])
			rem /= len(axes[ax])
			w[ax] = axes[ax][idx[ax]]
		}

		for i, psd := range autos {
			d := psd.Density(w)
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, &srm.SpectrumError{
					Index:   append([]int(nil), idx...),
					Detail:  fmt.Sprintf("auto-spectrum %d evaluates to %g", i, d),
					Wrapped: srm.ErrInvalidSpectrum,
				}
			}
			diag[i] = d
			s.SetFlat(i, i, k, complex(d, 0))
		}

		for p, c := range coh {
			gamma := c.Value(w)
			if math.Abs(gamma) > 1 || math.IsNaN(gamma) {
				return nil, &srm.SpectrumError{
					Index:   append([]int(nil), idx...),
					Detail:  fmt.Sprintf("coherence (%d,%d) = %g outside [-1,1]", p.I, p.J, gamma),
					Wrapped: srm.ErrInvalidSpectrum,
				}
			}
			v := complex(gamma*math.Sqrt(diag[p.I]*diag[p.J]), 0)
			s.SetFlat(p.I, p.J, k, v)
			s.SetFlat(p.J, p.I, k, v)
		}
	}
	return s, nil
}

// FullCoherence applies the same coherence to every pair of m variables.
func FullCoherence(m int, c Coherence) map[Pair]Coherence {
	out := make(map[Pair]Coherence)
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			out[Pair{i, j}] = c
		}
	}
	return out
}
