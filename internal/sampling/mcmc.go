package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Algorithm selects the Markov chain update.
type Algorithm string

const (
	// MH proposes a move of the whole state and accepts it on the joint density.
	MH Algorithm = "mh"
	// MMH proposes and accepts one coordinate at a time.
	MMH Algorithm = "mmh"
)

// Proposal is the shape of the symmetric proposal density.
type Proposal string

const (
	NormalProposal  Proposal = "normal"
	UniformProposal Proposal = "uniform"
)

// Target is an unnormalized log density over R^d.
type Target func(x []float64) float64

// IndependentTarget is the joint log density of independent marginals.
func IndependentTarget(dists []Distribution) Target {
	return func(x []float64) float64 {
		lp := 0.0
		for j, d := range dists {
			lp += math.Log(d.Prob(x[j]))
		}
		return lp
	}
}

// MCMCOptions configures a Metropolis-Hastings chain.
type MCMCOptions struct {
	Algorithm Algorithm
	Proposal  Proposal
	// Scale is the proposal standard deviation (normal) or full width
	// (uniform), per dimension. A single value applies to every dimension.
	Scale []float64
	// Start is the initial state, zeros when empty.
	Start []float64
	// Burn states are discarded before the first kept sample.
	Burn int
	// Jump keeps every Jump-th state after burn-in.
	Jump int
}

// MCMC draws n correlated samples from target with a symmetric random-walk
// Metropolis-Hastings chain. The returned design has no U01 part.
func MCMC(n, d int, target Target, opts MCMCOptions, rng *rand.Rand) (*Design, error) {
	if err := checkSize(n, d); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no target density", ErrInvalidDesign)
	}
	scale, err := broadcast(opts.Scale, d, 1)
	if err != nil {
		return nil, err
	}
	for j, s := range scale {
		if s <= 0 {
			return nil, fmt.Errorf("%w: proposal scale %g in dimension %d", ErrInvalidDesign, s, j)
		}
	}
	state, err := broadcast(opts.Start, d, 0)
	if err != nil {
		return nil, err
	}
	if opts.Burn < 0 {
		return nil, fmt.Errorf("%w: burn-in %d", ErrInvalidDesign, opts.Burn)
	}
	jump := opts.Jump
	if jump <= 0 {
		jump = 1
	}

	var step func(x, s float64) float64
	switch opts.Proposal {
	case NormalProposal, "":
		step = func(x, s float64) float64 { return x + s*rng.NormFloat64() }
	case UniformProposal:
		step = func(x, s float64) float64 { return x + s*(rng.Float64()-0.5) }
	default:
		return nil, fmt.Errorf("%w: unknown proposal %q", ErrInvalidDesign, opts.Proposal)
	}

	lp := target(state)
	if math.IsInf(lp, -1) || math.IsNaN(lp) {
		return nil, fmt.Errorf("%w: start state %v has zero density", ErrInvalidDesign, state)
	}
	accept := func(cand float64) bool {
		return math.Log(rng.Float64()) < cand-lp
	}

	var advance func()
	switch opts.Algorithm {
	case MH, "":
		cand := make([]float64, d)
		advance = func() {
			for j := range cand {
				cand[j] = step(state[j], scale[j])
			}
			if c := target(cand); accept(c) {
				copy(state, cand)
				lp = c
			}
		}
	case MMH:
		advance = func() {
			for j := range state {
				old := state[j]
				state[j] = step(state[j], scale[j])
				if c := target(state); accept(c) {
					lp = c
				} else {
					state[j] = old
				}
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidDesign, opts.Algorithm)
	}

	for i := 0; i < opts.Burn; i++ {
		advance()
	}
	x := mat.NewDense(n, d, nil)
	x.SetRow(0, state)
	for i := 1; i < n; i++ {
		for k := 0; k < jump; k++ {
			advance()
		}
		x.SetRow(i, state)
	}
	return &Design{Samples: x}, nil
}

func broadcast(v []float64, d int, fill float64) ([]float64, error) {
	out := make([]float64, d)
	switch len(v) {
	case 0:
		for j := range out {
			out[j] = fill
		}
	case 1:
		for j := range out {
			out[j] = v[0]
		}
	case d:
		copy(out, v)
	default:
		return nil, fmt.Errorf("%w: %d values for %d dimensions", ErrInvalidDesign, len(v), d)
	}
	return out, nil
}
