// Package srm simulates stationary multi-variate, multi-dimensional Gaussian
// random fields with the Spectral Representation Method.
//
// The package is a pure function of its inputs:
//
//   - [Grid]: time and frequency discretization, one entry per dimension
//   - [Spectrum]: m x m cross-spectral density tensor over the frequency grid
//   - [Decompose]: per-frequency lower-triangular factor H with H*H^H = S
//   - [Generator]: draws random phases and superposes harmonics into [Samples]
//
// # Example
//
//	grid := srm.Grid{
//	    TimeIncrements:      []float64{dt, dt},
//	    FrequencyIncrements: []float64{dw, dw},
//	    TimePoints:          []int{256, 256},
//	    FrequencyPoints:     []int{100, 100},
//	}
//	gen, _ := srm.New(grid, spectrum)
//	samples, _ := gen.Generate(ctx, srm.Params{Samples: 100, Seed: 42})
//
// # Thread Safety
//
// A Generator holds no mutable state after construction and may be shared.
// Each realization draws its phases from an independent stream seeded by
// (Seed, sample index), so output does not depend on the worker count.
package srm
