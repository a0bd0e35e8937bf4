// Package sampling implements Monte Carlo and Latin hypercube designs on the
// unit hypercube and maps them to parameter space by inverse transform.
package sampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrUnknownDistribution = errors.New("sampling: unknown distribution")
	ErrInvalidParameters   = errors.New("sampling: invalid distribution parameters")
	ErrInvalidDesign       = errors.New("sampling: invalid design")
)

// Criterion selects how Latin hypercube points are placed in their strata.
type Criterion string

const (
	Random    Criterion = "random"
	Centered  Criterion = "centered"
	Maximin   Criterion = "maximin"
	Correlate Criterion = "correlate"
)

// Metric is the point distance used by the maximin criterion.
type Metric string

const (
	Euclidean Metric = "euclidean"
	Cityblock Metric = "cityblock"
	Chebyshev Metric = "chebyshev"
)

// DefaultIterations is the candidate count for maximin and correlate.
const DefaultIterations = 100

func (m Metric) norm() (float64, error) {
	switch m {
	case Euclidean, "":
		return 2, nil
	case Cityblock:
		return 1, nil
	case Chebyshev:
		return math.Inf(1), nil
	}
	return 0, fmt.Errorf("%w: unknown metric %q", ErrInvalidDesign, m)
}

// Design is an n x d sample set: U01 on the unit hypercube and Samples in
// parameter space.
type Design struct {
	U01     *mat.Dense
	Samples *mat.Dense
}

// LHSOptions configures a Latin hypercube design.
type LHSOptions struct {
	Criterion  Criterion
	Metric     Metric
	Iterations int
}

// MCS draws n independent points and maps column j through dists[j].
func MCS(n int, dists []Distribution, rng *rand.Rand) (*Design, error) {
	if err := checkSize(n, len(dists)); err != nil {
		return nil, err
	}
	u := mat.NewDense(n, len(dists), nil)
	for i := 0; i < n; i++ {
		for j := range dists {
			u.Set(i, j, rng.Float64())
		}
	}
	return &Design{U01: u, Samples: Transform(u, dists)}, nil
}

// LHS draws a Latin hypercube design of n points and maps column j through dists[j].
func LHS(n int, dists []Distribution, opts LHSOptions, rng *rand.Rand) (*Design, error) {
	u, err := UnitLHS(n, len(dists), opts, rng)
	if err != nil {
		return nil, err
	}
	return &Design{U01: u, Samples: Transform(u, dists)}, nil
}

// UnitLHS draws an n x d Latin hypercube on [0, 1)^d: every column holds
// exactly one point in each of the n equal strata.
func UnitLHS(n, d int, opts LHSOptions, rng *rand.Rand) (*mat.Dense, error) {
	if err := checkSize(n, d); err != nil {
		return nil, err
	}
	iters := opts.Iterations
	if iters <= 0 {
		iters = DefaultIterations
	}

	switch opts.Criterion {
	case Random, "":
		return randomLHS(n, d, rng), nil
	case Centered:
		return centeredLHS(n, d, rng), nil
	case Maximin:
		p, err := opts.Metric.norm()
		if err != nil {
			return nil, err
		}
		return maximinLHS(n, d, p, iters, rng), nil
	case Correlate:
		return correlateLHS(n, d, iters, rng), nil
	}
	return nil, fmt.Errorf("%w: unknown criterion %q", ErrInvalidDesign, opts.Criterion)
}

func checkSize(n, d int) error {
	if n < 1 {
		return fmt.Errorf("%w: sample count %d", ErrInvalidDesign, n)
	}
	if d < 1 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidDesign, d)
	}
	return nil
}

func randomLHS(n, d int, rng *rand.Rand) *mat.Dense {
	u := mat.NewDense(n, d, nil)
	width := 1 / float64(n)
	for j := 0; j < d; j++ {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			u.Set(perm[i], j, (float64(i)+rng.Float64())*width)
		}
	}
	return u
}

func centeredLHS(n, d int, rng *rand.Rand) *mat.Dense {
	u := mat.NewDense(n, d, nil)
	width := 1 / float64(n)
	for j := 0; j < d; j++ {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			u.Set(perm[i], j, (float64(i)+0.5)*width)
		}
	}
	return u
}

func maximinLHS(n, d int, p float64, iters int, rng *rand.Rand) *mat.Dense {
	best := randomLHS(n, d, rng)
	bestDist := minDistance(best, p)
	for it := 0; it < iters; it++ {
		try := randomLHS(n, d, rng)
		if dist := minDistance(try, p); dist > bestDist {
			best, bestDist = try, dist
		}
	}
	return best
}

func minDistance(u *mat.Dense, p float64) float64 {
	n, _ := u.Dims()
	minD := math.Inf(1)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			minD = math.Min(minD, floats.Distance(u.RawRowView(i), u.RawRowView(j), p))
		}
	}
	return minD
}

func correlateLHS(n, d int, iters int, rng *rand.Rand) *mat.Dense {
	best := randomLHS(n, d, rng)
	bestCorr := MaxCorrelation(best)
	for it := 0; it < iters; it++ {
		try := randomLHS(n, d, rng)
		if c := MaxCorrelation(try); c < bestCorr {
			best, bestCorr = try, c
		}
	}
	return best
}

// MaxCorrelation returns the largest absolute Pearson correlation between
// distinct columns of u.
func MaxCorrelation(u *mat.Dense) float64 {
	n, d := u.Dims()
	if n < 2 {
		return 0
	}
	cols := make([][]float64, d)
	for j := range cols {
		cols[j] = mat.Col(nil, j, u)
	}
	maxC := 0.0
	for a := 0; a < d; a++ {
		for b := a + 1; b < d; b++ {
			c := math.Abs(stat.Correlation(cols[a], cols[b], nil))
			if !math.IsNaN(c) {
				maxC = math.Max(maxC, c)
			}
		}
	}
	return maxC
}

// Transform maps every column j of u through the inverse CDF of dists[j].
func Transform(u *mat.Dense, dists []Distribution) *mat.Dense {
	n, d := u.Dims()
	x := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			x.Set(i, j, dists[j].Quantile(u.At(i, j)))
		}
	}
	return x
}
