package sampling

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// spaceFillTol bounds how far the total stratum volume may stray from one.
const spaceFillTol = 1e-5

// Strata is a rectilinear partition of the unit hypercube. Row k of Origins
// is the corner of stratum k nearest the global origin, row k of Widths its
// extent, and Weights[k] its volume.
type Strata struct {
	Origins *mat.Dense
	Widths  *mat.Dense
	Weights []float64
}

// NewStrata builds the equal-width full-factorial stratification with
// levels[j] strata along dimension j. The first dimension varies fastest.
func NewStrata(levels []int) (*Strata, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: empty stratum design", ErrInvalidDesign)
	}
	total := 1
	for j, l := range levels {
		if l < 1 {
			return nil, fmt.Errorf("%w: dimension %d has %d strata", ErrInvalidDesign, j, l)
		}
		total *= l
	}

	d := len(levels)
	origins := mat.NewDense(total, d, nil)
	widths := mat.NewDense(total, d, nil)
	repeat := 1
	for j, l := range levels {
		w := 1 / float64(l)
		for k := 0; k < total; k++ {
			origins.Set(k, j, float64((k/repeat)%l)*w)
			widths.Set(k, j, w)
		}
		repeat *= l
	}
	return newStrata(origins, widths), nil
}

// NewStrataFrom wraps explicit origins and widths. The strata must fill the
// unit hypercube exactly once, up to a small tolerance on the total volume.
func NewStrataFrom(origins, widths *mat.Dense) (*Strata, error) {
	r, c := origins.Dims()
	wr, wc := widths.Dims()
	if r != wr || c != wc {
		return nil, fmt.Errorf("%w: origins %dx%d vs widths %dx%d", ErrInvalidDesign, r, c, wr, wc)
	}
	for k := 0; k < r; k++ {
		for j := 0; j < c; j++ {
			o, w := origins.At(k, j), widths.At(k, j)
			if w <= 0 || o < 0 || o+w > 1+spaceFillTol {
				return nil, fmt.Errorf("%w: stratum %d leaves the unit hypercube along dimension %d", ErrInvalidDesign, k, j)
			}
		}
	}
	s := newStrata(mat.DenseCopyOf(origins), mat.DenseCopyOf(widths))
	fill := floats.Sum(s.Weights)
	switch {
	case 1-fill > spaceFillTol:
		return nil, fmt.Errorf("%w: strata cover %.6f of the hypercube", ErrInvalidDesign, fill)
	case fill-1 > spaceFillTol:
		return nil, fmt.Errorf("%w: strata overfill the hypercube (%.6f)", ErrInvalidDesign, fill)
	}
	return s, nil
}

func newStrata(origins, widths *mat.Dense) *Strata {
	n, _ := origins.Dims()
	weights := make([]float64, n)
	for k := range weights {
		weights[k] = floats.Prod(widths.RawRowView(k))
	}
	return &Strata{Origins: origins, Widths: widths, Weights: weights}
}

// Len is the number of strata.
func (s *Strata) Len() int {
	n, _ := s.Origins.Dims()
	return n
}

// Dims is the dimension of the stratified hypercube.
func (s *Strata) Dims() int {
	_, d := s.Origins.Dims()
	return d
}

// Sample draws one uniform point inside every stratum.
func (s *Strata) Sample(rng *rand.Rand) *mat.Dense {
	n, d := s.Origins.Dims()
	u := mat.NewDense(n, d, nil)
	for k := 0; k < n; k++ {
		for j := 0; j < d; j++ {
			u.Set(k, j, s.Origins.At(k, j)+rng.Float64()*s.Widths.At(k, j))
		}
	}
	return u
}

// STS draws a stratified design with one point per stratum and maps column
// j through dists[j]. Sample k carries weight strata.Weights[k].
func STS(strata *Strata, dists []Distribution, rng *rand.Rand) (*Design, error) {
	if strata == nil {
		return nil, fmt.Errorf("%w: no strata", ErrInvalidDesign)
	}
	if strata.Dims() != len(dists) {
		return nil, fmt.Errorf("%w: %d-dimensional strata for %d distributions",
			ErrInvalidDesign, strata.Dims(), len(dists))
	}
	u := strata.Sample(rng)
	return &Design{U01: u, Samples: Transform(u, dists)}, nil
}

// PSS draws a partially stratified design. The variables are split into
// consecutive groups of groups[i] columns; group i is stratified with
// strata[i] levels per column and its rows are shuffled independently of
// the other groups. Every group must yield the same number of points,
// strata[i]^groups[i], which is the design size.
func PSS(groups, strata []int, dists []Distribution, rng *rand.Rand) (*Design, error) {
	if len(groups) == 0 || len(groups) != len(strata) {
		return nil, fmt.Errorf("%w: %d groups with %d strata counts", ErrInvalidDesign, len(groups), len(strata))
	}
	n, d := -1, 0
	for i, g := range groups {
		if g < 1 || strata[i] < 1 {
			return nil, fmt.Errorf("%w: group %d has %d variables and %d strata", ErrInvalidDesign, i, g, strata[i])
		}
		size := intPow(strata[i], g)
		if n >= 0 && size != n {
			return nil, fmt.Errorf("%w: group %d yields %d points, group 0 yields %d", ErrInvalidDesign, i, size, n)
		}
		n = size
		d += g
	}
	if d != len(dists) {
		return nil, fmt.Errorf("%w: groups cover %d variables, got %d distributions", ErrInvalidDesign, d, len(dists))
	}

	u := mat.NewDense(n, d, nil)
	col := 0
	for i, g := range groups {
		levels := make([]int, g)
		for j := range levels {
			levels[j] = strata[i]
		}
		st, err := NewStrata(levels)
		if err != nil {
			return nil, err
		}
		block := st.Sample(rng)
		perm := rng.Perm(n)
		for k := 0; k < n; k++ {
			for j := 0; j < g; j++ {
				u.Set(perm[k], col+j, block.At(k, j))
			}
		}
		col += g
	}
	return &Design{U01: u, Samples: Transform(u, dists)}, nil
}

func intPow(b, e int) int {
	r := 1
	for ; e > 0; e-- {
		r *= b
	}
	return r
}
