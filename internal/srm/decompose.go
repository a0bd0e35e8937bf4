package srm

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Decomposition holds a lower-triangular factor H(k) with H*H^H = S(k) for
// every frequency point k.
type Decomposition struct {
	m      int
	shape  []int
	points int
	factor []complex128 // [k][i][j], zero above the diagonal
	rank   []int
}

// Variables returns the matrix order m.
func (d *Decomposition) Variables() int { return d.m }

// Points returns the number of frequency points.
func (d *Decomposition) Points() int { return d.points }

// At returns H_ij at the flat frequency index k.
func (d *Decomposition) At(k, i, j int) complex128 {
	return d.factor[(k*d.m+i)*d.m+j]
}

// Rank returns the numerical rank found at the flat frequency index k.
func (d *Decomposition) Rank(k int) int { return d.rank[k] }

// Factor returns a copy of H at the flat frequency index k.
func (d *Decomposition) Factor(k int) *mat.CDense {
	h := mat.NewCDense(d.m, d.m, nil)
	for i := 0; i < d.m; i++ {
		for j := 0; j <= i; j++ {
			h.Set(i, j, d.At(k, i, j))
		}
	}
	return h
}

// Reconstruct returns H*H^H at the flat frequency index k.
func (d *Decomposition) Reconstruct(k int) *mat.CDense {
	r := mat.NewCDense(d.m, d.m, nil)
	for i := 0; i < d.m; i++ {
		for j := 0; j < d.m; j++ {
			var sum complex128
			for p := 0; p <= min(i, j); p++ {
				sum += d.At(k, i, p) * cmplx.Conj(d.At(k, j, p))
			}
			r.Set(i, j, sum)
		}
	}
	return r
}

// Decompose factors the spectral matrix at every frequency point. Matrices
// that are positive semi-definite but rank deficient are accepted: a vanishing
// pivot zeroes its column. A negative pivot, or a vanishing pivot with a
// non-vanishing column, fails with ErrInvalidSpectrum.
func Decompose(ctx context.Context, s *Spectrum, tol float64, workers int) (*Decomposition, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	d := &Decomposition{
		m:      s.m,
		shape:  s.Shape(),
		points: s.size,
		factor: make([]complex128, s.size*s.m*s.m),
		rank:   make([]int, s.size),
	}

	err := ParallelFor(ctx, s.size, 256, workers, func(start, end int) error {
		a := make([]complex128, s.m*s.m)
		for k := start; k < end; k++ {
			for i := 0; i < s.m; i++ {
				for j := 0; j < s.m; j++ {
					a[i*s.m+j] = s.AtFlat(i, j, k)
				}
			}
			h := d.factor[k*s.m*s.m : (k+1)*s.m*s.m]
			rank, err := factorize(a, h, s.m, tol)
			if err != nil {
				idx := make([]int, len(s.shape))
				unravel(k, s.shape, idx)
				return &SpectrumError{Index: idx, Detail: err.Error(), Wrapped: ErrInvalidSpectrum}
			}
			d.rank[k] = rank
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// factorize writes the lower factor of the m x m Hermitian matrix a into h.
// Real positive definite matrices go through gonum's Cholesky.
func factorize(a, h []complex128, m int, tol float64) (int, error) {
	if isReal(a) {
		if rank, ok := realCholesky(a, h, m); ok {
			return rank, nil
		}
	}
	return hermitianCholesky(a, h, m, tol)
}

func isReal(a []complex128) bool {
	for _, v := range a {
		if imag(v) != 0 {
			return false
		}
	}
	return true
}

func realCholesky(a, h []complex128, m int) (int, bool) {
	sym := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			sym.SetSym(i, j, real(a[i*m+j]))
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return 0, false
	}
	l := mat.NewTriDense(m, mat.Lower, nil)
	chol.LTo(l)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if j <= i {
				h[i*m+j] = complex(l.At(i, j), 0)
			} else {
				h[i*m+j] = 0
			}
		}
	}
	return m, true
}

func hermitianCholesky(a, h []complex128, m int, tol float64) (int, error) {
	scale := 0.0
	for i := 0; i < m; i++ {
		scale = math.Max(scale, real(a[i*m+i]))
	}
	if scale == 0 {
		for i := range h {
			h[i] = 0
		}
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				if a[i*m+j] != 0 {
					return 0, fmt.Errorf("zero diagonal with non-zero S[%d][%d]", i, j)
				}
			}
		}
		return 0, nil
	}
	eps := tol * scale
	offEps := math.Sqrt(tol) * scale

	for i := range h {
		h[i] = 0
	}

	rank := 0
	for j := 0; j < m; j++ {
		d := real(a[j*m+j])
		for p := 0; p < j; p++ {
			v := h[j*m+p]
			d -= real(v)*real(v) + imag(v)*imag(v)
		}
		if d < -eps {
			return 0, fmt.Errorf("negative pivot %.3g in column %d", d, j)
		}

		if d <= eps {
			for i := j + 1; i < m; i++ {
				r := a[i*m+j]
				for p := 0; p < j; p++ {
					r -= h[i*m+p] * cmplx.Conj(h[j*m+p])
				}
				if cmplx.Abs(r) > offEps {
					return 0, fmt.Errorf("vanishing pivot in column %d with residual %.3g", j, cmplx.Abs(r))
				}
			}
			continue
		}

		ljj := math.Sqrt(d)
		h[j*m+j] = complex(ljj, 0)
		for i := j + 1; i < m; i++ {
			r := a[i*m+j]
			for p := 0; p < j; p++ {
				r -= h[i*m+p] * cmplx.Conj(h[j*m+p])
			}
			h[i*m+j] = r / complex(ljj, 0)
		}
		rank++
	}
	return rank, nil
}
