package srm

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the relative tolerance used for Hermitian and
// semi-definiteness checks when none is given.
const DefaultTolerance = 1e-10

// Spectrum is an m x m cross-spectral density tensor sampled on a frequency
// grid. Data is row-major over [i][j][k0][k1]...
type Spectrum struct {
	m     int
	shape []int
	size  int
	data  []complex128
}

// NewSpectrum allocates a zero spectrum for m variables on the given
// frequency grid shape.
func NewSpectrum(m int, shape []int) *Spectrum {
	s := make([]int, len(shape))
	copy(s, shape)
	size := product(s)
	return &Spectrum{
		m:     m,
		shape: s,
		size:  size,
		data:  make([]complex128, m*m*size),
	}
}

// NewSpectrumFrom wraps existing data laid out as [i][j][k...].
func NewSpectrumFrom(m int, shape []int, data []complex128) (*Spectrum, error) {
	s := NewSpectrum(m, shape)
	if len(data) != len(s.data) {
		return nil, fmt.Errorf("%w: spectrum data has %d values, want %d (m=%d, shape=%v)",
			ErrDimensionMismatch, len(data), len(s.data), m, shape)
	}
	copy(s.data, data)
	return s, nil
}

func (s *Spectrum) Variables() int { return s.m }
func (s *Spectrum) Shape() []int   { return append([]int(nil), s.shape...) }
func (s *Spectrum) Points() int    { return s.size }

// Data exposes the backing slice.
func (s *Spectrum) Data() []complex128 { return s.data }

func (s *Spectrum) flat(idx []int) int {
	k := 0
	for ax, v := range idx {
		k = k*s.shape[ax] + v
	}
	return k
}

// At returns S[i][j] at the frequency grid index idx.
func (s *Spectrum) At(i, j int, idx []int) complex128 {
	return s.data[(i*s.m+j)*s.size+s.flat(idx)]
}

// Set assigns S[i][j] at idx.
func (s *Spectrum) Set(i, j int, idx []int, v complex128) {
	s.data[(i*s.m+j)*s.size+s.flat(idx)] = v
}

// AtFlat returns S[i][j] at the flat frequency index k.
func (s *Spectrum) AtFlat(i, j, k int) complex128 {
	return s.data[(i*s.m+j)*s.size+k]
}

// SetFlat assigns S[i][j] at the flat frequency index k.
func (s *Spectrum) SetFlat(i, j, k int, v complex128) {
	s.data[(i*s.m+j)*s.size+k] = v
}

// Matrix returns a copy of the m x m spectral matrix at flat index k.
func (s *Spectrum) Matrix(k int) *mat.CDense {
	c := mat.NewCDense(s.m, s.m, nil)
	for i := 0; i < s.m; i++ {
		for j := 0; j < s.m; j++ {
			c.Set(i, j, s.AtFlat(i, j, k))
		}
	}
	return c
}

// DiagonalSum returns the sum of all auto-spectra over the grid.
func (s *Spectrum) DiagonalSum() float64 {
	sum := 0.0
	for i := 0; i < s.m; i++ {
		for k := 0; k < s.size; k++ {
			sum += real(s.AtFlat(i, i, k))
		}
	}
	return sum
}

// CheckShape verifies the tensor against the frequency grid of g.
func (s *Spectrum) CheckShape(g Grid) error {
	if s.m < 1 {
		return fmt.Errorf("%w: spectrum has %d variables", ErrDimensionMismatch, s.m)
	}
	if len(s.shape) != len(g.FrequencyPoints) {
		return fmt.Errorf("%w: spectrum is %d-dimensional, grid is %d-dimensional",
			ErrDimensionMismatch, len(s.shape), len(g.FrequencyPoints))
	}
	for ax, n := range g.FrequencyPoints {
		if s.shape[ax] != n {
			return fmt.Errorf("%w: spectrum axis %d has %d points, grid has %d",
				ErrDimensionMismatch, ax, s.shape[ax], n)
		}
	}
	return nil
}

// Validate checks that every auto-spectrum is real and non-negative and that
// S[i][j] == conj(S[j][i]) within tol relative to the largest auto-spectrum.
// Positive semi-definiteness is verified during decomposition.
func (s *Spectrum) Validate(tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	idx := make([]int, len(s.shape))
	for k := 0; k < s.size; k++ {
		for i := 0; i < s.m; i++ {
			for j := 0; j < s.m; j++ {
				if v := s.AtFlat(i, j, k); cmplx.IsNaN(v) || cmplx.IsInf(v) {
					unravel(k, s.shape, idx)
					return &SpectrumError{
						Index:   append([]int(nil), idx...),
						Detail:  fmt.Sprintf("S[%d][%d] is not finite", i, j),
						Wrapped: ErrInvalidSpectrum,
					}
				}
			}
		}

		scale := 0.0
		for i := 0; i < s.m; i++ {
			scale = math.Max(scale, cmplx.Abs(s.AtFlat(i, i, k)))
		}
		eps := tol * math.Max(scale, 1)

		for i := 0; i < s.m; i++ {
			d := s.AtFlat(i, i, k)
			if math.Abs(imag(d)) > eps || real(d) < -eps {
				unravel(k, s.shape, idx)
				return &SpectrumError{
					Index:   append([]int(nil), idx...),
					Detail:  fmt.Sprintf("auto-spectrum S[%d][%d]=%v is not real non-negative", i, i, d),
					Wrapped: ErrInvalidSpectrum,
				}
			}
			for j := i + 1; j < s.m; j++ {
				if cmplx.Abs(s.AtFlat(i, j, k)-cmplx.Conj(s.AtFlat(j, i, k))) > eps {
					unravel(k, s.shape, idx)
					return &SpectrumError{
						Index:   append([]int(nil), idx...),
						Detail:  fmt.Sprintf("S[%d][%d] != conj(S[%d][%d])", i, j, j, i),
						Wrapped: ErrInvalidSpectrum,
					}
				}
			}
		}
	}
	return nil
}

// ExpectedVariance is the ensemble variance pooled over all variables that an
// SRM simulation of s on g converges to: sum(diag S) * prod(dw) * 2^n / m.
func ExpectedVariance(s *Spectrum, g Grid) float64 {
	n := len(g.FrequencyIncrements)
	return s.DiagonalSum() * g.FrequencyCellVolume() * math.Pow(2, float64(n)) / float64(s.m)
}
