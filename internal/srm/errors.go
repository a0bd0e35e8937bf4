package srm

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for spectral sampling.
var (
	// ErrInvalidSpectrum indicates a spectral matrix that is not Hermitian or not
	// positive semi-definite at some frequency point.
	ErrInvalidSpectrum = errors.New("srm: invalid spectrum (not hermitian or not positive semi-definite)")

	// ErrDimensionMismatch indicates inconsistent shapes between the grid, the
	// declared number of variables and the spectral tensor.
	ErrDimensionMismatch = errors.New("srm: dimension mismatch between grid and spectrum")

	// ErrDegenerateGrid indicates a grid whose dimensionality cannot be inferred
	// or that has fewer than two points along an axis.
	ErrDegenerateGrid = errors.New("srm: degenerate grid (empty, scalar or single-point axis)")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("srm: parameter out of valid bounds")

	// ErrCanceled indicates generation was interrupted by its context.
	ErrCanceled = errors.New("srm: generation canceled by context")
)

// SpectrumError wraps an error with the frequency point it was detected at.
type SpectrumError struct {
	Index   []int
	Detail  string
	Wrapped error
}

func (e *SpectrumError) Error() string {
	return fmt.Sprintf("%v at frequency index %v: %s", e.Wrapped, e.Index, e.Detail)
}

func (e *SpectrumError) Unwrap() error {
	return e.Wrapped
}

// AliasingError reports axes whose time increment exceeds the Nyquist bound
// implied by the frequency cutoff. It is a warning, Generate does not fail on it.
type AliasingError struct {
	Axes  []int
	Dt    []float64
	Bound []float64
}

func (e *AliasingError) Error() string {
	parts := make([]string, len(e.Axes))
	for i, ax := range e.Axes {
		parts[i] = fmt.Sprintf("axis %d: dt=%.6g > %.6g", ax, e.Dt[i], e.Bound[i])
	}
	return "srm: time increment violates sampling theorem (" + strings.Join(parts, ", ") + ")"
}
