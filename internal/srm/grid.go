package srm

import (
	"fmt"
	"math"
	"slices"
)

// Grid is the rectilinear time/frequency discretization. Every slice carries
// one entry per dimension.
type Grid struct {
	// Dimensions is the explicit dimensionality. When zero it is inferred from
	// the length of FrequencyIncrements (or FrequencyPoints).
	Dimensions          int
	TimeIncrements      []float64
	FrequencyIncrements []float64
	TimePoints          []int
	FrequencyPoints     []int
}

// fftTolerance bounds the relative mismatch between dt*dw*nt and 2*pi for a
// grid to be treated as the FFT grid.
const fftTolerance = 1e-9

// Dims returns the validated dimensionality.
func (g Grid) Dims() (int, error) {
	n := g.Dimensions
	if n == 0 {
		n = len(g.FrequencyIncrements)
		if n == 0 {
			n = len(g.FrequencyPoints)
		}
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: cannot infer dimensionality from empty frequency increments", ErrDegenerateGrid)
	}
	return n, nil
}

// Validate checks every per-dimension slice against the dimensionality.
func (g Grid) Validate() error {
	n, err := g.Dims()
	if err != nil {
		return err
	}

	lengths := []struct {
		name string
		len  int
	}{
		{"time increments", len(g.TimeIncrements)},
		{"frequency increments", len(g.FrequencyIncrements)},
		{"time points", len(g.TimePoints)},
		{"frequency points", len(g.FrequencyPoints)},
	}
	for _, l := range lengths {
		if l.len == 0 {
			return fmt.Errorf("%w: %s is empty", ErrDegenerateGrid, l.name)
		}
		if l.len != n {
			return fmt.Errorf("%w: %s has %d entries, want %d", ErrDimensionMismatch, l.name, l.len, n)
		}
	}

	for i := 0; i < n; i++ {
		if g.TimePoints[i] < 2 {
			return fmt.Errorf("%w: axis %d has %d time points", ErrDegenerateGrid, i, g.TimePoints[i])
		}
		if g.FrequencyPoints[i] < 2 {
			return fmt.Errorf("%w: axis %d has %d frequency points", ErrDegenerateGrid, i, g.FrequencyPoints[i])
		}
		if !positive(g.TimeIncrements[i]) {
			return fmt.Errorf("%w: time increment %g on axis %d", ErrParameterBounds, g.TimeIncrements[i], i)
		}
		if !positive(g.FrequencyIncrements[i]) {
			return fmt.Errorf("%w: frequency increment %g on axis %d", ErrParameterBounds, g.FrequencyIncrements[i], i)
		}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// FrequencyCellVolume is the product of the per-axis frequency increments.
func (g Grid) FrequencyCellVolume() float64 {
	vol := 1.0
	for _, dw := range g.FrequencyIncrements {
		vol *= dw
	}
	return vol
}

// UpperFrequencies returns the cutoff nw*dw of every axis.
func (g Grid) UpperFrequencies() []float64 {
	out := make([]float64, len(g.FrequencyIncrements))
	for i, dw := range g.FrequencyIncrements {
		out[i] = float64(g.FrequencyPoints[i]) * dw
	}
	return out
}

// FrequencyPointCount is the total number of frequency grid points.
func (g Grid) FrequencyPointCount() int {
	return product(g.FrequencyPoints)
}

// TimePointCount is the total number of time grid points.
func (g Grid) TimePointCount() int {
	return product(g.TimePoints)
}

// CheckAliasing applies the sampling theorem dt <= pi/wu on every axis and
// returns an *AliasingError naming the axes that violate it, or nil.
func (g Grid) CheckAliasing() error {
	var ae *AliasingError
	for i, wu := range g.UpperFrequencies() {
		bound := math.Pi / wu
		if g.TimeIncrements[i] > bound*(1+fftTolerance) {
			if ae == nil {
				ae = &AliasingError{}
			}
			ae.Axes = append(ae.Axes, i)
			ae.Dt = append(ae.Dt, g.TimeIncrements[i])
			ae.Bound = append(ae.Bound, bound)
		}
	}
	if ae == nil {
		return nil
	}
	return ae
}

// FFTCompatible reports whether the time grid coincides with the grid of an
// nt-point discrete Fourier transform over the frequency grid, that is
// dt*dw*nt == 2*pi and nt >= nw on every axis.
func (g Grid) FFTCompatible() bool {
	for i := range g.FrequencyIncrements {
		if g.TimePoints[i] < g.FrequencyPoints[i] {
			return false
		}
		got := g.TimeIncrements[i] * g.FrequencyIncrements[i] * float64(g.TimePoints[i])
		if math.Abs(got-2*math.Pi) > fftTolerance*2*math.Pi {
			return false
		}
	}
	return true
}

// FFTTimeIncrements returns the time increments 2*pi/(nt*dw) that make the
// grid FFT compatible.
func (g Grid) FFTTimeIncrements() []float64 {
	out := make([]float64, len(g.FrequencyIncrements))
	for i, dw := range g.FrequencyIncrements {
		out[i] = 2 * math.Pi / (float64(g.TimePoints[i]) * dw)
	}
	return out
}

// Clone returns a copy that shares no slices with g.
func (g Grid) Clone() Grid {
	return Grid{
		Dimensions:          g.Dimensions,
		TimeIncrements:      slices.Clone(g.TimeIncrements),
		FrequencyIncrements: slices.Clone(g.FrequencyIncrements),
		TimePoints:          slices.Clone(g.TimePoints),
		FrequencyPoints:     slices.Clone(g.FrequencyPoints),
	}
}

func product(v []int) int {
	p := 1
	for _, x := range v {
		p *= x
	}
	return p
}

// unravel converts a flat row-major index into per-axis indices.
func unravel(flat int, shape []int, out []int) {
	for ax := len(shape) - 1; ax >= 0; ax-- {
		out[ax] = flat % shape[ax]
		flat /= shape[ax]
	}
}
