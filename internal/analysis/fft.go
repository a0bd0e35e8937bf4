package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/srmsim/internal/srm"
)

// Periodogram estimates the one-sided power spectral density of a real field
// sampled every dt. Bin k corresponds to angular frequency 2*pi*k/(len*dt).
// The estimate uses the convention of the SRM, where a variance sigma^2
// spread over a bin of width dw has density sigma^2/(2*dw).
func Periodogram(data []float64, dt float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	spec := fft.FFTReal(data)
	ps := make([]float64, n/2)

	// 2*pi/(n*dt) is the bin width in angular frequency
	scale := dt / (2 * float64(n) * math.Pi)
	for i := range ps {
		a := cmplx.Abs(spec[i])
		ps[i] = a * a * scale
	}
	return ps
}

// AveragePeriodogram averages Periodogram over several realizations.
func AveragePeriodogram(fields [][]float64, dt float64) []float64 {
	var avg []float64
	for _, f := range fields {
		ps := Periodogram(f, dt)
		if avg == nil {
			avg = make([]float64, len(ps))
		}
		for i := range ps {
			avg[i] += ps[i]
		}
	}
	for i := range avg {
		avg[i] /= float64(len(fields))
	}
	return avg
}

// LinePeriodogram averages the periodogram of every line of variable v along
// the last grid axis, over all realizations. dt is the spacing on that axis.
func LinePeriodogram(s *srm.Samples, v int, dt float64) []float64 {
	if len(s.Shape) == 0 {
		return nil
	}
	n := s.Shape[len(s.Shape)-1]
	var lines [][]float64
	for i := 0; i < s.Count; i++ {
		field := s.Field(i, v)
		for start := 0; start+n <= len(field); start += n {
			lines = append(lines, field[start:start+n])
		}
	}
	return AveragePeriodogram(lines, dt)
}

// ExpectedLinePeriodogram is the density LinePeriodogram of variable v
// converges to on an FFT compatible grid: the auto-spectrum S_vv summed over
// every axis but the last, in the one-sided convention of Periodogram.
// For a 1-D spectrum it is S_vv itself.
func ExpectedLinePeriodogram(s *srm.Spectrum, v int, dw []float64) []float64 {
	shape := s.Shape()
	if len(shape) == 0 || len(dw) != len(shape) {
		return nil
	}
	last := len(shape) - 1
	n := shape[last]
	out := make([]float64, n)
	for k := 0; k < s.Points(); k++ {
		out[k%n] += real(s.AtFlat(v, v, k))
	}

	// each other axis folds 2*dw of variance density onto the line
	scale := 1.0
	for _, d := range dw[:last] {
		scale *= 2 * d
	}
	for i := range out {
		out[i] *= scale
	}
	return out
}

// BandError is the relative difference between the integrated estimate and
// the integrated target, leaving out bin 0 where the one-sided periodogram
// is not mirrored.
func BandError(estimate, target []float64) float64 {
	got, want := 0.0, 0.0
	for k := 1; k < min(len(estimate), len(target)); k++ {
		got += estimate[k]
		want += target[k]
	}
	if want == 0 {
		return math.NaN()
	}
	return math.Abs(got-want) / want
}

// DominantBin returns the index of the largest value after bin 0.
func DominantBin(ps []float64) int {
	best := 0
	for i := 1; i < len(ps); i++ {
		if best == 0 || ps[i] > ps[best] {
			best = i
		}
	}
	return best
}
