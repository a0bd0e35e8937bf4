package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/srmsim/internal/srm"
)

// EnsembleMean is the mean over every sample, variable and grid point.
func EnsembleMean(s *srm.Samples) float64 {
	if len(s.Data) == 0 {
		return 0
	}
	return stat.Mean(s.Data, nil)
}

// EnsembleVariance is the population variance over every sample, variable
// and grid point.
func EnsembleVariance(s *srm.Samples) float64 {
	if len(s.Data) == 0 {
		return 0
	}
	return stat.PopVariance(s.Data, nil)
}

// VariableVariance is the population variance of variable v over all samples.
func VariableVariance(s *srm.Samples, v int) float64 {
	values := make([]float64, 0, s.Count*s.FieldSize())
	for i := 0; i < s.Count; i++ {
		values = append(values, s.Field(i, v)...)
	}
	if len(values) == 0 {
		return 0
	}
	return stat.PopVariance(values, nil)
}

// CrossCovariance is the zero-lag covariance of variables a and b pooled over
// samples and grid points.
func CrossCovariance(s *srm.Samples, a, b int) float64 {
	var xs, ys []float64
	for i := 0; i < s.Count; i++ {
		xs = append(xs, s.Field(i, a)...)
		ys = append(ys, s.Field(i, b)...)
	}
	if len(xs) < 2 {
		return 0
	}
	n := float64(len(xs))
	// stat.Covariance is the unbiased estimator
	return stat.Covariance(xs, ys, nil) * (n - 1) / n
}

// ExpectedCrossCovariance is the zero-lag covariance the SRM converges to
// for variables a and b: 2^n * prod(dw) * sum_k Re S_ab(k).
func ExpectedCrossCovariance(spec *srm.Spectrum, g srm.Grid, a, b int) float64 {
	sum := 0.0
	for k := 0; k < spec.Points(); k++ {
		sum += real(spec.AtFlat(a, b, k))
	}
	n := len(g.FrequencyIncrements)
	return sum * g.FrequencyCellVolume() * math.Pow(2, float64(n))
}

// Summarize returns the metrics stored alongside a run.
func Summarize(s *srm.Samples, spec *srm.Spectrum, g srm.Grid) map[string]float64 {
	out := map[string]float64{
		"mean":     EnsembleMean(s),
		"variance": EnsembleVariance(s),
	}
	if len(s.Data) > 0 {
		out["min"] = floats.Min(s.Data)
		out["max"] = floats.Max(s.Data)
	}
	if spec != nil {
		expected := srm.ExpectedVariance(spec, g)
		out["expected_variance"] = expected
		if expected > 0 {
			out["relative_error"] = math.Abs(out["variance"]-expected) / expected
		}
	}
	return out
}
