package analysis

import (
	"math"

	"github.com/san-kum/srmsim/internal/srm"
)

// Metric accumulates a statistic over the fields of a sample set.
type Metric interface {
	Name() string
	Observe(field []float64)
	Value() float64
	Reset()
}

// Observe feeds every field of s to each metric and returns their values.
func Observe(s *srm.Samples, metrics ...Metric) map[string]float64 {
	for _, m := range metrics {
		m.Reset()
	}
	for i := 0; i < s.Count; i++ {
		for v := 0; v < s.Variables; v++ {
			f := s.Field(i, v)
			for _, m := range metrics {
				m.Observe(f)
			}
		}
	}
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// PeakAmplitude tracks the largest absolute value seen.
type PeakAmplitude struct {
	peak float64
}

func NewPeakAmplitude() *PeakAmplitude { return &PeakAmplitude{} }

func (p *PeakAmplitude) Name() string { return "peak_amplitude" }

func (p *PeakAmplitude) Observe(field []float64) {
	for _, v := range field {
		p.peak = math.Max(p.peak, math.Abs(v))
	}
}

func (p *PeakAmplitude) Value() float64 { return p.peak }
func (p *PeakAmplitude) Reset()         { p.peak = 0 }

// FieldVarianceSpread is the ratio between the largest and the smallest
// per-field variance. It grows when realizations are not ergodic over the
// grid.
type FieldVarianceSpread struct {
	lo, hi float64
	n      int
}

func NewFieldVarianceSpread() *FieldVarianceSpread { return &FieldVarianceSpread{} }

func (f *FieldVarianceSpread) Name() string { return "field_variance_spread" }

func (f *FieldVarianceSpread) Observe(field []float64) {
	if len(field) == 0 {
		return
	}
	mean := 0.0
	for _, v := range field {
		mean += v
	}
	mean /= float64(len(field))
	vr := 0.0
	for _, v := range field {
		vr += (v - mean) * (v - mean)
	}
	vr /= float64(len(field))

	if f.n == 0 {
		f.lo, f.hi = vr, vr
	} else {
		f.lo = math.Min(f.lo, vr)
		f.hi = math.Max(f.hi, vr)
	}
	f.n++
}

func (f *FieldVarianceSpread) Value() float64 {
	if f.n == 0 || f.lo == 0 {
		return 0
	}
	return f.hi / f.lo
}

func (f *FieldVarianceSpread) Reset() {
	f.lo, f.hi, f.n = 0, 0, 0
}

// DefaultMetrics returns the metrics recorded for every run.
func DefaultMetrics() []Metric {
	return []Metric{NewPeakAmplitude(), NewFieldVarianceSpread()}
}
