package srm

import (
	"math"
	"math/cmplx"
)

// synthesizer evaluates f(x) = Re sum_k F(k) exp(-i w_k.x) on the time grid.
// Implementations must be safe for concurrent use.
type synthesizer interface {
	synthesize(coeffs []complex128, out []float64)
}

func (g *Generator) newSynthesizer(m Method) synthesizer {
	if m == MethodFFT {
		return newFFTSynth(g.grid)
	}
	return newCosineSynth(g.grid)
}

type fftSynth struct {
	timeShape []int
	size      int
	pos       []int // frequency point -> offset in the zero-padded time array
}

func newFFTSynth(g Grid) *fftSynth {
	points := g.FrequencyPointCount()
	s := &fftSynth{
		timeShape: append([]int(nil), g.TimePoints...),
		size:      g.TimePointCount(),
		pos:       make([]int, points),
	}
	idx := make([]int, len(g.FrequencyPoints))
	for k := 0; k < points; k++ {
		unravel(k, g.FrequencyPoints, idx)
		off := 0
		for ax, v := range idx {
			off = off*g.TimePoints[ax] + v
		}
		s.pos[k] = off
	}
	return s
}

func (s *fftSynth) synthesize(coeffs []complex128, out []float64) {
	buf := make([]complex128, s.size)
	for k, c := range coeffs {
		buf[s.pos[k]] = c
	}
	fftN(buf, s.timeShape)
	for i, v := range buf {
		out[i] = real(v)
	}
}

// cosineSynth sums the harmonics directly, one axis at a time, so the time
// increments are not tied to the frequency grid.
type cosineSynth struct {
	freqShape []int
	timeShape []int
	kernels   [][]complex128 // per axis, [k][t] = exp(-i k dw t dt)
}

func newCosineSynth(g Grid) *cosineSynth {
	s := &cosineSynth{
		freqShape: append([]int(nil), g.FrequencyPoints...),
		timeShape: append([]int(nil), g.TimePoints...),
		kernels:   make([][]complex128, len(g.FrequencyPoints)),
	}
	for ax := range s.kernels {
		nw, nt := g.FrequencyPoints[ax], g.TimePoints[ax]
		dw, dt := g.FrequencyIncrements[ax], g.TimeIncrements[ax]
		kern := make([]complex128, nw*nt)
		for k := 0; k < nw; k++ {
			for t := 0; t < nt; t++ {
				theta := math.Mod(float64(k)*dw*float64(t)*dt, 2*math.Pi)
				kern[k*nt+t] = cmplx.Rect(1, -theta)
			}
		}
		s.kernels[ax] = kern
	}
	return s
}

func (s *cosineSynth) synthesize(coeffs []complex128, out []float64) {
	cur := coeffs
	shape := append([]int(nil), s.freqShape...)

	for ax, kern := range s.kernels {
		nw, nt := s.freqShape[ax], s.timeShape[ax]
		outer := product(shape[:ax])
		inner := product(shape[ax+1:])

		next := make([]complex128, outer*nt*inner)
		for o := 0; o < outer; o++ {
			for k := 0; k < nw; k++ {
				src := cur[(o*nw+k)*inner : (o*nw+k+1)*inner]
				for t := 0; t < nt; t++ {
					e := kern[k*nt+t]
					dst := next[(o*nt+t)*inner : (o*nt+t+1)*inner]
					for i, c := range src {
						dst[i] += c * e
					}
				}
			}
		}
		cur = next
		shape[ax] = nt
	}

	for i, v := range cur {
		out[i] = real(v)
	}
}
