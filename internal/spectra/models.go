// Package spectra builds cross-spectral density tensors from auto-spectra
// and coherence functions.
package spectra

import (
	"math"
)

// PSD is a one-sided power spectral density evaluated at a frequency vector.
type PSD interface {
	Density(w []float64) float64
}

// Coherence scales the geometric mean of two auto-spectra into their cross
// spectrum. Values must lie in [-1, 1].
type Coherence interface {
	Value(w []float64) float64
}

func norm(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Exponential is Scale * |w|^2 * exp(-Decay*|w|).
type Exponential struct {
	Scale float64
	Decay float64
}

func NewExponential(scale, decay float64) *Exponential {
	return &Exponential{Scale: scale, Decay: decay}
}

func (e *Exponential) Density(w []float64) float64 {
	r := norm(w)
	return e.Scale * r * r * math.Exp(-e.Decay*r)
}

// WhiteNoise is band-limited white noise: Level for |w| <= Cutoff.
type WhiteNoise struct {
	Level  float64
	Cutoff float64
}

func NewWhiteNoise(level, cutoff float64) *WhiteNoise {
	return &WhiteNoise{Level: level, Cutoff: cutoff}
}

func (n *WhiteNoise) Density(w []float64) float64 {
	if n.Cutoff > 0 && norm(w) > n.Cutoff {
		return 0
	}
	return n.Level
}

// Gaussian is Scale * exp(-(|w|/Width)^2).
type Gaussian struct {
	Scale float64
	Width float64
}

func NewGaussian(scale, width float64) *Gaussian {
	return &Gaussian{Scale: scale, Width: width}
}

func (g *Gaussian) Density(w []float64) float64 {
	r := norm(w) / g.Width
	return g.Scale * math.Exp(-r*r)
}

// ExponentialCoherence is exp(-Decay*|w|).
type ExponentialCoherence struct {
	Decay float64
}

func (c *ExponentialCoherence) Value(w []float64) float64 {
	return math.Exp(-c.Decay * norm(w))
}

// ConstantCoherence is frequency independent.
type ConstantCoherence struct {
	Level float64
}

func (c *ConstantCoherence) Value(w []float64) float64 {
	return c.Level
}
