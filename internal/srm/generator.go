package srm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/srmsim/internal/logging"
	"github.com/san-kum/srmsim/internal/sampling"
)

// Method selects how harmonics are superposed onto the time grid.
type Method int

const (
	// MethodAuto uses the FFT when the time grid is the FFT grid of the
	// frequency grid and direct summation otherwise.
	MethodAuto Method = iota
	// MethodFFT evaluates the superposition with an n-dimensional FFT.
	MethodFFT
	// MethodCosine sums the cosine terms directly on an arbitrary time grid.
	MethodCosine
)

func (m Method) String() string {
	switch m {
	case MethodFFT:
		return "fft"
	case MethodCosine:
		return "cosine"
	default:
		return "auto"
	}
}

// ParseMethod maps "auto", "fft" or "cosine" to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return MethodAuto, nil
	case "fft":
		return MethodFFT, nil
	case "cosine", "cos":
		return MethodCosine, nil
	}
	return MethodAuto, fmt.Errorf("%w: unknown method %q", ErrParameterBounds, s)
}

// PhaseSampling selects how random phase angles are drawn.
type PhaseSampling int

const (
	// PhaseMonteCarlo draws phases independently per realization.
	PhaseMonteCarlo PhaseSampling = iota
	// PhaseLatinHypercube stratifies every phase angle across realizations.
	PhaseLatinHypercube
)

func (p PhaseSampling) String() string {
	if p == PhaseLatinHypercube {
		return "lhs"
	}
	return "mcs"
}

// ParsePhaseSampling maps "mcs" or "lhs" to a PhaseSampling.
func ParsePhaseSampling(s string) (PhaseSampling, error) {
	switch strings.ToLower(s) {
	case "mcs", "":
		return PhaseMonteCarlo, nil
	case "lhs":
		return PhaseLatinHypercube, nil
	}
	return PhaseMonteCarlo, fmt.Errorf("%w: unknown phase sampling %q", ErrParameterBounds, s)
}

// Params configures a single Generate call.
type Params struct {
	Samples int
	Seed    uint64
	Method  Method
	Phases  PhaseSampling
	// Workers bounds the number of realizations computed concurrently.
	// Zero means GOMAXPROCS.
	Workers int
	// Progress, when set, is called after each realization completes. It
	// may be called from several goroutines.
	Progress func(done, total int)
}

// lhsStream is the PCG stream reserved for Latin hypercube phases, outside
// the range of per-sample streams.
const lhsStream = math.MaxUint64

// Generator produces realizations of the field described by a spectrum.
type Generator struct {
	grid     Grid
	dims     int
	spectrum *Spectrum
	tol      float64
	log      logging.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for warnings and timings.
func WithLogger(l logging.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithTolerance sets the relative tolerance of the spectral checks.
func WithTolerance(tol float64) Option {
	return func(g *Generator) { g.tol = tol }
}

// New validates grid and spectrum and returns a Generator for them.
func New(grid Grid, s *Spectrum, opts ...Option) (*Generator, error) {
	g := &Generator{
		grid:     grid.Clone(),
		spectrum: s,
		tol:      DefaultTolerance,
		log:      logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := grid.Validate(); err != nil {
		return nil, err
	}
	g.dims, _ = grid.Dims()
	if s == nil {
		return nil, fmt.Errorf("%w: nil spectrum", ErrDimensionMismatch)
	}
	if err := s.CheckShape(grid); err != nil {
		return nil, err
	}
	if err := s.Validate(g.tol); err != nil {
		return nil, err
	}
	return g, nil
}

// Grid returns a copy of the generator's grid.
func (g *Generator) Grid() Grid { return g.grid.Clone() }

// Spectrum returns the generator's spectrum.
func (g *Generator) Spectrum() *Spectrum { return g.spectrum }

// ResolveMethod returns the superposition method Generate will use.
func (g *Generator) ResolveMethod(m Method) (Method, error) {
	switch m {
	case MethodAuto:
		if g.grid.FFTCompatible() {
			return MethodFFT, nil
		}
		return MethodCosine, nil
	case MethodFFT:
		if !g.grid.FFTCompatible() {
			return m, fmt.Errorf("%w: fft method needs dt = 2*pi/(nt*dw) and nt >= nw on every axis (want dt=%v)",
				ErrParameterBounds, g.grid.FFTTimeIncrements())
		}
	}
	return m, nil
}

// Amplitude is the scale sqrt(2^(n+1) * prod(dw)) applied to every harmonic.
func (g *Generator) Amplitude() float64 {
	return math.Sqrt(math.Pow(2, float64(g.dims+1)) * g.grid.FrequencyCellVolume())
}

// Generate draws p.Samples independent realizations. It fails before doing
// any work when p is invalid, and returns no samples on error.
func (g *Generator) Generate(ctx context.Context, p Params) (*Samples, error) {
	if p.Samples < 1 {
		return nil, fmt.Errorf("%w: sample count must be at least 1, got %d", ErrParameterBounds, p.Samples)
	}
	method, err := g.ResolveMethod(p.Method)
	if err != nil {
		return nil, err
	}
	log := g.log.WithFields(logging.Fields{
		"samples":   p.Samples,
		"variables": g.spectrum.m,
		"dims":      g.dims,
		"method":    method.String(),
		"phases":    p.Phases.String(),
	})
	if aliasErr := g.grid.CheckAliasing(); aliasErr != nil {
		log.Warn(aliasErr.Error())
	}

	start := time.Now()
	dec, err := Decompose(ctx, g.spectrum, g.tol, p.Workers)
	if err != nil {
		return nil, wrapCanceled(err)
	}
	log.Debug("spectrum decomposed", logging.Fields{"elapsed": time.Since(start)})

	var lhs []float64
	if p.Phases == PhaseLatinHypercube {
		lhs, err = g.latinPhases(p)
		if err != nil {
			return nil, err
		}
	}

	m := g.spectrum.m
	points := g.spectrum.size
	out := newSamples(p.Samples, m, g.grid.TimePoints)
	out.Seed = p.Seed
	synth := g.newSynthesizer(method)
	amp := g.Amplitude()

	var done atomic.Int64
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(resolveWorkers(p.Workers))
	for s := 0; s < p.Samples; s++ {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}

			phases := make([]float64, points*m)
			if lhs != nil {
				copy(phases, lhs[s*points*m:(s+1)*points*m])
			} else {
				rng := rand.New(rand.NewPCG(p.Seed, uint64(s)))
				for i := range phases {
					phases[i] = 2 * math.Pi * rng.Float64()
				}
			}

			coeffs := make([]complex128, points)
			for i := 0; i < m; i++ {
				for k := 0; k < points; k++ {
					var sum complex128
					for j := 0; j <= i; j++ {
						h := dec.At(k, i, j)
						if h == 0 {
							continue
						}
						sum += h * cmplx.Rect(1, phases[k*m+j])
					}
					coeffs[k] = complex(amp, 0) * sum
				}
				synth.synthesize(coeffs, out.Field(s, i))
			}

			if p.Progress != nil {
				p.Progress(int(done.Add(1)), p.Samples)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, wrapCanceled(err)
	}

	log.Info("samples generated", logging.Fields{"elapsed": time.Since(start).Round(time.Millisecond)})
	return out, nil
}

func (g *Generator) latinPhases(p Params) ([]float64, error) {
	d := g.spectrum.size * g.spectrum.m
	rng := rand.New(rand.NewPCG(p.Seed, lhsStream))
	u, err := sampling.UnitLHS(p.Samples, d, sampling.LHSOptions{Criterion: sampling.Random}, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParameterBounds, err)
	}
	raw := u.RawMatrix()
	phases := make([]float64, p.Samples*d)
	for s := 0; s < p.Samples; s++ {
		row := raw.Data[s*raw.Stride : s*raw.Stride+d]
		for i, v := range row {
			phases[s*d+i] = 2 * math.Pi * v
		}
	}
	return phases, nil
}

func wrapCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return err
}

// Generate is the one-call form: it builds a grid from the per-dimension
// arguments, validates it against S and draws samples realizations. A nil
// seed draws a fresh one; the seed used is returned in Samples.Seed.
func Generate(ctx context.Context, samples int, s *Spectrum, dt, dw []float64, nt, nw []int, seed *uint64) (*Samples, error) {
	grid := Grid{
		TimeIncrements:      dt,
		FrequencyIncrements: dw,
		TimePoints:          nt,
		FrequencyPoints:     nw,
	}
	gen, err := New(grid, s)
	if err != nil {
		return nil, err
	}
	p := Params{Samples: samples}
	if seed != nil {
		p.Seed = *seed
	} else {
		p.Seed = rand.Uint64()
		gen.log.Debug("drew phase seed", logging.Fields{"seed": p.Seed})
	}
	return gen.Generate(ctx, p)
}
