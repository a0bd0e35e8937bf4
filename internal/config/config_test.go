package config_test

import (
	"math"
	"path/filepath"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/srmsim/internal/config"
	"github.com/san-kum/srmsim/internal/srm"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("is valid", func() {
			cfg := config.DefaultConfig()
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.Samples).To(Equal(config.DefaultSamples))
		})

		It("leaves the dimension to the grid", func() {
			cfg := config.DefaultConfig()
			Expect(cfg.Dimensions).To(BeZero())
			g, err := cfg.ResolveGrid()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Dims()).To(Equal(1))
		})
	})

	Describe("Parse", func() {
		It("reads a full grid", func() {
			cfg, err := config.Parse([]byte(`
name: test
samples: 4
seed: 9
method: cosine
grid:
  dt: [0.5, 0.25]
  dw: [0.1, 0.2]
  nt: [16, 32]
  nw: [8, 4]
spectra:
  autos:
    - name: exponential
      params: {scale: 2}
  all_pairs:
    name: constant
    params: {level: 0.3}
`))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Name).To(Equal("test"))
			Expect(cfg.Seed).To(Equal(uint64(9)))
			Expect(cfg.Phases).To(Equal(config.DefaultPhases))
			Expect(cfg.Spectra.Autos).To(HaveLen(1))
			Expect(cfg.Spectra.Autos[0].Params).To(HaveKeyWithValue("scale", 2.0))
			Expect(cfg.Spectra.AllPairs.Name).To(Equal("constant"))

			g, err := cfg.ResolveGrid()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.TimeIncrements).To(Equal([]float64{0.5, 0.25}))
			Expect(g.FrequencyPoints).To(Equal([]int{8, 4}))
			Expect(g.Dims()).To(Equal(2))
		})

		It("infers a 2-D grid from upper cutoffs without a dimensions key", func() {
			cfg, err := config.Parse([]byte("grid:\n upper: [3, 3]\n nt: [64, 64]\n nw: [32, 32]\n"))
			Expect(err).NotTo(HaveOccurred())
			g, err := cfg.ResolveGrid()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Dims()).To(Equal(2))
			Expect(g.FrequencyIncrements).To(Equal([]float64{3.0 / 32, 3.0 / 32}))
		})

		It("still honours an explicit dimensions key", func() {
			cfg, err := config.Parse([]byte("dimensions: 3\ngrid:\n upper: [3, 3]\n nt: [64, 64]\n nw: [32, 32]\n"))
			Expect(err).NotTo(HaveOccurred())
			_, err = cfg.ResolveGrid()
			Expect(err).To(MatchError(srm.ErrDimensionMismatch))
		})

		It("replaces the default grid instead of merging into it", func() {
			cfg, err := config.Parse([]byte("grid:\n  dw: [0.1]\n  nt: [64]\n  nw: [16]\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Grid.Upper).To(BeEmpty())
			Expect(cfg.Spectra.Autos).To(HaveLen(1))
		})

		DescribeTable("rejects scalar grid sizes",
			func(doc string) {
				_, err := config.Parse([]byte(doc))
				Expect(err).To(MatchError(srm.ErrDegenerateGrid))
			},
			Entry("nt", "grid:\n  nt: 64\n  nw: [16]\n  dw: [0.1]\n"),
			Entry("nw", "grid:\n  nt: [64]\n  nw: 16\n  dw: [0.1]\n"),
			Entry("dw", "grid:\n  nt: [64]\n  nw: [16]\n  dw: 0.1\n"),
			Entry("dt", "grid:\n  dt: 0.5\n  nt: [64]\n  nw: [16]\n  dw: [0.1]\n"),
		)
	})

	Describe("ResolveGrid", func() {
		It("derives dw from the upper cutoffs and an FFT compatible dt", func() {
			cfg := config.DefaultConfig()
			cfg.Grid = config.GridConfig{
				Upper:           config.Increments{2, 4},
				FrequencyPoints: config.Sizes{10, 20},
				TimePoints:      config.Sizes{32, 64},
			}
			g, err := cfg.ResolveGrid()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.FrequencyIncrements).To(HaveLen(2))
			Expect(g.FrequencyIncrements[0]).To(BeNumerically("~", 0.2, 1e-12))
			Expect(g.FrequencyIncrements[1]).To(BeNumerically("~", 0.2, 1e-12))
			Expect(g.TimeIncrements[0]).To(BeNumerically("~", 2*math.Pi/(32*0.2), 1e-12))
			Expect(g.FFTCompatible()).To(BeTrue())
			Expect(g.Dims()).To(Equal(2))
		})

		It("requires sizes", func() {
			cfg := config.DefaultConfig()
			cfg.Grid = config.GridConfig{Upper: config.Increments{1}}
			_, err := cfg.ResolveGrid()
			Expect(err).To(MatchError(srm.ErrDegenerateGrid))
		})

		It("requires one cutoff per axis", func() {
			cfg := config.DefaultConfig()
			cfg.Grid = config.GridConfig{
				Upper:           config.Increments{1},
				FrequencyPoints: config.Sizes{10, 10},
				TimePoints:      config.Sizes{32, 32},
			}
			_, err := cfg.ResolveGrid()
			Expect(err).To(MatchError(srm.ErrDimensionMismatch))
		})
	})

	Describe("Validate", func() {
		It("collects every problem", func() {
			cfg := config.DefaultConfig()
			cfg.Samples = 0
			cfg.Method = "spline"
			cfg.Variables = 2
			err := cfg.Validate()
			Expect(err).To(MatchError(srm.ErrParameterBounds))
			Expect(err).To(MatchError(srm.ErrDimensionMismatch))
		})
	})

	Describe("Params", func() {
		It("maps run settings", func() {
			cfg := config.DefaultConfig()
			cfg.Method = "fft"
			cfg.Phases = "lhs"
			cfg.Workers = 3
			p, err := cfg.Params()
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Method).To(Equal(srm.MethodFFT))
			Expect(p.Phases).To(Equal(srm.PhaseLatinHypercube))
			Expect(p.Workers).To(Equal(3))
			Expect(p.Samples).To(Equal(cfg.Samples))
		})
	})

	Describe("Save and Load", func() {
		It("round trips through a file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "run.yaml")
			cfg := config.GetPreset("plane")
			Expect(config.Save(path, cfg)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("fails on a missing file", func() {
			_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Presets", func() {
		It("lists presets in order", func() {
			names := config.ListPresets()
			Expect(names).To(ContainElements("plane", "wind", "white"))
			Expect(slices.IsSorted(names)).To(BeTrue())
		})

		It("returns copies", func() {
			a := config.GetPreset("plane")
			a.Samples = 1
			a.Spectra.Autos[0].Params["scale"] = -1
			b := config.GetPreset("plane")
			Expect(b.Samples).To(Equal(100))
			Expect(b.Spectra.Autos[0].Params["scale"]).To(Equal(125.0 / 4))
		})

		It("returns nil for unknown names", func() {
			Expect(config.GetPreset("nonexistent")).To(BeNil())
		})

		It("describes the three variable plane scenario", func() {
			cfg := config.GetPreset("plane")
			g, err := cfg.ResolveGrid()
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Dims()).To(Equal(2))
			Expect(g.FrequencyPoints).To(Equal([]int{100, 100}))
			Expect(g.FrequencyIncrements[0]).To(BeNumerically("~", 0.015, 1e-12))
			Expect(g.FrequencyIncrements[1]).To(BeNumerically("~", 0.025, 1e-12))
			Expect(g.CheckAliasing()).To(Succeed())
		})

		It("are all valid", func() {
			for _, name := range config.ListPresets() {
				Expect(config.GetPreset(name).Validate()).To(Succeed(), name)
			}
		})
	})

	Describe("Select", func() {
		It("falls back to the defaults", func() {
			cfg, err := config.Select("", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.DefaultConfig()))
		})

		It("picks a preset or a file", func() {
			cfg, err := config.Select("wind", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Name).To(Equal("wind"))

			path := filepath.Join(GinkgoT().TempDir(), "run.yaml")
			Expect(config.Save(path, config.GetPreset("white"))).To(Succeed())
			cfg, err = config.Select("", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Name).To(Equal("white"))
		})

		It("rejects a preset together with a config file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "run.yaml")
			Expect(config.Save(path, config.GetPreset("white"))).To(Succeed())
			_, err := config.Select("wind", path)
			Expect(err).To(MatchError(config.ErrConflictingSources))
		})

		It("rejects unknown presets", func() {
			_, err := config.Select("nonexistent", "")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		})
	})
})
