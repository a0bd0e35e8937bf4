package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/srmsim/internal/analysis"
	"github.com/san-kum/srmsim/internal/config"
	"github.com/san-kum/srmsim/internal/experiment"
	"github.com/san-kum/srmsim/internal/logging"
	"github.com/san-kum/srmsim/internal/sampling"
	"github.com/san-kum/srmsim/internal/spectra"
	"github.com/san-kum/srmsim/internal/srm"
	"github.com/san-kum/srmsim/internal/storage"
	"github.com/san-kum/srmsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	samples    int
	seed       uint64
	method     string
	phases     string
	workers    int
	progress   bool
	noSave     bool

	outFile  string
	variable int

	distSpecs  []string
	criterion  string
	metric     string
	iterations int
	strataDims []int
	groupDims  []int
	algorithm  string
	proposal   string
	scales     []float64
	burn       int
	jump       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "srmsim",
		Short:         "spectral representation stochastic field generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := logging.NewDefaultLogger()
			logger.SetLevel(level)
			logging.SetGlobalLogger(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".srmsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	generateCmd := &cobra.Command{
		Use:   "generate [preset]",
		Short: "generate sample fields",
		Args:  cobra.MaximumNArgs(1),
		RunE:  generate,
	}
	addRunFlags(generateCmd)
	generateCmd.Flags().BoolVar(&progress, "progress", false, "show a progress view")
	generateCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "time generation across methods and worker counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bench,
	}
	addRunFlags(benchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and samples to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "periodogram of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&variable, "variable", 0, "variable index")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list spectral and coherence models",
		Run: func(cmd *cobra.Command, args []string) {
			reg := spectra.NewRegistry()
			fmt.Printf("spectra:   %s\n", strings.Join(reg.ListPSDs(), ", "))
			fmt.Printf("coherence: %s\n", strings.Join(reg.ListCoherence(), ", "))
		},
	}

	designCmd := &cobra.Command{
		Use:       "design [mcs|lhs|sts|pss|mcmc]",
		Short:     "draw a Monte Carlo, Latin hypercube, stratified or Markov chain design",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"mcs", "lhs", "sts", "pss", "mcmc"},
		RunE:      design,
	}
	designCmd.Flags().IntVar(&samples, "samples", 10, "number of points")
	designCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	designCmd.Flags().StringArrayVar(&distSpecs, "dist", []string{"Uniform:0,1"}, "marginal distribution Name:p1,p2 (repeatable)")
	designCmd.Flags().StringVar(&criterion, "criterion", string(sampling.Random), "lhs criterion (random, centered, maximin, correlate)")
	designCmd.Flags().StringVar(&metric, "metric", string(sampling.Euclidean), "maximin distance (euclidean, cityblock, chebyshev)")
	designCmd.Flags().IntVar(&iterations, "iterations", sampling.DefaultIterations, "candidate designs for maximin and correlate")
	designCmd.Flags().IntSliceVar(&strataDims, "strata", nil, "sts: strata per variable; pss: strata per axis of each group")
	designCmd.Flags().IntSliceVar(&groupDims, "groups", nil, "pss: variables per stratified group")
	designCmd.Flags().StringVar(&algorithm, "algorithm", string(sampling.MH), "mcmc update (mh, mmh)")
	designCmd.Flags().StringVar(&proposal, "proposal", string(sampling.NormalProposal), "mcmc proposal (normal, uniform)")
	designCmd.Flags().Float64SliceVar(&scales, "scale", []float64{1}, "mcmc proposal scale (one value or one per variable)")
	designCmd.Flags().IntVar(&burn, "burn", 0, "mcmc burn-in states")
	designCmd.Flags().IntVar(&jump, "jump", 1, "mcmc states between kept samples")

	rootCmd.AddCommand(generateCmd, benchCmd, listCmd, showCmd, exportCSVCmd, exportJSONCmd,
		analyzeCmd, presetsCmd, modelsCmd, designCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.StatusFailed.Render("error:"), err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of realizations")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "synthesis method (auto, fft, cosine)")
	cmd.Flags().StringVar(&phases, "phases", config.DefaultPhases, "phase sampling (mcs, lhs)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent realizations (0 = GOMAXPROCS)")
}

// loadConfig starts from the preset named in args or the config file (not
// both), else the defaults, and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var preset string
	if len(args) == 1 {
		preset = args[0]
	}
	cfg, err := config.Select(preset, configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("samples") {
		cfg.Samples = samples
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("method") {
		cfg.Method = method
	}
	if cmd.Flags().Changed("phases") {
		cfg.Phases = phases
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func generate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var res *experiment.Result
	run := func(ctx context.Context, report func(done, total int)) error {
		opts := []experiment.Option{}
		if report != nil {
			opts = append(opts, experiment.WithProgress(report))
		}
		exp := experiment.New(cfg, opts...)
		if err := exp.Setup(); err != nil {
			return err
		}
		var err error
		res, err = exp.Run(ctx)
		return err
	}

	if progress {
		// the progress view owns the terminal, keep the log quiet meanwhile
		logging.SetLevel(logging.WarnLevel)
		err = viz.RunWithProgress(ctx, os.Stderr, "generating "+cfg.Name, cfg.Samples, run)
	} else {
		err = run(ctx, nil)
	}
	if err != nil {
		return err
	}

	printSummary(res.Metrics)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(res.Metadata(cfg.Name), res.Samples)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", viz.Title.Render(runID))
	return nil
}

func printSummary(metrics map[string]float64) {
	for _, key := range []string{"mean", "variance", "expected_variance", "relative_error", "min", "max", "peak_amplitude", "field_variance_spread"} {
		if v, ok := metrics[key]; ok {
			fmt.Println(viz.MetricLine(key, v))
		}
	}
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logging.SetLevel(logging.WarnLevel)

	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}
	gen := exp.Generator()
	base, err := cfg.Params()
	if err != nil {
		return err
	}

	methods := []srm.Method{srm.MethodCosine}
	if gen.Grid().FFTCompatible() {
		methods = append([]srm.Method{srm.MethodFFT}, methods...)
	}
	workerCounts := []int{1, 2, 4, runtime.GOMAXPROCS(0)}
	if cmd.Flags().Changed("workers") {
		workerCounts = []int{cfg.Workers}
	}
	slices.Sort(workerCounts)
	workerCounts = slices.Compact(workerCounts)

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("benchmark: %s (%d samples)\n\n", cfg.Name, cfg.Samples)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tWORKERS\tELAPSED\tSAMPLES/S")

	for _, m := range methods {
		for _, n := range workerCounts {
			p := base
			p.Method = m
			p.Workers = n

			start := time.Now()
			if _, err := gen.Generate(ctx, p); err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%s\t%d\t%v\t%.1f\n",
				m, n, elapsed.Round(time.Millisecond), float64(p.Samples)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSAMPLES\tVARS\tSHAPE\tMETHOD\tPHASES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.Variables,
			run.Shape,
			run.Method,
			run.Phases,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(meta.ID))
	fmt.Printf("name:     %s\n", meta.Name)
	fmt.Printf("created:  %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Printf("samples:  %d x %d variables, shape %v\n", meta.Samples, meta.Variables, meta.Shape)
	fmt.Printf("grid:     dt=%v dw=%v nw=%v\n", meta.TimeIncrements, meta.FrequencyIncrements, meta.FrequencyPoints)
	fmt.Printf("method:   %s, %s phases, seed %d\n", meta.Method, meta.Phases, meta.Seed)
	fmt.Printf("elapsed:  %.3fs\n\n", meta.Elapsed)
	printSummary(meta.Metrics)
	return nil
}

// output returns stdout or the --out file.
func output() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	s, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	f, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(f, s); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	s, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	f, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(f, *meta, s); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if variable < 0 || variable >= meta.Variables {
		return fmt.Errorf("variable %d out of range (run has %d)", variable, meta.Variables)
	}
	if len(meta.TimeIncrements) == 0 {
		return fmt.Errorf("run %s has no time increments", meta.ID)
	}

	s, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	last := len(meta.TimeIncrements) - 1
	dt := meta.TimeIncrements[last]
	ps := analysis.LinePeriodogram(s, variable, dt)
	if len(ps) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("periodogram: %s\n", meta.ID)
	fmt.Printf("variable %d along axis %d\n\n", variable, last)

	// bins above the simulated band carry nothing but leakage
	n := len(ps)
	if last < len(meta.FrequencyPoints) {
		n = min(n, meta.FrequencyPoints[last])
	}
	if variable < len(meta.LineTargets) {
		target := meta.LineTargets[variable]
		fmt.Println(viz.SpectrumChart(ps[:n], target, 80, 15,
			fmt.Sprintf("periodogram (x%d) against target", variable)))
		fmt.Println()
		fmt.Println(viz.MetricLine("relative error", analysis.BandError(ps[:n], target)))
	} else {
		fmt.Println(viz.Chart(ps[:n], 80, 15, fmt.Sprintf("periodogram (x%d)", variable)))
		fmt.Println()
	}

	binWidth := 2 * math.Pi / (float64(s.Shape[last]) * dt)
	peak := analysis.DominantBin(ps[:n])
	fmt.Println(viz.MetricLine("dominant frequency", float64(peak)*binWidth))
	fmt.Println(viz.MetricLine("peak density", ps[peak]))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVARS\tDIMS\tSAMPLES\tNW\tNT\tMETHOD\tPHASES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%v\t%s\t%s\n",
			name, p.Variables, p.Dimensions, p.Samples,
			[]int(p.Grid.FrequencyPoints), []int(p.Grid.TimePoints), p.Method, p.Phases)
	}
	return w.Flush()
}

func design(cmd *cobra.Command, args []string) error {
	dists := make([]sampling.Distribution, 0, len(distSpecs))
	for _, spec := range distSpecs {
		d, err := sampling.ParseSpec(spec)
		if err != nil {
			return err
		}
		dists = append(dists, d)
	}

	rng := rand.New(rand.NewPCG(seed, 0))
	var (
		d   *sampling.Design
		err error
	)
	switch args[0] {
	case "mcs":
		d, err = sampling.MCS(samples, dists, rng)
	case "lhs":
		d, err = sampling.LHS(samples, dists, sampling.LHSOptions{
			Criterion:  sampling.Criterion(criterion),
			Metric:     sampling.Metric(metric),
			Iterations: iterations,
		}, rng)
	case "sts":
		var st *sampling.Strata
		if st, err = sampling.NewStrata(strataDims); err == nil {
			d, err = sampling.STS(st, dists, rng)
		}
	case "pss":
		d, err = sampling.PSS(groupDims, strataDims, dists, rng)
	case "mcmc":
		// chains start at the marginal medians so the start has positive density
		start := make([]float64, len(dists))
		for j, dist := range dists {
			start[j] = dist.Quantile(0.5)
		}
		d, err = sampling.MCMC(samples, len(dists), sampling.IndependentTarget(dists), sampling.MCMCOptions{
			Algorithm: sampling.Algorithm(algorithm),
			Proposal:  sampling.Proposal(proposal),
			Scale:     scales,
			Start:     start,
			Burn:      burn,
			Jump:      jump,
		}, rng)
	default:
		return fmt.Errorf("unknown design: %s (available: mcs, lhs, sts, pss, mcmc)", args[0])
	}
	if err != nil {
		return err
	}

	rows, cols := d.Samples.Dims()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := make([]string, cols)
	for j := range header {
		header[j] = fmt.Sprintf("x%d", j)
	}
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")
	for i := 0; i < rows; i++ {
		row := make([]string, cols)
		for j := range row {
			row[j] = fmt.Sprintf("%.6f", d.Samples.At(i, j))
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if cols > 1 && d.U01 != nil {
		fmt.Println()
		fmt.Println(viz.MetricLine("max correlation", sampling.MaxCorrelation(d.U01)))
	}
	return nil
}
