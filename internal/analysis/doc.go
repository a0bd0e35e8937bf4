// Package analysis provides ensemble statistics for generated samples.
//
// The package checks realizations against the target spectrum:
//
//   - [EnsembleMean], [EnsembleVariance]: pooled moments over all samples
//   - [VariableVariance], [CrossCovariance]: per-variable and zero-lag moments
//   - [Periodogram]: one-sided spectral estimate of a 1-D field
//   - [Summarize]: the metrics stored with every run
//
// # Convergence
//
// For a valid spectrum the pooled variance approaches
// srm.ExpectedVariance as the number of samples grows:
//
//	stats := analysis.Summarize(samples, spectrum, grid)
//	if stats["relative_error"] > 0.05 {
//	    // ensemble too small or spectrum aliased
//	}
package analysis
