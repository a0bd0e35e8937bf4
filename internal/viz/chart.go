package viz

import (
	"github.com/guptarohit/asciigraph"
)

// SpectrumChart plots an estimated spectrum against its target. Both are
// truncated to the shorter length.
func SpectrumChart(estimate, target []float64, width, height int, caption string) string {
	n := min(len(estimate), len(target))
	if n == 0 {
		return ""
	}
	return asciigraph.PlotMany([][]float64{target[:n], estimate[:n]},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Chart plots a single series.
func Chart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
