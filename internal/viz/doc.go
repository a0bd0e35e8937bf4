// Package viz renders terminal output for the srmsim CLI.
//
// It provides a Bubble Tea progress view for long generation runs, shared
// lipgloss styles for status lines and tables, and ASCII charts of spectral
// estimates. Sample fields themselves are never drawn.
package viz
