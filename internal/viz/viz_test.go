package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestProgressModelUpdate(t *testing.T) {
	var m tea.Model = NewProgressModel("generating", 10)

	m, _ = m.Update(ProgressMsg{Done: 4, Total: 10})
	pm := m.(ProgressModel)
	if pm.Done() != 4 {
		t.Errorf("done = %d, want 4", pm.Done())
	}
	if !strings.Contains(pm.View(), "4/10") {
		t.Errorf("view missing counter: %q", pm.View())
	}

	m, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
	pm = m.(ProgressModel)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if pm.Err() == nil || !strings.Contains(pm.View(), "boom") {
		t.Errorf("expected error in view: %q", pm.View())
	}
}

func TestProgressModelCancel(t *testing.T) {
	var m tea.Model = NewProgressModel("generating", 3)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !m.(ProgressModel).Canceled() {
		t.Error("ctrl+c should cancel and quit")
	}
}

func TestProgressModelTick(t *testing.T) {
	var m tea.Model = NewProgressModel("generating", 3)
	m, cmd := m.Update(tickMsg(time.Now().Add(time.Second)))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if m.(ProgressModel).frame != 1 {
		t.Error("tick should advance the spinner")
	}
}

func TestProgressBar(t *testing.T) {
	for _, pct := range []float64{-1, 0, 0.5, 1, 2} {
		bar := ProgressBar(pct, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("pct %f: %d cells, want 10", pct, n)
		}
	}
}

func TestCharts(t *testing.T) {
	if SpectrumChart(nil, []float64{1}, 20, 5, "x") != "" {
		t.Error("empty estimate should render nothing")
	}
	out := SpectrumChart([]float64{1, 2, 3, 2}, []float64{1, 2, 3}, 20, 5, "psd")
	if !strings.Contains(out, "psd") {
		t.Errorf("missing caption: %q", out)
	}
	if Chart([]float64{0, 1}, 10, 3, "c") == "" {
		t.Error("expected chart output")
	}
}
