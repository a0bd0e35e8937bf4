package viz

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 40

// ProgressMsg reports that done of total realizations are finished.
type ProgressMsg struct {
	Done, Total int
}

// DoneMsg ends the progress view.
type DoneMsg struct {
	Err error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ProgressModel is a Bubble Tea model showing generation progress.
type ProgressModel struct {
	title    string
	done     int
	total    int
	frame    int
	start    time.Time
	now      time.Time
	err      error
	finished bool
	canceled bool
}

func NewProgressModel(title string, total int) ProgressModel {
	now := time.Now()
	return ProgressModel{title: title, total: total, start: now, now: now}
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done, m.total = msg.Done, msg.Total
	case DoneMsg:
		m.err = msg.Err
		m.finished = true
		return m, tea.Quit
	case tickMsg:
		m.frame++
		m.now = time.Time(msg)
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}

	status := StatusRunning.Render(AnimatedSpinner(m.frame))
	switch {
	case m.err != nil:
		status = StatusFailed.Render("✗")
	case m.finished:
		status = StatusRunning.Render("✓")
	}

	fmt.Fprintf(&b, "%s %s\n", status, Title.Render(m.title))
	fmt.Fprintf(&b, "%s %3.0f%%  %d/%d  %s\n",
		ProgressBar(pct, barWidth), pct*100, m.done, m.total,
		Subtle.Render(m.now.Sub(m.start).Round(100*time.Millisecond).String()))
	if m.err != nil {
		fmt.Fprintf(&b, "%s\n", StatusFailed.Render(m.err.Error()))
	} else if !m.finished {
		b.WriteString(KeyHint.Render("q to cancel") + "\n")
	}
	return b.String()
}

func (m ProgressModel) Done() int      { return m.done }
func (m ProgressModel) Canceled() bool { return m.canceled }
func (m ProgressModel) Err() error     { return m.err }

// RunWithProgress runs fn while showing a progress view on out. fn receives
// a callback to report progress and a context that is canceled when the user
// quits the view.
func RunWithProgress(ctx context.Context, out io.Writer, title string, total int, fn func(ctx context.Context, progress func(done, total int)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(title, total), tea.WithOutput(out), tea.WithContext(ctx))

	errc := make(chan error, 1)
	go func() {
		err := fn(ctx, func(done, total int) {
			p.Send(ProgressMsg{Done: done, Total: total})
		})
		errc <- err
		p.Send(DoneMsg{Err: err})
	}()

	final, runErr := p.Run()
	if m, ok := final.(ProgressModel); ok && m.Canceled() {
		cancel()
	}
	err := <-errc
	if err != nil {
		return err
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}
