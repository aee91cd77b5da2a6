// Package ui renders the interactive parts of the symfetch CLI: the
// identity printout and the download progress bar.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	padding  = 2
	maxWidth = 72
)

// progressMsg carries cumulative download progress into the model.
type progressMsg struct {
	written int64
	total   int64
}

// closeMsg tells the model to quit.
type closeMsg struct{}

type progressModel struct {
	label    string
	bar      progress.Model
	written  int64
	total    int64
	quitting bool
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - padding*2 - 4
		if m.bar.Width > maxWidth {
			m.bar.Width = maxWidth
		}
		return m, nil

	case progressMsg:
		m.written, m.total = msg.written, msg.total
		var pct float64
		if msg.total > 0 {
			pct = float64(msg.written) / float64(msg.total)
		}
		return m, m.bar.SetPercent(pct)

	case closeMsg:
		m.quitting = true
		return m, tea.Quit

	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.quitting {
		return ""
	}
	pad := strings.Repeat(" ", padding)
	return "\n" +
		pad + m.label + "\n" +
		pad + m.bar.View() + "  " + humanBytes(m.written) + " / " + humanBytes(m.total) + "\n"
}

// ProgressBar is a live download progress display. Updates may arrive
// from any goroutine.
type ProgressBar struct {
	prog *tea.Program
	done chan struct{}
}

// NewProgressBar starts rendering a progress bar on stderr.
func NewProgressBar(label string) *ProgressBar {
	m := progressModel{
		label: label,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
	// Input stays detached so Ctrl-C is delivered as SIGINT and
	// cancels the download instead of just the display.
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))

	pb := &ProgressBar{prog: p, done: make(chan struct{})}
	go func() {
		_, _ = p.Run()
		close(pb.done)
	}()
	return pb
}

// Update reports cumulative download progress.
func (p *ProgressBar) Update(written, total int64) {
	p.prog.Send(progressMsg{written: written, total: total})
}

// Close stops the display and waits for the terminal to be restored.
func (p *ProgressBar) Close() {
	p.prog.Send(closeMsg{})
	<-p.done
}

// humanBytes renders a byte count for display.
func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
