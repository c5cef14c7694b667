package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// Worker state tracking
type workerState struct {
	lastFrame int
	frames    int
	failed    int
	busy      bool
}

// EncodeModel is the TUI shown during an encode run: an overall progress bar
// plus per-worker frame counters, fed by FrameEncodedMsg from the encoder.
type EncodeModel struct {
	total   int
	emitted int
	failed  int
	workers []workerState

	overall progress.Model

	width  int
	height int

	done     bool
	err      error
	quitting bool

	// Version for display
	Version string
}

// NewEncodeModel creates the encode TUI model.
func NewEncodeModel(totalFrames, numWorkers int, version string) EncodeModel {
	return EncodeModel{
		total:   totalFrames,
		workers: make([]workerState, numWorkers),
		overall: progress.New(progress.WithDefaultGradient()),
		Version: version,
	}
}

// Init implements tea.Model
func (m EncodeModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m EncodeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.overall.Width = msg.Width - 20

	case FrameEncodedMsg:
		m.emitted = msg.Emitted
		if msg.Failed {
			m.failed++
		}
		if msg.Worker >= 0 && msg.Worker < len(m.workers) {
			w := &m.workers[msg.Worker]
			w.lastFrame = msg.Index
			w.frames++
			w.busy = true
			if msg.Failed {
				w.failed++
			}
		}

	case EncodeDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model
func (m EncodeModel) View() string {
	if m.quitting {
		return "Finishing in-flight frames...\n"
	}

	header := HeaderStyle.Render(fmt.Sprintf("ASCII Encoder %s", m.Version))

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.emitted) / float64(m.total)
	}
	overallView := fmt.Sprintf("Frames: %s (%d/%d)",
		m.overall.ViewAs(percent), m.emitted, m.total)

	workerViews := []string{"Worker Status:"}
	for i, w := range m.workers {
		status := fmt.Sprintf("Worker %d: ", i+1)
		if w.busy {
			status += fmt.Sprintf("%4d frames (last #%d)", w.frames, w.lastFrame)
			if w.failed > 0 {
				status += ErrorStyle.Render(fmt.Sprintf("  %d failed", w.failed))
			}
		} else {
			status += "idle"
		}
		workerViews = append(workerViews, status)
	}

	var failures string
	if m.failed > 0 {
		failures = WarningStyle.Render(fmt.Sprintf("⚠️  %d frames failed to transcode", m.failed))
	}

	controls := "Controls: [q] Quit"

	sections := []string{
		header,
		overallView,
		strings.Join(workerViews, "\n"),
	}
	if failures != "" {
		sections = append(sections, failures)
	}
	sections = append(sections, controls)

	return strings.Join(sections, "\n\n")
}
