// Package ui renders live test-run progress in the terminal.
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"filetest/internal/harness"
)

// maxFailuresShown bounds the failure list kept on screen.
const maxFailuresShown = 8

type progressModel struct {
	title   string
	events  <-chan harness.Event
	spinner spinner.Model
	prog    progress.Model

	total    int
	passed   int
	failed   int
	stalled  int
	running  map[int]runningItem // by job id
	failures []harness.Event

	width int
	done  bool
}

type runningItem struct {
	path   string
	worker int
}

type eventMsg harness.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders the progress of
// total test files fed through events. The model quits when events closes.
func NewProgressModel(title string, total int, events <-chan harness.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		total:   total,
		running: make(map[int]runningItem),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case eventMsg:
		cmd = tea.Batch(m.applyEvent(harness.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		cmd = tea.Quit
	case spinner.TickMsg:
		if !m.done {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case progress.FrameMsg:
		var next tea.Model
		next, cmd = m.prog.Update(msg)
		m.prog = next.(progress.Model)
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	}
	return m, cmd
}

func (m *progressModel) resize(width int) {
	if width <= 0 {
		return
	}
	m.width = width
	m.prog.Width = max(width-4, 10)
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s  %s", m.title, m.counts())
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := m.width - 16
	if nameWidth < 20 {
		nameWidth = 20
	}

	ids := make([]int, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		item := m.running[id]
		label := styleStatus(harness.StatusRunning).Render(fmt.Sprintf("%-10s", fmt.Sprintf("w#%d", item.worker)))
		b.WriteString(fmt.Sprintf("  %s %s\n", label, truncate(item.path, nameWidth)))
	}
	for _, ev := range m.failures {
		label := styleStatus(ev.Status).Render(fmt.Sprintf("%-10s", ev.Status))
		b.WriteString(fmt.Sprintf("  %s %s\n", label, truncate(ev.Path, nameWidth)))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) counts() string {
	return fmt.Sprintf("%d/%d passed, %d failed", m.passed, m.total, m.failed+m.stalled)
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev harness.Event) tea.Cmd {
	switch ev.Status {
	case harness.StatusRunning:
		m.running[ev.JobID] = runningItem{path: ev.Path, worker: ev.Worker}
		return nil
	case harness.StatusPassed:
		m.passed++
	case harness.StatusFailed:
		m.failed++
		m.recordFailure(ev)
	case harness.StatusStalled:
		m.stalled++
		m.recordFailure(ev)
	default:
		return nil
	}
	delete(m.running, ev.JobID)
	if m.total == 0 {
		return nil
	}
	finished := m.passed + m.failed + m.stalled
	return m.prog.SetPercent(float64(finished) / float64(m.total))
}

func (m *progressModel) recordFailure(ev harness.Event) {
	m.failures = append(m.failures, ev)
	if len(m.failures) > maxFailuresShown {
		m.failures = m.failures[len(m.failures)-maxFailuresShown:]
	}
}

var statusStyles = map[harness.Status]lipgloss.Style{
	harness.StatusQueued:  lipgloss.NewStyle().Faint(true),
	harness.StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	harness.StatusPassed:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	harness.StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	harness.StatusStalled: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
}

func styleStatus(status harness.Status) lipgloss.Style {
	if st, ok := statusStyles[status]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// truncate shortens a path to width cells, keeping its tail where the file
// name is.
func truncate(path string, width int) string {
	w := runewidth.StringWidth(path)
	if width <= 0 || w <= width {
		return path
	}
	if width <= 3 {
		return runewidth.TruncateLeft(path, w-width, "")
	}
	return runewidth.TruncateLeft(path, w-width+3, "...")
}
