// Package tui provides a terminal progress view for an image run
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luinbytes/car-images/batch"
	"github.com/luinbytes/car-images/report"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	currentStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(lipgloss.Color("#FAFAFA"))
)

const (
	maxRecent    = 5
	minBarWidth  = 10
	maxBarWidth  = 60
	defaultWidth = 40
	barPadding   = 16
)

// keyMap defines keybindings for the TUI
type keyMap struct {
	Log  key.Binding
	Quit key.Binding
	Help key.Binding
}

var keys = keyMap{
	Log: key.NewBinding(
		key.WithKeys("l", "tab"),
		key.WithHelp("l/tab", "toggle recent"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "stop"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Log, k.Help, k.Quit},
	}
}

// EventMsg carries a run event into the program.
type EventMsg batch.Event

// DoneMsg ends the program once the run is over.
type DoneMsg struct {
	Summary report.Summary
	Err     error
}

// Model is the TUI state
type Model struct {
	mode     report.Mode
	markers  report.Markers
	location string
	total    int
	handled  int
	tally    batch.Tally
	current  string
	recent   []string
	showHelp bool
	showLog  bool
	finished bool
	quitting bool
	width    int
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model
}

// New creates a progress model for total records written to location.
func New(mode report.Mode, markers report.Markers, location string, total int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	p := progress.New(progress.WithGradient("#04B575", "#7D56F4"))
	p.Width = defaultWidth

	return Model{
		mode:     mode,
		markers:  markers,
		location: location,
		total:    total,
		showLog:  true,
		keys:     keys,
		help:     help.New(),
		spinner:  s,
		progress: p,
	}
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and user input
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = max(minBarWidth, min(msg.Width-barPadding, maxBarWidth))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp

		case key.Matches(msg, m.keys.Log):
			m.showLog = !m.showLog
		}

	case EventMsg:
		m.observe(batch.Event(msg))

	case DoneMsg:
		m.finished = true
		m.current = ""
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) observe(e batch.Event) {
	if e.Total > 0 {
		m.total = e.Total
	}
	m.tally.Add(e)

	rec := e.Record
	var line string
	switch e.Kind {
	case batch.Started:
		if m.mode == report.Placeholder {
			m.current = "Creating placeholder for " + rec.Title()
		} else {
			m.current = "Downloading " + rec.Title()
		}
		return
	case batch.Created:
		line = okStyle.Render(m.markers.Emoji(report.OK) + e.Name)
	case batch.Skipped:
		line = warnStyle.Render(fmt.Sprintf("%s%s (%s)", m.markers.Emoji(report.Warn), rec.Title(), e.Reason))
	case batch.Failed:
		subject := e.Name
		if m.mode == report.Download {
			subject = rec.ImageURL
		}
		line = failStyle.Render(m.markers.Emoji(report.Fail) + report.FormatError(subject, e.Err))
	}

	m.handled++
	m.current = ""
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

// Percent is the share of records handled so far.
func (m Model) Percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.handled) / float64(m.total)
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	s.WriteString(titleStyle.Render(" " + m.mode.String() + " "))
	s.WriteString("\n")
	s.WriteString(infoStyle.Render(m.location))
	s.WriteString("\n\n")

	// Progress
	s.WriteString(m.progress.ViewAs(m.Percent()))
	s.WriteString(infoStyle.Render(fmt.Sprintf("  %d/%d", m.handled, m.total)))
	s.WriteString("\n")

	t := m.tally
	s.WriteString(infoStyle.Render(fmt.Sprintf("created %d · skipped %d · failed %d", t.Created, t.Skipped, t.Failed)))
	s.WriteString("\n\n")

	switch {
	case m.quitting:
		s.WriteString(warnStyle.Render("Stopping after the current image..."))
		s.WriteString("\n")
		return s.String()
	case m.finished:
		s.WriteString(okStyle.Render(m.markers.Emoji(report.Done) + "Finished"))
		s.WriteString("\n")
		return s.String()
	case m.current != "":
		s.WriteString(m.spinner.View())
		s.WriteString(currentStyle.Render(m.current))
		s.WriteString("\n")
	}

	if m.showLog && len(m.recent) > 0 {
		s.WriteString("\n")
		for _, line := range m.recent {
			s.WriteString("  ")
			s.WriteString(line)
			s.WriteString("\n")
		}
	}

	// Help
	s.WriteString("\n")
	if m.showHelp {
		s.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		s.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	s.WriteString("\n")

	return s.String()
}

// Work is a run driven by the TUI; events go to obs.
type Work func(ctx context.Context, obs batch.Observer) (report.Summary, error)

// Run shows m while work runs. Quitting the view cancels the context given
// to work; Run still waits for work to return. opts are passed on to the
// program after its context.
func Run(ctx context.Context, m Model, work Work, opts ...tea.ProgramOption) (report.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	result := make(chan DoneMsg, 1)
	go func() {
		summary, err := work(ctx, batch.ObserverFunc(func(e batch.Event) {
			p.Send(EventMsg(e))
		}))
		done := DoneMsg{Summary: summary, Err: err}
		result <- done
		p.Send(done)
	}()

	_, runErr := p.Run()
	cancel()
	done := <-result

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return done.Summary, runErr
	}
	return done.Summary, done.Err
}
