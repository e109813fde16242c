package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goodparty/infracheck/internal/notify"
	"github.com/goodparty/infracheck/internal/readiness"
)

// Model represents the TUI application state
type Model struct {
	checks        []CheckState
	width         int
	height        int
	running       bool
	runs          int
	lastReport    readiness.Report
	lastErr       error
	quitting      bool
	monitor       *readiness.Monitor
	monitorCancel func()
	notifier      *notify.Notifier
	spinner       spinner.Model
	selectedIndex int
	showDetail    bool
}

// CheckState tracks the latest known state of one check
type CheckState struct {
	Name        string
	Description string
	Target      string
	Status      readiness.Status
	Message     string
	Duration    time.Duration
	LastChecked time.Time
	Known       bool
}

// NewModel creates a new TUI model
func NewModel(m *readiness.Monitor, cancel func(), notifier *notify.Notifier) Model {
	checks := make([]CheckState, 0, len(m.Specs()))
	for _, spec := range m.Specs() {
		checks = append(checks, CheckState{
			Name:        spec.Name,
			Description: spec.Description,
			Target:      spec.Target,
		})
	}

	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(colorChecking)

	if notifier == nil {
		notifier = notify.NewNotifier(false)
	}

	return Model{
		checks:        checks,
		monitor:       m,
		monitorCancel: cancel,
		notifier:      notifier,
		spinner:       s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.monitor),
		m.spinner.Tick,
		doTick(),
	)
}

// updateMsg wraps a monitor update for Bubble Tea
type updateMsg readiness.Update

// monitorDoneMsg is sent once the update channel is closed
type monitorDoneMsg struct{}

// waitForUpdate listens for monitor updates
func waitForUpdate(mon *readiness.Monitor) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-mon.Updates()
		if !ok {
			return monitorDoneMsg{}
		}
		return updateMsg(u)
	}
}

// tickMsg is sent on every tick
type tickMsg time.Time

// doTick returns a command that waits for the next tick
func doTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
