package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goodparty/infracheck/internal/readiness"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle detail modal interactions
	if m.showDetail {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc", "enter":
				m.showDetail = false
				return m, nil
			case "ctrl+c", "q":
			default:
				return m, nil
			}
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.monitorCancel != nil {
				m.monitorCancel()
			}
			return m, tea.Quit
		case "r":
			if !m.running {
				m.monitor.Trigger()
			}
		case "enter":
			if len(m.checks) > 0 {
				m.showDetail = true
			}
		case "left", "h", "up", "k", "shift+tab":
			m.moveSelection(-1)
		case "right", "l", "down", "j", "tab":
			m.moveSelection(1)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case updateMsg:
		m.applyUpdate(readiness.Update(msg))
		return m, waitForUpdate(m.monitor)

	case monitorDoneMsg:
		m.running = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, doTick()
	}

	return m, nil
}

// applyUpdate folds a monitor update into the check states
func (m *Model) applyUpdate(u readiness.Update) {
	if u.Running {
		m.running = true
		return
	}

	m.running = false
	m.lastErr = u.Err
	if u.Err != nil {
		return
	}

	m.notifier.NotifyChanges(m.lastReport, u.Report)
	m.lastReport = u.Report
	m.runs++

	for _, res := range u.Report.Results {
		for i := range m.checks {
			if m.checks[i].Name != res.Name {
				continue
			}
			m.checks[i].Status = res.Status
			m.checks[i].Message = res.Message
			m.checks[i].Duration = res.Duration
			m.checks[i].LastChecked = res.CheckedAt
			m.checks[i].Known = true
		}
	}
}

// moveSelection moves the selected index with wrap-around
func (m *Model) moveSelection(delta int) {
	if len(m.checks) == 0 {
		return
	}
	m.selectedIndex = (m.selectedIndex + delta) % len(m.checks)
	if m.selectedIndex < 0 {
		m.selectedIndex += len(m.checks)
	}
}

// selected returns the currently selected check
func (m Model) selected() (CheckState, bool) {
	if len(m.checks) == 0 || m.selectedIndex >= len(m.checks) {
		return CheckState{}, false
	}
	return m.checks[m.selectedIndex], true
}
