package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/goodparty/infracheck/internal/readiness"
)

var (
	colorAccent   = lipgloss.Color("#04D9FF")
	colorPass     = lipgloss.Color("#00FF94")
	colorFail     = lipgloss.Color("#FF0055")
	colorChecking = lipgloss.Color("#FFD700")
	colorMuted    = lipgloss.Color("#565f89")
	colorSubtle   = lipgloss.Color("#24283b")
	colorCard     = lipgloss.Color("#16161e")
	colorText     = lipgloss.Color("#c0caf5")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	passStyle = lipgloss.NewStyle().
			Foreground(colorPass).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(colorFail).
			Bold(true)

	checkingStyle = lipgloss.NewStyle().
			Foreground(colorChecking).
			Bold(true)

	// Border color is set per card
	baseCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Background(colorCard).
			Padding(0, 1).
			MarginRight(1)

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText)

	secondaryStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorFail)
)

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width < 40 {
		width = 80
	}

	if m.showDetail {
		if c, ok := m.selected(); ok {
			return m.renderDetail(c, width)
		}
	}

	cols := 2
	if width > 160 {
		cols = 3
	}
	if width > 200 {
		cols = 4
	}
	cardWidth := (width - 4) / cols
	if cardWidth < 24 {
		cardWidth = width - 4
		cols = 1
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n\n")

	if len(m.checks) == 0 {
		b.WriteString(secondaryStyle.Render("No checks selected."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderGrid(cardWidth, cols))
		b.WriteString("\n")
	}

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Run failed: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter(width))
	b.WriteString("\n")

	return b.String()
}

// renderHeader draws the title, the overall verdict and the pass/fail dots
func (m Model) renderHeader(width int) string {
	passed, failed, pending := m.counts()

	title := titleStyle.Render("INFRACHECK")
	switch {
	case m.running:
		title += " " + checkingStyle.Render(m.spinner.View()+" checking")
	case m.runs == 0:
	case m.lastReport.Status() == readiness.StatusPass:
		title += " " + passStyle.Render("READY")
	default:
		title += " " + failStyle.Render("NOT READY")
	}

	stats := fmt.Sprintf("%s  %s  %s",
		passStyle.Render(fmt.Sprintf("● %d", passed)),
		failStyle.Render(fmt.Sprintf("● %d", failed)),
		checkingStyle.Render(fmt.Sprintf("● %d", pending)),
	)

	gap := width - lipgloss.Width(title) - lipgloss.Width(stats) - 2
	if gap < 0 {
		gap = 0
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, strings.Repeat(" ", gap), stats)
	rule := lipgloss.NewStyle().Foreground(colorSubtle).Render(strings.Repeat("━", width))
	return header + "\n" + rule
}

// renderGrid lays the cards out in declaration order
func (m Model) renderGrid(cardWidth, cols int) string {
	var rows []string
	for i := 0; i < len(m.checks); i += cols {
		end := min(i+cols, len(m.checks))

		var cards []string
		for j := i; j < end; j++ {
			cards = append(cards, m.renderCard(m.checks[j], cardWidth, j == m.selectedIndex))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderCard(c CheckState, width int, selected bool) string {
	var b strings.Builder

	borderColor := colorSubtle
	icon := "○"
	switch {
	case m.running:
		borderColor = colorChecking
		icon = m.spinner.View()
	case !c.Known:
	case c.Status == readiness.StatusPass:
		borderColor = colorPass
		icon = passStyle.Render("✓")
	default:
		borderColor = colorFail
		icon = failStyle.Render("✗")
	}

	b.WriteString(icon + " " + nameStyle.Render(truncate(c.Name, width-6)))
	b.WriteString("\n")

	switch {
	case !c.Known:
		b.WriteString(secondaryStyle.Render("Waiting..."))
	case c.Status == readiness.StatusPass:
		b.WriteString(secondaryStyle.Render(formatDuration(c.Duration) + " • " + formatTime(c.LastChecked)))
	default:
		b.WriteString(errorStyle.Render(truncate(c.Message, width-4)))
	}

	style := baseCardStyle.Width(width).BorderForeground(borderColor)
	if selected {
		style = style.Border(lipgloss.ThickBorder())
	}
	return style.Render(b.String())
}

// renderDetail shows everything known about one check
func (m Model) renderDetail(c CheckState, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(c.Name))
	b.WriteString("\n")
	b.WriteString(secondaryStyle.Render(c.Description))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(nameStyle.Render(fmt.Sprintf("%-9s", label)))
		b.WriteString(" " + value + "\n")
	}

	if c.Target != "" {
		row("Target", c.Target)
	}
	switch {
	case !c.Known:
		row("Status", secondaryStyle.Render("not run yet"))
	case c.Status == readiness.StatusPass:
		row("Status", passStyle.Render("pass"))
	default:
		row("Status", failStyle.Render("fail"))
	}
	if c.Known {
		row("Duration", formatDuration(c.Duration))
		row("Checked", c.LastChecked.Format(time.TimeOnly))
	}
	if c.Message != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width - 10).Render(errorStyle.Render(c.Message)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(secondaryStyle.Render("esc / enter: back"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(width, max(m.height, lipgloss.Height(box)), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderFooter(width int) string {
	passed, _, _ := m.counts()

	left := fmt.Sprintf(" %s │ r: re-run  enter: details  q: quit", time.Now().Format(time.TimeOnly))
	right := fmt.Sprintf("%d/%d passing • every %s ", passed, len(m.checks), m.monitor.Interval())

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return lipgloss.NewStyle().
		Foreground(colorMuted).
		BorderTop(true).
		BorderForeground(colorSubtle).
		Width(width).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) counts() (passed, failed, pending int) {
	for _, c := range m.checks {
		switch {
		case !c.Known:
			pending++
		case c.Status == readiness.StatusPass:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, pending
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatTime(t time.Time) string {
	diff := time.Since(t)
	if diff < time.Minute {
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}
	return t.Format(time.TimeOnly)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 2 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
