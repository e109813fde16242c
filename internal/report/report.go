package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/goodparty/infracheck/internal/readiness"
)

// Format selects how a report is written.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text or yaml)", s)
	}
}

var (
	colorPass  = lipgloss.Color("#00FF94")
	colorFail  = lipgloss.Color("#FF0055")
	colorMuted = lipgloss.Color("#565f89")
)

// Write renders r to w. Colours are only emitted when w is a terminal.
func Write(w io.Writer, r readiness.Report, format Format) error {
	switch format {
	case FormatYAML:
		return writeYAML(w, r)
	default:
		return writeText(w, r)
	}
}

func writeText(w io.Writer, r readiness.Report) error {
	renderer := lipgloss.NewRenderer(w)
	passStyle := renderer.NewStyle().Foreground(colorPass).Bold(true)
	failStyle := renderer.NewStyle().Foreground(colorFail).Bold(true)
	mutedStyle := renderer.NewStyle().Foreground(colorMuted)

	width := 0
	for _, res := range r.Results {
		if len(res.Name) > width {
			width = len(res.Name)
		}
	}

	var b strings.Builder
	for _, res := range r.Results {
		name := fmt.Sprintf("%-*s", width, res.Name)
		if res.Passed() {
			fmt.Fprintf(&b, "%s %s  %s\n", passStyle.Render("✓"), name, mutedStyle.Render(formatDuration(res.Duration)))
			continue
		}
		fmt.Fprintf(&b, "%s %s  %s\n", failStyle.Render("✗"), name, res.Message)
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d checks, %d passed, %d failed in %s",
		len(r.Results), r.PassCount(), r.FailCount(), formatDuration(r.Duration()))
	if r.Status() == readiness.StatusPass {
		b.WriteString(passStyle.Render("READY") + " " + summary + "\n")
	} else {
		b.WriteString(failStyle.Render("NOT READY") + " " + summary + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type yamlCheck struct {
	Name     string `yaml:"name"`
	Status   string `yaml:"status"`
	Message  string `yaml:"message,omitempty"`
	Duration string `yaml:"duration"`
}

type yamlReport struct {
	Status    string      `yaml:"status"`
	Passed    int         `yaml:"passed"`
	Failed    int         `yaml:"failed"`
	StartedAt time.Time   `yaml:"started_at"`
	Duration  string      `yaml:"duration"`
	Checks    []yamlCheck `yaml:"checks"`
}

func writeYAML(w io.Writer, r readiness.Report) error {
	out := yamlReport{
		Status:    string(r.Status()),
		Passed:    r.PassCount(),
		Failed:    r.FailCount(),
		StartedAt: r.StartedAt,
		Duration:  formatDuration(r.Duration()),
		Checks:    make([]yamlCheck, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		out.Checks = append(out.Checks, yamlCheck{
			Name:     res.Name,
			Status:   string(res.Status),
			Message:  res.Message,
			Duration: formatDuration(res.Duration),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
