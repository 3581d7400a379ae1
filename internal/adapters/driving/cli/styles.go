package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/clausesense/internal/core/domain"
)

// Palette used when writing to a terminal.
var (
	colorPrimary  = lipgloss.Color("#7C3AED")
	colorMuted    = lipgloss.Color("#6C7086")
	colorLow      = lipgloss.Color("#A6E3A1")
	colorMedium   = lipgloss.Color("#F9E2AF")
	colorHigh     = lipgloss.Color("#FAB387")
	colorCritical = lipgloss.Color("#F38BA8")
)

// reportStyles holds the styles for rendering reports.
// Plain styles are used when output is not a terminal.
type reportStyles struct {
	Title    lipgloss.Style
	Heading  lipgloss.Style
	Muted    lipgloss.Style
	Quote    lipgloss.Style
	severity map[domain.Severity]lipgloss.Style
}

func newReportStyles(w io.Writer) reportStyles {
	plain := lipgloss.NewStyle()
	s := reportStyles{
		Title:    plain,
		Heading:  plain,
		Muted:    plain,
		Quote:    plain.PaddingLeft(6),
		severity: map[domain.Severity]lipgloss.Style{},
	}
	if !isTerminal(w) {
		return s
	}

	r := lipgloss.NewRenderer(w)
	s.Title = r.NewStyle().Bold(true).Foreground(colorPrimary)
	s.Heading = r.NewStyle().Bold(true).Underline(true)
	s.Muted = r.NewStyle().Foreground(colorMuted)
	s.Quote = r.NewStyle().Italic(true).PaddingLeft(6).Foreground(colorMuted)
	s.severity[domain.SeverityLow] = r.NewStyle().Foreground(colorLow)
	s.severity[domain.SeverityMedium] = r.NewStyle().Foreground(colorMedium)
	s.severity[domain.SeverityHigh] = r.NewStyle().Bold(true).Foreground(colorHigh)
	s.severity[domain.SeverityCritical] = r.NewStyle().Bold(true).Foreground(colorCritical)
	return s
}

// Severity renders a severity label.
func (s reportStyles) Severity(sev domain.Severity) string {
	style, ok := s.severity[sev]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(sev.String())
}

// Level renders an overall risk level with the colour of the matching severity.
func (s reportStyles) Level(level string) string {
	sev, err := domain.ParseSeverity(level)
	if err != nil {
		return level
	}
	return s.Severity(sev)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
