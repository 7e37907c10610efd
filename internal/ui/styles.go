package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all lipgloss styles for terminal output
type Styles struct {
	enabled bool

	// Verdict styles
	Keep    lipgloss.Style
	Reject  lipgloss.Style
	Unclear lipgloss.Style
	Skip    lipgloss.Style

	// Structural styles
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Label     lipgloss.Style
	Muted     lipgloss.Style
	Separator lipgloss.Style

	// Icons (degraded to ASCII when not interactive)
	IconKeep    string
	IconReject  string
	IconUnclear string
	IconSkip    string
	IconBullet  string
}

// NewStyles creates a new Styles instance
// When enabled is false, styles return text unchanged (for non-TTY output)
func NewStyles(enabled bool) *Styles {
	s := &Styles{enabled: enabled}

	if enabled {
		s.Keep = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))    // Green
		s.Reject = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))   // Red
		s.Unclear = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Yellow
		s.Skip = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))     // Gray

		s.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")) // White bold
		s.Subheader = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Label = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // Cyan
		s.Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Separator = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

		s.IconKeep = "\u2713"   // ✓
		s.IconReject = "\u2717" // ✗
		s.IconUnclear = "?"
		s.IconSkip = "\u2298"   // ⊘
		s.IconBullet = "\u00b7" // ·
	} else {
		s.Keep = lipgloss.NewStyle()
		s.Reject = lipgloss.NewStyle()
		s.Unclear = lipgloss.NewStyle()
		s.Skip = lipgloss.NewStyle()

		s.Header = lipgloss.NewStyle()
		s.Subheader = lipgloss.NewStyle()
		s.Label = lipgloss.NewStyle()
		s.Muted = lipgloss.NewStyle()
		s.Separator = lipgloss.NewStyle()

		s.IconKeep = "KEEP:"
		s.IconReject = "REJECT:"
		s.IconUnclear = "UNCLEAR:"
		s.IconSkip = "SKIP:"
		s.IconBullet = "-"
	}

	return s
}

// Enabled returns whether styling is enabled
func (s *Styles) Enabled() bool {
	return s.enabled
}

// Check renders a pass/fail marker
func (s *Styles) Check(ok bool) string {
	if ok {
		return s.Keep.Render(s.IconKeep)
	}
	return s.Reject.Render(s.IconReject)
}
