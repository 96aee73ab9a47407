package dialog

import "github.com/charmbracelet/lipgloss"

// Styles used by both dialogs.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the dialog styles.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Label:    lipgloss.NewStyle().Width(10),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1),
	}
}
