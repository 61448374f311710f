package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: one accent over neutral grays.
const (
	ColorAccent   = "39"  // Primary accent, sky blue
	ColorAccentLo = "31"  // Dimmed accent for inactive items
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Box borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds all UI styles for TUI rendering.
type Styles struct {
	// Text styles
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Dim      lipgloss.Style
	Stage    lipgloss.Style
	Active   lipgloss.Style
	Progress lipgloss.Style
	Label    lipgloss.Style

	// Picker styles
	Selected lipgloss.Style
	Folder   lipgloss.Style
	App      lipgloss.Style
	Path     lipgloss.Style

	Panel lipgloss.Style
}

// DefaultStyles returns styled components for TUI mode.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Stage:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentLo)),
		Active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Progress: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Folder:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		App:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Path:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:   plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Dim:      plain,
		Stage:    plain,
		Active:   plain,
		Progress: plain,
		Label:    plain,
		Selected: plain,
		Folder:   plain,
		App:      plain,
		Path:     plain,
		Panel:    plain,
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
