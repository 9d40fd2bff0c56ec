package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the swipe views use.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorMuted   = colorOverlay1
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	ratingStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	openStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	closedStyle   = lipgloss.NewStyle().Foreground(colorPeach)
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(1, 2).
			Width(56)
	statusStyle    = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0).Padding(0, 1)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorError).Background(colorSurface0).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(colorTeal).Bold(true).Underline(true).Padding(0, 1)
)
