package tui

import "github.com/charmbracelet/lipgloss"

// Color constants
const (
	colorSky       = "#38BDF8"
	colorGreen     = "#22C55E"
	colorLightGray = "#9CA3AF"
	colorPurple    = "#7D56F4"
	colorAmber     = "#F59E0B"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorSky))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPurple)).Bold(true)
	processStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAmber)).Italic(true)
	finalStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(colorLightGray))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorLightGray)).Italic(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSky)).Bold(true)
)

var badgeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(lipgloss.Color(colorGreen)).
	Padding(0, 1)

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color(colorLightGray)).
	Padding(0, 1)
