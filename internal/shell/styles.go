package shell

import "github.com/charmbracelet/lipgloss"

var (
	coachOrange  = lipgloss.Color("#d97757") // Primary accent
	coachBlue    = lipgloss.Color("#6a9bcc") // Secondary accent
	coachGreen   = lipgloss.Color("#788c5d") // Tertiary accent
	coachMidGray = lipgloss.Color("#b0aea5") // Secondary elements

	primaryColor = coachOrange
	accentColor  = coachBlue
	successColor = coachGreen
	errorColor   = lipgloss.Color("#c45c4a")
	dimTextColor = coachMidGray

	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(dimTextColor).
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	coachStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	errorMsgStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successMsgStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimTextColor)

	statusDone = lipgloss.NewStyle().
			Foreground(successColor)

	statusActive = lipgloss.NewStyle().
			Foreground(coachOrange).
			Bold(true)

	statusHold = lipgloss.NewStyle().
			Foreground(dimTextColor)
)
