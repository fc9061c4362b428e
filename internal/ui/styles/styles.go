// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the dashboard theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("#6366f1") // Indigo
	Secondary = lipgloss.Color("63")      // Purple
	Subtle    = lipgloss.Color("240")     // Gray

	// Card accents
	DailyAccent    = lipgloss.Color("#3b82f6") // Blue
	MonthlyAccent  = lipgloss.Color("#ef4444") // Red
	PeakDayAccent  = lipgloss.Color("#eab308") // Yellow
	LifetimeAccent = lipgloss.Color("#22c55e") // Green

	// ChartLine is the usage series color.
	ChartLine = lipgloss.Color("#6366f1")

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Warning = lipgloss.Color("220") // Yellow

	BgDark = lipgloss.Color("235")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for panel headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// StatCardStyle is the compact card used for the summary counters.
var StatCardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

// StatLabelStyle styles the labels of the stats list.
var StatLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// StatValueStyle styles values in cards and the stats list.
var StatValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Bold(true)

// FocusedStyle marks the focused chart point and its tooltip.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)
