package monitor

import "github.com/charmbracelet/lipgloss"

// Color palette
const (
	ColorDarkBg    = lipgloss.Color("#0D1117")
	ColorSurfaceBg = lipgloss.Color("#161B22")
	ColorBorder    = lipgloss.Color("#30363D")

	ColorHealthy  = lipgloss.Color("#3FB950")
	ColorWarning  = lipgloss.Color("#D29922")
	ColorCritical = lipgloss.Color("#F85149")

	ColorTextPrimary   = lipgloss.Color("#E6EDF3")
	ColorTextSecondary = lipgloss.Color("#8B949E")
	ColorTextMuted     = lipgloss.Color("#484F58")

	ColorAccent    = lipgloss.Color("#58A6FF")
	ColorAccentDim = lipgloss.Color("#1F6FEB")
)

// CPU thresholds for row coloring.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	StatusLineStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Padding(0, 1)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary).
				Bold(true)

	RowStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	RowFocusedStyle = lipgloss.NewStyle().
			Foreground(ColorDarkBg).
			Background(ColorAccent).
			Bold(true)

	RowPinnedStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	RowHighRiskStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Bold(true)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ConfirmStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true).
			Padding(0, 1)

	ModeActiveStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ModeInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextMuted)
)
