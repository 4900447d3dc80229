package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpBindings defines all keyboard shortcuts shown in the help overlay.
var helpBindings = []HelpBinding{
	{Key: "q / Ctrl+C", Desc: "Quit"},
	{Key: "p", Desc: "Pause / resume polling"},
	{Key: "+ / -", Desc: "Slower / faster refresh"},
	{Key: "1 / 2 / 3", Desc: "Running / waiting / blocking mode"},
	{Key: "t c m r w", Desc: "Sort: time, CPU, memory, read, write"},
	{Key: "up / k", Desc: "Focus previous backend"},
	{Key: "down / j", Desc: "Focus next backend"},
	{Key: "PgUp / PgDn", Desc: "Move focus by a page"},
	{Key: "Home / End", Desc: "Focus first / last backend"},
	{Key: "Space", Desc: "Pin / unpin focused backend"},
	{Key: "Enter", Desc: "Expand focused backend"},
	{Key: "Esc", Desc: "Clear selection / close"},
	{Key: "C", Desc: "Cancel selected queries"},
	{Key: "K", Desc: "Terminate selected backends"},
	{Key: "?", Desc: "Toggle this help"},
}

// Help overlay styles
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(14)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
// The baseContent parameter is preserved for future overlay blending.
func (m Model) renderHelpOverlay(_ string) string {
	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	for _, binding := range helpBindings {
		line := helpKeyStyle.Render(binding.Key) + helpDescStyle.Render(binding.Desc)
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, helpDescStyle.Render("Press ? to close"))

	helpContent := strings.Join(lines, "\n")
	helpBox := helpBoxStyle.Render(helpContent)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg),
	)
}
