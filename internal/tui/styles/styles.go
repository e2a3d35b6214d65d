package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// --- Color Palette (Dark Mode) ---
var (
	ColorPrimary   = lipgloss.Color("#7D56F4") // Indigo/Purple
	ColorSecondary = lipgloss.Color("#04B575") // Green
	ColorError     = lipgloss.Color("#FF5F87") // Pink/Red
	ColorWarning   = lipgloss.Color("#FFAF00") // Gold
	ColorText      = lipgloss.Color("#FAFAFA")
	ColorSubtle    = lipgloss.Color("#767676")
	ColorBorder    = lipgloss.Color("#3C3C3C")
	ColorBanner    = lipgloss.Color("#B4005A") // Blood red, for the vampires
)

var (
	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorSubtle)

	Subtle = lipgloss.NewStyle().Foreground(ColorSubtle)

	Value  = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	Active = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	Error  = lipgloss.NewStyle().Foreground(ColorError)
	Warn   = lipgloss.NewStyle().Foreground(ColorWarning)

	KeyKey  = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	KeyDesc = lipgloss.NewStyle().Foreground(ColorSubtle)

	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Margin(0, 1)
)

func RenderKey(key, desc string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		KeyKey.Render("<"+key+">"),
		" ",
		KeyDesc.Render(desc),
	)
}

// ErrorRateStyle colours an error percentage: >5% red, >1% amber.
func ErrorRateStyle(pct float64) lipgloss.Style {
	switch {
	case pct > 5.0:
		return Error
	case pct > 1.0:
		return Warn
	default:
		return Value
	}
}
