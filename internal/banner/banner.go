package banner

import (
	"roomload/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

const ascii = `
                              __                __
   _________  ____  ____ ___ / /___  ____ _____/ /
  / ___/ __ \/ __ \/ __ '__ \/ / __ \/ __ '/ __  /
 / /  / /_/ / /_/ / / / / / / / /_/ / /_/ / /_/ /
/_/   \____/\____/_/ /_/ /_/_/\____/\__,_/\__,_/   `

func GetString() string {
	style := lipgloss.DefaultRenderer().NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n"
}
