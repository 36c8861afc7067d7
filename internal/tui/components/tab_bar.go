package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// TabBar renders horizontal tab selection.
type TabBar struct {
	Tabs      []string
	ActiveTab int
	Width     int
}

// Render returns the styled tab bar string.
func (t TabBar) Render() string {
	if len(t.Tabs) == 0 {
		return ""
	}

	active := lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true).Underline(true).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(styles.TextSecondary).Padding(0, 1)

	tabs := make([]string, len(t.Tabs))
	for i, tab := range t.Tabs {
		if i == t.ActiveTab {
			tabs[i] = active.Render(tab)
		} else {
			tabs[i] = inactive.Render(tab)
		}
	}

	return lipgloss.NewStyle().
		Background(styles.BgDeep).
		Width(t.Width).
		Render(strings.Join(tabs, styles.Dim("│")))
}
