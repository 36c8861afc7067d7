package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// StatTile shows one dashboard count. Warn and Critical are the thresholds
// at which the value turns amber and red; zero disables a threshold.
type StatTile struct {
	Label    string
	Value    int
	Warn     int
	Critical int
}

func (s StatTile) color() lipgloss.Color {
	switch {
	case s.Critical > 0 && s.Value >= s.Critical:
		return styles.StatusError
	case s.Warn > 0 && s.Value >= s.Warn:
		return styles.StatusWarn
	}
	return styles.TextPrimary
}

// Render returns the value above its label.
func (s StatTile) Render() string {
	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(s.color()).Bold(true).Render(strconv.Itoa(s.Value)),
		styles.Dim(s.Label),
	)
}

// RenderInline returns just the colored value.
func (s StatTile) RenderInline() string {
	return lipgloss.NewStyle().Foreground(s.color()).Bold(true).Render(strconv.Itoa(s.Value))
}
