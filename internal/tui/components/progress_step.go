package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// ProgressStep shows the wizard step indicator. Steps with errors are
// marked red, disabled steps are struck through and visited steps are green.
type ProgressStep struct {
	Steps    []string
	Current  int
	Visited  []bool
	Errors   []bool
	Disabled []bool
}

func flag(fs []bool, i int) bool { return i < len(fs) && fs[i] }

// Render returns the styled indicator on a single line.
func (p ProgressStep) Render() string {
	if len(p.Steps) == 0 {
		return ""
	}

	var parts []string
	for i, label := range p.Steps {
		dot, style := "○", lipgloss.NewStyle().Foreground(styles.TextMuted)
		switch {
		case flag(p.Disabled, i):
			dot, style = "–", style.Strikethrough(true)
		case i == p.Current:
			dot, style = "●", lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true)
		case flag(p.Errors, i):
			dot, style = "✕", lipgloss.NewStyle().Foreground(styles.StatusError)
		case flag(p.Visited, i):
			dot, style = "●", lipgloss.NewStyle().Foreground(styles.StatusOK)
		}
		parts = append(parts, style.Render(dot+" "+label))
	}
	return strings.Join(parts, "  ")
}
