package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// Header renders the app header bar: logo, screen title and the signed-in
// account.
type Header struct {
	Title   string
	User    string
	Role    string
	Profile string
	Width   int
}

// Render returns the styled header string.
func (h Header) Render() string {
	width := h.Width
	if width <= 0 {
		width = 80
	}

	sep := styles.Dim("  │  ")
	content := styles.Title.Render(styles.CompactLogo)
	if h.Title != "" {
		content += sep + styles.Value.Render(h.Title)
	}
	if h.User != "" {
		content += sep + styles.Label.Render("Usuário: ") + lipgloss.NewStyle().Foreground(styles.AccentGold).Render(h.User)
		if h.Role != "" {
			content += styles.Dim(" (" + h.Role + ")")
		}
	}
	if h.Profile != "" {
		content += sep + styles.Label.Render("Perfil: ") + styles.Subtitle.Render(h.Profile)
	}

	return lipgloss.NewStyle().
		Background(styles.BgDeep).
		Foreground(styles.TextPrimary).
		Width(width).
		Padding(0, 1).
		Render(content)
}
