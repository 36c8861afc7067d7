package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// ConfirmDialog is a modal yes/no question. It defaults to "Não".
type ConfirmDialog struct {
	Title     string
	Message   string
	Confirmed bool
	Done      bool
	selected  int // 0 = Sim, 1 = Não
}

// NewConfirmDialog creates a new confirmation dialog.
func NewConfirmDialog(title, message string) ConfirmDialog {
	return ConfirmDialog{Title: title, Message: message, selected: 1}
}

// Update handles the dialog keys.
func (d ConfirmDialog) Update(msg tea.Msg) (ConfirmDialog, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}
	switch key.String() {
	case "s", "S", "y", "Y":
		d.Confirmed, d.Done = true, true
	case "n", "N", "esc":
		d.Confirmed, d.Done = false, true
	case "enter":
		d.Confirmed, d.Done = d.selected == 0, true
	case "left", "h", "tab":
		d.selected = 0
	case "right", "l", "shift+tab":
		d.selected = 1
	}
	return d, nil
}

// View returns the styled dialog.
func (d ConfirmDialog) View() string {
	on := lipgloss.NewStyle().Background(styles.AccentPrimary).Foreground(styles.BgDeep).Bold(true).Padding(0, 1)
	off := lipgloss.NewStyle().Background(styles.BgSurface).Foreground(styles.TextSecondary).Padding(0, 1)

	yes, no := off.Render("Sim"), on.Render("Não")
	if d.selected == 0 {
		yes, no = on.Render("Sim"), off.Render("Não")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.Title.Render(d.Title),
		"",
		styles.Subtitle.Render(d.Message),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, yes, "  ", no),
		"",
		styles.Dim("s/n ou ←→ + enter"),
	)

	return lipgloss.NewStyle().
		Background(styles.BgPanel).
		Border(styles.RoundedBorder).
		BorderForeground(styles.AccentTertiary).
		Padding(1, 2).
		Width(52).
		Align(lipgloss.Center).
		Render(content)
}
