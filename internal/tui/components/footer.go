package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// KeyHint describes a single keybinding hint for display in the footer.
type KeyHint struct {
	Key  string
	Desc string
}

// Footer renders context-aware keybinding hints.
type Footer struct {
	Hints []KeyHint
	Width int
}

// Render returns the styled footer string.
func (f Footer) Render() string {
	width := f.Width
	if width <= 0 {
		width = 80
	}

	keyStyle := lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true)
	parts := make([]string, 0, len(f.Hints))
	for _, h := range f.Hints {
		parts = append(parts, keyStyle.Render(h.Key)+" "+styles.Dim(h.Desc))
	}

	return lipgloss.NewStyle().
		Background(styles.BgDeep).
		Width(width).
		Padding(0, 1).
		Render(strings.Join(parts, styles.Dim(" • ")))
}

// WizardFooter is shown while moving between fields.
func WizardFooter(width int) Footer {
	return Footer{
		Hints: []KeyHint{
			{Key: "↑↓", Desc: "campo"},
			{Key: "←→", Desc: "opção ou etapa"},
			{Key: "enter", Desc: "editar"},
			{Key: "ctrl+n/ctrl+p", Desc: "etapa"},
			{Key: "ctrl+s", Desc: "salvar"},
			{Key: "esc", Desc: "sair"},
		},
		Width: width,
	}
}

// EditingFooter is shown while a text field is being typed into.
func EditingFooter(width int) Footer {
	return Footer{
		Hints: []KeyHint{
			{Key: "enter", Desc: "confirmar"},
			{Key: "esc", Desc: "cancelar"},
		},
		Width: width,
	}
}

// BrowserFooter is shown by the patient list.
func BrowserFooter(width int) Footer {
	return Footer{
		Hints: []KeyHint{
			{Key: "↑↓", Desc: "navegar"},
			{Key: "enter", Desc: "detalhes"},
			{Key: "tab", Desc: "filtro"},
			{Key: "/", Desc: "buscar"},
			{Key: "r", Desc: "recarregar"},
			{Key: "q", Desc: "sair"},
		},
		Width: width,
	}
}

// DashboardFooter is shown by the dashboard.
func DashboardFooter(width int) Footer {
	return Footer{
		Hints: []KeyHint{
			{Key: "r", Desc: "recarregar"},
			{Key: "↑↓", Desc: "rolar atividade"},
			{Key: "q", Desc: "sair"},
		},
		Width: width,
	}
}
