package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// PatientCard summarizes one patient.
type PatientCard struct {
	Name      string
	CPF       string
	HAS       bool
	DM        bool
	Risk      string
	NextVisit string
}

func (p PatientCard) conditions() string {
	var cs []string
	if p.HAS {
		cs = append(cs, "HAS")
	}
	if p.DM {
		cs = append(cs, "DM")
	}
	if len(cs) == 0 {
		return "sem HAS/DM"
	}
	return strings.Join(cs, " + ")
}

// Render returns a two-line bordered card.
func (p PatientCard) Render() string {
	line1 := styles.Value.Render(p.Name) + "  " + styles.RiskBadge(p.Risk)
	sep := styles.Dim("  │  ")
	line2 := styles.Label.Render("CPF: ") + styles.Subtitle.Render(p.CPF) + sep +
		styles.Label.Render("Condições: ") + styles.Subtitle.Render(p.conditions())
	if p.NextVisit != "" {
		line2 += sep + styles.Label.Render("Próxima consulta: ") + styles.Subtitle.Render(p.NextVisit)
	}
	return lipgloss.NewStyle().
		Background(styles.BgSurface).
		Border(styles.ThinBorder).
		BorderForeground(styles.RiskColor(p.Risk)).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, line1, line2))
}

// RenderCompact returns a single line for tables.
func (p PatientCard) RenderCompact() string {
	dot := lipgloss.NewStyle().Foreground(styles.RiskColor(p.Risk)).Render("●")
	return dot + " " + lipgloss.NewStyle().Width(28).Render(styles.TruncateWithEllipsis(p.Name, 28)) +
		" " + styles.Dim(p.conditions())
}
