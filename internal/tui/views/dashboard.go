package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/components"
	"github.com/rastreiamais/rastreia/internal/tui/models"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// RunDashboard launches the full-screen manager dashboard.
func RunDashboard(opts models.DashboardOptions) error {
	p := tea.NewProgram(models.NewDashboardModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// RenderDashboardOnce renders the KPIs as a single frame for
// `dashboard --once` and piping.
func RenderDashboardOnce(s roster.Stats, width int) string {
	if width < 40 {
		width = 80
	}
	half := width / 2

	kpis := []struct {
		label string
		tile  components.StatTile
	}{
		{"Pacientes totais", components.StatTile{Value: s.Patients}},
		{"Agendamentos em risco", components.StatTile{Value: s.RiskAppointments, Warn: 1, Critical: 10}},
		{"Atendimentos", components.StatTile{Value: s.Appointments}},
		{"Alertas críticos", components.StatTile{Value: s.CriticalAlerts, Critical: 1}},
	}
	var lines []string
	for _, k := range kpis {
		k.tile.Label = k.label
		lines = append(lines, styles.Label.Width(24).Render(k.label+":")+k.tile.RenderInline())
	}
	left := dashQuadrantPanel("Indicadores", lipgloss.JoinVertical(lipgloss.Left, lines...), half)

	bar := components.RiskBar{Seguro: s.Seguro, Moderado: s.Moderado, Critico: s.Critico, Width: max(width-half-8, 10)}
	total := 0
	for _, n := range s.Upcoming {
		total += n
	}
	right := dashQuadrantPanel("Risco e agenda", lipgloss.JoinVertical(lipgloss.Left,
		bar.Render(),
		"",
		lipgloss.NewStyle().Foreground(styles.AccentPrimary).Render(styles.Sparkline(s.Upcoming))+
			styles.Dim(fmt.Sprintf("  %d consultas em %d dias", total, len(s.Upcoming))),
	), width-half)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// RenderCompactStatus returns a one-line KPI summary.
func RenderCompactStatus(s roster.Stats) string {
	sep := lipgloss.NewStyle().Foreground(styles.TextMuted).Render(" | ")
	parts := []string{
		lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true).Render(fmt.Sprintf("P:%d", s.Patients)),
		lipgloss.NewStyle().Foreground(styles.StatusWarn).Bold(true).Render(fmt.Sprintf("R:%d", s.RiskAppointments)),
		lipgloss.NewStyle().Foreground(styles.AccentSecondary).Bold(true).Render(fmt.Sprintf("A:%d", s.Appointments)),
		lipgloss.NewStyle().Foreground(styles.StatusError).Bold(true).Render(fmt.Sprintf("!%d", s.CriticalAlerts)),
	}
	return strings.Join(parts, sep)
}

// dashQuadrantPanel wraps content in a bordered panel with a styled title.
func dashQuadrantPanel(title string, content string, width int) string {
	titleStr := lipgloss.NewStyle().
		Foreground(styles.AccentPrimary).
		Bold(true).
		Render(title)

	innerWidth := max(width-4, 10)
	return lipgloss.NewStyle().
		Background(styles.BgPanel).
		Border(styles.RoundedBorder).
		BorderForeground(styles.BorderNormal).
		Padding(0, 1).
		Width(innerWidth).
		Render(titleStr + "\n" + content)
}
