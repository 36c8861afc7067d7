package health

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

var categoryOrder = []string{CategoryConfig, CategorySession, CategoryBackend, CategoryDrafts}

func categoryLabel(cat string) string {
	switch cat {
	case CategoryConfig:
		return "Configuração"
	case CategorySession:
		return "Sessão"
	case CategoryBackend:
		return "Servidor"
	case CategoryDrafts:
		return "Rascunhos"
	default:
		return cat
	}
}

// FormatReport renders r as a styled table grouped by category.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("\n  " + styles.Title.Render("Diagnóstico do Rastreia+") + "\n")
	b.WriteString("  " + styles.Divider(56) + "\n")

	grouped := make(map[string][]CheckResult)
	for _, res := range r.Results {
		grouped[res.Category] = append(grouped[res.Category], res)
	}

	nameStyle := lipgloss.NewStyle().Width(18).Foreground(styles.TextPrimary)
	msgStyle := lipgloss.NewStyle().Width(44).Foreground(styles.TextSecondary)
	durStyle := lipgloss.NewStyle().Width(8).Foreground(styles.TextMuted).Align(lipgloss.Right)
	catStyle := lipgloss.NewStyle().Foreground(styles.AccentSecondary).Bold(true).MarginTop(1)

	for _, cat := range categoryOrder {
		results := grouped[cat]
		if len(results) == 0 {
			continue
		}
		b.WriteString("\n  " + catStyle.Render(categoryLabel(cat)) + "\n")
		for _, res := range results {
			fmt.Fprintf(&b, "  %s %s %s %s\n",
				statusSymbol(res.Status),
				nameStyle.Render(res.Name),
				msgStyle.Render(styles.TruncateWithEllipsis(res.Message, 42)),
				durStyle.Render(formatDuration(res.Duration)),
			)
		}
	}

	b.WriteString("\n  " + styles.Divider(56) + "\n")
	summary := fmt.Sprintf("%d/%d ok", r.Passed, r.Total)
	if r.Warned > 0 {
		summary += fmt.Sprintf(", %d aviso(s)", r.Warned)
	}
	if r.Failed > 0 {
		summary += fmt.Sprintf(", %d falha(s)", r.Failed)
	}
	b.WriteString("  " + styles.Subtitle.Render(summary) + "  " + overallBadge(r) + "\n")
	b.WriteString(styles.Dim("  concluído em "+formatDuration(r.Duration)) + "\n")

	return b.String()
}

func statusSymbol(s Status) string {
	switch s {
	case StatusPass:
		return lipgloss.NewStyle().Foreground(styles.StatusOK).Bold(true).Render("+")
	case StatusWarn:
		return lipgloss.NewStyle().Foreground(styles.StatusWarn).Bold(true).Render("!")
	case StatusFail:
		return lipgloss.NewStyle().Foreground(styles.StatusError).Bold(true).Render("x")
	default:
		return styles.Dim("?")
	}
}

func overallBadge(r *Report) string {
	switch {
	case r.Failed > 0:
		return styles.Badge("COM FALHAS", styles.StatusError)
	case r.Warned > 0:
		return styles.Badge("COM AVISOS", styles.StatusWarn)
	}
	return styles.Badge("OK", styles.StatusOK)
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		return "<1ms"
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000.0)
}
