package styles

import "github.com/charmbracelet/lipgloss"

// Palette: dark slate backgrounds with the green-teal accents of the
// Rastreia+ web client.
var (
	BgDeep    = lipgloss.Color("#0b1215")
	BgPanel   = lipgloss.Color("#111b1f")
	BgSurface = lipgloss.Color("#182529")
	BgHover   = lipgloss.Color("#21343a")

	AccentPrimary   = lipgloss.Color("#2dd4bf") // teal, focus and primary actions
	AccentSecondary = lipgloss.Color("#60a5fa") // blue, section headings
	AccentTertiary  = lipgloss.Color("#a78bfa")
	AccentGold      = lipgloss.Color("#fbbf24")

	StatusOK    = lipgloss.Color("#22c55e")
	StatusWarn  = lipgloss.Color("#f59e0b")
	StatusError = lipgloss.Color("#ef4444")
	StatusInfo  = lipgloss.Color("#2dd4bf")

	TextPrimary   = lipgloss.Color("#e2e8f0")
	TextSecondary = lipgloss.Color("#94a3b8")
	TextMuted     = lipgloss.Color("#64748b")

	BorderNormal  = lipgloss.Color("#2b3b40")
	BorderFocused = lipgloss.Color("#2dd4bf")
)

// RiskColor maps the backend risk labels (Seguro, Moderado, Crítico) and
// their form tokens to status colors.
func RiskColor(risk string) lipgloss.Color {
	switch risk {
	case "Crítico", "critico", "Critico":
		return StatusError
	case "Moderado", "moderado":
		return StatusWarn
	case "Seguro", "seguro":
		return StatusOK
	}
	return TextMuted
}
