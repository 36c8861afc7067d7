package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	RoundedBorder = lipgloss.RoundedBorder()
	ThinBorder    = lipgloss.NormalBorder()
)

// ---------------------------------------------------------------------------
// Panels
// ---------------------------------------------------------------------------

// Panel is the default bordered container.
var Panel = lipgloss.NewStyle().
	Background(BgPanel).
	Border(RoundedBorder).
	BorderForeground(BorderNormal).
	Padding(0, 1)

// PanelFocused is Panel with the focus border.
var PanelFocused = Panel.BorderForeground(BorderFocused)

// ---------------------------------------------------------------------------
// Badges
// ---------------------------------------------------------------------------

// Badge returns an inline colored badge such as "● Crítico".
func Badge(text string, color lipgloss.Color) string {
	dot := lipgloss.NewStyle().Foreground(color).Render("●")
	return dot + " " + lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}

// RiskBadge renders a risk level with its color.
func RiskBadge(risk string) string {
	if risk == "" {
		return Dim("sem risco")
	}
	return Badge(risk, RiskColor(risk))
}

// ---------------------------------------------------------------------------
// Typography
// ---------------------------------------------------------------------------

var (
	Title     = lipgloss.NewStyle().Foreground(AccentPrimary).Bold(true)
	Subtitle  = lipgloss.NewStyle().Foreground(TextSecondary)
	Label     = lipgloss.NewStyle().Foreground(TextMuted)
	Value     = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	ErrorText = lipgloss.NewStyle().Foreground(StatusError)
	WarnText  = lipgloss.NewStyle().Foreground(StatusWarn)
)

// TableHeader is used for column headings.
var TableHeader = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Bold(true)

// TableRow returns a zebra-striped row style.
func TableRow(even bool) lipgloss.Style {
	bg := BgPanel
	if !even {
		bg = BgSurface
	}
	return lipgloss.NewStyle().Foreground(TextPrimary).Background(bg)
}

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(BorderNormal).Render(strings.Repeat("─", width))
}

// DisableColor strips every color for --no-color and non-terminal output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
