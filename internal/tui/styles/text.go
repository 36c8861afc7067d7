package styles

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cyan renders s in the primary accent.
func Cyan(s string) string {
	return lipgloss.NewStyle().Foreground(AccentPrimary).Render(s)
}

// Gold renders s in AccentGold.
func Gold(s string) string {
	return lipgloss.NewStyle().Foreground(AccentGold).Render(s)
}

// Green renders s in StatusOK.
func Green(s string) string {
	return lipgloss.NewStyle().Foreground(StatusOK).Render(s)
}

// Red renders s in StatusError.
func Red(s string) string {
	return lipgloss.NewStyle().Foreground(StatusError).Render(s)
}

// Dim renders s in TextMuted.
func Dim(s string) string {
	return lipgloss.NewStyle().Foreground(TextMuted).Render(s)
}

// Bold renders s in bold TextPrimary.
func Bold(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(TextPrimary).Render(s)
}

var blockRamp = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline draws one bar per value, scaled between zero and the maximum.
// Used for per-day appointment counts.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	hi := 0
	for _, v := range values {
		if v > hi {
			hi = v
		}
	}
	var b strings.Builder
	for _, v := range values {
		if hi == 0 || v <= 0 {
			b.WriteRune(' ')
			continue
		}
		idx := int(math.Round(float64(v) / float64(hi) * float64(len(blockRamp)-1)))
		b.WriteRune(blockRamp[idx])
	}
	return lipgloss.NewStyle().Foreground(AccentPrimary).Render(b.String())
}

// TruncateWithEllipsis shortens s to max runes, appending "..." when
// truncation occurs. If max is less than 4 the string is simply cut.
func TruncateWithEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 4 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
