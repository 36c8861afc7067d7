package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// RiskBar draws the share of alerts per risk level as one stacked bar with
// a legend underneath.
type RiskBar struct {
	Seguro   int
	Moderado int
	Critico  int
	Width    int
}

// Segments returns the cell widths of the three levels. They add up to
// width, and any non-zero level gets at least one cell.
func (r RiskBar) Segments(width int) [3]int {
	counts := [3]int{r.Seguro, r.Moderado, r.Critico}
	total := counts[0] + counts[1] + counts[2]
	var seg [3]int
	if total == 0 || width <= 0 {
		return seg
	}
	used := 0
	for i, c := range counts {
		seg[i] = c * width / total
		if c > 0 && seg[i] == 0 {
			seg[i] = 1
		}
		used += seg[i]
	}
	// give the rounding remainder (or take the overflow) from the largest
	big := 0
	for i := range seg {
		if seg[i] > seg[big] {
			big = i
		}
	}
	seg[big] += width - used
	return seg
}

// Render returns the bar and legend.
func (r RiskBar) Render() string {
	width := r.Width
	if width <= 0 {
		width = 40
	}
	colors := [3]lipgloss.Color{styles.StatusOK, styles.StatusWarn, styles.StatusError}
	seg := r.Segments(width)

	var bar strings.Builder
	for i, n := range seg {
		if n > 0 {
			bar.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Render(strings.Repeat("█", n)))
		}
	}
	if bar.Len() == 0 {
		bar.WriteString(styles.Dim(strings.Repeat("░", width)))
	}

	legend := fmt.Sprintf("%s %d   %s %d   %s %d",
		styles.Badge("Seguro", styles.StatusOK), r.Seguro,
		styles.Badge("Moderado", styles.StatusWarn), r.Moderado,
		styles.Badge("Crítico", styles.StatusError), r.Critico,
	)
	return bar.String() + "\n" + legend
}
