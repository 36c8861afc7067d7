package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestRiskBarSegments(t *testing.T) {
	cases := []struct {
		name string
		bar  RiskBar
		want [3]int
	}{
		{"empty", RiskBar{}, [3]int{}},
		{"even", RiskBar{Seguro: 1, Moderado: 1, Critico: 2}, [3]int{10, 10, 20}},
		{"tiny share still shows", RiskBar{Seguro: 99, Critico: 1}, [3]int{39, 0, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.bar.Segments(40)
			assert.Equal(t, tc.want, got)
			if tc.bar.Seguro+tc.bar.Moderado+tc.bar.Critico > 0 {
				assert.Equal(t, 40, got[0]+got[1]+got[2])
			}
		})
	}
}

func TestConfirmDialogDefaultsToNo(t *testing.T) {
	d := NewConfirmDialog("Descartar rascunho?", "O rascunho será apagado.")
	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, d.Done)
	assert.False(t, d.Confirmed)

	d = NewConfirmDialog("x", "y")
	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyLeft})
	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, d.Confirmed)

	d = NewConfirmDialog("x", "y")
	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.True(t, d.Confirmed)
	assert.Contains(t, d.View(), "Sim")
}

func TestProgressStepLabels(t *testing.T) {
	out := ProgressStep{
		Steps:    []string{"Sociodemo", "Condições", "Clínica"},
		Current:  1,
		Visited:  []bool{true, true, false},
		Disabled: []bool{false, false, true},
	}.Render()
	for _, l := range []string{"Sociodemo", "Condições", "Clínica"} {
		assert.Contains(t, out, l)
	}
	assert.Empty(t, ProgressStep{}.Render())
}

func TestLogStreamTrims(t *testing.T) {
	l := NewLogStream(40, 5)
	l.maxLines = 3
	for i := 0; i < 5; i++ {
		l.AddLine(LogLine{Time: time.Now(), Level: "info", Source: "RASCUNHO", Message: strings.Repeat("x", i+1)})
	}
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "xxx", l.lines[0].Message)
}

func TestPatientCardConditions(t *testing.T) {
	assert.Equal(t, "HAS + DM", PatientCard{HAS: true, DM: true}.conditions())
	assert.Equal(t, "sem HAS/DM", PatientCard{}.conditions())
	assert.Contains(t, PatientCard{Name: "Maria Silva", Risk: "Crítico"}.Render(), "Maria Silva")
}

func TestStatTileThresholds(t *testing.T) {
	assert.Equal(t, "#ef4444", string(StatTile{Value: 5, Warn: 1, Critical: 5}.color()))
	assert.Equal(t, "#f59e0b", string(StatTile{Value: 2, Warn: 1, Critical: 5}.color()))
}
