package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rastreiamais/rastreia/internal/roster"
)

func TestRenderDashboardOnce(t *testing.T) {
	s := roster.Stats{
		Patients: 12, RiskAppointments: 3, Appointments: 20, CriticalAlerts: 1,
		Seguro: 8, Moderado: 3, Critico: 1,
		Upcoming: []int{1, 0, 2, 4},
	}
	out := RenderDashboardOnce(s, 120)
	assert.Contains(t, out, "Pacientes totais")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "7 consultas em 4 dias")
}

func TestRenderCompactStatus(t *testing.T) {
	out := RenderCompactStatus(roster.Stats{Patients: 5, RiskAppointments: 2, Appointments: 9, CriticalAlerts: 1})
	assert.Contains(t, out, "P:5")
	assert.Contains(t, out, "R:2")
	assert.Contains(t, out, "A:9")
	assert.Contains(t, out, "!1")
}
