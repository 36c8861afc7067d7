package models

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/mapper"
)

var dashNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newDashboard(t *testing.T, data DashboardData) DashboardModel {
	t.Helper()
	m := NewDashboardModel(DashboardOptions{
		Load: func(context.Context) (DashboardData, error) { return data, nil },
		Now:  func() time.Time { return dashNow },
		Days: 7,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(dashboardLoadedMsg{data: data})
	return next.(DashboardModel)
}

func sampleAlerts() []mapper.AlertRecord {
	maria := &mapper.PatientRecord{ID: 1, User: mapper.UserRef{FirstName: "Maria", LastName: "Silva"}}
	return []mapper.AlertRecord{
		{ID: 1, Title: "PA muito alta", RiskLevel: "critical", Patient: maria},
		{ID: 2, Title: "Glicemia alterada", RiskLevel: "moderate"},
		{ID: 3, Title: "Antigo", RiskLevel: "critical", IsDeleted: true},
	}
}

func TestDashboardKPIs(t *testing.T) {
	m := newDashboard(t, DashboardData{Roster: sampleRoster(), Alerts: sampleAlerts()})

	s := m.Stats()
	assert.Equal(t, 3, s.Patients)
	assert.Equal(t, 2, s.Appointments)
	assert.Equal(t, 1, s.RiskAppointments)
	assert.Equal(t, 1, s.CriticalAlerts)

	view := m.View()
	assert.Contains(t, view, "Pacientes totais")
	assert.Contains(t, view, "Alertas críticos")
	assert.Contains(t, view, "Maria Silva")
	assert.Contains(t, view, "2 consultas nos próximos 7 dias")
}

func TestDashboardAlertsTab(t *testing.T) {
	m := newDashboard(t, DashboardData{Roster: sampleRoster(), Alerts: sampleAlerts()})
	next, _ := m.Update(runes("2"))
	view := next.(DashboardModel).View()
	assert.Contains(t, view, "Alertas (2)")
	assert.Contains(t, view, "PA muito alta - Maria Silva")
	assert.NotContains(t, view, "Antigo")
}

func TestDashboardLogsNewAlertsOnly(t *testing.T) {
	alerts := sampleAlerts()
	m := newDashboard(t, DashboardData{Roster: sampleRoster(), Alerts: alerts})
	before := m.logStream.Len()

	next, _ := m.Update(dashboardLoadedMsg{data: DashboardData{Roster: sampleRoster(), Alerts: alerts}})
	m = next.(DashboardModel)
	assert.Equal(t, before, m.logStream.Len())

	alerts = append(alerts, mapper.AlertRecord{ID: 4, Title: "Nova", RiskLevel: "critical"})
	next, _ = m.Update(dashboardLoadedMsg{data: DashboardData{Roster: sampleRoster(), Alerts: alerts}})
	m = next.(DashboardModel)
	require.Equal(t, before+1, m.logStream.Len())
	assert.Equal(t, "error", m.logBuffer[len(m.logBuffer)-1].Level)
}

func TestDashboardLoadErrorKeepsLastData(t *testing.T) {
	m := newDashboard(t, DashboardData{Roster: sampleRoster()})
	next, _ := m.Update(dashboardLoadedMsg{err: errors.New("timeout")})
	m = next.(DashboardModel)

	assert.Equal(t, 3, m.Stats().Patients)
	assert.Contains(t, m.View(), "timeout")
}

func TestDashboardDraftEvents(t *testing.T) {
	ch := make(chan draft.Event, 1)
	m := NewDashboardModel(DashboardOptions{
		Load:   func(context.Context) (DashboardData, error) { return DashboardData{}, nil },
		Drafts: ch,
		Now:    func() time.Time { return dashNow },
	})
	f := form.New()
	f.Socio.Nome = "Maria Silva"
	next, cmd := m.Update(draftEventMsg{ev: draft.Event{UID: "7", Draft: &draft.Draft{UID: "7", Form: f}}, ok: true})
	m = next.(DashboardModel)
	assert.NotNil(t, cmd, "keeps listening")
	require.Equal(t, 1, m.logStream.Len())
	assert.Contains(t, m.logBuffer[0].Message, "Rascunho salvo")

	next, _ = m.Update(draftEventMsg{ok: false})
	assert.Equal(t, "warn", next.(DashboardModel).logBuffer[1].Level)
}

func TestDashboardQuit(t *testing.T) {
	m := newDashboard(t, DashboardData{})
	next, cmd := m.Update(runes("q"))
	assert.True(t, next.(DashboardModel).quitting)
	assert.NotNil(t, cmd)
}
