package models

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/components"
)

func strp(s string) *string { return &s }

func sampleRoster() roster.Roster {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	patients := []mapper.PatientRecord{
		{ID: 1, User: mapper.UserRef{FirstName: "Maria", LastName: "Silva"}, PatientPayload: mapper.PatientPayload{CPF: strp("12345678901")}},
		{ID: 2, User: mapper.UserRef{FirstName: "Ana", LastName: "Souza"}, PatientPayload: mapper.PatientPayload{CPF: strp("98765432100")}},
		{ID: 3, User: mapper.UserRef{FirstName: "Carlos", LastName: "Lima"}, PatientPayload: mapper.PatientPayload{CPF: strp("11122233344")}},
	}
	has := []mapper.HASRecord{{ID: 10, HASPayload: mapper.HASPayload{Patient: 1}}}
	dm := []mapper.DMRecord{{ID: 20, DMPayload: mapper.DMPayload{Patient: 2}}}
	appts := []mapper.AppointmentRecord{
		{ID: 30, Patient: mapper.UserRef{ID: 1}, RiskLevel: mapper.RiskCritico, ScheduledDatetime: "2026-10-20T09:00:00Z"},
		{ID: 31, Patient: mapper.UserRef{ID: 2}, RiskLevel: mapper.RiskSeguro, ScheduledDatetime: "2026-10-19T09:00:00Z"},
	}
	return roster.Build(patients, has, dm, appts, now)
}

func loadedBrowser(t *testing.T) PatientsModel {
	t.Helper()
	r := sampleRoster()
	m := NewPatientsModel(func(context.Context) (roster.Roster, error) { return r, nil }, roster.FilterAll, "", components.Header{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.Update(rosterLoadedMsg{r: r})
	return next.(PatientsModel)
}

func browse(m PatientsModel, keys ...tea.KeyMsg) PatientsModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(PatientsModel)
	}
	return m
}

func names(rows []roster.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestBrowserListsSortedByName(t *testing.T) {
	m := loadedBrowser(t)
	assert.Equal(t, []string{"Ana Souza", "Carlos Lima", "Maria Silva"}, names(m.Visible()))
	view := m.View()
	assert.Contains(t, view, "3 de 3 pacientes")
	assert.Contains(t, view, "Maria Silva")
}

func TestBrowserFilterTabs(t *testing.T) {
	m := loadedBrowser(t)
	m = browse(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, []string{"Maria Silva"}, names(m.Visible()))

	m = browse(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, []string{"Ana Souza"}, names(m.Visible()))

	m = browse(m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Len(t, m.Visible(), 3)
}

func TestBrowserSearch(t *testing.T) {
	m := loadedBrowser(t)
	m = browse(m, runes("/"), runes("car"))
	assert.Equal(t, []string{"Carlos Lima"}, names(m.Visible()))

	m = browse(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Len(t, m.Visible(), 3)

	m = browse(m, runes("98765"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.searchMode)
	assert.Equal(t, []string{"Ana Souza"}, names(m.Visible()))

	m = browse(m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.Visible(), 3)
}

func TestBrowserSortByRisk(t *testing.T) {
	m := loadedBrowser(t)
	m = browse(m, runes("s"), runes("S"))
	assert.Equal(t, "risk", m.sortBy)
	assert.Equal(t, []string{"Maria Silva", "Ana Souza", "Carlos Lima"}, names(m.Visible()))
}

func TestBrowserDetailAndEdit(t *testing.T) {
	m := loadedBrowser(t)
	m = browse(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.detailView)
	assert.Contains(t, m.View(), "Maria Silva")

	next, cmd := m.Update(runes("e"))
	m = next.(PatientsModel)
	id, ok := m.EditRequested()
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.NotNil(t, cmd)
}

func TestBrowserNewRequested(t *testing.T) {
	m := loadedBrowser(t)
	m = browse(m, runes("n"))
	assert.True(t, m.NewRequested())
}

func TestBrowserLoadError(t *testing.T) {
	m := NewPatientsModel(nil, roster.FilterAll, "", components.Header{})
	next, _ := m.Update(rosterLoadedMsg{err: errors.New("connection refused")})
	view := next.(PatientsModel).View()
	assert.Contains(t, view, "Falha ao carregar pacientes")
}

func TestBrowserInitialFilterAndSearch(t *testing.T) {
	r := sampleRoster()
	m := NewPatientsModel(func(context.Context) (roster.Roster, error) { return r, nil }, roster.FilterCritical, "", components.Header{})
	next, _ := m.Update(rosterLoadedMsg{r: r})
	assert.Equal(t, []string{"Maria Silva"}, names(next.(PatientsModel).Visible()))

	m = NewPatientsModel(nil, roster.FilterAll, "lima", components.Header{})
	next, _ = m.Update(rosterLoadedMsg{r: r})
	assert.Equal(t, []string{"Carlos Lima"}, names(next.(PatientsModel).Visible()))
}
