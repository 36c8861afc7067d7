package roster_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rastreiamais/rastreia/internal/api"
	"github.com/rastreiamais/rastreia/internal/api/apitest"
	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/roster"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func seed(srv *apitest.Server) {
	srv.SeedAt(apitest.Patients, 1, apitest.Object{
		"cpf":        "12345678901",
		"birth_date": "1960-04-12",
		"user":       apitest.Object{"id": 101, "first_name": "Maria", "last_name": "Silva"},
	})
	srv.SeedAt(apitest.Patients, 2, apitest.Object{
		"cpf":  "98765432100",
		"user": apitest.Object{"id": 102, "first_name": "Ana", "last_name": "Souza"},
	})
	srv.SeedAt(apitest.Patients, 3, apitest.Object{
		"cpf":  "11122233344",
		"user": apitest.Object{"id": 103, "first_name": "João", "last_name": "Lima"},
	})
	srv.SeedAt(apitest.HAS, 10, apitest.Object{"patient": 1})
	srv.SeedAt(apitest.DM, 20, apitest.Object{"patient": 1})
	srv.SeedAt(apitest.DM, 21, apitest.Object{"patient": 2})

	srv.SeedAt(apitest.Appointments, 30, apitest.Object{
		"patient": 1, "risk_level": mapper.RiskModerado, "scheduled_datetime": "2026-10-01T09:00:00Z",
	})
	srv.SeedAt(apitest.Appointments, 31, apitest.Object{
		"patient": 1, "risk_level": mapper.RiskCritico, "scheduled_datetime": "2026-10-19T09:00:00Z",
	})
	srv.SeedAt(apitest.Appointments, 32, apitest.Object{
		"patient": 2, "risk_level": mapper.RiskSeguro, "scheduled_datetime": "2026-10-18T15:00:00Z",
	})
}

func load(t *testing.T, srv *apitest.Server) roster.Roster {
	t.Helper()
	c := api.New(api.Options{BaseURL: srv.URL, Metrics: api.NewMetrics(prometheus.NewRegistry())}, srv.LoggedIn(), nil)
	r, err := roster.Load(context.Background(), c, "", now)
	require.NoError(t, err)
	return r
}

func TestLoadJoinsCasesAndAppointments(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seed(srv)

	r := load(t, srv)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, []string{"Ana Souza", "João Lima", "Maria Silva"},
		[]string{r.Rows[0].Name, r.Rows[1].Name, r.Rows[2].Name})

	maria, ok := r.Find(1)
	require.True(t, ok)
	assert.True(t, maria.HAS)
	assert.True(t, maria.DM)
	assert.Equal(t, 10, *maria.HASID)
	assert.Equal(t, "HAS + DM", maria.Conditions())
	assert.Equal(t, mapper.RiskCritico, maria.Risk)
	assert.Equal(t, 2, maria.Visits)
	require.NotNil(t, maria.NextVisit)
	assert.Equal(t, 19, maria.NextVisit.Day())
	require.NotNil(t, maria.LastVisit)
	assert.Equal(t, 1, maria.LastVisit.Day())
	require.NotNil(t, maria.Age)
	assert.Equal(t, 66, *maria.Age)

	joao, _ := r.Find(3)
	assert.False(t, joao.HAS || joao.DM)
	assert.Empty(t, joao.Risk)
	assert.Nil(t, joao.NextVisit)
}

func TestLoadFailsWhenAnyListFails(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seed(srv)
	srv.Fail(http.MethodGet, api.PathAppointments, http.StatusInternalServerError, `{"detail":"boom"}`)

	c := api.New(api.Options{BaseURL: srv.URL, Metrics: api.NewMetrics(prometheus.NewRegistry())}, srv.LoggedIn(), nil)
	_, err := roster.Load(context.Background(), c, "", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing appointments")
}

func TestFilters(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seed(srv)
	r := load(t, srv)

	ids := func(rows []roster.Row) []int {
		var out []int
		for _, row := range rows {
			out = append(out, row.ID)
		}
		return out
	}
	assert.Equal(t, []int{1}, ids(r.Select(roster.FilterHAS, "")))
	assert.Equal(t, []int{2, 1}, ids(r.Select(roster.FilterDM, "")))
	assert.Equal(t, []int{1}, ids(r.Select(roster.FilterCritical, "")))
	assert.Equal(t, []int{3}, ids(r.Select(roster.FilterNoVisit, "")))
	assert.Equal(t, []int{3}, ids(r.Select(roster.FilterAll, "joão")))
	assert.Equal(t, []int{2}, ids(r.Select(roster.FilterAll, "987.654")))

	f, err := roster.ParseFilter("critico")
	require.NoError(t, err)
	assert.Equal(t, roster.FilterCritical, f)
	_, err = roster.ParseFilter("nope")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seed(srv)
	r := load(t, srv)

	alerts := []mapper.AlertRecord{
		{ID: 1, RiskLevel: "critical"},
		{ID: 2, RiskLevel: "moderate"},
		{ID: 3, RiskLevel: "critical", IsDeleted: true},
	}
	s := roster.Summarize(r, alerts, now, 7)
	assert.Equal(t, 3, s.Patients)
	assert.Equal(t, 3, s.Appointments)
	assert.Equal(t, 2, s.RiskAppointments)
	assert.Equal(t, 1, s.CriticalAppointments)
	assert.Equal(t, 1, s.CriticalAlerts)
	assert.Equal(t, 2, s.Alerts)
	assert.Equal(t, 1, s.WithHAS)
	assert.Equal(t, 2, s.WithDM)
	assert.Equal(t, 1, s.Critico)
	assert.Equal(t, 1, s.Seguro)
	assert.Equal(t, []int{1, 1, 0, 0, 0, 0, 0}, s.Upcoming)
}

func TestMarkdown(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seed(srv)
	r := load(t, srv)

	row, _ := r.Find(1)
	md := roster.Markdown(row, r.AppointmentsOf(1), now)
	assert.Contains(t, md, "# Maria Silva")
	assert.Contains(t, md, "| CPF / SUS | 12345678901 |")
	assert.Contains(t, md, "12/04/1960 (66 anos)")
	assert.Contains(t, md, "| Condições | HAS + DM |")
	assert.Contains(t, md, "**(próximo)**")

	row, _ = r.Find(3)
	assert.Contains(t, roster.Markdown(row, nil, now), "_Nenhum agendamento._")
}

func TestWriteXLSX(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seed(srv)
	r := load(t, srv)

	var buf bytes.Buffer
	require.NoError(t, roster.WriteXLSX(&buf, r.Rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(roster.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, roster.ExportHeader, rows[0])
	assert.Equal(t, "Maria Silva", rows[3][1])
	assert.Equal(t, "Sim", rows[3][7])
	assert.Equal(t, mapper.RiskCritico, rows[3][9])
}
