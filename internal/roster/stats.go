package roster

import (
	"time"

	"github.com/rastreiamais/rastreia/internal/mapper"
)

// Stats are the manager dashboard KPIs.
type Stats struct {
	Patients             int `json:"total_patients"`
	RiskAppointments     int `json:"risk_appointments"`
	CriticalAppointments int `json:"critical_appointments"`
	Appointments         int `json:"appointments"`
	CriticalAlerts       int `json:"critical_alerts"`
	Alerts               int `json:"alerts"`

	WithHAS  int `json:"with_has"`
	WithDM   int `json:"with_dm"`
	Seguro   int `json:"risk_seguro"`
	Moderado int `json:"risk_moderado"`
	Critico  int `json:"risk_critico"`

	// Upcoming counts appointments per day from today on.
	Upcoming []int `json:"upcoming"`
}

// Summarize computes the KPIs. Risk counts are per patient, using the
// highest risk among their appointments; the risk appointment count is
// per appointment.
func Summarize(r Roster, alerts []mapper.AlertRecord, now time.Time, days int) Stats {
	s := Stats{
		Patients:     len(r.Rows),
		Appointments: len(r.Appointments),
	}
	for _, row := range r.Rows {
		if row.HAS {
			s.WithHAS++
		}
		if row.DM {
			s.WithDM++
		}
		switch row.Risk {
		case mapper.RiskSeguro:
			s.Seguro++
		case mapper.RiskModerado:
			s.Moderado++
		case mapper.RiskCritico:
			s.Critico++
		}
	}

	if days < 0 {
		days = 0
	}
	s.Upcoming = make([]int, days)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	for _, a := range r.Appointments {
		switch a.RiskLevel {
		case mapper.RiskCritico:
			s.CriticalAppointments++
			s.RiskAppointments++
		case mapper.RiskModerado:
			s.RiskAppointments++
		}
		when, ok := a.When()
		if !ok {
			continue
		}
		when = when.In(now.Location())
		wy, wm, wd := when.Date()
		day := int(time.Date(wy, wm, wd, 0, 0, 0, 0, now.Location()).Sub(today).Hours() / 24)
		if day >= 0 && day < days {
			s.Upcoming[day]++
		}
	}

	critical := mapper.AlertRisk.ToAPI("critico")
	for _, a := range alerts {
		if a.IsDeleted {
			continue
		}
		s.Alerts++
		if a.RiskLevel == critical {
			s.CriticalAlerts++
		}
	}
	return s
}
