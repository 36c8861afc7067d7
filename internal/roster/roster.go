// Package roster assembles the patient overview used by the patient
// browser, the dashboard and the spreadsheet export: patients joined with
// their HAS/DM cases and appointments.
package roster

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rastreiamais/rastreia/internal/mapper"
)

// Source lists the backend resources a roster is built from.
// *api.Client implements it.
type Source interface {
	ListPatients(ctx context.Context, search string) ([]mapper.PatientRecord, error)
	ListHAS(ctx context.Context, patientID int) ([]mapper.HASRecord, error)
	ListDM(ctx context.Context, patientID int) ([]mapper.DMRecord, error)
	ListAppointments(ctx context.Context, query url.Values) ([]mapper.AppointmentRecord, error)
}

// Row is one patient of the overview.
type Row struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	CPF       string     `json:"cpf"`
	BirthDate string     `json:"birth_date,omitempty"`
	Age       *int       `json:"age,omitempty"`
	Gender    string     `json:"gender,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	HAS       bool       `json:"has"`
	DM        bool       `json:"dm"`
	HASID     *int       `json:"has_id,omitempty"`
	DMID      *int       `json:"dm_id,omitempty"`
	Risk      string     `json:"risk,omitempty"`
	NextVisit *time.Time `json:"next_visit,omitempty"`
	LastVisit *time.Time `json:"last_visit,omitempty"`
	Visits    int        `json:"appointments"`

	Record mapper.PatientRecord `json:"-"`
}

// Conditions returns "HAS", "DM", "HAS + DM" or "".
func (r Row) Conditions() string {
	switch {
	case r.HAS && r.DM:
		return "HAS + DM"
	case r.HAS:
		return "HAS"
	case r.DM:
		return "DM"
	}
	return ""
}

// Roster is a loaded overview.
type Roster struct {
	Rows         []Row
	Appointments []mapper.AppointmentRecord
	LoadedAt     time.Time
}

// Load fetches patients, cases and appointments concurrently and joins them
// by patient id. search is passed to the backend patient list.
func Load(ctx context.Context, src Source, search string, now time.Time) (Roster, error) {
	var (
		patients []mapper.PatientRecord
		has      []mapper.HASRecord
		dm       []mapper.DMRecord
		appts    []mapper.AppointmentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		patients, err = src.ListPatients(gctx, search)
		if err != nil {
			return fmt.Errorf("listing patients: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		has, err = src.ListHAS(gctx, 0)
		if err != nil {
			return fmt.Errorf("listing HAS cases: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		dm, err = src.ListDM(gctx, 0)
		if err != nil {
			return fmt.Errorf("listing DM cases: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		appts, err = src.ListAppointments(gctx, nil)
		if err != nil {
			return fmt.Errorf("listing appointments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Roster{}, err
	}
	return Build(patients, has, dm, appts, now), nil
}

// Build joins already fetched resources. Rows are sorted by name.
func Build(patients []mapper.PatientRecord, has []mapper.HASRecord, dm []mapper.DMRecord, appts []mapper.AppointmentRecord, now time.Time) Roster {
	hasBy := make(map[int]int, len(has))
	for _, h := range has {
		if _, seen := hasBy[h.Patient]; !seen {
			hasBy[h.Patient] = h.ID
		}
	}
	dmBy := make(map[int]int, len(dm))
	for _, d := range dm {
		if _, seen := dmBy[d.Patient]; !seen {
			dmBy[d.Patient] = d.ID
		}
	}
	apptBy := make(map[int][]mapper.AppointmentRecord)
	for _, a := range appts {
		apptBy[a.Patient.ID] = append(apptBy[a.Patient.ID], a)
	}

	rows := make([]Row, 0, len(patients))
	for _, p := range patients {
		row := Row{
			ID:        p.ID,
			Name:      p.User.FullName(),
			CPF:       deref(p.CPF),
			BirthDate: dateOnly(deref(p.BirthDate)),
			Age:       p.Age,
			Gender:    deref(p.Gender),
			Phone:     deref(p.Phone),
			Email:     p.User.Email,
			Record:    p,
		}
		if row.Name == "" {
			row.Name = p.User.Username
		}
		if row.Age == nil && row.BirthDate != "" {
			row.Age = mapper.AgeFromBirth(row.BirthDate, now)
		}
		if id, ok := hasBy[p.ID]; ok {
			row.HAS, row.HASID = true, &id
		}
		if id, ok := dmBy[p.ID]; ok {
			row.DM, row.DMID = true, &id
		}
		for _, a := range apptBy[p.ID] {
			row.Visits++
			if RiskRank(a.RiskLevel) > RiskRank(row.Risk) {
				row.Risk = a.RiskLevel
			}
			when, ok := a.When()
			if !ok {
				continue
			}
			w := when
			if !when.Before(now) {
				if row.NextVisit == nil || when.Before(*row.NextVisit) {
					row.NextVisit = &w
				}
			} else if row.LastVisit == nil || when.After(*row.LastVisit) {
				row.LastVisit = &w
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return Roster{Rows: rows, Appointments: appts, LoadedAt: now}
}

// RiskRank orders the appointment risk labels; unknown labels rank 0.
func RiskRank(risk string) int {
	switch risk {
	case mapper.RiskSeguro:
		return 1
	case mapper.RiskModerado:
		return 2
	case mapper.RiskCritico:
		return 3
	}
	return 0
}

// Filter selects rows for a browser tab.
type Filter int

const (
	FilterAll Filter = iota
	FilterHAS
	FilterDM
	FilterCritical
	FilterModerate
	FilterNoVisit
)

// Filters lists every filter in tab order.
var Filters = []Filter{FilterAll, FilterHAS, FilterDM, FilterCritical, FilterModerate, FilterNoVisit}

func (f Filter) String() string {
	switch f {
	case FilterHAS:
		return "HAS"
	case FilterDM:
		return "DM"
	case FilterCritical:
		return "Crítico"
	case FilterModerate:
		return "Moderado"
	case FilterNoVisit:
		return "Sem agenda"
	}
	return "Todos"
}

// ParseFilter accepts the tab names used by --filter.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return FilterAll, nil
	case "has":
		return FilterHAS, nil
	case "dm":
		return FilterDM, nil
	case "critico", "crítico", "critical":
		return FilterCritical, nil
	case "moderado", "moderate":
		return FilterModerate, nil
	case "sem-agenda", "no-visit":
		return FilterNoVisit, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q", s)
}

// Match reports whether row belongs to the filter tab and contains term in
// its name or CPF.
func (f Filter) Match(row Row, term string) bool {
	switch f {
	case FilterHAS:
		if !row.HAS {
			return false
		}
	case FilterDM:
		if !row.DM {
			return false
		}
	case FilterCritical:
		if row.Risk != mapper.RiskCritico {
			return false
		}
	case FilterModerate:
		if row.Risk != mapper.RiskModerado {
			return false
		}
	case FilterNoVisit:
		if row.NextVisit != nil {
			return false
		}
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(row.Name), term) {
		return true
	}
	digits := mapper.OnlyDigits(term)
	return digits != "" && strings.Contains(mapper.OnlyDigits(row.CPF), digits)
}

// Select returns the rows matching f and term, keeping their order.
func (r Roster) Select(f Filter, term string) []Row {
	var out []Row
	for _, row := range r.Rows {
		if f.Match(row, term) {
			out = append(out, row)
		}
	}
	return out
}

// Find returns the row with the given patient id.
func (r Roster) Find(id int) (Row, bool) {
	for _, row := range r.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

// AppointmentsOf returns the appointments of one patient, oldest first.
func (r Roster) AppointmentsOf(id int) []mapper.AppointmentRecord {
	var out []mapper.AppointmentRecord
	for _, a := range r.Appointments {
		if a.Patient.ID == id {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledDatetime < out[j].ScheduledDatetime
	})
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
