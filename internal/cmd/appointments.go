package cmd

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rastreiamais/rastreia/internal/auth"
	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

var (
	apptPatient  int
	apptUpcoming bool
	apptRisk     string
	apptJSON     bool
)

var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"agendamentos"},
	Short:   "Appointment listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return appointmentsListCmd.RunE(cmd, args)
	},
}

// appointmentView is one listed appointment with its patient's name.
type appointmentView struct {
	mapper.AppointmentRecord
	PatientName string     `json:"patient_name"`
	At          *time.Time `json:"at,omitempty"`
}

var appointmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List appointments, soonest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		defer e.close()
		if err := withSession(e, auth.RouteAgendamentos); err != nil {
			return err
		}

		ctx, cancel := e.commandContext(4)
		defer cancel()
		now := time.Now()
		r, err := roster.Load(ctx, e.client, "", now)
		if err != nil {
			return err
		}

		views := selectAppointments(r, apptPatient, apptUpcoming, apptRisk, now)
		if apptJSON {
			return printJSON(views)
		}

		fmt.Printf("%s  %s  %s  %s  %s\n",
			styles.TableHeader.Width(6).Render("ID"),
			styles.TableHeader.Width(17).Render("DATA"),
			styles.TableHeader.Width(28).Render("PACIENTE"),
			styles.TableHeader.Width(10).Render("TIPO"),
			styles.TableHeader.Width(10).Render("RISCO"),
		)
		fmt.Println(styles.Divider(80))
		for i, v := range views {
			row := styles.TableRow(i%2 == 0)
			when := v.ScheduledDatetime
			if v.At != nil {
				when = v.At.Local().Format("02/01/2006 15:04")
			}
			fmt.Printf("%s  %s  %s  %s  %s\n",
				row.Width(6).Render(strconv.Itoa(v.ID)),
				styles.Dim(fmt.Sprintf("%-17s", when)),
				row.Width(28).Render(styles.TruncateWithEllipsis(v.PatientName, 28)),
				fmt.Sprintf("%-10s", v.Type),
				styles.RiskBadge(v.RiskLevel),
			)
		}
		fmt.Println()
		fmt.Println(styles.Dim(fmt.Sprintf("%d agendamento(s)", len(views))))
		return nil
	},
}

// selectAppointments filters the roster's appointments and sorts them by
// date; undated ones go last.
func selectAppointments(r roster.Roster, patient int, upcoming bool, risk string, now time.Time) []appointmentView {
	var out []appointmentView
	for _, a := range r.Appointments {
		if patient > 0 && a.Patient.ID != patient {
			continue
		}
		if risk != "" && !sameRisk(a.RiskLevel, risk) {
			continue
		}
		v := appointmentView{AppointmentRecord: a}
		if t, ok := a.When(); ok {
			v.At = &t
		}
		if upcoming && (v.At == nil || v.At.Before(now)) {
			continue
		}
		if row, ok := r.Find(a.Patient.ID); ok {
			v.PatientName = row.Name
		} else {
			v.PatientName = a.Patient.FullName()
		}
		out = append(out, v)
	}
	sortByTime(out)
	return out
}

func sortByTime(vs []appointmentView) {
	key := func(v appointmentView) int64 {
		if v.At == nil {
			return math.MaxInt64
		}
		return v.At.Unix()
	}
	sort.SliceStable(vs, func(i, j int) bool { return key(vs[i]) < key(vs[j]) })
}

func sameRisk(level, want string) bool {
	return roster.RiskRank(level) > 0 && roster.RiskRank(level) == roster.RiskRank(normalizeRisk(want))
}

// normalizeRisk maps user spellings onto the appointment risk levels.
func normalizeRisk(s string) string {
	switch s {
	case "seguro", "Seguro", "safe":
		return mapper.RiskSeguro
	case "moderado", "Moderado", "moderate":
		return mapper.RiskModerado
	case "critico", "crítico", "Crítico", "Critico", "critical":
		return mapper.RiskCritico
	}
	return s
}

func init() {
	appointmentsListCmd.Flags().IntVarP(&apptPatient, "patient", "p", 0, "only this patient id")
	appointmentsListCmd.Flags().BoolVar(&apptUpcoming, "upcoming", false, "only future appointments")
	appointmentsListCmd.Flags().StringVar(&apptRisk, "risk", "", "only this risk level: seguro, moderado or critico")
	appointmentsListCmd.Flags().BoolVar(&apptJSON, "json", false, "output as JSON")
	appointmentsCmd.AddCommand(appointmentsListCmd)
	rootCmd.AddCommand(appointmentsCmd)
}
