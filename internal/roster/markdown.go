package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/rastreiamais/rastreia/internal/mapper"
)

// Markdown renders a patient summary for the detail pane and
// `patients show`.
func Markdown(row Row, appts []mapper.AppointmentRecord, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orDash(row.Name))

	b.WriteString("| Campo | Valor |\n|---|---|\n")
	field := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, orDash(v)) }
	field("Código", fmt.Sprintf("#%d", row.ID))
	field("CPF / SUS", row.CPF)
	if row.BirthDate != "" {
		birth := row.BirthDate
		if t, err := time.Parse("2006-01-02", row.BirthDate); err == nil {
			birth = t.Format("02/01/2006")
		}
		if row.Age != nil {
			birth += fmt.Sprintf(" (%d anos)", *row.Age)
		}
		field("Nascimento", birth)
	}
	field("Gênero", row.Gender)
	field("Telefone", row.Phone)
	field("E-mail", row.Email)
	field("Condições", row.Conditions())
	field("Risco", row.Risk)

	if rec := row.Record.AddressRecord(); rec != nil {
		b.WriteString("\n## Endereço\n\n")
		line := fmt.Sprintf("%s, %d, %s, %s/%s", rec.Street, rec.Number, rec.District, rec.City, rec.UF)
		if rec.Complement != nil && *rec.Complement != "" {
			line += " (" + *rec.Complement + ")"
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n## Agendamentos\n\n")
	if len(appts) == 0 {
		b.WriteString("_Nenhum agendamento._\n")
		return b.String()
	}
	for _, a := range appts {
		when := a.ScheduledDatetime
		marker := ""
		if t, ok := a.When(); ok {
			when = t.Local().Format("02/01/2006 15:04")
			if !t.Before(now) {
				marker = " **(próximo)**"
			}
		}
		desc := ""
		if a.Description != nil && *a.Description != "" {
			desc = ": " + *a.Description
		}
		fmt.Fprintf(&b, "- %s, risco %s%s%s\n", when, orDash(a.RiskLevel), desc, marker)
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
