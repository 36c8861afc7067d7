package mapper

import (
	"strings"
	"time"

	"github.com/rastreiamais/rastreia/internal/form"
)

// Appointment risk levels, types and statuses as the backend spells them.
const (
	RiskSeguro   = "Seguro"
	RiskModerado = "Moderado"
	RiskCritico  = "Crítico"

	TypeConsulta = "Consulta"
	TypeExame    = "Exame"
	TypeEvento   = "Evento"

	StatusAgendado   = "Agendado"
	StatusFinalizado = "Finalizado"
	StatusCancelado  = "Cancelado"
)

// AppointmentPayload is the /api/v1/appointments/appointments/ resource.
type AppointmentPayload struct {
	Patient           int     `json:"patient"`
	Professional      int     `json:"professional"`
	ScheduledDatetime string  `json:"scheduled_datetime"`
	Local             *int    `json:"local"`
	RiskLevel         string  `json:"risk_level"`
	Description       *string `json:"description"`
	Type              string  `json:"type"`
	Status            string  `json:"status,omitempty"`
}

// AppointmentRecord is an appointment as returned by the backend. Patient
// and professional may come back nested, so only their ids are kept.
type AppointmentRecord struct {
	ID                int     `json:"id"`
	Patient           UserRef `json:"patient"`
	Professional      UserRef `json:"professional"`
	ScheduledDatetime string  `json:"scheduled_datetime"`
	Local             *int    `json:"local"`
	RiskLevel         string  `json:"risk_level"`
	Description       *string `json:"description"`
	Type              string  `json:"type"`
	Status            *string `json:"status"`
}

// When parses the scheduled timestamp.
func (a AppointmentRecord) When() (time.Time, bool) {
	return form.ParseDate(a.ScheduledDatetime)
}

// AppointmentKind distinguishes the primary visit from the follow-up.
type AppointmentKind int

const (
	Primary AppointmentKind = iota
	FollowUp
)

// RiskLevel derives the appointment risk from the clinical classification:
// HAS stage 2 or 3 and a confirmed DM diagnosis are critical; pre-hypertension,
// stage 1, altered glucose and suspected DM are moderate.
func RiskLevel(f form.FormState) string {
	risk := RiskSeguro
	if h := f.Clinica.HAS; h != nil {
		switch h.ClassificacaoPA {
		case "estagio2", "estagio3":
			return RiskCritico
		case "pre_hipertenso", "estagio1":
			risk = RiskModerado
		}
	}
	if d := f.Clinica.DM; d != nil {
		switch d.TriagemDM {
		case "diagnostico_confirmado":
			return RiskCritico
		case "glicemia_alterada", "suspeita_dm":
			risk = RiskModerado
		}
	}
	return risk
}

// AppointmentToAPI builds an appointment for the patient just saved. The
// description comes from the plan summary, falling back to the derived one.
func AppointmentToAPI(patientID, professionalID int, when time.Time, kind AppointmentKind, f form.FormState) AppointmentPayload {
	desc := strings.TrimSpace(f.Plano.Resumo)
	if desc == "" {
		desc = form.PlanSummary(f)
	}
	if kind == FollowUp {
		if desc == "" {
			desc = "Retorno"
		} else {
			desc = "Retorno · " + desc
		}
	}
	return AppointmentPayload{
		Patient:           patientID,
		Professional:      professionalID,
		ScheduledDatetime: when.UTC().Format(time.RFC3339),
		RiskLevel:         RiskLevel(f),
		Description:       optString(desc),
		Type:              TypeConsulta,
		Status:            StatusAgendado,
	}
}
