package mapper

import "strings"

// AlertPayload creates an alert; the backend resolves the patient by CPF.
type AlertPayload struct {
	CPF         string `json:"cpf"`
	RiskLevel   string `json:"risk_level"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AlertRecord is an alert as returned by the backend.
type AlertRecord struct {
	ID          int            `json:"id"`
	Patient     *PatientRecord `json:"patient"`
	RiskLevel   string         `json:"risk_level"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedAt   string         `json:"created_at"`
	IsDeleted   bool           `json:"is_deleted"`
}

// AlertToAPI builds an alert payload. risk is a form token (seguro,
// moderado, critico) and defaults to moderado like the backend does.
func AlertToAPI(cpf, title, description, risk string) AlertPayload {
	back := AlertRisk.ToAPI(strings.ToLower(strings.TrimSpace(risk)))
	if back == "" {
		back = AlertRisk.ToAPI("moderado")
	}
	return AlertPayload{
		CPF:         OnlyDigits(cpf),
		RiskLevel:   back,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
}
