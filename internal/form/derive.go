package form

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DeriveIMC computes the body mass index from weight in kg and height in
// metres. Heights above 3 are read as centimetres. Returns nil when either
// input is missing or not positive.
func DeriveIMC(peso, altura *float64) *float64 {
	if peso == nil || altura == nil || *peso <= 0 || *altura <= 0 {
		return nil
	}
	h := *altura
	if h > 3 {
		h = h / 100
	}
	v := math.Round(*peso/(h*h)*100) / 100
	return &v
}

// Normalize fills derived values. The IMC field is read-only in the wizard,
// so it is always recomputed when weight and height are both known.
func Normalize(f FormState) FormState {
	if f.Clinica.HAS != nil {
		if imc := DeriveIMC(f.Clinica.HAS.Peso, f.Clinica.HAS.Altura); imc != nil {
			f.Clinica.HAS.IMC = imc
		}
	}
	if f.Clinica.DM != nil {
		if imc := DeriveIMC(f.Clinica.DM.Peso, f.Clinica.DM.Altura); imc != nil {
			f.Clinica.DM.IMC = imc
		}
	}
	return f
}

// ShortName abbreviates a full name to "First L.".
func ShortName(nome string) string {
	parts := strings.Fields(nome)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	last := []rune(parts[len(parts)-1])
	return parts[0] + " " + strings.ToUpper(string(last[0])) + "."
}

var bpClassText = map[string]string{
	"normal":         "PA normal",
	"pre_hipertenso": "PA pré-hipertensa",
	"estagio1":       "HAS estágio 1",
	"estagio2":       "HAS estágio 2",
	"estagio3":       "HAS estágio 3",
}

// PlanSummary builds the automatic care plan summary from the rest of the
// form. Empty parts are skipped.
func PlanSummary(f FormState) string {
	var parts []string

	if n := ShortName(f.Socio.Nome); n != "" {
		parts = append(parts, "Paciente: "+n)
	}

	var conds []string
	if f.Condicoes.HAS {
		conds = append(conds, "HAS")
	}
	if f.Condicoes.DM {
		conds = append(conds, "DM")
	}
	if len(conds) > 0 {
		parts = append(parts, "Condições: "+strings.Join(conds, " e "))
	}

	if f.Clinica.HAS != nil {
		if txt, ok := bpClassText[f.Clinica.HAS.ClassificacaoPA]; ok {
			parts = append(parts, txt)
		}
	}
	if f.Clinica.DM != nil && f.Clinica.DM.HbA1c != nil {
		parts = append(parts, fmt.Sprintf("HbA1c %s%%", trimFloat(*f.Clinica.DM.HbA1c)))
	}

	return strings.Join(parts, " · ")
}

// AddDays returns base shifted by n days formatted as YYYY-MM-DD. It backs
// the "+7d / +30d" quick shortcuts on the plan step.
func AddDays(base time.Time, n int) string {
	return base.AddDate(0, 0, n).Format(DateLayout)
}

// DateLayout is the canonical form date format.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY and RFC 3339 timestamps.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, "02/01/2006", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Ptr returns a pointer to v. Handy for optional numeric fields.
func Ptr[T any](v T) *T {
	return &v
}
