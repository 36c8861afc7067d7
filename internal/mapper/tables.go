package mapper

import "fmt"

// Table is a bidirectional lookup between form tokens and backend tokens.
// Unknown tokens in either direction translate to "" rather than failing.
type Table struct {
	Name    string
	toAPI   map[string]string
	fromAPI map[string]string
	order   []string
}

// NewTable builds a table from (form, backend) pairs. It panics if the pairs
// are not a bijection, so a broken table fails at program start.
func NewTable(name string, pairs ...[2]string) Table {
	t := Table{
		Name:    name,
		toAPI:   make(map[string]string, len(pairs)),
		fromAPI: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		if _, dup := t.toAPI[p[0]]; dup {
			panic(fmt.Sprintf("mapper: table %s: duplicate form token %q", name, p[0]))
		}
		if _, dup := t.fromAPI[p[1]]; dup {
			panic(fmt.Sprintf("mapper: table %s: duplicate backend token %q", name, p[1]))
		}
		t.toAPI[p[0]] = p[1]
		t.fromAPI[p[1]] = p[0]
		t.order = append(t.order, p[0])
	}
	return t
}

// ToAPI translates a form token.
func (t Table) ToAPI(front string) string { return t.toAPI[front] }

// FromAPI translates a backend token.
func (t Table) FromAPI(back string) string { return t.fromAPI[back] }

// Keys lists the form tokens in declaration order.
func (t Table) Keys() []string { return append([]string(nil), t.order...) }

// Len is the number of pairs.
func (t Table) Len() int { return len(t.order) }

// ptr translates a form token and returns nil when it has no backend match.
func (t Table) ptr(front string) *string {
	if v, ok := t.toAPI[front]; ok {
		return &v
	}
	return nil
}

// firstOf maps the first entry of a multi-select, skipping the free-text
// "other" choice when something else was picked. The backend keeps a single
// value for these fields.
func (t Table) firstOf(values []string, other string) *string {
	if len(values) == 0 {
		return nil
	}
	first := values[0]
	for _, v := range values {
		if v != other {
			first = v
			break
		}
	}
	return t.ptr(first)
}

// listFrom turns a single backend token into a one-element form list.
func (t Table) listFrom(back *string) []string {
	if back == nil {
		return nil
	}
	if v := t.FromAPI(*back); v != "" {
		return []string{v}
	}
	return nil
}

func (t Table) from(back *string) string {
	if back == nil {
		return ""
	}
	return t.FromAPI(*back)
}

var (
	CivilStatus = NewTable("civil_status",
		[2]string{"solteiro", "SOLTEIRO"},
		[2]string{"casado", "CASADO"},
		[2]string{"uniao_estavel", "UNIAO_ESTAVEL"},
		[2]string{"viuvo", "VIUVO"},
		[2]string{"separado", "SEPARADO"},
	)

	Scholarity = NewTable("scholarity",
		[2]string{"sem_escolaridade", "ANALFABETO"},
		[2]string{"fund_incompleto", "FUND_INCOMPL"},
		[2]string{"fund_completo", "FUND_COMPL"},
		[2]string{"medio_incompleto", "MED_INCOMPL"},
		[2]string{"medio_completo", "MED_COMPL"},
		[2]string{"sup_incompleto", "SUP_INCOMPL"},
		[2]string{"sup_completo", "SUP_COMPL"},
	)

	Treatment = NewTable("uses_medication",
		[2]string{"sim", "SIM"},
		[2]string{"nao", "NAO"},
		[2]string{"irregular", "IRREGULAR"},
		[2]string{"nao_se_aplica", "NAO_SE_APLICA"},
	)

	BPClassification = NewTable("BP_classifications",
		[2]string{"normal", "NORMAL"},
		[2]string{"pre_hipertenso", "PRE_HIPERTENSO"},
		[2]string{"estagio1", "HIPERTENSO_E1"},
		[2]string{"estagio2", "HIPERTENSO_E2"},
		[2]string{"estagio3", "HIPERTENSO_E3"},
	)

	Framingham = NewTable("framingham_score",
		[2]string{"<10", "BAIXO"},
		[2]string{"10-20", "MODERADO"},
		[2]string{">20", "ALTO"},
	)

	// "outro" has no backend counterpart.
	ConductHAS = NewTable("conduct_adopted",
		[2]string{"aps", "ACOMPANHAMENTO_APS"},
		[2]string{"encaminhamento", "ENCAMINHAMENTO_MEDICO"},
		[2]string{"grupo", "ACONSELHAMENTO_GRUPO"},
	)

	ComplicationHAS = NewTable("any_complications_HBP",
		[2]string{"avc", "AVC"},
		[2]string{"infarto", "INFARTO"},
		[2]string{"renal", "DOENCA_RENAL"},
	)

	ConductDM = NewTable("adopted_conduct",
		[2]string{"confirmacao_lab", "CONFIRMACAO_LABORATORIAL"},
		[2]string{"inicio_trat", "INICIO_TRATAMENTO"},
		[2]string{"orientacao", "ORIENTACAO_NUTRICIONAL"},
		[2]string{"encaminhamento_med", "ENCAMINHAMENTO_MEDICO"},
	)

	ComorbidityDM = NewTable("diabetes_comorbidities",
		[2]string{"cardiaca", "CARDIACA"},
		[2]string{"renal", "RENAL"},
		[2]string{"visual", "VISUAL"},
		[2]string{"vascular", "VASCULAR"},
	)

	TreatmentTypeDM = NewTable("treatment_type",
		[2]string{"medicamentoso", "MEDICAMENTOSO"},
		[2]string{"insulina", "INSULINA"},
		[2]string{"alimentar", "ALIMENTAR_ESTILO_VIDA"},
	)

	ScreeningDM = NewTable("screening_result",
		[2]string{"normal", "NORMAL"},
		[2]string{"glicemia_alterada", "GLICEMIA_ALTERADA"},
		[2]string{"suspeita_dm", "SUSPEITA_DIABETES"},
		[2]string{"diagnostico_confirmado", "DIAGNOSTICO_CONFIRMADO"},
	)

	Feeding = NewTable("feed",
		[2]string{"saudavel", "SAUDAVEL"},
		[2]string{"parcial", "PARCIALMENTE"},
		[2]string{"pouco", "POUCO"},
	)

	Salt = NewTable("salt_consumption",
		[2]string{"adequado", "ADEQUADO"},
		[2]string{"exagerado", "EXAGERADO"},
		[2]string{"nao_sabe", "NAO_SABE"},
	)

	Alcohol = NewTable("alcohol_consumption",
		[2]string{"nao_bebe", "NAO_BEBE"},
		[2]string{"socialmente", "SOCIALMENTE"},
		[2]string{"frequentemente", "FREQUENTEMENTE"},
	)

	Smoking = NewTable("smoking",
		[2]string{"nunca", "NUNCA_FUMOU"},
		[2]string{"ex", "EX_FUMANTE"},
		[2]string{"atual", "FUMANTE_ATUAL"},
	)

	// The backend also knows NAO_CONSTA, which the form cannot express.
	LastConsultation = NewTable("last_consultation",
		[2]string{"7d", "7_DIAS"},
		[2]string{"15d", "15_DIAS"},
		[2]string{"30d", "30_DIAS"},
		[2]string{"60d", "60_DIAS"},
		[2]string{"90d", "90_DIAS"},
		[2]string{"6m", "6_MESES"},
		[2]string{"1a", "1_ANO"},
		[2]string{">1a", "MAIS_DE_1_ANO"},
	)

	TransmissibleDisease = NewTable("diagnosed_transmissible_disease_in_household",
		[2]string{"chagas", "CHAGAS"},
		[2]string{"leishmaniose", "LEISHMANIOSE"},
		[2]string{"tuberculose", "TUBERCULOSE"},
		[2]string{"toxoplasmose", "TOXOPLASMOSE"},
		[2]string{"esporotricose", "ESPOROTRICOSE"},
		[2]string{"hanseniase", "HANSENIASE"},
	)

	Referral = NewTable("requires_multidisciplinary_referral_choose",
		[2]string{"psicologo", "PSICOLOGO"},
		[2]string{"medico_vet", "MEDICO_VETERINARIO"},
		[2]string{"fisioterapeuta", "FISIOTERAPEUTA"},
		[2]string{"assistente_social", "ASSISTENTE_SOCIAL"},
		[2]string{"enfermeira", "ENFERMEIRA"},
		[2]string{"nutricionista", "NUTRICIONISTA"},
		[2]string{"cirurgia_dentista", "CIRURGIA_DENTISTA"},
	)

	AlertRisk = NewTable("risk_level",
		[2]string{"seguro", "safe"},
		[2]string{"moderado", "moderate"},
		[2]string{"critico", "critical"},
	)
)

// Tables lists every enum table, for reporting and tests.
var Tables = []Table{
	CivilStatus, Scholarity, Treatment, BPClassification, Framingham,
	ConductHAS, ComplicationHAS, ConductDM, ComorbidityDM, TreatmentTypeDM,
	ScreeningDM, Feeding, Salt, Alcohol, Smoking, LastConsultation,
	TransmissibleDisease, Referral, AlertRisk,
}
