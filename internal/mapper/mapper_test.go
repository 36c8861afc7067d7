package mapper

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/schema"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func TestTablesAreBijections(t *testing.T) {
	for _, tbl := range Tables {
		t.Run(tbl.Name, func(t *testing.T) {
			seen := map[string]bool{}
			for _, front := range tbl.Keys() {
				back := tbl.ToAPI(front)
				require.NotEmpty(t, back, front)
				assert.False(t, seen[back], "backend token %s reused", back)
				seen[back] = true
				assert.Equal(t, front, tbl.FromAPI(back))
			}
			assert.Len(t, seen, tbl.Len())
		})
	}
}

func TestTablesUnknownTokens(t *testing.T) {
	assert.Equal(t, "", Scholarity.ToAPI("doutorado"))
	assert.Equal(t, "", Scholarity.FromAPI("POS_DOC"))
	assert.Equal(t, "", LastConsultation.FromAPI("NAO_CONSTA"))
	assert.Nil(t, CivilStatus.ptr(""))
}

func TestNewTablePanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		NewTable("dup", [2]string{"a", "A"}, [2]string{"b", "A"})
	})
}

func TestFirstOfSkipsOther(t *testing.T) {
	got := ConductHAS.firstOf([]string{"outro", "grupo"}, "outro")
	require.NotNil(t, got)
	assert.Equal(t, "ACONSELHAMENTO_GRUPO", *got)
	assert.Nil(t, ConductHAS.firstOf([]string{"outro"}, "outro"))
	assert.Nil(t, ConductHAS.firstOf(nil, "outro"))
}

// ---------------------------------------------------------------------------
// Patient
// ---------------------------------------------------------------------------

func TestPatientCreateDerivesUser(t *testing.T) {
	f := form.New()
	f.Socio.Nome = "Maria Silva"
	f.Socio.SusCPF = "12345678901"

	p := PatientToAPI(f, schema.Create, nil, now)
	require.NotNil(t, p.User)
	assert.Equal(t, "12345678901", p.User.Username)
	assert.Equal(t, "Maria", p.User.FirstName)
	assert.Equal(t, "Silva", p.User.LastName)
	assert.Empty(t, p.User.Email)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]{2}\d{5}#$`), p.User.Password)

	raw, err := json.Marshal(p.User)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "email")
}

func TestPatientCreateKeepsTypedPassword(t *testing.T) {
	f := form.New()
	f.Socio.Nome = "Ana"
	f.Socio.SusCPF = "123.456.789-01"
	f.Socio.Password = "segredo123"
	p := PatientToAPI(f, schema.Create, nil, now)
	require.NotNil(t, p.User)
	assert.Equal(t, "segredo123", p.User.Password)
	assert.Equal(t, "Ana", p.User.FirstName)
	assert.Equal(t, "", p.User.LastName)
}

func TestPatientEditOmitsUser(t *testing.T) {
	f := form.New()
	f.Socio.Nome = "Maria Silva"
	f.Socio.SusCPF = "12345678901"
	p := PatientToAPI(f, schema.Edit, nil, now)
	assert.Nil(t, p.User)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"user"`)
}

func TestPatientFields(t *testing.T) {
	f := form.New()
	f.Socio.SusCPF = "123.456.789-01"
	f.Socio.Nascimento = "1960-06-16"
	f.Socio.Escolaridade = "fund_incompleto"
	f.Socio.EstadoCivil = "uniao_estavel"
	f.Socio.Telefone = "(61) 99999-0000"
	f.Socio.RendaFamiliar = form.Ptr(1500.5)
	f.Multiprof.PsicoDiagnostico = form.NaoSabe
	f.Multiprof.FisicoAtividade = form.Sim
	f.Multiprof.FisicoAtividadeFreqSemana = form.Ptr(3)
	f.Multiprof.AmbiDoencasTransmissiveis = []string{"tuberculose", "chagas"}
	f.Multiprof.EncMultiprof = []string{"outro", "nutricionista"}

	p := PatientToAPI(f, schema.Edit, form.Ptr(77), now)
	assert.Equal(t, "12345678901", *p.CPF)
	assert.Equal(t, "1960-06-16", *p.BirthDate)
	assert.Equal(t, 64, *p.Age)
	assert.Equal(t, "FUND_INCOMPL", *p.Scholarity)
	assert.Equal(t, "UNIAO_ESTAVEL", *p.CivilStatus)
	assert.Equal(t, "61999990000", *p.Phone)
	assert.Equal(t, "1500.50", *p.FamilyIncome)
	assert.Equal(t, 77, *p.Address)
	assert.Nil(t, p.PsychDiagnosis, "nao_sabe must not become false")
	assert.True(t, *p.PhysicalActivity)
	assert.Equal(t, "3", *p.PhysicalActivityAnswer)
	assert.Equal(t, "TUBERCULOSE", *p.TransmissibleDisease)
	assert.Equal(t, "NUTRICIONISTA", *p.RequiresReferralChoice)
	assert.Nil(t, p.Gender)
}

func TestPatientLifestyleSource(t *testing.T) {
	f := form.New()
	f = form.SetCondition(f, form.CondHAS, true)
	f = form.SetCondition(f, form.CondDM, true)
	f.Clinica.DM.Sal = "exagerado"
	f.Clinica.DM.UltimaConsultaDM = "6m"

	p := PatientToAPI(f, schema.Edit, nil, now)
	assert.Equal(t, "EXAGERADO", *p.SaltConsumption, "empty HAS block falls back to DM")
	assert.Equal(t, "6_MESES", *p.LastConsultation)

	f.Clinica.HAS.Tabagismo = "ex"
	p = PatientToAPI(f, schema.Edit, nil, now)
	assert.Equal(t, "EX_FUMANTE", *p.Smoking)
	assert.Nil(t, p.SaltConsumption)
	assert.Equal(t, "6_MESES", *p.LastConsultation)
}

func TestPatientFromAPI(t *testing.T) {
	raw := `{
		"id": 42,
		"user": {"id": 9, "username": "12345678901", "first_name": "Maria", "last_name": "da Silva", "email": "m@x.org"},
		"cpf": "12345678901",
		"birth_date": "1960-06-16",
		"scholarity": "SUP_COMPL",
		"civil_status": "VIUVO",
		"family_income": "1200.00",
		"address": {"id": 5, "uf": "PB", "city": "João Pessoa", "district": "Centro", "street": "Rua A", "number": 12, "zipcode": "58000-000"},
		"feed": "POUCO",
		"last_consultation": "1_ANO",
		"performs_physical_activity_answer": "2"
	}`
	var rec PatientRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	f := PatientFromAPI(rec)
	assert.Equal(t, "Maria da Silva", f.Socio.Nome)
	assert.Equal(t, "m@x.org", f.Socio.Email)
	assert.Equal(t, "sup_completo", f.Socio.Escolaridade)
	assert.Equal(t, "viuvo", f.Socio.EstadoCivil)
	assert.Equal(t, 1200.0, *f.Socio.RendaFamiliar)
	assert.Equal(t, "Rua A, 12", f.Socio.Endereco.Logradouro)
	assert.Equal(t, "58000-000", f.Socio.Endereco.CEP)
	assert.Equal(t, 5, *f.Socio.AddressID)
	assert.Equal(t, 2, *f.Multiprof.FisicoAtividadeFreqSemana)
	assert.False(t, f.Condicoes.HAS)

	f = ApplyLifestyle(f, rec)
	require.NotNil(t, f.Clinica.HAS)
	require.NotNil(t, f.Clinica.DM)
	assert.Equal(t, "pouco", f.Clinica.HAS.EstiloAlimentacao)
	assert.Equal(t, "pouco", f.Clinica.DM.EstiloAlimentacao)
	assert.Equal(t, "1a", f.Clinica.HAS.UltimaConsultaHAS)
	assert.Equal(t, "1a", f.Clinica.DM.UltimaConsultaDM)
	assert.False(t, f.Clinica.HAS.HasData(), "lifestyle alone is not clinical data")
}

func TestApplyLifestyleKeepsExisting(t *testing.T) {
	f := form.New()
	f.Clinica.HAS = &form.ClinicaHAS{}
	f.Clinica.HAS.Alcool = "socialmente"
	rec := PatientRecord{}
	rec.AlcoholConsumption = form.Ptr("FREQUENTEMENTE")

	out := ApplyLifestyle(f, rec)
	assert.Equal(t, "socialmente", out.Clinica.HAS.Alcool)
	assert.Equal(t, "frequentemente", out.Clinica.DM.Alcool)
	assert.Equal(t, "socialmente", f.Clinica.HAS.Alcool, "input is not mutated")
}

func TestUserRefAcceptsID(t *testing.T) {
	var rec PatientRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"user":9,"address":3}`), &rec))
	assert.Equal(t, 9, rec.User.ID)
	assert.Equal(t, 3, *rec.Address.ID)
	assert.Nil(t, rec.AddressRecord())
}

// ---------------------------------------------------------------------------
// Conditions
// ---------------------------------------------------------------------------

func TestHASToAPINilRule(t *testing.T) {
	f := form.New()
	assert.Nil(t, HASToAPI(f, 1), "flag off, no block")

	f.Clinica.HAS = &form.ClinicaHAS{}
	f.Clinica.HAS.Sal = "adequado"
	assert.Nil(t, HASToAPI(f, 1), "lifestyle alone does not create a case")

	f.Clinica.HAS.PA1Sis = form.Ptr(140)
	assert.NotNil(t, HASToAPI(f, 1), "clinical data without the flag still maps")

	f = form.SetCondition(form.New(), form.CondHAS, true)
	assert.NotNil(t, HASToAPI(f, 1), "flag on with empty block")
}

func TestDMToAPINilRule(t *testing.T) {
	f := form.New()
	assert.Nil(t, DMToAPI(f, 1))
	f.Clinica.DM = &form.ClinicaDM{HbA1c: form.Ptr(7.5)}
	p := DMToAPI(f, 1)
	require.NotNil(t, p)
	assert.Equal(t, "7.5", *p.HbA1c)
}

func TestHASPayloadFormatting(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondHAS, true)
	h := f.Clinica.HAS
	h.Peso = form.Ptr(80.0)
	h.Altura = form.Ptr(180.0)
	h.ColTotalData = "05/03/2024"
	h.HDLData = "not a date"
	h.Complicacoes = []string{"outra", "renal"}

	p := HASToAPI(f, 42)
	require.NotNil(t, p)
	assert.Equal(t, 42, p.Patient)
	assert.Equal(t, "80.00", *p.Weight)
	assert.Equal(t, "180.00", *p.Height)
	assert.Equal(t, "24.69", *p.IMC)
	assert.Equal(t, "2024-03-05", *p.CholesterolDate)
	assert.Nil(t, p.HDLDate)
	assert.Equal(t, "DOENCA_RENAL", *p.Complications)
	assert.Nil(t, p.IsDiagnosed)
}

// The round trips below use single-choice multi-selects and yes/no risk
// answers; the lossy cases are pinned in TestRoundTripLosses.
func TestHASRoundTrip(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondHAS, true)
	*f.Clinica.HAS = form.ClinicaHAS{
		DiagHAS:           form.Sim,
		UsaMedicacao:      "irregular",
		HistoricoFamiliar: form.Nao,
		Medicamentos:      "losartana",
		PA1Sis:            form.Ptr(150),
		PA1Dia:            form.Ptr(95),
		ColTotal:          form.Ptr(210.0),
		ColTotalData:      "2024-02-01",
		ClassificacaoPA:   "estagio2",
		Framingham:        "10-20",
		Condutas:          []string{"encaminhamento"},
		Complicacoes:      []string{"avc"},
	}
	f.Clinica.HAS.Peso = form.Ptr(70.0)

	p := HASToAPI(f, 42)
	require.NotNil(t, p)
	raw, err := json.Marshal(HASRecord{ID: 3, HASPayload: *p})
	require.NoError(t, err)
	var rec HASRecord
	require.NoError(t, json.Unmarshal(raw, &rec))

	back := HASFromAPI(rec)
	want := *f.Clinica.HAS
	assert.Equal(t, want.DiagHAS, back.DiagHAS)
	assert.Equal(t, want.UsaMedicacao, back.UsaMedicacao)
	assert.Equal(t, want.HistoricoFamiliar, back.HistoricoFamiliar)
	assert.Equal(t, want.Medicamentos, back.Medicamentos)
	assert.Equal(t, want.PA1Sis, back.PA1Sis)
	assert.Equal(t, want.PA1Dia, back.PA1Dia)
	assert.Equal(t, want.ColTotal, back.ColTotal)
	assert.Equal(t, want.ColTotalData, back.ColTotalData)
	assert.Equal(t, want.ClassificacaoPA, back.ClassificacaoPA)
	assert.Equal(t, want.Framingham, back.Framingham)
	assert.Equal(t, want.Condutas, back.Condutas)
	assert.Equal(t, want.Complicacoes, back.Complicacoes)
	assert.Equal(t, want.Peso, back.Peso)
}

func TestDMRoundTrip(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondDM, true)
	*f.Clinica.DM = form.ClinicaDM{
		DiagDM:                 form.NaoSabe,
		UsaMedicacao:           "sim",
		HistoricoFamiliar:      form.Sim,
		TipoTratamento:         []string{"insulina"},
		Comorbidades:           []string{"visual"},
		PeDiabetico:            form.Sim,
		PeDiabeticoMembro:      "pé esquerdo",
		GlicemiaJejum:          form.Ptr(126.0),
		HbA1c:                  form.Ptr(7.5),
		TriagemDM:              "suspeita_dm",
		RiscoIdade45:           form.Sim,
		RiscoSedentarismo:      form.Nao,
		RiscoDMGestacional:     "nao",
		Condutas:               []string{"inicio_trat", "outro"},
		CondutaOutro:           "grupo de caminhada",
		RiscoLipidiosAlterados: form.Sim,
	}

	p := DMToAPI(f, 42)
	require.NotNil(t, p)
	assert.Equal(t, "126", *p.GlucoseFasting)
	assert.Nil(t, p.IsDiagnosed)

	raw, err := json.Marshal(DMRecord{ID: 8, DMPayload: *p})
	require.NoError(t, err)
	var rec DMRecord
	require.NoError(t, json.Unmarshal(raw, &rec))

	back := DMFromAPI(rec)
	want := *f.Clinica.DM
	assert.Equal(t, want.DiagDM, back.DiagDM)
	assert.Equal(t, want.UsaMedicacao, back.UsaMedicacao)
	assert.Equal(t, want.HistoricoFamiliar, back.HistoricoFamiliar)
	assert.Equal(t, want.TipoTratamento, back.TipoTratamento)
	assert.Equal(t, want.Comorbidades, back.Comorbidades)
	assert.Equal(t, want.PeDiabetico, back.PeDiabetico)
	assert.Equal(t, want.PeDiabeticoMembro, back.PeDiabeticoMembro)
	assert.Equal(t, want.GlicemiaJejum, back.GlicemiaJejum)
	assert.Equal(t, want.HbA1c, back.HbA1c)
	assert.Equal(t, want.TriagemDM, back.TriagemDM)
	assert.Equal(t, want.RiscoIdade45, back.RiscoIdade45)
	assert.Equal(t, want.RiscoSedentarismo, back.RiscoSedentarismo)
	assert.Equal(t, want.RiscoLipidiosAlterados, back.RiscoLipidiosAlterados)
	assert.Equal(t, want.RiscoDMGestacional, back.RiscoDMGestacional)
	assert.Equal(t, want.Condutas, back.Condutas)
	assert.Equal(t, want.CondutaOutro, back.CondutaOutro)
}

func TestRoundTripLosses(t *testing.T) {
	// the backend stores a single conduct and complication
	h := form.SetCondition(form.New(), form.CondHAS, true)
	h.Clinica.HAS.DiagHAS = form.Sim
	h.Clinica.HAS.Condutas = []string{"outro", "grupo", "aps"}
	h.Clinica.HAS.Complicacoes = []string{"infarto", "renal"}
	hp := HASToAPI(h, 1)
	require.NotNil(t, hp)
	hb := HASFromAPI(HASRecord{ID: 2, HASPayload: *hp})
	assert.Equal(t, []string{"grupo"}, hb.Condutas)
	assert.Equal(t, []string{"infarto"}, hb.Complicacoes)

	// risk answers are booleans upstream, so "não se aplica" comes back blank
	d := form.SetCondition(form.New(), form.CondDM, true)
	d.Clinica.DM.DiagDM = form.Sim
	d.Clinica.DM.RiscoDMGestacional = "nao_se_aplica"
	d.Clinica.DM.RiscoSOP = "nao_se_aplica"
	dp := DMToAPI(d, 1)
	require.NotNil(t, dp)
	assert.Nil(t, dp.GestationalDM)
	assert.Nil(t, dp.PCOS)
	db := DMFromAPI(DMRecord{ID: 3, DMPayload: *dp})
	assert.Empty(t, db.RiscoDMGestacional)
	assert.Empty(t, db.RiscoSOP)
}

func TestFromAPINullMedication(t *testing.T) {
	h := HASFromAPI(HASRecord{})
	assert.Equal(t, "nao_se_aplica", h.UsaMedicacao)
	assert.Equal(t, form.NaoSabe, h.DiagHAS)

	d := DMFromAPI(DMRecord{DMPayload: DMPayload{UsesMedication: form.Ptr("XYZ")}})
	assert.Equal(t, "nao_se_aplica", d.UsaMedicacao)
}

// ---------------------------------------------------------------------------
// Address, appointment, alert, utilities
// ---------------------------------------------------------------------------

func TestSplitStreet(t *testing.T) {
	cases := []struct {
		in     string
		street string
		number int
	}{
		{"Rua das Flores, 120", "Rua das Flores", 120},
		{"Av. Brasil, nº 45", "Av. Brasil", 45},
		{"Rua B 45", "Rua B", 45},
		{"Travessa sem número", "Travessa sem número", 1},
		{"Rua C, s/n", "Rua C, s/n", 1},
	}
	for _, tc := range cases {
		street, number := SplitStreet(tc.in)
		assert.Equal(t, tc.street, street, tc.in)
		assert.Equal(t, tc.number, number, tc.in)
	}
}

func TestAddressToAPI(t *testing.T) {
	assert.Nil(t, AddressToAPI(form.Endereco{Logradouro: "Rua A, 1"}))

	p := AddressToAPI(form.Endereco{Logradouro: "Rua A, 10", Bairro: "Centro", Cidade: "Recife", UF: "pe"})
	require.NotNil(t, p)
	assert.Equal(t, "PE", p.UF)
	assert.Equal(t, "Rua A", p.Street)
	assert.Equal(t, 10, p.Number)
	assert.Nil(t, p.Zipcode)

	back := AddressFromAPI(AddressRecord{ID: 1, AddressPayload: *p})
	assert.Equal(t, "Rua A, 10", back.Logradouro)
}

func TestRiskLevel(t *testing.T) {
	f := form.New()
	assert.Equal(t, RiskSeguro, RiskLevel(f))

	f = form.SetCondition(f, form.CondHAS, true)
	f.Clinica.HAS.ClassificacaoPA = "estagio1"
	assert.Equal(t, RiskModerado, RiskLevel(f))

	f.Clinica.HAS.ClassificacaoPA = "estagio3"
	assert.Equal(t, RiskCritico, RiskLevel(f))

	g := form.SetCondition(form.New(), form.CondDM, true)
	g.Clinica.DM.TriagemDM = "diagnostico_confirmado"
	assert.Equal(t, RiskCritico, RiskLevel(g))
}

func TestAppointmentToAPI(t *testing.T) {
	f := form.New()
	f.Socio.Nome = "João Souza"
	when := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	p := AppointmentToAPI(42, 7, when, Primary, f)
	assert.Equal(t, 42, p.Patient)
	assert.Equal(t, 7, p.Professional)
	assert.Equal(t, "2025-07-01T09:00:00Z", p.ScheduledDatetime)
	assert.Equal(t, TypeConsulta, p.Type)
	assert.Equal(t, StatusAgendado, p.Status)
	assert.Equal(t, "Paciente: João S.", *p.Description)

	f.Plano.Resumo = "Revisar exames"
	p = AppointmentToAPI(42, 7, when, FollowUp, f)
	assert.Equal(t, "Retorno · Revisar exames", *p.Description)
}

func TestAlertToAPI(t *testing.T) {
	a := AlertToAPI("123.456.789-01", " PA alta ", "Sistólica 180", "Critico")
	assert.Equal(t, "12345678901", a.CPF)
	assert.Equal(t, "critical", a.RiskLevel)
	assert.Equal(t, "PA alta", a.Title)

	assert.Equal(t, "moderate", AlertToAPI("1", "t", "d", "").RiskLevel)
}

func TestGeneratePassword(t *testing.T) {
	re := regexp.MustCompile(`^[a-z]{2}\d{5}#$`)
	for i := 0; i < 200; i++ {
		assert.Regexp(t, re, GeneratePassword())
	}
}

func TestAgeFromBirth(t *testing.T) {
	assert.Equal(t, 65, *AgeFromBirth("1960-06-15", now))
	assert.Equal(t, 64, *AgeFromBirth("1960-06-16", now))
	assert.Equal(t, 0, *AgeFromBirth("2030-01-01", now))
	assert.Nil(t, AgeFromBirth("", now))
}

func TestToDateISO(t *testing.T) {
	assert.Equal(t, "2024-01-31", *ToDateISO("31/01/2024"))
	assert.Equal(t, "2024-01-31", *ToDateISO("2024-01-31T10:00:00Z"))
	assert.Nil(t, ToDateISO("31-31-2024"))
	assert.Nil(t, ToDateISO(""))
}
