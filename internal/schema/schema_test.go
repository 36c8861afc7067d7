package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/form"
)

func validForm() form.FormState {
	f := form.New()
	f.Socio = form.Socio{
		Nome:         "Maria Silva",
		Nascimento:   "1960-04-12",
		Genero:       "F",
		SusCPF:       "123.456.789-01",
		Telefone:     "(61) 99999-0000",
		Escolaridade: "medio_completo",
		EstadoCivil:  "casado",
		Endereco: form.Endereco{
			Logradouro: "Rua das Flores, 10",
			Bairro:     "Centro",
			Cidade:     "Brasília",
			UF:         "DF",
			CEP:        "70000-000",
		},
	}
	f = form.SetCondition(f, form.CondHAS, true)
	f.Clinica.HAS.DiagHAS = form.Sim
	f.Clinica.HAS.UsaMedicacao = "sim"
	f.Clinica.HAS.HistoricoFamiliar = form.NaoSabe
	return f
}

func TestValidateValidForm(t *testing.T) {
	errs := Validate(validForm(), Create)
	assert.Empty(t, errs, errs.Error())
}

func TestCPFDigitCount(t *testing.T) {
	for n := 0; n <= 15; n++ {
		f := validForm()
		f.Socio.SusCPF = strings.Repeat("7", n)
		_, failed := Validate(f, Create).Get("socio.sus_cpf")
		assert.Equal(t, n != 11, failed, "digits=%d", n)
	}
}

func TestCPFPunctuationIgnored(t *testing.T) {
	f := validForm()
	f.Socio.SusCPF = "123.456.789-01"
	_, failed := Validate(f, Create).Get("socio.sus_cpf")
	assert.False(t, failed)
}

func TestTelefone(t *testing.T) {
	cases := map[string]bool{
		"":                true,
		"6199990000":      true,
		"(61) 99999-0000": true,
		"999":             false,
		"123456789012":    false,
	}
	for tel, ok := range cases {
		f := validForm()
		f.Socio.Telefone = tel
		_, failed := Validate(f, Create).Get("socio.telefone")
		assert.Equal(t, !ok, failed, "telefone=%q", tel)
	}
}

func TestCEP(t *testing.T) {
	cases := map[string]bool{
		"":          true,
		"70000-000": true,
		"70000000":  true,
		"7000-000":  false,
		"abcde-fgh": false,
	}
	for cep, ok := range cases {
		f := validForm()
		f.Socio.Endereco.CEP = cep
		_, failed := Validate(f, Create).Get("socio.endereco.cep")
		assert.Equal(t, !ok, failed, "cep=%q", cep)
	}
}

func TestBlankOptionalFieldsNeverFail(t *testing.T) {
	f := validForm()
	f.Clinica.HAS.Peso = nil
	f.Clinica.HAS.ColTotalData = "   "
	f.Plano.DataConsulta = ""
	errs := Validate(f, Create)
	assert.Empty(t, errs)
}

func TestGeneroOutroRequired(t *testing.T) {
	f := validForm()
	f.Socio.Genero = "O"
	msg, failed := Validate(f, Create).Get("socio.genero_outro")
	require.True(t, failed)
	assert.Equal(t, "Descreva o gênero", msg)

	f.Socio.GeneroOutro = "não binário"
	_, failed = Validate(f, Create).Get("socio.genero_outro")
	assert.False(t, failed)
}

func TestConditionsRequireOne(t *testing.T) {
	f := validForm()
	f = form.SetCondition(f, form.CondHAS, false)
	msg, failed := Validate(f, Create).Get("condicoes.has")
	require.True(t, failed)
	assert.Equal(t, "Selecione HAS/DM ou informe outras DCNTs.", msg)

	f.Condicoes.OutrasDCNTs = "asma"
	_, failed = Validate(f, Create).Get("condicoes.has")
	assert.False(t, failed)
}

func TestMissingClinicalBlockAttachesToBlockPath(t *testing.T) {
	f := validForm()
	f.Condicoes.DM = true // flag set without going through SetCondition
	msg, failed := Validate(f, Create).Get("clinica.dm")
	require.True(t, failed)
	assert.Equal(t, "Preencha os dados de DM.", msg)
}

func TestActiveBlockRequiresAnswers(t *testing.T) {
	f := validForm()
	f.Clinica.HAS = &form.ClinicaHAS{}
	errs := Validate(f, Create)
	for _, p := range []string{"clinica.has.diag_has", "clinica.has.usa_medicacao", "clinica.has.historico_familiar"} {
		_, failed := errs.Get(p)
		assert.True(t, failed, p)
	}
}

func TestTwoStateRejectsNaoSabe(t *testing.T) {
	f := validForm()
	f.Multiprof.FisicoEdemas = form.NaoSabe
	f.Multiprof.PsicoDiagnostico = form.NaoSabe
	errs := Validate(f, Create)
	_, failed := errs.Get("multiprof.fisico_edemas")
	assert.True(t, failed)
	_, failed = errs.Get("multiprof.psico_diagnostico")
	assert.False(t, failed)
}

func TestEditModeSkipsRequired(t *testing.T) {
	f := form.New()
	f.Clinica.HAS = &form.ClinicaHAS{}
	assert.Empty(t, Validate(f, Edit))

	f.Socio.SusCPF = "123"
	f.Socio.Endereco.UF = "XX"
	errs := Validate(f, Edit)
	_, failed := errs.Get("socio.sus_cpf")
	assert.True(t, failed)
	_, failed = errs.Get("socio.endereco.uf")
	assert.True(t, failed)
}

func TestValidatePathsFiltersByPrefix(t *testing.T) {
	f := validForm()
	f.Socio.Nome = "Jo"
	f.Clinica.HAS.PA1Sis = form.Ptr(-1)

	errs := ValidatePaths(f, Create, []string{"clinica.has"})
	require.Len(t, errs, 1)
	assert.Equal(t, "clinica.has.pa1_sis", errs[0].Path)

	errs = ValidatePaths(f, Create, []string{"socio.nome", "socio.sus_cpf"})
	require.Len(t, errs, 1)
	assert.Equal(t, "socio.nome", errs[0].Path)

	assert.Nil(t, ValidatePaths(f, Create, nil))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("clinica.has.diag_has", []string{"clinica.has"}))
	assert.True(t, Matches("clinica.has", []string{"clinica.has"}))
	assert.False(t, Matches("clinica.hasx", []string{"clinica.has"}))
}
