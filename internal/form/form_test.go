package form

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriStateBoolConversion(t *testing.T) {
	assert.Equal(t, true, *Sim.Bool())
	assert.Equal(t, false, *Nao.Bool())
	assert.Nil(t, NaoSabe.Bool(), "unknown must not collapse to false")
	assert.Nil(t, Unset.Bool())

	yes, no := true, false
	assert.Equal(t, Sim, TriFromBool(&yes))
	assert.Equal(t, Nao, TriFromBool(&no))
	assert.Equal(t, NaoSabe, TriFromBool(nil))
	assert.Equal(t, Unset, SimNaoFromBool(nil))
}

func TestParseTriState(t *testing.T) {
	cases := map[string]TriState{"sim": Sim, "Não": Nao, "nao_sabe": NaoSabe, "": Unset, "y": Sim}
	for in, want := range cases {
		got, ok := ParseTriState(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseTriState("talvez")
	assert.False(t, ok)
}

func TestSetConditionEnsuresAndClearsBlock(t *testing.T) {
	f := New()

	f = SetCondition(f, CondHAS, true)
	require.NotNil(t, f.Clinica.HAS)
	assert.True(t, f.Condicoes.HAS)
	assert.Nil(t, f.Clinica.DM)

	f.Clinica.HAS.PA1Sis = Ptr(140)
	f = SetCondition(f, CondHAS, true)
	assert.Equal(t, 140, *f.Clinica.HAS.PA1Sis, "re-enabling keeps existing data")

	f = SetCondition(f, CondHAS, false)
	assert.Nil(t, f.Clinica.HAS)
	assert.False(t, f.Condicoes.HAS)
}

func TestReconcile(t *testing.T) {
	f := New()
	f.Condicoes.DM = true
	f.Clinica.HAS = &ClinicaHAS{DiagHAS: Sim}

	kept := Reconcile(f, true)
	assert.NotNil(t, kept.Clinica.DM)
	assert.NotNil(t, kept.Clinica.HAS)

	strict := Reconcile(f, false)
	assert.NotNil(t, strict.Clinica.DM)
	assert.Nil(t, strict.Clinica.HAS)
}

func TestDeriveIMC(t *testing.T) {
	imc := DeriveIMC(Ptr(80.0), Ptr(1.80))
	require.NotNil(t, imc)
	assert.InDelta(t, 24.69, *imc, 0.001)

	cm := DeriveIMC(Ptr(80.0), Ptr(180.0))
	require.NotNil(t, cm)
	assert.InDelta(t, 24.69, *cm, 0.001)

	assert.Nil(t, DeriveIMC(nil, Ptr(1.7)))
	assert.Nil(t, DeriveIMC(Ptr(70.0), Ptr(0.0)))
}

func TestNormalizeRecomputesIMC(t *testing.T) {
	f := New()
	f.Clinica.DM = &ClinicaDM{}
	f.Clinica.DM.Peso = Ptr(60.0)
	f.Clinica.DM.Altura = Ptr(1.5)
	f.Clinica.DM.IMC = Ptr(99.0)

	f = Normalize(f)
	assert.InDelta(t, 26.67, *f.Clinica.DM.IMC, 0.001)
}

func TestHasDataIgnoresLifestyleOnly(t *testing.T) {
	h := &ClinicaHAS{}
	h.Sal = "exagerado"
	assert.False(t, h.HasData())

	h.Condutas = []string{"aps"}
	assert.True(t, h.HasData())

	var nilBlock *ClinicaDM
	assert.False(t, nilBlock.HasData())
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "João S.", ShortName("João da Silva"))
	assert.Equal(t, "Maria", ShortName("  Maria "))
	assert.Equal(t, "", ShortName(""))
}

func TestPlanSummary(t *testing.T) {
	f := New()
	f.Socio.Nome = "João Pedro Souza"
	f = SetCondition(f, CondHAS, true)
	f = SetCondition(f, CondDM, true)
	f.Clinica.HAS.ClassificacaoPA = "estagio2"
	f.Clinica.DM.HbA1c = Ptr(7.5)

	assert.Equal(t, "Paciente: João S. · Condições: HAS e DM · HAS estágio 2 · HbA1c 7.5%", PlanSummary(f))
	assert.Equal(t, "", PlanSummary(New()))
}

func TestAddDaysAndParseDate(t *testing.T) {
	base := time.Date(2025, 1, 30, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-02-06", AddDays(base, 7))

	d, ok := ParseDate("06/02/2025")
	require.True(t, ok)
	assert.Equal(t, "2025-02-06", d.Format(DateLayout))

	_, ok = ParseDate("31/31/2025")
	assert.False(t, ok)
}

func TestDraftJSONKeys(t *testing.T) {
	f := SetCondition(New(), CondHAS, true)
	f.Clinica.HAS.Peso = Ptr(70.0)
	f.Clinica.HAS.Sal = "adequado"

	raw, err := json.Marshal(f)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	has := generic["clinica"].(map[string]any)["has"].(map[string]any)
	assert.Equal(t, 70.0, has["peso"])
	assert.Equal(t, "adequado", has["sal"])
}
