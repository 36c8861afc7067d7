package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/schema"
)

func socioOK() form.FormState {
	f := form.New()
	f.Socio.Nome = "Maria Silva"
	f.Socio.SusCPF = "123.456.789-01"
	return f
}

func TestNextRefusesInvalidStep(t *testing.T) {
	c := New(schema.Create, true)
	out := c.Next(form.New())

	assert.False(t, out.Moved)
	assert.Equal(t, WarnInvalidStep, out.Warning)
	assert.Equal(t, "socio.nome", out.Focus)
	assert.Equal(t, StepSocio, c.Step)
}

func TestNextIgnoresErrorsOutsideStep(t *testing.T) {
	c := New(schema.Create, true)
	f := socioOK() // address, schooling etc. still missing
	out := c.Next(f)
	assert.True(t, out.Moved)
	assert.Equal(t, StepCondicoes, c.Step)
}

func TestNextSkipsDisabledClinic(t *testing.T) {
	c := New(schema.Create, true)
	f := socioOK()
	f.Condicoes.OutrasDCNTs = "asma"
	require.True(t, c.Next(f).Moved)
	require.True(t, c.Next(f).Moved)
	assert.Equal(t, StepMultiprof, c.Step)

	c.Prev(f)
	assert.Equal(t, StepCondicoes, c.Step)
}

func TestConditionsStepNeedsOne(t *testing.T) {
	c := New(schema.Create, true)
	c.Step = StepCondicoes
	out := c.Next(socioOK())
	assert.False(t, out.Moved)
	assert.Equal(t, "condicoes.has", out.Focus)
}

func TestClinicStepRequiresAnswersWhenHASFlagged(t *testing.T) {
	c := New(schema.Create, true)
	f := form.SetCondition(socioOK(), form.CondHAS, true)
	require.True(t, c.Next(f).Moved)
	require.True(t, c.Next(f).Moved)
	require.Equal(t, StepClinica, c.Step, "clinic step renders when HAS is flagged")

	out := c.Next(f)
	assert.False(t, out.Moved)
	paths := map[string]bool{}
	for _, e := range out.Errors {
		paths[e.Path] = true
	}
	assert.True(t, paths["clinica.has.diag_has"])
	assert.True(t, paths["clinica.has.usa_medicacao"])
	assert.True(t, paths["clinica.has.historico_familiar"])

	f.Clinica.HAS.DiagHAS = form.Sim
	f.Clinica.HAS.UsaMedicacao = "sim"
	f.Clinica.HAS.HistoricoFamiliar = form.NaoSabe
	assert.True(t, c.Next(f).Moved)
	assert.Equal(t, StepMultiprof, c.Step)
}

func TestGoToDisabledClinicRefused(t *testing.T) {
	c := New(schema.Create, true)
	out := c.GoTo(StepClinica, socioOK())
	assert.False(t, out.Moved)
	assert.Equal(t, WarnClinicDisabled, out.Warning)
	assert.Equal(t, StepSocio, c.Step)
}

func TestGoToFreeNavigation(t *testing.T) {
	c := New(schema.Create, true)
	out := c.GoTo(StepPlano, form.New())
	assert.True(t, out.Moved)
	assert.Equal(t, StepPlano, c.Step)
	assert.True(t, c.CanSubmit())
	assert.True(t, c.Visited(StepPlano))
	assert.False(t, c.Visited(StepMultiprof))

	strict := New(schema.Create, false)
	out = strict.GoTo(StepPlano, form.New())
	assert.False(t, out.Moved)
	assert.Equal(t, WarnInvalidStep, out.Warning)

	strict.Step = StepMultiprof
	assert.True(t, strict.GoTo(StepSocio, form.New()).Moved, "backward never validates")
}

func TestSyncLeavesClinicWhenDisabled(t *testing.T) {
	c := New(schema.Create, true)
	f := form.SetCondition(socioOK(), form.CondDM, true)
	c.GoTo(StepClinica, f)
	require.Equal(t, StepClinica, c.Step)

	f = form.SetCondition(f, form.CondDM, false)
	assert.True(t, c.Sync(f))
	assert.Equal(t, StepMultiprof, c.Step)
	assert.False(t, c.Sync(f))
}

func TestEditModeOnlyChecksFormats(t *testing.T) {
	c := New(schema.Edit, true)
	assert.True(t, c.Next(form.New()).Moved)

	c = New(schema.Edit, true)
	f := form.New()
	f.Socio.SusCPF = "123"
	assert.False(t, c.Next(f).Moved)
}

func TestTargetsAndProgress(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondDM, true)
	assert.Equal(t, []string{"clinica.dm.diag_dm", "clinica.dm.usa_medicacao", "clinica.dm.historico_familiar"}, Targets(StepClinica, f))
	assert.Empty(t, Targets(StepMultiprof, f))
	assert.Empty(t, Targets(StepPlano, f))

	c := New(schema.Create, true)
	assert.Equal(t, 20, c.Progress())
	c.Step = StepPlano
	assert.Equal(t, 100, c.Progress())
	assert.Equal(t, "Clínica", StepClinica.String())

	errs := schema.Errors{{Path: "clinica.dm.diag_dm", Message: "x"}}
	assert.True(t, StepHasErrors(StepClinica, f, errs))
	assert.False(t, StepHasErrors(StepSocio, f, errs))
}

func TestPrevAtStartStays(t *testing.T) {
	c := New(schema.Create, true)
	assert.False(t, c.Prev(form.New()).Moved)
	assert.Equal(t, StepSocio, c.Step)
}
