package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/wizard"
)

func TestPathsBelongToTheirStep(t *testing.T) {
	prefix := map[wizard.Step]string{
		wizard.StepSocio:     "socio.",
		wizard.StepCondicoes: "condicoes.",
		wizard.StepClinica:   "clinica.",
		wizard.StepMultiprof: "multiprof.",
		wizard.StepPlano:     "plano.",
	}
	seen := map[string]bool{}
	for _, step := range wizard.Steps() {
		require.NotEmpty(t, All(step), step.String())
		for _, fd := range All(step) {
			assert.True(t, strings.HasPrefix(fd.Path, prefix[step]), fd.Path)
			assert.False(t, seen[fd.Path], "duplicate %s", fd.Path)
			seen[fd.Path] = true
			assert.NotEmpty(t, fd.Label, fd.Path)
		}
	}
}

func TestWizardTargetsAreEditable(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondHAS, true)
	f = form.SetCondition(f, form.CondDM, true)
	for _, step := range wizard.Steps() {
		for _, path := range wizard.Targets(step, f) {
			fd, ok := Find(path)
			require.True(t, ok, path)
			assert.True(t, fd.Visible(&f), path)
			got, ok := StepOf(path)
			require.True(t, ok)
			assert.Equal(t, step, got)
		}
	}
}

func TestClinicalFieldsFollowTheBlocks(t *testing.T) {
	f := form.New()
	assert.Empty(t, For(wizard.StepClinica, &f))

	cond := All(wizard.StepCondicoes)[0]
	cond.Cycle(&f, 1)
	assert.True(t, f.Condicoes.HAS)
	require.NotNil(t, f.Clinica.HAS)

	visible := For(wizard.StepClinica, &f)
	require.NotEmpty(t, visible)
	for _, fd := range visible {
		assert.True(t, strings.HasPrefix(fd.Path, "clinica.has."), fd.Path)
	}

	cond.Cycle(&f, 1)
	assert.False(t, f.Condicoes.HAS)
	assert.Nil(t, f.Clinica.HAS)
}

func TestConditionalFields(t *testing.T) {
	f := form.New()
	_, shown := visibleByPath(wizard.StepSocio, &f)["socio.genero_outro"]
	assert.False(t, shown)

	f.Socio.Genero = "O"
	_, shown = visibleByPath(wizard.StepSocio, &f)["socio.genero_outro"]
	assert.True(t, shown)
}

func TestTypedSetters(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondHAS, true)

	pa, _ := Find("clinica.has.pa1_sis")
	require.NoError(t, pa.Set(&f, " 140 "))
	assert.Equal(t, 140, *f.Clinica.HAS.PA1Sis)
	assert.Error(t, pa.Set(&f, "alta"))
	require.NoError(t, pa.Set(&f, ""))
	assert.Nil(t, f.Clinica.HAS.PA1Sis)

	peso, _ := Find("clinica.has.peso")
	require.NoError(t, peso.Set(&f, "72,5"))
	assert.Equal(t, 72.5, *f.Clinica.HAS.Peso)

	alt, _ := Find("clinica.has.altura")
	require.NoError(t, alt.Set(&f, "170"))
	imc, _ := Find("clinica.has.imc")
	assert.Equal(t, "25.09", imc.Value(&f))
	assert.Error(t, imc.Set(&f, "30"))

	nasc, _ := Find("socio.nascimento")
	require.NoError(t, nasc.Set(&f, "12/04/1960"))
	assert.Equal(t, "1960-04-12", f.Socio.Nascimento)
}

func TestChoiceCycleWraps(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondHAS, true)
	diag, _ := Find("clinica.has.diag_has")

	diag.Cycle(&f, 1)
	assert.Equal(t, form.Sim, f.Clinica.HAS.DiagHAS)
	assert.Equal(t, "Sim", diag.Display(&f))
	diag.Cycle(&f, -1)
	diag.Cycle(&f, -1)
	assert.Equal(t, form.NaoSabe, f.Clinica.HAS.DiagHAS)

	pe := func() Field { fd, _ := Find("clinica.dm.pe_diabetico"); return fd }()
	for _, o := range pe.Options {
		assert.NotEqual(t, string(form.NaoSabe), o.Value)
	}
}

func TestMultiToggleKeepsOptionOrder(t *testing.T) {
	f := form.SetCondition(form.New(), form.CondHAS, true)
	comp, _ := Find("clinica.has.complicacoes")

	comp.Toggle(&f, "renal")
	comp.Toggle(&f, "avc")
	assert.Equal(t, []string{"avc", "renal"}, f.Clinica.HAS.Complicacoes)
	assert.True(t, comp.Has(&f, "avc"))
	assert.Equal(t, "AVC, Doença renal", comp.Display(&f))

	comp.Toggle(&f, "avc")
	assert.Equal(t, []string{"renal"}, f.Clinica.HAS.Complicacoes)

	comp.Toggle(&f, "outra")
	_, shown := visibleByPath(wizard.StepClinica, &f)["clinica.has.complicacao_outra"]
	assert.True(t, shown)
}

func TestSecretIsMasked(t *testing.T) {
	f := form.New()
	pw, _ := Find("socio.password")
	assert.Empty(t, pw.Display(&f))
	require.NoError(t, pw.Set(&f, "segredo"))
	assert.Equal(t, "••••••", pw.Display(&f))
	assert.True(t, pw.Kind.Typed())
}

func visibleByPath(step wizard.Step, f *form.FormState) map[string]Field {
	m := map[string]Field{}
	for _, fd := range For(step, f) {
		m[fd.Path] = fd
	}
	return m
}
