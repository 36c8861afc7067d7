// Package wizard is the step state machine of the patient registration.
package wizard

import (
	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/schema"
)

// Step is a wizard position, S1 through S5.
type Step int

const (
	StepSocio Step = iota
	StepCondicoes
	StepClinica
	StepMultiprof
	StepPlano
)

// NumSteps is the number of wizard steps.
const NumSteps = 5

var stepTitles = [NumSteps]string{"Sociodemo", "Condições", "Clínica", "Multiprof.", "Plano"}

func (s Step) String() string {
	if s < 0 || int(s) >= NumSteps {
		return "?"
	}
	return stepTitles[s]
}

// Steps lists every step in order.
func Steps() []Step {
	return []Step{StepSocio, StepCondicoes, StepClinica, StepMultiprof, StepPlano}
}

// Warnings shown when navigation is refused.
const (
	WarnInvalidStep    = "Revise os campos desta etapa."
	WarnClinicDisabled = "O passo Clínica é exibido quando HAS e/ou DM estão marcados."
)

// Outcome is the result of a navigation attempt.
type Outcome struct {
	Moved   bool
	Warning string
	// Focus is the first invalid field path of the current step, if any.
	Focus  string
	Errors schema.Errors
}

// Controller tracks the current step. It owns no form data: every call is
// given the current form.
type Controller struct {
	Step           Step
	Mode           schema.Mode
	FreeNavigation bool
	visited        [NumSteps]bool
}

// New starts at S1.
func New(mode schema.Mode, freeNavigation bool) *Controller {
	c := &Controller{Mode: mode, FreeNavigation: freeNavigation}
	c.visited[StepSocio] = true
	return c
}

// Visited reports whether s has been shown.
func (c *Controller) Visited(s Step) bool {
	if s < 0 || int(s) >= NumSteps {
		return false
	}
	return c.visited[s]
}

// Progress is the completion percentage shown in the header.
func (c *Controller) Progress() int {
	return (int(c.Step) + 1) * 100 / NumSteps
}

// Targets lists the field paths validated before leaving step. S3 depends
// on which conditions are flagged; S4 and S5 never block.
func Targets(step Step, f form.FormState) []string {
	switch step {
	case StepSocio:
		return []string{"socio.nome", "socio.sus_cpf"}
	case StepCondicoes:
		return []string{"condicoes.has", "condicoes.dm"}
	case StepClinica:
		var t []string
		if f.Condicoes.HAS {
			t = append(t,
				"clinica.has.diag_has",
				"clinica.has.usa_medicacao",
				"clinica.has.historico_familiar",
				"clinica.has.pa1_sis",
				"clinica.has.pa1_dia",
				"clinica.has.pa2_sis",
				"clinica.has.pa2_dia",
			)
		}
		if f.Condicoes.DM {
			t = append(t,
				"clinica.dm.diag_dm",
				"clinica.dm.usa_medicacao",
				"clinica.dm.historico_familiar",
			)
		}
		return t
	}
	return nil
}

// ValidateCurrent checks only the current step's targets. Failures outside
// the step never block.
func (c *Controller) ValidateCurrent(f form.FormState) Outcome {
	targets := Targets(c.Step, f)
	if len(targets) == 0 {
		return Outcome{}
	}
	errs := schema.ValidatePaths(f, c.Mode, targets)
	if len(errs) == 0 {
		return Outcome{}
	}
	first, _ := errs.First()
	return Outcome{Warning: WarnInvalidStep, Focus: first.Path, Errors: errs}
}

// Next validates the current step and advances, routing around S3 when it
// is disabled.
func (c *Controller) Next(f form.FormState) Outcome {
	out := c.ValidateCurrent(f)
	if out.Warning != "" {
		return out
	}
	next := c.Step + 1
	if c.Step == StepCondicoes && !f.ClinicalEnabled() {
		next = StepMultiprof
	}
	if int(next) >= NumSteps {
		return out
	}
	c.move(next)
	out.Moved = true
	return out
}

// Prev goes back without validating, skipping a disabled S3.
func (c *Controller) Prev(f form.FormState) Outcome {
	if c.Step == StepSocio {
		return Outcome{}
	}
	prev := c.Step - 1
	if c.Step == StepMultiprof && !f.ClinicalEnabled() {
		prev = StepCondicoes
	}
	c.move(prev)
	return Outcome{Moved: true}
}

// GoTo jumps to a step pill. S3 is refused while disabled. Going forward
// validates the current step only when free navigation is off; going back
// never validates.
func (c *Controller) GoTo(s Step, f form.FormState) Outcome {
	if s < 0 {
		s = 0
	}
	if int(s) >= NumSteps {
		s = NumSteps - 1
	}
	if s == StepClinica && !f.ClinicalEnabled() {
		return Outcome{Warning: WarnClinicDisabled}
	}
	if !c.FreeNavigation && s > c.Step {
		if out := c.ValidateCurrent(f); out.Warning != "" {
			return out
		}
	}
	moved := s != c.Step
	c.move(s)
	return Outcome{Moved: moved}
}

// Sync leaves S3 when the flags that enable it were cleared while on it.
func (c *Controller) Sync(f form.FormState) bool {
	if c.Step == StepClinica && !f.ClinicalEnabled() {
		c.move(StepMultiprof)
		return true
	}
	return false
}

// CanSubmit reports whether the submit action is available.
func (c *Controller) CanSubmit() bool {
	return c.Step == StepPlano
}

// StepHasErrors reports whether errs contains a failure under one of
// step's targets. Used to mark pills.
func StepHasErrors(step Step, f form.FormState, errs schema.Errors) bool {
	targets := Targets(step, f)
	for _, e := range errs {
		if schema.Matches(e.Path, targets) {
			return true
		}
	}
	return false
}

func (c *Controller) move(s Step) {
	c.Step = s
	c.visited[s] = true
}
