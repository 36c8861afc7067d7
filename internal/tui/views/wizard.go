package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/submit"
	"github.com/rastreiamais/rastreia/internal/tui/models"
)

// WizardOutcome is what the registration wizard left behind when the
// program exited.
type WizardOutcome struct {
	Saved  bool
	Result submit.Result
	Form   form.FormState
}

// RunWizard launches the patient registration wizard TUI and blocks until
// the patient is saved or the user leaves.
func RunWizard(opts models.WizardOptions) (WizardOutcome, error) {
	p := tea.NewProgram(models.NewWizardModel(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return WizardOutcome{}, fmt.Errorf("running patient wizard: %w", err)
	}
	m, ok := final.(models.WizardModel)
	if !ok {
		return WizardOutcome{}, nil
	}
	res, saved := m.Result()
	return WizardOutcome{Saved: saved, Result: res, Form: m.Form()}, nil
}
