package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/components"
	"github.com/rastreiamais/rastreia/internal/tui/models"
)

// BrowserOutcome reports the follow-up action chosen in the browser.
type BrowserOutcome struct {
	EditID int
	New    bool
}

// RunPatientBrowser launches the interactive patient browser.
func RunPatientBrowser(load models.RosterLoader, filter roster.Filter, search string, header components.Header) (BrowserOutcome, error) {
	model := models.NewPatientsModel(load, filter, search, header)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return BrowserOutcome{}, fmt.Errorf("running patient browser: %w", err)
	}
	var out BrowserOutcome
	if m, ok := final.(models.PatientsModel); ok {
		out.EditID, _ = m.EditRequested()
		out.New = m.NewRequested()
	}
	return out, nil
}
