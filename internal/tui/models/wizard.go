package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/form"
	"github.com/rastreiamais/rastreia/internal/schema"
	"github.com/rastreiamais/rastreia/internal/submit"
	"github.com/rastreiamais/rastreia/internal/tui/components"
	"github.com/rastreiamais/rastreia/internal/tui/fields"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
	"github.com/rastreiamais/rastreia/internal/wizard"
)

// Messages shown in the status line.
const (
	msgSubmitOnlyOnPlan = "Avance até a etapa Plano para salvar."
	msgDraftDiscarded   = "Rascunho descartado."
)

// Submitter saves the form. *submit.Orchestrator implements it.
type Submitter interface {
	Submit(ctx context.Context, f form.FormState, mode schema.Mode, target submit.Target) (submit.Result, error)
}

// WizardOptions configures a WizardModel.
type WizardOptions struct {
	Mode           schema.Mode
	FreeNavigation bool
	Form           form.FormState
	Target         submit.Target
	Submitter      Submitter
	// Autosave is nil in edit mode: edits are not drafted.
	Autosave *draft.Autosaver
	// ResumedAt is the saved time of the draft the form came from.
	ResumedAt time.Time
	Header    components.Header
	Timeout   time.Duration
}

// ---------------------------------------------------------------------------
// Tea messages
// ---------------------------------------------------------------------------

type submitDoneMsg struct {
	res submit.Result
	err error
}

type discardDoneMsg struct{ err error }

// ---------------------------------------------------------------------------
// WizardModel
// ---------------------------------------------------------------------------

// WizardModel is the five-step patient registration screen. Fields are
// listed per step; typed fields open a text input, choice fields cycle with
// the arrow keys and multi fields toggle with space.
type WizardModel struct {
	opts WizardOptions
	ctrl *wizard.Controller
	f    form.FormState

	cursor      int
	optCursor   int
	editing     bool
	input       textinput.Model
	errs        schema.Errors
	showErrors  bool
	status      string
	statusLevel string

	submitting bool
	spin       spinner.Model
	result     *submit.Result
	submitErr  error

	confirm     *components.ConfirmDialog
	confirmKind string
	quitting    bool

	width  int
	height int
}

// NewWizardModel builds the model. The form is reconciled so a draft or a
// loaded patient always satisfies the condition rules.
func NewWizardModel(opts WizardOptions) WizardModel {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.AccentPrimary)

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.AccentPrimary)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)

	m := WizardModel{
		opts:   opts,
		ctrl:   wizard.New(opts.Mode, opts.FreeNavigation),
		f:      form.Reconcile(opts.Form, opts.Mode == schema.Edit),
		input:  ti,
		spin:   s,
		width:  100,
		height: 40,
	}
	if !opts.ResumedAt.IsZero() {
		m.setStatus("info", "Rascunho restaurado de "+opts.ResumedAt.Local().Format("02/01 15:04")+".")
	}
	return m
}

// Form returns the current form state.
func (m WizardModel) Form() form.FormState { return m.f }

// Step returns the current wizard step.
func (m WizardModel) Step() wizard.Step { return m.ctrl.Step }

// Result returns the submit result once the patient was saved.
func (m WizardModel) Result() (submit.Result, bool) {
	if m.result == nil {
		return submit.Result{}, false
	}
	return *m.result, true
}

// Init is called when the program starts.
func (m WizardModel) Init() tea.Cmd {
	return nil
}

// Update processes messages and key events.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 60)
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.submitting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case discardDoneMsg:
		if msg.err != nil {
			m.setStatus("error", "Falha ao descartar rascunho: "+msg.err.Error())
			return m, nil
		}
		m.f = form.New()
		m.ctrl = wizard.New(m.opts.Mode, m.opts.FreeNavigation)
		m.cursor, m.errs, m.showErrors = 0, nil, false
		m.setStatus("info", msgDraftDiscarded)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Key handling
// ---------------------------------------------------------------------------

func (m WizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.quit()
	}

	if m.confirm != nil {
		d, _ := m.confirm.Update(msg)
		if !d.Done {
			m.confirm = &d
			return m, nil
		}
		m.confirm = nil
		if !d.Confirmed {
			return m, nil
		}
		switch m.confirmKind {
		case "quit":
			return m.quit()
		case "discard":
			return m, m.discardCmd()
		}
		return m, nil
	}

	if m.result != nil {
		if key == "enter" || key == "q" || key == "esc" {
			return m.quit()
		}
		return m, nil
	}
	if m.submitting {
		return m, nil
	}
	if m.editing {
		return m.handleEditKey(msg)
	}

	visible := m.visible()
	switch key {
	case "esc", "q":
		m.ask("quit", "Sair do cadastro?", m.quitMessage())
		return m, nil
	case "ctrl+d":
		if m.opts.Autosave != nil {
			m.ask("discard", "Descartar rascunho?", "Os dados digitados serão apagados.")
		}
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.optCursor = 0
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
			m.optCursor = 0
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(visible)-1, 0)
	case "ctrl+n", "pgdown":
		m.apply(m.ctrl.Next(m.f))
	case "ctrl+p", "pgup":
		m.apply(m.ctrl.Prev(m.f))
	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5":
		m.apply(m.ctrl.GoTo(wizard.Step(key[4]-'1'), m.f))
	case "ctrl+s":
		return m.trySubmit()
	case "left", "h":
		if m.onOptions(visible) {
			m.changeOption(visible, -1)
		} else {
			m.apply(m.ctrl.Prev(m.f))
		}
	case "right", "l":
		if m.onOptions(visible) {
			m.changeOption(visible, 1)
		} else {
			m.apply(m.ctrl.Next(m.f))
		}
	case " ", "space":
		m.toggleOption(visible)
	case "enter":
		if fd, ok := m.current(visible); ok {
			switch {
			case fd.Kind.Typed():
				m.editing = true
				m.input.SetValue(fd.Value(&m.f))
				m.input.EchoMode = textinput.EchoNormal
				if fd.Kind == fields.KindSecret {
					m.input.EchoMode = textinput.EchoPassword
				}
				m.input.Placeholder = placeholder(fd.Kind)
				m.input.CursorEnd()
				cmd := m.input.Focus()
				return m, cmd
			case fd.Kind == fields.KindMulti:
				m.toggleOption(visible)
			default:
				m.changeOption(visible, 1)
			}
		}
	}
	return m, nil
}

func (m WizardModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter", "tab":
		fd, ok := m.current(m.visible())
		m.editing = false
		m.input.Blur()
		if !ok {
			return m, nil
		}
		if err := fd.Set(&m.f, m.input.Value()); err != nil {
			m.setStatus("error", err.Error())
			return m, nil
		}
		m.changed()
		if msg.String() == "tab" && m.cursor < len(m.visible())-1 {
			m.cursor++
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// onOptions reports whether the focused row takes left/right itself.
func (m WizardModel) onOptions(visible []fields.Field) bool {
	fd, ok := m.current(visible)
	if !ok {
		return false
	}
	switch fd.Kind {
	case fields.KindChoice, fields.KindFlag, fields.KindMulti:
		return true
	}
	return false
}

func (m *WizardModel) changeOption(visible []fields.Field, dir int) {
	fd, ok := m.current(visible)
	if !ok {
		return
	}
	switch fd.Kind {
	case fields.KindChoice, fields.KindFlag:
		fd.Cycle(&m.f, dir)
		m.changed()
	case fields.KindMulti:
		m.optCursor = (m.optCursor + dir + len(fd.Options)) % len(fd.Options)
	}
}

func (m *WizardModel) toggleOption(visible []fields.Field) {
	fd, ok := m.current(visible)
	if !ok {
		return
	}
	switch {
	case fd.Kind == fields.KindFlag:
		fd.Cycle(&m.f, 1)
	case fd.Kind == fields.KindMulti && len(fd.Options) > 0:
		fd.Toggle(&m.f, fd.Options[m.optCursor].Value)
	default:
		return
	}
	m.changed()
}

// changed runs after every edit: derived values are refreshed, the draft
// is scheduled and S3 is left if its flags were cleared.
func (m *WizardModel) changed() {
	m.f = form.Normalize(m.f)
	if m.opts.Autosave != nil {
		m.opts.Autosave.Touch(int(m.ctrl.Step), m.f)
	}
	if m.ctrl.Sync(m.f) {
		m.cursor = 0
		m.setStatus("warn", wizard.WarnClinicDisabled)
	}
	if m.showErrors {
		m.errs = schema.Validate(m.f, m.opts.Mode)
	}
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// apply shows a navigation outcome: a warning with the step's errors and the
// cursor on the first invalid field.
func (m *WizardModel) apply(out wizard.Outcome) {
	if out.Moved {
		m.cursor, m.optCursor = 0, 0
		m.status = ""
		if m.opts.Autosave != nil {
			m.opts.Autosave.Touch(int(m.ctrl.Step), m.f)
		}
	}
	if out.Warning != "" {
		m.setStatus("warn", out.Warning)
	}
	if len(out.Errors) > 0 {
		m.showErrors = true
		m.errs = schema.Validate(m.f, m.opts.Mode)
	}
	if out.Focus != "" {
		m.focus(out.Focus)
	}
}

func (m *WizardModel) focus(path string) {
	for i, fd := range m.visible() {
		if fd.Path == path || strings.HasPrefix(path, fd.Path+".") {
			m.cursor = i
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

func (m WizardModel) trySubmit() (tea.Model, tea.Cmd) {
	if !m.ctrl.CanSubmit() {
		m.setStatus("warn", msgSubmitOnlyOnPlan)
		return m, nil
	}
	m.f = form.Normalize(m.f)
	if errs := schema.Validate(m.f, m.opts.Mode); len(errs) > 0 {
		m.showErrors = true
		m.errs = errs
		first, _ := errs.First()
		if step, ok := fields.StepOf(first.Path); ok {
			m.ctrl.GoTo(step, m.f)
		}
		m.focus(first.Path)
		m.setStatus("error", (&submit.SubmitError{Stage: submit.StageValidation}).Message())
		return m, nil
	}
	m.submitting = true
	m.status = ""
	return m, tea.Batch(m.spin.Tick, m.submitCmd())
}

func (m WizardModel) submitCmd() tea.Cmd {
	f, mode, target, sub, timeout := m.f, m.opts.Mode, m.opts.Target, m.opts.Submitter, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := sub.Submit(ctx, f, mode, target)
		return submitDoneMsg{res: res, err: err}
	}
}

func (m WizardModel) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		m.submitErr = msg.err
		m.setStatus("error", submitMessage(msg.err))
		return m, nil
	}
	m.submitErr = nil
	m.result = &msg.res
	if m.opts.Autosave != nil {
		return m, m.discardAfterSaveCmd()
	}
	return m, nil
}

func submitMessage(err error) string {
	if se, ok := err.(*submit.SubmitError); ok {
		return se.Message()
	}
	return apperr.Message(err)
}

func (m WizardModel) discardCmd() tea.Cmd {
	a := m.opts.Autosave
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return discardDoneMsg{err: a.Reset(ctx)}
	}
}

// discardAfterSaveCmd drops the draft of a saved patient. Failures are not
// shown since the patient is already stored.
func (m WizardModel) discardAfterSaveCmd() tea.Cmd {
	a := m.opts.Autosave
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Discard(ctx)
		return nil
	}
}

func (m WizardModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m *WizardModel) ask(kind, title, message string) {
	d := components.NewConfirmDialog(title, message)
	m.confirm = &d
	m.confirmKind = kind
}

func (m WizardModel) quitMessage() string {
	if m.opts.Autosave != nil {
		return "O rascunho fica salvo para continuar depois."
	}
	return "As alterações não salvas serão perdidas."
}

func (m *WizardModel) setStatus(level, text string) {
	m.statusLevel, m.status = level, text
}

func (m WizardModel) visible() []fields.Field {
	return fields.For(m.ctrl.Step, &m.f)
}

func (m WizardModel) current(visible []fields.Field) (fields.Field, bool) {
	if m.cursor < 0 || m.cursor >= len(visible) {
		return fields.Field{}, false
	}
	return visible[m.cursor], true
}

func placeholder(k fields.Kind) string {
	switch k {
	case fields.KindDate:
		return "AAAA-MM-DD ou DD/MM/AAAA"
	case fields.KindInt:
		return "número inteiro"
	case fields.KindFloat:
		return "número, ex.: 72,5"
	}
	return ""
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the wizard.
func (m WizardModel) View() string {
	if m.quitting {
		return ""
	}

	header := m.opts.Header
	header.Width = m.width
	if header.Title == "" {
		header.Title = "Novo paciente"
		if m.opts.Mode == schema.Edit {
			header.Title = "Editar paciente"
		}
	}

	var body string
	switch {
	case m.result != nil:
		body = m.renderResult()
	case m.confirm != nil:
		body = lipgloss.Place(m.width, max(m.height-4, 12), lipgloss.Center, lipgloss.Center, m.confirm.View())
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.renderProgress(),
			"",
			m.renderFields(),
			"",
			m.renderStatus(),
		)
	}

	footer := components.WizardFooter(m.width)
	if m.editing {
		footer = components.EditingFooter(m.width)
	}
	if m.result != nil {
		footer = components.Footer{Hints: []components.KeyHint{{Key: "enter", Desc: "concluir"}}, Width: m.width}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header.Render(),
		lipgloss.NewStyle().Padding(1, 2).Render(body),
		footer.Render(),
	)
}

func (m WizardModel) renderProgress() string {
	var (
		labels   []string
		visited  []bool
		errFlags []bool
		disabled []bool
	)
	for _, s := range wizard.Steps() {
		labels = append(labels, fmt.Sprintf("%d %s", int(s)+1, s))
		visited = append(visited, m.ctrl.Visited(s))
		errFlags = append(errFlags, m.showErrors && wizard.StepHasErrors(s, m.f, m.errs))
		disabled = append(disabled, s == wizard.StepClinica && !m.f.ClinicalEnabled())
	}
	p := components.ProgressStep{
		Steps:    labels,
		Current:  int(m.ctrl.Step),
		Visited:  visited,
		Errors:   errFlags,
		Disabled: disabled,
	}
	pct := styles.Dim(fmt.Sprintf("  %d%%", m.ctrl.Progress()))
	return p.Render() + pct
}

func (m WizardModel) renderFields() string {
	visible := m.visible()
	title := styles.Title.Render(fmt.Sprintf("Etapa %d de %d: %s", int(m.ctrl.Step)+1, wizard.NumSteps, m.ctrl.Step))
	if len(visible) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", styles.Dim("Nenhum campo nesta etapa."))
	}

	// Long steps (S3 with both blocks) scroll around the cursor.
	room := max(m.height-12, 6)
	start := 0
	if m.cursor >= room {
		start = m.cursor - room + 1
	}
	end := min(start+room, len(visible))

	labelW := 0
	for _, fd := range visible[start:end] {
		labelW = max(labelW, lipgloss.Width(fd.Label))
	}
	labelW = min(labelW, 40)

	rows := []string{title, ""}
	for i := start; i < end; i++ {
		rows = append(rows, m.renderField(visible[i], i == m.cursor, labelW))
	}
	if end < len(visible) {
		rows = append(rows, styles.Dim(fmt.Sprintf("  … mais %d campo(s)", len(visible)-end)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m WizardModel) renderField(fd fields.Field, focused bool, labelW int) string {
	marker := "  "
	labelStyle := styles.Label
	if focused {
		marker = lipgloss.NewStyle().Foreground(styles.AccentPrimary).Render("▸ ")
		labelStyle = lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true)
	}
	label := labelStyle.Width(labelW + 2).Render(styles.TruncateWithEllipsis(fd.Label, labelW))

	var value string
	switch {
	case focused && m.editing:
		value = m.input.View()
	case fd.Kind == fields.KindMulti:
		value = m.renderMulti(fd, focused)
	case fd.Kind == fields.KindDerived:
		value = styles.Dim(orDash(fd.Display(&m.f)))
	default:
		v := orDash(fd.Display(&m.f))
		if fd.Kind == fields.KindChoice || fd.Kind == fields.KindFlag {
			if focused {
				v = "◂ " + v + " ▸"
			}
		}
		value = styles.Value.Render(v)
	}

	line := marker + label + value
	if m.showErrors {
		if msg, ok := m.errs.Get(fd.Path); ok {
			line += "  " + styles.ErrorText.Render("✕ "+msg)
		}
	}
	return line
}

func (m WizardModel) renderMulti(fd fields.Field, focused bool) string {
	var parts []string
	for i, o := range fd.Options {
		box := "☐"
		if fd.Has(&m.f, o.Value) {
			box = "☑"
		}
		style := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		if focused && i == m.optCursor {
			style = lipgloss.NewStyle().Foreground(styles.AccentPrimary).Underline(true)
		}
		parts = append(parts, style.Render(box+" "+o.Label))
	}
	return lipgloss.NewStyle().Width(max(m.width-50, 30)).Render(strings.Join(parts, "  "))
}

func (m WizardModel) renderStatus() string {
	if m.submitting {
		return m.spin.View() + " " + styles.Subtitle.Render("Salvando paciente...")
	}
	if m.status == "" {
		if m.opts.Autosave != nil {
			if err := m.opts.Autosave.LastError(); err != nil {
				return styles.WarnText.Render("Rascunho não salvo: " + err.Error())
			}
		}
		return ""
	}
	switch m.statusLevel {
	case "error":
		return styles.ErrorText.Render("✕ " + m.status)
	case "warn":
		return styles.WarnText.Render("! " + m.status)
	}
	return styles.Subtitle.Render(m.status)
}

func (m WizardModel) renderResult() string {
	res := *m.result
	rows := []string{
		styles.Title.Render("✔ Paciente salvo"),
		"",
		styles.Label.Render("Paciente: ") + styles.Value.Render(fmt.Sprintf("#%d", res.PatientID)),
	}
	if res.GeneratedPassword != "" {
		rows = append(rows,
			styles.Label.Render("Usuário:  ")+styles.Value.Render(schema.OnlyDigits(m.f.Socio.SusCPF)),
			styles.Label.Render("Senha:    ")+lipgloss.NewStyle().Foreground(styles.AccentGold).Bold(true).Render(res.GeneratedPassword),
			styles.Dim("Anote a senha: ela não será exibida novamente."),
		)
	}
	if len(res.Warnings) > 0 {
		rows = append(rows, "", styles.WarnText.Render("Avisos:"))
		for _, w := range res.Warnings {
			rows = append(rows, styles.WarnText.Render("  ! "+w))
		}
	}
	return styles.Panel.Width(min(m.width-6, 80)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
