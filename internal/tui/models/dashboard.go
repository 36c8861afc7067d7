package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/draft"
	"github.com/rastreiamais/rastreia/internal/mapper"
	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/components"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// DashboardData is one refresh of the manager dashboard.
type DashboardData struct {
	Roster roster.Roster
	Alerts []mapper.AlertRecord
}

// DashboardLoader fetches the dashboard data.
type DashboardLoader func(ctx context.Context) (DashboardData, error)

// DashboardOptions configures a DashboardModel.
type DashboardOptions struct {
	Load    DashboardLoader
	Refresh time.Duration
	// Drafts, when set, feeds draft saves from the watcher into the
	// activity tab.
	Drafts <-chan draft.Event
	Header components.Header
	Days   int
	Now    func() time.Time
}

// TickMsg triggers a periodic data refresh.
type TickMsg time.Time

type dashboardLoadedMsg struct {
	data DashboardData
	err  error
}

type draftEventMsg struct {
	ev draft.Event
	ok bool
}

const logBufferMax = 200

var dashboardTabs = []string{"Resumo", "Alertas", "Atividade"}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// DashboardModel is the manager dashboard: KPI tiles, risk distribution,
// upcoming appointments, alerts and an activity feed. It reloads every
// Refresh interval.
type DashboardModel struct {
	opts DashboardOptions

	header    components.Header
	tabBar    components.TabBar
	footer    components.Footer
	logStream components.LogStream
	spin      spinner.Model

	data     DashboardData
	stats    roster.Stats
	loaded   bool
	loading  bool
	err      error
	lastLoad time.Time

	logBuffer  []components.LogLine
	seenAlerts map[int]bool

	activeTab int
	width     int
	height    int
	ready     bool
	quitting  bool
}

// NewDashboardModel creates the dashboard.
func NewDashboardModel(opts DashboardOptions) DashboardModel {
	if opts.Refresh <= 0 {
		opts.Refresh = 30 * time.Second
	}
	if opts.Days <= 0 {
		opts.Days = 14
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Header.Title == "" {
		opts.Header.Title = "Painel do gestor"
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.AccentPrimary)

	return DashboardModel{
		opts:       opts,
		header:     opts.Header,
		tabBar:     components.TabBar{Tabs: dashboardTabs},
		footer:     components.DashboardFooter(80),
		logStream:  components.NewLogStream(60, 10),
		spin:       s,
		loading:    true,
		seenAlerts: make(map[int]bool),
		width:      100,
		height:     30,
	}
}

// Stats returns the KPIs of the last successful load.
func (m DashboardModel) Stats() roster.Stats { return m.stats }

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m DashboardModel) loadCmd() tea.Cmd {
	load := m.opts.Load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		data, err := load(ctx)
		return dashboardLoadedMsg{data: data, err: err}
	}
}

func waitForDraft(ch <-chan draft.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		return draftEventMsg{ev: ev, ok: ok}
	}
}

// ---------------------------------------------------------------------------
// Bubble Tea interface
// ---------------------------------------------------------------------------

// Init loads immediately, then on every tick.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadCmd(), m.tickCmd(), waitForDraft(m.opts.Drafts))
}

// Update handles window resize, keys, ticks and loaded data.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.reflow()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				m.addLog("info", "PAINEL", "Atualização manual")
				cmds = append(cmds, m.spin.Tick, m.loadCmd())
			}
		case "1", "2", "3":
			m.activeTab = int(msg.String()[0] - '1')
			m.tabBar.ActiveTab = m.activeTab
		case "tab":
			m.activeTab = (m.activeTab + 1) % len(dashboardTabs)
			m.tabBar.ActiveTab = m.activeTab
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + len(dashboardTabs)) % len(dashboardTabs)
			m.tabBar.ActiveTab = m.activeTab
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}

	case TickMsg:
		cmds = append(cmds, m.tickCmd())
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.spin.Tick, m.loadCmd())
		}

	case dashboardLoadedMsg:
		m.loading = false
		m.apply(msg)

	case draftEventMsg:
		if !msg.ok {
			m.addLog("warn", "RASCUNHO", "Monitor de rascunhos encerrado")
			break
		}
		m.logDraft(msg.ev)
		cmds = append(cmds, waitForDraft(m.opts.Drafts))
	}

	if m.activeTab == 2 {
		if km, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.logStream, cmd = m.logStream.Update(km)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *DashboardModel) apply(msg dashboardLoadedMsg) {
	if msg.err != nil {
		m.err = msg.err
		m.addLog("error", "PAINEL", "Falha ao atualizar: "+apperr.Message(msg.err))
		return
	}
	m.err = nil
	first := !m.loaded
	m.loaded = true
	m.lastLoad = m.opts.Now()
	m.data = msg.data
	m.stats = roster.Summarize(msg.data.Roster, msg.data.Alerts, m.lastLoad, m.opts.Days)

	var fresh []mapper.AlertRecord
	for _, a := range msg.data.Alerts {
		if a.IsDeleted || m.seenAlerts[a.ID] {
			continue
		}
		m.seenAlerts[a.ID] = true
		if !first {
			fresh = append(fresh, a)
		}
	}
	if first {
		m.addLog("success", "PAINEL", fmt.Sprintf("%d pacientes, %d agendamentos, %d alertas",
			m.stats.Patients, m.stats.Appointments, m.stats.Alerts))
	}
	for _, a := range fresh {
		level := "warn"
		if a.RiskLevel == mapper.AlertRisk.ToAPI("critico") {
			level = "error"
		}
		m.addLog(level, "ALERTA", alertLine(a))
	}
}

func (m *DashboardModel) logDraft(ev draft.Event) {
	switch ev.Type {
	case draft.EventRemoved:
		m.addLog("info", "RASCUNHO", "Rascunho de "+ev.UID+" removido")
	default:
		title := ev.UID
		if ev.Draft != nil {
			title = ev.Draft.Title() + " (" + ev.UID + ")"
		}
		m.addLog("info", "RASCUNHO", "Rascunho salvo: "+title)
	}
}

func (m *DashboardModel) addLog(level, source, message string) {
	line := components.LogLine{
		Time:    m.opts.Now(),
		Level:   level,
		Source:  source,
		Message: message,
	}
	m.logBuffer = append(m.logBuffer, line)
	if len(m.logBuffer) > logBufferMax {
		m.logBuffer = m.logBuffer[len(m.logBuffer)-logBufferMax:]
	}
	m.logStream.AddLine(line)
}

func (m *DashboardModel) reflow() {
	w := m.width
	m.header.Width = w
	m.tabBar.Width = w
	m.footer = components.DashboardFooter(w)
	m.logStream.SetSize(max(w-8, 20), max(m.height-8, 5))
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Carregando painel..."
	}

	sections := []string{m.header.Render(), m.tabBar.Render()}
	switch m.activeTab {
	case 0:
		sections = append(sections, m.renderSummary())
	case 1:
		sections = append(sections, m.renderAlerts())
	case 2:
		sections = append(sections, renderQuadrantPanel("Atividade", m.logStream.View(), m.width))
	}
	sections = append(sections, m.renderStatusLine(), m.footer.Render())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderStatusLine() string {
	var parts []string
	if m.loading {
		parts = append(parts, m.spin.View()+" atualizando")
	}
	if !m.lastLoad.IsZero() {
		parts = append(parts, "atualizado às "+m.lastLoad.Format("15:04:05"))
	}
	if m.err != nil {
		parts = append(parts, styles.ErrorText.Render("✕ "+apperr.Message(m.err)))
	}
	return lipgloss.NewStyle().Foreground(styles.TextMuted).PaddingLeft(2).Render(strings.Join(parts, "  •  "))
}

//	[KPI tiles ................................]
//	[Risk by patient      | Upcoming visits    ]
//	[Next appointments -- full width           ]
func (m DashboardModel) renderSummary() string {
	if !m.loaded {
		if m.err != nil {
			return renderQuadrantPanel("Resumo", styles.ErrorText.Render("Não foi possível carregar os indicadores."), m.width)
		}
		return renderQuadrantPanel("Resumo", m.spin.View()+" Carregando indicadores...", m.width)
	}

	s := m.stats
	tiles := []components.StatTile{
		{Label: "Pacientes totais", Value: s.Patients},
		{Label: "Agend. em risco", Value: s.RiskAppointments, Warn: 1, Critical: 10},
		{Label: "Atendimentos", Value: s.Appointments},
		{Label: "Alertas críticos", Value: s.CriticalAlerts, Critical: 1},
	}
	tileW := max((m.width-4)/len(tiles), 12)
	var rendered []string
	for _, t := range tiles {
		rendered = append(rendered, lipgloss.NewStyle().Width(tileW).Align(lipgloss.Center).Render(t.Render()))
	}
	kpis := renderQuadrantPanel("Indicadores", lipgloss.JoinHorizontal(lipgloss.Top, rendered...), m.width)

	half := m.width / 2
	if m.width < 80 {
		half = m.width
	}
	bar := components.RiskBar{Seguro: s.Seguro, Moderado: s.Moderado, Critico: s.Critico, Width: max(half-8, 10)}
	riskLines := []string{
		bar.Render(),
		"",
		styles.Label.Render("Com HAS: ") + styles.Value.Render(fmt.Sprint(s.WithHAS)) +
			styles.Dim("   ") + styles.Label.Render("Com DM: ") + styles.Value.Render(fmt.Sprint(s.WithDM)),
	}
	riskPanel := renderQuadrantPanel("Risco por paciente", lipgloss.JoinVertical(lipgloss.Left, riskLines...), half)

	total := 0
	for _, n := range s.Upcoming {
		total += n
	}
	upLines := []string{
		lipgloss.NewStyle().Foreground(styles.AccentPrimary).Render(styles.Sparkline(s.Upcoming)),
		styles.Dim(fmt.Sprintf("%d consultas nos próximos %d dias", total, len(s.Upcoming))),
	}
	upPanel := renderQuadrantPanel("Agenda", lipgloss.JoinVertical(lipgloss.Left, upLines...), m.width-half)

	middle := lipgloss.JoinHorizontal(lipgloss.Top, riskPanel, upPanel)
	if m.width < 80 {
		middle = lipgloss.JoinVertical(lipgloss.Left, riskPanel, renderQuadrantPanel("Agenda", lipgloss.JoinVertical(lipgloss.Left, upLines...), m.width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, kpis, middle, m.renderNextVisits())
}

func (m DashboardModel) renderNextVisits() string {
	now := m.lastLoad
	var rows []roster.Row
	for _, r := range m.data.Roster.Rows {
		if r.NextVisit != nil {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].NextVisit.Before(*rows[j].NextVisit) })

	limit := max(m.height-24, 3)
	var lines []string
	for i, r := range rows {
		if i >= limit {
			lines = append(lines, styles.Dim(fmt.Sprintf("  … mais %d", len(rows)-limit)))
			break
		}
		when := r.NextVisit.Local()
		label := when.Format("02/01 15:04")
		if y, mo, d := when.Date(); y == now.Year() && mo == now.Month() && d == now.Day() {
			label = "hoje " + when.Format("15:04")
		}
		card := components.PatientCard{Name: r.Name, HAS: r.HAS, DM: r.DM, Risk: r.Risk}
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.TextMuted).Width(14).Render(label)+card.RenderCompact())
	}
	if len(lines) == 0 {
		lines = append(lines, styles.Dim("  Nenhuma consulta agendada"))
	}
	return renderQuadrantPanel("Próximas consultas", lipgloss.JoinVertical(lipgloss.Left, lines...), m.width)
}

func (m DashboardModel) renderAlerts() string {
	var active []mapper.AlertRecord
	for _, a := range m.data.Alerts {
		if !a.IsDeleted {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return renderQuadrantPanel("Alertas", styles.Dim("  Nenhum alerta ativo"), m.width)
	}
	limit := max(m.height-8, 3)
	var lines []string
	for i, a := range active {
		if i >= limit {
			lines = append(lines, styles.Dim(fmt.Sprintf("  … mais %d", len(active)-limit)))
			break
		}
		risk := mapper.AlertRisk.FromAPI(a.RiskLevel)
		badge := lipgloss.NewStyle().Foreground(styles.RiskColor(risk)).Width(10).Render("● " + orDash(risk))
		lines = append(lines, badge+" "+styles.TruncateWithEllipsis(alertLine(a), max(m.width-20, 20)))
	}
	return renderQuadrantPanel(fmt.Sprintf("Alertas (%d)", len(active)), lipgloss.JoinVertical(lipgloss.Left, lines...), m.width)
}

func alertLine(a mapper.AlertRecord) string {
	line := a.Title
	if a.Patient != nil {
		name := a.Patient.User.FullName()
		if name == "" && a.Patient.CPF != nil {
			name = *a.Patient.CPF
		}
		if name != "" {
			line += " - " + name
		}
	}
	return line
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func renderQuadrantPanel(title string, content string, width int) string {
	titleStr := lipgloss.NewStyle().
		Foreground(styles.AccentPrimary).
		Bold(true).
		Render(title)

	innerWidth := max(width-4, 10)
	return lipgloss.NewStyle().
		Background(styles.BgPanel).
		Border(styles.RoundedBorder).
		BorderForeground(styles.BorderNormal).
		Padding(0, 1).
		Width(innerWidth).
		Render(titleStr + "\n" + content)
}
