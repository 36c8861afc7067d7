package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/apperr"
	"github.com/rastreiamais/rastreia/internal/roster"
	"github.com/rastreiamais/rastreia/internal/tui/components"
	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// RosterLoader fetches the patient overview.
type RosterLoader func(ctx context.Context) (roster.Roster, error)

var sortColumns = []struct {
	key   string
	label string
}{
	{"name", "Nome"},
	{"risk", "Risco"},
	{"next", "Próxima consulta"},
	{"age", "Idade"},
}

// ---------------------------------------------------------------------------
// Tea messages
// ---------------------------------------------------------------------------

type rosterLoadedMsg struct {
	r   roster.Roster
	err error
}

// ---------------------------------------------------------------------------
// PatientsModel
// ---------------------------------------------------------------------------

// PatientsModel is the patient browser: filter tabs, incremental search,
// sortable table and a markdown detail pane.
type PatientsModel struct {
	load RosterLoader
	now  func() time.Time

	roster   roster.Roster
	filtered []roster.Row

	cursor     int
	filterIdx  int
	sortBy     string
	sortAsc    bool
	detailView bool
	searchMode bool
	searchTerm string

	loading bool
	err     error
	spin    spinner.Model
	detail  viewport.Model

	// Set when the user picked an action that runs after the program exits.
	editID    int
	newWanted bool

	tabBar components.TabBar
	footer components.Footer
	header components.Header

	width  int
	height int
}

// NewPatientsModel creates the browser. filter preselects a tab; search
// seeds the incremental search.
func NewPatientsModel(load RosterLoader, filter roster.Filter, search string, header components.Header) PatientsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.AccentPrimary)

	tabs := make([]string, len(roster.Filters))
	filterIdx := 0
	for i, f := range roster.Filters {
		tabs[i] = f.String()
		if f == filter {
			filterIdx = i
		}
	}

	if header.Title == "" {
		header.Title = "Pacientes"
	}
	m := PatientsModel{
		load:       load,
		now:        time.Now,
		filterIdx:  filterIdx,
		searchTerm: search,
		sortBy:     "name",
		sortAsc:    true,
		loading:    true,
		spin:       s,
		detail:     viewport.New(96, 20),
		width:      100,
		height:     30,
		header:     header,
	}
	m.tabBar = components.TabBar{Tabs: tabs, ActiveTab: filterIdx, Width: m.width}
	m.footer = components.BrowserFooter(m.width)
	m.header.Width = m.width
	return m
}

// EditRequested returns the patient chosen with "e".
func (m PatientsModel) EditRequested() (int, bool) { return m.editID, m.editID > 0 }

// NewRequested reports whether "n" was pressed.
func (m PatientsModel) NewRequested() bool { return m.newWanted }

// Visible returns the rows after filter, search and sort.
func (m PatientsModel) Visible() []roster.Row { return m.filtered }

// ---------------------------------------------------------------------------
// Bubble Tea interface
// ---------------------------------------------------------------------------

// Init starts the first load.
func (m PatientsModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadCmd())
}

func (m PatientsModel) loadCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r, err := load(ctx)
		return rosterLoadedMsg{r: r, err: err}
	}
}

// Update handles keypresses and messages.
func (m PatientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rosterLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.roster = msg.r
			m.applyFilter()
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tabBar.Width = m.width
		m.footer.Width = m.width
		m.header.Width = m.width
		m.detail.Width = max(m.width-4, 20)
		m.detail.Height = max(m.height-8, 5)
		if m.detailView {
			m.refreshDetail()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m PatientsModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.searchMode {
		return m.handleSearchKey(msg)
	}
	if m.detailView {
		return m.handleDetailKey(msg)
	}
	return m.handleListKey(msg)
}

func (m PatientsModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchTerm = ""
		m.applyFilter()
	case tea.KeyEnter:
		m.searchMode = false
	case tea.KeyBackspace:
		if r := []rune(m.searchTerm); len(r) > 0 {
			m.searchTerm = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeyRunes:
		m.searchTerm += string(msg.Runes)
		m.cursor = 0
		m.applyFilter()
	case tea.KeySpace:
		m.searchTerm += " "
		m.applyFilter()
	}
	return m, nil
}

func (m PatientsModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "backspace", "esc":
		m.detailView = false
		m.footer = components.BrowserFooter(m.width)
		return m, nil
	case "e":
		return m.requestEdit()
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m PatientsModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.filtered)-1, 0)

	case "enter":
		if len(m.filtered) > 0 {
			m.detailView = true
			m.refreshDetail()
			m.footer = components.Footer{
				Hints: []components.KeyHint{
					{Key: "↑↓", Desc: "rolar"},
					{Key: "e", Desc: "editar"},
					{Key: "esc", Desc: "voltar"},
				},
				Width: m.width,
			}
		}

	case "tab", "right", "l":
		m.filterIdx = (m.filterIdx + 1) % len(roster.Filters)
		m.tabBar.ActiveTab = m.filterIdx
		m.cursor = 0
		m.applyFilter()
	case "shift+tab", "left", "h":
		m.filterIdx = (m.filterIdx - 1 + len(roster.Filters)) % len(roster.Filters)
		m.tabBar.ActiveTab = m.filterIdx
		m.cursor = 0
		m.applyFilter()

	case "/":
		m.searchMode = true
		m.searchTerm = ""

	case "s":
		m.cycleSort()
		m.sortFiltered()
	case "S":
		m.sortAsc = !m.sortAsc
		m.sortFiltered()

	case "r":
		if !m.loading {
			m.loading = true
			return m, tea.Batch(m.spin.Tick, m.loadCmd())
		}

	case "e":
		return m.requestEdit()
	case "n":
		m.newWanted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m PatientsModel) requestEdit() (tea.Model, tea.Cmd) {
	row, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.editID = row.ID
	return m, tea.Quit
}

func (m PatientsModel) selected() (roster.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return roster.Row{}, false
	}
	return m.filtered[m.cursor], true
}

func (m *PatientsModel) refreshDetail() {
	row, ok := m.selected()
	if !ok {
		return
	}
	md := roster.Markdown(row, m.roster.AppointmentsOf(row.ID), m.now())
	m.detail.SetContent(renderMarkdown(md, max(m.detail.Width-2, 20)))
	m.detail.GotoTop()
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the browser.
func (m PatientsModel) View() string {
	if m.detailView {
		return m.renderDetailView()
	}
	return m.renderListView()
}

func (m PatientsModel) renderListView() string {
	sections := []string{m.header.Render(), m.tabBar.Render()}

	if m.searchMode || m.searchTerm != "" {
		cursor := ""
		if m.searchMode {
			cursor = "_"
		}
		sections = append(sections, lipgloss.NewStyle().
			Foreground(styles.AccentPrimary).
			PaddingLeft(2).
			Render("/ "+m.searchTerm+cursor))
	}

	sortLabel := ""
	for _, sc := range sortColumns {
		if sc.key == m.sortBy {
			arrow := "↓"
			if m.sortAsc {
				arrow = "↑"
			}
			sortLabel = fmt.Sprintf("Ordem: %s %s", sc.label, arrow)
		}
	}
	sections = append(sections, lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		PaddingLeft(2).
		Render(sortLabel+"  "+styles.Dim("(s: alternar  S: inverter  e: editar  n: novo)")))
	sections = append(sections, styles.Divider(m.width))

	hdr := fmt.Sprintf("  %-28s %-14s %5s %-9s %-10s %-17s", "PACIENTE", "CPF/SUS", "IDADE", "CONDIÇÃO", "RISCO", "PRÓXIMA CONSULTA")
	sections = append(sections, styles.TableHeader.Render(hdr), styles.Divider(m.width))

	switch {
	case m.loading && len(m.roster.Rows) == 0:
		sections = append(sections, "  "+m.spin.View()+" "+styles.Subtitle.Render("Carregando pacientes..."))
	case m.err != nil:
		sections = append(sections, lipgloss.NewStyle().PaddingLeft(2).Render(
			styles.ErrorText.Render("✕ Falha ao carregar pacientes: "+apperr.Message(m.err))))
	case len(m.filtered) == 0:
		msg := "  Nenhum paciente encontrado."
		if m.searchTerm != "" {
			msg = fmt.Sprintf("  Nenhum paciente corresponde a %q.", m.searchTerm)
		}
		sections = append(sections, lipgloss.NewStyle().Foreground(styles.TextMuted).PaddingTop(1).PaddingBottom(1).Render(msg))
	}

	overhead := 9
	if m.searchMode || m.searchTerm != "" {
		overhead++
	}
	maxVisible := max(m.height-overhead, 5)
	offset := 0
	if m.cursor >= maxVisible {
		offset = m.cursor - maxVisible + 1
	}
	for i := offset; i < len(m.filtered) && i < offset+maxVisible; i++ {
		sections = append(sections, m.renderTableRow(m.filtered[i], i, i == m.cursor))
	}

	count := fmt.Sprintf("%d de %d pacientes", len(m.filtered), len(m.roster.Rows))
	if m.loading && len(m.roster.Rows) > 0 {
		count += "  " + m.spin.View()
	}
	sections = append(sections,
		lipgloss.NewStyle().Foreground(styles.TextMuted).PaddingLeft(2).Render(count),
		m.footer.Render(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PatientsModel) renderTableRow(r roster.Row, idx int, selected bool) string {
	nameStyle := lipgloss.NewStyle().Foreground(styles.TextPrimary)
	if selected {
		nameStyle = nameStyle.Bold(true).Foreground(styles.AccentPrimary)
	}
	name := nameStyle.Width(28).Render(styles.TruncateWithEllipsis(r.Name, 27))
	cpf := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(14).Render(r.CPF)

	age := "-"
	if r.Age != nil {
		age = fmt.Sprintf("%d", *r.Age)
	}
	ageCol := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(5).Align(lipgloss.Right).Render(age)
	cond := lipgloss.NewStyle().Foreground(styles.AccentSecondary).Width(9).Render(orDash(r.Conditions()))

	risk := lipgloss.NewStyle().Foreground(styles.RiskColor(r.Risk)).Bold(true).Width(10).Render(orDash(r.Risk))
	next := styles.Dim("-")
	if r.NextVisit != nil {
		next = lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(r.NextVisit.Local().Format("02/01/2006 15:04"))
	}

	cursor := "  "
	if selected {
		cursor = lipgloss.NewStyle().Foreground(styles.AccentPrimary).Bold(true).Render("▸ ")
	}
	bg := styles.TableRow(idx%2 == 0)
	if selected {
		bg = bg.Background(styles.BgHover)
	}
	return bg.Width(m.width).Render(fmt.Sprintf("%s%s %s %s %s %s %s", cursor, name, cpf, ageCol, cond, risk, next))
}

func (m PatientsModel) renderDetailView() string {
	row, ok := m.selected()
	if !ok {
		return "Nenhum paciente selecionado."
	}
	card := components.PatientCard{
		Name: row.Name,
		CPF:  row.CPF,
		HAS:  row.HAS,
		DM:   row.DM,
		Risk: row.Risk,
	}
	if row.NextVisit != nil {
		card.NextVisit = row.NextVisit.Local().Format("02/01/2006 15:04")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.Render(),
		card.Render(),
		m.detail.View(),
		m.footer.Render(),
	)
}

// ---------------------------------------------------------------------------
// Filter / sort helpers
// ---------------------------------------------------------------------------

func (m *PatientsModel) applyFilter() {
	m.filtered = m.roster.Select(roster.Filters[m.filterIdx], m.searchTerm)
	m.sortFiltered()
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *PatientsModel) sortFiltered() {
	less := func(a, b roster.Row) bool {
		switch m.sortBy {
		case "risk":
			return roster.RiskRank(a.Risk) < roster.RiskRank(b.Risk)
		case "next":
			return visitKey(a) < visitKey(b)
		case "age":
			return ageKey(a) < ageKey(b)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	sort.SliceStable(m.filtered, func(i, j int) bool {
		if m.sortAsc {
			return less(m.filtered[i], m.filtered[j])
		}
		return less(m.filtered[j], m.filtered[i])
	})
}

func (m *PatientsModel) cycleSort() {
	for i, sc := range sortColumns {
		if sc.key == m.sortBy {
			m.sortBy = sortColumns[(i+1)%len(sortColumns)].key
			return
		}
	}
	m.sortBy = sortColumns[0].key
}

// visitKey sorts rows without a next visit last.
func visitKey(r roster.Row) int64 {
	if r.NextVisit == nil {
		return 1 << 62
	}
	return r.NextVisit.Unix()
}

func ageKey(r roster.Row) int {
	if r.Age == nil {
		return -1
	}
	return *r.Age
}

// ---------------------------------------------------------------------------
// Utilities
// ---------------------------------------------------------------------------

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
