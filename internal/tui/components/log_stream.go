package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rastreiamais/rastreia/internal/tui/styles"
)

// LogLine is one activity entry: a draft save, a new alert, a submit step.
type LogLine struct {
	Time    time.Time
	Level   string // "info", "warn", "error", "success"
	Source  string // "RASCUNHO", "ALERTA", "CADASTRO"
	Message string
}

// LogStream is a scrollable activity feed that follows new lines until the
// user scrolls up.
type LogStream struct {
	lines      []LogLine
	viewport   viewport.Model
	autoScroll bool
	maxLines   int
	width      int
	height     int
}

// NewLogStream creates a new LogStream with the given dimensions.
func NewLogStream(width, height int) LogStream {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().Background(styles.BgPanel)
	return LogStream{
		lines:      nil,
		viewport:   vp,
		autoScroll: true,
		maxLines:   500,
		width:      width,
		height:     height,
	}
}

// Update handles scrolling.
func (l LogStream) Update(msg tea.Msg) (LogStream, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "G", "end":
			l.autoScroll = true
			l.viewport.GotoBottom()
			return l, nil
		case "up", "k":
			l.autoScroll = false
		case "down", "j":
			l.viewport, cmd = l.viewport.Update(msg)
			if l.viewport.AtBottom() {
				l.autoScroll = true
			}
			return l, cmd
		}
	}

	l.viewport, cmd = l.viewport.Update(msg)
	if !l.viewport.AtBottom() {
		l.autoScroll = false
	}

	return l, cmd
}

// View returns the titled viewport.
func (l LogStream) View() string {
	title := styles.TableHeader.Render("Atividade")
	if !l.autoScroll {
		title += styles.WarnText.Render(" (pausado, G para seguir)")
	}
	return title + "\n" + l.viewport.View()
}

// Len returns the number of buffered lines.
func (l LogStream) Len() int { return len(l.lines) }

// SetSize resizes the viewport.
func (l *LogStream) SetSize(width, height int) {
	l.width, l.height = width, height
	l.viewport.Width, l.viewport.Height = width, height
	l.viewport.SetContent(l.renderLines())
}

// AddLine appends a log line and refreshes the viewport content.
func (l *LogStream) AddLine(line LogLine) {
	l.lines = append(l.lines, line)

	if len(l.lines) > l.maxLines {
		overflow := len(l.lines) - l.maxLines
		l.lines = l.lines[overflow:]
	}

	l.viewport.SetContent(l.renderLines())

	if l.autoScroll {
		l.viewport.GotoBottom()
	}
}

func levelColor(level string) lipgloss.Color {
	switch strings.ToLower(level) {
	case "info":
		return styles.TextSecondary
	case "warn":
		return styles.StatusWarn
	case "error":
		return styles.StatusError
	case "success":
		return styles.StatusOK
	default:
		return styles.TextMuted
	}
}

func (l *LogStream) renderLines() string {
	var b strings.Builder
	for _, line := range l.lines {
		color := levelColor(line.Level)

		ts := lipgloss.NewStyle().Foreground(styles.TextMuted).
			Render(line.Time.Format("15:04:05"))
		lvl := lipgloss.NewStyle().Foreground(color).Bold(true).
			Render(fmt.Sprintf("%-7s", strings.ToUpper(line.Level)))
		src := lipgloss.NewStyle().Foreground(styles.AccentSecondary).
			Render(fmt.Sprintf("%-9s", line.Source))
		msg := lipgloss.NewStyle().Foreground(color).
			Render(line.Message)

		b.WriteString(ts + " " + lvl + " " + src + " " + msg + "\n")
	}
	return b.String()
}
