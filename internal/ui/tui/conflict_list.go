package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/metamechanic/notesync/internal/sync"
)

// The conflicts viewer is read-only: diverged sections are resolved by
// editing one platform's file and rerunning the sync, so the TUI only
// shows what differs and where.

// conflictPhase represents the current view of the conflicts browser.
type conflictPhase int

const (
	phaseList conflictPhase = iota
	phaseDetail
)

// conflictKeyMap defines the key bindings for the conflicts browser.
type conflictKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultConflictKeyMap() conflictKeyMap {
	return conflictKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view side by side"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ConflictListModel is the BubbleTea model for browsing unresolved
// conflicts.
type ConflictListModel struct {
	conflicts []sync.Conflict
	table     table.Model
	viewport  viewport.Model
	keys      conflictKeyMap
	phase     conflictPhase
	cursor    int
	showHelp  bool
	width     int
	height    int
	quitting  bool
	ready     bool
}

var conflictStyles = struct {
	Title       lipgloss.Style
	Help        lipgloss.Style
	Status      lipgloss.Style
	SourceLabel lipgloss.Style
	TargetLabel lipgloss.Style
	Pane        lipgloss.Style
	Hint        lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	SourceLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
	TargetLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	Pane:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
	Hint:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true),
}

var titleCaser = cases.Title(language.English)

// NewConflictListModel creates the conflicts browser over the stored
// conflicts.
func NewConflictListModel(conflicts []sync.Conflict) ConflictListModel {
	columns := []table.Column{
		{Title: "Note", Width: 25},
		{Title: "Section", Width: 15},
		{Title: "Between", Width: 22},
		{Title: "Detected", Width: 16},
	}

	rows := make([]table.Row, len(conflicts))
	for i, c := range conflicts {
		rows[i] = table.Row{
			c.Identity,
			c.Section,
			fmt.Sprintf("%s / %s", titleCaser.String(string(c.Source)), titleCaser.String(string(c.Target))),
			c.DetectedAt.Format("2006-01-02 15:04"),
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ConflictListModel{
		conflicts: conflicts,
		table:     t,
		keys:      defaultConflictKeyMap(),
		phase:     phaseList,
	}
}

// Init implements tea.Model.
func (m ConflictListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConflictListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseList:
		return m.updateList(msg)
	case phaseDetail:
		return m.updateDetail(msg)
	}
	return m, nil
}

func (m ConflictListModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-8, 5))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.Select):
			if len(m.conflicts) > 0 {
				m.cursor = m.table.Cursor()
				m.phase = phaseDetail
				m.initViewport()
			}
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ConflictListModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.initViewport()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.phase = phaseList
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// initViewport sizes the detail viewport and loads the selected conflict.
func (m *ConflictListModel) initViewport() {
	w := max(m.width-2, 40)
	h := max(m.height-8, 10)
	m.viewport = viewport.New(w, h)
	m.viewport.SetContent(m.sideBySide(m.conflicts[m.cursor]))
	m.ready = true
}

// View implements tea.Model.
func (m ConflictListModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.phase {
	case phaseDetail:
		return m.detailView()
	default:
		return m.listView()
	}
}

func (m ConflictListModel) listView() string {
	var b strings.Builder

	b.WriteString(conflictStyles.Title.Render("Unresolved conflicts"))
	b.WriteString("\n\n")

	if len(m.conflicts) == 0 {
		b.WriteString(conflictStyles.Status.Render("No conflicts. Everything is in sync."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(conflictStyles.Hint.Render("Resolve a conflict by editing one platform's file, then rerun `notesync sync`."))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(conflictStyles.Help.Render("↑/k up • ↓/j down • enter view • q quit"))
	} else {
		b.WriteString(conflictStyles.Help.Render("? help • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m ConflictListModel) detailView() string {
	c := m.conflicts[m.cursor]

	var b strings.Builder
	b.WriteString(conflictStyles.Title.Render(fmt.Sprintf("%s / %s", c.Identity, c.Section)))
	b.WriteString("\n")
	b.WriteString(conflictStyles.Status.Render(c.Reason))
	b.WriteString("\n\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.sideBySide(c))
	}
	b.WriteString("\n")
	b.WriteString(conflictStyles.Help.Render("b/esc back • q quit"))
	b.WriteString("\n")
	return b.String()
}

// sideBySide renders both renditions in labeled panes.
func (m ConflictListModel) sideBySide(c sync.Conflict) string {
	paneWidth := 38
	if m.width > 10 {
		paneWidth = max(m.width/2-4, 20)
	}

	source := lipgloss.JoinVertical(lipgloss.Left,
		conflictStyles.SourceLabel.Render(titleCaser.String(string(c.Source))),
		conflictStyles.Pane.Width(paneWidth).Render(paneContent(c.SourceContent, c.SourcePath, paneWidth-2)),
	)
	target := lipgloss.JoinVertical(lipgloss.Left,
		conflictStyles.TargetLabel.Render(titleCaser.String(string(c.Target))),
		conflictStyles.Pane.Width(paneWidth).Render(paneContent(c.TargetContent, c.TargetPath, paneWidth-2)),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, source, " ", target)
}

func paneContent(content, path string, width int) string {
	if content == "" {
		content = "(section missing)"
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = wrapText(line, width)
	}
	out := strings.Join(lines, "\n")
	if path != "" {
		out += "\n\n" + truncateText(path, width)
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
