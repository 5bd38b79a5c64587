package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/lthms/lore/internal/browser"
	"github.com/lthms/lore/internal/colview"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89b4fa"))

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bb9af7"))

	helpStyle = lipgloss.NewStyle().
			Faint(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#414868")).
			Foreground(lipgloss.Color("#c0caf5"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Faint(true)

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("#1a1b26")).
			Background(lipgloss.Color("#89b4fa"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#414868")).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("#bb9af7"))
)

const browseHelp = "1/2/3 tab  h/l column  j/k select  / search  n new  r rename  d delete  e edit  y copy  o open  c close  L logs  q quit"

// column is the rendered form of one colview.State.
type column struct {
	title  string
	search string
	items  []string
	cursor int
}

func columnOf[T comparable](title string, s colview.State[T]) column {
	c := column{title: title, search: s.SearchText(), cursor: s.Index()}
	for _, e := range s.Entries() {
		c.items = append(c.items, e.String())
	}
	return c
}

func (m *browseModel) columns() []column {
	names := tabColumns[m.tab]
	switch m.tab {
	case tabEntity:
		e := m.b.Entity()
		return []column{columnOf(names[0], e.Labels), columnOf(names[1], e.Descriptors)}
	case tabHistory:
		h := m.b.History()
		return []column{columnOf(names[0], h.Years), columnOf(names[1], h.Days), columnOf(names[2], h.Timestamps)}
	}
	r := m.b.Relationship()
	return []column{columnOf(names[0], r.Parents), columnOf(names[1], r.Children)}
}

func (m browseModel) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	var body string
	switch m.mode {
	case modeDialog:
		body = m.dialog.view(m.width)
	case modeConfirm:
		body = m.confirm.view(m.width)
	case modeEdit:
		title, _, _ := m.detail()
		body = titleStyle.Render("Edit "+strings.ToLower(title)) + "\n" +
			m.editor.View() + "\n" +
			helpStyle.Render("ctrl+s save  esc discard")
	case modeLogs:
		return titleStyle.Render("Log") + "\n" + m.logView.View() + "\n" +
			helpStyle.Render("esc close  j/k scroll")
	default:
		body = m.renderBody(m.height - lipgloss.Height(header) - lipgloss.Height(footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *browseModel) renderHeader() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	db := helpStyle.Render("no database")
	if m.b.Connected() {
		db = helpStyle.Render(m.dbPath)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, append(tabs, "  ", db)...)
}

func (m *browseModel) renderFooter() string {
	status := helpStyle.Render(browseHelp)
	if m.status != "" {
		if m.statusErr {
			status = errorStyle.Render(m.status)
		} else {
			status = focusStyle.Render(m.status)
		}
	}
	if m.mode == modeSearch {
		status = m.search.View()
	}
	return ansi.Truncate(status, m.width, "…")
}

func (m *browseModel) renderBody(height int) string {
	height = max(height, 5)
	cols := m.columns()
	colWidth := max(12, (m.width*3/5)/len(cols)-2)
	detailWidth := max(20, m.width-len(cols)*(colWidth+2)-2)

	parts := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		parts = append(parts, renderColumn(c, colWidth, height-2, i == m.col))
	}
	parts = append(parts, m.renderDetail(detailWidth, height-2))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderColumn(c column, width, height int, focused bool) string {
	title := c.title
	if c.search != "" {
		title += " /" + c.search
	}
	lines := []string{titleStyle.Render(ansi.Truncate(title, width, "…"))}

	rows := max(1, height-1)
	start := 0
	if c.cursor >= rows {
		start = c.cursor - rows + 1
	}
	for i := start; i < len(c.items) && i < start+rows; i++ {
		item := ansi.Truncate(c.items[i], width, "…")
		if i == c.cursor {
			item = selectedStyle.Render(item + strings.Repeat(" ", max(0, width-ansi.StringWidth(item))))
		}
		lines = append(lines, item)
	}

	style := boxStyle
	if focused {
		style = focusedBoxStyle
	}
	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *browseModel) renderDetail(width, height int) string {
	title, text, ok := m.detail()
	body := helpStyle.Render(colview.NoneText)
	if ok {
		body = text
		if m.md != nil {
			if out, err := m.md.Render(text); err == nil {
				body = strings.Trim(out, "\n")
			}
		}
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "")
	}
	if len(lines) > height-1 {
		lines = lines[:max(0, height-1)]
	}
	content := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	if props := m.historyProperties(); props != "" {
		content += "\n\n" + helpStyle.Render(ansi.Truncate(props, width, "…"))
	}
	return boxStyle.Width(width).Height(height).Render(content)
}

// historyProperties renders the properties of the selected history item.
func (m *browseModel) historyProperties() string {
	if m.tab != tabHistory {
		return ""
	}
	if _, ok := m.b.History().Timestamps.SelectedValue(); !ok {
		return ""
	}
	item, err := m.b.SelectedHistoryItem()
	if err != nil || len(item.Properties) == 0 {
		return ""
	}
	return browser.FormatProperties(item.Properties)
}
