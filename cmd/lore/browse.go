package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/lthms/lore/internal/browser"
	"github.com/lthms/lore/internal/cascade"
	"github.com/lthms/lore/internal/colview"
	"github.com/lthms/lore/internal/lore"
)

// BrowseCmd runs the interactive browser.
type BrowseCmd struct {
	DB string `arg:"" optional:"" type:"path" help:"Database to open. Defaults to store.path from the config; without either the browser starts with no database."`
}

// Run opens the database, if any, and hands the terminal to the browser.
func (cmd *BrowseCmd) Run(cfg *UserConfig, level slog.Level) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("browse needs a terminal; use export for scripted access")
	}

	logs := newLogBuffer(cfg.UI.LogLines)
	closeLog := setupBrowseLogger(logs, level, cfg.Log.File)
	defer closeLog()

	b := browser.New()
	path := cmd.DB
	if path == "" {
		path = cfg.Store.Path
	}
	if path != "" {
		s, err := openStore(path)
		if err != nil {
			return err
		}
		if err := b.Connect(s); err != nil {
			closeStore(s)
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	defer func() { closeStore(b.Disconnect()) }()

	m := newBrowseModel(b, cfg, logs, openStore)
	m.dbPath = path
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeDialog
	modeConfirm
	modeEdit
	modeLogs
)

type tab int

const (
	tabEntity tab = iota
	tabHistory
	tabRelationship
)

var tabNames = [...]string{"Entities", "History", "Relationships"}

// columns per tab, left to right
var tabColumns = [...][]string{
	{"Label", "Descriptor"},
	{"Year", "Day", "Timestamp"},
	{"Parent", "Child"},
}

// browseModel is the Bubble Tea model for the lore browser. All view state
// lives in the browser.Browser; the model only tracks focus and overlays.
type browseModel struct {
	b      *browser.Browser
	cfg    *UserConfig
	logs   *logBuffer
	open   func(path string) (lore.Store, error)
	dbPath string

	tab       tab
	col       int
	mode      mode
	status    string
	statusErr bool

	search  textinput.Model
	dialog  *dialog
	confirm *confirmation
	editor  textarea.Model
	save    func(text string) browser.Mutation
	logView viewport.Model

	md     *glamour.TermRenderer
	width  int
	height int
}

func newBrowseModel(b *browser.Browser, cfg *UserConfig, logs *logBuffer, open func(string) (lore.Store, error)) browseModel {
	search := textinput.New()
	search.Prompt = "/"
	search.CharLimit = 200

	m := browseModel{
		b:      b,
		cfg:    cfg,
		logs:   logs,
		open:   open,
		search: search,
		editor: textarea.New(),
		width:  100,
		height: 30,
	}
	if cfg.UI.Markdown {
		m.md = newMarkdownRenderer(cfg.UI.GlamourStyle)
	}
	return m
}

func newMarkdownRenderer(style string) *glamour.TermRenderer {
	opt := glamour.WithStandardStyle(style)
	if style == "" || style == "auto" {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(60))
	if err != nil {
		slog.Warn("markdown rendering disabled", "style", style, "error", err)
		return nil
	}
	return r
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width
		m.logView.Height = max(1, msg.Height-3)
		if m.mode == modeEdit {
			m.editor.SetWidth(max(20, msg.Width-6))
			m.editor.SetHeight(max(3, msg.Height-8))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchInput(msg)
		case modeDialog:
			return m.handleDialogInput(msg)
		case modeConfirm:
			return m.handleConfirmInput(msg)
		case modeEdit:
			return m.handleEditInput(msg)
		case modeLogs:
			return m.handleLogsInput(msg)
		}
		return m.handleNormalInput(msg)
	}
	return m, nil
}

func (m browseModel) handleNormalInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1", "2", "3":
		m.tab = tab(msg.String()[0] - '1')
		m.col = 0
	case "tab":
		m.tab = (m.tab + 1) % tab(len(tabNames))
		m.col = 0
	case "left", "h":
		m.col = max(0, m.col-1)
	case "right", "l":
		m.col = min(len(tabColumns[m.tab])-1, m.col+1)
	case "up", "k":
		m.report(m.move(-1), "")
	case "down", "j":
		m.report(m.move(1), "")
	case "home", "g":
		m.report(m.move(-1<<30), "")
	case "end", "G":
		m.report(m.move(1<<30), "")
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.searchText())
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case "esc":
		if m.searchText() != "" {
			m.report(m.applySearch(""), "")
		}
	case "n":
		return m.openDialog(m.newDialog())
	case "r":
		return m.openDialog(m.renameDialog())
	case "d":
		c, err := m.deleteConfirmation()
		if err != nil {
			m.report(err, "")
			return m, nil
		}
		m.confirm = c
		m.mode = modeConfirm
	case "e":
		return m.startEdit()
	case "y":
		m.copyDetail()
	case "o":
		return m.openDialog(m.openStoreDialog(), nil)
	case "c":
		m.closeStore()
	case "L":
		m.showLogs()
	}
	return m, nil
}

func (m browseModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.mode = modeNormal
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if text := m.search.Value(); text != before {
		m.report(m.applySearch(text), "")
	}
	return m, cmd
}

func (m browseModel) handleDialogInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	submitted, cancelled, cmd := m.dialog.update(msg)
	switch {
	case cancelled:
		m.dialog = nil
		m.mode = modeNormal
	case submitted:
		err := m.dialog.submit(&m, m.dialog.values())
		if err != nil && !isStale(err) {
			// Keep the dialog open so the input can be corrected.
			m.report(err, "")
			return m, nil
		}
		m.report(err, m.dialog.title+": done")
		m.dialog = nil
		m.mode = modeNormal
	}
	return m, cmd
}

func (m browseModel) handleConfirmInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	m.confirm = nil
	m.mode = modeNormal
	if msg.String() == "y" {
		m.report(m.b.Apply(c.mutation), "deleted")
	} else {
		m.report(nil, "cancelled")
	}
	return m, nil
}

func (m browseModel) handleEditInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.editor.Blur()
		m.report(nil, "changes discarded")
		return m, nil
	case "ctrl+s":
		err := m.b.Apply(m.save(m.editor.Value()))
		m.report(err, "saved")
		if err == nil || isStale(err) {
			m.mode = modeNormal
			m.editor.Blur()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m browseModel) handleLogsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "L":
		m.mode = modeNormal
		return m, nil
	}
	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

// report shows err in the status line, or ok when err is nil.
func (m *browseModel) report(err error, ok string) {
	switch {
	case err == nil:
		m.status, m.statusErr = ok, false
	case errors.Is(err, lore.ErrNoStore):
		m.status, m.statusErr = "no database open (o to open one)", true
	default:
		m.status, m.statusErr = err.Error(), true
		if !lore.IsInputError(err) {
			slog.Warn("browser action failed", "error", err)
		}
	}
}

func isStale(err error) bool {
	var stale *lore.StaleViewError
	return errors.As(err, &stale)
}

func (m *browseModel) openDialog(d *dialog, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.report(err, "")
		return *m, nil
	}
	m.dialog = d
	m.mode = modeDialog
	m.status = ""
	return *m, nil
}

// searchText returns the search text of the focused column.
func (m *browseModel) searchText() string {
	switch m.tab {
	case tabEntity:
		e := m.b.Entity()
		return pick(m.col, e.Labels.SearchText(), e.Descriptors.SearchText())
	case tabHistory:
		h := m.b.History()
		return pick(m.col, h.Years.SearchText(), h.Days.SearchText(), h.Timestamps.SearchText())
	default:
		r := m.b.Relationship()
		return pick(m.col, r.Parents.SearchText(), r.Children.SearchText())
	}
}

func pick(i int, values ...string) string {
	if i < 0 || i >= len(values) {
		return ""
	}
	return values[i]
}

// applySearch sends text as the search of the focused column.
func (m *browseModel) applySearch(text string) error {
	switch m.tab {
	case tabEntity:
		if m.col == 0 {
			return m.b.UpdateEntityView(cascade.SearchLabel{Text: text})
		}
		return m.b.UpdateEntityView(cascade.SearchDescriptor{Text: text})
	case tabHistory:
		switch m.col {
		case 0:
			return m.b.UpdateHistoryView(cascade.SearchYear{Text: text})
		case 1:
			return m.b.UpdateHistoryView(cascade.SearchDay{Text: text})
		}
		return m.b.UpdateHistoryView(cascade.SearchTimestamp{Text: text})
	}
	if m.col == 0 {
		return m.b.UpdateRelationshipView(cascade.SearchParent{Text: text})
	}
	return m.b.UpdateRelationshipView(cascade.SearchChild{Text: text})
}

// step returns the entry delta rows away from the current selection.
func step[T comparable](s colview.State[T], delta int) (colview.Entry[T], bool) {
	entries := s.Entries()
	if len(entries) == 0 {
		return colview.Entry[T]{}, false
	}
	i := s.Index()
	if i < 0 {
		i = 0
	} else {
		i = max(0, min(len(entries)-1, i+delta))
	}
	if entries[i] == s.Selected() {
		return entries[i], false
	}
	return entries[i], true
}

// move changes the selection of the focused column.
func (m *browseModel) move(delta int) error {
	switch m.tab {
	case tabEntity:
		e := m.b.Entity()
		if m.col == 0 {
			if sel, ok := step(e.Labels, delta); ok {
				return m.b.UpdateEntityView(cascade.SelectLabel{Label: sel})
			}
		} else if sel, ok := step(e.Descriptors, delta); ok {
			return m.b.UpdateEntityView(cascade.SelectDescriptor{Descriptor: sel})
		}
	case tabHistory:
		h := m.b.History()
		switch m.col {
		case 0:
			if sel, ok := step(h.Years, delta); ok {
				return m.b.UpdateHistoryView(cascade.SelectYear{Year: sel})
			}
		case 1:
			if sel, ok := step(h.Days, delta); ok {
				return m.b.UpdateHistoryView(cascade.SelectDay{Day: sel})
			}
		case 2:
			if sel, ok := step(h.Timestamps, delta); ok {
				return m.b.UpdateHistoryView(cascade.SelectTimestamp{Timestamp: sel})
			}
		}
	case tabRelationship:
		r := m.b.Relationship()
		if m.col == 0 {
			if sel, ok := step(r.Parents, delta); ok {
				return m.b.UpdateRelationshipView(cascade.SelectParent{Parent: sel})
			}
		} else if sel, ok := step(r.Children, delta); ok {
			return m.b.UpdateRelationshipView(cascade.SelectChild{Child: sel})
		}
	}
	return nil
}

func (m *browseModel) newDialog() (*dialog, error) {
	switch m.tab {
	case tabEntity:
		if m.col == 0 {
			return mutationDialog("New entity", []field{{label: "Label"}},
				func(v []string) browser.Mutation { return browser.CreateEntity{Label: v[0]} }), nil
		}
		p := m.b.EntityPrefill()
		if p.Label == "" {
			return nil, lore.Inputf("select an entity first")
		}
		return mutationDialog("New descriptor of "+p.Label, []field{{label: "Name"}},
			func(v []string) browser.Mutation { return browser.CreateDescriptor{Descriptor: v[0]} }), nil
	case tabHistory:
		p := m.b.HistoryPrefill()
		return mutationDialog("New history item", []field{
			{label: "Year", value: p.Year},
			{label: "Day (optional)", value: p.Day},
			{label: "Content"},
			{label: "Properties", placeholder: "key=value, key=value"},
		}, func(v []string) browser.Mutation {
			return browser.CreateHistoryItem{Year: v[0], Day: v[1], Content: v[2], Properties: v[3]}
		}), nil
	}
	r := m.b.Relationship()
	parent, _ := r.Parents.SelectedValue()
	child, _ := r.Children.SelectedValue()
	return mutationDialog("New relationship", []field{
		{label: "Parent", value: string(parent)},
		{label: "Child", value: string(child)},
		{label: "Role (optional)"},
	}, func(v []string) browser.Mutation {
		return browser.CreateRelationship{Parent: v[0], Child: v[1], Role: v[2]}
	}), nil
}

func (m *browseModel) renameDialog() (*dialog, error) {
	switch m.tab {
	case tabEntity:
		e := m.b.Entity()
		if m.col == 0 {
			label, ok := e.Labels.SelectedValue()
			if !ok {
				return nil, lore.Inputf("select an entity first")
			}
			return mutationDialog("Relabel "+string(label), []field{{label: "Label", value: string(label)}},
				func(v []string) browser.Mutation { return browser.RelabelEntity{Old: label, New: v[0]} }), nil
		}
		d, ok := e.Descriptors.SelectedValue()
		if !ok {
			return nil, lore.Inputf("select a descriptor first")
		}
		return mutationDialog("Rename "+string(d), []field{{label: "Name", value: string(d)}},
			func(v []string) browser.Mutation { return browser.RenameDescriptor{Old: d, New: v[0]} }), nil
	case tabHistory:
		item, err := m.b.SelectedHistoryItem()
		if err != nil {
			return nil, err
		}
		day := ""
		if !item.Day.IsNone() {
			day = item.Day.String()
		}
		return mutationDialog("Redate "+item.Timestamp.String(), []field{
			{label: "Year", value: item.Year.String()},
			{label: "Day (optional)", value: day},
		}, func(v []string) browser.Mutation {
			return browser.RedateHistoryItem{Timestamp: item.Timestamp, Year: v[0], Day: v[1]}
		}), nil
	}
	rel, err := m.b.SelectedRelationship()
	if err != nil {
		return nil, err
	}
	return mutationDialog(fmt.Sprintf("Role of %s -> %s", rel.Parent, rel.Child),
		[]field{{label: "Role (empty for none)", value: rel.RoleString()}},
		func(v []string) browser.Mutation { return browser.ChangeRole{Relationship: rel, NewRole: v[0]} }), nil
}

func (m *browseModel) deleteConfirmation() (*confirmation, error) {
	switch m.tab {
	case tabEntity:
		e := m.b.Entity()
		if m.col == 0 {
			label, ok := e.Labels.SelectedValue()
			if !ok {
				return nil, lore.Inputf("select an entity first")
			}
			return &confirmation{
				prompt:   fmt.Sprintf("Delete %s with all its descriptors and relationships?", label),
				mutation: browser.DeleteEntity{Label: label},
			}, nil
		}
		d, ok := e.Descriptors.SelectedValue()
		if !ok {
			return nil, lore.Inputf("select a descriptor first")
		}
		return &confirmation{
			prompt:   fmt.Sprintf("Delete descriptor %s?", d),
			mutation: browser.DeleteDescriptor{Descriptor: d},
		}, nil
	case tabHistory:
		ts, ok := m.b.History().Timestamps.SelectedValue()
		if !ok {
			return nil, lore.Inputf("select a history item first")
		}
		return &confirmation{
			prompt:   fmt.Sprintf("Delete history item %s?", ts),
			mutation: browser.DeleteHistoryItem{Timestamp: ts},
		}, nil
	}
	rel, err := m.b.SelectedRelationship()
	if err != nil {
		return nil, err
	}
	return &confirmation{
		prompt:   fmt.Sprintf("Delete relationship %s -> %s?", rel.Parent, rel.Child),
		mutation: browser.DeleteRelationship{Relationship: rel},
	}, nil
}

func (m browseModel) startEdit() (tea.Model, tea.Cmd) {
	var text string
	switch m.tab {
	case tabEntity:
		p := m.b.EntityPrefill()
		if p.Label == "" || p.Descriptor == "" {
			m.report(lore.Inputf("select a descriptor first"), "")
			return m, nil
		}
		text = p.Text
		m.save = func(s string) browser.Mutation { return browser.SaveDescription{Text: s} }
	case tabHistory:
		if _, ok := m.b.History().Timestamps.SelectedValue(); !ok {
			m.report(lore.Inputf("select a history item first"), "")
			return m, nil
		}
		text = m.b.HistoryPrefill().Text
		m.save = func(s string) browser.Mutation { return browser.SaveHistoryContent{Content: s} }
	default:
		return m.openDialog(m.renameDialog())
	}

	m.editor = textarea.New()
	m.editor.SetWidth(max(20, m.width-6))
	m.editor.SetHeight(max(3, m.height-8))
	m.editor.CharLimit = 0
	m.editor.SetValue(text)
	m.mode = modeEdit
	m.status = ""
	cmd := m.editor.Focus()
	return m, cmd
}

// detail returns the leaf value of the current tab.
func (m *browseModel) detail() (title, text string, ok bool) {
	switch m.tab {
	case tabEntity:
		d, ok := m.b.Entity().Description.Get()
		return "Description", string(d), ok
	case tabHistory:
		c, ok := m.b.History().Content.Get()
		return "Content", string(c), ok
	}
	r, ok := m.b.Relationship().Role.Get()
	return "Role", string(r), ok
}

func (m *browseModel) copyDetail() {
	_, text, ok := m.detail()
	if !ok {
		m.report(lore.Inputf("nothing to copy"), "")
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		m.report(fmt.Errorf("copy: %w", err), "")
		return
	}
	m.report(nil, "copied to clipboard")
}

func (m *browseModel) openStoreDialog() *dialog {
	return newDialog("Open database", []field{{label: "Path", value: m.dbPath}},
		func(m *browseModel, v []string) error {
			path := strings.TrimSpace(v[0])
			if path == "" {
				return lore.Inputf("path must not be empty")
			}
			s, err := m.open(path)
			if err != nil {
				return err
			}
			closeStore(m.b.Disconnect())
			m.dbPath = path
			if err := m.b.Connect(s); err != nil {
				// The store is attached; only its views failed to load.
				return &lore.StaleViewError{Err: fmt.Errorf("load %s: %w", path, err)}
			}
			return nil
		})
}

func (m *browseModel) closeStore() {
	if !m.b.Connected() {
		m.report(lore.ErrNoStore, "")
		return
	}
	closeStore(m.b.Disconnect())
	m.report(nil, "closed "+m.dbPath)
	m.dbPath = ""
}

func (m *browseModel) showLogs() {
	m.logView = viewport.New(m.width, max(1, m.height-3))
	m.logView.SetContent(renderLogs(m.logs))
	m.logView.GotoBottom()
	m.mode = modeLogs
}

func renderLogs(buf *logBuffer) string {
	entries, dropped := buf.snapshot()
	lines := make([]string, 0, len(entries)+1)
	if dropped > 0 {
		lines = append(lines, helpStyle.Render(fmt.Sprintf("(%d older lines dropped)", dropped)))
	}
	for _, e := range entries {
		switch {
		case e.level >= slog.LevelWarn:
			lines = append(lines, errorStyle.Render(e.text))
		case e.level < slog.LevelInfo:
			lines = append(lines, helpStyle.Render(e.text))
		default:
			lines = append(lines, e.text)
		}
	}
	return strings.Join(lines, "\n")
}
