package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lthms/lore/internal/browser"
)

// dialog is a small form of single-line fields. Enter on the last field
// submits, tab and shift+tab move between fields, esc cancels.
type dialog struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	submit func(m *browseModel, values []string) error
}

// field is one labelled dialog input with its initial value.
type field struct {
	label, value, placeholder string
}

func newDialog(title string, fields []field, submit func(m *browseModel, values []string) error) *dialog {
	d := &dialog{title: title, submit: submit}
	for _, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.SetValue(f.value)
		ti.CursorEnd()
		ti.Placeholder = f.placeholder
		ti.CharLimit = 2000
		ti.Width = 50
		d.labels = append(d.labels, f.label)
		d.inputs = append(d.inputs, ti)
	}
	d.inputs[0].Focus()
	return d
}

// mutationDialog builds a dialog whose submission applies a mutation.
func mutationDialog(title string, fields []field, build func(values []string) browser.Mutation) *dialog {
	return newDialog(title, fields, func(m *browseModel, values []string) error {
		return m.b.Apply(build(values))
	})
}

func (d *dialog) values() []string {
	out := make([]string, len(d.inputs))
	for i, in := range d.inputs {
		out[i] = in.Value()
	}
	return out
}

func (d *dialog) setFocus(i int) {
	d.inputs[d.focus].Blur()
	d.focus = (i + len(d.inputs)) % len(d.inputs)
	d.inputs[d.focus].Focus()
}

// update handles a key and reports whether the dialog was submitted or
// cancelled.
func (d *dialog) update(msg tea.KeyMsg) (submitted, cancelled bool, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return false, true, nil
	case tea.KeyTab, tea.KeyDown:
		d.setFocus(d.focus + 1)
		return false, false, nil
	case tea.KeyShiftTab, tea.KeyUp:
		d.setFocus(d.focus - 1)
		return false, false, nil
	case tea.KeyEnter:
		if d.focus == len(d.inputs)-1 {
			return true, false, nil
		}
		d.setFocus(d.focus + 1)
		return false, false, nil
	}
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return false, false, cmd
}

func (d *dialog) view(width int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(d.title))
	sb.WriteString("\n\n")
	for i, in := range d.inputs {
		label := d.labels[i]
		if i == d.focus {
			label = focusStyle.Render(label)
		} else {
			label = helpStyle.Render(label)
		}
		sb.WriteString(label + "\n")
		sb.WriteString(in.View() + "\n\n")
	}
	sb.WriteString(helpStyle.Render("enter next/submit  tab next field  esc cancel"))
	return boxStyle.Width(min(width-4, 60)).Render(sb.String())
}

// confirmation asks before applying a destructive mutation.
type confirmation struct {
	prompt   string
	mutation browser.Mutation
}

func (c *confirmation) view(width int) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(c.prompt),
		"",
		helpStyle.Render("y confirm  any other key cancels"),
	)
	return boxStyle.Width(min(width-4, 60)).Render(body)
}
