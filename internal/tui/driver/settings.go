package driver

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/ui"
	"github.com/altinukshini/hepc-tui/internal/workflow"
)

type field struct {
	label string
	get   func(workflow.Settings) string
	set   func(*workflow.Settings, string)
}

var fields = []field{
	{"gh-mrva dir", func(s workflow.Settings) string { return s.GhMrvaDir }, func(s *workflow.Settings, v string) { s.GhMrvaDir = v }},
	{"HEPC dir", func(s workflow.Settings) string { return s.HepcDir }, func(s *workflow.Settings, v string) { s.HepcDir = v }},
	{"Metadata DB", func(s workflow.Settings) string { return s.MetadataDB }, func(s *workflow.Settings, v string) { s.MetadataDB = v }},
	{"Selection JSON", func(s workflow.Settings) string { return s.SelectionJSON }, func(s *workflow.Settings, v string) { s.SelectionJSON = v }},
	{"Container", func(s workflow.Settings) string { return s.Container }, func(s *workflow.Settings, v string) { s.Container = v }},
	{"Session", func(s workflow.Settings) string { return s.Session }, func(s *workflow.Settings, v string) { s.Session = v }},
}

// settingsForm edits workflow settings one field at a time.
type settingsForm struct {
	values  workflow.Settings
	focused int
	editing bool
	input   textinput.Model
	width   int
}

func newSettingsForm(s workflow.Settings) settingsForm {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Prompt = ""
	return settingsForm{values: s, input: ti}
}

func (f settingsForm) IsEditing() bool { return f.editing }

func (f settingsForm) Update(msg tea.Msg) (settingsForm, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		w := msg.Width - 20
		if w < 10 {
			w = 10
		}
		f.input.Width = w
		return f, nil

	case tea.KeyMsg:
		if f.editing {
			switch msg.String() {
			case "enter":
				fields[f.focused].set(&f.values, strings.TrimSpace(f.input.Value()))
				f.editing = false
				f.input.Blur()
				return f, nil
			case "esc":
				f.editing = false
				f.input.Blur()
				return f, nil
			}
			var cmd tea.Cmd
			f.input, cmd = f.input.Update(msg)
			return f, cmd
		}

		switch msg.String() {
		case "j", "down":
			f.focused = (f.focused + 1) % len(fields)
		case "k", "up":
			f.focused = (f.focused - 1 + len(fields)) % len(fields)
		case "enter", "e":
			f.editing = true
			f.input.SetValue(fields[f.focused].get(f.values))
			f.input.CursorEnd()
			f.input.Focus()
			return f, textinput.Blink
		}
	}
	return f, nil
}

func (f settingsForm) View(focused bool) string {
	label := lipgloss.NewStyle().Width(16)
	var b strings.Builder
	for i, fd := range fields {
		name := fd.label
		value := fd.get(f.values)
		if value == "" {
			value = ui.StyleMuted.Render("(empty)")
		}
		cursor := "  "
		if focused && i == f.focused {
			cursor = ui.StyleInfo.Render("> ")
			name = lipgloss.NewStyle().Bold(true).Render(name)
		}
		if f.editing && i == f.focused {
			value = f.input.View()
		}
		b.WriteString(cursor + label.Render(name) + value + "\n")
	}
	query := f.values.QueryPath
	if query == "" {
		query = ui.StyleMuted.Render("(none, use step 4)")
	} else {
		query = ui.StylePath.Render(query)
	}
	b.WriteString("  " + label.Render("Query") + query)
	return b.String()
}
