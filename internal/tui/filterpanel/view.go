// Package filterpanel is the selector's per-attribute filter editor. Each row
// holds an exact value, cycled through the candidates that survive the
// row's regex, and the regex itself, edited inline.
package filterpanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/catalog"
	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/model"
	"github.com/altinukshini/hepc-tui/internal/ui"
)

// Model is the Bubble Tea model for the filter panel.
type Model struct {
	state   filter.State
	index   catalog.Index
	focused int
	editing bool
	before  filter.Condition // restored on esc
	input   textinput.Model
	width   int
	height  int
}

// New creates a panel over the full candidate sets in idx.
func New(idx catalog.Index) Model {
	ti := textinput.New()
	ti.Placeholder = "regex"
	ti.Prompt = "/"
	ti.CharLimit = 256
	ti.Width = 20
	return Model{index: idx, input: ti}
}

// State returns the current filter state.
func (m Model) State() filter.State { return m.state }

// SetState replaces the filter state, e.g. after clearing all filters.
func (m *Model) SetState(s filter.State) {
	m.state = s
	m.editing = false
	m.input.Blur()
}

// Focused returns the attribute under the cursor.
func (m Model) Focused() model.Column { return model.Columns[m.focused] }

// IsEditing reports whether the regex input has the keyboard.
func (m Model) IsEditing() bool { return m.editing }

// Candidates returns col's candidate list narrowed by its current regex.
func (m Model) Candidates(col model.Column) []string {
	return m.index.Narrow(col, m.state.Get(col).Pattern)
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 40
		if w < 8 {
			w = 8
		}
		m.input.Width = w
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}

		col := m.Focused()
		switch msg.String() {
		case "j", "down":
			m.moveFocus(1)
		case "k", "up":
			m.moveFocus(-1)
		case "enter", "right", "l", " ":
			m.state = m.state.WithExact(col, cycle(m.Candidates(col), m.state.Get(col).Exact, 1))
		case "left", "h":
			m.state = m.state.WithExact(col, cycle(m.Candidates(col), m.state.Get(col).Exact, -1))
		case "/":
			m.editing = true
			m.before = m.state.Get(col)
			m.input.SetValue(m.before.Pattern)
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		case "x", "backspace", "delete":
			m.state = m.state.Without(col)
		}
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (Model, tea.Cmd) {
	col := m.Focused()
	switch msg.String() {
	case "enter", "tab":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		m.state = m.state.WithCondition(col, m.before)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if p := m.input.Value(); p != m.state.Get(col).Pattern {
		m.state = m.state.WithPattern(col, p, m.index[col])
	}
	return m, cmd
}

func (m *Model) moveFocus(delta int) {
	n := len(model.Columns)
	m.focused = (m.focused + delta + n) % n
}

// cycle steps from current through values. values[0] is the empty "no
// constraint" choice; a current value not in the list starts from it.
func cycle(values []string, current string, delta int) string {
	if len(values) == 0 {
		return ""
	}
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(values)) % len(values)
	return values[idx]
}

// View renders one row per attribute.
func (m Model) View() string {
	labelStyle := lipgloss.NewStyle().Width(24).Foreground(ui.ColorMuted)
	focusedLabelStyle := lipgloss.NewStyle().Width(24).Bold(true).Foreground(ui.ColorPrimary)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	anyStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted).Italic(true)

	rows := make([]string, 0, len(model.Columns)*2)
	for i, col := range model.Columns {
		focused := i == m.focused
		ls := labelStyle
		cursor := "  "
		if focused {
			ls = focusedLabelStyle
			cursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary).Render("> ")
		}

		c := m.state.Get(col)
		candidates := m.Candidates(col)
		value := anyStyle.Render("(any)")
		if c.Exact != "" {
			value = valueStyle.Render(c.Exact)
		}
		all := m.index.Narrow(col, "")
		count := ui.StyleMuted.Render(fmt.Sprintf("%d/%d", len(candidates)-1, len(all)-1))

		pattern := ""
		switch {
		case focused && m.editing:
			pattern = m.input.View()
		case c.Pattern != "":
			style := ui.StyleInfo
			if _, err := filter.Matcher(c.Pattern); err != nil {
				style = ui.StyleFailure
			}
			pattern = style.Render("/" + c.Pattern + "/")
		}

		rows = append(rows, fmt.Sprintf("%s%s %s  %s", cursor, ls.Render(col.Label()+":"), value, count))
		if pattern != "" {
			rows = append(rows, "    "+pattern)
		}
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		MarginBottom(1).
		Render("Filters")

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"))
}
