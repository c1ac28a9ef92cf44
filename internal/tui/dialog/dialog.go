// Package dialog renders modal boxes: yes/no confirmations and notices that
// close on any key.
package dialog

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/ui"
)

type ResultMsg struct {
	Confirmed bool
	Action    string
	Data      interface{}
}

// ClosedMsg is emitted when a notice is dismissed.
type ClosedMsg struct {
	Action string
}

// Kind selects the dialog's color and behavior.
type Kind int

const (
	KindConfirm Kind = iota
	KindInfo
	KindWarning
	KindError
)

type Model struct {
	Title    string
	Message  string
	Action   string
	Data     interface{}
	Kind     Kind
	Width    int
	active   bool
	selected bool // true = confirm selected
}

// New opens a yes/no confirmation.
func New(title, message, action string, data interface{}) Model {
	return Model{
		Title:   title,
		Message: message,
		Action:  action,
		Data:    data,
		Kind:    KindConfirm,
		Width:   50,
		active:  true,
	}
}

// Notice opens a message box closed by any key.
func Notice(kind Kind, title, message string) Model {
	return Model{
		Title:   title,
		Message: message,
		Kind:    kind,
		Width:   60,
		active:  true,
	}
}

func (m Model) IsActive() bool { return m.active }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.Kind != KindConfirm {
		m.active = false
		action := m.Action
		return m, func() tea.Msg { return ClosedMsg{Action: action} }
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.active = false
		return m, func() tea.Msg {
			return ResultMsg{Confirmed: true, Action: m.Action, Data: m.Data}
		}
	case "n", "N", "esc":
		m.active = false
		return m, func() tea.Msg {
			return ResultMsg{Confirmed: false, Action: m.Action, Data: m.Data}
		}
	case "enter":
		m.active = false
		return m, func() tea.Msg {
			return ResultMsg{Confirmed: m.selected, Action: m.Action, Data: m.Data}
		}
	case "tab", "left", "right", "h", "l":
		m.selected = !m.selected
	}
	return m, nil
}

func (m Model) color() lipgloss.Color {
	switch m.Kind {
	case KindInfo:
		return ui.ColorInfo
	case KindError:
		return ui.ColorFailure
	default:
		return ui.ColorWarning
	}
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.color()).
		Padding(1, 2).
		Width(m.Width)

	title := lipgloss.NewStyle().Bold(true).
		Foreground(m.color()).
		Render(m.Title)

	if m.Kind != KindConfirm {
		hint := ui.StyleMuted.Render("press any key to close")
		return style.Render(fmt.Sprintf("%s\n\n%s\n\n%s", title, m.Message, hint))
	}

	yesStyle := lipgloss.NewStyle().Padding(0, 1)
	noStyle := lipgloss.NewStyle().Padding(0, 1)

	if m.selected {
		yesStyle = yesStyle.Bold(true).Background(ui.ColorSuccess).Foreground(lipgloss.Color("#F9FAFB"))
		noStyle = noStyle.Foreground(ui.ColorMuted)
	} else {
		yesStyle = yesStyle.Foreground(ui.ColorMuted)
		noStyle = noStyle.Bold(true).Background(ui.ColorFailure).Foreground(lipgloss.Color("#F9FAFB"))
	}

	content := fmt.Sprintf("%s\n\n%s\n\n%s  %s\n\ny/n to confirm, esc to cancel",
		title, m.Message,
		yesStyle.Render("Yes"), noStyle.Render("No"))

	return style.Render(content)
}
