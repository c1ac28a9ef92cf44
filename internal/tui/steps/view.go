package steps

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/hepc-tui/internal/ui"
	"github.com/altinukshini/hepc-tui/internal/workflow"
)

type stepItem struct {
	step    workflow.Step
	status  workflow.Status
	elapsed time.Duration
}

func (s stepItem) Title() string {
	st := s.status.String()
	title := fmt.Sprintf("%s %s", ui.StatusIcon(st), ui.StepStyle(st).Render(s.step.Label()))
	if s.step.Interactive {
		title += ui.StyleMuted.Render("  (interactive)")
	}
	if s.elapsed > 0 {
		title += ui.StyleMuted.Render("  " + s.elapsed.Round(100*time.Millisecond).String())
	}
	return title
}

func (s stepItem) Description() string { return "" }

func (s stepItem) FilterValue() string { return s.step.Title }

type Model struct {
	list   list.Model
	width  int
	height int
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	delegate.ShowDescription = false

	items := make([]list.Item, len(workflow.Steps))
	for i, s := range workflow.Steps {
		items[i] = stepItem{step: s}
	}

	l := list.New(items, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{list: l}
}

// Selected returns the highlighted step.
func (m Model) Selected() workflow.Step {
	if item, ok := m.list.SelectedItem().(stepItem); ok {
		return item.step
	}
	return workflow.Steps[0]
}

// Select moves the cursor to step num.
func (m *Model) Select(num int) {
	for i, s := range workflow.Steps {
		if s.Num == num {
			m.list.Select(i)
			return
		}
	}
}

// Status returns the last outcome recorded for step num.
func (m Model) Status(num int) workflow.Status {
	for _, item := range m.list.Items() {
		if si, ok := item.(stepItem); ok && si.step.Num == num {
			return si.status
		}
	}
	return workflow.StatusPending
}

// SetStatus records an outcome for step num.
func (m *Model) SetStatus(num int, status workflow.Status, elapsed time.Duration) tea.Cmd {
	for i, item := range m.list.Items() {
		if si, ok := item.(stepItem); ok && si.step.Num == num {
			si.status = status
			si.elapsed = elapsed
			return m.list.SetItem(i, si)
		}
	}
	return nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '7' {
			m.Select(int(s[0] - '0'))
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{
		ui.Keys.Run,
		key.NewBinding(key.WithKeys("1"), key.WithHelp("1-7", "jump to step")),
	}
}
