package outputview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/search"
	"github.com/altinukshini/hepc-tui/internal/ui"
	"github.com/altinukshini/hepc-tui/internal/workflow"
)

type Model struct {
	viewport viewport.Model
	lines    []workflow.Line
	title    string
	width    int
	height   int
	ready    bool

	// In-output search
	searchInput textinput.Model
	searching   bool
	searchQuery string
	searchRegex bool
	searchErr   error
	matchLines  []int // 0-based line indices of matches
	matchIndex  int   // current match position
	engine      *search.Engine
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search output..."
	ti.CharLimit = 256
	return Model{searchInput: ti, title: "Output", engine: search.New()}
}

// Append adds lines and keeps following the end if the view was already
// there.
func (m *Model) Append(lines []workflow.Line) {
	if len(lines) == 0 {
		return
	}
	for _, l := range lines {
		for _, part := range strings.Split(l.Text, "\n") {
			m.lines = append(m.lines, workflow.Line{Kind: l.Kind, Text: part})
		}
	}
	m.refresh()
}

// SetContent replaces the output with plain text, e.g. a stored transcript.
func (m *Model) SetContent(title, content string) {
	m.title = title
	m.lines = nil
	for _, part := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		kind := workflow.LineNormal
		switch {
		case strings.HasPrefix(part, "$ "), strings.HasPrefix(part, "=== Step "):
			kind = workflow.LineCommand
		case strings.HasPrefix(part, "Error: "), strings.Contains(part, "failed with exit code"):
			kind = workflow.LineError
		}
		m.lines = append(m.lines, workflow.Line{Kind: kind, Text: part})
	}
	m.resetSearch()
	if m.ready {
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
	}
}

// SetTitle changes the header label.
func (m *Model) SetTitle(title string) { m.title = title }

// Clear drops all output.
func (m *Model) Clear() {
	m.lines = nil
	m.resetSearch()
	if m.ready {
		m.viewport.SetContent("")
		m.viewport.GotoTop()
	}
}

// Text returns the raw output without styling.
func (m Model) Text() string {
	parts := make([]string, len(m.lines))
	for i, l := range m.lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, "\n")
}

func (m *Model) resetSearch() {
	m.searchQuery = ""
	m.searchErr = nil
	m.matchLines = nil
	m.matchIndex = 0
}

// refresh re-renders while preserving the scroll position; a view that was
// at the bottom follows new output.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	wasAtBottom := m.viewport.AtBottom()
	prevOffset := m.viewport.YOffset

	if m.searchQuery != "" {
		m.findMatches()
	}
	m.viewport.SetContent(m.render())

	if wasAtBottom {
		m.viewport.GotoBottom()
	} else {
		m.viewport.SetYOffset(prevOffset)
	}
}

func (m Model) IsSearching() bool {
	return m.searching
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				if query := m.searchInput.Value(); query != "" {
					m.searchQuery = query
					m.findMatches()
					m.viewport.SetContent(m.render())
					if len(m.matchLines) > 0 {
						m.matchIndex = 0
						m.viewport.SetYOffset(m.matchLines[0])
					}
				}
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			case "ctrl+r":
				m.searchRegex = !m.searchRegex
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "/":
			m.searching = true
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			return m, textinput.Blink
		case "n":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
				m.viewport.SetContent(m.render())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "N":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
				m.viewport.SetContent(m.render())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH)
			m.ready = true
			m.viewport.SetContent(m.render())
			m.viewport.GotoBottom()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) findMatches() {
	texts := make([]string, len(m.lines))
	for i, l := range m.lines {
		texts[i] = l.Text
	}
	m.matchLines, m.searchErr = m.engine.Lines(texts, search.Query{
		Pattern: m.searchQuery,
		IsRegex: m.searchRegex,
	})
	if m.matchIndex >= len(m.matchLines) {
		m.matchIndex = 0
	}
}

func (m Model) render() string {
	matchSet := make(map[int]bool, len(m.matchLines))
	for _, idx := range m.matchLines {
		matchSet[idx] = true
	}
	current := -1
	if m.matchIndex >= 0 && m.matchIndex < len(m.matchLines) {
		current = m.matchLines[m.matchIndex]
	}
	highlight := lipgloss.NewStyle().Background(lipgloss.Color("#374151"))
	currentStyle := lipgloss.NewStyle().Background(lipgloss.Color("#92400E")).Bold(true)

	out := make([]string, len(m.lines))
	for i, l := range m.lines {
		switch {
		case i == current:
			out[i] = currentStyle.Render(l.Text)
		case matchSet[i]:
			out[i] = highlight.Render(l.Text)
		default:
			out[i] = renderLine(l)
		}
	}
	return strings.Join(out, "\n")
}

func renderLine(l workflow.Line) string {
	switch l.Kind {
	case workflow.LineCommand:
		return ui.StyleCommand.Render(l.Text)
	case workflow.LineError:
		return ui.StyleFailure.Render(l.Text)
	}
	spans := workflow.PathSpans(l.Text)
	if len(spans) == 0 {
		return l.Text
	}
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(l.Text[prev:s[0]])
		b.WriteString(ui.StylePath.Render(l.Text[s[0]:s[1]]))
		prev = s[1]
	}
	b.WriteString(l.Text[prev:])
	return b.String()
}

func (m Model) View() string {
	header := fmt.Sprintf(" %s  %3.f%%", m.title, m.viewport.ScrollPercent()*100)
	if m.searchErr != nil {
		header += "  [bad pattern]"
	} else if m.searchQuery != "" && len(m.matchLines) > 0 {
		header += fmt.Sprintf("  [%d/%d matches]", m.matchIndex+1, len(m.matchLines))
	} else if m.searchQuery != "" {
		header += "  [no matches]"
	}
	headerLine := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(header)

	second := ""
	if m.searching {
		prompt := "/"
		if m.searchRegex {
			prompt = "regex /"
		}
		second = "  " + prompt + m.searchInput.View() + ui.StyleMuted.Render("  ctrl+r: toggle regex")
	}
	if len(m.lines) == 0 {
		return headerLine + "\n" + second + "\n  " + ui.StyleMuted.Render("Run a step to see its output here")
	}
	return headerLine + "\n" + second + "\n" + m.viewport.View()
}
