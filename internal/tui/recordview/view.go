package recordview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/model"
	"github.com/altinukshini/hepc-tui/internal/ui"
)

// Model shows every attribute of one record.
type Model struct {
	rec      *model.Record
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func New() Model {
	return Model{}
}

func (m *Model) SetRecord(rec *model.Record) {
	m.rec = rec
	if m.ready {
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
	}
}

func (m Model) Record() *model.Record {
	return m.rec
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
		headerH := 1
		if !m.ready {
			m.viewport = viewport.New(wsm.Width, wsm.Height-headerH)
			m.ready = true
			if m.rec != nil {
				m.viewport.SetContent(m.render())
			}
		} else {
			m.viewport.Width = wsm.Width
			m.viewport.Height = wsm.Height - headerH
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.rec == nil {
		return "\n  Select a database and press 'i' to view details"
	}

	header := fmt.Sprintf(" %s  %3.0f%%", m.rec.NWO(), m.viewport.ScrollPercent()*100)
	hints := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(
		"  j/k:scroll  y:copy path  esc:back")
	headerLine := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(header) + hints

	return headerLine + "\n" + m.viewport.View()
}

func (m Model) render() string {
	r := m.rec
	bold := lipgloss.NewStyle().Bold(true)
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(26)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))

	var b strings.Builder
	b.WriteString("\n  " + bold.Render(r.NWO()) + "\n\n")
	for _, col := range model.Columns {
		v := r.Value(col)
		if col == model.ColDBFileSize {
			v = fmt.Sprintf("%s  (%.1f MB)", v, r.SizeMB())
		}
		if v == "" {
			v = ui.StyleMuted.Render("-")
		} else {
			v = value.Render(v)
		}
		b.WriteString("  " + label.Render(col.Label()) + v + "\n")
	}
	return b.String()
}
