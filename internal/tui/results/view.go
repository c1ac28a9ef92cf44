package results

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/catalog"
	"github.com/altinukshini/hepc-tui/internal/model"
	"github.com/altinukshini/hepc-tui/internal/ui"
)

// --- Custom delegate (avoids DefaultDelegate ANSI corruption during filtering) ---

type recordDelegate struct{}

func (d recordDelegate) Height() int                              { return 2 }
func (d recordDelegate) Spacing() int                             { return 0 }
func (d recordDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d recordDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(recordItem)
	if !ok {
		return
	}
	r := ri.rec

	owner := lipgloss.NewStyle().Width(20).Render(truncate(r.GitOwner, 19))
	repo := lipgloss.NewStyle().Width(24).Render(truncate(r.GitRepo, 23))
	lang := ui.StyleInfo.Render(lipgloss.NewStyle().Width(12).Render(truncate(r.PrimaryLanguage, 11)))
	ver := ui.StyleMuted.Render(lipgloss.NewStyle().Width(10).Render(truncate(r.ToolVersion, 9)))
	size := ui.StyleWarning.Render(fmt.Sprintf("%8.1f MB", r.SizeMB()))

	line1 := fmt.Sprintf(" %s%s%s%s%s", owner, repo, lang, ver, size)
	line2 := "   " + ui.StyleMuted.Render(r.ResultURL)

	if index == m.Index() {
		hl := lipgloss.NewStyle().Background(ui.ColorHighlight).Width(m.Width())
		line1 = hl.Render(line1)
		line2 = hl.Render(line2)
	}

	fmt.Fprintf(w, "%s\n%s", line1, line2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// --- Item ---

type recordItem struct {
	rec model.Record
}

func (r recordItem) FilterValue() string {
	return r.rec.NWO() + " " + r.rec.PrimaryLanguage + " " + r.rec.ToolVersion
}

// ColumnHeader is the title row matching the delegate's layout.
func ColumnHeader() string {
	return ui.StyleMuted.Bold(true).Render(fmt.Sprintf(" %-20s%-24s%-12s%-10s%11s",
		"Owner", "Repo", "Language", "Tool Ver", "Size"))
}

// --- Model ---

type Model struct {
	list   list.Model
	rs     *catalog.ResultSet
	width  int
	height int
}

func New() Model {
	l := list.New(nil, recordDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowFilter(true)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("database", "databases")
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "prev page"))
	l.DisableQuitKeybindings()

	return Model{list: l}
}

// SetResults replaces the displayed records with rs and moves the cursor to
// the top.
func (m *Model) SetResults(rs *catalog.ResultSet) tea.Cmd {
	m.rs = rs
	var items []list.Item
	if rs != nil {
		items = make([]list.Item, len(rs.Records))
		for i, r := range rs.Records {
			items[i] = recordItem{rec: r}
		}
	}
	m.list.ResetFilter()
	cmd := m.list.SetItems(items)
	m.list.Select(0)
	return cmd
}

// Results returns the result set on display.
func (m Model) Results() *catalog.ResultSet { return m.rs }

func (m Model) SelectedRecord() *model.Record {
	if item, ok := m.list.SelectedItem().(recordItem); ok {
		return &item.rec
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The list's updateKeybindings can disable the filter binding (e.g.
		// after SetSize with zero items); re-enable it so 'f' always works.
		if msg.String() == "f" && !m.IsFiltering() && len(m.list.Items()) > 0 {
			m.list.KeyMap.Filter.SetEnabled(true)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.rs == nil {
		return "\n  Loading databases..."
	}
	if m.rs.Len() == 0 {
		return "\n  " + ui.StyleMuted.Render("No matching databases found.")
	}
	return ColumnHeader() + "\n" + m.list.View()
}

func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) HasActiveFilter() bool {
	return m.list.FilterState() != list.Unfiltered
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{
		ui.Keys.Copy,
		ui.Keys.Info,
		ui.Keys.Filter,
		ui.Keys.ExportList,
		ui.Keys.ExportMRVA,
	}
}
