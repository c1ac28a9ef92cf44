package transcripts

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/hepc-tui/internal/transcript"
	"github.com/altinukshini/hepc-tui/internal/ui"
)

type entryItem struct {
	entry transcript.Entry
}

func (e entryItem) Title() string {
	return fmt.Sprintf("%s  %s", e.entry.Session, ui.StyleWarning.Render(formatSize(e.entry.Size)))
}

func (e entryItem) Description() string {
	parts := []string{}
	if len(e.entry.Steps) > 0 {
		nums := make([]string, len(e.entry.Steps))
		for i, n := range e.entry.Steps {
			nums[i] = fmt.Sprint(n)
		}
		parts = append(parts, ui.StyleInfo.Render("steps "+strings.Join(nums, ",")))
	}
	if e.entry.QueryPath != "" {
		parts = append(parts, ui.StylePath.Render(filepath.Base(e.entry.QueryPath)))
	}
	if !e.entry.LastModified.IsZero() {
		parts = append(parts, ui.StyleMuted.Render("updated "+relativeTime(e.entry.LastModified)))
	}
	return strings.Join(parts, "  ")
}

func (e entryItem) FilterValue() string {
	return e.entry.Session + " " + e.entry.QueryPath
}

// SortMode determines how sessions are ordered.
type SortMode int

const (
	SortByUpdated SortMode = iota
	SortBySize
)

func (s SortMode) String() string {
	if s == SortBySize {
		return "size"
	}
	return "updated"
}

// Model lists stored session transcripts.
type Model struct {
	list      list.Model
	entries   []transcript.Entry
	sortMode  SortMode
	totalSize int64
	width     int
	height    int
	loading   bool
	err       error
}

func New() Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.DisableQuitKeybindings()

	return Model{list: l, loading: true}
}

// Load reads the store's sessions off the UI goroutine.
func Load(store *transcript.Store) tea.Cmd {
	return func() tea.Msg {
		entries, err := store.ListEntries()
		if err != nil {
			return ui.TranscriptsLoadedMsg{Err: err}
		}
		var total int64
		for _, e := range entries {
			total += e.Size
		}
		return ui.TranscriptsLoadedMsg{Entries: entries, TotalSize: total}
	}
}

// Open reads every step of one session.
func Open(store *transcript.Store, session string) tea.Cmd {
	return func() tea.Msg {
		content, err := store.ReadAll(session)
		return ui.TranscriptOpenedMsg{Session: session, Content: content, Err: err}
	}
}

// Delete removes one session, or every session when session is empty.
func Delete(store *transcript.Store, session string, all []transcript.Entry) tea.Cmd {
	return func() tea.Msg {
		if session != "" {
			return ui.TranscriptDeletedMsg{Session: session, Err: store.Delete(session)}
		}
		var errs []error
		for _, e := range all {
			if err := store.Delete(e.Session); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return ui.TranscriptDeletedMsg{Err: errs[0]}
		}
		return ui.TranscriptDeletedMsg{}
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.TranscriptsLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.entries = msg.Entries
		m.totalSize = msg.TotalSize
		m.sortEntries()
		cmd := m.list.SetItems(m.buildItems())
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one line for the header.
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		if msg.String() == "s" && !m.IsFiltering() {
			m.sortMode = (m.sortMode + 1) % 2
			m.sortEntries()
			cmd := m.list.SetItems(m.buildItems())
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading transcripts..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v", m.err)
	}
	if len(m.entries) == 0 {
		return "\n  No transcripts yet.\n\n  Output of each workflow step is saved here per session."
	}
	header := fmt.Sprintf("  %d sessions | Total: %s | Sort: %s | enter: open  d: delete  X: delete all",
		len(m.entries), formatSize(m.totalSize), m.sortMode)
	return ui.StyleMuted.Render(header) + "\n" + m.list.View()
}

// SelectedEntry returns the highlighted session, or nil.
func (m Model) SelectedEntry() *transcript.Entry {
	if item, ok := m.list.SelectedItem().(entryItem); ok {
		return &item.entry
	}
	return nil
}

// Entries returns every listed session.
func (m Model) Entries() []transcript.Entry {
	return m.entries
}

func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		ui.Keys.Delete,
		ui.Keys.ClearCache,
	}
}

func (m *Model) sortEntries() {
	switch m.sortMode {
	case SortBySize:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].Size > m.entries[j].Size
		})
	default:
		sort.SliceStable(m.entries, func(i, j int) bool {
			return m.entries[i].LastModified.After(m.entries[j].LastModified)
		})
	}
}

func (m Model) buildItems() []list.Item {
	items := make([]list.Item, len(m.entries))
	for i, e := range m.entries {
		items[i] = entryItem{entry: e}
	}
	return items
}

func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
