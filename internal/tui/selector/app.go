// Package selector is the interactive database selector: a filter panel over
// the catalog's attributes and the matching databases beside it.
package selector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/catalog"
	"github.com/altinukshini/hepc-tui/internal/export"
	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/logging"
	"github.com/altinukshini/hepc-tui/internal/model"
	"github.com/altinukshini/hepc-tui/internal/tui"
	"github.com/altinukshini/hepc-tui/internal/tui/dialog"
	"github.com/altinukshini/hepc-tui/internal/tui/filterpanel"
	"github.com/altinukshini/hepc-tui/internal/tui/recordview"
	"github.com/altinukshini/hepc-tui/internal/tui/results"
	"github.com/altinukshini/hepc-tui/internal/ui"
)

type Pane int

const (
	PaneFilters Pane = iota
	PaneResults
)

// Querier runs one catalog query. *catalog.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, st filter.State) (*catalog.ResultSet, error)
}

type Options struct {
	Store Querier
	Index catalog.Index
	// Source is shown in the header, usually the catalog path.
	Source string
	// GhMrvaOutput, when set, receives every gh-mrva export as a file.
	GhMrvaOutput string
	// Copy writes to the clipboard. Defaults to the system clipboard.
	Copy func(string) error
}

type App struct {
	store        Querier
	source       string
	ghMrvaOutput string
	copy         func(string) error

	filters    filterpanel.Model
	results    results.Model
	recordView recordview.Model
	dialog     dialog.Model

	// lastKey is the filter key of the result set on screen.
	lastKey string
	total   int

	focusedPane Pane
	width       int
	height      int
	status      string
	showHelp    bool
	showRecord  bool
}

// New builds the selector and runs the unconstrained query so the first
// frame already lists every database.
func New(opts Options) App {
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	a := App{
		store:        opts.Store,
		source:       opts.Source,
		ghMrvaOutput: opts.GhMrvaOutput,
		copy:         copyFn,
		filters:      filterpanel.New(opts.Index),
		results:      results.New(),
		recordView:   recordview.New(),
		focusedPane:  PaneFilters,
		total:        -1,
	}
	a.requery()
	if rs := a.results.Results(); rs != nil {
		a.total = rs.Len()
	}
	return a
}

func (a App) Init() tea.Cmd { return nil }

// requery replaces the result set when the filter state changed since the
// last successful query. A failed query keeps the current results.
func (a *App) requery() tea.Cmd {
	st := a.filters.State()
	if a.results.Results() != nil && st.Key() == a.lastKey {
		return nil
	}
	rs, err := a.store.Query(context.Background(), st)
	if err != nil {
		logging.Errorf("selector: query [%s]: %v", st.Summary(), err)
		a.status = "Query failed"
		a.dialog = dialog.Notice(dialog.KindError, "Query Error", fmt.Sprintf("Database query failed:\n%v", err))
		return nil
	}
	a.lastKey = st.Key()
	if rs.Len() == 0 {
		a.status = "No matching databases found."
	} else {
		a.status = fmt.Sprintf("Found %d matching databases", rs.Len())
	}
	return a.results.SetResults(rs)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
		a.propagateSize()
		return &a, nil
	}
	if _, ok := msg.(dialog.ClosedMsg); ok {
		return &a, nil
	}
	if a.dialog.IsActive() {
		var cmd tea.Cmd
		a.dialog, cmd = a.dialog.Update(msg)
		return &a, cmd
	}

	switch msg := msg.(type) {
	case ui.StatusMsg:
		a.status = msg.Text
		return &a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	if a.focusedPane == PaneResults {
		a.results, cmd = a.results.Update(msg)
	}
	return &a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Inline editors get every key.
	if a.filters.IsEditing() {
		var cmd tea.Cmd
		a.filters, cmd = a.filters.Update(msg)
		return &a, tea.Batch(cmd, a.requery())
	}
	if a.focusedPane == PaneResults && a.results.IsFiltering() {
		var cmd tea.Cmd
		a.results, cmd = a.results.Update(msg)
		return &a, cmd
	}

	if a.showHelp {
		a.showHelp = false
		return &a, nil
	}

	if a.showRecord {
		switch msg.String() {
		case "esc", "i", "backspace":
			a.showRecord = false
		case "y":
			a.copyPath(a.recordView.Record())
		case "q", "ctrl+c":
			return &a, tea.Quit
		default:
			var cmd tea.Cmd
			a.recordView, cmd = a.recordView.Update(msg)
			return &a, cmd
		}
		return &a, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return &a, tea.Quit
	case "?":
		a.showHelp = true
		return &a, nil
	case "tab", "shift+tab":
		if a.focusedPane == PaneFilters {
			a.focusedPane = PaneResults
		} else {
			a.focusedPane = PaneFilters
		}
		return &a, nil
	case "c":
		a.filters.SetState(filter.State{})
		return &a, a.requery()
	case "e":
		return &a, a.export(export.FormatList)
	case "E":
		return &a, a.export(export.FormatGHMRVA)
	case "i":
		if rec := a.results.SelectedRecord(); rec != nil {
			a.recordView.SetRecord(rec)
			a.showRecord = true
		}
		return &a, nil
	}

	var cmd tea.Cmd
	switch a.focusedPane {
	case PaneFilters:
		a.filters, cmd = a.filters.Update(msg)
		return &a, tea.Batch(cmd, a.requery())
	case PaneResults:
		switch msg.String() {
		case "y", "enter":
			a.copyPath(a.results.SelectedRecord())
			return &a, nil
		}
		a.results, cmd = a.results.Update(msg)
	}
	return &a, cmd
}

func (a *App) copyPath(rec *model.Record) {
	if rec == nil || rec.ResultURL == "" {
		return
	}
	if err := a.copy(rec.ResultURL); err != nil {
		logging.Warnf("selector: clipboard: %v", err)
		a.status = "Clipboard unavailable: " + err.Error()
		return
	}
	a.status = "Copied to clipboard: " + rec.ResultURL
}

// export renders the current result set in format f, copies it to the
// clipboard and shows it. gh-mrva exports also go to the output file when
// one was configured.
func (a *App) export(f export.Format) tea.Cmd {
	rs := a.results.Results()
	var records []model.Record
	if rs != nil {
		records = rs.Records
	}
	doc, err := export.Render(f, records)
	if errors.Is(err, export.ErrEmptyResultSet) {
		a.dialog = dialog.Notice(dialog.KindWarning, "Nothing to export",
			"No databases match the current filters.\nRefine the filters before exporting.")
		return nil
	}
	if err != nil {
		logging.Errorf("selector: export %s: %v", f, err)
		a.dialog = dialog.Notice(dialog.KindError, "Export failed", err.Error())
		return nil
	}

	var notes []string
	if err := a.copy(string(doc)); err != nil {
		logging.Warnf("selector: clipboard: %v", err)
		notes = append(notes, "Clipboard unavailable: "+err.Error())
	} else {
		notes = append(notes, "Copied to clipboard.")
	}
	if f == export.FormatGHMRVA && a.ghMrvaOutput != "" {
		if err := os.WriteFile(a.ghMrvaOutput, append(doc, '\n'), 0o644); err != nil {
			logging.Errorf("selector: write %s: %v", a.ghMrvaOutput, err)
			a.dialog = dialog.Notice(dialog.KindError, "Export failed",
				fmt.Sprintf("Could not write %s:\n%v", a.ghMrvaOutput, err))
			return nil
		}
		notes = append(notes, "Written to "+a.ghMrvaOutput)
	}

	repos := len(export.Repositories(records))
	logging.Infof("selector: exported %d repositories as %s [%s]", repos, f.Name(), rs.Filter.Summary())
	a.status = fmt.Sprintf("Exported %d repositories (%s)", repos, f.Name())
	d := dialog.Notice(dialog.KindInfo, "Export: "+f.Name(), string(doc)+"\n\n"+strings.Join(notes, "\n"))
	if a.width > 0 {
		d.Width = a.width * 2 / 3
	}
	a.dialog = d
	return nil
}

func (a *App) propagateSize() {
	contentH := tui.ContentHeight(a.height)

	leftW := a.width * 40 / 100
	rightW := a.width - leftW - 4
	if rightW < 1 {
		rightW = 1
	}

	a.filters, _ = a.filters.Update(tea.WindowSizeMsg{Width: leftW, Height: contentH})
	a.results, _ = a.results.Update(tea.WindowSizeMsg{Width: rightW, Height: contentH})
	a.recordView, _ = a.recordView.Update(tea.WindowSizeMsg{Width: a.width - 4, Height: contentH})
}

// --- View ---

func (a App) View() string {
	count := -1
	if rs := a.results.Results(); rs != nil {
		count = rs.Len()
	}
	header := tui.RenderHeader("hepc-tui select", a.source, count, a.total, a.width)
	title := a.renderFilterSummary()

	contentH := tui.ContentHeight(a.height)
	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.dialog.IsActive():
		content = lipgloss.Place(a.width, contentH+2, lipgloss.Center, lipgloss.Center, a.dialog.View())
	case a.showRecord:
		content = ui.StylePaneFocused.Width(a.width - 2).Height(contentH).Render(a.recordView.View())
	default:
		content = a.renderPanes()
	}

	statusBar := tui.RenderStatusBar(a.status, a.contextHints(), a.width)
	content = tui.Clamp(content, a.height-3)
	return header + "\n" + title + "\n" + content + "\n" + statusBar
}

func (a App) renderFilterSummary() string {
	summary := a.filters.State().Summary()
	if summary == "" {
		summary = "no filters"
	}
	return lipgloss.NewStyle().Padding(0, 2).Foreground(ui.ColorMuted).Render("Filters: " + summary)
}

func (a App) renderPanes() string {
	contentH := tui.ContentHeight(a.height)
	leftW := a.width * 40 / 100
	rightW := a.width - leftW - 4
	if rightW < 1 {
		rightW = 1
	}

	leftStyle := ui.StylePane.Width(leftW).Height(contentH)
	rightStyle := ui.StylePane.Width(rightW).Height(contentH)
	if a.focusedPane == PaneFilters {
		leftStyle = ui.StylePaneFocused.Width(leftW).Height(contentH)
	} else {
		rightStyle = ui.StylePaneFocused.Width(rightW).Height(contentH)
	}

	left := leftStyle.Render(a.filters.View())
	right := rightStyle.Render(a.results.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (a App) contextHints() string {
	switch {
	case a.showHelp:
		return "any key:close"
	case a.dialog.IsActive():
		return "any key:close"
	case a.showRecord:
		return "j/k:scroll  y:copy path  esc:back"
	case a.filters.IsEditing():
		return "type regex  enter:apply  esc:revert"
	case a.focusedPane == PaneFilters:
		return "j/k:attribute  h/l:value  /:regex  x:unset  c:clear  e/E:export  tab:results  ?:help"
	case a.results.IsFiltering():
		return "enter:apply  esc:cancel"
	}
	return "y:copy path  i:details  f:find  e/E:export  tab:filters  ?:help"
}

func (a App) renderHelp() string {
	contentH := tui.ContentHeight(a.height)

	bold := lipgloss.NewStyle().Bold(true)
	key := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	row := func(k, d string) string {
		return "  " + key.Render(k) + desc.Render(d) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + bold.Render("  Navigation") + "\n\n")
	b.WriteString(row("tab", "Switch between filters and results"))
	b.WriteString(row("j / k", "Move down / up"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + bold.Render("  Filters") + "\n\n")
	b.WriteString(row("l / enter", "Next exact value"))
	b.WriteString(row("h", "Previous exact value"))
	b.WriteString(row("/", "Edit regex (case-insensitive)"))
	b.WriteString(row("x / bksp", "Unset attribute"))
	b.WriteString(row("c", "Clear all filters"))

	b.WriteString("\n" + bold.Render("  Results") + "\n\n")
	b.WriteString(row("y / enter", "Copy result path to clipboard"))
	b.WriteString(row("i", "Database details"))
	b.WriteString(row("f", "Find in results"))

	b.WriteString("\n" + bold.Render("  Export") + "\n\n")
	b.WriteString(row("e", "Export "+export.ListName+" list"))
	b.WriteString(row("E", "Export gh-mrva selection"))

	b.WriteString("\n" + lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  Press any key to close") + "\n")

	style := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)
	return style.Render(b.String())
}
