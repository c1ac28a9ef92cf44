// Package driver is the interactive MRVA workflow: editable settings, the
// seven steps and their streamed output.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/hepc-tui/internal/config"
	"github.com/altinukshini/hepc-tui/internal/logging"
	"github.com/altinukshini/hepc-tui/internal/transcript"
	"github.com/altinukshini/hepc-tui/internal/tui"
	"github.com/altinukshini/hepc-tui/internal/tui/dialog"
	"github.com/altinukshini/hepc-tui/internal/tui/outputview"
	"github.com/altinukshini/hepc-tui/internal/tui/steps"
	"github.com/altinukshini/hepc-tui/internal/tui/transcripts"
	"github.com/altinukshini/hepc-tui/internal/ui"
	"github.com/altinukshini/hepc-tui/internal/workflow"
)

// drainInterval is how often queued output reaches the screen.
const drainInterval = 100 * time.Millisecond

type Pane int

const (
	PaneSettings Pane = iota
	PaneSteps
	PaneOutput
)

type Options struct {
	Settings workflow.Settings
	// Transcripts stores each step's output. Optional.
	Transcripts *transcript.Store
	// Executable starts the database selector in step 3.
	Executable string
	// Shell runs step commands. Defaults to "sh".
	Shell string
}

type App struct {
	queue      *workflow.Queue
	runner     *workflow.Runner
	store      *transcript.Store
	executable string

	ctx    context.Context
	cancel context.CancelFunc

	settings        settingsForm
	stepsView       steps.Model
	output          outputview.Model
	transcriptsView transcripts.Model
	picker          filepicker.Model
	dialog          dialog.Model

	// running is the step in progress, 0 when idle.
	running int
	started time.Time

	focusedPane     Pane
	width           int
	height          int
	status          string
	showHelp        bool
	picking         bool
	showTranscripts bool
}

func New(opts Options) App {
	q := workflow.NewQueue()
	r := workflow.NewRunner(q)
	if opts.Shell != "" {
		r.Shell = opts.Shell
	}
	ctx, cancel := context.WithCancel(context.Background())
	return App{
		queue:           q,
		runner:          r,
		store:           opts.Transcripts,
		executable:      opts.Executable,
		ctx:             ctx,
		cancel:          cancel,
		settings:        newSettingsForm(opts.Settings),
		stepsView:       steps.New(),
		output:          outputview.New(),
		transcriptsView: transcripts.New(),
		focusedPane:     PaneSteps,
		status:          "Ready",
	}
}

// Settings returns the current, possibly edited, settings.
func (a App) Settings() workflow.Settings { return a.settings.values }

func (a App) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(drainInterval, func(time.Time) tea.Msg { return ui.OutputTickMsg{} })
}

// --- Step execution ---

func (a *App) runStep(num int) tea.Cmd {
	if a.running != 0 {
		a.status = fmt.Sprintf("Step %d is still running", a.running)
		return nil
	}
	s := a.settings.values
	switch num {
	case workflow.StepSelectDBs:
		return a.launchSelector(s)
	case workflow.StepBrowseQueries:
		return a.browseQueries(s)
	}

	cmd, err := workflow.Build(num, s)
	if err != nil {
		a.queue.Pushf(workflow.LineError, workflow.ErrorLine(err))
		a.status = workflow.ErrorLine(err)
		logging.Warnf("workflow: step %d: %v", num, err)
		return a.stepsView.SetStatus(num, workflow.StatusFailed, 0)
	}

	a.running = num
	a.started = time.Now()
	a.status = fmt.Sprintf("Running step %d...", num)
	return tea.Batch(
		a.stepsView.SetStatus(num, workflow.StatusRunning, 0),
		execute(a.ctx, a.runner, a.store, s, cmd),
	)
}

// execute runs cmd off the UI goroutine, teeing output into the session's
// transcript when a store is configured.
func execute(ctx context.Context, r *workflow.Runner, store *transcript.Store, s workflow.Settings, cmd workflow.Command) tea.Cmd {
	return func() tea.Msg {
		var tee io.Writer
		if store != nil {
			if err := store.WriteMeta(transcript.Meta{Session: s.Session, Container: s.Container, QueryPath: s.QueryPath}); err != nil {
				logging.Warnf("workflow: transcript meta: %v", err)
			}
			w, err := store.Append(s.Session, cmd.Step)
			if err != nil {
				logging.Warnf("workflow: transcript: %v", err)
			} else {
				defer w.Close()
				tee = w
			}
		}
		return ui.StepDoneMsg{Result: r.Run(ctx, cmd, tee)}
	}
}

// launchSelector hands the terminal to the database selector until it exits.
func (a *App) launchSelector(s workflow.Settings) tea.Cmd {
	exe := a.executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			a.queue.Pushf(workflow.LineError, "Error: "+err.Error())
			return a.stepsView.SetStatus(workflow.StepSelectDBs, workflow.StatusFailed, 0)
		}
	}
	args := workflow.SelectorArgs(s)
	a.runner.Echo(exe + " " + strings.Join(args, " "))
	a.running = workflow.StepSelectDBs
	a.started = time.Now()
	a.status = "Database selector running; press E there to save the selection"
	logging.Infof("workflow: launching selector %s %v", exe, args)

	c := exec.Command(exe, args...)
	return tea.Batch(
		a.stepsView.SetStatus(workflow.StepSelectDBs, workflow.StatusRunning, 0),
		tea.ExecProcess(c, func(err error) tea.Msg { return ui.SelectorExitedMsg{Err: err} }),
	)
}

func (a *App) selectorExited(err error) tea.Cmd {
	elapsed := time.Since(a.started)
	a.running = 0
	step := workflow.StepSelectDBs

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		a.queue.Pushf(workflow.LineCommand, fmt.Sprintf("\n[Step %d completed successfully]", step))
		sel := config.Resolve(a.settings.values.SelectionJSON)
		if _, statErr := os.Stat(sel); statErr == nil {
			a.queue.Pushf(workflow.LineNormal, "Selection file: "+sel)
		} else {
			a.queue.Pushf(workflow.LineError, "No selection file at "+sel+"; export with E in the selector")
		}
		a.status = "Database selector closed"
		return a.stepsView.SetStatus(step, workflow.StatusOK, elapsed)
	case errors.As(err, &exitErr):
		a.queue.Pushf(workflow.LineError, fmt.Sprintf("\n[Step %d failed with exit code %d]", step, exitErr.ExitCode()))
	default:
		a.queue.Pushf(workflow.LineError, "\nError: "+err.Error())
	}
	logging.Warnf("workflow: selector: %v", err)
	a.status = "Database selector failed"
	return a.stepsView.SetStatus(step, workflow.StatusFailed, elapsed)
}

// browseQueries installs the sample queries and opens a picker on the
// gh-mrva directory.
func (a *App) browseQueries(s workflow.Settings) tea.Cmd {
	dir := config.Resolve(s.GhMrvaDir)
	created, err := workflow.EnsureSampleQueries(dir)
	for _, path := range created {
		a.queue.Pushf(workflow.LineNormal, "Created sample query: "+path)
	}
	if err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			a.queue.Pushf(workflow.LineError, "Error: "+line)
		}
		if len(created) == 0 {
			if _, statErr := os.Stat(dir); statErr != nil {
				return a.stepsView.SetStatus(workflow.StepBrowseQueries, workflow.StatusFailed, 0)
			}
		}
	}

	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = []string{".ql"}
	fp.ShowHidden = false
	a.picker = fp
	a.picker, _ = a.picker.Update(tea.WindowSizeMsg{Width: a.width - 4, Height: tui.ContentHeight(a.height)})
	a.picking = true
	a.status = "Select a .ql query file (esc to cancel)"
	return a.picker.Init()
}

// selectQuery records path as the query for step 5.
func (a *App) selectQuery(path string) tea.Cmd {
	a.picking = false
	a.settings.values.QueryPath = path
	a.queue.Pushf(workflow.LineNormal, "Selected query: "+path)
	a.status = "Query selected"
	logging.Infof("workflow: query %s", path)
	return a.stepsView.SetStatus(workflow.StepBrowseQueries, workflow.StatusOK, 0)
}

// --- Update ---

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case ui.OutputTickMsg:
		a.output.Append(a.queue.Drain())
		return &a, tick()

	case ui.StepDoneMsg:
		res := msg.Result
		a.running = 0
		st := workflow.StatusOK
		if !res.OK() {
			st = workflow.StatusFailed
			a.status = fmt.Sprintf("Step %d failed", res.Step)
		} else {
			a.status = fmt.Sprintf("Step %d completed", res.Step)
		}
		a.output.Append(a.queue.Drain())
		return &a, a.stepsView.SetStatus(res.Step, st, res.Elapsed)

	case ui.SelectorExitedMsg:
		return &a, a.selectorExited(msg.Err)

	case ui.TranscriptsLoadedMsg:
		var cmd tea.Cmd
		a.transcriptsView, cmd = a.transcriptsView.Update(msg)
		return &a, cmd

	case ui.TranscriptOpenedMsg:
		if msg.Err != nil {
			a.dialog = dialog.Notice(dialog.KindError, "Transcript", msg.Err.Error())
			return &a, nil
		}
		a.output.SetContent("Transcript: "+msg.Session, msg.Content)
		a.showTranscripts = false
		a.focusedPane = PaneOutput
		a.status = "Viewing transcript " + msg.Session
		return &a, nil

	case ui.TranscriptDeletedMsg:
		if msg.Err != nil {
			a.dialog = dialog.Notice(dialog.KindError, "Delete failed", msg.Err.Error())
		} else if msg.Session != "" {
			a.status = "Deleted transcript " + msg.Session
		} else {
			a.status = "Deleted all transcripts"
		}
		return &a, transcripts.Load(a.store)

	case dialog.ResultMsg:
		if msg.Confirmed {
			switch msg.Action {
			case "quit":
				a.cancel()
				return &a, tea.Quit
			case "delete-transcript":
				cmds = append(cmds, transcripts.Delete(a.store, msg.Data.(string), nil))
			case "delete-all-transcripts":
				cmds = append(cmds, transcripts.Delete(a.store, "", a.transcriptsView.Entries()))
			}
		}
		return &a, tea.Batch(cmds...)

	case dialog.ClosedMsg:
		return &a, nil
	}

	if a.dialog.IsActive() {
		var cmd tea.Cmd
		a.dialog, cmd = a.dialog.Update(msg)
		return &a, cmd
	}

	if a.picking {
		return a.updatePicker(msg)
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return a.forward(msg)
	}
	return a.handleKey(keyMsg)
}

func (a App) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "q") {
		a.picking = false
		a.status = "Query selection cancelled"
		return &a, nil
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	if ok, path := a.picker.DidSelectFile(msg); ok {
		return &a, tea.Batch(cmd, a.selectQuery(path))
	}
	if ok, path := a.picker.DidSelectDisabledFile(msg); ok {
		a.status = path + " is not a .ql file"
	}
	return &a, cmd
}

// forward sends non-key messages to the view that owns them.
func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case a.showTranscripts:
		a.transcriptsView, cmd = a.transcriptsView.Update(msg)
	case a.focusedPane == PaneOutput:
		a.output, cmd = a.output.Update(msg)
	case a.focusedPane == PaneSettings:
		a.settings, cmd = a.settings.Update(msg)
	case a.focusedPane == PaneSteps:
		a.stepsView, cmd = a.stepsView.Update(msg)
	}
	return &a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text inputs get every key.
	if a.settings.IsEditing() {
		var cmd tea.Cmd
		a.settings, cmd = a.settings.Update(msg)
		return &a, cmd
	}
	if a.focusedPane == PaneOutput && a.output.IsSearching() {
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		return &a, cmd
	}
	if a.showTranscripts && a.transcriptsView.IsFiltering() {
		var cmd tea.Cmd
		a.transcriptsView, cmd = a.transcriptsView.Update(msg)
		return &a, cmd
	}

	if a.showHelp {
		a.showHelp = false
		return &a, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if a.running != 0 {
			a.dialog = dialog.New("Quit",
				fmt.Sprintf("Step %d is still running. Stop it and quit?", a.running), "quit", nil)
			return &a, nil
		}
		a.cancel()
		return &a, tea.Quit
	case "?":
		a.showHelp = true
		return &a, nil
	}

	if a.showTranscripts {
		return a.handleTranscriptKey(msg)
	}

	switch msg.String() {
	case "tab":
		a.focusedPane = (a.focusedPane + 1) % 3
		return &a, nil
	case "shift+tab":
		a.focusedPane = (a.focusedPane + 2) % 3
		return &a, nil
	case "t":
		if a.store == nil {
			a.status = "Transcripts are disabled"
			return &a, nil
		}
		a.showTranscripts = true
		return &a, transcripts.Load(a.store)
	}

	var cmd tea.Cmd
	switch a.focusedPane {
	case PaneSettings:
		a.settings, cmd = a.settings.Update(msg)
	case PaneSteps:
		switch msg.String() {
		case "enter", "r":
			return &a, a.runStep(a.stepsView.Selected().Num)
		}
		a.stepsView, cmd = a.stepsView.Update(msg)
	case PaneOutput:
		if msg.String() == "x" {
			a.output.Clear()
			a.output.SetTitle("Output")
			return &a, nil
		}
		a.output, cmd = a.output.Update(msg)
	}
	return &a, cmd
}

func (a App) handleTranscriptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "t":
		a.showTranscripts = false
		return &a, nil
	case "enter":
		if e := a.transcriptsView.SelectedEntry(); e != nil {
			return &a, transcripts.Open(a.store, e.Session)
		}
		return &a, nil
	case "d":
		if e := a.transcriptsView.SelectedEntry(); e != nil {
			a.dialog = dialog.New("Delete transcript",
				fmt.Sprintf("Delete the transcript of %s?", e.Session), "delete-transcript", e.Session)
		}
		return &a, nil
	case "X":
		if n := len(a.transcriptsView.Entries()); n > 0 {
			a.dialog = dialog.New("Delete all transcripts",
				fmt.Sprintf("Delete all %d stored transcripts?", n), "delete-all-transcripts", nil)
		}
		return &a, nil
	}
	var cmd tea.Cmd
	a.transcriptsView, cmd = a.transcriptsView.Update(msg)
	return &a, cmd
}

func (a *App) propagateSize() {
	contentH := tui.ContentHeight(a.height)
	leftW := a.width * 40 / 100
	rightW := a.width - leftW - 4
	if rightW < 1 {
		rightW = 1
	}
	stepsH := contentH - settingsHeight() - 2
	if stepsH < 1 {
		stepsH = 1
	}

	a.settings, _ = a.settings.Update(tea.WindowSizeMsg{Width: leftW, Height: settingsHeight()})
	a.stepsView, _ = a.stepsView.Update(tea.WindowSizeMsg{Width: leftW, Height: stepsH})
	a.output, _ = a.output.Update(tea.WindowSizeMsg{Width: rightW, Height: contentH})
	a.transcriptsView, _ = a.transcriptsView.Update(tea.WindowSizeMsg{Width: a.width - 4, Height: contentH})
	if a.picking {
		a.picker, _ = a.picker.Update(tea.WindowSizeMsg{Width: a.width - 4, Height: contentH})
	}
}

// settingsHeight is one row per field plus the query row.
func settingsHeight() int { return len(fields) + 1 }

// --- View ---

func (a App) View() string {
	header := tui.RenderHeader("hepc-tui workflow", a.settings.values.Session, -1, 0, a.width)
	title := a.renderTitle()

	contentH := tui.ContentHeight(a.height)
	full := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)
	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.dialog.IsActive():
		content = lipgloss.Place(a.width, contentH+2, lipgloss.Center, lipgloss.Center, a.dialog.View())
	case a.picking:
		content = full.Render(ui.StyleInfo.Render(" Query files in "+a.picker.CurrentDirectory) + "\n\n" + a.picker.View())
	case a.showTranscripts:
		content = full.Render(a.transcriptsView.View())
	default:
		content = a.renderPanes()
	}

	statusBar := tui.RenderStatusBar(a.status, a.contextHints(), a.width)
	content = tui.Clamp(content, a.height-3)
	return header + "\n" + title + "\n" + content + "\n" + statusBar
}

func (a App) renderTitle() string {
	legend := fmt.Sprintf("%s=ok %s=failed %s=running %s=pending",
		ui.StatusIcon("ok"), ui.StatusIcon("failed"), ui.StatusIcon("running"), ui.StatusIcon("pending"))
	return lipgloss.NewStyle().Padding(0, 2).Render(legend)
}

func (a App) renderPanes() string {
	contentH := tui.ContentHeight(a.height)
	leftW := a.width * 40 / 100
	rightW := a.width - leftW - 4
	if rightW < 1 {
		rightW = 1
	}
	stepsH := contentH - settingsHeight() - 2
	if stepsH < 1 {
		stepsH = 1
	}

	pane := func(p Pane, w, h int) lipgloss.Style {
		if a.focusedPane == p {
			return ui.StylePaneFocused.Width(w).Height(h)
		}
		return ui.StylePane.Width(w).Height(h)
	}

	settings := pane(PaneSettings, leftW, settingsHeight()).
		Render(a.settings.View(a.focusedPane == PaneSettings))
	stepList := pane(PaneSteps, leftW, stepsH).Render(a.stepsView.View())
	left := lipgloss.JoinVertical(lipgloss.Left, settings, stepList)
	right := pane(PaneOutput, rightW, contentH).Render(a.output.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (a App) contextHints() string {
	switch {
	case a.showHelp, a.dialog.IsActive() && a.dialog.Kind != dialog.KindConfirm:
		return "any key:close"
	case a.dialog.IsActive():
		return "y:yes  n:no"
	case a.picking:
		return "j/k:move  l/enter:open  h:up  esc:cancel"
	case a.showTranscripts:
		return "enter:open  d:delete  X:delete all  s:sort  f:filter  esc:back"
	case a.settings.IsEditing():
		return "enter:save  esc:cancel"
	case a.focusedPane == PaneSettings:
		return "j/k:field  enter:edit  tab:steps  t:transcripts  ?:help"
	case a.focusedPane == PaneOutput && a.output.IsSearching():
		return "enter:confirm  ctrl+r:regex  esc:cancel"
	case a.focusedPane == PaneOutput:
		return "/:search  n/N:match  g/G:top/bot  x:clear  tab:settings  ?:help"
	}
	return "enter:run  1-7:jump  tab:output  t:transcripts  ?:help  q:quit"
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
	b.WriteString(row("tab", "Next pane: settings, steps, output"))
	b.WriteString(row("shift+tab", "Previous pane"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + bold.Render("  Steps") + "\n\n")
	for _, s := range workflow.Steps {
		b.WriteString(row(fmt.Sprint(s.Num), s.Title))
	}
	b.WriteString(row("enter / r", "Run the selected step"))

	b.WriteString("\n" + bold.Render("  Settings") + "\n\n")
	b.WriteString(row("enter / e", "Edit field (~ expands to home)"))
	b.WriteString(row("esc", "Discard edit"))

	b.WriteString("\n" + bold.Render("  Output") + "\n\n")
	b.WriteString(row("/", "Search (ctrl+r toggles regex)"))
	b.WriteString(row("n / N", "Next / previous match"))
	b.WriteString(row("g / G", "Top / bottom"))
	b.WriteString(row("x", "Clear output"))

	b.WriteString("\n" + bold.Render("  Transcripts") + "\n\n")
	b.WriteString(row("t", "Browse stored session output"))
	b.WriteString(row("d / X", "Delete one / all"))

	b.WriteString("\n" + lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  Press any key to close") + "\n")

	style := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)
	return style.Render(b.String())
}
