// Package workflow builds and runs the seven MRVA workflow steps: the
// container commands, the selector hand-off and query selection.
package workflow

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/altinukshini/hepc-tui/internal/config"
)

// Step numbers, in workflow order.
const (
	StepCheckTool = iota + 1
	StepSetupConfig
	StepSelectDBs
	StepBrowseQueries
	StepSubmit
	StepStatus
	StepDownload
)

// Step is one entry in the workflow list.
type Step struct {
	Num   int
	Title string
	// Interactive steps take over the terminal or open a picker instead of
	// running a container command.
	Interactive bool
}

// Steps lists the workflow in order.
var Steps = []Step{
	{Num: StepCheckTool, Title: "Check Tool"},
	{Num: StepSetupConfig, Title: "Setup Config"},
	{Num: StepSelectDBs, Title: "Launch DB Selector", Interactive: true},
	{Num: StepBrowseQueries, Title: "Browse Queries", Interactive: true},
	{Num: StepSubmit, Title: "Submit Job"},
	{Num: StepStatus, Title: "Check Status"},
	{Num: StepDownload, Title: "Download Results"},
}

// Label returns "Step N: Title".
func (s Step) Label() string {
	return fmt.Sprintf("Step %d: %s", s.Num, s.Title)
}

// Status is the outcome of a step's last run.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusOK
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	}
	return "pending"
}

var (
	ErrNoSession = errors.New("no session number provided")
	ErrNoQuery   = errors.New("no query file selected")
)

// ErrorLine renders a precondition failure the way it appears in the output.
func ErrorLine(err error) string {
	msg := err.Error()
	if msg != "" {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return "Error: " + msg
}

// containerWorkDir is where gh-mrva runs inside the container.
const containerWorkDir = "~/work-gh/mrva/gh-mrva"

const ghMrvaConfig = `codeql_path: not-used/codeql-path
controller: not-used/mirva-controller
list_file: $HOME/work-gh/mrva/gh-mrva/gh-mrva-selection.json`

// Settings is everything a step needs. Paths may start with "~".
type Settings struct {
	GhMrvaDir     string
	HepcDir       string
	MetadataDB    string
	SelectionJSON string
	Container     string
	Session       string
	QueryPath     string
}

// FromConfig seeds settings from configuration with a fresh session number.
func FromConfig(c config.Config, now time.Time) Settings {
	return Settings{
		GhMrvaDir:     c.GhMrvaDir,
		HepcDir:       c.HepcDir,
		MetadataDB:    c.MetadataDB,
		SelectionJSON: c.SelectionJSON,
		Container:     c.Container,
		Session:       NewSession(now),
	}
}

// NewSession returns the default session number for t.
func NewSession(t time.Time) string {
	return "mirva-session-" + t.Format("20060102-150405")
}

// Command is a shell command plus the shorter form echoed to the user.
type Command struct {
	Step    int
	Display string
	Shell   string
}

// Build returns the shell command for a non-interactive step.
func Build(step int, s Settings) (Command, error) {
	var (
		cmd Command
		err error
	)
	switch step {
	case StepCheckTool:
		cmd = checkTool(s)
	case StepSetupConfig:
		cmd = setupConfig(s)
	case StepSubmit:
		cmd, err = submit(s)
	case StepStatus:
		cmd, err = status(s)
	case StepDownload:
		cmd, err = download(s)
	default:
		return Command{}, fmt.Errorf("step %d does not run a shell command", step)
	}
	if err != nil {
		return Command{}, err
	}
	cmd.Step = step
	if cmd.Display == "" {
		cmd.Display = cmd.Shell
	}
	return cmd, nil
}

func checkTool(s Settings) Command {
	return Command{Shell: fmt.Sprintf(
		`docker exec -i %s bash -c "mkdir -p %s && gh-mrva -h"`,
		s.Container, containerWorkDir)}
}

func setupConfig(s Settings) Command {
	shell := fmt.Sprintf("docker exec -i %s bash -c '"+
		"mkdir -p ~/.config/gh-mrva && "+
		"cat > ~/.config/gh-mrva/config.yml <<EOF\n%s\nEOF\n"+
		`echo "Configuration created at ~/.config/gh-mrva/config.yml"'`,
		s.Container, ghMrvaConfig)
	display := fmt.Sprintf("docker exec -i %s bash -c 'mkdir -p ~/.config/gh-mrva && cat > ~/.config/gh-mrva/config.yml <<EOF...'", s.Container)
	return Command{Shell: shell, Display: display}
}

func submit(s Settings) (Command, error) {
	if s.QueryPath == "" {
		return Command{}, ErrNoQuery
	}
	if s.Session == "" {
		return Command{}, ErrNoSession
	}
	selection := config.Resolve(s.SelectionJSON)
	containerQuery := containerWorkDir + "/" + filepath.Base(s.QueryPath)

	shell := fmt.Sprintf("cat '%s' | "+
		"docker exec -i %s bash -c 'cat > %s/gh-mrva-selection.json' && "+
		"cat '%s' | "+
		"docker exec -i %s bash -c 'cat > %s' && "+
		"docker exec -i %s bash -c '"+
		"cd %s/ && "+
		"gh-mrva submit --language cpp --session %s "+
		"--list mirva-list --query %s'",
		selection, s.Container, containerWorkDir,
		s.QueryPath, s.Container, containerQuery,
		s.Container, containerWorkDir, s.Session, containerQuery)

	display := fmt.Sprintf("# Copy selection file and query to container, then submit\n"+
		"cat %s | docker exec -i %s ... && \n"+
		"cat %s | docker exec -i %s ... && \n"+
		"docker exec -i %s bash -c 'cd %s/ && gh-mrva submit ...'",
		selection, s.Container, s.QueryPath, s.Container, s.Container, containerWorkDir)
	return Command{Shell: shell, Display: display}, nil
}

func status(s Settings) (Command, error) {
	if s.Session == "" {
		return Command{}, ErrNoSession
	}
	return Command{Shell: fmt.Sprintf(
		`docker exec -i %s bash -c "gh-mrva status --session %s"`,
		s.Container, s.Session)}, nil
}

func download(s Settings) (Command, error) {
	if s.Session == "" {
		return Command{}, ErrNoSession
	}
	return Command{Shell: fmt.Sprintf(
		"docker exec -i %s bash -c '"+
			"cd %s/ && "+
			"gh-mrva download --session %s --download-dbs "+
			"--output-dir %s'",
		s.Container, containerWorkDir, s.Session, s.Session)}, nil
}

// SelectorArgs returns the arguments that start the database selector so it
// writes its gh-mrva export where step 5 expects it.
func SelectorArgs(s Settings) []string {
	return []string{
		"select",
		"--metadata-db", config.Resolve(s.MetadataDB),
		"--gh-mrva-output", config.Resolve(s.SelectionJSON),
	}
}
