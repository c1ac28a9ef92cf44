package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/altinukshini/hepc-tui/internal/logging"
)

// Result is how a command ended. ExitCode is -1 when the process could not
// be started or was killed by a signal.
type Result struct {
	Step     int
	ExitCode int
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes step commands through the shell.
type Runner struct {
	Queue *Queue
	Shell string
}

func NewRunner(q *Queue) *Runner {
	return &Runner{Queue: q, Shell: "sh"}
}

// Echo queues the "$ cmd" line shown before a command's output.
func (r *Runner) Echo(display string) {
	r.Queue.Pushf(LineCommand, "\n$ "+display)
}

// Run executes cmd with stderr merged into stdout. Every output line goes to
// the queue and, if tee is non-nil, to tee. The completion line is queued
// before Run returns. Run blocks; callers start it in a goroutine.
func (r *Runner) Run(ctx context.Context, cmd Command, tee io.Writer) Result {
	start := time.Now()
	r.Echo(cmd.Display)
	if tee != nil {
		fmt.Fprintf(tee, "$ %s\n", cmd.Display)
	}
	logging.Infof("workflow: step %d started", cmd.Step)

	res := r.exec(ctx, cmd, tee)
	res.Step = cmd.Step
	res.Elapsed = time.Since(start)

	var done Line
	switch {
	case res.OK():
		done = Line{Kind: LineCommand, Text: fmt.Sprintf("\n[Step %d completed successfully]", cmd.Step)}
		logging.Infof("workflow: step %d ok in %s", cmd.Step, res.Elapsed)
	case res.ExitCode >= 0:
		done = Line{Kind: LineError, Text: fmt.Sprintf("\n[Step %d failed with exit code %d]", cmd.Step, res.ExitCode)}
		logging.Warnf("workflow: step %d exit %d", cmd.Step, res.ExitCode)
	default:
		done = Line{Kind: LineError, Text: fmt.Sprintf("\nError: %v", res.Err)}
		logging.Errorf("workflow: step %d: %v", cmd.Step, res.Err)
	}
	r.Queue.Push(done)
	if tee != nil {
		fmt.Fprintln(tee, done.Text)
	}
	return res
}

func (r *Runner) exec(ctx context.Context, cmd Command, tee io.Writer) Result {
	c := exec.CommandContext(ctx, r.Shell, "-c", cmd.Shell)
	out, err := c.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	c.Stderr = c.Stdout

	if err := c.Start(); err != nil {
		return Result{ExitCode: -1, Err: fmt.Errorf("start: %w", err)}
	}

	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		r.Queue.Pushf(LineNormal, line)
		if tee != nil {
			fmt.Fprintln(tee, line)
		}
	}
	scanErr := sc.Err()
	if scanErr != nil {
		io.Copy(io.Discard, out)
	}

	err = c.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil && scanErr != nil:
		return Result{ExitCode: -1, Err: fmt.Errorf("read output: %w", scanErr)}
	case err == nil:
		return Result{ExitCode: 0}
	case errors.As(err, &exitErr) && exitErr.ExitCode() >= 0:
		return Result{ExitCode: exitErr.ExitCode()}
	default:
		return Result{ExitCode: -1, Err: err}
	}
}
