package ui

import (
	"github.com/altinukshini/hepc-tui/internal/transcript"
	"github.com/altinukshini/hepc-tui/internal/workflow"
)

type StatusMsg struct {
	Text string
}

// Workflow messages

// StepDoneMsg reports that a step's command finished.
type StepDoneMsg struct {
	Result workflow.Result
}

// OutputTickMsg asks the workflow view to drain queued output.
type OutputTickMsg struct{}

// SelectorExitedMsg is sent when the foreground selector returns control.
type SelectorExitedMsg struct {
	Err error
}

// TranscriptsLoadedMsg carries the stored sessions for the transcript browser.
type TranscriptsLoadedMsg struct {
	Entries   []transcript.Entry
	TotalSize int64
	Err       error
}

// TranscriptDeletedMsg reports removal of one session, or all when Session is empty.
type TranscriptDeletedMsg struct {
	Session string
	Err     error
}

// TranscriptOpenedMsg carries a stored session's full output.
type TranscriptOpenedMsg struct {
	Session string
	Content string
	Err     error
}
