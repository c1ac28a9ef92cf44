package workflow

import (
	"regexp"
	"sync"
)

// LineKind decides how an output line is rendered.
type LineKind int

const (
	LineNormal LineKind = iota
	LineCommand
	LineError
)

// Line is one line of step output.
type Line struct {
	Kind LineKind
	Text string
}

// Queue is the single unbounded FIFO between running steps and the UI.
// Producers never block; the UI drains it on a timer.
type Queue struct {
	mu    sync.Mutex
	lines []Line
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(l Line) {
	q.mu.Lock()
	q.lines = append(q.lines, l)
	q.mu.Unlock()
}

func (q *Queue) Pushf(kind LineKind, text string) {
	q.Push(Line{Kind: kind, Text: text})
}

// Drain removes and returns everything queued so far, oldest first.
func (q *Queue) Drain() []Line {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.lines
	q.lines = nil
	return out
}

// Len returns the number of queued lines.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}

var pathPattern = regexp.MustCompile(`(?:~/[^\s]+|/[^\s]+|[a-zA-Z0-9_.-]+\.(?:json|sql|ql|yml|yaml))`)

// PathSpans returns the byte ranges of file-path-looking tokens in text.
func PathSpans(text string) [][]int {
	return pathPattern.FindAllStringIndex(text, -1)
}
