// Package search finds lines in workflow output and stored transcripts.
package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/altinukshini/hepc-tui/internal/transcript"
)

// Query describes what to look for and where.
type Query struct {
	Pattern       string
	IsRegex       bool
	CaseSensitive bool
	Session       string // empty searches every session
	Step          int    // 0 searches every step
	FailedOnly    bool   // only steps that ended with a non-zero exit code
}

// Document is the stored output of one step.
type Document struct {
	Session string
	Step    int
	Text    string
}

// Failed reports whether the step's completion line recorded a failure.
func (d Document) Failed() bool {
	return strings.Contains(d.Text, "failed with exit code")
}

// Match is one matching line; Line is 1-based.
type Match struct {
	Session string
	Step    int
	Line    int
	Content string
}

type Results struct {
	Query         Query
	Matches       []Match
	SessionCounts map[string]int
	TotalCount    int
}

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Lines returns the 0-based indices of the lines matching q.
func (e *Engine) Lines(lines []string, q Query) ([]int, error) {
	matcher, err := buildMatcher(q)
	if err != nil {
		return nil, err
	}
	var out []int
	for i, line := range lines {
		if matcher(line) {
			out = append(out, i)
		}
	}
	return out, nil
}

// Search scans docs in order. A malformed regex is reported as an error.
func (e *Engine) Search(docs []Document, q Query) (*Results, error) {
	results := &Results{
		Query:         q,
		SessionCounts: make(map[string]int),
	}

	matcher, err := buildMatcher(q)
	if err != nil {
		return results, err
	}

	for _, doc := range docs {
		if q.Session != "" && doc.Session != q.Session {
			continue
		}
		if q.Step != 0 && doc.Step != q.Step {
			continue
		}
		if q.FailedOnly && !doc.Failed() {
			continue
		}

		for i, line := range strings.Split(strings.TrimRight(doc.Text, "\n"), "\n") {
			if matcher(line) {
				results.Matches = append(results.Matches, Match{
					Session: doc.Session,
					Step:    doc.Step,
					Line:    i + 1,
					Content: line,
				})
				results.SessionCounts[doc.Session]++
				results.TotalCount++
			}
		}
	}

	return results, nil
}

// Documents loads every stored step, most recent session first. An empty
// session loads all of them.
func Documents(store *transcript.Store, session string) ([]Document, error) {
	entries, err := store.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	var docs []Document
	for _, entry := range entries {
		if session != "" && entry.Session != session {
			continue
		}
		for _, step := range entry.Steps {
			text, err := store.Read(entry.Session, step)
			if err != nil {
				return nil, err
			}
			docs = append(docs, Document{Session: entry.Session, Step: step, Text: text})
		}
	}
	return docs, nil
}

func buildMatcher(query Query) (func(string) bool, error) {
	if query.IsRegex {
		flags := ""
		if !query.CaseSensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + query.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		return func(line string) bool { return re.MatchString(line) }, nil
	}

	pattern := query.Pattern
	if !query.CaseSensitive {
		pattern = strings.ToLower(pattern)
	}
	return func(line string) bool {
		if !query.CaseSensitive {
			line = strings.ToLower(line)
		}
		return strings.Contains(line, pattern)
	}, nil
}
