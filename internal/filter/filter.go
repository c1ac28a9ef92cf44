// Package filter holds the selector's filter state and turns it into
// parameterized catalog queries.
package filter

import (
	"sort"
	"strings"

	"github.com/altinukshini/hepc-tui/internal/model"
)

// Condition is the constraint on a single attribute. When both fields are
// set, Exact wins and Pattern only narrows the candidate list.
type Condition struct {
	Exact   string
	Pattern string
}

// IsEmpty reports whether the condition constrains nothing.
func (c Condition) IsEmpty() bool {
	return c.Exact == "" && c.Pattern == ""
}

// State maps attributes to their conditions. The zero value is the
// unconstrained state. State is never mutated in place; every With method
// returns a new value.
type State struct {
	conds map[model.Column]Condition
}

// Get returns the condition for col.
func (s State) Get(col model.Column) Condition {
	return s.conds[col]
}

// WithExact returns a copy with col's exact value set. An empty value clears
// the exact match but keeps the pattern.
func (s State) WithExact(col model.Column, value string) State {
	c := s.Get(col)
	c.Exact = value
	return s.with(col, c)
}

// WithPattern returns a copy with col's regex pattern set. full is the
// attribute's complete candidate set; if the current exact value is not in
// the list narrowed by the new pattern, it is cleared.
func (s State) WithPattern(col model.Column, pattern string, full []string) State {
	c := s.Get(col)
	c.Pattern = pattern
	if c.Exact != "" && !contains(Narrow(full, pattern), c.Exact) {
		c.Exact = ""
	}
	return s.with(col, c)
}

// WithCondition returns a copy with col's condition replaced as a whole.
func (s State) WithCondition(col model.Column, c Condition) State {
	return s.with(col, c)
}

// Without returns a copy with col unconstrained.
func (s State) Without(col model.Column) State {
	return s.with(col, Condition{})
}

// Active returns the constrained columns in a stable order: known columns in
// table order first, then anything else sorted by name.
func (s State) Active() []model.Column {
	var known, unknown []model.Column
	for _, col := range model.Columns {
		if !s.Get(col).IsEmpty() {
			known = append(known, col)
		}
	}
	for col, c := range s.conds {
		if !col.Valid() && !c.IsEmpty() {
			unknown = append(unknown, col)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(known, unknown...)
}

// IsEmpty reports whether no attribute is constrained.
func (s State) IsEmpty() bool {
	return len(s.Active()) == 0
}

// Key returns a canonical string for the state, suitable as a cache key.
func (s State) Key() string {
	var b strings.Builder
	for _, col := range s.Active() {
		c := s.Get(col)
		b.WriteString(string(col))
		b.WriteByte('\x00')
		b.WriteString(c.Exact)
		b.WriteByte('\x00')
		b.WriteString(c.Pattern)
		b.WriteByte('\x01')
	}
	return b.String()
}

// Summary returns a short human-readable description for status lines.
func (s State) Summary() string {
	var parts []string
	for _, col := range s.Active() {
		c := s.Get(col)
		if c.Exact != "" {
			parts = append(parts, string(col)+"="+c.Exact)
		} else {
			parts = append(parts, string(col)+"~/"+c.Pattern+"/")
		}
	}
	return strings.Join(parts, " ")
}

func (s State) with(col model.Column, c Condition) State {
	next := make(map[model.Column]Condition, len(s.conds)+1)
	for k, v := range s.conds {
		next[k] = v
	}
	if c.IsEmpty() {
		delete(next, col)
	} else {
		next[col] = c
	}
	return State{conds: next}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
