package catalog

import (
	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/model"
)

// ResultSet is the outcome of one query. A new filter produces a new
// ResultSet; existing ones are never updated.
type ResultSet struct {
	Filter  filter.State
	Records []model.Record
}

// Len returns the number of records, treating nil as empty.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// Index holds each column's full distinct value set, loaded once at startup.
type Index map[model.Column][]string

// Narrow returns the candidates for col under pattern, led by the empty
// "no constraint" choice.
func (idx Index) Narrow(col model.Column, pattern string) []string {
	return filter.Narrow(idx[col], pattern)
}
