package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/altinukshini/hepc-tui/internal/model"
)

// ErrUnknownColumn is returned when a state refers to an attribute outside
// the metadata allow-list.
var ErrUnknownColumn = errors.New("unknown column")

// RegexpFunc is the SQL function behind the REGEXP operator. SQLite rewrites
// "X REGEXP Y" as regexp(Y, X), so the pattern arrives first.
const RegexpFunc = "regexp"

const table = "metadata"

var orderBy = []model.Column{model.ColGitOwner, model.ColGitRepo, model.ColPrimaryLanguage}

// Query is SQL text plus its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// Build translates s into the catalog query. Exact values become equality
// tests, patterns become case-insensitive REGEXP tests and a malformed
// pattern becomes a condition that matches no row.
func Build(s State) (Query, error) {
	var (
		where []string
		args  []any
	)
	for _, col := range s.Active() {
		if !col.Valid() {
			return Query{}, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		c := s.Get(col)
		switch {
		case c.Exact != "":
			where = append(where, string(col)+" = ?")
			args = append(args, bindValue(col, c.Exact))
		case c.Pattern != "":
			if _, err := Matcher(c.Pattern); err != nil {
				where = append(where, "1 = 0")
				continue
			}
			where = append(where, textOf(col)+" REGEXP ?")
			args = append(args, "(?i)"+c.Pattern)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columnList())
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	for i, col := range orderBy {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(col))
	}
	return Query{SQL: b.String(), Args: args}, nil
}

// Distinct returns the query listing col's non-null values in ascending order.
func Distinct(col model.Column) (Query, error) {
	if !col.Valid() {
		return Query{}, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	expr := textOf(col)
	return Query{
		SQL: fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s", expr, table, string(col), expr),
	}, nil
}

func columnList() string {
	names := make([]string, len(model.Columns))
	for i, col := range model.Columns {
		names[i] = textOf(col)
	}
	return strings.Join(names, ", ")
}

// textOf selects a text column as stored. The cast drops the declared type,
// which otherwise lets the driver turn DATE/DATETIME/TIMESTAMP columns into
// time values that no longer equal the stored text.
func textOf(col model.Column) string {
	if col.IsInteger() {
		return string(col)
	}
	return "CAST(" + string(col) + " AS TEXT)"
}

// bindValue converts exact values for integer columns so equality does not
// depend on the column's declared affinity.
func bindValue(col model.Column, v string) any {
	if col.IsInteger() {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return v
}
