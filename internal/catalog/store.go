// Package catalog reads the metadata table produced by the HEPC init tool.
// The database is opened read-only and never modified.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/logging"
	"github.com/altinukshini/hepc-tui/internal/model"
)

// Store is a read-only handle on a metadata database.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the metadata database at path and checks that the
// metadata table is readable.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}
	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: connect %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "SELECT 1 FROM metadata LIMIT 1"); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: read metadata table in %s: %w", path, err)
	}

	logging.Infof("catalog: opened %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Distinct returns col's non-null values in ascending order, rendered as text.
// Empty strings are left out; "" is reserved for "no constraint".
func (s *Store) Distinct(ctx context.Context, col model.Column) ([]string, error) {
	q, err := filter.Distinct(col)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: distinct %s: %w", col, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("catalog: scan distinct %s: %w", col, err)
		}
		if text, ok := textOf(v); ok && text != "" {
			values = append(values, text)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: distinct %s: %w", col, err)
	}
	return values, nil
}

// Candidates loads the full distinct value set of every column.
func (s *Store) Candidates(ctx context.Context) (Index, error) {
	idx := make(Index, len(model.Columns))
	for _, col := range model.Columns {
		values, err := s.Distinct(ctx, col)
		if err != nil {
			return nil, err
		}
		idx[col] = values
	}
	return idx, nil
}

// Query runs the query built from st and returns its ordered records.
func (s *Store) Query(ctx context.Context, st filter.State) (*ResultSet, error) {
	q, err := filter.Build(st)
	if err != nil {
		return nil, fmt.Errorf("catalog: build query: %w", err)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: query: %w", err)
	}

	logging.Debugf("catalog: %d records for [%s] in %s", len(records), st.Summary(), time.Since(start))
	return &ResultSet{Filter: st, Records: records}, nil
}

func scanRecord(rows *sql.Rows) (model.Record, error) {
	var (
		branch, commit, owner, repo, ingested sql.NullString
		lang, url, tool, version, proj        sql.NullString
		size                                  sql.NullInt64
	)
	// Column order follows model.Columns, which is the select list.
	if err := rows.Scan(&branch, &commit, &owner, &repo, &ingested,
		&lang, &url, &tool, &version, &proj, &size); err != nil {
		return model.Record{}, err
	}
	return model.Record{
		GitBranch:            branch.String,
		GitCommitID:          commit.String,
		GitOwner:             owner.String,
		GitRepo:              repo.String,
		IngestionDatetimeUTC: ingested.String,
		PrimaryLanguage:      lang.String,
		ResultURL:            url.String,
		ToolName:             tool.String,
		ToolVersion:          version.String,
		ProjName:             proj.String,
		DBFileSize:           size.Int64,
	}, nil
}
