package catalog

import (
	"context"
	"database/sql"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/model"
)

const schema = `CREATE TABLE metadata (
	git_branch TEXT,
	git_commit_id TEXT,
	git_owner TEXT,
	git_repo TEXT,
	ingestion_datetime_utc TEXT,
	primary_language TEXT,
	result_url TEXT,
	tool_name TEXT,
	tool_version TEXT,
	projname TEXT,
	db_file_size INTEGER
)`

type fixtureRow struct {
	owner, repo, lang, tool, version string
	branch                           any
	size                             int64
}

var fixtureRows = []fixtureRow{
	{owner: "zeta", repo: "alpha", lang: "cpp", tool: "codeql", version: "2.15.0", branch: "main", size: 15 * 1024 * 1024},
	{owner: "acme", repo: "x", lang: "cpp", tool: "codeql", version: "2.15.0", branch: "main", size: 1024},
	{owner: "acme", repo: "x", lang: "python", tool: "codeql", version: "2.16.1", branch: "dev", size: 2048},
	{owner: "acme", repo: "a", lang: "Java", tool: "CodeQL", version: "2.16.1", branch: nil, size: 4096},
	{owner: "beta", repo: "tools", lang: "C", tool: "semgrep", version: "1.0", branch: "main", size: 1572864},
}

// newFixture writes a small metadata database and reopens it read-only.
func newFixture(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.sql")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	for _, r := range fixtureRows {
		_, err := db.Exec(`INSERT INTO metadata VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.branch, "c0ffee", r.owner, r.repo, "2024-05-01 12:00:00",
			r.lang, "http://hepc/db/"+r.owner+"-"+r.repo+"-"+r.lang+".zip",
			r.tool, r.version, r.owner+"-"+r.repo, r.size)
		if err != nil {
			t.Fatalf("insert fixture row: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func nwos(rs *ResultSet) []string {
	var out []string
	for _, r := range rs.Records {
		out = append(out, r.NWO()+":"+r.PrimaryLanguage)
	}
	return out
}

func TestQuery(t *testing.T) {
	s := newFixture(t)

	tests := []struct {
		name  string
		state filter.State
		want  []string
	}{
		{
			name:  "unconstrained returns every row in fixed order",
			state: filter.State{},
			want:  []string{"acme/a:Java", "acme/x:cpp", "acme/x:python", "beta/tools:C", "zeta/alpha:cpp"},
		},
		{
			name:  "exact values are AND-ed",
			state: filter.State{}.WithExact(model.ColGitOwner, "acme").WithExact(model.ColPrimaryLanguage, "cpp"),
			want:  []string{"acme/x:cpp"},
		},
		{
			name:  "regex is case-insensitive",
			state: filter.State{}.WithPattern(model.ColToolName, "^codeql$", nil),
			want:  []string{"acme/a:Java", "acme/x:cpp", "acme/x:python", "zeta/alpha:cpp"},
		},
		{
			name:  "regex never matches NULL",
			state: filter.State{}.WithPattern(model.ColGitBranch, ".*", nil),
			want:  []string{"acme/x:cpp", "acme/x:python", "beta/tools:C", "zeta/alpha:cpp"},
		},
		{
			name:  "malformed regex matches nothing",
			state: filter.State{}.WithPattern(model.ColGitRepo, "(x", nil),
			want:  nil,
		},
		{
			name:  "integer column exact match",
			state: filter.State{}.WithExact(model.ColDBFileSize, "2048"),
			want:  []string{"acme/x:python"},
		},
		{
			name:  "no match",
			state: filter.State{}.WithExact(model.ColGitOwner, "nobody"),
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := s.Query(context.Background(), tt.state)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if diff := cmp.Diff(tt.want, nwos(rs)); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
			if rs.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", rs.Len(), len(tt.want))
			}
		})
	}
}

func TestQueryKeepsFilter(t *testing.T) {
	s := newFixture(t)
	st := filter.State{}.WithExact(model.ColGitOwner, "beta")
	rs, err := s.Query(context.Background(), st)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Filter.Key() != st.Key() {
		t.Errorf("result set filter = %q, want %q", rs.Filter.Summary(), st.Summary())
	}
	r := rs.Records[0]
	if r.SizeMB() != 1.5 {
		t.Errorf("SizeMB() = %v, want 1.5", r.SizeMB())
	}
	if r.ResultURL != "http://hepc/db/beta-tools-C.zip" {
		t.Errorf("ResultURL = %q", r.ResultURL)
	}
}

func TestDistinct(t *testing.T) {
	s := newFixture(t)

	got, err := s.Distinct(context.Background(), model.ColGitBranch)
	if err != nil {
		t.Fatalf("Distinct: %v", err)
	}
	if diff := cmp.Diff([]string{"dev", "main"}, got); diff != "" {
		t.Errorf("branches mismatch (-want +got):\n%s", diff)
	}

	sizes, err := s.Distinct(context.Background(), model.ColDBFileSize)
	if err != nil {
		t.Fatalf("Distinct: %v", err)
	}
	if diff := cmp.Diff([]string{"1024", "2048", "4096", "1572864", "15728640"}, sizes); diff != "" {
		t.Errorf("sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidatesNarrow(t *testing.T) {
	s := newFixture(t)
	idx, err := s.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(idx) != len(model.Columns) {
		t.Fatalf("Candidates() has %d columns, want %d", len(idx), len(model.Columns))
	}
	got := idx.Narrow(model.ColPrimaryLanguage, "^c")
	if diff := cmp.Diff([]string{"", "C", "cpp"}, got); diff != "" {
		t.Errorf("Narrow mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenFailures(t *testing.T) {
	dir := t.TempDir()

	if _, err := Open(context.Background(), filepath.Join(dir, "missing.sql")); err == nil {
		t.Error("Open() on a missing file should fail")
	}

	empty := filepath.Join(dir, "empty.sql")
	db, err := sql.Open("sqlite", empty)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE other (x TEXT)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	if _, err := Open(context.Background(), empty); err == nil {
		t.Error("Open() without a metadata table should fail")
	}
}

// writeCatalog creates a metadata table from ddl at path and inserts rows
// of (branch, owner, repo, ingested, lang).
func writeCatalog(t *testing.T, path, ddl string, rows [][5]string) {
	t.Helper()
	dsn := url.URL{Scheme: "file", Path: path}
	db, err := sql.Open("sqlite", dsn.String())
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO metadata VALUES (?, 'c0ffee', ?, ?, ?, ?, 'http://hepc/db.zip', 'codeql', '2.15.0', 'p', 1024)`,
			r[0], r[1], r[2], r[3], r[4])
		if err != nil {
			t.Fatalf("insert fixture row: %v", err)
		}
	}
}

func TestTimestampColumnRoundTrips(t *testing.T) {
	ddl := strings.Replace(schema, "ingestion_datetime_utc TEXT", "ingestion_datetime_utc TIMESTAMP", 1)
	path := filepath.Join(t.TempDir(), "metadata.sql")
	writeCatalog(t, path, ddl, [][5]string{
		{"main", "acme", "x", "2024-05-01 12:00:00", "cpp"},
		{"main", "acme", "y", "2024-05-01 12:00:00", "cpp"},
		{"dev", "beta", "z", "2024-06-02 08:30:15", "go"},
	})
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	idx, err := s.Candidates(ctx)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	want := []string{"2024-05-01 12:00:00", "2024-06-02 08:30:15"}
	if diff := cmp.Diff(want, idx[model.ColIngestionTime]); diff != "" {
		t.Fatalf("ingestion candidates (-want +got):\n%s", diff)
	}

	// Every candidate selects its rows again as an exact value.
	rs, err := s.Query(ctx, filter.State{}.WithExact(model.ColIngestionTime, want[0]))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Len() != 2 {
		t.Errorf("exact %q matched %d rows, want 2", want[0], rs.Len())
	}
	if got := rs.Records[0].IngestionDatetimeUTC; got != want[0] {
		t.Errorf("IngestionDatetimeUTC = %q, want stored text %q", got, want[0])
	}

	// Narrowing and the query see the same text.
	narrowed := idx.Narrow(model.ColIngestionTime, "00$")
	if diff := cmp.Diff([]string{"", "2024-05-01 12:00:00"}, narrowed); diff != "" {
		t.Errorf("Narrow(00$) (-want +got):\n%s", diff)
	}
	rs, err = s.Query(ctx, filter.State{}.WithPattern(model.ColIngestionTime, "00$", nil))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Len() != 2 {
		t.Errorf("regex 00$ matched %d rows, want 2", rs.Len())
	}
}

func TestDistinctSkipsEmptyStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.sql")
	writeCatalog(t, path, schema, [][5]string{
		{"", "acme", "x", "2024-05-01", "cpp"},
		{"main", "acme", "y", "2024-05-01", "cpp"},
	})
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Distinct(context.Background(), model.ColGitBranch)
	if err != nil {
		t.Fatalf("Distinct: %v", err)
	}
	if diff := cmp.Diff([]string{"main"}, got); diff != "" {
		t.Errorf("branches (-want +got):\n%s", diff)
	}
}

func TestOpenPathWithURLCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hepc #1?v=2 100%.sql")
	writeCatalog(t, path, schema, [][5]string{{"main", "acme", "x", "2024-05-01", "cpp"}})

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	rs, err := s.Query(context.Background(), filter.State{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if rs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rs.Len())
	}
}
