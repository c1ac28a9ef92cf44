package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func settings() Settings {
	return Settings{
		GhMrvaDir:     "/work/gh-mrva",
		HepcDir:       "/work/hepc",
		MetadataDB:    "/work/hepc/metadata.sql",
		SelectionJSON: "/work/gh-mrva/gh-mrva-selection.json",
		Container:     "mrva-ghmrva",
		Session:       "mirva-session-20240501-101500",
		QueryPath:     "/work/gh-mrva/Fprintf.ql",
	}
}

func TestBuildContainerCommands(t *testing.T) {
	tests := []struct {
		step int
		want string
	}{
		{
			step: StepCheckTool,
			want: `docker exec -i mrva-ghmrva bash -c "mkdir -p ~/work-gh/mrva/gh-mrva && gh-mrva -h"`,
		},
		{
			step: StepStatus,
			want: `docker exec -i mrva-ghmrva bash -c "gh-mrva status --session mirva-session-20240501-101500"`,
		},
		{
			step: StepDownload,
			want: `docker exec -i mrva-ghmrva bash -c 'cd ~/work-gh/mrva/gh-mrva/ && gh-mrva download --session mirva-session-20240501-101500 --download-dbs --output-dir mirva-session-20240501-101500'`,
		},
	}
	for _, tt := range tests {
		cmd, err := Build(tt.step, settings())
		if err != nil {
			t.Fatalf("Build(%d): %v", tt.step, err)
		}
		if cmd.Shell != tt.want {
			t.Errorf("Build(%d).Shell =\n%s\nwant\n%s", tt.step, cmd.Shell, tt.want)
		}
		if cmd.Display != cmd.Shell {
			t.Errorf("Build(%d) should echo the full command", tt.step)
		}
		if cmd.Step != tt.step {
			t.Errorf("Build(%d).Step = %d", tt.step, cmd.Step)
		}
	}
}

func TestSetupConfigWritesHeredoc(t *testing.T) {
	cmd, err := Build(StepSetupConfig, settings())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"cat > ~/.config/gh-mrva/config.yml <<EOF\n",
		"codeql_path: not-used/codeql-path\n",
		"list_file: $HOME/work-gh/mrva/gh-mrva/gh-mrva-selection.json\nEOF\n",
	} {
		if !strings.Contains(cmd.Shell, want) {
			t.Errorf("setup command missing %q:\n%s", want, cmd.Shell)
		}
	}
	if !strings.HasSuffix(cmd.Display, "<<EOF...'") || strings.Contains(cmd.Display, "\n") {
		t.Errorf("display form should be the one-line summary: %q", cmd.Display)
	}
}

func TestSubmitCommand(t *testing.T) {
	cmd, err := Build(StepSubmit, settings())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"cat '/work/gh-mrva/gh-mrva-selection.json' | docker exec -i mrva-ghmrva bash -c 'cat > ~/work-gh/mrva/gh-mrva/gh-mrva-selection.json'",
		"cat '/work/gh-mrva/Fprintf.ql' | docker exec -i mrva-ghmrva bash -c 'cat > ~/work-gh/mrva/gh-mrva/Fprintf.ql'",
		"gh-mrva submit --language cpp --session mirva-session-20240501-101500 --list mirva-list --query ~/work-gh/mrva/gh-mrva/Fprintf.ql'",
	} {
		if !strings.Contains(cmd.Shell, want) {
			t.Errorf("submit command missing %q:\n%s", want, cmd.Shell)
		}
	}
	if !strings.HasPrefix(cmd.Display, "# Copy selection file and query to container, then submit\n") {
		t.Errorf("unexpected display: %q", cmd.Display)
	}
}

func TestPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		step    int
		mutate  func(*Settings)
		wantErr error
		line    string
	}{
		{name: "submit without query", step: StepSubmit, mutate: func(s *Settings) { s.QueryPath = "" }, wantErr: ErrNoQuery, line: "Error: No query file selected"},
		{name: "query checked before session", step: StepSubmit, mutate: func(s *Settings) { s.QueryPath = ""; s.Session = "" }, wantErr: ErrNoQuery, line: "Error: No query file selected"},
		{name: "submit without session", step: StepSubmit, mutate: func(s *Settings) { s.Session = "" }, wantErr: ErrNoSession, line: "Error: No session number provided"},
		{name: "status without session", step: StepStatus, mutate: func(s *Settings) { s.Session = "" }, wantErr: ErrNoSession, line: "Error: No session number provided"},
		{name: "download without session", step: StepDownload, mutate: func(s *Settings) { s.Session = "" }, wantErr: ErrNoSession, line: "Error: No session number provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings()
			tt.mutate(&s)
			_, err := Build(tt.step, s)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if got := ErrorLine(err); got != tt.line {
				t.Errorf("ErrorLine() = %q, want %q", got, tt.line)
			}
		})
	}
}

func TestBuildRejectsInteractiveSteps(t *testing.T) {
	for _, step := range []int{StepSelectDBs, StepBrowseQueries, 0, 8} {
		if _, err := Build(step, settings()); err == nil {
			t.Errorf("Build(%d) should fail", step)
		}
	}
}

func TestSelectorArgs(t *testing.T) {
	want := []string{
		"select",
		"--metadata-db", "/work/hepc/metadata.sql",
		"--gh-mrva-output", "/work/gh-mrva/gh-mrva-selection.json",
	}
	if diff := cmp.Diff(want, SelectorArgs(settings())); diff != "" {
		t.Errorf("SelectorArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSession(t *testing.T) {
	got := NewSession(time.Date(2024, 5, 1, 9, 3, 7, 0, time.UTC))
	if got != "mirva-session-20240501-090307" {
		t.Errorf("NewSession() = %q", got)
	}
}

func TestStepsOrder(t *testing.T) {
	for i, s := range Steps {
		if s.Num != i+1 {
			t.Errorf("Steps[%d].Num = %d", i, s.Num)
		}
	}
	if got := Steps[2].Label(); got != "Step 3: Launch DB Selector" {
		t.Errorf("Label() = %q", got)
	}
}

func TestEnsureSampleQueries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gh-mrva")
	existing := filepath.Join(dir, "Fprintf.ql")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(existing, []byte("// mine"), 0o644); err != nil {
		t.Fatal(err)
	}

	created, err := EnsureSampleQueries(dir)
	if err != nil {
		t.Fatalf("EnsureSampleQueries: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "FlatBuffersFunc.ql")}, created); diff != "" {
		t.Errorf("created mismatch (-want +got):\n%s", diff)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "// mine" {
		t.Error("existing query was overwritten")
	}
	flat, _ := os.ReadFile(filepath.Join(dir, "FlatBuffersFunc.ql"))
	if !strings.Contains(string(flat), `f.getName() = "MakeBinaryRegion"`) {
		t.Errorf("unexpected sample content:\n%s", flat)
	}

	again, err := EnsureSampleQueries(dir)
	if err != nil || len(again) != 0 {
		t.Errorf("second call created %v (err=%v)", again, err)
	}
}
