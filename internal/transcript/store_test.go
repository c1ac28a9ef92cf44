package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func write(t *testing.T, s *Store, session string, step int, text string) {
	t.Helper()
	w, err := s.Append(session, step)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := w.Write([]byte(text)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAppendAndRead(t *testing.T) {
	s, err := New(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "mirva-session-20240101-120000", 6, "$ gh-mrva status\n")
	write(t, s, "mirva-session-20240101-120000", 6, "[Step 6 completed successfully]\n")

	got, err := s.Read("mirva-session-20240101-120000", 6)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "$ gh-mrva status\n[Step 6 completed successfully]\n"
	if got != want {
		t.Errorf("Read() = %q, want %q", got, want)
	}
	if _, err := s.Read("mirva-session-20240101-120000", 7); err == nil {
		t.Error("Read() of a missing step should fail")
	}
}

func TestReadAllStepOrder(t *testing.T) {
	s, err := New(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "s", 10, "ten")
	write(t, s, "s", 2, "two\n")

	got, err := s.ReadAll("s")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := "=== Step 2 ===\ntwo\n=== Step 10 ===\nten\n"
	if got != want {
		t.Errorf("ReadAll() = %q, want %q", got, want)
	}
}

func TestSessionNameIsSanitized(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "../../etc/passwd", 1, "x")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "session-") {
		t.Fatalf("unexpected layout: %v", entries)
	}
	if strings.Contains(entries[0].Name(), "/") {
		t.Errorf("session dir escapes the store: %s", entries[0].Name())
	}
}

func TestMetaKeepsCreatedAt(t *testing.T) {
	s, err := New(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteMeta(Meta{Session: "s", Container: "mrva-ghmrva"}); err != nil {
		t.Fatal(err)
	}
	first, err := s.ReadMeta("s")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteMeta(Meta{Session: "s", Container: "mrva-ghmrva", QueryPath: "/q/Fprintf.ql"}); err != nil {
		t.Fatal(err)
	}
	second, err := s.ReadMeta("s")
	if err != nil {
		t.Fatal(err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.QueryPath != "/q/Fprintf.ql" {
		t.Errorf("QueryPath = %q", second.QueryPath)
	}
}

func TestListEntries(t *testing.T) {
	s, err := New(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "old", 1, "a")
	write(t, s, "new", 5, "bb")
	write(t, s, "new", 6, "ccc")
	if err := s.WriteMeta(Meta{Session: "new", Container: "c"}); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	oldDir := s.sessionDir("old")
	os.Chtimes(filepath.Join(oldDir, stepFile(1)), past, past)
	os.Chtimes(oldDir, past, past)

	entries, err := s.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListEntries() returned %d entries, want 2", len(entries))
	}
	if entries[0].Session != "new" || entries[1].Session != "old" {
		t.Errorf("order = %s, %s; want new, old", entries[0].Session, entries[1].Session)
	}
	if got := entries[0].Steps; len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Errorf("Steps = %v, want [5 6]", got)
	}
	if entries[0].Container != "c" {
		t.Errorf("Container = %q, want meta value", entries[0].Container)
	}
}

func TestEvictExpired(t *testing.T) {
	s, err := New(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	write(t, s, "stale", 1, "old output")
	write(t, s, "fresh", 1, "new output")
	past := time.Now().Add(-2 * time.Hour)
	os.Chtimes(filepath.Join(s.sessionDir("stale"), stepFile(1)), past, past)

	if err := s.Evict(); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, err := os.Stat(s.sessionDir("stale")); !os.IsNotExist(err) {
		t.Errorf("expired session still present (err=%v)", err)
	}
	if _, err := s.Read("fresh", 1); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}

func TestEvictOversized(t *testing.T) {
	s, err := New(t.TempDir(), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	big := strings.Repeat("x", 700*1024)
	write(t, s, "first", 1, big)
	write(t, s, "second", 1, big)
	past := time.Now().Add(-time.Minute)
	os.Chtimes(filepath.Join(s.sessionDir("first"), stepFile(1)), past, past)

	if err := s.Evict(); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if _, err := s.Read("first", 1); err == nil {
		t.Error("oldest transcript should be evicted over the size cap")
	}
	if _, err := s.Read("second", 1); err != nil {
		t.Errorf("newest transcript evicted: %v", err)
	}
	size, _ := s.TotalSize()
	if size > 1024*1024 {
		t.Errorf("TotalSize() = %d, still over cap", size)
	}
}
