package transcripts

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/hepc-tui/internal/transcript"
	"github.com/altinukshini/hepc-tui/internal/ui"
)

func newStore(t *testing.T) *transcript.Store {
	t.Helper()
	s, err := transcript.New(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatalf("transcript.New: %v", err)
	}
	for _, session := range []string{"mirva-session-1", "mirva-session-2"} {
		w, err := s.Append(session, 1)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		io.WriteString(w, "usage: gh-mrva\n")
		w.Close()
	}
	return s
}

func loaded(t *testing.T, s *transcript.Store) Model {
	t.Helper()
	m := New()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = m.Update(Load(s)())
	return m
}

func TestLoad(t *testing.T) {
	m := loaded(t, newStore(t))
	if got := len(m.Entries()); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
	if m.SelectedEntry() == nil {
		t.Fatal("expected a selected entry")
	}
	if !strings.Contains(m.View(), "2 sessions") {
		t.Errorf("header missing session count:\n%s", m.View())
	}
}

func TestOpen(t *testing.T) {
	s := newStore(t)
	msg, ok := Open(s, "mirva-session-1")().(ui.TranscriptOpenedMsg)
	if !ok {
		t.Fatal("Open did not return TranscriptOpenedMsg")
	}
	if msg.Err != nil {
		t.Fatalf("Open: %v", msg.Err)
	}
	if !strings.Contains(msg.Content, "usage: gh-mrva") {
		t.Errorf("content = %q", msg.Content)
	}
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	m := loaded(t, s)

	msg := Delete(s, "mirva-session-1", nil)().(ui.TranscriptDeletedMsg)
	if msg.Err != nil || msg.Session != "mirva-session-1" {
		t.Fatalf("Delete one = %+v", msg)
	}
	m = loaded(t, s)
	if got := len(m.Entries()); got != 1 {
		t.Fatalf("entries after delete = %d, want 1", got)
	}

	if msg := Delete(s, "", m.Entries())().(ui.TranscriptDeletedMsg); msg.Err != nil {
		t.Fatalf("Delete all: %v", msg.Err)
	}
	m = loaded(t, s)
	if len(m.Entries()) != 0 {
		t.Errorf("entries after delete all = %d", len(m.Entries()))
	}
	if !strings.Contains(m.View(), "No transcripts yet") {
		t.Errorf("unexpected empty view:\n%s", m.View())
	}
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{90 * time.Second, "1 minute ago"},
		{5 * time.Hour, "5 hours ago"},
		{50 * time.Hour, "2 days ago"},
	}
	for _, tt := range tests {
		if got := relativeTime(time.Now().Add(-tt.ago)); got != tt.want {
			t.Errorf("relativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
