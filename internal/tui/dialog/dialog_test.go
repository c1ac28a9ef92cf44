package dialog

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{name: "y confirms", keys: []tea.KeyMsg{runes("y")}, want: true},
		{name: "n declines", keys: []tea.KeyMsg{runes("n")}, want: false},
		{name: "esc declines", keys: []tea.KeyMsg{{Type: tea.KeyEscape}}, want: false},
		{name: "enter takes default no", keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: false},
		{name: "tab then enter confirms", keys: []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("Quit?", "A step is running.", "quit", 7)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = m.Update(k)
			}
			if m.IsActive() {
				t.Fatal("dialog should close")
			}
			res, ok := cmd().(ResultMsg)
			if !ok {
				t.Fatalf("expected ResultMsg, got %T", cmd())
			}
			if res.Confirmed != tt.want || res.Action != "quit" || res.Data.(int) != 7 {
				t.Errorf("result = %+v, want confirmed=%v", res, tt.want)
			}
		})
	}
}

func TestNoticeClosesOnAnyKey(t *testing.T) {
	m := Notice(KindWarning, "Nothing to export", "no databases selected")
	m.Action = "export"
	if !strings.Contains(m.View(), "Nothing to export") {
		t.Errorf("view missing title:\n%s", m.View())
	}
	m, cmd := m.Update(runes("z"))
	if m.IsActive() {
		t.Fatal("notice should close")
	}
	if got, ok := cmd().(ClosedMsg); !ok || got.Action != "export" {
		t.Errorf("expected ClosedMsg{export}, got %#v", cmd())
	}
	if m.View() != "" {
		t.Error("closed dialog should render nothing")
	}
}

func TestIgnoresNonKeyMessages(t *testing.T) {
	m := Notice(KindError, "Query failed", "boom")
	m, cmd := m.Update(tea.WindowSizeMsg{Width: 10, Height: 10})
	if !m.IsActive() || cmd != nil {
		t.Error("non-key messages must not close the dialog")
	}
}
