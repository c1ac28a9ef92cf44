package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Tab         key.Binding
	ShiftTab    key.Binding
	Enter       key.Binding
	Back        key.Binding
	Copy        key.Binding
	ClearAll    key.Binding
	ExportList  key.Binding
	ExportMRVA  key.Binding
	Info        key.Binding
	Filter      key.Binding
	EditPattern key.Binding
	Unset       key.Binding
	Run         key.Binding
	Edit        key.Binding
	Transcripts key.Binding
	Delete      key.Binding
	ClearCache  key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

var Keys = KeyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
	ShiftTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-tab", "prev pane")),
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Copy:        key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "copy path")),
	ClearAll:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
	ExportList:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export list")),
	ExportMRVA:  key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export gh-mrva")),
	Info:        key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "details")),
	Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	EditPattern: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "edit regex")),
	Unset:       key.NewBinding(key.WithKeys("x", "backspace"), key.WithHelp("x", "unset")),
	Run:         key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter", "run step")),
	Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit settings")),
	Transcripts: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "transcripts")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	ClearCache:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete all")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/left", "previous value")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/right", "next value")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
}
