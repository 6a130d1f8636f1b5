package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter    key.Binding
	language key.Binding
	dryRun   key.Binding
	aiHints  key.Binding
	back     key.Binding
	yes      key.Binding
	no       key.Binding
	restart  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		language: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "language")),
		dryRun:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "dry run")),
		aiHints:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "ai hints")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:      key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "build")),
		no:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "edit")),
		restart:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new playlist")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.language, k.dryRun, k.aiHints},
		{k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}
