package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	toggle  key.Binding
	next    key.Binding
	prev    key.Binding
	volUp   key.Binding
	volDown key.Binding
	enter   key.Binding
	random  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next track")),
		prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous track")),
		volUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play selected")),
		random:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random playlist")),
		refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh catalog")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.enter, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.toggle, k.next, k.prev},
		{k.volUp, k.volDown, k.random},
		{k.refresh, k.quit},
	}
}
