package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Enter   key.Binding
	Capture key.Binding
	Cancel  key.Binding
	Reset   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "continue"),
	),
	Capture: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "take photo"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "try again"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
