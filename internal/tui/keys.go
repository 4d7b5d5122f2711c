package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// Global navigation
	Quit key.Binding
	Back key.Binding

	// Page navigation
	NewRoomPage  key.Binding
	RegisterPage key.Binding
	Refresh      key.Binding
	Logout       key.Binding

	// Context-specific
	Enter       key.Binding
	Tab         key.Binding
	Up          key.Binding
	Down        key.Binding
	LeaveRoom   key.Binding
	Roster      key.Binding
	LoadEarlier key.Binding
}

var keys = keyMap{
	// Global navigation
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back/cancel"),
	),

	// Page navigation
	NewRoomPage: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new room"),
	),
	RegisterPage: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "register"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Logout: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "log out"),
	),

	// Context-specific
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "next field"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "down"),
	),
	LeaveRoom: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "leave room"),
	),
	Roster: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "participants"),
	),
	LoadEarlier: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "earlier messages"),
	),
}
