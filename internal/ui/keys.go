package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding

	// View switching
	ViewCards key.Binding
	ViewLogs  key.Binding

	// Card actions
	Refresh key.Binding
	Dismiss key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Logs actions
	ToggleFollow key.Binding
	FilterCard   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cards/logs"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Return to cards"),
		),

		ViewCards: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Cards"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh card"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss notice"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up", "left"),
			key.WithHelp("k/up", "Previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down", "right"),
			key.WithHelp("j/down", "Next"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Follow"),
		),
		FilterCard: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Selected card only"),
		),
	}
}

// ShortHelp returns bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Dismiss, k.ViewLogs, k.Help}
}

// FullHelp returns bindings for the help overlay, one group per column.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Tab, k.Escape},
		{k.Refresh, k.Dismiss, k.ViewCards, k.ViewLogs},
		{k.ToggleFollow, k.FilterCard, k.PageUp, k.PageDown},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
