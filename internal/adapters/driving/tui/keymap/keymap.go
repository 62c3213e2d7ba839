// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	Up   key.Binding
	Down key.Binding

	// Filter focuses the filter input.
	Filter key.Binding

	// Open shows the detail view for the selected item.
	Open key.Binding

	// Download queues a download of the selected item.
	Download key.Binding

	// Run executes the resolved action on the selected item.
	Run key.Binding

	// Remove deletes the local copy of the selected item.
	Remove key.Binding

	// Refresh forces a catalogue refresh.
	Refresh key.Binding

	// CheckAll queues an update check for every local item.
	CheckAll key.Binding

	// LocalOnly toggles hiding items without a local copy.
	LocalOnly key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		Run: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "run action"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove local"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		CheckAll: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "check updates"),
		),
		LocalOnly: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "local only"),
		),
	}
}

// ShortHelp returns the hints shown in the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Download, k.Run, k.Help, k.Quit}
}

// DetailHelp returns the hints shown in the detail view.
func (k *KeyMap) DetailHelp() []key.Binding {
	return []key.Binding{k.Download, k.Run, k.Remove, k.Back}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Filter, k.LocalOnly},
		{k.Download, k.Run, k.Remove},
		{k.Refresh, k.CheckAll},
		{k.Back, k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
