package tui

import "github.com/charmbracelet/bubbles/key"

type WatchKeyMap struct {
	Toggle key.Binding
	Stop   key.Binding
	Quit   key.Binding
	Help   key.Binding
}

func (k WatchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Quit, k.Help}
}

func (k WatchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop},
		{k.Quit, k.Help},
	}
}

func DefaultWatchKeyMap() WatchKeyMap {
	return WatchKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit (timer keeps running)"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}
