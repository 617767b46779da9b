package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause     key.Binding
	NextScene key.Binding
	PrevScene key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause"),
		),
		NextScene: key.NewBinding(
			key.WithKeys("v", "tab", "right", "l"),
			key.WithHelp("v", "next scene"),
		),
		PrevScene: key.NewBinding(
			key.WithKeys("V", "shift+tab", "left", "h"),
			key.WithHelp("V", "prev scene"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.NextScene, k.PrevScene, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
