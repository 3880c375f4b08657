package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Flip      key.Binding
	Correct   key.Binding
	Incorrect key.Binding
	Submit    key.Binding
	Speak     key.Binding
	TypedSay  key.Binding
	Review    key.Binding
	Again     key.Binding
	Back      key.Binding
	Start     key.Binding
	Mode      key.Binding
	Search    key.Binding
	Import    key.Binding
	Settings  key.Binding
	Delete    key.Binding
	Confirm   key.Binding
	NextField key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Flip:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "flip")),
		Correct:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "correct")),
		Incorrect: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "incorrect")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "check")),
		Speak:     key.NewBinding(key.WithKeys("p", "ctrl+p"), key.WithHelp("p", "play")),
		TypedSay:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
		Review:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "review missed")),
		Again:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "new round")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Start:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "study")),
		Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		Search:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search")),
		Import:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Settings:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "speech")),
		Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Confirm:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		NextField: key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"), key.WithHelp("tab", "next field")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
