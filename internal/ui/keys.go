package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	SwitchView key.Binding
	Filters    key.Binding
	Search     key.Binding
	Refresh    key.Binding
	Debug      key.Binding

	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Top   key.Binding
	End   key.Binding

	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Recenter key.Binding

	Apply   key.Binding
	Reset   key.Binding
	Discard key.Binding
	Toggle  key.Binding
	Edit    key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	SwitchView: key.NewBinding(key.WithKeys("tab", "m"), key.WithHelp("tab", "list/map")),
	Filters:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Debug:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "activity")),

	Up:    key.NewBinding(key.WithKeys("k", "up")),
	Down:  key.NewBinding(key.WithKeys("j", "down")),
	Left:  key.NewBinding(key.WithKeys("h", "left")),
	Right: key.NewBinding(key.WithKeys("l", "right")),
	Top:   key.NewBinding(key.WithKeys("g", "home")),
	End:   key.NewBinding(key.WithKeys("G", "end")),

	ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Recenter: key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "recenter")),

	Apply:   key.NewBinding(key.WithKeys("enter", "a"), key.WithHelp("enter", "apply")),
	Reset:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset")),
	Discard: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Edit:    key.NewBinding(key.WithKeys("e", "/"), key.WithHelp("e", "edit query")),
}
