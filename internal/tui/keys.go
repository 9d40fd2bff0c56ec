package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Skip     key.Binding
	Like     key.Binding
	More     key.Binding
	Restart  key.Binding
	Map      key.Binding
	Liked    key.Binding
	Settings key.Binding
	Back     key.Binding
	UpDown   key.Binding
	Adjust   key.Binding
	Apply    key.Binding
	Remove   key.Binding
	Filter   key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Skip:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "skip")),
		Like:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "like")),
		More:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		Restart:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new search")),
		Map:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "map link")),
		Liked:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "liked")),
		Settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		UpDown:   key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "select")),
		Adjust:   key.NewBinding(key.WithKeys("left", "right", "h", "l", " "), key.WithHelp("←/→", "change")),
		Apply:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// scopedKeys narrows the help line to the active view.
type scopedKeys struct {
	keyMap
	state appState
}

func (k scopedKeys) ShortHelp() []key.Binding {
	switch k.state {
	case viewLiked:
		return []key.Binding{k.UpDown, k.Map, k.Remove, k.Filter, k.Back, k.Quit}
	case viewSettings:
		return []key.Binding{k.UpDown, k.Adjust, k.Apply, k.Back}
	default:
		return []key.Binding{k.Skip, k.Like, k.More, k.Restart, k.Map, k.Liked, k.Settings, k.Quit}
	}
}

func (k scopedKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
