package ui

import "github.com/charmbracelet/bubbles/key"

// readerKeyMap holds the key bindings of the reader screen.
type readerKeyMap struct {
	Toggle  key.Binding
	Restart key.Binding
	Clear   key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newReaderKeyMap() readerKeyMap {
	return readerKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "play/pause"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r", "home"),
			key.WithHelp("r", "restart"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Faster: key.NewBinding(
			key.WithKeys("up", "+", "=", "k"),
			key.WithHelp("↑/+", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("down", "-", "j"),
			key.WithHelp("↓/-", "slower"),
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
}

// ShortHelp implements help.KeyMap.
func (k readerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Faster, k.Slower, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k readerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Restart, k.Clear},
		{k.Faster, k.Slower},
		{k.Help, k.Quit},
	}
}

// inputKeyMap holds the key bindings of the paste screen.
type inputKeyMap struct {
	Load      key.Binding
	Clipboard key.Binding
	Reload    key.Binding
	Quit      key.Binding
}

func newInputKeyMap() inputKeyMap {
	return inputKeyMap{
		Load: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "read pasted text"),
		),
		Clipboard: key.NewBinding(
			key.WithKeys("alt+v"),
			key.WithHelp("alt+v", "read clipboard"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload source"),
			key.WithDisabled(),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k inputKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Load, k.Clipboard, k.Reload, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k inputKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
