package nowplaying

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the now-playing bindings.
type KeyMap struct {
	Toggle     key.Binding
	Next       key.Binding
	Prev       key.Binding
	SeekBack   key.Binding
	SeekFwd    key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Like       key.Binding
	Lyrics     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Prev:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		SeekBack:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5s")),
		SeekFwd:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5s")),
		VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		VolumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		Like:       key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		Lyrics:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "lyrics")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Prev, k.Like, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Next, k.Prev},
		{k.SeekBack, k.SeekFwd},
		{k.VolumeUp, k.VolumeDown},
		{k.Like, k.Lyrics, k.Help, k.Quit},
	}
}
