package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit   key.Binding
	Clear    key.Binding
	NextLang key.Binding
	PrevLang key.Binding
	Preview  key.Binding
	Copy     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "review code"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "clear"),
	),
	NextLang: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next language"),
	),
	PrevLang: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-tab", "prev language"),
	),
	Preview: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "highlighted preview"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy review"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Clear, k.NextLang, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Clear, k.Copy},
		{k.NextLang, k.PrevLang, k.Preview},
		{k.Help, k.Quit},
	}
}

// offlineKeys are the only bindings shown while the service is unreachable.
type offlineKeys struct{}

func (offlineKeys) ShortHelp() []key.Binding { return []key.Binding{keys.Quit} }
func (offlineKeys) FullHelp() [][]key.Binding { return [][]key.Binding{{keys.Quit}} }
