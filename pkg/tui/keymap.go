package tui

import "github.com/charmbracelet/bubbles/key"

type focus int

const (
	focusQuery focus = iota
	focusResults
)

type statefulKeymap struct {
	focus focus

	quit, back, switchFocus,
	up, down, pageUp, pageDown,
	toggle, clear, mediaType,
	importSelected, help key.Binding
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		switchFocus: key.NewBinding(
			key.WithKeys("tab", "enter"),
			key.WithHelp("tab", "switch focus"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		pageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		pageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdown", "page down"),
		),
		toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "select"),
		),
		clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear selection"),
		),
		mediaType: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "photos/videos"),
		),
		importSelected: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import selected"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	switch k.focus {
	case focusQuery:
		return []key.Binding{k.switchFocus, k.mediaType, k.quit}
	default:
		return []key.Binding{k.toggle, k.importSelected, k.back, k.help}
	}
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.pageUp, k.pageDown},
		{k.toggle, k.clear, k.importSelected},
		{k.switchFocus, k.mediaType, k.back, k.quit},
	}
}
