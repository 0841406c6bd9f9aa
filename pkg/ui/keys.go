package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the tree browser bindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	Toggle      key.Binding
	Parent      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding

	Reveal key.Binding
	Copy   key.Binding

	AddFolder key.Binding
	Rename    key.Binding
	Move      key.Binding
	Delete    key.Binding

	Refresh key.Binding
	Report  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the vim-flavored default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first row")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last row")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("ctrl+u", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("ctrl+d", "page down")),
		Expand:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "expand or enter folder")),
		Collapse:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "collapse or go to parent")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle folder")),
		Parent:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "jump to parent")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),

		Reveal: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "reveal id or folder path")),
		Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),

		AddFolder: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "new folder")),
		Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Move:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete subtree")),

		Refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Report:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "integrity report")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// FullHelp groups the bindings for the help page.
func (k KeyMap) FullHelp() []keyGroup {
	return []keyGroup{
		{Name: "Navigation", Bindings: []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Parent}},
		{Name: "Folders", Bindings: []key.Binding{k.Expand, k.Collapse, k.Toggle, k.ExpandAll, k.CollapseAll, k.Reveal, k.Copy}},
		{Name: "Editing", Bindings: []key.Binding{k.AddFolder, k.Rename, k.Move, k.Delete}},
		{Name: "General", Bindings: []key.Binding{k.Refresh, k.Report, k.Help, k.Quit}},
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reveal, k.Move, k.Report, k.Help, k.Quit}
}
