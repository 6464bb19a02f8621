package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Filter dimensions
	FilterNew        key.Binding
	FilterInProgress key.Binding
	FilterDone       key.Binding
	FilterPriority   key.Binding
	FilterSite       key.Binding
	FilterDue        key.Binding
	ClearFilters     key.Binding

	// Grouping and sorting
	CycleGroup key.Binding
	CycleSort  key.Binding

	// Views
	Board key.Binding
	Tasks key.Binding
	Sites key.Binding
	Team  key.Binding

	// Report actions
	Move     key.Binding
	Comment  key.Binding
	Priority key.Binding
	DueDate  key.Binding
	Delete   key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "left column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "right column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		FilterNew: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle new"),
		),
		FilterInProgress: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle in progress"),
		),
		FilterDone: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle done"),
		),
		FilterPriority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle priority filter"),
		),
		FilterSite: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "cycle site filter"),
		),
		FilterDue: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "cycle due filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		CycleGroup: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "cycle grouping"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle sort order"),
		),
		Board: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "board"),
		),
		Tasks: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "my tasks"),
		),
		Sites: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sites"),
		),
		Team: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "team"),
		),
		Move: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pick up / drop"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment"),
		),
		Priority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "set priority"),
		),
		DueDate: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "set due date"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete report"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Left, k.Right,
		k.Select, k.Back, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.FilterNew, k.FilterInProgress, k.FilterDone, k.FilterPriority, k.FilterSite, k.FilterDue, k.ClearFilters, k.CycleGroup, k.CycleSort},
		{k.Board, k.Tasks, k.Sites, k.Team},
		{k.Move, k.Comment, k.Priority, k.DueDate, k.Delete},
	}
}
