package tui

import "fmt"

// moduleItem represents one module in the active tab's module list.
type moduleItem struct {
	path     string
	selected bool
}

func (i moduleItem) Title() string {
	prefix := "[ ]"
	if i.selected {
		prefix = "[✓]"
	}
	return fmt.Sprintf("%s %s", prefix, i.path)
}
func (i moduleItem) Description() string { return i.path }
func (i moduleItem) FilterValue() string { return i.path }

// goalItem represents one runnable goal: built-in or user-configured.
type goalItem struct {
	name        string
	description string
	goals       []string
}

func (i goalItem) Title() string       { return i.name }
func (i goalItem) Description() string { return i.description }
func (i goalItem) FilterValue() string { return i.name }

// profileItem represents one Maven profile with its current selection
// glyph: ' ' Default, '+' ExplicitOn, '-' ExplicitOff.
type profileItem struct {
	id     string
	glyph  string
	source string
}

func (i profileItem) Title() string       { return fmt.Sprintf("[%s] %s", i.glyph, i.id) }
func (i profileItem) Description() string { return i.source }
func (i profileItem) FilterValue() string { return i.id }
