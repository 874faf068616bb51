package keys

import (
	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/chatr/internal/tui/ui"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

func (a *Action) hint() ui.MenuHint {
	label := a.Label
	if label == "" {
		if a.Key == tcell.KeyRune {
			label = string(a.Rune)
		} else {
			label = tcell.KeyNames[a.Key]
		}
	}
	return ui.MenuHint{Key: label, Description: a.Description, Numeric: a.Rune >= '0' && a.Rune <= '9'}
}

// Registry holds keybindings organized by scope, in registration order.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[string][]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(action *Action) {
	r.global = append(r.global, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view string, action *Action) {
	r.views[view] = append(r.views[view], action)
}

// Hints returns visible keybindings for a view, view bindings first.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, a := range r.views[view] {
		if a.Visible {
			hints = append(hints, a.hint())
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.hint())
		}
	}
	return hints
}

// HandleEvent dispatches a key event to the first matching action in the
// given view, then to the global bindings. Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
