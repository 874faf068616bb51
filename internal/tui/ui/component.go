package ui

import "github.com/rivo/tview"

// MenuHint is one key shown in the header menu.
type MenuHint struct {
	Key         string
	Description string
	// Numeric hints (jump keys) get their own color.
	Numeric bool
}

// Component is a page of the TUI.
type Component interface {
	tview.Primitive
	// Name is the page title shown in the breadcrumbs.
	Name() string
	Hints() []MenuHint
	// FocusTarget returns the primitive that takes focus when the page is shown.
	FocusTarget() tview.Primitive
}
