package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/tui/ui"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// FocusTarget implements Component.
func (hv *HelpView) FocusTarget() tview.Primitive { return hv }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)
	k := func(s string) string { return fmt.Sprintf("[%s]%s[-:-:-]", kc, tview.Escape(s)) }

	_, _ = fmt.Fprintf(hv, `
  [::b]Global Keys[-:-:-]

  %s     Command mode        %s   Dismiss error / go back
  %s     Help                %s  Quit

  [::b]Conversation List[-:-:-]

  %s  Open conversation    %s     Filter by name
  %s    Jump to Nth chat     %s     Start a direct chat
  %s     New group            %s Reload list

  [::b]Message Thread[-:-:-]

  %s     Focus composer       %s     Details and members
  %s     Reload messages      %s   Leave composer
  %s Send a GIF       %s Send a file
  Append %s to a GIF or file line to add a caption.

  [::b]Group Details[-:-:-]

  %s     Add member           %s     Remove selected member

  [::b]User Picker[-:-:-]

  %s   Switch field         %s Choose user
  %s Create group from picked members
  %s Clear picked members

  [::b]Commands[-:-:-]

  %s  Filter chats        %s         Start a direct chat
  %s  Create a group   %s     Members of current chat
  %s                Reload         %s        Log out
  %s                  Help           %s             Quit
`,
		k(":"), k("Esc"),
		k("?"), k("Ctrl-C"),
		k("Enter"), k("/"),
		k("1-9"), k("n"),
		k("g"), k("Ctrl-R"),
		k("i"), k("d"),
		k("r"), k("Esc"),
		k("/gif <url>"), k("/attach <path>"),
		k(" -- caption"),
		k("a"), k("x"),
		k("Tab"), k("Enter"),
		k("Ctrl-S"),
		k("Ctrl-U"),
		k(":chat <name>"), k(":dm"),
		k(":group <name>"), k(":members"),
		k(":reload"), k(":logout"),
		k(":help"), k(":quit"),
	)
}
