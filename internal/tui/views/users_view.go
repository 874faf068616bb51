package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/groups"
	"github.com/matheus3301/chatr/internal/tui/ui"
)

// UsersView is a search-as-you-type user picker. The host decides what
// choosing a user means: opening a direct chat, picking a group member or
// adding one to a group.
type UsersView struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	picked   *tview.TextView
	results  *tview.Table
	data     []groups.Member
	hints    []ui.MenuHint
	onQuery  func(query string)
	onChoose func(m groups.Member)
}

// NewUsersView creates a new user picker.
func NewUsersView(theme *ui.Theme) *UsersView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	picked := tview.NewTextView().
		SetDynamicColors(true)
	picked.SetBackgroundColor(theme.BgColor)
	picked.SetTextColor(theme.CounterColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Users ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(picked, 1, 0, false).
		AddItem(results, 0, 1, false)

	uv := &UsersView{
		Flex:    flex,
		theme:   theme,
		input:   input,
		picked:  picked,
		results: results,
	}

	input.SetChangedFunc(func(text string) {
		if uv.onQuery != nil {
			uv.onQuery(text)
		}
	})
	results.SetSelectedFunc(func(row, _ int) {
		if m, ok := uv.memberAt(row); ok && uv.onChoose != nil {
			uv.onChoose(m)
		}
	})
	return uv
}

// Name implements Component.
func (uv *UsersView) Name() string { return "Users" }

// FocusTarget implements Component.
func (uv *UsersView) FocusTarget() tview.Primitive { return uv.Input() }

// Hints implements Component.
func (uv *UsersView) Hints() []ui.MenuHint {
	base := []ui.MenuHint{
		{Key: "Tab", Description: "Input/Results"},
		{Key: "Enter", Description: "Choose"},
		{Key: "Esc", Description: "Back"},
	}
	return append(base, uv.hints...)
}

// Configure prepares the picker for a new round: it sets the title and
// extra hints, clears the field and results, and installs the callbacks.
func (uv *UsersView) Configure(title string, hints []ui.MenuHint, onQuery func(string), onChoose func(groups.Member)) {
	uv.onQuery = nil
	uv.input.SetText("")
	uv.onQuery = onQuery
	uv.onChoose = onChoose
	uv.hints = hints
	uv.results.SetTitle(fmt.Sprintf(" %s ", tview.Escape(title)))
	uv.Update(nil)
	uv.SetPicked(nil)
}

// Update refreshes the result rows.
func (uv *UsersView) Update(found []groups.Member) {
	uv.data = found
	uv.results.Clear()

	headers := []string{" USERNAME", " EMAIL"}
	for col, h := range headers {
		uv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(uv.theme.TableHeaderFg).
			SetBackgroundColor(uv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}

	for i, m := range found {
		row := i + 1
		uv.results.SetCell(row, 0, tview.NewTableCell(" "+display(m.Username)).SetExpansion(1).SetTextColor(uv.theme.FgColor))
		uv.results.SetCell(row, 1, tview.NewTableCell(" "+display(m.Email)).SetExpansion(1).SetTextColor(uv.theme.FgColor))
	}
	if len(found) > 0 {
		uv.results.Select(1, 0)
	}
}

// SetPicked shows the members chosen so far. Nil hides the line.
func (uv *UsersView) SetPicked(picked []groups.Member) {
	uv.picked.Clear()
	if len(picked) == 0 {
		return
	}
	names := make([]string, len(picked))
	for i, m := range picked {
		names[i] = display(m.Username)
	}
	_, _ = fmt.Fprintf(uv.picked, " Picked: %s", strings.Join(names, ", "))
}

func (uv *UsersView) memberAt(row int) (groups.Member, bool) {
	if row < 1 || row > len(uv.data) {
		return groups.Member{}, false
	}
	return uv.data[row-1], true
}

// Input returns the search input field.
func (uv *UsersView) Input() *tview.InputField {
	return uv.input
}

// Results returns the results table.
func (uv *UsersView) Results() *tview.Table {
	return uv.results
}
