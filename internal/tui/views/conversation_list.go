package views

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/store"
	"github.com/matheus3301/chatr/internal/tui/ui"
)

// ConversationList is the main chat list view.
type ConversationList struct {
	*tview.Table
	theme    *ui.Theme
	convs    []store.Conversation
	visible  []store.Conversation
	selected string
	filter   string
	state    string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// FocusTarget implements Component.
func (cl *ConversationList) FocusTarget() tview.Primitive { return cl }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
	}
}

// Update replaces the rows. selected is the engine's current conversation;
// the cursor follows it when it is visible.
func (cl *ConversationList) Update(convs []store.Conversation, selected string) {
	cl.convs = convs
	cl.selected = selected
	cl.render()
}

// SetState shows the list's sync state in the title, e.g. LOADING.
func (cl *ConversationList) SetState(state string) {
	cl.state = state
	cl.renderTitle()
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.SetFilter("")
}

// Filter returns the active filter text.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	cursor := cl.SelectedConversation()
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" TYPE", 0},
		{" UNREAD", 0},
		{" ", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.convs {
		if cl.filter != "" && !containsFold(c.Name, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
	}

	if cursor == "" {
		cursor = cl.selected
	}
	cursorRow := 1
	for i, c := range cl.visible {
		row := i + 1
		if c.ID == cursor {
			cursorRow = row
		}
		nameColor := cl.theme.FgColor
		unread := ""
		if c.Unread > 0 {
			nameColor = cl.theme.UnreadColor
			unread = strconv.Itoa(c.Unread)
		}
		online := ""
		if c.Online != nil && *c.Online {
			online = "●"
		}

		name := tview.NewTableCell(" " + display(c.Name)).SetExpansion(1).SetTextColor(nameColor)
		if c.Unread > 0 {
			name.SetAttributes(tcell.AttrBold)
		}
		cl.SetCell(row, 0, name)
		cl.SetCell(row, 1, tview.NewTableCell(" "+kindLabel(c)).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(unread).SetTextColor(cl.theme.UnreadColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 3, tview.NewTableCell(" "+online).SetTextColor(cl.theme.OnlineColor))
	}
	if len(cl.visible) > 0 {
		cl.Select(cursorRow, 0)
	}
	cl.renderTitle()
}

func (cl *ConversationList) renderTitle() {
	title := fmt.Sprintf(" Conversations (%d) ", len(cl.convs))
	if cl.filter != "" {
		title = fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter))
	}
	if cl.state != "" {
		title += fmt.Sprintf("[::d]%s[-:-:-] ", cl.state)
	}
	cl.SetTitle(title)
}

// SelectedConversation returns the id of the conversation under the cursor.
func (cl *ConversationList) SelectedConversation() string {
	row, _ := cl.GetSelection()
	return cl.ConversationByIndex(row)
}

// ConversationByIndex returns the id of the Nth visible conversation
// (1-based).
func (cl *ConversationList) ConversationByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].ID
}

func kindLabel(c store.Conversation) string {
	if c.IsGroup() {
		return "GROUP"
	}
	return "DM"
}
