package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/groups"
	"github.com/matheus3301/chatr/internal/store"
	"github.com/matheus3301/chatr/internal/tui/ui"
)

// ConversationInfo displays a conversation's details and, for groups, its
// roster.
type ConversationInfo struct {
	*tview.Flex
	theme   *ui.Theme
	details *tview.TextView
	members *tview.Table
	conv    store.Conversation
	roster  []groups.Member
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	members := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	members.SetBorder(true)
	members.SetBorderColor(theme.BorderColor)
	members.SetBackgroundColor(theme.BgColor)
	members.SetTitle(" Members ")
	members.SetTitleColor(theme.TitleColor)
	members.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tv, 7, 0, false).
		AddItem(members, 0, 1, true)

	return &ConversationInfo{
		Flex:    flex,
		theme:   theme,
		details: tv,
		members: members,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// FocusTarget implements Component.
func (ci *ConversationInfo) FocusTarget() tview.Primitive { return ci.Members() }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// ConversationID returns the id being shown.
func (ci *ConversationInfo) ConversationID() string { return ci.conv.ID }

// Update renders conv and its roster. The roster is ignored for direct chats.
func (ci *ConversationInfo) Update(conv store.Conversation, roster []groups.Member) {
	ci.conv = conv
	ci.roster = nil
	if conv.IsGroup() {
		ci.roster = roster
	}
	ci.renderDetails()
	ci.renderMembers()
}

func (ci *ConversationInfo) renderDetails() {
	ci.details.Clear()
	fg := ui.ColorTag(ci.theme.FgColor)
	ct := ui.ColorTag(ci.theme.CounterColor)

	chatType := "Direct Message"
	if ci.conv.IsGroup() {
		chatType = "Group"
	}
	presence := "-"
	if ci.conv.Online != nil {
		presence = "offline"
		if *ci.conv.Online {
			presence = "online"
		}
	}

	_, _ = fmt.Fprintf(ci.details,
		" [%s::b]Name:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]ID:[-:-:-]       [%s]%s[-]\n"+
			" [%s::b]Type:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]Unread:[-:-:-]   [%s]%d[-]\n"+
			" [%s::b]Presence:[-:-:-] [%s]%s[-]",
		fg, ct, display(ci.conv.Name),
		fg, ct, display(ci.conv.ID),
		fg, ct, chatType,
		fg, ct, ci.conv.Unread,
		fg, ct, presence,
	)
	ci.details.SetTitle(fmt.Sprintf(" %s Details ", display(ci.conv.Name)))
}

func (ci *ConversationInfo) renderMembers() {
	ci.members.Clear()
	for col, h := range []string{" USERNAME", " EMAIL", " ROLE"} {
		ci.members.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(ci.theme.TableHeaderFg).
			SetBackgroundColor(ci.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}
	if !ci.conv.IsGroup() {
		ci.members.SetTitle(" Members (direct chat) ")
		return
	}
	for i, m := range ci.roster {
		row := i + 1
		ci.members.SetCell(row, 0, tview.NewTableCell(" "+display(m.Username)).SetExpansion(1).SetTextColor(ci.theme.FgColor))
		ci.members.SetCell(row, 1, tview.NewTableCell(" "+display(m.Email)).SetExpansion(1).SetTextColor(ci.theme.FgColor))
		ci.members.SetCell(row, 2, tview.NewTableCell(" "+display(m.Role)).SetExpansion(1).SetTextColor(ci.theme.FgColor))
	}
	ci.members.SetTitle(fmt.Sprintf(" Members (%d) ", len(ci.roster)))
}

// SelectedMember returns the roster entry under the cursor.
func (ci *ConversationInfo) SelectedMember() (groups.Member, bool) {
	row, _ := ci.members.GetSelection()
	if row < 1 || row > len(ci.roster) {
		return groups.Member{}, false
	}
	return ci.roster[row-1], true
}

// Members returns the roster table (for focus management).
func (ci *ConversationInfo) Members() *tview.Table {
	return ci.members
}
