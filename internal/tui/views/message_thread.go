package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/store"
	"github.com/matheus3301/chatr/internal/tui/ui"
)

// MessageThread displays messages and a composer for a single chat.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	conv     store.Conversation
	state    string
	onSend   func(line string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus, /gif <url>, /attach <path>, -- caption) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil {
			return
		}
		line := composer.GetText()
		if strings.TrimSpace(line) == "" {
			return
		}
		composer.SetText("")
		mt.onSend(line)
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.conv.Name != "" {
		return mt.conv.Name
	}
	return "Messages"
}

// FocusTarget implements Component.
func (mt *MessageThread) FocusTarget() tview.Primitive { return mt.Messages() }

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
	}
}

// SetConversation points the thread at conv and clears the view.
func (mt *MessageThread) SetConversation(conv store.Conversation) {
	if conv.ID != mt.conv.ID {
		mt.messages.Clear()
	}
	mt.conv = conv
	mt.renderTitle()
}

// ConversationID returns the id the thread shows.
func (mt *MessageThread) ConversationID() string {
	return mt.conv.ID
}

// SetState shows the message sync state in the title.
func (mt *MessageThread) SetState(state string) {
	mt.state = state
	mt.renderTitle()
}

// SetOnSend sets the callback run with the raw composer line.
func (mt *MessageThread) SetOnSend(fn func(line string)) {
	mt.onSend = fn
}

func (mt *MessageThread) renderTitle() {
	title := fmt.Sprintf(" %s ", display(mt.Name()))
	if mt.conv.Online != nil && *mt.conv.Online {
		title += fmt.Sprintf("[%s]●[-] ", ui.ColorTag(mt.theme.OnlineColor))
	}
	if mt.state != "" {
		title += fmt.Sprintf("[::d]%s[-:-:-] ", mt.state)
	}
	mt.messages.SetTitle(title)
}

// Update renders msgs, oldest first.
func (mt *MessageThread) Update(msgs []store.Message) {
	mt.messages.Clear()
	_, _ = fmt.Fprint(mt.messages, renderMessages(msgs, mt.theme, time.Now()))
	mt.messages.ScrollToEnd()
}

func renderMessages(msgs []store.Message, theme *ui.Theme, now time.Time) string {
	var b strings.Builder
	for _, m := range msgs {
		sender := m.SenderName
		color := ui.ColorTag(theme.FgColor)
		if m.IsMine {
			sender = "You"
			color = ui.ColorTag(theme.MineColor)
		}
		ts := formatTime(m.CreatedAt, now)
		if m.IsPending() {
			ts = "sending…"
			color = ui.ColorTag(theme.PendingColor)
		}
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n", color, display(sender), ts)
		fmt.Fprintf(&b, "%s\n\n", renderContent(m.Content))
	}
	return b.String()
}

func renderContent(c store.Content) string {
	var lines []string
	if c.Text() != "" {
		lines = append(lines, display(c.Text()))
	}
	if c.GIFURL() != "" {
		lines = append(lines, "[::i]GIF[-:-:-] "+display(c.GIFURL()))
	}
	if att, ok := c.Attachment(); ok {
		name := att.FileName
		if name == "" {
			name = att.ID
		}
		lines = append(lines, "[::i]File[-:-:-] "+display(name))
	}
	if len(lines) == 0 {
		return "[::d](empty)[-:-:-]"
	}
	return strings.Join(lines, "\n")
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
