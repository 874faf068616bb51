package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/tui/ui"
)

// StatusBar displays persistent sync status.
type StatusBar struct {
	*tview.TextView
	theme    *ui.Theme
	profile  string
	user     string
	list     string
	messages string
	pending  int
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// SetSession updates the profile and user display. An empty user means
// logged out.
func (sb *StatusBar) SetSession(profile, user string) {
	sb.profile = profile
	sb.user = user
	sb.render()
}

// SetStates updates the list and message sync states.
func (sb *StatusBar) SetStates(list, messages string) {
	sb.list = list
	sb.messages = messages
	sb.render()
}

// SetPending updates the count of unconfirmed sends in the open chat.
func (sb *StatusBar) SetPending(n int) {
	sb.pending = n
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.line(time.Now()))
}

func (sb *StatusBar) line(now time.Time) string {
	user := sb.user
	if user == "" {
		user = "logged out"
	}
	syncIcon := " "
	if sb.list == "LOADING" || sb.messages == "LOADING" {
		syncIcon = fmt.Sprintf("[%s]~[-]", ui.ColorTag(sb.theme.OnlineColor))
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | chats %s | messages %s %s | %s",
		tview.Escape(sb.profile), tview.Escape(user), orDash(sb.list), orDash(sb.messages), syncIcon, now.Format("15:04"))
	if sb.pending > 0 {
		line += fmt.Sprintf(" | [%s]%d sending[-]", ui.ColorTag(sb.theme.PendingColor), sb.pending)
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
