package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Profile       string
	User          string
	Backend       string
	ListState     string
	Conversations int
	Unread        int
	Pending       int
	Since         time.Time
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info. A nil data shows the logged-out header.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()

	fgColor := colorName(si.theme.FgColor)
	counterColor := colorName(si.theme.CounterColor)

	if data == nil {
		_, _ = fmt.Fprintf(si, "[%s::b]User:[-:-:-]    [%s]not logged in[-]", fgColor, counterColor)
		return
	}

	user := data.User
	if user == "" {
		user = "-"
	}
	uptime := "-"
	if !data.Since.IsZero() {
		uptime = formatDuration(time.Since(data.Since))
	}

	text := fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Backend:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Sync:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d (%d unread)[-]\n"+
			"[%s::b]Pending:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]  [%s]%s[-]",
		fgColor, counterColor, tview.Escape(data.Profile),
		fgColor, counterColor, tview.Escape(user),
		fgColor, counterColor, tview.Escape(data.Backend),
		fgColor, counterColor, data.ListState,
		fgColor, counterColor, data.Conversations, data.Unread,
		fgColor, counterColor, data.Pending,
		fgColor, counterColor, uptime,
	)

	_, _ = fmt.Fprint(si, text)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
