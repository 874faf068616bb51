package views

import (
	"strings"
	"time"

	"github.com/rivo/tview"
)

// display prepares user-supplied text for a dynamic-color view.
func display(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}

func formatTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now = now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02 15:04")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
