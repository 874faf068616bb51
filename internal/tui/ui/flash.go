package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/chatr/internal/notify"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// LevelOf maps an error kind to the level it is shown at.
func LevelOf(kind notify.Kind) FlashLevel {
	switch kind {
	case notify.Validation:
		return FlashWarn
	case notify.Transient, notify.SendFailure, notify.Fatal:
		return FlashErr
	default:
		return FlashInfo
	}
}

// FlashMessage is a flash notification with a level and expiry. A zero
// Expires never lapses.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

func (m FlashMessage) expired(now time.Time) bool {
	return !m.Expires.IsZero() && now.After(m.Expires)
}

// FlashModel holds the message shown on the flash bar. Sticky messages
// mirror the session banner and stay until cleared.
type FlashModel struct {
	mu      sync.RWMutex
	current *FlashMessage
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{}
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) {
	f.set(msg, FlashInfo, 5*time.Second)
}

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) {
	f.set(msg, FlashWarn, 8*time.Second)
}

// Err sets an error-level flash message.
func (f *FlashModel) Err(err error) {
	f.set(err.Error(), FlashErr, 10*time.Second)
}

// Sticky shows a banner entry until Clear.
func (f *FlashModel) Sticky(e notify.Entry) {
	f.mu.Lock()
	f.current = &FlashMessage{Text: e.Message, Level: LevelOf(e.Kind)}
	f.mu.Unlock()
}

// Clear removes the current message.
func (f *FlashModel) Clear() {
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()
}

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	f.current = &FlashMessage{
		Text:    msg,
		Level:   level,
		Expires: time.Now().Add(d),
	}
	f.mu.Unlock()
}

// GetMessage returns the current flash message, or nil if expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current == nil || f.current.expired(time.Now()) {
		return nil
	}
	m := *f.current
	return &m
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders a flash message on the bar.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	var color string
	switch msg.Level {
	case FlashInfo:
		color = colorName(fb.theme.FlashInfoColor)
	case FlashWarn:
		color = colorName(fb.theme.FlashWarnColor)
	case FlashErr:
		color = colorName(fb.theme.FlashErrColor)
	}
	hint := ""
	if msg.Expires.IsZero() {
		hint = " [::d](Esc to dismiss)[-:-:-]"
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]%s", color, tview.Escape(msg.Text), hint)
}
