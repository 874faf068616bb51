package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/chatr/internal/notify"
)

func TestFlashStickyStaysUntilCleared(t *testing.T) {
	f := NewFlashModel()
	f.Sticky(notify.Entry{Kind: notify.SendFailure, Message: "send failed", At: time.Now()})

	msg := f.GetMessage()
	require.NotNil(t, msg)
	assert.Equal(t, "send failed", msg.Text)
	assert.Equal(t, FlashErr, msg.Level)
	assert.True(t, msg.Expires.IsZero())

	f.Clear()
	assert.Nil(t, f.GetMessage())
}

func TestFlashExpires(t *testing.T) {
	f := NewFlashModel()
	f.set("gone", FlashInfo, -time.Second)
	assert.Nil(t, f.GetMessage())

	f.Err(errors.New("boom"))
	msg := f.GetMessage()
	require.NotNil(t, msg)
	assert.Equal(t, FlashErr, msg.Level)
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, FlashWarn, LevelOf(notify.Validation))
	assert.Equal(t, FlashErr, LevelOf(notify.Transient))
	assert.Equal(t, FlashErr, LevelOf(notify.SendFailure))
	assert.Equal(t, FlashInfo, LevelOf(notify.Background))
}

func TestMenuLayoutColumns(t *testing.T) {
	m := NewMenu(DefaultTheme())
	var hints []MenuHint
	for i := 0; i < MenuRows+2; i++ {
		hints = append(hints, MenuHint{Key: "k", Description: "d"})
	}
	out := m.layout(hints)
	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	assert.Equal(t, MenuRows-1, lines)
	assert.Equal(t, "", m.layout(nil))
}

func TestCrumbsClipAndCollapse(t *testing.T) {
	c := NewCrumbs(DefaultTheme())

	out := c.render([]string{"Conversations", "a very long conversation name indeed", "Details"})
	if !strings.Contains(out, "a very long conversatio…") {
		t.Errorf("long title not clipped: %q", out)
	}
	if strings.Count(out, " > ") != 2 {
		t.Errorf("want 3 crumbs, got %q", out)
	}

	out = c.render([]string{"a", "b", "c", "d", "e", "f"})
	if !strings.Contains(out, "+2") {
		t.Errorf("hidden count missing: %q", out)
	}
	if strings.Contains(out, " a ") || !strings.Contains(out, " f ") {
		t.Errorf("wrong crumbs kept: %q", out)
	}

	if c.render(nil) != "" {
		t.Error("empty stack should render nothing")
	}
}
