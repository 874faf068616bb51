package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestViewBindingShadowsGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "Quit", Handler: func() { got = "global" }})
	r.AddView("thread", &Action{Key: tcell.KeyRune, Rune: 'q', Description: "Back", Handler: func() { got = "view" }})

	require.True(t, r.HandleEvent("thread", runeKey('q')))
	assert.Equal(t, "view", got)

	require.True(t, r.HandleEvent("conversations", runeKey('q')))
	assert.Equal(t, "global", got)

	assert.False(t, r.HandleEvent("thread", runeKey('z')))
}

func TestSpecialKeyMatch(t *testing.T) {
	r := NewRegistry()
	called := false
	r.AddView("users", &Action{Key: tcell.KeyCtrlS, Description: "Create", Handler: func() { called = true }})

	require.True(t, r.HandleEvent("users", tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl)))
	assert.True(t, called)
}

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	noop := func() {}
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true, Handler: noop})
	r.AddView("conversations", &Action{Key: tcell.KeyRune, Rune: 'n', Description: "New chat", Visible: true, Handler: noop})
	r.AddView("conversations", &Action{Key: tcell.KeyRune, Rune: '1', Label: "1-9", Description: "Jump", Visible: true, Handler: noop})
	r.AddView("conversations", &Action{Key: tcell.KeyRune, Rune: '2', Description: "hidden", Handler: noop})
	r.AddView("conversations", &Action{Key: tcell.KeyCtrlR, Description: "Reload", Visible: true, Handler: noop})

	hints := r.Hints("conversations")
	require.Len(t, hints, 4)
	assert.Equal(t, "n", hints[0].Key)
	assert.Equal(t, "1-9", hints[1].Key)
	assert.True(t, hints[1].Numeric)
	assert.Equal(t, "Ctrl-R", hints[2].Key)
	assert.Equal(t, "?", hints[3].Key)
}
