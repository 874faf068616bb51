package ui

import (
	"testing"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPages(names ...string) *Pages {
	p := NewPages()
	for _, n := range names {
		p.AddPage(n, tview.NewBox(), true, false)
	}
	return p
}

func TestPagesPushPop(t *testing.T) {
	p := newTestPages("list", "thread", "details")
	var seen [][]string
	p.SetOnChange(func(stack []string) { seen = append(seen, stack) })

	p.Push("list")
	p.Push("thread")
	assert.Equal(t, "thread", p.Current())
	assert.Equal(t, 2, p.Depth())

	assert.Equal(t, "thread", p.Pop())
	assert.Equal(t, "list", p.Current())
	name, _ := p.GetFrontPage()
	assert.Equal(t, "list", name)

	require.Len(t, seen, 3)
	assert.Equal(t, []string{"list", "thread"}, seen[1])
}

func TestPagesPopEmpty(t *testing.T) {
	p := newTestPages()
	assert.Equal(t, "", p.Pop())
	assert.Equal(t, "", p.Current())
}

func TestPagesPushMovesExistingToTop(t *testing.T) {
	p := newTestPages("list", "thread", "details")
	p.Push("list")
	p.Push("thread")
	p.Push("details")
	p.Push("thread")

	assert.Equal(t, []string{"list", "details", "thread"}, p.Stack())
}

func TestPagesPopTo(t *testing.T) {
	p := newTestPages("list", "thread", "details")
	p.Push("list")
	p.Push("thread")
	p.Push("details")

	require.True(t, p.PopTo("list"))
	assert.Equal(t, []string{"list"}, p.Stack())
	assert.False(t, p.Contains("thread"))

	assert.False(t, p.PopTo("missing"))
	assert.Equal(t, []string{"list"}, p.Stack())
}

func TestPagesReset(t *testing.T) {
	p := newTestPages("login", "list", "thread")
	p.Push("list")
	p.Push("thread")

	p.Reset("login")
	assert.Equal(t, []string{"login"}, p.Stack())
	name, _ := p.GetFrontPage()
	assert.Equal(t, "login", name)
}
