package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

const (
	crumbMaxName  = 24
	crumbMaxShown = 4
)

// Crumbs shows the page stack as a breadcrumb trail.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs creates an empty breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update renders titles, oldest first. Titles can be conversation names, so
// they are escaped and clipped; deep stacks keep only the newest entries.
func (c *Crumbs) Update(titles []string) {
	c.Clear()
	_, _ = fmt.Fprint(c, c.render(titles))
}

func (c *Crumbs) render(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	hidden := 0
	if len(titles) > crumbMaxShown {
		hidden = len(titles) - crumbMaxShown
		titles = titles[hidden:]
	}

	inactive := fmt.Sprintf("[%s:%s:]", colorName(c.theme.CrumbInactiveFg), colorName(c.theme.CrumbInactiveBg))
	active := fmt.Sprintf("[%s:%s:b]", colorName(c.theme.CrumbActiveFg), colorName(c.theme.CrumbActiveBg))

	parts := make([]string, 0, len(titles)+1)
	if hidden > 0 {
		parts = append(parts, fmt.Sprintf("%s +%d [-:-:-]", inactive, hidden))
	}
	for i, t := range titles {
		style := inactive
		if i == len(titles)-1 {
			style = active
		}
		parts = append(parts, fmt.Sprintf("%s %s [-:-:-]", style, tview.Escape(clip(t, crumbMaxName))))
	}
	return strings.Join(parts, " > ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
