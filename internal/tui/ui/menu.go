package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// MenuRows is the number of hint lines per menu column; it matches the
// header height.
const MenuRows = 7

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders menu hints column by column, MenuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.layout(hints))
}

func (m *Menu) layout(hints []MenuHint) string {
	if len(hints) == 0 {
		return ""
	}
	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	cols := (len(hints) + MenuRows - 1) / MenuRows
	widths := make([]int, cols)
	for i, h := range hints {
		if w := len(h.Key) + len(h.Description) + 3; w > widths[i/MenuRows] {
			widths[i/MenuRows] = w
		}
	}

	lines := make([]strings.Builder, min(MenuRows, len(hints)))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		col := i / MenuRows
		pad := widths[col] - len(h.Key) - len(h.Description) - 3
		line := &lines[i%MenuRows]
		_, _ = fmt.Fprintf(line, "[%s::b]<%s>[-:-:-] %s%s", kc, tview.Escape(h.Key), h.Description, strings.Repeat(" ", pad+2))
	}
	out := make([]string, len(lines))
	for i := range lines {
		out[i] = strings.TrimRight(lines[i].String(), " ")
	}
	return strings.Join(out, "\n")
}
