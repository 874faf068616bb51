package views

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal drops codepoints that tcell cannot size correctly
// (emoji modifiers, joiners and variation selectors) along with control
// characters other than newline and tab, which message bodies may carry.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r < 0x20 && r != '\n' && r != '\t', r == 0x7F:
		return true
	// Skin tone modifiers.
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	// Zero Width Joiner.
	case r == 0x200D:
		return true
	// Variation Selectors.
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	// Variation Selectors Supplement.
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
