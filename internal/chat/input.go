package chat

import (
	"strings"
)

// Input is one composer line split into message parts.
type Input struct {
	Text     string
	GIFURL   string
	FilePath string
}

// ParseInput reads composer commands: "/gif <url>" and "/attach <path>"
// take the rest of the line; anything else is text. A command may be
// followed by a caption after " -- ".
func ParseInput(line string) Input {
	trimmed := strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(trimmed, " ")
	arg, caption, _ := strings.Cut(strings.TrimSpace(rest), " -- ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/gif":
		return Input{GIFURL: arg, Text: strings.TrimSpace(caption)}
	case "/attach":
		return Input{FilePath: arg, Text: strings.TrimSpace(caption)}
	}
	return Input{Text: line}
}

// IsEmpty reports whether the input carries nothing to send.
func (in Input) IsEmpty() bool {
	return strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.GIFURL) == "" && in.FilePath == ""
}
