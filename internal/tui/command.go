package tui

import (
	"strings"

	"github.com/matheus3301/chatr/internal/store"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// runCommand executes a ':' command line.
func (a *App) runCommand(line string) {
	cmd := ParseCommand(line)
	switch cmd.Name {
	case "q", "quit":
		a.Stop()
		return
	case "h", "help":
		a.push(pageHelp)
		return
	}
	if a.sess == nil {
		return
	}

	switch cmd.Name {
	case "logout":
		a.endSession("Logged out.", true)
	case "reload":
		a.reload()
	case "chat":
		if id, ok := findConversation(a.sess.Conversations.List(), cmd.Args); ok {
			a.showThread(id)
		} else {
			a.flash.Warn("No conversation matches " + cmd.Args)
		}
	case "dm":
		a.openPicker(pickDirect, "")
	case "group":
		if cmd.Args == "" {
			a.flash.Warn("Usage: :group <name>")
			break
		}
		a.groupName = cmd.Args
		a.openPicker(pickGroup, "")
	case "members":
		if a.thread.ConversationID() != "" {
			a.showDetails()
		}
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
	a.renderFlash()
}

// findConversation picks an exact name match first, then the first
// conversation whose name contains query.
func findConversation(convs []store.Conversation, query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}
	for _, c := range convs {
		if strings.EqualFold(c.Name, query) {
			return c.ID, true
		}
	}
	q := strings.ToLower(query)
	for _, c := range convs {
		if strings.Contains(strings.ToLower(c.Name), q) {
			return c.ID, true
		}
	}
	return "", false
}
