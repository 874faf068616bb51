package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationKind distinguishes direct chats from groups.
type ConversationKind int

const (
	KindDirect ConversationKind = iota
	KindGroup
)

func (k ConversationKind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "direct"
}

// Conversation is one entry of the conversation list.
type Conversation struct {
	ID     string
	Name   string
	Kind   ConversationKind
	Unread int
	// Online is only meaningful for direct chats and nil when unknown.
	Online *bool
}

// IsGroup reports whether the conversation is a group chat.
func (c Conversation) IsGroup() bool { return c.Kind == KindGroup }

// DisplayName falls back through the other participant's name to a generic
// label when the server sent no name.
func DisplayName(name, otherUserName string, group bool) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	if s := strings.TrimSpace(otherUserName); s != "" {
		return s
	}
	if group {
		return "Group chat"
	}
	return "Direct chat"
}

// MessageStatus is the lifecycle state of a message record.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusConfirmed MessageStatus = "confirmed"
	StatusFailed    MessageStatus = "failed"
)

// Message is one record in a conversation's sequence.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderName     string
	Content        Content
	CreatedAt      time.Time
	IsMine         bool
	Status         MessageStatus
}

// IsPending reports whether the message awaits server confirmation.
func (m Message) IsPending() bool { return m.Status == StatusPending }

// TempIDPrefix marks client-generated ids of pending messages.
const TempIDPrefix = "tmp-"

// NewTempID returns a fresh temporary message id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was produced by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Identity is the current user as far as authorship checks are concerned.
type Identity struct {
	UserID      string
	DisplayName string
}

// Authored reports whether a record with the given sender was written by the
// current user: sender id match when the user id is known, otherwise a
// case-insensitive display name match.
func (id Identity) Authored(senderID, senderName string) bool {
	if id.UserID != "" && senderID == id.UserID {
		return true
	}
	return id.DisplayName != "" && strings.EqualFold(senderName, id.DisplayName)
}
