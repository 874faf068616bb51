package bus

import "time"

// Event kinds published by the engine. Subscribers filter by prefix, so
// "conversations." receives every conversation event.
const (
	ConversationsLoaded  = "conversations.loaded"
	ConversationSelected = "conversations.selected"
	ConversationUnread   = "conversations.unread"
	MessagesLoaded       = "messages.loaded"
	MessagePending       = "messages.pending"
	MessageConfirmed     = "messages.confirmed"
	MessageFailed        = "messages.failed"
	SearchResults        = "search.results"
	MembersChanged       = "groups.members_changed"
	SyncStatusChanged    = "sync.status_changed"
	SessionError         = "session.error"
	SessionFatal         = "session.fatal"
	SessionBannerCleared = "session.banner_cleared"
)

// Event represents a state change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
