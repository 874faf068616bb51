package store

import (
	"errors"
	"sync"

	"github.com/matheus3301/chatr/internal/bus"
)

// ErrUnknownConversation is returned when an id is not in the loaded list.
var ErrUnknownConversation = errors.New("unknown conversation")

// UnreadChange is the payload of bus.ConversationUnread.
type UnreadChange struct {
	ID    string
	Count int
}

// Conversations holds the ordered conversation list and the selection.
// It is the only owner of unread counters.
type Conversations struct {
	mu       sync.RWMutex
	list     []Conversation
	index    map[string]int
	selected string
	bus      *bus.Bus
}

// NewConversations creates an empty store publishing on b (which may be nil).
func NewConversations(b *bus.Bus) *Conversations {
	return &Conversations{index: make(map[string]int), bus: b}
}

// Load replaces the full set. The selection survives if its id is still
// present; otherwise nothing is selected.
func (s *Conversations) Load(list []Conversation) {
	s.mu.Lock()
	s.list = make([]Conversation, len(list))
	s.index = make(map[string]int, len(list))
	for i, c := range list {
		if c.Unread < 0 {
			c.Unread = 0
		}
		s.list[i] = c
		s.index[c.ID] = i
	}
	if _, ok := s.index[s.selected]; !ok {
		s.selected = ""
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.bus.Emit(bus.ConversationsLoaded, snapshot)
}

// Select makes id the current conversation and zeroes its unread counter.
// It reports whether the selection changed; re-selecting the current
// conversation returns false. Unknown ids leave the store untouched.
func (s *Conversations) Select(id string) (bool, error) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, ErrUnknownConversation
	}
	changed := s.selected != id
	s.selected = id
	zeroed := s.list[i].Unread != 0
	s.list[i].Unread = 0
	s.mu.Unlock()

	if zeroed {
		s.bus.Emit(bus.ConversationUnread, UnreadChange{ID: id})
	}
	if changed {
		s.bus.Emit(bus.ConversationSelected, id)
	}
	return changed, nil
}

// ApplyUnread overwrites a conversation's unread count. Negative values
// clamp to zero. It reports whether the id was known.
func (s *Conversations) ApplyUnread(id string, count int) bool {
	if count < 0 {
		count = 0
	}
	s.mu.Lock()
	i, ok := s.index[id]
	if ok {
		s.list[i].Unread = count
	}
	s.mu.Unlock()

	if ok {
		s.bus.Emit(bus.ConversationUnread, UnreadChange{ID: id, Count: count})
	}
	return ok
}

// List returns a copy of the conversations in server order.
func (s *Conversations) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the conversation with the given id.
func (s *Conversations) Get(id string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Conversation{}, false
	}
	return s.list[i], true
}

// Selected returns the selected conversation id, or "" when none.
func (s *Conversations) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Clear drops every conversation and the selection.
func (s *Conversations) Clear() {
	s.Load(nil)
}

func (s *Conversations) snapshotLocked() []Conversation {
	out := make([]Conversation, len(s.list))
	copy(out, s.list)
	return out
}
