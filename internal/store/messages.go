package store

import (
	"sync"

	"github.com/matheus3301/chatr/internal/bus"
)

// MessageChange is the payload of the per-message bus events.
type MessageChange struct {
	ConversationID string
	// ID is the id the change refers to: the temporary id for confirm and
	// fail events.
	ID      string
	Message Message
}

// Loaded is the payload of bus.MessagesLoaded.
type Loaded struct {
	ConversationID string
	Count          int
}

// Messages holds one ordered sequence per conversation.
type Messages struct {
	mu     sync.RWMutex
	byConv map[string][]Message
	bus    *bus.Bus
}

// NewMessages creates an empty store publishing on b (which may be nil).
func NewMessages(b *bus.Bus) *Messages {
	return &Messages{byConv: make(map[string][]Message), bus: b}
}

// Replace installs the authoritative history of a conversation. Pending
// records still awaiting confirmation are kept, in order, after it.
func (s *Messages) Replace(convID string, msgs []Message) {
	s.mu.Lock()
	seen := make(map[string]struct{}, len(msgs))
	next := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		seen[m.ID] = struct{}{}
		next = append(next, m)
	}
	for _, m := range s.byConv[convID] {
		if !m.IsPending() {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		next = append(next, m)
	}
	s.byConv[convID] = next
	n := len(next)
	s.mu.Unlock()

	s.bus.Emit(bus.MessagesLoaded, Loaded{ConversationID: convID, Count: n})
}

// Append adds a record at the tail of its conversation.
func (s *Messages) Append(m Message) {
	s.mu.Lock()
	s.byConv[m.ConversationID] = append(s.byConv[m.ConversationID], m)
	s.mu.Unlock()

	kind := bus.MessageConfirmed
	if m.IsPending() {
		kind = bus.MessagePending
	}
	s.bus.Emit(kind, MessageChange{ConversationID: m.ConversationID, ID: m.ID, Message: m})
}

// ReplaceByID swaps the record with the given id for m, keeping its
// position. If a reload already brought m in under its own id, the record
// with the given id is dropped instead. It reports whether the id was found.
func (s *Messages) ReplaceByID(convID, id string, m Message) bool {
	s.mu.Lock()
	seq := s.byConv[convID]
	i := indexOf(seq, id)
	if i >= 0 {
		if j := indexOf(seq, m.ID); j >= 0 && j != i {
			s.byConv[convID] = append(seq[:i:i], seq[i+1:]...)
		} else {
			seq[i] = m
		}
	}
	s.mu.Unlock()

	if i < 0 {
		return false
	}
	s.bus.Emit(bus.MessageConfirmed, MessageChange{ConversationID: convID, ID: id, Message: m})
	return true
}

// RemoveByID deletes the record with the given id, closing the gap.
// It reports whether the id was found.
func (s *Messages) RemoveByID(convID, id string) bool {
	s.mu.Lock()
	seq := s.byConv[convID]
	i := indexOf(seq, id)
	var removed Message
	if i >= 0 {
		removed = seq[i]
		s.byConv[convID] = append(seq[:i:i], seq[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		return false
	}
	s.bus.Emit(bus.MessageFailed, MessageChange{ConversationID: convID, ID: id, Message: removed})
	return true
}

// List returns a copy of a conversation's sequence.
func (s *Messages) List(convID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.byConv[convID]
	out := make([]Message, len(seq))
	copy(out, seq)
	return out
}

// Get returns one record by id.
func (s *Messages) Get(convID, id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.byConv[convID]
	if i := indexOf(seq, id); i >= 0 {
		return seq[i], true
	}
	return Message{}, false
}

// Pending returns the number of pending records in a conversation.
func (s *Messages) Pending(convID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.byConv[convID] {
		if m.IsPending() {
			n++
		}
	}
	return n
}

// Clear drops every sequence.
func (s *Messages) Clear() {
	s.mu.Lock()
	s.byConv = make(map[string][]Message)
	s.mu.Unlock()
}

func indexOf(seq []Message, id string) int {
	for i := range seq {
		if seq[i].ID == id {
			return i
		}
	}
	return -1
}
