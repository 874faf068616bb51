package store

import (
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/chatr/internal/bus"
)

func convs(ids ...string) []Conversation {
	out := make([]Conversation, len(ids))
	for i, id := range ids {
		out[i] = Conversation{ID: id, Name: id}
	}
	return out
}

func TestSelectZeroesUnread(t *testing.T) {
	s := NewConversations(nil)
	list := convs("c1", "c2")
	list[0].Unread = 3
	s.Load(list)

	changed, err := s.Select("c1")
	if err != nil || !changed {
		t.Fatalf("Select = %v, %v", changed, err)
	}
	c, _ := s.Get("c1")
	if c.Unread != 0 {
		t.Errorf("unread = %d, want 0", c.Unread)
	}
	if s.Selected() != "c1" {
		t.Errorf("selected = %q", s.Selected())
	}

	changed, err = s.Select("c1")
	if err != nil || changed {
		t.Errorf("reselect = %v, %v; want false, nil", changed, err)
	}
}

func TestSelectUnknownIsNoop(t *testing.T) {
	s := NewConversations(nil)
	s.Load(convs("c1"))
	if _, err := s.Select("c1"); err != nil {
		t.Fatal(err)
	}

	_, err := s.Select("nope")
	if !errors.Is(err, ErrUnknownConversation) {
		t.Errorf("err = %v", err)
	}
	if s.Selected() != "c1" {
		t.Errorf("selection moved to %q", s.Selected())
	}
}

func TestLoadPreservesOrDropsSelection(t *testing.T) {
	s := NewConversations(nil)
	s.Load(convs("c1", "c2"))
	if _, err := s.Select("c2"); err != nil {
		t.Fatal(err)
	}

	s.Load(convs("c2", "c3"))
	if s.Selected() != "c2" {
		t.Errorf("selection lost: %q", s.Selected())
	}

	s.Load(convs("c3"))
	if s.Selected() != "" {
		t.Errorf("selection kept for removed id: %q", s.Selected())
	}
}

func TestApplyUnreadClamps(t *testing.T) {
	s := NewConversations(nil)
	s.Load(convs("c1"))
	if !s.ApplyUnread("c1", -4) {
		t.Fatal("known id reported unknown")
	}
	c, _ := s.Get("c1")
	if c.Unread != 0 {
		t.Errorf("unread = %d", c.Unread)
	}
	if s.ApplyUnread("zz", 1) {
		t.Error("unknown id reported known")
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := NewConversations(nil)
	s.Load(convs("c1"))
	l := s.List()
	l[0].Name = "changed"
	c, _ := s.Get("c1")
	if c.Name != "c1" {
		t.Error("List exposed internal slice")
	}
}

func TestConversationEvents(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("conversations.", 10)
	defer unsub()

	s := NewConversations(b)
	list := convs("c1")
	list[0].Unread = 2
	s.Load(list)
	if _, err := s.Select("c1"); err != nil {
		t.Fatal(err)
	}

	want := []string{bus.ConversationsLoaded, bus.ConversationUnread, bus.ConversationSelected}
	for _, kind := range want {
		select {
		case evt := <-ch:
			if evt.Kind != kind {
				t.Errorf("event = %s, want %s", evt.Kind, kind)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}
