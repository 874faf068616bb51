package status

import (
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/chatr/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(Messages, nil)
	if m.Current() != Idle {
		t.Errorf("initial state = %s, want IDLE", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		path []State
	}{
		{[]State{Loading, Ready}},
		{[]State{Loading, Errored}},
		{[]State{Loading, Errored, Loading, Ready}},
		{[]State{Loading, Loading, Ready}},
		{[]State{Loading, Ready, Loading, Ready}},
		{[]State{Loading, Ready, Idle}},
	}
	for _, tt := range tests {
		m := NewMachine(Conversations, nil)
		for _, s := range tt.path {
			if err := m.Transition(s); err != nil {
				t.Errorf("path %v: Transition(%s) error = %v", tt.path, s, err)
			}
		}
		if last := tt.path[len(tt.path)-1]; m.Current() != last {
			t.Errorf("path %v: state = %s, want %s", tt.path, m.Current(), last)
		}
	}
}

func TestInvalidTransition(t *testing.T) {
	tests := []struct {
		name string
		walk []State
		to   State
	}{
		{"idle to ready", nil, Ready},
		{"idle to errored", nil, Errored},
		{"ready to ready", []State{Loading, Ready}, Ready},
		{"errored to ready", []State{Loading, Errored}, Ready},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(Messages, nil)
			for _, s := range tt.walk {
				if err := m.Transition(s); err != nil {
					t.Fatal(err)
				}
			}
			if err := m.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s) should fail", tt.to)
			}
		})
	}
}

func TestFailRecordsCause(t *testing.T) {
	m := NewMachine(Conversations, nil)
	cause := errors.New("boom")

	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}
	if err := m.Fail(cause); err != nil {
		t.Fatal(err)
	}
	if m.Current() != Errored {
		t.Errorf("state = %s, want ERRORED", m.Current())
	}
	if !errors.Is(m.Err(), cause) {
		t.Errorf("Err() = %v, want %v", m.Err(), cause)
	}

	// Leaving Errored clears the cause.
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}
	if m.Err() != nil {
		t.Errorf("Err() after retry = %v, want nil", m.Err())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("sync.", 10)
	defer unsub()

	m := NewMachine(Messages, b)
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.SyncStatusChanged {
			t.Errorf("event kind = %q, want %s", evt.Kind, bus.SyncStatusChanged)
		}
		change, ok := evt.Payload.(Change)
		if !ok {
			t.Fatalf("payload type = %T, want Change", evt.Payload)
		}
		if change.Concern != Messages || change.From != Idle || change.To != Loading {
			t.Errorf("change = %+v, want messages IDLE->LOADING", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status event")
	}
}
