package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/chatr/internal/bus"
)

// State is the phase of one synchronization cycle.
type State string

const (
	Idle    State = "IDLE"
	Loading State = "LOADING"
	Ready   State = "READY"
	Errored State = "ERRORED"
)

// Concern names the cycle a Machine tracks.
type Concern string

const (
	Conversations Concern = "conversations"
	Messages      Concern = "messages"
)

// validTransitions defines allowed state transitions. Loading -> Loading is a
// restart: a newer trigger superseded the running one.
var validTransitions = map[State][]State{
	Idle:    {Loading},
	Loading: {Loading, Ready, Errored, Idle},
	Ready:   {Loading, Idle},
	Errored: {Loading, Idle},
}

// Machine tracks and enforces cycle state transitions for one concern.
type Machine struct {
	mu      sync.RWMutex
	concern Concern
	current State
	lastErr error
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Idle state.
func NewMachine(concern Concern, b *bus.Bus) *Machine {
	return &Machine{
		concern: concern,
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Err returns the error that moved the machine to Errored, if it is there.
func (m *Machine) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	return m.transition(to, nil)
}

// Fail moves the machine to Errored and records cause.
func (m *Machine) Fail(cause error) error {
	return m.transition(Errored, cause)
}

func (m *Machine) transition(to State, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("%s: invalid transition from %s to %s", m.concern, m.current, to)
	}
	from := m.current
	m.current = to
	m.lastErr = cause
	m.bus.Emit(bus.SyncStatusChanged, Change{
		Concern: m.concern,
		From:    from,
		To:      to,
		Err:     cause,
	})
	return nil
}

// Change is the payload for status change events.
type Change struct {
	Concern Concern
	From    State
	To      State
	Err     error
}
