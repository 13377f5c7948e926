package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Action executes side effects during a transition. Returning an error
// prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E) error

// Guard decides at fire time whether a transition may proceed.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) bool

// Observer is notified after the state has changed.
type Observer[S, E comparable] func(from, to S, event E)

// Transition defines a state change triggered by an event.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the state changes
}

// Machine is a thread-safe finite state machine over comparable state and
// event types. Transitions are looked up as [from][event][]Transition; the
// first transition whose guards pass wins.
type Machine[S, E comparable] struct {
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]
	observers   []Observer[S, E]
	mu          sync.RWMutex
}

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics if an option fails.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if m.current == s {
			return true
		}
	}
	return false
}

// AddTransition registers a transition. Several transitions may share the
// same from/event pair for guard-based branching.
func (m *Machine[S, E]) AddTransition(t Transition[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[t.From]
	if !ok {
		byEvent = make(map[E][]Transition[S, E])
		m.transitions[t.From] = byEvent
	}
	byEvent[t.Event] = append(byEvent[t.Event], t)
}

// Fire applies event to the current state. Observers run after the state
// change, outside the machine lock.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) error {
	m.mu.Lock()

	from := m.current
	t, err := m.match(ctx, from, event)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	observers := m.observers
	m.mu.Unlock()

	for _, o := range observers {
		o(from, t.To, event)
	}
	return nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.match(ctx, m.current, event)
	return err == nil
}

// Reset returns the machine to its initial state without running observers.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

// Must be called with lock held.
func (m *Machine[S, E]) match(ctx context.Context, from S, event E) (*Transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, &ErrNoTransitionAvailable{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for i := range candidates {
		passed := true
		for _, guard := range candidates[i].Guards {
			if !guard(ctx, from, event) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}

	return nil, &ErrTransitionRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
}
