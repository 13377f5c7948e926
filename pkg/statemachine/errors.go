package statemachine

import (
	"errors"
	"fmt"
)

// ErrNoTransitionAvailable indicates no transition exists for the state/event pair.
type ErrNoTransitionAvailable struct {
	State string
	Event string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

// ErrTransitionRejected indicates every candidate transition was blocked by its guards.
type ErrTransitionRejected struct {
	State string
	Event string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.State, e.Event)
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
