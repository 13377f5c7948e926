// Package statemachine implements a small generic finite state machine.
//
// States and events are any comparable types, typically string-based enums:
//
//	type State string
//	type Event string
//
//	sm := statemachine.MustNew[State, Event]("disconnected",
//		statemachine.WithTransition[State, Event]("disconnected", "connecting", "dial"),
//		statemachine.WithTransition[State, Event]("connecting", "connected", "established"),
//	)
//	err := sm.Fire(ctx, "dial")
//
// Guards select among transitions sharing a from/event pair, actions run
// before the state changes and can veto it, observers run after it changed.
// All methods are safe for concurrent use.
package statemachine
