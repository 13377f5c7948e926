package channel

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/livenotify/pkg/logger"
	"github.com/dmitrymomot/livenotify/pkg/statemachine"
)

// State is the connection state of a Client.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

func (s State) String() string { return string(s) }

// StateObserver is called after every state change, outside client locks.
type StateObserver func(from, to State)

type trigger string

const (
	triggerDial        trigger = "dial"
	triggerEstablished trigger = "established"
	triggerFailed      trigger = "failed"
	triggerClosed      trigger = "closed"
	triggerDropped     trigger = "dropped"
)

type stateChange struct {
	from, to State
}

func newConnMachine(log *slog.Logger) *statemachine.Machine[State, trigger] {
	return statemachine.MustNew(StateDisconnected,
		statemachine.WithTransition[State, trigger](StateDisconnected, StateConnecting, triggerDial),
		statemachine.WithTransition[State, trigger](StateConnecting, StateConnected, triggerEstablished),
		statemachine.WithTransition[State, trigger](StateConnecting, StateDisconnected, triggerFailed),
		statemachine.WithTransition[State, trigger](StateConnecting, StateDisconnected, triggerClosed),
		statemachine.WithTransition[State, trigger](StateConnected, StateDisconnected, triggerClosed),
		statemachine.WithTransition[State, trigger](StateConnected, StateDisconnected, triggerDropped),
		statemachine.WithObserver[State, trigger](func(from, to State, t trigger) {
			log.LogAttrs(context.Background(), slog.LevelDebug, "connection state changed",
				slog.String("from", from.String()),
				logger.ConnState(to.String()),
				slog.String("trigger", string(t)),
			)
		}),
	)
}
