package session

import "errors"

var (
	// ErrSessionEnded is returned by a start that was superseded or stopped
	// before it completed, and by calls on a closed Controller.
	ErrSessionEnded = errors.New("session ended")

	// ErrNoSession is returned by user actions when no identity is active.
	ErrNoSession = errors.New("no active session")
)
