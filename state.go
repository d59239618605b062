package wssession

import "fmt"

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateErrored
}

// CanTransition reports whether the session may move from s to next.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateIdle:
		return next == StateConnecting || next == StateClosed
	case StateConnecting:
		return next == StateOpen || next == StateClosed || next == StateErrored
	case StateOpen:
		return next == StateClosed || next == StateErrored
	default:
		return false
	}
}
