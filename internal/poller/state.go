package poller

import "fmt"

// State is the observable phase of the polling loop.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StatePersisting
	StateBackingOff
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StatePersisting:
		return "persisting"
	case StateBackingOff:
		return "backing_off"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
