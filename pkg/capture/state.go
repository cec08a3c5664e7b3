package capture

import (
	"fmt"
)

type State int

const (
	StateIdle = State(iota)
	StateRecording
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("unknown_state_%d", int(s))
	}
}
