package submission

import (
	"errors"
	"fmt"
)

// State is the position of a submission attempt
type State int

const (
	StateIdle State = iota
	StateReadyToSubmit
	StateVerifying
	StateRejected
	StateUploading
	StatePersisting
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:          "Idle",
	StateReadyToSubmit: "ReadyToSubmit",
	StateVerifying:     "Verifying",
	StateRejected:      "Rejected",
	StateUploading:     "Uploading",
	StatePersisting:    "Persisting",
	StateFailed:        "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrIllegalTransition means the caller drove a session out of order
var ErrIllegalTransition = errors.New("illegal state transition")

var transitions = map[State][]State{
	StateIdle:          {StateReadyToSubmit},
	StateReadyToSubmit: {StateVerifying, StateUploading, StatePersisting, StateFailed},
	StateVerifying:     {StateUploading, StateRejected, StateFailed},
	StateUploading:     {StatePersisting, StateFailed},
	StatePersisting:    {StateIdle, StateFailed},
	StateRejected:      {StateReadyToSubmit, StateIdle},
	StateFailed:        {StateReadyToSubmit, StateIdle},
}

// CanTransition reports whether to is reachable from s in one step
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Editable reports whether the draft may change in this state
func (s State) Editable() bool {
	return s == StateIdle || s == StateRejected || s == StateFailed
}
