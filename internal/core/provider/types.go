package provider

import "gifswap/internal/apperror"

// State is the lifecycle of a remote swap job.
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCanceled:
		return true
	default:
		return false
	}
}

// stateFromWire maps provider status strings onto our states.
func stateFromWire(status string) State {
	switch status {
	case "starting":
		return StateCreated
	case "processing":
		return StateRunning
	case "succeeded":
		return StateSucceeded
	case "canceled":
		return StateCanceled
	case "failed":
		return StateFailed
	default:
		return StateRunning
	}
}

// Wire returns the provider-facing status string for a state.
func (s State) Wire() string {
	switch s {
	case StateCreated:
		return "starting"
	case StateRunning:
		return "processing"
	default:
		return string(s)
	}
}

// SwapJob is one remote face-swap prediction. Created on submission, mutated
// only by status responses, immutable once terminal.
type SwapJob struct {
	ID        string
	State     State
	RawStatus string
	OutputURL string
	ErrorKind apperror.Kind
	ErrorMsg  string
}
