// SPDX-License-Identifier: MPL-2.0

package supervise

import (
	"errors"
	"fmt"
)

const (
	// StateCreated indicates the handle was created but Start() not called.
	StateCreated State = iota
	// StateStarting indicates Start() was called and pre-start work is running.
	StateStarting
	// StateRunning indicates the service process is alive.
	StateRunning
	// StateStopping indicates a graceful shutdown is in progress.
	StateStopping
	// StateStopped is terminal: the service exited cleanly.
	StateStopped
	// StateFailed is terminal: the service failed to start or exited non-zero.
	StateFailed
)

// ErrInvalidState is returned when a State value is not one of the defined
// lifecycle states.
var ErrInvalidState = errors.New("invalid state")

type (
	// State represents the lifecycle state of a supervised service.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}
)

// String returns a human-readable representation of the service state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0=created, 1=starting, 2=running, 3=stopping, 4=stopped, 5=failed)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns nil if the State is one of the defined lifecycle states.
func (s State) Validate() error {
	switch s {
	case StateCreated, StateStarting, StateRunning, StateStopping, StateStopped, StateFailed:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}

// IsTerminal returns true for the Stopped and Failed states.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
