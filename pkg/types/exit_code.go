// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

// ExitCodeSignalBase is the conventional shell offset for signal-terminated
// processes: a child killed by signal N reports exit code 128+N.
const ExitCodeSignalBase ExitCode = 128

type (
	// ExitCode represents a child process exit status.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsSignal returns true if the exit code indicates termination by signal
// (the 129-255 range used by POSIX shells).
func (c ExitCode) IsSignal() bool { return c > ExitCodeSignalBase && c <= 255 }

// Signal returns the signal number encoded in a signal exit code, or 0 if
// the code does not encode a signal.
func (c ExitCode) Signal() int {
	if !c.IsSignal() {
		return 0
	}
	return int(c - ExitCodeSignalBase)
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
