// SPDX-License-Identifier: MPL-2.0

package stackfile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHookScript is the sentinel error wrapped by InvalidHookScriptError.
var ErrInvalidHookScript = errors.New("invalid hook script")

type (
	// HookScript is a POSIX shell snippet run in-process (via the embedded
	// shell interpreter) before a service launches. The zero value ("") means
	// no hook. A non-zero value must not be whitespace-only.
	HookScript string

	// InvalidHookScriptError is returned when a HookScript is non-empty but
	// whitespace-only.
	InvalidHookScriptError struct {
		Value HookScript
	}
)

// Error implements the error interface.
func (e *InvalidHookScriptError) Error() string {
	return fmt.Sprintf("invalid hook script %q: must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidHookScript for errors.Is() compatibility.
func (e *InvalidHookScriptError) Unwrap() error { return ErrInvalidHookScript }

// String returns the string representation of the HookScript.
func (h HookScript) String() string { return string(h) }

// IsSet reports whether a hook is configured.
func (h HookScript) IsSet() bool { return h != "" }

// Validate returns nil if the HookScript is empty (no hook) or has content.
func (h HookScript) Validate() error {
	if h != "" && strings.TrimSpace(string(h)) == "" {
		return &InvalidHookScriptError{Value: h}
	}
	return nil
}
