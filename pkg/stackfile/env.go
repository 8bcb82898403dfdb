// SPDX-License-Identifier: MPL-2.0

package stackfile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// EnvInheritNone starts the child environment empty.
	EnvInheritNone EnvInheritMode = "none"
	// EnvInheritAllow inherits only the allowlisted host variables.
	EnvInheritAllow EnvInheritMode = "allow"
	// EnvInheritAll inherits the full host environment.
	EnvInheritAll EnvInheritMode = "all"
)

var (
	// ErrInvalidEnvVarName is the sentinel error wrapped by InvalidEnvVarNameError.
	ErrInvalidEnvVarName = errors.New("invalid environment variable name")

	// ErrInvalidEnvInheritMode is the sentinel error wrapped by InvalidEnvInheritModeError.
	ErrInvalidEnvInheritMode = errors.New("invalid env inherit mode")

	// envVarNameRegex matches POSIX environment variable names.
	envVarNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	// EnvVarName represents an environment variable name. A valid name starts
	// with a letter or underscore, followed by letters, digits, or underscores.
	EnvVarName string

	// InvalidEnvVarNameError is returned when an EnvVarName does not match
	// the POSIX naming convention.
	InvalidEnvVarNameError struct {
		Value EnvVarName
	}

	// EnvInheritMode defines how the host environment seeds a service's
	// environment. The empty value means EnvInheritAll.
	EnvInheritMode string

	// InvalidEnvInheritModeError is returned when an EnvInheritMode value is
	// not one of the defined modes.
	InvalidEnvInheritModeError struct {
		Value EnvInheritMode
	}

	// DotenvFilePath is a path to a dotenv file, relative to the stackfile
	// location unless absolute. A trailing '?' marks the file as optional:
	// a missing optional file is skipped instead of failing the launch.
	DotenvFilePath string

	// EnvConfig holds environment configuration for a stackfile or a service.
	EnvConfig struct {
		// Files lists dotenv files loaded in order; later files override
		// earlier ones for the same keys.
		Files []DotenvFilePath `json:"files,omitempty"`
		// Vars are variables applied after Files, overriding their values.
		Vars map[EnvVarName]string `json:"vars,omitempty"`
	}
)

// Error implements the error interface.
func (e *InvalidEnvVarNameError) Error() string {
	return fmt.Sprintf("invalid environment variable name %q (must match [A-Za-z_][A-Za-z0-9_]*)", e.Value)
}

// Unwrap returns ErrInvalidEnvVarName for errors.Is() compatibility.
func (e *InvalidEnvVarNameError) Unwrap() error { return ErrInvalidEnvVarName }

// String returns the string representation of the EnvVarName.
func (n EnvVarName) String() string { return string(n) }

// Validate returns nil if the EnvVarName is a valid POSIX variable name.
func (n EnvVarName) Validate() error {
	if !envVarNameRegex.MatchString(string(n)) {
		return &InvalidEnvVarNameError{Value: n}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidEnvInheritModeError) Error() string {
	return fmt.Sprintf("invalid env inherit mode %q (valid: none, allow, all)", e.Value)
}

// Unwrap returns ErrInvalidEnvInheritMode for errors.Is() compatibility.
func (e *InvalidEnvInheritModeError) Unwrap() error { return ErrInvalidEnvInheritMode }

// String returns the string representation of the EnvInheritMode.
func (m EnvInheritMode) String() string { return string(m) }

// Validate returns nil if the mode is one of none, allow, all, or empty
// (empty defers to the default).
func (m EnvInheritMode) Validate() error {
	switch m {
	case "", EnvInheritNone, EnvInheritAllow, EnvInheritAll:
		return nil
	}
	return &InvalidEnvInheritModeError{Value: m}
}

// IsOptional reports whether the dotenv file is marked optional ('?' suffix).
func (p DotenvFilePath) IsOptional() bool {
	return strings.HasSuffix(string(p), "?")
}

// Path returns the file path with any optional marker stripped.
func (p DotenvFilePath) Path() string {
	return strings.TrimSuffix(string(p), "?")
}

// GetFiles returns the files list, or nil if the EnvConfig is nil.
func (e *EnvConfig) GetFiles() []DotenvFilePath {
	if e == nil {
		return nil
	}
	return e.Files
}

// GetVars returns the vars as a map[string]string for maps.Copy and
// exec.Cmd.Env consumers. Returns nil if the EnvConfig is nil or empty.
func (e *EnvConfig) GetVars() map[string]string {
	if e == nil || len(e.Vars) == 0 {
		return nil
	}
	result := make(map[string]string, len(e.Vars))
	for k, v := range e.Vars {
		result[string(k)] = v
	}
	return result
}

// validateVarNames checks every variable name in the config.
// A nil EnvConfig is valid.
func (e *EnvConfig) validateVarNames() error {
	if e == nil {
		return nil
	}
	for name := range e.Vars {
		if err := name.Validate(); err != nil {
			return err
		}
	}
	return nil
}
