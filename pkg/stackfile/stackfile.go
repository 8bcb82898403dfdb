// SPDX-License-Identifier: MPL-2.0

// Package stackfile defines the per-project service manifest.
//
// A stackfile ("stackfile.cue") declares the services a project's dev stack
// is made of: the external program each one launches, its arguments, working
// directory, environment, an optional pre-start hook, and optional watch
// patterns for restart-on-change. The two well-known services, "worker" and
// "server", are synthesized from global config when the manifest does not
// define them; a manifest entry with the same name replaces the synthesized
// one entirely.
package stackfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ServiceWorker is the well-known name of the task-queue worker service.
	ServiceWorker ServiceName = "worker"
	// ServiceServer is the well-known name of the web dev-server service.
	ServiceServer ServiceName = "server"
)

var (
	// ErrInvalidServiceName is the sentinel error wrapped by InvalidServiceNameError.
	ErrInvalidServiceName = errors.New("invalid service name")
	// ErrDuplicateService is the sentinel error wrapped by DuplicateServiceError.
	ErrDuplicateService = errors.New("duplicate service")
	// ErrServiceNotFound is the sentinel error wrapped by ServiceNotFoundError.
	ErrServiceNotFound = errors.New("service not found")
)

type (
	// ServiceName identifies a service within a stackfile. A valid name is
	// non-empty, contains no whitespace, and is at most 64 characters — it is
	// embedded in log file names and the state registry.
	ServiceName string

	// InvalidServiceNameError is returned when a ServiceName value is empty,
	// contains whitespace, or exceeds the length limit.
	InvalidServiceNameError struct {
		Value ServiceName
	}

	// DuplicateServiceError is returned when two services share a name.
	DuplicateServiceError struct {
		Name ServiceName
	}

	// ServiceNotFoundError is returned when a lookup names an unknown service.
	ServiceNotFoundError struct {
		Name ServiceName
	}

	// Service declares one launchable process.
	Service struct {
		// Name identifies the service (unique within the stackfile).
		Name string `json:"name"`
		// Description provides help text shown in listings (optional).
		Description string `json:"description,omitempty"`
		// Program is the executable to launch. Resolved via PATH unless it
		// contains a path separator.
		Program string `json:"program"`
		// Args are the fixed command-line arguments passed to Program.
		Args []string `json:"args,omitempty"`
		// WorkDir is the working directory for the process (optional).
		// Relative paths resolve against the stackfile location.
		WorkDir string `json:"workdir,omitempty"`
		// Env holds dotenv files and variables for this service (optional).
		// Service-level env is applied after stackfile-level env.
		Env *EnvConfig `json:"env,omitempty"`
		// EnvInherit controls how the host environment seeds this service's
		// environment. Empty means "all".
		EnvInherit EnvInheritMode `json:"env_inherit,omitempty"`
		// EnvInheritAllow lists the host variables kept under the "allow"
		// inherit mode. Ignored under the other modes.
		EnvInheritAllow []EnvVarName `json:"env_inherit_allow,omitempty"`
		// PreStart is a shell snippet run in-process before launch (optional).
		PreStart HookScript `json:"pre_start,omitempty"`
		// Watch configures restart-on-change for this service (optional).
		Watch *WatchConfig `json:"watch,omitempty"`
	}

	// WatchConfig selects the files whose changes restart a service.
	WatchConfig struct {
		// Patterns are doublestar globs relative to the service workdir
		// (e.g. "**/*.py"). An empty list watches all non-ignored files.
		Patterns []string `json:"patterns,omitempty"`
		// Ignore are additional globs excluded from watching.
		Ignore []string `json:"ignore,omitempty"`
		// DebounceMillis is the quiet period before a restart fires.
		// Zero falls back to the watcher default.
		DebounceMillis int `json:"debounce_ms,omitempty"`
	}

	// Stackfile is the parsed manifest.
	Stackfile struct {
		// Description provides help text for the whole stack (optional).
		Description string `json:"description,omitempty"`
		// Env holds stack-wide dotenv files and variables (optional).
		Env *EnvConfig `json:"env,omitempty"`
		// Services lists the launchable processes.
		Services []Service `json:"services"`

		// FilePath is the location the manifest was loaded from.
		// Set by Parse; not part of the CUE schema.
		FilePath string `json:"-"`
	}
)

// Error implements the error interface.
func (e *InvalidServiceNameError) Error() string {
	return fmt.Sprintf("invalid service name %q (must be non-empty, without whitespace, at most 64 chars)", e.Value)
}

// Unwrap returns ErrInvalidServiceName for errors.Is() compatibility.
func (e *InvalidServiceNameError) Unwrap() error { return ErrInvalidServiceName }

// Error implements the error interface.
func (e *DuplicateServiceError) Error() string {
	return fmt.Sprintf("duplicate service %q: names must be unique within a stackfile", e.Name)
}

// Unwrap returns ErrDuplicateService for errors.Is() compatibility.
func (e *DuplicateServiceError) Unwrap() error { return ErrDuplicateService }

// Error implements the error interface.
func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service %q not found in stackfile", e.Name)
}

// Unwrap returns ErrServiceNotFound for errors.Is() compatibility.
func (e *ServiceNotFoundError) Unwrap() error { return ErrServiceNotFound }

// String returns the string representation of the ServiceName.
func (n ServiceName) String() string { return string(n) }

// Validate returns nil if the ServiceName is non-empty, free of whitespace,
// and at most 64 characters.
func (n ServiceName) Validate() error {
	s := string(n)
	if s == "" || len(s) > 64 || strings.ContainsAny(s, " \t\n\r") {
		return &InvalidServiceNameError{Value: n}
	}
	return nil
}

// Validate checks constraints the CUE schema cannot express: service name
// validity and uniqueness, and env var names in all EnvConfigs.
func (f *Stackfile) Validate() error {
	seen := make(map[ServiceName]struct{}, len(f.Services))
	for i, svc := range f.Services {
		name := ServiceName(svc.Name)
		if err := name.Validate(); err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
		if _, dup := seen[name]; dup {
			return &DuplicateServiceError{Name: name}
		}
		seen[name] = struct{}{}

		if err := svc.Env.validateVarNames(); err != nil {
			return fmt.Errorf("services[%d].env: %w", i, err)
		}
		if err := svc.EnvInherit.Validate(); err != nil {
			return fmt.Errorf("services[%d].env_inherit: %w", i, err)
		}
		for _, varName := range svc.EnvInheritAllow {
			if err := varName.Validate(); err != nil {
				return fmt.Errorf("services[%d].env_inherit_allow: %w", i, err)
			}
		}
	}
	if err := f.Env.validateVarNames(); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	return nil
}

// FindService returns the service with the given name.
func (f *Stackfile) FindService(name ServiceName) (*Service, error) {
	for i := range f.Services {
		if ServiceName(f.Services[i].Name) == name {
			return &f.Services[i], nil
		}
	}
	return nil, &ServiceNotFoundError{Name: name}
}

// ServiceNames returns the names of all declared services in file order.
func (f *Stackfile) ServiceNames() []ServiceName {
	names := make([]ServiceName, 0, len(f.Services))
	for _, svc := range f.Services {
		names = append(names, ServiceName(svc.Name))
	}
	return names
}
