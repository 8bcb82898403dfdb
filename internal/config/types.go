// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"stackup-cli/pkg/types"
)

const (
	// PoolPrefork runs the worker with a pool of OS processes.
	PoolPrefork PoolMode = "prefork"
	// PoolThreads runs the worker with an OS thread pool.
	PoolThreads PoolMode = "threads"
	// PoolSolo runs the worker single-tasked in the main process.
	PoolSolo PoolMode = "solo"
	// PoolGevent runs the worker on a gevent coroutine pool.
	PoolGevent PoolMode = "gevent"
	// PoolEventlet runs the worker on an eventlet coroutine pool.
	PoolEventlet PoolMode = "eventlet"

	// LogLevelDebug through LogLevelCritical mirror the worker tool's
	// --loglevel values.
	LogLevelDebug    WorkerLogLevel = "DEBUG"
	LogLevelInfo     WorkerLogLevel = "INFO"
	LogLevelWarning  WorkerLogLevel = "WARNING"
	LogLevelError    WorkerLogLevel = "ERROR"
	LogLevelCritical WorkerLogLevel = "CRITICAL"
)

var (
	// ErrInvalidPoolMode is the sentinel error wrapped by InvalidPoolModeError.
	ErrInvalidPoolMode = errors.New("invalid pool mode")
	// ErrInvalidWorkerLogLevel is the sentinel error wrapped by InvalidWorkerLogLevelError.
	ErrInvalidWorkerLogLevel = errors.New("invalid worker log level")
	// ErrInvalidQueueName is the sentinel error wrapped by InvalidQueueNameError.
	ErrInvalidQueueName = errors.New("invalid queue name")
	// ErrInvalidConcurrency is the sentinel error wrapped by InvalidConcurrencyError.
	ErrInvalidConcurrency = errors.New("invalid concurrency")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// PoolMode selects the worker tool's execution pool (-P flag).
	PoolMode string

	// InvalidPoolModeError is returned when a PoolMode value is not recognized.
	// It wraps ErrInvalidPoolMode for errors.Is() compatibility.
	InvalidPoolModeError struct {
		Value PoolMode
	}

	// WorkerLogLevel is the worker tool's --loglevel value.
	WorkerLogLevel string

	// InvalidWorkerLogLevelError is returned when a WorkerLogLevel value is
	// not recognized. It wraps ErrInvalidWorkerLogLevel.
	InvalidWorkerLogLevelError struct {
		Value WorkerLogLevel
	}

	// QueueName is one of the named queues the worker consumes (-Q flag).
	// Queue names are joined with commas on the command line, so a valid name
	// is non-empty and contains neither commas nor whitespace.
	QueueName string

	// InvalidQueueNameError is returned when a QueueName value is empty or
	// contains a comma or whitespace. It wraps ErrInvalidQueueName.
	InvalidQueueNameError struct {
		Value QueueName
	}

	// Concurrency is the worker pool size (-c flag). Must be at least 1.
	Concurrency int

	// InvalidConcurrencyError is returned when a Concurrency value is below 1.
	// It wraps ErrInvalidConcurrency.
	InvalidConcurrencyError struct {
		Value Concurrency
	}

	// InvalidConfigError aggregates field-level validation failures.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// ProxyConfig holds outbound proxy settings. Non-empty values are
	// injected into every launched service as both the uppercase and
	// lowercase conventional variables (HTTP_PROXY/http_proxy, ...).
	ProxyConfig struct {
		HTTP    string `json:"http,omitempty" mapstructure:"http"`
		HTTPS   string `json:"https,omitempty" mapstructure:"https"`
		NoProxy string `json:"no_proxy,omitempty" mapstructure:"no_proxy"`
	}

	// WorkerConfig describes the task-queue worker invocation.
	WorkerConfig struct {
		// Program is the worker tool executable (resolved via PATH).
		Program string `json:"program" mapstructure:"program"`
		// App is the application entry point passed to -A.
		App string `json:"app" mapstructure:"app"`
		// Pool is the execution pool mode passed to -P.
		Pool PoolMode `json:"pool" mapstructure:"pool"`
		// Concurrency is the pool size passed to -c.
		Concurrency Concurrency `json:"concurrency" mapstructure:"concurrency"`
		// Queues are the named queues passed to -Q, comma-joined.
		Queues []QueueName `json:"queues" mapstructure:"queues"`
		// LogLevel is passed to --loglevel.
		LogLevel WorkerLogLevel `json:"log_level" mapstructure:"log_level"`
	}

	// ServerConfig describes the web dev-server invocation.
	ServerConfig struct {
		// Program is the server tool executable (resolved via PATH).
		Program string `json:"program" mapstructure:"program"`
		// Host is the bind address passed to --host.
		Host string `json:"host" mapstructure:"host"`
		// Port is the bind port passed to --port.
		Port types.ListenPort `json:"port" mapstructure:"port"`
		// Debug enables the server tool's debug mode.
		Debug bool `json:"debug" mapstructure:"debug"`
	}

	// UIConfig holds terminal output preferences.
	UIConfig struct {
		// Verbose enables verbose diagnostics by default.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config is the root configuration for the launcher.
	Config struct {
		// Workdir is the directory services run in. Empty means the
		// stackfile directory, or the current directory without one.
		Workdir string `json:"workdir,omitempty" mapstructure:"workdir"`
		// LogDir receives the date-stamped log files. Relative paths
		// resolve against Workdir.
		LogDir string `json:"log_dir" mapstructure:"log_dir"`
		// RuntimeEnv is a virtualenv-style directory to activate before
		// launch: its bin/ is prepended to PATH and VIRTUAL_ENV is set.
		// Empty disables activation.
		RuntimeEnv string `json:"runtime_env,omitempty" mapstructure:"runtime_env"`
		// GracePeriodSeconds is how long a stopping service gets between
		// SIGTERM and SIGKILL.
		GracePeriodSeconds int `json:"grace_period_seconds" mapstructure:"grace_period_seconds"`

		Proxy  ProxyConfig  `json:"proxy" mapstructure:"proxy"`
		Worker WorkerConfig `json:"worker" mapstructure:"worker"`
		Server ServerConfig `json:"server" mapstructure:"server"`
		UI     UIConfig     `json:"ui" mapstructure:"ui"`
	}
)

// Error implements the error interface.
func (e *InvalidPoolModeError) Error() string {
	return fmt.Sprintf("invalid pool mode %q (valid: prefork, threads, solo, gevent, eventlet)", e.Value)
}

// Unwrap returns ErrInvalidPoolMode for errors.Is() compatibility.
func (e *InvalidPoolModeError) Unwrap() error { return ErrInvalidPoolMode }

// Error implements the error interface.
func (e *InvalidWorkerLogLevelError) Error() string {
	return fmt.Sprintf("invalid worker log level %q (valid: DEBUG, INFO, WARNING, ERROR, CRITICAL)", e.Value)
}

// Unwrap returns ErrInvalidWorkerLogLevel for errors.Is() compatibility.
func (e *InvalidWorkerLogLevelError) Unwrap() error { return ErrInvalidWorkerLogLevel }

// Error implements the error interface.
func (e *InvalidQueueNameError) Error() string {
	return fmt.Sprintf("invalid queue name %q (must be non-empty, without commas or whitespace)", e.Value)
}

// Unwrap returns ErrInvalidQueueName for errors.Is() compatibility.
func (e *InvalidQueueNameError) Unwrap() error { return ErrInvalidQueueName }

// Error implements the error interface.
func (e *InvalidConcurrencyError) Error() string {
	return fmt.Sprintf("invalid concurrency %d (must be at least 1)", e.Value)
}

// Unwrap returns ErrInvalidConcurrency for errors.Is() compatibility.
func (e *InvalidConcurrencyError) Unwrap() error { return ErrInvalidConcurrency }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the PoolMode.
func (m PoolMode) String() string { return string(m) }

// Validate returns nil if the PoolMode is one of the supported pool modes.
func (m PoolMode) Validate() error {
	switch m {
	case PoolPrefork, PoolThreads, PoolSolo, PoolGevent, PoolEventlet:
		return nil
	default:
		return &InvalidPoolModeError{Value: m}
	}
}

// String returns the string representation of the WorkerLogLevel.
func (l WorkerLogLevel) String() string { return string(l) }

// Validate returns nil if the WorkerLogLevel is one of the tool's levels.
func (l WorkerLogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelCritical:
		return nil
	default:
		return &InvalidWorkerLogLevelError{Value: l}
	}
}

// String returns the string representation of the QueueName.
func (q QueueName) String() string { return string(q) }

// Validate returns nil if the QueueName can appear in a comma-joined -Q list.
func (q QueueName) Validate() error {
	s := string(q)
	if s == "" || strings.ContainsAny(s, ", \t\n\r") {
		return &InvalidQueueNameError{Value: q}
	}
	return nil
}

// Validate returns nil if the Concurrency is at least 1.
func (c Concurrency) Validate() error {
	if c < 1 {
		return &InvalidConcurrencyError{Value: c}
	}
	return nil
}

// JoinQueues renders the queue list as the comma-joined -Q argument.
func JoinQueues(queues []QueueName) string {
	parts := make([]string, len(queues))
	for i, q := range queues {
		parts[i] = string(q)
	}
	return strings.Join(parts, ",")
}

// Validate checks every typed field and aggregates failures into a single
// InvalidConfigError.
func (c *Config) Validate() error {
	var fieldErrs []error

	if err := c.Worker.Pool.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	if err := c.Worker.LogLevel.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	if err := c.Worker.Concurrency.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	for _, q := range c.Worker.Queues {
		if err := q.Validate(); err != nil {
			fieldErrs = append(fieldErrs, err)
		}
	}
	if err := c.Server.Port.Validate(); err != nil {
		fieldErrs = append(fieldErrs, err)
	}
	if c.GracePeriodSeconds < 0 {
		fieldErrs = append(fieldErrs, fmt.Errorf("grace_period_seconds must not be negative, got %d", c.GracePeriodSeconds))
	}

	if len(fieldErrs) > 0 {
		return &InvalidConfigError{FieldErrors: fieldErrs}
	}
	return nil
}

// DefaultConfig returns the built-in configuration: the worker and server
// invocations used by the original launch scripts.
func DefaultConfig() *Config {
	return &Config{
		Workdir:            "",
		LogDir:             "logs",
		RuntimeEnv:         "",
		GracePeriodSeconds: 10,
		Proxy:              ProxyConfig{},
		Worker: WorkerConfig{
			Program:     "celery",
			App:         "app.celery",
			Pool:        PoolPrefork,
			Concurrency: 1,
			Queues:      []QueueName{"dataset", "generation", "mail", "ops_trace"},
			LogLevel:    LogLevelInfo,
		},
		Server: ServerConfig{
			Program: "flask",
			Host:    "0.0.0.0",
			Port:    5001,
			Debug:   true,
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}
