// SPDX-License-Identifier: MPL-2.0

package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pelletier/go-toml/v2"

	"stackup-cli/pkg/stackfile"
)

const (
	registryFileName = "state.toml"
	lockFileName     = "state.lock"
)

var (
	// ErrRunNotFound is the sentinel error wrapped by RunNotFoundError.
	ErrRunNotFound = errors.New("run not found")
	// ErrAlreadyRunning is the sentinel error wrapped by AlreadyRunningError.
	ErrAlreadyRunning = errors.New("service already running")
)

type (
	// RunNotFoundError is returned when no live detached run matches a
	// service name.
	RunNotFoundError struct {
		Service stackfile.ServiceName
	}

	// AlreadyRunningError is returned when a detached launch is requested
	// for a service that already has a live run.
	AlreadyRunningError struct {
		Service stackfile.ServiceName
		PID     int
	}

	// Run is one detached service process.
	Run struct {
		// ID is a ULID assigned at launch, unique across all runs.
		ID string `toml:"id"`
		// Service is the stackfile service name.
		Service string `toml:"service"`
		// PID is the detached process id.
		PID int `toml:"pid"`
		// StartedAt is the launch time.
		StartedAt time.Time `toml:"started_at"`
		// LogPath is the log file the run's output goes to.
		LogPath string `toml:"log_path"`
		// Workdir is the directory the process was started in.
		Workdir string `toml:"workdir"`
		// Args is the full argv, program path first.
		Args []string `toml:"args,omitempty"`
	}

	// registryDoc is the on-disk TOML shape.
	registryDoc struct {
		Runs []Run `toml:"runs"`
	}

	// Registry reads and mutates the run records for one state directory.
	Registry struct {
		dir string
		// alive stands in for the process liveness probe in tests.
		alive func(pid int) bool
	}
)

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("no running detached instance of service %q", e.Service)
}

func (e *RunNotFoundError) Unwrap() error { return ErrRunNotFound }

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("service %q is already running (pid %d)", e.Service, e.PID)
}

func (e *AlreadyRunningError) Unwrap() error { return ErrAlreadyRunning }

// Dir returns the launcher's state directory, honoring XDG_STATE_HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "stackup"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving state directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "stackup"), nil
}

// NewRegistry returns a Registry rooted at dir, creating it if needed.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &Registry{dir: dir, alive: processAlive}, nil
}

// NewID returns a fresh run id.
func NewID() string {
	return ulid.Make().String()
}

// Register records a new detached run. It fails with AlreadyRunningError
// when a live run of the same service already exists.
func (r *Registry) Register(run Run) error {
	return r.withLock(func() error {
		doc, err := r.load()
		if err != nil {
			return err
		}
		doc.Runs = r.pruneDead(doc.Runs)
		for _, existing := range doc.Runs {
			if existing.Service == run.Service {
				return &AlreadyRunningError{
					Service: stackfile.ServiceName(existing.Service),
					PID:     existing.PID,
				}
			}
		}
		doc.Runs = append(doc.Runs, run)
		return r.store(doc)
	})
}

// Lookup returns the live run for a service.
func (r *Registry) Lookup(service stackfile.ServiceName) (*Run, error) {
	var found *Run
	err := r.withLock(func() error {
		doc, err := r.load()
		if err != nil {
			return err
		}
		doc.Runs = r.pruneDead(doc.Runs)
		if err := r.store(doc); err != nil {
			return err
		}
		for i := range doc.Runs {
			if doc.Runs[i].Service == string(service) {
				found = &doc.Runs[i]
				return nil
			}
		}
		return &RunNotFoundError{Service: service}
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns all live runs, pruning records whose process is gone.
func (r *Registry) List() ([]Run, error) {
	var runs []Run
	err := r.withLock(func() error {
		doc, err := r.load()
		if err != nil {
			return err
		}
		doc.Runs = r.pruneDead(doc.Runs)
		if err := r.store(doc); err != nil {
			return err
		}
		runs = doc.Runs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// Remove drops the record for a service. Removing an absent service is an
// error so that "stop" can report it.
func (r *Registry) Remove(service stackfile.ServiceName) (*Run, error) {
	var removed *Run
	err := r.withLock(func() error {
		doc, err := r.load()
		if err != nil {
			return err
		}
		kept := doc.Runs[:0]
		for i := range doc.Runs {
			if doc.Runs[i].Service == string(service) && removed == nil {
				run := doc.Runs[i]
				removed = &run
				continue
			}
			kept = append(kept, doc.Runs[i])
		}
		if removed == nil {
			return &RunNotFoundError{Service: service}
		}
		doc.Runs = kept
		return r.store(doc)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Alive reports whether the run's process still exists.
func (r *Registry) Alive(run *Run) bool {
	return r.alive(run.PID)
}

func (r *Registry) pruneDead(runs []Run) []Run {
	kept := runs[:0]
	for _, run := range runs {
		if r.alive(run.PID) {
			kept = append(kept, run)
		}
	}
	return kept
}

func (r *Registry) registryPath() string {
	return filepath.Join(r.dir, registryFileName)
}

func (r *Registry) load() (*registryDoc, error) {
	data, err := os.ReadFile(r.registryPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &registryDoc{}, nil
		}
		return nil, fmt.Errorf("reading state registry: %w", err)
	}
	var doc registryDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing state registry: %w", err)
	}
	return &doc, nil
}

// store writes the registry atomically via a rename, so a crash mid-write
// never leaves a truncated file behind.
func (r *Registry) store(doc *registryDoc) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding state registry: %w", err)
	}
	tmp := r.registryPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state registry: %w", err)
	}
	if err := os.Rename(tmp, r.registryPath()); err != nil {
		return fmt.Errorf("replacing state registry: %w", err)
	}
	return nil
}

// withLock runs fn while holding the cross-process registry lock.
func (r *Registry) withLock(fn func() error) error {
	lock, err := acquireLock(filepath.Join(r.dir, lockFileName))
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}
