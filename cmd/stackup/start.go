// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"stackup-cli/internal/issue"
	"stackup-cli/internal/launch"
	"stackup-cli/internal/logsink"
	"stackup-cli/internal/state"
	"stackup-cli/internal/supervise"
	"stackup-cli/internal/watch"
	"stackup-cli/pkg/stackfile"
)

// startOptions carries the launch flags shared by up, worker, server, and run.
type startOptions struct {
	detach   bool
	watch    bool
	logDir   string
	envFiles []string
	envVars  []string
}

// startServices launches the named services, either supervised in the
// foreground or detached into the background.
func (a *App) startServices(ctx context.Context, names []stackfile.ServiceName, opts startOptions) error {
	overlay, err := parseEnvOverlay(opts.envFiles, opts.envVars)
	if err != nil {
		return err
	}
	builder := a.specBuilder(overlay)

	specs := make([]*launch.ProcessSpec, 0, len(names))
	for _, name := range names {
		spec, err := builder.Build(name)
		if err != nil {
			return wrapLaunchError(err, name)
		}
		specs = append(specs, spec)
	}

	logDir := builder.LogDir()
	if opts.logDir != "" {
		logDir, err = filepath.Abs(opts.logDir)
		if err != nil {
			return fmt.Errorf("resolving log directory %s: %w", opts.logDir, err)
		}
	}
	if opts.detach {
		return a.startDetached(specs, logDir)
	}
	return a.startForeground(ctx, specs, logDir, opts.watch)
}

// startForeground supervises the services until the first exits or the
// user interrupts. Each service's combined output is teed to the terminal
// and its date-stamped log file.
func (a *App) startForeground(ctx context.Context, specs []*launch.ProcessSpec, logDir string, watchRequested bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := len(specs) == 1 && term.IsTerminal(int(os.Stdout.Fd()))

	members := make([]supervise.Member, 0, len(specs))
	sinks := make([]*logsink.Sink, 0, len(specs))
	defer func() {
		for _, sink := range sinks {
			if err := sink.Close(); err != nil {
				a.logger.Error("closing log sink", "error", err)
			}
		}
	}()

	for _, spec := range specs {
		sink, err := logsink.New(logDir, spec.Name)
		if err != nil {
			renderCard(a.stderr, issue.LogDirNotWritableId)
			return issue.NewErrorContext().
				WithOperation("opening log file").
				WithResource(logDir).
				WithSuggestion("check that the log directory is writable, or change log_dir in the configuration").
				Wrap(err).
				BuildError()
		}
		sinks = append(sinks, sink)

		member := supervise.Member{
			Spec:        spec,
			Output:      logsink.Tee(a.stdout, sink),
			Interactive: interactive,
		}
		if restarts := a.startWatcher(ctx, spec, watchRequested); restarts != nil {
			member.Restart = restarts
		}
		members = append(members, member)

		a.logger.Debug("service resolved",
			"service", spec.Name, "program", spec.Path, "workdir", spec.Dir, "log", sink.Path())
	}

	sup := &supervise.Supervisor{
		Grace:  time.Duration(a.Config.GracePeriodSeconds) * time.Second,
		Logger: a.logger,
	}
	code, err := sup.Run(ctx, members)
	if err != nil {
		return &ExitError{Code: code, Err: err}
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// startWatcher builds and runs a file watcher for the service when watching
// is requested by flag or by the service's manifest entry. Returns nil when
// the service has nothing to watch.
func (a *App) startWatcher(ctx context.Context, spec *launch.ProcessSpec, requested bool) <-chan struct{} {
	if !requested && spec.Watch == nil {
		return nil
	}

	cfg := watch.Config{BaseDir: spec.Dir, Logger: a.logger}
	if spec.Watch != nil {
		cfg.Patterns = spec.Watch.Patterns
		cfg.Ignore = spec.Watch.Ignore
		cfg.Debounce = time.Duration(spec.Watch.DebounceMillis) * time.Millisecond
	}

	w, err := watch.New(cfg)
	if err != nil {
		a.logger.Error("file watching disabled", "service", spec.Name, "error", err)
		return nil
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			a.logger.Error("file watcher stopped", "service", spec.Name, "error", err)
		}
	}()
	return w.Restarts()
}

// startDetached launches each service in its own session with output
// redirected to its log file, records it in the state registry, and returns.
func (a *App) startDetached(specs []*launch.ProcessSpec, logDir string) error {
	registry, err := a.registry()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		renderCard(a.stderr, issue.LogDirNotWritableId)
		return fmt.Errorf("creating log directory %s: %w", logDir, err)
	}

	for _, spec := range specs {
		logPath := logsink.FilePath(logDir, spec.Name, time.Now())

		// Pre-start hooks run before detaching so their failures surface
		// here instead of silently inside a background session.
		if spec.PreStart.IsSet() {
			hookOut, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening log file %s: %w", logPath, err)
			}
			hookErr := launch.RunPreStart(context.Background(), spec, hookOut)
			hookOut.Close()
			if hookErr != nil {
				return hookErr
			}
		}

		pid, err := launch.Detach(spec, logPath)
		if err != nil {
			return wrapLaunchError(err, spec.Name)
		}

		run := state.Run{
			ID:        state.NewID(),
			Service:   string(spec.Name),
			PID:       pid,
			StartedAt: time.Now().UTC(),
			LogPath:   logPath,
			Workdir:   spec.Dir,
			Args:      append([]string{spec.Path}, spec.Args...),
		}
		if err := registry.Register(run); err != nil {
			// The process is up but untracked; kill it rather than leak it.
			_ = state.Terminate(pid)
			return wrapLaunchError(err, spec.Name)
		}

		fmt.Fprintf(a.stdout, "%s started %s (pid %d) logging to %s\n",
			SuccessStyle.Render("✓"),
			ServiceStyle.Render(string(spec.Name)),
			pid,
			ServiceStyle.Render(logPath))
	}
	return nil
}

// wrapLaunchError attaches actionable context to the common launch failures.
func wrapLaunchError(err error, name stackfile.ServiceName) error {
	ec := issue.NewErrorContext().
		WithOperation(fmt.Sprintf("starting service %q", name)).
		Wrap(err)

	switch {
	case isProgramNotFound(err):
		ec = ec.
			WithSuggestion("check that the program is installed and on PATH").
			WithSuggestion("set runtime_env in the configuration if it lives in a virtualenv")
	case isAlreadyRunning(err):
		ec = ec.
			WithSuggestion(fmt.Sprintf("run 'stackup stop %s' to stop the existing instance", name)).
			WithSuggestion("run 'stackup status' to see what is running")
	case isServiceUnknown(err):
		ec = ec.
			WithSuggestion("run 'stackup status' to list the services the stackfile defines").
			WithSuggestion("check the service name for typos")
	}
	return ec.BuildError()
}

func isProgramNotFound(err error) bool { return errors.Is(err, launch.ErrProgramNotFound) }

func isAlreadyRunning(err error) bool { return errors.Is(err, state.ErrAlreadyRunning) }

func isServiceUnknown(err error) bool { return errors.Is(err, stackfile.ErrServiceNotFound) }
