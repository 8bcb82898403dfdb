// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stackup-cli/internal/config"
	"stackup-cli/pkg/stackfile"
	"stackup-cli/pkg/types"
)

var (
	// ErrProgramNotFound is the sentinel error wrapped by ProgramNotFoundError.
	ErrProgramNotFound = errors.New("program not found")
)

type (
	// ProgramNotFoundError is returned when a service's program cannot be
	// resolved to an executable on the launch PATH.
	ProgramNotFoundError struct {
		Program string
		Service stackfile.ServiceName
	}

	// ProcessSpec is a fully resolved launch request: everything an OS
	// process needs, with no config or manifest lookups left.
	ProcessSpec struct {
		// Name identifies the service for logging and the state registry.
		Name stackfile.ServiceName
		// Path is the resolved absolute path of the executable.
		Path string
		// Args are the arguments, not including the program itself.
		Args []string
		// Dir is the working directory.
		Dir string
		// Env is the complete child environment.
		Env map[string]string
		// PreStart is run in the embedded shell before the process starts.
		PreStart stackfile.HookScript
		// Watch carries the restart-on-change configuration, if any.
		Watch *stackfile.WatchConfig
	}

	// SpecBuilder resolves service names into ProcessSpecs. The manifest is
	// optional: the well-known services are synthesized from config alone.
	SpecBuilder struct {
		Config *config.Config
		// Stack is the parsed manifest, or nil when the project has none.
		Stack *stackfile.Stackfile
		// Overlay adjusts the environment of every built spec.
		Overlay EnvOverlay
	}

	// EnvOverlay carries the per-invocation environment flags.
	EnvOverlay struct {
		Files []stackfile.DotenvFilePath
		Vars  map[string]string
	}
)

func (e *ProgramNotFoundError) Error() string {
	return fmt.Sprintf("service %q: program %q not found on PATH", e.Service, e.Program)
}

func (e *ProgramNotFoundError) Unwrap() error { return ErrProgramNotFound }

// WorkerArgs renders the worker command line from config:
//
//	-A <app> worker -P <pool> -c <concurrency> -Q <q1,q2,...> --loglevel <level>
func WorkerArgs(w config.WorkerConfig) []string {
	return []string{
		"-A", w.App,
		"worker",
		"-P", w.Pool.String(),
		"-c", strconv.Itoa(int(w.Concurrency)),
		"-Q", config.JoinQueues(w.Queues),
		"--loglevel", w.LogLevel.String(),
	}
}

// ServerArgs renders the dev-server command line from config:
//
//	run --host <host> --port <port> [--debug]
func ServerArgs(s config.ServerConfig) []string {
	args := []string{
		"run",
		"--host", s.Host,
		"--port", strconv.Itoa(int(s.Port)),
	}
	if s.Debug {
		args = append(args, "--debug")
	}
	return args
}

// Build resolves one service into a ProcessSpec. The service comes from the
// manifest when defined there; the well-known "worker" and "server" names
// fall back to config-synthesized definitions otherwise.
func (b *SpecBuilder) Build(name stackfile.ServiceName) (*ProcessSpec, error) {
	svc, err := b.lookupService(name)
	if err != nil {
		return nil, err
	}

	dir, err := b.resolveWorkDir(svc)
	if err != nil {
		return nil, err
	}

	env, err := b.buildEnv(svc)
	if err != nil {
		return nil, err
	}

	path, err := resolveProgram(svc.Program, dir, env["PATH"])
	if err != nil {
		return nil, &ProgramNotFoundError{Program: svc.Program, Service: name}
	}

	return &ProcessSpec{
		Name:     name,
		Path:     path,
		Args:     svc.Args,
		Dir:      dir,
		Env:      env,
		PreStart: svc.PreStart,
		Watch:    svc.Watch,
	}, nil
}

// lookupService returns the effective service definition for name.
func (b *SpecBuilder) lookupService(name stackfile.ServiceName) (*stackfile.Service, error) {
	if b.Stack != nil {
		if svc, err := b.Stack.FindService(name); err == nil {
			return svc, nil
		}
	}
	switch name {
	case stackfile.ServiceWorker:
		return &stackfile.Service{
			Name:    string(name),
			Program: b.Config.Worker.Program,
			Args:    WorkerArgs(b.Config.Worker),
		}, nil
	case stackfile.ServiceServer:
		return &stackfile.Service{
			Name:    string(name),
			Program: b.Config.Server.Program,
			Args:    ServerArgs(b.Config.Server),
		}, nil
	}
	return nil, &stackfile.ServiceNotFoundError{Name: name}
}

func (b *SpecBuilder) baseDir() string {
	if b.Stack != nil {
		return b.Stack.BaseDir()
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// resolveWorkDir picks the working directory: service workdir, then the
// config workdir, then the stackfile directory (or the current directory).
func (b *SpecBuilder) resolveWorkDir(svc *stackfile.Service) (string, error) {
	base := b.baseDir()
	dir := base
	if b.Config.Workdir != "" {
		dir = types.FilesystemPath(b.Config.Workdir).Resolve(base)
	}
	if svc.WorkDir != "" {
		dir = types.FilesystemPath(svc.WorkDir).Resolve(base)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("workdir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workdir %s: not a directory", dir)
	}
	return dir, nil
}

func (b *SpecBuilder) buildEnv(svc *stackfile.Service) (map[string]string, error) {
	var stackEnv *stackfile.EnvConfig
	if b.Stack != nil {
		stackEnv = b.Stack.Env
	}
	builder := &EnvBuilder{
		Inherit:      svc.EnvInherit,
		InheritAllow: svc.EnvInheritAllow,
		RuntimeEnv:   b.resolveRuntimeEnv(),
		Proxy:        b.Config.Proxy,
		BaseDir:      b.baseDir(),
		StackEnv:     stackEnv,
		ServiceEnv:   svc.Env,
		ExtraFiles:   b.Overlay.Files,
		ExtraVars:    b.Overlay.Vars,
	}
	return builder.Build()
}

func (b *SpecBuilder) resolveRuntimeEnv() string {
	if b.Config.RuntimeEnv == "" {
		return ""
	}
	return types.FilesystemPath(b.Config.RuntimeEnv).Resolve(b.baseDir())
}

// LogDir returns the absolute log directory for the current invocation.
// Relative config values resolve against the effective working directory.
func (b *SpecBuilder) LogDir() string {
	base := b.baseDir()
	if b.Config.Workdir != "" {
		base = types.FilesystemPath(b.Config.Workdir).Resolve(base)
	}
	return types.FilesystemPath(b.Config.LogDir).Resolve(base)
}

// resolveProgram locates the executable for a program reference. References
// containing a path separator resolve against the working directory; bare
// names are searched on the given PATH value, which reflects any runtime
// environment activation rather than the parent's own PATH.
func resolveProgram(program, dir, pathValue string) (string, error) {
	if program == "" {
		return "", errors.New("empty program")
	}
	if strings.ContainsRune(program, os.PathSeparator) {
		candidate := types.FilesystemPath(program).Resolve(dir)
		if err := checkExecutable(candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
	for _, searchDir := range filepath.SplitList(pathValue) {
		if searchDir == "" {
			continue
		}
		candidate := filepath.Join(searchDir, program)
		if err := checkExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrProgramNotFound
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s: not executable", path)
	}
	return nil
}
