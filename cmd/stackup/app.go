// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"stackup-cli/internal/config"
	"stackup-cli/internal/issue"
	"stackup-cli/internal/launch"
	"stackup-cli/internal/state"
	"stackup-cli/pkg/stackfile"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: command handlers receive an App and delegate
	// through it instead of touching globals.
	App struct {
		Config  *config.Config
		// Stack is the discovered manifest, or nil when the project has none.
		Stack   *stackfile.Stackfile
		Verbose bool

		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// rootFlags holds the persistent flag values shared by every command.
	rootFlags struct {
		verbose   bool
		cfgFile   string
		stackFile string
	}
)

// newApp loads configuration and discovers the project manifest.
func newApp(ctx context.Context, flags *rootFlags) (*App, error) {
	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.cfgFile,
	})
	if err != nil {
		renderCard(os.Stderr, issue.ConfigLoadFailedId)
		return nil, issue.NewErrorContext().
			WithOperation("loading configuration").
			WithSuggestion("run 'stackup config show' to inspect the active configuration").
			WithSuggestion("run 'stackup config init --force' to regenerate the default file").
			Wrap(err).
			BuildError()
	}

	stack, err := loadStackfile(flags.stackFile)
	if err != nil {
		return nil, err
	}

	verbose := flags.verbose || cfg.UI.Verbose
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "stackup"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return &App{
		Config:  cfg,
		Stack:   stack,
		Verbose: verbose,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logger,
	}, nil
}

// loadStackfile parses the manifest at path, or discovers one from the
// current directory upward. A project without a manifest is fine; the
// well-known services are synthesized from config.
func loadStackfile(path string) (*stackfile.Stackfile, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
		path = stackfile.Discover(wd)
		if path == "" {
			return nil, nil
		}
	}

	stack, err := stackfile.Parse(path)
	if err != nil {
		renderCard(os.Stderr, issue.StackfileParseErrorId)
		return nil, issue.NewErrorContext().
			WithOperation("parsing stackfile").
			WithResource(path).
			WithSuggestion("run 'stackup init' to generate a valid starter manifest").
			Wrap(err).
			BuildError()
	}
	return stack, nil
}

// specBuilder returns a SpecBuilder carrying the per-invocation env flags.
func (a *App) specBuilder(overlay launch.EnvOverlay) *launch.SpecBuilder {
	return &launch.SpecBuilder{
		Config:  a.Config,
		Stack:   a.Stack,
		Overlay: overlay,
	}
}

// registry opens the detached-run state registry.
func (a *App) registry() (*state.Registry, error) {
	dir, err := state.Dir()
	if err != nil {
		return nil, err
	}
	return state.NewRegistry(dir)
}

// appFromCommand builds the App for a RunE handler using the root flags.
// Load failures render their catalog cards inside newApp, where the failing
// resource is known; the actionable detail is printed here since no App
// exists yet to report through.
func appFromCommand(cmd *cobra.Command, flags *rootFlags) (*App, error) {
	app, err := newApp(cmd.Context(), flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, flags.verbose))
	}
	return app, err
}

// reportError renders the catalog card matching err's failure class and
// prints the actionable detail (suggestions included) before handing the
// error back to cobra. Nil passes through untouched.
func (a *App) reportError(err error) error {
	if err == nil {
		return nil
	}
	// An unknown service in a project without a manifest usually means the
	// manifest is missing, not that the name is wrong.
	if errors.Is(err, stackfile.ErrServiceNotFound) && a.Stack == nil {
		renderCard(a.stderr, issue.StackfileNotFoundId)
	} else {
		renderIssueCard(a.stderr, err)
	}
	fmt.Fprintf(a.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.Verbose))
	return err
}

// formatErrorForDisplay renders an error for the terminal. ActionableErrors
// get their suggestion list; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// parseEnvOverlay converts the repeated --env-file and --env-var flags into
// the overlay applied on top of every other environment layer.
func parseEnvOverlay(envFiles, envVars []string) (launch.EnvOverlay, error) {
	overlay := launch.EnvOverlay{}
	for _, f := range envFiles {
		overlay.Files = append(overlay.Files, stackfile.DotenvFilePath(f))
	}
	if len(envVars) > 0 {
		overlay.Vars = make(map[string]string, len(envVars))
		for _, kv := range envVars {
			key, value, err := launch.ParseEnvVarFlag(kv)
			if err != nil {
				return launch.EnvOverlay{}, err
			}
			overlay.Vars[key] = value
		}
	}
	return overlay, nil
}
