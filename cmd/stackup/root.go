// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the stackup command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "stackup",
		Short: "A dev-stack service launcher",
		Long: TitleStyle.Render("stackup") + SubtitleStyle.Render(" - A dev-stack service launcher") + `

stackup replaces the pile of launch scripts a backend project grows:
it starts the task-queue worker and the web dev server with the right
environment (virtualenv activation, proxy variables, dotenv files),
tees their output into date-stamped log files, and supervises them in
the foreground or detaches them into the background.

Services are defined in an optional 'stackfile.cue' manifest; the
well-known "worker" and "server" services work out of the box from
the global configuration.

` + SubtitleStyle.Render("Examples:") + `
  stackup up                Run worker and server in the foreground
  stackup up -d             Detach the whole stack into the background
  stackup worker            Run only the task-queue worker
  stackup server --watch    Run the dev server, restarting on changes
  stackup status            Show detached services
  stackup stop --all        Stop all detached services`,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "config file (default is $HOME/.config/stackup/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&flags.stackFile, "stackfile", "f", "", "stackfile path (default is the nearest stackfile.cue)")

	rootCmd.AddCommand(newUpCommand(flags))
	rootCmd.AddCommand(newWorkerCommand(flags))
	rootCmd.AddCommand(newServerCommand(flags))
	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newStatusCommand(flags))
	rootCmd.AddCommand(newStopCommand(flags))
	rootCmd.AddCommand(newLogsCommand(flags))
	rootCmd.AddCommand(newConfigCommand(flags))
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCompletionCommand())

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
