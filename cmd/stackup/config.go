// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stackup-cli/internal/config"
)

// newConfigCommand creates the `stackup config` command tree.
func newConfigCommand(flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stackup configuration",
		Long: `Manage stackup configuration.

Configuration is stored in:
  - Linux: ~/.config/stackup/config.cue
  - macOS: ~/Library/Application Support/stackup/config.cue
  - Windows: %APPDATA%\stackup\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			showConfig(app)
			return nil
		},
	})

	var initForce bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig(initForce)
			if err != nil {
				return err
			}
			fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), ServiceStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(app.Config))
			return nil
		},
	})

	return cfgCmd
}

// showConfig prints a styled summary of the effective configuration.
func showConfig(app *App) {
	cfg := app.Config
	key := SubtitleStyle
	val := SuccessStyle

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)

	if path, err := config.ConfigFilePath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Fprintf(app.stdout, "%s: %s\n", key.Render("Config file"), path)
		} else {
			fmt.Fprintf(app.stdout, "%s: (using defaults)\n", key.Render("Config file"))
		}
	}

	workdir := cfg.Workdir
	if workdir == "" {
		workdir = "(stackfile directory)"
	}
	runtimeEnv := cfg.RuntimeEnv
	if runtimeEnv == "" {
		runtimeEnv = "(none)"
	}
	fmt.Fprintf(app.stdout, "%s: %s\n", key.Render("Workdir"), val.Render(workdir))
	fmt.Fprintf(app.stdout, "%s: %s\n", key.Render("Log dir"), val.Render(cfg.LogDir))
	fmt.Fprintf(app.stdout, "%s: %s\n", key.Render("Runtime env"), val.Render(runtimeEnv))
	fmt.Fprintf(app.stdout, "%s: %s\n", key.Render("Grace period"), val.Render(fmt.Sprintf("%ds", cfg.GracePeriodSeconds)))
	fmt.Fprintln(app.stdout)

	fmt.Fprintln(app.stdout, key.Render("Worker"))
	fmt.Fprintf(app.stdout, "  program: %s  app: %s  pool: %s  concurrency: %d\n",
		val.Render(cfg.Worker.Program), val.Render(cfg.Worker.App),
		val.Render(string(cfg.Worker.Pool)), int(cfg.Worker.Concurrency))
	fmt.Fprintf(app.stdout, "  queues: %s  loglevel: %s\n",
		val.Render(config.JoinQueues(cfg.Worker.Queues)), val.Render(string(cfg.Worker.LogLevel)))

	fmt.Fprintln(app.stdout, key.Render("Server"))
	fmt.Fprintf(app.stdout, "  program: %s  bind: %s  debug: %t\n",
		val.Render(cfg.Server.Program),
		val.Render(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)), cfg.Server.Debug)

	if cfg.Proxy.HTTP != "" || cfg.Proxy.HTTPS != "" || cfg.Proxy.NoProxy != "" {
		fmt.Fprintln(app.stdout, key.Render("Proxy"))
		fmt.Fprintf(app.stdout, "  http: %s  https: %s  no_proxy: %s\n",
			cfg.Proxy.HTTP, cfg.Proxy.HTTPS, cfg.Proxy.NoProxy)
	}
}
