// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"stackup-cli/internal/issue"
	"stackup-cli/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "stackup"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the stackup configuration directory using the platform's
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// and $XDG_CONFIG_HOME (default ~/.config) elsewhere.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the full path of the config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without touching
// package-level cache state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("workdir", defaults.Workdir)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("runtime_env", defaults.RuntimeEnv)
	v.SetDefault("grace_period_seconds", defaults.GracePeriodSeconds)
	v.SetDefault("proxy.http", defaults.Proxy.HTTP)
	v.SetDefault("proxy.https", defaults.Proxy.HTTPS)
	v.SetDefault("proxy.no_proxy", defaults.Proxy.NoProxy)
	v.SetDefault("worker.program", defaults.Worker.Program)
	v.SetDefault("worker.app", defaults.Worker.App)
	v.SetDefault("worker.pool", string(defaults.Worker.Pool))
	v.SetDefault("worker.concurrency", int(defaults.Worker.Concurrency))
	v.SetDefault("worker.queues", queueStrings(defaults.Worker.Queues))
	v.SetDefault("worker.log_level", string(defaults.Worker.LogLevel))
	v.SetDefault("server.program", defaults.Server.Program)
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", int(defaults.Server.Port))
	v.SetDefault("server.debug", defaults.Server.Debug)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	resolvedPath := ""

	// An explicit --config path is used exclusively; a missing file is an error.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'stackup config init' to create a default config").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", wrapConfigParseError(err, opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", wrapConfigParseError(err, cuePath)
			}
			resolvedPath = cuePath
		}
		// No config file means defaults, not an error.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the offending field, or delete the file to fall back to defaults").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func wrapConfigParseError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values match the expected schema").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
//
// This is manual CUE plumbing rather than cueutil.Decode because the
// result must land in Viper's config map (to preserve defaults), not in a
// struct, and optional fields require Concrete(false).
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a default config file unless one already exists.
func CreateDefaultConfig(force bool) (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return cfgPath, fmt.Errorf("config file already exists: %s", cfgPath)
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE renders the configuration back as a CUE document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// stackup configuration file\n\n")

	if cfg.Workdir != "" {
		fmt.Fprintf(&sb, "workdir: %q\n", cfg.Workdir)
	}
	fmt.Fprintf(&sb, "log_dir: %q\n", cfg.LogDir)
	if cfg.RuntimeEnv != "" {
		fmt.Fprintf(&sb, "runtime_env: %q\n", cfg.RuntimeEnv)
	}
	fmt.Fprintf(&sb, "grace_period_seconds: %d\n", cfg.GracePeriodSeconds)

	if cfg.Proxy != (ProxyConfig{}) {
		sb.WriteString("\nproxy: {\n")
		if cfg.Proxy.HTTP != "" {
			fmt.Fprintf(&sb, "\thttp: %q\n", cfg.Proxy.HTTP)
		}
		if cfg.Proxy.HTTPS != "" {
			fmt.Fprintf(&sb, "\thttps: %q\n", cfg.Proxy.HTTPS)
		}
		if cfg.Proxy.NoProxy != "" {
			fmt.Fprintf(&sb, "\tno_proxy: %q\n", cfg.Proxy.NoProxy)
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nworker: {\n")
	fmt.Fprintf(&sb, "\tprogram: %q\n", cfg.Worker.Program)
	fmt.Fprintf(&sb, "\tapp: %q\n", cfg.Worker.App)
	fmt.Fprintf(&sb, "\tpool: %q\n", cfg.Worker.Pool)
	fmt.Fprintf(&sb, "\tconcurrency: %d\n", cfg.Worker.Concurrency)
	sb.WriteString("\tqueues: [")
	for i, q := range cfg.Worker.Queues {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", q)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\tlog_level: %q\n", cfg.Worker.LogLevel)
	sb.WriteString("}\n")

	sb.WriteString("\nserver: {\n")
	fmt.Fprintf(&sb, "\tprogram: %q\n", cfg.Server.Program)
	fmt.Fprintf(&sb, "\thost: %q\n", cfg.Server.Host)
	fmt.Fprintf(&sb, "\tport: %d\n", cfg.Server.Port)
	fmt.Fprintf(&sb, "\tdebug: %v\n", cfg.Server.Debug)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func queueStrings(queues []QueueName) []string {
	out := make([]string, len(queues))
	for i, q := range queues {
		out[i] = string(q)
	}
	return out
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
