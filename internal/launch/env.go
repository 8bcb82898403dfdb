// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stackup-cli/internal/config"
	"stackup-cli/pkg/stackfile"
)

// EnvBuilder assembles the child process environment in layers. Later
// layers override earlier ones for the same key:
//
//  1. host environment (filtered by the inherit mode)
//  2. runtime environment activation (PATH, VIRTUAL_ENV)
//  3. proxy variables from the config, upper and lower case
//  4. stackfile-level env files, in listed order
//  5. stackfile-level env vars
//  6. service-level env files, in listed order
//  7. service-level env vars
//  8. --env-file flags, in flag order
//  9. --env-var flags
type EnvBuilder struct {
	// Inherit controls how the host environment seeds the map. The empty
	// value means EnvInheritAll.
	Inherit stackfile.EnvInheritMode
	// InheritAllow lists the host variables kept under EnvInheritAllow.
	InheritAllow []stackfile.EnvVarName
	// RuntimeEnv is the root of a virtualenv-style runtime environment.
	// When set, its bin directory is prepended to PATH and VIRTUAL_ENV
	// is exported, mirroring the activate script.
	RuntimeEnv string
	// Proxy values are exported as HTTP_PROXY/HTTPS_PROXY/NO_PROXY and
	// their lowercase twins, since tooling disagrees on which one wins.
	Proxy config.ProxyConfig
	// BaseDir anchors relative dotenv paths from the stackfile.
	BaseDir string

	StackEnv   *stackfile.EnvConfig
	ServiceEnv *stackfile.EnvConfig

	// ExtraFiles and ExtraVars carry the --env-file and --env-var flags.
	ExtraFiles []stackfile.DotenvFilePath
	ExtraVars  map[string]string

	// environ stands in for os.Environ in tests.
	environ func() []string
}

// Build produces the complete environment map for the child process.
func (b *EnvBuilder) Build() (map[string]string, error) {
	env := make(map[string]string)

	if b.Inherit != stackfile.EnvInheritNone {
		allowed := b.allowedKeys()
		environ := os.Environ
		if b.environ != nil {
			environ = b.environ
		}
		for _, kv := range environ() {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if allowed != nil {
				if _, keep := allowed[key]; !keep {
					continue
				}
			}
			env[key] = value
		}
	}

	if b.RuntimeEnv != "" {
		activateRuntimeEnv(env, b.RuntimeEnv)
	}

	applyProxy(env, b.Proxy)

	if err := b.applyEnvConfig(env, b.StackEnv); err != nil {
		return nil, err
	}
	if err := b.applyEnvConfig(env, b.ServiceEnv); err != nil {
		return nil, err
	}

	for _, ref := range b.ExtraFiles {
		vars, err := LoadDotenvFile(ref, b.BaseDir)
		if err != nil {
			return nil, err
		}
		maps.Copy(env, vars)
	}
	maps.Copy(env, b.ExtraVars)

	return env, nil
}

// allowedKeys returns the allowlist as a set, or nil when every host
// variable is inherited.
func (b *EnvBuilder) allowedKeys() map[string]struct{} {
	if b.Inherit != stackfile.EnvInheritAllow {
		return nil
	}
	allowed := make(map[string]struct{}, len(b.InheritAllow))
	for _, name := range b.InheritAllow {
		allowed[string(name)] = struct{}{}
	}
	return allowed
}

func (b *EnvBuilder) applyEnvConfig(env map[string]string, ec *stackfile.EnvConfig) error {
	for _, ref := range ec.GetFiles() {
		vars, err := LoadDotenvFile(ref, b.BaseDir)
		if err != nil {
			return err
		}
		maps.Copy(env, vars)
	}
	maps.Copy(env, ec.GetVars())
	return nil
}

// activateRuntimeEnv replays what `source <env>/bin/activate` does to the
// variables that matter for process launch.
func activateRuntimeEnv(env map[string]string, root string) {
	binDir := filepath.Join(root, "bin")
	if path, ok := env["PATH"]; ok && path != "" {
		env["PATH"] = binDir + string(os.PathListSeparator) + path
	} else {
		env["PATH"] = binDir
	}
	env["VIRTUAL_ENV"] = root
	// The activate script also unsets PYTHONHOME, which shadows the venv.
	delete(env, "PYTHONHOME")
}

func applyProxy(env map[string]string, proxy config.ProxyConfig) {
	setBothCases(env, "HTTP_PROXY", proxy.HTTP)
	setBothCases(env, "HTTPS_PROXY", proxy.HTTPS)
	setBothCases(env, "NO_PROXY", proxy.NoProxy)
}

func setBothCases(env map[string]string, upper, value string) {
	if value == "" {
		return
	}
	env[upper] = value
	env[strings.ToLower(upper)] = value
}

// EnvToSlice converts an environment map to the KEY=VALUE slice form that
// exec.Cmd expects, sorted for deterministic output.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for key, value := range env {
		result = append(result, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(result)
	return result
}

// ParseEnvVarFlag splits a --env-var flag of the form KEY=VALUE and
// validates the key.
func ParseEnvVarFlag(flag string) (string, string, error) {
	key, value, found := strings.Cut(flag, "=")
	if !found {
		return "", "", fmt.Errorf("invalid env var flag %q: expected KEY=VALUE", flag)
	}
	if err := stackfile.EnvVarName(key).Validate(); err != nil {
		return "", "", err
	}
	return key, value, nil
}
