// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to redirect the config directory.
// os.UserHomeDir() does not reliably respect the HOME environment variable
// on all platforms, so tests set this instead of mutating HOME.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path for tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
