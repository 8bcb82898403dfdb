// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the global stackup configuration.
//
// Configuration lives in a CUE file under the platform config directory
// (e.g. ~/.config/stackup/config.cue on Linux). The file is validated
// against an embedded CUE schema, merged over built-in defaults via Viper,
// and then checked against the Go-level constraints the schema cannot
// express. The built-in defaults reproduce the worker and dev-server
// invocations of the original launch scripts.
package config
