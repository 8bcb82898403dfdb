// SPDX-License-Identifier: MPL-2.0

// Package types holds shared typed primitives used across the CLI, config,
// and launch layers. Each primitive validates itself via Validate() and wraps
// a package-level sentinel error so callers can branch with errors.Is().
package types
