// SPDX-License-Identifier: MPL-2.0

// Package state tracks detached service runs across launcher invocations.
//
// Every detached launch is recorded in a TOML registry under the user's
// state directory ($XDG_STATE_HOME/stackup, or ~/.local/state/stackup).
// Each record carries a ULID run id, the service name, the PID, the log
// path, and the start time. Registry mutations are serialized across
// processes with an exclusive flock on a sibling lock file, so concurrent
// "up -d" and "stop" invocations never corrupt the file. Records whose
// process is gone are pruned on read.
package state
