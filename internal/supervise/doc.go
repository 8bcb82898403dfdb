// SPDX-License-Identifier: MPL-2.0

// Package supervise runs foreground services and manages their lifecycle.
//
// A Handle wraps a single service process with an explicit state machine
// (created, starting, running, stopping, stopped, failed) and atomic
// transitions, so concurrent observers get lock-free state reads. A
// Supervisor runs a group of handles together: the first service to exit
// brings the group down, interruption delivers a graceful stop to every
// member, and the group's exit code mirrors the first exiting service's.
package supervise
