// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"stackup-cli/internal/state"
)

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
		{26 * time.Hour, "1d2h"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestShowStatusListsRunID(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	dir, err := state.Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	registry, err := state.NewRegistry(dir)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	// The test's own PID keeps the run alive through List's pruning.
	run := state.Run{
		ID:        state.NewID(),
		Service:   "worker",
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
		LogPath:   "/tmp/worker-20260829.log",
	}
	if err := registry.Register(run); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var out bytes.Buffer
	app := &App{stdout: &out}
	if err := app.showStatus(); err != nil {
		t.Fatalf("showStatus() error = %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "RUN ID") {
		t.Errorf("header missing the run ID column: %q", text)
	}
	if !strings.Contains(text, run.ID) {
		t.Errorf("run ID %s not listed: %q", run.ID, text)
	}
}

func TestHasRun(t *testing.T) {
	t.Parallel()

	runs := []state.Run{{Service: "worker", PID: 1}}
	if !hasRun(runs, "worker") {
		t.Error("worker should be reported running")
	}
	if hasRun(runs, "server") {
		t.Error("server should not be reported running")
	}
}
