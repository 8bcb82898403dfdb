// SPDX-License-Identifier: MPL-2.0

//go:build unix

package launch

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func shSpec(t *testing.T, script string) *ProcessSpec {
	t.Helper()
	return &ProcessSpec{
		Name: "test",
		Path: "/bin/sh",
		Args: []string{"-c", script},
		Dir:  t.TempDir(),
		Env:  map[string]string{"PATH": "/usr/bin:/bin"},
	}
}

func TestForegroundExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		want   int
	}{
		{name: "success", script: "exit 0", want: 0},
		{name: "failure", script: "exit 3", want: 3},
		{name: "self termination maps to 128+15", script: "kill -TERM $$", want: 143},
		{name: "kill maps to 128+9", script: "kill -KILL $$", want: 137},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			code, err := Foreground(context.Background(), shSpec(t, tt.script), ForegroundOptions{Output: &out})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if int(code) != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestForegroundCombinedOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	spec := shSpec(t, "echo to-stdout; echo to-stderr 1>&2")
	if _, err := Foreground(context.Background(), spec, ForegroundOptions{Output: &out}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "to-stdout") || !strings.Contains(text, "to-stderr") {
		t.Errorf("combined output missing a stream: %q", text)
	}
}

func TestForegroundCancelTerminates(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	var out bytes.Buffer
	start := time.Now()
	code, err := Foreground(ctx, shSpec(t, "sleep 30"), ForegroundOptions{
		Output: &out,
		Grace:  2 * time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancellation took %v, child was not terminated", elapsed)
	}
	if int(code) != 143 {
		t.Errorf("exit code = %d, want 143 (SIGTERM)", code)
	}
}

func TestForegroundEnvReachesChild(t *testing.T) {
	t.Parallel()

	spec := shSpec(t, `printf '%s' "$STACK_MARK"`)
	spec.Env["STACK_MARK"] = "present"

	var out bytes.Buffer
	if _, err := Foreground(context.Background(), spec, ForegroundOptions{Output: &out}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "present" {
		t.Errorf("child saw STACK_MARK = %q, want %q", out.String(), "present")
	}
}
