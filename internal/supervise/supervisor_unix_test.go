// SPDX-License-Identifier: MPL-2.0

//go:build unix

package supervise

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"stackup-cli/internal/launch"
	"stackup-cli/pkg/stackfile"
)

func shSpec(t *testing.T, name stackfile.ServiceName, script string) *launch.ProcessSpec {
	t.Helper()
	return &launch.ProcessSpec{
		Name: name,
		Path: "/bin/sh",
		Args: []string{"-c", script},
		Dir:  t.TempDir(),
		Env:  map[string]string{"PATH": "/usr/bin:/bin"},
	}
}

func TestHandleLifecycle(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	h := NewHandle(shSpec(t, "worker", "echo ready"), HandleOptions{Output: &out})
	if h.State() != StateCreated {
		t.Fatalf("initial state = %s, want created", h.State())
	}

	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	code, err := h.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if h.State() != StateStopped {
		t.Errorf("final state = %s, want stopped", h.State())
	}
	if !strings.Contains(out.String(), "ready") {
		t.Errorf("output = %q, want it to contain %q", out.String(), "ready")
	}
}

func TestHandleFailurePropagatesExitCode(t *testing.T) {
	t.Parallel()

	h := NewHandle(shSpec(t, "worker", "exit 5"), HandleOptions{Output: &bytes.Buffer{}})
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	code, _ := h.Wait()
	if code != 5 {
		t.Errorf("exit code = %d, want 5", code)
	}
	if h.State() != StateFailed {
		t.Errorf("final state = %s, want failed", h.State())
	}
}

func TestHandlePreStartFailureFailsFast(t *testing.T) {
	t.Parallel()

	spec := shSpec(t, "worker", "echo never reached")
	spec.PreStart = "exit 9"
	h := NewHandle(spec, HandleOptions{Output: &bytes.Buffer{}})

	if err := h.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail on pre-start hook")
	}
	if h.State() != StateFailed {
		t.Errorf("state = %s, want failed", h.State())
	}
}

func TestHandleStopIsGraceful(t *testing.T) {
	t.Parallel()

	h := NewHandle(shSpec(t, "server", "sleep 30"), HandleOptions{
		Output: &bytes.Buffer{},
		Grace:  2 * time.Second,
	})
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	h.Stop()

	if _, err := h.Wait(); err != nil {
		t.Fatalf("Wait after Stop: %v", err)
	}
	if h.State() != StateStopped {
		t.Errorf("state after requested stop = %s, want stopped", h.State())
	}
}

func TestHandleDoubleStart(t *testing.T) {
	t.Parallel()

	h := NewHandle(shSpec(t, "worker", "sleep 1"), HandleOptions{Output: &bytes.Buffer{}})
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := h.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	h.Stop()
	_, _ = h.Wait()
}

func TestSupervisorFirstExitBringsGroupDown(t *testing.T) {
	t.Parallel()

	s := &Supervisor{Grace: 2 * time.Second}
	members := []Member{
		{Spec: shSpec(t, "worker", "exit 4"), Output: &bytes.Buffer{}},
		{Spec: shSpec(t, "server", "sleep 30"), Output: &bytes.Buffer{}},
	}

	start := time.Now()
	code, _ := s.Run(context.Background(), members)
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("group took %v to come down", elapsed)
	}
	if code != 4 {
		t.Errorf("group exit code = %d, want the failing service's 4", code)
	}
}

func TestSupervisorInterruptIsClean(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	s := &Supervisor{Grace: 2 * time.Second}
	members := []Member{
		{Spec: shSpec(t, "worker", "sleep 30"), Output: &bytes.Buffer{}},
		{Spec: shSpec(t, "server", "sleep 30"), Output: &bytes.Buffer{}},
	}

	code, err := s.Run(ctx, members)
	if err != nil {
		t.Fatalf("Run after interrupt: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code after clean interrupt = %d, want 0", code)
	}
}

func TestSupervisorRestart(t *testing.T) {
	t.Parallel()

	restart := make(chan struct{})
	var out bytes.Buffer

	// The service prints a marker each (re)start, then idles.
	spec := shSpec(t, "server", "echo started; sleep 30")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Supervisor{Grace: 2 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Run(ctx, []Member{{Spec: spec, Output: &out, Restart: restart}})
	}()

	time.Sleep(300 * time.Millisecond)
	restart <- struct{}{}
	time.Sleep(500 * time.Millisecond)
	cancel()
	<-done

	if got := strings.Count(out.String(), "started"); got < 2 {
		t.Errorf("service started %d times, want at least 2 (restart)", got)
	}
}
