// SPDX-License-Identifier: MPL-2.0

package state

import (
	"errors"
	"os"
	"testing"
	"time"
)

// testRegistry returns a Registry whose liveness probe treats the given
// pids as alive.
func testRegistry(t *testing.T, alivePIDs ...int) *Registry {
	t.Helper()
	r, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r.alive = func(pid int) bool {
		for _, p := range alivePIDs {
			if p == pid {
				return true
			}
		}
		return false
	}
	return r
}

func TestNewIDUnique(t *testing.T) {
	t.Parallel()

	a, b := NewID(), NewID()
	if a == b {
		t.Errorf("two ids collided: %s", a)
	}
	if len(a) != 26 {
		t.Errorf("id %q is not a 26-char ULID", a)
	}
}

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, 4242)
	run := Run{
		ID:        NewID(),
		Service:   "worker",
		PID:       4242,
		StartedAt: time.Now().UTC(),
		LogPath:   "/tmp/logs/worker-20260829.log",
		Workdir:   "/srv/app",
	}
	if err := r.Register(run); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := r.Lookup("worker")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.ID != run.ID || got.PID != 4242 || got.LogPath != run.LogPath {
		t.Errorf("Lookup returned %+v, want %+v", got, run)
	}
}

func TestRegisterDuplicateService(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, 100, 200)
	if err := r.Register(Run{ID: NewID(), Service: "server", PID: 100}); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	err := r.Register(Run{ID: NewID(), Service: "server", PID: 200})
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	var dup *AlreadyRunningError
	if !errors.As(err, &dup) {
		t.Fatalf("expected AlreadyRunningError, got %T", err)
	}
	if dup.PID != 100 {
		t.Errorf("PID = %d, want the existing run's 100", dup.PID)
	}
}

func TestDeadRunsArePruned(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, 100)
	if err := r.Register(Run{ID: NewID(), Service: "server", PID: 100}); err != nil {
		t.Fatal(err)
	}

	// The process dies; the record should vanish on the next read.
	r.alive = func(int) bool { return false }

	if _, err := r.Lookup("server"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after death, got %v", err)
	}
	runs, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("List returned %d runs, want 0", len(runs))
	}
}

func TestRegisterAfterDeathSucceeds(t *testing.T) {
	t.Parallel()

	r := testRegistry(t)
	r.alive = func(pid int) bool { return pid == 100 }
	if err := r.Register(Run{ID: NewID(), Service: "worker", PID: 100}); err != nil {
		t.Fatal(err)
	}

	// First run died; a new detached launch must not trip the duplicate check.
	r.alive = func(pid int) bool { return pid == 200 }
	if err := r.Register(Run{ID: NewID(), Service: "worker", PID: 200}); err != nil {
		t.Fatalf("Register after death: %v", err)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	r := testRegistry(t, 100, 200)
	if err := r.Register(Run{ID: NewID(), Service: "worker", PID: 100}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(Run{ID: NewID(), Service: "server", PID: 200}); err != nil {
		t.Fatal(err)
	}

	removed, err := r.Remove("worker")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.PID != 100 {
		t.Errorf("removed PID = %d, want 100", removed.PID)
	}

	runs, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Service != "server" {
		t.Errorf("List after Remove = %+v, want only server", runs)
	}

	if _, err := r.Remove("worker"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on second Remove, got %v", err)
	}
}

func TestRegistrySurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r1, err := NewRegistry(dir)
	if err != nil {
		t.Fatal(err)
	}
	r1.alive = func(int) bool { return true }
	if err := r1.Register(Run{ID: NewID(), Service: "worker", PID: 77}); err != nil {
		t.Fatal(err)
	}

	r2, err := NewRegistry(dir)
	if err != nil {
		t.Fatal(err)
	}
	r2.alive = func(int) bool { return true }
	got, err := r2.Lookup("worker")
	if err != nil {
		t.Fatalf("Lookup from second registry: %v", err)
	}
	if got.PID != 77 {
		t.Errorf("PID = %d, want 77", got.PID)
	}
}

func TestDirHonorsXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")

	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	want := "/custom/state/stackup"
	if dir != want {
		t.Errorf("Dir = %q, want %q", dir, want)
	}
}

func TestDirDefault(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")

	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir == "" || dir == home {
		t.Errorf("Dir = %q, want a path under the home state dir", dir)
	}
}
