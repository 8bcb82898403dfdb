// SPDX-License-Identifier: MPL-2.0

package logsink

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFilePath(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 8, 29, 15, 4, 5, 0, time.Local)
	got := FilePath("/var/log/stack", "worker", ts)
	want := filepath.Join("/var/log/stack", "worker-20260829.log")
	if got != want {
		t.Errorf("FilePath() = %q, want %q", got, want)
	}
}

func TestSinkWritesAndAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := New(dir, "server")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Write([]byte("first line\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	path := s.Path()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening appends rather than truncating.
	s2, err := New(dir, "server")
	if err != nil {
		t.Fatalf("New() second open error = %v", err)
	}
	if _, err := s2.Write([]byte("second line\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s2.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "first line") || !strings.Contains(string(data), "second line") {
		t.Errorf("log content = %q, want both lines", data)
	}
}

func TestSinkCreatesLogDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "logs")

	s, err := New(dir, "worker")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("log dir not created: %v", err)
	}
}

func TestSinkRollsOverAtMidnight(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	current := time.Date(2026, 8, 29, 23, 59, 0, 0, time.Local)

	s, err := New(dir, "worker", WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	if _, err := s.Write([]byte("before midnight\n")); err != nil {
		t.Fatal(err)
	}
	firstPath := s.Path()

	current = current.Add(2 * time.Minute) // crosses into 2026-08-30
	if _, err := s.Write([]byte("after midnight\n")); err != nil {
		t.Fatal(err)
	}
	secondPath := s.Path()

	if firstPath == secondPath {
		t.Fatalf("expected rollover, still writing to %s", firstPath)
	}
	if !strings.HasSuffix(firstPath, "worker-20260829.log") {
		t.Errorf("first path = %q", firstPath)
	}
	if !strings.HasSuffix(secondPath, "worker-20260830.log") {
		t.Errorf("second path = %q", secondPath)
	}

	after, err := os.ReadFile(secondPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(after), "before midnight") {
		t.Error("pre-rollover content leaked into the new file")
	}
}

func TestTeeDuplicatesOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "server")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var terminal bytes.Buffer
	w := Tee(&terminal, s)

	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Tee write error = %v", err)
	}

	if terminal.String() != "hello\n" {
		t.Errorf("terminal got %q", terminal.String())
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("file got %q", data)
	}
}
