// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"stackup-cli/internal/issue"
)

func TestParseEnvOverlay(t *testing.T) {
	t.Parallel()

	overlay, err := parseEnvOverlay(
		[]string{".env", "secrets.env?"},
		[]string{"FOO=bar", "DSN=postgres://u@h/db?x=1"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overlay.Files) != 2 {
		t.Errorf("Files = %v, want 2 entries", overlay.Files)
	}
	if !overlay.Files[1].IsOptional() {
		t.Error("trailing '?' should mark the file optional")
	}
	if overlay.Vars["FOO"] != "bar" {
		t.Errorf("Vars[FOO] = %q, want %q", overlay.Vars["FOO"], "bar")
	}
	if overlay.Vars["DSN"] != "postgres://u@h/db?x=1" {
		t.Errorf("Vars[DSN] = %q", overlay.Vars["DSN"])
	}
}

func TestParseEnvOverlayRejectsBadFlag(t *testing.T) {
	t.Parallel()

	if _, err := parseEnvOverlay(nil, []string{"NOEQUALS"}); err == nil {
		t.Error("expected error for flag without '='")
	}
	if _, err := parseEnvOverlay(nil, []string{"1BAD=x"}); err == nil {
		t.Error("expected error for invalid variable name")
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("plain error rendered as %q", got)
	}

	actionable := issue.NewErrorContext().
		WithOperation("starting service").
		WithSuggestion("check the program path").
		Wrap(plain).
		BuildError()
	rendered := formatErrorForDisplay(actionable, false)
	if rendered == "" || rendered == "plain failure" {
		t.Errorf("actionable error not formatted: %q", rendered)
	}
}

func TestReportErrorPrintsSuggestions(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := &App{stderr: &stderr}

	actionable := issue.NewErrorContext().
		WithOperation("starting service").
		WithSuggestion("run 'stackup status' to see what is running").
		Wrap(errors.New("boom")).
		BuildError()

	if err := app.reportError(actionable); err == nil {
		t.Fatal("reportError should pass the error through")
	}
	if !strings.Contains(stderr.String(), "run 'stackup status'") {
		t.Errorf("suggestion not printed to stderr: %q", stderr.String())
	}

	stderr.Reset()
	if err := app.reportError(nil); err != nil {
		t.Fatalf("nil should pass through, got %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("nil error produced output: %q", stderr.String())
	}
}
