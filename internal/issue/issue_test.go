// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("exec: \"celery\": executable file not found in $PATH")
	err := NewErrorContext().
		WithOperation("launch service").
		WithResource("worker").
		WithSuggestion("Check that 'celery' is on your PATH").
		Wrap(cause).
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() did not produce *ActionableError: %T", err)
	}

	msg := ae.Error()
	if !strings.Contains(msg, "failed to launch service") {
		t.Errorf("Error() missing operation: %q", msg)
	}
	if !strings.Contains(msg, "worker") {
		t.Errorf("Error() missing resource: %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestActionableErrorFormat(t *testing.T) {
	t.Parallel()

	inner := errors.New("permission denied")
	outer := NewErrorContext().
		WithOperation("open log file").
		WithResource("logs/server-20260829.log").
		WithSuggestion("Check permissions on the log directory").
		Wrap(inner).
		BuildError()

	var ae *ActionableError
	if !errors.As(outer, &ae) {
		t.Fatal("expected *ActionableError")
	}

	plain := ae.Format(false)
	if !strings.Contains(plain, "• Check permissions") {
		t.Errorf("Format(false) missing suggestion: %q", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Format(false) should not include chain: %q", plain)
	}

	verbose := ae.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("Format(true) missing chain: %q", verbose)
	}
	if !strings.Contains(verbose, "permission denied") {
		t.Errorf("Format(true) missing cause in chain: %q", verbose)
	}
}

func TestWrapWithOperationNil(t *testing.T) {
	t.Parallel()

	if got := WrapWithOperation(nil, "launch service"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}
}

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	for _, id := range []Id{
		ConfigLoadFailedId,
		StackfileNotFoundId,
		StackfileParseErrorId,
		ProgramNotFoundId,
		ServiceAlreadyRunningId,
		ServiceNotRegisteredId,
		LogDirNotWritableId,
	} {
		iss := Get(id)
		if iss == nil {
			t.Errorf("Get(%d) = nil, want catalog entry", id)
			continue
		}
		if iss.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, iss.Id())
		}
		if iss.MarkdownMsg() == "" {
			t.Errorf("Get(%d) has empty markdown", id)
		}
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(unknown) should return nil")
	}
}
